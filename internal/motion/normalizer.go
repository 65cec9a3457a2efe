package motion

import (
	"errors"
	"fmt"
	"math"
)

const (
	// DefaultMaxMagnitude is the acceleration magnitude (m/s², gravity removed)
	// that maps to intensity 1.0.
	DefaultMaxMagnitude = 20.0
	// DefaultDeadzone suppresses sensor noise below this intensity.
	DefaultDeadzone = 0.02
	// DefaultSmoothing disables smoothing; 1 keeps only the newest reading.
	DefaultSmoothing = 1.0
	// DefaultHistorySize is the number of readings retained per player.
	DefaultHistorySize = 32
)

// ErrMalformedSample reports a motion payload that cannot be normalized.
var ErrMalformedSample = errors.New("malformed motion sample")

// Sample is a raw device motion reading. Intensity, when set, carries a value
// the device already normalized and bypasses the magnitude computation.
type Sample struct {
	X         float64  `json:"x" msgpack:"x"`
	Y         float64  `json:"y" msgpack:"y"`
	Z         float64  `json:"z" msgpack:"z"`
	Intensity *float64 `json:"intensity,omitempty" msgpack:"intensity,omitempty"`
	Timestamp int64    `json:"timestamp,omitempty" msgpack:"timestamp,omitempty"`
}

// Reading is the normalized output of a sample.
type Reading struct {
	Raw       float64
	Intensity float64
}

// Config tunes the normalizer.
type Config struct {
	MaxMagnitude float64 `json:"maxMagnitude,omitempty"`
	Deadzone     float64 `json:"deadzone,omitempty"`
	Smoothing    float64 `json:"smoothing,omitempty"`
	HistorySize  int     `json:"historySize,omitempty"`
}

// DefaultConfig returns the baseline normalizer configuration.
func DefaultConfig() Config {
	return Config{
		MaxMagnitude: DefaultMaxMagnitude,
		Deadzone:     DefaultDeadzone,
		Smoothing:    DefaultSmoothing,
		HistorySize:  DefaultHistorySize,
	}
}

func (cfg Config) normalized() Config {
	result := cfg
	if result.MaxMagnitude <= 0 || math.IsNaN(result.MaxMagnitude) || math.IsInf(result.MaxMagnitude, 0) {
		result.MaxMagnitude = DefaultMaxMagnitude
	}
	if result.Deadzone < 0 || result.Deadzone >= 1 || math.IsNaN(result.Deadzone) {
		result.Deadzone = DefaultDeadzone
	}
	if result.Smoothing <= 0 || result.Smoothing > 1 || math.IsNaN(result.Smoothing) {
		result.Smoothing = DefaultSmoothing
	}
	if result.HistorySize <= 0 {
		result.HistorySize = DefaultHistorySize
	}
	return result
}

// Normalizer converts raw samples into bounded intensities. It keeps a
// smoothing filter and a movement history per player.
type Normalizer struct {
	config    Config
	filters   map[string]float64
	histories map[string]*History
}

// NewNormalizer constructs a normalizer with the provided configuration.
func NewNormalizer(cfg Config) *Normalizer {
	return &Normalizer{
		config:    cfg.normalized(),
		filters:   make(map[string]float64),
		histories: make(map[string]*History),
	}
}

// Config returns the normalized configuration.
func (n *Normalizer) Config() Config {
	if n == nil {
		return DefaultConfig()
	}
	return n.config
}

// Intensity converts a single sample without touching per-player state.
func Intensity(sample Sample, cfg Config) (float64, error) {
	cfg = cfg.normalized()
	if sample.Intensity != nil {
		value := *sample.Intensity
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return 0, fmt.Errorf("%w: intensity is not finite", ErrMalformedSample)
		}
		return applyDeadzone(clamp01(value), cfg.Deadzone), nil
	}
	for _, component := range [...]float64{sample.X, sample.Y, sample.Z} {
		if math.IsNaN(component) || math.IsInf(component, 0) {
			return 0, fmt.Errorf("%w: acceleration is not finite", ErrMalformedSample)
		}
	}
	magnitude := math.Sqrt(sample.X*sample.X + sample.Y*sample.Y + sample.Z*sample.Z)
	return applyDeadzone(clamp01(magnitude/cfg.MaxMagnitude), cfg.Deadzone), nil
}

// Normalize converts the sample for the given player, applies the smoothing
// filter and records the result in the player's history.
func (n *Normalizer) Normalize(playerID string, sample Sample) (Reading, error) {
	if n == nil {
		return Reading{}, fmt.Errorf("%w: no normalizer", ErrMalformedSample)
	}
	raw, err := Intensity(sample, n.config)
	if err != nil {
		return Reading{}, err
	}
	smoothed := raw
	if n.config.Smoothing < 1 {
		if prev, ok := n.filters[playerID]; ok {
			smoothed = n.config.Smoothing*raw + (1-n.config.Smoothing)*prev
		}
	}
	n.filters[playerID] = smoothed
	n.history(playerID).Push(smoothed)
	return Reading{Raw: raw, Intensity: smoothed}, nil
}

// History returns the movement history for the player, or nil when none exists.
func (n *Normalizer) History(playerID string) *History {
	if n == nil {
		return nil
	}
	return n.histories[playerID]
}

// Reset drops all per-player state for the given player.
func (n *Normalizer) Reset(playerID string) {
	if n == nil {
		return
	}
	delete(n.filters, playerID)
	delete(n.histories, playerID)
}

// ResetAll drops every player's filter and history.
func (n *Normalizer) ResetAll() {
	if n == nil {
		return
	}
	n.filters = make(map[string]float64)
	n.histories = make(map[string]*History)
}

func (n *Normalizer) history(playerID string) *History {
	h, ok := n.histories[playerID]
	if !ok {
		h = NewHistory(n.config.HistorySize)
		n.histories[playerID] = h
	}
	return h
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func applyDeadzone(v, deadzone float64) float64 {
	if v < deadzone {
		return 0
	}
	return v
}
