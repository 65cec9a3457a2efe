package game

import "time"

const (
	DefaultDangerThreshold   = 0.7
	DefaultDamageMultiplier  = 100.0
	DefaultKillThreshold     = 100.0
	DefaultCountdownSeconds  = 3
	DefaultRespawnDelayMs    = 5000
	DefaultTheme             = "standard"
	DefaultSeed              = "shakeout"
	DefaultControlIntervalMs = 5000
	DefaultTeamCount         = 2
	DefaultBaseCount         = 3
)

// DamagePolicy selects how applied damage turns into deaths.
type DamagePolicy string

const (
	// DamageAccumulate kills a player once accumulated damage reaches the
	// kill threshold.
	DamageAccumulate DamagePolicy = "accumulate"
	// DamageInstant attempts a death on any positive post-modifier damage.
	DamageInstant DamagePolicy = "instant"
)

// ModeConfig is the host-supplied configuration of a game. Zero values fall
// back to the mode defaults.
type ModeConfig struct {
	Mode                 string       `json:"mode" jsonschema:"required,enum=classic,enum=death-count,enum=role-based,enum=domination"`
	Theme                string       `json:"theme,omitempty" jsonschema:"enum=standard,enum=night"`
	Rounds               int          `json:"rounds,omitempty" jsonschema:"minimum=0"`
	TargetScore          int          `json:"targetScore,omitempty" jsonschema:"minimum=0"`
	RoundDurationMs      int64        `json:"roundDurationMs,omitempty" jsonschema:"minimum=0"`
	CountdownSeconds     *int         `json:"countdownSeconds,omitempty" jsonschema:"minimum=0"`
	DangerThreshold      float64      `json:"dangerThreshold,omitempty" jsonschema:"minimum=0,maximum=1"`
	DamageMultiplier     float64      `json:"damageMultiplier,omitempty" jsonschema:"minimum=0"`
	KillThreshold        float64      `json:"killThreshold,omitempty" jsonschema:"minimum=0"`
	DamagePolicy         DamagePolicy `json:"damagePolicy,omitempty" jsonschema:"enum=accumulate,enum=instant"`
	RespawnDelayMs       int64        `json:"respawnDelayMs,omitempty" jsonschema:"minimum=0"`
	TeamCount            int          `json:"teamCount,omitempty" jsonschema:"minimum=0"`
	BaseCount            int          `json:"baseCount,omitempty" jsonschema:"minimum=0"`
	ControlIntervalMs    int64        `json:"controlIntervalMs,omitempty" jsonschema:"minimum=0"`
	SpeedShift           bool         `json:"speedShift,omitempty"`
	SpeedShiftIntervalMs int64        `json:"speedShiftIntervalMs,omitempty" jsonschema:"minimum=0"`
	Seed                 string       `json:"seed,omitempty"`
}

// Normalized fills unset fields with their defaults.
func (c ModeConfig) Normalized() ModeConfig {
	out := c
	if out.Theme == "" {
		out.Theme = DefaultTheme
	}
	if out.CountdownSeconds == nil {
		seconds := DefaultCountdownSeconds
		out.CountdownSeconds = &seconds
	} else if *out.CountdownSeconds < 0 {
		seconds := 0
		out.CountdownSeconds = &seconds
	}
	if out.DangerThreshold <= 0 {
		out.DangerThreshold = DefaultDangerThreshold
	}
	if out.DamageMultiplier <= 0 {
		out.DamageMultiplier = DefaultDamageMultiplier
	}
	if out.KillThreshold <= 0 {
		out.KillThreshold = DefaultKillThreshold
	}
	if out.DamagePolicy == "" {
		out.DamagePolicy = DamageAccumulate
	}
	if out.RespawnDelayMs <= 0 {
		out.RespawnDelayMs = DefaultRespawnDelayMs
	}
	if out.TeamCount <= 0 {
		out.TeamCount = DefaultTeamCount
	}
	if out.BaseCount <= 0 {
		out.BaseCount = DefaultBaseCount
	}
	if out.ControlIntervalMs <= 0 {
		out.ControlIntervalMs = DefaultControlIntervalMs
	}
	if out.Seed == "" {
		out.Seed = DefaultSeed
	}
	if out.Rounds < 0 {
		out.Rounds = 0
	}
	if out.TargetScore < 0 {
		out.TargetScore = 0
	}
	if out.RoundDurationMs < 0 {
		out.RoundDurationMs = 0
	}
	return out
}

// Validate reports configuration values no mode can work with.
func (c ModeConfig) Validate() error {
	if c.Mode == "" {
		return validationErrorf("mode", "a game mode is required")
	}
	if c.DangerThreshold > 1 {
		return validationErrorf("dangerThreshold", "must be between 0 and 1, got %v", c.DangerThreshold)
	}
	switch c.DamagePolicy {
	case "", DamageAccumulate, DamageInstant:
	default:
		return validationErrorf("damagePolicy", "unknown damage policy %q", c.DamagePolicy)
	}
	return nil
}

// Countdown returns the configured countdown length.
func (c ModeConfig) Countdown() time.Duration {
	if c.CountdownSeconds == nil {
		return DefaultCountdownSeconds * time.Second
	}
	return time.Duration(*c.CountdownSeconds) * time.Second
}

// RoundDuration returns the round time limit, or zero when rounds are open ended.
func (c ModeConfig) RoundDuration() time.Duration {
	return time.Duration(c.RoundDurationMs) * time.Millisecond
}

// RespawnDelay returns the delay between a death and the matching respawn.
func (c ModeConfig) RespawnDelay() time.Duration {
	return time.Duration(c.RespawnDelayMs) * time.Millisecond
}

// ControlInterval returns how long a base must be held to score.
func (c ModeConfig) ControlInterval() time.Duration {
	return time.Duration(c.ControlIntervalMs) * time.Millisecond
}

// CountdownSecondsPtr is a helper for building configs in code.
func CountdownSecondsPtr(seconds int) *int {
	return &seconds
}
