package motion

import (
	"errors"
	"math"
	"testing"
)

func TestIntensityClampsToUnitRange(t *testing.T) {
	cfg := DefaultConfig()

	got, err := Intensity(Sample{X: 100}, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 1 {
		t.Fatalf("expected intensity 1, got %f", got)
	}

	got, err = Intensity(Sample{X: 6, Y: 8}, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(got-0.5) > 1e-9 {
		t.Fatalf("expected intensity 0.5, got %f", got)
	}
}

func TestIntensityAppliesDeadzone(t *testing.T) {
	got, err := Intensity(Sample{X: 0.1}, DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 0 {
		t.Fatalf("expected deadzone to zero the reading, got %f", got)
	}
}

func TestIntensityRejectsNonFiniteValues(t *testing.T) {
	cases := map[string]Sample{
		"nan x":        {X: math.NaN()},
		"inf z":        {Z: math.Inf(1)},
		"nan override": {Intensity: floatPtr(math.NaN())},
	}
	for name, sample := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Intensity(sample, DefaultConfig()); !errors.Is(err, ErrMalformedSample) {
				t.Fatalf("expected ErrMalformedSample, got %v", err)
			}
		})
	}
}

func TestIntensityHonoursDeviceOverride(t *testing.T) {
	got, err := Intensity(Sample{X: 100, Intensity: floatPtr(0.3)}, DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 0.3 {
		t.Fatalf("expected override intensity 0.3, got %f", got)
	}
}

func TestNormalizerSmoothsPerPlayer(t *testing.T) {
	n := NewNormalizer(Config{Smoothing: 0.5, Deadzone: 0.001})

	if _, err := n.Normalize("a", Sample{Intensity: floatPtr(1)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	reading, err := n.Normalize("a", Sample{Intensity: floatPtr(0)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(reading.Intensity-0.5) > 1e-9 {
		t.Fatalf("expected smoothed intensity 0.5, got %f", reading.Intensity)
	}

	other, err := n.Normalize("b", Sample{Intensity: floatPtr(0.2)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(other.Intensity-0.2) > 1e-9 {
		t.Fatalf("expected independent filter for b, got %f", other.Intensity)
	}

	if got := n.History("a").Len(); got != 2 {
		t.Fatalf("expected two history entries for a, got %d", got)
	}

	n.Reset("a")
	if n.History("a") != nil {
		t.Fatalf("expected history to be dropped after reset")
	}
}

func TestHistoryRingEvictsOldest(t *testing.T) {
	h := NewHistory(3)
	for _, v := range []float64{0.1, 0.2, 0.3, 0.9} {
		h.Push(v)
	}
	values := h.Values()
	want := []float64{0.2, 0.3, 0.9}
	if len(values) != len(want) {
		t.Fatalf("expected %d values, got %d", len(want), len(values))
	}
	for i := range want {
		if values[i] != want[i] {
			t.Fatalf("value %d: expected %f, got %f", i, want[i], values[i])
		}
	}
	if h.Peak() != 0.9 {
		t.Fatalf("expected peak 0.9, got %f", h.Peak())
	}
	if last, ok := h.Last(); !ok || last != 0.9 {
		t.Fatalf("expected last 0.9, got %f (%v)", last, ok)
	}
	if avg := h.Average(); math.Abs(avg-(1.4/3)) > 1e-9 {
		t.Fatalf("unexpected average %f", avg)
	}
}

func floatPtr(v float64) *float64 {
	return &v
}
