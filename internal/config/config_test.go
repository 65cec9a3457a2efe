package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"shakeout/server/logging"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":8080" || cfg.TickRate != 10 || cfg.DefaultMode != "classic" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.TickInterval() != 100*time.Millisecond {
		t.Fatalf("expected a 100ms tick, got %s", cfg.TickInterval())
	}
	mode := cfg.ModeConfig()
	if mode.CountdownSeconds == nil || *mode.CountdownSeconds != 3 {
		t.Fatalf("expected a 3s countdown, got %v", mode.CountdownSeconds)
	}
	if cfg.LoggingConfig().HasSink("json") {
		t.Fatalf("json sink should stay disabled without a path")
	}
	if !cfg.LoggingConfig().HasSink("memory") {
		t.Fatalf("expected the memory sink to back diagnostics")
	}
}

func TestLoadReadsEnvironmentAndDotEnv(t *testing.T) {
	dir := t.TempDir()
	dotenv := filepath.Join(dir, "test.env")
	contents := "SHAKEOUT_DEFAULT_MODE=domination\nSHAKEOUT_TICK_RATE=20\nSHAKEOUT_LOG_JSON_PATH=events.jsonl\n"
	if err := os.WriteFile(dotenv, []byte(contents), 0o600); err != nil {
		t.Fatalf("write dotenv: %v", err)
	}
	// The process environment wins over the file.
	t.Setenv("SHAKEOUT_TICK_RATE", "25")
	t.Setenv("SHAKEOUT_LOG_LEVEL", "debug")
	t.Setenv("ENABLE_PPROF_TRACE", "true")
	t.Cleanup(func() {
		os.Unsetenv("SHAKEOUT_DEFAULT_MODE")
		os.Unsetenv("SHAKEOUT_LOG_JSON_PATH")
	})

	cfg, err := Load(dotenv)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DefaultMode != "domination" || cfg.TickRate != 25 {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if !cfg.Observability().EnablePprofTrace {
		t.Fatalf("expected pprof to be enabled")
	}
	logCfg := cfg.LoggingConfig()
	if !logCfg.HasSink("json") || logCfg.JSON.FilePath != "events.jsonl" {
		t.Fatalf("expected the json sink to be enabled, got %+v", logCfg)
	}
	if logCfg.MinimumSeverity != logging.SeverityDebug {
		t.Fatalf("expected debug severity, got %s", logCfg.MinimumSeverity)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.env")
	cases := []struct {
		name string
		key  string
		val  string
		want string
	}{
		{"unparsable", "SHAKEOUT_TICK_RATE", "fast", "parse env"},
		{"zero tick rate", "SHAKEOUT_TICK_RATE", "0", "SHAKEOUT_TICK_RATE"},
		{"smoothing", "SHAKEOUT_MOTION_SMOOTHING", "1.5", "SHAKEOUT_MOTION_SMOOTHING"},
		{"log level", "SHAKEOUT_LOG_LEVEL", "loud", "SHAKEOUT_LOG_LEVEL"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.val)
			_, err := Load(missing)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected an error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestEngineConfigCarriesSmoothing(t *testing.T) {
	cfg := Config{TickRate: 50, MotionSmoothing: 0.25}
	engine := cfg.EngineConfig()
	if engine.TickInterval != 20*time.Millisecond || engine.Motion.Smoothing != 0.25 {
		t.Fatalf("unexpected engine config %+v", engine)
	}
}
