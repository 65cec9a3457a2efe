package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"shakeout/server/internal/game"
	"shakeout/server/internal/motion"
	"shakeout/server/internal/observability"
	"shakeout/server/logging"
)

// Config is the process configuration read from the environment.
type Config struct {
	Addr     string `env:"SHAKEOUT_ADDR" envDefault:":8080"`
	TickRate int    `env:"SHAKEOUT_TICK_RATE" envDefault:"10"`

	LogLevel    string `env:"SHAKEOUT_LOG_LEVEL" envDefault:"info"`
	LogJSONPath string `env:"SHAKEOUT_LOG_JSON_PATH"`
	LogColor    bool   `env:"SHAKEOUT_LOG_COLOR" envDefault:"true"`

	DefaultMode      string  `env:"SHAKEOUT_DEFAULT_MODE" envDefault:"classic"`
	Seed             string  `env:"SHAKEOUT_SEED"`
	CountdownSeconds int     `env:"SHAKEOUT_COUNTDOWN_SECONDS" envDefault:"3"`
	MotionSmoothing  float64 `env:"SHAKEOUT_MOTION_SMOOTHING" envDefault:"1"`
	AllowAdmin       bool    `env:"SHAKEOUT_ALLOW_ADMIN"`

	EnablePprofTrace bool `env:"ENABLE_PPROF_TRACE"`
}

// Load reads the given .env files (".env" when none are named) and parses the
// environment. Missing .env files are ignored; values already set in the
// environment win.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", file, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values the server cannot run with.
func (c Config) Validate() error {
	if c.TickRate <= 0 {
		return fmt.Errorf("SHAKEOUT_TICK_RATE must be positive, got %d", c.TickRate)
	}
	if c.CountdownSeconds < 0 {
		return fmt.Errorf("SHAKEOUT_COUNTDOWN_SECONDS must not be negative, got %d", c.CountdownSeconds)
	}
	if c.MotionSmoothing <= 0 || c.MotionSmoothing > 1 {
		return fmt.Errorf("SHAKEOUT_MOTION_SMOOTHING must be in (0, 1], got %v", c.MotionSmoothing)
	}
	if _, err := logging.ParseSeverity(c.LogLevel); err != nil {
		return fmt.Errorf("SHAKEOUT_LOG_LEVEL: %w", err)
	}
	return nil
}

// TickInterval is the simulation period implied by TickRate.
func (c Config) TickInterval() time.Duration {
	return time.Second / time.Duration(c.TickRate)
}

// EngineConfig builds the engine settings.
func (c Config) EngineConfig() game.Config {
	cfg := game.DefaultConfig()
	cfg.TickInterval = c.TickInterval()
	cfg.Motion = motion.DefaultConfig()
	cfg.Motion.Smoothing = c.MotionSmoothing
	return cfg
}

// ModeConfig is the base for start requests that leave fields unset.
func (c Config) ModeConfig() game.ModeConfig {
	return game.ModeConfig{
		Mode:             c.DefaultMode,
		CountdownSeconds: game.CountdownSecondsPtr(c.CountdownSeconds),
		Seed:             c.Seed,
	}
}

// LoggingConfig enables the console and in-memory sinks and, when a path is
// set, the JSON sink.
func (c Config) LoggingConfig() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.MinimumSeverity, _ = logging.ParseSeverity(c.LogLevel)
	cfg.Console.UseColor = c.LogColor
	cfg.EnabledSinks = append(cfg.EnabledSinks, "memory")
	if c.LogJSONPath != "" {
		cfg.EnabledSinks = append(cfg.EnabledSinks, "json")
		cfg.JSON.FilePath = c.LogJSONPath
	}
	return cfg
}

func (c Config) Observability() observability.Config {
	return observability.Config{EnablePprofTrace: c.EnablePprofTrace}
}
