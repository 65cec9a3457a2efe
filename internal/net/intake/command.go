package intake

import (
	"errors"
	"time"

	"shakeout/server/internal/game"
	"shakeout/server/internal/motion"
	"shakeout/server/internal/net/proto"
)

var (
	// ErrNoEngine is returned when a message arrives before an engine is attached.
	ErrNoEngine = errors.New("no engine attached")
	// ErrAdminDisabled rejects debug commands on servers that have not enabled them.
	ErrAdminDisabled = errors.New("admin commands are disabled")
)

// Controller is the part of the game engine that client messages drive.
type Controller interface {
	StartGame(players []game.PlayerSpec, cfg game.ModeConfig) error
	StopGame()
	NextRound() error
	HandlePlayerMovement(playerID string, sample motion.Sample) error
	CaptureBase(playerID, baseID string) error
	ApplyStatusEffect(playerID, effectName string, duration time.Duration) error
}

type CommandContext struct {
	Engine Controller
	// Roster returns the players that join when a game starts.
	Roster        func() []game.PlayerSpec
	DefaultConfig game.ModeConfig
	AllowAdmin    bool
}

// Dispatch applies a decoded client message on behalf of playerID.
func Dispatch(ctx CommandContext, playerID string, msg proto.ClientMessage) error {
	if ctx.Engine == nil {
		return ErrNoEngine
	}

	switch msg.Type {
	case proto.TypeMotion:
		return ctx.Engine.HandlePlayerMovement(playerID, msg.Sample())
	case proto.TypeStart:
		var roster []game.PlayerSpec
		if ctx.Roster != nil {
			roster = ctx.Roster()
		}
		return ctx.Engine.StartGame(roster, startConfig(ctx.DefaultConfig, msg.Config))
	case proto.TypeStop:
		ctx.Engine.StopGame()
		return nil
	case proto.TypeNext:
		return ctx.Engine.NextRound()
	case proto.TypeCapture:
		if msg.BaseID == "" {
			return &game.ValidationError{Field: "baseId", Message: "baseId is required"}
		}
		return ctx.Engine.CaptureBase(playerID, msg.BaseID)
	case proto.TypeEffect:
		if !ctx.AllowAdmin {
			return ErrAdminDisabled
		}
		target := msg.PlayerID
		if target == "" {
			target = playerID
		}
		return ctx.Engine.ApplyStatusEffect(target, msg.Effect, msg.Duration())
	}
	return proto.ErrUnknownMessage
}

// startConfig layers the host's requested config over the server default.
// A request without a mode inherits the default mode.
func startConfig(fallback game.ModeConfig, requested *game.ModeConfig) game.ModeConfig {
	if requested == nil {
		return fallback
	}
	cfg := *requested
	if cfg.Mode == "" {
		cfg.Mode = fallback.Mode
	}
	if cfg.CountdownSeconds == nil {
		cfg.CountdownSeconds = fallback.CountdownSeconds
	}
	if cfg.Seed == "" {
		cfg.Seed = fallback.Seed
	}
	return cfg
}
