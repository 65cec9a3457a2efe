// Package catalog assembles the registry of built-in roles, modes and
// status effects.
package catalog

import (
	"shakeout/server/internal/game"
	"shakeout/server/internal/game/effects"
	"shakeout/server/internal/game/modes"
	"shakeout/server/internal/game/roles"
)

// Default returns a registry populated with every built-in factory.
func Default() *game.Registry {
	r := game.NewRegistry()
	effects.Register(r)
	roles.Register(r)
	modes.Register(r)
	return r
}
