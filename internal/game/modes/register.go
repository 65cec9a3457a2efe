package modes

import "shakeout/server/internal/game"

// Register adds every built-in mode to the registry.
func Register(r *game.Registry) {
	r.RegisterMode(KeyClassic, NewClassic)
	r.RegisterMode(KeyDeathCount, NewDeathCount)
	r.RegisterMode(KeyRoleBased, NewRoleBased)
	r.RegisterMode(KeyDomination, NewDomination)
}
