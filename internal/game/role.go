package game

import "time"

// RoleInfo is the client-facing description of a role assignment.
type RoleInfo struct {
	Name        string `json:"name" msgpack:"name"`
	DisplayName string `json:"displayName" msgpack:"displayName"`
	Description string `json:"description" msgpack:"description"`
	TargetID    string `json:"targetId,omitempty" msgpack:"targetId,omitempty"`
	TargetName  string `json:"targetName,omitempty" msgpack:"targetName,omitempty"`
}

// Role is a per-player behavior bundle. Every hook receives the player that
// owns the role instance.
type Role interface {
	Name() string
	// Init runs once when the game starts.
	Init(p *Player, gameTime time.Duration)
	// PreRoundSetup runs after the round reset and before role:assigned is
	// emitted. Target and ally selection happens here.
	PreRoundSetup(p *Player, players []*Player)
	Tick(p *Player, gameTime, delta time.Duration)
	// CheckMovementDamage converts a normalized intensity into damage.
	CheckMovementDamage(p *Player, intensity float64, gameTime time.Duration)
	// PlayerDied is called on every other player's role when someone dies.
	PlayerDied(p *Player, victim *Player, gameTime time.Duration)
	Describe(p *Player) RoleInfo
}

// RoleFactory builds a fresh role instance for one player.
type RoleFactory func(w World) Role

// BaseRole implements the default pipeline. Concrete roles embed it and
// override individual hooks.
type BaseRole struct {
	Key         string
	DisplayName string
	Description string
}

func (r BaseRole) Name() string {
	if r.Key == "" {
		return "villager"
	}
	return r.Key
}

func (BaseRole) Init(*Player, time.Duration)                {}
func (BaseRole) PreRoundSetup(*Player, []*Player)           {}
func (BaseRole) Tick(*Player, time.Duration, time.Duration) {}
func (BaseRole) PlayerDied(*Player, *Player, time.Duration) {}

func (BaseRole) CheckMovementDamage(p *Player, intensity float64, gameTime time.Duration) {
	MovementDamage(p, intensity, gameTime)
}

func (r BaseRole) Describe(p *Player) RoleInfo {
	info := RoleInfo{Name: r.Name(), DisplayName: r.DisplayName, Description: r.Description}
	if info.DisplayName == "" {
		info.DisplayName = info.Name
	}
	if p != nil && p.targetID != "" {
		info.TargetID = p.targetID
		if p.world != nil {
			if target := p.world.Player(p.targetID); target != nil {
				info.TargetName = target.Name()
			}
		}
	}
	return info
}

// MovementDamage is the default threshold rule: intensity above the player's
// danger threshold deals (intensity - threshold) * multiplier raw damage.
func MovementDamage(p *Player, intensity float64, gameTime time.Duration) float64 {
	if p == nil || !p.alive {
		return 0
	}
	threshold := p.dangerThreshold
	if intensity <= threshold {
		return 0
	}
	return p.TakeDamage((intensity-threshold)*p.damageMultiplier, gameTime)
}
