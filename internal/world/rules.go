package world

import (
	"time"

	"github.com/brickworld/brickworld/internal/physics"
)

// Rules supplies the numbers behaviours ask for at contact time. The default
// is FixedRules; scripting.Engine implements the same methods in Lua.
type Rules interface {
	// ContactDamage is the health a mob of the given kind takes from the
	// player on a side contact.
	ContactDamage(mobKind string, playerHealth int) int
	// CollectScore is the score awarded for an item with the given value.
	CollectScore(itemKind string, value int) int
}

// FixedRules returns the same damage for every mob and scores items at face value.
type FixedRules struct {
	Damage int
}

func (r FixedRules) ContactDamage(string, int) int { return r.Damage }

func (r FixedRules) CollectScore(_ string, value int) int { return value }

// Tuning collects the fixed constants of every behaviour.
type Tuning struct {
	SwitchRadius   float64
	SwitchCooldown time.Duration

	BounceVelocity float64
	BounceRevert   time.Duration

	SquishRebound float64
	SquishRemoval time.Duration
	Knockback     float64
	Hop           physics.Vec // seeker hop over a wall, X is the magnitude

	FlagHeal     int
	StarDuration time.Duration

	MysteryDropMin int
	MysteryDropMax int

	JumpVelocity   float64
	MaxPlayerSpeed float64
	BulletOffset   float64
}

// DefaultTuning mirrors the shipped config/brickworld.toml.
func DefaultTuning() Tuning {
	return Tuning{
		SwitchRadius:   60,
		SwitchCooldown: 10 * time.Second,
		BounceVelocity: 400,
		BounceRevert:   500 * time.Millisecond,
		SquishRebound:  100,
		SquishRemoval:  400 * time.Millisecond,
		Knockback:      50,
		Hop:            physics.Vec{X: 50, Y: 350},
		FlagHeal:       1,
		StarDuration:   10 * time.Second,
		MysteryDropMin: 3,
		MysteryDropMax: 6,
		JumpVelocity:   200,
		MaxPlayerSpeed: 500,
		BulletOffset:   16,
	}
}
