package world

import (
	"time"

	"github.com/brickworld/brickworld/internal/core/ecs"
	"github.com/brickworld/brickworld/internal/core/event"
	"github.com/brickworld/brickworld/internal/physics"
)

// DefaultMaxHealth applies when AddPlayer is given no health.
const DefaultMaxHealth = 5

// PlayerState is the player's mutable state.
type PlayerState struct {
	Name      string
	Health    int
	MaxHealth int
	Score     int

	Invincible bool
	Ducking    bool
	CanShoot   bool
	Jumping    bool
	Dead       bool
	Facing     float64 // +1 right, -1 left

	// supports holds the blocks the player currently stands on.
	supports        map[ecs.EntityID]struct{}
	invincibleUntil time.Duration
}

// Carry returns the stats that survive a level change.
func (p *PlayerState) Carry() PlayerState {
	return PlayerState{
		Name:      p.Name,
		Health:    p.Health,
		MaxHealth: p.MaxHealth,
		Score:     p.Score,
		CanShoot:  p.CanShoot,
	}
}

// Supported reports whether the player stands on at least one block.
func (p *PlayerState) Supported() bool { return len(p.supports) > 0 }

func (p *PlayerState) addSupport(id ecs.EntityID) {
	if p.supports == nil {
		p.supports = make(map[ecs.EntityID]struct{})
	}
	p.supports[id] = struct{}{}
	p.Jumping = false
}

func (p *PlayerState) dropSupport(id ecs.EntityID) {
	if _, ok := p.supports[id]; !ok {
		return
	}
	delete(p.supports, id)
	if len(p.supports) == 0 {
		p.Jumping = true
	}
}

// changeHealth applies delta clamped to [0, MaxHealth] and reports whether
// the player died from it.
func (p *PlayerState) changeHealth(delta int) bool {
	if p.Dead {
		return false
	}
	p.Health += delta
	if p.Health > p.MaxHealth {
		p.Health = p.MaxHealth
	}
	if p.Health <= 0 {
		p.Health = 0
		p.Dead = true
		return true
	}
	return false
}

// damagePlayer subtracts the rules' contact damage for a mob kind and
// signals death once.
func (w *World) damagePlayer(pb *Body, st *PlayerState, mobKind Kind) {
	dmg := w.rules.ContactDamage(string(mobKind), st.Health)
	if dmg <= 0 {
		return
	}
	if st.changeHealth(-dmg) {
		w.log.Debug("player died")
		event.Emit(w.bus, event.PlayerDied{Player: pb.ID, Score: st.Score})
	}
}

// makeInvincible grants invincibility until now+d, extending any running
// period. The revert is checked against the deadline so an earlier grant's
// timer cannot cut a later one short.
func (w *World) makeInvincible(id ecs.EntityID, st *PlayerState, d time.Duration) {
	st.Invincible = true
	until := w.Now() + d
	if until > st.invincibleUntil {
		st.invincibleUntil = until
	}
	w.after(d, id, func(w *World, _ *Body) {
		cur, ok := w.players.Get(id)
		if !ok || w.Now() < cur.invincibleUntil {
			return
		}
		cur.Invincible = false
	})
}

// CommandOp is a player input.
type CommandOp uint8

const (
	CmdMove CommandOp = iota + 1
	CmdJump
	CmdDuck
	CmdStand
	CmdShoot
)

func (op CommandOp) String() string {
	switch op {
	case CmdMove:
		return "move"
	case CmdJump:
		return "jump"
	case CmdDuck:
		return "duck"
	case CmdStand:
		return "stand"
	case CmdShoot:
		return "shoot"
	}
	return "unknown"
}

// Command is queued by the embedder and applied in the input phase.
type Command struct {
	Op CommandOp
	VX float64 // horizontal velocity for CmdMove
}

func Move(vx float64) Command { return Command{Op: CmdMove, VX: vx} }
func Jump() Command           { return Command{Op: CmdJump} }
func Duck() Command           { return Command{Op: CmdDuck} }
func Stand() Command          { return Command{Op: CmdStand} }
func Shoot() Command          { return Command{Op: CmdShoot} }

// Enqueue queues a command for the next step.
func (w *World) Enqueue(c Command) {
	w.inbox = append(w.inbox, c)
}

func (w *World) applyCommand(c Command) error {
	pb, st, ok := w.Player()
	if !ok || st.Dead {
		return nil
	}
	w.refresh(pb)
	switch c.Op {
	case CmdMove:
		w.SetVelocity(pb, physics.Vec{X: c.VX, Y: pb.Vel.Y})
		if c.VX > 0 {
			st.Facing = 1
		} else if c.VX < 0 {
			st.Facing = -1
		}
	case CmdJump:
		if st.Jumping {
			return nil
		}
		w.SetVelocity(pb, physics.Vec{X: pb.Vel.X, Y: -w.tuning.JumpVelocity})
		st.Jumping = true
	case CmdDuck:
		st.Ducking = true
	case CmdStand:
		st.Ducking = false
	case CmdShoot:
		if !st.CanShoot {
			return nil
		}
		kind, dx := KindBulletRight, w.tuning.BulletOffset
		if st.Facing < 0 {
			kind, dx = KindBulletLeft, -dx
		}
		if _, err := w.AddMob(kind, pb.Pos.X+dx, pb.Pos.Y); err != nil {
			return err
		}
	}
	return nil
}
