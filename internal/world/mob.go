package world

import (
	"math"

	"go.uber.org/zap"

	"github.com/brickworld/brickworld/internal/physics"
)

// updateMob is the per-tick AI. A mob only ever changes its own velocity.
func (w *World) updateMob(b *Body, m *MobState, player *Body) {
	if m.Squished {
		return
	}
	w.refresh(b)
	switch m.Class {
	case MobWalker:
		w.SetVelocity(b, physics.Vec{X: m.Tempo, Y: b.Vel.Y})
	case MobSeeker:
		speed := math.Abs(m.Tempo)
		vx := b.Vel.X
		if player != nil {
			switch {
			case player.Pos.X > b.Pos.X:
				vx = speed
			case player.Pos.X < b.Pos.X:
				vx = -speed
			}
		}
		w.SetVelocity(b, physics.Vec{X: vx, Y: b.Vel.Y})
	case MobProjectile:
		w.SetVelocity(b, physics.Vec{X: m.Tempo})
	}
}

// reverse flips a mob's walking direction.
func (w *World) reverse(b *Body, m *MobState) {
	m.Tempo = -m.Tempo
	w.SetVelocity(b, physics.Vec{X: -b.Vel.X, Y: b.Vel.Y})
}

// squish stops a squishable mob and schedules its single removal.
func (w *World) squish(b *Body, m *MobState) {
	m.Squished = true
	m.Tempo = 0
	w.SetVelocity(b, physics.Vec{Y: b.Vel.Y})
	w.after(w.tuning.SquishRemoval, b.ID, func(w *World, b *Body) {
		_ = w.Remove(b.ID)
	})
}

func playerHitMob(w *World, c Contact) (bool, error) {
	pb, mob := c.A, c.B
	st, okP := w.players.Get(pb.ID)
	m, okM := w.mobs.Get(mob.ID)
	if !okP || !okM {
		return true, nil
	}
	if m.Squished {
		return false, nil
	}
	if st.Invincible {
		return false, w.Remove(mob.ID)
	}
	if m.Class == MobProjectile {
		w.damagePlayer(pb, st, mob.Kind)
		return false, w.Remove(mob.ID)
	}
	if st.CanShoot {
		st.CanShoot = false
		return true, nil
	}

	switch c.Direction {
	case physics.Above:
		if m.Class.Squishable() {
			w.SetVelocity(pb, physics.Vec{X: pb.Vel.X, Y: -w.tuning.SquishRebound})
			w.squish(mob, m)
		}
	case physics.Below:
		// Stacked under a mob: no damage and no reaction.
	default:
		w.damagePlayer(pb, st, mob.Kind)
		kick := w.tuning.Knockback
		if c.Direction == physics.Left {
			kick = -kick
		}
		w.SetVelocity(pb, physics.Vec{X: kick, Y: pb.Vel.Y})
		if m.Class == MobWalker {
			w.reverse(mob, m)
		}
	}
	return true, nil
}

func mobHitBlock(w *World, c Contact) (bool, error) {
	mob, block := c.A, c.B
	m, ok := w.mobs.Get(mob.ID)
	if !ok {
		return true, nil
	}
	switch m.Class {
	case MobProjectile:
		if block.Kind == KindBrick {
			if err := w.Remove(block.ID); err != nil {
				return false, err
			}
		}
		return false, w.Remove(mob.ID)
	case MobWalker:
		if m.Squished {
			return true, nil
		}
		if c.Direction.Horizontal() {
			w.reverse(mob, m)
		} else if c.Direction == physics.Above && block.Kind == KindBounce {
			w.bounce(block, mob)
		}
	case MobSeeker:
		if m.Squished {
			return true, nil
		}
		switch c.Direction {
		case physics.Left:
			w.SetVelocity(mob, physics.Vec{X: -w.tuning.Hop.X, Y: -w.tuning.Hop.Y})
		case physics.Right:
			w.SetVelocity(mob, physics.Vec{X: w.tuning.Hop.X, Y: -w.tuning.Hop.Y})
		case physics.Above:
			if block.Kind == KindBounce {
				w.bounce(block, mob)
			}
		}
	}
	return true, nil
}

func mobHitMob(w *World, c Contact) (bool, error) {
	a, b := c.A, c.B
	ma, okA := w.mobs.Get(a.ID)
	mb, okB := w.mobs.Get(b.ID)
	if !okA || !okB {
		return false, nil
	}
	switch {
	case ma.Squished || mb.Squished:
	case ma.Class == MobProjectile || mb.Class == MobProjectile:
		return false, w.removeBoth(a, b)
	case a.Kind == b.Kind && ma.Class.Squishable():
		w.reverse(a, ma)
		w.reverse(b, mb)
	case ma.Class.Squishable() && mb.Class.Squishable():
	default:
		return false, w.removeBoth(a, b)
	}
	return false, nil
}

func (w *World) removeBoth(a, b *Body) error {
	w.log.Debug("mobs destroyed each other",
		zap.Stringer("a", a),
		zap.Stringer("b", b),
	)
	if err := w.Remove(a.ID); err != nil {
		return err
	}
	return w.Remove(b.ID)
}
