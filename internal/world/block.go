package world

import (
	"go.uber.org/zap"

	"github.com/brickworld/brickworld/internal/core/event"
	"github.com/brickworld/brickworld/internal/physics"
)

// playerHitBlock: landing from above marks the block as support, then the
// block's kind reacts. Blocks are always solid for the player.
func playerHitBlock(w *World, c Contact) (bool, error) {
	pb, block := c.A, c.B
	st, ok := w.players.Get(pb.ID)
	if !ok {
		return true, nil
	}
	if c.Direction == physics.Above {
		st.addSupport(block.ID)
	}

	switch block.Kind {
	case KindFlag:
		if c.Direction == physics.Above {
			st.changeHealth(w.tuning.FlagHeal)
			return true, nil
		}
		event.Emit(w.bus, event.LevelComplete{Player: pb.ID, Flag: block.ID, Score: st.Score})
	case KindTunnel:
		if c.Direction == physics.Above && st.Ducking {
			st.Ducking = false
			event.Emit(w.bus, event.LevelTransition{Player: pb.ID, Tunnel: block.ID})
		}
	case KindSwitch:
		if c.Direction == physics.Above {
			return true, w.pressSwitch(block)
		}
	case KindBounce:
		if c.Direction == physics.Above {
			w.bounce(block, pb)
		}
	case KindMysteryEmpty, KindMysteryCoin:
		if c.Direction == physics.Below {
			return true, w.hitMystery(block)
		}
	}
	return true, nil
}

func playerLeaveBlock(w *World, c Contact) error {
	if st, ok := w.players.Get(c.A.ID); ok {
		st.dropSupport(c.B.ID)
	}
	return nil
}

// pressSwitch removes the bricks around a ready switch and schedules their
// return together with the switch's own reset.
func (w *World) pressSwitch(sw *Body) error {
	state, ok := w.switches.Get(sw.ID)
	if !ok || state.Phase != SwitchReady {
		return nil
	}
	state.Phase = SwitchCooling

	type spot struct{ x, y float64 }
	var removed []spot
	for _, b := range w.InRange(sw.Pos.X, sw.Pos.Y, w.tuning.SwitchRadius) {
		if b.Category != CategoryBlock || b.Kind != KindBrick {
			continue
		}
		removed = append(removed, spot{b.Pos.X, b.Pos.Y})
		if err := w.Remove(b.ID); err != nil {
			return err
		}
	}
	w.log.Debug("switch pressed",
		zap.Uint32("switch", sw.ID.Index()),
		zap.Int("bricks", len(removed)),
	)

	w.after(w.tuning.SwitchCooldown, sw.ID, func(w *World, b *Body) {
		if s, ok := w.switches.Get(b.ID); ok {
			s.Phase = SwitchReady
		}
	})
	w.Schedule(w.tuning.SwitchCooldown, func(w *World) {
		for _, p := range removed {
			if _, err := w.AddBlock(KindBrick, p.x, p.y); err != nil {
				w.log.Warn("restore brick", zap.Error(err))
			}
		}
	})
	return nil
}

// bounce launches the body upward off an idle pad.
func (w *World) bounce(pad, target *Body) {
	state, ok := w.bounces.Get(pad.ID)
	if !ok || state.Phase != BounceIdle {
		return
	}
	state.Phase = BounceBouncing
	w.SetVelocity(target, physics.Vec{X: target.Vel.X, Y: -w.tuning.BounceVelocity})
	w.after(w.tuning.BounceRevert, pad.ID, func(w *World, b *Body) {
		if s, ok := w.bounces.Get(b.ID); ok {
			s.Phase = BounceIdle
		}
	})
}

// hitMystery deactivates an active mystery block and spawns its drop above it.
func (w *World) hitMystery(block *Body) error {
	state, ok := w.mysteries.Get(block.ID)
	if !ok || !state.Active {
		return nil
	}
	state.Active = false
	if state.Drop == "" {
		return nil
	}
	spec := w.kinds[state.Drop]
	y := block.Pos.Y - block.Size.Y/2 - spec.Size.Y/2
	id, err := w.AddItem(state.Drop, block.Pos.X, y)
	if err != nil {
		return err
	}
	lo, hi := w.tuning.MysteryDropMin, w.tuning.MysteryDropMax
	value := lo
	if hi > lo {
		value += w.rng.Intn(hi - lo + 1)
	}
	return w.SetItemValue(id, value)
}
