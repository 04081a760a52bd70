package world

import (
	"time"

	"github.com/brickworld/brickworld/internal/core/ecs"
	"github.com/brickworld/brickworld/internal/core/system"
)

func (w *World) registerSystems() {
	w.runner.Register(&inputSystem{w: w})
	w.runner.Register(&aiSystem{w: w})
	w.runner.Register(&physicsSystem{w: w})
	w.runner.Register(&timerSystem{w: w})
	w.runner.Register(&outputSystem{w: w})
	w.runner.Register(&cleanupSystem{w: w})
}

// inputSystem drains queued player commands.
type inputSystem struct{ w *World }

func (s *inputSystem) Phase() system.Phase { return system.PhaseInput }

func (s *inputSystem) Update(_ time.Duration) error {
	inbox := s.w.inbox
	s.w.inbox = nil
	for _, c := range inbox {
		if err := s.w.applyCommand(c); err != nil {
			return err
		}
	}
	return nil
}

// aiSystem runs each live mob's update with the player passed in.
type aiSystem struct{ w *World }

func (s *aiSystem) Phase() system.Phase { return system.PhaseAI }

func (s *aiSystem) Update(_ time.Duration) error {
	w := s.w
	player, _, _ := w.Player()
	if player != nil {
		w.refresh(player)
	}
	ecs.Each2(w.bodies, w.mobs, func(_ ecs.EntityID, b *Body, m *MobState) {
		w.updateMob(b, m, player)
	})
	return nil
}

// physicsSystem advances the backend. Contacts are dispatched while it runs.
type physicsSystem struct{ w *World }

func (s *physicsSystem) Phase() system.Phase { return system.PhasePhysics }

func (s *physicsSystem) Update(dt time.Duration) error {
	w := s.w
	w.backend.Step(dt.Seconds(), w.dispatch)
	for _, id := range w.bodies.IDs() {
		b, _ := w.bodies.Get(id)
		if b.Category == CategoryBlock || b.Category == CategoryItem {
			continue
		}
		w.refresh(b)
	}
	if pb, _, ok := w.Player(); ok && w.tuning.MaxPlayerSpeed > 0 {
		if v := pb.Vel.Clamp(w.tuning.MaxPlayerSpeed); v != pb.Vel {
			w.SetVelocity(pb, v)
		}
	}
	return nil
}

// timerSystem advances the clock and fires due deferred events.
type timerSystem struct{ w *World }

func (s *timerSystem) Phase() system.Phase { return system.PhaseTimers }

func (s *timerSystem) Update(dt time.Duration) error {
	s.w.timers.Advance(dt, s.w)
	return nil
}

// outputSystem delivers the signals emitted during the tick.
type outputSystem struct{ w *World }

func (s *outputSystem) Phase() system.Phase { return system.PhaseOutput }

func (s *outputSystem) Update(_ time.Duration) error {
	s.w.bus.SwapBuffers()
	s.w.bus.DispatchAll()
	return nil
}

// cleanupSystem verifies the registry still matches the backend.
type cleanupSystem struct{ w *World }

func (s *cleanupSystem) Phase() system.Phase { return system.PhaseCleanup }

func (s *cleanupSystem) Update(_ time.Duration) error {
	if !s.w.checkInvariants {
		return nil
	}
	return s.w.CheckConsistency()
}
