package world

import (
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/brickworld/brickworld/internal/core/ecs"
	"github.com/brickworld/brickworld/internal/physics"
)

// scriptedBackend never integrates motion. Each Step delivers the contacts
// queued since the previous one and records what the sink answered.
type scriptedBackend struct {
	bodies  map[ecs.EntityID]*scriptedBody
	queued  []physics.Contact
	answers []bool
	failAdd bool
}

type scriptedBody struct {
	spec physics.BodySpec
	pos  physics.Vec
	vel  physics.Vec
}

func newScriptedBackend() *scriptedBackend {
	return &scriptedBackend{bodies: make(map[ecs.EntityID]*scriptedBody)}
}

func (s *scriptedBackend) Add(id ecs.EntityID, spec physics.BodySpec) error {
	if s.failAdd {
		return fmt.Errorf("scripted add failure")
	}
	s.bodies[id] = &scriptedBody{spec: spec, pos: spec.Position, vel: spec.Velocity}
	return nil
}

func (s *scriptedBackend) Remove(id ecs.EntityID) { delete(s.bodies, id) }

func (s *scriptedBackend) Contains(id ecs.EntityID) bool {
	_, ok := s.bodies[id]
	return ok
}

func (s *scriptedBackend) Len() int { return len(s.bodies) }

func (s *scriptedBackend) Each(fn func(ecs.EntityID)) {
	ids := make([]ecs.EntityID, 0, len(s.bodies))
	for id := range s.bodies {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		fn(id)
	}
}

func (s *scriptedBackend) Position(id ecs.EntityID) (physics.Vec, bool) {
	b, ok := s.bodies[id]
	if !ok {
		return physics.Vec{}, false
	}
	return b.pos, true
}

func (s *scriptedBackend) Velocity(id ecs.EntityID) (physics.Vec, bool) {
	b, ok := s.bodies[id]
	if !ok {
		return physics.Vec{}, false
	}
	return b.vel, true
}

func (s *scriptedBackend) SetVelocity(id ecs.EntityID, v physics.Vec) {
	if b, ok := s.bodies[id]; ok {
		b.vel = v
	}
}

func (s *scriptedBackend) Bounds(id ecs.EntityID) (physics.AABB, bool) {
	b, ok := s.bodies[id]
	if !ok {
		return physics.AABB{}, false
	}
	return physics.BoxAt(b.pos, b.spec.Size), true
}

func (s *scriptedBackend) Step(_ float64, sink physics.ContactSink) {
	queued := s.queued
	s.queued = nil
	for _, c := range queued {
		s.answers = append(s.answers, sink(c))
	}
}

func (s *scriptedBackend) begin(a, b ecs.EntityID) {
	s.queued = append(s.queued, physics.Contact{Phase: physics.ContactBegin, A: a, B: b})
}

func (s *scriptedBackend) separate(a, b ecs.EntityID) {
	s.queued = append(s.queued, physics.Contact{Phase: physics.ContactSeparate, A: a, B: b})
}

// moveTo teleports a body; the world picks it up on its next refresh.
func (s *scriptedBackend) moveTo(id ecs.EntityID, x, y float64) {
	if b, ok := s.bodies[id]; ok {
		b.pos = physics.Vec{X: x, Y: y}
	}
}

func (s *scriptedBackend) lastAnswer() bool {
	return s.answers[len(s.answers)-1]
}

const testTick = 10 * time.Millisecond

func newTestWorld(t *testing.T, opts Options) (*World, *scriptedBackend) {
	t.Helper()
	fb := newScriptedBackend()
	if opts.Tick == 0 {
		opts.Tick = testTick
	}
	opts.CheckInvariants = true
	return New(fb, opts), fb
}

// must unwraps an Add* result: must(t)(w.AddBlock(...)).
func must(t *testing.T) func(ecs.EntityID, error) ecs.EntityID {
	return func(id ecs.EntityID, err error) ecs.EntityID {
		t.Helper()
		require.NoError(t, err)
		return id
	}
}

func step(t *testing.T, w *World, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, w.Step())
	}
}

// stepFor advances whole ticks covering d.
func stepFor(t *testing.T, w *World, d time.Duration) {
	t.Helper()
	step(t, w, int(d/w.Tick()))
}
