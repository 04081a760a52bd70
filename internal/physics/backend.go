package physics

import "github.com/brickworld/brickworld/internal/core/ecs"

// ContactPhase tells whether a contact starts or ends.
type ContactPhase uint8

const (
	ContactBegin ContactPhase = iota + 1
	ContactSeparate
)

func (p ContactPhase) String() string {
	switch p {
	case ContactBegin:
		return "begin"
	case ContactSeparate:
		return "separate"
	}
	return "unknown"
}

// Contact is one begin/separate notification between two bodies.
type Contact struct {
	Phase ContactPhase
	A, B  ecs.EntityID
}

// ContactSink receives contacts while the backend advances, in the order the
// backend reports them. For begin contacts the return value decides whether
// the pair collides rigidly (true) or is ignored until it separates (false).
// The return value is ignored for separate contacts.
type ContactSink func(c Contact) bool

// BodySpec describes a box body to create. Static bodies never move.
type BodySpec struct {
	Group    uint8 // collision group, one per entity category
	Position Vec   // centre
	Size     Vec
	Mass     float64
	Static   bool
	Velocity Vec
}

// Backend is the rigid-body capability the world consumes. Implementations
// may defer structural changes requested during Step until Step returns, but
// Remove must hide the body from Contains/Each and suppress its contacts
// immediately.
type Backend interface {
	Add(id ecs.EntityID, spec BodySpec) error
	Remove(id ecs.EntityID)
	Contains(id ecs.EntityID) bool
	Len() int
	Each(fn func(ecs.EntityID))

	Position(id ecs.EntityID) (Vec, bool)
	Velocity(id ecs.EntityID) (Vec, bool)
	SetVelocity(id ecs.EntityID, v Vec)
	Bounds(id ecs.EntityID) (AABB, bool)

	Step(dt float64, sink ContactSink)
}
