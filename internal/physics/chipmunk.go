package physics

import (
	"fmt"
	"math"

	"github.com/jakecoffman/cp"

	"github.com/brickworld/brickworld/internal/core/ecs"
)

// ChipmunkConfig tunes the Chipmunk2D space.
type ChipmunkConfig struct {
	Gravity    Vec
	Iterations uint    // solver iterations per step, zero keeps the Chipmunk default
	Groups     []uint8 // collision groups that get contact callbacks
}

type chipBody struct {
	body   *cp.Body
	shape  *cp.Shape
	static bool
}

// Chipmunk adapts a Chipmunk2D space to the Backend interface. Shapes carry
// their EntityID in UserData. Adds and removals requested while the space is
// stepping are queued and applied once Step returns.
// Only the game loop goroutine touches it, so there are no locks.
type Chipmunk struct {
	space  *cp.Space
	bodies map[ecs.EntityID]*chipBody

	stepping   bool
	sink       ContactSink
	addQueue   []ecs.EntityID
	pending    map[ecs.EntityID]BodySpec
	removeList []*chipBody
}

// NewChipmunk creates a space and registers begin/separate callbacks for
// every unordered pair of the configured groups.
func NewChipmunk(cfg ChipmunkConfig) *Chipmunk {
	space := cp.NewSpace()
	space.SetGravity(cp.Vector{X: cfg.Gravity.X, Y: cfg.Gravity.Y})
	if cfg.Iterations > 0 {
		space.Iterations = cfg.Iterations
	}
	c := &Chipmunk{
		space:   space,
		bodies:  make(map[ecs.EntityID]*chipBody, 256),
		pending: make(map[ecs.EntityID]BodySpec),
	}
	for i, a := range cfg.Groups {
		for _, b := range cfg.Groups[i:] {
			h := space.NewCollisionHandler(cp.CollisionType(a), cp.CollisionType(b))
			h.BeginFunc = c.begin
			h.SeparateFunc = c.separate
		}
	}
	return c
}

func shapeID(s *cp.Shape) (ecs.EntityID, bool) {
	id, ok := s.UserData.(ecs.EntityID)
	return id, ok
}

func (c *Chipmunk) begin(arb *cp.Arbiter, _ *cp.Space, _ interface{}) bool {
	a, b := arb.Shapes()
	idA, okA := shapeID(a)
	idB, okB := shapeID(b)
	if !okA || !okB || c.sink == nil {
		return true
	}
	if !c.Contains(idA) || !c.Contains(idB) {
		return false
	}
	return c.sink(Contact{Phase: ContactBegin, A: idA, B: idB})
}

func (c *Chipmunk) separate(arb *cp.Arbiter, _ *cp.Space, _ interface{}) {
	a, b := arb.Shapes()
	idA, okA := shapeID(a)
	idB, okB := shapeID(b)
	if !okA || !okB || c.sink == nil {
		return
	}
	c.sink(Contact{Phase: ContactSeparate, A: idA, B: idB})
}

func (c *Chipmunk) Add(id ecs.EntityID, spec BodySpec) error {
	if spec.Size.X <= 0 || spec.Size.Y <= 0 {
		return fmt.Errorf("body %d: size must be positive, got %vx%v", id, spec.Size.X, spec.Size.Y)
	}
	if !spec.Static && spec.Mass <= 0 {
		return fmt.Errorf("body %d: dynamic body needs positive mass", id)
	}
	if c.Contains(id) {
		return fmt.Errorf("body %d already present", id)
	}
	if c.stepping {
		c.pending[id] = spec
		c.addQueue = append(c.addQueue, id)
		return nil
	}
	c.insert(id, spec)
	return nil
}

func (c *Chipmunk) insert(id ecs.EntityID, spec BodySpec) {
	var body *cp.Body
	if spec.Static {
		body = cp.NewStaticBody()
	} else {
		// Infinite moment: boxes slide and never tip over.
		body = cp.NewBody(spec.Mass, math.Inf(1))
	}
	body.SetPosition(cp.Vector{X: spec.Position.X, Y: spec.Position.Y})
	body.UserData = id
	if !spec.Static {
		body.SetVelocity(spec.Velocity.X, spec.Velocity.Y)
	}
	c.space.AddBody(body)

	shape := cp.NewBox(body, spec.Size.X, spec.Size.Y, 0)
	shape.SetFriction(0.7)
	shape.SetCollisionType(cp.CollisionType(spec.Group))
	shape.UserData = id
	c.space.AddShape(shape)

	c.bodies[id] = &chipBody{body: body, shape: shape, static: spec.Static}
}

func (c *Chipmunk) Remove(id ecs.EntityID) {
	if _, ok := c.pending[id]; ok {
		delete(c.pending, id)
		return
	}
	cb, ok := c.bodies[id]
	if !ok {
		return
	}
	delete(c.bodies, id)
	if c.stepping {
		c.removeList = append(c.removeList, cb)
		return
	}
	c.detach(cb)
}

func (c *Chipmunk) detach(cb *chipBody) {
	c.space.RemoveShape(cb.shape)
	c.space.RemoveBody(cb.body)
}

func (c *Chipmunk) Contains(id ecs.EntityID) bool {
	if _, ok := c.bodies[id]; ok {
		return true
	}
	_, ok := c.pending[id]
	return ok
}

func (c *Chipmunk) Len() int { return len(c.bodies) + len(c.pending) }

func (c *Chipmunk) Each(fn func(ecs.EntityID)) {
	for id := range c.bodies {
		fn(id)
	}
	for id := range c.pending {
		fn(id)
	}
}

func (c *Chipmunk) Position(id ecs.EntityID) (Vec, bool) {
	if cb, ok := c.bodies[id]; ok {
		p := cb.body.Position()
		return Vec{p.X, p.Y}, true
	}
	if spec, ok := c.pending[id]; ok {
		return spec.Position, true
	}
	return Vec{}, false
}

func (c *Chipmunk) Velocity(id ecs.EntityID) (Vec, bool) {
	if cb, ok := c.bodies[id]; ok {
		v := cb.body.Velocity()
		return Vec{v.X, v.Y}, true
	}
	if spec, ok := c.pending[id]; ok {
		return spec.Velocity, true
	}
	return Vec{}, false
}

func (c *Chipmunk) SetVelocity(id ecs.EntityID, v Vec) {
	if cb, ok := c.bodies[id]; ok {
		if !cb.static {
			cb.body.SetVelocity(v.X, v.Y)
		}
		return
	}
	if spec, ok := c.pending[id]; ok && !spec.Static {
		spec.Velocity = v
		c.pending[id] = spec
	}
}

func (c *Chipmunk) Bounds(id ecs.EntityID) (AABB, bool) {
	if cb, ok := c.bodies[id]; ok {
		bb := cb.shape.BB()
		return AABB{MinX: bb.L, MinY: bb.B, MaxX: bb.R, MaxY: bb.T}, true
	}
	if spec, ok := c.pending[id]; ok {
		return BoxAt(spec.Position, spec.Size), true
	}
	return AABB{}, false
}

// Step advances the space. Contacts reach sink synchronously from inside the
// solver; structural changes made by the sink are applied afterwards.
func (c *Chipmunk) Step(dt float64, sink ContactSink) {
	c.stepping = true
	c.sink = sink
	c.space.Step(dt)
	c.stepping = false
	c.sink = nil

	for _, cb := range c.removeList {
		c.detach(cb)
	}
	c.removeList = c.removeList[:0]

	for _, id := range c.addQueue {
		spec, ok := c.pending[id]
		if !ok {
			continue // removed again before the step ended
		}
		delete(c.pending, id)
		c.insert(id, spec)
	}
	c.addQueue = c.addQueue[:0]
}
