package world

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/brickworld/brickworld/internal/physics"
)

// Contact is what a collision handler sees: the two bodies in the order the
// handler was registered for, and the side of A relative to B.
type Contact struct {
	A, B      *Body
	Direction physics.Direction
}

// BeginFunc runs once when two bodies start touching. It returns whether the
// backend should treat the pair as a rigid collision.
type BeginFunc func(w *World, c Contact) (bool, error)

// SeparateFunc runs once when two bodies stop touching.
type SeparateFunc func(w *World, c Contact) error

// Handler is the registration for one category pair.
type Handler struct {
	OnBegin    BeginFunc
	OnSeparate SeparateFunc
}

// Pair is an ordered category pair.
type Pair struct {
	A, B Category
}

func (p Pair) String() string { return p.A.String() + "-" + p.B.String() }

// AddCollisionHandler registers h for contacts between categories a and b.
// The registration also serves (b, a) contacts with the operands swapped, so
// a pair may be registered once in either order.
func (w *World) AddCollisionHandler(a, b Category, h Handler) error {
	if !a.Valid() || !b.Valid() {
		return fmt.Errorf("%w: handler for unknown category pair %s", ErrConfiguration, Pair{a, b})
	}
	if h.OnBegin == nil && h.OnSeparate == nil {
		return fmt.Errorf("%w: handler for %s has no callbacks", ErrConfiguration, Pair{a, b})
	}
	if _, dup := w.handlers[Pair{a, b}]; dup {
		return fmt.Errorf("%w: handler for %s already registered", ErrConfiguration, Pair{a, b})
	}
	if _, dup := w.handlers[Pair{b, a}]; dup {
		return fmt.Errorf("%w: handler for %s already registered as %s", ErrConfiguration, Pair{a, b}, Pair{b, a})
	}
	w.handlers[Pair{a, b}] = h
	return nil
}

// lookupHandler finds the handler for the pair, reporting whether the
// operands must be swapped to match the registration order.
func (w *World) lookupHandler(a, b Category) (h Handler, swapped, ok bool) {
	if h, ok := w.handlers[Pair{a, b}]; ok {
		return h, false, true
	}
	if h, ok := w.handlers[Pair{b, a}]; ok {
		return h, true, true
	}
	return Handler{}, false, false
}

// dispatch is the physics.ContactSink the world hands to the backend.
func (w *World) dispatch(pc physics.Contact) bool {
	a, okA := w.bodies.Get(pc.A)
	b, okB := w.bodies.Get(pc.B)
	if !okA || !okB {
		// One side was removed earlier in this tick.
		return false
	}
	h, swapped, ok := w.lookupHandler(a.Category, b.Category)
	if !ok {
		return true
	}
	if swapped {
		a, b = b, a
	}
	w.refresh(a)
	w.refresh(b)
	c := Contact{A: a, B: b, Direction: physics.ResolveDirection(w.bounds(a), w.bounds(b))}

	switch pc.Phase {
	case physics.ContactBegin:
		if h.OnBegin == nil {
			return true
		}
		valid, err := w.runBegin(h.OnBegin, c)
		if err != nil {
			w.reportFault(c, pc.Phase, err)
			return true
		}
		return valid
	case physics.ContactSeparate:
		if h.OnSeparate == nil {
			return true
		}
		if err := w.runSeparate(h.OnSeparate, c); err != nil {
			w.reportFault(c, pc.Phase, err)
		}
		return true
	}
	return true
}

func (w *World) runBegin(fn BeginFunc, c Contact) (valid bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return fn(w, c)
}

func (w *World) runSeparate(fn SeparateFunc, c Contact) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return fn(w, c)
}

// reportFault logs a failed handler as an invariant violation. The contact
// falls back to a plain collision and the tick carries on.
func (w *World) reportFault(c Contact, phase physics.ContactPhase, err error) {
	w.faults++
	w.log.Error("collision handler failed",
		zap.NamedError("error", fmt.Errorf("%w: %w", ErrInvariantViolation, err)),
		zap.Stringer("pair", Pair{c.A.Category, c.B.Category}),
		zap.Stringer("phase", phase),
		zap.String("kind_a", string(c.A.Kind)),
		zap.String("kind_b", string(c.B.Kind)),
		zap.Stringer("direction", c.Direction),
		zap.Uint64("tick", w.ticks),
	)
}

// Faults returns how many handler failures have been absorbed.
func (w *World) Faults() int { return w.faults }
