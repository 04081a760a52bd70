package world

import (
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/brickworld/brickworld/internal/core/ecs"
	"github.com/brickworld/brickworld/internal/core/event"
	"github.com/brickworld/brickworld/internal/core/system"
	"github.com/brickworld/brickworld/internal/core/timer"
	"github.com/brickworld/brickworld/internal/physics"
)

// DefaultTick is the fixed simulation interval when Options.Tick is zero.
const DefaultTick = time.Second / 60

// Options configure a World. Zero values select the built-in defaults.
type Options struct {
	Tick   time.Duration
	Kinds  map[Kind]KindSpec
	Tuning *Tuning
	Rules  Rules
	Log    *zap.Logger
	Rand   *rand.Rand
	Seed   int64

	// CheckInvariants runs the registry/backend consistency check every tick.
	CheckInvariants bool
	// SkipDefaultHandlers leaves the handler table empty so callers can
	// register their own.
	SkipDefaultHandlers bool
}

// World owns every entity of one level: identity, component stores, the
// physics backend, collision handlers, the deferred-event queue, the spatial
// index and the signal bus. All methods must be called from one goroutine.
type World struct {
	log *zap.Logger

	ecs       *ecs.World
	bodies    *ecs.PtrComponentStore[Body]
	switches  *ecs.PtrComponentStore[SwitchState]
	bounces   *ecs.PtrComponentStore[BounceState]
	mysteries *ecs.PtrComponentStore[MysteryState]
	mobs      *ecs.PtrComponentStore[MobState]
	items     *ecs.PtrComponentStore[ItemState]
	players   *ecs.PtrComponentStore[PlayerState]
	player    ecs.EntityID

	backend  physics.Backend
	handlers map[Pair]Handler
	timers   *timer.Queue[*World]
	grid     *aoiGrid
	bus      *event.Bus
	runner   *system.Runner
	inbox    []Command

	kinds  map[Kind]KindSpec
	tuning Tuning
	rules  Rules
	rng    *rand.Rand

	tick            time.Duration
	ticks           uint64
	faults          int
	checkInvariants bool
}

// New creates an empty world stepping the given backend.
func New(backend physics.Backend, opts Options) *World {
	if opts.Tick <= 0 {
		opts.Tick = DefaultTick
	}
	if opts.Kinds == nil {
		opts.Kinds = DefaultKinds()
	}
	tuning := DefaultTuning()
	if opts.Tuning != nil {
		tuning = *opts.Tuning
	}
	if opts.Rules == nil {
		opts.Rules = FixedRules{Damage: 1}
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(opts.Seed))
	}

	ew := ecs.NewWorld()
	w := &World{
		log:       opts.Log,
		ecs:       ew,
		bodies:    ecs.NewPtrComponentStore[Body](),
		switches:  ecs.NewPtrComponentStore[SwitchState](),
		bounces:   ecs.NewPtrComponentStore[BounceState](),
		mysteries: ecs.NewPtrComponentStore[MysteryState](),
		mobs:      ecs.NewPtrComponentStore[MobState](),
		items:     ecs.NewPtrComponentStore[ItemState](),
		players:   ecs.NewPtrComponentStore[PlayerState](),

		backend:  backend,
		handlers: make(map[Pair]Handler),
		timers:   timer.NewQueue[*World](),
		grid:     newAOIGrid(),
		bus:      event.NewBus(),
		runner:   system.NewRunner(),

		kinds:  opts.Kinds,
		tuning: tuning,
		rules:  opts.Rules,
		rng:    opts.Rand,

		tick:            opts.Tick,
		checkInvariants: opts.CheckInvariants,
	}
	reg := ew.Registry()
	reg.Register("bodies", w.bodies)
	reg.Register("switches", w.switches)
	reg.Register("bounces", w.bounces)
	reg.Register("mysteries", w.mysteries)
	reg.Register("mobs", w.mobs)
	reg.Register("items", w.items)
	reg.Register("players", w.players)

	w.registerSystems()
	if !opts.SkipDefaultHandlers {
		w.registerDefaultHandlers()
	}
	return w
}

// Tick returns the fixed step interval.
func (w *World) Tick() time.Duration { return w.tick }

// Ticks returns how many steps have completed.
func (w *World) Ticks() uint64 { return w.ticks }

// Now returns the simulation clock.
func (w *World) Now() time.Duration { return w.timers.Now() }

// Bus exposes the signal bus for embedder subscriptions.
func (w *World) Bus() *event.Bus { return w.bus }

// Tuning returns the behaviour constants in effect.
func (w *World) Tuning() Tuning { return w.tuning }

// Kinds returns the kind table the world was built with.
func (w *World) Kinds() map[Kind]KindSpec { return w.kinds }

// AddBlock adds a static block of the given kind centred at (x, y).
func (w *World) AddBlock(kind Kind, x, y float64) (ecs.EntityID, error) {
	return w.add(CategoryBlock, kind, physics.Vec{X: x, Y: y})
}

// AddItem adds a collectible centred at (x, y).
func (w *World) AddItem(kind Kind, x, y float64) (ecs.EntityID, error) {
	return w.add(CategoryItem, kind, physics.Vec{X: x, Y: y})
}

// AddMob adds a mob centred at (x, y) walking at its kind's tempo.
func (w *World) AddMob(kind Kind, x, y float64) (ecs.EntityID, error) {
	return w.add(CategoryMob, kind, physics.Vec{X: x, Y: y})
}

// AddPlayer adds the player centred at (x, y) carrying the given stats.
// A world holds at most one player.
func (w *World) AddPlayer(x, y float64, state PlayerState) (ecs.EntityID, error) {
	if w.player != 0 {
		return 0, fmt.Errorf("%w: world already has a player", ErrConfiguration)
	}
	id, err := w.add(CategoryPlayer, KindPlayer, physics.Vec{X: x, Y: y})
	if err != nil {
		return 0, err
	}
	st := state
	if st.MaxHealth <= 0 {
		st.MaxHealth = DefaultMaxHealth
	}
	if st.Health <= 0 {
		st.Health = st.MaxHealth
	}
	if st.Facing == 0 {
		st.Facing = 1
	}
	st.Dead = false
	st.Jumping = true
	st.supports = make(map[ecs.EntityID]struct{})
	w.players.Set(id, &st)
	w.player = id
	return id, nil
}

func (w *World) add(cat Category, kind Kind, pos physics.Vec) (ecs.EntityID, error) {
	spec, ok := w.kinds[kind]
	if !ok {
		return 0, fmt.Errorf("%w: unknown kind %q", ErrConfiguration, kind)
	}
	if spec.Category != cat {
		return 0, fmt.Errorf("%w: kind %q is a %s, not a %s", ErrConfiguration, kind, spec.Category, cat)
	}

	id := w.ecs.CreateEntity()
	var vel physics.Vec
	if cat == CategoryMob {
		vel.X = spec.Tempo
	}
	static := cat == CategoryBlock || cat == CategoryItem
	err := w.backend.Add(id, physics.BodySpec{
		Group:    uint8(cat),
		Position: pos,
		Size:     spec.Size,
		Mass:     spec.Mass,
		Static:   static,
		Velocity: vel,
	})
	if err != nil {
		w.ecs.Destroy(id)
		return 0, fmt.Errorf("add %s at %v: %w", kind, pos, err)
	}

	w.bodies.Set(id, &Body{ID: id, Category: cat, Kind: kind, Pos: pos, Vel: vel, Size: spec.Size})
	w.grid.Add(id, pos, spec.Size)

	switch kind {
	case KindSwitch:
		w.switches.Set(id, &SwitchState{Phase: SwitchReady})
	case KindBounce:
		w.bounces.Set(id, &BounceState{Phase: BounceIdle})
	case KindMysteryEmpty:
		w.mysteries.Set(id, &MysteryState{Active: true})
	case KindMysteryCoin:
		w.mysteries.Set(id, &MysteryState{Active: true, Drop: KindCoin})
	}
	switch cat {
	case CategoryMob:
		w.mobs.Set(id, &MobState{Class: MobClassOf(kind), Tempo: spec.Tempo})
	case CategoryItem:
		w.items.Set(id, &ItemState{Value: 1})
	}
	return id, nil
}

// Remove deletes an entity from the registry, the backend and the spatial
// index at once. Later lookups and pending contacts no longer see it.
func (w *World) Remove(id ecs.EntityID) error {
	b, ok := w.bodies.Get(id)
	if !ok {
		return fmt.Errorf("%w: %d", ErrEntityNotFound, id)
	}
	w.grid.Remove(id, b.Pos)
	w.backend.Remove(id)
	w.ecs.Destroy(id)
	if id == w.player {
		w.player = 0
	} else if st, ok := w.players.Get(w.player); ok {
		// A removed block never reports its separation.
		st.dropSupport(id)
	}
	return nil
}

// Alive reports whether id still names a registered entity.
func (w *World) Alive(id ecs.EntityID) bool {
	return w.bodies.Has(id)
}

// Get returns the body for id.
func (w *World) Get(id ecs.EntityID) (*Body, bool) {
	return w.bodies.Get(id)
}

// Entities returns every live body in ascending ID order.
func (w *World) Entities() []*Body {
	ids := w.bodies.IDs()
	out := make([]*Body, 0, len(ids))
	for _, id := range ids {
		b, _ := w.bodies.Get(id)
		out = append(out, b)
	}
	return out
}

// Count returns the number of live entities.
func (w *World) Count() int { return w.bodies.Len() }

// CountKind returns the number of live entities of a kind.
func (w *World) CountKind(kind Kind) int {
	n := 0
	w.bodies.Each(func(_ ecs.EntityID, b *Body) {
		if b.Kind == kind {
			n++
		}
	})
	return n
}

// Player returns the player's body and state.
func (w *World) Player() (*Body, *PlayerState, bool) {
	if w.player == 0 {
		return nil, nil, false
	}
	b, ok := w.bodies.Get(w.player)
	if !ok {
		return nil, nil, false
	}
	st, _ := w.players.Get(w.player)
	return b, st, true
}

// PlayerID returns the player's ID, or zero if there is none.
func (w *World) PlayerID() ecs.EntityID { return w.player }

// Switch returns the state of a switch block.
func (w *World) Switch(id ecs.EntityID) (SwitchState, bool) {
	s, ok := w.switches.Get(id)
	if !ok {
		return SwitchState{}, false
	}
	return *s, true
}

// Bounce returns the state of a bounce pad.
func (w *World) Bounce(id ecs.EntityID) (BounceState, bool) {
	s, ok := w.bounces.Get(id)
	if !ok {
		return BounceState{}, false
	}
	return *s, true
}

// Mystery returns the state of a mystery block.
func (w *World) Mystery(id ecs.EntityID) (MysteryState, bool) {
	s, ok := w.mysteries.Get(id)
	if !ok {
		return MysteryState{}, false
	}
	return *s, true
}

// Mob returns the state of a mob.
func (w *World) Mob(id ecs.EntityID) (MobState, bool) {
	s, ok := w.mobs.Get(id)
	if !ok {
		return MobState{}, false
	}
	return *s, true
}

// Item returns the state of a collectible.
func (w *World) Item(id ecs.EntityID) (ItemState, bool) {
	s, ok := w.items.Get(id)
	if !ok {
		return ItemState{}, false
	}
	return *s, true
}

// SetItemValue overrides a collectible's score value.
func (w *World) SetItemValue(id ecs.EntityID, value int) error {
	s, ok := w.items.Get(id)
	if !ok {
		return fmt.Errorf("%w: item %d", ErrEntityNotFound, id)
	}
	s.Value = value
	return nil
}

// SetVelocity sets a body's velocity in the backend and on its mirror.
func (w *World) SetVelocity(b *Body, v physics.Vec) {
	b.Vel = v
	w.backend.SetVelocity(b.ID, v)
}

// refresh copies the backend's position and velocity onto the mirror.
func (w *World) refresh(b *Body) {
	if p, ok := w.backend.Position(b.ID); ok {
		if p != b.Pos {
			w.grid.Move(b.ID, b.Pos, p)
		}
		b.Pos = p
	}
	if v, ok := w.backend.Velocity(b.ID); ok {
		b.Vel = v
	}
}

// bounds prefers the backend's box and falls back to the mirror.
func (w *World) bounds(b *Body) physics.AABB {
	if bb, ok := w.backend.Bounds(b.ID); ok {
		return bb
	}
	return b.Bounds()
}

// Schedule runs fn on the loop goroutine no earlier than delay from now.
func (w *World) Schedule(delay time.Duration, fn func(w *World)) {
	w.timers.Schedule(delay, timer.Action[*World](fn))
}

// after schedules fn for an entity; the action is dropped if the entity has
// been removed by then.
func (w *World) after(delay time.Duration, id ecs.EntityID, fn func(w *World, b *Body)) {
	w.Schedule(delay, func(w *World) {
		b, ok := w.bodies.Get(id)
		if !ok {
			return
		}
		fn(w, b)
	})
}

// PendingEvents returns the number of scheduled actions not yet fired.
func (w *World) PendingEvents() int { return w.timers.Pending() }

// Step advances the world by one tick.
func (w *World) Step() error {
	w.ticks++
	if err := w.runner.Tick(w.tick); err != nil {
		return fmt.Errorf("tick %d: %w", w.ticks, err)
	}
	return nil
}

// byCategory returns the live bodies of one category in ID order.
func (w *World) byCategory(cat Category) []*Body {
	var out []*Body
	for _, id := range w.bodies.IDs() {
		if b, _ := w.bodies.Get(id); b.Category == cat {
			out = append(out, b)
		}
	}
	return out
}
