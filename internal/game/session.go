// Package game runs a sequence of levels on top of the world core: it builds
// one world per level, follows flags and tunnels to the next level, restarts
// on death and reports results.
package game

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/brickworld/brickworld/internal/config"
	"github.com/brickworld/brickworld/internal/core/event"
	"github.com/brickworld/brickworld/internal/data"
	"github.com/brickworld/brickworld/internal/level"
	"github.com/brickworld/brickworld/internal/observer"
	"github.com/brickworld/brickworld/internal/persist"
	"github.com/brickworld/brickworld/internal/physics"
	"github.com/brickworld/brickworld/internal/world"
)

// EndLevel in levels.goals or levels.tunnels finishes the run.
const EndLevel = "END"

// ErrFinished is returned by Step once the run has no further level.
var ErrFinished = errors.New("run finished")

// Recorder stores level results. Every persist.ScoreStore implements it.
type Recorder interface {
	Record(ctx context.Context, s persist.ScoreRow) error
}

// Publisher forwards signals to observers. observer.Hub implements it.
type Publisher interface {
	PublishJSON(v any) error
}

// Publishers fans each signal out to every publisher.
type Publishers []Publisher

func (ps Publishers) PublishJSON(v any) error {
	var errs []error
	for _, p := range ps {
		if err := p.PublishJSON(v); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LevelLoader returns the grid of a named level.
type LevelLoader func(name string) (*data.LevelData, error)

// BackendFactory creates the physics backend of a fresh world.
type BackendFactory func() physics.Backend

type Options struct {
	Config    *config.Config
	Kinds     *data.KindTable
	Rules     world.Rules // nil selects FixedRules from config
	Levels    LevelLoader // nil loads levels.dir/<name>.yaml
	Backend   BackendFactory
	Recorder  Recorder
	Publisher Publisher
	Log       *zap.Logger
}

// transition is a level change requested by a signal during a step. It is
// applied after the step returns.
type transition struct {
	next    string
	carry   world.PlayerState
	outcome persist.Outcome
	score   int
	record  bool
}

// Session is one run through the levels. Single goroutine only.
type Session struct {
	cfg     *config.Config
	kinds   *data.KindTable
	rules   world.Rules
	levels  LevelLoader
	backend BackendFactory
	rec     Recorder
	pub     Publisher
	log     *zap.Logger

	run      string
	level    string
	world    *world.World
	pending  *transition
	finished bool

	completed int
	deaths    int
	worlds    int
}

// NewSession starts a run at levels.start.
func NewSession(opts Options) (*Session, error) {
	if opts.Config == nil {
		opts.Config = config.Default()
	}
	if opts.Kinds == nil {
		return nil, fmt.Errorf("%w: session needs a kind table", world.ErrConfiguration)
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	cfg := opts.Config
	if opts.Rules == nil {
		opts.Rules = world.FixedRules{Damage: cfg.Rules.ContactDamage}
	}
	if opts.Levels == nil {
		dir := cfg.Levels.Dir
		opts.Levels = func(name string) (*data.LevelData, error) {
			return data.LoadLevel(filepath.Join(dir, name+".yaml"))
		}
	}
	if opts.Backend == nil {
		opts.Backend = ChipmunkFactory(cfg.Simulation)
	}

	s := &Session{
		cfg:     cfg,
		kinds:   opts.Kinds,
		rules:   opts.Rules,
		levels:  opts.Levels,
		backend: opts.Backend,
		rec:     opts.Recorder,
		pub:     opts.Publisher,
		log:     opts.Log,
		run:     ulid.Make().String(),
	}
	if err := s.enter(cfg.Levels.Start, s.freshPlayer()); err != nil {
		return nil, err
	}
	return s, nil
}

// ChipmunkFactory builds Chipmunk spaces with contact callbacks for every
// entity category.
func ChipmunkFactory(sim config.SimulationConfig) BackendFactory {
	groups := make([]uint8, 0, len(world.Categories))
	for _, c := range world.Categories {
		groups = append(groups, uint8(c))
	}
	return func() physics.Backend {
		return physics.NewChipmunk(physics.ChipmunkConfig{
			Gravity:    physics.Vec{Y: sim.Gravity},
			Iterations: uint(sim.Iterations),
			Groups:     groups,
		})
	}
}

// TuningFromConfig maps the rules and player sections onto world.Tuning.
func TuningFromConfig(cfg *config.Config) world.Tuning {
	r, p := cfg.Rules, cfg.Player
	return world.Tuning{
		SwitchRadius:   r.SwitchRadius,
		SwitchCooldown: r.SwitchCooldown,
		BounceVelocity: r.BounceVelocity,
		BounceRevert:   r.BounceRevert,
		SquishRebound:  r.SquishRebound,
		SquishRemoval:  r.SquishRemoval,
		Knockback:      r.Knockback,
		Hop:            physics.Vec{X: r.HopX, Y: r.HopY},
		FlagHeal:       r.FlagHeal,
		StarDuration:   r.StarDuration,
		MysteryDropMin: r.MysteryDropMin,
		MysteryDropMax: r.MysteryDropMax,
		JumpVelocity:   p.JumpVelocity,
		MaxPlayerSpeed: p.MaxVelocity,
		BulletOffset:   r.BulletOffset,
	}
}

func (s *Session) freshPlayer() world.PlayerState {
	return world.PlayerState{Name: s.cfg.Player.Name, MaxHealth: s.cfg.Player.MaxHealth}
}

// enter replaces the current world with a fresh one for the named level.
func (s *Session) enter(name string, player world.PlayerState) error {
	lv, err := s.levels(name)
	if err != nil {
		return fmt.Errorf("load level %q: %w", name, err)
	}
	tuning := TuningFromConfig(s.cfg)
	seed := s.cfg.Simulation.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	w := world.New(s.backend(), world.Options{
		Tick:            s.cfg.Simulation.TickRate,
		Kinds:           s.kinds.Specs(),
		Tuning:          &tuning,
		Rules:           s.rules,
		Log:             s.log.With(zap.String("level", name)),
		Seed:            seed + int64(s.worlds),
		CheckInvariants: s.cfg.Simulation.CheckInvariants,
	})
	sum, err := level.Build(w, lv, s.kinds, player)
	if err != nil {
		return err
	}
	s.subscribe(w)
	s.world = w
	s.level = name
	s.worlds++

	s.log.Info("level entered",
		zap.String("run", s.run),
		zap.String("level", name),
		zap.Int("blocks", sum.Blocks),
		zap.Int("items", sum.Items),
		zap.Int("mobs", sum.Mobs),
	)
	s.publish("level_entered", map[string]any{"title": lv.Title, "health": player.Health, "score": player.Score})
	return nil
}

func (s *Session) subscribe(w *world.World) {
	bus := w.Bus()
	event.Subscribe(bus, func(e event.LevelComplete) {
		s.publish("level_complete", map[string]int{"score": e.Score})
		if s.pending != nil {
			return
		}
		next, ok := s.cfg.Levels.Goals[s.level]
		if !ok {
			next = EndLevel
		}
		s.pending = &transition{
			next:    next,
			carry:   s.carryFrom(w),
			outcome: persist.OutcomeComplete,
			score:   e.Score,
			record:  true,
		}
	})
	event.Subscribe(bus, func(e event.LevelTransition) {
		s.publish("level_transition", nil)
		if s.pending != nil {
			return
		}
		next, ok := s.cfg.Levels.Tunnels[s.level]
		if !ok {
			s.log.Warn("tunnel leads nowhere", zap.String("level", s.level))
			return
		}
		s.pending = &transition{next: next, carry: s.carryFrom(w)}
	})
	event.Subscribe(bus, func(e event.PlayerDied) {
		s.publish("player_died", map[string]int{"score": e.Score})
		if s.pending != nil {
			return
		}
		s.deaths++
		s.pending = &transition{
			next:    s.cfg.Levels.Start,
			carry:   s.freshPlayer(),
			outcome: persist.OutcomeDied,
			score:   e.Score,
			record:  true,
		}
	})
	event.Subscribe(bus, func(e event.ItemCollected) {
		s.publish("item_collected", map[string]any{"kind": e.Kind, "score": e.Score})
	})
}

func (s *Session) carryFrom(w *world.World) world.PlayerState {
	if _, st, ok := w.Player(); ok {
		return st.Carry()
	}
	return s.freshPlayer()
}

// Step advances the current world one tick and applies any level change the
// tick produced.
func (s *Session) Step(ctx context.Context) error {
	if s.finished {
		return ErrFinished
	}
	if err := s.world.Step(); err != nil {
		return fmt.Errorf("level %q: %w", s.level, err)
	}
	t := s.pending
	if t == nil {
		return nil
	}
	s.pending = nil

	finished := t.next == EndLevel
	if t.record {
		if t.outcome == persist.OutcomeComplete {
			s.completed++
		}
		s.record(ctx, t, finished)
	}
	if finished {
		s.finished = true
		s.log.Info("run finished",
			zap.String("run", s.run),
			zap.Int("score", t.carry.Score),
			zap.Int("levels", s.completed),
			zap.Int("deaths", s.deaths),
		)
		s.publish("run_finished", map[string]int{"score": t.carry.Score})
		return nil
	}
	return s.enter(t.next, t.carry)
}

func (s *Session) record(ctx context.Context, t *transition, finished bool) {
	if s.rec == nil {
		return
	}
	row := persist.ScoreRow{
		RunID:    s.run,
		Player:   s.cfg.Player.Name,
		Level:    s.level,
		Score:    t.score,
		Outcome:  t.outcome,
		Finished: finished,
	}
	if err := s.rec.Record(ctx, row); err != nil {
		s.log.Error("record score failed", zap.String("run", s.run), zap.String("level", s.level), zap.Error(err))
	}
}

func (s *Session) publish(typ string, payload any) {
	if s.pub == nil {
		return
	}
	var tick uint64
	if s.world != nil {
		tick = s.world.Ticks()
	}
	if err := s.pub.PublishJSON(observer.NewMessage(s.run, typ, s.level, tick, payload)); err != nil {
		s.log.Warn("publish signal failed", zap.String("type", typ), zap.Error(err))
	}
}

// Enqueue forwards a player command to the current world.
func (s *Session) Enqueue(c world.Command) { s.world.Enqueue(c) }

func (s *Session) World() *world.World { return s.world }
func (s *Session) Level() string       { return s.level }
func (s *Session) RunID() string       { return s.run }
func (s *Session) Finished() bool      { return s.finished }
func (s *Session) Deaths() int         { return s.deaths }

// Completed returns how many flags the run has reached.
func (s *Session) Completed() int { return s.completed }
