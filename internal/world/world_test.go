package world

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brickworld/brickworld/internal/core/ecs"
	"github.com/brickworld/brickworld/internal/physics"
)

func TestAddRejectsWrongCategoryAndUnknownKind(t *testing.T) {
	w, _ := newTestWorld(t, Options{})

	_, err := w.AddBlock(KindMushroom, 0, 0)
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = w.AddItem("anvil", 0, 0)
	assert.ErrorIs(t, err, ErrConfiguration)

	assert.Equal(t, 0, w.Count())
}

func TestAddPlayerOnlyOnce(t *testing.T) {
	w, _ := newTestWorld(t, Options{})
	must(t)(w.AddPlayer(0, 0, PlayerState{Name: "ann"}))

	_, err := w.AddPlayer(10, 0, PlayerState{})
	assert.ErrorIs(t, err, ErrConfiguration)

	_, st, ok := w.Player()
	require.True(t, ok)
	assert.Equal(t, "ann", st.Name)
	assert.Equal(t, DefaultMaxHealth, st.Health)
}

func TestAddBackendFailureLeavesNoEntity(t *testing.T) {
	w, fb := newTestWorld(t, Options{})
	fb.failAdd = true

	_, err := w.AddBlock(KindBrick, 0, 0)
	require.Error(t, err)
	assert.Equal(t, 0, w.Count())
	assert.NoError(t, w.CheckConsistency())
}

func TestRemoveIsImmediateAndRejectsDeadIDs(t *testing.T) {
	w, fb := newTestWorld(t, Options{})
	id := must(t)(w.AddBlock(KindBrick, 0, 0))

	require.NoError(t, w.Remove(id))
	assert.False(t, w.Alive(id))
	assert.False(t, fb.Contains(id))
	assert.Empty(t, w.InRange(0, 0, 100))

	err := w.Remove(id)
	assert.ErrorIs(t, err, ErrEntityNotFound)
}

func TestEntitiesInIDOrder(t *testing.T) {
	w, _ := newTestWorld(t, Options{})
	a := must(t)(w.AddBlock(KindBrick, 0, 0))
	b := must(t)(w.AddItem(KindCoin, 32, 0))
	c := must(t)(w.AddMob(KindMushroom, 64, 0))

	var ids []ecs.EntityID
	for _, body := range w.Entities() {
		ids = append(ids, body.ID)
	}
	assert.Equal(t, []ecs.EntityID{a, b, c}, ids)
}

func TestInRangeMeasuresToBoxEdge(t *testing.T) {
	w, _ := newTestWorld(t, Options{})
	near := must(t)(w.AddBlock(KindBrick, 60, 0)) // edge at 52
	edge := must(t)(w.AddBlock(KindBrick, 0, 68)) // edge at 60
	must(t)(w.AddBlock(KindBrick, 100, 0))
	flag := must(t)(w.AddBlock(KindFlag, -200, -10)) // tall, centred far away

	got := w.InRange(0, 0, 60)
	require.Len(t, got, 2)
	assert.Equal(t, near, got[0].ID)
	assert.Equal(t, edge, got[1].ID)

	got = w.InRange(-200, -80, 1)
	require.Len(t, got, 1)
	assert.Equal(t, flag, got[0].ID)
}

func TestStepRunsPhasesInOrder(t *testing.T) {
	w, fb := newTestWorld(t, Options{})
	player := must(t)(w.AddPlayer(0, 0, PlayerState{}))
	mob := must(t)(w.AddMob(KindGang, 100, 0))

	w.Enqueue(Move(40))
	step(t, w, 1)

	v, _ := fb.Velocity(player)
	assert.Equal(t, 40.0, v.X)
	mv, _ := fb.Velocity(mob)
	assert.Equal(t, -80.0, mv.X, "seeker heads for the player")

	fb.moveTo(player, 200, 0)
	step(t, w, 1)
	mv, _ = fb.Velocity(mob)
	assert.Equal(t, 80.0, mv.X)
	assert.Equal(t, uint64(2), w.Ticks())
	assert.Equal(t, 2*testTick, w.Now())
}

func TestPlayerSpeedIsClamped(t *testing.T) {
	w, fb := newTestWorld(t, Options{})
	player := must(t)(w.AddPlayer(0, 0, PlayerState{}))

	w.Enqueue(Move(5000))
	step(t, w, 1)

	v, _ := fb.Velocity(player)
	assert.InDelta(t, w.Tuning().MaxPlayerSpeed, v.Len(), 1e-9)
}

func TestJumpNeedsSupport(t *testing.T) {
	w, fb := newTestWorld(t, Options{})
	player := must(t)(w.AddPlayer(0, -15, PlayerState{}))
	ground := must(t)(w.AddBlock(KindBrick, 0, 0))

	w.Enqueue(Jump())
	step(t, w, 1)
	v, _ := fb.Velocity(player)
	assert.Zero(t, v.Y, "airborne player cannot jump")

	fb.begin(player, ground)
	step(t, w, 1)
	_, st, _ := w.Player()
	assert.False(t, st.Jumping)
	assert.True(t, st.Supported())

	w.Enqueue(Jump())
	step(t, w, 1)
	v, _ = fb.Velocity(player)
	assert.Equal(t, -w.Tuning().JumpVelocity, v.Y)
	assert.True(t, st.Jumping)

	fb.separate(player, ground)
	step(t, w, 1)
	assert.False(t, st.Supported())
	assert.True(t, st.Jumping)
}

func TestRemovingSupportStartsFall(t *testing.T) {
	w, fb := newTestWorld(t, Options{})
	player := must(t)(w.AddPlayer(0, -15, PlayerState{}))
	ground := must(t)(w.AddBlock(KindBrick, 0, 0))
	fb.begin(player, ground)
	step(t, w, 1)

	require.NoError(t, w.Remove(ground))

	_, st, _ := w.Player()
	assert.True(t, st.Jumping)
}

func TestScheduledActionOnRemovedEntityIsNoop(t *testing.T) {
	w, _ := newTestWorld(t, Options{})
	id := must(t)(w.AddMob(KindMushroom, 0, 0))

	fired := false
	w.after(testTick, id, func(*World, *Body) { fired = true })
	require.NoError(t, w.Remove(id))

	step(t, w, 2)
	assert.False(t, fired)
	assert.Zero(t, w.PendingEvents())
}

func TestActionScheduledWhileFiringWaitsForNextTick(t *testing.T) {
	w, _ := newTestWorld(t, Options{})
	var order []string
	w.Schedule(0, func(w *World) {
		order = append(order, "first")
		w.Schedule(0, func(*World) { order = append(order, "second") })
	})

	step(t, w, 1)
	assert.Equal(t, []string{"first"}, order)
	step(t, w, 1)
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestConsistencyCheckAbortsStep(t *testing.T) {
	w, fb := newTestWorld(t, Options{})
	id := must(t)(w.AddBlock(KindBrick, 0, 0))
	step(t, w, 1)

	fb.Remove(id)
	err := w.Step()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvariantViolation))
}

func TestConsistencyCheckFindsOrphans(t *testing.T) {
	w, fb := newTestWorld(t, Options{})
	require.NoError(t, fb.Add(ecs.NewEntityID(99, 3), physics.BodySpec{Size: physics.Vec{X: 1, Y: 1}}))

	assert.ErrorIs(t, w.CheckConsistency(), ErrInvariantViolation)
}
