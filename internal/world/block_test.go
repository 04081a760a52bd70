package world

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brickworld/brickworld/internal/core/event"
	"github.com/brickworld/brickworld/internal/physics"
)

func brickSpots(w *World) []physics.Vec {
	var out []physics.Vec
	for _, b := range w.Entities() {
		if b.Kind == KindBrick {
			out = append(out, b.Pos)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].X != out[j].X {
			return out[i].X < out[j].X
		}
		return out[i].Y < out[j].Y
	})
	return out
}

func TestSwitchRemovesAndRestoresNearbyBricks(t *testing.T) {
	w, fb := newTestWorld(t, Options{})
	sw := must(t)(w.AddBlock(KindSwitch, 0, 0))
	player := must(t)(w.AddPlayer(0, -15, PlayerState{}))
	must(t)(w.AddBlock(KindBrick, 32, 0))
	must(t)(w.AddBlock(KindBrick, -48, 16))
	far := must(t)(w.AddBlock(KindBrick, 200, 0))
	cube := must(t)(w.AddBlock(KindCube, 16, 0))
	before := brickSpots(w)

	fb.begin(player, sw)
	step(t, w, 1)

	st, _ := w.Switch(sw)
	assert.Equal(t, SwitchCooling, st.Phase)
	assert.Equal(t, []physics.Vec{{X: 200, Y: 0}}, brickSpots(w))
	assert.True(t, w.Alive(far))
	assert.True(t, w.Alive(cube), "only bricks are cleared")
	assert.True(t, fb.lastAnswer())

	// A second press while cooling touches nothing and schedules nothing.
	late := must(t)(w.AddBlock(KindBrick, 0, 40))
	pending := w.PendingEvents()
	fb.begin(player, sw)
	step(t, w, 1)
	assert.True(t, w.Alive(late))
	assert.Equal(t, pending, w.PendingEvents())

	// The press happened at t=0; the cooldown expires on tick 1000.
	step(t, w, 997)
	st, _ = w.Switch(sw)
	assert.Equal(t, SwitchCooling, st.Phase)
	assert.Len(t, brickSpots(w), 2)

	step(t, w, 1)
	st, _ = w.Switch(sw)
	assert.Equal(t, SwitchReady, st.Phase)
	require.NoError(t, w.Remove(late))
	assert.Equal(t, before, brickSpots(w))
	assert.NoError(t, w.CheckConsistency())
}

func TestSwitchIgnoresSideContact(t *testing.T) {
	w, fb := newTestWorld(t, Options{})
	sw := must(t)(w.AddBlock(KindSwitch, 0, 0))
	player := must(t)(w.AddPlayer(-15, 0, PlayerState{}))
	must(t)(w.AddBlock(KindBrick, 32, 0))

	fb.begin(player, sw)
	step(t, w, 1)

	st, _ := w.Switch(sw)
	assert.Equal(t, SwitchReady, st.Phase)
	assert.Equal(t, 1, w.CountKind(KindBrick))
}

func TestBouncePadGivesOneImpulsePerCycle(t *testing.T) {
	w, fb := newTestWorld(t, Options{})
	pad := must(t)(w.AddBlock(KindBounce, 0, 0))
	player := must(t)(w.AddPlayer(0, -15, PlayerState{}))

	fb.begin(player, pad)
	step(t, w, 1)
	v, _ := fb.Velocity(player)
	assert.Equal(t, -w.Tuning().BounceVelocity, v.Y)
	st, _ := w.Bounce(pad)
	assert.Equal(t, BounceBouncing, st.Phase)

	fb.SetVelocity(player, physics.Vec{})
	fb.begin(player, pad)
	step(t, w, 1)
	v, _ = fb.Velocity(player)
	assert.Zero(t, v.Y, "no impulse while bouncing")

	// Pressed at t=0, reverts on tick 50.
	step(t, w, 48)
	st, _ = w.Bounce(pad)
	assert.Equal(t, BounceIdle, st.Phase)

	fb.begin(player, pad)
	step(t, w, 1)
	v, _ = fb.Velocity(player)
	assert.Equal(t, -w.Tuning().BounceVelocity, v.Y)
}

func TestBouncePadLaunchesWalkingMob(t *testing.T) {
	w, fb := newTestWorld(t, Options{})
	pad := must(t)(w.AddBlock(KindBounce, 0, 0))
	mob := must(t)(w.AddMob(KindMushroom, 0, -15))

	fb.begin(mob, pad)
	step(t, w, 1)

	v, _ := fb.Velocity(mob)
	assert.Equal(t, -w.Tuning().BounceVelocity, v.Y)
}

func TestFlagHealsFromAboveAndCompletesFromSide(t *testing.T) {
	w, fb := newTestWorld(t, Options{})
	flag := must(t)(w.AddBlock(KindFlag, 0, 0))
	player := must(t)(w.AddPlayer(0, -79, PlayerState{Health: 2, MaxHealth: 5, Score: 7}))

	var done []event.LevelComplete
	event.Subscribe(w.Bus(), func(e event.LevelComplete) { done = append(done, e) })

	fb.begin(player, flag)
	step(t, w, 1)
	_, st, _ := w.Player()
	assert.Equal(t, 3, st.Health)
	assert.Empty(t, done)

	fb.moveTo(player, -9, 0)
	fb.begin(player, flag)
	step(t, w, 1)
	require.Len(t, done, 1)
	assert.Equal(t, flag, done[0].Flag)
	assert.Equal(t, 7, done[0].Score)
}

func TestTunnelNeedsDuckingPlayerFromAbove(t *testing.T) {
	w, fb := newTestWorld(t, Options{})
	tunnel := must(t)(w.AddBlock(KindTunnel, 0, 0))
	player := must(t)(w.AddPlayer(0, -23, PlayerState{}))

	var moves int
	event.Subscribe(w.Bus(), func(event.LevelTransition) { moves++ })

	fb.begin(player, tunnel)
	step(t, w, 1)
	assert.Zero(t, moves)
	assert.True(t, fb.lastAnswer(), "plain block otherwise")

	w.Enqueue(Duck())
	fb.begin(player, tunnel)
	step(t, w, 1)
	assert.Equal(t, 1, moves)
	_, st, _ := w.Player()
	assert.False(t, st.Ducking)
}

func TestMysteryCoinDropsOnce(t *testing.T) {
	w, fb := newTestWorld(t, Options{Seed: 7})
	box := must(t)(w.AddBlock(KindMysteryCoin, 0, 0))
	player := must(t)(w.AddPlayer(0, 15, PlayerState{}))

	fb.begin(player, box)
	step(t, w, 1)

	ms, _ := w.Mystery(box)
	assert.False(t, ms.Active)
	require.Equal(t, 1, w.CountKind(KindCoin))
	var coin *Body
	for _, b := range w.Entities() {
		if b.Kind == KindCoin {
			coin = b
		}
	}
	assert.Equal(t, physics.Vec{X: 0, Y: -16}, coin.Pos)
	is, _ := w.Item(coin.ID)
	assert.GreaterOrEqual(t, is.Value, w.Tuning().MysteryDropMin)
	assert.LessOrEqual(t, is.Value, w.Tuning().MysteryDropMax)

	fb.begin(player, box)
	step(t, w, 1)
	assert.Equal(t, 1, w.CountKind(KindCoin))
}

func TestMysteryEmptyOnlyDeactivates(t *testing.T) {
	w, fb := newTestWorld(t, Options{})
	box := must(t)(w.AddBlock(KindMysteryEmpty, 0, 0))
	player := must(t)(w.AddPlayer(0, 15, PlayerState{}))

	fb.begin(player, box)
	step(t, w, 1)

	ms, _ := w.Mystery(box)
	assert.False(t, ms.Active)
	assert.Equal(t, 2, w.Count())
}
