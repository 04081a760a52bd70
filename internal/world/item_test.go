package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brickworld/brickworld/internal/core/event"
)

type doubleScore struct{ FixedRules }

func (doubleScore) CollectScore(_ string, value int) int { return 2 * value }

func TestCoinAddsRuleScore(t *testing.T) {
	w, fb := newTestWorld(t, Options{Rules: doubleScore{FixedRules{Damage: 1}}})
	coin := must(t)(w.AddItem(KindCoin, 0, 0))
	require.NoError(t, w.SetItemValue(coin, 4))
	player := must(t)(w.AddPlayer(-15, 0, PlayerState{Score: 1}))

	var got []event.ItemCollected
	event.Subscribe(w.Bus(), func(e event.ItemCollected) { got = append(got, e) })

	fb.begin(coin, player)
	step(t, w, 1)

	_, st, _ := w.Player()
	assert.Equal(t, 9, st.Score)
	assert.False(t, w.Alive(coin))
	assert.False(t, fb.lastAnswer())
	require.Len(t, got, 1)
	assert.Equal(t, "coin", got[0].Kind)
	assert.Equal(t, 9, got[0].Score)
}

func TestStarGrantsTimedInvincibility(t *testing.T) {
	w, fb := newTestWorld(t, Options{})
	s1 := must(t)(w.AddItem(KindStar, 0, 0))
	s2 := must(t)(w.AddItem(KindStar, 40, 0))
	player := must(t)(w.AddPlayer(-15, 0, PlayerState{}))
	_, st, _ := w.Player()

	fb.begin(player, s1)
	step(t, w, 1)
	assert.True(t, st.Invincible)

	// A second star half way through extends the period.
	step(t, w, 499)
	fb.begin(player, s2)
	step(t, w, 1)

	step(t, w, 499)
	assert.True(t, st.Invincible, "the first star's expiry does not cut the second short")
	step(t, w, 500)
	assert.False(t, st.Invincible)
}

func TestFlowerEnablesShooting(t *testing.T) {
	w, fb := newTestWorld(t, Options{})
	flower := must(t)(w.AddItem(KindFlower, 0, 0))
	player := must(t)(w.AddPlayer(-15, 0, PlayerState{}))

	w.Enqueue(Shoot())
	step(t, w, 1)
	assert.Zero(t, w.CountKind(KindBulletRight))

	fb.begin(player, flower)
	step(t, w, 1)
	_, st, _ := w.Player()
	assert.True(t, st.CanShoot)

	w.Enqueue(Shoot())
	w.Enqueue(Move(-10))
	w.Enqueue(Shoot())
	step(t, w, 1)
	require.Equal(t, 1, w.CountKind(KindBulletRight))
	require.Equal(t, 1, w.CountKind(KindBulletLeft))
	for _, b := range w.Entities() {
		switch b.Kind {
		case KindBulletRight:
			assert.Equal(t, 1.0, b.Pos.X)
		case KindBulletLeft:
			assert.Equal(t, -31.0, b.Pos.X)
		}
	}
	assert.NoError(t, w.CheckConsistency())
}

func TestMobsPassThroughItems(t *testing.T) {
	w, fb := newTestWorld(t, Options{})
	coin := must(t)(w.AddItem(KindCoin, 0, 0))
	mob := must(t)(w.AddMob(KindMushroom, 15, 0))

	fb.begin(mob, coin)
	step(t, w, 1)

	assert.False(t, fb.lastAnswer())
	assert.True(t, w.Alive(coin))
}
