package world

import (
	"github.com/brickworld/brickworld/internal/core/event"
)

// playerHitItem applies the collectible's effect and removes it. Items never
// block movement.
func playerHitItem(w *World, c Contact) (bool, error) {
	pb, item := c.A, c.B
	st, okP := w.players.Get(pb.ID)
	is, okI := w.items.Get(item.ID)
	if !okP || !okI {
		return false, nil
	}
	switch item.Kind {
	case KindCoin:
		st.Score += w.rules.CollectScore(string(item.Kind), is.Value)
	case KindStar:
		w.makeInvincible(pb.ID, st, w.tuning.StarDuration)
	case KindFlower:
		st.CanShoot = true
	}
	if err := w.Remove(item.ID); err != nil {
		return false, err
	}
	event.Emit(w.bus, event.ItemCollected{Player: pb.ID, Kind: string(item.Kind), Score: st.Score})
	return false, nil
}

func mobHitItem(*World, Contact) (bool, error) { return false, nil }
