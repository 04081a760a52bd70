package world

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/brickworld/brickworld/internal/core/ecs"
)

// CheckConsistency verifies that every registered body is in the backend and
// every backend body is registered. On a mismatch it logs a state dump and
// returns an error wrapping ErrInvariantViolation.
func (w *World) CheckConsistency() error {
	var missing, orphans []ecs.EntityID
	for _, id := range w.bodies.IDs() {
		if !w.backend.Contains(id) {
			missing = append(missing, id)
		}
	}
	w.backend.Each(func(id ecs.EntityID) {
		if !w.bodies.Has(id) {
			orphans = append(orphans, id)
		}
	})
	if len(missing) == 0 && len(orphans) == 0 {
		return nil
	}

	held := make([]string, 0, len(missing))
	for _, id := range missing {
		held = append(held, fmt.Sprintf("#%d%v", id.Index(), w.ecs.Registry().Holding(id)))
	}
	dump := make([]string, 0, w.bodies.Len())
	for _, b := range w.Entities() {
		dump = append(dump, fmt.Sprintf("%s@(%.1f,%.1f)", b, b.Pos.X, b.Pos.Y))
	}
	w.log.Error("registry and physics backend out of sync",
		zap.Uint64("tick", w.ticks),
		zap.Int("registered", w.bodies.Len()),
		zap.Int("backend", w.backend.Len()),
		zap.Int("missing", len(missing)),
		zap.Int("orphans", len(orphans)),
		zap.Strings("missing_components", held),
		zap.Strings("entities", dump),
	)
	return fmt.Errorf("%w: %d registered bodies missing from backend, %d unregistered backend bodies",
		ErrInvariantViolation, len(missing), len(orphans))
}
