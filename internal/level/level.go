// Package level places a symbol grid into a world.
package level

import (
	"fmt"

	"github.com/brickworld/brickworld/internal/data"
	"github.com/brickworld/brickworld/internal/world"
)

// CellSize is the edge of one grid cell in pixels.
const CellSize = 16

// Summary counts what Build placed.
type Summary struct {
	Blocks, Items, Mobs int
	Player              bool
}

// Origin returns the centre of a shape of the given size whose top-left
// corner sits on the top-left corner of cell (col, row).
func Origin(col, row int, spec world.KindSpec) (x, y float64) {
	return float64(col*CellSize) + spec.Size.X/2, float64(row*CellSize) + spec.Size.Y/2
}

// Build adds every symbol of lv to w. Spaces are empty cells. The player
// symbol places the player with the given stats; a level without one is
// rejected.
func Build(w *world.World, lv *data.LevelData, kinds *data.KindTable, player world.PlayerState) (Summary, error) {
	var sum Summary
	for row, line := range lv.Rows {
		for col, r := range []rune(line) {
			if r == ' ' {
				continue
			}
			kind, ok := kinds.BySymbol(r)
			if !ok {
				return sum, fmt.Errorf("%w: level %q row %d col %d: unknown symbol %q",
					world.ErrConfiguration, lv.Name, row, col, r)
			}
			spec, _ := kinds.Get(kind)
			x, y := Origin(col, row, spec)

			var err error
			switch spec.Category {
			case world.CategoryPlayer:
				_, err = w.AddPlayer(x, y, player)
				sum.Player = err == nil
			case world.CategoryBlock:
				_, err = w.AddBlock(kind, x, y)
				sum.Blocks++
			case world.CategoryItem:
				_, err = w.AddItem(kind, x, y)
				sum.Items++
			case world.CategoryMob:
				_, err = w.AddMob(kind, x, y)
				sum.Mobs++
			}
			if err != nil {
				return sum, fmt.Errorf("level %q row %d col %d: %w", lv.Name, row, col, err)
			}
		}
	}
	if !sum.Player {
		return sum, fmt.Errorf("%w: level %q has no player", world.ErrConfiguration, lv.Name)
	}
	return sum, nil
}
