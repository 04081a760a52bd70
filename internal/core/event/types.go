package event

import "github.com/brickworld/brickworld/internal/core/ecs"

// Signals surfaced to the embedder. The core never acts on them itself.

// LevelComplete fires when the player touches a goal flag from any side but above.
type LevelComplete struct {
	Player ecs.EntityID
	Flag   ecs.EntityID
	Score  int
}

// LevelTransition fires when a ducking player lands on a tunnel.
type LevelTransition struct {
	Player ecs.EntityID
	Tunnel ecs.EntityID
}

// PlayerDied fires once when the player's health reaches zero.
type PlayerDied struct {
	Player ecs.EntityID
	Score  int
}

// ItemCollected fires after a collectible's effect has been applied.
type ItemCollected struct {
	Player ecs.EntityID
	Kind   string
	Score  int
}
