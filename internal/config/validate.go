package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate rejects settings the simulation cannot run with. Unlike network
// supplied values these come from the operator, so nothing is clamped.
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if c.Simulation.TickRate <= 0 {
		bad("simulation.tick_rate must be positive, got %s", c.Simulation.TickRate)
	}
	if c.Simulation.Iterations < 0 {
		bad("simulation.iterations must not be negative")
	}
	if c.Simulation.MaxTicks < 0 {
		bad("simulation.max_ticks must not be negative")
	}
	if c.Player.MaxHealth <= 0 {
		bad("player.max_health must be positive, got %d", c.Player.MaxHealth)
	}
	if c.Player.MaxVelocity < 0 || c.Player.JumpVelocity < 0 {
		bad("player velocities must not be negative")
	}

	r := c.Rules
	if r.SwitchRadius < 0 {
		bad("rules.switch_radius must not be negative")
	}
	if r.SwitchCooldown < 0 || r.BounceRevert < 0 || r.SquishRemoval < 0 || r.StarDuration < 0 {
		bad("rules durations must not be negative")
	}
	if r.MysteryDropMin < 0 || r.MysteryDropMax < r.MysteryDropMin {
		bad("rules.mystery_drop_min..max is not a range: %d..%d", r.MysteryDropMin, r.MysteryDropMax)
	}
	if r.ContactDamage < 0 {
		bad("rules.contact_damage must not be negative")
	}

	if strings.TrimSpace(c.Levels.Start) == "" {
		bad("levels.start is required")
	}
	if c.Data.Kinds == "" {
		bad("data.kinds is required")
	}
	if c.Database.Enabled {
		switch c.Database.Driver {
		case "postgres":
			if c.Database.DSN == "" {
				bad("database.dsn is required for postgres")
			}
		case "sqlite":
			if c.Database.Path == "" {
				bad("database.path is required for sqlite")
			}
		default:
			bad("database.driver must be postgres or sqlite, got %q", c.Database.Driver)
		}
	}
	if c.Replay.Enabled && c.Replay.Dir == "" {
		bad("replay.dir is required")
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		bad("logging.format must be json or console, got %q", c.Logging.Format)
	}
	if c.Observer.Enabled && c.Observer.QueueSize <= 0 {
		bad("observer.queue_size must be positive")
	}
	return errors.Join(errs...)
}
