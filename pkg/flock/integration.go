package flock

import (
	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/geometry"
)

// restDirection is used when an agent has no velocity and no previous heading.
var restDirection = geometry.Vector2D{X: 1, Y: 0}

// integrate advances one agent by dt from its steering triple:
// clamp acceleration, integrate and clamp velocity, move and wrap.
// It only touches *a, so agents can be integrated concurrently.
func integrate(a *Agent, cfg *Config, dt float64) {
	a.Acceleration = a.Steering.Sum().ClampLen(cfg.MaxAcceleration)

	previous := a.Velocity
	v := previous.Add(a.Acceleration.Mul(dt))

	speed := v.Len()
	switch {
	case speed < cfg.MinSpeed:
		// a zero velocity keeps the direction it had before this tick
		fallback := previous
		if fallback.IsZero() {
			fallback = restDirection
		}
		v = v.WithLen(cfg.MinSpeed, fallback)
	case speed > cfg.MaxSpeed:
		v = v.Mul(cfg.MaxSpeed / speed)
	}
	a.Velocity = v

	a.Position = a.Position.Add(v.Mul(dt)).WrapIn(cfg.Width, cfg.Height)
}
