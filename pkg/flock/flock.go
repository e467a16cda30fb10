// Package flock is a boids simulation core.
//
// Every tick runs two passes over a fixed population of agents living on a
// toroidal arena centered at the origin:
//
//  1. the neighbor pass reads the positions and velocities of all agents as
//     they were at the start of the tick and writes each agent's own
//     steering triple (alignment, cohesion, repulsion);
//  2. after a full barrier, the integration pass turns each triple into a
//     clamped acceleration, a clamped velocity and a wrapped position.
//
// Because the first pass writes only the caller's own slot and the second
// only starts once the first has finished, both can be fanned out across
// workers without locks.
package flock

import (
	"errors"
	"fmt"
	"math"

	"github.com/lao-tseu-is-alive/go-flock-simulation/internal/workpool"
)

var (
	// ErrInvalidDelta is returned for a negative, NaN or infinite time step.
	ErrInvalidDelta = errors.New("time step must be a finite number >= 0")

	// ErrPopulationMismatch is returned when restarting a store with a
	// config asking for a different population.
	ErrPopulationMismatch = errors.New("config population does not match store size")
)

// Initialize validates cfg and creates a randomized store of cfg.Population agents.
func Initialize(cfg *Config, seed uint64) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := NewStore(cfg.Population)
	s.Randomize(cfg, seed)
	return s, nil
}

// Restart re-randomizes every agent of store. The population size is kept,
// so cfg.Population must equal store.Len().
func Restart(store *Store, cfg *Config, seed uint64) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Population != store.Len() {
		return fmt.Errorf("%w: store has %d agents, config asks for %d",
			ErrPopulationMismatch, store.Len(), cfg.Population)
	}
	store.Randomize(cfg, seed)
	return nil
}

// Tick advances store by dt on the calling goroutine.
// On error nothing has been mutated.
func Tick(store *Store, cfg *Config, dt float64) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := checkDelta(dt); err != nil {
		return err
	}
	step(store, cfg, dt, nil, nil)
	return nil
}

func checkDelta(dt float64) error {
	if math.IsNaN(dt) || math.IsInf(dt, 0) || dt < 0 {
		return fmt.Errorf("%w, got %g", ErrInvalidDelta, dt)
	}
	return nil
}

// step runs one tick. pool may be nil (sequential), ix may be nil (brute force).
// cfg and dt are assumed valid.
func step(store *Store, cfg *Config, dt float64, pool *workpool.Pool, ix *spatialIndex) {
	agents := store.agents
	n := len(agents)
	if n == 0 {
		return
	}

	forEach := func(fn func(lo, hi int)) {
		if pool == nil {
			fn(0, n)
			return
		}
		pool.ForEach(n, fn)
	}

	r := newRadii(cfg)
	if ix != nil {
		ix.rebuild(agents)
		forEach(func(lo, hi int) {
			for i := lo; i < hi; i++ {
				agents[i].Steering = steerIndexed(i, agents, cfg, r, ix)
			}
		})
	} else {
		forEach(func(lo, hi int) {
			for i := lo; i < hi; i++ {
				agents[i].Steering = steer(i, agents, cfg, r)
			}
		})
	}

	// forEach returned: every steering triple is written
	forEach(func(lo, hi int) {
		for i := lo; i < hi; i++ {
			integrate(&agents[i], cfg, dt)
		}
	})
}
