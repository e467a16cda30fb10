package flock

import (
	"iter"
	"math"
	"math/rand/v2"

	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/geometry"
)

// Steering holds the per-tick scratch accumulators of one agent.
// They are overwritten, never accumulated, by every neighbor pass.
type Steering struct {
	Alignment geometry.Vector2D
	Cohesion  geometry.Vector2D
	Repulsion geometry.Vector2D
}

// Sum is the net steering force before clamping.
func (s Steering) Sum() geometry.Vector2D {
	return s.Alignment.Add(s.Cohesion).Add(s.Repulsion)
}

// Agent is one boid.
type Agent struct {
	Position     geometry.Vector2D
	Velocity     geometry.Vector2D
	Acceleration geometry.Vector2D
	Steering     Steering
}

// Heading is the direction of travel in radians, for renderers.
func (a Agent) Heading() float64 {
	return a.Velocity.Angle()
}

// Store owns the state of every agent of a run. Agents are addressed by
// their index, which is stable for the lifetime of the store.
type Store struct {
	agents []Agent
}

// NewStore creates a store of n agents at the origin, at rest.
func NewStore(n int) *Store {
	if n < 0 {
		n = 0
	}
	return &Store{agents: make([]Agent, n)}
}

// Len is the fixed population size.
func (s *Store) Len() int {
	return len(s.agents)
}

// Agent returns a copy of agent i.
func (s *Store) Agent(i int) Agent {
	return s.agents[i]
}

// All iterates over (index, agent copy) pairs.
func (s *Store) All() iter.Seq2[int, Agent] {
	return func(yield func(int, Agent) bool) {
		for i := range s.agents {
			if !yield(i, s.agents[i]) {
				return
			}
		}
	}
}

// Place puts agent i at position with velocity, clearing its acceleration
// and steering. Hosts use it to seed hand-made scenarios.
func (s *Store) Place(i int, position, velocity geometry.Vector2D) {
	s.agents[i] = Agent{Position: position, Velocity: velocity}
}

// Randomize re-seeds every agent: uniform position inside the arena,
// uniform heading, speed InitialSpeed clamped into [MinSpeed, MaxSpeed].
// The same seed always yields the same store.
func (s *Store) Randomize(cfg *Config, seed uint64) {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	halfW, halfH := cfg.Width/2, cfg.Height/2
	speed := cfg.spawnSpeed()

	for i := range s.agents {
		pos := geometry.Vector2D{
			X: rng.Float64()*cfg.Width - halfW,
			Y: rng.Float64()*cfg.Height - halfH,
		}
		heading := rng.Float64() * 2 * math.Pi
		s.agents[i] = Agent{
			// Float64()*Width can round up to Width
			Position: pos.WrapIn(cfg.Width, cfg.Height),
			Velocity: geometry.NewVectorPolar(speed, heading),
		}
	}
}

// snapshot copies the rendering view of every agent.
func (s *Store) snapshot() []AgentView {
	views := make([]AgentView, len(s.agents))
	for i, a := range s.agents {
		views[i] = AgentView{Position: a.Position, Velocity: a.Velocity, Heading: a.Heading()}
	}
	return views
}
