package flock

import (
	"errors"
	"fmt"
	"sync"

	"github.com/lao-tseu-is-alive/go-flock-simulation/internal/workpool"
	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/geometry"
	"github.com/tochemey/goakt/v3/log"
)

// ErrNotInitialized is returned when ticking a simulation that has no agents yet.
var ErrNotInitialized = errors.New("simulation is not initialized")

// State is the lifecycle state of a Simulation.
type State int

const (
	Uninitialized State = iota
	Ready
	Running
	Paused
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Ready:
		return "ready"
	case Running:
		return "running"
	case Paused:
		return "paused"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// AgentView is what a renderer gets to see of an agent.
type AgentView struct {
	Position geometry.Vector2D
	Velocity geometry.Vector2D
	Heading  float64
}

// Snapshot is a copy of the flock after a completed tick.
type Snapshot struct {
	Tick   uint64
	State  State
	Width  float64
	Height float64
	Agents []AgentView
}

// Simulation is the tick scheduler: it owns the agent store and the worker
// pool, and runs the neighbor and integration passes for each accepted tick.
// All methods are safe for concurrent use.
type Simulation struct {
	mu     sync.RWMutex
	cfg    *Config
	store  *Store
	state  State
	ticks  uint64
	pool   *workpool.Pool
	index  *spatialIndex
	logger log.Logger

	workers      int
	spatialIndex bool
}

// Option configures a Simulation.
type Option func(*Simulation)

// WithWorkers sets the worker pool size. n <= 0 means one worker per CPU.
func WithWorkers(n int) Option {
	return func(s *Simulation) { s.workers = n }
}

// WithLogger sets the logger used for lifecycle and per-tick messages.
func WithLogger(l log.Logger) Option {
	return func(s *Simulation) { s.logger = l }
}

// WithSpatialIndex enables the hash grid neighbor scan instead of brute force.
func WithSpatialIndex(enabled bool) Option {
	return func(s *Simulation) { s.spatialIndex = enabled }
}

// New validates cfg and returns an Uninitialized simulation.
// The config is copied, later changes by the caller have no effect.
func New(cfg *Config, opts ...Option) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Simulation{
		logger: log.DiscardLogger,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.setConfig(cfg)
	s.pool = workpool.New(s.workers)
	return s, nil
}

func (s *Simulation) setConfig(cfg *Config) {
	c := *cfg
	s.cfg = &c
	s.index = nil
	if s.spatialIndex {
		s.index = newSpatialIndex(s.cfg)
	}
}

// Initialize creates a fresh randomized population and moves to Ready.
func (s *Simulation) Initialize(seed uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset(seed)
	s.logger.Infof("flock initialized: %d agents, seed %d, %d workers",
		s.store.Len(), seed, s.pool.Size())
	return nil
}

// reset must be called with mu held.
func (s *Simulation) reset(seed uint64) {
	if s.store == nil || s.store.Len() != s.cfg.Population {
		s.store = NewStore(s.cfg.Population)
	}
	s.store.Randomize(s.cfg, seed)
	s.ticks = 0
	s.state = Ready
}

// Tick advances the flock by dt seconds. A paused simulation drops the
// request and returns false. The first tick after Ready starts Running.
func (s *Simulation) Tick(dt float64) (bool, error) {
	if err := checkDelta(dt); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case Uninitialized:
		return false, ErrNotInitialized
	case Paused:
		return false, nil
	case Ready:
		s.state = Running
	}

	step(s.store, s.cfg, dt, s.pool, s.index)
	s.ticks++
	s.logger.Debugf("tick %d done (dt=%.4f)", s.ticks, dt)
	return true, nil
}

// Pause stops accepting ticks. It has no effect before Initialize.
func (s *Simulation) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Ready || s.state == Running {
		s.state = Paused
		s.logger.Infof("flock paused at tick %d", s.ticks)
	}
}

// Resume accepts ticks again. It has no effect before Initialize.
func (s *Simulation) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Ready || s.state == Paused {
		s.state = Running
		s.logger.Infof("flock resumed at tick %d", s.ticks)
	}
}

// Restart re-randomizes every agent, keeping the population, and moves to
// Ready from any state.
func (s *Simulation) Restart(seed uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset(seed)
	s.logger.Infof("flock restarted: %d agents, seed %d", s.store.Len(), seed)
	return nil
}

// Reconfigure swaps in a new config, possibly with another population, and
// restarts with seed. An invalid config leaves the simulation untouched.
func (s *Simulation) Reconfigure(cfg *Config, seed uint64) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setConfig(cfg)
	s.reset(seed)
	s.logger.Infof("flock reconfigured: %d agents, seed %d", s.store.Len(), seed)
	return nil
}

// State returns the current lifecycle state.
func (s *Simulation) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Ticks returns the number of ticks run since the last (re)initialization.
func (s *Simulation) Ticks() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ticks
}

// Config returns a copy of the running config.
func (s *Simulation) Config() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return *s.cfg
}

// Population returns the number of agents, zero before Initialize.
func (s *Simulation) Population() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.store == nil {
		return 0
	}
	return s.store.Len()
}

// Agent returns a copy of agent i, including its steering and acceleration.
func (s *Simulation) Agent(i int) (Agent, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.store == nil || i < 0 || i >= s.store.Len() {
		return Agent{}, false
	}
	return s.store.Agent(i), true
}

// Snapshot copies the positions and velocities of every agent.
func (s *Simulation) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := &Snapshot{
		Tick:   s.ticks,
		State:  s.state,
		Width:  s.cfg.Width,
		Height: s.cfg.Height,
	}
	if s.store != nil {
		snap.Agents = s.store.snapshot()
	}
	return snap
}

// Place seeds agent i by hand. It is only valid once initialized.
func (s *Simulation) Place(i int, position, velocity geometry.Vector2D) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store == nil {
		return ErrNotInitialized
	}
	if i < 0 || i >= s.store.Len() {
		return fmt.Errorf("agent index %d out of range [0, %d)", i, s.store.Len())
	}
	s.store.Place(i, position, velocity)
	return nil
}

// Close stops the worker pool. It waits for an in-flight tick, and ticks
// after Close run on the caller's goroutine.
func (s *Simulation) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pool.Close()
}
