package flock

import (
	"math"
	"testing"

	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/geometry"
)

// quietConfig has every behaviour switched off; tests turn on what they need.
func quietConfig() *Config {
	return &Config{
		Population:      2,
		MinSpeed:        1,
		MaxSpeed:        10,
		MaxAcceleration: 100,
		InitialSpeed:    1,
		DeadAngle:       0.4,
		Width:           800,
		Height:          600,
	}
}

func storeOf(agents ...Agent) *Store {
	s := NewStore(len(agents))
	copy(s.agents, agents)
	return s
}

func vec(x, y float64) geometry.Vector2D { return geometry.Vector2D{X: x, Y: y} }

func near(a, b geometry.Vector2D, tol float64) bool {
	return math.Abs(a.X-b.X) <= tol && math.Abs(a.Y-b.Y) <= tol
}

func TestSteer_CohesionPointsToNeighbour(t *testing.T) {
	cfg := quietConfig()
	cfg.CohesionRadius = 50
	cfg.CohesionFactor = 3

	s := storeOf(
		Agent{Position: vec(0, 0), Velocity: vec(0, 0)},
		Agent{Position: vec(10, 0), Velocity: vec(0, 0)},
	)
	got := steer(0, s.agents, cfg, newRadii(cfg))

	want := vec(10*cfg.CohesionFactor/cfg.CohesionRadius, 0)
	if !near(got.Cohesion, want, 1e-12) {
		t.Errorf("Cohesion = %v; want %v", got.Cohesion, want)
	}
	if got.Alignment != geometry.Zero || got.Repulsion != geometry.Zero {
		t.Errorf("disabled behaviours produced %+v", got)
	}
}

func TestSteer_CohesionOutOfRange(t *testing.T) {
	cfg := quietConfig()
	cfg.CohesionRadius = 5
	cfg.CohesionFactor = 1

	s := storeOf(
		Agent{Position: vec(0, 0)},
		Agent{Position: vec(5, 0)}, // the radius test is strict
	)
	if got := steer(0, s.agents, cfg, newRadii(cfg)); got.Cohesion != geometry.Zero {
		t.Errorf("Cohesion = %v; want zero for a neighbour on the radius", got.Cohesion)
	}
}

func TestSteer_AlignmentMatchesMeanVelocity(t *testing.T) {
	cfg := quietConfig()
	cfg.AlignmentRadius = 20
	cfg.AlignmentFactor = 4

	s := storeOf(
		Agent{Position: vec(0, 0), Velocity: vec(1, 0)},
		Agent{Position: vec(0, 5), Velocity: vec(3, 2)},
		Agent{Position: vec(0, -5), Velocity: vec(1, 2)},
	)
	got := steer(0, s.agents, cfg, newRadii(cfg))

	// mean (2, 2) minus own (1, 0), over 2*MaxSpeed, times factor
	want := vec(1, 2).Mul(cfg.AlignmentFactor / (2 * cfg.MaxSpeed))
	if !near(got.Alignment, want, 1e-12) {
		t.Errorf("Alignment = %v; want %v", got.Alignment, want)
	}
}

func TestSteer_RepulsionPushesAway(t *testing.T) {
	cfg := quietConfig()
	cfg.RepulsionRadius = 10
	cfg.RepulsionFactor = 7

	s := storeOf(
		Agent{Position: vec(0, 0), Velocity: vec(0, 1)},
		Agent{Position: vec(3, 0), Velocity: vec(0, 1)},
		Agent{Position: vec(0, 4), Velocity: vec(0, 1)},
	)
	got := steer(0, s.agents, cfg, newRadii(cfg))

	// one unit vector per neighbour, each scaled by the factor
	want := vec(-1, -1).Mul(cfg.RepulsionFactor)
	if !near(got.Repulsion, want, 1e-12) {
		t.Errorf("Repulsion = %v; want %v", got.Repulsion, want)
	}
}

func TestSteer_CoincidentAgentsStayFinite(t *testing.T) {
	cfg := quietConfig()
	cfg.RepulsionRadius = 10
	cfg.RepulsionFactor = 1000
	cfg.CohesionRadius = 10
	cfg.CohesionFactor = 1

	s := storeOf(
		Agent{Position: vec(5, 5), Velocity: vec(1, 0)},
		Agent{Position: vec(5, 5), Velocity: vec(1, 0)},
	)
	for i := range s.agents {
		got := steer(i, s.agents, cfg, newRadii(cfg))
		if !got.Repulsion.IsFinite() || !got.Cohesion.IsFinite() || !got.Alignment.IsFinite() {
			t.Fatalf("agent %d steering not finite: %+v", i, got)
		}
		if got.Repulsion != geometry.Zero {
			t.Errorf("agent %d Repulsion = %v; want zero for coincident pair", i, got.Repulsion)
		}
	}
}

func TestSteer_DeadAngle(t *testing.T) {
	cfg := quietConfig()
	cfg.CohesionRadius = 50
	cfg.CohesionFactor = 1

	tests := []struct {
		name     string
		velocity geometry.Vector2D
		excluded bool
	}{
		// me - neighbour = (-10, 0)
		{"heading away from neighbour", vec(-1, 0), true},
		{"heading towards neighbour", vec(1, 0), false},
		{"heading across", vec(0, 1), false},
		{"just inside dead angle", geometry.NewVectorPolar(1, math.Pi-0.3), true},
		{"just outside dead angle", geometry.NewVectorPolar(1, math.Pi-0.5), false},
		{"at rest, angle undefined", vec(0, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := storeOf(
				Agent{Position: vec(0, 0), Velocity: tt.velocity},
				Agent{Position: vec(10, 0)},
			)
			got := steer(0, s.agents, cfg, newRadii(cfg))
			if excluded := got.Cohesion == geometry.Zero; excluded != tt.excluded {
				t.Errorf("neighbour excluded = %v; want %v (cohesion %v)", excluded, tt.excluded, got.Cohesion)
			}
		})
	}
}

func TestSteer_SingleAgentHasNoSteering(t *testing.T) {
	cfg := DefaultConfig()
	s := storeOf(Agent{Position: vec(1, 2), Velocity: vec(100, 0)})
	if got := steer(0, s.agents, cfg, newRadii(cfg)); got != (Steering{}) {
		t.Errorf("steer() on lone agent = %+v; want zero", got)
	}
}

func TestSpatialIndex_MatchesBruteForce(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Population = 400
	s := NewStore(cfg.Population)
	s.Randomize(cfg, 7)

	r := newRadii(cfg)
	ix := newSpatialIndex(cfg)
	ix.rebuild(s.agents)

	for i := range s.agents {
		brute := steer(i, s.agents, cfg, r)
		indexed := steerIndexed(i, s.agents, cfg, r, ix)
		if !near(brute.Cohesion, indexed.Cohesion, 1e-6) ||
			!near(brute.Alignment, indexed.Alignment, 1e-6) ||
			!near(brute.Repulsion, indexed.Repulsion, 1e-6) {
			t.Fatalf("agent %d: brute %+v != indexed %+v", i, brute, indexed)
		}
	}
}

func TestSpatialIndex_Rebuild(t *testing.T) {
	cfg := quietConfig()
	cfg.CohesionRadius = 100 // cell size 100

	ix := newSpatialIndex(cfg)
	agents := []Agent{
		{Position: vec(50, 50)},   // cell 0,0
		{Position: vec(150, 50)},  // cell 1,0
		{Position: vec(-50, 150)}, // cell -1,1
		{Position: vec(350, 350)}, // cell 3,3
	}
	ix.rebuild(agents)

	for i, want := range []gridKey{{0, 0}, {1, 0}, {-1, 1}, {3, 3}} {
		cell := ix.cells[want]
		if len(cell) != 1 || cell[0] != i {
			t.Errorf("cell %v = %v; want [%d]", want, cell, i)
		}
	}

	var seen []int
	ix.forEachCandidate(vec(50, 50), func(j int) { seen = append(seen, j) })
	found := map[int]bool{}
	for _, j := range seen {
		found[j] = true
	}
	if !found[0] || !found[1] || !found[2] || found[3] {
		t.Errorf("candidates around (50, 50) = %v; want 0, 1, 2 but not 3", seen)
	}

	// moving an agent must not leave it in its old cell
	agents[0].Position = vec(250, 250)
	ix.rebuild(agents)
	if len(ix.cells[gridKey{0, 0}]) != 0 {
		t.Errorf("cell 0,0 still holds %v after rebuild", ix.cells[gridKey{0, 0}])
	}
}

func BenchmarkSteer_BruteForce(b *testing.B) {
	cfg := DefaultConfig()
	cfg.Population = 1000
	s := NewStore(cfg.Population)
	s.Randomize(cfg, 1)
	r := newRadii(cfg)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		steer(i%cfg.Population, s.agents, cfg, r)
	}
}

func BenchmarkSteer_SpatialIndex(b *testing.B) {
	cfg := DefaultConfig()
	cfg.Population = 1000
	s := NewStore(cfg.Population)
	s.Randomize(cfg, 1)
	r := newRadii(cfg)
	ix := newSpatialIndex(cfg)
	ix.rebuild(s.agents)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		steerIndexed(i%cfg.Population, s.agents, cfg, r, ix)
	}
}
