package flock

import (
	"math"

	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/geometry"
)

// minRepulsionDistSq is the squared distance below which two agents are
// considered coincident: the unit vector between them is undefined, so
// the pair contributes no repulsion.
const minRepulsionDistSq = 1e-12

// radii holds the squared radii of one pass, computed once per tick.
type radii struct {
	cohesionSq  float64
	alignmentSq float64
	repulsionSq float64
}

func newRadii(cfg *Config) radii {
	return radii{
		cohesionSq:  cfg.CohesionRadius * cfg.CohesionRadius,
		alignmentSq: cfg.AlignmentRadius * cfg.AlignmentRadius,
		repulsionSq: cfg.RepulsionRadius * cfg.RepulsionRadius,
	}
}

// neighborhood sums what one agent perceives of the others.
type neighborhood struct {
	positionSum    geometry.Vector2D
	cohesionCount  int
	velocitySum    geometry.Vector2D
	alignmentCount int
	repulsion      geometry.Vector2D
}

// observe folds neighbour b into the sums of agent a.
func (n *neighborhood) observe(a, b *Agent, cfg *Config, r radii) {
	delta := a.Position.Sub(b.Position)
	distSq := delta.LenSqr()

	// Dead angle: b is ignored when the vector from b to a is close to a's
	// own heading. Undefined angles (a at rest, or a on top of b) never exclude.
	if angle, ok := delta.AngleBetween(a.Velocity); ok && angle < cfg.DeadAngle {
		return
	}

	if distSq < r.cohesionSq {
		n.positionSum = n.positionSum.Add(b.Position)
		n.cohesionCount++
	}
	if distSq < r.alignmentSq {
		n.velocitySum = n.velocitySum.Add(b.Velocity)
		n.alignmentCount++
	}
	if distSq < r.repulsionSq && distSq > minRepulsionDistSq {
		away, _ := delta.Div(math.Sqrt(distSq))
		n.repulsion = n.repulsion.Add(away.Mul(cfg.RepulsionFactor))
	}
}

// steering turns the sums into the three steering terms of agent a.
func (n *neighborhood) steering(a *Agent, cfg *Config) Steering {
	var s Steering
	if n.cohesionCount > 0 && cfg.CohesionRadius > 0 {
		centroid := n.positionSum.Mul(1 / float64(n.cohesionCount))
		s.Cohesion = centroid.Sub(a.Position).Mul(cfg.CohesionFactor / cfg.CohesionRadius)
	}
	if n.alignmentCount > 0 && cfg.MaxSpeed > 0 {
		mean := n.velocitySum.Mul(1 / float64(n.alignmentCount))
		s.Alignment = mean.Sub(a.Velocity).Mul(cfg.AlignmentFactor / (2 * cfg.MaxSpeed))
	}
	s.Repulsion = n.repulsion
	return s
}

// steer computes the steering triple of agent i against every other agent.
// It only reads agents; the caller stores the result in agents[i].Steering.
func steer(i int, agents []Agent, cfg *Config, r radii) Steering {
	var n neighborhood
	me := &agents[i]
	for j := range agents {
		if j == i {
			continue
		}
		n.observe(me, &agents[j], cfg, r)
	}
	return n.steering(me, cfg)
}

// steerIndexed is steer restricted to the candidates of the spatial index.
// The radius and dead-angle tests are identical, only the scan is shorter.
func steerIndexed(i int, agents []Agent, cfg *Config, r radii, ix *spatialIndex) Steering {
	var n neighborhood
	me := &agents[i]
	ix.forEachCandidate(me.Position, func(j int) {
		if j != i {
			n.observe(me, &agents[j], cfg, r)
		}
	})
	return n.steering(me, cfg)
}
