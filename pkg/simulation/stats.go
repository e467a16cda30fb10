package simulation

import (
	"fmt"
	"math"

	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/flock"
	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/geometry"
)

// FlockStats summarises one snapshot for the headless host.
type FlockStats struct {
	Tick       uint64
	Population int
	MeanSpeed  float64
	// Polarization is |mean of unit headings|: 1 when every agent flies the
	// same way, close to 0 for a disordered flock.
	Polarization float64
	// MeanNearest is the mean distance of each agent to its closest other agent.
	MeanNearest float64
}

func (s FlockStats) String() string {
	return fmt.Sprintf("tick %d | agents %d | speed %.2f | polarization %.3f | nearest %.2f",
		s.Tick, s.Population, s.MeanSpeed, s.Polarization, s.MeanNearest)
}

// Stats computes the flock statistics of snap. Nearest neighbours are found
// by brute force, so it is meant for periodic logging, not for every tick.
func Stats(snap *flock.Snapshot) FlockStats {
	st := FlockStats{Tick: snap.Tick, Population: len(snap.Agents)}
	n := len(snap.Agents)
	if n == 0 {
		return st
	}

	var speedSum float64
	var headingSum geometry.Vector2D
	for _, a := range snap.Agents {
		speedSum += a.Velocity.Len()
		headingSum = headingSum.Add(a.Velocity.Normalize())
	}
	st.MeanSpeed = speedSum / float64(n)
	st.Polarization = headingSum.Len() / float64(n)

	if n < 2 {
		return st
	}
	var nearestSum float64
	for i, a := range snap.Agents {
		nearest := math.Inf(1)
		for j, b := range snap.Agents {
			if i == j {
				continue
			}
			nearest = math.Min(nearest, a.Position.DistanceSquaredTo(b.Position))
		}
		nearestSum += math.Sqrt(nearest)
	}
	st.MeanNearest = nearestSum / float64(n)
	return st
}
