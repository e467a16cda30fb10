package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/flock"
	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/simulation"
	"github.com/tochemey/goakt/v3/actor"
	golog "github.com/tochemey/goakt/v3/log"
	"google.golang.org/protobuf/types/known/structpb"
)

func main() {
	configFile := flag.String("config", "", "flock config file (.json or .toml), defaults when empty")
	seed := flag.Uint64("seed", 1, "random seed")
	workers := flag.Int("workers", 0, "worker goroutines per tick, 0 means one per CPU")
	index := flag.Bool("index", false, "use the spatial hash grid for the neighbor scan")
	ticks := flag.Int("ticks", 600, "number of ticks to run")
	dt := flag.Duration("dt", time.Second/60, "simulated time per tick")
	every := flag.Uint64("every", 60, "log flock statistics every N ticks")
	flag.Parse()

	cfg := flock.DefaultConfig()
	if *configFile != "" {
		var err error
		if cfg, err = flock.LoadConfig(*configFile); err != nil {
			log.Fatal(err)
		}
	}

	logger := golog.DefaultLogger
	ctx := context.Background()
	system, err := actor.NewActorSystem("FlockHeadless", actor.WithLogger(logger))
	if err != nil {
		log.Fatal(err)
	}
	if err := system.Start(ctx); err != nil {
		log.Fatal(err)
	}
	defer func() { _ = system.Stop(ctx) }()

	snapshotCh := make(chan *flock.Snapshot, 1)
	fa, err := simulation.NewFlockActor(cfg, *seed, snapshotCh,
		flock.WithWorkers(*workers),
		flock.WithSpatialIndex(*index),
		flock.WithLogger(logger))
	if err != nil {
		log.Fatal(err)
	}
	pid, err := system.Spawn(ctx, "flock", fa)
	if err != nil {
		log.Fatal(err)
	}

	// the actor drops snapshots while this goroutine is busy
	done := make(chan struct{})
	go func() {
		defer close(done)
		var logged uint64
		for snap := range snapshotCh {
			if *every > 0 && snap.Tick >= logged+*every {
				logger.Infof("%s", simulation.Stats(snap))
				logged = snap.Tick
			}
		}
	}()

	start := time.Now()
	tick := simulation.TickMessage(*dt)
	for i := 0; i < *ticks; i++ {
		if err := actor.Tell(ctx, pid, tick); err != nil {
			log.Fatal(err)
		}
	}

	reply, err := actor.Ask(ctx, pid, simulation.StatusRequest(), time.Minute)
	if err != nil {
		log.Fatal(err)
	}
	s, _ := reply.(*structpb.Struct)
	status, err := simulation.ParseStatus(s)
	if err != nil {
		log.Fatal(err)
	}
	elapsed := time.Since(start)
	logger.Infof("ran %d ticks of %d agents in %s (%.1f ticks/sec), state %s",
		status.Tick, status.Population, elapsed, float64(status.Tick)/elapsed.Seconds(), status.State)

	// every message has been handled, nothing pushes snapshots anymore
	close(snapshotCh)
	<-done
}
