package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/flock"
	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/simulation"
	"github.com/tochemey/goakt/v3/actor"
	golog "github.com/tochemey/goakt/v3/log"
)

func main() {
	configFile := flag.String("config", "", "flock config file (.json or .toml), defaults when empty")
	seed := flag.Uint64("seed", uint64(time.Now().UnixNano()), "random seed of the first run")
	workers := flag.Int("workers", 0, "worker goroutines per tick, 0 means one per CPU")
	index := flag.Bool("index", false, "use the spatial hash grid for the neighbor scan")
	verbose := flag.Bool("v", false, "log actor system messages")
	flag.Parse()

	cfg := flock.DefaultConfig()
	if *configFile != "" {
		var err error
		if cfg, err = flock.LoadConfig(*configFile); err != nil {
			log.Fatal(err)
		}
	}

	logger := golog.DiscardLogger
	if *verbose {
		logger = golog.DefaultLogger
	}

	ctx := context.Background()
	system, err := actor.NewActorSystem("FlockWorld",
		actor.WithLogger(logger),
		actor.WithActorInitMaxRetries(3))
	if err != nil {
		log.Fatal(err)
	}
	if err := system.Start(ctx); err != nil {
		log.Fatal(err)
	}
	defer func() { _ = system.Stop(ctx) }()

	game, err := simulation.NewGame(ctx, system, cfg, *seed,
		flock.WithWorkers(*workers),
		flock.WithSpatialIndex(*index),
		flock.WithLogger(logger))
	if err != nil {
		log.Fatal(err)
	}

	ebiten.SetWindowSize(int(cfg.Width), int(cfg.Height))
	ebiten.SetWindowTitle("Boids")
	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
