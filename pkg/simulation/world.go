package simulation

import (
	"time"

	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/flock"
	"github.com/tochemey/goakt/v3/actor"
	"github.com/tochemey/goakt/v3/goaktpb"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// FlockActor owns one flock.Simulation. Every command goes through its
// mailbox, so ticks, pauses and restarts are applied in the order they were sent.
type FlockActor struct {
	sim  *flock.Simulation
	seed uint64

	// Communication with UI
	snapshotCh chan<- *flock.Snapshot

	// --- Benchmark Stats ---
	tickCount   int
	dropCount   int
	lastLogTime time.Time
}

// NewFlockActor creates the actor and its simulation. The flock is seeded
// with seed when the actor is spawned. snapshotCh may be nil.
func NewFlockActor(cfg *flock.Config, seed uint64, snapshotCh chan<- *flock.Snapshot, opts ...flock.Option) (*FlockActor, error) {
	sim, err := flock.New(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &FlockActor{
		sim:         sim,
		seed:        seed,
		snapshotCh:  snapshotCh,
		lastLogTime: time.Now(),
	}, nil
}

// PreStart seeds the flock, so it is Ready before the first message arrives.
func (f *FlockActor) PreStart(ctx *actor.Context) error {
	ctx.ActorSystem().Logger().Infof("Flock of %d agents is spawning...", f.sim.Config().Population)
	return f.sim.Initialize(f.seed)
}

func (f *FlockActor) Receive(ctx *actor.ReceiveContext) {
	switch msg := ctx.Message().(type) {

	case *goaktpb.PostStart:
		ctx.Logger().Infof("Flock started with seed %d", f.seed)
		f.pushSnapshot()

	// The Main Simulation Step (Driven by Game Loop)
	case *durationpb.Duration:
		accepted, err := f.sim.Tick(msg.AsDuration().Seconds())
		if err != nil {
			ctx.Logger().Errorf("tick rejected: %v", err)
			return
		}
		if accepted {
			f.tickCount++
			f.pushSnapshot()
		} else {
			f.dropCount++
		}
		f.logBenchmarks(ctx)

	case *wrapperspb.BoolValue:
		if msg.GetValue() {
			f.sim.Pause()
		} else {
			f.sim.Resume()
		}
		f.pushSnapshot()

	case *wrapperspb.UInt64Value:
		f.seed = msg.GetValue()
		if err := f.sim.Restart(f.seed); err != nil {
			ctx.Logger().Errorf("failed to restart flock: %v", err)
			return
		}
		f.pushSnapshot()

	case *wrapperspb.StringValue:
		cfg, err := flock.ParseJSON([]byte(msg.GetValue()))
		if err != nil {
			ctx.Logger().Errorf("reconfigure rejected: %v", err)
			return
		}
		if err := f.sim.Reconfigure(cfg, f.seed); err != nil {
			ctx.Logger().Errorf("reconfigure rejected: %v", err)
			return
		}
		ctx.Logger().Infof("Flock reconfigured with %d agents", cfg.Population)
		f.pushSnapshot()

	case *emptypb.Empty:
		status, err := newStatus(f.sim, f.seed)
		if err != nil {
			ctx.Logger().Errorf("failed to build status: %v", err)
			return
		}
		ctx.Response(status)

	default:
		ctx.Unhandled()
	}
}

func (f *FlockActor) logBenchmarks(ctx *actor.ReceiveContext) {
	if time.Since(f.lastLogTime) >= time.Second {
		ctx.Logger().Infof("📊 TICK RATE: %d/sec (dropped: %d) | Agents: %d | State: %s",
			f.tickCount, f.dropCount, f.sim.Population(), f.sim.State())
		f.tickCount = 0
		f.dropCount = 0
		f.lastLogTime = time.Now()
	}
}

func (f *FlockActor) pushSnapshot() {
	if f.snapshotCh == nil {
		return
	}
	select {
	case f.snapshotCh <- f.sim.Snapshot():
	default:
		// UI busy, skip frame
	}
}

func (f *FlockActor) PostStop(ctx *actor.Context) error {
	f.sim.Close()
	ctx.ActorSystem().Logger().Info("Flock is shutdown...")
	return nil
}
