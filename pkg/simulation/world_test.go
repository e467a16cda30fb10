package simulation

import (
	"context"
	"testing"
	"time"

	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/flock"
	"github.com/tochemey/goakt/v3/actor"
	golog "github.com/tochemey/goakt/v3/log"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const askTimeout = 5 * time.Second

func testConfig(population int) *flock.Config {
	cfg := flock.DefaultConfig()
	cfg.Population = population
	return cfg
}

func spawnFlock(t *testing.T, cfg *flock.Config, snapshotCh chan<- *flock.Snapshot) (context.Context, *actor.PID) {
	t.Helper()
	ctx := context.Background()

	system, err := actor.NewActorSystem("FlockTest",
		actor.WithLogger(golog.DiscardLogger),
		actor.WithActorInitMaxRetries(1))
	if err != nil {
		t.Fatalf("NewActorSystem() error = %v", err)
	}
	if err := system.Start(ctx); err != nil {
		t.Fatalf("system.Start() error = %v", err)
	}
	t.Cleanup(func() { _ = system.Stop(ctx) })

	fa, err := NewFlockActor(cfg, 1, snapshotCh, flock.WithWorkers(2))
	if err != nil {
		t.Fatalf("NewFlockActor() error = %v", err)
	}
	pid, err := system.Spawn(ctx, "flock", fa)
	if err != nil {
		t.Fatalf("Spawn() error = %v", err)
	}
	return ctx, pid
}

func tell(t *testing.T, ctx context.Context, pid *actor.PID, msgs ...proto.Message) {
	t.Helper()
	for _, msg := range msgs {
		if err := actor.Tell(ctx, pid, msg); err != nil {
			t.Fatalf("Tell(%T) error = %v", msg, err)
		}
	}
}

func askStatus(t *testing.T, ctx context.Context, pid *actor.PID) Status {
	t.Helper()
	reply, err := actor.Ask(ctx, pid, StatusRequest(), askTimeout)
	if err != nil {
		t.Fatalf("Ask(status) error = %v", err)
	}
	s, ok := reply.(*structpb.Struct)
	if !ok {
		t.Fatalf("status reply is %T; want *structpb.Struct", reply)
	}
	status, err := ParseStatus(s)
	if err != nil {
		t.Fatalf("ParseStatus() error = %v", err)
	}
	return status
}

func ticks(n int) []proto.Message {
	msgs := make([]proto.Message, n)
	for i := range msgs {
		msgs[i] = TickMessage(time.Second / 60)
	}
	return msgs
}

func TestFlockActor_TickAndStatus(t *testing.T) {
	ctx, pid := spawnFlock(t, testConfig(50), nil)

	if got := askStatus(t, ctx, pid); got.State != "ready" || got.Tick != 0 || got.Population != 50 {
		t.Fatalf("initial status = %+v; want ready at tick 0 with 50 agents", got)
	}

	tell(t, ctx, pid, ticks(5)...)
	got := askStatus(t, ctx, pid)
	if got.State != "running" || got.Tick != 5 {
		t.Errorf("status = %+v; want running at tick 5", got)
	}
}

func TestFlockActor_PauseResume(t *testing.T) {
	ctx, pid := spawnFlock(t, testConfig(20), nil)

	tell(t, ctx, pid, ticks(2)...)
	tell(t, ctx, pid, PauseMessage())
	tell(t, ctx, pid, ticks(3)...)
	if got := askStatus(t, ctx, pid); got.State != "paused" || got.Tick != 2 {
		t.Errorf("status while paused = %+v; want paused at tick 2", got)
	}

	tell(t, ctx, pid, ResumeMessage())
	tell(t, ctx, pid, ticks(1)...)
	if got := askStatus(t, ctx, pid); got.State != "running" || got.Tick != 3 {
		t.Errorf("status after resume = %+v; want running at tick 3", got)
	}
}

func TestFlockActor_RestartAndReconfigure(t *testing.T) {
	ctx, pid := spawnFlock(t, testConfig(20), nil)
	tell(t, ctx, pid, ticks(4)...)

	tell(t, ctx, pid, RestartMessage(99))
	got := askStatus(t, ctx, pid)
	if got.State != "ready" || got.Tick != 0 || got.Seed != 99 || got.Population != 20 {
		t.Errorf("status after restart = %+v; want ready at tick 0, seed 99, 20 agents", got)
	}

	msg, err := ReconfigureMessage(testConfig(35))
	if err != nil {
		t.Fatalf("ReconfigureMessage() error = %v", err)
	}
	tell(t, ctx, pid, msg)
	if got := askStatus(t, ctx, pid); got.Population != 35 || got.State != "ready" {
		t.Errorf("status after reconfigure = %+v; want ready with 35 agents", got)
	}

	// rejected documents leave the flock alone
	tell(t, ctx, pid, wrapperspb.String(`{"population": -3}`), wrapperspb.String("{not json"))
	if got := askStatus(t, ctx, pid); got.Population != 35 {
		t.Errorf("population after rejected reconfigure = %d; want 35", got.Population)
	}
}

func TestFlockActor_InvalidTickIsDropped(t *testing.T) {
	ctx, pid := spawnFlock(t, testConfig(10), nil)
	tell(t, ctx, pid, TickMessage(-time.Second))
	if got := askStatus(t, ctx, pid); got.State != "ready" || got.Tick != 0 {
		t.Errorf("status after negative tick = %+v; want ready at tick 0", got)
	}
}

func TestFlockActor_PushesSnapshots(t *testing.T) {
	snapshotCh := make(chan *flock.Snapshot, 1)
	cfg := testConfig(30)
	ctx, pid := spawnFlock(t, cfg, snapshotCh)

	// drain whatever the start-up pushed
	_ = askStatus(t, ctx, pid)
	select {
	case <-snapshotCh:
	default:
	}

	tell(t, ctx, pid, ticks(1)...)
	_ = askStatus(t, ctx, pid)

	select {
	case snap := <-snapshotCh:
		if snap.Tick != 1 || len(snap.Agents) != 30 {
			t.Errorf("snapshot tick %d with %d agents; want tick 1 with 30", snap.Tick, len(snap.Agents))
		}
		if snap.Width != cfg.Width || snap.Height != cfg.Height {
			t.Errorf("snapshot arena %vx%v; want %vx%v", snap.Width, snap.Height, cfg.Width, cfg.Height)
		}
	case <-time.After(askTimeout):
		t.Fatal("no snapshot pushed after a tick")
	}
}

func TestNewFlockActor_InvalidConfig(t *testing.T) {
	cfg := testConfig(10)
	cfg.Height = 0
	if _, err := NewFlockActor(cfg, 1, nil); err == nil {
		t.Error("NewFlockActor(invalid) = nil error")
	}
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		name    string
		fields  map[string]any
		want    Status
		wantErr bool
	}{
		{
			name:   "complete",
			fields: map[string]any{"state": "running", "tick": 12, "population": 3, "seed": 7},
			want:   Status{State: "running", Tick: 12, Population: 3, Seed: 7},
		},
		{
			name:    "missing state",
			fields:  map[string]any{"tick": 1},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := structpb.NewStruct(tt.fields)
			if err != nil {
				t.Fatalf("NewStruct() error = %v", err)
			}
			got, err := ParseStatus(s)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseStatus() error = %v; wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseStatus() = %+v; want %+v", got, tt.want)
			}
		})
	}
	if _, err := ParseStatus(nil); err == nil {
		t.Error("ParseStatus(nil) = nil error")
	}
}

func BenchmarkFlockActor_Tick(b *testing.B) {
	ctx := context.Background()
	system, _ := actor.NewActorSystem("FlockBench", actor.WithLogger(golog.DiscardLogger))
	_ = system.Start(ctx)
	defer func() { _ = system.Stop(ctx) }()

	fa, err := NewFlockActor(testConfig(500), 1, nil)
	if err != nil {
		b.Fatal(err)
	}
	pid, err := system.Spawn(ctx, "flock", fa)
	if err != nil {
		b.Fatal(err)
	}
	tick := TickMessage(time.Second / 60)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = actor.Tell(ctx, pid, tick)
	}
	// wait for the mailbox to drain
	if _, err := actor.Ask(ctx, pid, StatusRequest(), time.Minute); err != nil {
		b.Fatal(err)
	}
}
