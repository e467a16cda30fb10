package simulation

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/flock"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// The flock actor speaks only protobuf well-known types:
//
//	*durationpb.Duration     tick by dt
//	*wrapperspb.BoolValue    pause (true) or resume (false)
//	*wrapperspb.UInt64Value  restart with a seed
//	*wrapperspb.StringValue  reconfigure from a JSON config document
//	*emptypb.Empty           status request, answered with a *structpb.Struct

// TickMessage asks the flock actor to advance the flock by dt.
func TickMessage(dt time.Duration) *durationpb.Duration {
	return durationpb.New(dt)
}

// PauseMessage stops the flock until a ResumeMessage.
func PauseMessage() *wrapperspb.BoolValue {
	return wrapperspb.Bool(true)
}

// ResumeMessage lets a paused (or ready) flock run again.
func ResumeMessage() *wrapperspb.BoolValue {
	return wrapperspb.Bool(false)
}

// RestartMessage re-randomizes every agent from seed.
func RestartMessage(seed uint64) *wrapperspb.UInt64Value {
	return wrapperspb.UInt64(seed)
}

// ReconfigureMessage swaps in cfg and restarts the flock.
func ReconfigureMessage(cfg *flock.Config) (*wrapperspb.StringValue, error) {
	b, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return wrapperspb.String(string(b)), nil
}

// StatusRequest is answered by the flock actor with its Status.
func StatusRequest() *emptypb.Empty {
	return &emptypb.Empty{}
}

// Status is the decoded reply to a StatusRequest.
type Status struct {
	State      string
	Tick       uint64
	Population int
	Seed       uint64
}

func newStatus(sim *flock.Simulation, seed uint64) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"state":      sim.State().String(),
		"tick":       sim.Ticks(),
		"population": sim.Population(),
		"seed":       seed,
	})
}

// ParseStatus decodes the reply of the flock actor to a StatusRequest.
func ParseStatus(s *structpb.Struct) (Status, error) {
	if s == nil {
		return Status{}, fmt.Errorf("empty status reply")
	}
	f := s.GetFields()
	state, ok := f["state"]
	if !ok {
		return Status{}, fmt.Errorf("status reply has no state")
	}
	return Status{
		State:      state.GetStringValue(),
		Tick:       uint64(f["tick"].GetNumberValue()),
		Population: int(f["population"].GetNumberValue()),
		Seed:       uint64(f["seed"].GetNumberValue()),
	}, nil
}
