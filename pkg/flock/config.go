package flock

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrInvalidConfig is wrapped by every ConfigError.
var ErrInvalidConfig = errors.New("invalid flock config")

// ConfigError reports one violated constraint of a Config.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrInvalidConfig }

// Config is the immutable parameter set of one run.
// It is shared read-only by every worker, never copied per agent.
type Config struct {
	// Population
	Population int `json:"population" toml:"population"`

	// Cohesion: pull towards the centroid of neighbours
	CohesionRadius float64 `json:"cohesionRadius" toml:"cohesion_radius"`
	CohesionFactor float64 `json:"cohesionFactor" toml:"cohesion_factor"`

	// Alignment: match the mean velocity of neighbours
	AlignmentRadius float64 `json:"alignmentRadius" toml:"alignment_radius"`
	AlignmentFactor float64 `json:"alignmentFactor" toml:"alignment_factor"`

	// Repulsion: push away from close neighbours
	RepulsionRadius float64 `json:"repulsionRadius" toml:"repulsion_radius"`
	RepulsionFactor float64 `json:"repulsionFactor" toml:"repulsion_factor"`

	// Physics
	MinSpeed        float64 `json:"minSpeed" toml:"min_speed"`
	MaxSpeed        float64 `json:"maxSpeed" toml:"max_speed"`
	MaxAcceleration float64 `json:"maxAcceleration" toml:"max_acceleration"`
	InitialSpeed    float64 `json:"initialSpeed" toml:"initial_speed"`

	// DeadAngle excludes a neighbour when the angle between (me - neighbour)
	// and my velocity is below it, in radians.
	DeadAngle float64 `json:"deadAngle" toml:"dead_angle"`

	// Toroidal arena centered on the origin
	Width  float64 `json:"width" toml:"width"`
	Height float64 `json:"height" toml:"height"`
}

// DefaultConfig returns the tuned parameters of the reference flock.
func DefaultConfig() *Config {
	return &Config{
		Population:      2000,
		CohesionRadius:  200,
		CohesionFactor:  500,
		AlignmentRadius: 100,
		AlignmentFactor: 200,
		RepulsionRadius: 20,
		RepulsionFactor: 1000,
		MinSpeed:        100,
		MaxSpeed:        150,
		MaxAcceleration: 700,
		InitialSpeed:    100,
		DeadAngle:       0.4,
		Width:           800,
		Height:          600,
	}
}

// Validate checks every invariant and returns all violations joined,
// or nil when the config is usable.
func (c *Config) Validate() error {
	var errs []error
	fail := func(field, reason string) {
		errs = append(errs, &ConfigError{Field: field, Reason: reason})
	}
	nonNegative := func(field string, v float64) {
		switch {
		case math.IsNaN(v) || math.IsInf(v, 0):
			fail(field, "must be a finite number")
		case v < 0:
			fail(field, fmt.Sprintf("must be >= 0, got %g", v))
		}
	}

	if c.Population < 0 {
		fail("population", fmt.Sprintf("must be >= 0, got %d", c.Population))
	}
	nonNegative("cohesionRadius", c.CohesionRadius)
	nonNegative("cohesionFactor", c.CohesionFactor)
	nonNegative("alignmentRadius", c.AlignmentRadius)
	nonNegative("alignmentFactor", c.AlignmentFactor)
	nonNegative("repulsionRadius", c.RepulsionRadius)
	nonNegative("repulsionFactor", c.RepulsionFactor)
	nonNegative("minSpeed", c.MinSpeed)
	nonNegative("maxSpeed", c.MaxSpeed)
	nonNegative("maxAcceleration", c.MaxAcceleration)
	nonNegative("initialSpeed", c.InitialSpeed)
	nonNegative("deadAngle", c.DeadAngle)

	if c.MinSpeed > c.MaxSpeed {
		fail("minSpeed", fmt.Sprintf("must be <= maxSpeed (%g), got %g", c.MaxSpeed, c.MinSpeed))
	}
	if !(c.Width > 0) || math.IsInf(c.Width, 0) {
		fail("width", fmt.Sprintf("must be a finite number > 0, got %g", c.Width))
	}
	if !(c.Height > 0) || math.IsInf(c.Height, 0) {
		fail("height", fmt.Sprintf("must be a finite number > 0, got %g", c.Height))
	}

	return errors.Join(errs...)
}

// spawnSpeed is the speed given to every agent at (re)initialization,
// InitialSpeed clamped into [MinSpeed, MaxSpeed].
func (c *Config) spawnSpeed() float64 {
	return math.Min(math.Max(c.InitialSpeed, c.MinSpeed), c.MaxSpeed)
}

//go:embed config.schema.json
var configSchema string

const configSchemaURL = "config.schema.json"

// LoadConfig reads a .json or .toml file over DefaultConfig and validates the result.
// JSON documents are first checked against the embedded JSON schema.
func LoadConfig(configFile string) (*Config, error) {
	b, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	switch ext := strings.ToLower(filepath.Ext(configFile)); ext {
	case ".json":
		if err := decodeJSONConfig(b, cfg); err != nil {
			return nil, err
		}
	case ".toml":
		if _, err := toml.NewDecoder(bytes.NewReader(b)).Decode(cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config toml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q (want .json or .toml)", ext)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// ParseJSON decodes a JSON document over DefaultConfig, checking it against
// the embedded schema first, and validates the result.
func ParseJSON(b []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := decodeJSONConfig(b, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func decodeJSONConfig(b []byte, cfg *Config) error {
	sch, err := jsonschema.CompileString(configSchemaURL, configSchema)
	if err != nil {
		return fmt.Errorf("failed to compile schema: %w", err)
	}

	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("failed to decode config json: %w", err)
	}
	if err := sch.Validate(v); err != nil {
		return fmt.Errorf("config schema validation failed: %w", err)
	}

	if err := json.Unmarshal(b, cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return nil
}
