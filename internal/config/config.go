package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/rigidlab/internal/collision"
)

const (
	DefaultTimestep    = 0.025
	DefaultDuration    = 10.0
	DefaultSeed        = 1
	DefaultDistanceTol = 0.01
	DefaultVelocityTol = 0.05
)

type Config struct {
	Scenario string  `yaml:"scenario"`
	Timestep float64 `yaml:"timestep"`
	Duration float64 `yaml:"duration"`
	Seed     int64   `yaml:"seed"`

	// Policy overrides the scenario's contact stabilization when set:
	// none, velocity, velocity_and_distance, velocity_and_distance_joints.
	Policy            string          `yaml:"policy,omitempty"`
	JointSmallImpacts *bool           `yaml:"joint_small_impacts,omitempty"`
	Tolerances        ToleranceConfig `yaml:"tolerances"`
}

type ToleranceConfig struct {
	Distance float64 `yaml:"distance"`
	Velocity float64 `yaml:"velocity"`
}

func DefaultConfig() *Config {
	return &Config{
		Scenario: "bouncing-ball",
		Timestep: DefaultTimestep,
		Duration: DefaultDuration,
		Seed:     DefaultSeed,
		Tolerances: ToleranceConfig{
			Distance: DefaultDistanceTol,
			Velocity: DefaultVelocityTol,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.Timestep <= 0 {
		return fmt.Errorf("config: timestep must be positive, got %g", c.Timestep)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("config: duration must be positive, got %g", c.Duration)
	}
	if c.Tolerances.Distance <= 0 || c.Tolerances.Velocity <= 0 {
		return fmt.Errorf("config: tolerances must be positive")
	}
	if c.Policy != "" {
		if _, err := c.ContactPolicy(); err != nil {
			return err
		}
	}
	return nil
}

// ContactPolicy maps the yaml policy name to a collision.Policy.
func (c *Config) ContactPolicy() (collision.Policy, error) {
	switch c.Policy {
	case "none":
		return collision.PolicyNone, nil
	case "velocity":
		return collision.PolicyVelocity, nil
	case "velocity_and_distance":
		return collision.PolicyVelocityAndDistance, nil
	case "velocity_and_distance_joints":
		return collision.PolicyVelocityAndDistanceJoints, nil
	}
	return collision.PolicyNone, fmt.Errorf("config: unknown policy %q", c.Policy)
}

// CollisionTolerances returns the configured detector tolerances.
func (c *Config) CollisionTolerances() collision.Tolerances {
	return collision.Tolerances{
		Distance: c.Tolerances.Distance,
		Velocity: c.Tolerances.Velocity,
	}
}
