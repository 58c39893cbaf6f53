package config

var Presets = map[string]map[string]*Config{
	"ball-block": {
		"standard": {
			Scenario: "ball-block", Timestep: 0.025, Duration: 10.0, Seed: 1,
		},
		"fine": {
			Scenario: "ball-block", Timestep: 0.005, Duration: 10.0, Seed: 1,
		},
	},
	"bouncing-ball": {
		"standard": {
			Scenario: "bouncing-ball", Timestep: 0.025, Duration: 10.0, Seed: 1,
			Policy: "velocity_and_distance",
		},
		"velocity-only": {
			Scenario: "bouncing-ball", Timestep: 0.025, Duration: 10.0, Seed: 1,
			Policy: "velocity",
		},
	},
	"falling-ball": {
		"standard": {
			Scenario: "falling-ball", Timestep: 0.025, Duration: 15.0, Seed: 1,
			Policy: "none",
		},
	},
	"joint-pendulum": {
		"standard": {
			Scenario: "joint-pendulum", Timestep: 0.025, Duration: 10.0, Seed: 1,
			Policy: "velocity_and_distance_joints",
		},
		"long": {
			Scenario: "joint-pendulum", Timestep: 0.025, Duration: 60.0, Seed: 1,
			Policy: "velocity_and_distance_joints",
		},
	},
	"stack": {
		"standard": {
			Scenario: "stack", Timestep: 0.025, Duration: 10.0, Seed: 1,
			Policy: "velocity_and_distance",
		},
	},
}

func GetPreset(scenario, preset string) *Config {
	scenarioPresets, ok := Presets[scenario]
	if !ok {
		return nil
	}
	cfg, ok := scenarioPresets[preset]
	if !ok {
		return nil
	}
	out := *cfg
	if out.Tolerances.Distance == 0 {
		out.Tolerances.Distance = DefaultDistanceTol
	}
	if out.Tolerances.Velocity == 0 {
		out.Tolerances.Velocity = DefaultVelocityTol
	}
	return &out
}

func ListPresets(scenario string) []string {
	scenarioPresets, ok := Presets[scenario]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(scenarioPresets))
	for name := range scenarioPresets {
		names = append(names, name)
	}
	return names
}
