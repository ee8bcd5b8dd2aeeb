// Package physicsconfig exposes the process-wide physics tuning
// record as a loadable/savable document, backed by a global
// read-write-locked configuration singleton.
package physicsconfig

import (
	"fmt"
	"io"
	"sync"

	"gopkg.in/yaml.v3"
)

// PhysicsConfig is the flat set of physics tunables. It is not read at
// world construction: physics.Build takes gravity, fps and substep count
// as arguments. engine/character reads InertiaStrength,
// MaxLinearVelocity and MaxAngularVelocity from the current record on
// every Advance; the other fields are not read by engine code. Fields
// are grouped by the same headings the original carries, even though Go
// has no section syntax.
type PhysicsConfig struct {
	// Gravity
	GravityY float32 `yaml:"gravity_y"`

	// Simulation
	PhysicsFPS             float32 `yaml:"physics_fps"`
	MaxSubstepCount        int32   `yaml:"max_substep_count"`
	SolverIterations       int     `yaml:"solver_iterations"`
	PGSIterations          int     `yaml:"pgs_iterations"`
	MaxCorrectiveVelocity  float32 `yaml:"max_corrective_velocity"`

	// Rigid body damping
	LinearDampingScale  float32 `yaml:"linear_damping_scale"`
	AngularDampingScale float32 `yaml:"angular_damping_scale"`

	// Mass
	MassScale float32 `yaml:"mass_scale"`

	// 6-DOF spring
	SpringStiffnessScale float32 `yaml:"spring_stiffness_scale"`

	// Inertia
	InertiaStrength float32 `yaml:"inertia_strength"`

	// Velocity limits
	MaxLinearVelocity  float32 `yaml:"max_linear_velocity"`
	MaxAngularVelocity float32 `yaml:"max_angular_velocity"`

	// Additional damping (eliminates low-speed jitter)
	AdditionalDamping             bool    `yaml:"additional_damping"`
	AdditionalDampingFactor       float32 `yaml:"additional_damping_factor"`
	AdditionalDampingThresholdSqr float32 `yaml:"additional_damping_threshold_sqr"`

	// Debug
	JointsEnabled bool `yaml:"joints_enabled"`
	DebugLog      bool `yaml:"debug_log"`
}

// Default returns the MMD-standard tuning: gravity and damping values
// PMX rigid bodies are authored against.
func Default() PhysicsConfig {
	return PhysicsConfig{
		GravityY: -98.0,

		PhysicsFPS:            60.0,
		MaxSubstepCount:       5,
		SolverIterations:      8,
		PGSIterations:         2,
		MaxCorrectiveVelocity: 5.0,

		LinearDampingScale:  1.0,
		AngularDampingScale: 1.0,

		MassScale: 1.0,

		SpringStiffnessScale: 1.0,

		InertiaStrength: 1.0,

		MaxLinearVelocity:  100.0,
		MaxAngularVelocity: 50.0,

		AdditionalDamping:             true,
		AdditionalDampingFactor:       0.005,
		AdditionalDampingThresholdSqr: 0.01,

		JointsEnabled: true,
		DebugLog:      false,
	}
}

var (
	mu      sync.RWMutex
	current = Default()
)

// Get returns a copy of the current configuration.
func Get() PhysicsConfig {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// Set replaces the current configuration.
func Set(c PhysicsConfig) {
	mu.Lock()
	defer mu.Unlock()
	current = c
}

// Reset restores the default configuration.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	current = Default()
}

// Load replaces the current configuration with one decoded as YAML
// from r.
func Load(r io.Reader) error {
	var c PhysicsConfig
	if err := yaml.NewDecoder(r).Decode(&c); err != nil {
		return fmt.Errorf("physicsconfig: load: %w", err)
	}
	Set(c)
	return nil
}

// Save writes the current configuration to w as YAML.
func Save(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	if err := enc.Encode(Get()); err != nil {
		return fmt.Errorf("physicsconfig: save: %w", err)
	}
	return nil
}
