// Package task defines the contract between the environment interface
// and a reinforcement-learning problem. A task owns reward, observation
// and termination logic for a batch of cloned env instances; the world
// owns physics and rendering.
package task

import "github.com/Iohannes-long/isaac-sim-gym/spaces"

// Scene is the slice of the world a task sees while setting up: prim
// creation on the stage, the physics clock, and registration of its
// per-substep integration callback.
type Scene interface {
	DefinePrim(path, kind string) error
	PhysicsDt() float64
	Device() string
	RegisterPhysicsStep(fn func(t, dt float64))
}

// Task is treated by the env as an opaque capability set. Buffer shapes
// are the task's responsibility; the env forwards them unvalidated.
type Task interface {
	Name() string
	NumEnvs() int
	ObservationSpace() spaces.Space
	ActionSpace() spaces.Space

	// SetUp is called once when the task is attached to a world.
	SetUp(scene Scene) error

	// Reset reinitializes every env instance.
	Reset()

	// PrePhysicsStep receives the policy's action batch before the
	// world advances one tick.
	PrePhysicsStep(actions [][]float64)

	GetObservations() [][]float64
	CalculateMetrics() []float64
	IsDone() []bool
}
