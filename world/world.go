// Package world provides the physics-and-rendering scene container that
// tasks attach to. A world advances attached physics callbacks on a
// fixed clock and forwards render ticks to the host renderer.
package world

import (
	"fmt"

	"github.com/Iohannes-long/isaac-sim-gym/internal/config"
	"github.com/Iohannes-long/isaac-sim-gym/internal/kit"
	"github.com/Iohannes-long/isaac-sim-gym/task"
	"github.com/rs/zerolog"
)

type Options struct {
	PhysicsDt   float64
	RenderingDt float64
	Backend     string
	Device      string
	Params      *config.SimParams
}

type World struct {
	app      *kit.App
	stage    *Stage
	task     task.Task
	opts     Options
	log      zerolog.Logger
	simTime  float64
	substeps int
	steppers []func(t, dt float64)
}

func New(app *kit.App, opts Options) *World {
	if opts.PhysicsDt <= 0 {
		opts.PhysicsDt = config.DefaultPhysicsDt
	}
	if opts.RenderingDt <= 0 {
		opts.RenderingDt = config.DefaultRenderingDt
	}
	if opts.Backend == "" {
		opts.Backend = "native"
	}
	if opts.Device == "" {
		opts.Device = "cpu"
	}

	substeps := 1
	if opts.Params != nil && opts.Params.Substeps > 1 {
		substeps = opts.Params.Substeps
	}

	return &World{
		app:      app,
		stage:    NewStage(),
		opts:     opts,
		substeps: substeps,
		log:      app.Log().With().Str("component", "world").Logger(),
	}
}

// AddTask attaches a task and sets up its scene immediately.
func (w *World) AddTask(t task.Task) error {
	if err := t.SetUp(w); err != nil {
		return fmt.Errorf("set up task %s: %w", t.Name(), err)
	}
	w.task = t
	w.log.Info().
		Str("task", t.Name()).
		Int("num_envs", t.NumEnvs()).
		Str("device", w.opts.Device).
		Msg("task attached")
	return nil
}

func (w *World) Task() task.Task { return w.task }
func (w *World) Stage() *Stage   { return w.stage }
func (w *World) Device() string  { return w.opts.Device }
func (w *World) Backend() string { return w.opts.Backend }
func (w *World) SimTime() float64 { return w.simTime }

func (w *World) PhysicsDt() float64   { return w.opts.PhysicsDt }
func (w *World) RenderingDt() float64 { return w.opts.RenderingDt }

// DefinePrim places a prim on the stage's root layer.
func (w *World) DefinePrim(path, kind string) error {
	return w.stage.DefinePrim(path, kind)
}

// RegisterPhysicsStep subscribes a callback run once per physics
// substep. Tasks register their batched integration here during SetUp.
func (w *World) RegisterPhysicsStep(fn func(t, dt float64)) {
	w.steppers = append(w.steppers, fn)
}

// Step advances physics by one tick, optionally stepping the renderer.
func (w *World) Step(render bool) error {
	if !w.app.IsRunning() {
		return fmt.Errorf("step: simulation app is not running")
	}

	dt := w.opts.PhysicsDt / float64(w.substeps)
	for i := 0; i < w.substeps; i++ {
		for _, fn := range w.steppers {
			fn(w.simTime, dt)
		}
		w.simTime += dt
	}

	if render {
		w.Render()
	}
	return nil
}

// Render steps the host renderer by one frame.
func (w *World) Render() {
	w.app.RenderFrame()
}

// Reset rewinds the simulation clock and reinitializes the attached
// task's env instances.
func (w *World) Reset() error {
	if !w.app.IsRunning() {
		return fmt.Errorf("reset: simulation app is not running")
	}
	w.simTime = 0
	if w.task != nil {
		w.task.Reset()
	}
	return nil
}
