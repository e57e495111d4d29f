// Package vecenv connects RL policies with task implementations,
// exposing the simulation host through the familiar env calling
// convention: Step, Reset, Render, Close, Seed, plus observation and
// action space descriptors.
//
// An Env moves through three states: unbound after New, bound once
// SetTask attaches a task to a world, and closed after Close. Step,
// Reset and Render are only meaningful while bound; Close is terminal.
package vecenv

import (
	"errors"

	"github.com/Iohannes-long/isaac-sim-gym/internal/config"
	"github.com/Iohannes-long/isaac-sim-gym/internal/kit"
	"github.com/Iohannes-long/isaac-sim-gym/internal/seeding"
	"github.com/Iohannes-long/isaac-sim-gym/internal/viewport"
	"github.com/Iohannes-long/isaac-sim-gym/spaces"
	"github.com/Iohannes-long/isaac-sim-gym/task"
	"github.com/Iohannes-long/isaac-sim-gym/world"
)

var (
	ErrNotBound = errors.New("vecenv: no task bound")
	ErrClosed   = errors.New("vecenv: environment closed")
)

// Info is the auxiliary mapping returned by Step. The base env always
// returns it empty; wrappers may populate it.
type Info map[string]any

type Env struct {
	app  *kit.App
	wld  *world.World
	tsk  task.Task
	view *viewport.Extension

	render     bool
	frameCount uint64
	closed     bool

	numEnvs  int
	obsSpace spaces.Space
	actSpace spaces.Space
}

// New launches the simulation host and returns an unbound env. The
// headless startup variant is located through EXP_PATH. Launch failure
// is fatal: there is no retry, and the returned error is the caller's
// signal to give up.
func New(headless bool, simDevice int) (*Env, error) {
	app, err := kit.Launch(kit.LaunchConfig{
		Headless:      headless,
		PhysicsDevice: simDevice,
	})
	if err != nil {
		return nil, err
	}

	// Cloned env prims share geometry through scene-graph instancing.
	// The flag is process-wide, not scoped to this env.
	kit.Settings().Set(kit.SceneGraphInstancingPath, true)

	view := viewport.New()
	if err := app.Extensions().Register(view); err != nil {
		app.Close()
		return nil, err
	}
	app.OnRender(view.OnFrame)
	if headless {
		if err := app.Extensions().SetExtensionEnabledImmediate(viewport.ExtensionID, false); err != nil {
			app.Close()
			return nil, err
		}
	}

	return &Env{
		app:    app,
		view:   view,
		render: !headless,
	}, nil
}

// SetTask creates a world, attaches the task to it, and copies the
// task's declared env count and spaces onto the env. Calling it again
// rebinds a new task and world wholesale. With initSim the world is
// reset immediately, which also resets the task.
func (e *Env) SetTask(t task.Task, backend string, simParams *config.SimParams, initSim bool) error {
	if e.closed {
		return ErrClosed
	}

	opts := world.Options{
		RenderingDt: config.DefaultRenderingDt,
		Backend:     backend,
		Device:      simParams.Device(),
		Params:      simParams,
	}
	if simParams != nil && simParams.PhysicsDt > 0 {
		opts.PhysicsDt = simParams.PhysicsDt
	}

	w := world.New(e.app, opts)
	if err := w.AddTask(t); err != nil {
		return err
	}

	e.wld = w
	e.tsk = t
	e.numEnvs = t.NumEnvs()
	e.obsSpace = t.ObservationSpace()
	e.actSpace = t.ActionSpace()

	if simParams.ViewportDisabled() {
		if err := e.app.Extensions().SetExtensionEnabledImmediate(viewport.ExtensionID, false); err != nil {
			return err
		}
	}

	if initSim {
		return w.Reset()
	}
	return nil
}

// Step passes the action batch to the task, advances the world one
// tick, and collects observations, rewards and done flags. Buffer
// shapes are not validated here; that is the task's responsibility.
func (e *Env) Step(actions [][]float64) ([][]float64, []float64, []bool, Info, error) {
	if e.closed {
		return nil, nil, nil, nil, ErrClosed
	}
	if e.tsk == nil {
		return nil, nil, nil, nil, ErrNotBound
	}

	e.tsk.PrePhysicsStep(actions)
	if err := e.wld.Step(e.render); err != nil {
		return nil, nil, nil, nil, err
	}
	e.frameCount++

	obs := e.tsk.GetObservations()
	rewards := e.tsk.CalculateMetrics()
	dones := e.tsk.IsDone()
	return obs, rewards, dones, Info{}, nil
}

// Reset reinitializes the task and advances the world exactly one tick
// so the first observation reflects the new episode. Unlike Step it
// returns observations alone.
func (e *Env) Reset() ([][]float64, error) {
	if e.closed {
		return nil, ErrClosed
	}
	if e.tsk == nil {
		return nil, ErrNotBound
	}

	e.tsk.Reset()
	if err := e.wld.Step(e.render); err != nil {
		return nil, err
	}
	return e.tsk.GetObservations(), nil
}

// Render steps the host renderer for mode "human". Other modes fall
// through to the base env behavior, which renders nothing.
func (e *Env) Render(mode string) error {
	if e.closed {
		return ErrClosed
	}
	if mode != "human" {
		return nil
	}
	if e.wld == nil {
		return ErrNotBound
	}
	e.wld.Render()
	return nil
}

// Close clears the stage's root layer and terminates the simulation
// host. The root-layer clear suppresses spurious warnings during stage
// teardown. The env is unusable afterwards.
func (e *Env) Close() error {
	if e.closed {
		return nil
	}
	if e.wld != nil {
		e.wld.Stage().RootLayer().Clear()
	}
	e.closed = true
	return e.app.Close()
}

// Seed applies a seed and returns the value actually used. Pass -1 for
// a randomly drawn seed. The value is not range-checked.
func (e *Env) Seed(seed int64) int64 {
	return seeding.SetSeed(seed)
}

// NumEnvs returns the env count cached from the bound task.
func (e *Env) NumEnvs() int { return e.numEnvs }

func (e *Env) ObservationSpace() spaces.Space { return e.obsSpace }
func (e *Env) ActionSpace() spaces.Space      { return e.actSpace }

// SimFrameCount counts world ticks since the host launched. It is
// cumulative across episodes: Reset does not rewind it.
func (e *Env) SimFrameCount() uint64 { return e.frameCount }

// Viewport exposes the terminal viewport so callers can publish scene
// snapshots for drawing.
func (e *Env) Viewport() *viewport.Extension { return e.view }

// World exposes the bound world, nil while unbound.
func (e *Env) World() *world.World { return e.wld }
