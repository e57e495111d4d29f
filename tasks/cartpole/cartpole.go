// Package cartpole is a vectorized pole-balancing task: each cloned
// env holds one cart on a bounded track, rewarded 1.0 per step the pole
// stays within bounds.
package cartpole

import (
	"fmt"
	"math"

	"github.com/Iohannes-long/isaac-sim-gym/internal/compute"
	"github.com/Iohannes-long/isaac-sim-gym/internal/physics"
	"github.com/Iohannes-long/isaac-sim-gym/internal/seeding"
	"github.com/Iohannes-long/isaac-sim-gym/spaces"
	"github.com/Iohannes-long/isaac-sim-gym/task"
)

const (
	posThreshold   = 2.4
	thetaThreshold = 12.0 * math.Pi / 180.0
)

type Options struct {
	NumEnvs          int
	MaxEpisodeLength int
	ResetNoise       float64
}

type Task struct {
	opts Options
	dyn  *physics.CartPole

	backend   compute.Backend
	physicsDt float64

	states   []physics.State
	controls []physics.Control
	steps    []int
	doneBuf  []bool

	obsSpace spaces.Space
	actSpace spaces.Space
}

func New(opts Options) *Task {
	if opts.NumEnvs <= 0 {
		opts.NumEnvs = 16
	}
	if opts.MaxEpisodeLength <= 0 {
		opts.MaxEpisodeLength = 500
	}
	if opts.ResetNoise <= 0 {
		opts.ResetNoise = 0.05
	}
	return &Task{
		opts:     opts,
		dyn:      physics.NewCartPole(),
		obsSpace: spaces.NewBox(math.Inf(-1), math.Inf(1), 4),
		actSpace: spaces.NewBox(-1, 1, 1),
	}
}

func (c *Task) Name() string                   { return "cartpole" }
func (c *Task) NumEnvs() int                   { return c.opts.NumEnvs }
func (c *Task) ObservationSpace() spaces.Space { return c.obsSpace }
func (c *Task) ActionSpace() spaces.Space      { return c.actSpace }

func (c *Task) SetUp(scene task.Scene) error {
	n := c.opts.NumEnvs
	for i := 0; i < n; i++ {
		if err := scene.DefinePrim(fmt.Sprintf("/World/envs/env_%d/cartpole", i), "Articulation"); err != nil {
			return err
		}
	}

	c.backend = compute.For(scene.Device())
	c.physicsDt = scene.PhysicsDt()
	c.states = make([]physics.State, n)
	c.controls = make([]physics.Control, n)
	c.steps = make([]int, n)
	c.doneBuf = make([]bool, n)
	for i := 0; i < n; i++ {
		c.states[i] = make(physics.State, c.dyn.StateDim())
		c.controls[i] = make(physics.Control, c.dyn.ControlDim())
	}

	scene.RegisterPhysicsStep(func(t, dt float64) {
		c.backend.IntegrateBatch(c.dyn, c.states, c.controls, t, dt)
	})
	return nil
}

func (c *Task) Reset() {
	for i := range c.states {
		c.resetIdx(i)
	}
}

func (c *Task) resetIdx(i int) {
	rng := seeding.Rand()
	noise := c.opts.ResetNoise
	for j := range c.states[i] {
		c.states[i][j] = (rng.Float64()*2 - 1) * noise
	}
	for j := range c.controls[i] {
		c.controls[i][j] = 0
	}
	c.steps[i] = 0
	c.doneBuf[i] = false
}

// PrePhysicsStep re-seeds envs that finished last step, then loads the
// action batch as forces for the coming tick. Malformed rows are taken
// as zero force.
func (c *Task) PrePhysicsStep(actions [][]float64) {
	for i := range c.states {
		if c.doneBuf[i] {
			c.resetIdx(i)
		}
		c.steps[i]++

		force := 0.0
		if i < len(actions) && len(actions[i]) > 0 {
			force = actions[i][0]
		}
		c.controls[i][0] = force
	}
}

func (c *Task) GetObservations() [][]float64 {
	obs := make([][]float64, len(c.states))
	for i, s := range c.states {
		obs[i] = s.Clone()
	}
	return obs
}

func (c *Task) CalculateMetrics() []float64 {
	rewards := make([]float64, len(c.states))
	for i := range rewards {
		rewards[i] = 1.0
	}
	return rewards
}

func (c *Task) IsDone() []bool {
	for i, s := range c.states {
		c.doneBuf[i] = math.Abs(s[0]) > posThreshold ||
			math.Abs(s[2]) > thetaThreshold ||
			c.steps[i] >= c.opts.MaxEpisodeLength
	}
	dones := make([]bool, len(c.doneBuf))
	copy(dones, c.doneBuf)
	return dones
}

// StateRow exposes one env's raw state, used by the terminal viewport.
func (c *Task) StateRow(i int) []float64 {
	if i < 0 || i >= len(c.states) {
		return nil
	}
	return c.states[i].Clone()
}
