// Package policy provides scripted baseline policies for exercising
// environments without a learner in the loop.
package policy

import (
	"math/rand"

	"github.com/Iohannes-long/isaac-sim-gym/spaces"
)

// Policy maps a batch of observations to a batch of actions.
type Policy interface {
	Name() string
	Act(obs [][]float64) [][]float64
}

type Random struct {
	space   spaces.Space
	numEnvs int
	rng     *rand.Rand
}

func NewRandom(space spaces.Space, numEnvs int, rng *rand.Rand) *Random {
	return &Random{space: space, numEnvs: numEnvs, rng: rng}
}

func (p *Random) Name() string { return "random" }

func (p *Random) Act(obs [][]float64) [][]float64 {
	actions := make([][]float64, p.numEnvs)
	for i := range actions {
		actions[i] = p.space.Sample(p.rng)
	}
	return actions
}

// BalancePD is a per-env PD controller on pole angle, a deterministic
// baseline that keeps cartpole alive far longer than random actions.
type BalancePD struct {
	Kp float64
	Kd float64
}

func NewBalancePD() *BalancePD {
	return &BalancePD{Kp: 8.0, Kd: 1.5}
}

func (p *BalancePD) Name() string { return "pd" }

func (p *BalancePD) Act(obs [][]float64) [][]float64 {
	actions := make([][]float64, len(obs))
	for i, row := range obs {
		if len(row) < 4 {
			actions[i] = []float64{0}
			continue
		}
		theta, omega := row[2], row[3]
		u := p.Kp*theta + p.Kd*omega
		if u > 1 {
			u = 1
		} else if u < -1 {
			u = -1
		}
		actions[i] = []float64{u}
	}
	return actions
}
