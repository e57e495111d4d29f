package compute

import (
	"runtime"
	"sync"

	"github.com/Iohannes-long/isaac-sim-gym/internal/physics"
)

type CPUBackend struct {
	workers int
}

func NewCPUBackend() *CPUBackend {
	return &CPUBackend{
		workers: runtime.NumCPU(),
	}
}

func (c *CPUBackend) Name() string    { return "cpu" }
func (c *CPUBackend) Available() bool { return true }
func (c *CPUBackend) Cleanup()        {}

func (c *CPUBackend) IntegrateBatch(dyn physics.Dynamics, states []physics.State, controls []physics.Control, t, dt float64) {
	n := len(states)
	if n < 16 {
		c.integrateSerial(dyn, states, controls, t, dt, 0, n)
		return
	}

	var wg sync.WaitGroup
	chunkSize := (n + c.workers - 1) / c.workers

	for w := 0; w < c.workers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if start >= n {
			break
		}
		if end > n {
			end = n
		}

		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			c.integrateSerial(dyn, states, controls, t, dt, start, end)
		}(start, end)
	}

	wg.Wait()
}

func (c *CPUBackend) integrateSerial(dyn physics.Dynamics, states []physics.State, controls []physics.Control, t, dt float64, start, end int) {
	// Each goroutine needs its own integrator scratch space.
	rk4 := physics.NewRK4()
	for i := start; i < end; i++ {
		var u physics.Control
		if i < len(controls) {
			u = controls[i]
		}
		states[i] = rk4.Step(dyn, states[i], u, t, dt)
	}
}
