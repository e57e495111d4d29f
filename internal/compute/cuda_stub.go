//go:build !cuda

package compute

import "github.com/Iohannes-long/isaac-sim-gym/internal/physics"

type CUDABackend struct{}

func NewCUDABackend() *CUDABackend {
	return &CUDABackend{}
}

func (c *CUDABackend) Name() string    { return "cuda (not available)" }
func (c *CUDABackend) Available() bool { return false }
func (c *CUDABackend) Cleanup()        {}

func (c *CUDABackend) IntegrateBatch(dyn physics.Dynamics, states []physics.State, controls []physics.Control, t, dt float64) {
	cpu := NewCPUBackend()
	cpu.IntegrateBatch(dyn, states, controls, t, dt)
}
