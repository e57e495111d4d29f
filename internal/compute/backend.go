package compute

import "github.com/Iohannes-long/isaac-sim-gym/internal/physics"

// Backend advances a batch of cloned environment states through one
// physics substep. Rows of states/controls correspond to env indices.
type Backend interface {
	Name() string
	Available() bool
	IntegrateBatch(dyn physics.Dynamics, states []physics.State, controls []physics.Control, t, dt float64)
	Cleanup()
}

// For resolves a backend by device name, falling back to CPU when the
// requested device is not available on this build.
func For(device string) Backend {
	switch device {
	case "cuda":
		gpu := NewCUDABackend()
		if gpu.Available() {
			return gpu
		}
		return NewCPUBackend()
	default:
		return NewCPUBackend()
	}
}
