// Package compute provides hardware-accelerated physics stepping backends.
//
// Batched integration runs one substep across all cloned environment
// instances at once:
//
//	backend := compute.For("cuda")
//	backend.IntegrateBatch(dyn, states, controls, t, dt)
//
// CUDA support is selected with the cuda build tag; without it the cuda
// device resolves to the CPU worker-pool backend.
package compute
