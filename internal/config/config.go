package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultPhysicsDt   = 1.0 / 60.0
	DefaultRenderingDt = 1.0 / 60.0
	DefaultSubsteps    = 1
)

// SimParams carries physics settings handed to the world at task
// registration. EnableViewport is a pointer so an explicit false can be
// told apart from an absent key.
type SimParams struct {
	UseGPUPipeline bool    `yaml:"use_gpu_pipeline"`
	EnableViewport *bool   `yaml:"enable_viewport,omitempty"`
	PhysicsDt      float64 `yaml:"physics_dt"`
	Substeps       int     `yaml:"substeps"`
	WorkerThreads  int     `yaml:"worker_threads"`
	SolverType     string  `yaml:"solver_type"`
	GravityZ       float64 `yaml:"gravity_z"`
}

func Defaults() *SimParams {
	return &SimParams{
		PhysicsDt:  DefaultPhysicsDt,
		Substeps:   DefaultSubsteps,
		SolverType: "tgs",
		GravityZ:   -9.81,
	}
}

// Device maps the pipeline selection onto a physics device name.
func (p *SimParams) Device() string {
	if p != nil && p.UseGPUPipeline {
		return "cuda"
	}
	return "cpu"
}

// ViewportDisabled reports whether the params explicitly turn the
// viewport off. An absent key leaves the viewport alone.
func (p *SimParams) ViewportDisabled() bool {
	return p != nil && p.EnableViewport != nil && !*p.EnableViewport
}

func Load(path string) (*SimParams, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	params := Defaults()
	if err := yaml.Unmarshal(data, params); err != nil {
		return nil, fmt.Errorf("parse sim params %s: %w", path, err)
	}
	return params, nil
}

func Save(path string, params *SimParams) error {
	data, err := yaml.Marshal(params)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
