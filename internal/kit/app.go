// Package kit models the simulation host process: launch configuration,
// the process-wide settings registry, the extension manager, and the
// render loop bookkeeping that worlds and viewports hang off.
package kit

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// EnvExpPath names the environment variable locating experience files
// for headless launches.
const EnvExpPath = "EXP_PATH"

// HeadlessExperience is the experience file consulted under EXP_PATH
// when launching without a display.
const HeadlessExperience = "gym.headless.kit.yaml"

// LaunchConfig selects the startup variant for the host process.
type LaunchConfig struct {
	Headless      bool
	PhysicsDevice int
	// Experience overrides the startup file. When empty and Headless is
	// set, it is resolved to $EXP_PATH/gym.headless.kit.yaml.
	Experience string
}

// Experience is the parsed startup file: a settings preload plus the
// extensions the host should come up with.
type Experience struct {
	Title      string         `yaml:"title"`
	Settings   map[string]any `yaml:"settings"`
	Extensions []string       `yaml:"extensions"`
}

// App is a handle on the running host process. Exactly one is expected
// per adapter; Close tears the process down for good.
type App struct {
	cfg         LaunchConfig
	experience  *Experience
	extensions  *ExtensionManager
	log         zerolog.Logger
	frameCount  uint64
	renderHooks []func(frame uint64)
	running     bool
}

// Launch starts the host with the given configuration. Launch failure
// is fatal to the caller; there is no retry path.
func Launch(cfg LaunchConfig) (*App, error) {
	// Allow EXP_PATH and friends to come from a dotenv file.
	_ = godotenv.Load()

	if cfg.Experience == "" && cfg.Headless {
		expPath := os.Getenv(EnvExpPath)
		if expPath == "" {
			return nil, fmt.Errorf("headless launch requires %s to be set", EnvExpPath)
		}
		cfg.Experience = filepath.Join(expPath, HeadlessExperience)
	}

	app := &App{
		cfg:        cfg,
		extensions: newExtensionManager(),
		log:        newLogger(),
		running:    true,
	}

	if cfg.Experience != "" {
		exp, err := loadExperience(cfg.Experience)
		if err != nil {
			return nil, err
		}
		app.experience = exp
		for path, value := range exp.Settings {
			Settings().Set(path, value)
		}
	}

	app.log.Info().
		Bool("headless", cfg.Headless).
		Int("physics_device", cfg.PhysicsDevice).
		Str("experience", cfg.Experience).
		Msg("simulation app launched")

	return app, nil
}

func newLogger() zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}
	return zerolog.New(output).With().Timestamp().Str("component", "kit").Logger()
}

func loadExperience(path string) (*Experience, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read experience %s: %w", path, err)
	}
	exp := &Experience{}
	if err := yaml.Unmarshal(data, exp); err != nil {
		return nil, fmt.Errorf("parse experience %s: %w", path, err)
	}
	return exp, nil
}

func (a *App) Extensions() *ExtensionManager { return a.extensions }
func (a *App) Headless() bool                { return a.cfg.Headless }
func (a *App) PhysicsDevice() int            { return a.cfg.PhysicsDevice }
func (a *App) IsRunning() bool               { return a.running }
func (a *App) FrameCount() uint64            { return a.frameCount }
func (a *App) Log() zerolog.Logger           { return a.log }

// OnRender subscribes a hook to renderer frames. Hooks run synchronously
// on the stepping goroutine.
func (a *App) OnRender(fn func(frame uint64)) {
	a.renderHooks = append(a.renderHooks, fn)
}

// RenderFrame advances the renderer by one frame.
func (a *App) RenderFrame() {
	if !a.running {
		return
	}
	a.frameCount++
	for _, fn := range a.renderHooks {
		fn(a.frameCount)
	}
}

// Close shuts down every extension and terminates the host process.
// The handle is unusable afterwards.
func (a *App) Close() error {
	if !a.running {
		return nil
	}
	a.extensions.shutdownAll()
	a.running = false
	a.log.Info().Uint64("frames", a.frameCount).Msg("simulation app closed")
	return nil
}
