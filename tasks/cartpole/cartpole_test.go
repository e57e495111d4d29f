package cartpole

import (
	"math"
	"testing"

	"github.com/Iohannes-long/isaac-sim-gym/internal/seeding"
)

type fakeScene struct {
	prims    []string
	steppers []func(t, dt float64)
}

func (f *fakeScene) DefinePrim(path, kind string) error {
	f.prims = append(f.prims, path)
	return nil
}

func (f *fakeScene) PhysicsDt() float64 { return 1.0 / 60.0 }
func (f *fakeScene) Device() string     { return "cpu" }

func (f *fakeScene) RegisterPhysicsStep(fn func(t, dt float64)) {
	f.steppers = append(f.steppers, fn)
}

func (f *fakeScene) tick(t, dt float64) {
	for _, fn := range f.steppers {
		fn(t, dt)
	}
}

func setUpTask(t *testing.T, opts Options) (*Task, *fakeScene) {
	t.Helper()
	seeding.SetSeed(42)

	ct := New(opts)
	scene := &fakeScene{}
	if err := ct.SetUp(scene); err != nil {
		t.Fatal(err)
	}
	ct.Reset()
	return ct, scene
}

func TestSetUpDefinesPerEnvPrims(t *testing.T) {
	ct, scene := setUpTask(t, Options{NumEnvs: 4})

	if len(scene.prims) != 4 {
		t.Errorf("expected 4 prims, got %d", len(scene.prims))
	}
	if len(scene.steppers) != 1 {
		t.Errorf("expected 1 physics callback, got %d", len(scene.steppers))
	}
	if ct.NumEnvs() != 4 {
		t.Errorf("expected 4 envs, got %d", ct.NumEnvs())
	}
}

func TestSpaces(t *testing.T) {
	ct := New(Options{})

	if ct.ObservationSpace().Size() != 4 {
		t.Errorf("expected obs dim 4, got %d", ct.ObservationSpace().Size())
	}
	if ct.ActionSpace().Size() != 1 {
		t.Errorf("expected action dim 1, got %d", ct.ActionSpace().Size())
	}
}

func TestResetRandomizesWithinNoise(t *testing.T) {
	ct, _ := setUpTask(t, Options{NumEnvs: 8, ResetNoise: 0.05})

	obs := ct.GetObservations()
	if len(obs) != 8 {
		t.Fatalf("expected 8 obs rows, got %d", len(obs))
	}
	for i, row := range obs {
		for j, v := range row {
			if math.Abs(v) > 0.05 {
				t.Errorf("env %d dim %d outside reset noise: %f", i, j, v)
			}
		}
	}
}

func TestStepLoopProducesRewardsAndDones(t *testing.T) {
	ct, scene := setUpTask(t, Options{NumEnvs: 2})

	ct.PrePhysicsStep([][]float64{{0.5}, {-0.5}})
	scene.tick(0, scene.PhysicsDt())

	rewards := ct.CalculateMetrics()
	if len(rewards) != 2 || rewards[0] != 1.0 {
		t.Errorf("expected unit rewards, got %v", rewards)
	}

	dones := ct.IsDone()
	if len(dones) != 2 {
		t.Fatalf("expected 2 done flags, got %d", len(dones))
	}
	if dones[0] || dones[1] {
		t.Error("fresh envs should not be done after one step")
	}
}

func TestUnforcedPoleEventuallyFalls(t *testing.T) {
	ct, scene := setUpTask(t, Options{NumEnvs: 1, MaxEpisodeLength: 10000})

	fell := false
	for i := 0; i < 600 && !fell; i++ {
		ct.PrePhysicsStep([][]float64{{0}})
		scene.tick(float64(i)*scene.PhysicsDt(), scene.PhysicsDt())
		fell = ct.IsDone()[0]
	}
	if !fell {
		t.Error("unforced pole should fall within 10 seconds")
	}
}

func TestDoneEnvAutoResetsNextStep(t *testing.T) {
	ct, scene := setUpTask(t, Options{NumEnvs: 1, MaxEpisodeLength: 3})

	for i := 0; i < 3; i++ {
		ct.PrePhysicsStep([][]float64{{0}})
		scene.tick(0, scene.PhysicsDt())
	}
	if !ct.IsDone()[0] {
		t.Fatal("episode should hit the length cap")
	}

	ct.PrePhysicsStep([][]float64{{0}})
	if ct.IsDone()[0] {
		t.Error("done env should be re-seeded on the next pre-physics step")
	}
}

func TestMalformedActionsTakenAsZero(t *testing.T) {
	ct, scene := setUpTask(t, Options{NumEnvs: 3})

	// One row short, one row empty; the task owns buffer tolerance.
	ct.PrePhysicsStep([][]float64{{1.0}, {}})
	scene.tick(0, scene.PhysicsDt())

	obs := ct.GetObservations()
	if len(obs) != 3 {
		t.Fatalf("expected 3 obs rows, got %d", len(obs))
	}
}

func TestObservationsDoNotAliasState(t *testing.T) {
	ct, _ := setUpTask(t, Options{NumEnvs: 1})

	obs := ct.GetObservations()
	obs[0][0] = 99

	if ct.StateRow(0)[0] == 99 {
		t.Error("observations must be copies of internal state")
	}
}

func TestStateRowBounds(t *testing.T) {
	ct, _ := setUpTask(t, Options{NumEnvs: 1})

	if ct.StateRow(-1) != nil || ct.StateRow(1) != nil {
		t.Error("out-of-range rows should be nil")
	}
	if len(ct.StateRow(0)) != 4 {
		t.Error("in-range row should have 4 dims")
	}
}
