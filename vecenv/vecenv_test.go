package vecenv_test

import (
	"io"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/gbytes"

	"github.com/Iohannes-long/isaac-sim-gym/internal/config"
	"github.com/Iohannes-long/isaac-sim-gym/spaces"
	"github.com/Iohannes-long/isaac-sim-gym/task"
	"github.com/Iohannes-long/isaac-sim-gym/vecenv"
)

type mockTask struct {
	numEnvs     int
	setUps      int
	resets      int
	preSteps    int
	lastActions [][]float64
	obsSpace    spaces.Space
	actSpace    spaces.Space
}

func newMockTask(numEnvs int) *mockTask {
	return &mockTask{
		numEnvs:  numEnvs,
		obsSpace: spaces.NewBox(-10, 10, 3),
		actSpace: spaces.NewDiscrete(2),
	}
}

func (m *mockTask) Name() string                   { return "mock" }
func (m *mockTask) NumEnvs() int                   { return m.numEnvs }
func (m *mockTask) ObservationSpace() spaces.Space { return m.obsSpace }
func (m *mockTask) ActionSpace() spaces.Space      { return m.actSpace }
func (m *mockTask) Reset()                         { m.resets++ }

func (m *mockTask) SetUp(scene task.Scene) error {
	m.setUps++
	return scene.DefinePrim("/World/mock", "Xform")
}

func (m *mockTask) PrePhysicsStep(actions [][]float64) {
	m.preSteps++
	m.lastActions = actions
}

func (m *mockTask) GetObservations() [][]float64 {
	obs := make([][]float64, m.numEnvs)
	for i := range obs {
		obs[i] = []float64{0, 0, 0}
	}
	return obs
}

func (m *mockTask) CalculateMetrics() []float64 { return make([]float64, m.numEnvs) }
func (m *mockTask) IsDone() []bool              { return make([]bool, m.numEnvs) }

var _ task.Task = (*mockTask)(nil)

// frameCount reads the renderer frame count through the viewport, which
// sees every frame whether or not it draws.
func frameCount(env *vecenv.Env) uint64 {
	return env.Viewport().FramesSeen()
}

var _ = Describe("Env", func() {
	var (
		env *vecenv.Env
		tsk *mockTask
	)

	BeforeEach(func() {
		var err error
		env, err = vecenv.New(false, 0)
		Expect(err).NotTo(HaveOccurred())
		env.Viewport().SetOutput(io.Discard)
		tsk = newMockTask(4)
	})

	AfterEach(func() {
		Expect(env.Close()).To(Succeed())
	})

	Describe("before a task is bound", func() {
		It("rejects Step and Reset", func() {
			_, _, _, _, err := env.Step(nil)
			Expect(err).To(MatchError(vecenv.ErrNotBound))

			_, err = env.Reset()
			Expect(err).To(MatchError(vecenv.ErrNotBound))
		})
	})

	Describe("SetTask", func() {
		It("copies the task's declared env count and spaces", func() {
			Expect(env.SetTask(tsk, "native", config.Defaults(), false)).To(Succeed())

			Expect(env.NumEnvs()).To(Equal(4))
			Expect(env.ObservationSpace()).To(BeIdenticalTo(tsk.obsSpace))
			Expect(env.ActionSpace()).To(BeIdenticalTo(tsk.actSpace))
		})

		It("sets up the task scene exactly once", func() {
			Expect(env.SetTask(tsk, "native", config.Defaults(), false)).To(Succeed())
			Expect(tsk.setUps).To(Equal(1))
		})

		It("resets the world immediately when initSim is set", func() {
			Expect(env.SetTask(tsk, "native", config.Defaults(), true)).To(Succeed())
			Expect(tsk.resets).To(Equal(1))
		})

		It("leaves the world alone when initSim is unset", func() {
			Expect(env.SetTask(tsk, "native", config.Defaults(), false)).To(Succeed())
			Expect(tsk.resets).To(BeZero())
		})

		It("rebinds a new task wholesale", func() {
			Expect(env.SetTask(tsk, "native", config.Defaults(), false)).To(Succeed())

			other := newMockTask(16)
			Expect(env.SetTask(other, "native", config.Defaults(), false)).To(Succeed())
			Expect(env.NumEnvs()).To(Equal(16))
		})

		It("disables the viewport when sim params say so", func() {
			off := false
			params := config.Defaults()
			params.EnableViewport = &off

			Expect(env.SetTask(tsk, "native", params, false)).To(Succeed())

			buf := gbytes.NewBuffer()
			env.Viewport().SetOutput(buf)
			Expect(env.Render("human")).To(Succeed())
			Expect(buf.Contents()).To(BeEmpty())
		})
	})

	Describe("Step", func() {
		BeforeEach(func() {
			Expect(env.SetTask(tsk, "native", config.Defaults(), true)).To(Succeed())
		})

		It("returns all four components with a non-nil empty info", func() {
			obs, rewards, dones, info, err := env.Step([][]float64{{1, 0}})
			Expect(err).NotTo(HaveOccurred())

			Expect(obs).To(HaveLen(4))
			Expect(rewards).To(HaveLen(4))
			Expect(dones).To(HaveLen(4))
			Expect(info).NotTo(BeNil())
			Expect(info).To(BeEmpty())
		})

		It("increments the frame counter by exactly one per call, whatever the actions", func() {
			before := env.SimFrameCount()

			_, _, _, _, err := env.Step(nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(env.SimFrameCount()).To(Equal(before + 1))

			_, _, _, _, err = env.Step([][]float64{{9, 9, 9}, {}})
			Expect(err).NotTo(HaveOccurred())
			Expect(env.SimFrameCount()).To(Equal(before + 2))
		})

		It("hands the action batch to the task untouched", func() {
			actions := [][]float64{{0, 1}, {1, 0}}
			_, _, _, _, err := env.Step(actions)
			Expect(err).NotTo(HaveOccurred())

			Expect(tsk.preSteps).To(Equal(1))
			Expect(tsk.lastActions).To(Equal(actions))
		})
	})

	Describe("Reset", func() {
		BeforeEach(func() {
			Expect(env.SetTask(tsk, "native", config.Defaults(), false)).To(Succeed())
		})

		It("invokes the task's reset hook exactly once and returns observations only", func() {
			obs, err := env.Reset()
			Expect(err).NotTo(HaveOccurred())

			Expect(tsk.resets).To(Equal(1))
			Expect(obs).To(HaveLen(4))
		})

		It("does not advance the frame counter", func() {
			before := env.SimFrameCount()
			_, err := env.Reset()
			Expect(err).NotTo(HaveOccurred())
			Expect(env.SimFrameCount()).To(Equal(before))
		})
	})

	Describe("Seed", func() {
		It("passes explicit seeds through verbatim", func() {
			Expect(env.Seed(5)).To(Equal(int64(5)))
		})

		It("draws distinct random seeds for -1", func() {
			a := env.Seed(-1)
			b := env.Seed(-1)
			Expect(a).NotTo(Equal(int64(-1)))
			Expect(a).NotTo(Equal(b))
		})
	})

	Describe("Render", func() {
		BeforeEach(func() {
			Expect(env.SetTask(tsk, "native", config.Defaults(), false)).To(Succeed())
		})

		It("steps the world renderer for mode human", func() {
			before := env.World().SimTime()
			frames := frameCount(env)

			Expect(env.Render("human")).To(Succeed())

			Expect(frameCount(env)).To(Equal(frames + 1))
			Expect(env.World().SimTime()).To(Equal(before), "render must not advance physics")
		})

		It("renders nothing for unsupported modes", func() {
			frames := frameCount(env)
			Expect(env.Render("rgb_array")).To(Succeed())
			Expect(frameCount(env)).To(Equal(frames))
		})
	})

	Describe("Close", func() {
		It("clears the stage root layer and rejects further calls", func() {
			Expect(env.SetTask(tsk, "native", config.Defaults(), false)).To(Succeed())
			stage := env.World().Stage()
			Expect(stage.RootLayer().PrimCount()).To(BeNumerically(">", 0))

			Expect(env.Close()).To(Succeed())

			Expect(stage.RootLayer().PrimCount()).To(BeZero())
			_, _, _, _, err := env.Step(nil)
			Expect(err).To(MatchError(vecenv.ErrClosed))
			Expect(env.Render("human")).To(MatchError(vecenv.ErrClosed))
		})

		It("is idempotent", func() {
			Expect(env.Close()).To(Succeed())
			Expect(env.Close()).To(Succeed())
		})
	})
})
