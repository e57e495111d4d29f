package viewport

import (
	"bytes"
	"strings"
	"testing"
)

func TestDisabledDrawsNothing(t *testing.T) {
	v := New()
	var buf bytes.Buffer
	v.SetOutput(&buf)

	v.OnFrame(1)

	if buf.Len() != 0 {
		t.Error("disabled viewport should not write frames")
	}
}

func TestStartupEnablesDrawing(t *testing.T) {
	v := New()
	var buf bytes.Buffer
	v.SetOutput(&buf)

	if err := v.Startup(); err != nil {
		t.Fatal(err)
	}
	v.Publish(Snapshot{
		TaskName: "cartpole",
		NumEnvs:  4,
		State:    []float64{0, 0, 0.1, 0},
	})
	v.OnFrame(1)

	out := buf.String()
	if out == "" {
		t.Fatal("enabled viewport should write a frame")
	}
	if !strings.Contains(out, "cartpole") {
		t.Error("frame should carry the task name")
	}
}

func TestShutdownStopsDrawing(t *testing.T) {
	v := New()
	var buf bytes.Buffer
	v.SetOutput(&buf)

	if err := v.Startup(); err != nil {
		t.Fatal(err)
	}
	v.Shutdown()
	v.OnFrame(1)

	if buf.Len() != 0 {
		t.Error("shut down viewport should not write frames")
	}
}

func TestRenderSparklineNeedsTwoPoints(t *testing.T) {
	v := New()
	v.Publish(Snapshot{TaskName: "t", State: []float64{0, 0, 0, 0}, Returns: []float64{5}})

	if strings.Contains(v.Render(1), "episode return") {
		t.Error("single return should not plot")
	}

	v.Publish(Snapshot{TaskName: "t", State: []float64{0, 0, 0, 0}, Returns: []float64{5, 7}})
	if !strings.Contains(v.Render(2), "episode return") {
		t.Error("two returns should plot the sparkline")
	}
}

func TestRenderShortStateTolerated(t *testing.T) {
	v := New()
	v.Publish(Snapshot{TaskName: "t", State: []float64{1}})

	// Must not panic on states that are not cartpole-shaped.
	_ = v.Render(1)
}
