// Package viewport is the host's optional terminal viewport extension.
// It draws the first env instance plus a reward sparkline on every
// rendered frame, and can be disabled wholesale through the extension
// manager to save resources.
package viewport

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
)

// ExtensionID is the registry name the adapter uses to disable the
// viewport when sim params request enable_viewport: false.
const ExtensionID = "isaac.kit.window.viewport"

const (
	canvasWidth  = 70
	canvasHeight = 16
	clearScreen  = "\033[2J\033[H"
)

var (
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	frameStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	rewardStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
)

// Snapshot is what a task publishes for drawing: the first env's state
// row and the rolling episode returns.
type Snapshot struct {
	TaskName string
	NumEnvs  int
	State    []float64
	Returns  []float64
}

type Extension struct {
	mu         sync.Mutex
	out        io.Writer
	frameRate  int
	lastFrame  time.Time
	enabled    bool
	snapshot   Snapshot
	canvas     [][]rune
	framesSeen uint64
}

func New() *Extension {
	canvas := make([][]rune, canvasHeight)
	for i := range canvas {
		canvas[i] = make([]rune, canvasWidth)
	}
	return &Extension{
		out:       os.Stdout,
		frameRate: 30,
		canvas:    canvas,
	}
}

func (v *Extension) ID() string { return ExtensionID }

func (v *Extension) Startup() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.enabled = true
	return nil
}

func (v *Extension) Shutdown() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.enabled = false
}

// SetOutput redirects frame output, mainly for tests.
func (v *Extension) SetOutput(w io.Writer) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.out = w
}

// Publish stores the scene to draw on the next rendered frame.
func (v *Extension) Publish(snap Snapshot) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.snapshot = snap
}

// FramesSeen counts render-loop frames delivered to the extension,
// drawn or not.
func (v *Extension) FramesSeen() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.framesSeen
}

// OnFrame is subscribed to the host's render loop.
func (v *Extension) OnFrame(frame uint64) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.framesSeen++
	if !v.enabled {
		return
	}
	if elapsed := time.Since(v.lastFrame); elapsed < time.Second/time.Duration(v.frameRate) {
		return
	}
	v.lastFrame = time.Now()

	fmt.Fprint(v.out, clearScreen+v.renderLocked(frame))
}

// Render returns the current frame as a string without writing it.
func (v *Extension) Render(frame uint64) string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.renderLocked(frame)
}

func (v *Extension) renderLocked(frame uint64) string {
	v.clear()
	drawCartPole(v.canvas, v.snapshot.State)

	var b strings.Builder
	b.WriteString(titleStyle.Render(v.snapshot.TaskName))
	fmt.Fprintf(&b, "  %s\n", frameStyle.Render(fmt.Sprintf("frame %d · %d envs", frame, v.snapshot.NumEnvs)))

	for _, row := range v.canvas {
		b.WriteString(string(row))
		b.WriteByte('\n')
	}

	if len(v.snapshot.Returns) >= 2 {
		graph := asciigraph.Plot(v.snapshot.Returns,
			asciigraph.Height(5),
			asciigraph.Width(canvasWidth-10),
			asciigraph.Caption("episode return"))
		b.WriteString(rewardStyle.Render(graph))
		b.WriteByte('\n')
	}
	return b.String()
}

func (v *Extension) clear() {
	for y := range v.canvas {
		for x := range v.canvas[y] {
			v.canvas[y][x] = ' '
		}
	}
}

func drawCartPole(canvas [][]rune, state []float64) {
	if len(state) < 4 {
		return
	}
	pos, theta := state[0], state[2]

	trackY := canvasHeight - 3
	for x := 0; x < canvasWidth; x++ {
		canvas[trackY][x] = '─'
	}

	// Track maps [-2.4, 2.4] onto the canvas width.
	cartX := canvasWidth/2 + int(pos/2.4*float64(canvasWidth/2-4))
	set(canvas, cartX-1, trackY-1, '▓')
	set(canvas, cartX, trackY-1, '▓')
	set(canvas, cartX+1, trackY-1, '▓')

	poleLen := 9.0
	tipX := cartX + int(poleLen*math.Sin(theta))
	tipY := trackY - 2 - int(poleLen*math.Cos(theta)*0.6)
	line(canvas, cartX, trackY-2, tipX, tipY, '│')
	set(canvas, tipX, tipY, '●')
}

func set(canvas [][]rune, x, y int, c rune) {
	if x >= 0 && x < canvasWidth && y >= 0 && y < canvasHeight {
		canvas[y][x] = c
	}
}

func line(canvas [][]rune, x1, y1, x2, y2 int, c rune) {
	dx := abs(x2 - x1)
	dy := abs(y2 - y1)
	sx, sy := 1, 1
	if x1 > x2 {
		sx = -1
	}
	if y1 > y2 {
		sy = -1
	}
	err := dx - dy
	for {
		set(canvas, x1, y1, c)
		if x1 == x2 && y1 == y2 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
