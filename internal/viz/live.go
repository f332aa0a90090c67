package viz

import (
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"math"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/demsim/internal/engine"
	"github.com/san-kum/demsim/internal/metrics"
)

const (
	width           = 80
	height          = 24
	historyCapacity = 600
	minAmplitude    = 1e-7
	maxStepsFrame   = 1 << 14
	gifPath         = "demsim.gif"
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Model advances one engine a batch of steps per frame and draws it.
type Model struct {
	engine        *engine.Engine
	title         string
	total         int
	stepsPerFrame int

	canvas      *Canvas
	camera      *Camera
	window      Window
	perspective bool
	plateRow    int

	running   bool
	done      bool
	err       error
	showHelp  bool
	recording bool
	frames    []*image.Paletted
	notice    string

	heights  []float64
	energies []float64
	last     metrics.Sample
}

// NewModel shows e. total is the step at which the run stops, 0 for
// none.
func NewModel(e *engine.Engine, title string, stepsPerFrame, total int) Model {
	m := Model{
		engine:        e,
		title:         title,
		total:         total,
		stepsPerFrame: min(max(stepsPerFrame, 1), maxStepsFrame),
		canvas:        NewCanvas(width, height),
		camera:        NewCamera(),
		running:       true,
		heights:       make([]float64, 0, historyCapacity),
		energies:      make([]float64, 0, historyCapacity),
		last:          metrics.Take(e),
	}
	m.window = WindowFor(e.Snapshot(true), 3)
	m.draw()
	return m
}

func (m Model) Init() tea.Cmd { return tick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case TickMsg:
		if m.running && !m.done && m.err == nil {
			m.advance()
		}
		m.draw()
		if m.recording {
			m.captureFrame()
		}
		return m, tick()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case " ":
		m.running = !m.running
	case "up", "k":
		m.engine.SetAmplitude(math.Max(m.engine.Plate().Amplitude()*1.1, minAmplitude))
	case "down", "j":
		m.engine.SetAmplitude(m.engine.Plate().Amplitude() / 1.1)
	case "left", "h":
		m.setPeriod(m.engine.Plate().Period() * 1.1)
	case "right", "l":
		m.setPeriod(m.engine.Plate().Period() / 1.1)
	case "+", "=":
		m.stepsPerFrame = min(m.stepsPerFrame*2, maxStepsFrame)
	case "-", "_":
		m.stepsPerFrame = max(m.stepsPerFrame/2, 1)
	case "v":
		m.perspective = !m.perspective
	case "x":
		m.camera.RotateX(0.1)
	case "X":
		m.camera.RotateX(-0.1)
	case "y":
		m.camera.RotateY(0.1)
	case "Y":
		m.camera.RotateY(-0.1)
	case "z":
		m.camera.RotateZ(0.1)
	case "Z":
		m.camera.RotateZ(-0.1)
	case "t":
		NextTheme()
	case "g":
		if m.recording {
			m.notice = m.saveGIF()
			m.recording, m.frames = false, nil
		} else {
			m.recording, m.frames = true, make([]*image.Paletted, 0)
		}
	case "?":
		m.showHelp = !m.showHelp
	}
	m.draw()
	return m, nil
}

func (m *Model) setPeriod(T float64) {
	if err := m.engine.SetPeriod(T); err != nil {
		m.notice = err.Error()
	}
}

// advance runs one frame worth of steps and records the mean height.
func (m *Model) advance() {
	n := m.stepsPerFrame
	if m.total > 0 {
		n = min(n, m.total-m.engine.StepNumber())
	}
	for range n {
		if err := m.engine.Step(); err != nil {
			m.err = err
			break
		}
	}
	if m.total > 0 && m.engine.StepNumber() >= m.total {
		m.done = true
	}

	m.last = metrics.Take(m.engine)
	m.heights = append(m.heights, m.last.MeanHeight-m.engine.Plate().Baseline())
	m.energies = append(m.energies, m.last.KineticEnergy)
	if len(m.heights) > historyCapacity {
		m.heights = m.heights[1:]
		m.energies = m.energies[1:]
	}
}

func (m *Model) draw() {
	s := m.engine.Snapshot(true)
	if m.perspective {
		PerspectiveView(m.canvas, s, m.camera)
		m.plateRow = -1
		return
	}
	m.window.Fit(s)
	m.plateRow = SideView(m.canvas, s, m.window)
}

func (m Model) status() string {
	switch {
	case m.err != nil:
		return errorStyle.Render("STOPPED")
	case m.done:
		return StatusDone.Render("DONE")
	case !m.running:
		return StatusPaused.Render("PAUSED")
	}
	return StatusRunning.Render("RUNNING")
}

// renderCanvas colors rows at or below the plate surface as plate.
func (m Model) renderCanvas() string {
	bed := lipgloss.NewStyle().Foreground(CurrentTheme.Bed)
	plate := lipgloss.NewStyle().Foreground(CurrentTheme.Plate)
	rows := m.canvas.Rows()
	for i, r := range rows {
		if m.plateRow >= 0 && i >= m.plateRow {
			rows[i] = plate.Render(r)
		} else {
			rows[i] = bed.Render(r)
		}
	}
	return canvasStyle.Render(strings.Join(rows, "\n"))
}

func (m Model) View() string {
	e := m.engine
	pl := e.Plate()
	row := func(label, value string) string {
		return labelStyle.Render(label) + valueStyle.Render(value) + "\n"
	}

	var s strings.Builder
	s.WriteString(titleStyle().Render(strings.ToUpper(m.title)) + "\n")
	s.WriteString(m.status())
	if m.recording {
		s.WriteString(errorStyle.Render("  ● REC"))
	}
	s.WriteString("\n\n")

	if len(m.heights) > 1 {
		chart := asciigraph.Plot(m.heights, asciigraph.Height(5), asciigraph.Width(32), asciigraph.Caption("mean height above baseline"))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}

	pairs, plates := e.Contacts()
	g := math.Abs(e.World().Gravity.Z)
	s.WriteString(row("Step", fmt.Sprintf("%d", e.StepNumber())))
	s.WriteString(row("Time", fmt.Sprintf("%.4fs", e.Time())))
	s.WriteString(row("Amplitude", fmt.Sprintf("%.3g", pl.Amplitude())))
	s.WriteString(row("Period", fmt.Sprintf("%.4gs", pl.Period())))
	s.WriteString(row("Γ", fmt.Sprintf("%.2f", pl.Acceleration(g))))
	s.WriteString(row("Particles", fmt.Sprintf("%d on %d", len(e.Particles()), len(e.PlateParticles()))))
	s.WriteString(row("Contacts", fmt.Sprintf("%d pair, %d plate", pairs, plates)))
	s.WriteString(row("Energy", fmt.Sprintf("%.3e", m.last.KineticEnergy)))
	s.WriteString(row("Steps/frame", fmt.Sprintf("%d", m.stepsPerFrame)))
	s.WriteString(row("", Sparkline(m.energies, 24)))
	if m.total > 0 {
		s.WriteString("\n" + ProgressBar(float64(e.StepNumber())/float64(m.total), 32) + "\n")
	}
	if m.err != nil {
		s.WriteString("\n" + errorStyle.Render(m.err.Error()) + "\n")
	}
	if m.notice != "" {
		s.WriteString("\n" + valueStyle.Render(m.notice) + "\n")
	}
	s.WriteString(helpStyle.Render("─────────────────────\nSP:Pause Q:Quit ?:Help\n↑↓:Amplitude ←→:Period\n+-:Speed V:View T:Theme"))

	main := lipgloss.JoinHorizontal(lipgloss.Top, m.renderCanvas(), statsStyle.Render(s.String()))
	if m.showHelp {
		return helpOverlay + "\n\n" + main
	}
	return main
}

const helpOverlay = `
╔══════════════════════════════════════╗
║           KEYBOARD SHORTCUTS         ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume             ║
║  Up/K     - Amplitude +10%           ║
║  Down/J   - Amplitude -10%           ║
║  Left/H   - Period +10%              ║
║  Right/L  - Period -10%              ║
║  +/-      - Steps per frame x2 / /2  ║
║  V        - Side / perspective view  ║
║  X Y Z    - Rotate camera            ║
║  G        - Toggle GIF recording     ║
║  T        - Cycle themes             ║
║  ?        - Toggle this help         ║
║  Q        - Quit                     ║
╚══════════════════════════════════════╝`

// captureFrame rasterises the canvas, one 4×4 block per braille dot.
func (m *Model) captureFrame() {
	const dot = 4
	pw, ph := m.canvas.Pixels()
	img := image.NewPaletted(image.Rect(0, 0, pw*dot, ph*dot), color.Palette{color.Black, color.White})
	for y := 0; y < ph; y++ {
		for x := 0; x < pw; x++ {
			if !m.canvas.IsSet(x, y) {
				continue
			}
			for py := 0; py < dot; py++ {
				for px := 0; px < dot; px++ {
					img.SetColorIndex(x*dot+px, y*dot+py, 1)
				}
			}
		}
	}
	m.frames = append(m.frames, img)
}

// saveGIF writes the recorded frames and returns a status line.
func (m *Model) saveGIF() string {
	if len(m.frames) == 0 {
		return "nothing recorded"
	}
	anim := gif.GIF{}
	for _, frame := range m.frames {
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, 3)
	}
	f, err := os.Create(gifPath)
	if err != nil {
		return err.Error()
	}
	defer f.Close()
	if err := gif.EncodeAll(f, &anim); err != nil {
		return err.Error()
	}
	return fmt.Sprintf("saved %d frames to %s", len(m.frames), gifPath)
}
