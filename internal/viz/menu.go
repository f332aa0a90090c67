package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/demsim/internal/config"
	"github.com/san-kum/demsim/internal/experiment"
)

var (
	cursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("213")).Bold(true)
	itemStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	infoStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
)

const (
	stateMenu = iota
	stateSim
)

// App lets the user pick a preset and then shows it live.
type App struct {
	state         int
	cursor        int
	entries       []string
	stepsPerFrame int
	live          Model
	err           error
}

func NewApp(stepsPerFrame int) App {
	var entries []string
	for _, exp := range []string{"constant", "ramp"} {
		for _, name := range config.ListPresets(exp) {
			entries = append(entries, exp+"/"+name)
		}
	}
	return App{entries: entries, stepsPerFrame: stepsPerFrame}
}

func (a App) Init() tea.Cmd { return nil }

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if a.state == stateSim {
		if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" {
			a.state = stateMenu
			return a, nil
		}
		next, cmd := a.live.Update(msg)
		a.live = next.(Model)
		return a, cmd
	}

	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return a, nil
	}
	switch k.String() {
	case "q", "ctrl+c":
		return a, tea.Quit
	case "up", "k":
		if a.cursor > 0 {
			a.cursor--
		}
	case "down", "j":
		if a.cursor < len(a.entries)-1 {
			a.cursor++
		}
	case "enter", " ":
		return a.open()
	}
	return a, nil
}

func (a App) open() (tea.Model, tea.Cmd) {
	if len(a.entries) == 0 {
		return a, nil
	}
	exp, name, _ := strings.Cut(a.entries[a.cursor], "/")
	cfg := config.GetPreset(exp, name)
	x, err := experiment.New(cfg, nil, max(cfg.CSVInterval, 1), nil)
	if err != nil {
		a.err = err
		return a, nil
	}
	a.err = nil
	a.live = NewModel(x.Engine(), a.entries[a.cursor], a.stepsPerFrame, x.Config().Steps)
	a.state = stateSim
	return a, a.live.Init()
}

func (a App) View() string {
	if a.state == stateSim {
		return a.live.View()
	}
	var s strings.Builder
	s.WriteString(titleStyle().Render("DEMSIM PRESETS") + "\n")
	for i, e := range a.entries {
		if i == a.cursor {
			s.WriteString(cursorStyle.Render("> "+e) + "\n")
		} else {
			s.WriteString(itemStyle.Render("  "+e) + "\n")
		}
	}
	if len(a.entries) > 0 {
		exp, name, _ := strings.Cut(a.entries[a.cursor], "/")
		if cfg := config.GetPreset(exp, name); cfg != nil {
			s.WriteString("\n" + infoStyle.Render(fmt.Sprintf("amplitude %.3g  period %.3gs  area fraction %.2f  box %.3gx%.3g",
				cfg.Amplitude, cfg.Period, cfg.AreaFraction, cfg.Lx, cfg.Ly)) + "\n")
		}
	}
	if a.err != nil {
		s.WriteString("\n" + errorStyle.Render(a.err.Error()) + "\n")
	}
	s.WriteString(helpStyle.Render("↑↓:Select Enter:Run Esc:Back Q:Quit"))
	return s.String()
}
