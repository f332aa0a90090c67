package viz

import "github.com/charmbracelet/lipgloss"

// Theme colors the live view.
type Theme struct {
	Name   string
	Bed    lipgloss.Color
	Plate  lipgloss.Color
	Accent lipgloss.Color
	Text   lipgloss.Color
	Muted  lipgloss.Color
}

var (
	ThemeSand = Theme{
		Name:   "sand",
		Bed:    lipgloss.Color("#e8c87a"),
		Plate:  lipgloss.Color("#8a8a9a"),
		Accent: lipgloss.Color("#ff9f43"),
		Text:   lipgloss.Color("#f5f0e6"),
		Muted:  lipgloss.Color("#7a6f5c"),
	}

	ThemeRetroGreen = Theme{
		Name:   "retro",
		Bed:    lipgloss.Color("#00ff00"),
		Plate:  lipgloss.Color("#00aa00"),
		Accent: lipgloss.Color("#88ff88"),
		Text:   lipgloss.Color("#00ff00"),
		Muted:  lipgloss.Color("#005500"),
	}

	ThemeOcean = Theme{
		Name:   "ocean",
		Bed:    lipgloss.Color("#00a8cc"),
		Plate:  lipgloss.Color("#4488aa"),
		Accent: lipgloss.Color("#ffd700"),
		Text:   lipgloss.Color("#e0f0ff"),
		Muted:  lipgloss.Color("#335577"),
	}

	ThemeMinimal = Theme{
		Name:   "minimal",
		Bed:    lipgloss.Color("#ffffff"),
		Plate:  lipgloss.Color("#888888"),
		Accent: lipgloss.Color("#0088ff"),
		Text:   lipgloss.Color("#ffffff"),
		Muted:  lipgloss.Color("#666666"),
	}

	CurrentTheme = ThemeSand

	Themes = []Theme{ThemeSand, ThemeRetroGreen, ThemeOcean, ThemeMinimal}
)

// GetTheme returns a theme by name, falling back to the first one.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return Themes[0]
}

func SetTheme(name string) {
	CurrentTheme = GetTheme(name)
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

// NextTheme switches to the theme after the current one.
func NextTheme() {
	for i, t := range Themes {
		if t.Name == CurrentTheme.Name {
			CurrentTheme = Themes[(i+1)%len(Themes)]
			return
		}
	}
	CurrentTheme = Themes[0]
}
