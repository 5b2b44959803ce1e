package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/comigor/helpdesk-go/internal/config"
)

// Theme is a pure rendering choice; every theme draws the same state.
type Theme struct {
	Name string

	Header    lipgloss.Style
	UserLabel lipgloss.Style
	BotLabel  lipgloss.Style
	Text      lipgloss.Style
	Time      lipgloss.Style
	Sources   lipgloss.Style
	Prompt    lipgloss.Style
	Thanks    lipgloss.Style
	Failed    lipgloss.Style
	Selected  lipgloss.Style
	ToastOK   lipgloss.Style
	ToastErr  lipgloss.Style
	Hint      lipgloss.Style
	Welcome   lipgloss.Style

	UserName string
	BotName  string
	// MarkdownStyle is a glamour standard style name.
	MarkdownStyle string
}

func modernTheme() Theme {
	return Theme{
		Name:          config.ThemeModern,
		Header:        lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#4F46E5")).Padding(0, 1),
		UserLabel:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#818CF8")),
		BotLabel:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#34D399")),
		Text:          lipgloss.NewStyle(),
		Time:          lipgloss.NewStyle().Faint(true),
		Sources:       lipgloss.NewStyle().Foreground(lipgloss.Color("#FBBF24")).PaddingLeft(2),
		Prompt:        lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("#A5B4FC")),
		Thanks:        lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")),
		Failed:        lipgloss.NewStyle().Foreground(lipgloss.Color("#F87171")),
		Selected:      lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("#4F46E5")).PaddingLeft(1),
		ToastOK:       lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#10B981")).Padding(0, 1),
		ToastErr:      lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#EF4444")).Padding(0, 1),
		Hint:          lipgloss.NewStyle().Faint(true),
		Welcome:       lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#4F46E5")).Padding(0, 1),
		UserName:      "Vous",
		BotName:       "Assistant GLPI",
		MarkdownStyle: "dark",
	}
}

func classicTheme() Theme {
	return Theme{
		Name:          config.ThemeClassic,
		Header:        lipgloss.NewStyle().Bold(true).Underline(true),
		UserLabel:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("4")),
		BotLabel:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2")),
		Text:          lipgloss.NewStyle(),
		Time:          lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		Sources:       lipgloss.NewStyle().Foreground(lipgloss.Color("3")).PaddingLeft(2),
		Prompt:        lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
		Thanks:        lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		Failed:        lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		Selected:      lipgloss.NewStyle().Bold(true),
		ToastOK:       lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		ToastErr:      lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		Hint:          lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		Welcome:       lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(0, 1),
		UserName:      "Vous",
		BotName:       "Assistant",
		MarkdownStyle: "light",
	}
}

func minimalTheme() Theme {
	plain := lipgloss.NewStyle()
	return Theme{
		Name:          config.ThemeMinimal,
		Header:        plain,
		UserLabel:     plain,
		BotLabel:      plain,
		Text:          plain,
		Time:          plain,
		Sources:       plain.PaddingLeft(2),
		Prompt:        plain,
		Thanks:        plain,
		Failed:        plain,
		Selected:      plain,
		ToastOK:       plain,
		ToastErr:      plain,
		Hint:          plain,
		Welcome:       plain,
		UserName:      "vous",
		BotName:       "assistant",
		MarkdownStyle: "notty",
	}
}

// ThemeByName returns the named theme, falling back to modern.
func ThemeByName(name string) Theme {
	switch name {
	case config.ThemeClassic:
		return classicTheme()
	case config.ThemeMinimal:
		return minimalTheme()
	default:
		return modernTheme()
	}
}
