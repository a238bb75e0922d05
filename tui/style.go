package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles used throughout the TUI.
var (
	styleStatusBar = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Bold(true)

	styleInputPrompt = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))

	styleNarrative = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	styleBattle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("209"))

	styleSystem = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	styleError = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	stylePlayerInput = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))

	styleTrace = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	styleHint = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	styleWindow = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)

	styleFace = lipgloss.NewStyle().
			Foreground(lipgloss.Color("228")).
			Bold(true)

	styleChoice = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	styleChoiceSelected = lipgloss.NewStyle().
				Foreground(lipgloss.Color("228")).
				Bold(true)

	styleMap = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240"))

	stylePlayer = lipgloss.NewStyle().
			Foreground(lipgloss.Color("34")).
			Bold(true)

	styleEvent = lipgloss.NewStyle().
			Foreground(lipgloss.Color("228"))
)

// lineKind identifies the type of an output line for styling.
type lineKind int

const (
	kindNarrative lineKind = iota
	kindBattle
	kindSystem
	kindError
	kindTrace
)

var battleMarkers = []string{" appeared!", " attacks ", " is defeated.", "Victory!", "escape", "has fallen", "braces itself"}

// classifyLine determines what kind of output line this is.
func classifyLine(line string) lineKind {
	switch {
	case strings.HasPrefix(line, "[trace]"):
		return kindTrace
	case strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]"):
		return kindSystem
	case strings.HasPrefix(line, "error: "):
		return kindError
	}
	for _, m := range battleMarkers {
		if strings.Contains(line, m) {
			return kindBattle
		}
	}
	return kindNarrative
}

// renderLineKind applies the style for a given lineKind.
func renderLineKind(line string, kind lineKind) string {
	switch kind {
	case kindBattle:
		return styleBattle.Render(line)
	case kindSystem:
		return styleSystem.Render(line)
	case kindError:
		return styleError.Render(line)
	case kindTrace:
		return styleTrace.Render(line)
	default:
		return styleNarrative.Render(line)
	}
}

// styledSystemMsg renders a system message in gray with brackets.
func styledSystemMsg(text string) string {
	return styleSystem.Render("[" + text + "]")
}

// wordWrap wraps text to fit within the given number of terminal cells,
// breaking at word boundaries. Wide characters count as two cells.
func wordWrap(text string, width int) string {
	if width <= 0 || lipgloss.Width(text) <= width {
		return text
	}

	var result strings.Builder
	words := strings.Fields(text)
	lineLen := 0

	for i, word := range words {
		wLen := lipgloss.Width(word)

		if i == 0 {
			result.WriteString(word)
			lineLen = wLen
			continue
		}

		if lineLen+1+wLen > width {
			result.WriteString("\n")
			result.WriteString(word)
			lineLen = wLen
		} else {
			result.WriteString(" ")
			result.WriteString(word)
			lineLen += 1 + wLen
		}
	}

	return result.String()
}
