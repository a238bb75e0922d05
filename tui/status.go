package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nathoo/eventcore/engine"
	"github.com/nathoo/eventcore/engine/message"
	"github.com/nathoo/eventcore/types"
)

// renderStatusBar produces a full-width inverted status line showing the
// map, position, gold, party HP and frame count.
func (m Model) renderStatusBar() string {
	s := m.engine.State

	name := m.defs.Maps[s.Map.ID].Name
	if name == "" {
		name = fmt.Sprintf("Map %d", s.Map.ID)
	}
	left := fmt.Sprintf(" %s (%d,%d) | Gold %d", name, s.Map.Player.X, s.Map.Player.Y, s.Party.Gold)
	if scene := engine.SceneName(s); scene != "" {
		left += " | " + strings.ToUpper(scene)
	}
	right := fmt.Sprintf("F:%d ", s.Frame)

	// Party HP if it fits.
	var hp []string
	for _, id := range s.Party.Members {
		if a := s.Party.Actors[id]; a != nil {
			hp = append(hp, fmt.Sprintf("%s %d/%d", a.Name, a.HP, a.MaxHP))
		}
	}
	if len(hp) > 0 {
		candidate := strings.Join(hp, ", ") + " | " + right
		if lipgloss.Width(left)+lipgloss.Width(candidate)+2 < m.width {
			right = candidate
		}
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	bar := left + strings.Repeat(" ", gap) + right
	return styleStatusBar.Width(m.width).Render(bar)
}

// renderWindow draws the message window with the highlighted choice, or
// the battle and shop panels when no message is open.
func (m Model) renderWindow() string {
	s := m.engine.State
	var lines []string
	switch {
	case s.Message.Visible:
		msg := s.Message
		if msg.Face != "" {
			lines = append(lines, styleFace.Render(msg.Face))
		}
		lines = append(lines, msg.Lines...)
		for i, c := range msg.Choices {
			if i == m.cursor {
				lines = append(lines, styleChoiceSelected.Render("> "+c))
			} else {
				lines = append(lines, styleChoice.Render("  "+c))
			}
		}
		if message.HasNumber(s) {
			lines = append(lines, fmt.Sprintf("(up to %d digits)", msg.NumberDigits))
		}
	case m.engine.InBattle():
		for i, b := range s.Battle.Enemies {
			if !b.Hidden {
				lines = append(lines, fmt.Sprintf("%d) %s %d/%d", i+1, b.Name, b.HP, b.MaxHP))
			}
		}
		lines = append(lines, styleHint.Render("f fight  d defend  e escape"))
	case s.Scene.Shop:
		for i, id := range s.Shop.Goods {
			it := m.defs.Items[id]
			lines = append(lines, fmt.Sprintf("%d) %s %dG", i+1, it.Name, it.Price))
		}
		lines = append(lines, styleHint.Render(": buy <item>  esc leave"))
	default:
		return ""
	}
	w := m.width - 2
	if w < 10 {
		w = 10
	}
	return styleWindow.Width(w).Render(strings.Join(lines, "\n"))
}

// renderMap draws the current map: the hero as @, visible events by the
// first letter of their name.
func (m Model) renderMap() string {
	s := m.engine.State
	def, ok := m.defs.Maps[s.Map.ID]
	if !ok || m.panel == 0 || def.Width+2 > m.panel {
		return ""
	}
	rows := make([][]string, def.Height)
	for y := range rows {
		rows[y] = make([]string, def.Width)
		for x := range rows[y] {
			rows[y][x] = "."
		}
	}
	for id, ch := range s.Map.Events {
		if ch.Hidden || s.Map.Erased[id] || !inside(def, ch.X, ch.Y) {
			continue
		}
		rows[ch.Y][ch.X] = styleEvent.Render(eventGlyph(def.Events[id].Name))
	}
	if p := s.Map.Player; inside(def, p.X, p.Y) {
		rows[p.Y][p.X] = stylePlayer.Render("@")
	}
	out := make([]string, len(rows))
	for y, r := range rows {
		out[y] = strings.Join(r, "")
	}
	return styleMap.Render(strings.Join(out, "\n"))
}

func eventGlyph(name string) string {
	for _, r := range name {
		if g := strings.ToUpper(string(r)); lipgloss.Width(g) == 1 {
			return g
		}
		break
	}
	return "*"
}

func inside(def types.MapDef, x, y int) bool {
	return x >= 0 && y >= 0 && x < def.Width && y < def.Height
}
