// Package tui is the Bubble Tea scene controller. A frame timer ticks the
// engine at the configured rate; keys drive the hero, the message window
// and the battle and shop scenes, and ':' opens a command line.
package tui

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nathoo/eventcore/engine"
	"github.com/nathoo/eventcore/engine/interp"
	"github.com/nathoo/eventcore/engine/message"
	"github.com/nathoo/eventcore/engine/opcode"
	"github.com/nathoo/eventcore/engine/state"
	"github.com/nathoo/eventcore/types"
)

// Key codes stored by key input commands.
const (
	KeyDown     = 1
	KeyLeft     = 2
	KeyRight    = 3
	KeyUp       = 4
	KeyDecision = 5
	KeyCancel   = 6
)

// windowRows is the screen space kept free for the message window.
const windowRows = 6

// rawLine stores an unstyled output line with its classification,
// so we can re-wrap and re-style when the terminal is resized.
type rawLine struct {
	text     string
	kind     lineKind
	isInput  bool // true for echoed player input
	isSystem bool // true for system messages
}

// Options configures the TUI.
type Options struct {
	SaveDir  string
	TickRate int // frames per second
	Trace    bool
}

// tracer collects dispatched commands between frames. The model is copied
// on every update, so it is shared by pointer.
type tracer struct {
	on    bool
	lines []string
}

func (t *tracer) record(in *interp.Interpreter, cmd types.Command) {
	if !t.on {
		return
	}
	t.lines = append(t.lines, fmt.Sprintf("[trace] %s%s %v %s",
		strings.Repeat("  ", cmd.Indent), opcode.Name(cmd.Code), cmd.Params, cmd.Text))
}

type keyMap struct {
	Up, Down, Left, Right key.Binding
	Confirm, Cancel       key.Binding
	Fight, Defend, Escape key.Binding
	Command, Scroll, Quit key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Up:      key.NewBinding(key.WithKeys("up", "k")),
		Down:    key.NewBinding(key.WithKeys("down", "j")),
		Left:    key.NewBinding(key.WithKeys("left", "h")),
		Right:   key.NewBinding(key.WithKeys("right", "l")),
		Confirm: key.NewBinding(key.WithKeys("enter", " ", "z")),
		Cancel:  key.NewBinding(key.WithKeys("esc", "x")),
		Fight:   key.NewBinding(key.WithKeys("f")),
		Defend:  key.NewBinding(key.WithKeys("d")),
		Escape:  key.NewBinding(key.WithKeys("e")),
		Command: key.NewBinding(key.WithKeys(":", "/")),
		Scroll:  key.NewBinding(key.WithKeys("pgup", "pgdown")),
		Quit:    key.NewBinding(key.WithKeys("ctrl+c")),
	}
}

// Model is the Bubble Tea model for the eventcore TUI.
type Model struct {
	engine *engine.Engine
	defs   *state.Defs
	keys   keyMap

	viewport viewport.Model
	input    textinput.Model

	rawLines []rawLine // accumulated log lines (unstyled, for re-wrapping)

	width    int
	height   int
	panel    int // map panel width, 0 when no map fits
	ready    bool
	typing   bool
	quitting bool
	cursor   int    // highlighted choice
	window   string // message text last copied into the log
	rate     int
	saveDir  string
	trace    *tracer
}

// frameMsg advances the engine by one frame.
type frameMsg time.Time

// gameOutputMsg carries lines into the log.
type gameOutputMsg struct {
	input    string   // echoed player input
	lines    []string // output lines
	isSystem bool     // true for meta-command output
}

// New creates a TUI model wired to the given engine and installs its tracer.
func New(eng *engine.Engine, defs *state.Defs, opts Options) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 256
	ti.PromptStyle = styleInputPrompt

	rate := opts.TickRate
	if rate <= 0 {
		rate = 60
	}
	tr := &tracer{on: opts.Trace}
	eng.SetTracer(tr.record)

	panel := 0
	for _, md := range defs.Maps {
		panel = max(panel, md.Width+2)
	}

	m := Model{
		engine:  eng,
		defs:    defs,
		keys:    defaultKeys(),
		input:   ti,
		panel:   panel,
		rate:    rate,
		saveDir: opts.SaveDir,
		trace:   tr,
	}
	g := defs.Game
	title := g.Title
	if g.Version != "" {
		title += " v" + g.Version
	}
	if g.Author != "" {
		title += " by " + g.Author
	}
	return m.appendOutput(gameOutputMsg{lines: []string{title}})
}

// Run starts the Bubble Tea program.
func Run(eng *engine.Engine, defs *state.Defs, opts Options) error {
	p := tea.NewProgram(New(eng, defs, opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Init starts the frame clock.
func (m Model) Init() tea.Cmd {
	return m.frame()
}

func (m Model) frame() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.rate), func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

// Update handles messages (frames, key presses, window resize).
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil

	case frameMsg:
		if m.quitting {
			return m, nil
		}
		m = m.step(m.engine.Tick())
		return m, m.frame()

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
		if m.typing {
			return m.updateTyping(msg)
		}
		return m.handleKey(msg)
	}

	if m.typing {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// layout sizes the log viewport around the map panel and message window.
func (m *Model) layout() {
	vpHeight := m.height - 2 - windowRows // status bar, input line
	if vpHeight < 1 {
		vpHeight = 1
	}
	vpWidth := m.width
	if m.panel > 0 && m.width-m.panel >= 20 {
		vpWidth = m.width - m.panel
	} else {
		m.panel = 0
	}

	if !m.ready {
		m.viewport = viewport.New(vpWidth, vpHeight)
		m.viewport.KeyMap = viewportKeyMap()
		m.ready = true
	} else {
		m.viewport.Width = vpWidth
		m.viewport.Height = vpHeight
	}
	m.refreshViewport()
}

// step logs a frame's result and reacts to the state it left behind.
func (m Model) step(r types.Result) Model {
	lines := append([]string(nil), r.Output...)
	if m.trace.on {
		lines = append(lines, m.trace.lines...)
		for _, e := range r.Events {
			lines = append(lines, fmt.Sprintf("[trace]   %s %v", e.Type, e.Data))
		}
	}
	m.trace.lines = nil
	if len(lines) > 0 {
		m = m.appendOutput(gameOutputMsg{lines: lines})
	}

	s := m.engine.State
	if !message.Open(s) {
		m.window = ""
	} else if text := strings.Join(message.Render(s), "\n"); text != m.window {
		m.window = text
		m.cursor = 0
		m = m.appendOutput(gameOutputMsg{lines: s.Message.Lines})
	}

	if p := m.prompt(); p != "" && !m.typing {
		m.typing = true
		m.input.Placeholder = p
		m.input.Focus()
	}
	return m
}

// prompt names the text the game is waiting for, or "".
func (m Model) prompt() string {
	s := m.engine.State
	switch {
	case message.HasNumber(s):
		return "number"
	case s.Scene.Name:
		return "hero name"
	}
	return ""
}

// handleKey maps a key to the action that fits the current scene.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := m.engine.State
	k := m.keys

	switch {
	case key.Matches(msg, k.Command):
		m.typing = true
		m.input.Placeholder = "command"
		if msg.String() == "/" {
			m.input.SetValue("/")
			m.input.CursorEnd()
		}
		cmd := m.input.Focus()
		return m, cmd

	case key.Matches(msg, k.Scroll):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case message.HasChoices(s):
		n := len(s.Message.Choices)
		switch {
		case key.Matches(msg, k.Up):
			m.cursor = (m.cursor + n - 1) % n
		case key.Matches(msg, k.Down):
			m.cursor = (m.cursor + 1) % n
		case key.Matches(msg, k.Confirm):
			m = m.report(m.engine.Choose(m.cursor))
		case key.Matches(msg, k.Cancel):
			m = m.report(m.engine.Cancel())
		default:
			if d := digit(msg); d > 0 {
				m = m.report(m.engine.Choose(d - 1))
			}
		}

	case message.Open(s):
		if key.Matches(msg, k.Confirm) {
			m = m.report(m.engine.Confirm())
		}

	case m.engine.InBattle():
		switch {
		case key.Matches(msg, k.Fight):
			m = m.report(m.engine.Fight())
		case key.Matches(msg, k.Defend):
			m = m.report(m.engine.Defend())
		case key.Matches(msg, k.Escape):
			m = m.report(m.engine.Escape())
		}

	case s.Scene.Shop:
		if key.Matches(msg, k.Cancel) {
			m = m.report(m.engine.ResolveShop())
		}

	case engine.SceneName(s) != "":
		if key.Matches(msg, k.Cancel) {
			m = m.report(m.engine.CloseScene())
		}

	case m.engine.Main().Running():
		// An event owns the hero; keys feed key input commands.
		if code := keyCode(k, msg); code != 0 {
			m.engine.PressKey(code)
		}

	default:
		switch {
		case key.Matches(msg, k.Up):
			m = m.report(m.engine.MovePlayer(types.DirUp))
		case key.Matches(msg, k.Down):
			m = m.report(m.engine.MovePlayer(types.DirDown))
		case key.Matches(msg, k.Left):
			m = m.report(m.engine.MovePlayer(types.DirLeft))
		case key.Matches(msg, k.Right):
			m = m.report(m.engine.MovePlayer(types.DirRight))
		case key.Matches(msg, k.Confirm):
			m = m.report(m.engine.Act())
		}
	}
	return m, nil
}

func keyCode(k keyMap, msg tea.KeyMsg) int {
	switch {
	case key.Matches(msg, k.Down):
		return KeyDown
	case key.Matches(msg, k.Left):
		return KeyLeft
	case key.Matches(msg, k.Right):
		return KeyRight
	case key.Matches(msg, k.Up):
		return KeyUp
	case key.Matches(msg, k.Confirm):
		return KeyDecision
	case key.Matches(msg, k.Cancel):
		return KeyCancel
	}
	return 0
}

func digit(msg tea.KeyMsg) int {
	s := msg.String()
	if len(s) == 1 && s[0] >= '1' && s[0] <= '9' {
		return int(s[0] - '0')
	}
	return 0
}

// report logs an action error. Busy is expected while events run.
func (m Model) report(err error) Model {
	if err == nil || errors.Is(err, engine.ErrBusy) {
		return m
	}
	return m.appendOutput(gameOutputMsg{lines: []string{err.Error()}, isSystem: true})
}

// updateTyping edits the command line and submits it on enter.
func (m Model) updateTyping(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		return m.submit()
	case "esc":
		if m.prompt() == "" {
			m.typing = false
			m.input.SetValue("")
			m.input.Blur()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit processes the entered line: a prompt answer, a meta-command or a
// game command.
func (m Model) submit() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	m.input.SetValue("")
	m.typing = false
	m.input.Blur()
	if input == "" {
		return m, nil
	}

	switch m.prompt() {
	case "number":
		input = "number " + input
	case "hero name":
		input = "name " + input
	}

	if strings.HasPrefix(input, "/") {
		output, quit := m.handleMeta(input)
		m = m.appendOutput(gameOutputMsg{input: input, lines: output, isSystem: true})
		if quit {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	}

	m = m.appendOutput(gameOutputMsg{input: input})
	if err := m.engine.Perform(input); err != nil {
		m = m.appendOutput(gameOutputMsg{lines: []string{err.Error()}, isSystem: true})
	}
	return m, nil
}

// appendOutput adds lines to the log and refreshes the viewport.
func (m Model) appendOutput(msg gameOutputMsg) Model {
	if msg.input != "" {
		m.rawLines = append(m.rawLines, rawLine{
			text: "> " + msg.input, isInput: true,
		})
	}

	for _, line := range msg.lines {
		rl := rawLine{text: line, isSystem: msg.isSystem}
		if !msg.isSystem {
			rl.kind = classifyLine(line)
		}
		m.rawLines = append(m.rawLines, rl)
	}

	m.refreshViewport()

	return m
}

// refreshViewport re-wraps and re-styles all raw lines at the current width
// and updates the viewport content.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}

	width := m.viewport.Width
	if width < 10 {
		width = 10
	}

	var styled []string
	for _, rl := range m.rawLines {
		if rl.text == "" {
			styled = append(styled, "")
			continue
		}

		wrapped := wordWrap(rl.text, width)

		switch {
		case rl.isInput:
			styled = append(styled, stylePlayerInput.Render(wrapped))
		case rl.isSystem:
			styled = append(styled, styledSystemMsg(wrapped))
		default:
			styled = append(styled, renderLineKind(wrapped, rl.kind))
		}
	}

	m.viewport.SetContent(strings.Join(styled, "\n"))
	m.viewport.GotoBottom()
}

// View renders the full TUI layout: log and map, message window, status
// bar, and the input line or a key hint.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}

	body := m.viewport.View()
	if mp := m.renderMap(); mp != "" {
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, mp)
	}
	parts := []string{body}
	if w := m.renderWindow(); w != "" {
		parts = append(parts, w)
	}
	parts = append(parts, m.renderStatusBar())
	if m.typing {
		parts = append(parts, m.input.View())
	} else {
		parts = append(parts, styleHint.Render("arrows move  enter act  : command  ctrl+c quit"))
	}
	return strings.Join(parts, "\n")
}

// handleMeta dispatches meta-commands. Returns output lines and quit flag.
func (m *Model) handleMeta(input string) ([]string, bool) {
	parts := strings.Fields(input)
	cmd := parts[0]
	var arg string
	if len(parts) > 1 {
		arg = parts[1]
	}

	switch cmd {
	case "/quit", "/exit":
		return []string{"Goodbye."}, true

	case "/save":
		return m.cmdSave(arg), false

	case "/load":
		return m.cmdLoad(arg), false

	case "/help":
		return m.cmdHelp(), false

	case "/state":
		return m.cmdState(), false

	case "/trace":
		m.trace.on = !m.trace.on
		if m.trace.on {
			return []string{"Trace output enabled."}, false
		}
		return []string{"Trace output disabled."}, false

	default:
		return []string{fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd)}, false
	}
}

func (m *Model) cmdSave(name string) []string {
	if name == "" {
		name = "quicksave"
	}

	data, err := m.engine.SaveGame()
	if err != nil {
		return []string{fmt.Sprintf("Save failed: %v", err)}
	}

	if err := os.MkdirAll(m.saveDir, 0o755); err != nil {
		return []string{fmt.Sprintf("Save failed: %v", err)}
	}

	path := filepath.Join(m.saveDir, name+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return []string{fmt.Sprintf("Save failed: %v", err)}
	}

	return []string{fmt.Sprintf("Game saved to %s.", name)}
}

func (m *Model) cmdLoad(name string) []string {
	if name == "" {
		name = "quicksave"
	}

	path := filepath.Join(m.saveDir, name+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		return []string{fmt.Sprintf("Load failed: %v", err)}
	}

	if err := m.engine.LoadGame(data); err != nil {
		return []string{fmt.Sprintf("Load failed: %v", err)}
	}
	m.window = ""
	return []string{fmt.Sprintf("Game loaded from %s (frame %d).", name, m.engine.State.Frame)}
}

func (m *Model) cmdHelp() []string {
	return []string{
		"System:",
		"  /save [name]  Save game (default: quicksave)",
		"  /load [name]  Load game (default: quicksave)",
		"  /quit         Exit game",
		"  /help         Show this help",
		"  /state        Debug: dump current state",
		"  /trace        Toggle command trace output",
		"",
		"Keys:",
		"  arrows, hjkl          Walk, or move the choice cursor",
		"  enter, space, z       Act, dismiss a message, pick a choice",
		"  1-9                   Pick a choice directly",
		"  esc, x                Cancel a choice, leave a shop, close a menu",
		"  f / d / e             Fight, defend or escape in battle",
		"  :                     Type a command (buy <item>, name <text>, ...)",
		"",
		"Navigation: PgUp/PgDn to scroll",
	}
}

func (m *Model) cmdState() []string {
	s := m.engine.State
	output := []string{
		fmt.Sprintf("Frame: %d", s.Frame),
		fmt.Sprintf("Map: %d at (%d,%d)", s.Map.ID, s.Map.Player.X, s.Map.Player.Y),
		fmt.Sprintf("Gold: %d Items: %v", s.Party.Gold, s.Party.Items),
	}
	if len(s.Switches) > 0 {
		output = append(output, fmt.Sprintf("Switches: %v", s.Switches))
	}
	if len(s.Variables) > 0 {
		output = append(output, fmt.Sprintf("Variables: %v", s.Variables))
	}
	return output
}

// viewportKeyMap returns a viewport keymap with Up/Down disabled
// (they drive the hero and the choice cursor).
func viewportKeyMap() viewport.KeyMap {
	return viewport.KeyMap{
		PageDown:     key.NewBinding(key.WithKeys("pgdown")),
		PageUp:       key.NewBinding(key.WithKeys("pgup")),
		HalfPageDown: key.NewBinding(key.WithKeys("ctrl+d")),
		HalfPageUp:   key.NewBinding(key.WithKeys("ctrl+u")),
		Up:           key.NewBinding(key.WithDisabled()),
		Down:         key.NewBinding(key.WithDisabled()),
	}
}
