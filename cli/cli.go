// Package cli is the plain line-mode scene controller: it reads one command
// per line, runs the engine until it waits for the player, and prints the
// message window and scene prompts as text.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/nathoo/eventcore/engine"
	"github.com/nathoo/eventcore/engine/interp"
	"github.com/nathoo/eventcore/engine/message"
	"github.com/nathoo/eventcore/engine/opcode"
	"github.com/nathoo/eventcore/engine/state"
	"github.com/nathoo/eventcore/types"
)

// CLI handles terminal interaction with the player.
type CLI struct {
	Engine    *engine.Engine
	Defs      *state.Defs
	In        io.Reader
	Out       io.Writer
	SaveDir   string
	Trace     bool
	EchoInput bool   // echo each input line after the prompt (for script playback)
	lastCmd   string // for "again"/"g" repeat
	traced    []string
}

// New creates a CLI wired to the given engine and installs its tracer.
func New(eng *engine.Engine, defs *state.Defs, saveDir string) *CLI {
	c := &CLI{
		Engine:  eng,
		Defs:    defs,
		In:      os.Stdin,
		Out:     os.Stdout,
		SaveDir: saveDir,
	}
	eng.SetTracer(c.Tracer)
	return c
}

// Tracer records dispatched commands while tracing is on.
func (c *CLI) Tracer(in *interp.Interpreter, cmd types.Command) {
	if !c.Trace {
		return
	}
	c.traced = append(c.traced, fmt.Sprintf("%s%s %v %s",
		strings.Repeat("  ", cmd.Indent), opcode.Name(cmd.Code), cmd.Params, cmd.Text))
}

// Run starts the game loop: settle, then prompt → input → step → output.
func (c *CLI) Run() {
	c.show(c.Engine.Settle())

	scanner := bufio.NewScanner(c.In)
	for {
		c.print("> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		// Skip comment lines (for script files).
		if strings.HasPrefix(input, "#") {
			continue
		}
		if c.EchoInput {
			c.printLine(input)
		}

		// Meta-commands start with '/'.
		if strings.HasPrefix(input, "/") {
			if c.handleMeta(input) {
				return // /quit
			}
			continue
		}

		// "again" / "g" repeats the last game command.
		lower := strings.ToLower(input)
		if lower == "again" || lower == "g" {
			if c.lastCmd == "" {
				c.printLine("Nothing to repeat.")
				continue
			}
			input = c.lastCmd
		} else {
			c.lastCmd = input
		}

		result, err := c.Engine.Step(input)
		if err != nil {
			c.printSystem(err.Error())
			continue
		}
		c.show(result)
		if c.Engine.State.Scene.GameOver || c.Engine.State.Scene.Title {
			c.printSystem("The game has ended. Use /load to restore a save or /quit to exit.")
		}
	}
}

// handleMeta dispatches meta-commands. Returns true if the game should exit.
func (c *CLI) handleMeta(input string) bool {
	parts := strings.Fields(input)
	cmd := parts[0]
	var arg string
	if len(parts) > 1 {
		arg = parts[1]
	}

	switch cmd {
	case "/quit", "/exit":
		c.printSystem("Goodbye.")
		return true

	case "/save":
		c.cmdSave(arg)

	case "/load":
		c.cmdLoad(arg)

	case "/help":
		c.cmdHelp()

	case "/state":
		c.cmdState()

	case "/look":
		c.show(types.Result{})

	case "/trace":
		c.Trace = !c.Trace
		if c.Trace {
			c.printSystem("Trace output enabled.")
		} else {
			c.printSystem("Trace output disabled.")
		}

	default:
		c.printSystem(fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd))
	}

	return false
}

func (c *CLI) cmdSave(name string) {
	if name == "" {
		name = "quicksave"
	}

	data, err := c.Engine.SaveGame()
	if err != nil {
		c.printSystem(fmt.Sprintf("Save failed: %v", err))
		return
	}

	if err := os.MkdirAll(c.SaveDir, 0o755); err != nil {
		c.printSystem(fmt.Sprintf("Save failed: %v", err))
		return
	}

	path := filepath.Join(c.SaveDir, name+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		c.printSystem(fmt.Sprintf("Save failed: %v", err))
		return
	}

	c.printSystem(fmt.Sprintf("Game saved to %s.", name))
}

func (c *CLI) cmdLoad(name string) {
	if name == "" {
		name = "quicksave"
	}

	path := filepath.Join(c.SaveDir, name+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		c.printSystem(fmt.Sprintf("Load failed: %v", err))
		return
	}

	if err := c.Engine.LoadGame(data); err != nil {
		c.printSystem(fmt.Sprintf("Load failed: %v", err))
		return
	}
	c.printSystem(fmt.Sprintf("Game loaded from %s (frame %d).", name, c.Engine.State.Frame))
	c.show(c.Engine.Settle())
}

func (c *CLI) cmdHelp() {
	help := []string{
		"System:",
		"  /save [name]  Save game (default: quicksave)",
		"  /load [name]  Load game (default: quicksave)",
		"  /look         Show where you are",
		"  /quit         Exit game",
		"  /help         Show this help",
		"  /state        Debug: dump current state",
		"  /trace        Toggle command trace output",
		"",
		"Map:",
		"  n/s/e/w, go <dir>     Walk (up/down/left/right also work)",
		"  act (a, talk)         Use the action button on what you face",
		"  wait [n] (z)          Let n frames pass",
		"",
		"Messages:",
		"  ok                    Dismiss the message",
		"  <n>, choose <n>       Pick a choice",
		"  cancel                Cancel a choice",
		"  number <n>            Answer a number prompt",
		"  key <code>            Press a key for a key input",
		"",
		"Scenes:",
		"  fight, defend, escape Battle commands",
		"  buy <item>, leave     Shop",
		"  name <text>           Name entry",
		"  close                 Close a menu or save screen",
		"  again (g)             Repeat your last command",
	}
	for _, line := range help {
		c.printLine(line)
	}
}

func (c *CLI) cmdState() {
	s := c.Engine.State
	c.printSystem(fmt.Sprintf("Frame: %d", s.Frame))
	c.printSystem(fmt.Sprintf("Map: %d at (%d,%d) facing %d", s.Map.ID, s.Map.Player.X, s.Map.Player.Y, s.Map.Player.Dir))
	c.printSystem(fmt.Sprintf("Gold: %d Items: %v", s.Party.Gold, s.Party.Items))
	if len(s.Switches) > 0 {
		c.printSystem(fmt.Sprintf("Switches: %v", s.Switches))
	}
	if len(s.Variables) > 0 {
		c.printSystem(fmt.Sprintf("Variables: %v", s.Variables))
	}
}

// show prints the step's output, the trace, and whatever the player has to
// answer next.
func (c *CLI) show(result types.Result) {
	if c.Trace {
		for _, line := range c.traced {
			c.printSystem("[trace] " + line)
		}
		if len(result.Events) > 0 {
			c.printSystem(fmt.Sprintf("[trace] Events: %d", len(result.Events)))
			for _, e := range result.Events {
				c.printSystem(fmt.Sprintf("[trace]   %s %v", e.Type, e.Data))
			}
		}
	}
	c.traced = nil

	for _, line := range result.Output {
		c.printLine(line)
	}
	s := c.Engine.State
	if message.Open(s) {
		for _, line := range message.Render(s) {
			c.printLine(line)
		}
		return
	}
	c.printScene(s)
}

func (c *CLI) printScene(s *types.State) {
	switch engine.SceneName(s) {
	case "battle":
		for i, b := range s.Battle.Enemies {
			if !b.Hidden {
				c.printLine(fmt.Sprintf("  %d) %s %d/%d", i+1, b.Name, b.HP, b.MaxHP))
			}
		}
		for _, id := range s.Party.Members {
			if a := s.Party.Actors[id]; a != nil {
				c.printLine(fmt.Sprintf("  %s HP %d/%d", a.Name, a.HP, a.MaxHP))
			}
		}
		c.printSystem("fight, defend or escape?")
	case "shop":
		c.printSystem(fmt.Sprintf("Shop (gold %d):", s.Party.Gold))
		for i, id := range s.Shop.Goods {
			it := c.Defs.Items[id]
			c.printLine(fmt.Sprintf("  %d) %s %dG", i+1, it.Name, it.Price))
		}
		c.printSystem("buy <item> or leave")
	case interp.SceneName:
		c.printSystem("Enter a name: name <text>")
	case interp.SceneSave:
		c.printSystem("Save screen: /save [name], then close")
	case interp.SceneMenu:
		c.printSystem("Menu: close to return")
	case interp.SceneGameOver:
		c.printLine("GAME OVER")
	case interp.SceneTitle:
		c.printLine(c.Defs.Game.Title)
	}
}

func (c *CLI) printLine(text string) {
	fmt.Fprintln(c.Out, text)
}

func (c *CLI) print(text string) {
	fmt.Fprint(c.Out, text)
}

func (c *CLI) printSystem(text string) {
	fmt.Fprintf(c.Out, "[%s]\n", text)
}
