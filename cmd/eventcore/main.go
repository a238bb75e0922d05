// Eventcore plays RPG event content written in Lua: map events, common
// events and troop scripts run on a tick-driven command interpreter.
// Usage: eventcore [--version] [--config <file>] [--log-level <level>] [--plain] [--script <file>] [--trace] <game_directory>
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/nathoo/eventcore/cli"
	"github.com/nathoo/eventcore/config"
	"github.com/nathoo/eventcore/engine"
	"github.com/nathoo/eventcore/loader"
	"github.com/nathoo/eventcore/logger"
	"github.com/nathoo/eventcore/tui"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const usage = "Usage: eventcore [--version] [--config <file>] [--log-level <level>] [--plain] [--script <file>] [--trace] <game_directory>"

func main() {
	plain := false
	trace := false
	var gameDir, scriptFile, configFile, logLevel string

	args := os.Args[1:]
	value := func(i int, flag string) string {
		if i+1 >= len(args) {
			fmt.Fprintf(os.Stderr, "%s requires a value\n", flag)
			os.Exit(1)
		}
		return args[i+1]
	}
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--version":
			fmt.Printf("eventcore %s (commit %s, built %s)\n", version, commit, date)
			return
		case "--plain":
			plain = true
		case "--trace":
			trace = true
		case "--script":
			scriptFile = value(i, "--script")
			i++
		case "--config":
			configFile = value(i, "--config")
			i++
		case "--log-level":
			logLevel = value(i, "--log-level")
			i++
		default:
			if gameDir == "" {
				gameDir = args[i]
			}
		}
	}

	if gameDir == "" {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(1)
	}

	// Player configuration: --config, else eventcore.yaml in the game.
	var cfg config.Config
	var err error
	if configFile != "" {
		cfg, err = config.Load(configFile)
	} else {
		cfg, err = config.LoadDir(gameDir)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if !filepath.IsAbs(cfg.SaveDir) {
		cfg.SaveDir = filepath.Join(gameDir, cfg.SaveDir)
	}

	// Use plain CLI for scripts, --plain, or when stdout is not a terminal.
	usePlain := plain || scriptFile != "" || !isTerminal()

	// The TUI owns the screen, so its log goes to a file.
	var logOut io.Writer = os.Stderr
	if !usePlain {
		f, err := os.OpenFile(filepath.Join(cfg.SaveDir, "eventcore.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening log: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logOut = f
	}
	if err := logger.InitLoggerTo(cfg.LogLevel, logOut); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	log := logger.GetLogger()

	// Load and compile Lua game content.
	defs, err := loader.Load(gameDir, loader.WithEncoding(cfg.Encoding), loader.WithLogger(log))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading game: %v\n", err)
		os.Exit(1)
	}
	log.Info("game loaded", "title", defs.Game.Title, "maps", len(defs.Maps), "common_events", len(defs.CommonEvents))

	eng := engine.New(defs, engine.WithConfig(cfg), engine.WithLogger(log))

	if usePlain {
		fmt.Printf("%s v%s by %s\n\n", defs.Game.Title, defs.Game.Version, defs.Game.Author)
		c := cli.New(eng, defs, cfg.SaveDir)
		c.Trace = trace
		// Script mode: read commands from the file and echo them.
		if scriptFile != "" {
			f, err := os.Open(scriptFile)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error opening script: %v\n", err)
				os.Exit(1)
			}
			defer f.Close()
			c.In = f
			c.EchoInput = true
		}
		c.Run()
		return
	}

	opts := tui.Options{SaveDir: cfg.SaveDir, TickRate: cfg.TickRate, Trace: trace}
	if err := tui.Run(eng, defs, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// isTerminal returns true if stdout is a terminal (not piped/redirected).
func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
