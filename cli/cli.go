// Package cli provides the hub REPL between fights, character creation,
// and the plain line console used for pipes, scripts and dumb terminals.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/nathoo/kimaer/engine"
	"github.com/nathoo/kimaer/engine/ui"
	"github.com/nathoo/kimaer/types"
)

// LineConsole is a terminal that can also read a whole line.
type LineConsole interface {
	ui.Terminal
	ReadLine(prompt string) (string, error)
}

// CLI handles the hub interaction with the player.
type CLI struct {
	Session *engine.Session
	Console LineConsole
	Trace   bool
	lastCmd string // for "again"/"g" repeat
}

// New creates a CLI for a session.
func New(sess *engine.Session, con LineConsole) *CLI {
	return &CLI{Session: sess, Console: con}
}

// Run shows the intro and loops: prompt → input → dispatch → output. It
// returns nil on /quit or when input ends.
func (c *CLI) Run(ctx context.Context) error {
	if intro := c.Session.Defs.Game.Intro; intro != "" {
		c.printLine(intro)
		c.printLine("")
	}
	if res, err := c.Session.Step(ctx, "status"); err == nil {
		c.printResult(res)
	}

	for {
		input, err := c.Console.ReadLine("> ")
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if input == "" || strings.HasPrefix(input, "#") {
			continue
		}

		if strings.HasPrefix(input, "/") {
			if c.handleMeta(input) {
				return nil
			}
			continue
		}

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

		res, err := c.Session.Step(ctx, input)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		c.printResult(res)
		if c.Trace && res.Outcome != "" {
			c.printSystem(fmt.Sprintf("trace: outcome=%s rng=%d/%d",
				res.Outcome, c.Session.State.RNGSeed, c.Session.State.RNGPosition))
		}
	}
}

// handleMeta dispatches meta-commands. Returns true if the game should exit.
func (c *CLI) handleMeta(input string) bool {
	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])
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

	case "/saves":
		c.cmdSaves()

	case "/help":
		for _, line := range engine.HelpLines() {
			c.printLine(line)
		}

	case "/state":
		c.cmdState()

	case "/trace":
		c.Trace = !c.Trace
		level := logrus.InfoLevel
		if c.Trace {
			level = logrus.DebugLevel
			c.printSystem("Trace output enabled.")
		} else {
			c.printSystem("Trace output disabled.")
		}
		c.Session.Log.Logger.SetLevel(level)

	default:
		c.printSystem(fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd))
	}

	return false
}

func (c *CLI) cmdSave(name string) {
	if err := c.Session.Save(name); err != nil {
		c.printSystem(fmt.Sprintf("Save failed: %v", err))
		return
	}
	c.printSystem(fmt.Sprintf("Game saved to %s.", engine.SlotName(name)))
}

func (c *CLI) cmdLoad(name string) {
	if err := c.Session.Load(name); err != nil {
		c.printSystem(fmt.Sprintf("Load failed: %v", err))
		return
	}
	s := c.Session.State
	c.printSystem(fmt.Sprintf("Game loaded from %s (%s, level %d).", engine.SlotName(name), s.Name, s.Level))
}

func (c *CLI) cmdSaves() {
	names, err := c.Session.Saves()
	if err != nil {
		c.printSystem(fmt.Sprintf("Listing saves failed: %v", err))
		return
	}
	if len(names) == 0 {
		c.printSystem("No saved games.")
		return
	}
	c.printSystem("Saved games: " + strings.Join(names, ", "))
}

func (c *CLI) cmdState() {
	data, err := json.MarshalIndent(c.Session.State, "", "  ")
	if err != nil {
		c.printSystem(fmt.Sprintf("State dump failed: %v", err))
		return
	}
	c.printLine(string(data))
}

func (c *CLI) printResult(result types.Result) {
	for _, line := range result.Output {
		c.printLine(line)
	}
}

func (c *CLI) printLine(text string) {
	c.Console.Say(ui.ToneNormal, text)
}

func (c *CLI) printSystem(text string) {
	c.Console.Say(ui.ToneSystem, fmt.Sprintf("[%s]", text))
}
