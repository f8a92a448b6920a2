// Kimaer is a terminal combat game with timed-input skills, driven by Lua
// content.
// Usage: kimaer [--version] [--plain] [--script <file>] [--trace]
//
//	[--config <file>] [--load <slot>] [--seed <n>] [content_directory]
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	"github.com/nathoo/kimaer/cli"
	"github.com/nathoo/kimaer/config"
	"github.com/nathoo/kimaer/engine"
	"github.com/nathoo/kimaer/engine/save"
	"github.com/nathoo/kimaer/engine/state"
	"github.com/nathoo/kimaer/loader"
	"github.com/nathoo/kimaer/tui"
	"github.com/nathoo/kimaer/types"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const usage = "Usage: kimaer [--version] [--plain] [--script <file>] [--trace] [--config <file>] [--load <slot>] [--seed <n>] [content_directory]"

type flags struct {
	plain      bool
	trace      bool
	script     string
	configPath string
	load       string
	seed       int64
	contentDir string
}

func main() {
	f, ok := parseFlags(os.Args[1:])
	if !ok {
		return
	}
	if err := run(f); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// parseFlags reads the command line. It exits on bad usage and returns
// false when there is nothing left to do (--version).
func parseFlags(args []string) (flags, bool) {
	var f flags
	value := func(i *int, name string) string {
		if *i+1 >= len(args) {
			fmt.Fprintf(os.Stderr, "%s requires a value\n%s\n", name, usage)
			os.Exit(2)
		}
		*i++
		return args[*i]
	}

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--version":
			fmt.Printf("kimaer %s (commit %s, built %s)\n", version, commit, date)
			return f, false
		case "--plain":
			f.plain = true
		case "--trace":
			f.trace = true
		case "--script":
			f.script = value(&i, "--script")
		case "--config":
			f.configPath = value(&i, "--config")
		case "--load":
			f.load = value(&i, "--load")
		case "--seed":
			n, err := strconv.ParseInt(value(&i, "--seed"), 10, 64)
			if err != nil {
				fmt.Fprintf(os.Stderr, "--seed: %v\n", err)
				os.Exit(2)
			}
			f.seed = n
		case "-h", "--help":
			fmt.Println(usage)
			return f, false
		default:
			if f.contentDir == "" {
				f.contentDir = args[i]
			}
		}
	}
	return f, true
}

func run(f flags) error {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return err
	}
	if f.contentDir != "" {
		cfg.ContentDir = f.contentDir
	}
	if f.seed != 0 {
		cfg.Combat.Seed = f.seed
	}
	if f.plain {
		cfg.UI.Plain = true
	}

	log, closer, err := cfg.NewLogger()
	if err != nil {
		return fmt.Errorf("opening log: %w", err)
	}
	defer closer.Close()
	if f.trace {
		log.SetLevel(logrus.DebugLevel)
	}

	defs, err := loader.Load(cfg.ContentDir)
	if err != nil {
		return fmt.Errorf("loading game: %w", err)
	}
	log.WithFields(logrus.Fields{
		"content": cfg.ContentDir,
		"classes": len(defs.Classes),
		"enemies": len(defs.Enemies),
		"skills":  len(defs.Skills),
	}).Info("content loaded")

	seed := cfg.Combat.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	g := &game{
		defs:  defs,
		store: &save.Store{Dir: cfg.SaveDir, Defs: defs},
		cfg:   cfg,
		log:   logrus.NewEntry(log),
		seed:  seed,
		load:  f.load,
		trace: f.trace,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	banner := fmt.Sprintf("%s v%s by %s", defs.Game.Title, defs.Game.Version, defs.Game.Author)

	// Script mode: read commands from the file, echo them, never touch the tty.
	if f.script != "" {
		in, err := os.Open(f.script)
		if err != nil {
			return fmt.Errorf("opening script: %w", err)
		}
		defer in.Close()
		con := cli.NewPlain(in, os.Stdout)
		defer con.Close()
		con.Echo = true
		fmt.Printf("%s\n\n", banner)
		return g.play(ctx, con)
	}

	interactive := term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
	if cfg.UI.Plain || !interactive {
		con := cli.NewPlain(os.Stdin, os.Stdout)
		defer con.Close()
		con.Live = interactive
		fmt.Printf("%s\n\n", banner)
		return g.play(ctx, con)
	}

	return tui.Run(ctx, banner, g.player, func(ctx context.Context, t *tui.Terminal) error {
		return g.play(ctx, t)
	})
}

// game wires a console to a fresh engine and session.
type game struct {
	defs  *state.Defs
	store *save.Store
	cfg   *config.Config
	log   *logrus.Entry
	seed  int64
	load  string
	trace bool

	sess *engine.Session
}

// player is read by the status bar from the game goroutine.
func (g *game) player() *types.State {
	if g.sess == nil {
		return nil
	}
	return g.sess.State
}

func (g *game) play(ctx context.Context, con cli.LineConsole) error {
	opts := engine.Options{Scale: g.cfg.Combat.TimeScale, Log: g.log}
	if g.cfg.Combat.Autosave {
		opts.Saver = g.store
	}
	eng := engine.New(g.defs, con, engine.NewRNG(g.seed), opts)

	if g.load != "" {
		g.sess = engine.NewSession(eng, &types.State{}, g.store)
		if err := g.sess.Load(g.load); err != nil {
			return err
		}
	} else {
		player, err := cli.CreateCharacter(g.defs, con)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		player.RNGSeed = g.seed
		g.sess = engine.NewSession(eng, player, g.store)
	}
	g.log.WithFields(logrus.Fields{
		"player": g.sess.State.Name,
		"class":  g.sess.State.Class,
		"seed":   g.seed,
	}).Info("session started")

	c := cli.New(g.sess, con)
	c.Trace = g.trace
	return c.Run(ctx)
}
