// Package engine runs fights: the turn loop that ties the effect catalog,
// the timed-input checks and the skill resolver together, and hands loot,
// experience and saving to its collaborators.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/nathoo/kimaer/engine/effects"
	"github.com/nathoo/kimaer/engine/enemy"
	"github.com/nathoo/kimaer/engine/qte"
	"github.com/nathoo/kimaer/engine/skills"
	"github.com/nathoo/kimaer/engine/state"
	"github.com/nathoo/kimaer/engine/ui"
	"github.com/nathoo/kimaer/types"
)

// ErrNoEnemies is returned by Fight when it is given nobody to fight.
var ErrNoEnemies = errors.New("no enemies to fight")

// Rand is the randomness the combat loop draws from.
type Rand interface {
	Between(lo, hi int) int
	Float64() float64
	Chance(p float64) bool
}

// TimedInput runs the defense check and skill sequences.
type TimedInput interface {
	Defense(ctx context.Context, difficulty float64) qte.Grade
	Sequence(ctx context.Context, keys []string, limit time.Duration) int
}

// Inventory receives loot.
type Inventory interface {
	AddItem(s *types.State, name string, count int) error
}

// Progression turns experience into levels and returns announcements.
type Progression interface {
	GrantExperience(s *types.State, amount int) []string
}

// Saver persists the player after a victory.
type Saver interface {
	Save(s *types.State) error
}

// Options configures New.
type Options struct {
	// Scale multiplies every pause and timed-input budget. Zero means 1.
	Scale float64
	Saver Saver
	Log   *logrus.Entry
}

// Engine holds the definitions and the collaborators a fight needs.
type Engine struct {
	Defs        *state.Defs
	Console     ui.Console
	Input       TimedInput
	RNG         Rand
	Inventory   Inventory
	Progression Progression
	Saver       Saver
	Log         *logrus.Entry
	Scale       float64
}

// New wires an engine to a terminal. The terminal serves both the menus
// and the timed-input track.
func New(defs *state.Defs, term ui.Terminal, rng *RNG, opts Options) *Engine {
	scale := opts.Scale
	if scale <= 0 {
		scale = 1
	}
	log := opts.Log
	if log == nil {
		log = discardLog()
	}
	lv := state.Leveler{Defs: defs}
	return &Engine{
		Defs:        defs,
		Console:     term,
		Input:       qte.New(term, rng, qte.Options{Scale: scale}),
		RNG:         rng,
		Inventory:   lv,
		Progression: lv,
		Saver:       opts.Saver,
		Log:         log,
		Scale:       scale,
	}
}

func discardLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

// Result is how a fight ended.
type Result struct {
	Outcome types.Outcome
	Turns   int
	Loot    types.Loot
}

// fight is the per-encounter state.
type fight struct {
	*Engine
	ctx        context.Context
	player     *types.State
	class      types.ClassDef
	enemies    []*enemy.Enemy
	hasSkills  bool
	lastDamage int
	log        *logrus.Entry
}

// Fight runs an encounter between the player and the named enemies until
// one side falls or the player flees. Unknown names fail before anything
// is shown or changed. Console errors (closed input) abort the fight.
func (e *Engine) Fight(ctx context.Context, player *types.State, names ...string) (Result, error) {
	if len(names) == 0 {
		return Result{}, ErrNoEnemies
	}
	foes := make([]*enemy.Enemy, 0, len(names))
	for _, n := range names {
		en, err := enemy.New(e.Defs, n)
		if err != nil {
			return Result{}, fmt.Errorf("starting fight: %w", err)
		}
		foes = append(foes, en)
	}
	if player.Effects == nil {
		player.Effects = []types.ActiveEffect{}
	}

	class := state.ClassOf(e.Defs, player)
	f := &fight{
		Engine:     e,
		ctx:        ctx,
		player:     player,
		class:      class,
		enemies:    foes,
		hasSkills:  len(skills.Available(e.Defs, class, player.Level)) > 0,
		lastDamage: 5,
		log: e.Log.WithFields(logrus.Fields{
			"encounter": uuid.NewString(),
			"player":    player.Name,
		}),
	}
	f.log.WithField("enemies", strings.Join(names, ",")).Info("fight started")

	res, err := f.run()
	e.recordRNG(player)
	if err != nil {
		f.log.WithError(err).Warn("fight aborted")
		return res, err
	}
	f.log.WithFields(logrus.Fields{
		"outcome": res.Outcome,
		"turns":   res.Turns,
		"gold":    res.Loot.Gold,
		"xp":      res.Loot.XP,
	}).Info("fight over")
	return res, nil
}

func (e *Engine) pause(d time.Duration) {
	e.Console.Pause(time.Duration(float64(d) * e.Scale))
}

type positioner interface {
	Seed() int64
	Position() int64
}

// recordRNG stores the generator's position so a reload replays the same
// rolls.
func (e *Engine) recordRNG(s *types.State) {
	if p, ok := e.RNG.(positioner); ok {
		s.RNGSeed = p.Seed()
		s.RNGPosition = p.Position()
	}
}

func (f *fight) run() (Result, error) {
	f.intro()

	turn := 1
	for f.player.Health > 0 && f.anyAlive() {
		f.showStatus(turn)

		if effects.IsStunned(f.player.Effects) {
			f.Console.Say(ui.ToneWarn, "You are stunned and lose your turn!")
			f.pause(time.Second)
		} else {
			spent, fled, err := f.playerAction()
			if err != nil {
				return Result{Turns: turn}, err
			}
			if fled {
				return Result{Outcome: types.OutcomeFled, Turns: turn}, nil
			}
			if !spent {
				continue
			}
		}

		if !f.anyAlive() {
			break
		}

		f.tickPlayer()

		if f.enemyPhase() {
			return f.defeat(turn), nil
		}
		// Poison ticks and counters can finish the fight here.
		if !f.anyAlive() {
			break
		}
		turn++
	}
	if f.player.Health <= 0 {
		return f.defeat(turn), nil
	}
	return f.victory(turn)
}

func (f *fight) intro() {
	f.Console.Clear()
	f.Console.Say(ui.ToneBad, "=== COMBAT START ===")
	if len(f.enemies) == 1 {
		f.Console.Say(ui.ToneBad, fmt.Sprintf("A %s appears!", f.enemies[0].Name))
	} else {
		names := make([]string, len(f.enemies))
		for i, en := range f.enemies {
			names[i] = en.Name
		}
		f.Console.Say(ui.ToneBad, fmt.Sprintf("You're surrounded by: %s!", strings.Join(names, ", ")))
	}
	f.pause(2 * time.Second)
}

func (f *fight) anyAlive() bool {
	for _, en := range f.enemies {
		if en.Alive() {
			return true
		}
	}
	return false
}

func (f *fight) alive() []*enemy.Enemy {
	var out []*enemy.Enemy
	for _, en := range f.enemies {
		if en.Alive() {
			out = append(out, en)
		}
	}
	return out
}

func (f *fight) defeat(turn int) Result {
	f.player.Defeated = true
	f.Console.Clear()
	f.Console.Say(ui.ToneBad, "=== DEFEAT ===")
	f.Console.Say(ui.ToneBad, "You have been defeated...")
	f.pause(3 * time.Second)
	return Result{Outcome: types.OutcomeDefeat, Turns: turn}
}
