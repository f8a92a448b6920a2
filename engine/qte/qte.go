// Package qte runs timed-input episodes: a marker sweeps across a 40-cell
// track and the player presses a key while it is inside a target zone.
//
// Each episode has one render loop (the caller's goroutine) and one
// listener goroutine. The render loop owns the marker and publishes its
// position through an atomic; the listener blocks on the keyboard and
// captures that position the moment a key arrives, then hands a single
// press back over a one-slot channel. When the episode ends its context is
// cancelled and the listener is abandoned. The keyboard is flushed at the
// start of every episode so a late key never counts for the next one.
package qte

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/nathoo/kimaer/engine/ui"
)

const (
	// TrackWidth is the number of cells on the track.
	TrackWidth = 40

	frameDelay     = 40 * time.Millisecond
	frameSeconds   = 0.04
	defenseBudget  = 5 * time.Second
	defenseWidth   = 6
	failPause      = 1500 * time.Millisecond
	successPause   = 300 * time.Millisecond
	defenseMinZone = 10
	defenseMaxZone = 25
	sequenceMargin = 8
)

// Grade is the outcome of a single press.
type Grade int

const (
	Miss Grade = iota
	Block
	Perfect
)

func (g Grade) String() string {
	switch g {
	case Perfect:
		return "perfect"
	case Block:
		return "block"
	default:
		return "miss"
	}
}

// Zone is a target window on the track with its perfect sub-zone.
// Bounds are half-open.
type Zone struct {
	Start        int
	End          int
	PerfectStart int
	PerfectEnd   int
}

// NewZone builds a zone of the given width whose perfect sub-zone is shrunk
// by width/3 on each side.
func NewZone(start, width int) Zone {
	shrink := width / 3
	return Zone{
		Start:        start,
		End:          start + width,
		PerfectStart: start + shrink,
		PerfectEnd:   start + width - shrink,
	}
}

// Classify grades a press at pos.
func (z Zone) Classify(pos int) Grade {
	switch {
	case pos >= z.PerfectStart && pos < z.PerfectEnd:
		return Perfect
	case pos >= z.Start && pos < z.End:
		return Block
	default:
		return Miss
	}
}

// Marker sweeps back and forth across the track.
type Marker struct {
	Pos   int
	Dir   int
	Speed int
}

// Advance moves the marker one frame, reversing at either end.
func (m *Marker) Advance() {
	m.Pos += m.Dir * m.Speed
	switch {
	case m.Pos >= TrackWidth-1:
		m.Pos = TrackWidth - 1
		m.Dir = -1
	case m.Pos <= 0:
		m.Pos = 0
		m.Dir = 1
	}
}

// DefenseSpeed is the marker speed for an enemy of the given difficulty.
func DefenseSpeed(difficulty float64) int {
	if difficulty <= 0 {
		difficulty = 1
	}
	return max(1, int(TrackWidth*frameSeconds/(5.0*0.6/difficulty)))
}

// SequenceSpeed is the marker speed for a skill step with the given limit.
func SequenceSpeed(limit time.Duration) int {
	secs := limit.Seconds()
	if secs <= 0 {
		return 2
	}
	return max(2, int(8/secs))
}

// SequenceWidth is the zone width of step i of a skill sequence.
func SequenceWidth(step int) int {
	return max(4, 8-step)
}

// Rand picks zone offsets.
type Rand interface {
	// Between returns an integer in [lo, hi].
	Between(lo, hi int) int
}

// Options tunes an Engine.
type Options struct {
	// Scale multiplies every wall-clock duration (frame delay, budgets,
	// pauses). Marker speeds are unaffected, so a scaled episode plays the
	// same frames faster. Zero means 1.
	Scale float64
}

// Engine runs timed-input episodes against a screen.
type Engine struct {
	screen ui.Screen
	rng    Rand
	scale  float64
}

// queuer is implemented by keyboards that take several keys at once, such
// as script playback. Keys still queued when a check ends belong to it and
// are dropped so they cannot answer the next one.
type queuer interface {
	DropQueued()
}

func (e *Engine) dropQueued() {
	if q, ok := e.screen.(queuer); ok {
		q.DropQueued()
	}
}

// New creates an Engine.
func New(screen ui.Screen, rng Rand, opts Options) *Engine {
	scale := opts.Scale
	if scale <= 0 {
		scale = 1
	}
	return &Engine{screen: screen, rng: rng, scale: scale}
}

func (e *Engine) scaled(d time.Duration) time.Duration {
	return time.Duration(float64(d) * e.scale)
}

// press is the single value a listener hands back.
type press struct {
	key rune
	pos int
}

// episode animates one sweep over zone until an accepted key arrives or the
// budget runs out. ok is false on timeout or cancellation.
func (e *Engine) episode(ctx context.Context, budget time.Duration, zone Zone, m Marker, frame ui.Frame, accept func(rune) bool) (press, bool) {
	e.screen.Flush()

	ctx, cancel := context.WithTimeout(ctx, e.scaled(budget))
	defer cancel()

	var pos atomic.Int32
	pos.Store(int32(m.Pos))
	pressed := make(chan press, 1)

	go func() {
		for {
			r, err := e.screen.ReadKey(ctx)
			if err != nil {
				return
			}
			if accept != nil && !accept(r) {
				continue
			}
			pressed <- press{key: r, pos: int(pos.Load())}
			return
		}
	}()

	tick := time.NewTicker(e.scaled(frameDelay))
	defer tick.Stop()
	started := time.Now()

	frame.Width = TrackWidth
	frame.Start, frame.End = zone.Start, zone.End
	frame.PerfectStart, frame.PerfectEnd = zone.PerfectStart, zone.PerfectEnd

	for {
		frame.Pos = m.Pos
		frame.Remaining = max(0, budget-time.Duration(float64(time.Since(started))/e.scale))
		e.screen.Frame(frame)

		select {
		case p := <-pressed:
			return p, true
		case <-ctx.Done():
			return press{}, false
		case <-tick.C:
			m.Advance()
			pos.Store(int32(m.Pos))
		}
	}
}

// Defense runs the single-press defense check. Only the space key counts.
func (e *Engine) Defense(ctx context.Context, difficulty float64) Grade {
	defer e.dropQueued()
	zone := NewZone(e.rng.Between(defenseMinZone, defenseMaxZone), defenseWidth)
	m := Marker{Dir: 1, Speed: DefenseSpeed(difficulty)}

	e.screen.Clear()
	e.screen.Say(ui.ToneBad, "=== INCOMING ATTACK ===")
	e.screen.Say(ui.ToneNormal, "Press SPACE when the bar hits the zone!")

	frame := ui.Frame{Title: "INCOMING ATTACK", Prompt: "SPACE"}
	p, ok := e.episode(ctx, defenseBudget, zone, m, frame, func(r rune) bool { return r == ' ' })
	if !ok {
		return Miss
	}
	return zone.Classify(p.pos)
}

// Sequence runs a multi-step skill input and returns the number of steps
// hit before the first failure. Each step waits at most limit.
func (e *Engine) Sequence(ctx context.Context, keys []string, limit time.Duration) int {
	defer e.dropQueued()
	hits := 0
	for i, expected := range keys {
		width := SequenceWidth(i)
		zone := NewZone(e.rng.Between(sequenceMargin, TrackWidth-width-sequenceMargin), width)
		m := Marker{Dir: 1, Speed: SequenceSpeed(limit)}

		e.screen.Clear()
		e.screen.Say(ui.ToneTitle, "=== SKILL INPUT ===")
		e.screen.Say(ui.ToneNormal, "  "+sequenceLine(keys, i))

		frame := ui.Frame{Title: "SKILL INPUT", Prompt: KeyLabel(expected)}
		p, ok := e.episode(ctx, limit, zone, m, frame, nil)

		e.screen.Clear()
		e.screen.Say(ui.ToneTitle, "=== SKILL INPUT ===")
		if !ok {
			e.screen.Say(ui.ToneBad, fmt.Sprintf("Too slow! Interrupted at step %d/%d.", i+1, len(keys)))
			e.screen.Pause(e.scaled(failPause))
			break
		}
		if !keyMatches(expected, p.key) {
			e.screen.Say(ui.ToneBad, fmt.Sprintf("Wrong key! Expected [%s].", KeyLabel(expected)))
			e.screen.Pause(e.scaled(failPause))
			break
		}
		grade := zone.Classify(p.pos)
		if grade == Miss {
			e.screen.Say(ui.ToneBad, "Missed!")
			e.screen.Pause(e.scaled(failPause))
			break
		}
		hits++
		if grade == Perfect {
			e.screen.Say(ui.ToneGood, "PERFECT!")
		} else {
			e.screen.Say(ui.ToneWarn, "Hit!")
		}
		e.screen.Pause(e.scaled(successPause))
	}
	return hits
}

var arrows = map[string]string{"w": "↑", "a": "←", "s": "↓", "d": "→"}

// KeyLabel is the on-screen name of a sequence key: "a" -> "A ←".
func KeyLabel(key string) string {
	if key == "space" || key == " " {
		return "SPACE"
	}
	if a, ok := arrows[strings.ToLower(key)]; ok {
		return strings.ToUpper(key) + " " + a
	}
	return strings.ToUpper(key)
}

// KeyRune maps a sequence key name to the rune a keyboard delivers.
func KeyRune(key string) rune {
	if key == "space" {
		return ' '
	}
	r, _ := utf8.DecodeRuneInString(key)
	if r == utf8.RuneError {
		return 0
	}
	return unicode.ToLower(r)
}

func keyMatches(expected string, got rune) bool {
	return unicode.ToLower(got) == KeyRune(expected)
}

// sequenceLine renders the key strip with the current step bracketed.
func sequenceLine(keys []string, current int) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		label := KeyLabel(k)
		switch {
		case i < current:
			parts[i] = "✓" + label
		case i == current:
			parts[i] = "[ " + label + " ]"
		default:
			parts[i] = label
		}
	}
	return strings.Join(parts, "  →  ")
}

// DefenseMessage is the announcement for a defense grade.
func DefenseMessage(g Grade) (ui.Tone, string) {
	switch g {
	case Perfect:
		return ui.ToneGood, "PERFECT BLOCK! You counter-attack!"
	case Block:
		return ui.ToneWarn, "Blocked! Damage reduced."
	default:
		return ui.ToneBad, "Missed the block!"
	}
}
