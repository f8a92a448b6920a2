// Package uitest provides a scripted ui.Terminal for tests.
//
// Menu answers are queued as option labels (matched by prefix). Timed-input
// episodes are scripted with Presses: every Flush, which the timed-input
// engine calls at the start of each episode, arms the next Press, and the
// armed key is delivered on the first frame whose marker satisfies it.
package uitest

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/nathoo/kimaer/engine/ui"
)

// Trigger decides on which frame a scripted key is pressed.
type Trigger int

const (
	Now     Trigger = iota // first frame
	Perfect                // marker inside the perfect sub-zone
	Block                  // inside the zone, outside the perfect sub-zone
	InZone                 // anywhere inside the zone
	Outside                // outside the zone
	Never                  // no key; the episode times out
)

func (t Trigger) matches(f ui.Frame) bool {
	inZone := f.Pos >= f.Start && f.Pos < f.End
	inPerfect := f.Pos >= f.PerfectStart && f.Pos < f.PerfectEnd
	switch t {
	case Now:
		return true
	case Perfect:
		return inPerfect
	case Block:
		return inZone && !inPerfect
	case InZone:
		return inZone
	case Outside:
		return !inZone
	default:
		return false
	}
}

// Press is one scripted timed-input episode.
type Press struct {
	Key  rune
	When Trigger
}

// Line is a recorded Say call.
type Line struct {
	Tone ui.Tone
	Text string
}

// Console is a scripted ui.Terminal.
type Console struct {
	Choices []string
	Presses []Press

	mu      sync.Mutex
	lines   []Line
	menus   []string
	frames  int
	paused  time.Duration
	pending *Press
	keys    chan rune
}

// New creates a console with the given menu answers.
func New(choices ...string) *Console {
	return &Console{
		Choices: choices,
		keys:    make(chan rune),
	}
}

func (c *Console) Say(tone ui.Tone, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = append(c.lines, Line{Tone: tone, Text: text})
}

func (c *Console) Clear() {}

// Menu answers with the next queued choice. It returns io.EOF when the
// script is exhausted.
func (c *Console) Menu(title string, options []string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.menus = append(c.menus, title)
	if len(c.Choices) == 0 {
		return 0, io.EOF
	}
	choice := c.Choices[0]
	c.Choices = c.Choices[1:]
	for i, opt := range options {
		if strings.HasPrefix(strings.ToLower(opt), strings.ToLower(choice)) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("menu %q: no option matches %q (have %v)", title, choice, options)
}

func (c *Console) PressAnyKey(string) error { return nil }

func (c *Console) Pause(d time.Duration) {
	c.mu.Lock()
	c.paused += d
	c.mu.Unlock()
}

// Flush arms the next scripted press.
func (c *Console) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = nil
	if len(c.Presses) > 0 {
		p := c.Presses[0]
		c.Presses = c.Presses[1:]
		c.pending = &p
	}
}

func (c *Console) ReadKey(ctx context.Context) (rune, error) {
	select {
	case r := <-c.keys:
		return r, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// Frame hands the armed key to the reader once the frame satisfies it.
// It blocks until the key is taken so the press lands on this frame.
func (c *Console) Frame(f ui.Frame) {
	c.mu.Lock()
	c.frames++
	p := c.pending
	if p == nil || !p.When.matches(f) {
		c.mu.Unlock()
		return
	}
	c.pending = nil
	c.mu.Unlock()

	select {
	case c.keys <- p.Key:
	case <-time.After(time.Second):
	}
}

// Lines returns everything said so far.
func (c *Console) Lines() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Line(nil), c.lines...)
}

// Output returns all said text joined by newlines.
func (c *Console) Output() string {
	var b strings.Builder
	for _, l := range c.Lines() {
		b.WriteString(l.Text)
		b.WriteByte('\n')
	}
	return b.String()
}

// Menus returns the titles of every menu shown.
func (c *Console) Menus() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.menus...)
}

// Frames is the number of track frames rendered.
func (c *Console) Frames() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frames
}

// Paused is the total time the engine asked to pause.
func (c *Console) Paused() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paused
}
