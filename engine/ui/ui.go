// Package ui defines the presentation port the combat engine talks through.
// Consoles in cli and tui implement it; the engine never writes to a
// terminal directly.
package ui

import (
	"context"
	"strings"
	"time"
)

// Tone classifies an output line so consoles can colour it.
type Tone int

const (
	ToneNormal Tone = iota
	ToneTitle
	ToneInfo
	ToneGood
	ToneBad
	ToneWarn
	ToneSystem
)

// Console is the line-oriented side of a terminal.
type Console interface {
	Say(tone Tone, text string)
	Clear()
	// Menu shows numbered options and returns the 0-based choice.
	// Buffered keystrokes are discarded before the prompt.
	Menu(title string, options []string) (int, error)
	PressAnyKey(msg string) error
	Pause(d time.Duration)
}

// Keyboard delivers single keystrokes. ReadKey blocks until a key arrives
// or ctx is done; Flush drops anything typed ahead.
type Keyboard interface {
	ReadKey(ctx context.Context) (rune, error)
	Flush()
}

// Frame is one rendered state of a timed-input track.
type Frame struct {
	Title        string
	Prompt       string
	Width        int
	Start        int
	End          int
	PerfectStart int
	PerfectEnd   int
	Pos          int
	Remaining    time.Duration
}

// Screen is everything a timed-input episode needs.
type Screen interface {
	Keyboard
	Frame(f Frame)
	Say(tone Tone, text string)
	Clear()
	Pause(d time.Duration)
}

// Terminal is a full console: menus, lines, keys and track frames.
type Terminal interface {
	Console
	Screen
}

// RenderTrack draws the track of f: zone cells as █, the marker as ▓.
func RenderTrack(f Frame) string {
	width := f.Width
	if width <= 0 {
		width = 40
	}
	cells := make([]rune, width)
	for i := range cells {
		cells[i] = ' '
	}
	for i := f.Start; i < f.End && i < width; i++ {
		if i >= 0 {
			cells[i] = '█'
		}
	}
	if f.Pos >= 0 && f.Pos < width {
		cells[f.Pos] = '▓'
	}
	var b strings.Builder
	b.WriteByte('[')
	b.WriteString(string(cells))
	b.WriteByte(']')
	return b.String()
}
