package tui

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nathoo/kimaer/engine/ui"
	"github.com/nathoo/kimaer/types"
)

// Messages the game goroutine sends into the program.
type (
	sayMsg struct {
		tone ui.Tone
		text string
	}
	clearMsg  struct{}
	frameMsg  struct{ frame ui.Frame }
	statusMsg struct{ status status }
	lineMsg   struct {
		prompt string
		reply  chan<- string
	}
	menuMsg struct {
		title   string
		options []string
		reply   chan<- int
	}
	anyKeyMsg struct {
		text  string
		reply chan<- struct{}
	}
	gameDoneMsg struct{ err error }
)

// Terminal is the game's side of the TUI. Every call turns into a message
// for the program; calls that need an answer block until the player gives
// one or the program exits, in which case they return io.EOF.
type Terminal struct {
	// Player, when set, is snapshotted for the status bar whenever the
	// game waits for input.
	Player func() *types.State

	send func(tea.Msg)
	keys chan rune
	done chan struct{}
	once sync.Once
}

// NewTerminal creates a terminal that delivers its messages through send,
// normally a tea.Program's Send.
func NewTerminal(send func(tea.Msg)) *Terminal {
	return &Terminal{
		send: send,
		keys: make(chan rune, 16),
		done: make(chan struct{}),
	}
}

// Close unblocks every pending and future call.
func (t *Terminal) Close() {
	t.once.Do(func() { close(t.done) })
}

// key is called by the model for keys pressed while no prompt is open.
func (t *Terminal) key(r rune) {
	select {
	case t.keys <- r:
	default:
	}
}

func (t *Terminal) sendStatus() {
	if t.Player == nil {
		return
	}
	if p := t.Player(); p != nil {
		t.send(statusMsg{status: snapshot(p)})
	}
}

func (t *Terminal) Say(tone ui.Tone, text string) { t.send(sayMsg{tone: tone, text: text}) }

func (t *Terminal) Clear() { t.send(clearMsg{}) }

func (t *Terminal) Frame(f ui.Frame) { t.send(frameMsg{frame: f}) }

func (t *Terminal) ReadLine(prompt string) (string, error) {
	t.sendStatus()
	reply := make(chan string, 1)
	t.send(lineMsg{prompt: prompt, reply: reply})
	select {
	case s := <-reply:
		return s, nil
	case <-t.done:
		return "", io.EOF
	}
}

func (t *Terminal) Menu(title string, options []string) (int, error) {
	t.Flush()
	t.sendStatus()
	reply := make(chan int, 1)
	t.send(menuMsg{title: title, options: options, reply: reply})
	select {
	case i := <-reply:
		return i, nil
	case <-t.done:
		return 0, io.EOF
	}
}

func (t *Terminal) PressAnyKey(msg string) error {
	t.Flush()
	t.sendStatus()
	reply := make(chan struct{}, 1)
	t.send(anyKeyMsg{text: msg, reply: reply})
	select {
	case <-reply:
		return nil
	case <-t.done:
		return io.EOF
	}
}

func (t *Terminal) Pause(d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-t.done:
	}
}

// ReadKey waits for a key pressed while no prompt is open. A caller whose
// ctx is done never takes a key; one that arrives as ctx ends goes back.
func (t *Terminal) ReadKey(ctx context.Context) (rune, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	select {
	case r := <-t.keys:
		if err := ctx.Err(); err != nil {
			t.key(r)
			return 0, err
		}
		return r, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-t.done:
		return 0, io.EOF
	}
}

// Flush drops keys pressed since the last read.
func (t *Terminal) Flush() {
	for {
		select {
		case <-t.keys:
		default:
			return
		}
	}
}

// Run starts a full-screen program and plays game against its terminal on
// a separate goroutine. It returns when the game returns or the player
// quits the program, whichever comes first, and reports the game's error.
func Run(ctx context.Context, title string, player func() *types.State, game func(ctx context.Context, term *Terminal) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var p *tea.Program
	term := NewTerminal(func(msg tea.Msg) { p.Send(msg) })
	term.Player = player
	p = tea.NewProgram(New(title, term), tea.WithAltScreen(), tea.WithContext(ctx))

	gameErr := make(chan error, 1)
	go func() {
		err := game(ctx, term)
		gameErr <- err
		p.Send(gameDoneMsg{err: err})
	}()

	_, runErr := p.Run()
	term.Close()
	cancel()
	if err := <-gameErr; err != nil {
		return err
	}
	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		return runErr
	}
	return nil
}
