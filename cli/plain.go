package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/cancelreader"

	"github.com/nathoo/kimaer/engine/ui"
)

// Plain is a line-oriented console. Every answer is one line of input.
//
// On a live terminal a timed-input key is the first character of the line
// and an empty line is the space bar; it counts the moment Enter is hit.
// Scripts and pipes have no timing of their own, so there a key line holds
// one or more whitespace-separated keys, each released when the marker
// reaches the spot its suffix names:
//
//	a     press A once the marker is inside the zone
//	a!    press A once the marker is in the perfect sub-zone
//	a-    press A straight away, wherever the marker is
//
// "space" (or an empty line, "!" or "-" alone) is the space bar. Keys left
// on a line when the timed input ends are dropped.
//
// A single pump goroutine reads the input and hands lines over a channel,
// so menus, prompts and timed-input listeners never share a reader.
type Plain struct {
	out    io.Writer
	styles map[ui.Tone]lipgloss.Style

	// Echo repeats each line read after its prompt (script playback).
	Echo bool
	// Live marks an interactive terminal: pauses sleep, track frames are
	// redrawn in place and Flush drops type-ahead.
	Live bool

	lines  chan string
	unread chan string // a line a cancelled reader gave back
	cancel func() bool

	mu        sync.Mutex
	err       error
	lastTrack string

	// Scripted timing: the latest track frame, a channel closed when the
	// next one arrives, and keys still queued from the current line.
	frame    ui.Frame
	hasFrame bool
	frameSig chan struct{}
	queued   []string
}

// NewPlain starts reading lines from in. Readers that support it are
// wrapped so Close interrupts a blocked read.
func NewPlain(in io.Reader, out io.Writer) *Plain {
	p := &Plain{
		out:      out,
		styles:   toneStyles(lipgloss.NewRenderer(out)),
		lines:    make(chan string),
		unread:   make(chan string, 1),
		cancel:   func() bool { return false },
		frameSig: make(chan struct{}),
	}
	src := in
	if cr, err := cancelreader.NewReader(in); err == nil {
		src = cr
		p.cancel = cr.Cancel
	}
	go p.pump(src)
	return p
}

func (p *Plain) pump(r io.Reader) {
	defer close(p.lines)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		p.lines <- strings.TrimRight(sc.Text(), "\r")
	}
	p.mu.Lock()
	p.err = sc.Err()
	p.mu.Unlock()
}

// Close stops the pump if the input supports cancellation.
func (p *Plain) Close() error {
	p.cancel()
	return nil
}

// next returns the next input line. A reader whose ctx is already done
// never takes a line, and a line that arrives as ctx ends is handed back
// for the next reader.
func (p *Plain) next(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	select {
	case line := <-p.unread:
		return line, nil
	default:
	}
	select {
	case line := <-p.unread:
		return line, nil
	case line, ok := <-p.lines:
		if !ok {
			p.mu.Lock()
			defer p.mu.Unlock()
			if p.err != nil && p.err != cancelreader.ErrCanceled {
				return "", p.err
			}
			return "", io.EOF
		}
		if err := ctx.Err(); err != nil {
			select {
			case p.unread <- line:
			default:
			}
			return "", err
		}
		return line, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// ReadLine prints prompt and returns the next line without surrounding
// spaces.
func (p *Plain) ReadLine(prompt string) (string, error) {
	p.DropQueued()
	fmt.Fprint(p.out, prompt)
	line, err := p.next(context.Background())
	if err != nil {
		fmt.Fprintln(p.out)
		return "", err
	}
	if p.Echo {
		fmt.Fprintln(p.out, line)
	}
	return strings.TrimSpace(line), nil
}

func (p *Plain) Say(tone ui.Tone, text string) {
	p.endTrack()
	if st, ok := p.styles[tone]; ok {
		text = st.Render(text)
	}
	fmt.Fprintln(p.out, text)
}

func (p *Plain) Clear() {
	p.endTrack()
	if p.Live {
		fmt.Fprint(p.out, "\033[H\033[2J")
		return
	}
	fmt.Fprintln(p.out)
}

// Menu prints numbered options and reads until it gets a valid number or
// the start of an option's text.
func (p *Plain) Menu(title string, options []string) (int, error) {
	p.Flush()
	p.Say(ui.ToneTitle, title)
	for i, opt := range options {
		fmt.Fprintf(p.out, "  %d. %s\n", i+1, opt)
	}
	for {
		line, err := p.ReadLine(fmt.Sprintf("Choose [1-%d]: ", len(options)))
		if err != nil {
			return 0, err
		}
		if idx, ok := pick(line, options); ok {
			return idx, nil
		}
		p.Say(ui.ToneWarn, fmt.Sprintf("Please enter a number between 1 and %d.", len(options)))
	}
}

func pick(line string, options []string) (int, bool) {
	if n, err := strconv.Atoi(line); err == nil {
		if n >= 1 && n <= len(options) {
			return n - 1, true
		}
		return 0, false
	}
	if line == "" {
		return 0, false
	}
	lower := strings.ToLower(line)
	for i, opt := range options {
		if strings.HasPrefix(strings.ToLower(opt), lower) {
			return i, true
		}
	}
	return 0, false
}

// PressAnyKey waits for Enter on a live terminal; scripts don't stop.
func (p *Plain) PressAnyKey(msg string) error {
	if !p.Live {
		p.Say(ui.ToneSystem, msg)
		return nil
	}
	p.Flush()
	_, err := p.ReadLine(msg + " ")
	return err
}

func (p *Plain) Pause(d time.Duration) {
	if p.Live && d > 0 {
		time.Sleep(d)
	}
}

// ReadKey returns the next key. Live terminals return the first character
// of the next line; scripted keys wait for their spot on the track.
func (p *Plain) ReadKey(ctx context.Context) (rune, error) {
	if p.Live {
		line, err := p.next(ctx)
		if err != nil {
			return 0, err
		}
		r, _ := parseKey(strings.TrimSpace(line))
		return r, nil
	}

	tok, err := p.nextKey(ctx)
	if err != nil {
		return 0, err
	}
	r, at := parseKey(tok)
	for {
		p.mu.Lock()
		f, ok, sig := p.frame, p.hasFrame, p.frameSig
		p.mu.Unlock()
		if at == keyNow || ok && at.reached(f) {
			return r, nil
		}
		select {
		case <-sig:
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
}

// nextKey takes the next queued key, reading a new line when none is left.
func (p *Plain) nextKey(ctx context.Context) (string, error) {
	p.mu.Lock()
	if len(p.queued) > 0 {
		tok := p.queued[0]
		p.queued = p.queued[1:]
		p.mu.Unlock()
		return tok, nil
	}
	p.mu.Unlock()

	line, err := p.next(ctx)
	if err != nil {
		return "", err
	}
	if p.Echo {
		fmt.Fprintf(p.out, "[keys] %s\n", line)
	}
	toks := strings.Fields(line)
	if len(toks) == 0 {
		return "", nil
	}
	p.mu.Lock()
	p.queued = toks[1:]
	p.mu.Unlock()
	return toks[0], nil
}

// DropQueued discards scripted keys left over when a timed input ends.
func (p *Plain) DropQueued() {
	p.mu.Lock()
	p.queued = nil
	p.mu.Unlock()
}

// keySpot is where on the track a scripted key is released.
type keySpot int

const (
	keyInZone keySpot = iota
	keyPerfect
	keyNow
)

func (s keySpot) reached(f ui.Frame) bool {
	if s == keyPerfect {
		return f.Pos >= f.PerfectStart && f.Pos < f.PerfectEnd
	}
	return f.Pos >= f.Start && f.Pos < f.End
}

// parseKey splits a key token into its rune and release spot.
func parseKey(tok string) (rune, keySpot) {
	spot := keyInZone
	switch {
	case strings.HasSuffix(tok, "!"):
		spot, tok = keyPerfect, strings.TrimSuffix(tok, "!")
	case strings.HasSuffix(tok, "-"):
		spot, tok = keyNow, strings.TrimSuffix(tok, "-")
	}
	if tok == "" || strings.EqualFold(tok, "space") {
		return ' ', spot
	}
	r, _ := utf8.DecodeRuneInString(tok)
	return r, spot
}

// Flush starts a new timed input. A live terminal drops lines typed
// ahead; scripted input is never discarded, only the old track is.
func (p *Plain) Flush() {
	if !p.Live {
		p.mu.Lock()
		p.lastTrack = ""
		p.hasFrame = false
		p.mu.Unlock()
		return
	}
	for {
		select {
		case <-p.unread:
		case _, ok := <-p.lines:
			if !ok {
				return
			}
		default:
			return
		}
	}
}

// Frame draws a track. Live terminals redraw it in place; otherwise a
// track is printed once per prompt.
func (p *Plain) Frame(f ui.Frame) {
	track := ui.RenderTrack(f)
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Live {
		fmt.Fprintf(p.out, "\r%s %s %4.1fs ", f.Prompt, track, f.Remaining.Seconds())
		p.lastTrack = f.Prompt
		return
	}
	p.frame, p.hasFrame = f, true
	close(p.frameSig)
	p.frameSig = make(chan struct{})

	key := f.Title + "|" + f.Prompt
	if key == p.lastTrack {
		return
	}
	p.lastTrack = key
	if f.Title != "" {
		fmt.Fprintln(p.out, f.Title)
	}
	fmt.Fprintf(p.out, "%s %s\n", f.Prompt, track)
}

// endTrack finishes an in-place track line before other output.
func (p *Plain) endTrack() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Live && p.lastTrack != "" {
		fmt.Fprintln(p.out)
	}
	if p.Live {
		p.lastTrack = ""
	}
}

func toneStyles(r *lipgloss.Renderer) map[ui.Tone]lipgloss.Style {
	return map[ui.Tone]lipgloss.Style{
		ui.ToneTitle:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		ui.ToneInfo:   r.NewStyle().Foreground(lipgloss.Color("6")),
		ui.ToneGood:   r.NewStyle().Foreground(lipgloss.Color("10")),
		ui.ToneBad:    r.NewStyle().Foreground(lipgloss.Color("9")),
		ui.ToneWarn:   r.NewStyle().Foreground(lipgloss.Color("11")),
		ui.ToneSystem: r.NewStyle().Faint(true),
	}
}
