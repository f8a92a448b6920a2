package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nathoo/kimaer/engine"
	"github.com/nathoo/kimaer/engine/qte"
	"github.com/nathoo/kimaer/engine/ui"
)

func newPlain(t *testing.T, input string) (*Plain, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	p := NewPlain(strings.NewReader(input), &out)
	t.Cleanup(func() { p.Close() })
	return p, &out
}

func TestPlain_ReadLine(t *testing.T) {
	p, out := newPlain(t, "  hello  \r\nbye\n")

	line, err := p.ReadLine("> ")
	require.NoError(t, err)
	assert.Equal(t, "hello", line)

	p.Echo = true
	line, err = p.ReadLine("> ")
	require.NoError(t, err)
	assert.Equal(t, "bye", line)
	assert.Contains(t, out.String(), "> bye\n")

	_, err = p.ReadLine("> ")
	assert.ErrorIs(t, err, io.EOF)
}

func TestPlain_Menu(t *testing.T) {
	p, out := newPlain(t, "9\nzzz\n\n2\nfl\n")
	options := []string{"Attack", "Items", "Flee"}

	idx, err := p.Menu("What will you do?", options)
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
	assert.Equal(t, 3, strings.Count(out.String(), "Please enter a number between 1 and 3."))
	assert.Contains(t, out.String(), "  3. Flee\n")

	idx, err = p.Menu("Again?", options)
	require.NoError(t, err)
	assert.Equal(t, 2, idx, "an option prefix picks it")

	_, err = p.Menu("Empty", options)
	assert.ErrorIs(t, err, io.EOF)
}

func TestPlain_ReadKey(t *testing.T) {
	p, _ := newPlain(t, "d-\n-\n  w- a-\n")
	ctx := context.Background()

	for _, want := range []rune{'d', ' ', 'w', 'a'} {
		r, err := p.ReadKey(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, r)
	}
	_, err := p.ReadKey(ctx)
	assert.ErrorIs(t, err, io.EOF)
}

func TestPlain_ReadKey_Cancelled(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	var out bytes.Buffer
	p := NewPlain(pr, &out)
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := p.ReadKey(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPlain_ScriptNeverFlushed(t *testing.T) {
	p, _ := newPlain(t, "a-\n")
	p.Flush()
	r, err := p.ReadKey(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 'a', r)
}

func TestPlain_CancelledReaderLeavesLine(t *testing.T) {
	p, _ := newPlain(t, "hello\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.ReadKey(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	line, err := p.ReadLine("> ")
	require.NoError(t, err)
	assert.Equal(t, "hello", line)
}

func TestPlain_ScriptedKeyWaitsForZone(t *testing.T) {
	p, _ := newPlain(t, "a\n")
	got := make(chan rune, 1)
	go func() {
		r, _ := p.ReadKey(context.Background())
		got <- r
	}()

	f := ui.Frame{Width: 20, Start: 5, End: 9, PerfectStart: 6, PerfectEnd: 8}
	for pos := 0; pos < 5; pos++ {
		f.Pos = pos
		p.Frame(f)
	}
	select {
	case r := <-got:
		t.Fatalf("key %q released outside the zone", r)
	case <-time.After(20 * time.Millisecond):
	}

	f.Pos = 5
	p.Frame(f)
	select {
	case r := <-got:
		assert.Equal(t, 'a', r)
	case <-time.After(time.Second):
		t.Fatal("key not released inside the zone")
	}
}

func TestPlain_ScriptedTimedInput(t *testing.T) {
	for seed := int64(1); seed <= 3; seed++ {
		p, out := newPlain(t, "a d!\n!\n")
		q := qte.New(p, engine.NewRNG(seed), qte.Options{Scale: 0.5})
		ctx := context.Background()

		assert.Equal(t, 2, q.Sequence(ctx, []string{"a", "d"}, 2*time.Second), "seed %d:\n%s", seed, out)
		assert.Contains(t, out.String(), "PERFECT!")
		assert.Equal(t, qte.Perfect, q.Defense(ctx, 1), "seed %d", seed)
	}
}

func TestPlain_ScriptedEarlyPressMisses(t *testing.T) {
	p, out := newPlain(t, "a-\n")
	q := qte.New(p, engine.NewRNG(1), qte.Options{Scale: 0.5})

	assert.Zero(t, q.Sequence(context.Background(), []string{"a", "d"}, 2*time.Second))
	assert.Contains(t, out.String(), "Missed!")
}

func TestPlain_AbortedSequenceDropsLeftoverKeys(t *testing.T) {
	p, out := newPlain(t, "s d\n1\n")
	q := qte.New(p, engine.NewRNG(1), qte.Options{Scale: 0.5})

	assert.Zero(t, q.Sequence(context.Background(), []string{"a", "d"}, 2*time.Second))
	assert.Contains(t, out.String(), "Wrong key!")

	idx, err := p.Menu("What will you do?", []string{"Attack", "Flee"})
	require.NoError(t, err)
	assert.Equal(t, 0, idx)
	assert.NotContains(t, out.String(), "Please enter a number")
}

func TestParseKey(t *testing.T) {
	tests := []struct {
		tok  string
		key  rune
		spot keySpot
	}{
		{"", ' ', keyInZone},
		{"!", ' ', keyPerfect},
		{"-", ' ', keyNow},
		{"space!", ' ', keyPerfect},
		{"a", 'a', keyInZone},
		{"d!", 'd', keyPerfect},
		{"w-", 'w', keyNow},
	}
	for _, tt := range tests {
		key, spot := parseKey(tt.tok)
		assert.Equal(t, tt.key, key, "parseKey(%q)", tt.tok)
		assert.Equal(t, tt.spot, spot, "parseKey(%q)", tt.tok)
	}
}

func TestPlain_FrameOncePerEpisode(t *testing.T) {
	p, out := newPlain(t, "")
	f := ui.Frame{Title: "INCOMING ATTACK", Prompt: "SPACE", Width: 10, Start: 2, End: 5, Pos: 0}

	p.Frame(f)
	f.Pos = 1
	p.Frame(f)
	assert.Equal(t, 1, strings.Count(out.String(), "INCOMING ATTACK"))

	p.Flush() // next episode
	p.Frame(f)
	assert.Equal(t, 2, strings.Count(out.String(), "INCOMING ATTACK"))
	assert.Contains(t, out.String(), "SPACE [ ▓███     ]")
}

func TestPlain_PressAnyKeyDoesNotConsumeScript(t *testing.T) {
	p, out := newPlain(t, "next\n")
	require.NoError(t, p.PressAnyKey("Press any key to continue..."))
	assert.Contains(t, out.String(), "Press any key to continue...")

	line, err := p.ReadLine("")
	require.NoError(t, err)
	assert.Equal(t, "next", line)
}

func TestPick(t *testing.T) {
	options := []string{"Attack", "Skills", "Items", "Flee"}
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"1", 0, true},
		{"4", 3, true},
		{"0", 0, false},
		{"5", 0, false},
		{"sk", 1, true},
		{"FLEE", 3, true},
		{"", 0, false},
		{"run", 0, false},
	}
	for _, tt := range tests {
		got, ok := pick(tt.in, options)
		assert.Equal(t, tt.ok, ok, "pick(%q)", tt.in)
		if tt.ok {
			assert.Equal(t, tt.want, got, "pick(%q)", tt.in)
		}
	}
}
