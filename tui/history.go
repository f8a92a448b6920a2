// Package tui provides a Bubble Tea terminal UI for the Kimaer combat game.
package tui

// History remembers hub commands for recall with the arrow keys. Each
// command is kept once; repeating an older one moves it to the newest
// slot, so "fight goblin" typed ten times costs one entry.
type History struct {
	entries []string
	limit   int
	cursor  int // index being shown while browsing, -1 otherwise
}

// NewHistory creates a history holding at most limit commands.
func NewHistory(limit int) *History {
	return &History{limit: limit, cursor: -1}
}

// Push records cmd as the newest entry.
func (h *History) Push(cmd string) {
	for i, e := range h.entries {
		if e == cmd {
			h.entries = append(h.entries[:i], h.entries[i+1:]...)
			break
		}
	}
	h.entries = append(h.entries, cmd)
	if over := len(h.entries) - h.limit; over > 0 {
		h.entries = h.entries[over:]
	}
}

// Prev steps back to an older command, stopping at the oldest.
func (h *History) Prev() (string, bool) {
	n := len(h.entries)
	switch {
	case n == 0:
		return "", false
	case h.cursor < 0:
		h.cursor = n - 1
	case h.cursor > 0:
		h.cursor--
	}
	return h.entries[h.cursor], true
}

// Next steps forward to a newer command. Stepping past the newest ends
// browsing and reports false, meaning the prompt should be cleared.
func (h *History) Next() (string, bool) {
	if h.cursor < 0 {
		return "", false
	}
	if h.cursor++; h.cursor == len(h.entries) {
		h.cursor = -1
		return "", false
	}
	return h.entries[h.cursor], true
}

// ResetCursor ends browsing.
func (h *History) ResetCursor() { h.cursor = -1 }
