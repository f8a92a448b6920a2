package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nathoo/kimaer/types"
)

// status is the slice of the player the status bar shows. It is copied
// while the game goroutine is blocked on input, so the UI never reads
// live state.
type status struct {
	Name       string
	Class      string
	Level      int
	Health     int
	MaxHealth  int
	Mana       int
	MaxMana    int
	Stamina    int
	MaxStamina int
	Gold       int
	Effects    int
}

func snapshot(s *types.State) status {
	return status{
		Name:       s.Name,
		Class:      s.Class,
		Level:      s.Level,
		Health:     s.Health,
		MaxHealth:  s.MaxHealth,
		Mana:       s.Mana,
		MaxMana:    s.MaxMana,
		Stamina:    s.Stamina,
		MaxStamina: s.MaxStamina,
		Gold:       s.Gold,
		Effects:    len(s.Effects),
	}
}

// renderStatusBar produces a full-width inverted status line: who the
// player is on the left, pools and gold on the right. Pools the class
// lacks are left out, and so is the gold when the bar gets too narrow.
func (m Model) renderStatusBar() string {
	s := m.status

	who := s.Name
	if s.Class != "" {
		who += " the " + s.Class
	}
	left := fmt.Sprintf(" %s | Lv %d", who, s.Level)
	if m.title != "" && s.Name == "" {
		left = " " + m.title
	}

	pools := []string{fmt.Sprintf("HP %d/%d", s.Health, s.MaxHealth)}
	if s.MaxMana > 0 {
		pools = append(pools, fmt.Sprintf("MP %d/%d", s.Mana, s.MaxMana))
	}
	if s.MaxStamina > 0 {
		pools = append(pools, fmt.Sprintf("SP %d/%d", s.Stamina, s.MaxStamina))
	}
	if s.Effects > 0 {
		pools = append(pools, fmt.Sprintf("FX %d", s.Effects))
	}
	right := strings.Join(pools, "  ") + " "
	if s.Name == "" {
		right = ""
	}

	withGold := fmt.Sprintf("%s| Gold %d ", right, s.Gold)
	if right != "" && lipgloss.Width(left)+lipgloss.Width(withGold)+2 < m.width {
		right = withGold
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	bar := left + strings.Repeat(" ", gap) + right
	return styleStatusBar.Width(m.width).Render(bar)
}
