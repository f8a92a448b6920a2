package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nathoo/kimaer/engine/ui"
)

// mode is what the bottom of the screen is waiting for.
type mode int

const (
	modeIdle   mode = iota // game running; keys go to the timed-input listener
	modeLine               // text prompt
	modeMenu               // numbered menu
	modeAnyKey             // "press any key"
)

// rawLine stores an unstyled output line with its tone, so we can re-wrap
// and re-style when the terminal is resized.
type rawLine struct {
	text    string
	tone    ui.Tone
	isInput bool // true for echoed player input
}

// Model is the Bubble Tea model for the Kimaer TUI.
type Model struct {
	term  *Terminal
	title string

	viewport viewport.Model
	input    textinput.Model
	history  *History
	keys     menuKeyMap

	rawLines []rawLine // accumulated log lines (unstyled, for re-wrapping)
	status   status

	mode      mode
	prompt    string
	lineReply chan<- string

	menuTitle   string
	menuOptions []string
	menuCursor  int
	menuReply   chan<- int

	anyKeyText  string
	anyKeyReply chan<- struct{}

	frame    *ui.Frame
	width    int
	height   int
	ready    bool
	quitting bool
}

// menuKeyMap binds the menu controls.
type menuKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Choose key.Binding
}

func defaultMenuKeys() menuKeyMap {
	return menuKeyMap{
		Up:     key.NewBinding(key.WithKeys("up", "k", "w"), key.WithHelp("↑/k", "up")),
		Down:   key.NewBinding(key.WithKeys("down", "j", "s"), key.WithHelp("↓/j", "down")),
		Choose: key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "choose")),
	}
}

// New creates a TUI model fed by term.
func New(title string, term *Terminal) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 256
	ti.PromptStyle = styleInputPrompt

	return Model{
		term:    term,
		title:   title,
		input:   ti,
		history: NewHistory(100),
		keys:    defaultMenuKeys(),
	}
}

// Init starts the cursor blinking; the game goroutine provides the rest.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages (key presses, window resize, game requests).
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case sayMsg:
		m = m.appendLine(rawLine{text: msg.text, tone: msg.tone})
		return m, nil

	case clearMsg:
		m.frame = nil
		if n := len(m.rawLines); n > 0 && m.rawLines[n-1].text != "" {
			m = m.appendLine(rawLine{})
		}
		return m, nil

	case frameMsg:
		f := msg.frame
		m.frame = &f
		return m, nil

	case statusMsg:
		m.status = msg.status
		return m, nil

	case lineMsg:
		m.frame = nil
		m.mode = modeLine
		m.prompt = msg.prompt
		m.lineReply = msg.reply
		m.input.Prompt = msg.prompt
		m.input.SetValue("")
		return m, m.input.Focus()

	case menuMsg:
		m.frame = nil
		m.mode = modeMenu
		m.menuTitle = msg.title
		m.menuOptions = msg.options
		m.menuCursor = 0
		m.menuReply = msg.reply
		m.layout()
		return m, nil

	case anyKeyMsg:
		m.frame = nil
		m.mode = modeAnyKey
		m.anyKeyText = msg.text
		m.anyKeyReply = msg.reply
		return m, nil

	case gameDoneMsg:
		m.quitting = true
		return m, tea.Quit
	}

	if m.mode == modeLine {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	switch m.mode {
	case modeLine:
		return m.handleLineKey(msg)

	case modeMenu:
		switch {
		case key.Matches(msg, m.keys.Up):
			if m.menuCursor > 0 {
				m.menuCursor--
			}
		case key.Matches(msg, m.keys.Down):
			if m.menuCursor < len(m.menuOptions)-1 {
				m.menuCursor++
			}
		case key.Matches(msg, m.keys.Choose):
			return m.chooseMenu(m.menuCursor), nil
		default:
			if n := digit(msg); n >= 1 && n <= len(m.menuOptions) {
				return m.chooseMenu(n - 1), nil
			}
		}
		return m, nil

	case modeAnyKey:
		m.mode = modeIdle
		m.anyKeyReply <- struct{}{}
		m.anyKeyReply = nil
		return m, nil

	default:
		if r, ok := keyRune(msg); ok {
			m.term.key(r)
		}
		return m, nil
	}
}

func (m Model) handleLineKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		input := strings.TrimSpace(m.input.Value())
		m.input.SetValue("")
		m.input.Blur()
		if input != "" {
			m.history.Push(input)
		}
		m.history.ResetCursor()
		m = m.appendLine(rawLine{text: m.prompt + input, isInput: true})
		m.mode = modeIdle
		m.lineReply <- input
		m.lineReply = nil
		return m, nil

	case "up":
		if prev, ok := m.history.Prev(); ok {
			m.input.SetValue(prev)
			m.input.CursorEnd()
		}
		return m, nil

	case "down":
		if next, ok := m.history.Next(); ok {
			m.input.SetValue(next)
			m.input.CursorEnd()
		} else {
			m.input.SetValue("")
			m.history.ResetCursor()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) chooseMenu(i int) Model {
	m = m.appendLine(rawLine{text: fmt.Sprintf("> %s", m.menuOptions[i]), isInput: true})
	m.mode = modeIdle
	m.menuReply <- i
	m.menuReply = nil
	m.menuOptions = nil
	m.layout()
	return m
}

// keyRune maps a key press to the rune the timed-input engine expects.
// Arrow keys stand in for WASD.
func keyRune(msg tea.KeyMsg) (rune, bool) {
	switch msg.Type {
	case tea.KeySpace:
		return ' ', true
	case tea.KeyUp:
		return 'w', true
	case tea.KeyLeft:
		return 'a', true
	case tea.KeyDown:
		return 's', true
	case tea.KeyRight:
		return 'd', true
	case tea.KeyRunes:
		if len(msg.Runes) > 0 {
			return msg.Runes[0], true
		}
	}
	return 0, false
}

func digit(msg tea.KeyMsg) int {
	if msg.Type != tea.KeyRunes || len(msg.Runes) != 1 {
		return 0
	}
	r := msg.Runes[0]
	if r < '1' || r > '9' {
		return 0
	}
	return int(r - '0')
}

// appendLine adds a line to the log and refreshes the viewport.
func (m Model) appendLine(rl rawLine) Model {
	m.rawLines = append(m.rawLines, rl)
	m.refreshViewport()
	return m
}

// footerHeight is the number of rows below the log: the open menu or the
// track, the status bar and the input line.
func (m Model) footerHeight() int {
	h := 2
	if m.mode == modeMenu {
		h += len(m.menuOptions) + 1
	}
	return h
}

func (m *Model) layout() {
	if m.width == 0 {
		return
	}
	vpHeight := m.height - m.footerHeight() - 1 // one row for a track
	if vpHeight < 1 {
		vpHeight = 1
	}
	if !m.ready {
		m.viewport = viewport.New(m.width, vpHeight)
		m.viewport.KeyMap = viewportKeyMap()
		m.ready = true
	} else {
		m.viewport.Width = m.width
		m.viewport.Height = vpHeight
	}
	m.refreshViewport()
}

// refreshViewport re-wraps and re-styles all raw lines at the current width
// and updates the viewport content.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}

	width := m.width
	if width < 10 {
		width = 10
	}

	styled := make([]string, 0, len(m.rawLines))
	for _, rl := range m.rawLines {
		if rl.text == "" {
			styled = append(styled, "")
			continue
		}
		wrapped := wordWrap(rl.text, width)
		if rl.isInput {
			styled = append(styled, styledPlayerInput(wrapped))
			continue
		}
		styled = append(styled, styleFor(rl.tone).Render(wrapped))
	}

	m.viewport.SetContent(strings.Join(styled, "\n"))
	m.viewport.GotoBottom()
}

// wordWrap wraps text to fit within the given width, breaking at word
// boundaries. Preserves existing newlines within the text.
func wordWrap(text string, width int) string {
	if width <= 0 || len(text) <= width {
		return text
	}
	if strings.Contains(text, "\n") {
		parts := strings.Split(text, "\n")
		for i, p := range parts {
			parts[i] = wordWrap(p, width)
		}
		return strings.Join(parts, "\n")
	}

	var result strings.Builder
	words := strings.Fields(text)
	lineLen := 0

	for i, word := range words {
		wLen := len(word)

		if i == 0 {
			result.WriteString(word)
			lineLen = wLen
			continue
		}

		if lineLen+1+wLen > width {
			result.WriteString("\n")
			result.WriteString(word)
			lineLen = wLen
		} else {
			result.WriteString(" ")
			result.WriteString(word)
			lineLen += 1 + wLen
		}
	}

	return result.String()
}

// View renders the full TUI layout: log, track or menu, status bar, input.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	if m.frame != nil {
		fmt.Fprintf(&b, "%s %s %4.1fs", m.frame.Prompt, styledTrack(*m.frame), m.frame.Remaining.Seconds())
	}
	b.WriteString("\n")

	if m.mode == modeMenu {
		b.WriteString(styleFor(ui.ToneTitle).Render(m.menuTitle))
		b.WriteString("\n")
		for i, opt := range m.menuOptions {
			line := fmt.Sprintf("  %d. %s", i+1, opt)
			if i == m.menuCursor {
				line = styleMenuCursor.Render(fmt.Sprintf("> %d. %s", i+1, opt))
			} else {
				line = styleMenuItem.Render(line)
			}
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	b.WriteString(m.renderStatusBar())
	b.WriteString("\n")

	switch m.mode {
	case modeLine:
		b.WriteString(m.input.View())
	case modeMenu:
		b.WriteString(styleHint.Render("↑/↓ to move, enter or a number to choose"))
	case modeAnyKey:
		b.WriteString(styleHint.Render(m.anyKeyText))
	}
	return b.String()
}

// viewportKeyMap returns a viewport keymap with Up/Down disabled
// (we use those for input history and menus).
func viewportKeyMap() viewport.KeyMap {
	return viewport.KeyMap{
		PageDown:     key.NewBinding(key.WithKeys("pgdown")),
		PageUp:       key.NewBinding(key.WithKeys("pgup")),
		HalfPageDown: key.NewBinding(key.WithKeys("ctrl+d")),
		HalfPageUp:   key.NewBinding(key.WithKeys("ctrl+u")),
		Up:           key.NewBinding(key.WithDisabled()),
		Down:         key.NewBinding(key.WithDisabled()),
	}
}
