package cli

import (
	"fmt"
	"strings"

	"github.com/nathoo/kimaer/engine/state"
	"github.com/nathoo/kimaer/engine/ui"
	"github.com/nathoo/kimaer/types"
)

const maxNameLen = 24

// CreateCharacter asks for a name and a class and builds a level 1
// character. A catalog without classes skips the class menu.
func CreateCharacter(defs *state.Defs, con LineConsole) (*types.State, error) {
	con.Clear()
	con.Say(ui.ToneTitle, fmt.Sprintf("=== %s ===", defs.Game.Title))

	var name string
	for name == "" {
		line, err := con.ReadLine("What is your name? ")
		if err != nil {
			return nil, err
		}
		name = strings.TrimSpace(line)
		if len([]rune(name)) > maxNameLen {
			con.Say(ui.ToneWarn, fmt.Sprintf("Keep it under %d characters.", maxNameLen+1))
			name = ""
		}
	}

	classes := state.ClassNames(defs)
	if len(classes) == 0 {
		return state.NewState(defs, name, "")
	}

	options := make([]string, len(classes))
	for i, n := range classes {
		options[i] = classLine(defs.Classes[n])
	}
	choice, err := con.Menu(fmt.Sprintf("Choose a class, %s:", name), options)
	if err != nil {
		return nil, err
	}
	s, err := state.NewState(defs, name, classes[choice])
	if err != nil {
		return nil, err
	}
	con.Say(ui.ToneGood, fmt.Sprintf("Welcome, %s the %s.", s.Name, s.Class))
	return s, nil
}

// classLine summarises a class for the menu: "Rogue  HP x1.0  DMG x1.2 ..."
func classLine(c types.ClassDef) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-8s HP x%.1f  DMG x%.1f  Gold x%.1f", c.Name, c.HealthMod, c.DamageMod, c.GoldMod)
	if c.ManaMod > 0 {
		fmt.Fprintf(&b, "  MP x%.1f", c.ManaMod)
	}
	if c.StaminaMod > 0 {
		fmt.Fprintf(&b, "  SP x%.1f", c.StaminaMod)
	}
	if c.Description != "" {
		b.WriteString("  - " + c.Description)
	}
	return b.String()
}
