// Package parser converts hub command strings into Intent structs.
// Intentionally dumb: no NLP, just pattern matching.
package parser

import (
	"strconv"
	"strings"

	"github.com/nathoo/kimaer/types"
)

var verbAliases = map[string]string{
	// Fight
	"f":      "fight",
	"attack": "fight",
	"battle": "fight",
	"kill":   "fight",
	"slay":   "fight",

	// Encounter / hunt
	"enc":       "encounter",
	"ambush":    "encounter",
	"explore":   "hunt",
	"patrol":    "hunt",
	"roam":      "hunt",
	"adventure": "hunt",

	// Info
	"bestiary": "enemies",
	"monsters": "enemies",
	"foes":     "enemies",

	"stats": "status",
	"st":    "status",
	"me":    "status",
	"char":  "status",

	"spells":     "skills",
	"techniques": "skills",
	"abilities":  "skills",

	"inv": "inventory",
	"i":   "inventory",
	"h":   "help",
	"?":   "help",

	// Equipment
	"wield":  "equip",
	"wear":   "equip",
	"don":    "equip",
	"remove": "unequip",
	"doff":   "unequip",

	// Rest
	"sleep": "rest",
	"camp":  "rest",
}

var numberWords = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "six": 6,
}

var articles = map[string]bool{
	"the": true, "a": true, "an": true, "some": true,
}

// Parse converts a raw command string into an Intent.
//
//	fight 3 rats, goblin  -> {fight [{rats 3} {goblin 1}]}
//	equip the iron dagger -> {equip [{iron dagger 1}]}
func Parse(input string) types.Intent {
	input = strings.TrimSpace(input)
	if input == "" {
		return types.Intent{}
	}

	words := strings.Fields(strings.ToLower(input))
	words = expandMultiWordVerbs(words)

	if alias, ok := verbAliases[words[0]]; ok {
		words[0] = alias
	}

	intent := types.Intent{Verb: words[0]}
	for _, group := range splitTargets(words[1:]) {
		if t, ok := parseTarget(group); ok {
			intent.Targets = append(intent.Targets, t)
		}
	}
	return intent
}

// expandMultiWordVerbs handles "put on", "take off" and "fight with".
func expandMultiWordVerbs(words []string) []string {
	if len(words) < 2 {
		return words
	}

	switch words[0] {
	case "put":
		if words[1] == "on" {
			return append([]string{"equip"}, words[2:]...)
		}
	case "take":
		if words[1] == "off" {
			return append([]string{"unequip"}, words[2:]...)
		}
	case "fight", "attack", "battle":
		if words[1] == "with" || words[1] == "against" {
			return append([]string{"fight"}, words[2:]...)
		}
	case "look":
		if words[1] == "for" {
			return []string{"hunt"}
		}
	}

	return words
}

// splitTargets splits the argument words on commas and "and".
func splitTargets(words []string) [][]string {
	var groups [][]string
	var cur []string
	flush := func() {
		if len(cur) > 0 {
			groups = append(groups, cur)
			cur = nil
		}
	}
	for _, w := range words {
		if w == "and" || w == "," || w == "&" {
			flush()
			continue
		}
		parts := strings.Split(w, ",")
		for i, p := range parts {
			if i > 0 {
				flush()
			}
			if p != "" {
				cur = append(cur, p)
			}
		}
	}
	flush()
	return groups
}

// parseTarget reads an optional leading count ("3", "x3", "three") and
// drops articles. A group with no name left is ignored.
func parseTarget(words []string) (types.Target, bool) {
	t := types.Target{Count: 1}
	if len(words) > 1 {
		if n, ok := count(words[0]); ok {
			t.Count = n
			words = words[1:]
		}
	}
	var name []string
	for _, w := range words {
		if !articles[w] {
			name = append(name, w)
		}
	}
	if len(name) == 0 {
		return t, false
	}
	t.Name = strings.Join(name, " ")
	return t, true
}

func count(w string) (int, bool) {
	if n, ok := numberWords[w]; ok {
		return n, true
	}
	n, err := strconv.Atoi(strings.TrimPrefix(w, "x"))
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
