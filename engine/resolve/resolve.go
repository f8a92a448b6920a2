// Package resolve maps the names a player types to catalog names.
package resolve

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nathoo/kimaer/engine/state"
	"github.com/nathoo/kimaer/types"
)

// AmbiguityError indicates several names matched.
type AmbiguityError struct {
	Name       string
	Candidates []string
}

func (e *AmbiguityError) Error() string {
	return fmt.Sprintf("which %s? (%s)", e.Name, strings.Join(e.Candidates, ", "))
}

// NotFoundError indicates nothing matched.
type NotFoundError struct {
	Kind string // "enemy", "item you carry", ...
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no %s called %q", e.Kind, e.Name)
}

// Enemy resolves an enemy name from the bestiary.
func Enemy(defs *state.Defs, name string) (string, error) {
	return match("enemy", name, state.EnemyNames(defs))
}

// Encounter resolves an encounter name.
func Encounter(defs *state.Defs, name string) (string, error) {
	names := make([]string, 0, len(defs.Encounters))
	for n := range defs.Encounters {
		names = append(names, n)
	}
	sort.Strings(names)
	return match("encounter", name, names)
}

// Carried resolves an item among the player's inventory.
func Carried(s *types.State, name string) (string, error) {
	names := make([]string, 0, len(s.Inventory))
	for _, st := range s.Inventory {
		names = append(names, st.Name)
	}
	return match("item you carry", name, names)
}

// Class resolves a class name.
func Class(defs *state.Defs, name string) (string, error) {
	return match("class", name, state.ClassNames(defs))
}

// match finds name among candidates. Tiers are tried in order and the first
// tier with any hit decides: exact name, a whole word of the name, a
// prefix of the name. Each tier is retried with a trailing "s" removed so
// plurals resolve ("rats" -> "Giant Rat").
func match(kind, name string, candidates []string) (string, error) {
	q := strings.ToLower(strings.TrimSpace(name))
	if q == "" {
		return "", &NotFoundError{Kind: kind, Name: name}
	}

	queries := []string{q}
	if singular := strings.TrimSuffix(q, "s"); singular != q && singular != "" {
		queries = append(queries, singular)
	}

	for _, tier := range []func(cand, q string) bool{exact, wordMatch, prefixMatch} {
		for _, query := range queries {
			var hits []string
			for _, c := range candidates {
				if tier(strings.ToLower(c), query) {
					hits = append(hits, c)
				}
			}
			switch len(hits) {
			case 0:
				continue
			case 1:
				return hits[0], nil
			default:
				return "", &AmbiguityError{Name: name, Candidates: hits}
			}
		}
	}
	return "", &NotFoundError{Kind: kind, Name: name}
}

func exact(cand, q string) bool { return cand == q }

// wordMatch matches "rat" against "giant rat" and "iron dagger" against
// "iron dagger of doom".
func wordMatch(cand, q string) bool {
	words := strings.Fields(cand)
	qw := strings.Fields(q)
	for i := 0; i+len(qw) <= len(words); i++ {
		if strings.Join(words[i:i+len(qw)], " ") == q {
			return true
		}
	}
	return false
}

func prefixMatch(cand, q string) bool {
	if strings.HasPrefix(cand, q) {
		return true
	}
	for _, w := range strings.Fields(cand) {
		if strings.HasPrefix(w, q) {
			return true
		}
	}
	return false
}
