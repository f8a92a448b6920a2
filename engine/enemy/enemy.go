// Package enemy builds runtime combatants from catalog entries.
package enemy

import (
	"fmt"

	"github.com/nathoo/kimaer/engine/effects"
	"github.com/nathoo/kimaer/engine/state"
	"github.com/nathoo/kimaer/types"
)

// Rand is the randomness an enemy needs for loot.
type Rand interface {
	Between(lo, hi int) int
	Chance(p float64) bool
}

// Enemy is one combatant in an encounter. Health may go negative; anything
// at or below zero is dead.
type Enemy struct {
	types.Vitals
	Name       string
	Damage     int
	Defense    int
	Difficulty float64
	Effects    []types.ActiveEffect

	def types.EnemyDef
}

// New creates an enemy at full health from the catalog entry for name.
func New(defs *state.Defs, name string) (*Enemy, error) {
	def, ok := defs.Enemies[name]
	if !ok {
		return nil, fmt.Errorf("unknown enemy %q", name)
	}
	difficulty := def.Difficulty
	if difficulty <= 0 {
		difficulty = 1
	}
	return &Enemy{
		Vitals:     types.Vitals{Health: def.Health, MaxHealth: def.Health},
		Name:       def.Name,
		Damage:     def.Damage,
		Defense:    def.Defense,
		Difficulty: difficulty,
		Effects:    []types.ActiveEffect{},
		def:        def,
	}, nil
}

// Alive reports whether the enemy still stands.
func (e *Enemy) Alive() bool {
	return e.Health > 0
}

// EffectiveDefense is the base defense after armor_break and expose.
func (e *Enemy) EffectiveDefense() int {
	d := float64(e.Defense+effects.DefenseBonus(e.Effects)) * effects.DefenseMultiplier(e.Effects)
	return int(d)
}

// TakeDamage applies an incoming hit, reduced by defense but never below
// 1, and returns the damage dealt.
func (e *Enemy) TakeDamage(amount int) int {
	actual := max(1, amount-e.EffectiveDefense())
	e.Health -= actual
	return actual
}

// RollLoot rolls gold, drops and experience. Each drop is rolled on its own.
func (e *Enemy) RollLoot(r Rand) types.Loot {
	loot := types.Loot{Gold: r.Between(e.def.Gold.Min, e.def.Gold.Max)}
	for _, d := range e.def.Drops {
		if r.Chance(d.Chance) {
			loot.Items = append(loot.Items, d.Item)
		}
	}
	loot.XP = r.Between(e.def.XP.Min, e.def.XP.Max)
	return loot
}

// Tags are the status markers shown next to the enemy's name.
func (e *Enemy) Tags() []string {
	var tags []string
	if n := effects.Remaining(e.Effects, effects.Poison); n > 0 {
		tags = append(tags, fmt.Sprintf("Poisoned(%dt)", n))
	}
	if effects.IsStunned(e.Effects) {
		tags = append(tags, "Stunned")
	}
	if effects.DefenseBonus(e.Effects) < 0 || effects.DefenseMultiplier(e.Effects) < 1 {
		tags = append(tags, "Exposed")
	}
	return tags
}

// Description is the catalog flavour text.
func (e *Enemy) Description() string {
	return e.def.Description
}
