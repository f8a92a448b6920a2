// Package effects holds the status effect catalog and the pure functions
// that derive combat modifiers from a combatant's active effects.
// Nothing in here touches a console or an RNG.
package effects

import (
	"fmt"
	"strings"

	"github.com/nathoo/kimaer/types"
)

const (
	DamageBuff  types.EffectType = "damage_buff"
	DefenseBuff types.EffectType = "defense_buff"
	DodgeChance types.EffectType = "dodge_chance"
	Regen       types.EffectType = "regen"
	ManaRegen   types.EffectType = "mana_regen"
	Weakness    types.EffectType = "weakness"
	Slow        types.EffectType = "slow"
	Vulnerable  types.EffectType = "vulnerable"
	Burn        types.EffectType = "burn"
	Bleed       types.EffectType = "bleed"
	Stun        types.EffectType = "stun"
	Poison      types.EffectType = "poison"
	ArmorBreak  types.EffectType = "armor_break"
	Expose      types.EffectType = "expose"
)

// Catalog is the standard effect set. It is never mutated.
var Catalog = map[types.EffectType]types.EffectDef{
	DamageBuff: {Type: DamageBuff, Category: types.CategoryBuff, Target: types.SidePlayer,
		Stat: types.StatDamage, Apply: types.ApplyPercent, Magnitude: 1.5,
		Description: "Increases damage dealt"},
	DefenseBuff: {Type: DefenseBuff, Category: types.CategoryBuff, Target: types.SidePlayer,
		Stat: types.StatDefense, Apply: types.ApplyFlat, Magnitude: 10,
		Description: "Reduces damage taken"},
	DodgeChance: {Type: DodgeChance, Category: types.CategoryBuff, Target: types.SidePlayer,
		Stat: types.StatDodge, Apply: types.ApplyPercent, Magnitude: 0.5,
		Description: "Chance to avoid attacks entirely"},
	Regen: {Type: Regen, Category: types.CategoryBuff, Target: types.SidePlayer, Ticks: true,
		Stat: types.StatHealth, Apply: types.ApplyFlat, Magnitude: 5,
		Description: "Restores health each turn"},
	ManaRegen: {Type: ManaRegen, Category: types.CategoryBuff, Target: types.SidePlayer, Ticks: true,
		Stat: types.StatMana, Apply: types.ApplyFlat, Magnitude: 5,
		Description: "Restores mana each turn"},
	Weakness: {Type: Weakness, Category: types.CategoryDebuff, Target: types.SidePlayer,
		Stat: types.StatDamage, Apply: types.ApplyPercent, Magnitude: 0.6,
		Description: "Reduces damage dealt"},
	Slow: {Type: Slow, Category: types.CategoryDebuff, Target: types.SidePlayer,
		Stat: types.StatDodge, Apply: types.ApplyPercent, Magnitude: 0.0,
		Description: "Cannot dodge"},
	Vulnerable: {Type: Vulnerable, Category: types.CategoryDebuff, Target: types.SidePlayer,
		Stat: types.StatDefense, Apply: types.ApplyFlat, Magnitude: -10,
		Description: "Takes more damage"},
	Burn: {Type: Burn, Category: types.CategoryDot, Target: types.SidePlayer, Ticks: true,
		Stat: types.StatHealth, Apply: types.ApplyFlat, Magnitude: -4,
		Description: "Takes fire damage each turn"},
	Bleed: {Type: Bleed, Category: types.CategoryDot, Target: types.SidePlayer, Ticks: true,
		Stat: types.StatHealth, Apply: types.ApplyFlat, Magnitude: -3,
		Description: "Takes damage each turn"},
	Stun: {Type: Stun, Category: types.CategoryDebuff, Target: types.SideBoth,
		Stat: types.StatNone, Apply: types.ApplyNone,
		Description: "Skips next turn"},
	Poison: {Type: Poison, Category: types.CategoryDot, Target: types.SideEnemy, Ticks: true,
		Stat: types.StatHealth, Apply: types.ApplyFlat, Magnitude: -5,
		Description: "Takes poison damage each turn"},
	ArmorBreak: {Type: ArmorBreak, Category: types.CategoryDebuff, Target: types.SideEnemy,
		Stat: types.StatDefense, Apply: types.ApplyFlat, Magnitude: -8,
		Description: "Reduced defense"},
	Expose: {Type: Expose, Category: types.CategoryDebuff, Target: types.SideEnemy,
		Stat: types.StatDefense, Apply: types.ApplyPercent, Magnitude: 0.5,
		Description: "Defense halved"},
}

// Lookup returns the catalog entry for t.
func Lookup(t types.EffectType) (types.EffectDef, bool) {
	def, ok := Catalog[t]
	return def, ok
}

// DamageModifier is the product of every percent damage effect. 1.0 if none.
func DamageModifier(effs []types.ActiveEffect) float64 {
	mod := 1.0
	for _, e := range effs {
		if def, ok := Catalog[e.Type]; ok && def.Stat == types.StatDamage && def.Apply == types.ApplyPercent {
			mod *= e.Value
		}
	}
	return mod
}

// DefenseBonus is the sum of every flat defense effect. It may be negative.
func DefenseBonus(effs []types.ActiveEffect) int {
	bonus := 0.0
	for _, e := range effs {
		if def, ok := Catalog[e.Type]; ok && def.Stat == types.StatDefense && def.Apply == types.ApplyFlat {
			bonus += e.Value
		}
	}
	return int(bonus)
}

// DefenseMultiplier is the product of every percent defense effect. 1.0 if none.
func DefenseMultiplier(effs []types.ActiveEffect) float64 {
	mod := 1.0
	for _, e := range effs {
		if def, ok := Catalog[e.Type]; ok && def.Stat == types.StatDefense && def.Apply == types.ApplyPercent {
			mod *= e.Value
		}
	}
	return mod
}

// Dodge returns the probability of avoiding an attack: the summed
// dodge buffs scaled by the product of dodge debuffs. A 0.0 debuff (slow)
// therefore cancels any dodge buff.
func Dodge(effs []types.ActiveEffect) float64 {
	buff, debuff := 0.0, 1.0
	for _, e := range effs {
		def, ok := Catalog[e.Type]
		if !ok || def.Stat != types.StatDodge {
			continue
		}
		switch def.Category {
		case types.CategoryBuff:
			buff += e.Value
		case types.CategoryDebuff:
			debuff *= e.Value
		}
	}
	return buff * debuff
}

// IsStunned reports whether a stun is active.
func IsStunned(effs []types.ActiveEffect) bool {
	for _, e := range effs {
		if e.Type == Stun {
			return true
		}
	}
	return false
}

// Remaining returns the remaining duration of t, or 0 if it is not active.
func Remaining(effs []types.ActiveEffect, t types.EffectType) int {
	for _, e := range effs {
		if e.Type == t {
			return e.Duration
		}
	}
	return 0
}

// Apply adds t with its catalog magnitude. See ApplyValue.
func Apply(effs *[]types.ActiveEffect, t types.EffectType, duration int) bool {
	def, ok := Catalog[t]
	if !ok {
		return false
	}
	return ApplyValue(effs, t, duration, def.Magnitude)
}

// ApplyValue adds t with an explicit value. An existing instance of the
// same type is refreshed in place: its duration becomes the larger of the
// two and its value is replaced. Unknown types are ignored and report false.
func ApplyValue(effs *[]types.ActiveEffect, t types.EffectType, duration int, value float64) bool {
	if _, ok := Catalog[t]; !ok {
		return false
	}
	for i := range *effs {
		e := &(*effs)[i]
		if e.Type == t {
			e.Duration = max(e.Duration, duration)
			e.Value = value
			return true
		}
	}
	*effs = append(*effs, types.ActiveEffect{Type: t, Duration: duration, Value: value})
	return true
}

// TickResult is what one end-of-turn tick did.
type TickResult struct {
	Expired []types.EffectType
	Health  int // net change requested by ticking effects, before clamping
	Mana    int
	Stamina int
}

// Tick advances effects by one turn. Ticking effects contribute their value
// to their stat, every duration drops by one, and effects reaching zero are
// removed and reported. When v is non-nil the deltas are applied to it,
// clamped to [0, max]; mana and stamina are left alone on pools with no max.
func Tick(effs *[]types.ActiveEffect, v *types.Vitals) TickResult {
	var res TickResult
	var hp, mana, stamina float64
	kept := (*effs)[:0]
	for _, e := range *effs {
		if def, ok := Catalog[e.Type]; ok && def.Ticks {
			switch def.Stat {
			case types.StatHealth:
				hp += e.Value
			case types.StatMana:
				mana += e.Value
			case types.StatStamina:
				stamina += e.Value
			}
		}
		e.Duration--
		if e.Duration <= 0 {
			res.Expired = append(res.Expired, e.Type)
			continue
		}
		kept = append(kept, e)
	}
	*effs = kept

	res.Health, res.Mana, res.Stamina = int(hp), int(mana), int(stamina)
	if v == nil {
		return res
	}
	v.Health = clamp(v.Health+res.Health, v.MaxHealth)
	if v.MaxMana > 0 {
		v.Mana = clamp(v.Mana+res.Mana, v.MaxMana)
	}
	if v.MaxStamina > 0 {
		v.Stamina = clamp(v.Stamina+res.Stamina, v.MaxStamina)
	}
	return res
}

// Name turns an effect id into display text: "armor_break" -> "Armor Break".
func Name(t types.EffectType) string {
	words := strings.Split(string(t), "_")
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// Summary renders the active effects for a status line.
func Summary(effs []types.ActiveEffect) []string {
	var out []string
	for _, e := range effs {
		def, ok := Catalog[e.Type]
		if !ok {
			continue
		}
		var s string
		switch {
		case def.Stat == types.StatDamage:
			s = fmt.Sprintf("DMG x%.1f", e.Value)
		case def.Stat == types.StatDefense && def.Apply == types.ApplyFlat:
			s = fmt.Sprintf("%+d DEF", int(e.Value))
		case def.Stat == types.StatDefense:
			s = fmt.Sprintf("DEF x%.1f", e.Value)
		case def.Stat == types.StatDodge:
			s = fmt.Sprintf("%d%% Dodge", int(e.Value*100))
		case def.Ticks:
			s = fmt.Sprintf("%s %+d", Name(e.Type), int(e.Value))
		default:
			s = Name(e.Type)
		}
		out = append(out, fmt.Sprintf("%s (%dt)", s, e.Duration))
	}
	return out
}

func clamp(n, hi int) int {
	if n < 0 {
		return 0
	}
	if n > hi {
		return hi
	}
	return n
}
