// Package skills resolves skill casts: which skills a class may use, the
// resource check, the timed-input sequence and the scaled outcome.
package skills

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/nathoo/kimaer/engine/effects"
	"github.com/nathoo/kimaer/engine/enemy"
	"github.com/nathoo/kimaer/engine/state"
	"github.com/nathoo/kimaer/engine/ui"
	"github.com/nathoo/kimaer/types"
)

const (
	shortPause = time.Second
	longPause  = 2 * time.Second
)

// Sequencer runs a multi-step timed input and reports how many steps hit.
type Sequencer interface {
	Sequence(ctx context.Context, keys []string, limit time.Duration) int
}

// Available returns the skills the class can use at level, ordered by
// unlock level and then name. A skill is usable when it belongs to one of
// the class's pools and either names the class or names no class.
func Available(defs *state.Defs, class types.ClassDef, level int) []types.SkillDef {
	var out []types.SkillDef
	for _, sk := range defs.Skills {
		if !slices.Contains(class.Pools, sk.Pool) {
			continue
		}
		if sk.Class != "" && sk.Class != class.Name {
			continue
		}
		if sk.UnlockLevel > level {
			continue
		}
		out = append(out, sk)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].UnlockLevel != out[j].UnlockLevel {
			return out[i].UnlockLevel < out[j].UnlockLevel
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Affordable reports whether the player can pay for at least one skill.
func Affordable(player *types.State, skills []types.SkillDef) bool {
	for _, sk := range skills {
		if p := pool(player, sk.Cost.Resource); p != nil && *p >= sk.Cost.Amount {
			return true
		}
	}
	return false
}

// CostLabel renders a skill cost: "12 MP" or "8 SP".
func CostLabel(c types.SkillCost) string {
	if c.Resource == types.ResourceMana {
		return fmt.Sprintf("%d MP", c.Amount)
	}
	return fmt.Sprintf("%d SP", c.Amount)
}

// Resolver casts skills for the player.
type Resolver struct {
	Defs    *state.Defs
	Console ui.Console
	Input   Sequencer
	// Scale multiplies message pauses; zero means 1.
	Scale float64
}

func (r *Resolver) pause(d time.Duration) {
	scale := r.Scale
	if scale <= 0 {
		scale = 1
	}
	r.Console.Pause(time.Duration(float64(d) * scale))
}

// Cast lets the player pick and perform a skill. A cancelled result costs
// nothing. Errors come only from the console or from a malformed skill.
func (r *Resolver) Cast(ctx context.Context, player *types.State, class types.ClassDef, enemies []*enemy.Enemy) (types.SkillResult, error) {
	cancelled := types.SkillResult{Kind: types.SkillCancelled}

	avail := Available(r.Defs, class, player.Level)
	if len(avail) == 0 {
		r.Console.Say(ui.ToneInfo, "No skills available.")
		r.pause(shortPause)
		return cancelled, nil
	}

	options := make([]string, 0, len(avail)+1)
	for _, sk := range avail {
		options = append(options, fmt.Sprintf("%s  [%s]  -  %s", sk.Name, CostLabel(sk.Cost), sk.Description))
	}
	options = append(options, "Cancel")

	r.Console.Clear()
	choice, err := r.Console.Menu("=== Skills ===", options)
	if err != nil {
		return cancelled, err
	}
	if choice < 0 || choice >= len(avail) {
		return cancelled, nil
	}
	sk := avail[choice]
	cancelled.Skill = sk.Name

	switch sk.Target {
	case types.TargetSingle, types.TargetEnemies, types.TargetSelf:
	default:
		return cancelled, fmt.Errorf("skill %q: unknown target %q", sk.Name, sk.Target)
	}
	if len(sk.Sequence) == 0 {
		return cancelled, fmt.Errorf("skill %q: empty input sequence", sk.Name)
	}

	p := pool(player, sk.Cost.Resource)
	if p == nil {
		return cancelled, fmt.Errorf("skill %q: unknown resource %q", sk.Name, sk.Cost.Resource)
	}
	if *p < sk.Cost.Amount {
		r.Console.Say(ui.ToneBad, fmt.Sprintf("Not enough %s!", sk.Cost.Resource))
		r.pause(shortPause)
		return cancelled, nil
	}
	*p -= sk.Cost.Amount

	alive := aliveOf(enemies)
	var targets []*enemy.Enemy
	switch sk.Target {
	case types.TargetSingle:
		switch len(alive) {
		case 0:
		case 1:
			targets = alive
		default:
			names := make([]string, len(alive))
			for i, e := range alive {
				names[i] = e.Name
			}
			r.Console.Clear()
			idx, err := r.Console.Menu("Choose target:", names)
			if err != nil {
				return types.SkillResult{Kind: types.SkillCancelled, Skill: sk.Name}, err
			}
			targets = alive[idx : idx+1]
		}
	case types.TargetEnemies:
		targets = alive
	}

	limit := time.Duration(sk.SequenceTime * float64(time.Second))
	hits := r.Input.Sequence(ctx, sk.Sequence, limit)
	ratio := float64(hits) / float64(len(sk.Sequence))

	r.Console.Clear()
	r.Console.Say(ui.ToneTitle, fmt.Sprintf("=== %s ===", sk.Name))

	if hits == 0 {
		r.Console.Say(ui.ToneBad, "No inputs hit! Skill fizzled.")
		r.pause(longPause)
		return types.SkillResult{Kind: types.SkillFizzled, Skill: sk.Name}, nil
	}

	if hits == len(sk.Sequence) {
		r.Console.Say(ui.ToneGood, "PERFECT!")
	} else {
		r.Console.Say(ui.ToneWarn, fmt.Sprintf("Partial: %d/%d inputs (%d%%)", hits, len(sk.Sequence), int(ratio*100)))
	}

	res := types.SkillResult{Kind: types.SkillCast, Skill: sk.Name, Hits: hits}

	if sk.Damage > 0 {
		dmg := int(float64(int(float64(sk.Damage)*ratio)) * effects.DamageModifier(player.Effects))
		for _, e := range targets {
			actual := e.TakeDamage(dmg)
			r.Console.Say(ui.ToneWarn, fmt.Sprintf("%s takes %d damage!", e.Name, actual))
			if !e.Alive() {
				r.Console.Say(ui.ToneGood, fmt.Sprintf("%s defeated!", e.Name))
			}
		}
		res.Damage = dmg
	}

	if sk.Heal > 0 {
		before := player.Health
		player.Health = min(player.MaxHealth, player.Health+int(float64(sk.Heal)*ratio))
		res.Heal = player.Health - before
		r.Console.Say(ui.ToneGood, fmt.Sprintf("Restored %d health!", res.Heal))
	}

	if sk.Effect != nil {
		duration := max(1, int(float64(sk.Effect.Duration)*ratio))
		r.applyEffect(player, targets, *sk.Effect, duration)
	}

	r.pause(longPause)
	return res, nil
}

// applyEffect puts a skill's effect on the caster when the catalog says
// it is a player effect, and on every living target otherwise.
func (r *Resolver) applyEffect(player *types.State, targets []*enemy.Enemy, eff types.SkillEffect, duration int) {
	def, ok := effects.Lookup(eff.Type)
	if !ok {
		return
	}
	value := eff.Value
	if value == 0 {
		value = def.Magnitude
	}

	if def.Target == types.SidePlayer {
		effects.ApplyValue(&player.Effects, eff.Type, duration, value)
		r.Console.Say(ui.ToneInfo, selfMessage(eff.Type, value, duration))
		return
	}

	switch eff.Type {
	case effects.Poison:
		if value > 0 {
			value = -value
		}
	case effects.Stun:
		value = 1
	}
	for _, e := range targets {
		if !e.Alive() {
			continue
		}
		effects.ApplyValue(&e.Effects, eff.Type, duration, value)
		r.Console.Say(ui.ToneInfo, targetMessage(e.Name, eff.Type, value, duration))
	}
}

func selfMessage(t types.EffectType, value float64, duration int) string {
	switch t {
	case effects.DamageBuff:
		return fmt.Sprintf("Damage buffed x%g for %d turns!", value, duration)
	case effects.DefenseBuff:
		return fmt.Sprintf("%+d defense for %d turns!", int(value), duration)
	case effects.DodgeChance:
		return fmt.Sprintf("%d%% dodge for %d turns!", int(value*100), duration)
	default:
		return fmt.Sprintf("%s for %d turns!", effects.Name(t), duration)
	}
}

func targetMessage(name string, t types.EffectType, value float64, duration int) string {
	switch t {
	case effects.Poison:
		return fmt.Sprintf("%s is poisoned! (%d dmg/turn for %d turns)", name, int(-value), duration)
	case effects.Stun:
		return fmt.Sprintf("%s is stunned for %d turn(s)!", name, duration)
	default:
		return fmt.Sprintf("%s suffers %s for %d turns!", name, effects.Name(t), duration)
	}
}

func pool(player *types.State, r types.Resource) *int {
	switch r {
	case types.ResourceMana:
		return &player.Mana
	case types.ResourceStamina:
		return &player.Stamina
	}
	return nil
}

func aliveOf(enemies []*enemy.Enemy) []*enemy.Enemy {
	var out []*enemy.Enemy
	for _, e := range enemies {
		if e.Alive() {
			out = append(out, e)
		}
	}
	return out
}
