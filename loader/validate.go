package loader

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/nathoo/kimaer/engine/effects"
	"github.com/nathoo/kimaer/engine/state"
	"github.com/nathoo/kimaer/types"
)

// ValidationError collects all validation errors and warnings.
type ValidationError struct {
	Errors   []string
	Warnings []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed with %d error(s):\n  %s",
		len(e.Errors), strings.Join(e.Errors, "\n  "))
}

func (e *ValidationError) errorf(format string, args ...any) {
	e.Errors = append(e.Errors, fmt.Sprintf(format, args...))
}

func (e *ValidationError) warnf(format string, args ...any) {
	e.Warnings = append(e.Warnings, fmt.Sprintf(format, args...))
}

var validPools = map[types.SkillPool]bool{
	types.PoolSpells:     true,
	types.PoolTechniques: true,
}

var validTargets = map[types.SkillTarget]bool{
	types.TargetSingle:  true,
	types.TargetEnemies: true,
	types.TargetSelf:    true,
}

var validKinds = map[types.ItemKind]bool{
	types.ItemWeapon:     true,
	types.ItemArmor:      true,
	types.ItemConsumable: true,
	types.ItemMisc:       true,
}

// validate checks the compiled defs for referential integrity and sane
// numbers. Warnings are logged; errors fail the load.
func validate(defs *state.Defs) error {
	ve := check(defs)
	for _, w := range ve.Warnings {
		logrus.WithField("component", "loader").Warn(w)
	}
	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func check(defs *state.Defs) *ValidationError {
	ve := &ValidationError{}

	if defs.Game.Title == "" {
		ve.errorf("Game.title is required")
	}
	if len(defs.Enemies) == 0 {
		ve.warnf("no enemies defined")
	}

	for _, name := range sortedKeys(defs.Classes) {
		validateClass(defs, defs.Classes[name], ve)
	}
	for _, name := range sortedKeys(defs.Enemies) {
		validateEnemy(defs, defs.Enemies[name], ve)
	}
	for _, sk := range defs.Skills {
		validateSkill(defs, sk, ve)
	}
	for _, name := range sortedKeys(defs.Items) {
		validateItem(defs.Items[name], ve)
	}
	for _, name := range sortedKeys(defs.Encounters) {
		validateEncounter(defs, defs.Encounters[name], ve)
	}
	return ve
}

func validateClass(defs *state.Defs, c types.ClassDef, ve *ValidationError) {
	if c.HealthMod <= 0 {
		ve.errorf("class %q health modifier must be positive, got %g", c.Name, c.HealthMod)
	}
	if c.DamageMod < 0 || c.GoldMod < 0 || c.ManaMod < 0 || c.StaminaMod < 0 {
		ve.errorf("class %q has a negative modifier", c.Name)
	}
	if len(c.Pools) > 2 {
		ve.errorf("class %q lists %d skill pools, at most 2 allowed", c.Name, len(c.Pools))
	}
	for _, p := range c.Pools {
		if !validPools[p] {
			ve.errorf("class %q has unknown skill pool %q", c.Name, p)
		}
	}
	owned := 0
	for _, sk := range defs.Skills {
		if sk.Class == c.Name {
			owned++
		}
	}
	if owned == 0 {
		ve.warnf("class %q has no skills of its own", c.Name)
	}
}

func validateEnemy(defs *state.Defs, e types.EnemyDef, ve *ValidationError) {
	if e.Health <= 0 {
		ve.errorf("enemy %q health must be positive, got %d", e.Name, e.Health)
	}
	if e.Damage < 0 || e.Defense < 0 {
		ve.errorf("enemy %q has negative damage or defense", e.Name)
	}
	if e.Difficulty <= 0 {
		ve.errorf("enemy %q difficulty must be positive, got %g", e.Name, e.Difficulty)
	}
	validateRange(ve, fmt.Sprintf("enemy %q gold", e.Name), e.Gold)
	validateRange(ve, fmt.Sprintf("enemy %q xp", e.Name), e.XP)
	for _, d := range e.Drops {
		if _, ok := defs.Items[d.Item]; !ok {
			ve.errorf("enemy %q drops undefined item %q", e.Name, d.Item)
		}
		if d.Chance < 0 || d.Chance > 1 {
			ve.errorf("enemy %q drop %q chance %g outside [0, 1]", e.Name, d.Item, d.Chance)
		}
	}
}

func validateRange(ve *ValidationError, what string, r types.Range) {
	if r.Min < 0 || r.Max < r.Min {
		ve.errorf("%s range [%d, %d] is invalid", what, r.Min, r.Max)
	}
}

func validateSkill(defs *state.Defs, sk types.SkillDef, ve *ValidationError) {
	if !validPools[sk.Pool] {
		ve.errorf("skill %q has unknown pool %q", sk.Name, sk.Pool)
	}
	if sk.Class != "" {
		if _, ok := defs.Classes[sk.Class]; !ok {
			ve.errorf("skill %q belongs to undefined class %q", sk.Name, sk.Class)
		}
	}
	if !validTargets[sk.Target] {
		ve.errorf("skill %q has unknown target %q", sk.Name, sk.Target)
	}
	if sk.Cost.Amount < 0 {
		ve.errorf("skill %q has a negative cost", sk.Name)
	}
	if len(sk.Sequence) == 0 {
		ve.errorf("skill %q has an empty input sequence", sk.Name)
	}
	for _, k := range sk.Sequence {
		if k == "" {
			ve.errorf("skill %q has an empty key in its sequence", sk.Name)
		}
	}
	if sk.SequenceTime <= 0 {
		ve.errorf("skill %q time per key must be positive, got %g", sk.Name, sk.SequenceTime)
	}
	if sk.Damage < 0 || sk.Heal < 0 {
		ve.errorf("skill %q has negative damage or heal", sk.Name)
	}
	if sk.Effect != nil {
		def, ok := effects.Lookup(sk.Effect.Type)
		switch {
		case !ok:
			ve.errorf("skill %q applies unknown effect %q", sk.Name, sk.Effect.Type)
		case sk.Target == types.TargetSelf && def.Target == types.SideEnemy:
			ve.errorf("skill %q targets self but %q only affects enemies", sk.Name, sk.Effect.Type)
		}
		if sk.Effect.Duration < 1 {
			ve.errorf("skill %q effect duration must be at least 1", sk.Name)
		}
	}
	if sk.Damage == 0 && sk.Heal == 0 && sk.Effect == nil {
		ve.warnf("skill %q does nothing", sk.Name)
	}
}

func validateItem(it types.ItemDef, ve *ValidationError) {
	if !validKinds[it.Kind] {
		ve.errorf("item %q has unknown kind %q", it.Name, it.Kind)
	}
	if it.Kind == types.ItemWeapon {
		validateRange(ve, fmt.Sprintf("weapon %q damage", it.Name), it.Damage)
	}
	if it.Value < 0 {
		ve.errorf("item %q has a negative value", it.Name)
	}
}

func validateEncounter(defs *state.Defs, enc types.EncounterDef, ve *ValidationError) {
	if len(enc.Enemies) == 0 {
		ve.errorf("encounter %q has no enemies", enc.Name)
	}
	for _, n := range enc.Enemies {
		if _, ok := defs.Enemies[n]; !ok {
			ve.errorf("encounter %q references undefined enemy %q", enc.Name, n)
		}
	}
	if enc.Weight < 0 {
		ve.errorf("encounter %q weight must not be negative", enc.Name)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
