package loader

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nathoo/kimaer/engine/state"
	"github.com/nathoo/kimaer/types"
)

// validDefs returns a minimal valid Defs for testing.
func validDefs() *state.Defs {
	return &state.Defs{
		Game: types.GameDef{Title: "Test"},
		Classes: map[string]types.ClassDef{
			"Rogue": {Name: "Rogue", HealthMod: 1, DamageMod: 1.2, GoldMod: 1.5, StaminaMod: 1.3,
				Pools: []types.SkillPool{types.PoolTechniques}},
		},
		Enemies: map[string]types.EnemyDef{
			"Goblin": {Name: "Goblin", Health: 25, Damage: 5, Defense: 2, Difficulty: 1,
				Gold: types.Range{Min: 3, Max: 8}, XP: types.Range{Min: 5, Max: 10},
				Drops: []types.Drop{{Item: "Goblin Ear", Chance: 0.5}}},
		},
		Skills: []types.SkillDef{{
			Name: "Backstab", Class: "Rogue", Pool: types.PoolTechniques, UnlockLevel: 1,
			Cost:     types.SkillCost{Resource: types.ResourceStamina, Amount: 8},
			Target:   types.TargetSingle,
			Sequence: []string{"s", "d"}, SequenceTime: 1.3, Damage: 20,
		}},
		Items: map[string]types.ItemDef{
			"Goblin Ear": {Name: "Goblin Ear", Kind: types.ItemMisc, Value: 3},
		},
		Encounters: map[string]types.EncounterDef{
			"Pair": {Name: "Pair", Enemies: []string{"Goblin", "Goblin"}, Weight: 1},
		},
	}
}

func TestValidate_ValidDefs(t *testing.T) {
	assert.NoError(t, validate(validDefs()))
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(d *state.Defs)
		want   string
	}{
		{"missing title", func(d *state.Defs) { d.Game.Title = "" }, "Game.title is required"},
		{"unknown pool", func(d *state.Defs) {
			c := d.Classes["Rogue"]
			c.Pools = []types.SkillPool{"prayers"}
			d.Classes["Rogue"] = c
		}, `unknown skill pool "prayers"`},
		{"three pools", func(d *state.Defs) {
			c := d.Classes["Rogue"]
			c.Pools = []types.SkillPool{types.PoolSpells, types.PoolTechniques, types.PoolSpells}
			d.Classes["Rogue"] = c
		}, "at most 2 allowed"},
		{"zero health class", func(d *state.Defs) {
			c := d.Classes["Rogue"]
			c.HealthMod = 0
			d.Classes["Rogue"] = c
		}, "health modifier must be positive"},
		{"bad gold range", func(d *state.Defs) {
			e := d.Enemies["Goblin"]
			e.Gold = types.Range{Min: 8, Max: 3}
			d.Enemies["Goblin"] = e
		}, `enemy "Goblin" gold range [8, 3] is invalid`},
		{"drop chance", func(d *state.Defs) {
			e := d.Enemies["Goblin"]
			e.Drops[0].Chance = 1.5
			d.Enemies["Goblin"] = e
		}, "outside [0, 1]"},
		{"zero difficulty", func(d *state.Defs) {
			e := d.Enemies["Goblin"]
			e.Difficulty = 0
			d.Enemies["Goblin"] = e
		}, "difficulty must be positive"},
		{"unknown skill class", func(d *state.Defs) { d.Skills[0].Class = "Bard" }, `undefined class "Bard"`},
		{"unknown target", func(d *state.Defs) { d.Skills[0].Target = "all" }, `unknown target "all"`},
		{"empty sequence", func(d *state.Defs) { d.Skills[0].Sequence = nil }, "empty input sequence"},
		{"empty key", func(d *state.Defs) { d.Skills[0].Sequence = []string{"a", ""} }, "empty key"},
		{"zero time", func(d *state.Defs) { d.Skills[0].SequenceTime = 0 }, "time per key must be positive"},
		{"unknown effect", func(d *state.Defs) {
			d.Skills[0].Effect = &types.SkillEffect{Type: "frozen", Duration: 2}
		}, `unknown effect "frozen"`},
		{"enemy effect on self", func(d *state.Defs) {
			d.Skills[0].Target = types.TargetSelf
			d.Skills[0].Effect = &types.SkillEffect{Type: "poison", Duration: 2}
		}, "only affects enemies"},
		{"zero duration", func(d *state.Defs) {
			d.Skills[0].Effect = &types.SkillEffect{Type: "regen"}
		}, "duration must be at least 1"},
		{"item kind", func(d *state.Defs) {
			d.Items["Goblin Ear"] = types.ItemDef{Name: "Goblin Ear", Kind: "trinket"}
		}, `unknown kind "trinket"`},
		{"weapon range", func(d *state.Defs) {
			d.Items["Club"] = types.ItemDef{Name: "Club", Kind: types.ItemWeapon, Damage: types.Range{Min: 5, Max: 2}}
		}, `weapon "Club" damage range`},
		{"encounter enemy", func(d *state.Defs) {
			d.Encounters["Pair"] = types.EncounterDef{Name: "Pair", Enemies: []string{"Goblin", "Troll"}}
		}, `undefined enemy "Troll"`},
		{"empty encounter", func(d *state.Defs) {
			d.Encounters["Pair"] = types.EncounterDef{Name: "Pair"}
		}, `encounter "Pair" has no enemies`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defs := validDefs()
			tt.mutate(defs)
			assert.ErrorContains(t, validate(defs), tt.want)
		})
	}
}

func TestValidate_Warnings(t *testing.T) {
	defs := validDefs()
	defs.Skills[0].Damage = 0
	defs.Classes["Cleric"] = types.ClassDef{Name: "Cleric", HealthMod: 0.7, Pools: []types.SkillPool{types.PoolSpells}}

	ve := check(defs)
	require.Empty(t, ve.Errors)
	all := strings.Join(ve.Warnings, "\n")
	assert.Contains(t, all, `skill "Backstab" does nothing`)
	assert.Contains(t, all, `class "Cleric" has no skills`)
}

func TestValidationError_ListsAll(t *testing.T) {
	defs := validDefs()
	defs.Game.Title = ""
	defs.Skills[0].Target = "all"

	var ve *ValidationError
	require.ErrorAs(t, validate(defs), &ve)
	assert.Len(t, ve.Errors, 2)
	assert.True(t, strings.HasPrefix(ve.Error(), "validation failed with 2 error(s)"), ve.Error())
}
