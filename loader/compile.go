// Package loader loads Lua game content into Go structs at startup.
// The Lua VM is discarded after loading, so no Lua runs during play.
package loader

import (
	"fmt"
	"sort"

	lua "github.com/yuin/gopher-lua"

	"github.com/nathoo/kimaer/engine/state"
	"github.com/nathoo/kimaer/types"
)

const defaultSequenceTime = 1.5

// rawDef holds a named definition table before compilation. kind is set by
// the constructor that produced it (skill pool or item kind) and may be empty.
type rawDef struct {
	name  string
	kind  string
	table *lua.LTable
}

// getString returns a string field from a Lua table, or "" if missing.
func getString(tbl *lua.LTable, key string) string {
	v := tbl.RawGetString(key)
	if s, ok := v.(lua.LString); ok {
		return string(s)
	}
	return ""
}

// getNumber returns a numeric field from a Lua table, or def if missing.
func getNumber(tbl *lua.LTable, key string, def float64) float64 {
	v := tbl.RawGetString(key)
	if n, ok := v.(lua.LNumber); ok {
		return float64(n)
	}
	return def
}

// getInt returns an int field from a Lua table, or 0 if missing.
func getInt(tbl *lua.LTable, key string) int {
	return int(getNumber(tbl, key, 0))
}

// getTable returns a table field from a Lua table, or nil if missing.
func getTable(tbl *lua.LTable, key string) *lua.LTable {
	v := tbl.RawGetString(key)
	if t, ok := v.(*lua.LTable); ok {
		return t
	}
	return nil
}

// getStrings returns the string elements of an array field.
func getStrings(tbl *lua.LTable, key string) []string {
	arr := getTable(tbl, key)
	if arr == nil {
		return nil
	}
	out := make([]string, 0, arr.MaxN())
	for i := 1; i <= arr.MaxN(); i++ {
		if s, ok := arr.RawGetInt(i).(lua.LString); ok {
			out = append(out, string(s))
		}
	}
	return out
}

// getRange reads either a single number (fixed value) or a {lo, hi} pair.
func getRange(tbl *lua.LTable, key string) types.Range {
	switch v := tbl.RawGetString(key).(type) {
	case lua.LNumber:
		return types.Range{Min: int(v), Max: int(v)}
	case *lua.LTable:
		lo, _ := v.RawGetInt(1).(lua.LNumber)
		hi, ok := v.RawGetInt(2).(lua.LNumber)
		if !ok {
			hi = lo
		}
		return types.Range{Min: int(lo), Max: int(hi)}
	}
	return types.Range{}
}

// compile converts all collected Lua data into a Defs struct.
func compile(coll *collector) (*state.Defs, error) {
	defs := &state.Defs{
		Classes:    map[string]types.ClassDef{},
		Enemies:    map[string]types.EnemyDef{},
		Encounters: map[string]types.EncounterDef{},
		Items:      map[string]types.ItemDef{},
	}

	if coll.game == nil {
		return nil, fmt.Errorf("no Game{} definition found")
	}
	defs.Game = compileGame(coll.game)

	for _, raw := range coll.classes {
		if _, dup := defs.Classes[raw.name]; dup {
			return nil, fmt.Errorf("duplicate class %q", raw.name)
		}
		defs.Classes[raw.name] = compileClass(raw)
	}

	for _, raw := range coll.enemies {
		if _, dup := defs.Enemies[raw.name]; dup {
			return nil, fmt.Errorf("duplicate enemy %q", raw.name)
		}
		enemy, err := compileEnemy(raw)
		if err != nil {
			return nil, fmt.Errorf("compiling enemy %s: %w", raw.name, err)
		}
		defs.Enemies[raw.name] = enemy
	}

	seen := map[string]bool{}
	for _, raw := range coll.skills {
		if seen[raw.name] {
			return nil, fmt.Errorf("duplicate skill %q", raw.name)
		}
		seen[raw.name] = true
		skill, err := compileSkill(raw)
		if err != nil {
			return nil, fmt.Errorf("compiling skill %s: %w", raw.name, err)
		}
		defs.Skills = append(defs.Skills, skill)
	}

	for _, raw := range coll.items {
		if _, dup := defs.Items[raw.name]; dup {
			return nil, fmt.Errorf("duplicate item %q", raw.name)
		}
		defs.Items[raw.name] = compileItem(raw)
	}

	for _, raw := range coll.encounters {
		if _, dup := defs.Encounters[raw.name]; dup {
			return nil, fmt.Errorf("duplicate encounter %q", raw.name)
		}
		defs.Encounters[raw.name] = compileEncounter(raw)
	}

	return defs, nil
}

func compileGame(tbl *lua.LTable) types.GameDef {
	return types.GameDef{
		Title:   getString(tbl, "title"),
		Author:  getString(tbl, "author"),
		Version: getString(tbl, "version"),
		Intro:   getString(tbl, "intro"),
	}
}

func compileClass(raw rawDef) types.ClassDef {
	tbl := raw.table
	c := types.ClassDef{
		Name:        raw.name,
		Description: getString(tbl, "description"),
		HealthMod:   getNumber(tbl, "health", 1),
		DamageMod:   getNumber(tbl, "damage", 1),
		GoldMod:     getNumber(tbl, "gold", 1),
		ManaMod:     getNumber(tbl, "mana", 0),
		StaminaMod:  getNumber(tbl, "stamina", 0),
	}
	for _, p := range getStrings(tbl, "pools") {
		c.Pools = append(c.Pools, types.SkillPool(p))
	}
	return c
}

func compileEnemy(raw rawDef) (types.EnemyDef, error) {
	tbl := raw.table
	e := types.EnemyDef{
		Name:        raw.name,
		Health:      getInt(tbl, "health"),
		Damage:      getInt(tbl, "damage"),
		Defense:     getInt(tbl, "defense"),
		Gold:        getRange(tbl, "gold"),
		XP:          getRange(tbl, "xp"),
		Description: getString(tbl, "description"),
		Difficulty:  getNumber(tbl, "difficulty", 1),
	}
	if drops := getTable(tbl, "drops"); drops != nil {
		for i := 1; i <= drops.MaxN(); i++ {
			entry, ok := drops.RawGetInt(i).(*lua.LTable)
			if !ok {
				return e, fmt.Errorf("drop %d is not a table", i)
			}
			item, ok := entry.RawGetInt(1).(lua.LString)
			if !ok {
				return e, fmt.Errorf("drop %d has no item name", i)
			}
			chance, _ := entry.RawGetInt(2).(lua.LNumber)
			e.Drops = append(e.Drops, types.Drop{Item: string(item), Chance: float64(chance)})
		}
	}
	return e, nil
}

func compileSkill(raw rawDef) (types.SkillDef, error) {
	tbl := raw.table
	s := types.SkillDef{
		Name:         raw.name,
		Class:        getString(tbl, "class"),
		Pool:         types.SkillPool(raw.kind),
		UnlockLevel:  max(1, getInt(tbl, "unlock")),
		Target:       types.SkillTarget(getString(tbl, "target")),
		Sequence:     getStrings(tbl, "sequence"),
		SequenceTime: getNumber(tbl, "time", defaultSequenceTime),
		Damage:       getInt(tbl, "damage"),
		Heal:         getInt(tbl, "heal"),
		Description:  getString(tbl, "description"),
	}
	if p := getString(tbl, "pool"); p != "" {
		s.Pool = types.SkillPool(p)
	}
	if s.Target == "" {
		s.Target = types.TargetSingle
	}

	mana, stamina := getInt(tbl, "mana"), getInt(tbl, "stamina")
	switch {
	case mana > 0 && stamina > 0:
		return s, fmt.Errorf("costs both mana and stamina")
	case mana > 0:
		s.Cost = types.SkillCost{Resource: types.ResourceMana, Amount: mana}
	case stamina > 0:
		s.Cost = types.SkillCost{Resource: types.ResourceStamina, Amount: stamina}
	case s.Pool == types.PoolSpells:
		s.Cost = types.SkillCost{Resource: types.ResourceMana}
	default:
		s.Cost = types.SkillCost{Resource: types.ResourceStamina}
	}

	if eff := getTable(tbl, "effect"); eff != nil {
		s.Effect = &types.SkillEffect{
			Type:     types.EffectType(getString(eff, "type")),
			Value:    getNumber(eff, "value", 0),
			Duration: getInt(eff, "duration"),
		}
	}
	return s, nil
}

func compileItem(raw rawDef) types.ItemDef {
	tbl := raw.table
	kind := raw.kind
	if k := getString(tbl, "kind"); k != "" {
		kind = k
	}
	if kind == "" {
		kind = string(types.ItemMisc)
	}
	return types.ItemDef{
		Name:        raw.name,
		Kind:        types.ItemKind(kind),
		Damage:      getRange(tbl, "damage"),
		Defense:     getInt(tbl, "defense"),
		Value:       getInt(tbl, "value"),
		Description: getString(tbl, "description"),
	}
}

func compileEncounter(raw rawDef) types.EncounterDef {
	tbl := raw.table
	weight := 1
	if v, ok := tbl.RawGetString("weight").(lua.LNumber); ok {
		weight = int(v)
	}
	return types.EncounterDef{
		Name:    raw.name,
		Intro:   getString(tbl, "intro"),
		Enemies: getStrings(tbl, "enemies"),
		Weight:  weight,
	}
}

// sortedLuaFiles returns .lua files with game.lua first and the rest
// sorted alphabetically.
func sortedLuaFiles(files []string) []string {
	var gameFile string
	var others []string
	for _, f := range files {
		if f == "game.lua" {
			gameFile = f
		} else {
			others = append(others, f)
		}
	}
	sort.Strings(others)
	if gameFile != "" {
		return append([]string{gameFile}, others...)
	}
	return others
}
