package loader

import (
	lua "github.com/yuin/gopher-lua"
)

// registerAPI registers all Lua constructors and helpers as globals.
func registerAPI(L *lua.LState, coll *collector) {
	registerConstructors(L, coll)
	registerHelpers(L)
}

func registerConstructors(L *lua.LState, coll *collector) {
	// Game { title = "...", ... }
	L.SetGlobal("Game", L.NewFunction(func(L *lua.LState) int {
		tbl := L.CheckTable(1)
		coll.game = tbl
		return 0
	}))

	// Class "Fighter" { ... }, Enemy "Goblin" { ... } and so on are curried:
	// the name call returns a function that takes the body table.
	named := map[string]*[]rawDef{
		"Class":     &coll.classes,
		"Enemy":     &coll.enemies,
		"Encounter": &coll.encounters,
	}
	for global, dst := range named {
		L.SetGlobal(global, curried(L, dst, ""))
	}

	// Skills carry their pool in the constructor name.
	L.SetGlobal("Spell", curried(L, &coll.skills, "spells"))
	L.SetGlobal("Technique", curried(L, &coll.skills, "techniques"))

	// Items carry their kind; Item defaults to misc unless kind is set.
	L.SetGlobal("Weapon", curried(L, &coll.items, "weapon"))
	L.SetGlobal("Armor", curried(L, &coll.items, "armor"))
	L.SetGlobal("Consumable", curried(L, &coll.items, "consumable"))
	L.SetGlobal("Item", curried(L, &coll.items, ""))
}

// curried returns a Lua function name -> (table -> nil) that appends the
// pair to dst, tagged with kind.
func curried(L *lua.LState, dst *[]rawDef, kind string) *lua.LFunction {
	return L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		L.Push(L.NewFunction(func(L *lua.LState) int {
			tbl := L.CheckTable(1)
			*dst = append(*dst, rawDef{name: name, kind: kind, table: tbl})
			return 0
		}))
		return 1
	})
}

func registerHelpers(L *lua.LState) {
	// Effect("poison", duration [, value])
	L.SetGlobal("Effect", L.NewFunction(func(L *lua.LState) int {
		typ := L.CheckString(1)
		duration := L.CheckInt(2)
		tbl := L.NewTable()
		tbl.RawSetString("type", lua.LString(typ))
		tbl.RawSetString("duration", lua.LNumber(duration))
		if v := L.Get(3); v != lua.LNil {
			tbl.RawSetString("value", L.CheckNumber(3))
		}
		L.Push(tbl)
		return 1
	}))

	// Drop("Rat Tail", 0.3)
	L.SetGlobal("Drop", L.NewFunction(func(L *lua.LState) int {
		item := L.CheckString(1)
		chance := L.CheckNumber(2)
		tbl := L.NewTable()
		tbl.RawSetInt(1, lua.LString(item))
		tbl.RawSetInt(2, chance)
		L.Push(tbl)
		return 1
	}))

	// Range(lo, hi)
	L.SetGlobal("Range", L.NewFunction(func(L *lua.LState) int {
		lo := L.CheckNumber(1)
		hi := L.CheckNumber(2)
		tbl := L.NewTable()
		tbl.RawSetInt(1, lo)
		tbl.RawSetInt(2, hi)
		L.Push(tbl)
		return 1
	}))
}
