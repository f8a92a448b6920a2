package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/nathoo/kimaer/engine/state"
)

// collector accumulates Lua definitions during file execution.
type collector struct {
	game       *lua.LTable
	classes    []rawDef
	enemies    []rawDef
	skills     []rawDef
	items      []rawDef
	encounters []rawDef
}

// Library loaders content may use. io, os, package and debug stay closed.
var safeLibs = []lua.LGFunction{lua.OpenBase, lua.OpenTable, lua.OpenString, lua.OpenMath}

// Globals removed after the libraries open: anything that loads code from
// outside the content directory, bypasses metatables or touches the GC.
// math.random goes too, since drops and gold are rolled by the engine.
var blockedGlobals = []string{
	"dofile", "loadfile", "load", "loadstring",
	"rawset", "rawget", "rawequal", "collectgarbage",
}

// Load runs every .lua file in dir (game.lua first) against the content
// API, then compiles and validates the result into Defs.
func Load(dir string) (*state.Defs, error) {
	files, err := contentFiles(dir)
	if err != nil {
		return nil, err
	}

	L, coll := newVM()
	defer L.Close()

	for _, f := range files {
		if err := L.DoFile(filepath.Join(dir, f)); err != nil {
			return nil, fmt.Errorf("executing %s: %w", f, err)
		}
	}

	defs, err := compile(coll)
	if err != nil {
		return nil, fmt.Errorf("compiling content: %w", err)
	}
	if err := validate(defs); err != nil {
		return nil, err
	}
	return defs, nil
}

func contentFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading content directory %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasSuffix(e.Name(), ".lua") {
			files = append(files, e.Name())
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .lua files found in %s", dir)
	}
	return sortedLuaFiles(files), nil
}

// newVM returns a sandboxed interpreter with the content API registered.
func newVM() (*lua.LState, *collector) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, open := range safeLibs {
		open(L)
	}
	for _, name := range blockedGlobals {
		L.SetGlobal(name, lua.LNil)
	}
	if math, ok := L.GetGlobal("math").(*lua.LTable); ok {
		math.RawSetString("randomseed", lua.LNil)
		math.RawSetString("random", lua.LNil)
	}

	coll := &collector{}
	registerAPI(L, coll)
	return L, coll
}
