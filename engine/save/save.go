// Package save implements JSON serialization of the player and the save
// slots it is written to.
package save

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nathoo/kimaer/engine/state"
	"github.com/nathoo/kimaer/types"
)

// DefaultSlot is used when no save name is given.
const DefaultSlot = "quicksave"

// SaveData is the JSON-serializable save format.
type SaveData struct {
	ID      string      `json:"id"`
	Version string      `json:"version"`
	Game    string      `json:"game"`
	SavedAt time.Time   `json:"saved_at"`
	Player  types.State `json:"player"`
}

// Save serializes the player to JSON bytes.
func Save(s *types.State, defs *state.Defs) ([]byte, error) {
	data := SaveData{
		ID:      uuid.NewString(),
		Version: defs.Game.Version,
		Game:    defs.Game.Title,
		SavedAt: time.Now().UTC(),
		Player:  *s,
	}
	return json.MarshalIndent(data, "", "  ")
}

// Load deserializes JSON bytes into SaveData.
func Load(data []byte) (*SaveData, error) {
	var sd SaveData
	if err := json.Unmarshal(data, &sd); err != nil {
		return nil, err
	}
	p := &sd.Player
	if p.Level < 1 {
		return nil, fmt.Errorf("corrupt save: level %d", p.Level)
	}
	if p.MaxHealth <= 0 {
		return nil, fmt.Errorf("corrupt save: max health %d", p.MaxHealth)
	}
	// Ensure slices are never nil after load.
	if p.Inventory == nil {
		p.Inventory = []types.Stack{}
	}
	if p.Effects == nil {
		p.Effects = []types.ActiveEffect{}
	}
	if p.NextLevel <= 0 {
		p.NextLevel = 100
	}
	return &sd, nil
}

// ApplySave replaces the player with the saved one.
func ApplySave(s *types.State, sd *SaveData) {
	*s = sd.Player
}

// Store keeps save files as <Dir>/<name>.json.
type Store struct {
	Dir  string
	Defs *state.Defs
	// Slot is the name Save writes to; empty means DefaultSlot.
	Slot string
}

// Save writes the player to the store's slot.
func (st *Store) Save(s *types.State) error {
	return st.SaveAs(s, st.Slot)
}

// SaveAs writes the player to the named slot.
func (st *Store) SaveAs(s *types.State, name string) error {
	path, err := st.path(name)
	if err != nil {
		return err
	}
	data, err := Save(s, st.Defs)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(st.Dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Load reads the named slot.
func (st *Store) Load(name string) (*SaveData, error) {
	path, err := st.path(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	sd, err := Load(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return sd, nil
}

// List returns the saved slot names in alphabetical order.
func (st *Store) List() ([]string, error) {
	entries, err := os.ReadDir(st.Dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(names)
	return names, nil
}

func (st *Store) path(name string) (string, error) {
	if name == "" {
		name = st.Slot
	}
	if name == "" {
		name = DefaultSlot
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid save name %q", name)
	}
	return filepath.Join(st.Dir, name+".json"), nil
}
