// Package state holds the immutable content definitions and the helpers
// that create and mutate a player's persistent state (inventory,
// equipment, experience).
package state

import (
	"fmt"
	"sort"

	"github.com/nathoo/kimaer/types"
)

const (
	baseHealth  = 100
	basePool    = 60
	firstLevel  = 100
	levelGrowth = 1.5
)

// Defs holds the immutable game definitions loaded from Lua.
type Defs struct {
	Game       types.GameDef
	Classes    map[string]types.ClassDef
	Enemies    map[string]types.EnemyDef
	Encounters map[string]types.EncounterDef
	Skills     []types.SkillDef // load order
	Items      map[string]types.ItemDef
}

// NewState creates a level 1 character of the given class. An empty class
// yields a classless adventurer with the base pools.
func NewState(defs *Defs, name, class string) (*types.State, error) {
	s := &types.State{
		Name:      name,
		Level:     1,
		NextLevel: firstLevel,
		Vitals: types.Vitals{
			Health: baseHealth, MaxHealth: baseHealth,
			Mana: basePool, MaxMana: basePool,
			Stamina: basePool, MaxStamina: basePool,
		},
		Inventory: []types.Stack{},
		Effects:   []types.ActiveEffect{},
	}
	if s.Name == "" {
		s.Name = "Adventurer"
	}
	if class == "" {
		return s, nil
	}
	c, ok := defs.Classes[class]
	if !ok {
		return nil, fmt.Errorf("unknown class %q", class)
	}
	s.Class = c.Name
	s.MaxHealth = int(baseHealth * c.HealthMod)
	s.Health = s.MaxHealth
	s.MaxMana = int(basePool * c.ManaMod)
	s.Mana = s.MaxMana
	s.MaxStamina = int(basePool * c.StaminaMod)
	s.Stamina = s.MaxStamina
	return s, nil
}

// ClassOf returns the player's class definition. Players without a known
// class get neutral modifiers and no skill pools.
func ClassOf(defs *Defs, s *types.State) types.ClassDef {
	if c, ok := defs.Classes[s.Class]; ok {
		return c
	}
	return types.ClassDef{
		Name:       s.Class,
		HealthMod:  1,
		DamageMod:  1,
		GoldMod:    1,
		ManaMod:    1,
		StaminaMod: 1,
	}
}

// ClassNames returns the defined classes in alphabetical order.
func ClassNames(defs *Defs) []string {
	names := make([]string, 0, len(defs.Classes))
	for n := range defs.Classes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// EnemyNames returns the defined enemies in alphabetical order.
func EnemyNames(defs *Defs) []string {
	names := make([]string, 0, len(defs.Enemies))
	for n := range defs.Enemies {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// HasItem returns true if the player carries at least one of the item.
func HasItem(s *types.State, name string) bool {
	return Count(s, name) > 0
}

// Count returns how many of the item the player carries.
func Count(s *types.State, name string) int {
	for _, st := range s.Inventory {
		if st.Name == name {
			return st.Count
		}
	}
	return 0
}

// AddItem stacks count of a known item into the inventory.
func AddItem(defs *Defs, s *types.State, name string, count int) error {
	if _, ok := defs.Items[name]; !ok {
		return fmt.Errorf("unknown item %q", name)
	}
	for i := range s.Inventory {
		if s.Inventory[i].Name == name {
			s.Inventory[i].Count += count
			return nil
		}
	}
	s.Inventory = append(s.Inventory, types.Stack{Name: name, Count: count})
	return nil
}

// RemoveItem takes count of the item away. It returns false, changing
// nothing, when the player has fewer than count.
func RemoveItem(s *types.State, name string, count int) bool {
	for i, st := range s.Inventory {
		if st.Name != name {
			continue
		}
		if st.Count < count {
			return false
		}
		s.Inventory[i].Count -= count
		if s.Inventory[i].Count == 0 {
			s.Inventory = append(s.Inventory[:i], s.Inventory[i+1:]...)
		}
		return true
	}
	return false
}

// Equip puts a carried weapon or armor in its slot.
func Equip(defs *Defs, s *types.State, name string) (types.ItemKind, error) {
	item, ok := defs.Items[name]
	if !ok {
		return "", fmt.Errorf("unknown item %q", name)
	}
	if !HasItem(s, name) {
		return "", fmt.Errorf("you don't have %s", name)
	}
	switch item.Kind {
	case types.ItemWeapon:
		s.EquippedWeapon = name
	case types.ItemArmor:
		s.EquippedArmor = name
	default:
		return "", fmt.Errorf("%s can't be equipped", name)
	}
	return item.Kind, nil
}

// Unequip empties a slot and returns what was in it.
func Unequip(s *types.State, kind types.ItemKind) (string, error) {
	var prev string
	switch kind {
	case types.ItemWeapon:
		prev, s.EquippedWeapon = s.EquippedWeapon, ""
	case types.ItemArmor:
		prev, s.EquippedArmor = s.EquippedArmor, ""
	default:
		return "", fmt.Errorf("no %s slot", kind)
	}
	if prev == "" {
		return "", fmt.Errorf("nothing equipped as %s", kind)
	}
	return prev, nil
}

// Weapon returns the equipped weapon, if any.
func Weapon(defs *Defs, s *types.State) (types.ItemDef, bool) {
	if s.EquippedWeapon == "" {
		return types.ItemDef{}, false
	}
	w, ok := defs.Items[s.EquippedWeapon]
	return w, ok
}

// Armor returns the defense of the equipped armor, 0 if none.
func Armor(defs *Defs, s *types.State) int {
	if s.EquippedArmor == "" {
		return 0
	}
	return defs.Items[s.EquippedArmor].Defense
}

// Rest restores every pool and clears lingering effects.
func Rest(s *types.State) {
	s.Health = s.MaxHealth
	s.Mana = s.MaxMana
	s.Stamina = s.MaxStamina
	s.Effects = s.Effects[:0]
	s.Defeated = false
}

// Leveler grants loot and experience against a set of definitions.
type Leveler struct {
	Defs *Defs
}

// AddItem implements the combat loop's inventory port.
func (l Leveler) AddItem(s *types.State, name string, count int) error {
	return AddItem(l.Defs, s, name, count)
}

// GrantExperience adds xp, levels up as many times as the total allows
// and returns the announcements, including skills unlocked at each new
// level for the player's class.
func (l Leveler) GrantExperience(s *types.State, amount int) []string {
	out := []string{fmt.Sprintf("+%d XP", amount)}
	s.XP += amount
	if s.NextLevel <= 0 {
		s.NextLevel = firstLevel
	}
	for s.XP >= s.NextLevel {
		s.XP -= s.NextLevel
		s.Level++
		s.NextLevel = int(float64(s.NextLevel) * levelGrowth)
		out = append(out, fmt.Sprintf("LEVEL UP! You are now level %d!", s.Level))
		if s.Class == "" {
			continue
		}
		for _, sk := range l.Defs.Skills {
			if sk.Class == s.Class && sk.UnlockLevel == s.Level {
				out = append(out, fmt.Sprintf("New skill unlocked: %s [%d %s] - %s",
					sk.Name, sk.Cost.Amount, costLabel(sk.Cost.Resource), sk.Description))
			}
		}
	}
	return out
}

func costLabel(r types.Resource) string {
	if r == types.ResourceMana {
		return "MP"
	}
	return "SP"
}
