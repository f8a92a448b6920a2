package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/nathoo/kimaer/engine/effects"
	"github.com/nathoo/kimaer/engine/parser"
	"github.com/nathoo/kimaer/engine/resolve"
	"github.com/nathoo/kimaer/engine/save"
	"github.com/nathoo/kimaer/engine/skills"
	"github.com/nathoo/kimaer/engine/state"
	"github.com/nathoo/kimaer/engine/ui"
	"github.com/nathoo/kimaer/types"
)

// MaxEnemies caps how many enemies a single fight command can summon.
const MaxEnemies = 6

// Store is the save-slot collaborator of a session.
type Store interface {
	SaveAs(s *types.State, name string) error
	Load(name string) (*save.SaveData, error)
	List() ([]string, error)
}

// Selector picks an index by weight.
type Selector interface {
	WeightedSelect(weights []int) int
}

// Session is a player's run between fights. Step takes one hub command;
// fights it starts talk to the engine's console directly, everything else
// comes back as output lines.
type Session struct {
	*Engine
	State *types.State
	Store Store
	Dice  Selector
}

// NewSession binds a player to an engine. The engine's RNG picks hunts
// when it can.
func NewSession(e *Engine, player *types.State, store Store) *Session {
	s := &Session{Engine: e, State: player, Store: store}
	if sel, ok := e.RNG.(Selector); ok {
		s.Dice = sel
	}
	return s
}

// Step processes one hub command. The error is non-nil only when the
// console failed during a fight.
func (s *Session) Step(ctx context.Context, input string) (types.Result, error) {
	var res types.Result

	if s.State.Defeated {
		res.Output = append(res.Output, "You have fallen. Use /load to restore a save or /quit to exit.")
		return res, nil
	}

	intent := parser.Parse(input)
	if intent.Verb == "" {
		res.Output = append(res.Output, "What do you want to do?")
		return res, nil
	}

	switch intent.Verb {
	case "fight":
		return s.fightCmd(ctx, intent)
	case "encounter":
		return s.encounterCmd(ctx, intent)
	case "hunt":
		return s.hunt(ctx)
	case "enemies":
		res.Output = s.bestiary()
	case "status":
		res.Output = s.status()
	case "skills":
		res.Output = s.skillList()
	case "inventory":
		res.Output = s.inventory()
	case "equip":
		res.Output = s.equip(intent)
	case "unequip":
		res.Output = s.unequip(intent)
	case "rest":
		res.Output = s.rest()
	case "help":
		res.Output = HelpLines()
	default:
		res.Output = append(res.Output, fmt.Sprintf("I don't know how to %q. Type help for commands.", intent.Verb))
	}
	return res, nil
}

func (s *Session) fightCmd(ctx context.Context, intent types.Intent) (types.Result, error) {
	if len(intent.Targets) == 0 {
		return types.Result{Output: []string{"Fight what? (try: fight goblin, fight 2 rats)"}}, nil
	}
	var names []string
	for _, t := range intent.Targets {
		name, err := resolve.Enemy(s.Defs, t.Name)
		if err != nil {
			return types.Result{Output: []string{err.Error()}}, nil
		}
		for i := 0; i < t.Count; i++ {
			names = append(names, name)
		}
	}
	if len(names) > MaxEnemies {
		return types.Result{Output: []string{
			fmt.Sprintf("You can take on at most %d enemies at once.", MaxEnemies),
		}}, nil
	}
	return s.run(ctx, names)
}

func (s *Session) encounterCmd(ctx context.Context, intent types.Intent) (types.Result, error) {
	if len(intent.Targets) == 0 {
		return types.Result{Output: s.encounterList()}, nil
	}
	name, err := resolve.Encounter(s.Defs, intent.Targets[0].Name)
	if err != nil {
		return types.Result{Output: []string{err.Error()}}, nil
	}
	return s.encounter(ctx, s.Defs.Encounters[name])
}

// hunt picks an encounter by weight. A catalog without encounters falls
// back to a single random enemy.
func (s *Session) hunt(ctx context.Context) (types.Result, error) {
	if s.Dice == nil {
		return types.Result{Output: []string{"Nothing stirs."}}, nil
	}
	if len(s.Defs.Encounters) == 0 {
		enemies := state.EnemyNames(s.Defs)
		if len(enemies) == 0 {
			return types.Result{Output: []string{"Nothing stirs."}}, nil
		}
		weights := make([]int, len(enemies))
		for i := range weights {
			weights[i] = 1
		}
		return s.run(ctx, []string{enemies[s.Dice.WeightedSelect(weights)]})
	}

	names := encounterNames(s.Defs)
	weights := make([]int, len(names))
	for i, n := range names {
		weights[i] = max(1, s.Defs.Encounters[n].Weight)
	}
	return s.encounter(ctx, s.Defs.Encounters[names[s.Dice.WeightedSelect(weights)]])
}

func (s *Session) encounter(ctx context.Context, enc types.EncounterDef) (types.Result, error) {
	if enc.Intro != "" {
		s.Console.Say(ui.ToneInfo, enc.Intro)
		s.pause(2 * time.Second)
	}
	s.Log.WithField("encounter_def", enc.Name).Debug("encounter chosen")
	return s.run(ctx, enc.Enemies)
}

// run fights names and reports the outcome.
func (s *Session) run(ctx context.Context, names []string) (types.Result, error) {
	fr, err := s.Fight(ctx, s.State, names...)
	if err != nil {
		if errors.Is(err, ErrNoEnemies) {
			return types.Result{Output: []string{"There is nobody to fight."}}, nil
		}
		return types.Result{}, err
	}

	res := types.Result{Outcome: fr.Outcome}
	switch fr.Outcome {
	case types.OutcomeVictory:
		res.Output = append(res.Output, fmt.Sprintf("Victory in %d turn(s). HP %d/%d.",
			fr.Turns, s.State.Health, s.State.MaxHealth))
	case types.OutcomeFled:
		res.Output = append(res.Output, "You escaped.")
	case types.OutcomeDefeat:
		res.Output = append(res.Output, "You have fallen. Use /load to restore a save or /quit to exit.")
	}
	return res, nil
}

func (s *Session) bestiary() []string {
	names := state.EnemyNames(s.Defs)
	if len(names) == 0 {
		return []string{"The bestiary is empty."}
	}
	out := []string{"Known enemies:"}
	for _, n := range names {
		d := s.Defs.Enemies[n]
		line := fmt.Sprintf("  %-14s HP %3d  DMG %2d  DEF %2d", d.Name, d.Health, d.Damage, d.Defense)
		if d.Description != "" {
			line += "  - " + d.Description
		}
		out = append(out, line)
	}
	if len(s.Defs.Encounters) > 0 {
		out = append(out, "")
		out = append(out, s.encounterList()...)
	}
	return out
}

func (s *Session) encounterList() []string {
	names := encounterNames(s.Defs)
	if len(names) == 0 {
		return []string{"There are no known encounters."}
	}
	out := []string{"Encounters:"}
	for _, n := range names {
		out = append(out, fmt.Sprintf("  %-16s %s", n, strings.Join(s.Defs.Encounters[n].Enemies, ", ")))
	}
	return out
}

func (s *Session) status() []string {
	p := s.State
	who := p.Name
	if p.Class != "" {
		who = fmt.Sprintf("%s the %s", p.Name, p.Class)
	}
	out := []string{
		fmt.Sprintf("%s, level %d (XP %d/%d)", who, p.Level, p.XP, p.NextLevel),
		fmt.Sprintf("HP %d/%d  MP %d/%d  SP %d/%d", p.Health, p.MaxHealth, p.Mana, p.MaxMana, p.Stamina, p.MaxStamina),
		fmt.Sprintf("Gold %d  Victories %d", p.Gold, p.Victories),
		fmt.Sprintf("Weapon: %s  Armor: %s", orNone(p.EquippedWeapon), orNone(p.EquippedArmor)),
	}
	if sum := effects.Summary(p.Effects); len(sum) > 0 {
		out = append(out, "Effects: "+strings.Join(sum, ", "))
	}
	return out
}

func (s *Session) skillList() []string {
	class := state.ClassOf(s.Defs, s.State)
	all := skills.Available(s.Defs, class, maxLevel)
	if len(all) == 0 {
		return []string{"You know no skills."}
	}
	out := []string{"Skills:"}
	for _, sk := range all {
		line := fmt.Sprintf("  %-14s [%s]  %s", sk.Name, skills.CostLabel(sk.Cost), sk.Description)
		if sk.UnlockLevel > s.State.Level {
			line = fmt.Sprintf("  %-14s (unlocks at level %d)", sk.Name, sk.UnlockLevel)
		}
		out = append(out, line)
	}
	return out
}

func (s *Session) inventory() []string {
	out := []string{fmt.Sprintf("Gold: %d", s.State.Gold)}
	if len(s.State.Inventory) == 0 {
		return append(out, "You carry nothing.")
	}
	for _, st := range s.State.Inventory {
		line := fmt.Sprintf("  %s x%d", st.Name, st.Count)
		if st.Name == s.State.EquippedWeapon || st.Name == s.State.EquippedArmor {
			line += " (equipped)"
		}
		out = append(out, line)
	}
	return out
}

func (s *Session) equip(intent types.Intent) []string {
	if len(intent.Targets) == 0 {
		return []string{"Equip what?"}
	}
	name, err := resolve.Carried(s.State, intent.Targets[0].Name)
	if err != nil {
		return []string{err.Error()}
	}
	if _, err := state.Equip(s.Defs, s.State, name); err != nil {
		return []string{err.Error()}
	}
	return []string{fmt.Sprintf("You equip the %s.", name)}
}

func (s *Session) unequip(intent types.Intent) []string {
	if len(intent.Targets) == 0 {
		return []string{"Unequip what? (weapon or armor)"}
	}
	kind := slotOf(s.State, intent.Targets[0].Name)
	if kind == "" {
		return []string{fmt.Sprintf("You aren't wearing or wielding %q.", intent.Targets[0].Name)}
	}
	prev, err := state.Unequip(s.State, kind)
	if err != nil {
		return []string{err.Error()}
	}
	return []string{fmt.Sprintf("You put away the %s.", prev)}
}

// slotOf maps "weapon", "armor" or the name of an equipped item to its slot.
func slotOf(p *types.State, name string) types.ItemKind {
	switch name {
	case "weapon", "sword", "blade":
		return types.ItemWeapon
	case "armor", "armour":
		return types.ItemArmor
	}
	if p.EquippedWeapon != "" && strings.Contains(strings.ToLower(p.EquippedWeapon), name) {
		return types.ItemWeapon
	}
	if p.EquippedArmor != "" && strings.Contains(strings.ToLower(p.EquippedArmor), name) {
		return types.ItemArmor
	}
	return ""
}

func (s *Session) rest() []string {
	p := s.State
	if p.Health == p.MaxHealth && p.Mana == p.MaxMana && p.Stamina == p.MaxStamina && len(p.Effects) == 0 {
		return []string{"You are already well rested."}
	}
	state.Rest(p)
	return []string{fmt.Sprintf("You rest and recover. HP %d/%d.", p.Health, p.MaxHealth)}
}

// Save writes the player to the named slot, recording the RNG position.
func (s *Session) Save(name string) error {
	if s.Store == nil {
		return errors.New("saving is disabled")
	}
	s.recordRNG(s.State)
	if err := s.Store.SaveAs(s.State, name); err != nil {
		return fmt.Errorf("saving: %w", err)
	}
	s.Log.WithField("slot", SlotName(name)).Info("game saved")
	return nil
}

// Load replaces the player with the named slot and rewinds the RNG to
// where it was when the slot was written.
func (s *Session) Load(name string) error {
	if s.Store == nil {
		return errors.New("loading is disabled")
	}
	sd, err := s.Store.Load(name)
	if err != nil {
		return fmt.Errorf("loading: %w", err)
	}
	if sd.Game != "" && sd.Game != s.Defs.Game.Title {
		s.Log.WithField("save_game", sd.Game).Warn("save was written by another game")
	}
	save.ApplySave(s.State, sd)
	if r, ok := s.RNG.(*RNG); ok && (sd.Player.RNGSeed != 0 || sd.Player.RNGPosition != 0) {
		r.Reset(sd.Player.RNGSeed, sd.Player.RNGPosition)
	}
	s.Log.WithField("slot", SlotName(name)).Info("game loaded")
	return nil
}

// Saves lists the save slots.
func (s *Session) Saves() ([]string, error) {
	if s.Store == nil {
		return nil, nil
	}
	return s.Store.List()
}

// HelpLines is the hub command reference.
func HelpLines() []string {
	return []string{
		"Commands:",
		"  fight <enemy>[, <enemy>...]  Fight enemies (fight 2 rats, goblin)",
		"  encounter [name]             List encounters or start one",
		"  hunt                         Look for a random encounter",
		"  enemies                      Show the bestiary",
		"  status                       Show your character",
		"  skills                       List your skills",
		"  inventory                    Show what you carry",
		"  equip <item>                 Wield a weapon or wear armor",
		"  unequip <weapon|armor>       Put it away",
		"  rest                         Recover health, mana and stamina",
		"",
		"Meta commands:",
		"  /save [name]   Save the game",
		"  /load [name]   Load a saved game",
		"  /saves         List saved games",
		"  /state         Dump the character as JSON",
		"  /help          Show this help",
		"  /quit          Exit the game",
	}
}

const maxLevel = 1 << 20

func encounterNames(defs *state.Defs) []string {
	names := make([]string, 0, len(defs.Encounters))
	for n := range defs.Encounters {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

// SlotName is the slot a save or load of name uses.
func SlotName(name string) string {
	if name == "" {
		return save.DefaultSlot
	}
	return name
}
