package engine

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nathoo/kimaer/engine/effects"
	"github.com/nathoo/kimaer/engine/qte"
	"github.com/nathoo/kimaer/engine/state"
	"github.com/nathoo/kimaer/engine/ui/uitest"
	"github.com/nathoo/kimaer/types"
)

// testDefs builds a small catalog: two classes, a handful of enemies and
// the items they drop.
func testDefs() *state.Defs {
	return &state.Defs{
		Game: types.GameDef{Title: "Test Game", Version: "1.0"},
		Classes: map[string]types.ClassDef{
			"Fighter": {Name: "Fighter", HealthMod: 1.5, DamageMod: 1.5, GoldMod: 1.2, StaminaMod: 1.5,
				Pools: []types.SkillPool{types.PoolTechniques}},
			"Warlock": {Name: "Warlock", HealthMod: 0.9, DamageMod: 1.1, GoldMod: 1.2, ManaMod: 1.5,
				Pools: []types.SkillPool{types.PoolSpells}},
		},
		Enemies: map[string]types.EnemyDef{
			"Giant Rat": {Name: "Giant Rat", Health: 15, Damage: 3, Gold: types.Range{Min: 1, Max: 3},
				Drops: []types.Drop{{Item: "Rat Tail", Chance: 0.3}}, Difficulty: 0.8, XP: types.Range{Min: 3, Max: 5}},
			"Goblin": {Name: "Goblin", Health: 25, Damage: 5, Defense: 2, Gold: types.Range{Min: 3, Max: 8},
				Drops:      []types.Drop{{Item: "Goblin Ear", Chance: 0.5}, {Item: "Health Potion", Chance: 0.2}},
				Difficulty: 1, XP: types.Range{Min: 5, Max: 10}},
			"Bandit": {Name: "Bandit", Health: 40, Damage: 8, Defense: 3, Gold: types.Range{Min: 10, Max: 20},
				Difficulty: 1.3, XP: types.Range{Min: 10, Max: 15}},
			"Weakling": {Name: "Weakling", Health: 10, Damage: 2, Difficulty: 1},
		},
		Skills: []types.SkillDef{
			{Name: "Venom Bolt", Class: "Warlock", Pool: types.PoolSpells, UnlockLevel: 1,
				Cost: types.SkillCost{Resource: types.ResourceMana, Amount: 12}, Target: types.TargetSingle,
				Sequence: []string{"a", "d"}, SequenceTime: 1, Damage: 6,
				Effect: &types.SkillEffect{Type: effects.Poison, Value: 5, Duration: 2}},
		},
		Items: map[string]types.ItemDef{
			"Rat Tail":      {Name: "Rat Tail", Kind: types.ItemMisc, Value: 1},
			"Goblin Ear":    {Name: "Goblin Ear", Kind: types.ItemMisc, Value: 2},
			"Health Potion": {Name: "Health Potion", Kind: types.ItemConsumable, Value: 10},
			"Iron Dagger":   {Name: "Iron Dagger", Kind: types.ItemWeapon, Damage: types.Range{Min: 3, Max: 5}},
			"Leather Armor": {Name: "Leather Armor", Kind: types.ItemArmor, Defense: 3},
		},
	}
}

// scriptRand answers Between with the low bound and Float64 from a queue.
// An empty queue yields 0.99, so chances fail by default.
type scriptRand struct {
	floats []float64
}

func (r *scriptRand) Between(lo, _ int) int { return lo }

func (r *scriptRand) Float64() float64 {
	if len(r.floats) == 0 {
		return 0.99
	}
	f := r.floats[0]
	r.floats = r.floats[1:]
	return f
}

func (r *scriptRand) Chance(p float64) bool { return r.Float64() < p }

// fakeInput scripts timed-input results. Defense defaults to Miss.
type fakeInput struct {
	grades   []qte.Grade
	hits     []int
	defenses int
}

func (f *fakeInput) Defense(context.Context, float64) qte.Grade {
	f.defenses++
	if len(f.grades) == 0 {
		return qte.Miss
	}
	g := f.grades[0]
	f.grades = f.grades[1:]
	return g
}

func (f *fakeInput) Sequence(_ context.Context, keys []string, _ time.Duration) int {
	if len(f.hits) == 0 {
		return 0
	}
	h := f.hits[0]
	f.hits = f.hits[1:]
	return min(h, len(keys))
}

type recordingSaver struct {
	saved []types.State
	err   error
}

func (s *recordingSaver) Save(st *types.State) error {
	s.saved = append(s.saved, *st)
	return s.err
}

func testEngine(defs *state.Defs, con *uitest.Console, rng Rand, in TimedInput) *Engine {
	lv := state.Leveler{Defs: defs}
	return &Engine{
		Defs:        defs,
		Console:     con,
		Input:       in,
		RNG:         rng,
		Inventory:   lv,
		Progression: lv,
		Log:         discardLog(),
	}
}

func fighter(t *testing.T, defs *state.Defs) *types.State {
	t.Helper()
	s, err := state.NewState(defs, "Hero", "Fighter")
	require.NoError(t, err)
	return s
}

func TestFight_FighterBeatsRatInTwoTurns(t *testing.T) {
	defs := testDefs()
	con := uitest.New("Attack", "Attack")
	e := New(defs, con, NewRNG(42), Options{Scale: 0.001})
	p := fighter(t, defs)

	res, err := e.Fight(context.Background(), p, "Giant Rat")
	require.NoError(t, err)
	require.Equal(t, types.OutcomeVictory, res.Outcome)
	assert.Equal(t, 2, res.Turns)

	out := con.Output()
	assert.Equal(t, 2, strings.Count(out, "You attack Giant Rat for 9 damage!"), "expected two 9-damage hits:\n%s", out)
	// No key is ever pressed, so the rat's single attack lands in full.
	assert.Equal(t, 147, p.Health)
	assert.GreaterOrEqual(t, res.Loot.Gold, 1)
	assert.LessOrEqual(t, res.Loot.Gold, 3)
	assert.Equal(t, res.Loot.Gold, p.Gold)
	assert.GreaterOrEqual(t, p.XP, 3)
	assert.LessOrEqual(t, p.XP, 5)
	assert.Equal(t, 1, p.Victories)
	assert.EqualValues(t, 42, p.RNGSeed)
	assert.NotZero(t, p.RNGPosition, "rng position not recorded")
	assert.NotZero(t, con.Frames(), "defense check rendered no frames")
}

func TestFight_PoisonKillSkipsEnemyAction(t *testing.T) {
	defs := testDefs()
	con := uitest.New("Skills", "Venom Bolt")
	in := &fakeInput{hits: []int{2}}
	e := testEngine(defs, con, &scriptRand{}, in)
	p := &types.State{
		Name: "Hex", Class: "Warlock", Level: 1,
		Vitals: types.Vitals{Health: 90, MaxHealth: 90, Mana: 90, MaxMana: 90},
	}

	res, err := e.Fight(context.Background(), p, "Weakling")
	require.NoError(t, err)
	require.Equal(t, types.OutcomeVictory, res.Outcome)
	assert.Equal(t, 1, res.Turns, "the fight ended on turn 1")
	assert.Zero(t, in.defenses, "poisoned enemy still attacked")
	out := con.Output()
	assert.Contains(t, out, "Weakling takes 6 damage!")
	assert.Contains(t, out, "Weakling takes 5 poison damage!")
	assert.Contains(t, out, "Weakling succumbed to poison!")
	// 90 - 12 for the spell, then +4 (5% of 90) on victory.
	assert.Equal(t, 82, p.Mana)
}

func TestFight_CounterKillEndsTurn(t *testing.T) {
	defs := testDefs()
	con := uitest.New("Attack")
	in := &fakeInput{grades: []qte.Grade{qte.Perfect}}
	e := testEngine(defs, con, &scriptRand{}, in)
	p := fighter(t, defs)

	res, err := e.Fight(context.Background(), p, "Weakling")
	require.NoError(t, err)
	require.Equal(t, types.OutcomeVictory, res.Outcome)
	assert.Equal(t, 1, res.Turns, "the counter ended the fight on turn 1")
	assert.Equal(t, 1, in.defenses)
	out := con.Output()
	// 9 leaves the weakling on 1; the counter is 9/2 = 4.
	assert.Contains(t, out, "You counter for 4 damage!")
	assert.Contains(t, out, "Weakling defeated!")
	assert.NotContains(t, out, "Turn 2")
}

func TestFight_FleeSucceeds(t *testing.T) {
	defs := testDefs()
	con := uitest.New("Flee")
	e := testEngine(defs, con, &scriptRand{floats: []float64{0.1}}, &fakeInput{})
	p := fighter(t, defs)

	res, err := e.Fight(context.Background(), p, "Bandit")
	require.NoError(t, err)
	require.Equal(t, types.OutcomeFled, res.Outcome)
	assert.Zero(t, p.Gold, "fleeing must not award gold")
	assert.Zero(t, p.Victories, "fleeing must not count as a victory")
	assert.Empty(t, p.Inventory, "fleeing must not award items")
}

func TestFight_FleeFailureSpendsTurn(t *testing.T) {
	defs := testDefs()
	con := uitest.New("Flee", "Attack", "Attack")
	in := &fakeInput{}
	e := testEngine(defs, con, &scriptRand{floats: []float64{0.9}}, in)
	p := fighter(t, defs)

	res, err := e.Fight(context.Background(), p, "Giant Rat")
	require.NoError(t, err)
	assert.Equal(t, 3, res.Turns)
	assert.Equal(t, 2, in.defenses, "rat attack count")
	assert.Contains(t, con.Output(), "Couldn't escape!")
}

func TestFight_ItemsDoesNotSpendTurn(t *testing.T) {
	defs := testDefs()
	con := uitest.New("Items", "Attack", "Attack")
	in := &fakeInput{}
	e := testEngine(defs, con, &scriptRand{}, in)

	res, err := e.Fight(context.Background(), fighter(t, defs), "Giant Rat")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Turns)
	assert.Equal(t, 1, in.defenses)
	assert.Contains(t, con.Output(), "Item usage not yet implemented!")
}

func TestFight_DefeatStopsRemainingEnemies(t *testing.T) {
	defs := testDefs()
	con := uitest.New("Attack", "Bandit")
	in := &fakeInput{}
	e := testEngine(defs, con, &scriptRand{}, in)
	p := fighter(t, defs)
	p.Health = 2

	res, err := e.Fight(context.Background(), p, "Bandit", "Bandit")
	require.NoError(t, err)
	require.Equal(t, types.OutcomeDefeat, res.Outcome)
	assert.True(t, p.Defeated, "player not marked defeated")
	assert.Equal(t, 1, in.defenses, "enemies that attacked")
}

func TestFight_PerfectBlockCounters(t *testing.T) {
	defs := testDefs()
	con := uitest.New("Attack")
	in := &fakeInput{grades: []qte.Grade{qte.Perfect}}
	e := testEngine(defs, con, &scriptRand{}, in)
	p := fighter(t, defs)

	_, err := e.Fight(context.Background(), p, "Goblin")
	require.ErrorIs(t, err, io.EOF, "expected the script to run out")
	assert.Equal(t, p.MaxHealth, p.Health, "perfect block took damage")
	// Last damage 9, halved to 4, minus goblin defense 2.
	assert.Contains(t, con.Output(), "You counter for 2 damage!")
}

func TestFight_BlockAndArmor(t *testing.T) {
	defs := testDefs()
	con := uitest.New("Attack", "Attack")
	in := &fakeInput{grades: []qte.Grade{qte.Block, qte.Miss}}
	e := testEngine(defs, con, &scriptRand{}, in)
	p := fighter(t, defs)
	require.NoError(t, state.AddItem(defs, p, "Leather Armor", 1))
	_, err := state.Equip(defs, p, "Leather Armor")
	require.NoError(t, err)

	_, err = e.Fight(context.Background(), p, "Bandit")
	require.ErrorIs(t, err, io.EOF, "expected the script to run out")
	// Block: 8/2 = 4. Miss: 8 - 3 armor = 5.
	assert.Equal(t, 150-4-5, p.Health)
}

func TestFight_Dodge(t *testing.T) {
	defs := testDefs()
	con := uitest.New("Attack", "Attack")
	in := &fakeInput{}
	e := testEngine(defs, con, &scriptRand{floats: []float64{0.1}}, in)
	p := fighter(t, defs)
	effects.Apply(&p.Effects, effects.DodgeChance, 3)

	_, err := e.Fight(context.Background(), p, "Giant Rat")
	require.NoError(t, err)
	assert.Zero(t, in.defenses, "dodged attack still ran a defense check")
	assert.Equal(t, p.MaxHealth, p.Health)
}

func TestFight_StunnedPlayerLosesAction(t *testing.T) {
	defs := testDefs()
	con := uitest.New("Attack", "Attack")
	in := &fakeInput{}
	e := testEngine(defs, con, &scriptRand{}, in)
	p := fighter(t, defs)
	effects.Apply(&p.Effects, effects.Stun, 1)

	res, err := e.Fight(context.Background(), p, "Giant Rat")
	require.NoError(t, err)
	assert.Equal(t, 3, res.Turns)
	out := con.Output()
	assert.Contains(t, out, "You are stunned and lose your turn!")
	assert.Contains(t, out, "Stun wore off.")
}

func TestFight_RegenTick(t *testing.T) {
	defs := testDefs()
	con := uitest.New("Attack", "Attack")
	e := testEngine(defs, con, &scriptRand{}, &fakeInput{})
	p := fighter(t, defs)
	p.Health = 100
	effects.Apply(&p.Effects, effects.Regen, 2)

	_, err := e.Fight(context.Background(), p, "Giant Rat")
	require.NoError(t, err)
	assert.Contains(t, con.Output(), "Effect regen: 5 HP")
	// +5 after turn 1, rat hits for 3; the fight ends before the next tick.
	assert.Equal(t, 102, p.Health)
}

func TestFight_VictorySavesAndLevels(t *testing.T) {
	defs := testDefs()
	con := uitest.New("Attack", "Attack")
	saver := &recordingSaver{}
	e := testEngine(defs, con, &scriptRand{}, &fakeInput{})
	e.Saver = saver
	p := fighter(t, defs)
	p.XP = 98

	res, err := e.Fight(context.Background(), p, "Giant Rat")
	require.NoError(t, err)
	require.Len(t, saver.saved, 1)
	assert.Equal(t, 1, saver.saved[0].Victories, "save happened before the victory was counted")
	assert.Equal(t, 2, p.Level)
	assert.Contains(t, con.Output(), "LEVEL UP! You are now level 2!")
	assert.Equal(t, 1, res.Loot.Gold)
	assert.Equal(t, 3, res.Loot.XP)
}

func TestFight_SaveError(t *testing.T) {
	defs := testDefs()
	e := testEngine(defs, uitest.New("Attack", "Attack"), &scriptRand{}, &fakeInput{})
	e.Saver = &recordingSaver{err: errors.New("disk full")}

	res, err := e.Fight(context.Background(), fighter(t, defs), "Giant Rat")
	require.ErrorContains(t, err, "disk full")
	assert.Equal(t, types.OutcomeVictory, res.Outcome, "victory stands even when saving fails")
}

func TestFight_UnknownEnemy(t *testing.T) {
	defs := testDefs()
	con := uitest.New("Attack")
	e := testEngine(defs, con, &scriptRand{}, &fakeInput{})
	p := fighter(t, defs)
	before := *p

	_, err := e.Fight(context.Background(), p, "Giant Rat", "Dragon")
	require.ErrorContains(t, err, "Dragon")
	assert.Empty(t, con.Lines(), "fight printed output before failing")
	assert.Equal(t, before.Health, p.Health)
	assert.Equal(t, before.Gold, p.Gold)
}

func TestFight_NoEnemies(t *testing.T) {
	defs := testDefs()
	e := testEngine(defs, uitest.New(), &scriptRand{}, &fakeInput{})
	_, err := e.Fight(context.Background(), fighter(t, defs))
	assert.ErrorIs(t, err, ErrNoEnemies)
}

func TestFight_NoSkillsOptionWithoutSkills(t *testing.T) {
	defs := testDefs()
	con := uitest.New("Skills")
	e := testEngine(defs, con, &scriptRand{}, &fakeInput{})
	p := &types.State{Level: 1, Vitals: types.Vitals{Health: 100, MaxHealth: 100}}

	_, err := e.Fight(context.Background(), p, "Giant Rat")
	assert.ErrorContains(t, err, "no option matches", "classless player was offered Skills")
}

func TestFight_MultipleEnemiesChooseTarget(t *testing.T) {
	defs := testDefs()
	con := uitest.New("Attack", "Goblin")
	e := testEngine(defs, con, &scriptRand{}, &fakeInput{})

	_, err := e.Fight(context.Background(), fighter(t, defs), "Giant Rat", "Goblin")
	require.ErrorIs(t, err, io.EOF, "expected the script to run out")
	out := con.Output()
	assert.Contains(t, out, "You're surrounded by: Giant Rat, Goblin!")
	assert.Contains(t, out, "You attack Goblin for 7 damage!", "attack did not hit the chosen target")
}
