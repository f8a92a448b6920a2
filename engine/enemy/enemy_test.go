package enemy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nathoo/kimaer/engine/effects"
	"github.com/nathoo/kimaer/engine/state"
	"github.com/nathoo/kimaer/types"
)

func testDefs() *state.Defs {
	return &state.Defs{
		Enemies: map[string]types.EnemyDef{
			"Goblin": {
				Name: "Goblin", Health: 25, Damage: 5, Defense: 2,
				Gold:       types.Range{Min: 3, Max: 8},
				Drops:      []types.Drop{{Item: "Goblin Ear", Chance: 0.5}, {Item: "Health Potion", Chance: 0.2}},
				Difficulty: 1, XP: types.Range{Min: 5, Max: 10},
			},
			"Golem": {Name: "Golem", Health: 100, Damage: 12, Defense: 10},
		},
	}
}

// scriptRand returns fixed values: Between yields lo+offset clamped, Chance
// answers from a queue.
type scriptRand struct {
	offset  int
	chances []bool
}

func (r *scriptRand) Between(lo, hi int) int {
	return min(lo+r.offset, hi)
}

func (r *scriptRand) Chance(float64) bool {
	if len(r.chances) == 0 {
		return false
	}
	c := r.chances[0]
	r.chances = r.chances[1:]
	return c
}

func TestNew(t *testing.T) {
	e, err := New(testDefs(), "Goblin")
	require.NoError(t, err)
	assert.Equal(t, 25, e.Health)
	assert.Equal(t, 25, e.MaxHealth)
	assert.True(t, e.Alive())

	g, err := New(testDefs(), "Golem")
	require.NoError(t, err)
	assert.Equal(t, 1.0, g.Difficulty, "missing difficulty defaults to 1")

	_, err = New(testDefs(), "Dragon")
	assert.Error(t, err)
}

func TestTakeDamage(t *testing.T) {
	g, _ := New(testDefs(), "Golem")
	assert.Equal(t, 1, g.TakeDamage(1), "damage floor is 1")
	assert.Equal(t, 99, g.Health)
	assert.Equal(t, 5, g.TakeDamage(15))
	assert.Equal(t, 94, g.Health)
}

func TestTakeDamage_DefenseDebuffs(t *testing.T) {
	g, _ := New(testDefs(), "Golem")
	effects.Apply(&g.Effects, effects.ArmorBreak, 2)
	assert.Equal(t, 2, g.EffectiveDefense())
	assert.Equal(t, 13, g.TakeDamage(15))

	effects.Apply(&g.Effects, effects.Expose, 2)
	assert.Equal(t, 1, g.EffectiveDefense())
	assert.Contains(t, g.Tags(), "Exposed")
}

func TestAlive(t *testing.T) {
	e, _ := New(testDefs(), "Goblin")
	e.Health = 0
	assert.False(t, e.Alive())
	e.Health = -3
	assert.False(t, e.Alive())
}

func TestRollLoot(t *testing.T) {
	e, _ := New(testDefs(), "Goblin")

	loot := e.RollLoot(&scriptRand{offset: 2, chances: []bool{true, false}})
	assert.Equal(t, 5, loot.Gold)
	assert.Equal(t, []string{"Goblin Ear"}, loot.Items)
	assert.Equal(t, 7, loot.XP)

	loot = e.RollLoot(&scriptRand{offset: 100, chances: []bool{true, true}})
	assert.Equal(t, 8, loot.Gold)
	assert.Equal(t, []string{"Goblin Ear", "Health Potion"}, loot.Items)
	assert.Equal(t, 10, loot.XP)
}

func TestTags(t *testing.T) {
	e, _ := New(testDefs(), "Goblin")
	assert.Empty(t, e.Tags())
	effects.ApplyValue(&e.Effects, effects.Poison, 3, -8)
	effects.Apply(&e.Effects, effects.Stun, 1)
	assert.Equal(t, []string{"Poisoned(3t)", "Stunned"}, e.Tags())
}
