// Package types defines the shared data structures for the Kimaer combat engine.
// This package contains only type definitions, no logic, no methods.
package types

// EffectType identifies a status effect in the catalog (e.g. "poison").
type EffectType string

// Category groups effects by how they are perceived.
type Category string

const (
	CategoryBuff   Category = "buff"
	CategoryDebuff Category = "debuff"
	CategoryDot    Category = "dot"
)

// Side is which combatant an effect (or skill) is meant for.
type Side string

const (
	SidePlayer Side = "player"
	SideEnemy  Side = "enemy"
	SideBoth   Side = "both"
)

// Stat is the attribute an effect modifies.
type Stat string

const (
	StatDamage  Stat = "damage"
	StatDefense Stat = "defense"
	StatDodge   Stat = "dodge"
	StatHealth  Stat = "health"
	StatMana    Stat = "mana"
	StatStamina Stat = "stamina"
	StatNone    Stat = "none"
)

// ApplyKind is how an effect's value combines with its stat.
type ApplyKind string

const (
	ApplyFlat    ApplyKind = "flat"
	ApplyPercent ApplyKind = "percent"
	ApplyNone    ApplyKind = "none"
)

// EffectDef is one immutable entry of the effect catalog.
type EffectDef struct {
	Type        EffectType
	Category    Category
	Target      Side
	Ticks       bool // contributes its value to Stat every turn
	Stat        Stat
	Apply       ApplyKind
	Magnitude   float64 // default value; 0 for stun
	Description string
}

// ActiveEffect is a running instance of an effect on a combatant.
type ActiveEffect struct {
	Type     EffectType `json:"type"`
	Duration int        `json:"duration"` // remaining turns
	Value    float64    `json:"value"`
}

// Vitals are the bounded pools shared by players and enemies.
type Vitals struct {
	Health     int `json:"health"`
	MaxHealth  int `json:"max_health"`
	Mana       int `json:"mana"`
	MaxMana    int `json:"max_mana"`
	Stamina    int `json:"stamina"`
	MaxStamina int `json:"max_stamina"`
}

// Range is an inclusive integer interval.
type Range struct {
	Min int
	Max int
}

// Drop is one entry of an enemy's loot table.
type Drop struct {
	Item   string
	Chance float64 // 0..1, rolled independently
}

// EnemyDef is the catalog record for an enemy kind.
type EnemyDef struct {
	Name        string
	Health      int
	Damage      int
	Defense     int
	Gold        Range
	Drops       []Drop
	Description string
	Difficulty  float64 // scales the defense check speed
	XP          Range
}

// EncounterDef is a named group of enemies fought together.
type EncounterDef struct {
	Name    string
	Intro   string
	Enemies []string
	Weight  int // relative odds when hunting
}

// SkillPool groups skills by the resource family that fuels them.
type SkillPool string

const (
	PoolSpells     SkillPool = "spells"
	PoolTechniques SkillPool = "techniques"
)

// Resource names the pool a skill cost is paid from.
type Resource string

const (
	ResourceMana    Resource = "mana"
	ResourceStamina Resource = "stamina"
)

// SkillTarget is the scope of a skill.
type SkillTarget string

const (
	TargetSingle  SkillTarget = "single"
	TargetEnemies SkillTarget = "enemies"
	TargetSelf    SkillTarget = "self"
)

// SkillCost is what casting a skill deducts.
type SkillCost struct {
	Resource Resource
	Amount   int
}

// SkillEffect is the status effect a skill inflicts or grants.
type SkillEffect struct {
	Type     EffectType
	Value    float64 // magnitude (poison damage per turn, buff multiplier, ...)
	Duration int
}

// SkillDef is the catalog record for a castable skill.
type SkillDef struct {
	Name         string
	Class        string // owning class; "" means any class with the pool
	Pool         SkillPool
	UnlockLevel  int
	Cost         SkillCost
	Target       SkillTarget
	Sequence     []string // keys of the timed-input sequence
	SequenceTime float64  // seconds per key
	Damage       int
	Heal         int
	Effect       *SkillEffect
	Description  string
}

// ItemKind classifies items.
type ItemKind string

const (
	ItemWeapon     ItemKind = "weapon"
	ItemArmor      ItemKind = "armor"
	ItemConsumable ItemKind = "consumable"
	ItemMisc       ItemKind = "misc"
)

// ItemDef is the catalog record for an item.
type ItemDef struct {
	Name        string
	Kind        ItemKind
	Damage      Range // weapons; Min == Max for fixed damage
	Defense     int   // armor
	Value       int   // gold
	Description string
}

// ClassDef is the catalog record for a character class.
type ClassDef struct {
	Name        string
	Description string
	HealthMod   float64
	DamageMod   float64
	GoldMod     float64
	ManaMod     float64
	StaminaMod  float64
	Pools       []SkillPool // hybrid classes list two
}

// GameDef holds content metadata.
type GameDef struct {
	Title   string
	Author  string
	Version string
	Intro   string
}

// Stack is a counted inventory entry.
type Stack struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// State is the player's persistent state, including the combat-relevant part.
type State struct {
	Name           string         `json:"name"`
	Class          string         `json:"class"`
	Level          int            `json:"level"`
	XP             int            `json:"xp"`
	NextLevel      int            `json:"next_level"`
	Vitals                        // health, mana, stamina
	Gold           int            `json:"gold"`
	Inventory      []Stack        `json:"inventory"`
	EquippedWeapon string         `json:"equipped_weapon"` // "" = none
	EquippedArmor  string         `json:"equipped_armor"`  // "" = none
	Effects        []ActiveEffect `json:"effects"`
	RNGSeed        int64          `json:"rng_seed"`
	RNGPosition    int64          `json:"rng_position"`
	Victories      int            `json:"victories"`
	Defeated       bool           `json:"defeated"`
}

// ResultKind is the outcome category of a skill attempt.
type ResultKind string

const (
	SkillCancelled ResultKind = "cancelled"
	SkillFizzled   ResultKind = "fizzle"
	SkillCast      ResultKind = "cast"
)

// SkillResult reports what a skill attempt did.
type SkillResult struct {
	Kind   ResultKind
	Skill  string
	Hits   int
	Damage int // 0 when the skill deals none
	Heal   int // 0 when the skill heals none
}

// Outcome is how an encounter ended.
type Outcome string

const (
	OutcomeVictory Outcome = "victory"
	OutcomeDefeat  Outcome = "defeat"
	OutcomeFled    Outcome = "fled"
)

// Loot is the aggregated reward of an encounter.
type Loot struct {
	Gold  int
	Items []string
	XP    int
}

// Target is one named object of a hub command with its multiplier
// ("3 rats" -> {Name: "rats", Count: 3}).
type Target struct {
	Name  string
	Count int
}

// Intent is a parsed hub command.
type Intent struct {
	Verb    string
	Targets []Target
}

// Result is the output of one hub command.
type Result struct {
	Output  []string
	Outcome Outcome // set when the command ran a fight
}
