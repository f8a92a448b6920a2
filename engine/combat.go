package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nathoo/kimaer/engine/effects"
	"github.com/nathoo/kimaer/engine/enemy"
	"github.com/nathoo/kimaer/engine/qte"
	"github.com/nathoo/kimaer/engine/skills"
	"github.com/nathoo/kimaer/engine/state"
	"github.com/nathoo/kimaer/engine/ui"
	"github.com/nathoo/kimaer/types"
)

const (
	baseAttack  = 5
	fleeChance  = 0.5
	victoryPool = 0.05
)

// AttackDamage is the player's basic attack before the target's defense:
// (5 + weapon + level) × class modifier × active damage modifiers.
func AttackDamage(weapon, level int, classMod float64, effs []types.ActiveEffect) int {
	return int(float64(baseAttack+weapon+level) * classMod * effects.DamageModifier(effs))
}

// BlockDamage is what a blocked hit deals to the player.
func BlockDamage(enemyDamage int, effs []types.ActiveEffect) int {
	return max(1, enemyDamage/2-effects.DefenseBonus(effs))
}

// HitDamage is what an unblocked hit deals to the player.
func HitDamage(enemyDamage, armor int, effs []types.ActiveEffect) int {
	return max(1, enemyDamage-armor-effects.DefenseBonus(effs))
}

// AggregateLoot rolls every enemy's loot and sums it.
func AggregateLoot(foes []*enemy.Enemy, r enemy.Rand) types.Loot {
	var total types.Loot
	for _, en := range foes {
		l := en.RollLoot(r)
		total.Gold += l.Gold
		total.Items = append(total.Items, l.Items...)
		total.XP += l.XP
	}
	return total
}

func (f *fight) showStatus(turn int) {
	p := f.player
	f.Console.Clear()
	f.Console.Say(ui.ToneTitle, fmt.Sprintf("=== Turn %d ===", turn))
	f.Console.Say(ui.ToneGood, fmt.Sprintf("Your HP: %d/%d", p.Health, p.MaxHealth))
	if p.MaxMana > 0 {
		f.Console.Say(ui.ToneInfo, fmt.Sprintf("Mana:    %d/%d", p.Mana, p.MaxMana))
	}
	if p.MaxStamina > 0 {
		f.Console.Say(ui.ToneInfo, fmt.Sprintf("Stamina: %d/%d", p.Stamina, p.MaxStamina))
	}
	if fx := effects.Summary(p.Effects); len(fx) > 0 {
		f.Console.Say(ui.ToneInfo, "Effects: "+strings.Join(fx, " | "))
	}
	for i, en := range f.enemies {
		if !en.Alive() {
			continue
		}
		line := fmt.Sprintf("%d. %s - HP: %d/%d", i+1, en.Name, en.Health, en.MaxHealth)
		if tags := en.Tags(); len(tags) > 0 {
			line += "  [" + strings.Join(tags, ", ") + "]"
		}
		f.Console.Say(ui.ToneBad, line)
	}
}

// playerAction asks for and performs one action. spent is false when the
// action cost no turn and the player should be asked again.
func (f *fight) playerAction() (spent, fled bool, err error) {
	options := []string{"Attack"}
	if f.hasSkills {
		options = append(options, "Skills")
	}
	options = append(options, "Items", "Flee")

	choice, err := f.Console.Menu("What will you do?", options)
	if err != nil {
		return false, false, err
	}
	action := options[choice]
	f.log.WithField("action", action).Debug("player action")

	switch action {
	case "Attack":
		return true, false, f.attack()

	case "Skills":
		res, err := (&skills.Resolver{
			Defs:    f.Defs,
			Console: f.Console,
			Input:   f.Input,
			Scale:   f.Scale,
		}).Cast(f.ctx, f.player, f.class, f.alive())
		if err != nil {
			return false, false, err
		}
		f.log.WithFields(logrus.Fields{
			"skill":  res.Skill,
			"result": res.Kind,
			"hits":   res.Hits,
			"damage": res.Damage,
		}).Debug("skill")
		if res.Kind == types.SkillCancelled {
			return false, false, nil
		}
		if res.Damage > 0 {
			f.lastDamage = res.Damage
		}
		return true, false, nil

	case "Items":
		f.Console.Say(ui.ToneWarn, "Item usage not yet implemented!")
		f.pause(time.Second)
		return false, false, nil

	default:
		if f.RNG.Chance(fleeChance) {
			f.Console.Say(ui.ToneWarn, "You fled from combat!")
			f.pause(2 * time.Second)
			return true, true, nil
		}
		f.Console.Say(ui.ToneBad, "Couldn't escape!")
		f.pause(2 * time.Second)
		return true, false, nil
	}
}

func (f *fight) attack() error {
	target, err := f.pickTarget()
	if err != nil {
		return err
	}

	weapon := 0
	if w, ok := state.Weapon(f.Defs, f.player); ok {
		weapon = w.Damage.Min
		if w.Damage.Max > w.Damage.Min {
			weapon = f.RNG.Between(w.Damage.Min, w.Damage.Max)
		}
	}
	dmg := AttackDamage(weapon, f.player.Level, f.class.DamageMod, f.player.Effects)
	f.lastDamage = dmg

	actual := target.TakeDamage(dmg)
	f.log.WithFields(logrus.Fields{"target": target.Name, "damage": actual}).Debug("attack")
	f.Console.Say(ui.ToneWarn, fmt.Sprintf("You attack %s for %d damage!", target.Name, actual))
	if !target.Alive() {
		f.Console.Say(ui.ToneGood, fmt.Sprintf("%s defeated!", target.Name))
	}
	f.pause(2 * time.Second)
	return nil
}

func (f *fight) pickTarget() (*enemy.Enemy, error) {
	alive := f.alive()
	if len(alive) == 1 {
		return alive[0], nil
	}
	names := make([]string, len(alive))
	for i, en := range alive {
		names[i] = en.Name
	}
	idx, err := f.Console.Menu("Choose target:", names)
	if err != nil {
		return nil, err
	}
	return alive[idx], nil
}

func (f *fight) tickPlayer() {
	res := effects.Tick(&f.player.Effects, &f.player.Vitals)
	for _, t := range res.Expired {
		f.Console.Say(ui.ToneSystem, fmt.Sprintf("%s wore off.", effects.Name(t)))
	}
	switch {
	case res.Health > 0:
		f.Console.Say(ui.ToneGood, fmt.Sprintf("Effect regen: %d HP", res.Health))
	case res.Health < 0:
		f.Console.Say(ui.ToneBad, fmt.Sprintf("Effect damage: %d HP", -res.Health))
	}
}

// enemyPhase lets every living enemy act. It reports true as soon as the
// player falls; the remaining enemies do not act.
func (f *fight) enemyPhase() bool {
	for _, en := range f.enemies {
		if !en.Alive() {
			continue
		}
		stunned := effects.IsStunned(en.Effects)
		res := effects.Tick(&en.Effects, &en.Vitals)
		if res.Health < 0 {
			f.Console.Say(ui.ToneGood, fmt.Sprintf("%s takes %d poison damage!", en.Name, -res.Health))
			if !en.Alive() {
				f.Console.Say(ui.ToneGood, fmt.Sprintf("%s succumbed to poison!", en.Name))
				f.pause(time.Second)
				continue
			}
		}
		if stunned {
			f.Console.Say(ui.ToneWarn, fmt.Sprintf("%s is stunned and skips their turn!", en.Name))
			f.pause(time.Second)
			continue
		}

		f.enemyAttack(en)
		if f.player.Health <= 0 {
			return true
		}
	}
	return false
}

func (f *fight) enemyAttack(en *enemy.Enemy) {
	f.Console.Clear()
	f.Console.Say(ui.ToneBad, fmt.Sprintf("%s attacks!", en.Name))
	f.pause(time.Second)

	if dodge := effects.Dodge(f.player.Effects); dodge > 0 && f.RNG.Float64() < dodge {
		f.Console.Say(ui.ToneGood, "You dodge the attack!")
		f.pause(2 * time.Second)
		return
	}

	grade := f.Input.Defense(f.ctx, en.Difficulty)
	tone, msg := qte.DefenseMessage(grade)
	f.Console.Say(tone, msg)

	taken := 0
	switch grade {
	case qte.Perfect:
		counter := en.TakeDamage(f.lastDamage / 2)
		f.Console.Say(ui.ToneWarn, fmt.Sprintf("You counter for %d damage!", counter))
		if !en.Alive() {
			f.Console.Say(ui.ToneGood, fmt.Sprintf("%s defeated!", en.Name))
		}
	case qte.Block:
		taken = BlockDamage(en.Damage, f.player.Effects)
		f.Console.Say(ui.ToneWarn, fmt.Sprintf("Took %d damage.", taken))
	default:
		taken = HitDamage(en.Damage, state.Armor(f.Defs, f.player), f.player.Effects)
		f.Console.Say(ui.ToneBad, fmt.Sprintf("HIT! Took %d damage!", taken))
	}
	f.player.Health -= taken
	f.log.WithFields(logrus.Fields{
		"enemy": en.Name,
		"grade": grade,
		"taken": taken,
	}).Debug("enemy attack")
	f.pause(2 * time.Second)
}

func (f *fight) victory(turn int) (Result, error) {
	f.Console.Clear()
	f.Console.Say(ui.ToneGood, "=== VICTORY ===")
	f.Console.Say(ui.ToneGood, "All enemies defeated!")
	f.pause(2 * time.Second)

	loot := AggregateLoot(f.enemies, f.RNG)
	p := f.player

	if loot.Gold > 0 {
		p.Gold += loot.Gold
		f.Console.Say(ui.ToneWarn, fmt.Sprintf("Gained %d gold!", loot.Gold))
	}
	for _, item := range loot.Items {
		if err := f.Inventory.AddItem(p, item, 1); err != nil {
			f.log.WithError(err).WithField("item", item).Warn("loot not granted")
			continue
		}
		f.Console.Say(ui.ToneGood, fmt.Sprintf("Found: %s", item))
	}
	if loot.XP > 0 {
		for _, line := range f.Progression.GrantExperience(p, loot.XP) {
			f.Console.Say(ui.ToneInfo, line)
		}
	}
	if p.MaxMana > 0 {
		regen := int(float64(p.MaxMana) * victoryPool)
		p.Mana = min(p.MaxMana, p.Mana+regen)
		f.Console.Say(ui.ToneInfo, fmt.Sprintf("Mana restored: +%d", regen))
	}
	if p.MaxStamina > 0 {
		regen := int(float64(p.MaxStamina) * victoryPool)
		p.Stamina = min(p.MaxStamina, p.Stamina+regen)
		f.Console.Say(ui.ToneInfo, fmt.Sprintf("Stamina restored: +%d", regen))
	}
	p.Victories++

	res := Result{Outcome: types.OutcomeVictory, Turns: turn, Loot: loot}
	if f.Saver != nil {
		f.recordRNG(p)
		if err := f.Saver.Save(p); err != nil {
			return res, fmt.Errorf("saving after victory: %w", err)
		}
	}
	return res, f.Console.PressAnyKey("Press any key to continue...")
}
