package engine

import (
	"github.com/nathoo/eventcore/engine/battlescript"
	"github.com/nathoo/eventcore/engine/effects"
	"github.com/nathoo/eventcore/engine/interp"
	"github.com/nathoo/eventcore/engine/rules"
	"github.com/nathoo/eventcore/engine/state"
	"github.com/nathoo/eventcore/types"
)

// Party command codes recorded in BattleState.LastCommand.
const (
	CommandAttack = iota
	CommandDefend
	CommandEscape
)

// Forced action codes queued by ForceAction.
const (
	ForcedAttack = iota
	ForcedDefend
)

// EscapeChance is the percent chance that an escape attempt succeeds.
const EscapeChance = 50

// battleSession is one battle: the troop's page interpreter and the
// commands the party chose this turn.
type battleSession struct {
	troop     types.TroopDef
	in        *interp.Interpreter
	defending map[int]bool
}

// DamageCalc computes damage: max(1, roll(1d6) + attack - defense).
// If defending, defense gets +2 bonus. Returns (damage, dieRoll).
func DamageCalc(attackerAttack, defenderDefense int, defending bool, rng *RNG) (damage, roll int) {
	roll = rng.Roll(6)
	def := defenderDefense
	if defending {
		def += 2
	}
	damage = roll + attackerAttack - def
	if damage < 1 {
		damage = 1
	}
	return damage, roll
}

// NewBattlers instantiates the enemies of a troop. Unknown enemy IDs are
// skipped.
func NewBattlers(defs *state.Defs, troop types.TroopDef) []types.Battler {
	var out []types.Battler
	for _, id := range troop.Members {
		def, ok := defs.Enemies[id]
		if !ok {
			continue
		}
		out = append(out, types.Battler{
			ID:      def.ID,
			Name:    def.Name,
			HP:      def.HP,
			MaxHP:   def.HP,
			MP:      def.MP,
			MaxMP:   def.MP,
			Attack:  def.Attack,
			Defense: def.Defense,
			States:  map[int]bool{},
		})
	}
	return out
}

// startBattle consumes the battle scene request and opens a session.
func (e *Engine) startBattle() {
	s := e.State
	s.Scene.Battle = false
	troop, ok := e.Defs.Troops[s.Encounter.TroopID]
	if !ok {
		s.Encounter.Result = types.OutcomeVictory
		return
	}
	s.Battle = types.BattleState{
		Active:      true,
		TroopID:     troop.ID,
		Turn:        1,
		Enemies:     NewBattlers(e.Defs, troop),
		Target:      -1,
		LastCommand: map[int]int{},
		PagesRun:    map[int]int{},
	}
	e.battle = &battleSession{
		troop:     troop,
		in:        e.newInterpreter(battlescript.New()),
		defending: map[int]bool{},
	}
	e.log.Debug("battle started", "troop", troop.ID, "enemies", len(s.Battle.Enemies))
	for _, n := range enemyNames(s.Battle.Enemies) {
		e.say("%s appeared!", n)
	}
}

func enemyNames(bs []types.Battler) []string {
	var out []string
	for _, b := range bs {
		if !b.Hidden {
			out = append(out, b.Name)
		}
	}
	return out
}

// tick runs the current troop page or starts the next ready one, then
// checks for a battle outcome.
func (b *battleSession) tick(e *Engine) {
	if !b.in.Running() {
		b.startPage(e)
	}
	if b.in.Running() {
		b.in.Update()
	}
	e.checkOutcome()
}

// startPage binds the first troop page ready this turn.
func (b *battleSession) startPage(e *Engine) {
	s := e.State
	for i, p := range b.troop.Pages {
		if len(p.Program) == 0 || !rules.TroopPageReady(i, p, s) {
			continue
		}
		s.Battle.PagesRun[i] = s.Battle.Turn
		b.in.Setup(p.Program, 0, -1, -1)
		return
	}
}

// awaitingCommand reports whether the party may act: no troop page is
// running or about to start.
func (b *battleSession) awaitingCommand(s *types.State) bool {
	return !b.in.Running() && !b.pagesPending(s)
}

// pagesPending reports whether a troop page would start this turn.
func (b *battleSession) pagesPending(s *types.State) bool {
	for i, p := range b.troop.Pages {
		if len(p.Program) > 0 && rules.TroopPageReady(i, p, s) {
			return true
		}
	}
	return false
}

// Fight runs one round: every party member attacks the first visible enemy,
// then every standing enemy acts.
func (e *Engine) Fight() error {
	if err := e.battleReady(); err != nil {
		return err
	}
	s := e.State
	for _, id := range state.AliveMembers(s) {
		s.Battle.LastCommand[id] = CommandAttack
		a := s.Party.Actors[id]
		slot := firstStanding(s.Battle.Enemies)
		if slot < 0 {
			break
		}
		target := &s.Battle.Enemies[slot]
		s.Battle.Target = slot
		dmg, roll := DamageCalc(a.Attack, target.Defense, false, e.RNG)
		e.emit(effects.ChangeBattlerHP(target, -dmg, true))
		e.say("%s attacks %s! [%d] %d damage.", a.Name, target.Name, roll, dmg)
		if target.HP == 0 {
			e.say("%s is defeated.", target.Name)
		}
	}
	e.endRound()
	return nil
}

// Defend has every party member brace for the enemies' attacks.
func (e *Engine) Defend() error {
	if err := e.battleReady(); err != nil {
		return err
	}
	for _, id := range state.AliveMembers(e.State) {
		e.State.Battle.LastCommand[id] = CommandDefend
		e.battle.defending[id] = true
	}
	e.say("The party braces itself.")
	e.endRound()
	return nil
}

// Escape tries to flee. A failed attempt gives the enemies a free round.
func (e *Engine) Escape() error {
	if err := e.battleReady(); err != nil {
		return err
	}
	s := e.State
	for _, id := range state.AliveMembers(s) {
		s.Battle.LastCommand[id] = CommandEscape
	}
	if !s.Encounter.CanEscape {
		e.say("There is no escape!")
		e.endRound()
		return nil
	}
	if roll := e.RNG.Roll(100); roll <= EscapeChance {
		e.say("The party escaped.")
		e.endBattle(types.OutcomeEscape)
		return nil
	}
	e.say("Couldn't escape!")
	e.endRound()
	return nil
}

func (e *Engine) battleReady() error {
	if e.battle == nil {
		return ErrNotInBattle
	}
	if !e.battle.awaitingCommand(e.State) || e.State.Message.Waiting {
		return ErrBusy
	}
	return nil
}

// endRound lets the enemies act, applies forced actions, and starts the
// next turn.
func (e *Engine) endRound() {
	s := e.State
	forced := map[int]int{}
	for _, f := range s.Battle.Forced {
		if f.Enemy {
			forced[f.Index] = f.Action
		}
	}
	s.Battle.Forced = nil

	if e.checkOutcome() {
		return
	}
	for i := range s.Battle.Enemies {
		b := &s.Battle.Enemies[i]
		if b.Hidden || b.HP == 0 || b.States[rules.StateIncapacitated] {
			continue
		}
		if act, ok := forced[i]; ok && act == ForcedDefend {
			e.say("%s is on guard.", b.Name)
			continue
		}
		id := e.pickTarget()
		if id == 0 {
			break
		}
		a := s.Party.Actors[id]
		dmg, roll := DamageCalc(b.Attack, a.Defense, e.battle.defending[id], e.RNG)
		e.emit(effects.ChangeHP(a, -dmg, true))
		e.say("%s attacks %s! [%d] %d damage.", b.Name, a.Name, roll, dmg)
		if a.HP == 0 {
			e.say("%s falls.", a.Name)
		}
	}
	e.battle.defending = map[int]bool{}
	if e.checkOutcome() {
		return
	}
	s.Battle.Turn++
}

// pickTarget chooses a standing party member weighted by current HP, or 0.
func (e *Engine) pickTarget() int {
	alive := state.AliveMembers(e.State)
	if len(alive) == 0 {
		return 0
	}
	weights := make([]int, len(alive))
	for i, id := range alive {
		weights[i] = e.State.Party.Actors[id].HP
	}
	return alive[e.RNG.WeightedSelect(weights)]
}

func firstStanding(bs []types.Battler) int {
	for i, b := range bs {
		if !b.Hidden && b.HP > 0 {
			return i
		}
	}
	return -1
}

// checkOutcome ends the battle when scripting terminated it, every enemy
// is down, or the whole party has fallen. A running troop page finishes
// first.
func (e *Engine) checkOutcome() bool {
	s := e.State
	if e.battle == nil {
		return true
	}
	switch {
	case s.Battle.Result != types.OutcomeNone:
		e.endBattle(s.Battle.Result)
	case e.battle.in.Running():
		return false
	case len(state.AliveMembers(s)) == 0:
		e.say("The party has fallen.")
		e.endBattle(types.OutcomeDefeat)
	case firstStanding(s.Battle.Enemies) < 0 && !hasHidden(s.Battle.Enemies):
		e.say("Victory!")
		e.endBattle(types.OutcomeVictory)
	default:
		return false
	}
	return true
}

func hasHidden(bs []types.Battler) bool {
	for _, b := range bs {
		if b.Hidden && b.HP > 0 {
			return true
		}
	}
	return false
}

// endBattle hands the outcome back to the encounter's continuation.
func (e *Engine) endBattle(outcome types.BattleOutcome) {
	s := e.State
	e.log.Debug("battle ended", "troop", s.Battle.TroopID, "outcome", int(outcome))
	e.battle.in.Clear()
	e.battle = nil
	s.Battle = types.BattleState{Target: -1}
	s.Encounter.Result = outcome
}
