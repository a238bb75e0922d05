package engine

import (
	"strings"
	"testing"

	"github.com/nathoo/eventcore/engine/interp"
	"github.com/nathoo/eventcore/engine/opcode"
	"github.com/nathoo/eventcore/types"
)

func TestDamageCalc_Basic(t *testing.T) {
	// Fixed seed: we know what roll(6) produces.
	rng := NewRNG(42)

	// First roll with seed 42 on a d6.
	damage, roll := DamageCalc(5, 2, false, rng)

	// damage = max(1, roll + 5 - 2)
	expectedDamage := roll + 5 - 2
	if expectedDamage < 1 {
		expectedDamage = 1
	}
	if damage != expectedDamage {
		t.Errorf("expected damage %d, got %d (roll=%d)", expectedDamage, damage, roll)
	}
	if roll < 1 || roll > 6 {
		t.Errorf("roll out of range: %d", roll)
	}
}

func TestDamageCalc_MinimumOne(t *testing.T) {
	// High defense, low attack → should still be at least 1.
	rng := NewRNG(1)
	for i := 0; i < 100; i++ {
		damage, _ := DamageCalc(0, 20, false, rng)
		if damage < 1 {
			t.Fatalf("damage should be at least 1, got %d", damage)
		}
	}
}

func TestDamageCalc_DefendBonus(t *testing.T) {
	// Same seed, compare with and without defend.
	rng1 := NewRNG(42)
	rng2 := NewRNG(42)

	damageNormal, roll1 := DamageCalc(5, 2, false, rng1)
	damageDefend, roll2 := DamageCalc(5, 2, true, rng2)

	if roll1 != roll2 {
		t.Fatalf("same seed should produce same roll: %d vs %d", roll1, roll2)
	}

	// defend adds +2 to defense, so damage should be 2 less (clamped to 1).
	expectedDiff := 2
	if damageNormal-damageDefend != expectedDiff && damageDefend != 1 {
		t.Errorf("defend should reduce damage by 2: normal=%d, defend=%d", damageNormal, damageDefend)
	}
}

func TestDamageCalc_Deterministic(t *testing.T) {
	rng1 := NewRNG(99)
	rng2 := NewRNG(99)

	for i := 0; i < 50; i++ {
		d1, r1 := DamageCalc(4, 1, false, rng1)
		d2, r2 := DamageCalc(4, 1, false, rng2)
		if d1 != d2 || r1 != r2 {
			t.Fatalf("iteration %d: results differ: (%d,%d) vs (%d,%d)", i, d1, r1, d2, r2)
		}
	}
}

// encounter makes the elder start a battle with troop and the given modes,
// setting switch 10, 11 or 12 on victory, escape or defeat and switch 13
// afterwards.
func encounter(troop, escape, defeat int) types.Program {
	return types.Program{
		c(opcode.EnemyEncounter, 0, 0, troop, escape, defeat),
		c(opcode.VictoryHandler, 0),
		on(1, 10),
		c(opcode.EscapeHandler, 0),
		on(1, 11),
		c(opcode.DefeatHandler, 0),
		on(1, 12),
		c(opcode.EndBattle, 0),
		on(0, 13),
	}
}

func startEncounter(t *testing.T, troop, escape, defeat int) *Engine {
	t.Helper()
	defs := testDefs()
	setElder(defs, encounter(troop, escape, defeat))
	e := newTestEngine(defs)
	r := talk(t, e)
	if r.Scene != "battle" || !e.InBattle() {
		t.Fatalf("expected a battle, scene=%q", r.Scene)
	}
	return e
}

func TestNewBattlers(t *testing.T) {
	defs := testDefs()
	got := NewBattlers(defs, types.TroopDef{Members: []int{1, 99, 2}})

	if len(got) != 2 {
		t.Fatalf("unknown enemies are skipped, got %d battlers", len(got))
	}
	if got[0].Name != "Slime" || got[1].MaxHP != 1000 || got[1].HP != 1000 {
		t.Errorf("unexpected battlers: %+v", got)
	}
}

func TestBattle_StartsFromEncounter(t *testing.T) {
	e := startEncounter(t, 1, interp.EscapeHandler, interp.DefeatHandler)

	b := e.State.Battle
	if !b.Active || b.TroopID != 1 || b.Turn != 1 || len(b.Enemies) != 1 {
		t.Errorf("unexpected battle state: %+v", b)
	}
	if e.State.Scene.Battle {
		t.Error("the scene request should be consumed")
	}
	if err := e.MovePlayer(types.DirUp); err != ErrBusy {
		t.Errorf("expected ErrBusy in battle, got %v", err)
	}
}

func TestBattle_FightToVictory(t *testing.T) {
	e := startEncounter(t, 1, interp.EscapeHandler, interp.DefeatHandler)

	if err := e.Fight(); err != nil {
		t.Fatalf("fight: %v", err)
	}
	r := e.Run(60)

	s := e.State
	if e.InBattle() || s.Battle.Active {
		t.Fatal("battle should be over")
	}
	if !s.Switches[10] || s.Switches[11] || s.Switches[12] || !s.Switches[13] {
		t.Errorf("expected the victory branch, switches=%v", s.Switches)
	}
	if !strings.Contains(strings.Join(r.Output, "\n"), "Victory!") {
		t.Errorf("expected a victory line, got %v", r.Output)
	}
}

func TestBattle_DefeatHandler(t *testing.T) {
	e := startEncounter(t, 2, interp.EscapeHandler, interp.DefeatHandler)

	if err := e.Fight(); err != nil {
		t.Fatalf("fight: %v", err)
	}
	e.Run(60)

	s := e.State
	if !s.Switches[12] || s.Switches[10] {
		t.Errorf("expected the defeat branch, switches=%v", s.Switches)
	}
	if s.Party.Actors[1].HP != 0 {
		t.Errorf("the hero should have fallen, hp=%d", s.Party.Actors[1].HP)
	}
}

func TestBattle_DefeatWithoutHandlerIsGameOver(t *testing.T) {
	e := startEncounter(t, 2, interp.EscapeDisallowed, interp.DefeatGameOver)

	if err := e.Fight(); err != nil {
		t.Fatalf("fight: %v", err)
	}
	r := e.Run(60)

	if r.Scene != "gameover" {
		t.Errorf("expected game over, got %q", r.Scene)
	}
	if e.State.Switches[13] {
		t.Error("the event must not continue past a game over")
	}
}

func TestBattle_EscapeDisallowed(t *testing.T) {
	e := startEncounter(t, 2, interp.EscapeDisallowed, interp.DefeatHandler)
	e.State.Party.Actors[1].HP = 9999
	e.State.Party.Actors[1].MaxHP = 9999

	if err := e.Escape(); err != nil {
		t.Fatalf("escape: %v", err)
	}
	r := e.Run(1)

	if !e.InBattle() {
		t.Error("escape must fail when disallowed")
	}
	if e.State.Battle.Turn != 2 {
		t.Errorf("a failed escape costs the turn, turn=%d", e.State.Battle.Turn)
	}
	if !strings.Contains(strings.Join(r.Output, "\n"), "no escape") {
		t.Errorf("expected a refusal line, got %v", r.Output)
	}
	if e.State.Battle.LastCommand[1] != CommandEscape {
		t.Errorf("expected escape recorded, got %d", e.State.Battle.LastCommand[1])
	}
}

func TestBattle_EscapeEventuallySucceeds(t *testing.T) {
	e := startEncounter(t, 1, interp.EscapeHandler, interp.DefeatHandler)
	e.State.Battle.Enemies[0].Attack = 0
	e.State.Battle.Enemies[0].HP = 9999

	for i := 0; i < 50 && e.InBattle(); i++ {
		if err := e.Escape(); err != nil {
			t.Fatalf("escape: %v", err)
		}
		e.Run(1)
	}
	e.Run(60)

	if e.InBattle() {
		t.Fatal("escape should succeed within 50 attempts")
	}
	if !e.State.Switches[11] || e.State.Switches[10] {
		t.Errorf("expected the escape branch, switches=%v", e.State.Switches)
	}
}

func TestBattle_EscapeEndsEvent(t *testing.T) {
	defs := testDefs()
	defs.Troops[3] = types.TroopDef{ID: 3, Members: []int{1}, Pages: []types.TroopPage{
		{Program: types.Program{c(opcode.TerminateBattle, 0)}},
	}}
	setElder(defs, types.Program{
		c(opcode.EnemyEncounter, 0, 0, 3, interp.EscapeEndEvent, interp.DefeatGameOver),
		on(0, 13),
	})
	e := newTestEngine(defs)

	talk(t, e)
	e.Run(60)

	if e.InBattle() {
		t.Fatal("TerminateBattle should end the battle")
	}
	if e.State.Switches[13] {
		t.Error("escape with end-event mode stops the event")
	}
	if e.Main().Running() {
		t.Error("main interpreter should be done")
	}
}

func TestBattle_TroopPagesPerTurn(t *testing.T) {
	defs := testDefs()
	defs.Enemies[1] = types.EnemyDef{ID: 1, Name: "Golem", HP: 500, Defense: 99}
	defs.Troops[1] = types.TroopDef{ID: 1, Members: []int{1}, Pages: []types.TroopPage{
		{Condition: types.TroopPageCondition{Turn: 2}, Program: types.Program{on(0, 20)}},
		{Program: types.Program{c(opcode.ControlVariables, 0, 0, 5, 0, 1, interp.OperandConst, 1)}},
	}}
	setElder(defs, encounter(1, interp.EscapeHandler, interp.DefeatHandler))
	e := newTestEngine(defs)

	talk(t, e)
	e.Run(10)
	if e.State.Variables[5] != 1 || e.State.Switches[20] {
		t.Fatalf("turn 1: var5=%d sw20=%v", e.State.Variables[5], e.State.Switches[20])
	}

	if err := e.Fight(); err != nil {
		t.Fatal(err)
	}
	e.Run(10)

	if e.State.Variables[5] != 2 {
		t.Errorf("the unconditional page runs once per turn, var5=%d", e.State.Variables[5])
	}
	if !e.State.Switches[20] {
		t.Error("the turn 2 page should have run")
	}
}

func TestBattle_MessageBlocksCommands(t *testing.T) {
	defs := testDefs()
	defs.Troops[1] = types.TroopDef{ID: 1, Members: []int{1}, Pages: []types.TroopPage{
		{Program: types.Program{msg(0, "The slime wobbles.")}},
	}}
	setElder(defs, encounter(1, interp.EscapeHandler, interp.DefeatHandler))
	e := newTestEngine(defs)

	talk(t, e)
	e.Run(10)

	if !e.State.Message.Waiting {
		t.Fatal("troop page message should be showing")
	}
	if err := e.Fight(); err != ErrBusy {
		t.Errorf("expected ErrBusy while the page runs, got %v", err)
	}
	if err := e.Confirm(); err != nil {
		t.Fatal(err)
	}
	e.Run(10)
	if err := e.Fight(); err != nil {
		t.Errorf("fight after the page: %v", err)
	}
}

func TestBattle_ForcedDefendSkipsAttack(t *testing.T) {
	e := startEncounter(t, 2, interp.EscapeHandler, interp.DefeatHandler)
	e.State.Battle.Forced = []types.ForcedAction{{Enemy: true, Index: 0, Action: ForcedDefend}}

	if err := e.Defend(); err != nil {
		t.Fatal(err)
	}

	if e.State.Party.Actors[1].HP != 30 {
		t.Errorf("a guarding enemy deals no damage, hp=%d", e.State.Party.Actors[1].HP)
	}
	if e.State.Battle.Forced != nil {
		t.Error("forced actions last one round")
	}
}

func TestFight_NotInBattle(t *testing.T) {
	e := newTestEngine(testDefs())
	if err := e.Fight(); err != ErrNotInBattle {
		t.Errorf("expected ErrNotInBattle, got %v", err)
	}
	if err := e.Escape(); err != ErrNotInBattle {
		t.Errorf("expected ErrNotInBattle, got %v", err)
	}
}
