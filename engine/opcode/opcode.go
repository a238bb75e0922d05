// Package opcode defines the command codes understood by the interpreters.
// Map and battle contexts share the common range; each context owns its
// branch markers, and neither interprets the other's.
package opcode

// Common commands, valid in both contexts.
const (
	ShowMessage        = 10110
	ShowMessageLine    = 20110
	MessageOptions     = 10120
	ChangeFaceGraphic  = 10130
	ShowChoice         = 10140
	ChoiceOption       = 20140
	ChoiceEnd          = 20141
	InputNumber        = 10150
	ControlSwitches    = 10210
	ControlVariables   = 10220
	TimerOperation     = 10230
	ChangeGold         = 10310
	ChangeItems        = 10320
	ChangePartyMembers = 10330
	ChangeHP           = 10460
	ChangeCondition    = 10480
	FullHeal           = 10490
	ChangeHeroName     = 10610
	Wait               = 11410
	PlayBGM            = 11510
	PlaySound          = 11550
	KeyInputProc       = 11610
	OpenSaveMenu       = 11910
	OpenMainMenu       = 11950
	Label              = 12110
	JumpToLabel        = 12120
	Loop               = 12210
	BreakLoop          = 12220
	EndLoop            = 22210
	EndEventProcessing = 12310
	CallEvent          = 12330
	Comment            = 12410
	CommentLine        = 22410
	GameOver           = 12420
	ReturnToTitle      = 12510
)

// Map-only commands.
const (
	EnemyEncounter      = 10710
	VictoryHandler      = 20710
	EscapeHandler       = 20711
	DefeatHandler       = 20712
	EndBattle           = 20713
	OpenShop            = 10720
	Transaction         = 20720
	NoTransaction       = 20721
	EndShop             = 20722
	ShowInn             = 10730
	Stay                = 20730
	NoStay              = 20731
	EndInn              = 20732
	EnterHeroName       = 10740
	Teleport            = 10810
	MemorizeLocation    = 10820
	RecallToLocation    = 10830
	ChangeEventLocation = 10860
	TradeEventLocations = 10870
	StoreEventID        = 10920
	EraseScreen         = 11010
	ShowScreen          = 11020
	TintScreen          = 11030
	FlashScreen         = 11040
	ShakeScreen         = 11050
	ShowBattleAnimation = 11210
	MoveEvent           = 11330
	ProceedWithMovement = 11340
	HaltAllMovement     = 11350
	ConditionalBranch   = 12010
	ElseBranch          = 22010
	EndBranch           = 22011
	EraseEvent          = 12320
	SetSelfSwitch       = 12340
)

// Battle-only commands.
const (
	ChangeMonsterHP        = 13110
	ChangeMonsterMP        = 13120
	ChangeMonsterCondition = 13130
	ShowHiddenMonster      = 13150
	ChangeBattleBG         = 13210
	ShowBattleAnimationB   = 13260
	ConditionalBranchB     = 13310
	ElseBranchB            = 23310
	EndBranchB             = 23311
	TerminateBattle        = 13410
	ForceAction            = 13420
)

var names = map[int]string{
	ShowMessage:            "ShowMessage",
	ShowMessageLine:        "ShowMessageLine",
	MessageOptions:         "MessageOptions",
	ChangeFaceGraphic:      "ChangeFaceGraphic",
	ShowChoice:             "ShowChoice",
	ChoiceOption:           "ChoiceOption",
	ChoiceEnd:              "ChoiceEnd",
	InputNumber:            "InputNumber",
	ControlSwitches:        "ControlSwitches",
	ControlVariables:       "ControlVariables",
	TimerOperation:         "TimerOperation",
	ChangeGold:             "ChangeGold",
	ChangeItems:            "ChangeItems",
	ChangePartyMembers:     "ChangePartyMembers",
	ChangeHP:               "ChangeHP",
	ChangeCondition:        "ChangeCondition",
	FullHeal:               "FullHeal",
	ChangeHeroName:         "ChangeHeroName",
	Wait:                   "Wait",
	PlayBGM:                "PlayBGM",
	PlaySound:              "PlaySound",
	KeyInputProc:           "KeyInputProc",
	OpenSaveMenu:           "OpenSaveMenu",
	OpenMainMenu:           "OpenMainMenu",
	Label:                  "Label",
	JumpToLabel:            "JumpToLabel",
	Loop:                   "Loop",
	BreakLoop:              "BreakLoop",
	EndLoop:                "EndLoop",
	EndEventProcessing:     "EndEventProcessing",
	CallEvent:              "CallEvent",
	Comment:                "Comment",
	CommentLine:            "CommentLine",
	GameOver:               "GameOver",
	ReturnToTitle:          "ReturnToTitle",
	EnemyEncounter:         "EnemyEncounter",
	VictoryHandler:         "VictoryHandler",
	EscapeHandler:          "EscapeHandler",
	DefeatHandler:          "DefeatHandler",
	EndBattle:              "EndBattle",
	OpenShop:               "OpenShop",
	Transaction:            "Transaction",
	NoTransaction:          "NoTransaction",
	EndShop:                "EndShop",
	ShowInn:                "ShowInn",
	Stay:                   "Stay",
	NoStay:                 "NoStay",
	EndInn:                 "EndInn",
	EnterHeroName:          "EnterHeroName",
	Teleport:               "Teleport",
	MemorizeLocation:       "MemorizeLocation",
	RecallToLocation:       "RecallToLocation",
	ChangeEventLocation:    "ChangeEventLocation",
	TradeEventLocations:    "TradeEventLocations",
	StoreEventID:           "StoreEventID",
	EraseScreen:            "EraseScreen",
	ShowScreen:             "ShowScreen",
	TintScreen:             "TintScreen",
	FlashScreen:            "FlashScreen",
	ShakeScreen:            "ShakeScreen",
	ShowBattleAnimation:    "ShowBattleAnimation",
	MoveEvent:              "MoveEvent",
	ProceedWithMovement:    "ProceedWithMovement",
	HaltAllMovement:        "HaltAllMovement",
	ConditionalBranch:      "ConditionalBranch",
	ElseBranch:             "ElseBranch",
	EndBranch:              "EndBranch",
	EraseEvent:             "EraseEvent",
	SetSelfSwitch:          "SetSelfSwitch",
	ChangeMonsterHP:        "ChangeMonsterHP",
	ChangeMonsterMP:        "ChangeMonsterMP",
	ChangeMonsterCondition: "ChangeMonsterCondition",
	ShowHiddenMonster:      "ShowHiddenMonster",
	ChangeBattleBG:         "ChangeBattleBG",
	ShowBattleAnimationB:   "ShowBattleAnimationB",
	ConditionalBranchB:     "ConditionalBranchB",
	ElseBranchB:            "ElseBranchB",
	EndBranchB:             "EndBranchB",
	TerminateBattle:        "TerminateBattle",
	ForceAction:            "ForceAction",
}

// Name returns the mnemonic for a code, or "" if the code is unknown.
func Name(code int) string {
	return names[code]
}

// Known reports whether code belongs to either context.
func Known(code int) bool {
	_, ok := names[code]
	return ok
}

// Scope says which interpreters accept a code.
type Scope int

const (
	ScopeUnknown Scope = iota
	ScopeCommon
	ScopeMap
	ScopeBattle
)

var codes = func() map[string]int {
	m := make(map[string]int, len(names))
	for c, n := range names {
		m[n] = c
	}
	return m
}()

// Code returns the code for a mnemonic.
func Code(name string) (int, bool) {
	c, ok := codes[name]
	return c, ok
}

// ScopeOf classifies a code by the context that owns it.
func ScopeOf(code int) Scope {
	if !Known(code) {
		return ScopeUnknown
	}
	switch {
	case code >= ChangeMonsterHP && code <= ForceAction,
		code >= ElseBranchB && code <= EndBranchB:
		return ScopeBattle
	}
	switch code {
	case EnemyEncounter, VictoryHandler, EscapeHandler, DefeatHandler, EndBattle,
		OpenShop, Transaction, NoTransaction, EndShop,
		ShowInn, Stay, NoStay, EndInn, EnterHeroName,
		Teleport, MemorizeLocation, RecallToLocation, ChangeEventLocation,
		TradeEventLocations, StoreEventID, EraseScreen, ShowScreen, TintScreen,
		FlashScreen, ShakeScreen, ShowBattleAnimation, MoveEvent,
		ProceedWithMovement, HaltAllMovement, ConditionalBranch, ElseBranch,
		EndBranch, EraseEvent, SetSelfSwitch:
		return ScopeMap
	}
	return ScopeCommon
}
