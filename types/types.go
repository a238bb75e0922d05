// Package types defines the shared data structures for the eventcore player.
// This package contains only type definitions, with no logic and no methods.
package types

// Command is one indent-annotated instruction of an event program.
type Command struct {
	Code   int
	Indent int
	Params []int
	Text   string // optional literal (message line, file name, label text)
}

// Program is an immutable, ordered command list produced by the loader.
type Program []Command

// Trigger selects how an event page or common event is started.
type Trigger string

const (
	TriggerAction   Trigger = "action"
	TriggerTouch    Trigger = "touch"
	TriggerAutorun  Trigger = "autorun"
	TriggerParallel Trigger = "parallel"
	TriggerCall     Trigger = "call"
)

// Directions, clockwise from up.
const (
	DirUp = iota
	DirRight
	DirDown
	DirLeft
)

// Character references understood by map commands.
const (
	CharPlayer    = -1
	CharThisEvent = 0
	CharCrowd     = -2 // centre of the player and every visible event
)

// Intent is the parsed representation of a player input line.
type Intent struct {
	Verb   string
	Object string // optional
	Target string // optional
}

// Event is emitted by state mutations and consumed by refresh dispatch.
type Event struct {
	Type string
	Data map[string]any
}

// Result is the output of a single engine tick or player action.
type Result struct {
	Events     []Event
	Output     []string
	Scene      string // pending scene request, "" when none
	Dispatched int    // commands dispatched by the root interpreter this tick
}

// GameDef holds game metadata from Lua.
type GameDef struct {
	Title    string
	Author   string
	Version  string
	StartMap int
	StartX   int
	StartY   int
	Party    []int
	Gold     int
}

// ActorDef is the base definition of a party member.
type ActorDef struct {
	ID      int
	Name    string
	HP      int
	MP      int
	Attack  int
	Defense int
}

// ItemDef is the base definition of an item.
type ItemDef struct {
	ID    int
	Name  string
	Price int
}

// EnemyDef is the base definition of a troop member.
type EnemyDef struct {
	ID      int
	Name    string
	HP      int
	MP      int
	Attack  int
	Defense int
}

// TroopPageCondition gates a troop page. Zero fields are ignored.
type TroopPageCondition struct {
	Switch     int
	Turn       int
	EnemyIndex int // 1-based troop slot, 0 for none
	EnemyHPMax int // percent; page runs when that enemy's hp% <= this
}

// TroopPage is a battle event page.
type TroopPage struct {
	Condition TroopPageCondition
	Program   Program
}

// TroopDef is a group of enemies fought together.
type TroopDef struct {
	ID      int
	Name    string
	Members []int
	Pages   []TroopPage
}

// CommonEventDef is a program shared by every map.
type CommonEventDef struct {
	ID      int
	Name    string
	Trigger Trigger
	Switch  int // condition switch for autorun/parallel, 0 for none
	Program Program
}

// PageCondition gates an event page. Zero fields are ignored.
type PageCondition struct {
	Switch1    int
	Switch2    int
	Variable   int
	VarAtLeast int
	Item       int
	Actor      int
	SelfSwitch string
}

// EventPage is one page of a map event; the highest satisfied page is active.
type EventPage struct {
	Condition PageCondition
	Trigger   Trigger
	Program   Program
}

// EventDef is a map event.
type EventDef struct {
	ID    int
	Name  string
	X     int
	Y     int
	Pages []EventPage
}

// MapDef is the base definition of a map.
type MapDef struct {
	ID     int
	Name   string
	Width  int
	Height int
	Events map[int]EventDef
}

// RouteStep is one decoded move-route instruction.
type RouteStep struct {
	Code int
	Arg  int
}

// MoveRoute is a decoded forced move route.
type MoveRoute struct {
	Steps     []RouteStep
	Repeat    bool
	Skippable bool
}

// ActiveRoute tracks a route a character is currently following.
type ActiveRoute struct {
	Route    *MoveRoute
	Index    int
	WaitLeft int
	Done     bool
}

// Character is a positioned actor on the current map.
type Character struct {
	ID     int
	X      int
	Y      int
	Dir    int
	Hidden bool
	Route  *ActiveRoute
}

// Location is a map position.
type Location struct {
	MapID int
	X     int
	Y     int
}

// Teleport is a pending map transfer requested by a command.
type Teleport struct {
	Pending bool
	MapID   int
	X       int
	Y       int
	Dir     int
}

// MapState holds the runtime state of the current map.
type MapState struct {
	ID           int
	Player       Character
	Events       map[int]*Character
	Pages        map[int]int // event ID → active page index, -1 when none
	Erased       map[int]bool
	NeedsRefresh bool
	Teleport     Teleport
	Memory       Location
}

// MessageState is the UI-visible message window.
type MessageState struct {
	Visible      bool
	Waiting      bool
	Lines        []string
	Face         string
	Position     int
	Choices      []string
	ChoiceCancel int // 0 disallowed, 1..n picks that option, n+1 cancel branch
	ChoiceResult int // -1 while unresolved
	NumberDigits int
	NumberVar    int
}

// SceneRequests are the flags a scene controller polls once per tick.
type SceneRequests struct {
	Battle   bool
	Shop     bool
	Name     bool
	Save     bool
	Menu     bool
	Title    bool
	GameOver bool
}

// ShopRequest describes an open shop and its outcome.
type ShopRequest struct {
	Type        int // 0 buy and sell, 1 buy only, 2 sell only
	Goods       []int
	Transaction bool
}

// NameRequest describes a pending hero name entry.
type NameRequest struct {
	Actor int
}

// BattleOutcome is the result of a battle.
type BattleOutcome int

const (
	OutcomeNone BattleOutcome = iota
	OutcomeVictory
	OutcomeEscape
	OutcomeDefeat
)

// BattleRequest is raised by an encounter command.
type BattleRequest struct {
	TroopID   int
	CanEscape bool
	Result    BattleOutcome
}

// Battler is the runtime state of an enemy in battle.
type Battler struct {
	ID      int
	Name    string
	HP      int
	MaxHP   int
	MP      int
	MaxMP   int
	Attack  int
	Defense int
	Hidden  bool
	States  map[int]bool
}

// ForcedAction is queued by battle scripting.
type ForcedAction struct {
	Enemy  bool
	Index  int
	Action int
	Skill  int
}

// BattleState is the runtime state of the battle in progress.
type BattleState struct {
	Active      bool
	TroopID     int
	Turn        int
	Enemies     []Battler
	Background  string
	Target      int         // troop slot last targeted by the party, -1 for none
	LastCommand map[int]int // actor ID → command used this turn
	Forced      []ForcedAction
	Animation   int
	Result      BattleOutcome
	PagesRun    map[int]int // troop page index → turn it last ran
}

// ActorState is the runtime state of a party member.
type ActorState struct {
	ID      int
	Name    string
	HP      int
	MaxHP   int
	MP      int
	MaxMP   int
	Attack  int
	Defense int
	States  map[int]bool
}

// Party holds the player's party, gold, and inventory.
type Party struct {
	Members []int
	Actors  map[int]*ActorState
	Gold    int
	Items   map[int]int
}

// ScreenState holds screen effects requested by commands.
type ScreenState struct {
	Erased      bool
	Tint        [4]int
	FlashFrames int
	ShakeFrames int
	Animation   int
	AnimX       int
	AnimY       int
}

// AudioState holds the last audio requests.
type AudioState struct {
	BGM   string
	Sound string
}

// TimerState is the countdown timer.
type TimerState struct {
	Running bool
	Frames  int
}

// SelfSwitchKey identifies a self switch.
type SelfSwitchKey struct {
	Map    int
	Event  int
	Letter string
}

// State is the complete mutable game state.
type State struct {
	Switches     map[int]bool
	Variables    map[int]int
	SelfSwitches map[SelfSwitchKey]bool
	Party        Party
	Map          MapState
	Message      MessageState
	Scene        SceneRequests
	Shop         ShopRequest
	Name         NameRequest
	Encounter    BattleRequest
	Battle       BattleState
	Screen       ScreenState
	Audio        AudioState
	Timer        TimerState
	KeyPressed   int // key code captured this tick, 0 for none
	ActionEvent  int // event started by the action key, 0 otherwise
	Frame        int
	RNGSeed      int64
	RNGPosition  int64
}
