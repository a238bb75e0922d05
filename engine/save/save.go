// Package save implements JSON serialization and deserialization of game state.
package save

import (
	"encoding/json"
	"fmt"

	"github.com/nathoo/eventcore/engine/state"
	"github.com/nathoo/eventcore/types"
)

// FormatVersion is bumped when SaveData changes incompatibly.
const FormatVersion = 1

// SelfSwitch is one self switch in serializable form.
type SelfSwitch struct {
	Map    int    `json:"map"`
	Event  int    `json:"event"`
	Letter string `json:"letter"`
}

// MapData is the saved part of the current map.
type MapData struct {
	ID     int                     `json:"id"`
	Player types.Character         `json:"player"`
	Events map[int]types.Character `json:"events"`
	Erased map[int]bool            `json:"erased"`
	Memory types.Location          `json:"memory"`
}

// SaveData is the JSON-serializable save format.
type SaveData struct {
	Format       int               `json:"format"`
	Version      string            `json:"version"`
	Game         string            `json:"game"`
	Frame        int               `json:"frame"`
	Switches     map[int]bool      `json:"switches"`
	Variables    map[int]int       `json:"variables"`
	SelfSwitches []SelfSwitch      `json:"self_switches"`
	Party        types.Party       `json:"party"`
	Map          MapData           `json:"map"`
	Timer        types.TimerState  `json:"timer"`
	Audio        types.AudioState  `json:"audio"`
	Screen       types.ScreenState `json:"screen"`
	RNGSeed      int64             `json:"rng_seed"`
	RNGPosition  int64             `json:"rng_position"`
	Continuation string            `json:"continuation,omitempty"`
}

// Save serializes game state to JSON bytes. Only switched-on self switches
// are stored. continuation names the event continuation pending at save
// time, or is empty.
func Save(s *types.State, defs *state.Defs, continuation string) ([]byte, error) {
	data := SaveData{
		Format:       FormatVersion,
		Version:      defs.Game.Version,
		Game:         defs.Game.Title,
		Frame:        s.Frame,
		Switches:     s.Switches,
		Variables:    s.Variables,
		Party:        s.Party,
		Timer:        s.Timer,
		Audio:        s.Audio,
		Screen:       s.Screen,
		RNGSeed:      s.RNGSeed,
		RNGPosition:  s.RNGPosition,
		Continuation: continuation,
		Map: MapData{
			ID:     s.Map.ID,
			Player: s.Map.Player,
			Events: map[int]types.Character{},
			Erased: s.Map.Erased,
			Memory: s.Map.Memory,
		},
	}
	for k, on := range s.SelfSwitches {
		if on {
			data.SelfSwitches = append(data.SelfSwitches, SelfSwitch{Map: k.Map, Event: k.Event, Letter: k.Letter})
		}
	}
	for id, ch := range s.Map.Events {
		data.Map.Events[id] = *ch
	}
	return json.MarshalIndent(data, "", "  ")
}

// Load deserializes JSON bytes into SaveData.
func Load(data []byte) (*SaveData, error) {
	var sd SaveData
	if err := json.Unmarshal(data, &sd); err != nil {
		return nil, fmt.Errorf("save: %w", err)
	}
	if sd.Format != FormatVersion {
		return nil, fmt.Errorf("save: format %d, want %d", sd.Format, FormatVersion)
	}
	// Ensure maps are never nil after load.
	if sd.Switches == nil {
		sd.Switches = map[int]bool{}
	}
	if sd.Variables == nil {
		sd.Variables = map[int]int{}
	}
	if sd.Party.Actors == nil {
		sd.Party.Actors = map[int]*types.ActorState{}
	}
	if sd.Party.Items == nil {
		sd.Party.Items = map[int]int{}
	}
	if sd.Party.Members == nil {
		sd.Party.Members = []int{}
	}
	for _, a := range sd.Party.Actors {
		if a.States == nil {
			a.States = map[int]bool{}
		}
	}
	if sd.Map.Erased == nil {
		sd.Map.Erased = map[int]bool{}
	}
	return &sd, nil
}

// ApplySave applies loaded save data onto a state. The map is re-entered so
// event characters and pages are rebuilt before saved positions are laid
// over them.
func ApplySave(s *types.State, defs *state.Defs, sd *SaveData) {
	s.Switches = sd.Switches
	s.Variables = sd.Variables
	s.SelfSwitches = map[types.SelfSwitchKey]bool{}
	for _, ss := range sd.SelfSwitches {
		s.SelfSwitches[types.SelfSwitchKey{Map: ss.Map, Event: ss.Event, Letter: ss.Letter}] = true
	}
	s.Party = sd.Party
	s.Timer = sd.Timer
	s.Audio = sd.Audio
	s.Screen = sd.Screen
	s.Frame = sd.Frame
	s.RNGSeed = sd.RNGSeed
	s.RNGPosition = sd.RNGPosition

	s.Map.Memory = sd.Map.Memory
	state.EnterMap(s, defs, sd.Map.ID, sd.Map.Player.X, sd.Map.Player.Y, sd.Map.Player.Dir)
	s.Map.Player = sd.Map.Player
	s.Map.Erased = sd.Map.Erased
	for id, ch := range sd.Map.Events {
		if cur, ok := s.Map.Events[id]; ok {
			*cur = ch
		}
	}

	s.Message = types.MessageState{ChoiceResult: -1}
	s.Scene = types.SceneRequests{}
	s.Battle = types.BattleState{Target: -1}
	s.Encounter = types.BattleRequest{}
}
