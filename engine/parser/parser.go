// Package parser converts player input lines into Intent structs.
// Intentionally dumb: no NLP, just word matching.
package parser

import (
	"strconv"
	"strings"

	"github.com/nathoo/eventcore/types"
)

var directionExpansions = map[string]string{
	"n":     "up",
	"north": "up",
	"u":     "up",
	"up":    "up",
	"s":     "down",
	"south": "down",
	"d":     "down",
	"down":  "down",
	"e":     "right",
	"east":  "right",
	"r":     "right",
	"right": "right",
	"w":     "left",
	"west":  "left",
	"l":     "left",
	"left":  "left",
}

var verbAliases = map[string]string{
	// Message window
	"confirm":  "ok",
	"next":     "ok",
	"continue": "ok",
	"pick":     "choose",
	"select":   "choose",
	"c":        "choose",
	"esc":      "cancel",
	"back":     "cancel",
	"num":      "number",
	"press":    "key",

	// Time
	"wait": "tick",
	"t":    "tick",
	"z":    "tick",

	// Map
	"go":       "move",
	"walk":     "move",
	"step":     "move",
	"a":        "act",
	"talk":     "act",
	"check":    "act",
	"examine":  "act",
	"interact": "act",

	// Battle
	"attack": "fight",
	"hit":    "fight",
	"flee":   "escape",
	"run":    "escape",

	// Scenes
	"purchase": "buy",
	"sell":     "buy",
	"decline":  "leave",
	"exit":     "close",
	"done":     "close",
}

var articles = map[string]bool{
	"the": true, "a": true, "an": true, "to": true,
}

// Parse converts a raw input line into an Intent. Names keep their case;
// everything else is lowered.
func Parse(input string) types.Intent {
	input = strings.TrimSpace(input)
	if input == "" {
		return types.Intent{}
	}

	raw := strings.Fields(input)
	words := strings.Fields(strings.ToLower(input))

	// Bare direction: "n", "left" → move <dir>.
	if len(words) == 1 {
		if dir, ok := directionExpansions[words[0]]; ok {
			return types.Intent{Verb: "move", Object: dir}
		}
		// Bare number picks a choice.
		if _, err := strconv.Atoi(words[0]); err == nil {
			return types.Intent{Verb: "choose", Object: words[0]}
		}
	}

	verb := words[0]
	if alias, ok := verbAliases[verb]; ok {
		verb = alias
	}

	if verb == "name" {
		return types.Intent{Verb: verb, Object: strings.Join(raw[1:], " ")}
	}

	rest := stripArticles(words[1:])
	object := strings.Join(rest, " ")
	if verb == "move" {
		if dir, ok := directionExpansions[object]; ok {
			object = dir
		}
	}
	return types.Intent{Verb: verb, Object: object}
}

// Number returns the intent object as an integer, or def when it is empty
// or not a number.
func Number(in types.Intent, def int) int {
	n, err := strconv.Atoi(in.Object)
	if err != nil {
		return def
	}
	return n
}

// stripArticles removes filler words from the word list.
func stripArticles(words []string) []string {
	result := make([]string, 0, len(words))
	for _, w := range words {
		if !articles[w] {
			result = append(result, w)
		}
	}
	return result
}
