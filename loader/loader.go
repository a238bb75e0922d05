package loader

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nathoo/eventcore/engine/state"
	lua "github.com/yuin/gopher-lua"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// collector accumulates Lua definitions during file execution.
type collector struct {
	game    *lua.LTable
	actors  []rawDef
	items   []rawDef
	enemies []rawDef
	troops  []rawDef
	commons []rawDef
	maps    []rawDef
}

type options struct {
	encoding string
	log      *slog.Logger
}

// Option configures Load.
type Option func(*options)

// WithEncoding sets the source encoding: "utf-8" (default) or "shift_jis".
func WithEncoding(name string) Option { return func(o *options) { o.encoding = name } }

// WithLogger sets the logger that receives validation warnings.
func WithLogger(l *slog.Logger) Option { return func(o *options) { o.log = l } }

// Decoder returns the text decoder for an encoding name.
func Decoder(name string) (encoding.Encoding, error) {
	switch strings.ToLower(name) {
	case "", "utf-8", "utf8":
		return unicode.UTF8, nil
	case "shift_jis", "shift-jis", "sjis":
		return japanese.ShiftJIS, nil
	}
	return nil, fmt.Errorf("unsupported encoding %q", name)
}

// Load reads all .lua files from dir, compiles them into game definitions,
// validates references, and returns the immutable Defs. The Lua VM is
// discarded after loading.
func Load(dir string, opts ...Option) (*state.Defs, error) {
	o := options{encoding: "utf-8", log: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&o)
	}
	enc, err := Decoder(o.encoding)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading game directory %s: %w", dir, err)
	}
	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".lua") {
			luaFiles = append(luaFiles, e.Name())
		}
	}
	if len(luaFiles) == 0 {
		return nil, fmt.Errorf("no .lua files found in %s", dir)
	}
	luaFiles = sortedLuaFiles(luaFiles)

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()
	openSafeLibs(L)
	sandbox(L)

	coll := &collector{}
	registerAPI(L, coll)

	for _, f := range luaFiles {
		if err := runFile(L, filepath.Join(dir, f), enc); err != nil {
			return nil, fmt.Errorf("executing %s: %w", f, err)
		}
	}

	defs, err := compile(coll)
	if err != nil {
		return nil, fmt.Errorf("compiling game data: %w", err)
	}

	ve := validate(defs)
	for _, w := range ve.Warnings {
		o.log.Warn("content warning", "detail", w)
	}
	if len(ve.Errors) > 0 {
		return nil, ve
	}
	return defs, nil
}

// runFile executes one source file, decoding it to UTF-8 first.
func runFile(L *lua.LState, path string, enc encoding.Encoding) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	var r io.Reader = f
	if enc != unicode.UTF8 {
		r = transform.NewReader(f, enc.NewDecoder())
	}
	fn, err := L.Load(r, filepath.Base(path))
	if err != nil {
		return err
	}
	L.Push(fn)
	return L.PCall(0, lua.MultRet, nil)
}

// sortedLuaFiles puts game.lua first, the rest alphabetically.
func sortedLuaFiles(files []string) []string {
	sort.Slice(files, func(i, j int) bool {
		if files[i] == "game.lua" {
			return files[j] != "game.lua"
		}
		if files[j] == "game.lua" {
			return false
		}
		return files[i] < files[j]
	})
	return files
}

// openSafeLibs opens only the safe subset of Lua standard libraries.
func openSafeLibs(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

// sandbox removes globals that reach outside the content directory or break
// determinism.
func sandbox(L *lua.LState) {
	for _, name := range []string{
		"dofile", "loadfile", "load", "loadstring",
		"rawset", "rawget", "rawequal",
		"collectgarbage", "require",
	} {
		L.SetGlobal(name, lua.LNil)
	}
	if tbl, ok := L.GetGlobal("math").(*lua.LTable); ok {
		tbl.RawSetString("randomseed", lua.LNil)
		tbl.RawSetString("random", lua.LNil)
	}
}
