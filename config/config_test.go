package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDecode_FillsDefaults(t *testing.T) {
	c, err := Decode(strings.NewReader("log_level: debug\nmove_frames: 4\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.LogLevel != "debug" || c.MoveFrames != 4 {
		t.Errorf("explicit fields lost: %+v", c)
	}
	if c.IterationLimit != 10000 || c.DepthWarning != 100 || c.TickRate != 60 {
		t.Errorf("defaults not applied: %+v", c)
	}
}

func TestDecode_Empty(t *testing.T) {
	c, err := Decode(strings.NewReader(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c != Default() {
		t.Errorf("got %+v, want defaults", c)
	}
}

func TestDecode_UnknownField(t *testing.T) {
	if _, err := Decode(strings.NewReader("frame_skip: 2\n")); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestDecode_Invalid(t *testing.T) {
	_, err := Decode(strings.NewReader("log_level: loud\nencoding: latin1\ntick_rate: 999\n"))
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(verr.Issues) != 3 {
		t.Errorf("issues = %v, want 3", verr.Issues)
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()

	c, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("missing file should not fail: %v", err)
	}
	if c != Default() {
		t.Errorf("got %+v, want defaults", c)
	}

	if err := os.WriteFile(filepath.Join(dir, FileName), []byte("encoding: shift_jis\nseed: 7\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err = LoadDir(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Encoding != "shift_jis" || c.Seed != 7 {
		t.Errorf("got %+v", c)
	}
}
