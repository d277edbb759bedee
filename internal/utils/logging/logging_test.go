package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDebugLevelGate(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, true)
	t.Cleanup(func() { SetOutput(os.Stderr, false) })

	Level = 1
	D(2, "hidden %d", 2)
	D(1, "shown %d", 1)
	Level = 0

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("level 2 debug printed at level 1: %s", out)
	}
	if !strings.Contains(out, "shown 1") {
		t.Errorf("level 1 debug missing: %s", out)
	}
}

func TestFileWriterStripsColors(t *testing.T) {
	var buf bytes.Buffer
	w := fileWriter{w: &buf}

	n, err := w.Write([]byte("\x1b[91mred\x1b[0m"))
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if n != len("\x1b[91mred\x1b[0m") {
		t.Errorf("n = %d", n)
	}
	if buf.String() != "red" {
		t.Errorf("got %q, want %q", buf.String(), "red")
	}
}

func TestRotate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fetcharr.log")

	if err := os.WriteFile(path, bytes.Repeat([]byte("x"), maxLogBytes+1), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := rotate(path); err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if _, err := os.Stat(path + ".1"); err != nil {
		t.Errorf("expected rotated file: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("expected original log moved, got err=%v", err)
	}
}
