package perf

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseMode(t *testing.T) {
	for _, s := range []string{"", "cpu", " HEAP ", "allocs"} {
		if _, err := ParseMode(s); err != nil {
			t.Fatalf("%q: %v", s, err)
		}
	}
	if _, err := ParseMode("trace"); err == nil {
		t.Fatalf("unknown mode should fail")
	}
}

func TestRunWritesProfile(t *testing.T) {
	dir := t.TempDir()
	ran := false
	if err := Run(ModeHeap, dir, func() error { ran = true; return nil }); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !ran {
		t.Fatalf("exe not executed")
	}
	if _, err := os.Stat(filepath.Join(dir, "heap.pprof")); err != nil {
		t.Fatalf("heap profile missing: %v", err)
	}
	if err := Run(ModeNone, dir, func() error { return os.ErrClosed }); err != os.ErrClosed {
		t.Fatalf("exe error should pass through: %v", err)
	}
}
