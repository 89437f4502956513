package logger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/zintix-labs/packlab/errs"
)

func TestParseMode(t *testing.T) {
	cases := map[string]Mode{"": ModeDev, "JSON": ModeProd, " off ": ModeSilence, "prod": ModeProd}
	for in, want := range cases {
		got, err := ParseMode(in)
		if err != nil || got != want {
			t.Fatalf("ParseMode(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseMode("loud"); !errors.Is(err, errs.Config) {
		t.Fatalf("unknown mode should be config error: %v", err)
	}
}

func TestNewWritesToWriter(t *testing.T) {
	var buf bytes.Buffer
	New(ModeProd, &buf).Info("pack generated", "attempt", 1)
	if !strings.Contains(buf.String(), `"msg":"pack generated"`) {
		t.Fatalf("json output: %q", buf.String())
	}
	buf.Reset()
	New(ModeProd, &buf).Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("prod should drop debug")
	}
}

func TestAsyncDrainsOnClose(t *testing.T) {
	var buf bytes.Buffer
	lg, ah := NewAsync(ModeDev, &buf, 16)
	for i := 0; i < 5; i++ {
		lg.Debug("attempt", "n", i)
	}
	ah.Close()
	if got := strings.Count(buf.String(), "msg=attempt"); got+int(ah.Dropped()) != 5 {
		t.Fatalf("written %d dropped %d", got, ah.Dropped())
	}
	lg.Info("after close")
	if ah.Dropped() == 0 {
		t.Fatalf("records after close must be dropped")
	}
	ah.Close()
}

func TestSilent(t *testing.T) {
	if Silent().Enabled(context.Background(), slog.LevelError) {
		t.Fatalf("silent logger should not enable error level")
	}
}
