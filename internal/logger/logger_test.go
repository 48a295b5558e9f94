package logger

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
)

func TestLevelFiltering(t *testing.T) {
	buf := &bytes.Buffer{}
	InitWriter("warn", buf)
	t.Cleanup(func() { setGlobal(nil) })

	Infof("hidden %d", 1)
	Warnf("shown %d", 2)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info line should be filtered: %q", out)
	}
	if !strings.Contains(out, "[WARN] shown 2") {
		t.Fatalf("expected warn line, got %q", out)
	}
	if Enabled(Info) || !Enabled(Error) {
		t.Fatalf("unexpected Enabled results for warn level")
	}
}

func TestFieldsAreRenderedAsJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	InitWriter("debug", buf)
	t.Cleanup(func() { setGlobal(nil) })

	InfoFields("GET /clients", Fields{"remote_address": "10.0.0.1", "user_agent": "curl"})

	out := buf.String()
	if !strings.Contains(out, `[INFO] GET /clients {"remote_address":"10.0.0.1","user_agent":"curl"}`) {
		t.Fatalf("unexpected line: %q", out)
	}
}

func TestDisabledLoggerWritesNothing(t *testing.T) {
	if err := Init(false, "debug", "", true); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	t.Cleanup(func() { setGlobal(nil) })
	if Enabled(Error) {
		t.Fatalf("disabled logger should not be enabled")
	}
	Errorf("nothing")
}

func TestWatermillAdapterCarriesFieldsAndError(t *testing.T) {
	buf := &bytes.Buffer{}
	InitWriter("debug", buf)
	t.Cleanup(func() { setGlobal(nil) })

	adapter := NewWatermillAdapter().With(watermill.LogFields{"topic": "results"})
	adapter.Error("publish failed", errors.New("channel closed"), watermill.LogFields{"uuid": "abc"})
	adapter.Trace("trace line", nil)

	out := buf.String()
	if !strings.Contains(out, `[ERROR] publish failed {"error":"channel closed","topic":"results","uuid":"abc"}`) {
		t.Fatalf("unexpected error line: %q", out)
	}
	if !strings.Contains(out, `[DEBUG] trace line {"topic":"results"}`) {
		t.Fatalf("unexpected trace line: %q", out)
	}
}
