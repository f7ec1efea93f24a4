package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewLevels(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, false)
	log.Debug("hidden")
	log.WithField("file", "a.jpg").Info("exact duplicate")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug line written without verbose: %q", out)
	}
	if !strings.Contains(out, "exact duplicate") || !strings.Contains(out, "file=a.jpg") {
		t.Fatalf("expected info line with fields, got %q", out)
	}

	buf.Reset()
	New(&buf, true).Debug("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Fatalf("expected debug line with verbose, got %q", buf.String())
	}
}

func TestOpenFileAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	for i := 0; i < 2; i++ {
		f, err := OpenFile(path)
		if err != nil {
			t.Fatalf("open: %v", err)
		}
		New(f, false).Info("line")
		f.Close()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if n := strings.Count(string(data), "msg=line"); n != 2 {
		t.Fatalf("expected 2 appended lines, got %d in %q", n, data)
	}
}
