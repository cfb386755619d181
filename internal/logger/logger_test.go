package logger

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

// capture redirects stdout for the duration of fn and returns what was printed.
func capture(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	os.Stdout = w
	defer func() { os.Stdout = old }()

	fn()

	w.Close()
	var buf bytes.Buffer
	buf.ReadFrom(r)
	return buf.String()
}

func TestInfo_Success_Warn_Error_NoPanic(t *testing.T) {
	capture(t, func() {
		Info("TAG", "message")
		Success("TAG", "message")
		Warn("TAG", "message")
		Error("TAG", "message")
	})
}

func TestBanner_NoPanic(t *testing.T) {
	out := capture(t, func() {
		Banner("v1.0.0")
		Banner("")
	})
	if !strings.Contains(out, "v1.0.0") || !strings.Contains(out, "dev") {
		t.Errorf("banner output missing version: %q", out)
	}
}

func TestSectionAndStats_NoPanic(t *testing.T) {
	capture(t, func() {
		Section("Test")
		Stats("key", 42)
	})
}

func TestPlainOutputWhenNotATerminal(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	out := capture(t, func() {
		Warn("Scan", "pricing service slow")
		Server("127.0.0.1:8088")
	})
	if strings.Contains(out, "\033[") {
		t.Errorf("expected no ANSI escapes, got %q", out)
	}
	if !strings.Contains(out, "WARN [Scan] pricing service slow") {
		t.Errorf("unexpected warn line: %q", out)
	}
	if !strings.Contains(out, "http://127.0.0.1:8088") {
		t.Errorf("unexpected server line: %q", out)
	}
}
