package tui

import (
	"bytes"
	"strings"
	"testing"
)

func TestRenderer(t *testing.T) {
	render, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer() failed: %v", err)
	}
	out, err := render("## Account\n\n| id | Name |\n|---|---|\n| 1 | Bluth |\n")
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if !strings.Contains(out, "Bluth") {
		t.Errorf("Expected rendered output to contain cell text, got %q", out)
	}
}

func TestStatus(t *testing.T) {
	if got := Status(true, "4 records"); !strings.Contains(got, "4 records") {
		t.Errorf("Status() = %q", got)
	}
	if got := Status(false, "failed"); !strings.Contains(got, "failed") {
		t.Errorf("Status() = %q", got)
	}
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf)
	if strings.Count(buf.String(), "\n") != 7 {
		t.Errorf("Expected 7 lines, got:\n%s", buf.String())
	}
}
