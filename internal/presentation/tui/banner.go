package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the seedbed banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	lines := []struct{ text, color string }{
		{"                   _ _              _ ", "#34d399"},
		{"  ___  ___  ___  __| | |__   ___  __| |", "#2dd4bf"},
		{" / __|/ _ \\/ _ \\/ _` | '_ \\ / _ \\/ _` |", "#22d3ee"},
		{" \\__ \\  __/  __/ (_| | |_) |  __/ (_| |", "#38bdf8"},
		{" |___/\\___|\\___|\\__,_|_.__/ \\___|\\__,_|", "#60a5fa"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}

// Status formats a one-line run summary, green on success and red on failure.
func Status(ok bool, msg string) string {
	p := termenv.ColorProfile()
	if ok {
		return termenv.String("✔ " + msg).Foreground(p.Color("#22c55e")).String()
	}
	return termenv.String("✘ " + msg).Foreground(p.Color("#ef4444")).Bold().String()
}
