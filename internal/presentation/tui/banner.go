package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the paradigm banner and version to w.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	lines := []struct {
		text  string
		color string
	}{
		{"  ___  __ _ _ __ __ _  __| (_) __ _ _ __ ___", "#818cf8"},
		{" | _ \\/ _` | '__/ _` |/ _` | |/ _` | '_ ` _ \\", "#a78bfa"},
		{" |  _/ (_| | | | (_| | (_| | | (_| | | | | | |", "#c084fc"},
		{" |_|  \\__,_|_|  \\__,_|\\__,_|_|\\__, |_| |_| |_|", "#e879f9"},
		{"                              |___/", "#f472b6"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w, out.String("  "+version).Faint())
	fmt.Fprintln(w)
}
