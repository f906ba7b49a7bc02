package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the visaguide banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{`        _                       _     _      `, "#38bdf8"},
		{` __   _(_)___  __ _  __ _ _   _(_) __| | ___ `, "#60a5fa"},
		{` \ \ / / / __|/ _' |/ _' | | | | |/ _' |/ _ \`, "#818cf8"},
		{`  \ V /| \__ \ (_| | (_| | |_| | | (_| |  __/`, "#a78bfa"},
		{`   \_/ |_|___/\__,_|\__, |\__,_|_|\__,_|\___|`, "#c084fc"},
		{`                    |___/                    `, "#e879f9"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
