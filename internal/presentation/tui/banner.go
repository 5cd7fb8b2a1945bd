package tui

import (
	"fmt"
	"io"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{"  _____                     _", "#818cf8"},
	{" |_   _|_ _ _ __   ___  ___| |_ _ __ _   _", "#a78bfa"},
	{"   | |/ _` | '_ \\ / _ \\/ __| __| '__| | | |", "#c084fc"},
	{"   | | (_| | |_) |  __/\\__ \\ |_| |  | |_| |", "#e879f9"},
	{"   |_|\\__,_| .__/ \\___||___/\\__|_|   \\__, |", "#f472b6"},
	{"           |_|                       |___/", "#fb7185"},
}

// PrintBanner writes the Tapestry ASCII banner to w, colored when w is a terminal.
func PrintBanner(w io.Writer) {
	p := Profile(w)
	fmt.Fprintln(w)
	for _, line := range bannerLines {
		fmt.Fprintln(w, p.String(line.text).Foreground(p.Color(line.color)))
	}
	fmt.Fprintln(w)
}
