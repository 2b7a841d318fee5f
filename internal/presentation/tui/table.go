package tui

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aretw0/paradigm/pkg/domain"
	"github.com/muesli/termenv"
)

var blockColors = []string{"#818cf8", "#34d399", "#fbbf24", "#f472b6", "#60a5fa", "#fb7185"}

// Table writes trials as aligned columns. Block names are colored per block index
// when color is true.
func Table(w io.Writer, trials []domain.Trial, color bool) error {
	out := termenv.NewOutput(w)
	if !color {
		out = termenv.NewOutput(w, termenv.WithProfile(termenv.Ascii))
	}

	names := FactorColumns(trials)
	header := append([]string{"#", "block", "cycle"}, names...)
	rows := make([][]string, len(trials))
	for i, t := range trials {
		row := []string{strconv.Itoa(i), t.BlockName, strconv.Itoa(t.Cycle)}
		for _, n := range names {
			row = append(row, formatValue(t.Factors, n))
		}
		rows[i] = row
	}

	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], len(cell))
		}
	}

	line := func(cells []string, style func(i int, s string) string) error {
		parts := make([]string, len(cells))
		for i, c := range cells {
			parts[i] = style(i, c+strings.Repeat(" ", widths[i]-len(c)))
		}
		_, err := fmt.Fprintln(w, strings.TrimRight(strings.Join(parts, "  "), " "))
		return err
	}

	if err := line(header, func(_ int, s string) string { return out.String(s).Bold().String() }); err != nil {
		return err
	}
	for r, row := range rows {
		blockIdx := trials[r].BlockIndex
		err := line(row, func(i int, s string) string {
			if i != 1 {
				return s
			}
			c := blockColors[blockIdx%len(blockColors)]
			return out.String(s).Foreground(out.Color(c)).String()
		})
		if err != nil {
			return err
		}
	}
	return nil
}
