package main

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
)

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeTable renders a pipe table padded by display width, so Cyrillic and
// wide glyphs line up.
func writeTable(w io.Writer, headers []string, rows [][]string) error {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = max(3, runewidth.StringWidth(h))
	}
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(widths); i++ {
			widths[i] = max(widths[i], runewidth.StringWidth(row[i]))
		}
	}

	line := func(cells []string) string {
		var sb strings.Builder
		sb.WriteString("|")
		for i, width := range widths {
			content := ""
			if i < len(cells) {
				content = cells[i]
			}
			sb.WriteString(" ")
			sb.WriteString(runewidth.FillRight(content, width))
			sb.WriteString(" |")
		}
		return sb.String()
	}

	sep := make([]string, len(widths))
	for i, width := range widths {
		sep[i] = strings.Repeat("-", width)
	}

	out := make([]string, 0, len(rows)+2)
	out = append(out, line(headers), line(sep))
	for _, row := range rows {
		out = append(out, line(row))
	}
	_, err := fmt.Fprintln(w, strings.Join(out, "\n"))
	return err
}

func writeUnavailable(w io.Writer, unavailable map[string]string) error {
	if len(unavailable) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, "\nunavailable:"); err != nil {
		return err
	}
	for _, name := range slices.Sorted(maps.Keys(unavailable)) {
		if _, err := fmt.Fprintf(w, "  %s: %s\n", name, unavailable[name]); err != nil {
			return err
		}
	}
	return nil
}

func writeSkipped(w io.Writer, skipped []string) error {
	if len(skipped) == 0 {
		return nil
	}
	_, err := fmt.Fprintf(w, "\nskipped (run cancelled): %s\n", strings.Join(skipped, ", "))
	return err
}
