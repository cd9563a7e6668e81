package exporter

import (
	"strconv"
	"strings"
)

// FormatPercent renders v with one decimal, the precision the dashboard shows.
func FormatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// formatFloat formats averages with exactly 2 decimal places.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

func formatInt(i int) string {
	return strconv.Itoa(i)
}

func parseNumber(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(s, 64)
	return n, err == nil
}

// textCell quotes free text that a spreadsheet would read as a formula.
func textCell(s string) string {
	if s != "" && strings.ContainsRune("=+-@\t\r", rune(s[0])) {
		return "'" + s
	}
	return s
}
