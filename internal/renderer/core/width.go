package core

import "github.com/rivo/uniseg"

// StringWidth returns the monospace display width of a string, counting
// grapheme clusters rather than runes so emoji and combining sequences
// measure correctly.
func StringWidth(s string) int {
	return uniseg.StringWidth(s)
}

// RuneWidth returns the display width of a single rune.
func RuneWidth(r rune) int {
	return uniseg.StringWidth(string(r))
}

// CellsFromString converts a string into styled cells, one per grapheme
// cluster. Zero-width clusters attach to nothing and are dropped.
func CellsFromString(s string, style Style) []Cell {
	var cells []Cell
	state := -1
	var cluster string
	var width int
	rest := s
	for len(rest) > 0 {
		cluster, rest, width, state = uniseg.FirstGraphemeClusterInString(rest, state)
		if width == 0 {
			continue
		}
		runes := []rune(cluster)
		cells = append(cells, Cell{Rune: runes[0], Width: width, Style: style})
	}
	return cells
}
