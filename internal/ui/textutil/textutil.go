// Package textutil measures and fits text by terminal columns.
package textutil

import "github.com/mattn/go-runewidth"

// Ellipsis marks truncated text.
const Ellipsis = "…"

// VisualWidth returns the number of terminal columns s occupies.
func VisualWidth(s string) int {
	return runewidth.StringWidth(s)
}

// Truncate cuts s to at most maxWidth columns, ending in Ellipsis when cut.
func Truncate(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if VisualWidth(s) <= maxWidth {
		return s
	}
	avail := maxWidth - VisualWidth(Ellipsis)
	if avail < 0 {
		return Ellipsis
	}

	out := make([]rune, 0, len(s))
	width := 0
	for _, r := range s {
		w := runewidth.RuneWidth(r)
		if width+w > avail {
			break
		}
		out = append(out, r)
		width += w
	}
	return string(out) + Ellipsis
}

// PadRightVisual pads s with spaces to width columns, truncating when s is
// wider.
func PadRightVisual(s string, width int) string {
	cur := VisualWidth(s)
	if cur >= width {
		return Truncate(s, width)
	}
	return s + runewidth.FillRight("", width-cur)
}
