package overlay

import (
	"image/color"
	"strconv"
	"strings"
)

// ParseHexColor parses a lenient hex color string: any non-alphanumeric
// characters (a leading '#', spaces) are stripped first, then 6 hex digits
// decode as opaque RGB and 8 as ARGB with the alpha byte first. Anything
// else fails, and the caller falls back to the variant default.
func ParseHexColor(s string) (color.NRGBA, bool) {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			b.WriteRune(r)
		}
	}
	hex := b.String()

	switch len(hex) {
	case 6:
		hex = "FF" + hex
	case 8:
	default:
		return color.NRGBA{}, false
	}

	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, false
	}
	return color.NRGBA{
		A: uint8(v >> 24),
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
	}, true
}
