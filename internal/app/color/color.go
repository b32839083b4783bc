// Package color derives a stable per-user color from a display name.
//
// The hash matches the browser client bit for bit (UTF-16 code units, 32-bit
// left shift), so every client paints a given name the same hue.
package color

import (
	"fmt"
	"math"
	"unicode/utf16"
)

const (
	saturation = 0.70
	lightness  = 0.50
)

// Hash returns the accumulated string hash of s.
func Hash(s string) int64 {
	var h int64
	for _, c := range utf16.Encode([]rune(s)) {
		shifted := int64(int32(uint32(int32(h)) << 5))
		h = int64(c) + (shifted - h)
	}
	return h
}

// Hue returns the hue of s in [0, 360).
func Hue(s string) int {
	hue := int(Hash(s) % 360)
	if hue < 0 {
		hue += 360
	}
	return hue
}

// CSS returns the CSS color of s, e.g. "hsl(225, 70%, 50%)".
func CSS(s string) string {
	return fmt.Sprintf("hsl(%d, 70%%, 50%%)", Hue(s))
}

// RGB returns the sRGB equivalent of CSS(s).
func RGB(s string) (r, g, b uint8) {
	return hslToRGB(float64(Hue(s)), saturation, lightness)
}

// ANSI returns the 24-bit terminal escape sequence selecting s's color as foreground.
func ANSI(s string) string {
	r, g, b := RGB(s)
	return fmt.Sprintf("\x1b[38;2;%d;%d;%dm", r, g, b)
}

// ANSIReset restores the default terminal attributes.
const ANSIReset = "\x1b[0m"

func hslToRGB(h, s, l float64) (uint8, uint8, uint8) {
	c := (1 - math.Abs(2*l-1)) * s
	hp := h / 60
	x := c * (1 - math.Abs(math.Mod(hp, 2)-1))

	var r, g, b float64
	switch {
	case hp < 1:
		r, g, b = c, x, 0
	case hp < 2:
		r, g, b = x, c, 0
	case hp < 3:
		r, g, b = 0, c, x
	case hp < 4:
		r, g, b = 0, x, c
	case hp < 5:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}

	m := l - c/2
	return channel(r + m), channel(g + m), channel(b + m)
}

func channel(v float64) uint8 {
	return uint8(math.Round(math.Min(math.Max(v, 0), 1) * 255))
}
