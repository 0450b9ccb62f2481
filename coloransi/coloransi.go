// Package coloransi renders terminal colors for the hex view: the 16 ANSI
// colors, 24-bit RGB colors and a stable palette keyed by data type id.
package coloransi

import (
	"fmt"
	"hash/fnv"
	"strings"
)

// ColorCode is either an ANSI foreground code in the low byte or an RGB
// color in the upper three bytes
type ColorCode uint32

const (
	Black   ColorCode = 30
	Red     ColorCode = 31
	Green   ColorCode = 32
	Yellow  ColorCode = 33
	Blue    ColorCode = 34
	Magenta ColorCode = 35
	Cyan    ColorCode = 36
	White   ColorCode = 37

	BrightBlack   ColorCode = Black + 60
	BrightRed     ColorCode = Red + 60
	BrightGreen   ColorCode = Green + 60
	BrightYellow  ColorCode = Yellow + 60
	BrightBlue    ColorCode = Blue + 60
	BrightMagenta ColorCode = Magenta + 60
	BrightCyan    ColorCode = Cyan + 60
	BrightWhite   ColorCode = White + 60

	backgroundOffset ColorCode = 10
	rgbMask          ColorCode = 0xFFFFFF00
)

func RGB(r, g, b uint8) ColorCode {
	return ColorCode(uint32(r)<<24 | uint32(g)<<16 | uint32(b)<<8)
}

var (
	ColorOrange    = RGB(255, 140, 0)
	ColorPurple    = RGB(128, 0, 128)
	ColorTeal      = RGB(0, 128, 128)
	ColorLimeGreen = RGB(50, 205, 50)
	ColorWhite     = RGB(255, 255, 255)
)

func (c ColorCode) IsRGB() bool {
	return c&rgbMask != 0
}

// ansiRGB approximates the usual terminal rendering of the 16 ANSI colors
var ansiRGB = map[ColorCode][3]uint8{
	Black: {0, 0, 0}, Red: {170, 0, 0}, Green: {0, 170, 0}, Yellow: {170, 170, 0},
	Blue: {0, 0, 170}, Magenta: {170, 0, 170}, Cyan: {0, 170, 170}, White: {170, 170, 170},
	BrightBlack: {85, 85, 85}, BrightRed: {255, 85, 85}, BrightGreen: {85, 255, 85}, BrightYellow: {255, 255, 85},
	BrightBlue: {85, 85, 255}, BrightMagenta: {255, 85, 255}, BrightCyan: {85, 255, 255}, BrightWhite: {255, 255, 255},
}

func (c ColorCode) RGB() (r, g, b uint8) {
	if c.IsRGB() {
		return uint8(c >> 24), uint8(c >> 16), uint8(c >> 8)
	}
	if v, ok := ansiRGB[c]; ok {
		return v[0], v[1], v[2]
	}
	return 170, 170, 170
}

// Contrast picks black or white text for use on top of c
func (c ColorCode) Contrast() ColorCode {
	r, g, b := c.RGB()
	luminance := 0.2126*float64(r)/255 + 0.7152*float64(g)/255 + 0.0722*float64(b)/255
	if luminance > 0.5 {
		return Black
	}
	return ColorWhite
}

func (c ColorCode) fg() string {
	if c.IsRGB() {
		r, g, b := c.RGB()
		return fmt.Sprintf("\033[38;2;%d;%d;%dm", r, g, b)
	}
	return fmt.Sprintf("\033[%dm", uint32(c))
}

func (c ColorCode) bg() string {
	if c.IsRGB() {
		r, g, b := c.RGB()
		return fmt.Sprintf("\033[48;2;%d;%d;%dm", r, g, b)
	}
	return fmt.Sprintf("\033[%dm", uint32(c+backgroundOffset))
}

const reset = "\033[0m"

func join(v []any) string {
	parts := make([]string, len(v))
	for i, arg := range v {
		parts[i] = fmt.Sprint(arg)
	}
	return strings.Join(parts, " ")
}

func Foreground(fg ColorCode, v ...any) string {
	return fg.fg() + join(v) + reset
}

func Background(bg ColorCode, v ...any) string {
	return bg.bg() + join(v) + reset
}

func Color(fg, bg ColorCode, v ...any) string {
	return fg.fg() + bg.bg() + join(v) + reset
}

// Highlight paints text on bg with a readable foreground
func Highlight(bg ColorCode, v ...any) string {
	return Color(bg.Contrast(), bg, v...)
}

var palette = []ColorCode{
	BrightYellow, BrightCyan, BrightMagenta, BrightGreen, BrightBlue, BrightRed,
	ColorOrange, ColorTeal, ColorLimeGreen, ColorPurple,
}

// ForKey returns the same palette color for the same key, so every data
// type keeps its color across views
func ForKey(key string) ColorCode {
	h := fnv.New32a()
	h.Write([]byte(key))
	return palette[h.Sum32()%uint32(len(palette))]
}
