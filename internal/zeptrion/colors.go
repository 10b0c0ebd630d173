package zeptrion

import "strings"

// Front LED background colors, in the '#RRGGBB' format the device expects
const (
	Red     = "#FF0000"
	Green   = "#00FF00"
	Blue    = "#0000FF"
	White   = "#FFFFFF"
	Black   = "#000000"
	Yellow  = "#FFFF00"
	Magenta = "#FF00FF"
	Cyan    = "#00FFFF"
)

// Palette maps lowercase color names to their hex value.
var Palette = map[string]string{
	"red":     Red,
	"green":   Green,
	"blue":    Blue,
	"white":   White,
	"black":   Black,
	"yellow":  Yellow,
	"magenta": Magenta,
	"cyan":    Cyan,
}

// ColorByName resolves a palette name (case-insensitive). Anything that is
// not a palette name is returned unchanged so raw '#RRGGBB' strings pass
// through; the device client never validates colors.
func ColorByName(name string) string {
	if c, ok := Palette[strings.ToLower(name)]; ok {
		return c
	}
	return name
}
