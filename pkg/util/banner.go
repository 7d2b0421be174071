package util

import (
	"fmt"
	"io"

	"github.com/common-nighthawk/go-figure"
)

// ANSI 颜色常量
const (
	ColorReset  = "\x1b[0m"
	ColorRed    = "\x1b[1;31m"
	ColorGreen  = "\x1b[1;32m"
	ColorYellow = "\x1b[1;33m"
	ColorBlue   = "\x1b[1;34m"
	ColorCyan   = "\x1b[1;36m"
)

var colors = map[string]string{
	"red":    ColorRed,
	"green":  ColorGreen,
	"yellow": ColorYellow,
	"blue":   ColorBlue,
	"cyan":   ColorCyan,
}

// PrintBanner 以统一颜色打印 ASCII banner 和版本行，未知颜色不着色
func PrintBanner(w io.Writer, text, color, version string) {
	ansi, ok := colors[color]
	if !ok {
		ansi = ColorReset
	}
	for _, line := range figure.NewFigure(text, "", true).Slicify() {
		fmt.Fprintln(w, ansi+line+ColorReset)
	}
	if version != "" {
		fmt.Fprintf(w, "%s%s %s%s\n", ansi, text, version, ColorReset)
	}
}
