package entities

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// DefaultAssetColor 未设置颜色时使用的颜色
var DefaultAssetColor = color.RGBA{R: 0x88, G: 0x88, B: 0x88, A: 0xff}

// ParseColor 解析 "#rrggbb" / "#rgb" 颜色
func ParseColor(s string) (color.RGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return DefaultAssetColor, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return DefaultAssetColor, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}
