package style

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Color 是不透明度可选的 sRGB 颜色，文本形式为 #rgb / #rrggbb / #rrggbbaa。
type Color color.NRGBA

var (
	Black = Color{A: 255}
	White = Color{R: 255, G: 255, B: 255, A: 255}
)

var namedColors = map[string]Color{
	"black": Black,
	"white": White,
}

// RGBA 实现 color.Color。
func (c Color) RGBA() (r, g, b, a uint32) {
	return color.NRGBA(c).RGBA()
}

// NRGBA 返回标准库颜色值。
func (c Color) NRGBA() color.NRGBA {
	return color.NRGBA(c)
}

// Hex 返回 #rrggbb，带透明度时返回 #rrggbbaa。
func (c Color) Hex() string {
	hex := colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}.Hex()
	if c.A != 255 {
		hex += fmt.Sprintf("%02x", c.A)
	}
	return hex
}

func (c Color) String() string { return c.Hex() }

// MarshalText 供 JSON 与 TOML 编码使用。
func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.Hex()), nil
}

// UnmarshalText 供 JSON 与 TOML 解码使用。
func (c *Color) UnmarshalText(text []byte) error {
	parsed, err := ParseColor(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseColor 解析颜色名或十六进制颜色。
func ParseColor(value string) (Color, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if named, ok := namedColors[v]; ok {
		return named, nil
	}
	if !strings.HasPrefix(v, "#") {
		return Color{}, fmt.Errorf("无法解析颜色 %q", value)
	}
	alpha := uint8(255)
	if len(v) == 9 {
		a, err := strconv.ParseUint(v[7:], 16, 8)
		if err != nil {
			return Color{}, fmt.Errorf("无法解析颜色透明度 %q: %w", value, err)
		}
		alpha = uint8(a)
		v = v[:7]
	}
	c, err := colorful.Hex(v)
	if err != nil {
		return Color{}, fmt.Errorf("无法解析颜色 %q: %w", value, err)
	}
	r, g, b := c.RGB255()
	return Color{R: r, G: g, B: b, A: alpha}, nil
}
