package renderer

import (
	"image"
	"image/color"
	"math/rand/v2"

	"github.com/ByLCY/quill/effects"
	"github.com/ByLCY/quill/fonts"
	"github.com/ByLCY/quill/layout"
	"github.com/ByLCY/quill/style"
)

// Renderer 把分页结果绘制成单页位图（尚未经过效果管线）。
// 所有随机量都取自调用方传入的 rng，同一 rng 状态得到同样的结果。
type Renderer interface {
	RenderPage(page layout.Page, st style.Style, preset effects.Preset, rng *rand.Rand) (*image.NRGBA, error)
}

// Metrics 是字形面在当前字号下的纵向度量（像素）。
type Metrics struct {
	Ascent  float64
	Descent float64
}

// Face 是某个字体在固定字号与墨色下的字形面。
// Draw 以 (x, y) 为基线起点把 r 绘制到 dst 上。
type Face interface {
	Metrics() Metrics
	Advance(r rune) float64
	Draw(dst *image.NRGBA, x, y float64, r rune)
}

// GlyphBackend 从字体数据创建 Face。无法解析的字体返回错误，调用方沿字体链继续回退。
type GlyphBackend interface {
	Name() string
	NewFace(f *fonts.Font, size float64, ink color.NRGBA) (Face, error)
}
