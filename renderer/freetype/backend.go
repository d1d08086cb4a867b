// Package freetyperenderer 是基于 github.com/golang/freetype 的字形后端。
// freetype 只能解析 TrueType 轮廓，CFF 轮廓的 OpenType 字体会被拒绝并沿字体链回退。
package freetyperenderer

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/ByLCY/quill/fonts"
	"github.com/ByLCY/quill/renderer"
)

// Name 是该后端在配置中的名称。
const Name = "freetype"

// Backend 按字体路径缓存解析后的 truetype.Font。
type Backend struct {
	mu     sync.Mutex
	parsed map[string]*truetype.Font
}

var _ renderer.GlyphBackend = (*Backend)(nil)

// NewBackend 创建 freetype 字形后端。
func NewBackend() *Backend {
	return &Backend{parsed: map[string]*truetype.Font{}}
}

func (b *Backend) Name() string { return Name }

func (b *Backend) NewFace(f *fonts.Font, size float64, ink color.NRGBA) (renderer.Face, error) {
	if size <= 0 {
		return nil, fmt.Errorf("字号必须大于 0，当前为 %g", size)
	}
	tt, err := b.parse(f)
	if err != nil {
		return nil, err
	}
	face := truetype.NewFace(tt, &truetype.Options{
		Size:    size,
		DPI:     72, // 72dpi 下 1pt = 1px
		Hinting: font.HintingNone,
	})
	return &Face{face: face, src: image.NewUniform(ink)}, nil
}

func (b *Backend) parse(f *fonts.Font) (*truetype.Font, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if tt, ok := b.parsed[f.Path]; ok {
		return tt, nil
	}
	tt, err := truetype.Parse(f.Data)
	if err != nil {
		return nil, fmt.Errorf("freetype 无法解析字体 %s: %w", f.Path, err)
	}
	b.parsed[f.Path] = tt
	return tt, nil
}

// Face 包装 truetype 字形面。
type Face struct {
	face font.Face
	src  image.Image
}

func (f *Face) Metrics() renderer.Metrics {
	m := f.face.Metrics()
	return renderer.Metrics{Ascent: toFloat(m.Ascent), Descent: toFloat(m.Descent)}
}

func (f *Face) Advance(r rune) float64 {
	adv, ok := f.face.GlyphAdvance(r)
	if !ok {
		return 0
	}
	return toFloat(adv)
}

func (f *Face) Draw(dst *image.NRGBA, x, y float64, r rune) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  f.src,
		Face: f.face,
		Dot:  fixed.Point26_6{X: toFixed(x), Y: toFixed(y)},
	}
	d.DrawString(string(r))
}

func toFloat(v fixed.Int26_6) float64 { return float64(v) / 64 }

func toFixed(v float64) fixed.Int26_6 { return fixed.Int26_6(math.Round(v * 64)) }
