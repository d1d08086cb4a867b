package canvasrenderer

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"sync"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"

	"github.com/ByLCY/quill/fonts"
	"github.com/ByLCY/quill/renderer"
)

// Name 是该后端在配置中的名称。
const Name = "canvas"

// 以 1mm = 1px 的分辨率光栅化，字号需要从像素换算为 pt。
const ptPerPx = 72.0 / 25.4

// Backend draws glyphs via github.com/tdewolff/canvas and its rasterizer.
type Backend struct {
	fontMu       sync.Mutex
	fontFamilies map[string]*fontFamily
}

// fontFamily 的所有字形面共用同一个 canvas.Font 与 shaper，对它们的访问由 mu 串行化。
type fontFamily struct {
	mu     sync.Mutex
	family *canvas.FontFamily
}

var _ renderer.GlyphBackend = (*Backend)(nil)

// NewBackend creates a canvas glyph backend.
func NewBackend() *Backend {
	return &Backend{fontFamilies: map[string]*fontFamily{}}
}

func (b *Backend) Name() string { return Name }

// NewFace 以像素字号创建字形面。
func (b *Backend) NewFace(f *fonts.Font, size float64, ink color.NRGBA) (renderer.Face, error) {
	if size <= 0 {
		return nil, fmt.Errorf("字号必须大于 0，当前为 %g", size)
	}
	family, err := b.ensureFontFamily(f)
	if err != nil {
		return nil, err
	}
	family.mu.Lock()
	defer family.mu.Unlock()
	face := family.family.Face(size*ptPerPx, ink, canvas.FontRegular, canvas.FontNormal)
	return &Face{face: face, mu: &family.mu, size: size, metrics: face.Metrics()}, nil
}

func (b *Backend) ensureFontFamily(f *fonts.Font) (*fontFamily, error) {
	b.fontMu.Lock()
	defer b.fontMu.Unlock()

	if family, ok := b.fontFamilies[f.Path]; ok {
		return family, nil
	}
	family := canvas.NewFontFamily(f.Name)
	if err := loadFont(family, f.Data); err != nil {
		return nil, fmt.Errorf("canvas 无法加载字体 %s: %w", f.Path, err)
	}
	entry := &fontFamily{family: family}
	b.fontFamilies[f.Path] = entry
	return entry, nil
}

func loadFont(family *canvas.FontFamily, data []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("解析字体时 panic: %v", r)
		}
	}()
	return family.LoadFont(data, 0, canvas.FontRegular)
}

// Face 包装 canvas.FontFace。坐标以像素为单位，原点在左上角。
type Face struct {
	face    *canvas.FontFace
	mu      *sync.Mutex
	size    float64
	metrics canvas.FontMetrics
}

func (f *Face) Metrics() renderer.Metrics {
	return renderer.Metrics{Ascent: f.metrics.Ascent, Descent: math.Abs(f.metrics.Descent)}
}

func (f *Face) Advance(r rune) float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.face.TextWidth(string(r))
}

// Draw 把单个字符光栅化到 RGBA 暂存图上，再以 Over 合成到 dst，(x, y) 为基线起点。
// rasterizer 只能写 *image.RGBA，不能直接写 dst。
func (f *Face) Draw(dst *image.NRGBA, x, y float64, r rune) {
	adv := f.Advance(r)
	f.mu.Lock()
	defer f.mu.Unlock()

	pad := int(math.Ceil(f.size / 2))
	ascent := int(math.Ceil(math.Max(f.metrics.Ascent, f.size)))
	descent := int(math.Ceil(math.Abs(f.metrics.Descent)))
	width := int(math.Ceil(adv)) + 2*pad + 1
	height := ascent + descent + 2*pad + 1

	// 暂存图左上角在 dst 上的位置
	ox := int(math.Floor(x)) - pad
	oy := int(math.Floor(y)) - pad - ascent
	target := image.Rect(ox, oy, ox+width, oy+height)
	if !target.Overlaps(dst.Bounds()) {
		return
	}

	scratch := image.NewRGBA(image.Rect(0, 0, width, height))
	ras := rasterizer.FromImage(scratch, canvas.DPMM(1), canvas.DefaultColorSpace)
	ctx := canvas.NewContext(ras)
	ctx.SetCoordSystem(canvas.CartesianIV) // 使坐标与页面保持左上角为原点
	ctx.DrawText(x-float64(ox), y-float64(oy), canvas.NewTextLine(f.face, string(r), canvas.Left))
	ras.Close()

	draw.Draw(dst, target, scratch, image.Point{}, draw.Over)
}
