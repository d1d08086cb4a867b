// Package stub 提供确定性的 Renderer 替身：使用 gg 与 basicfont 绘制，不加入任何随机扰动，
// basicfont 不覆盖的字符画成方框。用于测试与无字体环境下的预览。
package stub

import (
	"image"
	"math/rand/v2"
	"slices"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/mattn/go-runewidth"
	"golang.org/x/image/font/basicfont"

	"github.com/ByLCY/quill/effects"
	"github.com/ByLCY/quill/errors"
	"github.com/ByLCY/quill/layout"
	"github.com/ByLCY/quill/renderer"
	"github.com/ByLCY/quill/style"
)

// Name 是该渲染器在配置中的名称。
const Name = "stub"

// Renderer 是确定性的 renderer.Renderer 实现。
type Renderer struct {
	mu    sync.Mutex
	calls []int
}

var _ renderer.Renderer = (*Renderer)(nil)

// New 创建替身渲染器。
func New() *Renderer { return &Renderer{} }

// Backend 返回后端名称。
func (r *Renderer) Backend() string { return Name }

// Calls 返回 RenderPage 处理过的页码，顺序取决于调用顺序。
func (r *Renderer) Calls() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.calls)
}

// RenderPage 忽略 rng 与 preset，只按行框位置绘制文本。
func (r *Renderer) RenderPage(page layout.Page, st style.Style, _ effects.Preset, _ *rand.Rand) (*image.NRGBA, error) {
	w, h := int(page.Width), int(page.Height)
	if w <= 0 || h <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidStyle, "页面尺寸无效: %gx%g", page.Width, page.Height)
	}
	r.mu.Lock()
	r.calls = append(r.calls, page.Index)
	r.mu.Unlock()

	face := basicfont.Face7x13
	dc := gg.NewContext(w, h)
	dc.SetColor(st.Paper.NRGBA())
	dc.Clear()
	dc.SetFontFace(face)
	dc.SetColor(st.Ink.NRGBA())

	ascent := float64(face.Ascent)
	cell := float64(face.Advance)
	for i, line := range page.Lines {
		if line.Blank {
			continue
		}
		x := page.Margin.Left
		y := page.SlotTop(i) + ascent
		for _, ch := range line.Content {
			if covered(face, ch) {
				dc.DrawString(string(ch), x, y)
				x += cell
				continue
			}
			width := cell * float64(max(1, runewidth.RuneWidth(ch)))
			dc.DrawRectangle(x+1.5, y-ascent+1.5, width-3, ascent-2)
			dc.Stroke()
			x += width
		}
	}
	return imaging.Clone(dc.Image()), nil
}

// covered 报告 basicfont 是否包含 ch 本身的字形（不计替换字符）。
func covered(face *basicfont.Face, ch rune) bool {
	for _, rg := range face.Ranges {
		if ch >= rg.Low && ch < rg.High {
			return true
		}
	}
	return false
}
