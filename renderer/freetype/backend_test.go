package freetyperenderer

import (
	"image"
	"image/color"
	"image/draw"
	"io"
	"math/rand/v2"
	"testing"

	"github.com/charmbracelet/log"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/ByLCY/quill/effects"
	"github.com/ByLCY/quill/fonts"
	"github.com/ByLCY/quill/layout"
	"github.com/ByLCY/quill/renderer"
	"github.com/ByLCY/quill/style"
)

var black = color.NRGBA{A: 255}

func goRegular(t *testing.T) *fonts.Font {
	t.Helper()
	f, err := fonts.Parse("goregular", "builtin:goregular", goregular.TTF)
	if err != nil {
		t.Fatalf("解析 goregular 失败: %v", err)
	}
	return f
}

func inkRows(img *image.NRGBA) (top, bottom int) {
	top, bottom = -1, -1
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.NRGBAAt(x, y).R < 128 {
				if top < 0 {
					top = y
				}
				bottom = y
				break
			}
		}
	}
	return top, bottom
}

func TestDrawSitsOnBaseline(t *testing.T) {
	face, err := NewBackend().NewFace(goRegular(t), 40, black)
	if err != nil {
		t.Fatalf("NewFace: %v", err)
	}
	img := image.NewNRGBA(image.Rect(0, 0, 80, 80))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	face.Draw(img, 10, 50, 'H')

	top, bottom := inkRows(img)
	if top < 0 {
		t.Fatalf("未绘制任何墨迹")
	}
	if bottom > 50 || top < 50-40 {
		t.Fatalf("H 应位于基线之上一个字号之内: top=%d bottom=%d", top, bottom)
	}
	if a := face.Metrics().Ascent; a <= 0 || a > 40 {
		t.Fatalf("上升高度超出范围: %g", a)
	}
	if w := face.Advance('H'); w <= 0 || w > 40 {
		t.Fatalf("步进超出范围: %g", w)
	}
}

func TestRejectsUnparsableFont(t *testing.T) {
	bad := &fonts.Font{Name: "bad", Path: "/tmp/bad.otf", Data: []byte("OTTO")}
	if _, err := NewBackend().NewFace(bad, 20, black); err == nil {
		t.Fatalf("无法解析的字体应返回错误")
	}
}

func TestEngineWithFreetype(t *testing.T) {
	quiet := log.New(io.Discard)
	e, err := renderer.NewEngine(NewBackend(),
		renderer.WithLogger(quiet),
		renderer.WithResolver(fonts.NewResolver(fonts.WithSystemFonts(false), fonts.WithLogger(quiet))),
	)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	st := style.Default()
	st.Fonts = []string{"builtin:goregular"}
	st.PageWidth, st.PageHeight = 400, 200
	st.FontSize = 32
	st.Margin = layout.Margin{Top: 20, Right: 20, Bottom: 20, Left: 20}
	page := layout.Page{
		Width: 400, Height: 200, Margin: st.Margin,
		LineHeight: st.LineHeight(), Top: 20,
		Lines: []layout.TextLine{{Content: "Hello"}},
	}
	img, err := e.RenderPage(page, st, effects.Preset{}, rand.New(rand.NewPCG(42, 0)))
	if err != nil {
		t.Fatalf("RenderPage: %v", err)
	}
	if top, _ := inkRows(img); top < 0 {
		t.Fatalf("渲染结果中没有墨迹")
	}
}
