package effects

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"io"
	"math/rand/v2"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"
)

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

// textLikeCanvas 生成白底上带几条黑色横线的画布，模拟文字笔画。
func textLikeCanvas(w, h int) *image.NRGBA {
	img := imaging.New(w, h, color.White)
	for y := h / 4; y < h/4+3; y++ {
		for x := 5; x < w-5; x++ {
			img.SetNRGBA(x, y, color.NRGBA{A: 255})
		}
	}
	for y := h / 2; y < h/2+2; y++ {
		for x := 10; x < w/2; x++ {
			img.SetNRGBA(x, y, color.NRGBA{A: 255})
		}
	}
	return img
}

func TestDisabledPresetReturnsInput(t *testing.T) {
	pl := NewPipeline(WithLogger(quietLogger()))
	src := textLikeCanvas(40, 30)
	before := append([]byte(nil), src.Pix...)

	none, err := Lookup(PresetNone)
	if err != nil {
		t.Fatalf("查找预设失败: %v", err)
	}
	out := pl.Apply(src, none, rand.New(rand.NewPCG(1, 2)))
	if out != image.Image(src) {
		t.Fatalf("未启用的预设应原样返回输入画布")
	}
	if !bytes.Equal(src.Pix, before) {
		t.Fatalf("未启用的预设不应修改像素")
	}
}

func TestApplyDeterministicWithSameSeed(t *testing.T) {
	pl := NewPipeline(WithLogger(quietLogger()))
	src := textLikeCanvas(60, 40)
	p, _ := Lookup(PresetStrong)

	a := imaging.Clone(pl.Apply(src, p, rand.New(rand.NewPCG(42, 0))))
	b := imaging.Clone(pl.Apply(src, p, rand.New(rand.NewPCG(42, 0))))
	if !bytes.Equal(a.Pix, b.Pix) {
		t.Fatalf("相同种子应产生相同像素")
	}
	c := imaging.Clone(pl.Apply(src, p, rand.New(rand.NewPCG(7, 0))))
	if bytes.Equal(a.Pix, c.Pix) {
		t.Fatalf("不同种子的纸张纹理不应完全一致")
	}
}

func TestApplyKeepsDimensionsAndInput(t *testing.T) {
	pl := NewPipeline(WithLogger(quietLogger()))
	src := textLikeCanvas(50, 20)
	before := append([]byte(nil), src.Pix...)
	for _, name := range Names() {
		p, _ := Lookup(name)
		out := pl.Apply(src, p, rand.New(rand.NewPCG(3, 4)))
		if out.Bounds().Dx() != 50 || out.Bounds().Dy() != 20 {
			t.Fatalf("%s: 尺寸被改变: %v", name, out.Bounds())
		}
	}
	if !bytes.Equal(src.Pix, before) {
		t.Fatalf("效果链不应修改输入画布")
	}
}

// TestFailingStageIsSkipped 验证单个阶段出错或 panic 时流水线继续执行后续阶段。
func TestFailingStageIsSkipped(t *testing.T) {
	var ran []string
	mark := func(name string) stage {
		return stage{name, func(_ *Pipeline, img *image.NRGBA, _ Preset, _ *rand.Rand) (*image.NRGBA, error) {
			ran = append(ran, name)
			out := imaging.Clone(img)
			out.SetNRGBA(0, 0, color.NRGBA{R: 1, G: 2, B: 3, A: 255})
			return out, nil
		}}
	}
	pl := NewPipeline(WithLogger(quietLogger()))
	pl.stages = []stage{
		{"boom", func(*Pipeline, *image.NRGBA, Preset, *rand.Rand) (*image.NRGBA, error) {
			panic("texture synthesis failed")
		}},
		{"err", func(*Pipeline, *image.NRGBA, Preset, *rand.Rand) (*image.NRGBA, error) {
			return nil, fmt.Errorf("stage error")
		}},
		mark("after"),
	}
	src := textLikeCanvas(10, 10)
	out := imaging.Clone(pl.Apply(src, Preset{Name: "t", Enabled: true}, rand.New(rand.NewPCG(1, 1))))
	if len(ran) != 1 || ran[0] != "after" {
		t.Fatalf("失败阶段之后的阶段应继续执行: %v", ran)
	}
	if got := out.NRGBAAt(0, 0); got != (color.NRGBA{R: 1, G: 2, B: 3, A: 255}) {
		t.Fatalf("最终画布应来自最后一个成功阶段: %v", got)
	}
}

func TestInkSpreadThickensStrokes(t *testing.T) {
	pl := NewPipeline(WithLogger(quietLogger()))
	src := textLikeCanvas(40, 40)
	out, err := pl.inkSpread(imaging.Clone(src), Preset{InkSpread: 0.5}, nil)
	if err != nil {
		t.Fatalf("墨水扩散失败: %v", err)
	}
	dark := func(img *image.NRGBA) int {
		n := 0
		for i := 0; i < len(img.Pix); i += 4 {
			if img.Pix[i] < 250 {
				n++
			}
		}
		return n
	}
	if dark(out) <= dark(src) {
		t.Fatalf("墨水扩散后着色像素应增多: before=%d after=%d", dark(src), dark(out))
	}
}

func TestPressureLightensEdges(t *testing.T) {
	pl := NewPipeline(WithLogger(quietLogger()))
	img := imaging.New(100, 1, color.NRGBA{A: 255})
	out := imaging.Clone(pl.Pressure(img, rand.New(rand.NewPCG(9, 9))))

	// 行首压力约 0.5×[0.8,1.2]，至多 0.6；中段至少 0.8
	if v := out.NRGBAAt(0, 0).R; v < 100 {
		t.Fatalf("行首像素应变浅，实际 %d", v)
	}
	if v := out.NRGBAAt(50, 0).R; v > 60 {
		t.Fatalf("行中像素应保持较深，实际 %d", v)
	}
}

func TestPressureWithoutRandomSourceKeepsInput(t *testing.T) {
	pl := NewPipeline(WithLogger(quietLogger()))
	img := textLikeCanvas(20, 20)
	out := imaging.Clone(pl.Pressure(img, nil))
	if !bytes.Equal(out.Pix, img.Pix) {
		t.Fatalf("阶段 panic 时应返回阶段之前的画布")
	}
}

func TestVariationOnlyDarkens(t *testing.T) {
	pl := NewPipeline(WithLogger(quietLogger()), WithInk(color.NRGBA{R: 10, G: 20, B: 30, A: 255}))
	img := imaging.New(30, 30, color.NRGBA{R: 90, G: 90, B: 90, A: 255})
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	out := imaging.Clone(pl.Variation(img, rand.New(rand.NewPCG(5, 5))))
	if out.NRGBAAt(0, 0) != (color.NRGBA{R: 255, G: 255, B: 255, A: 255}) {
		t.Fatalf("白色像素不应被加深")
	}
	changed := 0
	for y := 0; y < 30; y++ {
		for x := 0; x < 30; x++ {
			c := out.NRGBAAt(x, y)
			if c == (color.NRGBA{R: 10, G: 20, B: 30, A: 255}) {
				changed++
			} else if c != img.NRGBAAt(x, y) {
				t.Fatalf("像素只能保持不变或变为墨色: %v", c)
			}
		}
	}
	if changed == 0 {
		t.Fatalf("应有部分像素被加深")
	}
}

func TestPresetValidate(t *testing.T) {
	for _, name := range Names() {
		p, _ := Lookup(name)
		if err := p.Validate(); err != nil {
			t.Fatalf("内置预设 %s 校验失败: %v", name, err)
		}
	}
	bad := []Preset{
		{Name: "a", InkSpread: 1.5},
		{Name: "b", Noise: -0.1},
		{Name: "c", BlurRadius: -1},
		{Name: "d", RotationJitter: -2},
	}
	for _, p := range bad {
		if err := p.Validate(); err == nil {
			t.Fatalf("预设 %s 应校验失败", p.Name)
		}
	}
	if _, err := Lookup("watercolor"); err == nil {
		t.Fatalf("未知预设应返回错误")
	}
}
