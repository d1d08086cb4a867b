package effects

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"math/rand/v2"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"
)

// darkThreshold 是判定"墨迹像素"的亮度阈值。
const darkThreshold = 128

// Pipeline 按固定顺序执行效果阶段。单个阶段失败只会被跳过并记录警告，不会中断整条流水线。
type Pipeline struct {
	logger *log.Logger
	ink    color.NRGBA
	stages []stage
}

type stage struct {
	name string
	run  func(pl *Pipeline, img *image.NRGBA, p Preset, rng *rand.Rand) (*image.NRGBA, error)
}

// defaultStages 的顺序固定，不允许重排。
var defaultStages = []stage{
	{"ink-spread", (*Pipeline).inkSpread},
	{"noise", (*Pipeline).noise},
	{"blur", (*Pipeline).blur},
	{"paper-texture", (*Pipeline).paperTexture},
	{"brightness-contrast", (*Pipeline).brightnessContrast},
}

// Option 配置 Pipeline。
type Option func(*Pipeline)

// WithLogger 指定阶段失败时使用的日志器。
func WithLogger(l *log.Logger) Option {
	return func(pl *Pipeline) {
		if l != nil {
			pl.logger = l
		}
	}
}

// WithInk 指定墨水扩散与书写变化阶段使用的墨色，默认黑色。
func WithInk(c color.Color) Option {
	return func(pl *Pipeline) {
		pl.ink = color.NRGBAModel.Convert(c).(color.NRGBA)
	}
}

// NewPipeline 创建默认五阶段流水线。
func NewPipeline(opts ...Option) *Pipeline {
	pl := &Pipeline{
		logger: log.Default(),
		ink:    color.NRGBA{A: 255},
		stages: defaultStages,
	}
	for _, opt := range opts {
		opt(pl)
	}
	return pl
}

// Apply 对画布执行效果链。预设未启用时原样返回输入。
func (pl *Pipeline) Apply(img image.Image, p Preset, rng *rand.Rand) image.Image {
	if !p.Enabled || img == nil {
		return img
	}
	cur := imaging.Clone(img)
	for _, st := range pl.stages {
		cur = pl.runStage(st.name, cur, func(in *image.NRGBA) (*image.NRGBA, error) {
			return st.run(pl, in, p, rng)
		})
	}
	return cur
}

// Pressure 模拟笔压：行首行尾较轻，中段较重，并叠加小幅随机系数。不属于默认链。
func (pl *Pipeline) Pressure(img image.Image, rng *rand.Rand) image.Image {
	if img == nil {
		return nil
	}
	return pl.runStage("pressure", imaging.Clone(img), func(in *image.NRGBA) (*image.NRGBA, error) {
		return pressure(in, rng), nil
	})
}

// Variation 模拟书写粗细变化：以 10×10 的块为单位随机选阈值，阈值下的像素以一定概率加深为墨色。
func (pl *Pipeline) Variation(img image.Image, rng *rand.Rand) image.Image {
	if img == nil {
		return nil
	}
	return pl.runStage("variation", imaging.Clone(img), func(in *image.NRGBA) (*image.NRGBA, error) {
		return variation(in, pl.ink, rng), nil
	})
}

// runStage 在阶段出错或 panic 时返回该阶段之前的画布。
func (pl *Pipeline) runStage(name string, in *image.NRGBA, fn func(*image.NRGBA) (*image.NRGBA, error)) (out *image.NRGBA) {
	defer func() {
		if r := recover(); r != nil {
			pl.logger.Warn("效果阶段异常，已跳过", "stage", name, "panic", r)
			out = in
		}
	}()
	res, err := fn(in)
	if err != nil {
		pl.logger.Warn("效果阶段失败，已跳过", "stage", name, "err", err)
		return in
	}
	if res == nil || res.Bounds() != in.Bounds() {
		pl.logger.Warn("效果阶段返回了无效画布，已跳过", "stage", name)
		return in
	}
	return res
}

func (pl *Pipeline) inkSpread(img *image.NRGBA, p Preset, _ *rand.Rand) (*image.NRGBA, error) {
	if p.InkSpread <= 0 {
		return img, nil
	}
	b := img.Bounds()
	mask := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if luminance(img.NRGBAAt(x, y)) < darkThreshold {
				mask.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	sigma := math.Max(1, float64(int(p.InkSpread*3)))
	blurred := imaging.Blur(mask, sigma)

	alpha := image.NewAlpha(b)
	bb := blurred.Bounds()
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			alpha.SetAlpha(b.Min.X+x, b.Min.Y+y, color.Alpha{A: blurred.NRGBAAt(bb.Min.X+x, bb.Min.Y+y).R})
		}
	}

	out := image.NewNRGBA(b)
	draw.Draw(out, b, image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(out, b, img, b.Min, draw.Over)
	draw.DrawMask(out, b, image.NewUniform(pl.ink), image.Point{}, alpha, b.Min, draw.Over)
	return out, nil
}

func (pl *Pipeline) noise(img *image.NRGBA, p Preset, rng *rand.Rand) (*image.NRGBA, error) {
	if p.Noise <= 0 {
		return img, nil
	}
	if rng == nil {
		return nil, fmt.Errorf("噪点阶段缺少随机源")
	}
	out := imaging.Clone(img)
	b := out.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if rng.Float64() >= p.Noise {
				continue
			}
			delta := rng.IntN(61) - 30
			c := out.NRGBAAt(x, y)
			c.R = clamp(int(c.R) + delta)
			c.G = clamp(int(c.G) + delta)
			c.B = clamp(int(c.B) + delta)
			out.SetNRGBA(x, y, c)
		}
	}
	return out, nil
}

func (pl *Pipeline) blur(img *image.NRGBA, p Preset, _ *rand.Rand) (*image.NRGBA, error) {
	sigma := math.Min(p.BlurRadius*0.5, 1.0)
	if sigma <= 0 {
		return img, nil
	}
	return imaging.Blur(img, sigma), nil
}

// paperTexture 生成近白的纸张底色，再以 0.95 的不透明度把当前画布叠在其上。
func (pl *Pipeline) paperTexture(img *image.NRGBA, _ Preset, rng *rand.Rand) (*image.NRGBA, error) {
	if rng == nil {
		return nil, fmt.Errorf("纸张纹理阶段缺少随机源")
	}
	const opacity = 0.95
	b := img.Bounds()
	out := image.NewNRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			paper := float64(240 + rng.IntN(16))
			c := img.NRGBAAt(x, y)
			out.SetNRGBA(x, y, color.NRGBA{
				R: blend(paper, c.R, opacity),
				G: blend(paper, c.G, opacity),
				B: blend(paper, c.B, opacity),
				A: 255,
			})
		}
	}
	return out, nil
}

func (pl *Pipeline) brightnessContrast(img *image.NRGBA, _ Preset, _ *rand.Rand) (*image.NRGBA, error) {
	dimmed := imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		c.R = clamp(int(math.Round(float64(c.R) * 0.95)))
		c.G = clamp(int(math.Round(float64(c.G) * 0.95)))
		c.B = clamp(int(math.Round(float64(c.B) * 0.95)))
		return c
	})
	return imaging.AdjustContrast(dimmed, 5), nil
}

func pressure(img *image.NRGBA, rng *rand.Rand) *image.NRGBA {
	out := imaging.Clone(img)
	b := img.Bounds()
	width := float64(b.Dx())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := img.NRGBAAt(x, y)
			if luminance(c) >= darkThreshold {
				continue
			}
			pos := float64(x-b.Min.X) / width
			k := 1.0
			switch {
			case pos < 0.2:
				k = 0.5 + pos*0.5
			case pos > 0.8:
				k = 0.5 + (1-pos)*0.5
			}
			k *= 0.8 + rng.Float64()*0.4
			c.R = clamp(255 - int((255-float64(c.R))*k))
			c.G = clamp(255 - int((255-float64(c.G))*k))
			c.B = clamp(255 - int((255-float64(c.B))*k))
			out.SetNRGBA(x, y, c)
		}
	}
	return out
}

func variation(img *image.NRGBA, ink color.NRGBA, rng *rand.Rand) *image.NRGBA {
	const block = 10
	b := img.Bounds()
	out := imaging.Clone(img)
	for by := b.Min.Y; by < b.Max.Y; by += block {
		for bx := b.Min.X; bx < b.Max.X; bx += block {
			threshold := float64(100 + rng.IntN(51))
			for y := by; y < min(by+block, b.Max.Y); y++ {
				for x := bx; x < min(bx+block, b.Max.X); x++ {
					if luminance(img.NRGBAAt(x, y)) >= threshold {
						continue
					}
					if rng.Float64() < 0.3 {
						out.SetNRGBA(x, y, color.NRGBA{R: ink.R, G: ink.G, B: ink.B, A: 255})
					}
				}
			}
		}
	}
	return out
}

// luminance 使用 ITU-R 601 权重，与灰度转换一致。
func luminance(c color.NRGBA) float64 {
	return 0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)
}

func blend(paper float64, v uint8, opacity float64) uint8 {
	return clamp(int(math.Round(paper*(1-opacity) + float64(v)*opacity)))
}

func clamp(v int) uint8 {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	}
	return uint8(v)
}
