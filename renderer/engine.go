// Package renderer 实现逐字随机排布的手写字形绘制：按字体链为每个字符选择字体，
// 叠加字号、字距、行距与位置的随机扰动，并可对整行做小角度旋转。
package renderer

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"math/rand/v2"
	"strings"
	"sync"
	"unicode"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/mattn/go-runewidth"

	"github.com/ByLCY/quill/effects"
	"github.com/ByLCY/quill/errors"
	"github.com/ByLCY/quill/fonts"
	"github.com/ByLCY/quill/layout"
	"github.com/ByLCY/quill/style"
)

// DefaultFaceCacheSize 是字形面缓存的默认容量。
const DefaultFaceCacheSize = 256

// Engine 是基于 GlyphBackend 的 Renderer 实现，可在多个 goroutine 间共享。
type Engine struct {
	backend  GlyphBackend
	resolver *fonts.Resolver
	logger   *log.Logger

	faces *lru.Cache[faceKey, *lockedFace]

	mu     sync.Mutex
	chains map[string]*fonts.Chain
	broken map[string]error
}

var _ Renderer = (*Engine)(nil)

type faceKey struct {
	path string
	size float64
	ink  color.NRGBA
}

// Option 配置 Engine。
type Option func(*engineConfig)

type engineConfig struct {
	resolver  *fonts.Resolver
	logger    *log.Logger
	cacheSize int
}

// WithResolver 指定字体解析器，默认 fonts.NewResolver()。
func WithResolver(r *fonts.Resolver) Option {
	return func(c *engineConfig) { c.resolver = r }
}

// WithLogger 指定日志器。
func WithLogger(l *log.Logger) Option {
	return func(c *engineConfig) { c.logger = l }
}

// WithFaceCacheSize 设置字形面缓存容量。
func WithFaceCacheSize(n int) Option {
	return func(c *engineConfig) { c.cacheSize = n }
}

// NewEngine 创建使用 backend 绘制字形的 Engine。
func NewEngine(backend GlyphBackend, opts ...Option) (*Engine, error) {
	if backend == nil {
		return nil, errors.New(errors.ErrCodeUnsupported, "未指定字形后端")
	}
	cfg := engineConfig{cacheSize: DefaultFaceCacheSize}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = log.Default()
	}
	if cfg.resolver == nil {
		cfg.resolver = fonts.NewResolver(fonts.WithLogger(cfg.logger))
	}
	faces, err := lru.New[faceKey, *lockedFace](cfg.cacheSize)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "创建字形面缓存失败")
	}
	return &Engine{
		backend:  backend,
		resolver: cfg.resolver,
		logger:   cfg.logger,
		faces:    faces,
		chains:   map[string]*fonts.Chain{},
		broken:   map[string]error{},
	}, nil
}

// Backend 返回字形后端名称。
func (e *Engine) Backend() string { return e.backend.Name() }

// Chain 返回 ids 对应的字体链，结果按 ids 缓存。
func (e *Engine) Chain(ids []string) *fonts.Chain {
	key := strings.Join(ids, "\x00")
	e.mu.Lock()
	defer e.mu.Unlock()
	if c, ok := e.chains[key]; ok {
		return c
	}
	c := e.resolver.Resolve(ids)
	e.chains[key] = c
	return c
}

// InvalidateFonts 清空字体链、字形面缓存与解析器缓存。
func (e *Engine) InvalidateFonts() {
	e.mu.Lock()
	e.chains = map[string]*fonts.Chain{}
	e.broken = map[string]error{}
	e.mu.Unlock()
	e.faces.Purge()
	e.resolver.Forget()
}

// RenderPage 在纸张底色上逐行绘制 page 的内容。
func (e *Engine) RenderPage(page layout.Page, st style.Style, preset effects.Preset, rng *rand.Rand) (*image.NRGBA, error) {
	if rng == nil {
		return nil, errors.New(errors.ErrCodeInternal, "渲染第 %d 页时缺少随机源", page.Index+1)
	}
	w, h := int(math.Round(page.Width)), int(math.Round(page.Height))
	if w <= 0 || h <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidStyle, "页面尺寸无效: %gx%g", page.Width, page.Height)
	}
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(st.Paper.NRGBA()), image.Point{}, draw.Src)

	ld := &lineDrawer{
		e:      e,
		st:     st,
		preset: preset,
		chain:  e.Chain(st.Fonts),
		ink:    st.Ink.NRGBA(),
		rng:    rng,
	}
	ld.ascent = e.ascent(ld.chain, st.FontSize, ld.ink)

	for i, line := range page.Lines {
		if line.Blank || line.Content == "" {
			continue
		}
		y := page.SlotTop(i) + ld.ascent + jitter(rng, st.OffsetY) + rng.NormFloat64()*st.LineSpacingSigma
		x := page.Margin.Left + jitter(rng, st.OffsetX)
		ld.draw(img, line.Content, x, y)
	}
	return img, nil
}

// ascent 取链中第一个可用字体在基准字号下的上升高度。
func (e *Engine) ascent(chain *fonts.Chain, size float64, ink color.NRGBA) float64 {
	for _, f := range chain.Fonts {
		face, err := e.face(f, size, ink)
		if err != nil {
			continue
		}
		m, err := face.metrics()
		if err != nil {
			e.glyphFault(face, 0, err)
			continue
		}
		if m.Ascent > 0 {
			return m.Ascent
		}
	}
	return size * 0.8
}

// faceFor 返回链中第一个覆盖 r 且能被后端加载的字形面；都不可用时返回 nil。
func (e *Engine) faceFor(chain *fonts.Chain, r rune, size float64, ink color.NRGBA) *lockedFace {
	for _, f := range chain.Fonts {
		if !f.Has(r) {
			continue
		}
		face, err := e.face(f, size, ink)
		if err != nil {
			continue
		}
		return face
	}
	return nil
}

func (e *Engine) face(f *fonts.Font, size float64, ink color.NRGBA) (*lockedFace, error) {
	e.mu.Lock()
	err, bad := e.broken[f.Path]
	e.mu.Unlock()
	if bad {
		return nil, err
	}
	key := faceKey{path: f.Path, size: quantize(size), ink: ink}
	if face, ok := e.faces.Get(key); ok {
		return face, nil
	}
	face, err := e.newFace(f, key.size, ink)
	if err != nil {
		e.logger.Debug("字形后端无法加载字体，继续回退", "backend", e.backend.Name(), "font", f.Path, "err", err)
		e.markBroken(f.Path, err)
		return nil, err
	}
	locked := &lockedFace{path: f.Path, face: face}
	e.faces.Add(key, locked)
	return locked, nil
}

func (e *Engine) newFace(f *fonts.Font, size float64, ink color.NRGBA) (face Face, err error) {
	defer func() {
		if r := recover(); r != nil {
			face, err = nil, fmt.Errorf("创建字形面时 panic: %v", r)
		}
	}()
	return e.backend.NewFace(f, size, ink)
}

// markBroken 让 path 之后不再参与字体回退，并移除它已缓存的字形面。
func (e *Engine) markBroken(path string, err error) {
	e.mu.Lock()
	e.broken[path] = err
	e.mu.Unlock()
	for _, key := range e.faces.Keys() {
		if key.path == path {
			e.faces.Remove(key)
		}
	}
}

// glyphFault 记录后端在测量或绘制字形时的 panic，并把该字体标记为不可用。
func (e *Engine) glyphFault(face *lockedFace, r rune, err error) {
	e.logger.Warn("字形后端出错，改用回退字体", "backend", e.backend.Name(), "font", face.path, "rune", string(r), "err", err)
	e.markBroken(face.path, err)
}

// quantize 把字号量化到 0.25px，限制缓存中字形面的数量。
func quantize(size float64) float64 {
	return math.Round(size*4) / 4
}

func jitter(rng *rand.Rand, amplitude float64) float64 {
	if amplitude == 0 {
		return 0
	}
	return (rng.Float64()*2 - 1) * amplitude
}

type glyph struct {
	r    rune
	face *lockedFace
	x    float64
	size float64
}

type lineDrawer struct {
	e      *Engine
	st     style.Style
	preset effects.Preset
	chain  *fonts.Chain
	ink    color.NRGBA
	rng    *rand.Rand
	ascent float64
}

// draw 把一行排进透明缓冲区，按需旋转后以缓冲区中心为基准合成到页面，
// (x, y) 是该行在页面上的基线起点。
func (ld *lineDrawer) draw(dst *image.NRGBA, content string, x, y float64) {
	st := ld.st
	var glyphs []glyph
	cursor, right := 0.0, 0.0
	for _, r := range content {
		size := math.Max(1, st.FontSize+ld.rng.NormFloat64()*st.FontSizeSigma)
		face, adv := ld.measure(r, size)
		if unicode.IsSpace(r) {
			if face == nil {
				adv = size * 0.25
			}
			cursor += adv + st.WordSpacing + ld.rng.NormFloat64()*st.WordSpacingSigma
			continue
		}
		glyphs = append(glyphs, glyph{r: r, face: face, x: cursor, size: size})
		right = math.Max(right, cursor+adv)
		cursor += adv + st.LetterSpacing + ld.rng.NormFloat64()*st.LetterSpacingSigma
	}
	if len(glyphs) == 0 {
		return
	}

	left := 0.0
	for _, g := range glyphs {
		left = math.Min(left, g.x)
	}
	pad := math.Ceil(st.FontSize)
	bw := int(math.Ceil(right-left+2*pad)) + 1
	bh := int(math.Ceil(st.FontSize*1.5 + 2*pad))
	buf := image.NewNRGBA(image.Rect(0, 0, bw, bh))
	baseline := pad + ld.ascent
	for _, g := range glyphs {
		ld.drawGlyph(buf, g, pad+g.x-left, baseline)
	}

	// 缓冲区左上角在页面上的位置
	ox := x + left - pad
	oy := y - baseline
	var src image.Image = buf
	if ld.preset.Enabled && ld.preset.RotationJitter > 0 {
		angle := jitter(ld.rng, ld.preset.RotationJitter)
		src = imaging.Rotate(buf, angle, color.Transparent)
	}
	cx := ox + float64(bw)/2
	cy := oy + float64(bh)/2
	sb := src.Bounds()
	minX := int(math.Round(cx - float64(sb.Dx())/2))
	minY := int(math.Round(cy - float64(sb.Dy())/2))
	target := image.Rect(minX, minY, minX+sb.Dx(), minY+sb.Dy())
	draw.Draw(dst, target, src, sb.Min, draw.Over)
}

// measure 选出 r 的字形面并返回步进。测量时出错的字体被标记为不可用后继续沿链回退，
// 没有可用字体时返回 nil 与缺字方框的步进。
func (ld *lineDrawer) measure(r rune, size float64) (*lockedFace, float64) {
	for {
		face := ld.e.faceFor(ld.chain, r, size, ld.ink)
		if face == nil {
			return nil, missingAdvance(r, size)
		}
		adv, err := face.advance(r)
		if err == nil {
			return face, adv
		}
		ld.e.glyphFault(face, r, err)
	}
}

// drawGlyph 绘制一个字形；后端出错时依次换用链中后续字体，最后画缺字方框。
func (ld *lineDrawer) drawGlyph(buf *image.NRGBA, g glyph, x, baseline float64) {
	face := g.face
	for face != nil {
		err := face.draw(buf, x, baseline, g.r)
		if err == nil {
			return
		}
		ld.e.glyphFault(face, g.r, err)
		face = ld.e.faceFor(ld.chain, g.r, g.size, ld.ink)
	}
	drawMissingBox(buf, x, baseline, g.r, g.size, ld.ink)
}

// missingAdvance 按东亚宽度估算缺字方框的步进：全角 1 倍字号，半角 0.5 倍。
func missingAdvance(r rune, size float64) float64 {
	cells := runewidth.RuneWidth(r)
	if cells < 1 {
		cells = 1
	}
	return float64(cells) * 0.5 * size
}

// drawMissingBox 为没有任何字体覆盖的字符画一个空心方框，保证内容不丢失。
func drawMissingBox(dst *image.NRGBA, x, baseline float64, r rune, size float64, ink color.NRGBA) {
	adv := missingAdvance(r, size)
	t := int(math.Max(1, math.Round(size/20)))
	box := image.Rect(
		int(math.Round(x+adv*0.1)),
		int(math.Round(baseline-size*0.75)),
		int(math.Round(x+adv*0.9)),
		int(math.Round(baseline)),
	)
	strokeRect(dst, box, t, ink)
}

func strokeRect(dst *image.NRGBA, r image.Rectangle, t int, c color.NRGBA) {
	if r.Dx() <= 2*t || r.Dy() <= 2*t {
		draw.Draw(dst, r, image.NewUniform(c), image.Point{}, draw.Over)
		return
	}
	src := image.NewUniform(c)
	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+t),
		image.Rect(r.Min.X, r.Max.Y-t, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y+t, r.Min.X+t, r.Max.Y-t),
		image.Rect(r.Max.X-t, r.Min.Y+t, r.Max.X, r.Max.Y-t),
	}
	for _, e := range edges {
		draw.Draw(dst, e, src, image.Point{}, draw.Over)
	}
}

// lockedFace 串行化对底层字形面的访问；freetype 与 canvas 的字形面都不是并发安全的。
// advance 与 draw 把后端的 panic 转为错误返回。
type lockedFace struct {
	mu   sync.Mutex
	path string
	face Face
}

func (f *lockedFace) metrics() (m Metrics, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	defer recoverGlyph(&err)
	return f.face.Metrics(), nil
}

func (f *lockedFace) advance(r rune) (adv float64, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	defer recoverGlyph(&err)
	return f.face.Advance(r), nil
}

func (f *lockedFace) draw(dst *image.NRGBA, x, y float64, r rune) (err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	defer recoverGlyph(&err)
	f.face.Draw(dst, x, y, r)
	return nil
}

func recoverGlyph(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("字形后端 panic: %v", r)
	}
}
