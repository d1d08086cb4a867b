// Package handwriting 是手写渲染的门面：串联分段、分页、字形绘制与效果管线，
// 并提供页数估算、字符统计与图片编码。CLI 与 HTTP 服务都只通过这里调用核心。
package handwriting

import (
	"context"
	"fmt"
	"image"
	"math/rand/v2"
	"runtime"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/ByLCY/quill/effects"
	"github.com/ByLCY/quill/errors"
	"github.com/ByLCY/quill/layout"
	"github.com/ByLCY/quill/renderer"
	"github.com/ByLCY/quill/segment"
	"github.com/ByLCY/quill/style"
)

// DefaultMaxTextLength 是单次渲染允许的最大字符数。
const DefaultMaxTextLength = 20000

// Service 可在多个 goroutine 间共享。
type Service struct {
	renderer  renderer.Renderer
	effects   func(name string) (effects.Preset, error)
	gse       *segment.GSETokenizer
	workers   int
	maxLength int
	logger    *log.Logger
}

// Option 配置 Service。
type Option func(*Service)

// WithRenderer 指定页面渲染器，默认使用 canvas 后端的 renderer.Engine。
func WithRenderer(r renderer.Renderer) Option {
	return func(s *Service) { s.renderer = r }
}

// WithCatalog 让效果预设名先在样式表中查找，再回退到内置预设。
func WithCatalog(c *style.Catalog) Option {
	return func(s *Service) {
		if c != nil {
			s.effects = c.Effect
		}
	}
}

// WithWorkers 设置并行渲染的页数上限，默认 GOMAXPROCS。
func WithWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithMaxTextLength 设置输入文本的最大字符数，0 表示不限制。
func WithMaxTextLength(n int) Option {
	return func(s *Service) { s.maxLength = n }
}

// WithLogger 指定日志器。
func WithLogger(l *log.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New 创建 Service。
func New(opts ...Option) (*Service, error) {
	s := &Service{
		effects:   effects.Lookup,
		gse:       segment.NewGSETokenizer(),
		workers:   runtime.GOMAXPROCS(0),
		maxLength: DefaultMaxTextLength,
		logger:    log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.renderer == nil {
		r, err := NewRenderer(BackendCanvas, renderer.WithLogger(s.logger))
		if err != nil {
			return nil, err
		}
		s.renderer = r
	}
	return s, nil
}

// Renderer 返回当前使用的页面渲染器。
func (s *Service) Renderer() renderer.Renderer { return s.renderer }

// Backend 返回渲染器的后端名称；渲染器未提供名称时返回其类型名。
func (s *Service) Backend() string {
	if b, ok := s.renderer.(interface{ Backend() string }); ok {
		return b.Backend()
	}
	return fmt.Sprintf("%T", s.renderer)
}

// RenderOption 调整单次渲染。
type RenderOption func(*renderConfig)

type renderConfig struct {
	seed      *int64
	pressure  bool
	variation bool
	effect    *effects.Preset
}

// WithSeed 固定随机种子，使输出逐像素可复现。
func WithSeed(seed int64) RenderOption {
	return func(c *renderConfig) { c.seed = &seed }
}

// WithPressure 在默认效果之后追加笔压模拟。
func WithPressure() RenderOption {
	return func(c *renderConfig) { c.pressure = true }
}

// WithVariation 在默认效果之后追加墨色深浅变化。
func WithVariation() RenderOption {
	return func(c *renderConfig) { c.variation = true }
}

// WithEffect 使用给定的效果预设，忽略样式中的 Effect 名称。
func WithEffect(p effects.Preset) RenderOption {
	return func(c *renderConfig) { c.effect = &p }
}

// RenderDocument 把 text 渲染为按页排列的图片，页数与 EstimatePages 一致。
// 样式错误在绘制前即被拒绝；ctx 只在页与页之间检查。
func (s *Service) RenderDocument(ctx context.Context, text string, st style.Style, opts ...RenderOption) ([]image.Image, error) {
	var cfg renderConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := s.checkText(text); err != nil {
		return nil, err
	}
	preset, err := s.preset(st, cfg)
	if err != nil {
		return nil, err
	}
	res, err := s.Plan(text, st)
	if err != nil {
		return nil, err
	}

	var master *rand.Rand
	if cfg.seed != nil {
		master = rand.New(rand.NewPCG(uint64(*cfg.seed), 0))
	} else {
		master = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	// 每页的随机源按页序从主随机源依次派生，与并行度无关
	rngs := make([]*rand.Rand, len(res.Pages))
	for i := range rngs {
		rngs[i] = rand.New(rand.NewPCG(master.Uint64(), master.Uint64()))
	}

	pipeline := effects.NewPipeline(effects.WithLogger(s.logger), effects.WithInk(st.Ink.NRGBA()))
	images := make([]image.Image, len(res.Pages))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, page := range res.Pages {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = errors.New(errors.ErrCodeInternal, "渲染第 %d 页时 panic: %v", i+1, r)
				}
			}()
			if err := gctx.Err(); err != nil {
				return err
			}
			rng := rngs[i]
			raw, err := s.renderer.RenderPage(page, st, preset, rng)
			if err != nil {
				return errors.Wrap(codeOf(err), err, "渲染第 %d 页失败", i+1)
			}
			out := pipeline.Apply(raw, preset, rng)
			if cfg.pressure {
				out = pipeline.Pressure(out, rng)
			}
			if cfg.variation {
				out = pipeline.Variation(out, rng)
			}
			images[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	s.logger.Debug("渲染完成", "pages", len(images), "lines", res.TotalLines, "effect", preset.Name)
	return images, nil
}

// Plan 校验样式后完成分段与分页，不绘制任何内容。
func (s *Service) Plan(text string, st style.Style) (*layout.Result, error) {
	if err := st.Validate(); err != nil {
		return nil, err
	}
	seg, err := s.segmenter(st)
	if err != nil {
		return nil, err
	}
	res, err := layout.Build(text, st.Geometry(), layout.BuildOptions{Typesetter: seg})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidStyle, err, "分页失败")
	}
	return res, nil
}

// EstimatePages 返回渲染 text 将产生的页数。它不修改 st，也不绘制任何内容。
func (s *Service) EstimatePages(text string, st style.Style) (int, error) {
	if err := st.Validate(); err != nil {
		return 0, err
	}
	seg, err := s.segmenter(st)
	if err != nil {
		return 0, err
	}
	g := st.Geometry()
	return layout.EstimatePageCount(seg.Segment(text, g), g), nil
}

// CountCharacters 统计字符构成。
func (s *Service) CountCharacters(text string) segment.Counts {
	return segment.CountCharacters(text)
}

// checkText 只拒绝空串与超长文本；只含空白的文本渲染为一张空白页，与 EstimatePages 的结果一致。
func (s *Service) checkText(text string) error {
	if text == "" {
		return errors.New(errors.ErrCodeInvalidInput, "输入文本为空")
	}
	if s.maxLength > 0 {
		if n := utf8.RuneCountInString(text); n > s.maxLength {
			return errors.New(errors.ErrCodeInvalidInput, "输入文本过长：%d 个字符，上限 %d", n, s.maxLength)
		}
	}
	return nil
}

func (s *Service) preset(st style.Style, cfg renderConfig) (effects.Preset, error) {
	if cfg.effect != nil {
		if err := cfg.effect.Validate(); err != nil {
			return effects.Preset{}, err
		}
		return *cfg.effect, nil
	}
	name := st.Effect
	if name == "" {
		name = effects.PresetNone
	}
	return s.effects(name)
}

// segmenter 按样式创建 Segmenter；gse 分词器在 Service 内共享，词典只加载一次。
func (s *Service) segmenter(st style.Style) (*segment.Segmenter, error) {
	opts := []segment.Option{segment.WithLogger(s.logger)}
	if st.Tokenizer == "" || st.Tokenizer == style.TokenizerGSE {
		opts = append(opts, segment.WithTokenizer(s.gse))
	}
	return segment.ForStyle(st, opts...)
}

func codeOf(err error) errors.Code {
	if code := errors.GetCode(err); code != "" {
		return code
	}
	return errors.ErrCodeInternal
}
