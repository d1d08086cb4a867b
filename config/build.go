package config

import (
	"github.com/charmbracelet/log"

	"github.com/ByLCY/quill/fonts"
	"github.com/ByLCY/quill/handwriting"
	"github.com/ByLCY/quill/renderer"
	"github.com/ByLCY/quill/style"
)

// Catalog 加载 style.sheet 指定的样式表；未指定时返回只含内置预设的目录。
func (c Config) Catalog() (*style.Catalog, error) {
	if c.Style.Sheet == "" {
		return style.NewCatalog(), nil
	}
	return style.LoadSheet(c.Style.Sheet)
}

// ResolveStyle 从目录中取出样式，再套用配置中的效果、分词器与宽度估算覆盖。
// name 为空时依次使用 style.name 与 style.preset。
func (c Config) ResolveStyle(cat *style.Catalog, name string) (style.Style, error) {
	if name == "" {
		name = c.Style.Name
	}
	if name == "" {
		name = c.Style.Preset
	}
	st, err := cat.Style(name)
	if err != nil {
		return style.Style{}, err
	}
	if c.Style.Effect != "" {
		st.Effect = c.Style.Effect
	}
	if c.Style.Tokenizer != "" {
		st.Tokenizer = c.Style.Tokenizer
	}
	if c.Style.Measure != "" {
		st.Measure = c.Style.Measure
	}
	return st, nil
}

// NewService 按配置组装渲染服务。样式表中声明的字体目录会加入字体查找路径。
func (c Config) NewService(cat *style.Catalog, logger *log.Logger) (*handwriting.Service, error) {
	ropts := c.ResolverOptions(logger)
	if cat != nil && len(cat.FontDirs) > 0 {
		ropts = append(ropts, fonts.WithDirs(cat.FontDirs...))
	}
	r, err := handwriting.NewRenderer(c.Render.Backend,
		renderer.WithResolver(fonts.NewResolver(ropts...)),
		renderer.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}
	return handwriting.New(
		handwriting.WithRenderer(r),
		handwriting.WithCatalog(cat),
		handwriting.WithWorkers(c.Render.Workers),
		handwriting.WithMaxTextLength(c.Render.MaxTextLength),
		handwriting.WithLogger(logger),
	)
}
