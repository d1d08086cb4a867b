package style

import (
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/ByLCY/quill/dsl"
	"github.com/ByLCY/quill/effects"
	"github.com/ByLCY/quill/errors"
	"github.com/ByLCY/quill/layout"
)

// Catalog 汇总内置预设与样式表中声明的样式、效果和字体目录。
type Catalog struct {
	Name     string
	Version  string
	Styles   map[string]Style
	Effects  map[string]effects.Preset
	FontDirs []string
}

// NewCatalog 返回只包含内置预设的目录。
func NewCatalog() *Catalog {
	return &Catalog{
		Styles:  map[string]Style{},
		Effects: map[string]effects.Preset{},
	}
}

// LoadSheet 解析并解析继承关系。
func LoadSheet(path string) (*Catalog, error) {
	sheet, err := dsl.ParseFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidSheet, err, "解析样式表 %s 失败", path)
	}
	return Resolve(sheet)
}

// Style 返回指定样式：先查样式表，再查内置预设。返回值为深拷贝。
func (c *Catalog) Style(name string) (Style, error) {
	if c != nil {
		if s, ok := c.Styles[name]; ok {
			return s.Clone(), nil
		}
	}
	return Preset(name)
}

// Effect 返回指定效果预设：先查样式表，再查内置预设。
func (c *Catalog) Effect(name string) (effects.Preset, error) {
	if c != nil {
		if p, ok := c.Effects[name]; ok {
			return p, nil
		}
	}
	return effects.Lookup(name)
}

// StyleNames 返回内置与样式表中全部样式名，按字母序。
func (c *Catalog) StyleNames() []string {
	names := map[string]struct{}{}
	for _, n := range PresetNames() {
		names[n] = struct{}{}
	}
	if c != nil {
		for n := range c.Styles {
			names[n] = struct{}{}
		}
	}
	return slices.Sorted(maps.Keys(names))
}

// EffectNames 返回内置与样式表中全部效果名，按字母序。
func (c *Catalog) EffectNames() []string {
	names := map[string]struct{}{}
	for _, n := range effects.Names() {
		names[n] = struct{}{}
	}
	if c != nil {
		for n := range c.Effects {
			names[n] = struct{}{}
		}
	}
	return slices.Sorted(maps.Keys(names))
}

type rawSection struct {
	extends string
	block   *dsl.Block
	pos     string
}

// Resolve 把样式表 AST 转换为 Catalog。未写 extends 的样式继承 default，
// 未写 extends 的效果从启用状态的空预设开始；继承链中的环会被报告为错误。
func Resolve(sheet *dsl.Sheet) (*Catalog, error) {
	cat := NewCatalog()
	cat.Name = sheet.Name
	cat.Version = sheet.Version

	rawStyles := map[string]rawSection{}
	rawEffects := map[string]rawSection{}
	for _, section := range sheet.Sections {
		switch {
		case section.Style != nil:
			s := section.Style
			if _, dup := rawStyles[s.Name]; dup {
				return nil, errors.New(errors.ErrCodeInvalidSheet, "%s: style %s 重复定义", s.Pos, s.Name)
			}
			rawStyles[s.Name] = rawSection{extends: s.Extends, block: s.Block, pos: s.Pos.String()}
		case section.Effects != nil:
			e := section.Effects
			if _, dup := rawEffects[e.Name]; dup {
				return nil, errors.New(errors.ErrCodeInvalidSheet, "%s: effects %s 重复定义", e.Pos, e.Name)
			}
			rawEffects[e.Name] = rawSection{extends: e.Extends, block: e.Block, pos: e.Pos.String()}
		case section.Fonts != nil:
			for _, a := range section.Fonts.Block.Assignments {
				if a.Key != "dir" && a.Key != "dirs" {
					return nil, errors.New(errors.ErrCodeInvalidSheet, "%s: fonts 不支持属性 %s", a.Pos, a.Key)
				}
				cat.FontDirs = append(cat.FontDirs, a.Value.Tokens()...)
			}
		}
	}

	styles, err := resolveStyles(rawStyles)
	if err != nil {
		return nil, err
	}
	cat.Styles = styles

	presets, err := resolveEffects(rawEffects)
	if err != nil {
		return nil, err
	}
	cat.Effects = presets

	for name, s := range cat.Styles {
		if _, err := cat.Effect(s.Effect); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidSheet, err, "style %s 引用了不存在的效果", name)
		}
	}
	return cat, nil
}

func resolveStyles(raw map[string]rawSection) (map[string]Style, error) {
	resolved := map[string]Style{}
	visiting := map[string]bool{}

	var dfs func(name string) (Style, error)
	dfs = func(name string) (Style, error) {
		if style, ok := resolved[name]; ok {
			return style, nil
		}
		section, ok := raw[name]
		if !ok {
			s, err := Preset(name)
			if err != nil {
				return Style{}, errors.New(errors.ErrCodeInvalidSheet, "style %s 未定义", name)
			}
			return s, nil
		}
		if visiting[name] {
			return Style{}, errors.New(errors.ErrCodeInvalidSheet, "style 继承存在循环：%s", name)
		}
		visiting[name] = true

		parentName := section.extends
		if parentName == "" {
			parentName = "default"
		}
		parent, err := dfs(parentName)
		if err != nil {
			return Style{}, err
		}
		style := parent.Clone()
		style.Name = name
		if err := applyStyleProps(&style, section.block); err != nil {
			return Style{}, errors.Wrap(errors.ErrCodeInvalidSheet, err, "%s: style %s", section.pos, name)
		}
		if err := style.Validate(); err != nil {
			return Style{}, errors.Wrap(errors.ErrCodeInvalidSheet, err, "%s: style %s 校验失败", section.pos, name)
		}
		resolved[name] = style
		delete(visiting, name)
		return style, nil
	}

	for _, name := range slices.Sorted(maps.Keys(raw)) {
		if _, err := dfs(name); err != nil {
			return nil, err
		}
	}
	return resolved, nil
}

func resolveEffects(raw map[string]rawSection) (map[string]effects.Preset, error) {
	resolved := map[string]effects.Preset{}
	visiting := map[string]bool{}

	var dfs func(name string) (effects.Preset, error)
	dfs = func(name string) (effects.Preset, error) {
		if p, ok := resolved[name]; ok {
			return p, nil
		}
		section, ok := raw[name]
		if !ok {
			p, err := effects.Lookup(name)
			if err != nil {
				return effects.Preset{}, errors.New(errors.ErrCodeInvalidSheet, "effects %s 未定义", name)
			}
			return p, nil
		}
		if visiting[name] {
			return effects.Preset{}, errors.New(errors.ErrCodeInvalidSheet, "effects 继承存在循环：%s", name)
		}
		visiting[name] = true

		p := effects.Preset{Enabled: true}
		if section.extends != "" {
			parent, err := dfs(section.extends)
			if err != nil {
				return effects.Preset{}, err
			}
			p = parent
		}
		p.Name = name
		if err := applyEffectProps(&p, section.block); err != nil {
			return effects.Preset{}, errors.Wrap(errors.ErrCodeInvalidSheet, err, "%s: effects %s", section.pos, name)
		}
		if err := p.Validate(); err != nil {
			return effects.Preset{}, errors.Wrap(errors.ErrCodeInvalidSheet, err, "%s: effects %s 校验失败", section.pos, name)
		}
		resolved[name] = p
		delete(visiting, name)
		return p, nil
	}

	for _, name := range slices.Sorted(maps.Keys(raw)) {
		if _, err := dfs(name); err != nil {
			return nil, err
		}
	}
	return resolved, nil
}

// 属性按固定顺序应用：dpi 影响所有长度换算，font-size 影响绝对行高的换算。
var styleKeyOrder = map[string]int{
	"dpi":       0,
	"page":      1,
	"font-size": 2,
}

func applyStyleProps(s *Style, block *dsl.Block) error {
	if block == nil {
		return nil
	}
	assignments := slices.Clone(block.Assignments)
	slices.SortStableFunc(assignments, func(a, b *dsl.Assignment) int {
		return keyRank(a.Key) - keyRank(b.Key)
	})
	for _, a := range assignments {
		if err := applyStyleProp(s, strings.ToLower(a.Key), a.Value); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidStyle, err, "%s: 属性 %s", a.Pos, a.Key)
		}
	}
	return nil
}

func keyRank(key string) int {
	if r, ok := styleKeyOrder[strings.ToLower(key)]; ok {
		return r
	}
	return len(styleKeyOrder)
}

func applyStyleProp(s *Style, key string, v *dsl.Value) error {
	tokens := v.Tokens()
	if len(tokens) == 0 {
		return errors.New(errors.ErrCodeInvalidStyle, "缺少取值")
	}
	switch key {
	case "dpi":
		f, err := strconv.ParseFloat(tokens[0], 64)
		if err != nil {
			return err
		}
		s.DPI = f
	case "page":
		orientation := Portrait
		if len(tokens) > 1 {
			orientation = Orientation(strings.ToLower(tokens[1]))
		}
		w, h, err := PageSize(tokens[0], orientation, s.DPI)
		if err != nil {
			return err
		}
		s.PageWidth, s.PageHeight = w, h
	case "page-width":
		return setLength(&s.PageWidth, tokens[0], s.DPI)
	case "page-height":
		return setLength(&s.PageHeight, tokens[0], s.DPI)
	case "font", "fonts":
		s.Fonts = slices.Clone(tokens)
	case "font-size":
		return setLength(&s.FontSize, tokens[0], s.DPI)
	case "line-height":
		spec, err := layout.ParseLineHeight(tokens[0])
		if err != nil {
			return err
		}
		s.LineSpacing = spec.SpacingFactor(s.FontSize, s.DPI)
	case "line-spacing":
		f, err := strconv.ParseFloat(strings.TrimSuffix(tokens[0], "x"), 64)
		if err != nil {
			return err
		}
		s.LineSpacing = f
	case "margin":
		m, err := parseMargin(tokens, s.DPI)
		if err != nil {
			return err
		}
		s.Margin = m
	case "margin-top":
		return setLength(&s.Margin.Top, tokens[0], s.DPI)
	case "margin-right":
		return setLength(&s.Margin.Right, tokens[0], s.DPI)
	case "margin-bottom":
		return setLength(&s.Margin.Bottom, tokens[0], s.DPI)
	case "margin-left":
		return setLength(&s.Margin.Left, tokens[0], s.DPI)
	case "word-spacing":
		return setLength(&s.WordSpacing, tokens[0], s.DPI)
	case "letter-spacing":
		return setLength(&s.LetterSpacing, tokens[0], s.DPI)
	case "word-spacing-sigma":
		return setLength(&s.WordSpacingSigma, tokens[0], s.DPI)
	case "letter-spacing-sigma":
		return setLength(&s.LetterSpacingSigma, tokens[0], s.DPI)
	case "font-size-sigma":
		return setLength(&s.FontSizeSigma, tokens[0], s.DPI)
	case "line-spacing-sigma":
		return setLength(&s.LineSpacingSigma, tokens[0], s.DPI)
	case "offset":
		if err := setLength(&s.OffsetX, tokens[0], s.DPI); err != nil {
			return err
		}
		y := tokens[0]
		if len(tokens) > 1 {
			y = tokens[1]
		}
		return setLength(&s.OffsetY, y, s.DPI)
	case "offset-x":
		return setLength(&s.OffsetX, tokens[0], s.DPI)
	case "offset-y":
		return setLength(&s.OffsetY, tokens[0], s.DPI)
	case "ink", "color":
		c, err := ParseColor(tokens[0])
		if err != nil {
			return err
		}
		s.Ink = c
	case "paper", "background":
		c, err := ParseColor(tokens[0])
		if err != nil {
			return err
		}
		s.Paper = c
	case "effect":
		s.Effect = tokens[0]
	case "measure":
		s.Measure = tokens[0]
	case "tokenizer":
		s.Tokenizer = tokens[0]
	default:
		return errors.New(errors.ErrCodeInvalidStyle, "未知属性")
	}
	return nil
}

func applyEffectProps(p *effects.Preset, block *dsl.Block) error {
	if block == nil {
		return nil
	}
	for _, a := range block.Assignments {
		tokens := a.Value.Tokens()
		if len(tokens) == 0 {
			return errors.New(errors.ErrCodeInvalidStyle, "%s: 属性 %s 缺少取值", a.Pos, a.Key)
		}
		if strings.ToLower(a.Key) == "enabled" {
			b, err := strconv.ParseBool(tokens[0])
			if err != nil {
				return errors.Wrap(errors.ErrCodeInvalidStyle, err, "%s: enabled 需要 true/false", a.Pos)
			}
			p.Enabled = b
			continue
		}
		f, err := strconv.ParseFloat(tokens[0], 64)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidStyle, err, "%s: 属性 %s 需要数字", a.Pos, a.Key)
		}
		switch strings.ToLower(a.Key) {
		case "ink-spread":
			p.InkSpread = f
		case "noise":
			p.Noise = f
		case "blur":
			p.BlurRadius = f
		case "rotation":
			p.RotationJitter = f
		default:
			return errors.New(errors.ErrCodeInvalidStyle, "%s: effects 不支持属性 %s", a.Pos, a.Key)
		}
	}
	return nil
}

func setLength(dst *float64, value string, dpi float64) error {
	l, err := layout.ParseLength(value)
	if err != nil {
		return err
	}
	*dst = l.ToPx(dpi)
	return nil
}

// parseMargin 采用 CSS 语义：1 个值四边相同；2 个值为上下/左右；3 个值为上/左右/下；4 个值为上右下左。
func parseMargin(tokens []string, dpi float64) (layout.Margin, error) {
	vals := make([]float64, 0, 4)
	for _, t := range tokens {
		if len(vals) == 4 {
			break
		}
		l, err := layout.ParseLength(t)
		if err != nil {
			return layout.Margin{}, err
		}
		vals = append(vals, l.ToPx(dpi))
	}
	switch len(vals) {
	case 1:
		v := vals[0]
		return layout.Margin{Top: v, Right: v, Bottom: v, Left: v}, nil
	case 2:
		return layout.Margin{Top: vals[0], Right: vals[1], Bottom: vals[0], Left: vals[1]}, nil
	case 3:
		return layout.Margin{Top: vals[0], Right: vals[1], Bottom: vals[2], Left: vals[1]}, nil
	default:
		return layout.Margin{Top: vals[0], Right: vals[1], Bottom: vals[2], Left: vals[3]}, nil
	}
}
