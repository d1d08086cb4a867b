package style

import (
	"sort"

	"github.com/ByLCY/quill/effects"
	"github.com/ByLCY/quill/errors"
	"github.com/ByLCY/quill/layout"
)

// DefaultDPI 是内置预设使用的分辨率。
const DefaultDPI = 300

// DefaultFonts 是未指定字体时的首选字体，解析失败时会继续走字体回退链。
var DefaultFonts = []string{"Ma Shan Zheng"}

// Default 返回默认预设：A5 横版、300dpi、120px 字号、行高 140px。
func Default() Style {
	w, h, _ := PageSize("A5", Landscape, DefaultDPI)
	return Style{
		Name:               "default",
		Fonts:              append([]string(nil), DefaultFonts...),
		FontSize:           120,
		LineSpacing:        1.0 / 6.0,
		Margin:             layout.Margin{Top: 120, Right: 100, Bottom: 120, Left: 100},
		WordSpacing:        20,
		LetterSpacing:      0,
		WordSpacingSigma:   3,
		LetterSpacingSigma: 0.5,
		FontSizeSigma:      3,
		LineSpacingSigma:   8,
		OffsetX:            2,
		OffsetY:            1,
		PageWidth:          w,
		PageHeight:         h,
		DPI:                DefaultDPI,
		Ink:                Black,
		Paper:              White,
		Effect:             effects.PresetLimited,
		Measure:            MeasureEstimate,
		Tokenizer:          TokenizerGSE,
	}
}

var presets = map[string]func() Style{
	"default": Default,
	"compact": func() Style {
		s := Default()
		s.Name = "compact"
		s.FontSize = 36
		s.LineSpacing = 24.0 / 36.0 // 行高 60px
		s.WordSpacing = 5
		s.Margin.Left = 80
		s.Margin.Right = 80
		return s
	},
	"neat": func() Style {
		s := Default()
		s.Name = "neat"
		s.FontSizeSigma = 1
		s.LineSpacingSigma = 3
		s.WordSpacingSigma = 1
		return s
	},
	"casual": func() Style {
		s := Default()
		s.Name = "casual"
		s.FontSizeSigma = 3
		s.LineSpacingSigma = 10
		s.WordSpacingSigma = 3
		s.LetterSpacingSigma = 1
		return s
	},
}

// Preset 返回指定名称的内置预设。每次调用都返回新值。
func Preset(name string) (Style, error) {
	fn, ok := presets[name]
	if !ok {
		return Style{}, errors.New(errors.ErrCodeInvalidStyle, "未知的样式预设 %q", name)
	}
	return fn(), nil
}

// PresetNames 按字母序返回内置预设名称。
func PresetNames() []string {
	out := make([]string, 0, len(presets))
	for name := range presets {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
