// Package style 定义手写渲染的样式参数（字号、边距、间距、随机扰动与效果预设名），
// 以及内置预设、纸张尺寸与 .quill 样式表的解析。
package style

import (
	"slices"

	"github.com/ByLCY/quill/errors"
	"github.com/ByLCY/quill/layout"
)

// 宽度估算方式。
const (
	MeasureEstimate = "estimate" // font_size × 0.5 × 字符数
	MeasureCell     = "cell"     // 按东亚宽度区分全角/半角
)

// 分词后端。
const (
	TokenizerGSE      = "gse"
	TokenizerUAX14    = "uax14"
	TokenizerGrapheme = "grapheme"
	TokenizerRune     = "rune"
)

// Style 是一次渲染使用的全部样式参数，所有长度单位为像素。
// 值语义：渲染过程中不会被修改，需要修改时先 Clone。
type Style struct {
	Name     string   `json:"name"`
	Fonts    []string `json:"fonts"`
	FontSize float64  `json:"fontSize"`

	// LineSpacing 是行距倍数：行间额外间距 = FontSize × LineSpacing。
	LineSpacing float64       `json:"lineSpacing"`
	Margin      layout.Margin `json:"margin"`

	WordSpacing   float64 `json:"wordSpacing"`
	LetterSpacing float64 `json:"letterSpacing"`

	WordSpacingSigma   float64 `json:"wordSpacingSigma"`
	LetterSpacingSigma float64 `json:"letterSpacingSigma"`
	FontSizeSigma      float64 `json:"fontSizeSigma"`
	LineSpacingSigma   float64 `json:"lineSpacingSigma"`

	OffsetX float64 `json:"offsetX"`
	OffsetY float64 `json:"offsetY"`

	PageWidth  float64 `json:"pageWidth"`
	PageHeight float64 `json:"pageHeight"`
	DPI        float64 `json:"dpi"`

	Ink   Color `json:"ink"`
	Paper Color `json:"paper"`

	Effect    string `json:"effect"`
	Measure   string `json:"measure"`
	Tokenizer string `json:"tokenizer"`
}

// Clone 返回深拷贝。
func (s Style) Clone() Style {
	s.Fonts = slices.Clone(s.Fonts)
	return s
}

// LineSpacingPx 返回行间额外间距（像素）。
func (s Style) LineSpacingPx() float64 {
	return s.FontSize * s.LineSpacing
}

// LineHeight = 字号 + 行间距。
func (s Style) LineHeight() float64 {
	return s.FontSize + s.LineSpacingPx()
}

// UsableWidth 返回去掉左右边距后的可用宽度。
func (s Style) UsableWidth() float64 {
	return s.PageWidth - s.Margin.Left - s.Margin.Right
}

// Geometry 转换为分段与分页使用的页面几何参数。
func (s Style) Geometry() layout.Geometry {
	return layout.Geometry{
		PageWidth:   s.PageWidth,
		PageHeight:  s.PageHeight,
		Margin:      s.Margin,
		FontSize:    s.FontSize,
		LineSpacing: s.LineSpacingPx(),
	}
}

// Validate 在渲染开始前校验样式，任何错误都会使渲染整体被拒绝。
func (s Style) Validate() error {
	if s.FontSize <= 0 {
		return errors.New(errors.ErrCodeInvalidStyle, "字号必须大于 0，当前为 %g", s.FontSize)
	}
	nonNegative := []struct {
		name  string
		value float64
	}{
		{"line-spacing", s.LineSpacing},
		{"margin-top", s.Margin.Top},
		{"margin-right", s.Margin.Right},
		{"margin-bottom", s.Margin.Bottom},
		{"margin-left", s.Margin.Left},
		{"word-spacing", s.WordSpacing},
		{"letter-spacing", s.LetterSpacing},
		{"word-spacing-sigma", s.WordSpacingSigma},
		{"letter-spacing-sigma", s.LetterSpacingSigma},
		{"font-size-sigma", s.FontSizeSigma},
		{"line-spacing-sigma", s.LineSpacingSigma},
		{"offset-x", s.OffsetX},
		{"offset-y", s.OffsetY},
	}
	for _, f := range nonNegative {
		if f.value < 0 {
			return errors.New(errors.ErrCodeInvalidStyle, "%s 不能为负数，当前为 %g", f.name, f.value)
		}
	}
	if s.PageWidth <= s.Margin.Left+s.Margin.Right {
		return errors.New(errors.ErrCodeInvalidStyle, "页面宽度 %g 不足以容纳左右边距 %g+%g", s.PageWidth, s.Margin.Left, s.Margin.Right)
	}
	if s.PageHeight <= s.Margin.Top+s.Margin.Bottom {
		return errors.New(errors.ErrCodeInvalidStyle, "页面高度 %g 不足以容纳上下边距 %g+%g", s.PageHeight, s.Margin.Top, s.Margin.Bottom)
	}
	if s.DPI <= 0 {
		return errors.New(errors.ErrCodeInvalidStyle, "DPI 必须大于 0，当前为 %g", s.DPI)
	}
	if s.Effect == "" {
		return errors.New(errors.ErrCodeInvalidStyle, "未指定效果预设")
	}
	switch s.Measure {
	case MeasureEstimate, MeasureCell:
	default:
		return errors.New(errors.ErrCodeInvalidStyle, "未知的宽度估算方式 %q", s.Measure)
	}
	switch s.Tokenizer {
	case TokenizerGSE, TokenizerUAX14, TokenizerGrapheme, TokenizerRune:
	default:
		return errors.New(errors.ErrCodeInvalidStyle, "未知的分词后端 %q", s.Tokenizer)
	}
	return nil
}
