package segment

import (
	"unicode/utf8"

	"github.com/mattn/go-runewidth"

	"github.com/ByLCY/quill/errors"
	"github.com/ByLCY/quill/style"
)

// Measurer 估算文本在给定字号下的像素宽度。分段阶段只使用估算值，精确字形度量只在绘制时使用。
type Measurer interface {
	Width(text string, fontSize float64) float64
}

// EstimateMeasurer 按 font_size × 0.5 × 字符数估算。
type EstimateMeasurer struct{}

func (EstimateMeasurer) Width(text string, fontSize float64) float64 {
	return fontSize * 0.5 * float64(utf8.RuneCountInString(text))
}

// CellMeasurer 按终端单元格宽度估算：全角字符计 2 格，半角计 1 格，每格 0.5 × 字号。
type CellMeasurer struct {
	cond *runewidth.Condition
}

// NewCellMeasurer 返回不受运行环境 locale 影响的 CellMeasurer（歧义宽度按半角处理）。
func NewCellMeasurer() *CellMeasurer {
	cond := runewidth.NewCondition()
	cond.EastAsianWidth = false
	return &CellMeasurer{cond: cond}
}

func (m *CellMeasurer) Width(text string, fontSize float64) float64 {
	return fontSize * 0.5 * float64(m.cond.StringWidth(text))
}

// MeasurerFor 根据样式中的名称返回 Measurer。
func MeasurerFor(name string) (Measurer, error) {
	switch name {
	case style.MeasureEstimate, "":
		return EstimateMeasurer{}, nil
	case style.MeasureCell:
		return NewCellMeasurer(), nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidStyle, "未知的宽度估算方式 %q", name)
	}
}
