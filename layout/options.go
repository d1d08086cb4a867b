package layout

import "math"

// BuildOptions 配置分段与分页阶段所需的依赖。
type BuildOptions struct {
	Typesetter Typesetter
	Align      VerticalAlign
}

// VerticalAlign 控制行块在页面内的纵向位置。
type VerticalAlign string

const (
	AlignCenter VerticalAlign = "center" // 默认：短文本居中而不是贴顶
	AlignTop    VerticalAlign = "top"
)

// Typesetter 负责根据宽度约束将原始文本拆成段落与行。
type Typesetter interface {
	Segment(text string, g Geometry) []Paragraph
}

// Geometry 是分段与分页所需的页面几何参数，单位均为像素。
type Geometry struct {
	PageWidth   float64 `json:"pageWidth"`
	PageHeight  float64 `json:"pageHeight"`
	Margin      Margin  `json:"margin"`
	FontSize    float64 `json:"fontSize"`
	LineSpacing float64 `json:"lineSpacing"` // 行间额外间距（px），行高 = 字号 + LineSpacing
}

// UsableWidth = 页宽 - 左边距 - 右边距。
func (g Geometry) UsableWidth() float64 {
	return g.PageWidth - g.Margin.Left - g.Margin.Right
}

// UsableHeight = 页高 - 上边距 - 下边距。
func (g Geometry) UsableHeight() float64 {
	return g.PageHeight - g.Margin.Top - g.Margin.Bottom
}

func (g Geometry) LineHeight() float64 {
	return g.FontSize + g.LineSpacing
}

// MaxLinesPerPage = floor(可用高度 / 行高)，至少为 1。
func (g Geometry) MaxLinesPerPage() int {
	lh := g.LineHeight()
	if lh <= 0 {
		return 1
	}
	n := int(math.Floor(g.UsableHeight() / lh))
	if n < 1 {
		return 1
	}
	return n
}
