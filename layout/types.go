package layout

// 该文件定义分段与分页结果，供字形排布、渲染与调试 JSON 共用。所有长度单位均为像素。

// Result 保存分页后的页面以及分页时使用的几何参数。
type Result struct {
	Pages           []Page  `json:"pages"`
	TotalLines      int     `json:"totalLines"`
	MaxLinesPerPage int     `json:"maxLinesPerPage"`
	LineHeight      float64 `json:"lineHeight"`
}

// Margin 以像素为单位。
type Margin struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// Paragraph 是分段结果。Blank 为 true 时表示源文本中的空行，只作为段落分隔标记。
type Paragraph struct {
	Lines []TextLine `json:"lines"`
	Blank bool       `json:"blank,omitempty"`
}

// IsBlank 报告段落是否不含任何可绘制内容。
func (p Paragraph) IsBlank() bool {
	if p.Blank {
		return true
	}
	for _, l := range p.Lines {
		if l.Content != "" {
			return false
		}
	}
	return true
}

// TextLine 表示一行文本及其估算宽度。
// Overflow 标记单个不可拆分的词元宽于可用宽度，被单独放在一行并允许横向溢出。
type TextLine struct {
	Content  string  `json:"content"`
	Width    float64 `json:"width"`
	Blank    bool    `json:"blank,omitempty"`
	Overflow bool    `json:"overflow,omitempty"`
}

// Page 记录页面尺寸、边距与分配到该页的行。
// Top 是第一行行框的顶部 y 坐标，已经包含垂直居中的偏移。
type Page struct {
	Index      int        `json:"index"`
	Width      float64    `json:"width"`
	Height     float64    `json:"height"`
	Margin     Margin     `json:"margin"`
	LineHeight float64    `json:"lineHeight"`
	Top        float64    `json:"top"`
	Lines      []TextLine `json:"lines"`
}

// SlotTop 返回第 i 行行框的顶部 y 坐标。
func (p Page) SlotTop(i int) float64 {
	return p.Top + float64(i)*p.LineHeight
}

// ContentLines 返回非空白行的数量。
func (p Page) ContentLines() int {
	n := 0
	for _, l := range p.Lines {
		if !l.Blank {
			n++
		}
	}
	return n
}
