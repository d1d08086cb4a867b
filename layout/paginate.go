package layout

import (
	"fmt"
	"math"
)

// Build 串联分段与分页：先交给 Typesetter 拆成段落，再按页面几何贪心填充。
func Build(text string, g Geometry, opts BuildOptions) (*Result, error) {
	if opts.Typesetter == nil {
		return nil, fmt.Errorf("layout: 缺少分段后端 Typesetter")
	}
	if g.UsableWidth() <= 0 || g.UsableHeight() <= 0 {
		return nil, fmt.Errorf("layout: 页面可用区域为空（%gx%g）", g.UsableWidth(), g.UsableHeight())
	}
	paragraphs := opts.Typesetter.Segment(text, g)
	return Paginate(paragraphs, g, opts.Align), nil
}

// Flatten 把段落展开为单一行序列。
// 相邻的两个内容段落之间恰好插入一个空白分隔行；空白段落标记只会折叠成这一个分隔，
// 因此既不会出现连续两个空行，也不会出现首尾空行。
func Flatten(paragraphs []Paragraph) []TextLine {
	var out []TextLine
	for _, p := range paragraphs {
		if p.IsBlank() {
			continue
		}
		if len(out) > 0 {
			out = append(out, TextLine{Blank: true})
		}
		out = append(out, p.Lines...)
	}
	return out
}

// EstimatePageCount 与 Paginate 使用相同的展开与除法，但不分配页面。
// page_count = ceil(总行数 / 每页最大行数)，至少为 1。
func EstimatePageCount(paragraphs []Paragraph, g Geometry) int {
	total := len(Flatten(paragraphs))
	return pageCount(total, g.MaxLinesPerPage())
}

func pageCount(total, perPage int) int {
	if total <= 0 || perPage <= 0 {
		return 1
	}
	n := int(math.Ceil(float64(total) / float64(perPage)))
	if n < 1 {
		return 1
	}
	return n
}

// Paginate 按贪心策略将行分配到页面：每页最多 MaxLinesPerPage 行。
// 单个溢出行同样只占一个行位，不会被再次拆分。
func Paginate(paragraphs []Paragraph, g Geometry, align VerticalAlign) *Result {
	lines := Flatten(paragraphs)
	collector := newPageCollector(g, align)
	for _, line := range lines {
		collector.ensureSpace()
		collector.curr().appendLine(line)
	}
	return &Result{
		Pages:           collector.pages(),
		TotalLines:      len(lines),
		MaxLinesPerPage: collector.maxLines,
		LineHeight:      g.LineHeight(),
	}
}

type pageAccumulator struct {
	lines []TextLine
}

func (p *pageAccumulator) appendLine(l TextLine) {
	p.lines = append(p.lines, l)
}

type pageCollector struct {
	geom     Geometry
	align    VerticalAlign
	maxLines int
	accs     []*pageAccumulator
	current  int
}

func newPageCollector(g Geometry, align VerticalAlign) *pageCollector {
	pc := &pageCollector{
		geom:     g,
		align:    align,
		maxLines: g.MaxLinesPerPage(),
	}
	pc.newPage()
	return pc
}

func (pc *pageCollector) newPage() *pageAccumulator {
	acc := &pageAccumulator{}
	pc.accs = append(pc.accs, acc)
	pc.current = len(pc.accs) - 1
	return acc
}

func (pc *pageCollector) curr() *pageAccumulator {
	if len(pc.accs) == 0 {
		return pc.newPage()
	}
	return pc.accs[pc.current]
}

// ensureSpace 在当前页已满时换页。
func (pc *pageCollector) ensureSpace() {
	if len(pc.curr().lines) < pc.maxLines {
		return
	}
	pc.newPage()
}

// contentTop 计算某页第一行的顶部位置：行数不足一整页时整体垂直居中。
func (pc *pageCollector) contentTop(lines int) float64 {
	top := pc.geom.Margin.Top
	if pc.align == AlignTop || lines >= pc.maxLines {
		return top
	}
	block := float64(lines) * pc.geom.LineHeight()
	free := pc.geom.UsableHeight() - block
	if free <= 0 {
		return top
	}
	return top + free/2
}

func (pc *pageCollector) pages() []Page {
	out := make([]Page, len(pc.accs))
	for i, acc := range pc.accs {
		out[i] = Page{
			Index:      i,
			Width:      pc.geom.PageWidth,
			Height:     pc.geom.PageHeight,
			Margin:     pc.geom.Margin,
			LineHeight: pc.geom.LineHeight(),
			Top:        pc.contentTop(len(acc.lines)),
			Lines:      acc.lines,
		}
	}
	return out
}
