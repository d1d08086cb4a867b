package layout

import (
	"strings"
	"testing"
)

// stubTypesetter 是一个最小实现，仅用于测试，避免引入 segment 造成循环依赖。
// 每个源文本行成为一个段落，空行成为空白标记，内容按固定字数切成行。
type stubTypesetter struct {
	perLine int
}

func (s *stubTypesetter) Segment(text string, g Geometry) []Paragraph {
	if text == "" {
		return nil
	}
	var out []Paragraph
	for _, raw := range strings.Split(text, "\n") {
		if strings.TrimSpace(raw) == "" {
			out = append(out, Paragraph{Blank: true})
			continue
		}
		runes := []rune(raw)
		var p Paragraph
		for len(runes) > 0 {
			n := s.perLine
			if n <= 0 || n > len(runes) {
				n = len(runes)
			}
			p.Lines = append(p.Lines, TextLine{Content: string(runes[:n])})
			runes = runes[n:]
		}
		out = append(out, p)
	}
	return out
}

func testGeometry() Geometry {
	// 可用高度 1000 / 行高 100 = 每页 10 行
	return Geometry{
		PageWidth:   800,
		PageHeight:  1200,
		Margin:      Margin{Top: 100, Right: 50, Bottom: 100, Left: 50},
		FontSize:    80,
		LineSpacing: 20,
	}
}

func buildWithStub(t *testing.T, text string, perLine int) *Result {
	t.Helper()
	res, err := Build(text, testGeometry(), BuildOptions{Typesetter: &stubTypesetter{perLine: perLine}, Align: AlignCenter})
	if err != nil {
		t.Fatalf("分页失败: %v", err)
	}
	return res
}

func contents(lines []TextLine) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		if l.Blank {
			out[i] = "<blank>"
			continue
		}
		out[i] = l.Content
	}
	return out
}

func TestBuildRequiresTypesetter(t *testing.T) {
	if _, err := Build("x", testGeometry(), BuildOptions{}); err == nil {
		t.Fatalf("缺少 Typesetter 时应返回错误")
	}
}

// TestSingleSeparatorBetweenParagraphs 断言："A\n\nB" 与 "A\n\n\nB" 都只产生一个空白分隔行。
func TestSingleSeparatorBetweenParagraphs(t *testing.T) {
	for _, text := range []string{"A\n\nB", "A\n\n\nB", "A\nB"} {
		res := buildWithStub(t, text, 0)
		got := strings.Join(contents(res.Pages[0].Lines), "|")
		if got != "A|<blank>|B" {
			t.Fatalf("%q 分页结果错误: %s", text, got)
		}
	}
}

// TestNoLeadingOrTrailingBlank 断言首尾空行不会保留，也不会出现连续两个空行。
func TestNoLeadingOrTrailingBlank(t *testing.T) {
	res := buildWithStub(t, "\n\nA\n\n\n\nB\n\n", 0)
	lines := res.Pages[0].Lines
	if len(lines) != 3 {
		t.Fatalf("期望 3 行，实际 %v", contents(lines))
	}
	if lines[0].Blank || lines[len(lines)-1].Blank {
		t.Fatalf("首尾不应为空行: %v", contents(lines))
	}
	for i := 1; i < len(lines); i++ {
		if lines[i].Blank && lines[i-1].Blank {
			t.Fatalf("出现连续空行: %v", contents(lines))
		}
	}
}

func TestMaxLinesPerPage(t *testing.T) {
	g := testGeometry()
	if got := g.MaxLinesPerPage(); got != 10 {
		t.Fatalf("期望每页 10 行，实际 %d", got)
	}

	// 行高大于可用高度时至少为 1
	g.FontSize = 5000
	if got := g.MaxLinesPerPage(); got != 1 {
		t.Fatalf("期望至少 1 行，实际 %d", got)
	}
}

// TestGreedyFillAndEstimateAgree 验证贪心填充的页数与估算一致。
func TestGreedyFillAndEstimateAgree(t *testing.T) {
	ts := &stubTypesetter{perLine: 1}
	g := testGeometry()
	for _, n := range []int{1, 9, 10, 11, 25, 30} {
		text := strings.Repeat("字", n)
		paragraphs := ts.Segment(text, g)
		res := Paginate(paragraphs, g, AlignCenter)
		est := EstimatePageCount(paragraphs, g)
		if len(res.Pages) != est {
			t.Fatalf("n=%d: 分页 %d 页，估算 %d 页", n, len(res.Pages), est)
		}
		want := (n + 9) / 10
		if est != want {
			t.Fatalf("n=%d: 期望 %d 页，实际 %d", n, want, est)
		}
		for i, p := range res.Pages[:len(res.Pages)-1] {
			if len(p.Lines) != 10 {
				t.Fatalf("n=%d: 第 %d 页未填满: %d 行", n, i, len(p.Lines))
			}
		}
	}
}

func TestEstimateFloorIsOne(t *testing.T) {
	g := testGeometry()
	if got := EstimatePageCount(nil, g); got != 1 {
		t.Fatalf("空输入期望 1 页，实际 %d", got)
	}
	res := Paginate(nil, g, AlignCenter)
	if len(res.Pages) != 1 || len(res.Pages[0].Lines) != 0 {
		t.Fatalf("空输入应得到一个空白页")
	}
}

// TestVerticalCentering 验证行数不足一页时整体居中，满页时贴顶。
func TestVerticalCentering(t *testing.T) {
	g := testGeometry()
	res := buildWithStub(t, "A\nB", 0) // 3 行
	p := res.Pages[0]
	// 可用高度 1000，块高 300，空余 700，顶部 100 + 350
	if !eq(p.Top, 450) {
		t.Fatalf("居中顶部位置错误: %g", p.Top)
	}
	if !eq(p.SlotTop(2), 650) {
		t.Fatalf("第 3 行位置错误: %g", p.SlotTop(2))
	}

	full := Paginate((&stubTypesetter{perLine: 1}).Segment(strings.Repeat("x", 10), g), g, AlignCenter)
	if !eq(full.Pages[0].Top, g.Margin.Top) {
		t.Fatalf("满页应从上边距开始: %g", full.Pages[0].Top)
	}

	top := Paginate((&stubTypesetter{}).Segment("A", g), g, AlignTop)
	if !eq(top.Pages[0].Top, g.Margin.Top) {
		t.Fatalf("AlignTop 应贴顶: %g", top.Pages[0].Top)
	}
}

// TestOverflowLineTakesOneSlot 验证溢出行只占一个行位，不会被拆分。
func TestOverflowLineTakesOneSlot(t *testing.T) {
	g := testGeometry()
	paragraphs := []Paragraph{{Lines: []TextLine{{Content: strings.Repeat("W", 500), Width: 5000, Overflow: true}}}}
	res := Paginate(paragraphs, g, AlignCenter)
	if len(res.Pages) != 1 || len(res.Pages[0].Lines) != 1 {
		t.Fatalf("溢出行应只占一个行位: %+v", res.Pages)
	}
	if !res.Pages[0].Lines[0].Overflow {
		t.Fatalf("溢出标记丢失")
	}
}

func TestParagraphIsBlank(t *testing.T) {
	if !(Paragraph{}).IsBlank() {
		t.Fatalf("无行的段落应视为空白")
	}
	if (Paragraph{Lines: []TextLine{{Content: "x"}}}).IsBlank() {
		t.Fatalf("有内容的段落不应视为空白")
	}
}

func eq(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < 1e-6
}
