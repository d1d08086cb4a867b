package layout

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteDebugJSON(t *testing.T) {
	g := testGeometry()
	paragraphs := []Paragraph{
		{Lines: []TextLine{{Content: "a", Width: 350}}},
		{Lines: []TextLine{{Content: "b", Width: 1400, Overflow: true}}},
	}
	res := Paginate(paragraphs, g, AlignCenter)
	path := filepath.Join(t.TempDir(), "nested", "layout.json")
	if err := WriteDebugJSON(res, path); err != nil {
		t.Fatalf("WriteDebugJSON: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("读取调试文件失败: %v", err)
	}
	var rep DebugReport
	if err := json.Unmarshal(raw, &rep); err != nil {
		t.Fatalf("调试 JSON 无法解析: %v", err)
	}
	if rep.TotalLines != 3 || len(rep.Pages) != 1 {
		t.Fatalf("行数或页数错误: %+v", rep)
	}
	p := rep.Pages[0]
	if !eq(p.UsableWidth, 700) || len(p.Lines) != 3 {
		t.Fatalf("页面信息错误: %+v", p)
	}
	if !eq(p.Lines[0].Fill, 0.5) || !eq(p.Lines[0].Top, 450) {
		t.Fatalf("第一行错误: %+v", p.Lines[0])
	}
	if !p.Lines[1].Blank || !eq(p.Lines[1].Top, 550) {
		t.Fatalf("分隔行错误: %+v", p.Lines[1])
	}
	if !p.Lines[2].Overflow || !eq(p.Lines[2].Fill, 2) {
		t.Fatalf("溢出行错误: %+v", p.Lines[2])
	}
}

func TestWriteDebugJSONNilResult(t *testing.T) {
	path := filepath.Join(t.TempDir(), "none.json")
	if err := WriteDebugJSON(nil, path); err != nil {
		t.Fatalf("nil 结果不应报错: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("nil 结果不应写文件")
	}
}
