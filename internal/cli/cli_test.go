package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/ByLCY/quill/config"
	"github.com/ByLCY/quill/errors"
	"github.com/ByLCY/quill/handwriting"
	"github.com/ByLCY/quill/layout"
	"github.com/ByLCY/quill/style"
)

const scenario = "第一段内容。\n\n第二段内容，稍微长一些，用于测试换行。"

// isolate 让测试使用固定的配置：替身后端、逐字分词、不搜索系统字体。
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, config.FileName)
	content := "[render]\nbackend = \"stub\"\n\n[style]\ntokenizer = \"rune\"\n\n[fonts]\nsystem = false\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(config.EnvPath, path)
	return dir
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	c := New(&out, io.Discard)
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetIn(strings.NewReader(stdin))
	root.SetErr(io.Discard)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRenderWritesPages(t *testing.T) {
	dir := isolate(t)
	input := writeFile(t, dir, "in.txt", scenario)
	outDir := filepath.Join(dir, "out")

	stdout, err := run(t, "", "render", input, "--out", outDir, "--seed", "42", "--effect", "none")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(stdout, "已生成 1 页") {
		t.Fatalf("输出缺少页数: %q", stdout)
	}
	f, err := os.Open(filepath.Join(outDir, "page-001.png"))
	if err != nil {
		t.Fatalf("缺少输出文件: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("输出不是 PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 2480 || b.Dy() != 1748 {
		t.Fatalf("页面尺寸错误: %v", b)
	}
}

func TestRenderJPEGWithDebug(t *testing.T) {
	dir := isolate(t)
	input := writeFile(t, dir, "in.txt", scenario)
	outDir := filepath.Join(dir, "out")
	debugPath := filepath.Join(dir, "debug", "layout.json")

	_, err := run(t, "", "render", input, "-o", outDir, "--format", "jpg", "--quality", "80",
		"--prefix", "note", "--debug", debugPath, "--pressure", "--variation")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	f, err := os.Open(filepath.Join(outDir, "note-001.jpg"))
	if err != nil {
		t.Fatalf("缺少 JPEG 输出: %v", err)
	}
	defer f.Close()
	if _, err := jpeg.Decode(f); err != nil {
		t.Fatalf("输出不是 JPEG: %v", err)
	}

	raw, err := os.ReadFile(debugPath)
	if err != nil {
		t.Fatalf("缺少调试 JSON: %v", err)
	}
	var res layout.DebugReport
	if err := json.Unmarshal(raw, &res); err != nil {
		t.Fatalf("调试 JSON 无法解析: %v", err)
	}
	if len(res.Pages) != 1 || res.Pages[0].Lines[0].Content != "第一段内容。" {
		t.Fatalf("调试 JSON 内容错误: %+v", res)
	}
}

func TestEstimateFromStdinWithData(t *testing.T) {
	dir := isolate(t)
	data := writeFile(t, dir, "data.json", `{"name": "小明"}`)

	stdout, err := run(t, "你好 ${name}\n", "estimate", "--json", "--data", data)
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	var a handwriting.Analysis
	if err := json.Unmarshal([]byte(stdout), &a); err != nil {
		t.Fatalf("输出不是 JSON: %v\n%s", err, stdout)
	}
	if a.PageCount != 1 || len(a.Lines) != 1 || a.Lines[0] != "你好 小明" {
		t.Fatalf("分析结果错误: %+v", a)
	}
}

func TestEstimateHumanOutput(t *testing.T) {
	dir := isolate(t)
	input := writeFile(t, dir, "in.txt", scenario)
	stdout, err := run(t, "", "estimate", input, "--lines")
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	for _, want := range []string{"页数", "第一段内容。", "2480 × 1748 px"} {
		if !strings.Contains(stdout, want) {
			t.Fatalf("输出缺少 %q:\n%s", want, stdout)
		}
	}
}

func TestCountJSON(t *testing.T) {
	isolate(t)
	stdout, err := run(t, "Hi 你好 42！", "count", "--json")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	var counts struct{ Total, CJK, Latin, Digit, Punctuation int }
	if err := json.Unmarshal([]byte(stdout), &counts); err != nil {
		t.Fatalf("输出不是 JSON: %v", err)
	}
	if counts.CJK != 2 || counts.Latin != 2 || counts.Digit != 2 || counts.Punctuation != 1 {
		t.Fatalf("统计结果错误: %+v", counts)
	}
}

func TestPresetsAndFonts(t *testing.T) {
	isolate(t)
	stdout, err := run(t, "", "presets")
	if err != nil {
		t.Fatalf("presets: %v", err)
	}
	for _, want := range []string{"default", "natural", "canvas"} {
		if !strings.Contains(stdout, want) {
			t.Fatalf("presets 输出缺少 %q", want)
		}
	}

	stdout, err = run(t, "", "fonts", "--sample", "abc")
	if err != nil {
		t.Fatalf("fonts: %v", err)
	}
	if !strings.Contains(stdout, "builtin:goregular") || !strings.Contains(stdout, "全部字符") {
		t.Fatalf("fonts 输出错误:\n%s", stdout)
	}
}

func TestCommandErrorsCarryCodes(t *testing.T) {
	dir := isolate(t)
	input := writeFile(t, dir, "in.txt", "abc")
	cases := []struct {
		args []string
		code errors.Code
	}{
		{[]string{"render", input, "--format", "gif", "-o", dir}, errors.ErrCodeInvalidFormat},
		{[]string{"render", input, "--preset", "gothic", "-o", dir}, errors.ErrCodeInvalidStyle},
		{[]string{"render", input, "--backend", "opengl", "-o", dir}, errors.ErrCodeUnsupported},
		{[]string{"render", filepath.Join(dir, "missing.txt")}, errors.ErrCodeInvalidInput},
		{[]string{"estimate", input, "--text-mode", "shout"}, errors.ErrCodeInvalidInput},
		{[]string{"count", input, "--config", filepath.Join(dir, "nope.toml")}, errors.ErrCodeInvalidConfig},
	}
	for _, tc := range cases {
		_, err := run(t, "", tc.args...)
		if !errors.Is(err, tc.code) {
			t.Fatalf("%v: 期望 %s，实际 %v", tc.args, tc.code, err)
		}
	}
	if _, err := run(t, "", "render", "-o", dir); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Fatalf("空输入应返回 INVALID_INPUT，实际 %v", err)
	}
}

func TestStylePicker(t *testing.T) {
	m := newStylePicker(style.NewCatalog())
	if len(m.Items) != len(style.PresetNames()) {
		t.Fatalf("选择列表应包含全部内置样式")
	}
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
	next, cmd := next.Update(tea.KeyMsg{Type: tea.KeyEnter})
	picked := next.(PickerModel)
	if picked.Selected != m.Items[1].Name || cmd == nil {
		t.Fatalf("应选中第二项并退出，实际 %q", picked.Selected)
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	if next.(PickerModel).Cursor != 0 {
		t.Fatalf("光标不应越过第一项")
	}
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if next.(PickerModel).Selected != "" {
		t.Fatalf("退出时不应选中任何样式")
	}
	if !strings.Contains(m.View(), "选择样式") || !strings.Contains(m.View(), m.Items[0].Name) {
		t.Fatalf("视图内容错误:\n%s", m.View())
	}
}

func TestLoggerFromContext(t *testing.T) {
	if loggerFromContext(context.Background()) != log.Default() {
		t.Fatalf("未设置时应返回默认日志器")
	}
	l := log.New(io.Discard)
	if loggerFromContext(withLogger(context.Background(), l)) != l {
		t.Fatalf("应返回上下文中的日志器")
	}
}
