package fonts

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/ByLCY/quill/errors"
)

func isolatedResolver(opts ...ResolverOption) *Resolver {
	base := []ResolverOption{WithSystemFonts(false), WithLogger(log.New(io.Discard))}
	return NewResolver(append(base, opts...)...)
}

func writeFont(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("写入字体文件失败: %v", err)
	}
	return path
}

func TestResolveAlwaysEndsWithBuiltin(t *testing.T) {
	chain := isolatedResolver().Resolve([]string{"No Such Font", "/nonexistent/x.ttf"})
	if len(chain.Fonts) != 1 {
		t.Fatalf("找不到任何字体时链中只应有内置字体，实际 %v", chain.Paths())
	}
	if got := chain.Primary().Path; got != "builtin:goregular" {
		t.Fatalf("最后一环应为 builtin:goregular，实际 %s", got)
	}
	if f, ok := chain.Pick('A'); !ok || f.Path != "builtin:goregular" {
		t.Fatalf("Go Regular 应覆盖拉丁字母")
	}
	if _, ok := chain.Pick('中'); ok {
		t.Fatalf("Go Regular 不应覆盖汉字")
	}
}

func TestResolveFilePathFirstAndDeduplicated(t *testing.T) {
	dir := t.TempDir()
	path := writeFont(t, dir, "hand.ttf", goregular.TTF)
	chain := isolatedResolver().Resolve([]string{path, path, "builtin:goregular"})
	if len(chain.Fonts) != 2 {
		t.Fatalf("重复的字体应只出现一次: %v", chain.Paths())
	}
	if chain.Primary().Path != path {
		t.Fatalf("配置的字体应排在链首，实际 %s", chain.Primary().Path)
	}
}

func TestLookupFamilyInConfiguredDir(t *testing.T) {
	dir := t.TempDir()
	writeFont(t, dir, "MaShanZheng-Regular.ttf", goregular.TTF)
	writeFont(t, dir, "Custom-Regular.otf", goregular.TTF)
	r := isolatedResolver(WithDirs(dir))

	f, err := r.Lookup("Ma Shan Zheng")
	if err != nil {
		t.Fatalf("应通过字体族名在配置目录中找到字体: %v", err)
	}
	if filepath.Base(f.Path) != "MaShanZheng-Regular.ttf" {
		t.Fatalf("字体路径错误: %s", f.Path)
	}
	if _, err := r.Lookup("Custom"); err != nil {
		t.Fatalf("未知族名应按文件名候选查找: %v", err)
	}
	again, _ := r.Lookup("Ma Shan Zheng")
	if again != f {
		t.Fatalf("同一字体应复用缓存实例")
	}
}

func TestResolveSkipsUnparsableFont(t *testing.T) {
	dir := t.TempDir()
	bad := writeFont(t, dir, "broken.ttf", []byte("not a font"))
	r := isolatedResolver()
	if _, err := r.Lookup(bad); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Fatalf("无法解析的字体应返回 NOT_FOUND，实际 %v", err)
	}
	chain := r.Resolve([]string{bad})
	if len(chain.Fonts) != 1 || chain.Primary().Path != "builtin:goregular" {
		t.Fatalf("无法解析的字体应被跳过: %v", chain.Paths())
	}
}

func TestBuiltinFonts(t *testing.T) {
	r := isolatedResolver()
	for _, id := range []string{"builtin:gomono", "embed:goregular", "builtin:GoRegular"} {
		f, err := r.Lookup(id)
		if err != nil {
			t.Fatalf("%s: %v", id, err)
		}
		if !f.Has('x') {
			t.Fatalf("%s 应包含拉丁字母", id)
		}
	}
	if _, err := r.Lookup("builtin:comic"); err == nil {
		t.Fatalf("未知的内置字体应返回错误")
	}
	if got := BuiltinNames(); len(got) != 2 || got[0] != "gomono" {
		t.Fatalf("内置字体列表错误: %v", got)
	}
}

func TestFamilyName(t *testing.T) {
	f, err := Parse("regular", "builtin:goregular", goregular.TTF)
	if err != nil {
		t.Fatalf("解析 Go Regular 失败: %v", err)
	}
	if f.Family() != "Go" {
		t.Fatalf("族名应为 Go，实际 %q", f.Family())
	}
}

func TestForgetReloads(t *testing.T) {
	dir := t.TempDir()
	r := isolatedResolver(WithDirs(dir))
	if _, err := r.Lookup("Long Cang"); err == nil {
		t.Fatalf("目录为空时不应找到字体")
	}
	writeFont(t, dir, "LongCang-Regular.ttf", goregular.TTF)
	r.Forget()
	if _, err := r.Lookup("Long Cang"); err != nil {
		t.Fatalf("Forget 后应重新扫描目录: %v", err)
	}
}
