package config

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ByLCY/quill/errors"
	"github.com/ByLCY/quill/renderer/stub"
	"github.com/ByLCY/quill/style"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("写入配置失败: %v", err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("默认配置应合法: %v", err)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[render]
backend = "freetype"
workers = 2
format = "jpg"
quality = 80

[style]
preset = "compact"
effect = "strong"

[fonts]
dirs = ["/opt/fonts"]
system = false

[server]
addr = "127.0.0.1:9000"
cache_ttl = "90m"

[cache]
backend = "file"
dir = "/tmp/quill-cache"
retry_delay = "250ms"

[log]
level = "debug"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Render.Backend != "freetype" || cfg.Render.Workers != 2 || cfg.Render.Quality != 80 {
		t.Fatalf("render 节解析错误: %+v", cfg.Render)
	}
	if cfg.Render.MaxTextLength != Default().Render.MaxTextLength {
		t.Fatalf("未出现的键应保留默认值: %d", cfg.Render.MaxTextLength)
	}
	if cfg.Server.CacheTTL.Duration != 90*time.Minute || cfg.Server.ReadTimeout.Duration != 30*time.Second {
		t.Fatalf("时长解析错误: %+v", cfg.Server)
	}
	if cfg.Fonts.System || len(cfg.Fonts.Dirs) != 1 {
		t.Fatalf("fonts 节解析错误: %+v", cfg.Fonts)
	}
	if p := cfg.RetryPolicy(); p.Delay != 250*time.Millisecond || p.Attempts != 3 {
		t.Fatalf("重试策略错误: %+v", p)
	}
	if o := cfg.CacheOptions(); o.Backend != "file" || o.Dir != "/tmp/quill-cache" {
		t.Fatalf("缓存参数错误: %+v", o)
	}
	if level, _ := cfg.LogLevel(); level != log.DebugLevel {
		t.Fatalf("日志级别错误: %v", level)
	}
}

func TestLoadRejectsBadConfig(t *testing.T) {
	cases := map[string]string{
		"unknown key":    "[render]\nbackand = \"canvas\"\n",
		"bad backend":    "[render]\nbackend = \"opengl\"\n",
		"bad format":     "[render]\nformat = \"gif\"\n",
		"bad duration":   "[server]\nread_timeout = \"soon\"\n",
		"file w/o dir":   "[cache]\nbackend = \"file\"\n",
		"bad level":      "[log]\nlevel = \"loud\"\n",
		"syntax":         "[render\n",
		"negative quota": "[render]\nmax_text_length = -1\n",
	}
	for name, content := range cases {
		_, err := Load(writeConfig(t, content))
		if !errors.Is(err, errors.ErrCodeInvalidConfig) {
			t.Fatalf("%s: 期望 INVALID_CONFIG，实际 %v", name, err)
		}
	}
}

func TestFind(t *testing.T) {
	t.Setenv(EnvPath, "/etc/quill/from-env.toml")
	if got := Find("explicit.toml"); got != "explicit.toml" {
		t.Fatalf("显式路径优先: %s", got)
	}
	if got := Find(""); got != "/etc/quill/from-env.toml" {
		t.Fatalf("其次使用环境变量: %s", got)
	}
}

func TestResolveStyleOverrides(t *testing.T) {
	cfg := Default()
	cfg.Style.Effect = "none"
	cfg.Style.Tokenizer = style.TokenizerRune
	st, err := cfg.ResolveStyle(style.NewCatalog(), "")
	if err != nil {
		t.Fatalf("ResolveStyle: %v", err)
	}
	if st.Name != "default" || st.Effect != "none" || st.Tokenizer != style.TokenizerRune {
		t.Fatalf("覆盖未生效: %+v", st)
	}
	if _, err := cfg.ResolveStyle(style.NewCatalog(), "missing"); !errors.Is(err, errors.ErrCodeInvalidStyle) {
		t.Fatalf("未知样式应返回 INVALID_STYLE，实际 %v", err)
	}
}

func TestNewServiceUsesConfiguredBackend(t *testing.T) {
	cfg := Default()
	cfg.Render.Backend = "stub"
	cfg.Fonts.System = false
	svc, err := cfg.NewService(style.NewCatalog(), log.New(io.Discard))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	if _, ok := svc.Renderer().(*stub.Renderer); !ok {
		t.Fatalf("应使用替身渲染器，实际 %T", svc.Renderer())
	}
}
