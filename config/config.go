// Package config 读取 quill.toml。
//
// 文件按用途分为 render、style、fonts、server、cache、log 六节，未出现的键保留 Default 中的值。
// 未识别的键视为配置错误，避免拼写错误被静默忽略。
package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/ByLCY/quill/cache"
	"github.com/ByLCY/quill/errors"
	"github.com/ByLCY/quill/fonts"
	"github.com/ByLCY/quill/handwriting"
)

// FileName 是默认的配置文件名。
const FileName = "quill.toml"

// EnvPath 指定配置文件路径的环境变量。
const EnvPath = "QUILL_CONFIG"

// Config 对应整个 quill.toml。
type Config struct {
	Render RenderConfig `toml:"render"`
	Style  StyleConfig  `toml:"style"`
	Fonts  FontsConfig  `toml:"fonts"`
	Server ServerConfig `toml:"server"`
	Cache  CacheConfig  `toml:"cache"`
	Log    LogConfig    `toml:"log"`
}

// RenderConfig 控制渲染后端、并行度与输出。
type RenderConfig struct {
	Backend       string `toml:"backend"`
	Workers       int    `toml:"workers"`
	MaxTextLength int    `toml:"max_text_length"`
	Format        string `toml:"format"`
	Quality       int    `toml:"quality"`
	OutputDir     string `toml:"output_dir"`
	Pressure      bool   `toml:"pressure"`
	Variation     bool   `toml:"variation"`
}

// StyleConfig 选择样式预设或样式表。
type StyleConfig struct {
	Preset string `toml:"preset"`
	Sheet  string `toml:"sheet"`
	// Name 是样式表中的样式名，仅在 Sheet 非空时生效。
	Name      string `toml:"name"`
	Effect    string `toml:"effect"`
	Tokenizer string `toml:"tokenizer"`
	Measure   string `toml:"measure"`
}

// FontsConfig 控制字体查找。
type FontsConfig struct {
	Dirs      []string `toml:"dirs"`
	Fallbacks []string `toml:"fallbacks"`
	System    bool     `toml:"system"`
}

// ServerConfig 是 HTTP 服务的参数。
type ServerConfig struct {
	Addr         string   `toml:"addr"`
	ReadTimeout  Duration `toml:"read_timeout"`
	WriteTimeout Duration `toml:"write_timeout"`
	MaxBodyBytes int64    `toml:"max_body_bytes"`
	CacheTTL     Duration `toml:"cache_ttl"`
}

// CacheConfig 选择缓存后端及重试策略。
type CacheConfig struct {
	Backend     string   `toml:"backend"`
	Dir         string   `toml:"dir"`
	Addr        string   `toml:"addr"`
	Password    string   `toml:"password"`
	DB          int      `toml:"db"`
	Prefix      string   `toml:"prefix"`
	Retries     int      `toml:"retries"`
	RetryDelay  Duration `toml:"retry_delay"`
	RetryJitter float64  `toml:"retry_jitter"`
}

// LogConfig 设置日志级别：debug、info、warn、error。
type LogConfig struct {
	Level string `toml:"level"`
}

// Duration 让 TOML 中可以写 "30s"、"5m" 这样的时长。
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default 返回未加载任何文件时的配置。
func Default() Config {
	return Config{
		Render: RenderConfig{
			Backend:       handwriting.BackendCanvas,
			MaxTextLength: handwriting.DefaultMaxTextLength,
			Format:        handwriting.FormatPNG,
			Quality:       handwriting.DefaultJPEGQuality,
			OutputDir:     "output",
		},
		Style: StyleConfig{Preset: "default"},
		Fonts: FontsConfig{System: true},
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  Duration{30 * time.Second},
			WriteTimeout: Duration{2 * time.Minute},
			MaxBodyBytes: 1 << 20,
			CacheTTL:     Duration{24 * time.Hour},
		},
		Cache: CacheConfig{
			Backend:     cache.BackendNone,
			Prefix:      "quill:",
			Retries:     cache.DefaultRetryPolicy.Attempts,
			RetryDelay:  Duration{cache.DefaultRetryPolicy.Delay},
			RetryJitter: cache.DefaultRetryPolicy.Jitter,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load 在 Default 之上解码 path 并校验。
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "解析配置文件 %s 失败", path)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, errors.New(errors.ErrCodeInvalidConfig, "配置文件 %s 含有未知的键: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Find 返回应当加载的配置文件路径：显式指定 > 环境变量 > 当前目录 > 用户配置目录。
// 都不存在时返回空字符串，表示使用 Default。
func Find(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if p := os.Getenv(EnvPath); p != "" {
		return p
	}
	if _, err := os.Stat(FileName); err == nil {
		return FileName
	}
	if dir, err := os.UserConfigDir(); err == nil {
		p := filepath.Join(dir, "quill", FileName)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// LoadOrDefault 加载 Find 找到的文件；没有文件时返回 Default。
func LoadOrDefault(explicit string) (Config, string, error) {
	path := Find(explicit)
	if path == "" {
		return Default(), "", nil
	}
	cfg, err := Load(path)
	return cfg, path, err
}

// Validate 检查枚举值与数值范围。
func (c Config) Validate() error {
	if !slices.Contains(handwriting.Backends(), c.Render.Backend) {
		return errors.New(errors.ErrCodeInvalidConfig, "render.backend 必须是 %s 之一，当前为 %q",
			strings.Join(handwriting.Backends(), "、"), c.Render.Backend)
	}
	if c.Render.Workers < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "render.workers 不能为负数")
	}
	if c.Render.MaxTextLength < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "render.max_text_length 不能为负数")
	}
	if _, err := handwriting.ParseFormat(c.Render.Format); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "render.format 无效")
	}
	if c.Render.Quality < 0 || c.Render.Quality > 100 {
		return errors.New(errors.ErrCodeInvalidConfig, "render.quality 必须在 0..100 内，当前为 %d", c.Render.Quality)
	}
	switch strings.ToLower(c.Cache.Backend) {
	case "", cache.BackendNone, cache.BackendRedis:
	case cache.BackendFile:
		if c.Cache.Dir == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "cache.backend = file 时必须设置 cache.dir")
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "未知的缓存后端 %q", c.Cache.Backend)
	}
	if c.Cache.RetryJitter < 0 || c.Cache.RetryJitter > 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "cache.retry_jitter 必须在 [0,1] 内，当前为 %g", c.Cache.RetryJitter)
	}
	if c.Server.MaxBodyBytes <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "server.max_body_bytes 必须大于 0")
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

// LogLevel 解析 log.level。
func (c Config) LogLevel() (log.Level, error) {
	if c.Log.Level == "" {
		return log.InfoLevel, nil
	}
	level, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return log.InfoLevel, errors.Wrap(errors.ErrCodeInvalidConfig, err, "log.level 无效")
	}
	return level, nil
}

// CacheOptions 转换为 cache.Open 的参数。
func (c Config) CacheOptions() cache.Options {
	return cache.Options{
		Backend:  c.Cache.Backend,
		Dir:      c.Cache.Dir,
		Addr:     c.Cache.Addr,
		Password: c.Cache.Password,
		DB:       c.Cache.DB,
		Prefix:   c.Cache.Prefix,
	}
}

// RetryPolicy 返回缓存读写使用的重试策略。
func (c Config) RetryPolicy() cache.RetryPolicy {
	return cache.RetryPolicy{
		Attempts: max(c.Cache.Retries, 1),
		Delay:    c.Cache.RetryDelay.Duration,
		Jitter:   c.Cache.RetryJitter,
	}
}

// ResolverOptions 返回字体查找的参数。
func (c Config) ResolverOptions(logger *log.Logger) []fonts.ResolverOption {
	opts := []fonts.ResolverOption{
		fonts.WithSystemFonts(c.Fonts.System),
		fonts.WithLogger(logger),
	}
	if len(c.Fonts.Dirs) > 0 {
		opts = append(opts, fonts.WithDirs(c.Fonts.Dirs...))
	}
	if len(c.Fonts.Fallbacks) > 0 {
		opts = append(opts, fonts.WithFallbacks(c.Fonts.Fallbacks))
	}
	return opts
}
