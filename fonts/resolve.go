package fonts

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/flopp/go-findfont"
	"golang.org/x/image/font/sfnt"

	"github.com/ByLCY/quill/errors"
)

// HandwritingFamilies 是配置的字体都不可用时依次尝试的手写风格字体。
var HandwritingFamilies = []string{
	"Ma Shan Zheng",
	"ZCOOL XiaoWei",
	"ZCOOL QingKe HuangYou",
	"Long Cang",
	"SimHei",
	"WenQuanYi Micro Hei",
	"Heiti",
	"Noto Sans CJK SC",
	"Droid Sans Fallback",
}

// GenericSans 是手写字体之后的通用无衬线字体。
var GenericSans = []string{"DejaVu Sans", "Arial", "Liberation Sans"}

// familyFiles 把常见字体族名映射到候选文件名。
var familyFiles = map[string][]string{
	"ma shan zheng":         {"MaShanZheng-Regular.ttf"},
	"zcool xiaowei":         {"ZCOOLXiaoWei-Regular.ttf"},
	"zcool qingke huangyou": {"ZCOOLQingKeHuangYou-Regular.ttf"},
	"long cang":             {"LongCang-Regular.ttf"},
	"simhei":                {"simhei.ttf"},
	"wenquanyi micro hei":   {"wqy-microhei.ttc"},
	"heiti":                 {"STHeiti Light.ttc", "STHeiti Medium.ttc"},
	"noto sans cjk sc":      {"NotoSansCJK-Regular.ttc", "NotoSansCJKsc-Regular.otf", "NotoSansSC-Regular.otf"},
	"droid sans fallback":   {"DroidSansFallbackFull.ttf", "DroidSansFallback.ttf"},
	"dejavu sans":           {"DejaVuSans.ttf"},
	"arial":                 {"Arial.ttf"},
	"liberation sans":       {"LiberationSans-Regular.ttf"},
}

var fontExts = []string{".ttf", ".otf", ".ttc"}

// Font 是一份已解析的字体数据。Path 对文件字体是绝对路径，对内置字体是 "builtin:<name>"。
type Font struct {
	Name string
	Path string
	Data []byte

	sf *sfnt.Font
}

// Has 报告字体是否包含 r 的字形。
func (f *Font) Has(r rune) bool {
	if f == nil || f.sf == nil {
		return false
	}
	var buf sfnt.Buffer
	idx, err := f.sf.GlyphIndex(&buf, r)
	return err == nil && idx != 0
}

// Family 返回字体内记录的族名，读取失败时返回 Name。
func (f *Font) Family() string {
	var buf sfnt.Buffer
	if name, err := f.sf.Name(&buf, sfnt.NameIDFamily); err == nil && name != "" {
		return name
	}
	return f.Name
}

// Parse 解析字体数据；字体集合（.ttc）取其中第一个字体。
func Parse(name, path string, data []byte) (*Font, error) {
	sf, err := sfnt.Parse(data)
	if err != nil {
		coll, cerr := sfnt.ParseCollection(data)
		if cerr != nil {
			return nil, fmt.Errorf("解析字体 %s 失败: %w", name, err)
		}
		if sf, err = coll.Font(0); err != nil {
			return nil, fmt.Errorf("读取字体集合 %s 失败: %w", name, err)
		}
	}
	return &Font{Name: name, Path: path, Data: data, sf: sf}, nil
}

// Chain 是有序的字体回退链，绘制每个字符时使用第一个覆盖它的字体。
type Chain struct {
	Fonts []*Font
}

// Pick 返回链中第一个包含 r 的字体；没有字体覆盖时返回 false。
func (c *Chain) Pick(r rune) (*Font, bool) {
	for _, f := range c.Fonts {
		if f.Has(r) {
			return f, true
		}
	}
	return nil, false
}

// Covering 返回链中所有包含 r 的字体，顺序不变。
func (c *Chain) Covering(r rune) []*Font {
	var out []*Font
	for _, f := range c.Fonts {
		if f.Has(r) {
			out = append(out, f)
		}
	}
	return out
}

// Primary 返回链中的第一个字体，用于行级度量。
func (c *Chain) Primary() *Font { return c.Fonts[0] }

// Paths 返回链中每个字体的来源。
func (c *Chain) Paths() []string {
	out := make([]string, len(c.Fonts))
	for i, f := range c.Fonts {
		out[i] = f.Path
	}
	return out
}

// Resolver 把字体标识（文件路径、字体族名或 builtin:）解析为 Font。
// 已加载的字体按路径缓存，可在多个 goroutine 间共享。
type Resolver struct {
	dirs      []string
	fallbacks []string
	system    bool
	logger    *log.Logger

	mu     sync.Mutex
	index  map[string]string
	loaded map[string]*Font
}

// ResolverOption 配置 Resolver。
type ResolverOption func(*Resolver)

// WithDirs 追加额外的字体目录，先于系统字体目录搜索。
func WithDirs(dirs ...string) ResolverOption {
	return func(r *Resolver) { r.dirs = append(r.dirs, dirs...) }
}

// WithFallbacks 替换手写字体回退列表。
func WithFallbacks(families []string) ResolverOption {
	return func(r *Resolver) { r.fallbacks = families }
}

// WithSystemFonts 控制是否搜索系统字体目录。
func WithSystemFonts(enabled bool) ResolverOption {
	return func(r *Resolver) { r.system = enabled }
}

// WithLogger 指定记录字体回退的日志器。
func WithLogger(l *log.Logger) ResolverOption {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewResolver 创建 Resolver，默认搜索系统字体目录。
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		fallbacks: append(append([]string(nil), HandwritingFamilies...), GenericSans...),
		system:    true,
		logger:    log.Default(),
		loaded:    map[string]*Font{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve 依次尝试 ids、回退字体族，最后追加内置的 Go Regular，组成字体链。
// 解析永不失败：找不到的字体只记录调试日志。
func (r *Resolver) Resolve(ids []string) *Chain {
	chain := &Chain{}
	seen := map[string]bool{}
	add := func(f *Font) {
		if !seen[f.Path] {
			seen[f.Path] = true
			chain.Fonts = append(chain.Fonts, f)
		}
	}
	candidates := append(append([]string(nil), ids...), r.fallbacks...)
	for _, id := range candidates {
		f, err := r.Lookup(id)
		if err != nil {
			r.logger.Debug("字体不可用，继续回退", "font", id, "err", err)
			continue
		}
		add(f)
	}
	f, err := r.Lookup(BuiltinPrefix + DefaultBuiltin)
	if err != nil {
		// 内置字体随二进制发布，解析失败只可能是程序缺陷
		panic(err)
	}
	add(f)
	return chain
}

// Lookup 解析单个字体标识。
func (r *Resolver) Lookup(id string) (*Font, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New(errors.ErrCodeNotFound, "字体标识为空")
	}
	if IsBuiltin(id) {
		data, err := Load(id)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeNotFound, err, "内置字体不可用")
		}
		name := strings.TrimPrefix(strings.TrimPrefix(id, BuiltinPrefix), "embed:")
		return r.load(BuiltinPrefix+strings.ToLower(name), name, func() ([]byte, error) { return data, nil })
	}
	if path, ok := r.findPath(id); ok {
		return r.load(path, id, func() ([]byte, error) { return os.ReadFile(path) })
	}
	return nil, errors.New(errors.ErrCodeNotFound, "找不到字体 %q", id)
}

func (r *Resolver) load(key, name string, read func() ([]byte, error)) (*Font, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if f, ok := r.loaded[key]; ok {
		return f, nil
	}
	data, err := read()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNotFound, err, "读取字体 %s 失败", name)
	}
	f, err := Parse(name, key, data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNotFound, err, "字体 %s 无法使用", name)
	}
	r.loaded[key] = f
	return f, nil
}

// findPath 按文件路径、字体族候选文件名、文件名的顺序查找字体文件。
func (r *Resolver) findPath(id string) (string, bool) {
	if info, err := os.Stat(id); err == nil && !info.IsDir() {
		abs, err := filepath.Abs(id)
		if err != nil {
			return id, true
		}
		return abs, true
	}
	index := r.fileIndex()
	for _, name := range candidateFiles(id) {
		if path, ok := index[strings.ToLower(name)]; ok {
			return path, true
		}
	}
	if r.system && hasFontExt(id) {
		if path, err := findfont.Find(id); err == nil {
			return path, true
		}
	}
	return "", false
}

// fileIndex 建立 小写文件名 → 路径 的索引，配置目录优先于系统目录。
func (r *Resolver) fileIndex() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.index != nil {
		return r.index
	}
	index := map[string]string{}
	addPath := func(path string) {
		if !hasFontExt(path) {
			return
		}
		key := strings.ToLower(filepath.Base(path))
		if _, ok := index[key]; !ok {
			index[key] = path
		}
	}
	for _, dir := range r.dirs {
		_ = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if !d.IsDir() {
				addPath(path)
			}
			return nil
		})
	}
	if r.system {
		for _, path := range findfont.List() {
			addPath(path)
		}
	}
	r.index = index
	return index
}

// Forget 清空已加载字体与文件索引，下次解析时重新扫描。
func (r *Resolver) Forget() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.index = nil
	r.loaded = map[string]*Font{}
}

func candidateFiles(id string) []string {
	if hasFontExt(id) {
		return []string{filepath.Base(id)}
	}
	if names, ok := familyFiles[strings.ToLower(id)]; ok {
		return names
	}
	compact := strings.ReplaceAll(id, " ", "")
	var out []string
	for _, ext := range fontExts {
		out = append(out, compact+ext, compact+"-Regular"+ext)
	}
	return out
}

func hasFontExt(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range fontExts {
		if ext == e {
			return true
		}
	}
	return false
}
