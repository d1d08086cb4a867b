package segment

import (
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/go-ego/gse"
	"github.com/go-text/typesetting/segmenter"
	"github.com/rivo/uniseg"

	"github.com/ByLCY/quill/errors"
	"github.com/ByLCY/quill/style"
)

// Tokenizer 把一段文本切成有序词元。词元按顺序拼接后必须与输入完全一致。
type Tokenizer interface {
	Name() string
	Tokenize(text string) ([]string, error)
}

// GSETokenizer 使用 gse 的词典分词，让多字中文词尽量保持完整。
// 词典在首次使用时加载，实例可在多个 goroutine 间共享。
type GSETokenizer struct {
	once sync.Once
	seg  gse.Segmenter
	err  error
}

// NewGSETokenizer 创建延迟加载词典的分词器。
func NewGSETokenizer() *GSETokenizer {
	return &GSETokenizer{}
}

func (t *GSETokenizer) Name() string { return style.TokenizerGSE }

func (t *GSETokenizer) load() error {
	t.once.Do(func() {
		t.seg.SkipLog = true
		if err := t.seg.LoadDictEmbed(); err != nil {
			t.err = fmt.Errorf("加载 gse 词典失败: %w", err)
		}
	})
	return t.err
}

func (t *GSETokenizer) Tokenize(text string) ([]string, error) {
	if err := t.load(); err != nil {
		return nil, err
	}
	return t.seg.Cut(text), nil
}

// UAX14Tokenizer 按 Unicode 换行算法（UAX #14）给出的断行机会切分。
type UAX14Tokenizer struct{}

func (UAX14Tokenizer) Name() string { return style.TokenizerUAX14 }

func (UAX14Tokenizer) Tokenize(text string) ([]string, error) {
	var seg segmenter.Segmenter
	seg.Init([]rune(text))
	iter := seg.LineIterator()
	var out []string
	for iter.Next() {
		out = append(out, string(iter.Line().Text))
	}
	return out, nil
}

// GraphemeTokenizer 按扩展字素簇切分。
type GraphemeTokenizer struct{}

func (GraphemeTokenizer) Name() string { return style.TokenizerGrapheme }

func (GraphemeTokenizer) Tokenize(text string) ([]string, error) {
	var out []string
	gr := uniseg.NewGraphemes(text)
	for gr.Next() {
		out = append(out, gr.Str())
	}
	return out, nil
}

// RuneTokenizer 逐字符切分，非法 UTF-8 字节各自成为一个词元。它是回退链的最后一环，永不失败。
type RuneTokenizer struct{}

func (RuneTokenizer) Name() string { return style.TokenizerRune }

func (RuneTokenizer) Tokenize(text string) ([]string, error) {
	out := make([]string, 0, len(text))
	for i := 0; i < len(text); {
		_, size := utf8.DecodeRuneInString(text[i:])
		out = append(out, text[i:i+size])
		i += size
	}
	return out, nil
}

// Chain 依次尝试各分词器；某一环 panic、返回错误或结果拼接后与输入不一致时，
// 记录调试日志并交给下一环，最后总是回退到逐字符切分。
type Chain struct {
	tokenizers []Tokenizer
	logger     *log.Logger
}

// NewChain 以 primary 开头构造回退链：primary → UAX#14 → 字素簇 → 字符。
func NewChain(primary Tokenizer, logger *log.Logger) *Chain {
	if logger == nil {
		logger = log.Default()
	}
	all := []Tokenizer{UAX14Tokenizer{}, GraphemeTokenizer{}, RuneTokenizer{}}
	start := 0
	for i, t := range all {
		if primary != nil && t.Name() == primary.Name() {
			start = i
			primary = nil
			break
		}
	}
	var list []Tokenizer
	if primary != nil {
		list = append(list, primary)
	}
	list = append(list, all[start:]...)
	return &Chain{tokenizers: list, logger: logger}
}

func (c *Chain) Name() string { return c.tokenizers[0].Name() }

func (c *Chain) Tokenize(text string) ([]string, error) {
	for _, t := range c.tokenizers {
		tokens, err := safeTokenize(t, text)
		if err == nil {
			return tokens, nil
		}
		c.logger.Debug("分词失败，回退到下一级", "tokenizer", t.Name(), "err", err)
	}
	return RuneTokenizer{}.Tokenize(text)
}

func safeTokenize(t Tokenizer, text string) (tokens []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("分词器 %s panic: %v", t.Name(), r)
		}
	}()
	tokens, err = t.Tokenize(text)
	if err != nil {
		return nil, err
	}
	if strings.Join(tokens, "") != text {
		return nil, fmt.Errorf("分词器 %s 的结果与输入不一致", t.Name())
	}
	return tokens, nil
}

// TokenizerFor 根据样式中的名称创建分词器。gse 需要加载词典，调用方应复用返回的实例。
func TokenizerFor(name string) (Tokenizer, error) {
	switch name {
	case style.TokenizerGSE, "":
		return NewGSETokenizer(), nil
	case style.TokenizerUAX14:
		return UAX14Tokenizer{}, nil
	case style.TokenizerGrapheme:
		return GraphemeTokenizer{}, nil
	case style.TokenizerRune:
		return RuneTokenizer{}, nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidStyle, "未知的分词后端 %q", name)
	}
}
