// Package segment 把原始文本拆成段落与行：CJK 文本按词切分并避免标点出现在行首，
// 其他文本按空白分词。行宽使用估算值，精确的字形度量只在绘制阶段使用。
package segment

import (
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/log"

	"github.com/ByLCY/quill/layout"
	"github.com/ByLCY/quill/style"
)

// Segmenter 实现 layout.Typesetter。
type Segmenter struct {
	tokenizer Tokenizer
	measure   Measurer
	logger    *log.Logger
}

var _ layout.Typesetter = (*Segmenter)(nil)

// Option 配置 Segmenter。
type Option func(*Segmenter)

// WithTokenizer 指定 CJK 路径的首选分词器，失败时仍会沿回退链降级。
func WithTokenizer(t Tokenizer) Option {
	return func(s *Segmenter) { s.tokenizer = t }
}

// WithMeasurer 指定宽度估算方式。
func WithMeasurer(m Measurer) Option {
	return func(s *Segmenter) { s.measure = m }
}

// WithLogger 指定分词回退时使用的日志器。
func WithLogger(l *log.Logger) Option {
	return func(s *Segmenter) {
		if l != nil {
			s.logger = l
		}
	}
}

// New 创建 Segmenter，默认使用 gse 分词与 0.5×字号 的宽度估算。
func New(opts ...Option) *Segmenter {
	s := &Segmenter{
		measure: EstimateMeasurer{},
		logger:  log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tokenizer == nil {
		s.tokenizer = NewGSETokenizer()
	}
	if _, ok := s.tokenizer.(*Chain); !ok {
		s.tokenizer = NewChain(s.tokenizer, s.logger)
	}
	return s
}

// ForStyle 根据样式中的 measure 与 tokenizer 名称创建 Segmenter。
// 传入的 opts 在样式之后应用，可用来复用已加载词典的分词器。
func ForStyle(st style.Style, opts ...Option) (*Segmenter, error) {
	m, err := MeasurerFor(st.Measure)
	if err != nil {
		return nil, err
	}
	t, err := TokenizerFor(st.Tokenizer)
	if err != nil {
		return nil, err
	}
	base := []Option{WithMeasurer(m), WithTokenizer(t)}
	return New(append(base, opts...)...), nil
}

// Measurer 返回当前使用的宽度估算器。
func (s *Segmenter) Measurer() Measurer { return s.measure }

// Segment 按显式换行拆段，再把每段拆成不超过可用宽度的行。
// 空行成为空白段落标记；空输入返回 nil。非法 UTF-8 字节被替换为 U+FFFD 后继续处理。
func (s *Segmenter) Segment(text string, g layout.Geometry) []layout.Paragraph {
	if text == "" {
		return nil
	}
	text = strings.ToValidUTF8(text, string(utf8.RuneError))
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	width := g.UsableWidth()
	var out []layout.Paragraph
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			out = append(out, layout.Paragraph{Blank: true})
			continue
		}
		var lines []layout.TextLine
		if HasCJK(line) {
			lines = s.wrapCJK(line, width, g.FontSize)
		} else {
			lines = s.wrapWords(line, width, g.FontSize)
		}
		out = append(out, layout.Paragraph{Lines: lines})
	}
	return out
}

// lineBuffer 累积当前行；close 时生成 TextLine。
type lineBuffer struct {
	s       *Segmenter
	width   float64
	size    float64
	current strings.Builder
	lines   []layout.TextLine
}

func (b *lineBuffer) fits(extra string) bool {
	return b.s.measure.Width(b.current.String()+extra, b.size) <= b.width
}

func (b *lineBuffer) empty() bool { return b.current.Len() == 0 }

func (b *lineBuffer) close() {
	if b.empty() {
		return
	}
	content := strings.TrimRight(b.current.String(), " ")
	b.current.Reset()
	if content == "" {
		return
	}
	w := b.s.measure.Width(content, b.size)
	b.lines = append(b.lines, layout.TextLine{Content: content, Width: w})
}

// appendToLast 把 s 追加到本段上一行末尾；本段还没有行时返回 false。
func (b *lineBuffer) appendToLast(s string) bool {
	if len(b.lines) == 0 {
		return false
	}
	last := &b.lines[len(b.lines)-1]
	last.Content += s
	last.Width = b.s.measure.Width(last.Content, b.size)
	return true
}

// start 以 token 开始新行；单个词元宽于可用宽度时独占一行并标记溢出。
func (b *lineBuffer) start(token string) {
	if token == "" {
		return
	}
	w := b.s.measure.Width(token, b.size)
	if w > b.width {
		b.lines = append(b.lines, layout.TextLine{Content: token, Width: w, Overflow: true})
		return
	}
	b.current.WriteString(token)
}

func (s *Segmenter) wrapCJK(text string, width, size float64) []layout.TextLine {
	tokens, _ := s.tokenizer.Tokenize(text)
	buf := &lineBuffer{s: s, width: width, size: size}
	for _, tok := range tokens {
		if buf.empty() {
			// 刚换行时遇到的行首禁用标点并入上一行
			if head, rest := splitNoLineStart(tok); head != "" && buf.appendToLast(head) {
				tok = rest
			}
			buf.start(strings.TrimLeft(tok, " "))
			continue
		}
		if buf.fits(tok) {
			buf.current.WriteString(tok)
			continue
		}
		// 换行：词元开头的行首禁用标点留在上一行末尾
		head, rest := splitNoLineStart(tok)
		buf.current.WriteString(head)
		buf.close()
		buf.start(strings.TrimLeft(rest, " "))
	}
	buf.close()
	return buf.lines
}

func (s *Segmenter) wrapWords(text string, width, size float64) []layout.TextLine {
	buf := &lineBuffer{s: s, width: width, size: size}
	for _, word := range strings.Fields(text) {
		if buf.empty() {
			buf.start(word)
			continue
		}
		if buf.fits(" " + word) {
			buf.current.WriteString(" ")
			buf.current.WriteString(word)
			continue
		}
		buf.close()
		buf.start(word)
	}
	buf.close()
	return buf.lines
}

// splitNoLineStart 拆出词元开头连续的行首禁用标点。
// 整段连续标点（如 "。」"）一起留在上一行末尾，而不只是第一个字符，
// 否则第二个标点会成为下一行的行首。
func splitNoLineStart(tok string) (head, rest string) {
	i := 0
	for i < len(tok) {
		r, size := utf8.DecodeRuneInString(tok[i:])
		if !IsNoLineStart(r) {
			break
		}
		i += size
	}
	return tok[:i], tok[i:]
}
