package handwriting

import (
	"image"
	"io"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/ByLCY/quill/errors"
	"github.com/ByLCY/quill/segment"
	"github.com/ByLCY/quill/style"
)

// Analysis 是不绘制时的排版概览。
type Analysis struct {
	Lines           []string       `json:"lines"`
	TotalLines      int            `json:"totalLines"`
	PageCount       int            `json:"pageCount"`
	MaxLinesPerPage int            `json:"maxLinesPerPage"`
	Counts          segment.Counts `json:"counts"`
	PageWidth       float64        `json:"pageWidth"`
	PageHeight      float64        `json:"pageHeight"`
}

// Analyze 返回 text 在 st 下的逐行内容、行数、页数与字符统计。空白分隔行记为空字符串。
func (s *Service) Analyze(text string, st style.Style) (*Analysis, error) {
	res, err := s.Plan(text, st)
	if err != nil {
		return nil, err
	}
	a := &Analysis{
		TotalLines:      res.TotalLines,
		PageCount:       len(res.Pages),
		MaxLinesPerPage: res.MaxLinesPerPage,
		Counts:          segment.CountCharacters(text),
		PageWidth:       st.PageWidth,
		PageHeight:      st.PageHeight,
	}
	for _, p := range res.Pages {
		for _, l := range p.Lines {
			a.Lines = append(a.Lines, l.Content)
		}
	}
	return a, nil
}

// 输出格式。
const (
	FormatPNG  = "png"
	FormatJPEG = "jpeg"
)

// DefaultJPEGQuality 是未指定质量时的 JPEG 质量。
const DefaultJPEGQuality = 95

// ParseFormat 规范化格式名，只接受 PNG 与 JPEG。
func ParseFormat(name string) (string, error) {
	switch strings.ToLower(strings.TrimPrefix(name, ".")) {
	case "png", "":
		return FormatPNG, nil
	case "jpg", "jpeg":
		return FormatJPEG, nil
	default:
		return "", errors.New(errors.ErrCodeInvalidFormat, "不支持的输出格式 %q，仅支持 png 与 jpeg", name)
	}
}

// Extension 返回格式对应的文件扩展名。
func Extension(format string) string {
	if format == FormatJPEG {
		return ".jpg"
	}
	return ".png"
}

// Encode 把页面图片以 PNG 或 JPEG 写入 w。quality 只对 JPEG 生效，超出 1..100 时使用默认值。
func Encode(w io.Writer, img image.Image, format string, quality int) error {
	f, err := ParseFormat(format)
	if err != nil {
		return err
	}
	if f == FormatJPEG {
		if quality < 1 || quality > 100 {
			quality = DefaultJPEGQuality
		}
		err = imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(quality))
	} else {
		err = imaging.Encode(w, img, imaging.PNG)
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "编码 %s 图片失败", f)
	}
	return nil
}
