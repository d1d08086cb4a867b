package segment

import (
	"bytes"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"

	"github.com/ByLCY/quill/errors"
)

// Clean 规范化输入文本：统一换行为 \n，制表符展开为四个空格，去掉不可打印字符，并做 NFC 规范化。
func Clean(text string) string {
	if text == "" {
		return ""
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.ReplaceAll(text, "\t", "    ")
	text = strings.ToValidUTF8(text, string(utf8.RuneError))
	text = strings.Map(func(r rune) rune {
		if r == '\n' || unicode.IsPrint(r) || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, text)
	return norm.NFC.String(text)
}

// 文本整理模式。
const (
	FormatNormal            = "normal"
	FormatRemoveExtraSpaces = "remove_extra_spaces"
	FormatRemoveNewlines    = "remove_newlines"
	FormatUppercase         = "uppercase"
	FormatLowercase         = "lowercase"
	FormatHalfwidth         = "halfwidth"
)

// FormatModes 返回支持的整理模式。
func FormatModes() []string {
	return []string{FormatNormal, FormatRemoveExtraSpaces, FormatRemoveNewlines, FormatUppercase, FormatLowercase, FormatHalfwidth}
}

// Format 按模式整理文本。normal 去掉每行首尾空白并丢弃空行。
func Format(text, mode string) (string, error) {
	switch mode {
	case FormatNormal, "":
		var lines []string
		for _, l := range strings.Split(text, "\n") {
			if l = strings.TrimSpace(l); l != "" {
				lines = append(lines, l)
			}
		}
		return strings.Join(lines, "\n"), nil
	case FormatRemoveExtraSpaces:
		return strings.Join(strings.Fields(text), " "), nil
	case FormatRemoveNewlines:
		return strings.ReplaceAll(text, "\n", " "), nil
	case FormatUppercase:
		return strings.ToUpper(text), nil
	case FormatLowercase:
		return strings.ToLower(text), nil
	case FormatHalfwidth:
		return width.Narrow.String(text), nil
	default:
		return "", errors.New(errors.ErrCodeInvalidInput, "未知的文本整理模式 %q", mode)
	}
}

// 输入编码。
const (
	EncodingAuto = "auto"
	EncodingUTF8 = "utf-8"
	EncodingGBK  = "gbk"
)

// Decode 把原始字节解码为 UTF-8 文本。auto 模式下合法 UTF-8 原样返回，否则按 GBK 解码。
func Decode(data []byte, encoding string) (string, error) {
	switch strings.ToLower(encoding) {
	case EncodingAuto, "":
		if utf8.Valid(data) {
			return string(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))), nil
		}
		return decodeGBK(data)
	case EncodingUTF8, "utf8":
		if !utf8.Valid(data) {
			return "", errors.New(errors.ErrCodeInvalidInput, "输入不是合法的 UTF-8 文本")
		}
		return string(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))), nil
	case EncodingGBK, "gb18030":
		return decodeGBK(data)
	default:
		return "", errors.New(errors.ErrCodeInvalidInput, "不支持的文本编码 %q", encoding)
	}
}

func decodeGBK(data []byte) (string, error) {
	out, err := io.ReadAll(transform.NewReader(bytes.NewReader(data), simplifiedchinese.GBK.NewDecoder()))
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidInput, err, "GBK 解码失败")
	}
	return string(out), nil
}
