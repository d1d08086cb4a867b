package segment

import "unicode"

// Counts 是文本的字符构成统计，供调用方做长度提示。
type Counts struct {
	Total       int `json:"total"`
	CJK         int `json:"cjk"`
	Latin       int `json:"latin"`
	Digit       int `json:"digit"`
	Punctuation int `json:"punctuation"`
}

// CountCharacters 统计总字符数（按 rune）、汉字、ASCII 字母、数字与标点。
func CountCharacters(text string) Counts {
	var c Counts
	for _, r := range text {
		c.Total++
		switch {
		case unicode.Is(unicode.Han, r):
			c.CJK++
		case r < unicode.MaxASCII && unicode.IsLetter(r):
			c.Latin++
		case unicode.IsDigit(r):
			c.Digit++
		case isPunctuation(r):
			c.Punctuation++
		}
	}
	return c
}
