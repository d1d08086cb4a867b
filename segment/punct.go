package segment

import "unicode"

// noLineStart 是不允许出现在行首的标点：句读、顿号、冒号分号以及各类右括号和右引号。
var noLineStart = runeSet("。？！，、；：”’）〕》〉」』】…～.,!?;:)]}")

// 统计时计入标点的字符：中文标点与常见英文标点。
var (
	cjkPunctuation   = runeSet("。？！，、；：“”‘’（）〔〕《》〈〉～﹏")
	asciiPunctuation = runeSet(`.?!,;:"'()[]{}\<>`)
)

func runeSet(s string) map[rune]struct{} {
	out := make(map[rune]struct{}, len(s))
	for _, r := range s {
		out[r] = struct{}{}
	}
	return out
}

// IsNoLineStart 报告 r 是否属于禁止出现在行首的标点。
func IsNoLineStart(r rune) bool {
	_, ok := noLineStart[r]
	return ok
}

// IsCJK 报告 r 是否属于中日韩文字或其全角标点区段。
func IsCJK(r rune) bool {
	switch {
	case unicode.Is(unicode.Han, r),
		unicode.Is(unicode.Hiragana, r),
		unicode.Is(unicode.Katakana, r),
		unicode.Is(unicode.Hangul, r):
		return true
	case r >= 0x3000 && r <= 0x303F: // CJK 符号和标点
		return true
	case r >= 0xFF00 && r <= 0xFFEF: // 全角 ASCII 与半角片假名
		return true
	}
	return false
}

// HasCJK 报告文本中是否至少包含一个 CJK 字符。
func HasCJK(text string) bool {
	for _, r := range text {
		if IsCJK(r) {
			return true
		}
	}
	return false
}

func isPunctuation(r rune) bool {
	if _, ok := cjkPunctuation[r]; ok {
		return true
	}
	_, ok := asciiPunctuation[r]
	return ok
}
