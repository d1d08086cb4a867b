// Package fonts 负责把样式中的字体标识解析为可用的字体数据，并组成按字符覆盖回退的字体链。
package fonts

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
)

// BuiltinPrefix 标记内置字体，例如 "builtin:goregular"；兼容旧写法 "embed:"。
const BuiltinPrefix = "builtin:"

// DefaultBuiltin 是字体链的最后一环，保证至少能绘制拉丁字符。
const DefaultBuiltin = "goregular"

var builtin = map[string][]byte{
	"goregular": goregular.TTF,
	"gomono":    gomono.TTF,
}

// IsBuiltin 报告标识是否指向内置字体。
func IsBuiltin(id string) bool {
	return strings.HasPrefix(id, BuiltinPrefix) || strings.HasPrefix(id, "embed:")
}

// Load 返回内置字体的字节数据，name 可写为 "builtin:goregular" 或直接 "goregular"。
func Load(name string) ([]byte, error) {
	name = strings.TrimPrefix(strings.TrimPrefix(name, BuiltinPrefix), "embed:")
	data, ok := builtin[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("找不到内置字体 %s%s", BuiltinPrefix, name)
	}
	return data, nil
}

// BuiltinNames 按字母序返回内置字体名称。
func BuiltinNames() []string {
	names := make([]string, 0, len(builtin))
	for name := range builtin {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
