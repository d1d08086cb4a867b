package cache

import (
	"encoding/json"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Key 由前缀与若干可 JSON 序列化的部分生成缓存键，格式为 prefix:hash。
// 相同输入总是得到相同的键；任一部分变化都会得到不同的键。
func Key(prefix string, parts ...any) string {
	data, err := json.Marshal(parts)
	if err != nil {
		data = fmt.Appendf(nil, "%#v", parts)
	}
	return prefix + ":" + Hash(data)
}

// Hash 返回 data 的 xxhash64，固定 16 位十六进制。
func Hash(data []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(data))
}
