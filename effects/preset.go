// Package effects 实现手写页面的后期效果：墨水扩散、噪点、模糊、纸张纹理与亮度对比度调整，
// 以及默认链之外单独调用的笔压与书写变化阶段。
package effects

import (
	"sort"

	"github.com/ByLCY/quill/errors"
)

// Preset 是一组具名的效果强度参数，构造后只读。
type Preset struct {
	Name           string  `json:"name"`
	Enabled        bool    `json:"enabled"`
	InkSpread      float64 `json:"inkSpread"`      // [0,1]
	Noise          float64 `json:"noise"`          // [0,1]，逐像素命中概率
	BlurRadius     float64 `json:"blurRadius"`     // ≥0
	RotationJitter float64 `json:"rotationJitter"` // ≥0，单位：度
}

const (
	PresetNone    = "none"
	PresetLimited = "limited"
	PresetNatural = "natural"
	PresetStrong  = "strong"
)

var builtin = map[string]Preset{
	PresetNone:    {Name: PresetNone},
	PresetLimited: {Name: PresetLimited, Enabled: true, InkSpread: 0.1, Noise: 0.05, BlurRadius: 0.5, RotationJitter: 0.5},
	PresetNatural: {Name: PresetNatural, Enabled: true, InkSpread: 0.3, Noise: 0.1, BlurRadius: 1.0, RotationJitter: 1.0},
	PresetStrong:  {Name: PresetStrong, Enabled: true, InkSpread: 0.5, Noise: 0.2, BlurRadius: 1.5, RotationJitter: 1.5},
}

// Lookup 返回内置预设。
func Lookup(name string) (Preset, error) {
	p, ok := builtin[name]
	if !ok {
		return Preset{}, errors.New(errors.ErrCodeInvalidStyle, "未知的效果预设 %q", name)
	}
	return p, nil
}

// Names 按字母序返回内置预设名称。
func Names() []string {
	out := make([]string, 0, len(builtin))
	for name := range builtin {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Builtin 返回全部内置预设的副本，可作为样式表中 extends 的根。
func Builtin() map[string]Preset {
	out := make(map[string]Preset, len(builtin))
	for k, v := range builtin {
		out[k] = v
	}
	return out
}

// Validate 校验各强度参数的取值范围。
func (p Preset) Validate() error {
	switch {
	case p.InkSpread < 0 || p.InkSpread > 1:
		return errors.New(errors.ErrCodeInvalidStyle, "效果 %q 的 ink-spread 必须在 [0,1] 内，当前为 %g", p.Name, p.InkSpread)
	case p.Noise < 0 || p.Noise > 1:
		return errors.New(errors.ErrCodeInvalidStyle, "效果 %q 的 noise 必须在 [0,1] 内，当前为 %g", p.Name, p.Noise)
	case p.BlurRadius < 0:
		return errors.New(errors.ErrCodeInvalidStyle, "效果 %q 的 blur 不能为负，当前为 %g", p.Name, p.BlurRadius)
	case p.RotationJitter < 0:
		return errors.New(errors.ErrCodeInvalidStyle, "效果 %q 的 rotation 不能为负，当前为 %g", p.Name, p.RotationJitter)
	}
	return nil
}
