package style

import (
	"strings"

	"github.com/ByLCY/quill/errors"
	"github.com/ByLCY/quill/layout"
)

// Orientation 纸张方向。
type Orientation string

const (
	Portrait  Orientation = "portrait"
	Landscape Orientation = "landscape"
)

// 纸张尺寸（毫米，纵向）。
var pagePresets = map[string][2]float64{
	"A4": {210, 297},
	"A5": {148, 210},
}

// PageSize 返回指定纸张在 dpi 下的像素尺寸，与常见实现一致按 int(mm×dpi/25.4) 截断。
func PageSize(name string, orientation Orientation, dpi float64) (width, height float64, err error) {
	base, ok := pagePresets[strings.ToUpper(name)]
	if !ok {
		return 0, 0, errors.New(errors.ErrCodeInvalidStyle, "暂不支持的纸张尺寸：%s", name)
	}
	w := float64(int(layout.MMToPx(base[0], dpi)))
	h := float64(int(layout.MMToPx(base[1], dpi)))
	switch orientation {
	case Landscape:
		return h, w, nil
	case Portrait, "":
		return w, h, nil
	default:
		return 0, 0, errors.New(errors.ErrCodeInvalidStyle, "未知的纸张方向：%s", orientation)
	}
}

// PageNames 返回支持的纸张名称。
func PageNames() []string {
	return []string{"A4", "A5"}
}
