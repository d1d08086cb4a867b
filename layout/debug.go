package layout

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DebugReport 是分页结果的检查视图：每一行带上行框位置与相对可用宽度的占比。
type DebugReport struct {
	TotalLines      int         `json:"totalLines"`
	MaxLinesPerPage int         `json:"maxLinesPerPage"`
	LineHeight      float64     `json:"lineHeight"`
	Pages           []DebugPage `json:"pages"`
}

// DebugPage 对应一页。
type DebugPage struct {
	Index       int         `json:"index"`
	Width       float64     `json:"width"`
	Height      float64     `json:"height"`
	UsableWidth float64     `json:"usableWidth"`
	Lines       []DebugLine `json:"lines"`
}

// DebugLine 对应一个行框。Fill 为估算宽度与可用宽度之比，溢出行可能大于 1。
type DebugLine struct {
	Slot     int     `json:"slot"`
	Top      float64 `json:"top"`
	Content  string  `json:"content"`
	Width    float64 `json:"width"`
	Fill     float64 `json:"fill"`
	Blank    bool    `json:"blank,omitempty"`
	Overflow bool    `json:"overflow,omitempty"`
}

// NewDebugReport 由分页结果生成检查视图。
func NewDebugReport(res *Result) DebugReport {
	rep := DebugReport{
		TotalLines:      res.TotalLines,
		MaxLinesPerPage: res.MaxLinesPerPage,
		LineHeight:      res.LineHeight,
		Pages:           make([]DebugPage, 0, len(res.Pages)),
	}
	for _, p := range res.Pages {
		usable := p.Width - p.Margin.Left - p.Margin.Right
		dp := DebugPage{Index: p.Index, Width: p.Width, Height: p.Height, UsableWidth: usable}
		for i, l := range p.Lines {
			dl := DebugLine{
				Slot:     i,
				Top:      p.SlotTop(i),
				Content:  l.Content,
				Width:    l.Width,
				Blank:    l.Blank,
				Overflow: l.Overflow,
			}
			if usable > 0 {
				dl.Fill = l.Width / usable
			}
			dp.Lines = append(dp.Lines, dl)
		}
		rep.Pages = append(rep.Pages, dp)
	}
	return rep
}

// WriteDebugJSON 将分页结果的检查视图写入 path，目录不存在时自动创建。
func WriteDebugJSON(res *Result, path string) error {
	if res == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("创建调试目录失败: %w", err)
	}
	data, err := json.MarshalIndent(NewDebugReport(res), "", "  ")
	if err != nil {
		return fmt.Errorf("序列化分页结果失败: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
