package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ByLCY/quill/style"
)

var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

type pickerItem struct {
	Name   string
	Detail string
}

// PickerModel 是交互式样式选择列表。
type PickerModel struct {
	Title    string
	Items    []pickerItem
	Cursor   int
	Selected string
	Height   int
	Offset   int
}

// newStylePicker 列出目录中的全部样式，并显示纸张尺寸、字号与效果。
func newStylePicker(cat *style.Catalog) PickerModel {
	m := PickerModel{Title: "选择样式", Height: 12}
	for _, name := range cat.StyleNames() {
		st, err := cat.Style(name)
		if err != nil {
			continue
		}
		m.Items = append(m.Items, pickerItem{
			Name:   name,
			Detail: fmt.Sprintf("%gx%g px · 字号 %g · %s", st.PageWidth, st.PageHeight, st.FontSize, st.Effect),
		})
	}
	return m
}

func (m PickerModel) Init() tea.Cmd {
	return nil
}

func (m PickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Items)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			if len(m.Items) > 0 {
				m.Selected = m.Items[m.Cursor].Name
			}
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-6, 5)
	}
	return m, nil
}

func (m PickerModel) View() string {
	var b strings.Builder
	b.WriteString(styleTitle.Render(m.Title))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ 移动  ⏎ 选择  q 退出"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Items))
	for i := m.Offset; i < end; i++ {
		item := m.Items[i]
		if i == m.Cursor {
			b.WriteString(listSelectedStyle.Render("▸ " + item.Name))
		} else {
			b.WriteString(listNormalStyle.Render("  " + item.Name))
		}
		b.WriteString("  ")
		b.WriteString(listDimStyle.Render(item.Detail))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Items))))
	return b.String()
}
