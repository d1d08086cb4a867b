package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorCyan   = lipgloss.Color("36")
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorRed    = lipgloss.Color("167")
	colorWhite  = lipgloss.Color("255")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
)

var (
	styleTitle   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleDim     = lipgloss.NewStyle().Foreground(colorDim)
	styleValue   = lipgloss.NewStyle().Foreground(colorWhite)
	styleNumber  = lipgloss.NewStyle().Foreground(colorCyan)
	styleWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleKey     = lipgloss.NewStyle().Foreground(colorGray).Width(14)

	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconArrow   = "→"
)

func (c *CLI) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

func (c *CLI) printSuccess(format string, args ...any) {
	c.printf("%s %s\n", styleIconSuccess.Render(iconSuccess), fmt.Sprintf(format, args...))
}

func (c *CLI) printError(format string, args ...any) {
	c.printf("%s %s\n", styleIconError.Render(iconError), fmt.Sprintf(format, args...))
}

func (c *CLI) printWarning(format string, args ...any) {
	c.printf("%s %s\n", styleIconWarning.Render(iconWarning), styleWarning.Render(fmt.Sprintf(format, args...)))
}

func (c *CLI) printTitle(title string) {
	c.printf("%s\n", styleTitle.Render(title))
}

func (c *CLI) printFile(path string) {
	c.printf("  %s %s\n", styleDim.Render(iconArrow), styleValue.Render(path))
}

func (c *CLI) printKeyValue(key string, value any) {
	c.printf("%s %s\n", styleKey.Render(key), styleValue.Render(fmt.Sprint(value)))
}

func (c *CLI) printNumber(key string, n int) {
	c.printf("%s %s\n", styleKey.Render(key), styleNumber.Render(fmt.Sprint(n)))
}

// printList 以“ · ”连接各项，输出为一行。
func (c *CLI) printList(key string, items []string) {
	c.printf("%s %s\n", styleKey.Render(key), styleValue.Render(strings.Join(items, styleDim.Render(" · "))))
}
