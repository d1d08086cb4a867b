package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ByLCY/quill/segment"
)

func (c *CLI) estimateCommand() *cobra.Command {
	var (
		tf      textFlags
		sf      styleFlags
		asJSON  bool
		showAll bool
	)
	cmd := &cobra.Command{
		Use:   "estimate [file]",
		Short: "估算页数，不绘制",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := c.readText(cmd, args, tf)
			if err != nil {
				return err
			}
			cat, st, err := c.loadStyle(sf)
			if err != nil {
				return err
			}
			svc, err := c.Config.NewService(cat, loggerFromContext(cmd.Context()))
			if err != nil {
				return err
			}
			a, err := svc.Analyze(text, st)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(c.out)
				enc.SetIndent("", "  ")
				return enc.Encode(a)
			}
			c.printTitle(st.Name)
			c.printNumber("页数", a.PageCount)
			c.printNumber("总行数", a.TotalLines)
			c.printNumber("每页行数", a.MaxLinesPerPage)
			c.printKeyValue("页面", fmt.Sprintf("%g × %g px", a.PageWidth, a.PageHeight))
			if showAll {
				c.printf("\n")
				width := len(fmt.Sprint(len(a.Lines)))
				for i, line := range a.Lines {
					c.printf("%s %s\n", styleDim.Render(fmt.Sprintf("%*d", width, i+1)), line)
				}
			}
			return nil
		},
	}
	tf.register(cmd)
	sf.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "以 JSON 输出完整分析")
	cmd.Flags().BoolVar(&showAll, "lines", false, "逐行输出排版结果")
	return cmd
}

func (c *CLI) countCommand() *cobra.Command {
	var (
		tf     textFlags
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "count [file]",
		Short: "统计字符构成",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := c.readText(cmd, args, tf)
			if err != nil {
				return err
			}
			counts := segment.CountCharacters(text)
			if asJSON {
				return json.NewEncoder(c.out).Encode(counts)
			}
			c.printNumber("总字符", counts.Total)
			c.printNumber("汉字", counts.CJK)
			c.printNumber("英文字母", counts.Latin)
			c.printNumber("数字", counts.Digit)
			c.printNumber("标点", counts.Punctuation)
			return nil
		},
	}
	tf.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "以 JSON 输出")
	return cmd
}
