package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ByLCY/quill/effects"
	"github.com/ByLCY/quill/fonts"
	"github.com/ByLCY/quill/handwriting"
	"github.com/ByLCY/quill/segment"
	"github.com/ByLCY/quill/style"
)

func (c *CLI) presetsCommand() *cobra.Command {
	var sheet string
	cmd := &cobra.Command{
		Use:   "presets",
		Short: "列出样式、效果与纸张预设",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.Config
			if sheet != "" {
				cfg.Style.Sheet = sheet
			}
			cat, err := cfg.Catalog()
			if err != nil {
				return err
			}
			c.printTitle("样式")
			for _, name := range cat.StyleNames() {
				st, err := cat.Style(name)
				if err != nil {
					continue
				}
				c.printKeyValue(name, fmt.Sprintf("%g×%g px · 字号 %g · 行距 %.2f · 效果 %s", st.PageWidth, st.PageHeight, st.FontSize, st.LineSpacing, st.Effect))
			}
			c.printf("\n")
			c.printTitle("效果")
			for _, name := range cat.EffectNames() {
				p, err := cat.Effect(name)
				if err != nil {
					continue
				}
				c.printKeyValue(name, describeEffect(p))
			}
			c.printf("\n")
			c.printList("纸张", style.PageNames())
			c.printList("后端", handwriting.Backends())
			c.printList("整理模式", segment.FormatModes())
			return nil
		},
	}
	cmd.Flags().StringVar(&sheet, "sheet", "", "同时列出该样式表中声明的预设")
	return cmd
}

func describeEffect(p effects.Preset) string {
	if !p.Enabled {
		return "关闭"
	}
	return fmt.Sprintf("扩散 %.2f · 噪点 %.2f · 模糊 %.1f · 旋转 %.1f°", p.InkSpread, p.Noise, p.BlurRadius, p.RotationJitter)
}

func (c *CLI) fontsCommand() *cobra.Command {
	var (
		sf     styleFlags
		sample string
	)
	cmd := &cobra.Command{
		Use:   "fonts",
		Short: "显示样式解析出的字体链",
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, st, err := c.loadStyle(sf)
			if err != nil {
				return err
			}
			opts := c.Config.ResolverOptions(loggerFromContext(cmd.Context()))
			if len(cat.FontDirs) > 0 {
				opts = append(opts, fonts.WithDirs(cat.FontDirs...))
			}
			chain := fonts.NewResolver(opts...).Resolve(st.Fonts)

			c.printTitle(st.Name)
			for i, f := range chain.Fonts {
				family := f.Family()
				if family == "" {
					family = f.Name
				}
				c.printKeyValue(fmt.Sprintf("%d", i+1), family+styleDim.Render("  "+f.Path))
			}
			if sample == "" {
				return nil
			}
			var missing []string
			seen := map[rune]bool{}
			for _, r := range sample {
				if seen[r] || r == ' ' || r == '\n' {
					continue
				}
				seen[r] = true
				if _, ok := chain.Pick(r); !ok {
					missing = append(missing, string(r))
				}
			}
			if len(missing) == 0 {
				c.printSuccess("字体链覆盖示例文本中的全部字符")
			} else {
				c.printWarning("以下字符将绘制为方框：%v", missing)
			}
			return nil
		},
	}
	sf.register(cmd)
	cmd.Flags().StringVar(&sample, "sample", "", "检查字体链对这段文本的覆盖情况")
	return cmd
}
