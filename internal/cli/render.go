package cli

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/ByLCY/quill/errors"
	"github.com/ByLCY/quill/handwriting"
	"github.com/ByLCY/quill/layout"
	"github.com/ByLCY/quill/style"
)

type renderFlags struct {
	textFlags
	styleFlags
	out       string
	prefix    string
	format    string
	quality   int
	backend   string
	workers   int
	seed      int64
	pressure  bool
	variation bool
	debug     string
	pick      bool
}

func (c *CLI) renderCommand() *cobra.Command {
	var f renderFlags
	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "渲染手写页面",
		Long:  "读取文件（省略或为 - 时读取标准输入），按样式分段、分页并绘制，每页输出一张图片。",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seeded := cmd.Flags().Changed("seed")
			return c.runRender(cmd, args, f, seeded)
		},
	}
	f.textFlags.register(cmd)
	f.styleFlags.register(cmd)
	cmd.Flags().StringVarP(&f.out, "out", "o", "", "输出目录（默认使用配置中的 render.output_dir）")
	cmd.Flags().StringVar(&f.prefix, "prefix", "page", "输出文件名前缀")
	cmd.Flags().StringVarP(&f.format, "format", "f", "", "输出格式：png、jpeg")
	cmd.Flags().IntVar(&f.quality, "quality", 0, "JPEG 质量 1..100")
	cmd.Flags().StringVar(&f.backend, "backend", "", "字形后端：canvas、freetype、stub")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "并行渲染的页数上限")
	cmd.Flags().Int64Var(&f.seed, "seed", 0, "随机种子，指定后输出可复现")
	cmd.Flags().BoolVar(&f.pressure, "pressure", false, "模拟笔压")
	cmd.Flags().BoolVar(&f.variation, "variation", false, "模拟墨色深浅变化")
	cmd.Flags().StringVar(&f.debug, "debug", "", "把分页结果写入该 JSON 文件")
	cmd.Flags().BoolVar(&f.pick, "pick", false, "交互式选择样式")
	return cmd
}

func (c *CLI) runRender(cmd *cobra.Command, args []string, f renderFlags, seeded bool) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	text, err := c.readText(cmd, args, f.textFlags)
	if err != nil {
		return err
	}
	cat, st, err := c.loadStyle(f.styleFlags)
	if err != nil {
		return err
	}
	if f.pick {
		name, err := c.pickStyle(cmd, cat)
		if err != nil {
			return err
		}
		f.style = name
		if _, st, err = c.loadStyle(f.styleFlags); err != nil {
			return err
		}
	}

	cfg := c.Config
	if f.backend != "" {
		cfg.Render.Backend = f.backend
	}
	if f.workers > 0 {
		cfg.Render.Workers = f.workers
	}
	format, err := handwriting.ParseFormat(firstNonEmpty(f.format, cfg.Render.Format))
	if err != nil {
		return err
	}
	quality := f.quality
	if quality == 0 {
		quality = cfg.Render.Quality
	}
	outDir := firstNonEmpty(f.out, cfg.Render.OutputDir, ".")

	svc, err := cfg.NewService(cat, logger)
	if err != nil {
		return err
	}
	if f.debug != "" {
		if err := writeDebug(svc, text, st, f.debug); err != nil {
			return err
		}
		logger.Debug("已写入分页调试信息", "path", f.debug)
	}

	var opts []handwriting.RenderOption
	if seeded {
		opts = append(opts, handwriting.WithSeed(f.seed))
	}
	if f.pressure || cfg.Render.Pressure {
		opts = append(opts, handwriting.WithPressure())
	}
	if f.variation || cfg.Render.Variation {
		opts = append(opts, handwriting.WithVariation())
	}

	prog := newProgress(logger)
	spin := newSpinner(ctx, c.errOut, "正在渲染…")
	if !c.verbose {
		spin.Start()
	}
	pages, err := svc.RenderDocument(ctx, text, st, opts...)
	spin.Stop()
	if err != nil {
		return err
	}
	prog.done("渲染完成", "pages", len(pages), "style", st.Name, "backend", cfg.Render.Backend)

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "创建输出目录失败")
	}
	c.printSuccess("已生成 %d 页", len(pages))
	for i, img := range pages {
		path := filepath.Join(outDir, fmt.Sprintf("%s-%03d%s", f.prefix, i+1, handwriting.Extension(format)))
		if err := writeImage(path, img, format, quality); err != nil {
			return err
		}
		c.printFile(path)
	}
	return nil
}

func (c *CLI) pickStyle(cmd *cobra.Command, cat *style.Catalog) (string, error) {
	p := tea.NewProgram(newStylePicker(cat), tea.WithInput(cmd.InOrStdin()), tea.WithOutput(c.errOut))
	final, err := p.Run()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "启动样式选择失败")
	}
	m, ok := final.(PickerModel)
	if !ok || m.Selected == "" {
		return "", errors.New(errors.ErrCodeInvalidInput, "未选择样式")
	}
	return m.Selected, nil
}

func writeDebug(svc *handwriting.Service, text string, st style.Style, path string) error {
	res, err := svc.Plan(text, st)
	if err != nil {
		return err
	}
	if err := layout.WriteDebugJSON(res, path); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "输出调试 JSON 失败")
	}
	return nil
}

func writeImage(path string, img image.Image, format string, quality int) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "创建输出文件 %s 失败", path)
	}
	if err := handwriting.Encode(file, img, format, quality); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "写入输出文件 %s 失败", path)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
