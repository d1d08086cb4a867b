// Package cli 实现 quill 命令行。
//
// 子命令：
//   - render：把文本渲染为手写风格的 PNG/JPEG 页面
//   - estimate：估算页数并输出逐行排版
//   - count：统计字符构成
//   - presets：列出样式、效果与纸张预设
//   - fonts：显示样式解析出的字体链
//   - serve：启动 HTTP 服务
//
// 全部子命令支持 --verbose 与 --config；日志器通过 context.Context 传递。
package cli

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/ByLCY/quill/config"
)

const appName = "quill"

// Version 在构建时通过 -ldflags 注入。
var Version = "dev"

// CLI 保存各子命令共享的状态。
type CLI struct {
	Logger *log.Logger
	Config config.Config

	out        io.Writer
	errOut     io.Writer
	configPath string
	verbose    bool
}

// New 创建 CLI，输出写入 out，日志写入 errOut。
func New(out, errOut io.Writer) *CLI {
	return &CLI{
		Logger: newLogger(errOut, log.InfoLevel),
		Config: config.Default(),
		out:    out,
		errOut: errOut,
	}
}

// RootCommand 返回注册了全部子命令的根命令。
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           appName,
		Short:         "把文本渲染为手写风格的图片",
		Long:          "quill 把中英文混排文本分段、分页，用手写字体逐字绘制并叠加墨水与纸张效果，输出 PNG 或 JPEG 页面。",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := config.LoadOrDefault(c.configPath)
			if err != nil {
				return err
			}
			c.Config = cfg
			level, _ := cfg.LogLevel()
			if c.verbose {
				level = log.DebugLevel
			}
			c.Logger.SetLevel(level)
			if path != "" {
				c.Logger.Debug("已加载配置", "path", path)
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}
	root.SetOut(c.out)
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "输出调试日志")
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "配置文件路径（默认查找 ./quill.toml）")

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.estimateCommand())
	root.AddCommand(c.countCommand())
	root.AddCommand(c.presetsCommand())
	root.AddCommand(c.fontsCommand())
	root.AddCommand(c.serveCommand())
	return root
}

// Execute 以标准输入输出运行命令行。
func Execute(ctx context.Context) error {
	c := New(os.Stdout, os.Stderr)
	err := c.RootCommand().ExecuteContext(ctx)
	if err != nil {
		c.printError("%s", err)
	}
	return err
}
