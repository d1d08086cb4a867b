package cli

import (
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ByLCY/quill/binding"
	"github.com/ByLCY/quill/errors"
	"github.com/ByLCY/quill/segment"
	"github.com/ByLCY/quill/style"
)

// textFlags 是读取输入文本相关的参数。
type textFlags struct {
	encoding string
	dataPath string
	textMode string
}

func (f *textFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.encoding, "encoding", segment.EncodingAuto, "输入编码：auto、utf-8、gbk")
	cmd.Flags().StringVar(&f.dataPath, "data", "", "绑定到文本中 ${path} 占位符的 JSON 数据文件")
	cmd.Flags().StringVar(&f.textMode, "text-mode", "", "文本整理模式："+strings.Join(segment.FormatModes(), "、"))
}

// styleFlags 选择样式与效果，未设置的项使用配置文件中的值。
type styleFlags struct {
	preset    string
	sheet     string
	style     string
	effect    string
	tokenizer string
	measure   string
}

func (f *styleFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.preset, "preset", "p", "", "内置样式预设："+strings.Join(style.PresetNames(), "、"))
	cmd.Flags().StringVar(&f.sheet, "sheet", "", ".quill 样式表路径")
	cmd.Flags().StringVarP(&f.style, "style", "s", "", "样式表中的样式名")
	cmd.Flags().StringVarP(&f.effect, "effect", "e", "", "效果预设，覆盖样式中的设置")
	cmd.Flags().StringVar(&f.tokenizer, "tokenizer", "", "分词器：gse、uax14、grapheme、rune")
	cmd.Flags().StringVar(&f.measure, "measure", "", "宽度估算：estimate、cell")
}

// readText 读取文件或标准输入（参数为空或 "-"），依次完成解码、数据绑定、清洗与整理。
func (c *CLI) readText(cmd *cobra.Command, args []string, f textFlags) (string, error) {
	var (
		raw []byte
		err error
	)
	if len(args) == 0 || args[0] == "-" {
		raw, err = io.ReadAll(cmd.InOrStdin())
	} else {
		raw, err = os.ReadFile(args[0])
	}
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidInput, err, "读取输入失败")
	}
	text, err := segment.Decode(raw, f.encoding)
	if err != nil {
		return "", err
	}
	if f.dataPath != "" {
		data, err := binding.LoadData(f.dataPath)
		if err != nil {
			return "", err
		}
		if missing := binding.Missing(text, data); len(missing) > 0 {
			c.Logger.Warn("占位符缺少数据", "paths", missing)
		}
		text = binding.Interpolate(text, data)
	}
	text = segment.Clean(text)
	if f.textMode != "" {
		return segment.Format(text, f.textMode)
	}
	return text, nil
}

// loadStyle 解析样式表与样式，命令行参数优先于配置文件。
func (c *CLI) loadStyle(f styleFlags) (*style.Catalog, style.Style, error) {
	cfg := c.Config
	if f.sheet != "" {
		cfg.Style.Sheet = f.sheet
	}
	if f.effect != "" {
		cfg.Style.Effect = f.effect
	}
	if f.tokenizer != "" {
		cfg.Style.Tokenizer = f.tokenizer
	}
	if f.measure != "" {
		cfg.Style.Measure = f.measure
	}
	cat, err := cfg.Catalog()
	if err != nil {
		return nil, style.Style{}, err
	}
	name := f.style
	if name == "" {
		name = f.preset
	}
	st, err := cfg.ResolveStyle(cat, name)
	if err != nil {
		return nil, style.Style{}, err
	}
	return cat, st, nil
}
