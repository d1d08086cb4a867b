package cli

import (
	"github.com/spf13/cobra"

	"github.com/ByLCY/quill/cache"
	"github.com/ByLCY/quill/internal/server"
)

func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		sheet   string
		backend string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "启动 HTTP 服务",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)
			cfg := c.Config
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if sheet != "" {
				cfg.Style.Sheet = sheet
			}
			if backend != "" {
				cfg.Render.Backend = backend
			}
			cat, err := cfg.Catalog()
			if err != nil {
				return err
			}
			svc, err := cfg.NewService(cat, logger)
			if err != nil {
				return err
			}

			var store cache.Cache
			err = cfg.RetryPolicy().Do(ctx, func() error {
				var err error
				store, err = cache.Open(ctx, cfg.CacheOptions())
				return err
			})
			if err != nil {
				logger.Warn("缓存不可用，改为不缓存", "backend", cfg.Cache.Backend, "err", err)
				store = cache.NewNullCache()
			}
			defer store.Close()

			srv := server.New(svc, server.Options{Config: cfg, Catalog: cat, Cache: store, Logger: logger})
			return srv.ListenAndServe(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "监听地址（默认使用配置中的 server.addr）")
	cmd.Flags().StringVar(&sheet, "sheet", "", ".quill 样式表路径")
	cmd.Flags().StringVar(&backend, "backend", "", "字形后端：canvas、freetype、stub")
	return cmd
}
