// Package server 通过 HTTP 暴露渲染、估算与统计接口。
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ByLCY/quill/cache"
	"github.com/ByLCY/quill/config"
	"github.com/ByLCY/quill/handwriting"
	"github.com/ByLCY/quill/style"
)

// Server 持有渲染服务与缓存，Handler 可被多个请求并发使用。
type Server struct {
	svc     *handwriting.Service
	cfg     config.Config
	catalog *style.Catalog
	cache   cache.Cache
	retry   cache.RetryPolicy
	logger  *log.Logger
}

// Options 是 New 的参数，零值字段使用默认实现。
type Options struct {
	Config  config.Config
	Catalog *style.Catalog
	Cache   cache.Cache
	Logger  *log.Logger
}

// New 创建 Server。
func New(svc *handwriting.Service, opts Options) *Server {
	s := &Server{
		svc:     svc,
		cfg:     opts.Config,
		catalog: opts.Catalog,
		cache:   opts.Cache,
		retry:   opts.Config.RetryPolicy(),
		logger:  opts.Logger,
	}
	if s.catalog == nil {
		s.catalog = style.NewCatalog()
	}
	if s.cache == nil {
		s.cache = cache.NewNullCache()
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	if s.cfg.Server.MaxBodyBytes <= 0 {
		s.cfg.Server.MaxBodyBytes = config.Default().Server.MaxBodyBytes
	}
	return s
}

// Handler 返回挂载了全部路由的 http.Handler。
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/presets", s.handlePresets)
		r.Post("/count", s.handleCount)
		r.Post("/estimate", s.handleEstimate)
		r.Post("/render", s.handleRender)
	})
	return r
}

// ListenAndServe 监听 server.addr，ctx 取消后优雅关闭。
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Server.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.Server.ReadTimeout.Duration,
		WriteTimeout: s.cfg.Server.WriteTimeout.Duration,
	}
	errc := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP 服务已启动", "addr", srv.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("正在关闭 HTTP 服务")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("请求完成",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"elapsed", time.Since(start).Round(time.Millisecond),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
