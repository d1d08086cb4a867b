package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/ByLCY/quill/binding"
	"github.com/ByLCY/quill/cache"
	"github.com/ByLCY/quill/effects"
	"github.com/ByLCY/quill/errors"
	"github.com/ByLCY/quill/handwriting"
	"github.com/ByLCY/quill/segment"
	"github.com/ByLCY/quill/style"
)

type textRequest struct {
	Text string `json:"text"`
	// Style 是内置预设或样式表中的样式名，空值使用配置中的默认样式。
	Style    string         `json:"style,omitempty"`
	Effect   string         `json:"effect,omitempty"`
	TextMode string         `json:"textMode,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}

type renderRequest struct {
	textRequest
	Seed      *int64 `json:"seed,omitempty"`
	Pressure  bool   `json:"pressure,omitempty"`
	Variation bool   `json:"variation,omitempty"`
	Format    string `json:"format,omitempty"`
	Quality   int    `json:"quality,omitempty"`
}

type renderResponse struct {
	ID        string   `json:"id"`
	Format    string   `json:"format"`
	PageCount int      `json:"pageCount"`
	Pages     []string `json:"pages"`
	Cached    bool     `json:"cached"`
}

// cachedRender 是写入缓存的内容，不含每次请求不同的 id。
type cachedRender struct {
	Format string   `json:"format"`
	Pages  []string `json:"pages"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handlePresets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{
		"styles":    s.catalog.StyleNames(),
		"effects":   s.catalog.EffectNames(),
		"backends":  handwriting.Backends(),
		"pages":     style.PageNames(),
		"textModes": segment.FormatModes(),
	})
}

func (s *Server) handleCount(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	text, err := prepareText(req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.svc.CountCharacters(text))
}

func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	text, st, err := s.prepare(req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	analysis, err := s.svc.Analyze(text, st)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	text, st, err := s.prepare(req.textRequest)
	if err != nil {
		s.writeError(w, err)
		return
	}
	format, err := handwriting.ParseFormat(firstNonEmpty(req.Format, s.cfg.Render.Format))
	if err != nil {
		s.writeError(w, err)
		return
	}
	quality := req.Quality
	if quality == 0 {
		quality = s.cfg.Render.Quality
	}

	id := uuid.NewString()
	w.Header().Set("X-Render-ID", id)

	pressure := req.Pressure || s.cfg.Render.Pressure
	variation := req.Variation || s.cfg.Render.Variation

	// 未指定种子的渲染每次结果不同，不参与缓存
	var key string
	if req.Seed != nil {
		key = cache.Key("render", s.svc.Backend(), text, st, *req.Seed, pressure, variation, format, quality)
		if hit, ok := s.lookup(r.Context(), key); ok {
			writeJSON(w, http.StatusOK, renderResponse{
				ID: id, Format: hit.Format, PageCount: len(hit.Pages), Pages: hit.Pages, Cached: true,
			})
			return
		}
	}

	var opts []handwriting.RenderOption
	if req.Seed != nil {
		opts = append(opts, handwriting.WithSeed(*req.Seed))
	}
	if pressure {
		opts = append(opts, handwriting.WithPressure())
	}
	if variation {
		opts = append(opts, handwriting.WithVariation())
	}
	images, err := s.svc.RenderDocument(r.Context(), text, st, opts...)
	if err != nil {
		s.writeError(w, err)
		return
	}

	pages := make([]string, len(images))
	for i, img := range images {
		var buf bytes.Buffer
		if err := handwriting.Encode(&buf, img, format, quality); err != nil {
			s.writeError(w, err)
			return
		}
		pages[i] = base64.StdEncoding.EncodeToString(buf.Bytes())
	}
	if key != "" {
		s.store(r.Context(), key, cachedRender{Format: format, Pages: pages})
	}
	s.logger.Info("渲染完成", "id", id, "pages", len(pages), "format", format)
	writeJSON(w, http.StatusOK, renderResponse{ID: id, Format: format, PageCount: len(pages), Pages: pages})
}

// lookup 读取缓存；缓存不可用时只记录警告，按未命中处理。
func (s *Server) lookup(ctx context.Context, key string) (cachedRender, bool) {
	var (
		data []byte
		hit  bool
	)
	err := s.retry.Do(ctx, func() error {
		var err error
		data, hit, err = s.cache.Get(ctx, key)
		return err
	})
	if err != nil {
		s.logger.Warn("读取渲染缓存失败", "key", key, "err", err)
		return cachedRender{}, false
	}
	if !hit {
		return cachedRender{}, false
	}
	var out cachedRender
	if err := json.Unmarshal(data, &out); err != nil {
		s.logger.Warn("渲染缓存内容损坏", "key", key, "err", err)
		return cachedRender{}, false
	}
	return out, true
}

func (s *Server) store(ctx context.Context, key string, v cachedRender) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	err = s.retry.Do(ctx, func() error {
		return s.cache.Set(ctx, key, data, s.cfg.Server.CacheTTL.Duration)
	})
	if err != nil {
		s.logger.Warn("写入渲染缓存失败", "key", key, "err", err)
	}
}

// prepare 整理文本并解析样式。
func (s *Server) prepare(req textRequest) (string, style.Style, error) {
	text, err := prepareText(req)
	if err != nil {
		return "", style.Style{}, err
	}
	st, err := s.cfg.ResolveStyle(s.catalog, req.Style)
	if err != nil {
		return "", style.Style{}, err
	}
	if req.Effect != "" {
		st.Effect = req.Effect
	}
	if st.Effect == "" {
		st.Effect = effects.PresetNone
	}
	return text, st, nil
}

func prepareText(req textRequest) (string, error) {
	text := req.Text
	if req.Data != nil {
		text = binding.Interpolate(text, req.Data)
	}
	text = segment.Clean(text)
	if req.TextMode != "" {
		return segment.Format(text, req.TextMode)
	}
	return text, nil
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "请求体超过 %d 字节", tooLarge.Limit)
		}
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "请求体不是合法的 JSON")
	}
	return nil
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("请求失败", "err", err)
	}
	writeJSON(w, status, errorResponse{Code: string(code), Message: errors.UserMessage(err)})
}

// statusFor 把错误码映射为 HTTP 状态码。
func statusFor(err error) int {
	switch {
	case errors.IsInvalid(err):
		return http.StatusBadRequest
	case errors.Is(err, errors.ErrCodeUnsupported):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
