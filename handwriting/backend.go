package handwriting

import (
	"github.com/ByLCY/quill/errors"
	"github.com/ByLCY/quill/renderer"
	canvasrenderer "github.com/ByLCY/quill/renderer/canvas"
	freetyperenderer "github.com/ByLCY/quill/renderer/freetype"
	"github.com/ByLCY/quill/renderer/stub"
)

// 可选的渲染后端。
const (
	BackendCanvas   = canvasrenderer.Name
	BackendFreetype = freetyperenderer.Name
	BackendStub     = stub.Name
)

// Backends 返回支持的后端名称，默认后端在前。
func Backends() []string {
	return []string{BackendCanvas, BackendFreetype, BackendStub}
}

// NewBackend 按名称创建字形后端。
func NewBackend(name string) (renderer.GlyphBackend, error) {
	switch name {
	case BackendCanvas, "":
		return canvasrenderer.NewBackend(), nil
	case BackendFreetype:
		return freetyperenderer.NewBackend(), nil
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "不支持的字形后端 %q", name)
	}
}

// NewRenderer 按名称创建页面渲染器；stub 返回不含随机扰动的替身。
func NewRenderer(name string, opts ...renderer.Option) (renderer.Renderer, error) {
	if name == BackendStub {
		return stub.New(), nil
	}
	backend, err := NewBackend(name)
	if err != nil {
		return nil, err
	}
	return renderer.NewEngine(backend, opts...)
}
