package canvasrenderer

import (
	"math"
	"testing"

	"golang.org/x/image/font/gofont/gomono"

	"github.com/ByLCY/quill/fonts"
)

// 等宽字体中各字符的步进应相同，且与单独测量整串的宽度一致。
func TestMonospaceAdvancesAreEqual(t *testing.T) {
	mono, err := fonts.Parse("gomono", "builtin:gomono", gomono.TTF)
	if err != nil {
		t.Fatalf("parse gomono: %v", err)
	}
	face, err := NewBackend().NewFace(mono, 30, black)
	if err != nil {
		t.Fatalf("NewFace: %v", err)
	}
	want := face.Advance('i')
	if want <= 0 {
		t.Fatalf("invalid advance: %g", want)
	}
	for _, r := range "WAMl.-" {
		if got := face.Advance(r); math.Abs(got-want) > 1e-6 {
			t.Fatalf("advance of %q = %g, want %g", r, got, want)
		}
	}
}
