package layout

import (
	"math"
	"testing"
)

// TestPtMmRoundTrip 验证 pt↔mm 换算的往返精度（允许极小的浮点误差）。
func TestPtMmRoundTrip(t *testing.T) {
	samples := []float64{0, 0.001, 1, 12, 14.4, 72, 96, 144, 1000}
	for _, pt := range samples {
		mm := pt * PtToMm
		back := mm * MmToPt
		if diff := math.Abs(back - pt); diff > 1e-9 {
			t.Fatalf("pt→mm→pt 往返误差过大: in=%gpt mm=%g back=%g diff=%g", pt, mm, back, diff)
		}
	}
}

// TestLengthToPx 覆盖常见单位在 300dpi 下到像素的换算。
func TestLengthToPx(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"120", 120},
		{"120px", 120},
		{"1in", 300},
		{"25.4mm", 300},
		{"2.54cm", 300},
		{"72pt", 300},
	}
	for _, tc := range cases {
		l, err := ParseLength(tc.in)
		if err != nil {
			t.Fatalf("解析 %q 失败: %v", tc.in, err)
		}
		if got := l.ToPx(300); math.Abs(got-tc.want) > 1e-3 {
			t.Fatalf("%q 转像素期望 %g，实际 %g", tc.in, tc.want, got)
		}
	}
}

func TestParseLengthRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "abc", "mm", "12qq"} {
		if _, err := ParseLength(in); err == nil {
			t.Fatalf("期望 %q 解析失败", in)
		}
	}
}

// TestLineHeightSpacingFactor 验证倍数与绝对行高两种语义都能换算为行距倍数。
func TestLineHeightSpacingFactor(t *testing.T) {
	factor, err := ParseLineHeight("0.25x")
	if err != nil {
		t.Fatalf("解析倍数失败: %v", err)
	}
	if got := factor.SpacingFactor(120, 300); math.Abs(got-0.25) > 1e-9 {
		t.Fatalf("0.25x 期望 0.25，实际 %g", got)
	}

	bare, err := ParseLineHeight("0.5")
	if err != nil {
		t.Fatalf("解析裸数字失败: %v", err)
	}
	if bare.Kind != LineHeightFactor {
		t.Fatalf("裸数字应视为倍数")
	}

	abs, err := ParseLineHeight("140px")
	if err != nil {
		t.Fatalf("解析绝对行高失败: %v", err)
	}
	if abs.Kind != LineHeightAbsolute {
		t.Fatalf("带单位的值应视为绝对行高")
	}
	// 行高 140 = 120 × (1 + 1/6)
	if got := abs.SpacingFactor(120, 300); math.Abs(got-1.0/6.0) > 1e-9 {
		t.Fatalf("140px 行高期望倍数 1/6，实际 %g", got)
	}
}

func TestParseLineHeightPixelSuffix(t *testing.T) {
	cases := []struct {
		in   string
		kind LineHeightKind
	}{
		{"120px", LineHeightAbsolute},
		{" 120PX ", LineHeightAbsolute},
		{"1.5x", LineHeightFactor},
		{"2X", LineHeightFactor},
		{"10mm", LineHeightAbsolute},
	}
	for _, tc := range cases {
		got, err := ParseLineHeight(tc.in)
		if err != nil {
			t.Fatalf("%q: %v", tc.in, err)
		}
		if got.Kind != tc.kind {
			t.Fatalf("%q: 期望类型 %v，实际 %v", tc.in, tc.kind, got.Kind)
		}
	}
	px, _ := ParseLineHeight("120px")
	if px.Len.Value != 120 || px.Len.Unit != UnitPX {
		t.Fatalf("120px 解析错误: %+v", px.Len)
	}
	if _, err := ParseLineHeight("abcx"); err == nil {
		t.Fatalf("非法倍数应返回错误")
	}
}
