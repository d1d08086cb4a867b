package layout

import (
	"fmt"
	"strconv"
	"strings"
)

// This file defines unit-safe lengths used by style sheets. Every length is
// eventually resolved to pixels at the document DPI.

// Unit represents the original unit of a length value as written in a sheet.
type Unit int

const (
	UnitNone Unit = iota // unit-less numbers, treated as pixels for lengths
	UnitPX               // pixels
	UnitMM               // millimeters
	UnitCM               // centimeters
	UnitIN               // inches
	UnitPT               // points
)

// Conversion constants between pt and mm.
const (
	PtToMm  = 0.352777
	MmToPt  = 1.0 / PtToMm
	MmPerIn = 25.4
)

// UnitToString returns a short string for a Unit value.
func UnitToString(u Unit) string {
	switch u {
	case UnitPX:
		return "px"
	case UnitMM:
		return "mm"
	case UnitCM:
		return "cm"
	case UnitIN:
		return "in"
	case UnitPT:
		return "pt"
	default:
		return ""
	}
}

// Length preserves a numeric value with its unit.
type Length struct {
	Value float64 `json:"value"`
	Unit  Unit    `json:"unit"`
}

func (l Length) IsZero() bool { return l.Value == 0 }

// ToMM converts physical units to millimeters. Pixel values need a DPI and are
// handled by ToPx.
func (l Length) ToMM() float64 {
	switch l.Unit {
	case UnitCM:
		return l.Value * 10
	case UnitIN:
		return l.Value * MmPerIn
	case UnitPT:
		return l.Value * PtToMm
	default:
		return l.Value
	}
}

// ToPx resolves the length to pixels at dpi. Unit-less values are pixels.
func (l Length) ToPx(dpi float64) float64 {
	switch l.Unit {
	case UnitPX, UnitNone:
		return l.Value
	default:
		return MMToPx(l.ToMM(), dpi)
	}
}

// MMToPx converts millimeters to pixels at dpi.
func MMToPx(mm, dpi float64) float64 {
	return mm * dpi / MmPerIn
}

// ParseLength parses "12", "12px", "10mm", "1.5cm", "1in" or "9pt".
func ParseLength(value string) (Length, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return Length{}, fmt.Errorf("长度为空")
	}
	unit := UnitNone
	num := v
	for _, suf := range []struct {
		s string
		u Unit
	}{{"px", UnitPX}, {"mm", UnitMM}, {"cm", UnitCM}, {"in", UnitIN}, {"pt", UnitPT}} {
		if strings.HasSuffix(v, suf.s) {
			unit = suf.u
			num = strings.TrimSpace(strings.TrimSuffix(v, suf.s))
			break
		}
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return Length{}, fmt.Errorf("无法解析长度 %q: %w", value, err)
	}
	return Length{Value: f, Unit: unit}, nil
}

// LineHeightKind distinguishes factor-based vs absolute line-height specification.
type LineHeightKind int

const (
	LineHeightFactor LineHeightKind = iota
	LineHeightAbsolute
)

// LineHeightSpec preserves author intent: a spacing factor relative to the font
// size ("0.2x") or an absolute line height ("140px").
type LineHeightSpec struct {
	Kind   LineHeightKind `json:"kind"`
	Factor float64        `json:"factor,omitempty"`
	Len    Length         `json:"len,omitempty"`
}

// ParseLineHeight accepts "0.2x" / "0.2" as a spacing factor and any length
// with a unit as an absolute line height.
func ParseLineHeight(value string) (LineHeightSpec, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if strings.HasSuffix(v, "x") && !strings.HasSuffix(v, "px") {
		f, err := strconv.ParseFloat(strings.TrimSuffix(v, "x"), 64)
		if err != nil {
			return LineHeightSpec{}, fmt.Errorf("无法解析行距倍数 %q: %w", value, err)
		}
		return LineHeightSpec{Kind: LineHeightFactor, Factor: f}, nil
	}
	l, err := ParseLength(v)
	if err != nil {
		return LineHeightSpec{}, err
	}
	if l.Unit == UnitNone {
		return LineHeightSpec{Kind: LineHeightFactor, Factor: l.Value}, nil
	}
	return LineHeightSpec{Kind: LineHeightAbsolute, Len: l}, nil
}

// SpacingFactor converts the line height to the spacing factor used by styles:
// line_height = font_size × (1 + factor).
func (s LineHeightSpec) SpacingFactor(fontSizePx, dpi float64) float64 {
	switch s.Kind {
	case LineHeightAbsolute:
		if fontSizePx <= 0 {
			return 0
		}
		return (s.Len.ToPx(dpi) - fontSizePx) / fontSizePx
	default:
		return s.Factor
	}
}
