package dsl_test

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/ByLCY/quill/dsl"
)

const sampleSheet = `
// 练习本样式
sheet Notebook v1 {
  style body extends casual {
    font-size: 96px
    fonts: [
      "Ma Shan Zheng"
      "builtin:goregular"
    ]
    margin: 10mm 12mm
    line-height: 0.25x
    ink: #1A237E  # 蓝黑墨水
    page: A5 landscape; effect: soft
  }

  /* 比内置 natural 稍弱 */
  effects soft extends natural {
    noise: 0.08
    rotation: 0.6
  }

  fonts {
    dir: "./fonts"
  }
}
`

func TestParseSheet(t *testing.T) {
	sheet, err := dsl.ParseString(sampleSheet)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if sheet.Name != "Notebook" || sheet.Version != "v1" {
		t.Fatalf("unexpected header: %s %s", sheet.Name, sheet.Version)
	}
	if len(sheet.Sections) != 3 {
		t.Fatalf("expected 3 sections, got %d", len(sheet.Sections))
	}

	kinds := []string{}
	for _, s := range sheet.Sections {
		kinds = append(kinds, s.Kind())
	}
	if strings.Join(kinds, ",") != "style,effects,fonts" {
		t.Fatalf("unexpected section kinds: %v", kinds)
	}

	style := sheet.Sections[0].Style
	if style.Name != "body" || style.Extends != "casual" {
		t.Fatalf("unexpected style header: %+v", style)
	}
	got := map[string][]string{}
	for _, a := range style.Block.Assignments {
		got[a.Key] = a.Value.Tokens()
	}
	want := map[string][]string{
		"font-size":   {"96px"},
		"fonts":       {"Ma Shan Zheng", "builtin:goregular"},
		"margin":      {"10mm", "12mm"},
		"line-height": {"0.25x"},
		"ink":         {"#1A237E"},
		"page":        {"A5", "landscape"},
		"effect":      {"soft"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("assignments mismatch:\n got %v\nwant %v", got, want)
	}

	effects := sheet.Sections[1].Effects
	if effects.Name != "soft" || effects.Extends != "natural" || len(effects.Block.Assignments) != 2 {
		t.Fatalf("unexpected effects section: %+v", effects)
	}

	fonts := sheet.Sections[2].Fonts
	if fonts == nil || fonts.Block.Assignments[0].Value.Text() != "./fonts" {
		t.Fatalf("unexpected fonts section: %+v", fonts)
	}
}

func TestParseSheetWithoutExtends(t *testing.T) {
	sheet, err := dsl.ParseString("sheet S v2 {\n  style plain {\n    font-size: 40\n  }\n}\n")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if ext := sheet.Sections[0].Style.Extends; ext != "" {
		t.Fatalf("expected no extends, got %q", ext)
	}
}

func TestParseSheetErrors(t *testing.T) {
	cases := []string{
		"",
		"sheet {}",
		"sheet S v1 { style { } }",
		"sheet S v1 { page A4 { } }",
	}
	for _, src := range cases {
		if _, err := dsl.ParseString(src); err == nil {
			t.Fatalf("expected parse error for %q", src)
		}
	}
}

func TestParseFileReportsName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.quill")
	if err := os.WriteFile(path, []byte("sheet S v1 {\n  style a {\n    font-size 12\n  }\n}\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := dsl.ParseFile(path)
	if err == nil {
		t.Fatalf("expected parse error")
	}
	if !strings.Contains(err.Error(), "broken.quill") {
		t.Fatalf("error should mention file name: %v", err)
	}
}
