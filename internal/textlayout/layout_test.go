/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
)

func TestBasicProviderMetrics(t *testing.T) {
	_, m, err := BasicProvider{}.Resolve(FontSpec{})
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if m.Ascent != 11 || m.Descent != 2 || m.LineGap != 0 {
		t.Fatalf("unexpected metrics: %+v", m)
	}
	if got := m.LineHeight(); got != 13 {
		t.Fatalf("LineHeight = %d, want 13", got)
	}
}

func TestLineHeightRoundsUp(t *testing.T) {
	m := Metrics{Ascent: 10.25, Descent: 2.5, LineGap: 0.1}
	if got := m.LineHeight(); got != 13 {
		t.Fatalf("LineHeight = %d, want 13", got)
	}
}

func TestLayoutAdvancesPen(t *testing.T) {
	face, _, _ := BasicProvider{}.Resolve(FontSpec{})
	var glyphs []Glyph
	adv := Layout(face, fixed.P(5, 20), "AB", func(g Glyph) { glyphs = append(glyphs, g) })
	if adv != fixed.I(14) {
		t.Fatalf("advance = %v, want 14px", adv)
	}
	if len(glyphs) != 2 {
		t.Fatalf("expected 2 glyphs, got %d", len(glyphs))
	}
	if dx := glyphs[1].Bounds.Min.X - glyphs[0].Bounds.Min.X; dx != 7 {
		t.Fatalf("glyph spacing = %d, want 7", dx)
	}
	if glyphs[0].Bounds.Min.X != 5 || glyphs[0].Bounds.Min.Y != 20-11 {
		t.Fatalf("first glyph at %v", glyphs[0].Bounds)
	}
}

type pairKern struct{ font.Face }

func (pairKern) Kern(r0, r1 rune) fixed.Int26_6 {
	if r0 == 'T' && r1 == 'o' {
		return -fixed.I(2)
	}
	return 0
}

func TestLayoutAfterKernsAcrossRuns(t *testing.T) {
	base, _, _ := BasicProvider{}.Resolve(FontSpec{})
	face := pairKern{base}
	whole := Layout(face, fixed.P(0, 11), "To", nil)
	first := Layout(face, fixed.P(0, 11), "T", nil)
	second := LayoutAfter(face, fixed.P(0, 11), 'T', "o", nil)
	if first+second != whole {
		t.Fatalf("split advance %v+%v != whole %v", first, second, whole)
	}
	if whole != fixed.I(12) {
		t.Fatalf("kerned advance = %v, want 12px", whole)
	}
	if got := LayoutAfter(face, fixed.P(0, 11), -1, "o", nil); got != fixed.I(7) {
		t.Fatalf("fresh run should not kern, got %v", got)
	}
}

func TestGlyphCoverage(t *testing.T) {
	face, _, _ := BasicProvider{}.Resolve(FontSpec{})
	var g Glyph
	Layout(face, fixed.P(0, 11), "M", func(gl Glyph) { g = gl })
	inked := 0
	for y := g.Bounds.Min.Y; y < g.Bounds.Max.Y; y++ {
		for x := g.Bounds.Min.X; x < g.Bounds.Max.X; x++ {
			c := g.Coverage(x, y)
			if c < 0 || c > 1 {
				t.Fatalf("coverage %v out of range at %d,%d", c, x, y)
			}
			if c > 0 {
				inked++
			}
		}
	}
	if inked == 0 {
		t.Fatalf("glyph M has no ink")
	}
	if c := g.Coverage(g.Bounds.Max.X+3, g.Bounds.Min.Y); c != 0 {
		t.Fatalf("coverage outside bounds = %v", c)
	}
}

func TestOTProviderWithGoRegular(t *testing.T) {
	lib := NewFontLibrary()
	if err := lib.LoadBytes("go", goregular.TTF); err != nil {
		t.Fatalf("LoadBytes error: %v", err)
	}
	face, m, err := OTProvider{Lib: lib}.Resolve(FontSpec{Family: "go", Size: 32})
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	defer face.Close()
	if m.Ascent <= 0 || m.Descent <= 0 {
		t.Fatalf("unexpected metrics: %+v", m)
	}
	if m.LineHeight() < 32 {
		t.Fatalf("line height %d smaller than em size", m.LineHeight())
	}
	inked := false
	Layout(face, fixed.P(0, 40), "W", func(g Glyph) {
		for y := g.Bounds.Min.Y; y < g.Bounds.Max.Y && !inked; y++ {
			for x := g.Bounds.Min.X; x < g.Bounds.Max.X; x++ {
				if g.Coverage(x, y) > 0.5 {
					inked = true
					break
				}
			}
		}
	})
	if !inked {
		t.Fatalf("expected W to produce coverage")
	}
}

func TestOTProviderUnknownFamily(t *testing.T) {
	_, _, err := OTProvider{Lib: NewFontLibrary()}.Resolve(FontSpec{Family: "missing"})
	if !errors.Is(err, ErrFontNotLoaded) {
		t.Fatalf("expected ErrFontNotLoaded, got %v", err)
	}
}

func TestLoadTTFErrors(t *testing.T) {
	lib := NewFontLibrary()
	if err := lib.LoadTTF("x", filepath.Join(t.TempDir(), "nope.ttf")); err == nil {
		t.Fatalf("expected error for missing file")
	}
	bad := filepath.Join(t.TempDir(), "bad.ttf")
	if err := os.WriteFile(bad, []byte("not a font"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := lib.LoadTTF("x", bad); err == nil {
		t.Fatalf("expected parse error for invalid font")
	}
}
