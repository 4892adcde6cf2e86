/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import (
	"image"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// Glyph is one rune positioned on the destination canvas. Bounds is in canvas
// pixels; Mask holds coverage with Bounds.Min mapped to MaskOrigin.
type Glyph struct {
	Rune       rune
	Bounds     image.Rectangle
	Mask       image.Image
	MaskOrigin image.Point
	Advance    fixed.Int26_6
}

// Coverage returns the glyph's ink coverage in [0,1] at canvas pixel (x, y).
// Pixels outside Bounds have no coverage.
func (g Glyph) Coverage(x, y int) float32 {
	if g.Mask == nil || !(image.Point{X: x, Y: y}).In(g.Bounds) {
		return 0
	}
	mx := g.MaskOrigin.X + x - g.Bounds.Min.X
	my := g.MaskOrigin.Y + y - g.Bounds.Min.Y
	if a, ok := g.Mask.(*image.Alpha); ok {
		return float32(a.AlphaAt(mx, my).A) / 0xff
	}
	_, _, _, a := g.Mask.At(mx, my).RGBA()
	return float32(a) / 0xffff
}

// Layout places the runes of s left to right starting at dot (dot.Y is the
// baseline) and calls fn for each glyph the face can produce. Kerning is
// applied between consecutive runes of s. It returns the pen advance, i.e.
// the final pen x minus dot.X. fn may be nil to only measure.
//
// The mask handed to fn may be reused by the face on the next call; fn must
// consume it before returning.
func Layout(face font.Face, dot fixed.Point26_6, s string, fn func(Glyph)) fixed.Int26_6 {
	return LayoutAfter(face, dot, -1, s, fn)
}

// LayoutAfter is Layout for text that continues a run ending in prev, so the
// pair (prev, first rune of s) is kerned too. A negative prev starts a fresh
// run. The returned advance includes that kern.
func LayoutAfter(face font.Face, dot fixed.Point26_6, prev rune, s string, fn func(Glyph)) fixed.Int26_6 {
	start := dot.X
	for _, r := range s {
		if prev >= 0 {
			dot.X += face.Kern(prev, r)
		}
		dr, mask, maskp, adv, ok := face.Glyph(dot, r)
		if !ok {
			// No glyph and no replacement: advance like the face would.
			adv, _ = face.GlyphAdvance(r)
		} else if fn != nil && !dr.Empty() {
			fn(Glyph{Rune: r, Bounds: dr, Mask: mask, MaskOrigin: maskp, Advance: adv})
		}
		dot.X += adv
		prev = r
	}
	return dot.X - start
}
