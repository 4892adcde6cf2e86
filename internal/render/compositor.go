/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package render replays a BiOS token stream as a sequence of frames.
//
// A Compositor turns a token prefix into a complete picture; an Animator walks
// the token stream one token at a time and hands every frame to a FrameSink.
// Frames are always rebuilt from scratch so that a frame depends on nothing
// but its prefix and the static canvas/font configuration.
package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"unicode/utf8"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"biosvideo/internal/markup"
	"biosvideo/internal/textlayout"
)

var (
	Background   = color.RGBA{A: 255}
	DefaultColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// Options is the static canvas geometry.
type Options struct {
	Width, Height      int
	PaddingX, PaddingY int
}

// Compositor lays out and rasterizes a token prefix. It is not safe for
// concurrent use because font faces cache glyph masks internally.
type Compositor struct {
	face       font.Face
	opts       Options
	lineHeight int
	// baseline y of the last (bottom) line
	bottom int
}

func NewCompositor(face font.Face, m textlayout.Metrics, opts Options) *Compositor {
	descent := int(math.Ceil(float64(m.Descent)))
	return &Compositor{
		face:       face,
		opts:       opts,
		lineHeight: m.LineHeight(),
		bottom:     opts.Height - opts.PaddingY - descent,
	}
}

// Bounds is the canvas rectangle every frame covers.
func (c *Compositor) Bounds() image.Rectangle { return image.Rect(0, 0, c.opts.Width, c.opts.Height) }

func (c *Compositor) LineHeight() int { return c.lineHeight }

// Render returns a newly allocated frame for prefix.
func (c *Compositor) Render(prefix []markup.Token) *image.RGBA {
	dst := image.NewRGBA(c.Bounds())
	c.RenderInto(dst, prefix)
	return dst
}

// RenderInto redraws dst from scratch for prefix. dst must have the
// compositor's bounds.
func (c *Compositor) RenderInto(dst *image.RGBA, prefix []markup.Token) {
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: Background}, image.Point{}, draw.Src)
	active := DefaultColor

	lines := 1
	for _, t := range prefix {
		if t.Kind == markup.KindNewline {
			lines++
		}
	}

	line := 0
	pen := fixed.I(c.opts.PaddingX)
	baseline := c.baseline(lines - 1)
	// Last rune drawn on the current line. Kerning spans token boundaries so
	// typed characters and an instant run of the same text line up.
	prev := rune(-1)
	for _, t := range prefix {
		switch t.Kind {
		case markup.KindNewline:
			line++
			pen = fixed.I(c.opts.PaddingX)
			baseline = c.baseline(lines - 1 - line)
			prev = -1
		case markup.KindColor:
			active = t.Color
		case markup.KindChar:
			pen += c.drawRun(dst, pen, baseline, prev, string(t.Rune), active)
			prev = t.Rune
		case markup.KindInstant:
			pen += c.drawRun(dst, pen, baseline, prev, t.Text, active)
			prev = lastRune(t.Text, prev)
		}
	}
}

// lastRune returns the final rune of s, or prev when s is empty.
func lastRune(s string, prev rune) rune {
	if r, size := utf8.DecodeLastRuneInString(s); size > 0 {
		return r
	}
	return prev
}

// baseline returns the baseline y of the line k positions above the bottom.
func (c *Compositor) baseline(k int) int { return c.bottom - k*c.lineHeight }

func (c *Compositor) drawRun(dst *image.RGBA, pen fixed.Int26_6, baseline int, prev rune, s string, col color.RGBA) fixed.Int26_6 {
	dot := fixed.Point26_6{X: pen, Y: fixed.I(baseline)}
	if baseline+c.lineHeight <= 0 {
		// Scrolled off the top; only the advance matters.
		return textlayout.LayoutAfter(c.face, dot, prev, s, nil)
	}
	return textlayout.LayoutAfter(c.face, dot, prev, s, func(g textlayout.Glyph) {
		area := g.Bounds.Intersect(dst.Rect)
		for y := area.Min.Y; y < area.Max.Y; y++ {
			for x := area.Min.X; x < area.Max.X; x++ {
				px := scale(col, g.Coverage(x, y))
				i := dst.PixOffset(x, y)
				dst.Pix[i+0] = px.R
				dst.Pix[i+1] = px.G
				dst.Pix[i+2] = px.B
				dst.Pix[i+3] = px.A
			}
		}
	})
}

// Overflowing returns the zero-based indexes of lines in tokens whose pen
// runs past the right padding. Such lines are clipped, never wrapped.
func (c *Compositor) Overflowing(tokens []markup.Token) []int {
	var out []int
	limit := fixed.I(c.opts.Width - c.opts.PaddingX)
	line := 0
	pen := fixed.I(c.opts.PaddingX)
	prev := rune(-1)
	reported := false
	for _, t := range tokens {
		switch t.Kind {
		case markup.KindNewline:
			line++
			pen = fixed.I(c.opts.PaddingX)
			prev = -1
			reported = false
			continue
		case markup.KindChar:
			pen += textlayout.LayoutAfter(c.face, fixed.Point26_6{}, prev, string(t.Rune), nil)
			prev = t.Rune
		case markup.KindInstant:
			pen += textlayout.LayoutAfter(c.face, fixed.Point26_6{}, prev, t.Text, nil)
			prev = lastRune(t.Text, prev)
		default:
			continue
		}
		if pen > limit && !reported {
			out = append(out, line)
			reported = true
		}
	}
	return out
}

// scale multiplies the color channels by coverage; the result is always opaque.
func scale(c color.RGBA, coverage float32) color.RGBA {
	ch := func(v uint8) uint8 {
		f := float32(v) * coverage
		if f < 0 {
			return 0
		}
		if f > 255 {
			return 255
		}
		return uint8(f)
	}
	return color.RGBA{R: ch(c.R), G: ch(c.G), B: ch(c.B), A: 255}
}
