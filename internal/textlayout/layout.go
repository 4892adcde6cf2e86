/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

// Font resolution and vertical metrics for single-line, left-to-right
// terminal text. No shaping, wrapping or bidi is attempted; kerning is
// whatever the face reports.

import (
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// DefaultSize is the pixel size used when a FontSpec leaves Size unset.
const DefaultSize = 32

// FontSpec describes a requested font.
type FontSpec struct {
	Family string  // name the font was registered under
	Size   float64 // pixels per em at 72 DPI
}

// Metrics provides font metrics in pixels for the resolved face.
// Descent is positive, measured downward from the baseline.
type Metrics struct {
	Ascent, Descent, LineGap float32
}

// LineHeight is the distance between consecutive baselines, rounded up to
// whole pixels.
func (m Metrics) LineHeight() int {
	return int(math.Ceil(float64(m.Ascent + m.Descent + m.LineGap)))
}

// Provider maps FontSpec to a concrete font.Face.
type Provider interface {
	Resolve(FontSpec) (font.Face, Metrics, error)
}

// MetricsOf converts a face's fixed-point metrics to pixels.
func MetricsOf(face font.Face) Metrics {
	m := face.Metrics()
	gap := m.Height - m.Ascent - m.Descent
	if gap < 0 {
		gap = 0
	}
	return Metrics{
		Ascent:  fixedToFloat(m.Ascent),
		Descent: fixedToFloat(m.Descent),
		LineGap: fixedToFloat(gap),
	}
}

func fixedToFloat(v fixed.Int26_6) float32 { return float32(v) / 64 }

// BasicProvider uses x/image/basicfont Face7x13 for deterministic tests.
type BasicProvider struct{}

func (BasicProvider) Resolve(FontSpec) (font.Face, Metrics, error) {
	f := basicfont.Face7x13
	return f, MetricsOf(f), nil
}
