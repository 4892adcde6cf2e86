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
	"fmt"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
)

// ErrFontNotLoaded is returned when a FontSpec names a family that was never loaded.
var ErrFontNotLoaded = errors.New("font family not loaded")

// FontLibrary stores parsed OpenType/TrueType fonts by family name.
type FontLibrary struct {
	fonts map[string]*opentype.Font
}

func NewFontLibrary() *FontLibrary { return &FontLibrary{fonts: make(map[string]*opentype.Font)} }

// LoadTTF reads and parses a font file and registers it under family.
func (fl *FontLibrary) LoadTTF(family, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read font %s: %w", path, err)
	}
	if err := fl.LoadBytes(family, data); err != nil {
		return fmt.Errorf("parse font %s: %w", path, err)
	}
	return nil
}

// LoadBytes parses an in-memory font (e.g. gofont/goregular.TTF).
func (fl *FontLibrary) LoadBytes(family string, data []byte) error {
	if fl.fonts == nil {
		fl.fonts = make(map[string]*opentype.Font)
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return err
	}
	fl.fonts[family] = f
	return nil
}

func (fl *FontLibrary) find(family string) *opentype.Font {
	if fl == nil || fl.fonts == nil {
		return nil
	}
	return fl.fonts[family]
}

// OTProvider resolves a FontSpec against a FontLibrary. Unlike a layout
// preview, a frame render has no sensible fallback face, so a missing family
// is an error.
type OTProvider struct {
	Lib *FontLibrary
	DPI float64 // default 72 if zero, making Size pixels per em
}

func (p OTProvider) Resolve(spec FontSpec) (font.Face, Metrics, error) {
	if spec.Size <= 0 {
		spec.Size = DefaultSize
	}
	dpi := p.DPI
	if dpi <= 0 {
		dpi = 72
	}
	f := p.Lib.find(spec.Family)
	if f == nil {
		return nil, Metrics{}, fmt.Errorf("%w: %q", ErrFontNotLoaded, spec.Family)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: spec.Size, DPI: dpi, Hinting: font.HintingFull})
	if err != nil {
		return nil, Metrics{}, fmt.Errorf("new face %q at %.1f: %w", spec.Family, spec.Size, err)
	}
	return face, MetricsOf(face), nil
}
