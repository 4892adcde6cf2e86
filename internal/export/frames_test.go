/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/bmp"
)

func testFrame() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 8, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 8; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x * 30), G: uint8(y * 60), B: 7, A: 255})
		}
	}
	return img
}

func sameImage(t *testing.T, got image.Image, want *image.RGBA) {
	t.Helper()
	if got.Bounds() != want.Bounds() {
		t.Fatalf("bounds = %v, want %v", got.Bounds(), want.Bounds())
	}
	for y := 0; y < want.Rect.Dy(); y++ {
		for x := 0; x < want.Rect.Dx(); x++ {
			r1, g1, b1, a1 := got.At(x, y).RGBA()
			r2, g2, b2, a2 := want.At(x, y).RGBA()
			if r1 != r2 || g1 != g2 || b1 != b2 || a1 != a2 {
				t.Fatalf("pixel %d,%d differs", x, y)
			}
		}
	}
}

func TestDirSinkWritesBMP(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "frames")
	s, err := NewDirSink(dir, "")
	if err != nil {
		t.Fatalf("NewDirSink: %v", err)
	}
	frame := testFrame()
	if err := s.WriteFrame(7, frame); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	if got, want := s.Path(7), filepath.Join(dir, "frame_00007.bmp"); got != want {
		t.Fatalf("Path = %q, want %q", got, want)
	}
	f, err := os.Open(s.Path(7))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	img, err := bmp.Decode(f)
	if err != nil {
		t.Fatalf("decode bmp: %v", err)
	}
	sameImage(t, img, frame)
	if s.Count() != 1 {
		t.Fatalf("Count = %d", s.Count())
	}
	if got, want := s.InputPattern(), filepath.Join(dir, "frame_%05d.bmp"); got != want {
		t.Fatalf("InputPattern = %q, want %q", got, want)
	}
}

func TestDirSinkWritesPNG(t *testing.T) {
	s, err := NewDirSink(t.TempDir(), FormatPNG)
	if err != nil {
		t.Fatalf("NewDirSink: %v", err)
	}
	frame := testFrame()
	if err := s.WriteFrame(0, frame); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	f, err := os.Open(s.Path(0))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	sameImage(t, img, frame)
}

func TestDirSinkRemove(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "frames")
	s, err := NewDirSink(dir, FormatBMP)
	if err != nil {
		t.Fatalf("NewDirSink: %v", err)
	}
	if err := s.WriteFrame(0, testFrame()); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	if err := s.Remove(); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Fatalf("frames dir still present: %v", err)
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatBMP, "BMP": FormatBMP, " png ": FormatPNG} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("gif"); err == nil {
		t.Fatalf("expected error for gif")
	}
	if _, err := NewDirSink(t.TempDir(), "tiff"); err == nil {
		t.Fatalf("expected NewDirSink to reject tiff")
	}
}
