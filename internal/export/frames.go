/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export persists rendered frames and assembles them into a video.
package export

import (
	"bufio"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
)

// Format is the image file format used for frames on disk.
type Format string

const (
	FormatBMP Format = "bmp"
	FormatPNG Format = "png"
)

// ParseFormat normalizes a format name; empty means BMP.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatBMP, nil
	case FormatBMP, FormatPNG:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported frame format %q (want bmp or png)", s)
	}
}

// framePattern is the printf pattern shared by DirSink file names and the
// encoder's image2 input.
const framePattern = "frame_%05d"

// DirSink writes each frame to <Dir>/frame_NNNNN.<ext>.
type DirSink struct {
	Dir    string
	Format Format
	count  int
	pngEnc png.Encoder
}

// NewDirSink creates dir if needed.
func NewDirSink(dir string, format Format) (*DirSink, error) {
	if format == "" {
		format = FormatBMP
	}
	if _, err := ParseFormat(string(format)); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure frames dir: %w", err)
	}
	// Frames are temporary; speed matters more than size.
	return &DirSink{Dir: dir, Format: format, pngEnc: png.Encoder{CompressionLevel: png.BestSpeed}}, nil
}

// Path returns the file name used for frame index.
func (s *DirSink) Path(index int) string {
	return filepath.Join(s.Dir, fmt.Sprintf(framePattern, index)+"."+string(s.Format))
}

// InputPattern is the ffmpeg image2 pattern matching every written frame.
func (s *DirSink) InputPattern() string {
	return filepath.Join(s.Dir, framePattern+"."+string(s.Format))
}

// Count is the number of frames written so far.
func (s *DirSink) Count() int { return s.count }

func (s *DirSink) WriteFrame(index int, frame *image.RGBA) error {
	name := s.Path(index)
	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("create frame: %w", err)
	}
	w := bufio.NewWriter(f)
	switch s.Format {
	case FormatPNG:
		err = s.pngEnc.Encode(w, frame)
	default:
		err = bmp.Encode(w, frame)
	}
	if err == nil {
		err = w.Flush()
	}
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("encode %s: %w", s.Format, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close frame: %w", err)
	}
	s.count++
	return nil
}

// Remove deletes the frames directory and everything in it.
func (s *DirSink) Remove() error {
	if err := os.RemoveAll(s.Dir); err != nil {
		return fmt.Errorf("remove frames dir: %w", err)
	}
	return nil
}
