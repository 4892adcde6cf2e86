/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	applog "biosvideo/internal/log"
)

// ErrEncoderNotFound is returned when the encoder binary is not on PATH.
var ErrEncoderNotFound = errors.New("encoder binary not found")

// EncoderOptions controls the ffmpeg invocation. Zero values fall back to the
// defaults: 60 fps, 4x time stretch, the web preset.
type EncoderOptions struct {
	Binary      string
	FrameRate   int
	TimeStretch float64 // multiplies presentation timestamps (setpts)
	Preset      string
	Codec       string // overrides the preset codec when set
	PixFmt      string // overrides the preset pixel format when set
}

// Encoder assembles a numbered frame sequence into a video file.
type Encoder struct {
	opts   EncoderOptions
	preset Preset
}

func NewEncoder(opts EncoderOptions) (*Encoder, error) {
	if opts.Binary == "" {
		opts.Binary = "ffmpeg"
	}
	if opts.FrameRate <= 0 {
		opts.FrameRate = 60
	}
	if opts.TimeStretch <= 0 {
		opts.TimeStretch = 4
	}
	p, err := LookupPreset(opts.Preset)
	if err != nil {
		return nil, err
	}
	if opts.Codec != "" {
		p.Codec = opts.Codec
	}
	if opts.PixFmt != "" {
		p.PixFmt = opts.PixFmt
	}
	return &Encoder{opts: opts, preset: p}, nil
}

// Args returns the encoder arguments for input pattern and output file.
func (e *Encoder) Args(inputPattern, output string) []string {
	args := []string{
		"-y",
		"-framerate", strconv.Itoa(e.opts.FrameRate),
		"-i", inputPattern,
		"-vf", "setpts=" + strconv.FormatFloat(e.opts.TimeStretch, 'f', -1, 64) + "*PTS",
		"-c:v", e.preset.Codec,
		"-pix_fmt", e.preset.PixFmt,
	}
	args = append(args, e.preset.ExtraArgs...)
	return append(args, output)
}

// Encode runs the encoder and waits for it. The encoder's own output is
// captured and included in the error on failure.
func (e *Encoder) Encode(ctx context.Context, inputPattern, output string) error {
	l := applog.WithOperation(applog.WithComponent("export"), "encode")
	bin, err := exec.LookPath(e.opts.Binary)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrEncoderNotFound, e.opts.Binary)
	}
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return fmt.Errorf("ensure output dir: %w", err)
	}
	args := e.Args(inputPattern, output)
	l.DebugContext(ctx, "run encoder", slog.String("bin", bin), slog.String("args", strings.Join(args, " ")))

	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s failed: %w\n%s", e.opts.Binary, err, tail(out.String(), 20))
	}
	l.InfoContext(ctx, "video written", slog.String("path", output))
	return nil
}

// tail keeps the last n lines of s.
func tail(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
