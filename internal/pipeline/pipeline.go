/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package pipeline runs a whole render: read the markup file, scan it, load
// the font, write one image per frame and hand the sequence to the encoder.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"biosvideo/internal/config"
	"biosvideo/internal/export"
	applog "biosvideo/internal/log"
	"biosvideo/internal/markup"
	"biosvideo/internal/render"
	"biosvideo/internal/textlayout"
)

// fontFamily is the library key the configured font file is registered under.
const fontFamily = "main"

// Result summarizes a finished run.
type Result struct {
	RunID     string
	Tokens    int
	Frames    int
	FramesDir string // empty once the frames were removed
	Video     string // empty when encoding was skipped
	Overflow  []int  // zero-based lines wider than the canvas
	Elapsed   time.Duration
}

// NewRunID returns a fresh identifier for log correlation.
func NewRunID() string { return uuid.NewString() }

// Run executes every stage for cfg. Failures are returned as *StageError.
// The frames directory is removed after the run unless KeepFrames is set,
// including when an earlier stage failed.
func Run(ctx context.Context, cfg config.AppConfig, runID string) (res Result, err error) {
	if runID == "" {
		runID = NewRunID()
	}
	ctx = applog.ContextWithRun(ctx, runID)
	at := func(s Stage) context.Context { return applog.ContextWithStage(ctx, string(s)) }
	l := applog.WithComponent("pipeline")
	start := time.Now()
	res.RunID = runID

	if err := cfg.Validate(); err != nil {
		return res, fail(StageConfig, err)
	}

	text, err := ReadInput(cfg.Input)
	if err != nil {
		return res, fail(StageRead, err)
	}
	tokens, err := markup.Scan(text)
	if err != nil {
		return res, fail(StageScan, err)
	}
	res.Tokens = len(tokens)
	l.InfoContext(at(StageScan), "markup scanned", slog.String("input", cfg.Input.Path), slog.Int("tokens", len(tokens)))

	lib := textlayout.NewFontLibrary()
	if err := lib.LoadTTF(fontFamily, cfg.Font.Path); err != nil {
		return res, fail(StageFont, err)
	}
	face, metrics, err := textlayout.OTProvider{Lib: lib}.Resolve(textlayout.FontSpec{Family: fontFamily, Size: cfg.Font.Scale})
	if err != nil {
		return res, fail(StageFont, err)
	}
	defer face.Close()

	format, err := export.ParseFormat(cfg.Output.Format)
	if err != nil {
		return res, fail(StagePrepare, err)
	}
	if err := os.MkdirAll(cfg.Output.Dir, 0o755); err != nil {
		return res, fail(StagePrepare, fmt.Errorf("ensure output dir: %w", err))
	}
	sink, err := export.NewDirSink(cfg.Output.FramesPath(), format)
	if err != nil {
		return res, fail(StagePrepare, err)
	}
	res.FramesDir = sink.Dir
	if !cfg.Output.KeepFrames {
		defer func() {
			if rmErr := sink.Remove(); rmErr != nil {
				err = errors.Join(err, fail(StageCleanup, rmErr))
				return
			}
			res.FramesDir = ""
		}()
	}

	comp := render.NewCompositor(face, metrics, render.Options{
		Width:    cfg.Canvas.Width,
		Height:   cfg.Canvas.Height,
		PaddingX: cfg.Canvas.PaddingX,
		PaddingY: cfg.Canvas.PaddingY,
	})
	res.Overflow = comp.Overflowing(tokens)
	for _, line := range res.Overflow {
		l.WarnContext(at(StageRender), "line wider than canvas, clipped", slog.Int("line", line+1))
	}

	anim := render.NewAnimator(tokens, comp, sink, applog.WithComponent("render"))
	frames, err := anim.Run()
	res.Frames = frames
	if err != nil {
		return res, fail(StageRender, err)
	}
	l.InfoContext(at(StageRender), "frames written", slog.Int("frames", frames), slog.String("dir", sink.Dir), slog.String("format", string(format)))

	if !cfg.Encoder.Skip {
		if err := encode(at(StageEncode), cfg.Encoder, sink, cfg.Output.VideoPath()); err != nil {
			return res, fail(StageEncode, err)
		}
		res.Video = cfg.Output.VideoPath()
	}

	res.Elapsed = time.Since(start)
	l.InfoContext(ctx, "run complete", slog.Int("frames", frames), slog.String("video", res.Video), slog.Duration("elapsed", res.Elapsed))
	return res, nil
}

func encode(ctx context.Context, ec config.EncoderConfig, sink *export.DirSink, output string) error {
	if sink.Count() == 0 {
		return errors.New("no frames to encode")
	}
	enc, err := export.NewEncoder(export.EncoderOptions{
		Binary:      ec.Binary,
		FrameRate:   ec.FrameRate,
		TimeStretch: ec.TimeStretch,
		Preset:      ec.Preset,
		Codec:       ec.Codec,
		PixFmt:      ec.PixFmt,
	})
	if err != nil {
		return err
	}
	return enc.Encode(ctx, sink.InputPattern(), filepath.Clean(output))
}
