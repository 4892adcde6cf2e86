/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"biosvideo/internal/config"
	"biosvideo/internal/crash"
	applog "biosvideo/internal/log"
	"biosvideo/internal/markup"
	"biosvideo/internal/pipeline"
	"biosvideo/internal/version"
)

// resolve loads the config and applies the command-line overrides on top.
func (f RenderFlags) resolve() (config.AppConfig, error) {
	cfg, err := config.Load(f.Config)
	if err != nil {
		return cfg, err
	}
	if f.Input != "" {
		cfg.Input.Path = f.Input
	}
	if f.Output != "" {
		// An explicit output path is taken as given, not joined with output.dir.
		abs, err := filepath.Abs(f.Output)
		if err != nil {
			return cfg, err
		}
		cfg.Output.File = abs
	}
	if f.Font != "" {
		cfg.Font.Path = f.Font
	}
	if f.Scale > 0 {
		cfg.Font.Scale = f.Scale
	}
	if f.Format != "" {
		cfg.Output.Format = strings.ToLower(f.Format)
	}
	if f.KeepFrames {
		cfg.Output.KeepFrames = true
	}
	if f.NoEncode {
		cfg.Encoder.Skip = true
	}
	return cfg, nil
}

// initLogging re-initializes logging from the resolved config. Env values
// were already merged by config.Load.
func initLogging(cfg config.AppConfig) {
	applog.Init(applog.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.Source,
		File:      cfg.Logging.File,
	})
}

func (c *RenderCmd) Run(info *crash.Info) error {
	cfg, err := c.Flags.resolve()
	if err != nil {
		return err
	}
	initLogging(cfg)

	runID := pipeline.NewRunID()
	*info = crash.Info{RunID: runID, Input: cfg.Input.Path, OutputDir: cfg.Output.Dir}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := pipeline.Run(ctx, cfg, runID)
	if err != nil {
		return reportFailure(err)
	}
	printResult(os.Stdout, res)
	return nil
}

func (c *ScanCmd) Run() error {
	text, err := pipeline.ReadInput(config.InputConfig{Path: c.File, Encoding: c.Encoding, NFC: c.NFC})
	if err != nil {
		return err
	}
	tokens, err := markup.Scan(text)
	if err != nil {
		return err
	}
	return printTokens(os.Stdout, tokens)
}

func (c *WatchCmd) Run(info *crash.Info) error {
	cfg, err := c.Flags.resolve()
	if err != nil {
		return err
	}
	initLogging(cfg)
	*info = crash.Info{Input: cfg.Input.Path, OutputDir: cfg.Output.Dir}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("Watching %s (Ctrl+C to stop)\n", cfg.Input.Path)
	return pipeline.Watch(ctx, cfg, c.Debounce, func(res pipeline.Result, err error) {
		if err != nil {
			_ = reportFailure(err)
			return
		}
		printResult(os.Stdout, res)
	})
}

func (c *VersionCmd) Run() error {
	fmt.Println("BiOS Video")
	fmt.Println(version.String())
	return nil
}

// reportFailure logs err with its stage and returns it for kong to print.
func reportFailure(err error) error {
	stage := pipeline.StageOf(err)
	applog.WithComponent("cli").Error("render failed", slog.String("stage", string(stage)), slog.Any("err", err))
	if stage == "" {
		return err
	}
	return fmt.Errorf("%s stage failed: %w", stage, err)
}

func printResult(w io.Writer, res pipeline.Result) {
	fmt.Fprintf(w, "Rendered %d tokens into %d frames in %s\n", res.Tokens, res.Frames, res.Elapsed.Round(time.Millisecond))
	if res.FramesDir != "" {
		fmt.Fprintln(w, "Frames:", res.FramesDir)
	}
	if res.Video != "" {
		fmt.Fprintln(w, "Video:", res.Video)
	}
	for _, line := range res.Overflow {
		fmt.Fprintf(w, "Warning: line %d is wider than the canvas and was clipped\n", line+1)
	}
}

func printTokens(w io.Writer, tokens []markup.Token) error {
	frames := 0
	for i, t := range tokens {
		if _, err := fmt.Fprintf(w, "%4d  %s\n", i, t); err != nil {
			return err
		}
		if t.Kind == markup.KindPause {
			frames += t.Frames
		} else {
			frames++
		}
	}
	_, err := fmt.Fprintf(w, "%d tokens, %d frames\n", len(tokens), frames)
	return err
}
