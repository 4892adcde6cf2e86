/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/kong"

	"biosvideo/internal/markup"
	"biosvideo/internal/pipeline"
)

func newParser(t *testing.T, cli *CLI) *kong.Kong {
	t.Helper()
	parser, err := kong.New(cli, kongVars())
	if err != nil {
		t.Fatal(err)
	}
	return parser
}

func TestRenderCmd_Flags(t *testing.T) {
	var cli CLI
	parser := newParser(t, &cli)
	ctx, err := parser.Parse([]string{"render", "-i", "intro.txt", "--font", "f.ttf", "--scale", "24", "--no-encode", "--keep-frames", "--format", "png"})
	if err != nil {
		t.Fatal(err)
	}
	if ctx.Command() != "render" {
		t.Errorf("command = %q", ctx.Command())
	}
	f := cli.Render.Flags
	if filepath.Base(f.Input) != "intro.txt" || filepath.Base(f.Font) != "f.ttf" {
		t.Errorf("paths = %q %q", f.Input, f.Font)
	}
	if f.Scale != 24 || !f.NoEncode || !f.KeepFrames || f.Format != "png" {
		t.Errorf("flags = %+v", f)
	}
}

func TestRenderCmd_IsDefault(t *testing.T) {
	var cli CLI
	parser := newParser(t, &cli)
	ctx, err := parser.Parse([]string{"--no-encode"})
	if err != nil {
		t.Fatal(err)
	}
	if ctx.Command() != "render" {
		t.Errorf("command = %q, want render", ctx.Command())
	}
	if !cli.Render.Flags.NoEncode {
		t.Errorf("expected --no-encode to be set")
	}
}

func TestWatchCmd_Debounce(t *testing.T) {
	var cli CLI
	parser := newParser(t, &cli)
	if _, err := parser.Parse([]string{"watch"}); err != nil {
		t.Fatal(err)
	}
	if cli.Watch.Debounce != 150*time.Millisecond {
		t.Errorf("default debounce = %v", cli.Watch.Debounce)
	}

	cli = CLI{}
	parser = newParser(t, &cli)
	if _, err := parser.Parse([]string{"watch", "--debounce", "1s", "-c", "cfg.yaml"}); err != nil {
		t.Fatal(err)
	}
	if cli.Watch.Debounce != time.Second || filepath.Base(cli.Watch.Flags.Config) != "cfg.yaml" {
		t.Errorf("watch = %+v", cli.Watch)
	}
}

func TestScanCmd_RequiresExistingFile(t *testing.T) {
	var cli CLI
	parser := newParser(t, &cli)
	if _, err := parser.Parse([]string{"scan", filepath.Join(t.TempDir(), "missing.txt")}); err == nil {
		t.Fatal("expected error for missing file")
	}

	p := filepath.Join(t.TempDir(), "in.txt")
	if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	cli = CLI{}
	parser = newParser(t, &cli)
	if _, err := parser.Parse([]string{"scan", p}); err != nil {
		t.Fatal(err)
	}
	if cli.Scan.Encoding != "utf-8" {
		t.Errorf("default encoding = %q", cli.Scan.Encoding)
	}
}

func TestRenderFlags_Resolve(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("BIOS_CONFIG", "")
	f := RenderFlags{Input: "a.txt", Output: "clip.mp4", Scale: 20, Format: "PNG", NoEncode: true}
	cfg, err := f.resolve()
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.Input.Path != "a.txt" || cfg.Font.Scale != 20 || cfg.Output.Format != "png" || !cfg.Encoder.Skip {
		t.Fatalf("cfg = %+v", cfg)
	}
	if !filepath.IsAbs(cfg.Output.File) || cfg.Output.VideoPath() != cfg.Output.File {
		t.Fatalf("output should be absolute and used as is, got %q", cfg.Output.VideoPath())
	}
	if cfg.Output.KeepFrames {
		t.Fatalf("keep frames should keep its default")
	}
}

func TestPrintTokens(t *testing.T) {
	var buf bytes.Buffer
	if err := printTokens(&buf, markup.MustScan("a§p:3§\nb")); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "Pause(3)") {
		t.Errorf("missing pause token:\n%s", out)
	}
	if !strings.HasSuffix(out, "4 tokens, 6 frames\n") {
		t.Errorf("unexpected summary:\n%s", out)
	}
}

func TestReportFailureNamesStage(t *testing.T) {
	err := reportFailure(&pipeline.StageError{Stage: pipeline.StageEncode, Err: os.ErrNotExist})
	if !strings.HasPrefix(err.Error(), "encode stage failed") {
		t.Errorf("error = %q", err)
	}
}
