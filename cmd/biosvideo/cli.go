/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"time"

	"github.com/alecthomas/kong"

	"biosvideo/internal/version"
)

// CLI defines the command-line interface.
type CLI struct {
	Render  RenderCmd  `cmd:"" default:"withargs" help:"Render the markup file to frames and a video"`
	Scan    ScanCmd    `cmd:"" help:"Print the tokens of a markup file"`
	Watch   WatchCmd   `cmd:"" help:"Re-render whenever the input file changes"`
	Version VersionCmd `cmd:"" help:"Show version information"`
}

// RenderFlags override the config file and BIOS_* env for a single run.
type RenderFlags struct {
	Config     string  `short:"c" type:"path" help:"Config file path"`
	Input      string  `short:"i" type:"path" help:"Markup input file"`
	Output     string  `short:"o" type:"path" help:"Video output file"`
	Font       string  `type:"path" help:"TrueType/OpenType font file"`
	Scale      float64 `help:"Font size in pixels per em"`
	Format     string  `help:"Frame image format (bmp, png)"`
	KeepFrames bool    `help:"Keep the frames directory after encoding"`
	NoEncode   bool    `help:"Only write frames, do not run the encoder"`
}

// RenderCmd runs one render.
type RenderCmd struct {
	Flags RenderFlags `embed:""`
}

// ScanCmd prints the token stream of a markup file.
type ScanCmd struct {
	File     string `arg:"" type:"existingfile" help:"Markup file"`
	Encoding string `short:"e" default:"utf-8" help:"Input encoding (WHATWG label)"`
	NFC      bool   `name:"nfc" help:"Compose the text (Unicode NFC) before scanning"`
}

// WatchCmd renders on every change of the input file.
type WatchCmd struct {
	Flags    RenderFlags   `embed:""`
	Debounce time.Duration `default:"150ms" help:"Quiet period before re-rendering"`
}

// VersionCmd shows version information.
type VersionCmd struct{}

// kongVars returns variables for kong (version info).
func kongVars() kong.Vars {
	return kong.Vars{
		"version": version.String(),
	}
}
