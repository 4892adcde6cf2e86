/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"strings"
)

// PresetName represents a named encoder preset.
type PresetName string

const (
	PresetWeb      PresetName = "web"
	PresetLossless PresetName = "lossless"
)

// Preset bundles the codec settings for one kind of output.
type Preset struct {
	Codec     string
	PixFmt    string
	ExtraArgs []string
}

var presets = map[PresetName]Preset{
	// Plays in browsers and most players.
	PresetWeb: {Codec: "libx264", PixFmt: "yuv420p"},
	// Keeps the exact frame colors; larger files, limited player support.
	PresetLossless: {Codec: "libx264rgb", PixFmt: "rgb24", ExtraArgs: []string{"-crf", "0"}},
}

// LookupPreset returns the preset with the given name; empty means web.
func LookupPreset(name string) (Preset, error) {
	n := PresetName(strings.ToLower(strings.TrimSpace(name)))
	if n == "" {
		n = PresetWeb
	}
	p, ok := presets[n]
	if !ok {
		return Preset{}, fmt.Errorf("unknown encoder preset %q", name)
	}
	return p, nil
}
