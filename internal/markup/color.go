/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package markup

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

var (
	ErrEmptyBody      = errors.New("empty command body")
	ErrUnknownColor   = errors.New("unknown color name (want reset, red, green or blue)")
	ErrComponentCount = errors.New("color needs 3 or 4 comma-separated components")
	ErrComponentRange = errors.New("color component must be an integer in 0..255")
	ErrPauseCount     = errors.New("pause must be a non-negative decimal integer")
)

var namedColors = map[string]color.RGBA{
	"reset": {R: 255, G: 255, B: 255, A: 255},
	"red":   {R: 255, A: 255},
	"green": {G: 255, A: 255},
	"blue":  {B: 255, A: 255},
}

// ResolveColor maps the body of a §c command to a color. A body containing a
// comma is always read as a component list; anything else must be a known name.
func ResolveColor(body string) (color.RGBA, error) {
	if body == "" {
		return color.RGBA{}, ErrEmptyBody
	}
	if !strings.Contains(body, ",") {
		c, ok := namedColors[body]
		if !ok {
			return color.RGBA{}, fmt.Errorf("%w: %q", ErrUnknownColor, body)
		}
		return c, nil
	}

	parts := strings.Split(body, ",")
	if len(parts) != 3 && len(parts) != 4 {
		return color.RGBA{}, fmt.Errorf("%w: got %d", ErrComponentCount, len(parts))
	}
	comp := [4]uint8{255, 255, 255, 255}
	for i, p := range parts {
		v, err := strconv.ParseUint(p, 10, 8)
		if err != nil {
			return color.RGBA{}, fmt.Errorf("%w: component %d is %q", ErrComponentRange, i+1, p)
		}
		comp[i] = uint8(v)
	}
	return color.RGBA{R: comp[0], G: comp[1], B: comp[2], A: comp[3]}, nil
}

func parsePause(body string) (int, error) {
	if body == "" {
		return 0, ErrEmptyBody
	}
	// ParseInt alone would let "+5" and "-0" through.
	if body[0] < '0' || body[0] > '9' {
		return 0, fmt.Errorf("%w: %q", ErrPauseCount, body)
	}
	n, err := strconv.ParseInt(body, 10, strconv.IntSize)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrPauseCount, body)
	}
	return int(n), nil
}

// SyntaxError reports a command whose body could not be interpreted.
type SyntaxError struct {
	Command rune // command letter following the escape
	Offset  int  // rune offset of the opening escape
	Body    string
	Err     error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("markup: §%c command at rune %d (body %q): %v", e.Command, e.Offset, e.Body, e.Err)
}

func (e *SyntaxError) Unwrap() error { return e.Err }
