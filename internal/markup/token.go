/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package markup scans BiOS boot-screen markup into a token stream.
//
// The language is plain text plus a handful of inline commands introduced by
// the escape rune '§':
//
//	§c:red§          switch the draw color (reset|red|green|blue or R,G,B[,A])
//	§p:30§           hold the current picture for 30 frames
//	§i:READY.§       type a whole string in a single animation step
//
// The escape rune doubles as the command terminator. An escape that is not
// followed by a command letter is kept as a literal character.
package markup

import (
	"fmt"
	"image/color"
	"strconv"
)

// Escape introduces and terminates inline commands.
const Escape = '§'

// Command letters recognized after Escape.
const (
	CmdColor   = 'c'
	CmdPause   = 'p'
	CmdInstant = 'i'
)

// Kind tags the variant held by a Token.
type Kind int

const (
	KindChar Kind = iota
	KindInstant
	KindColor
	KindPause
	KindNewline
)

func (k Kind) String() string {
	switch k {
	case KindChar:
		return "char"
	case KindInstant:
		return "instant"
	case KindColor:
		return "color"
	case KindPause:
		return "pause"
	case KindNewline:
		return "newline"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Token is one atomic unit of parsed markup. Only the field matching Kind is
// meaningful. Tokens are values and are never mutated after scanning.
type Token struct {
	Kind   Kind
	Rune   rune       // KindChar
	Text   string     // KindInstant
	Color  color.RGBA // KindColor
	Frames int        // KindPause
}

func Char(r rune) Token { return Token{Kind: KindChar, Rune: r} }
func Instant(s string) Token { return Token{Kind: KindInstant, Text: s} }
func ColorStart(c color.RGBA) Token { return Token{Kind: KindColor, Color: c} }
func Pause(n int) Token { return Token{Kind: KindPause, Frames: n} }
func Newline() Token { return Token{Kind: KindNewline} }

// Visible reports whether the token puts glyphs on the canvas.
func (t Token) Visible() bool { return t.Kind == KindChar || t.Kind == KindInstant }

func (t Token) String() string {
	switch t.Kind {
	case KindChar:
		return fmt.Sprintf("Char(%q)", t.Rune)
	case KindInstant:
		return fmt.Sprintf("Instant(%q)", t.Text)
	case KindColor:
		return fmt.Sprintf("ColorStart(%d,%d,%d,%d)", t.Color.R, t.Color.G, t.Color.B, t.Color.A)
	case KindPause:
		return fmt.Sprintf("Pause(%d)", t.Frames)
	case KindNewline:
		return "Newline"
	default:
		return t.Kind.String()
	}
}
