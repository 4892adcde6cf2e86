/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package markup

import "strings"

// scanState is the position of the scanner inside the escape micro-protocol.
type scanState int

const (
	stateNormal scanState = iota
	stateAfterEscape
	stateInCommandBody
)

type scanner struct {
	src    []rune
	pos    int
	state  scanState
	cmd    rune
	cmdAt  int
	body   strings.Builder
	tokens []Token
}

// Scan converts markup text into its token stream. Any input is accepted
// except commands with malformed bodies, which yield a *SyntaxError and no
// tokens. A command whose terminating escape is missing runs to end of input.
func Scan(text string) ([]Token, error) {
	s := &scanner{src: []rune(text), tokens: make([]Token, 0, len(text))}
	for {
		done, err := s.step()
		if err != nil {
			return nil, err
		}
		if done {
			return s.tokens, nil
		}
	}
}

// MustScan is Scan for literals known to be well formed.
func MustScan(text string) []Token {
	toks, err := Scan(text)
	if err != nil {
		panic(err)
	}
	return toks
}

func (s *scanner) peek() (rune, bool) {
	if s.pos >= len(s.src) {
		return 0, false
	}
	return s.src[s.pos], true
}

func (s *scanner) next() (rune, bool) {
	r, ok := s.peek()
	if ok {
		s.pos++
	}
	return r, ok
}

func (s *scanner) emit(t Token) { s.tokens = append(s.tokens, t) }

// step performs one state transition and reports whether input is exhausted.
func (s *scanner) step() (bool, error) {
	switch s.state {
	case stateAfterEscape:
		r, ok := s.peek()
		switch {
		case ok && (r == CmdColor || r == CmdPause || r == CmdInstant):
			s.pos++
			s.next() // separator, conventionally ':'
			s.cmd = r
			s.body.Reset()
			s.state = stateInCommandBody
		default:
			// Not a command: the escape stands for itself and whatever
			// follows is scanned from scratch.
			s.emit(Char(Escape))
			s.state = stateNormal
		}
		return false, nil

	case stateInCommandBody:
		r, ok := s.next()
		if ok && r != Escape {
			s.body.WriteRune(r)
			return false, nil
		}
		if err := s.finishCommand(); err != nil {
			return false, err
		}
		s.state = stateNormal
		return false, nil

	default:
		r, ok := s.next()
		if !ok {
			return true, nil
		}
		switch r {
		case '\n':
			s.emit(Newline())
		case Escape:
			s.cmdAt = s.pos - 1
			s.state = stateAfterEscape
		default:
			s.emit(Char(r))
		}
		return false, nil
	}
}

func (s *scanner) finishCommand() error {
	body := s.body.String()
	fail := func(err error) error {
		return &SyntaxError{Command: s.cmd, Offset: s.cmdAt, Body: body, Err: err}
	}
	switch s.cmd {
	case CmdColor:
		c, err := ResolveColor(body)
		if err != nil {
			return fail(err)
		}
		s.emit(ColorStart(c))
	case CmdPause:
		n, err := parsePause(body)
		if err != nil {
			return fail(err)
		}
		s.emit(Pause(n))
	case CmdInstant:
		s.emit(Instant(body))
	}
	return nil
}
