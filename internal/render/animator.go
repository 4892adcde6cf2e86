/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package render

import (
	"errors"
	"fmt"
	"image"
	"log/slog"

	"biosvideo/internal/markup"
)

// ErrDone is returned by Step once every token has been consumed.
var ErrDone = errors.New("render: animation finished")

// FrameSink persists finished frames. The frame is only valid for the
// duration of the call; sinks that keep it must copy it.
type FrameSink interface {
	WriteFrame(index int, frame *image.RGBA) error
}

// FrameSinkFunc adapts a function to FrameSink.
type FrameSinkFunc func(index int, frame *image.RGBA) error

func (f FrameSinkFunc) WriteFrame(index int, frame *image.RGBA) error { return f(index, frame) }

// State of an Animator.
type State int

const (
	StateIdle State = iota
	StateStepping
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStepping:
		return "stepping"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Animator replays tokens one per step. Most tokens emit a single frame
// showing everything up to and including themselves; Pause(n) emits n copies
// of the current picture. tokenIndex and frameIndex only ever grow.
type Animator struct {
	tokens []markup.Token
	comp   *Compositor
	sink   FrameSink
	canvas *image.RGBA
	log    *slog.Logger

	tokenIndex int
	frameIndex int
}

// NewAnimator prepares an animator starting at token 0 and frame 0.
// A nil logger discards debug output.
func NewAnimator(tokens []markup.Token, comp *Compositor, sink FrameSink, log *slog.Logger) *Animator {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Animator{
		tokens: tokens,
		comp:   comp,
		sink:   sink,
		canvas: image.NewRGBA(comp.Bounds()),
		log:    log,
	}
}

func (a *Animator) TokenIndex() int { return a.tokenIndex }

// FrameIndex is the number of the next frame to be written.
func (a *Animator) FrameIndex() int { return a.frameIndex }

func (a *Animator) State() State {
	switch {
	case a.tokenIndex >= len(a.tokens):
		return StateDone
	case a.tokenIndex == 0:
		return StateIdle
	default:
		return StateStepping
	}
}

// Step consumes one token and returns how many frames it emitted.
func (a *Animator) Step() (int, error) {
	if a.State() == StateDone {
		return 0, ErrDone
	}
	i := a.tokenIndex
	tok := a.tokens[i]

	frames := 1
	if tok.Kind == markup.KindPause {
		frames = tok.Frames
		a.log.Debug("pause", slog.Int("token", i), slog.Int("frames", frames), slog.Int("from_frame", a.frameIndex))
	}
	if frames > 0 {
		// A pause adds nothing to the picture, so one render serves every
		// frame of the hold.
		a.comp.RenderInto(a.canvas, a.tokens[:i+1])
		for n := 0; n < frames; n++ {
			if err := a.sink.WriteFrame(a.frameIndex, a.canvas); err != nil {
				return n, fmt.Errorf("write frame %d (token %d, %s): %w", a.frameIndex, i, tok.Kind, err)
			}
			a.frameIndex++
		}
	}
	a.tokenIndex++
	return frames, nil
}

// Run steps exactly once per token and returns the total number of frames
// written.
func (a *Animator) Run() (int, error) {
	start := a.frameIndex
	for range len(a.tokens) - a.tokenIndex {
		if _, err := a.Step(); err != nil {
			return a.frameIndex - start, err
		}
	}
	a.log.Debug("animation done", slog.Int("tokens", len(a.tokens)), slog.Int("frames", a.frameIndex-start))
	return a.frameIndex - start, nil
}
