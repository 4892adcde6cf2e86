/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package render

import (
	"bytes"
	"errors"
	"image"
	"testing"

	"biosvideo/internal/markup"
)

// memorySink keeps a copy of every frame it receives.
type memorySink struct {
	indexes []int
	frames  [][]byte
}

func (m *memorySink) WriteFrame(index int, frame *image.RGBA) error {
	m.indexes = append(m.indexes, index)
	m.frames = append(m.frames, append([]byte(nil), frame.Pix...))
	return nil
}

func TestPauseEmitsIdenticalFrames(t *testing.T) {
	c, _ := newTestCompositor(t)
	toks := markup.MustScan("§p:5§")
	sink := &memorySink{}
	a := NewAnimator(toks, c, sink, nil)

	n, err := a.Step()
	if err != nil {
		t.Fatalf("Step error: %v", err)
	}
	if n != 5 || len(sink.frames) != 5 {
		t.Fatalf("frames = %d (sink %d), want 5", n, len(sink.frames))
	}
	if a.FrameIndex() != 5 || a.TokenIndex() != 1 {
		t.Fatalf("indexes after pause: frame=%d token=%d", a.FrameIndex(), a.TokenIndex())
	}
	for i := 1; i < len(sink.frames); i++ {
		if !bytes.Equal(sink.frames[0], sink.frames[i]) {
			t.Fatalf("pause frame %d differs from frame 0", i)
		}
	}
	if a.State() != StateDone {
		t.Fatalf("state = %v, want done", a.State())
	}
}

func TestZeroPauseEmitsNothing(t *testing.T) {
	c, _ := newTestCompositor(t)
	sink := &memorySink{}
	a := NewAnimator(markup.MustScan("§p:0§"), c, sink, nil)
	n, err := a.Step()
	if err != nil || n != 0 {
		t.Fatalf("Step = %d, %v", n, err)
	}
	if len(sink.frames) != 0 || a.FrameIndex() != 0 || a.TokenIndex() != 1 {
		t.Fatalf("zero pause should only advance the token index")
	}
}

func TestRunStepsOncePerToken(t *testing.T) {
	c, _ := newTestCompositor(t)
	toks := markup.MustScan("ab§p:2§\n§c:red§c§p:0§§i:OK§")
	if len(toks) != 8 {
		t.Fatalf("unexpected token count %d: %v", len(toks), toks)
	}
	sink := &memorySink{}
	a := NewAnimator(toks, c, sink, nil)
	if a.State() != StateIdle {
		t.Fatalf("initial state = %v", a.State())
	}

	n, err := a.Run()
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	// a, b, pause 2, newline, color, c, pause 0, instant
	if want := 1 + 1 + 2 + 1 + 1 + 1 + 0 + 1; n != want {
		t.Fatalf("Run frames = %d, want %d", n, want)
	}
	if a.TokenIndex() != len(toks) || a.State() != StateDone {
		t.Fatalf("not done after Run: token=%d state=%v", a.TokenIndex(), a.State())
	}
	for i, idx := range sink.indexes {
		if idx != i {
			t.Fatalf("frame %d written with index %d", i, idx)
		}
	}
	if _, err := a.Step(); !errors.Is(err, ErrDone) {
		t.Fatalf("Step after done = %v, want ErrDone", err)
	}
	if n, err := a.Run(); err != nil || n != 0 {
		t.Fatalf("Run after done = %d, %v", n, err)
	}
}

func TestFrameShowsPrefixIncludingCurrentToken(t *testing.T) {
	c, _ := newTestCompositor(t)
	toks := markup.MustScan("A§c:green§B\nC")
	sink := &memorySink{}
	a := NewAnimator(toks, c, sink, nil)
	if _, err := a.Run(); err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if len(sink.frames) != len(toks) {
		t.Fatalf("frames = %d, want one per token (%d)", len(sink.frames), len(toks))
	}
	for i := range toks {
		want := c.Render(toks[:i+1])
		if !bytes.Equal(sink.frames[i], want.Pix) {
			t.Fatalf("frame %d does not match prefix ending at token %d", i, i)
		}
	}
}

func TestStateTransitions(t *testing.T) {
	c, _ := newTestCompositor(t)
	a := NewAnimator(markup.MustScan("xy"), c, &memorySink{}, nil)
	seen := []State{a.State()}
	for a.State() != StateDone {
		if _, err := a.Step(); err != nil {
			t.Fatalf("Step error: %v", err)
		}
		seen = append(seen, a.State())
	}
	want := []State{StateIdle, StateStepping, StateDone}
	if len(seen) != len(want) {
		t.Fatalf("states = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("states = %v, want %v", seen, want)
		}
	}
}

func TestEmptyTokensAreDone(t *testing.T) {
	c, _ := newTestCompositor(t)
	a := NewAnimator(nil, c, &memorySink{}, nil)
	if a.State() != StateDone {
		t.Fatalf("state = %v, want done", a.State())
	}
	if n, err := a.Run(); err != nil || n != 0 {
		t.Fatalf("Run = %d, %v", n, err)
	}
}

func TestSinkErrorStopsRun(t *testing.T) {
	c, _ := newTestCompositor(t)
	boom := errors.New("disk full")
	calls := 0
	sink := FrameSinkFunc(func(int, *image.RGBA) error {
		calls++
		if calls == 3 {
			return boom
		}
		return nil
	})
	a := NewAnimator(markup.MustScan("abcdef"), c, sink, nil)
	n, err := a.Run()
	if !errors.Is(err, boom) {
		t.Fatalf("Run error = %v, want %v", err, boom)
	}
	if n != 2 || a.TokenIndex() != 2 || a.FrameIndex() != 2 {
		t.Fatalf("after failure: frames=%d token=%d frame=%d", n, a.TokenIndex(), a.FrameIndex())
	}
}
