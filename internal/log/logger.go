/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package log sets up the process-wide slog logger.
//
// Console output is one compact line per record, meant to be read while a
// render runs. An optional JSON file sink rotates through lumberjack. Records
// logged with a *Context method pick up the run id and pipeline stage stored
// in the context, so every line of a render can be correlated.
package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	lj "gopkg.in/natefinch/lumberjack.v2"

	"biosvideo/internal/version"
)

// Options controls Init. The zero value logs INFO and above to stderr.
type Options struct {
	Level     string // debug | info | warn | error
	Format    string // console | json
	AddSource bool
	File      string    // rotated JSON log; off when empty
	Writer    io.Writer // console destination; os.Stderr when nil
}

var (
	mu       sync.RWMutex
	current  *slog.Logger
	rotating *lj.Logger
)

// L returns the application logger. Before Init it is a console logger with
// the zero Options.
func L() *slog.Logger {
	mu.RLock()
	l := current
	mu.RUnlock()
	if l != nil {
		return l
	}
	Init(Options{})
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// Init replaces the application logger and slog's default. A file sink left
// over from an earlier Init is closed.
func Init(opts Options) {
	lvl := parseLevel(opts.Level)
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}

	var console slog.Handler
	if strings.EqualFold(strings.TrimSpace(opts.Format), "json") {
		console = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl, AddSource: opts.AddSource})
	} else {
		console = &lineHandler{w: w, mu: &sync.Mutex{}, level: lvl, source: opts.AddSource}
	}
	handlers := []slog.Handler{console}

	var rot *lj.Logger
	if f := strings.TrimSpace(opts.File); f != "" {
		rot = &lj.Logger{Filename: f, MaxSize: 10, MaxBackups: 3, MaxAge: 28, Compress: true}
		handlers = append(handlers, slog.NewJSONHandler(rot, &slog.HandlerOptions{Level: lvl, AddSource: opts.AddSource}))
	}

	logger := slog.New(runHandler{next: fanout(handlers)}).With(
		slog.String("app", "biosvideo"),
		slog.String("ver", version.Version),
	)

	mu.Lock()
	prev := rotating
	current, rotating = logger, rot
	mu.Unlock()
	if prev != nil {
		_ = prev.Close()
	}
	slog.SetDefault(logger)
}

// WithComponent returns a logger with the component attribute pre-set.
func WithComponent(name string) *slog.Logger { return L().With(slog.String("component", name)) }

// WithOperation annotates the logger with an operation name.
func WithOperation(l *slog.Logger, op string) *slog.Logger { return l.With(slog.String("op", op)) }

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type runKey struct{}

type runInfo struct {
	id    string
	stage string
}

// ContextWithRun tags ctx with a render run id.
func ContextWithRun(ctx context.Context, id string) context.Context {
	ri, _ := ctx.Value(runKey{}).(runInfo)
	ri.id = id
	return context.WithValue(ctx, runKey{}, ri)
}

// ContextWithStage tags ctx with the pipeline stage currently running. The
// run id, if any, is kept.
func ContextWithStage(ctx context.Context, stage string) context.Context {
	ri, _ := ctx.Value(runKey{}).(runInfo)
	ri.stage = stage
	return context.WithValue(ctx, runKey{}, ri)
}

// RunFromContext returns the run id and stage stored in ctx.
func RunFromContext(ctx context.Context) (id, stage string) {
	ri, _ := ctx.Value(runKey{}).(runInfo)
	return ri.id, ri.stage
}

// runHandler copies the run id and stage from the context onto each record.
type runHandler struct{ next slog.Handler }

func (h runHandler) Enabled(ctx context.Context, l slog.Level) bool { return h.next.Enabled(ctx, l) }

func (h runHandler) Handle(ctx context.Context, r slog.Record) error {
	if id, stage := RunFromContext(ctx); id != "" || stage != "" {
		r = r.Clone()
		if id != "" {
			r.AddAttrs(slog.String("run", id))
		}
		if stage != "" {
			r.AddAttrs(slog.String("stage", stage))
		}
	}
	return h.next.Handle(ctx, r)
}

func (h runHandler) WithAttrs(as []slog.Attr) slog.Handler { return runHandler{next: h.next.WithAttrs(as)} }

func (h runHandler) WithGroup(name string) slog.Handler { return runHandler{next: h.next.WithGroup(name)} }

// fanout sends each record to every handler.
func fanout(hs []slog.Handler) slog.Handler {
	if len(hs) == 1 {
		return hs[0]
	}
	return multi(hs)
}

type multi []slog.Handler

func (m multi) Enabled(ctx context.Context, l slog.Level) bool {
	for _, h := range m {
		if h.Enabled(ctx, l) {
			return true
		}
	}
	return false
}

func (m multi) Handle(ctx context.Context, r slog.Record) error {
	var first error
	for _, h := range m {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (m multi) WithAttrs(as []slog.Attr) slog.Handler {
	out := make(multi, len(m))
	for i, h := range m {
		out[i] = h.WithAttrs(as)
	}
	return out
}

func (m multi) WithGroup(name string) slog.Handler {
	out := make(multi, len(m))
	for i, h := range m {
		out[i] = h.WithGroup(name)
	}
	return out
}

// lineHandler writes records as
//
//	15:04:05.000 INF [component] message key=value ...
//
// app and ver are left to the JSON sinks; run ids are cut to 8 characters.
type lineHandler struct {
	w         io.Writer
	mu        *sync.Mutex
	level     slog.Leveler
	source    bool
	component string
	prefix    string
	attrs     []slog.Attr
}

func (h *lineHandler) Enabled(_ context.Context, l slog.Level) bool { return l >= h.level.Level() }

func (h *lineHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	b.WriteString(ts.Format("15:04:05.000"))
	b.WriteByte(' ')
	b.WriteString(levelTag(r.Level))
	if h.component != "" {
		b.WriteString(" [")
		b.WriteString(h.component)
		b.WriteByte(']')
	}
	b.WriteByte(' ')
	b.WriteString(r.Message)
	for _, a := range h.attrs {
		writeAttr(&b, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&b, h.prefix, a)
		return true
	})
	if h.source && r.PC != 0 {
		f, _ := runtime.CallersFrames([]uintptr{r.PC}).Next()
		fmt.Fprintf(&b, " src=%s:%d", filepath.Base(f.File), f.Line)
	}
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *lineHandler) WithAttrs(as []slog.Attr) slog.Handler {
	n := *h
	n.attrs = append([]slog.Attr(nil), h.attrs...)
	for _, a := range as {
		switch {
		case h.prefix == "" && a.Key == "component":
			n.component = a.Value.String()
		case h.prefix == "" && (a.Key == "app" || a.Key == "ver"):
		default:
			a.Key = h.prefix + a.Key
			n.attrs = append(n.attrs, a)
		}
	}
	return &n
}

func (h *lineHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	n := *h
	n.prefix = h.prefix + name + "."
	return &n
}

func writeAttr(b *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		p := prefix
		if a.Key != "" {
			p += a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			writeAttr(b, p, ga)
		}
		return
	}
	b.WriteByte(' ')
	b.WriteString(prefix)
	b.WriteString(a.Key)
	b.WriteByte('=')
	v := formatValue(a.Value)
	if a.Key == "run" && len(v) > 8 {
		v = v[:8]
	}
	b.WriteString(v)
}

func formatValue(v slog.Value) string {
	var s string
	switch v.Kind() {
	case slog.KindFloat64:
		s = strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindDuration:
		s = v.Duration().Round(time.Millisecond).String()
	case slog.KindTime:
		s = v.Time().Format(time.RFC3339)
	default:
		s = v.String()
	}
	if s == "" || strings.ContainsAny(s, " \t\n\"=") {
		return strconv.Quote(s)
	}
	return s
}

func levelTag(l slog.Level) string {
	switch {
	case l < slog.LevelInfo:
		return "DBG"
	case l < slog.LevelWarn:
		return "INF"
	case l < slog.LevelError:
		return "WRN"
	default:
		return "ERR"
	}
}
