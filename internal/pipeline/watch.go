/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"biosvideo/internal/config"
	applog "biosvideo/internal/log"
)

// DefaultDebounce is how long Watch waits for a burst of writes to settle.
const DefaultDebounce = 150 * time.Millisecond

// Watch renders cfg once and then again every time the input file is
// written, until ctx is cancelled. Each run's outcome goes to onResult; a
// failed run does not stop the watch.
func Watch(ctx context.Context, cfg config.AppConfig, debounce time.Duration, onResult func(Result, error)) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	l := applog.WithOperation(applog.WithComponent("pipeline"), "watch")

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Editors often replace the file instead of writing it, so watch the
	// directory and filter by name.
	target := filepath.Clean(cfg.Input.Path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}
	l.Info("watching input", slog.String("path", target))

	runOnce := func() {
		res, err := Run(ctx, cfg, "")
		if onResult != nil {
			onResult(res, err)
		}
	}
	runOnce()

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				timer.Reset(debounce)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			l.Warn("watch error", slog.Any("err", err))
		case <-timer.C:
			l.Debug("input changed, rendering", slog.String("path", target))
			runOnce()
		}
	}
}
