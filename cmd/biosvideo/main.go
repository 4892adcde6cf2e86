/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Command biosvideo renders BiOS boot-screen markup into a typewriter-style
// video.
package main

import (
	"github.com/alecthomas/kong"

	"biosvideo/internal/config"
	"biosvideo/internal/crash"
	applog "biosvideo/internal/log"
)

func main() {
	// .env first so BIOS_* values from it reach config.Load. Logging stays on
	// its defaults until a command has resolved the config.
	_ = config.LoadDotEnv()

	var info crash.Info
	defer crash.Recover(&info)

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("biosvideo"),
		kong.Description("Render BiOS boot-screen markup into a typewriter video."),
		kong.UsageOnError(),
		kongVars(),
		kong.Bind(&info),
	)
	applog.WithComponent("cli").Debug("start", "command", ctx.Command())
	ctx.FatalIfErrorf(ctx.Run())
}
