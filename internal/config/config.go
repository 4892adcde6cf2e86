/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// AppConfig is the render configuration persisted to a YAML file.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.
// Unknown fields are ignored on unmarshal.

type InputConfig struct {
	Path     string `yaml:"path"`
	Encoding string `yaml:"encoding"` // WHATWG label, e.g. utf-8, windows-1252
	NFC      bool   `yaml:"nfc"`      // compose the text before scanning; off keeps it as written
}

type CanvasConfig struct {
	Width    int `yaml:"width"`
	Height   int `yaml:"height"`
	PaddingX int `yaml:"padding_x"`
	PaddingY int `yaml:"padding_y"`
}

type FontConfig struct {
	Path  string  `yaml:"path"`
	Scale float64 `yaml:"scale"` // pixels per em
}

type OutputConfig struct {
	Dir        string `yaml:"dir"`
	File       string `yaml:"file"`
	FramesDir  string `yaml:"frames_dir"` // relative to Dir unless absolute
	Format     string `yaml:"format"`     // bmp | png
	KeepFrames bool   `yaml:"keep_frames"`
}

type EncoderConfig struct {
	Binary      string  `yaml:"binary"`
	FrameRate   int     `yaml:"framerate"`
	TimeStretch float64 `yaml:"time_stretch"`
	Preset      string  `yaml:"preset"` // web | lossless
	Codec       string  `yaml:"codec"`
	PixFmt      string  `yaml:"pix_fmt"`
	Skip        bool    `yaml:"skip"` // only write frames
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	Input         InputConfig   `yaml:"input"`
	Canvas        CanvasConfig  `yaml:"canvas"`
	Font          FontConfig    `yaml:"font"`
	Output        OutputConfig  `yaml:"output"`
	Encoder       EncoderConfig `yaml:"encoder"`
	Logging       LoggingConfig `yaml:"logging"`
}

// Defaults returns the application defaults: a 720x540 canvas with 16px
// padding, a 32px font, BMP frames encoded at 60 fps and slowed down 4x.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		Input:         InputConfig{Path: filepath.Join("input", "intro.txt"), Encoding: "utf-8"},
		Canvas:        CanvasConfig{Width: 720, Height: 540, PaddingX: 16, PaddingY: 16},
		Font:          FontConfig{Path: filepath.Join("assets", "font.ttf"), Scale: 32},
		Output:        OutputConfig{Dir: "output", File: "output.mp4", FramesDir: "frames", Format: "bmp"},
		Encoder:       EncoderConfig{Binary: "ffmpeg", FrameRate: 60, TimeStretch: 4, Preset: "web"},
		Logging:       LoggingConfig{Level: "info", Format: "console", Source: false, File: ""},
	}
}

// Env var names used as overrides.
const (
	EnvConfig      = "BIOS_CONFIG"
	EnvInput       = "BIOS_INPUT"
	EnvInputEnc    = "BIOS_INPUT_ENCODING"
	EnvInputNFC    = "BIOS_INPUT_NFC"
	EnvFont        = "BIOS_FONT"
	EnvFontScale   = "BIOS_FONT_SCALE"
	EnvWidth       = "BIOS_WIDTH"
	EnvHeight      = "BIOS_HEIGHT"
	EnvOutputDir   = "BIOS_OUTPUT_DIR"
	EnvOutputFile  = "BIOS_OUTPUT_FILE"
	EnvFrameFormat = "BIOS_FRAME_FORMAT"
	EnvKeepFrames  = "BIOS_KEEP_FRAMES"
	EnvEncoder     = "BIOS_ENCODER"
	EnvFrameRate   = "BIOS_FRAMERATE"
	EnvTimeStretch = "BIOS_TIME_STRETCH"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "BIOS_LOG_LEVEL"
	EnvLogFormat = "BIOS_LOG_FORMAT"
	EnvLogSource = "BIOS_LOG_SOURCE"
	EnvLogFile   = "BIOS_LOG_FILE"
)

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "BiosVideo")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "BiosVideo")
	default: // linux and others
		base = filepath.Join(os.Getenv("HOME"), ".config", "biosvideo")
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// LoadDotEnv loads KEY=VALUE pairs from the given .env files (default ./.env)
// into the process environment. Variables that are already set win, and a
// missing file is not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var present []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			present = append(present, f)
		}
	}
	if len(present) == 0 {
		return nil
	}
	return godotenv.Load(present...)
}

// Load reads the config file, applies defaults, and merges environment
// overrides. path selects the file; when empty, $BIOS_CONFIG and then the
// per-user config path are tried. Only an explicitly named file must exist.
func Load(path string) (AppConfig, error) {
	cfg := Defaults()
	explicit := path != ""
	if !explicit {
		path = strings.TrimSpace(os.Getenv(EnvConfig))
		explicit = path != ""
	}
	if !explicit {
		p, err := ConfigPath()
		if err != nil {
			return cfg, err
		}
		path = p
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
		var keys explicitKeys
		if err := yaml.Unmarshal(data, &keys); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
		mergeInto(&cfg, &fileCfg)
		keys.apply(&cfg)
	case explicit || !errors.Is(err, os.ErrNotExist):
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}

// Save writes the config as YAML to path.
func Save(cfg AppConfig, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	setStr(&dst.Input.Path, src.Input.Path)
	if v := strings.ToLower(strings.TrimSpace(src.Input.Encoding)); v != "" {
		dst.Input.Encoding = v
	}
	setInt(&dst.Canvas.Width, src.Canvas.Width)
	setInt(&dst.Canvas.Height, src.Canvas.Height)
	setStr(&dst.Font.Path, src.Font.Path)
	if src.Font.Scale != 0 {
		dst.Font.Scale = src.Font.Scale
	}
	setStr(&dst.Output.Dir, src.Output.Dir)
	setStr(&dst.Output.File, src.Output.File)
	setStr(&dst.Output.FramesDir, src.Output.FramesDir)
	if v := strings.ToLower(strings.TrimSpace(src.Output.Format)); v != "" {
		dst.Output.Format = v
	}
	// booleans: copy directly from src (file) so user preferences persist
	dst.Input.NFC = src.Input.NFC
	dst.Output.KeepFrames = src.Output.KeepFrames
	setStr(&dst.Encoder.Binary, src.Encoder.Binary)
	setInt(&dst.Encoder.FrameRate, src.Encoder.FrameRate)
	if src.Encoder.TimeStretch != 0 {
		dst.Encoder.TimeStretch = src.Encoder.TimeStretch
	}
	setStr(&dst.Encoder.Preset, src.Encoder.Preset)
	setStr(&dst.Encoder.Codec, src.Encoder.Codec)
	setStr(&dst.Encoder.PixFmt, src.Encoder.PixFmt)
	dst.Encoder.Skip = src.Encoder.Skip
	// logging
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	setStr(&dst.Logging.File, src.Logging.File)
}

// explicitKeys holds the settings for which 0 is a valid value. mergeInto
// cannot tell such a value from an absent key, so these are copied only when
// the file names them.
type explicitKeys struct {
	Canvas struct {
		PaddingX *int `yaml:"padding_x"`
		PaddingY *int `yaml:"padding_y"`
	} `yaml:"canvas"`
}

func (k explicitKeys) apply(dst *AppConfig) {
	if k.Canvas.PaddingX != nil {
		dst.Canvas.PaddingX = *k.Canvas.PaddingX
	}
	if k.Canvas.PaddingY != nil {
		dst.Canvas.PaddingY = *k.Canvas.PaddingY
	}
}

func setStr(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func parseBool(v string) bool {
	lv := strings.ToLower(v)
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

func applyEnvOverrides(cfg *AppConfig) {
	env := func(k string) string { return strings.TrimSpace(os.Getenv(k)) }
	atoi := func(k string, dst *int) {
		if v := env(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	atof := func(k string, dst *float64) {
		if v := env(k); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				*dst = f
			}
		}
	}
	if v := env(EnvInput); v != "" {
		cfg.Input.Path = v
	}
	if v := env(EnvInputEnc); v != "" {
		cfg.Input.Encoding = strings.ToLower(v)
	}
	if v := env(EnvInputNFC); v != "" {
		cfg.Input.NFC = parseBool(v)
	}
	if v := env(EnvFont); v != "" {
		cfg.Font.Path = v
	}
	atof(EnvFontScale, &cfg.Font.Scale)
	atoi(EnvWidth, &cfg.Canvas.Width)
	atoi(EnvHeight, &cfg.Canvas.Height)
	if v := env(EnvOutputDir); v != "" {
		cfg.Output.Dir = v
	}
	if v := env(EnvOutputFile); v != "" {
		cfg.Output.File = v
	}
	if v := env(EnvFrameFormat); v != "" {
		cfg.Output.Format = strings.ToLower(v)
	}
	if v := env(EnvKeepFrames); v != "" {
		cfg.Output.KeepFrames = parseBool(v)
	}
	if v := env(EnvEncoder); v != "" {
		cfg.Encoder.Binary = v
	}
	atoi(EnvFrameRate, &cfg.Encoder.FrameRate)
	atof(EnvTimeStretch, &cfg.Encoder.TimeStretch)
	// logging overrides
	if v := env(EnvLogLevel); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := env(EnvLogFormat); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := env(EnvLogSource); v != "" {
		cfg.Logging.Source = parseBool(v)
	}
	if v := env(EnvLogFile); v != "" {
		cfg.Logging.File = v
	}
}

// envKeys maps dotted config keys to the env var overriding them.
var envKeys = map[string]string{
	"input.path":           EnvInput,
	"input.encoding":       EnvInputEnc,
	"input.nfc":            EnvInputNFC,
	"font.path":            EnvFont,
	"font.scale":           EnvFontScale,
	"canvas.width":         EnvWidth,
	"canvas.height":        EnvHeight,
	"output.dir":           EnvOutputDir,
	"output.file":          EnvOutputFile,
	"output.format":        EnvFrameFormat,
	"output.keep_frames":   EnvKeepFrames,
	"encoder.binary":       EnvEncoder,
	"encoder.framerate":    EnvFrameRate,
	"encoder.time_stretch": EnvTimeStretch,
	"logging.level":        EnvLogLevel,
	"logging.format":       EnvLogFormat,
	"logging.source":       EnvLogSource,
	"logging.file":         EnvLogFile,
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	name, ok := envKeys[key]
	if !ok || os.Getenv(name) == "" {
		return "", false
	}
	return name, true
}

// FramesPath resolves the frames directory against the output directory.
func (o OutputConfig) FramesPath() string {
	if filepath.IsAbs(o.FramesDir) {
		return o.FramesDir
	}
	return filepath.Join(o.Dir, o.FramesDir)
}

// VideoPath resolves the video file against the output directory.
func (o OutputConfig) VideoPath() string {
	if filepath.IsAbs(o.File) {
		return o.File
	}
	return filepath.Join(o.Dir, o.File)
}

// Validate reports the first setting that cannot produce a render.
func (c AppConfig) Validate() error {
	switch {
	case c.Canvas.Width <= 0 || c.Canvas.Height <= 0:
		return fmt.Errorf("canvas must be positive, got %dx%d", c.Canvas.Width, c.Canvas.Height)
	case c.Canvas.PaddingX < 0 || c.Canvas.PaddingY < 0:
		return fmt.Errorf("padding must not be negative, got %d,%d", c.Canvas.PaddingX, c.Canvas.PaddingY)
	case c.Font.Scale <= 0:
		return fmt.Errorf("font scale must be positive, got %v", c.Font.Scale)
	case strings.TrimSpace(c.Font.Path) == "":
		return errors.New("font path is empty")
	case strings.TrimSpace(c.Input.Path) == "":
		return errors.New("input path is empty")
	case c.Output.Format != "bmp" && c.Output.Format != "png":
		return fmt.Errorf("output format must be bmp or png, got %q", c.Output.Format)
	case c.Encoder.FrameRate <= 0:
		return fmt.Errorf("encoder framerate must be positive, got %d", c.Encoder.FrameRate)
	case c.Encoder.TimeStretch <= 0:
		return fmt.Errorf("encoder time_stretch must be positive, got %v", c.Encoder.TimeStretch)
	}
	return nil
}
