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
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted to a YAML file in
// the user scope. Environment variables (including a .env file in the working
// directory) are read-only overrides applied at load time. The Gemini API key
// is never written to the YAML file; it lives in the OS keychain.
type AppConfig struct {
	ConfigVersion int              `yaml:"config_version"`
	Generation    GenerationConfig `yaml:"generation"`
	Storage       StorageConfig    `yaml:"storage"`
	Server        ServerConfig     `yaml:"server"`
	Logging       LoggingConfig    `yaml:"logging"`
}

type GenerationConfig struct {
	Model     string      `yaml:"model"`
	TimeoutMs int         `yaml:"timeout_ms"`
	Counts    AssetCounts `yaml:"counts"`
	ShotCount int         `yaml:"shot_count"`
	AutoTag   bool        `yaml:"auto_tag"`
}

// AssetCounts is how many assets of each kind a generation request asks for.
type AssetCounts struct {
	Actors     int `yaml:"actors"`
	Costumes   int `yaml:"costumes"`
	Props      int `yaml:"props"`
	Scenes     int `yaml:"scenes"`
	Characters int `yaml:"characters"`
}

type StorageConfig struct {
	// LibraryDir holds the embedded save library; empty means next to the config file.
	LibraryDir string `yaml:"library_dir"`
	// DatabaseURL switches the save library to PostgreSQL when set.
	DatabaseURL string `yaml:"database_url"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		Generation: GenerationConfig{
			Model:     "gemini-2.5-flash",
			TimeoutMs: 120000,
			Counts:    AssetCounts{Actors: 5, Costumes: 5, Props: 5, Scenes: 5, Characters: 5},
			ShotCount: 6,
			AutoTag:   true,
		},
		Server:  ServerConfig{Addr: ":8080"},
		Logging: LoggingConfig{Level: "info", Format: "console"},
	}
}

// Env var names used as overrides.
const (
	EnvConfigPath  = "CP_CONFIG_PATH"
	EnvModel       = "CP_MODEL"
	EnvTimeoutMs   = "CP_GENERATION_TIMEOUT_MS"
	EnvShotCount   = "CP_SHOT_COUNT"
	EnvAutoTag     = "CP_AUTO_TAG"
	EnvLibraryDir  = "CP_LIBRARY_DIR"
	EnvDatabaseURL = "CP_DATABASE_URL"
	EnvServerAddr  = "CP_SERVER_ADDR"
	EnvLogLevel    = "CP_LOG_LEVEL"
	EnvLogFormat   = "CP_LOG_FORMAT"
	EnvLogSource   = "CP_LOG_SOURCE"
	EnvLogFile     = "CP_LOG_FILE"
	// API key sources, first non-empty wins.
	EnvGeminiKey = "GEMINI_API_KEY"
	EnvAPIKey    = "API_KEY"
)

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p, nil
	}
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "CinePrompt")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "CinePrompt")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			base = filepath.Join(xdg, "cineprompt")
		} else if home := os.Getenv("HOME"); home != "" {
			base = filepath.Join(home, ".config", "cineprompt")
		}
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// LibraryDir returns the directory of the embedded save library.
func (c AppConfig) LibraryDir() (string, error) {
	if d := strings.TrimSpace(c.Storage.LibraryDir); d != "" {
		return d, nil
	}
	p, err := ConfigPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(filepath.Dir(p), "library"), nil
}

// Load reads the user config file (if present), applies defaults and merges
// environment overrides. The API key is returned separately.
func Load() (AppConfig, string, error) {
	// A missing .env is the normal case.
	_ = godotenv.Load()

	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, "", err
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return cfg, "", fmt.Errorf("parse %s: %w", path, err)
		}
		mergeInto(&cfg, &fileCfg)
	case !errors.Is(err, os.ErrNotExist):
		return cfg, "", fmt.Errorf("read %s: %w", path, err)
	}
	applyEnvOverrides(&cfg)
	return cfg, apiKey(), nil
}

func apiKey() string {
	for _, k := range []string{EnvGeminiKey, EnvAPIKey} {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	key, _ := tokenStore.Get(keyringService, keyringAPIKey)
	return key
}

// Save writes the user config YAML and stores a non-empty API key in the OS keyring.
func Save(cfg AppConfig, key string) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}
	if key != "" {
		if err := tokenStore.Set(keyringService, keyringAPIKey, key); err != nil {
			return fmt.Errorf("store api key: %w", err)
		}
	}
	return nil
}

// ClearAPIKey removes the stored API key from the keyring.
func ClearAPIKey() error { return tokenStore.Delete(keyringService, keyringAPIKey) }

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	g := src.Generation
	if s := strings.TrimSpace(g.Model); s != "" {
		dst.Generation.Model = s
	}
	if g.TimeoutMs > 0 {
		dst.Generation.TimeoutMs = g.TimeoutMs
	}
	if g.ShotCount > 0 {
		dst.Generation.ShotCount = g.ShotCount
	}
	mergeCount(&dst.Generation.Counts.Actors, g.Counts.Actors)
	mergeCount(&dst.Generation.Counts.Costumes, g.Counts.Costumes)
	mergeCount(&dst.Generation.Counts.Props, g.Counts.Props)
	mergeCount(&dst.Generation.Counts.Scenes, g.Counts.Scenes)
	mergeCount(&dst.Generation.Counts.Characters, g.Counts.Characters)
	dst.Generation.AutoTag = g.AutoTag

	if s := strings.TrimSpace(src.Storage.LibraryDir); s != "" {
		dst.Storage.LibraryDir = s
	}
	if s := strings.TrimSpace(src.Storage.DatabaseURL); s != "" {
		dst.Storage.DatabaseURL = s
	}
	if s := strings.TrimSpace(src.Server.Addr); s != "" {
		dst.Server.Addr = s
	}

	if s := strings.TrimSpace(src.Logging.Level); s != "" {
		dst.Logging.Level = strings.ToLower(s)
	}
	if s := strings.TrimSpace(src.Logging.Format); s != "" {
		dst.Logging.Format = strings.ToLower(s)
	}
	dst.Logging.Source = src.Logging.Source
	if s := strings.TrimSpace(src.Logging.File); s != "" {
		dst.Logging.File = s
	}
}

func mergeCount(dst *int, v int) {
	if v > 0 {
		*dst = v
	}
}

func envBool(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

func applyEnvOverrides(cfg *AppConfig) {
	env := func(k string) string { return strings.TrimSpace(os.Getenv(k)) }
	if v := env(EnvModel); v != "" {
		cfg.Generation.Model = v
	}
	if v := env(EnvTimeoutMs); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Generation.TimeoutMs = n
		}
	}
	if v := env(EnvShotCount); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Generation.ShotCount = n
		}
	}
	if v := env(EnvAutoTag); v != "" {
		cfg.Generation.AutoTag = envBool(v)
	}
	if v := env(EnvLibraryDir); v != "" {
		cfg.Storage.LibraryDir = v
	}
	if v := env(EnvDatabaseURL); v != "" {
		cfg.Storage.DatabaseURL = v
	}
	if v := env(EnvServerAddr); v != "" {
		cfg.Server.Addr = v
	}
	if v := env(EnvLogLevel); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := env(EnvLogFormat); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := env(EnvLogSource); v != "" {
		cfg.Logging.Source = envBool(v)
	}
	if v := env(EnvLogFile); v != "" {
		cfg.Logging.File = v
	}
}

var envKeys = map[string]string{
	"generation.model":      EnvModel,
	"generation.timeout_ms": EnvTimeoutMs,
	"generation.shot_count": EnvShotCount,
	"generation.auto_tag":   EnvAutoTag,
	"storage.library_dir":   EnvLibraryDir,
	"storage.database_url":  EnvDatabaseURL,
	"server.addr":           EnvServerAddr,
	"logging.level":         EnvLogLevel,
	"logging.format":        EnvLogFormat,
	"logging.source":        EnvLogSource,
	"logging.file":          EnvLogFile,
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	name, ok := envKeys[key]
	if !ok || os.Getenv(name) == "" {
		return "", false
	}
	return name, true
}

// EffectiveTimeout returns the generation timeout, falling back to the default.
func (g GenerationConfig) EffectiveTimeout() time.Duration {
	ms := g.TimeoutMs
	if ms <= 0 {
		ms = Defaults().Generation.TimeoutMs
	}
	return time.Duration(ms) * time.Millisecond
}
