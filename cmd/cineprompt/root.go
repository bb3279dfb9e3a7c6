/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"cineprompt/internal/backend"
	"cineprompt/internal/config"
	"cineprompt/internal/crash"
	"cineprompt/internal/generate"
	applog "cineprompt/internal/log"
	"cineprompt/internal/storage"
	"cineprompt/internal/version"
)

// app carries what every command needs after configuration has loaded.
type app struct {
	cfg    config.AppConfig
	apiKey string
	log    *slog.Logger
	out    io.Writer
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "cineprompt",
		Short:         "Storyboard projects and AI video prompts",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, key, err := config.Load()
			if err != nil {
				return err
			}
			applog.Init(applog.OptionsFromConfig(cfg.Logging).Merge(applog.FromEnv()))
			a.cfg, a.apiKey = cfg, key
			a.log = applog.WithComponent("cli")
			a.out = cmd.OutOrStdout()
			return nil
		},
	}
	root.AddCommand(
		&cobra.Command{
			Use:   "version",
			Short: "Show version",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintln(cmd.OutOrStdout(), "CinePrompt", version.String())
			},
		},
		newInitCmd(a),
		newOpenCmd(a),
		newTagCmd(a),
		newPromptCmd(a),
		newSnapshotsCmd(a),
		newSearchCmd(a),
		newWhereUsedCmd(a),
		newGenerateCmd(a),
		newShotCmd(a),
		newExportCmd(a),
		newImportCmd(a),
		newLibraryCmd(a),
		newServeCmd(a),
		newConfigCmd(a),
	)
	return root
}

// openProject opens the project at dir, repairs its index if needed and
// registers it for crash autosave.
func (a *app) openProject(ctx context.Context, dir string) (*storage.ProjectHandle, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	ph, err := storage.Open(abs)
	if err != nil {
		return nil, err
	}
	crash.Track(ph)
	if rebuilt, err := storage.DetectAndRebuildIndex(ctx, abs, ph.Project); err != nil {
		a.log.Warn("index check failed", slog.Any("err", err))
	} else if rebuilt {
		a.log.Info("index rebuilt", slog.String("root", abs))
	}
	return ph, nil
}

// saveProject writes the manifest and refreshes the search index.
func (a *app) saveProject(ctx context.Context, ph *storage.ProjectHandle) error {
	if err := storage.Save(ph); err != nil {
		return err
	}
	if err := storage.UpdateIndex(ctx, ph.Root, ph.Project); err != nil {
		a.log.Warn("index update failed", slog.Any("err", err))
	}
	return nil
}

// openLibrary selects PostgreSQL when a database url is configured and the
// embedded SQLite library otherwise.
func (a *app) openLibrary(ctx context.Context) (storage.Library, error) {
	if dsn := a.cfg.Storage.DatabaseURL; dsn != "" {
		lib, err := backend.OpenLibrary(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return lib, nil
	}
	dir, err := a.cfg.LibraryDir()
	if err != nil {
		return nil, err
	}
	lib, err := storage.OpenSQLiteLibrary(ctx, dir)
	if err != nil {
		return nil, err
	}
	return lib, nil
}

// generator builds the Gemini-backed generator from the configuration.
func (a *app) generator(ctx context.Context) (*generate.Generator, error) {
	m, err := generate.NewGemini(ctx, a.apiKey, a.cfg.Generation.Model)
	if err != nil {
		return nil, err
	}
	return generate.New(m,
		generate.WithTimeout(a.cfg.Generation.EffectiveTimeout()),
		generate.WithAutoTag(a.cfg.Generation.AutoTag),
	), nil
}

// shotArg resolves a 1-based shot number.
func shotArg(ph *storage.ProjectHandle, arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("shot number %q: %w", arg, err)
	}
	if n < 1 || n > len(ph.Project.Shots) {
		return 0, errors.New("shot number out of range")
	}
	return n - 1, nil
}
