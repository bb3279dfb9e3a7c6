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
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"cineprompt/internal/storage"
)

// searcher is implemented by libraries with server-side full-text search.
type searcher interface {
	Search(ctx context.Context, text string) ([]storage.Summary, error)
}

func newLibraryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "library",
		Aliases: []string{"lib"},
		Short:   "Manage the save library",
	}
	withLib := func(fn func(ctx context.Context, lib storage.Library, args []string) error) func(*cobra.Command, []string) error {
		return func(c *cobra.Command, args []string) error {
			lib, err := a.openLibrary(c.Context())
			if err != nil {
				return err
			}
			defer func() { _ = lib.Close() }()
			return fn(c.Context(), lib, args)
		}
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List saved projects, most recent first",
			Args:  cobra.NoArgs,
			RunE: withLib(func(ctx context.Context, lib storage.Library, _ []string) error {
				items, err := lib.List(ctx)
				if err != nil {
					return err
				}
				printSummaries(a, items)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "search <text>",
			Short: "Find saved projects by title, idea or treatment",
			Args:  cobra.ExactArgs(1),
			RunE: withLib(func(ctx context.Context, lib storage.Library, args []string) error {
				if s, ok := lib.(searcher); ok {
					items, err := s.Search(ctx, args[0])
					if err != nil {
						return err
					}
					printSummaries(a, items)
					return nil
				}
				items, err := lib.List(ctx)
				if err != nil {
					return err
				}
				needle := strings.ToLower(args[0])
				var hits []storage.Summary
				for _, s := range items {
					if strings.Contains(strings.ToLower(s.Title), needle) {
						hits = append(hits, s)
					}
				}
				printSummaries(a, hits)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "save <dir>",
			Short: "Store a project folder in the library",
			Args:  cobra.ExactArgs(1),
			RunE: withLib(func(ctx context.Context, lib storage.Library, args []string) error {
				ph, err := a.openProject(ctx, args[0])
				if err != nil {
					return err
				}
				p, err := lib.Save(ctx, ph.Project)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Saved %q (%s)\n", p.Title, p.ID)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "load <id> <dir>",
			Short: "Write a saved project into a new project folder",
			Args:  cobra.ExactArgs(2),
			RunE: withLib(func(ctx context.Context, lib storage.Library, args []string) error {
				p, err := lib.Load(ctx, args[0])
				if err != nil {
					return err
				}
				root, err := filepath.Abs(args[1])
				if err != nil {
					return err
				}
				ph, err := storage.InitProject(root, p)
				if err != nil {
					return err
				}
				if err := storage.BuildIndexIfEmpty(ctx, ph.Root, ph.Project); err != nil {
					a.log.Warn("index build failed", "err", err)
				}
				fmt.Fprintf(a.out, "Loaded %q into %s\n", p.Title, ph.Root)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "rename <id> <title>",
			Short: "Rename a saved project",
			Args:  cobra.ExactArgs(2),
			RunE: withLib(func(ctx context.Context, lib storage.Library, args []string) error {
				p, err := lib.Rename(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Renamed %s to %q\n", p.ID, p.Title)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Remove a saved project",
			Args:  cobra.ExactArgs(1),
			RunE: withLib(func(ctx context.Context, lib storage.Library, args []string) error {
				if err := lib.Delete(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintln(a.out, "Deleted", args[0])
				return nil
			}),
		},
	)
	return cmd
}

func printSummaries(a *app, items []storage.Summary) {
	if len(items) == 0 {
		fmt.Fprintln(a.out, "No saved projects")
		return
	}
	for _, s := range items {
		ts := time.UnixMilli(s.LastModified).Format("2006-01-02 15:04")
		fmt.Fprintf(a.out, "%s  %s  %3d shot(s)  %s\n", s.ID, ts, s.Shots, s.Title)
	}
}
