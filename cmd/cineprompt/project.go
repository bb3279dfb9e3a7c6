/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"cineprompt/internal/assemble"
	"cineprompt/internal/domain"
	"cineprompt/internal/storage"
	"cineprompt/internal/tagging"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init <dir> [title]",
		Short: "Create a new project folder",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := ""
			if len(args) == 2 {
				title = args[1]
			}
			root, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			ph, err := storage.InitProject(root, domain.New(title))
			if err != nil {
				return err
			}
			if err := storage.BuildIndexIfEmpty(cmd.Context(), ph.Root, ph.Project); err != nil {
				a.log.Warn("index build failed", "err", err)
			}
			fmt.Fprintf(a.out, "Created %q (%s) in %s\n", ph.Project.Title, ph.Project.ID, ph.Root)
			return nil
		},
	}
}

func newOpenCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "open <dir>",
		Short: "Show a project summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ph, err := a.openProject(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			p := ph.Project
			fmt.Fprintf(a.out, "%s (%s)\n", p.Title, p.ID)
			fmt.Fprintf(a.out, "actors: %d, costumes: %d, props: %d, scenes: %d, characters: %d\n",
				len(p.Actors), len(p.Costumes), len(p.Props), len(p.Scenes), len(p.Characters))
			for i, s := range p.Shots {
				fmt.Fprintf(a.out, "%3d  %s\n", i+1, s.Title)
			}
			return nil
		},
	}
}

func newTagCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tag <dir>",
		Short: "Tag entity names in every shot prompt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ph, err := a.openProject(ctx, args[0])
			if err != nil {
				return err
			}
			reg := domain.NewIndex(&ph.Project)
			now := time.Now()
			added := 0
			for i, s := range ph.Project.Shots {
				tagged := tagging.TagShot(s, reg)
				n := refCount(tagged) - refCount(s)
				if n == 0 {
					continue
				}
				if err := storage.SaveSnapshot(ctx, ph, s, now); err != nil {
					a.log.Warn("snapshot failed", "shot", s.ID, "err", err)
				}
				ph.Project.Shots[i] = tagged
				added += n
			}
			if added > 0 {
				if err := a.saveProject(ctx, ph); err != nil {
					return err
				}
			}
			fmt.Fprintf(a.out, "Tagged %d reference(s)\n", added)
			return nil
		},
	}
}

func refCount(s domain.Shot) int {
	return len(s.InitialScenePrompt.Refs()) + len(s.ActionPrompt.Refs())
}

func newPromptCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "prompt <dir> <shot#>",
		Short: "Print the assembled prompt for a shot",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ph, err := a.openProject(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			i, err := shotArg(ph, args[1])
			if err != nil {
				return err
			}
			reg := domain.NewIndex(&ph.Project)
			shot := ph.Project.Shots[i]
			if asJSON {
				b, err := assemble.DocumentJSON(shot, reg)
				if err != nil {
					return err
				}
				fmt.Fprintln(a.out, string(b))
				return nil
			}
			fmt.Fprintln(a.out, assemble.Prompt(shot, reg))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the structured JSON document")
	return cmd
}

func newSnapshotsCmd(a *app) *cobra.Command {
	var limit, keep int
	cmd := &cobra.Command{
		Use:   "snapshots <dir> <shot#>",
		Short: "List stored versions of a shot",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ph, err := a.openProject(ctx, args[0])
			if err != nil {
				return err
			}
			i, err := shotArg(ph, args[1])
			if err != nil {
				return err
			}
			id := ph.Project.Shots[i].ID
			if keep > 0 {
				n, err := storage.PruneOldSnapshots(ctx, ph, id, keep)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Pruned %d snapshot(s)\n", n)
			}
			snaps, err := storage.ListSnapshots(ctx, ph, id, limit)
			if err != nil {
				return err
			}
			for _, s := range snaps {
				fmt.Fprintf(a.out, "%s  %s  %s\n", s.TS.Format(time.RFC3339), s.Shot.Title, s.Shot.ActionPrompt.String())
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum snapshots to list")
	cmd.Flags().IntVar(&keep, "prune", 0, "keep only the newest n snapshots")
	return cmd
}

func newSearchCmd(a *app) *cobra.Command {
	var (
		types  []string
		limit  int
		offset int
	)
	cmd := &cobra.Command{
		Use:   "search <dir> <query>",
		Short: "Full-text search over a project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ph, err := a.openProject(ctx, args[0])
			if err != nil {
				return err
			}
			res, err := storage.Search(ctx, ph.Root, storage.SearchQuery{
				Text: args[1], Types: types, Limit: limit, Offset: offset,
			})
			if err != nil {
				return err
			}
			printResults(a, res, false)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&types, "type", nil, "restrict to document types (shot_action, prop, ...)")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum results")
	cmd.Flags().IntVar(&offset, "offset", 0, "results to skip")
	return cmd
}

func newWhereUsedCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "where-used <dir> <entityId>",
		Short: "List the shot fields that reference an entity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ph, err := a.openProject(ctx, args[0])
			if err != nil {
				return err
			}
			res, err := storage.WhereUsed(ctx, ph.Root, args[1], 0, 0)
			if err != nil {
				return err
			}
			printResults(a, res, true)
			return nil
		},
	}
}

func printResults(a *app, res []storage.SearchResult, usage bool) {
	if len(res) == 0 {
		fmt.Fprintln(a.out, "No matches")
		return
	}
	for _, r := range res {
		mark := ""
		if usage && !r.Explicit {
			mark = " (mention)"
		}
		fmt.Fprintf(a.out, "%-14s %s%s  %s\n", r.Type, r.Path, mark, strings.TrimSpace(r.Snippet))
	}
}
