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
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"cineprompt/internal/domain"
	"cineprompt/internal/generate"
	"cineprompt/internal/storage"
)

func newGenerateCmd(a *app) *cobra.Command {
	var (
		shots     int
		skipCast  bool
		skipShots bool
	)
	cmd := &cobra.Command{
		Use:   "generate <dir> <idea>",
		Short: "Generate a cast, treatment and storyboard from an idea",
		Long: "Generate asks the model for a treatment and cast first and then for a storyboard " +
			"that uses them. The project folder is created when it does not exist yet.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			gen, err := a.generator(ctx)
			if err != nil {
				return err
			}
			ph, err := a.openOrInit(ctx, args[0])
			if err != nil {
				return err
			}
			idea := args[1]
			p := ph.Project
			p.OriginalIdea = idea
			if !skipCast {
				c := a.cfg.Generation.Counts
				assets, err := gen.GenerateProjectAssets(ctx, idea, generate.Counts{
					Actors: c.Actors, Costumes: c.Costumes, Props: c.Props, Scenes: c.Scenes, Characters: c.Characters,
				})
				if err != nil {
					return fmt.Errorf("generate assets: %w", err)
				}
				p = assets.Apply(p)
				fmt.Fprintf(a.out, "Cast: %d actors, %d costumes, %d props, %d scenes, %d characters\n",
					len(p.Actors), len(p.Costumes), len(p.Props), len(p.Scenes), len(p.Characters))
			}
			if !skipShots {
				if shots <= 0 {
					shots = a.cfg.Generation.ShotCount
				}
				board, err := gen.GenerateStoryboard(ctx, generate.StoryboardContext(idea, p.Treatment), generate.CastOf(&p), shots)
				if err != nil {
					return fmt.Errorf("generate storyboard: %w", err)
				}
				p = p.AppendShots(board...)
				fmt.Fprintf(a.out, "Storyboard: %d shot(s)\n", len(board))
			}
			ph.Project = p
			return a.saveProject(ctx, ph)
		},
	}
	cmd.Flags().IntVar(&shots, "shots", 0, "number of shots (default from config)")
	cmd.Flags().BoolVar(&skipCast, "no-cast", false, "keep the existing cast and treatment")
	cmd.Flags().BoolVar(&skipShots, "no-storyboard", false, "only generate the cast and treatment")
	return cmd
}

func newShotCmd(a *app) *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "shot <dir> <description>",
		Short: "Generate one shot from a description and append it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			gen, err := a.generator(ctx)
			if err != nil {
				return err
			}
			ph, err := a.openProject(ctx, args[0])
			if err != nil {
				return err
			}
			shot, text, err := gen.GenerateSingleShot(ctx, args[1], generate.CastOf(&ph.Project))
			if raw {
				fmt.Fprintln(a.out, text)
			}
			if err != nil {
				return fmt.Errorf("generate shot: %w", err)
			}
			ph.Project = ph.Project.AppendShots(shot)
			if err := a.saveProject(ctx, ph); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Added shot %d: %s\n", len(ph.Project.Shots), shot.Title)
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print the raw model answer")
	return cmd
}

// openOrInit opens the project at dir or creates it when no manifest exists.
func (a *app) openOrInit(ctx context.Context, dir string) (*storage.ProjectHandle, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(filepath.Join(abs, storage.ManifestFileName)); errors.Is(err, os.ErrNotExist) {
		return storage.InitProject(abs, domain.New(""))
	}
	return a.openProject(ctx, abs)
}
