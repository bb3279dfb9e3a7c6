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

	"github.com/spf13/cobra"

	"cineprompt/internal/export"
	"cineprompt/internal/storage"
)

func newExportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a project as PDF, zip archive, JSON or prompt files",
	}
	single := func(use, short string, run func(c *cobra.Command, dir, out string) (string, error)) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <dir> [out]",
			Short: short,
			Args:  cobra.RangeArgs(1, 2),
			RunE: func(c *cobra.Command, args []string) error {
				out := ""
				if len(args) == 2 {
					out = args[1]
				}
				path, err := run(c, args[0], out)
				if err != nil {
					return err
				}
				fmt.Fprintln(a.out, "Wrote", path)
				return nil
			},
		}
	}
	cmd.AddCommand(
		single("pdf", "Export the storyboard PDF", func(c *cobra.Command, dir, out string) (string, error) {
			ph, err := a.openProject(c.Context(), dir)
			if err != nil {
				return "", err
			}
			return export.ExportPDF(ph, out)
		}),
		single("zip", "Export a zip archive with project.json and images", func(c *cobra.Command, dir, out string) (string, error) {
			ph, err := a.openProject(c.Context(), dir)
			if err != nil {
				return "", err
			}
			return export.ExportArchive(c.Context(), ph, out)
		}),
		single("json", "Export the project JSON", func(c *cobra.Command, dir, out string) (string, error) {
			ph, err := a.openProject(c.Context(), dir)
			if err != nil {
				return "", err
			}
			return export.ExportJSON(ph, out)
		}),
		&cobra.Command{
			Use:   "prompts <dir> [outdir]",
			Short: "Write one prompt text and JSON file per shot",
			Args:  cobra.RangeArgs(1, 2),
			RunE: func(c *cobra.Command, args []string) error {
				ph, err := a.openProject(c.Context(), args[0])
				if err != nil {
					return err
				}
				dir := filepath.Join(ph.ExportsDir(), "prompts")
				if len(args) == 2 {
					dir = args[1]
				}
				names, err := export.WritePromptBundle(dir, ph.Project)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Wrote %d file(s) to %s\n", len(names), dir)
				return nil
			},
		},
	)
	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <archive.zip> <dir>",
		Short: "Create a project folder from an exported archive",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := filepath.Abs(args[1])
			if err != nil {
				return err
			}
			ph, res, err := export.ImportArchive(args[0], root)
			if err != nil {
				return err
			}
			if err := storage.BuildIndexIfEmpty(cmd.Context(), ph.Root, ph.Project); err != nil {
				a.log.Warn("index build failed", "err", err)
			}
			fmt.Fprintf(a.out, "Imported %q with %d image(s) into %s\n", ph.Project.Title, len(res.Images), ph.Root)
			return nil
		},
	}
}
