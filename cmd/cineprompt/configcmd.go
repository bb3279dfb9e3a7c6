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

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"cineprompt/internal/config"
)

var overridableKeys = []string{
	"generation.model", "generation.timeout_ms", "generation.shot_count", "generation.auto_tag",
	"storage.library_dir", "storage.database_url", "server.addr",
	"logging.level", "logging.format", "logging.source", "logging.file",
}

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change the user configuration",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				path, err := config.ConfigPath()
				if err != nil {
					return err
				}
				b, err := yaml.Marshal(a.cfg)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "# %s\n%s", path, b)
				for _, k := range overridableKeys {
					if env, ok := config.EnvOverrideFor(k); ok {
						fmt.Fprintf(a.out, "# %s overridden by %s\n", k, env)
					}
				}
				key := "not set"
				if a.apiKey != "" {
					key = "set"
				}
				fmt.Fprintf(a.out, "# api key: %s\n", key)
				return nil
			},
		},
		&cobra.Command{
			Use:   "set-key <key>",
			Short: "Store the generation API key in the OS keyring",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := config.Save(a.cfg, args[0]); err != nil {
					return err
				}
				fmt.Fprintln(a.out, "API key saved")
				return nil
			},
		},
		&cobra.Command{
			Use:   "clear-key",
			Short: "Remove the stored API key",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				if err := config.ClearAPIKey(); err != nil {
					return err
				}
				fmt.Fprintln(a.out, "API key removed")
				return nil
			},
		},
	)
	return cmd
}
