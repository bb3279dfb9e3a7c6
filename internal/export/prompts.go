/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gosimple/slug"

	"cineprompt/internal/assemble"
	"cineprompt/internal/domain"
)

// WritePromptBundle writes NN-<slug>.txt (the text prompt) and
// NN-<slug>.json (the structured document) for every shot into dir and
// returns the written file names in order.
func WritePromptBundle(dir string, p domain.Project) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure out dir: %w", err)
	}
	ix := domain.NewIndex(&p)
	names := make([]string, 0, 2*len(p.Shots))
	for i, s := range p.Shots {
		base := fmt.Sprintf("%02d-%s", i+1, shotSlug(s, i))
		doc, err := assemble.DocumentJSON(s, ix)
		if err != nil {
			return nil, fmt.Errorf("shot %s: %w", s.ID, err)
		}
		files := []struct {
			name string
			data []byte
		}{
			{base + ".txt", []byte(assemble.Prompt(s, ix) + "\n")},
			{base + ".json", append(doc, '\n')},
		}
		for _, f := range files {
			if err := writeOut(filepath.Join(dir, f.name), f.data); err != nil {
				return nil, err
			}
			names = append(names, f.name)
		}
	}
	return names, nil
}

func shotSlug(s domain.Shot, i int) string {
	if sl := slug.Make(s.Title); sl != "" {
		return sl
	}
	return fmt.Sprintf("shot-%d", i+1)
}
