/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export writes projects out as JSON, ZIP archives, PDF storyboards
// and per-shot prompt bundles, and reads ZIP archives back in.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"cineprompt/internal/domain"
	"cineprompt/internal/storage"
)

var reSpaces = regexp.MustCompile(`\s+`)

// JSONFileName is the title with whitespace runs replaced by "_", lower-cased.
func JSONFileName(title string) string {
	return strings.ToLower(reSpaces.ReplaceAllString(title, "_")) + ".json"
}

// ProjectJSON renders p as two-space indented JSON, including the derived dialog.
func ProjectJSON(p domain.Project) ([]byte, error) {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal project: %w", err)
	}
	return data, nil
}

// ExportJSON writes the project JSON to outPath and returns the written path.
// An empty outPath uses JSONFileName; relative paths land in the exports folder.
func ExportJSON(ph *storage.ProjectHandle, outPath string) (string, error) {
	if ph == nil {
		return "", fmt.Errorf("project handle is nil")
	}
	data, err := ProjectJSON(ph.Project)
	if err != nil {
		return "", err
	}
	outPath = resolveOut(ph, outPath, JSONFileName(ph.Project.Title), ".json")
	if err := writeOut(outPath, data); err != nil {
		return "", err
	}
	return outPath, nil
}

// resolveOut fills in a default name, places relative paths under the
// exports folder and enforces ext.
func resolveOut(ph *storage.ProjectHandle, outPath, def, ext string) string {
	if outPath == "" {
		outPath = def
	}
	if !filepath.IsAbs(outPath) {
		outPath = filepath.Join(ph.ExportsDir(), outPath)
	}
	if !strings.HasSuffix(strings.ToLower(outPath), ext) {
		outPath += ext
	}
	return outPath
}

func writeOut(outPath string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(outPath), err)
	}
	return nil
}
