/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	_ "embed"
	"errors"
	"fmt"

	gojsonschema "github.com/xeipuuv/gojsonschema"
	"go.uber.org/multierr"
)

//go:embed schema/project.schema.json
var projectSchema []byte

// ErrInvalidProject is returned when a project document fails schema validation.
var ErrInvalidProject = errors.New("invalid project document")

// ProjectSchema returns the embedded JSON Schema for project.json.
func ProjectSchema() []byte { return projectSchema }

// ValidateProjectJSON checks data against the project schema. Legacy
// layouts that the domain decoder migrates are accepted.
func ValidateProjectJSON(data []byte) error {
	res, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(projectSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProject, err)
	}
	if res.Valid() {
		return nil
	}
	var errs error
	for _, e := range res.Errors() {
		errs = multierr.Append(errs, errors.New(e.String()))
	}
	return fmt.Errorf("%w: %w", ErrInvalidProject, errs)
}
