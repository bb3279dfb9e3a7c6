/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package tagging

import (
	"strings"

	"golang.org/x/text/cases"

	"cineprompt/internal/domain"
)

// ImplicitMentions returns the props and scenes whose names occur in text
// as whole words, ignoring case, and that are not already in explicit.
// Ids come back in registry order. Characters are never detected here;
// they are referenced by markers or as dialogue speakers.
func ImplicitMentions(text string, explicit References, reg domain.Registry) References {
	var found References
	fold := cases.Fold()
	hay := fold.String(text)
	if strings.TrimSpace(hay) == "" {
		return found
	}
	for _, p := range reg.Props() {
		if explicit.Props.Has(p.ID) || strings.TrimSpace(p.Name) == "" {
			continue
		}
		if containsWord(hay, fold.String(p.Name)) {
			found.Props.Add(p.ID)
		}
	}
	for _, s := range reg.Scenes() {
		if explicit.Scenes.Has(s.ID) || strings.TrimSpace(s.Name) == "" {
			continue
		}
		if containsWord(hay, fold.String(s.Name)) {
			found.Scenes.Add(s.ID)
		}
	}
	return found
}
