/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"strings"

	"cineprompt/internal/script"
)

// UnknownSpeaker names a dialogue line whose character cannot be resolved.
const UnknownSpeaker = "Unknown"

// SpeakerName resolves the display name for a line.
func SpeakerName(l DialogueLine, reg Registry) string {
	if c, ok := reg.Character(l.CharacterID); ok && l.CharacterID != "" {
		return c.Name
	}
	return UnknownSpeaker
}

// DialogueText derives the legacy single-string dialogue, one
// Name: "text" line per entry.
func DialogueText(lines []DialogueLine, reg Registry) string {
	parts := make([]string, 0, len(lines))
	for _, l := range lines {
		parts = append(parts, SpeakerName(l, reg)+": \""+l.Text+"\"")
	}
	return strings.Join(parts, "\n")
}

// ParseDialogueLines converts a free-form dialogue block into lines,
// matching speaker names to characters case-insensitively. Unmatched
// speakers and lines without a speaker get an empty CharacterID.
func ParseDialogueLines(text string, chars []Character) []DialogueLine {
	parsed := script.ParseDialogue(text)
	out := make([]DialogueLine, 0, len(parsed))
	for _, l := range parsed {
		dl := DialogueLine{ID: NewID("dl"), Text: l.Text}
		if l.Type == script.LineSpoken {
			if c, ok := CharacterByName(chars, l.Speaker); ok {
				dl.CharacterID = c.ID
			}
		}
		out = append(out, dl)
	}
	return out
}
