/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"regexp"
	"strings"

	"cineprompt/internal/markup"
)

var (
	reSpeaker = regexp.MustCompile(`^([^:]+):\s*(.*)$`)
	reLines   = regexp.MustCompile(`\n+`)
)

// ParseDialogue splits a free-form dialogue block into lines.
//
// The input may be editor markup; it is flattened to its visible text first.
// Each non-empty line of the form "NAME: text" becomes a spoken line with
// surrounding double quotes removed from the text. Lines without a speaker
// prefix are kept as generic lines so nothing typed is lost.
func ParseDialogue(input string) []Line {
	flat := strings.ReplaceAll(markup.ParseHTML(input).String(), "\r\n", "\n")
	flat = strings.ReplaceAll(flat, "\u00a0", " ")

	var out []Line
	for i, raw := range reLines.Split(flat, -1) {
		trim := strings.TrimSpace(raw)
		if trim == "" {
			continue
		}
		if m := reSpeaker.FindStringSubmatch(trim); m != nil {
			out = append(out, Line{Type: LineSpoken, Speaker: strings.TrimSpace(m[1]), Text: unquote(m[2]), LineNo: i + 1})
			continue
		}
		out = append(out, Line{Type: LineGeneric, Text: trim, LineNo: i + 1})
	}
	return out
}

// unquote strips one leading and one trailing double quote.
func unquote(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, `"`)
	s = strings.TrimSuffix(s, `"`)
	return s
}

// Format renders lines back into the block form accepted by ParseDialogue.
// Spoken lines are written as NAME: "text".
func Format(lines []Line) string {
	parts := make([]string, 0, len(lines))
	for _, l := range lines {
		if l.Type == LineSpoken {
			parts = append(parts, l.Speaker+": \""+l.Text+"\"")
			continue
		}
		parts = append(parts, l.Text)
	}
	return strings.Join(parts, "\n")
}
