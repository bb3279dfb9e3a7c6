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
	"unicode"
	"unicode/utf8"
)

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// atBoundary reports whether s[start:end] is not glued to a word rune on
// either side. The edges of s count as boundaries.
func atBoundary(s string, start, end int) bool {
	if start > 0 {
		if r, _ := utf8.DecodeLastRuneInString(s[:start]); isWordRune(r) {
			return false
		}
	}
	if end < len(s) {
		if r, _ := utf8.DecodeRuneInString(s[end:]); isWordRune(r) {
			return false
		}
	}
	return true
}

// findWord returns the byte offsets of whole-word occurrences of needle in
// s, left to right and non-overlapping.
func findWord(s, needle string) [][2]int {
	if strings.TrimSpace(needle) == "" {
		return nil
	}
	var out [][2]int
	for pos := 0; pos <= len(s)-len(needle); {
		i := strings.Index(s[pos:], needle)
		if i < 0 {
			break
		}
		start := pos + i
		end := start + len(needle)
		if atBoundary(s, start, end) {
			out = append(out, [2]int{start, end})
			pos = end
			continue
		}
		_, w := utf8.DecodeRuneInString(s[start:])
		pos = start + w
	}
	return out
}

// containsWord reports whether needle occurs in s as a whole word.
func containsWord(s, needle string) bool { return len(findWord(s, needle)) > 0 }
