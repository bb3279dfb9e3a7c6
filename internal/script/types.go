/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

// LineType indicates the kind of a dialogue line.
//
//	Spoken:  NAME: text   or   NAME: "text"
//	Generic: any other non-empty line (narration, sound, direction)
type LineType int

const (
	LineGeneric LineType = iota
	LineSpoken
)

// Line is one logical line of a dialogue block. Speaker holds the name as
// written (trimmed, original case); it is empty for generic lines.
type Line struct {
	Type    LineType
	Speaker string
	Text    string
	LineNo  int // 1-based line number in the flattened input
}
