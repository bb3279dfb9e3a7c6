/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package assemble

import (
	"fmt"
	"strings"

	"cineprompt/internal/domain"
)

// Prompt builds the natural-language prompt for a shot:
//
//	Character Context: <role> is played by <actor> (<desc>), wearing <costume> (<desc>).
//	Location Context: <scene> is <desc>
//	Scene: ...
//	Action: ...
//	Dialogue:
//	<lines>
//	Camera:
//	<Category>: <Value> (<Timing>)
//
// Context blocks, dialogue and camera appear only when non-empty. Blocks
// are separated by a blank line and the result is trimmed.
func Prompt(s domain.Shot, reg domain.Registry) string {
	return PromptFrom(s, Resolve(s, reg))
}

// PromptFrom renders a prompt from an existing resolution.
func PromptFrom(s domain.Shot, r Resolution) string {
	var b strings.Builder
	if len(r.Characters) > 0 {
		for _, c := range r.Characters {
			b.WriteString(characterContext(c))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	if len(r.Scenes) > 0 {
		for _, sc := range r.Scenes {
			fmt.Fprintf(&b, "Location Context: %s is %s\n", sc.Name, sc.Description)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Scene: %s\n\n", r.SceneText)
	fmt.Fprintf(&b, "Action: %s\n\n", r.ActionText)
	if r.DialogueText != "" {
		fmt.Fprintf(&b, "Dialogue:\n%s\n\n", r.DialogueText)
	}
	if cam := CameraText(s.CameraInstructions); cam != "" {
		b.WriteString("Camera:\n")
		b.WriteString(cam)
	}
	return strings.TrimSpace(b.String())
}

func characterContext(c Cast) string {
	actor := "Unknown Actor"
	if c.Actor != nil {
		actor = fmt.Sprintf("%s (%s)", c.Actor.Name, c.Actor.Description)
	}
	costume := "Unknown Costume"
	if c.Costume != nil {
		costume = fmt.Sprintf("%s (%s)", c.Costume.Name, c.Costume.Description)
	}
	return fmt.Sprintf("Character Context: %s is played by %s, wearing %s.", c.Character.Name, actor, costume)
}

// CameraText lists camera instructions one per line as "Category: Value (Timing)".
func CameraText(ins []domain.CameraInstruction) string {
	lines := make([]string, 0, len(ins))
	for _, i := range ins {
		lines = append(lines, fmt.Sprintf("%s: %s (%s)", i.Category, i.Value, i.Timing))
	}
	return strings.Join(lines, "\n")
}
