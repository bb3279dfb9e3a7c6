/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package generate

import (
	"fmt"
	"strings"

	"cineprompt/internal/domain"
)

// Cast is the entity context handed to shot generation.
type Cast struct {
	Actors     []domain.Actor
	Costumes   []domain.Costume
	Characters []domain.Character
	Props      []domain.Prop
	Scenes     []domain.Scene
}

// CastOf takes the entity lists of a project.
func CastOf(p *domain.Project) Cast {
	if p == nil {
		return Cast{}
	}
	return Cast{
		Actors:     p.Actors,
		Costumes:   p.Costumes,
		Characters: p.Characters,
		Props:      p.Props,
		Scenes:     p.Scenes,
	}
}

func (c Cast) registry() *domain.Index {
	return domain.NewIndex(&domain.Project{
		Actors:     c.Actors,
		Costumes:   c.Costumes,
		Characters: c.Characters,
		Props:      c.Props,
		Scenes:     c.Scenes,
	})
}

func namedList(b *strings.Builder, header string, items [][2]string) {
	if len(items) == 0 {
		return
	}
	b.WriteString("\n\n")
	b.WriteString(header)
	b.WriteString("\n")
	for i, it := range items {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(b, "- %s: %s", it[0], it[1])
	}
}

func pairs[T any](xs []T, f func(T) (string, string)) [][2]string {
	out := make([][2]string, 0, len(xs))
	for _, x := range xs {
		n, d := f(x)
		out = append(out, [2]string{n, d})
	}
	return out
}

// castContext lists the available entities. Roles are listed only when
// both their actor and costume resolve.
func castContext(c Cast) string {
	var b strings.Builder
	namedList(&b, "AVAILABLE ACTORS (Do not use these names directly, use the Role Names below):",
		pairs(c.Actors, func(a domain.Actor) (string, string) { return a.Name, a.Description }))
	namedList(&b, "WARDROBE / COSTUMES:",
		pairs(c.Costumes, func(x domain.Costume) (string, string) { return x.Name, x.Description }))
	namedList(&b, "KEY PROPS (Incorporate these into the scene where relevant):",
		pairs(c.Props, func(p domain.Prop) (string, string) { return p.Name, p.Description }))
	namedList(&b, "LOCATIONS / SCENES (Use these for the initialScenePrompt):",
		pairs(c.Scenes, func(s domain.Scene) (string, string) { return s.Name, s.Description }))
	if len(c.Characters) > 0 {
		reg := c.registry()
		b.WriteString("\n\nDEFINED ROLES (Use these names in your prompts):\n")
		for _, ch := range c.Characters {
			a, okA := reg.Actor(ch.ActorID)
			co, okC := reg.Costume(ch.CostumeID)
			if okA && okC {
				fmt.Fprintf(&b, "- Name: %q (is played by actor %s wearing %s)\n", ch.Name, a.Name, co.Name)
			}
		}
	}
	return b.String()
}

func roleNames(c Cast) string {
	names := make([]string, 0, len(c.Characters))
	for _, ch := range c.Characters {
		names = append(names, ch.Name)
	}
	return strings.Join(names, `", "`)
}

func assetsPrompt(idea string, n Counts) string {
	return fmt.Sprintf(`Analyze the following movie idea and create a detailed Film Treatment, along with a creative cast of characters, actors, costumes, props, and scenes.

1. Create a Film Treatment including:
   - Logline: A one-sentence hook.
   - Synopsis: A brief overview (1-2 paragraphs).
   - Character Profiles: Focused profiles of key players.
   - Story Arc: The beginning, middle, and end.
   - Tone and Style: Visual and emotional blueprint.

2. Create %d distinct Actors. IMPORTANT: Their names MUST be simple, generic real-world names (e.g. "John Smith", "Sarah Jones"), NOT story character names. Provide detailed physical descriptions including age, specific ethnicity, hair color/style, eye color, height/body type, and distinct facial features.
3. Create %d distinct Costumes with names and visual descriptions.
4. Create %d significant Props (items, weapons, vehicles, or artifacts) with names and visual details.
5. Create %d distinct Scene (Location/Environment) with name and visual description. This should describe the place WITHOUT people.
6. Create %d distinct Characters (Roles) by combining an Actor and a Costume. Give the Character a distinct Role Name (e.g. "The Hero", "The Villain", "The Detective").

STRICT CONSTRAINTS:
- Keep descriptions concise (max 40 words).
- Avoid flowery language.
- Output pure JSON.

Movie Idea: "%s"
`, n.Actors, n.Costumes, n.Props, n.Scenes, n.Characters, idea)
}

func storyboardPrompt(idea string, count int, c Cast) string {
	noun := "shots"
	if count == 1 {
		noun = "shot"
	}
	return fmt.Sprintf(`Act as a professional cinematographer and director.
Break down the following movie idea into a sequence of exactly %d distinct storyboard %s.
%s

IMPORTANT: When describing characters in "actionPrompt", YOU MUST use the exact Role Names provided in the "DEFINED ROLES" list (e.g. "%s"). Do not use the Actor names directly.

STRICT CONSTRAINTS:
- Titles must be very short (max 5 words).
- Descriptions must be concise (max 30 words per field).
- DO NOT write long paragraphs.
- Output valid JSON ARRAY.

For each shot, provide a JSON object with:
1. "title" (e.g., "The Setup").
2. "initialScenePrompt": A visual description of the static starting frame location. DESCRIBE THE SET ONLY. DO NOT INCLUDE ANY CHARACTERS OR PEOPLE IN THIS FIELD.
3. "actionPrompt": A description of the movement and action. Characters enter or perform actions here. Use Role Names.
4. "dialogue": An array of objects, each with "speaker" and "text".
5. "cameraInstructions": An array of objects, each with "category" (Shot/Angle/Movement), "value", and "timing" (e.g. "0:00").

Movie Idea: "%s"

RESPONSE FORMAT:
[
  {
    "title": "...",
    "initialScenePrompt": "...",
    "actionPrompt": "...",
    "dialogue": [{"speaker": "...", "text": "..."}],
    "cameraInstructions": [{"category": "Shot", "value": "Wide", "timing": "0:00"}]
  }
]
`, count, noun, castContext(c), roleNames(c), idea)
}

func singleShotPrompt(description string, c Cast) string {
	return fmt.Sprintf(`Act as a professional cinematographer.
Create a single detailed storyboard shot based on the following description: "%s"

%s

IMPORTANT: When describing characters in "actionPrompt", YOU MUST use the exact Role Names provided in the "DEFINED ROLES" list (e.g. "%s"). Do not use the Actor names directly.

STRICT CONSTRAINTS:
- Titles must be very short (max 5 words).
- Descriptions must be concise (max 30 words per field).
- DO NOT write long paragraphs.
- Output valid JSON.

Provide a JSON object with the following fields:
1. "title"
2. "initialScenePrompt" (visual description of static set only, NO people)
3. "actionPrompt" (action description with characters)
4. "dialogue" (array of {speaker, text})
5. "cameraInstructions" (array of {category, value, timing})

Example Structure:
{
   "title": "...",
   "initialScenePrompt": "...",
   "actionPrompt": "...",
   "dialogue": [...],
   "cameraInstructions": [...]
}
`, description, castContext(c), roleNames(c))
}
