/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package assemble turns a shot into the two outputs handed to image and
// video generators: a natural-language prompt and a structured document.
// Both are pure functions of the shot and a domain.Registry.
package assemble

import (
	"strings"

	"cineprompt/internal/domain"
	"cineprompt/internal/tagging"
)

// Cast is a resolved character with whatever actor and costume still exist.
type Cast struct {
	Character domain.Character
	Actor     *domain.Actor
	Costume   *domain.Costume
}

// Resolution is everything a shot refers to, plus its expanded texts.
type Resolution struct {
	Characters []Cast
	Props      []domain.Prop
	Scenes     []domain.Scene

	SceneText    string
	ActionText   string
	DialogueText string

	// Explicit holds the referenced ids (markers and dialogue speakers);
	// Implicit the props and scenes found by name only.
	Explicit tagging.References
	Implicit tagging.References
}

// Resolve collects the entities a shot refers to. Characters come from
// markers in the scene text, then the action text, then dialogue speakers.
// Props and scenes are the explicit references followed by implicit
// mentions in the action, scene and dialogue text. Ids that no longer
// resolve are dropped.
func Resolve(s domain.Shot, reg domain.Registry) Resolution {
	explicit := tagging.Scan(s.InitialScenePrompt, s.ActionPrompt)
	for _, l := range s.DialogueLines {
		explicit.Characters.Add(l.CharacterID)
	}

	dialogue := domain.DialogueText(s.DialogueLines, reg)
	combined := strings.ToLower(s.ActionPrompt.String() + " " + s.InitialScenePrompt.String() + " " + dialogue)
	implicit := tagging.ImplicitMentions(combined, explicit, reg)

	r := Resolution{
		SceneText:    tagging.Expand(s.InitialScenePrompt, reg),
		ActionText:   tagging.Expand(s.ActionPrompt, reg),
		DialogueText: dialogue,
		Explicit:     explicit,
		Implicit:     implicit,
	}
	for _, id := range explicit.Characters.IDs() {
		c, ok := reg.Character(id)
		if !ok {
			continue
		}
		cast := Cast{Character: c}
		if a, ok := reg.Actor(c.ActorID); ok {
			cast.Actor = &a
		}
		if co, ok := reg.Costume(c.CostumeID); ok {
			cast.Costume = &co
		}
		r.Characters = append(r.Characters, cast)
	}

	var props, scenes tagging.IDSet
	for _, id := range append(explicit.Props.IDs(), implicit.Props.IDs()...) {
		if p, ok := reg.Prop(id); ok && props.Add(id) {
			r.Props = append(r.Props, p)
		}
	}
	for _, id := range append(explicit.Scenes.IDs(), implicit.Scenes.IDs()...) {
		if sc, ok := reg.Scene(id); ok && scenes.Add(id) {
			r.Scenes = append(r.Scenes, sc)
		}
	}
	return r
}
