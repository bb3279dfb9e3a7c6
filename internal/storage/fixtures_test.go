/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"cineprompt/internal/domain"
	"cineprompt/internal/markup"
)

// sampleProject has one tagged shot that also mentions a scene and a prop by name only.
func sampleProject() domain.Project {
	p := domain.New("Orb Heist")
	p.ID = "proj-1"
	p.OriginalIdea = "A thief steals a glowing orb"
	p.Actors = []domain.Actor{{ID: "a1", Name: "John Smith", Description: "tall"}}
	p.Costumes = []domain.Costume{{ID: "co1", Name: "Combat Suit", Description: "black"}}
	p.Characters = []domain.Character{{ID: "c1", Name: "Hero", ActorID: "a1", CostumeID: "co1"}}
	p.Props = []domain.Prop{{ID: "p1", Name: "Glowing Orb", Description: "pulses blue"}, {ID: "p2", Name: "Crate", Description: "wooden"}}
	p.Scenes = []domain.Scene{{ID: "s1", Name: "Warehouse", Description: "dusty"}}
	p.Shots = []domain.Shot{{
		ID:            "sh1",
		SequenceOrder: 1,
		Title:         "The Grab",
		ActionPrompt: markup.Concat(
			markup.Plain("The "),
			markup.Reference(markup.KindCharacter, "c1", "Hero"),
			markup.Plain(" lifts the "),
			markup.Reference(markup.KindProp, "p1", "Glowing Orb"),
			markup.Plain(" in the warehouse."),
		),
		DialogueLines:      []domain.DialogueLine{{ID: "d1", CharacterID: "c1", Text: "Look at this crate"}},
		CameraInstructions: []domain.CameraInstruction{{ID: "k1", Category: domain.CategoryShot, Value: "Close-up", Timing: "0:00"}},
	}}
	return p
}
