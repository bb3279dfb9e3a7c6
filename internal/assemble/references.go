/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package assemble

import (
	"cmp"
	"fmt"

	"cineprompt/internal/domain"
)

// Reference image prompts. Each asks an image model for a neutral
// reference picture of one entity.

func ActorImagePrompt(a domain.Actor) string {
	return fmt.Sprintf("A full head and shoulder portrait well lit shot against a white background of %s wearing a simple white t-shirt", a.Description)
}

func CostumeImagePrompt(c domain.Costume) string {
	return fmt.Sprintf("A full length view of a costume with no people consisting of %s", c.Description)
}

func PropImagePrompt(p domain.Prop) string {
	return fmt.Sprintf("A close up well lit studio photograph against a white background of %s", p.Description)
}

func SceneImagePrompt(s domain.Scene) string {
	return fmt.Sprintf("A detailed cinematic view of a location with no people: %s", s.Description)
}

// Turnaround holds the three character sheet views.
type Turnaround struct {
	Frontal string `json:"frontal"`
	Side    string `json:"side"`
	Rear    string `json:"rear"`
}

// CharacterSheet is the exported description of one role.
type CharacterSheet struct {
	Role        string     `json:"role"`
	ActorName   string     `json:"actorName"`
	CostumeName string     `json:"costumeName"`
	Description string     `json:"description"`
	Prompts     Turnaround `json:"prompts"`
}

// EntityPrompt is the exported reference prompt for a non-character entity.
type EntityPrompt struct {
	ID          string `json:"id"`
	Kind        string `json:"kind"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// BuildCharacterSheet describes c for a turnaround sheet. Missing actor or
// costume descriptions fall back to generic wording.
func BuildCharacterSheet(c domain.Character, reg domain.Registry) CharacterSheet {
	a, _ := reg.Actor(c.ActorID)
	co, _ := reg.Costume(c.CostumeID)
	base := fmt.Sprintf("%s wearing %s", cmp.Or(a.Description, "an actor"), cmp.Or(co.Description, "casual clothes"))
	return CharacterSheet{
		Role:        c.Name,
		ActorName:   a.Name,
		CostumeName: co.Name,
		Description: base,
		Prompts: Turnaround{
			Frontal: "Full body frontal shot of " + base + ", neutral lighting, solid background",
			Side:    "Side profile full body shot of " + base + ", neutral lighting, solid background",
			Rear:    "Rear view full body shot of " + base + ", neutral lighting, solid background",
		},
	}
}

// ReferenceSet is every reference prompt of a project.
type ReferenceSet struct {
	Characters []CharacterSheet `json:"characters"`
	Entities   []EntityPrompt   `json:"entities"`
}

// ReferencePrompts builds the reference prompts for all entities of p.
func ReferencePrompts(p *domain.Project) ReferenceSet {
	ix := domain.NewIndex(p)
	rs := ReferenceSet{Characters: []CharacterSheet{}, Entities: []EntityPrompt{}}
	for _, c := range p.Characters {
		rs.Characters = append(rs.Characters, BuildCharacterSheet(c, ix))
	}
	for _, a := range p.Actors {
		rs.Entities = append(rs.Entities, EntityPrompt{ID: a.ID, Kind: "actor", Name: a.Name, Description: ActorImagePrompt(a)})
	}
	for _, c := range p.Costumes {
		rs.Entities = append(rs.Entities, EntityPrompt{ID: c.ID, Kind: "costume", Name: c.Name, Description: CostumeImagePrompt(c)})
	}
	for _, pr := range p.Props {
		rs.Entities = append(rs.Entities, EntityPrompt{ID: pr.ID, Kind: "prop", Name: pr.Name, Description: PropImagePrompt(pr)})
	}
	for _, s := range p.Scenes {
		rs.Entities = append(rs.Entities, EntityPrompt{ID: s.ID, Kind: "scene", Name: s.Name, Description: SceneImagePrompt(s)})
	}
	return rs
}
