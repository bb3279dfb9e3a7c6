/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package assemble

import (
	"encoding/json"

	"cineprompt/internal/domain"
)

// Document is the structured form of a shot. Key names are part of the
// export format.
type Document struct {
	Title        string          `json:"title"`
	Scene        string          `json:"scene"`
	Action       string          `json:"action"`
	Dialog       []DialogEntry   `json:"dialog"`
	DialogueText string          `json:"dialogueText"`
	Characters   []CharacterInfo `json:"characters"`
	Locations    []NamedDesc     `json:"locations"`
	Props        []NamedDesc     `json:"props"`
	Camera       []CameraEntry   `json:"camera"`
}

type DialogEntry struct {
	Character string `json:"character"`
	Text      string `json:"text"`
}

// CharacterInfo omits the actor or costume fields when they do not resolve.
type CharacterInfo struct {
	Role               string  `json:"role"`
	Actor              *string `json:"actor,omitempty"`
	ActorDescription   *string `json:"actorDescription,omitempty"`
	Costume            *string `json:"costume,omitempty"`
	CostumeDescription *string `json:"costumeDescription,omitempty"`
}

type NamedDesc struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type CameraEntry struct {
	Category string `json:"category"`
	Value    string `json:"value"`
	Timing   string `json:"timing"`
}

// BuildDocument resolves s against reg and returns its structured form.
func BuildDocument(s domain.Shot, reg domain.Registry) Document {
	return DocumentFrom(s, Resolve(s, reg), reg)
}

// DocumentFrom builds the document from an existing resolution.
func DocumentFrom(s domain.Shot, r Resolution, reg domain.Registry) Document {
	d := Document{
		Title:        s.Title,
		Scene:        r.SceneText,
		Action:       r.ActionText,
		Dialog:       make([]DialogEntry, 0, len(s.DialogueLines)),
		DialogueText: r.DialogueText,
		Characters:   make([]CharacterInfo, 0, len(r.Characters)),
		Locations:    make([]NamedDesc, 0, len(r.Scenes)),
		Props:        make([]NamedDesc, 0, len(r.Props)),
		Camera:       make([]CameraEntry, 0, len(s.CameraInstructions)),
	}
	for _, l := range s.DialogueLines {
		d.Dialog = append(d.Dialog, DialogEntry{Character: domain.SpeakerName(l, reg), Text: l.Text})
	}
	for _, c := range r.Characters {
		ci := CharacterInfo{Role: c.Character.Name}
		if c.Actor != nil {
			ci.Actor, ci.ActorDescription = &c.Actor.Name, &c.Actor.Description
		}
		if c.Costume != nil {
			ci.Costume, ci.CostumeDescription = &c.Costume.Name, &c.Costume.Description
		}
		d.Characters = append(d.Characters, ci)
	}
	for _, sc := range r.Scenes {
		d.Locations = append(d.Locations, NamedDesc{Name: sc.Name, Description: sc.Description})
	}
	for _, p := range r.Props {
		d.Props = append(d.Props, NamedDesc{Name: p.Name, Description: p.Description})
	}
	for _, i := range s.CameraInstructions {
		d.Camera = append(d.Camera, CameraEntry{Category: string(i.Category), Value: i.Value, Timing: i.Timing})
	}
	return d
}

// JSON renders the document with two-space indentation.
func (d Document) JSON() ([]byte, error) { return json.MarshalIndent(d, "", "  ") }

// DocumentJSON is BuildDocument followed by JSON.
func DocumentJSON(s domain.Shot, reg domain.Registry) ([]byte, error) {
	return BuildDocument(s, reg).JSON()
}
