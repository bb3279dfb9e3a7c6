/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package domain defines the storyboard project model: the entity
// collections (actors, costumes, characters, props, scenes), shots with
// their annotated prompts, dialogue and camera directions, and the Registry
// through which the prompt engine looks entities up.
package domain

import "cineprompt/internal/markup"

// Actor is a performer with a physical description.
type Actor struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Costume is a wardrobe item.
type Costume struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Character is a story role: an actor wearing a costume. ActorID and
// CostumeID may dangle after deletions; readers resolve them to "Unknown".
type Character struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ActorID   string `json:"actorId"`
	CostumeID string `json:"costumeId"`
}

type Prop struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Scene is a location.
type Scene struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// DialogueLine is one spoken line. CharacterID is empty for lines without a
// known speaker.
type DialogueLine struct {
	ID          string `json:"id"`
	CharacterID string `json:"characterId"`
	Text        string `json:"text"`
}

type CameraInstruction struct {
	ID       string         `json:"id"`
	Category CameraCategory `json:"category"`
	Value    string         `json:"value"`
	Timing   string         `json:"timing"`
}

// Shot is one storyboard frame. DialogueLines is the only stored form of
// the dialogue; the legacy single-string form is derived (see DialogueText).
type Shot struct {
	ID                 string              `json:"id"`
	SequenceOrder      int                 `json:"sequenceOrder"`
	Title              string              `json:"title"`
	InitialScenePrompt markup.Text         `json:"initialScenePrompt"`
	ActionPrompt       markup.Text         `json:"actionPrompt"`
	DialogueLines      []DialogueLine      `json:"dialogueLines"`
	CameraInstructions []CameraInstruction `json:"cameraInstructions"`
	IsExpanded         bool                `json:"isExpanded"`
}

// Project is the whole storyboard document. LastModified is unix
// milliseconds, stamped by the save library.
type Project struct {
	ID           string      `json:"id"`
	Title        string      `json:"title"`
	OriginalIdea string      `json:"originalIdea"`
	Treatment    string      `json:"treatment"`
	Actors       []Actor     `json:"actors"`
	Costumes     []Costume   `json:"costumes"`
	Props        []Prop      `json:"props"`
	Scenes       []Scene     `json:"scenes"`
	Characters   []Character `json:"characters"`
	Shots        []Shot      `json:"shots"`
	LastModified int64       `json:"lastModified"`
}

// DefaultTitle is the title of a project nobody has named yet.
const DefaultTitle = "Untitled Project"

// New returns an empty project with a fresh id.
func New(title string) Project {
	if title == "" {
		title = DefaultTitle
	}
	return Project{
		ID:         NewID("proj"),
		Title:      title,
		Actors:     []Actor{},
		Costumes:   []Costume{},
		Props:      []Prop{},
		Scenes:     []Scene{},
		Characters: []Character{},
		Shots:      []Shot{},
	}
}

// ImageOwnerIDs lists every id that may own a reference image, in a stable order.
func (p *Project) ImageOwnerIDs() []string {
	var ids []string
	for _, a := range p.Actors {
		ids = append(ids, a.ID)
	}
	for _, c := range p.Costumes {
		ids = append(ids, c.ID)
	}
	for _, pr := range p.Props {
		ids = append(ids, pr.ID)
	}
	for _, s := range p.Scenes {
		ids = append(ids, s.ID)
	}
	for _, c := range p.Characters {
		ids = append(ids, c.ID)
	}
	for _, s := range p.Shots {
		ids = append(ids, s.ID)
	}
	return ids
}

// Shot returns the shot with id.
func (p *Project) Shot(id string) (Shot, bool) {
	for _, s := range p.Shots {
		if s.ID == id {
			return s, true
		}
	}
	return Shot{}, false
}
