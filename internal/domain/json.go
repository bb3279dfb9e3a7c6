/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"bytes"
	"encoding/json"
	"fmt"

	"cineprompt/internal/markup"
)

// shotOut adds the derived legacy "dialog" string when a shot is written.
type shotOut struct {
	Shot
	Dialog string `json:"dialog"`
}

// shotIn accepts the older field names still found in saved projects.
type shotIn struct {
	Shot
	InitialFramePrompt markup.Text `json:"initialFramePrompt"`
	Dialog             *string     `json:"dialog"`
}

// MarshalJSON writes the project with empty collections as [] and each
// shot's derived dialog string.
func (p Project) MarshalJSON() ([]byte, error) {
	type plain Project
	q := plain(p)
	q.Actors = nonNil(q.Actors)
	q.Costumes = nonNil(q.Costumes)
	q.Props = nonNil(q.Props)
	q.Scenes = nonNil(q.Scenes)
	q.Characters = nonNil(q.Characters)

	ix := NewIndex(&p)
	shots := make([]shotOut, len(p.Shots))
	for i, s := range p.Shots {
		s.DialogueLines = nonNil(s.DialogueLines)
		s.CameraInstructions = nonNil(s.CameraInstructions)
		shots[i] = shotOut{Shot: s, Dialog: DialogueText(s.DialogueLines, ix)}
	}
	return json.Marshal(struct {
		plain
		Shots []shotOut `json:"shots"`
	}{plain: q, Shots: shots})
}

// UnmarshalJSON reads current and legacy project files.
//
// Legacy handling: files without "actors" stored performers under
// "characters" and had no roles; "initialFramePrompt" is the old name of
// "initialScenePrompt"; a "dialog" string is parsed into lines when a shot
// has none.
func (p *Project) UnmarshalJSON(data []byte) error {
	type plain Project
	var w struct {
		plain
		Actors     json.RawMessage `json:"actors"`
		Characters json.RawMessage `json:"characters"`
		Shots      []shotIn        `json:"shots"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	out := Project(w.plain)
	out.Actors, out.Characters = nil, nil

	switch {
	case present(w.Actors):
		if err := json.Unmarshal(w.Actors, &out.Actors); err != nil {
			return fmt.Errorf("actors: %w", err)
		}
		if present(w.Characters) {
			if err := json.Unmarshal(w.Characters, &out.Characters); err != nil {
				return fmt.Errorf("characters: %w", err)
			}
		}
	case present(w.Characters):
		if err := json.Unmarshal(w.Characters, &out.Actors); err != nil {
			return fmt.Errorf("legacy characters: %w", err)
		}
	}

	out.Shots = make([]Shot, len(w.Shots))
	for i, si := range w.Shots {
		s := si.Shot
		if len(s.InitialScenePrompt) == 0 && len(si.InitialFramePrompt) > 0 {
			s.InitialScenePrompt = si.InitialFramePrompt
		}
		if len(s.DialogueLines) == 0 && si.Dialog != nil && *si.Dialog != "" {
			s.DialogueLines = ParseDialogueLines(*si.Dialog, out.Characters)
		}
		out.Shots[i] = s
	}
	if out.ID == "" {
		out.ID = NewID("proj")
	}
	*p = out
	return nil
}

func present(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) > 0 && !bytes.Equal(t, []byte("null"))
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
