/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package generate

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"cineprompt/internal/domain"
	"cineprompt/internal/markup"
	"cineprompt/internal/tagging"
)

// DefaultShotCount is used when a storyboard request asks for no shots.
const DefaultShotCount = 6

type rawDialogue struct {
	Speaker looseString `json:"speaker"`
	Text    looseString `json:"text"`
}

type rawCamera struct {
	Category looseString `json:"category"`
	Value    looseString `json:"value"`
	Timing   looseString `json:"timing"`
}

type rawShot struct {
	Title              looseString     `json:"title"`
	InitialScenePrompt looseString     `json:"initialScenePrompt"`
	ActionPrompt       looseString     `json:"actionPrompt"`
	Dialogue           json.RawMessage `json:"dialogue"`
	Dialog             looseString     `json:"dialog"`
	CameraInstructions json.RawMessage `json:"cameraInstructions"`
}

// StoryboardContext joins an idea with the project treatment, if any.
func StoryboardContext(idea, treatment string) string {
	if strings.TrimSpace(treatment) == "" {
		return idea
	}
	return idea + "\n\nFILM TREATMENT:\n" + treatment
}

// GenerateStoryboard breaks an idea into count shots. Sequence orders
// start at 1. An unparseable answer yields no shots together with ErrNoJSON.
func (g *Generator) GenerateStoryboard(ctx context.Context, idea string, cast Cast, count int) ([]domain.Shot, error) {
	if count <= 0 {
		count = DefaultShotCount
	}
	text, err := g.call(ctx, "storyboard", storyboardPrompt(idea, count, cast), Options{Temperature: 0.6})
	if err != nil {
		return nil, err
	}
	raw, err := g.decode(ctx, "storyboard", text)
	if err != nil {
		return []domain.Shot{}, err
	}
	items := shotList(raw)
	if len(items) == 0 {
		g.log.WarnContext(ctx, "storyboard response holds no shots")
	}
	reg := cast.registry()
	shots := make([]domain.Shot, 0, len(items))
	for i, item := range items {
		var rs rawShot
		if err := json.Unmarshal(item, &rs); err != nil {
			g.log.WarnContext(ctx, "skipping malformed shot", "index", i, "err", err)
			continue
		}
		s := g.mapShot(rs, "Shot "+strconv.Itoa(len(shots)+1), cast, reg)
		s.SequenceOrder = len(shots) + 1
		shots = append(shots, s)
	}
	return shots, nil
}

// GenerateSingleShot builds one shot from a free-form description. The
// raw model text is returned alongside for display. The caller assigns the
// sequence order.
func (g *Generator) GenerateSingleShot(ctx context.Context, description string, cast Cast) (domain.Shot, string, error) {
	text, err := g.call(ctx, "single_shot", singleShotPrompt(description, cast), Options{Temperature: 0.6})
	if err != nil {
		return domain.Shot{}, "", err
	}
	var rs rawShot
	raw, derr := g.decode(ctx, "single_shot", text)
	if derr == nil {
		derr = json.Unmarshal(firstShot(raw), &rs)
	}
	return g.mapShot(rs, "New Shot", cast, cast.registry()), text, derr
}

func (g *Generator) mapShot(rs rawShot, defaultTitle string, cast Cast, reg domain.Registry) domain.Shot {
	s := domain.Shot{
		ID:                 domain.NewID("shot"),
		Title:              rs.Title.String(),
		InitialScenePrompt: markup.Plain(rs.InitialScenePrompt.String()),
		ActionPrompt:       markup.Plain(rs.ActionPrompt.String()),
		DialogueLines:      mapDialogue(rs, cast.Characters),
		CameraInstructions: mapCamera(rs.CameraInstructions),
		IsExpanded:         true,
	}
	if s.Title == "" {
		s.Title = defaultTitle
	}
	if g.autoTag {
		s = tagging.TagShot(s, reg)
	}
	return s
}

func mapDialogue(rs rawShot, chars []domain.Character) []domain.DialogueLine {
	var list []rawDialogue
	if isArray(rs.Dialogue) && json.Unmarshal(rs.Dialogue, &list) == nil {
		out := make([]domain.DialogueLine, 0, len(list))
		for _, d := range list {
			l := domain.DialogueLine{ID: domain.NewID("dl"), Text: string(d.Text)}
			if c, ok := domain.CharacterByName(chars, d.Speaker.String()); ok {
				l.CharacterID = c.ID
			}
			out = append(out, l)
		}
		return out
	}
	if d := rs.Dialog.String(); d != "" {
		return domain.ParseDialogueLines(d, chars)
	}
	return []domain.DialogueLine{}
}

func mapCamera(raw json.RawMessage) []domain.CameraInstruction {
	var list []rawCamera
	if !isArray(raw) || json.Unmarshal(raw, &list) != nil {
		return []domain.CameraInstruction{}
	}
	out := make([]domain.CameraInstruction, 0, len(list))
	for _, c := range list {
		ci := domain.CameraInstruction{
			ID:       domain.NewID("cam"),
			Category: domain.ParseCameraCategory(c.Category.String()),
			Value:    c.Value.String(),
			Timing:   c.Timing.String(),
		}
		if ci.Value == "" {
			ci.Value = "Wide"
		}
		if ci.Timing == "" {
			ci.Timing = "0:00"
		}
		out = append(out, ci)
	}
	return out
}

func isArray(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return strings.HasPrefix(s, "[")
}
