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
	"fmt"

	"google.golang.org/genai"

	"cineprompt/internal/domain"
)

// Counts is how many assets of each kind to request.
type Counts struct {
	Actors     int
	Costumes   int
	Props      int
	Scenes     int
	Characters int
}

// DefaultCounts asks for five of everything.
func DefaultCounts() Counts {
	return Counts{Actors: 5, Costumes: 5, Props: 5, Scenes: 5, Characters: 5}
}

func (c Counts) withDefaults() Counts {
	d := DefaultCounts()
	for _, f := range []struct{ v, def *int }{
		{&c.Actors, &d.Actors}, {&c.Costumes, &d.Costumes}, {&c.Props, &d.Props},
		{&c.Scenes, &d.Scenes}, {&c.Characters, &d.Characters},
	} {
		if *f.v <= 0 {
			*f.v = *f.def
		}
	}
	return c
}

// Treatment is the structured film treatment returned by the model.
type Treatment struct {
	Logline           string
	Synopsis          string
	CharacterProfiles string
	StoryArc          string
	ToneAndStyle      string
}

// String renders the treatment with emoji section headers.
func (t Treatment) String() string {
	return fmt.Sprintf("🎯 Logline:\n%s\n\n📋 Synopsis:\n%s\n\n👥 Character Descriptions:\n%s\n\n🏆 Story Arc:\n%s\n\n🎭 Tone and Style:\n%s",
		t.Logline, t.Synopsis, t.CharacterProfiles, t.StoryArc, t.ToneAndStyle)
}

// Assets is everything GenerateProjectAssets produces.
type Assets struct {
	Treatment  string
	Actors     []domain.Actor
	Costumes   []domain.Costume
	Props      []domain.Prop
	Scenes     []domain.Scene
	Characters []domain.Character
}

// Apply copies the assets into a project, replacing its entity lists.
func (a Assets) Apply(p domain.Project) domain.Project {
	p.Treatment = a.Treatment
	p.Actors = a.Actors
	p.Costumes = a.Costumes
	p.Props = a.Props
	p.Scenes = a.Scenes
	p.Characters = a.Characters
	return p
}

type namedDesc struct {
	Name        looseString `json:"name"`
	Description looseString `json:"description"`
}

type assetsResponse struct {
	Treatment struct {
		Logline           looseString `json:"logline"`
		Synopsis          looseString `json:"synopsis"`
		CharacterProfiles looseString `json:"characterProfiles"`
		StoryArc          looseString `json:"storyArc"`
		ToneAndStyle      looseString `json:"toneAndStyle"`
	} `json:"treatment"`
	Actors     []namedDesc `json:"actors"`
	Costumes   []namedDesc `json:"costumes"`
	Props      []namedDesc `json:"props"`
	Scenes     []namedDesc `json:"scenes"`
	Characters []struct {
		RoleName    looseString `json:"roleName"`
		ActorName   looseString `json:"actorName"`
		CostumeName looseString `json:"costumeName"`
	} `json:"characters"`
}

func stringSchema() *genai.Schema { return &genai.Schema{Type: genai.TypeString} }

func listSchema(fields ...string) *genai.Schema {
	props := make(map[string]*genai.Schema, len(fields))
	for _, f := range fields {
		props[f] = stringSchema()
	}
	return &genai.Schema{Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeObject, Properties: props}}
}

// assetsSchema constrains the asset response shape.
func assetsSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"treatment": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"logline":           stringSchema(),
					"synopsis":          stringSchema(),
					"characterProfiles": stringSchema(),
					"storyArc":          stringSchema(),
					"toneAndStyle":      stringSchema(),
				},
			},
			"actors":     listSchema("name", "description"),
			"costumes":   listSchema("name", "description"),
			"props":      listSchema("name", "description"),
			"scenes":     listSchema("name", "description"),
			"characters": listSchema("roleName", "actorName", "costumeName"),
		},
	}
}

// GenerateProjectAssets asks for a treatment and a full cast for an idea.
// An unparseable answer yields empty Assets together with ErrNoJSON.
func (g *Generator) GenerateProjectAssets(ctx context.Context, idea string, n Counts) (Assets, error) {
	n = n.withDefaults()
	text, err := g.call(ctx, "assets", assetsPrompt(idea, n), Options{
		Temperature: 0.5,
		JSON:        true,
		Schema:      assetsSchema(),
	})
	if err != nil {
		return Assets{}, err
	}
	raw, err := g.decode(ctx, "assets", text)
	if err != nil {
		return Assets{Treatment: Treatment{}.String()}, err
	}
	var resp assetsResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		g.log.WarnContext(ctx, "asset response has unexpected shape", "err", err)
		return Assets{Treatment: Treatment{}.String()}, fmt.Errorf("%w: %v", ErrNoJSON, err)
	}
	return mapAssets(resp), nil
}

func mapAssets(r assetsResponse) Assets {
	out := Assets{
		Treatment: Treatment{
			Logline:           string(r.Treatment.Logline),
			Synopsis:          string(r.Treatment.Synopsis),
			CharacterProfiles: string(r.Treatment.CharacterProfiles),
			StoryArc:          string(r.Treatment.StoryArc),
			ToneAndStyle:      string(r.Treatment.ToneAndStyle),
		}.String(),
		Actors:     []domain.Actor{},
		Costumes:   []domain.Costume{},
		Props:      []domain.Prop{},
		Scenes:     []domain.Scene{},
		Characters: []domain.Character{},
	}
	for _, a := range r.Actors {
		out.Actors = append(out.Actors, domain.Actor{ID: domain.NewID("act"), Name: a.Name.String(), Description: a.Description.String()})
	}
	for _, c := range r.Costumes {
		out.Costumes = append(out.Costumes, domain.Costume{ID: domain.NewID("cos"), Name: c.Name.String(), Description: c.Description.String()})
	}
	for _, p := range r.Props {
		out.Props = append(out.Props, domain.Prop{ID: domain.NewID("prop"), Name: p.Name.String(), Description: p.Description.String()})
	}
	for _, s := range r.Scenes {
		out.Scenes = append(out.Scenes, domain.Scene{ID: domain.NewID("scn"), Name: s.Name.String(), Description: s.Description.String()})
	}
	for i, c := range r.Characters {
		actorID := pick(out.Actors, i, func(a domain.Actor) bool { return a.Name == c.ActorName.String() }, func(a domain.Actor) string { return a.ID })
		costumeID := pick(out.Costumes, i, func(x domain.Costume) bool { return x.Name == c.CostumeName.String() }, func(x domain.Costume) string { return x.ID })
		if actorID == "" || costumeID == "" {
			continue
		}
		out.Characters = append(out.Characters, domain.Character{
			ID:        domain.NewID("char"),
			Name:      c.RoleName.String(),
			ActorID:   actorID,
			CostumeID: costumeID,
		})
	}
	return out
}

// pick returns the id of the first item matching by name, falling back to
// position i modulo the list length.
func pick[T any](xs []T, i int, match func(T) bool, id func(T) string) string {
	for _, x := range xs {
		if match(x) {
			return id(x)
		}
	}
	if len(xs) == 0 {
		return ""
	}
	return id(xs[i%len(xs)])
}
