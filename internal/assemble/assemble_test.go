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
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"cineprompt/internal/domain"
	"cineprompt/internal/markup"
	"cineprompt/internal/tagging"
)

func warehouseProject() domain.Project {
	p := domain.New("Orb")
	p.Actors = []domain.Actor{{ID: "a1", Name: "John Smith", Description: "tall, brown hair"}}
	p.Costumes = []domain.Costume{{ID: "co1", Name: "Combat Suit", Description: "black tactical gear"}}
	p.Characters = []domain.Character{{ID: "c1", Name: "Hero", ActorID: "a1", CostumeID: "co1"}}
	p.Props = []domain.Prop{{ID: "p1", Name: "Glowing Orb", Description: "pulses blue light"}, {ID: "p2", Name: "Crate", Description: "wooden box"}}
	p.Scenes = []domain.Scene{{ID: "s1", Name: "Warehouse", Description: "dusty concrete floor"}}
	return p
}

func taggedShot(p domain.Project) domain.Shot {
	ix := domain.NewIndex(&p)
	return domain.Shot{
		ID:                 "sh1",
		Title:              "The Find",
		InitialScenePrompt: tagging.TagRegistry(markup.Plain("Night inside the Warehouse, a crate in the corner."), ix),
		ActionPrompt:       tagging.TagRegistry(markup.Plain("Hero picks up the Glowing Orb near the Warehouse entrance."), ix),
		DialogueLines:      []domain.DialogueLine{{ID: "d1", CharacterID: "c1", Text: "Found it."}, {ID: "d2", Text: "(echo)"}},
		CameraInstructions: []domain.CameraInstruction{
			{ID: "k1", Category: domain.CategoryShot, Value: "Close-up", Timing: "0:00"},
			{ID: "k2", Category: domain.CategoryMovement, Value: "Dolly In", Timing: "0:04"},
		},
	}
}

func TestEndToEndExpansionAndDocument(t *testing.T) {
	p := warehouseProject()
	ix := domain.NewIndex(&p)
	s := taggedShot(p)

	r := Resolve(s, ix)
	want := "Hero (John Smith - tall, brown hair, wearing Combat Suit - black tactical gear) picks up the Glowing Orb (pulses blue light) near the Warehouse (dusty concrete floor) entrance."
	if r.ActionText != want {
		t.Fatalf("action =\n%q\nwant\n%q", r.ActionText, want)
	}

	d := BuildDocument(s, ix)
	if len(d.Characters) != 1 || d.Characters[0].Role != "Hero" || *d.Characters[0].Actor != "John Smith" {
		t.Fatalf("characters = %+v", d.Characters)
	}
	if diff := cmp.Diff([]NamedDesc{{"Glowing Orb", "pulses blue light"}, {"Crate", "wooden box"}}, d.Props); diff != "" {
		t.Fatalf("props (explicit then implicit):\n%s", diff)
	}
	if len(d.Locations) != 1 || d.Locations[0].Name != "Warehouse" {
		t.Fatalf("locations = %+v", d.Locations)
	}
	if diff := cmp.Diff([]DialogEntry{{"Hero", "Found it."}, {"Unknown", "(echo)"}}, d.Dialog); diff != "" {
		t.Fatalf("dialog:\n%s", diff)
	}
	if d.Camera[1].Value != "Dolly In" || d.Camera[1].Timing != "0:04" {
		t.Fatalf("camera order: %+v", d.Camera)
	}
}

func TestPromptLayout(t *testing.T) {
	p := warehouseProject()
	ix := domain.NewIndex(&p)
	got := Prompt(taggedShot(p), ix)
	want := strings.Join([]string{
		"Character Context: Hero is played by John Smith (tall, brown hair), wearing Combat Suit (black tactical gear).",
		"",
		"Location Context: Warehouse is dusty concrete floor",
		"",
		"Scene: Night inside the Warehouse (dusty concrete floor), a crate in the corner.",
		"",
		"Action: Hero (John Smith - tall, brown hair, wearing Combat Suit - black tactical gear) picks up the Glowing Orb (pulses blue light) near the Warehouse (dusty concrete floor) entrance.",
		"",
		"Dialogue:",
		"Hero: \"Found it.\"",
		"Unknown: \"(echo)\"",
		"",
		"Camera:",
		"Shot: Close-up (0:00)",
		"Movement: Dolly In (0:04)",
	}, "\n")
	if got != want {
		t.Fatalf("prompt mismatch:\n%s", cmp.Diff(want, got))
	}
}

func TestPromptOmitsEmptySections(t *testing.T) {
	p := warehouseProject()
	ix := domain.NewIndex(&p)
	got := Prompt(domain.Shot{ActionPrompt: markup.Plain("Nothing happens.")}, ix)
	if got != "Scene: \n\nAction: Nothing happens." {
		t.Fatalf("prompt = %q", got)
	}
}

func TestResolveDedupAndDangling(t *testing.T) {
	p := warehouseProject()
	s := taggedShot(p)
	// The orb is tagged and also named literally in the dialogue.
	s.DialogueLines = append(s.DialogueLines, domain.DialogueLine{ID: "d3", CharacterID: "c1", Text: "The glowing orb is warm"})
	// Deleting the actor leaves the role dangling but still resolved.
	p2, _ := p.DeleteEntity("a1")
	p3, _ := p2.DeleteEntity("s1")
	ix := domain.NewIndex(&p3)

	r := Resolve(s, ix)
	count := 0
	for _, pr := range r.Props {
		if pr.ID == "p1" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("explicit+implicit prop must appear once, got %d", count)
	}
	if len(r.Scenes) != 0 {
		t.Fatalf("deleted scene resolved: %+v", r.Scenes)
	}
	if len(r.Characters) != 1 || r.Characters[0].Actor != nil || r.Characters[0].Costume == nil {
		t.Fatalf("dangling actor: %+v", r.Characters)
	}
	if !strings.Contains(r.SceneText, "inside the Warehouse,") {
		t.Fatalf("dangling scene marker should collapse to its name: %q", r.SceneText)
	}
	if !strings.HasPrefix(r.ActionText, "Hero (Unknown Actor, wearing Combat Suit - black tactical gear)") {
		t.Fatalf("action = %q", r.ActionText)
	}
	prompt := PromptFrom(s, r)
	if !strings.HasPrefix(prompt, "Character Context: Hero is played by Unknown Actor, wearing Combat Suit (black tactical gear).") {
		t.Fatalf("prompt = %q", prompt)
	}
	b, err := DocumentFrom(s, r, ix).JSON()
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(b), "actorDescription") {
		t.Fatalf("unresolved actor fields must be omitted: %s", b)
	}
}

func TestDeterministicOutput(t *testing.T) {
	p := warehouseProject()
	s := taggedShot(p)
	a1, _ := DocumentJSON(s, domain.NewIndex(&p))
	a2, _ := DocumentJSON(s, domain.NewIndex(&p))
	if string(a1) != string(a2) || Prompt(s, domain.NewIndex(&p)) != Prompt(s, domain.NewIndex(&p)) {
		t.Fatalf("outputs differ between calls")
	}
	var m map[string]any
	if err := json.Unmarshal(a1, &m); err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"title", "scene", "action", "dialog", "dialogueText", "characters", "locations", "props", "camera"} {
		if _, ok := m[k]; !ok {
			t.Fatalf("document missing key %q", k)
		}
	}
}

func TestReferencePrompts(t *testing.T) {
	p := warehouseProject()
	p.Characters = append(p.Characters, domain.Character{ID: "c2", Name: "Extra", ActorID: "none", CostumeID: "none"})
	rs := ReferencePrompts(&p)
	if len(rs.Characters) != 2 || len(rs.Entities) != 5 {
		t.Fatalf("counts: %d chars, %d entities", len(rs.Characters), len(rs.Entities))
	}
	hero := rs.Characters[0]
	if hero.Description != "tall, brown hair wearing black tactical gear" {
		t.Fatalf("hero description = %q", hero.Description)
	}
	if hero.Prompts.Frontal != "Full body frontal shot of tall, brown hair wearing black tactical gear, neutral lighting, solid background" {
		t.Fatalf("frontal = %q", hero.Prompts.Frontal)
	}
	if rs.Characters[1].Description != "an actor wearing casual clothes" {
		t.Fatalf("fallback description = %q", rs.Characters[1].Description)
	}
	if rs.Entities[0].Description != "A full head and shoulder portrait well lit shot against a white background of tall, brown hair wearing a simple white t-shirt" {
		t.Fatalf("actor prompt = %q", rs.Entities[0].Description)
	}
	if !strings.HasPrefix(SceneImagePrompt(p.Scenes[0]), "A detailed cinematic view of a location with no people: ") {
		t.Fatalf("scene prompt")
	}
}
