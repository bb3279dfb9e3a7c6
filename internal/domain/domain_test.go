/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"cineprompt/internal/markup"
)

func sampleProject() Project {
	p := New("Heist")
	p.Actors = []Actor{{ID: "a1", Name: "John", Description: "tall man"}}
	p.Costumes = []Costume{{ID: "co1", Name: "Suit", Description: "black suit"}}
	p.Characters = []Character{{ID: "c1", Name: "Hero", ActorID: "a1", CostumeID: "co1"}}
	p.Props = []Prop{{ID: "p1", Name: "Sword", Description: "steel blade"}}
	p.Scenes = []Scene{{ID: "s1", Name: "Cave", Description: "a dark cave"}}
	return p
}

func TestIndexLookupsAndFirstWins(t *testing.T) {
	p := sampleProject()
	p.Props = append(p.Props, Prop{ID: "p1", Name: "Duplicate"})
	ix := NewIndex(&p)
	if c, ok := ix.Character("c1"); !ok || c.Name != "Hero" {
		t.Fatalf("Character(c1) = %+v, %v", c, ok)
	}
	if pr, _ := ix.Prop("p1"); pr.Name != "Sword" {
		t.Fatalf("first prop should win, got %q", pr.Name)
	}
	if _, ok := ix.Scene("missing"); ok {
		t.Fatalf("missing scene resolved")
	}
	if _, ok := ix.Actor(""); ok {
		t.Fatalf("empty id must not resolve")
	}
	if len(ix.Props()) != 2 {
		t.Fatalf("ordered props should keep duplicates: %d", len(ix.Props()))
	}
}

func TestDialogueTextAndParse(t *testing.T) {
	p := sampleProject()
	ix := NewIndex(&p)
	lines := []DialogueLine{{CharacterID: "c1", Text: "Go!"}, {CharacterID: "ghost", Text: "Boo"}}
	if got := DialogueText(lines, ix); got != "Hero: \"Go!\"\nUnknown: \"Boo\"" {
		t.Fatalf("DialogueText = %q", got)
	}

	parsed := ParseDialogueLines("hero: \"Run\"\nStranger: hi\nWind howls", p.Characters)
	if len(parsed) != 3 {
		t.Fatalf("expected 3 lines, got %+v", parsed)
	}
	if parsed[0].CharacterID != "c1" || parsed[0].Text != "Run" {
		t.Fatalf("line 0 = %+v", parsed[0])
	}
	if parsed[1].CharacterID != "" || parsed[1].Text != "hi" {
		t.Fatalf("unknown speaker line = %+v", parsed[1])
	}
	if parsed[2].CharacterID != "" || parsed[2].Text != "Wind howls" {
		t.Fatalf("generic line = %+v", parsed[2])
	}
}

func TestProjectJSONWritesDerivedDialog(t *testing.T) {
	p := sampleProject()
	p, s := p.AddShot()
	s.DialogueLines = []DialogueLine{{ID: "d1", CharacterID: "c1", Text: "Hello"}}
	s.ActionPrompt = markup.Concat(markup.Reference(markup.KindCharacter, "c1", "Hero"), markup.Plain(" waves"))
	p, err := p.UpdateShot(s)
	if err != nil {
		t.Fatal(err)
	}
	b, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		t.Fatal(err)
	}
	shot := raw["shots"].([]any)[0].(map[string]any)
	if shot["dialog"] != "Hero: \"Hello\"" {
		t.Fatalf("dialog = %v", shot["dialog"])
	}
	if !strings.Contains(shot["actionPrompt"].(string), `data-char-id="c1"`) {
		t.Fatalf("actionPrompt should be html: %v", shot["actionPrompt"])
	}

	var back Project
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Shots[0].ActionPrompt.String() != "Hero waves" || len(back.Shots[0].DialogueLines) != 1 {
		t.Fatalf("round trip lost data: %+v", back.Shots[0])
	}
	if back.Shots[0].DialogueLines[0].ID != "d1" {
		t.Fatalf("stored lines must win over dialog string")
	}
}

func TestProjectJSONEmptyCollectionsAreArrays(t *testing.T) {
	b, err := json.Marshal(Project{ID: "x"})
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{`"actors":[]`, `"props":[]`, `"characters":[]`} {
		if !strings.Contains(string(b), key) {
			t.Fatalf("missing %s in %s", key, b)
		}
	}
}

func TestUnmarshalLegacyProject(t *testing.T) {
	legacy := `{
		"title": "Old",
		"characters": [{"id": "a9", "name": "Mara", "description": "red hair"}],
		"shots": [{
			"id": "sh1", "sequenceOrder": 1, "title": "Open",
			"initialFramePrompt": "A quiet harbor",
			"actionPrompt": "Mara waits",
			"dialog": "Mara: \"Late again\""
		}]
	}`
	var p Project
	if err := json.Unmarshal([]byte(legacy), &p); err != nil {
		t.Fatalf("unmarshal legacy: %v", err)
	}
	if p.ID == "" {
		t.Fatalf("missing id should be generated")
	}
	if len(p.Actors) != 1 || p.Actors[0].Name != "Mara" || p.Actors[0].Description != "red hair" {
		t.Fatalf("legacy characters should become actors: %+v", p.Actors)
	}
	if len(p.Characters) != 0 {
		t.Fatalf("legacy projects have no roles: %+v", p.Characters)
	}
	s := p.Shots[0]
	if s.InitialScenePrompt.String() != "A quiet harbor" {
		t.Fatalf("initialFramePrompt not migrated: %q", s.InitialScenePrompt.String())
	}
	if len(s.DialogueLines) != 1 || s.DialogueLines[0].Text != "Late again" || s.DialogueLines[0].CharacterID != "" {
		t.Fatalf("dialog not parsed: %+v", s.DialogueLines)
	}
	if p.Treatment != "" {
		t.Fatalf("treatment default")
	}
}

func TestUnmarshalCurrentShapeKeepsRoles(t *testing.T) {
	in := `{"id":"p","actors":[{"id":"a1","name":"A"}],"characters":[{"id":"c1","name":"R","actorId":"a1","costumeId":"x"}],"shots":[{"id":"s","dialog":"R: hi"}]}`
	var p Project
	if err := json.Unmarshal([]byte(in), &p); err != nil {
		t.Fatal(err)
	}
	if len(p.Characters) != 1 || p.Characters[0].ActorID != "a1" {
		t.Fatalf("characters = %+v", p.Characters)
	}
	if got := p.Shots[0].DialogueLines; len(got) != 1 || got[0].CharacterID != "c1" {
		t.Fatalf("dialog speaker should resolve to role: %+v", got)
	}
}

func TestEditsAreCopyOnWrite(t *testing.T) {
	p := sampleProject()
	p1, s1 := p.AddShot()
	p2, s2 := p1.AddShot()
	if s1.Title != "Scene 1" || s2.Title != "Scene 2" || s2.SequenceOrder != 2 {
		t.Fatalf("shot defaults: %+v %+v", s1, s2)
	}
	if len(s1.CameraInstructions) != 2 || s1.CameraInstructions[0].Value != "Wide Shot" || s1.CameraInstructions[1].Category != CategoryAngle {
		t.Fatalf("default camera: %+v", s1.CameraInstructions)
	}
	if len(p.Shots) != 0 || len(p1.Shots) != 1 {
		t.Fatalf("earlier values mutated")
	}
	p3, err := p2.DeleteShot(s1.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(p3.Shots) != 1 || p3.Shots[0].SequenceOrder != 1 || p2.Shots[1].SequenceOrder != 2 {
		t.Fatalf("delete/renumber wrong: %+v / %+v", p3.Shots, p2.Shots)
	}
	if _, err := p3.DeleteShot("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	p4, pr, err := p3.UpsertProp(Prop{Name: "Lamp"})
	if err != nil || pr.ID == "" || len(p4.Props) != 2 || len(p3.Props) != 1 {
		t.Fatalf("upsert prop: %v %+v", err, p4.Props)
	}
	p5, err := p4.DeleteEntity(pr.ID)
	if err != nil || len(p5.Props) != 1 || len(p4.Props) != 2 {
		t.Fatalf("delete entity: %v", err)
	}
}

func TestUpsertCharacterValidatesReferences(t *testing.T) {
	p := sampleProject()
	if _, _, err := p.UpsertCharacter(Character{Name: "X", ActorID: "nope", CostumeID: "co1"}); !errors.Is(err, ErrUnknownActor) {
		t.Fatalf("expected ErrUnknownActor, got %v", err)
	}
	if _, _, err := p.UpsertCharacter(Character{Name: "X", ActorID: "a1", CostumeID: "nope"}); !errors.Is(err, ErrUnknownCostume) {
		t.Fatalf("expected ErrUnknownCostume, got %v", err)
	}
	if _, _, err := p.UpsertCharacter(Character{Name: "  "}); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
	// A role may dangle once its actor is deleted.
	p2, _ := p.DeleteEntity("a1")
	if len(p2.Characters) != 1 {
		t.Fatalf("deleting an actor must not cascade")
	}
}

func TestCameraHelpers(t *testing.T) {
	s := Shot{}.AddCameraInstruction(CameraInstruction{Category: CategoryMovement, Value: "Orbit"})
	if s.CameraInstructions[0].Timing != "0:00" || s.CameraInstructions[0].ID == "" {
		t.Fatalf("defaults: %+v", s.CameraInstructions[0])
	}
	id := s.CameraInstructions[0].ID
	s2 := s.Retime(id, "0:15")
	if s2.CameraInstructions[0].Timing != "0:15" || s.CameraInstructions[0].Timing != "0:00" {
		t.Fatalf("retime must copy")
	}
	if len(s2.RemoveCameraInstruction(id).CameraInstructions) != 0 {
		t.Fatalf("remove failed")
	}
	for in, want := range map[string]CameraCategory{" angle ": CategoryAngle, "MOVEMENT": CategoryMovement, "": CategoryShot, " Lens ": "Lens"} {
		if got := ParseCameraCategory(in); got != want {
			t.Fatalf("ParseCameraCategory(%q) = %q, want %q", in, got, want)
		}
	}
	if len(ValuesFor(CategoryMovement)) != 15 {
		t.Fatalf("movement values")
	}
}
