/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cineprompt/internal/domain"
	"cineprompt/internal/generate"
	"cineprompt/internal/markup"
	"cineprompt/internal/storage"
	"cineprompt/internal/undo"
)

type fakeModel struct{ reply string }

func (f fakeModel) Generate(context.Context, string, generate.Options) (string, error) {
	return f.reply, nil
}

func sampleProject() domain.Project {
	p := domain.New("Orb Heist")
	p.ID = "proj-1"
	p.Actors = []domain.Actor{{ID: "a1", Name: "Sam Lee", Description: "tall"}}
	p.Costumes = []domain.Costume{{ID: "co1", Name: "Black Suit", Description: "matte black"}}
	p.Characters = []domain.Character{{ID: "c1", Name: "Hero", ActorID: "a1", CostumeID: "co1"}}
	p.Props = []domain.Prop{{ID: "p1", Name: "Glowing Orb", Description: "blue light"}}
	p.Scenes = []domain.Scene{{ID: "s1", Name: "Warehouse", Description: "dusty"}}
	return p
}

func newTestServer(t *testing.T, opts ...Option) (*Server, http.Handler) {
	t.Helper()
	lib, err := storage.OpenSQLiteLibrary(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("open library: %v", err)
	}
	t.Cleanup(func() { _ = lib.Close() })
	if _, err := lib.Save(context.Background(), sampleProject()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	opts = append([]Option{WithHistory(undo.NewHistory(undo.Config{MinInterval: time.Nanosecond}))}, opts...)
	s := New(lib, opts...)
	return s, s.Handler()
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealthAndVersion(t *testing.T) {
	_, h := newTestServer(t)
	if rec := do(t, h, http.MethodGet, "/healthz", nil); rec.Code != http.StatusOK {
		t.Fatalf("healthz = %d", rec.Code)
	}
	rec := do(t, h, http.MethodGet, "/version", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "version") {
		t.Fatalf("version = %d %s", rec.Code, rec.Body.String())
	}
}

func TestProjectLifecycle(t *testing.T) {
	_, h := newTestServer(t)

	p := domain.New("")
	p.ID = "proj-2"
	rec := do(t, h, http.MethodPost, "/api/projects", p)
	if rec.Code != http.StatusOK {
		t.Fatalf("save = %d %s", rec.Code, rec.Body.String())
	}
	if saved := decode[domain.Project](t, rec); saved.Title != storage.FallbackTitle || saved.LastModified == 0 {
		t.Fatalf("saved = %+v", saved)
	}

	list := decode[[]storage.Summary](t, do(t, h, http.MethodGet, "/api/projects", nil))
	if len(list) != 2 {
		t.Fatalf("list = %+v", list)
	}

	rec = do(t, h, http.MethodPut, "/api/projects/proj-2/title", titleRequest{Title: "Renamed"})
	if rec.Code != http.StatusOK || decode[domain.Project](t, rec).Title != "Renamed" {
		t.Fatalf("rename = %d %s", rec.Code, rec.Body.String())
	}
	if rec := do(t, h, http.MethodPut, "/api/projects/proj-2/title", titleRequest{Title: " "}); rec.Code != http.StatusBadRequest {
		t.Fatalf("blank rename = %d", rec.Code)
	}

	if rec := do(t, h, http.MethodDelete, "/api/projects/proj-2", nil); rec.Code != http.StatusNoContent {
		t.Fatalf("delete = %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/api/projects/proj-2", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("load deleted = %d", rec.Code)
	}
	if rec := do(t, h, http.MethodDelete, "/api/projects/proj-2", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("delete twice = %d", rec.Code)
	}
}

func TestShotEditingAndAssembly(t *testing.T) {
	_, h := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/api/projects/proj-1/shots", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add shot = %d %s", rec.Code, rec.Body.String())
	}
	shot := decode[domain.Shot](t, rec)
	if shot.Title != "Scene 1" || shot.SequenceOrder != 1 {
		t.Fatalf("added = %+v", shot)
	}

	shot.InitialScenePrompt = markup.Plain("Night in the Warehouse.")
	shot.ActionPrompt = markup.Plain("Hero lifts the Glowing Orb.")
	path := "/api/projects/proj-1/shots/" + shot.ID
	if rec := do(t, h, http.MethodPut, path, shot); rec.Code != http.StatusOK {
		t.Fatalf("update = %d %s", rec.Code, rec.Body.String())
	}

	rec = do(t, h, http.MethodPost, path+"/autotag", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("autotag = %d %s", rec.Code, rec.Body.String())
	}
	tagged := decode[domain.Shot](t, rec)
	if n := len(tagged.ActionPrompt.Refs()); n != 2 {
		t.Fatalf("action refs = %d, want 2", n)
	}
	if n := len(tagged.InitialScenePrompt.Refs()); n != 1 {
		t.Fatalf("scene refs = %d, want 1", n)
	}

	rec = do(t, h, http.MethodGet, path+"/prompt", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("prompt = %d", rec.Code)
	}
	prompt := rec.Body.String()
	for _, want := range []string{
		"Character Context: Hero is played by Sam Lee (tall), wearing Black Suit (matte black).",
		"Location Context: Warehouse is dusty",
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}

	rec = do(t, h, http.MethodGet, path+"/document", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Glowing Orb") {
		t.Fatalf("document = %d %s", rec.Code, rec.Body.String())
	}

	if rec := do(t, h, http.MethodGet, "/api/projects/proj-1/shots/nope/prompt", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("missing shot = %d", rec.Code)
	}
	if rec := do(t, h, http.MethodDelete, path, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("delete shot = %d", rec.Code)
	}
	if rec := do(t, h, http.MethodDelete, path, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("delete shot twice = %d", rec.Code)
	}
}

func TestUndoRedo(t *testing.T) {
	_, h := newTestServer(t)

	if rec := do(t, h, http.MethodPost, "/api/projects/proj-1/undo", nil); rec.Code != http.StatusConflict {
		t.Fatalf("undo with no history = %d", rec.Code)
	}
	do(t, h, http.MethodPost, "/api/projects/proj-1/shots", nil)

	rec := do(t, h, http.MethodPost, "/api/projects/proj-1/undo", nil)
	if rec.Code != http.StatusOK || len(decode[domain.Project](t, rec).Shots) != 0 {
		t.Fatalf("undo = %d %s", rec.Code, rec.Body.String())
	}
	rec = do(t, h, http.MethodPost, "/api/projects/proj-1/redo", nil)
	if rec.Code != http.StatusOK || len(decode[domain.Project](t, rec).Shots) != 1 {
		t.Fatalf("redo = %d %s", rec.Code, rec.Body.String())
	}
	if rec := do(t, h, http.MethodPost, "/api/projects/proj-1/redo", nil); rec.Code != http.StatusConflict {
		t.Fatalf("redo with nothing left = %d", rec.Code)
	}
}

func TestReferences(t *testing.T) {
	_, h := newTestServer(t)
	rec := do(t, h, http.MethodGet, "/api/projects/proj-1/references", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("references = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Full body frontal shot of tall wearing matte black") {
		t.Fatalf("references body: %s", body)
	}
}

func TestGenerateShot(t *testing.T) {
	_, h := newTestServer(t)
	if rec := do(t, h, http.MethodPost, "/api/projects/proj-1/generate/shot", shotRequest{Description: "x"}); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("without generator = %d", rec.Code)
	}

	reply := `{"title": "The Reveal", "initialScenePrompt": "Inside the Warehouse", "actionPrompt": "Hero raises the Glowing Orb", "dialogue": [{"speaker": "hero", "text": "Behold"}]}`
	_, h = newTestServer(t, WithGenerator(generate.New(fakeModel{reply: reply})))
	if rec := do(t, h, http.MethodPost, "/api/projects/proj-1/generate/shot", shotRequest{}); rec.Code != http.StatusBadRequest {
		t.Fatalf("empty description = %d", rec.Code)
	}
	rec := do(t, h, http.MethodPost, "/api/projects/proj-1/generate/shot", shotRequest{Description: "the orb is revealed"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("generate = %d %s", rec.Code, rec.Body.String())
	}
	shot := decode[domain.Shot](t, rec)
	if shot.Title != "The Reveal" || shot.SequenceOrder != 1 {
		t.Fatalf("shot = %+v", shot)
	}
	if len(shot.DialogueLines) != 1 || shot.DialogueLines[0].CharacterID != "c1" {
		t.Fatalf("dialogue = %+v", shot.DialogueLines)
	}
	if len(shot.ActionPrompt.Refs()) != 2 {
		t.Fatalf("generated prompt not tagged: %+v", shot.ActionPrompt)
	}
}

func TestExports(t *testing.T) {
	_, h := newTestServer(t, WithImagesDir(t.TempDir()))
	cases := []struct {
		path, file, prefix string
	}{
		{"/api/projects/proj-1/export/json", "orb_heist.json", "{"},
		{"/api/projects/proj-1/export/zip", "Orb_Heist.zip", "PK"},
		{"/api/projects/proj-1/export/pdf", "orb_heist.pdf", "%PDF"},
	}
	for _, c := range cases {
		rec := do(t, h, http.MethodGet, c.path, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s = %d %s", c.path, rec.Code, rec.Body.String())
		}
		if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, c.file) {
			t.Fatalf("%s disposition = %q", c.path, cd)
		}
		if !strings.HasPrefix(rec.Body.String(), c.prefix) {
			t.Fatalf("%s body does not start with %q", c.path, c.prefix)
		}
	}
	if rec := do(t, h, http.MethodGet, "/api/projects/missing/export/pdf", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("missing project export = %d", rec.Code)
	}
}

func TestMarkupTransforms(t *testing.T) {
	_, h := newTestServer(t)
	p := sampleProject()

	rec := do(t, h, http.MethodPost, "/api/markup/tag", markupRequest{Project: p, Text: "Hero grabs the Glowing Orb"})
	if rec.Code != http.StatusOK {
		t.Fatalf("tag = %d", rec.Code)
	}
	tagged := decode[map[string]string](t, rec)["text"]
	if !strings.Contains(tagged, `data-char-id="c1"`) || !strings.Contains(tagged, `data-prop-id="p1"`) {
		t.Fatalf("tagged = %s", tagged)
	}

	rec = do(t, h, http.MethodPost, "/api/markup/expand", markupRequest{Project: p, Text: tagged})
	expanded := decode[map[string]string](t, rec)["text"]
	if !strings.Contains(expanded, "Hero (Sam Lee - tall, wearing Black Suit - matte black)") {
		t.Fatalf("expanded = %q", expanded)
	}
	if strings.Contains(expanded, "×") {
		t.Fatalf("remove affordance leaked: %q", expanded)
	}

	rec = do(t, h, http.MethodPost, "/api/markup/expand", markupRequest{Project: p, Text: tagged, Concise: true})
	concise := decode[map[string]string](t, rec)["text"]
	if !strings.Contains(concise, "Sam Lee (tall) wearing Black Suit (matte black)") {
		t.Fatalf("concise = %q", concise)
	}

	if rec := do(t, h, http.MethodPost, "/api/markup/tag", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("empty body = %d", rec.Code)
	}
}

func TestCameraVocabulary(t *testing.T) {
	_, h := newTestServer(t)
	var got struct {
		Categories []struct {
			Category string   `json:"category"`
			Values   []string `json:"values"`
		} `json:"categories"`
		Timings []string `json:"timings"`
	}
	rec := do(t, h, http.MethodGet, "/api/camera", nil)
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
	if len(got.Categories) != 3 || got.Categories[2].Category != "Movement" || len(got.Categories[2].Values) != 15 {
		t.Fatalf("categories = %+v", got.Categories)
	}
	if len(got.Timings) == 0 || got.Timings[0] != "0:00" {
		t.Fatalf("timings = %v", got.Timings)
	}
}
