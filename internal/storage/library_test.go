/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"cineprompt/internal/domain"
)

func fixedClock(t *testing.T, start time.Time) func(time.Duration) {
	t.Helper()
	cur := start
	now = func() time.Time { return cur }
	t.Cleanup(func() { now = time.Now })
	return func(d time.Duration) { cur = cur.Add(d) }
}

func openTestLibrary(t *testing.T) *SQLiteLibrary {
	t.Helper()
	lib, err := OpenSQLiteLibrary(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("OpenSQLiteLibrary: %v", err)
	}
	t.Cleanup(func() { _ = lib.Close() })
	return lib
}

func TestPrepareForSaveTitleRule(t *testing.T) {
	at := time.UnixMilli(1700000000000)
	p := PrepareForSave(domain.New(""), at)
	if p.Title != FallbackTitle || p.LastModified != at.UnixMilli() {
		t.Fatalf("empty project: %+v", p)
	}
	withShot := domain.New("")
	withShot.Shots = []domain.Shot{{ID: "s", Title: "Opening"}}
	if got := PrepareForSave(withShot, at).Title; got != "Opening" {
		t.Fatalf("title from first shot: %q", got)
	}
	named := domain.New("Mine")
	if got := PrepareForSave(named, at).Title; got != "Mine" {
		t.Fatalf("explicit title replaced: %q", got)
	}
}

func TestSortSummariesNaturalTies(t *testing.T) {
	s := []Summary{
		{ID: "1", Title: "Reel 10", LastModified: 5},
		{ID: "2", Title: "Reel 2", LastModified: 5},
		{ID: "3", Title: "Newest", LastModified: 9},
	}
	SortSummaries(s)
	got := []string{s[0].Title, s[1].Title, s[2].Title}
	if diff := cmp.Diff([]string{"Newest", "Reel 2", "Reel 10"}, got); diff != "" {
		t.Fatalf("order:\n%s", diff)
	}
}

func TestSQLiteLibraryRoundTrip(t *testing.T) {
	ctx := context.Background()
	lib := openTestLibrary(t)
	tick := fixedClock(t, time.UnixMilli(1_000))

	saved, err := lib.Save(ctx, sampleProject())
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if saved.LastModified != 1_000 {
		t.Fatalf("lastModified = %d", saved.LastModified)
	}
	tick(time.Second)
	other := domain.New("")
	other.ID = "proj-2"
	if _, err := lib.Save(ctx, other); err != nil {
		t.Fatalf("Save: %v", err)
	}

	list, err := lib.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []Summary{
		{ID: "proj-2", Title: FallbackTitle, LastModified: 2_000, Shots: 0},
		{ID: "proj-1", Title: "Orb Heist", LastModified: 1_000, Shots: 1},
	}
	if diff := cmp.Diff(want, list); diff != "" {
		t.Fatalf("list:\n%s", diff)
	}

	loaded, err := lib.Load(ctx, "proj-1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Shots[0].ActionPrompt.String() != saved.Shots[0].ActionPrompt.String() {
		t.Fatalf("shot text changed: %q", loaded.Shots[0].ActionPrompt.String())
	}

	tick(time.Second)
	renamed, err := lib.Rename(ctx, "proj-1", "Orb Heist II")
	if err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if renamed.LastModified != 3_000 {
		t.Fatalf("rename did not stamp: %d", renamed.LastModified)
	}
	list, _ = lib.List(ctx)
	if list[0].ID != "proj-1" || list[0].Title != "Orb Heist II" {
		t.Fatalf("renamed project should sort first: %+v", list)
	}

	// Saving the same id replaces the entry.
	renamed.Treatment = "new"
	if _, err := lib.Save(ctx, renamed); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if list, _ = lib.List(ctx); len(list) != 2 {
		t.Fatalf("upsert duplicated entry: %+v", list)
	}

	if err := lib.Delete(ctx, "proj-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := lib.Load(ctx, "proj-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if err := lib.Delete(ctx, "proj-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("double delete: %v", err)
	}
	if _, err := lib.Rename(ctx, "missing", "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("rename missing: %v", err)
	}
}
