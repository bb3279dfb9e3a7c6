/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/maruel/natural"

	"cineprompt/internal/domain"
)

// ErrNotFound is returned when a library entry does not exist.
var ErrNotFound = errors.New("project not found")

// FallbackTitle replaces the default title on save when there are no shots.
const FallbackTitle = "New Project"

// now is the library clock; tests replace it.
var now = time.Now

// Summary is one row of the save library listing.
type Summary struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	LastModified int64  `json:"lastModified"`
	Shots        int    `json:"shots"`
}

// Library is a keyed collection of saved projects.
type Library interface {
	// List returns summaries, most recently modified first.
	List(ctx context.Context) ([]Summary, error)
	// Save inserts or replaces a project by id and returns the stored copy.
	Save(ctx context.Context, p domain.Project) (domain.Project, error)
	Load(ctx context.Context, id string) (domain.Project, error)
	// Rename changes a stored project's title and stamps lastModified.
	Rename(ctx context.Context, id, title string) (domain.Project, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

// PrepareForSave stamps lastModified and replaces the default title with
// the first shot's title, or FallbackTitle when there is none.
func PrepareForSave(p domain.Project, at time.Time) domain.Project {
	p.LastModified = at.UnixMilli()
	if p.Title == domain.DefaultTitle {
		p.Title = FallbackTitle
		if len(p.Shots) > 0 && strings.TrimSpace(p.Shots[0].Title) != "" {
			p.Title = p.Shots[0].Title
		}
	}
	if p.ID == "" {
		p.ID = domain.NewID("proj")
	}
	return p
}

// SummaryOf describes a project for listings.
func SummaryOf(p domain.Project) Summary {
	return Summary{ID: p.ID, Title: p.Title, LastModified: p.LastModified, Shots: len(p.Shots)}
}

// SortSummaries orders by lastModified descending; ties use natural title
// order, then id.
func SortSummaries(s []Summary) {
	slices.SortStableFunc(s, func(a, b Summary) int {
		if c := cmp.Compare(b.LastModified, a.LastModified); c != 0 {
			return c
		}
		if a.Title != b.Title {
			if natural.Less(a.Title, b.Title) {
				return -1
			}
			return 1
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
