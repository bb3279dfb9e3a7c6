/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package backend

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cineprompt/internal/domain"
	applog "cineprompt/internal/log"
	"cineprompt/internal/storage"
)

// PGLibrary is a storage.Library backed by PostgreSQL.
type PGLibrary struct {
	db  *sql.DB
	now func() time.Time
	log *slog.Logger
}

var _ storage.Library = (*PGLibrary)(nil)

// OpenLibrary connects to dsn and returns a ready library.
func OpenLibrary(ctx context.Context, dsn string) (*PGLibrary, error) {
	db, err := OpenPG(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return NewLibrary(db), nil
}

// NewLibrary wraps an already migrated database.
func NewLibrary(db *sql.DB) *PGLibrary {
	return &PGLibrary{db: db, now: time.Now, log: applog.WithComponent("backend")}
}

func (lib *PGLibrary) List(ctx context.Context) ([]storage.Summary, error) {
	return lib.query(ctx, `SELECT id, title, last_modified, shot_count FROM projects`)
}

// Search lists saved projects whose title, idea or treatment match text.
func (lib *PGLibrary) Search(ctx context.Context, text string) ([]storage.Summary, error) {
	if strings.TrimSpace(text) == "" {
		return lib.List(ctx)
	}
	return lib.query(ctx, `SELECT id, title, last_modified, shot_count FROM projects
		WHERE search_vector @@ plainto_tsquery('simple', $1)`, text)
}

func (lib *PGLibrary) query(ctx context.Context, q string, args ...any) ([]storage.Summary, error) {
	rows, err := lib.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer func() { _ = rows.Close() }()
	out := []storage.Summary{}
	for rows.Next() {
		var s storage.Summary
		if err := rows.Scan(&s.ID, &s.Title, &s.LastModified, &s.Shots); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	storage.SortSummaries(out)
	return out, nil
}

func (lib *PGLibrary) Save(ctx context.Context, p domain.Project) (domain.Project, error) {
	p = storage.PrepareForSave(p, lib.now())
	if err := lib.store(ctx, p); err != nil {
		return domain.Project{}, err
	}
	lib.log.InfoContext(ctx, "project saved", slog.String("id", p.ID), slog.String("title", p.Title))
	return p, nil
}

func (lib *PGLibrary) store(ctx context.Context, p domain.Project) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal project: %w", err)
	}
	_, err = lib.db.ExecContext(ctx, `INSERT INTO projects(id, title, last_modified, shot_count, data)
		VALUES($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET title = EXCLUDED.title, last_modified = EXCLUDED.last_modified,
			shot_count = EXCLUDED.shot_count, data = EXCLUDED.data`,
		p.ID, p.Title, p.LastModified, len(p.Shots), string(data))
	if err != nil {
		return fmt.Errorf("save project: %w", err)
	}
	return nil
}

func (lib *PGLibrary) Load(ctx context.Context, id string) (domain.Project, error) {
	var data []byte
	err := lib.db.QueryRowContext(ctx, `SELECT data FROM projects WHERE id = $1`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Project{}, fmt.Errorf("%w: %s", storage.ErrNotFound, id)
	}
	if err != nil {
		return domain.Project{}, fmt.Errorf("load project: %w", err)
	}
	var p domain.Project
	if err := json.Unmarshal(data, &p); err != nil {
		return domain.Project{}, fmt.Errorf("decode project %s: %w", id, err)
	}
	return p, nil
}

func (lib *PGLibrary) Rename(ctx context.Context, id, title string) (domain.Project, error) {
	p, err := lib.Load(ctx, id)
	if err != nil {
		return domain.Project{}, err
	}
	p.Title = title
	p.LastModified = lib.now().UnixMilli()
	if err := lib.store(ctx, p); err != nil {
		return domain.Project{}, err
	}
	return p, nil
}

func (lib *PGLibrary) Delete(ctx context.Context, id string) error {
	res, err := lib.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", storage.ErrNotFound, id)
	}
	return nil
}

func (lib *PGLibrary) Close() error { return lib.db.Close() }
