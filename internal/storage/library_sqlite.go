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
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cineprompt/internal/domain"
	applog "cineprompt/internal/log"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

// LibraryFileName is the SQLite file inside the library directory.
const LibraryFileName = "library.sqlite"

// language=SQL
// dialect=SQLite
const libraryDDL = `CREATE TABLE IF NOT EXISTS projects (
	id            TEXT PRIMARY KEY,
	title         TEXT    NOT NULL,
	last_modified INTEGER NOT NULL,
	shot_count    INTEGER NOT NULL DEFAULT 0,
	data          BLOB    NOT NULL
);`

// language=SQL
// dialect=SQLite
const upsertProjectSQL = `INSERT INTO projects(id, title, last_modified, shot_count, data) VALUES (?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET title=excluded.title, last_modified=excluded.last_modified,
	shot_count=excluded.shot_count, data=excluded.data`

// SQLiteLibrary is the default embedded Library.
type SQLiteLibrary struct {
	db  *sql.DB
	log *slog.Logger
}

var _ Library = (*SQLiteLibrary)(nil)

// OpenSQLiteLibrary opens (creating if needed) dir/library.sqlite.
func OpenSQLiteLibrary(ctx context.Context, dir string) (*SQLiteLibrary, error) {
	l := applog.WithOperation(applog.WithComponent("library"), "open").With(slog.String("dir", dir))
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("library dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create library dir: %w", err)
	}
	db, err := openSQLite(ctx, filepath.Join(dir, LibraryFileName))
	if err != nil {
		l.Error("open library failed", slog.Any("err", err))
		return nil, err
	}
	if _, err := db.ExecContext(ctx, libraryDDL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure library schema: %w", err)
	}
	if _, err := db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_projects_modified ON projects(last_modified);`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure library index: %w", err)
	}
	return &SQLiteLibrary{db: db, log: applog.WithComponent("library")}, nil
}

// openSQLite opens a WAL-mode SQLite database with a single connection.
func openSQLite(ctx context.Context, path string) (*sql.DB, error) {
	// SQLite URIs want forward slashes.
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	return db, nil
}

func (lib *SQLiteLibrary) List(ctx context.Context) ([]Summary, error) {
	rows, err := lib.db.QueryContext(ctx, `SELECT id, title, last_modified, shot_count FROM projects`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer func() { _ = rows.Close() }()
	out := []Summary{}
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.ID, &s.Title, &s.LastModified, &s.Shots); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	SortSummaries(out)
	return out, nil
}

func (lib *SQLiteLibrary) Save(ctx context.Context, p domain.Project) (domain.Project, error) {
	p = PrepareForSave(p, now())
	if err := lib.store(ctx, p); err != nil {
		return domain.Project{}, err
	}
	lib.log.InfoContext(ctx, "project saved", slog.String("id", p.ID), slog.String("title", p.Title))
	return p, nil
}

func (lib *SQLiteLibrary) store(ctx context.Context, p domain.Project) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal project: %w", err)
	}
	if _, err := lib.db.ExecContext(ctx, upsertProjectSQL, p.ID, p.Title, p.LastModified, len(p.Shots), data); err != nil {
		return fmt.Errorf("save project: %w", err)
	}
	return nil
}

func (lib *SQLiteLibrary) Load(ctx context.Context, id string) (domain.Project, error) {
	var data []byte
	err := lib.db.QueryRowContext(ctx, `SELECT data FROM projects WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Project{}, fmt.Errorf("%w: %s", ErrNotFound, id)
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

func (lib *SQLiteLibrary) Rename(ctx context.Context, id, title string) (domain.Project, error) {
	p, err := lib.Load(ctx, id)
	if err != nil {
		return domain.Project{}, err
	}
	p.Title = title
	p.LastModified = now().UnixMilli()
	if err := lib.store(ctx, p); err != nil {
		return domain.Project{}, err
	}
	return p, nil
}

func (lib *SQLiteLibrary) Delete(ctx context.Context, id string) error {
	res, err := lib.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func (lib *SQLiteLibrary) Close() error { return lib.db.Close() }
