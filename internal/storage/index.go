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
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cineprompt/internal/assemble"
	"cineprompt/internal/domain"
	applog "cineprompt/internal/log"
	"cineprompt/internal/version"
)

const (
	// IndexDirName stores all per-project derived data under the project root.
	IndexDirName  = ".cineprompt"
	IndexFileName = "index.sqlite"

	// schemaVersion tracks the local SQLite schema for the embedded index.
	// Bump this when you perform breaking schema changes and add migrations.
	schemaVersion = 2
)

// Document types stored in the index.
const (
	DocProjectTitle = "project_title"
	DocIdea         = "idea"
	DocTreatment    = "treatment"
	DocActor        = "actor"
	DocCostume      = "costume"
	DocCharacter    = "character"
	DocProp         = "prop"
	DocScene        = "scene"
	DocShot         = "shot"
	DocShotScene    = "shot_scene"
	DocShotAction   = "shot_action"
	DocShotDialogue = "shot_dialogue"
	DocShotCamera   = "shot_camera"
)

// IndexPath returns the full path to the project's embedded index database file.
func IndexPath(projectRoot string) string {
	return filepath.Join(projectRoot, IndexDirName, IndexFileName)
}

// InitOrOpenIndex ensures that the per-project SQLite index exists at .cineprompt/index.sqlite,
// opens the database, enables WAL mode, and ensures the schema is current.
// Callers close the returned *sql.DB.
func InitOrOpenIndex(projectRoot string) (*sql.DB, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "index_init").With(
		slog.String("root", projectRoot),
	)
	if strings.TrimSpace(projectRoot) == "" {
		return nil, errors.New("project root is required")
	}
	if err := os.MkdirAll(filepath.Join(projectRoot, IndexDirName), 0o755); err != nil {
		l.Error("create index dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create index dir: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	path := IndexPath(projectRoot)
	db, err := openSQLite(ctx, path)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, err
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON;"); err != nil {
		l.Warn("enable foreign_keys failed", slog.Any("err", err))
	}
	if err := ensureMetaAndVersion(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure meta/version failed", slog.Any("err", err))
		return nil, err
	}
	if err := ensureIndexSchema(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure index schema failed", slog.Any("err", err))
		return nil, err
	}
	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		l.Error("run migrations failed", slog.Any("err", err))
		return nil, err
	}
	l.Debug("index ready", slog.String("path", path))
	return db, nil
}

func ensureMetaAndVersion(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	appv := version.String()
	var curSchema int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&curSchema)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, ?, ?, ?, ?)`, schemaVersion, appv, now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		// Keep the stored schema number; migrations move it forward.
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, appv, now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

// runMigrations applies incremental schema migrations up to schemaVersion.
func runMigrations(ctx context.Context, db *sql.DB) error {
	var cur int
	if err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	for cur < schemaVersion {
		next := cur + 1
		switch next {
		case 2:
			tx, err := db.BeginTx(ctx, nil)
			if err != nil {
				return fmt.Errorf("begin migration %d: %w", next, err)
			}
			stmts := []string{
				`CREATE INDEX IF NOT EXISTS idx_cross_refs_entity ON cross_refs(entity_id);`,
				`CREATE INDEX IF NOT EXISTS idx_cross_refs_from ON cross_refs(from_id);`,
			}
			for _, q := range stmts {
				if _, err := tx.ExecContext(ctx, q); err != nil {
					_ = tx.Rollback()
					return fmt.Errorf("migration %d stmt failed: %w", next, err)
				}
			}
			if _, err := tx.ExecContext(ctx, `UPDATE version SET schema=?, updated_at=? WHERE id=1`, next, time.Now().UTC().Format(time.RFC3339)); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d update version: %w", next, err)
			}
			if err := tx.Commit(); err != nil {
				return fmt.Errorf("migration %d commit: %w", next, err)
			}
			_, _ = db.ExecContext(ctx, `INSERT INTO fts_documents(fts_documents) VALUES('optimize')`)
		}
		cur = next
	}
	return nil
}

// ensureIndexSchema creates core index tables and FTS structures if they do not exist.
func ensureIndexSchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		// One row per searchable text: entity descriptions and shot fields.
		`CREATE TABLE IF NOT EXISTS documents (
			doc_id    INTEGER PRIMARY KEY,
			type      TEXT NOT NULL,
			path      TEXT NOT NULL,
			shot_id   TEXT,
			entity_id TEXT,
			text      TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_documents_path ON documents(path);`,
		`CREATE INDEX IF NOT EXISTS idx_documents_shot ON documents(shot_id);`,

		// Contentless FTS5 index fed from documents via triggers.
		`CREATE VIRTUAL TABLE IF NOT EXISTS fts_documents USING fts5(
			text,
			content='',
			tokenize = 'unicode61'
		);`,

		// Which documents refer to which entity ids.
		`CREATE TABLE IF NOT EXISTS cross_refs (
			from_id   INTEGER NOT NULL,
			entity_id TEXT    NOT NULL,
			kind      TEXT    NOT NULL,
			explicit  INTEGER NOT NULL DEFAULT 1,
			PRIMARY KEY(from_id, entity_id),
			FOREIGN KEY(from_id) REFERENCES documents(doc_id) ON DELETE CASCADE
		);`,
		`CREATE INDEX IF NOT EXISTS idx_cross_refs_entity ON cross_refs(entity_id);`,
		`CREATE INDEX IF NOT EXISTS idx_cross_refs_from ON cross_refs(from_id);`,

		`CREATE TABLE IF NOT EXISTS shot_snapshots (
			id      INTEGER PRIMARY KEY,
			shot_id TEXT NOT NULL,
			ts      TEXT NOT NULL,
			blob    BLOB NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_shot_snapshots_shot_ts ON shot_snapshots(shot_id, ts);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure index schema: %w", err)
		}
	}
	triggers := []string{
		`CREATE TRIGGER IF NOT EXISTS documents_ai AFTER INSERT ON documents BEGIN
			INSERT INTO fts_documents(rowid, text) VALUES (new.doc_id, new.text);
		END;`,
		`CREATE TRIGGER IF NOT EXISTS documents_ad AFTER DELETE ON documents BEGIN
			INSERT INTO fts_documents(fts_documents, rowid, text) VALUES ('delete', old.doc_id, old.text);
		END;`,
		`CREATE TRIGGER IF NOT EXISTS documents_au AFTER UPDATE OF text ON documents BEGIN
			INSERT INTO fts_documents(fts_documents, rowid, text) VALUES ('delete', old.doc_id, old.text);
			INSERT INTO fts_documents(rowid, text) VALUES (new.doc_id, new.text);
		END;`,
	}
	for _, q := range triggers {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure fts triggers: %w", err)
		}
	}
	return nil
}

// DetectAndRebuildIndex checks for corruption or missing schema and rebuilds the index if needed.
// It returns true when a rebuild was performed.
func DetectAndRebuildIndex(ctx context.Context, projectRoot string, proj domain.Project) (bool, error) {
	path := IndexPath(projectRoot)
	db, err := InitOrOpenIndex(projectRoot)
	if err != nil {
		backupIndexFile(path)
		removeIndexFiles(path)
		if rbErr := RebuildIndex(ctx, projectRoot, proj); rbErr != nil {
			return false, fmt.Errorf("rebuild after open failure: %w (open err: %v)", rbErr, err)
		}
		return true, nil
	}
	needs := false
	var chk string
	if err := db.QueryRowContext(ctx, `PRAGMA quick_check;`).Scan(&chk); err != nil || !strings.Contains(strings.ToLower(chk), "ok") {
		needs = true
	}
	if !needs {
		if _, err := db.ExecContext(ctx, `SELECT 1 FROM documents LIMIT 1;`); err != nil {
			needs = true
		}
	}
	_ = db.Close()
	if !needs {
		return false, nil
	}
	backupIndexFile(path)
	removeIndexFiles(path)
	if err := RebuildIndex(ctx, projectRoot, proj); err != nil {
		return false, err
	}
	return true, nil
}

// backupIndexFile copies the current index file into a timestamped backup in .cineprompt/backups.
func backupIndexFile(indexPath string) {
	bdir := filepath.Join(filepath.Dir(indexPath), "backups")
	_ = os.MkdirAll(bdir, 0o755)
	stamp := time.Now().Format("20060102-150405")
	bak := filepath.Join(bdir, fmt.Sprintf("%s.%s.bak", filepath.Base(indexPath), stamp))
	if data, err := os.ReadFile(indexPath); err == nil {
		_ = os.WriteFile(bak, data, 0o644)
	}
}

// removeIndexFiles deletes the database together with its WAL sidecars.
func removeIndexFiles(path string) {
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		_ = os.Remove(p)
	}
}

// BuildIndexIfEmpty populates the index from the project when it holds no documents yet.
func BuildIndexIfEmpty(ctx context.Context, projectRoot string, proj domain.Project) error {
	db, err := InitOrOpenIndex(projectRoot)
	if err != nil {
		return err
	}
	defer db.Close()
	var cnt int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents;").Scan(&cnt); err != nil {
		return fmt.Errorf("check documents count: %w", err)
	}
	if cnt > 0 {
		return nil
	}
	return rebuildDocumentsFromProject(ctx, db, proj)
}

// UpdateIndex replaces the indexed documents with the current project content.
func UpdateIndex(ctx context.Context, projectRoot string, proj domain.Project) error {
	db, err := InitOrOpenIndex(projectRoot)
	if err != nil {
		return err
	}
	defer db.Close()
	return rebuildDocumentsFromProject(ctx, db, proj)
}

// RebuildIndex drops and recreates the document tables and repopulates them.
// Meta, version and snapshot tables are preserved.
func RebuildIndex(ctx context.Context, projectRoot string, proj domain.Project) error {
	db, err := InitOrOpenIndex(projectRoot)
	if err != nil {
		return err
	}
	defer db.Close()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	drops := []string{
		"DROP TABLE IF EXISTS cross_refs;",
		"DROP TRIGGER IF EXISTS documents_ai;",
		"DROP TRIGGER IF EXISTS documents_ad;",
		"DROP TRIGGER IF EXISTS documents_au;",
		"DROP TABLE IF EXISTS documents;",
		"DROP TABLE IF EXISTS fts_documents;",
	}
	for _, q := range drops {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("drop schema: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("drop commit: %w", err)
	}
	if err := ensureIndexSchema(ctx, db); err != nil {
		return err
	}
	return rebuildDocumentsFromProject(ctx, db, proj)
}

type docRow struct {
	typ      string
	path     string
	shotID   string
	entityID string
	text     string
	refs     []docRef
}

type docRef struct {
	entityID string
	kind     string
	explicit bool
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullable(s string) sql.NullString { return sql.NullString{String: s, Valid: s != ""} }

func describe(name, desc string) string {
	return strings.TrimSpace(strings.TrimSpace(name) + "\n" + strings.TrimSpace(desc))
}

// projectDocuments flattens a project into index rows. The shot row
// carries the cross references of everything the shot resolves to.
func projectDocuments(proj domain.Project) []docRow {
	rows := make([]docRow, 0, 16+len(proj.Shots)*5)
	add := func(r docRow) {
		if strings.TrimSpace(r.text) != "" || len(r.refs) > 0 {
			rows = append(rows, r)
		}
	}
	add(docRow{typ: DocProjectTitle, path: "project:title", text: proj.Title})
	add(docRow{typ: DocIdea, path: "project:idea", text: proj.OriginalIdea})
	add(docRow{typ: DocTreatment, path: "project:treatment", text: proj.Treatment})
	for _, a := range proj.Actors {
		add(docRow{typ: DocActor, path: "actor:" + a.ID, entityID: a.ID, text: describe(a.Name, a.Description)})
	}
	for _, c := range proj.Costumes {
		add(docRow{typ: DocCostume, path: "costume:" + c.ID, entityID: c.ID, text: describe(c.Name, c.Description)})
	}
	for _, c := range proj.Characters {
		add(docRow{typ: DocCharacter, path: "character:" + c.ID, entityID: c.ID, text: c.Name, refs: []docRef{
			{entityID: c.ActorID, kind: DocActor, explicit: true},
			{entityID: c.CostumeID, kind: DocCostume, explicit: true},
		}})
	}
	for _, p := range proj.Props {
		add(docRow{typ: DocProp, path: "prop:" + p.ID, entityID: p.ID, text: describe(p.Name, p.Description)})
	}
	for _, s := range proj.Scenes {
		add(docRow{typ: DocScene, path: "scene:" + s.ID, entityID: s.ID, text: describe(s.Name, s.Description)})
	}

	reg := domain.NewIndex(&proj)
	for _, sh := range proj.Shots {
		base := "shot:" + sh.ID
		r := assemble.Resolve(sh, reg)
		var refs []docRef
		for _, c := range r.Characters {
			refs = append(refs, docRef{entityID: c.Character.ID, kind: DocCharacter, explicit: true})
		}
		for _, p := range r.Props {
			refs = append(refs, docRef{entityID: p.ID, kind: DocProp, explicit: r.Explicit.Props.Has(p.ID)})
		}
		for _, s := range r.Scenes {
			refs = append(refs, docRef{entityID: s.ID, kind: DocScene, explicit: r.Explicit.Scenes.Has(s.ID)})
		}
		rows = append(rows, docRow{typ: DocShot, path: base, shotID: sh.ID, text: sh.Title, refs: refs})
		add(docRow{typ: DocShotScene, path: base + "/scene", shotID: sh.ID, text: sh.InitialScenePrompt.String()})
		add(docRow{typ: DocShotAction, path: base + "/action", shotID: sh.ID, text: sh.ActionPrompt.String()})
		add(docRow{typ: DocShotDialogue, path: base + "/dialogue", shotID: sh.ID, text: r.DialogueText})
		add(docRow{typ: DocShotCamera, path: base + "/camera", shotID: sh.ID, text: assemble.CameraText(sh.CameraInstructions)})
	}
	return rows
}

// rebuildDocumentsFromProject replaces the documents table content from the given project.
func rebuildDocumentsFromProject(ctx context.Context, db *sql.DB, proj domain.Project) error {
	rows := projectDocuments(proj)
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	rollback := func(err error) error {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM cross_refs;"); err != nil {
		return rollback(fmt.Errorf("clear cross_refs: %w", err))
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM documents;"); err != nil {
		return rollback(fmt.Errorf("clear documents: %w", err))
	}
	ins, err := tx.PrepareContext(ctx, "INSERT INTO documents(type, path, shot_id, entity_id, text) VALUES(?,?,?,?,?);")
	if err != nil {
		return rollback(fmt.Errorf("prepare insert: %w", err))
	}
	defer ins.Close()
	ref, err := tx.PrepareContext(ctx, "INSERT OR IGNORE INTO cross_refs(from_id, entity_id, kind, explicit) VALUES(?,?,?,?);")
	if err != nil {
		return rollback(fmt.Errorf("prepare cross_ref insert: %w", err))
	}
	defer ref.Close()
	for _, r := range rows {
		res, err := ins.ExecContext(ctx, r.typ, r.path, nullable(r.shotID), nullable(r.entityID), r.text)
		if err != nil {
			return rollback(fmt.Errorf("insert document: %w", err))
		}
		if len(r.refs) == 0 {
			continue
		}
		id, err := res.LastInsertId()
		if err != nil {
			return rollback(fmt.Errorf("document id: %w", err))
		}
		for _, x := range r.refs {
			if x.entityID == "" {
				continue
			}
			if _, err := ref.ExecContext(ctx, id, x.entityID, x.kind, boolInt(x.explicit)); err != nil {
				return rollback(fmt.Errorf("insert cross_ref: %w", err))
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
