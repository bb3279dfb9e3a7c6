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
	"time"

	"cineprompt/internal/domain"
)

// language=SQL
// dialect=SQLite
const insertSnapshotSQL = `INSERT INTO shot_snapshots(shot_id, ts, blob) VALUES (?, ?, ?)`

// language=SQL
// dialect=SQLite
const selectLatestSnapshotSQL = `SELECT ts, blob FROM shot_snapshots WHERE shot_id = ? ORDER BY ts DESC, id DESC LIMIT 1`

// language=SQL
// dialect=SQLite
const listSnapshotsSQL = `SELECT ts, blob FROM shot_snapshots WHERE shot_id = ? ORDER BY ts DESC, id DESC LIMIT ?`

// language=SQL
// dialect=SQLite
const pruneOldSnapshotsSQL = `DELETE FROM shot_snapshots WHERE shot_id = ? AND id NOT IN (
	SELECT id FROM shot_snapshots WHERE shot_id = ? ORDER BY ts DESC, id DESC LIMIT ?
)`

// ShotSnapshot is one stored version of a shot.
type ShotSnapshot struct {
	TS   time.Time
	Shot domain.Shot
}

// SaveSnapshot stores the shot as JSON under its id.
func SaveSnapshot(ctx context.Context, ph *ProjectHandle, shot domain.Shot, ts time.Time) error {
	if ph == nil {
		return errors.New("nil ProjectHandle")
	}
	if shot.ID == "" {
		return errors.New("shot id is required")
	}
	blob, err := json.Marshal(shot)
	if err != nil {
		return fmt.Errorf("marshal shot: %w", err)
	}
	db, err := InitOrOpenIndex(ph.Root)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	_, err = db.ExecContext(ctx, insertSnapshotSQL, shot.ID, ts.UTC().Format(time.RFC3339Nano), blob)
	return err
}

// GetLatestSnapshot returns the newest snapshot of a shot; ok is false when there is none.
func GetLatestSnapshot(ctx context.Context, ph *ProjectHandle, shotID string) (ShotSnapshot, bool, error) {
	if ph == nil {
		return ShotSnapshot{}, false, errors.New("nil ProjectHandle")
	}
	db, err := InitOrOpenIndex(ph.Root)
	if err != nil {
		return ShotSnapshot{}, false, err
	}
	defer func() { _ = db.Close() }()
	var tsStr string
	var blob []byte
	err = db.QueryRowContext(ctx, selectLatestSnapshotSQL, shotID).Scan(&tsStr, &blob)
	if errors.Is(err, sql.ErrNoRows) {
		return ShotSnapshot{}, false, nil
	}
	if err != nil {
		return ShotSnapshot{}, false, err
	}
	snap, err := decodeSnapshot(tsStr, blob)
	return snap, err == nil, err
}

// ListSnapshots returns up to limit most recent snapshots for a shot.
func ListSnapshots(ctx context.Context, ph *ProjectHandle, shotID string, limit int) ([]ShotSnapshot, error) {
	if ph == nil {
		return nil, errors.New("nil ProjectHandle")
	}
	if limit <= 0 {
		limit = 50
	}
	db, err := InitOrOpenIndex(ph.Root)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()
	rows, err := db.QueryContext(ctx, listSnapshotsSQL, shotID, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []ShotSnapshot
	for rows.Next() {
		var tsStr string
		var blob []byte
		if err := rows.Scan(&tsStr, &blob); err != nil {
			return nil, err
		}
		snap, err := decodeSnapshot(tsStr, blob)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

// PruneOldSnapshots keeps at most keepLast snapshots for the shot and deletes older ones.
func PruneOldSnapshots(ctx context.Context, ph *ProjectHandle, shotID string, keepLast int) (int64, error) {
	if ph == nil {
		return 0, errors.New("nil ProjectHandle")
	}
	if keepLast <= 0 {
		return 0, nil
	}
	db, err := InitOrOpenIndex(ph.Root)
	if err != nil {
		return 0, err
	}
	defer func() { _ = db.Close() }()
	res, err := db.ExecContext(ctx, pruneOldSnapshotsSQL, shotID, shotID, keepLast)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func decodeSnapshot(tsStr string, blob []byte) (ShotSnapshot, error) {
	var s domain.Shot
	if err := json.Unmarshal(blob, &s); err != nil {
		return ShotSnapshot{}, fmt.Errorf("decode shot snapshot: %w", err)
	}
	ts, _ := time.Parse(time.RFC3339Nano, tsStr)
	return ShotSnapshot{TS: ts, Shot: s}, nil
}
