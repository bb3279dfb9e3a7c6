/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package undo

import (
	"encoding/json"
	"fmt"
	"time"

	"cineprompt/internal/domain"
)

// History records whole-project states keyed by project id.
type History struct {
	m   *Manager
	now func() time.Time
}

func NewHistory(cfg Config) *History {
	return &History{m: NewManager(cfg), now: time.Now}
}

// Record captures p as the state to return to on the next Undo.
func (h *History) Record(p domain.Project) error {
	b, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("snapshot project: %w", err)
	}
	h.m.PushSnapshot(Snapshot{Key: p.ID, Blob: b, TS: h.now()})
	return nil
}

// Undo returns the state recorded before the last edit of current.
// ok is false when there is nothing to undo.
func (h *History) Undo(current domain.Project) (domain.Project, bool, error) {
	return h.step(current, h.m.Undo)
}

// Redo re-applies the state most recently undone.
func (h *History) Redo(current domain.Project) (domain.Project, bool, error) {
	return h.step(current, h.m.Redo)
}

func (h *History) step(current domain.Project, op func(string, []byte) (Snapshot, bool)) (domain.Project, bool, error) {
	b, err := json.Marshal(current)
	if err != nil {
		return domain.Project{}, false, fmt.Errorf("snapshot project: %w", err)
	}
	s, ok := op(current.ID, b)
	if !ok {
		return current, false, nil
	}
	var p domain.Project
	if err := json.Unmarshal(s.Blob, &p); err != nil {
		return domain.Project{}, false, fmt.Errorf("restore project: %w", err)
	}
	return p, true, nil
}

// Forget drops the history of a project, e.g. after it was deleted.
func (h *History) Forget(projectID string) { h.m.Clear(projectID) }

func (h *History) CanUndo(projectID string) bool { return h.m.CanUndo(projectID) }
func (h *History) CanRedo(projectID string) bool { return h.m.CanRedo(projectID) }
