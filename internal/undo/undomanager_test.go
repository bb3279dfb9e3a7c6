/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package undo

import (
	"testing"
	"time"

	"cineprompt/internal/domain"
)

func TestUndoRedoBasic(t *testing.T) {
	m := NewManager(Config{MaxBytes: 1024 * 1024, MaxDepth: 10, MinInterval: 10 * time.Millisecond})
	t0 := time.Now()
	m.PushSnapshot(Snapshot{Key: "p", Blob: []byte("a"), TS: t0})
	m.PushSnapshot(Snapshot{Key: "p", Blob: []byte("b"), TS: t0.Add(20 * time.Millisecond)})
	if _, keys, total := m.Stats(); keys != 1 || total != 2 {
		t.Fatalf("expected 1 key and 2 snapshots, got keys=%d total=%d", keys, total)
	}
	s, ok := m.Undo("p", []byte("c"))
	if !ok || string(s.Blob) != "b" {
		t.Fatalf("undo expected 'b', got ok=%v blob=%q", ok, string(s.Blob))
	}
	s, ok = m.Undo("p", []byte("b"))
	if !ok || string(s.Blob) != "a" {
		t.Fatalf("undo expected 'a', got ok=%v blob=%q", ok, string(s.Blob))
	}
	if _, ok := m.Undo("p", []byte("a")); ok {
		t.Fatalf("expected empty undo stack")
	}
	s, ok = m.Redo("p", []byte("a"))
	if !ok || string(s.Blob) != "b" {
		t.Fatalf("redo expected 'b', got ok=%v blob=%q", ok, string(s.Blob))
	}
	s, ok = m.Redo("p", []byte("b"))
	if !ok || string(s.Blob) != "c" {
		t.Fatalf("redo expected 'c', got ok=%v blob=%q", ok, string(s.Blob))
	}
	if m.CanRedo("p") || !m.CanUndo("p") {
		t.Fatalf("unexpected availability after full redo")
	}
}

func TestPushClearsRedo(t *testing.T) {
	m := NewManager(Config{MinInterval: time.Millisecond})
	t0 := time.Now()
	m.PushSnapshot(Snapshot{Key: "p", Blob: []byte("a"), TS: t0})
	m.Undo("p", []byte("b"))
	if !m.CanRedo("p") {
		t.Fatalf("expected redo after undo")
	}
	m.PushSnapshot(Snapshot{Key: "p", Blob: []byte("b"), TS: t0.Add(time.Second)})
	if m.CanRedo("p") {
		t.Fatalf("new change should clear redo")
	}
}

func TestCoalesceKeepsEarlierState(t *testing.T) {
	m := NewManager(Config{MaxBytes: 1024 * 1024, MaxDepth: 10, MinInterval: 50 * time.Millisecond})
	t0 := time.Now()
	m.PushSnapshot(Snapshot{Key: "p", Blob: []byte("1"), TS: t0})
	m.PushSnapshot(Snapshot{Key: "p", Blob: []byte("2"), TS: t0.Add(10 * time.Millisecond)})
	m.PushSnapshot(Snapshot{Key: "p", Blob: []byte("3"), TS: t0.Add(40 * time.Millisecond)})
	if _, _, total := m.Stats(); total != 1 {
		t.Fatalf("expected coalesced to 1 snapshot, got %d", total)
	}
	s, ok := m.Undo("p", []byte("4"))
	if !ok || string(s.Blob) != "1" {
		t.Fatalf("expected earliest snapshot '1', got ok=%v blob=%q", ok, string(s.Blob))
	}
}

func TestDepthCap(t *testing.T) {
	m := NewManager(Config{MaxBytes: 1024, MaxDepth: 2, MinInterval: time.Millisecond})
	t0 := time.Now()
	for i := 0; i < 10; i++ {
		m.PushSnapshot(Snapshot{Key: "p", Blob: []byte("xxxxx"), TS: t0.Add(time.Duration(i) * time.Second)})
	}
	tb, _, total := m.Stats()
	if total != 2 || tb != 10 {
		t.Fatalf("expected depth cap of 2 (10 bytes), got %d snapshots, %d bytes", total, tb)
	}
}

func TestClearAndStats(t *testing.T) {
	m := NewManager(Config{MaxBytes: 1024, MaxDepth: 10, MinInterval: time.Millisecond})
	m.PushSnapshot(Snapshot{Key: "p", Blob: []byte("abcdef"), TS: time.Now()})
	m.Undo("p", []byte("xyz"))
	m.Clear("p")
	tb, keys, total := m.Stats()
	if tb != 0 || keys != 0 || total != 0 {
		t.Fatalf("expected cleared stats to be zero, got tb=%d keys=%d total=%d", tb, keys, total)
	}
}

func TestGlobalPruneAcrossKeys(t *testing.T) {
	m := NewManager(Config{MaxBytes: 8, MinInterval: time.Millisecond})
	t0 := time.Now()
	m.PushSnapshot(Snapshot{Key: "old", Blob: []byte("xxxx"), TS: t0})
	m.PushSnapshot(Snapshot{Key: "new", Blob: []byte("yyyy"), TS: t0.Add(time.Second)})
	m.PushSnapshot(Snapshot{Key: "new", Blob: []byte("zzzz"), TS: t0.Add(2 * time.Second)})

	if m.CanUndo("old") {
		t.Fatalf("expected the oldest key to have been pruned")
	}
	if !m.CanUndo("new") {
		t.Fatalf("expected the newer key to keep snapshots")
	}
}

func TestHistoryProjects(t *testing.T) {
	h := NewHistory(Config{MinInterval: time.Millisecond})
	clock := time.Unix(100, 0)
	h.now = func() time.Time { clock = clock.Add(time.Second); return clock }

	p := domain.New("Draft")
	if err := h.Record(p); err != nil {
		t.Fatalf("record: %v", err)
	}
	edited, _ := p.AddShot()

	back, ok, err := h.Undo(edited)
	if err != nil || !ok {
		t.Fatalf("undo: ok=%v err=%v", ok, err)
	}
	if len(back.Shots) != 0 || back.ID != p.ID {
		t.Fatalf("undo restored %+v", back)
	}
	fwd, ok, err := h.Redo(back)
	if err != nil || !ok || len(fwd.Shots) != 1 {
		t.Fatalf("redo: ok=%v err=%v shots=%d", ok, err, len(fwd.Shots))
	}

	h.Forget(p.ID)
	if _, ok, _ := h.Undo(fwd); ok {
		t.Fatalf("expected no history after Forget")
	}
}
