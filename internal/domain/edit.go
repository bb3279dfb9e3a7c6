/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Edits never mutate their receiver. Each returns a new Project whose
// changed collections are fresh slices, so older values stay valid as undo
// snapshots and as inputs to concurrent readers.

var (
	ErrNotFound       = errors.New("not found")
	ErrUnknownActor   = errors.New("unknown actor")
	ErrUnknownCostume = errors.New("unknown costume")
	ErrEmptyName      = errors.New("name must not be empty")
)

// AddShot appends a new manual shot titled "Scene N" with default camera setup.
func (p Project) AddShot() (Project, Shot) {
	n := len(p.Shots) + 1
	s := Shot{
		ID:                 NewID("shot"),
		SequenceOrder:      n,
		Title:              fmt.Sprintf("Scene %d", n),
		DialogueLines:      []DialogueLine{},
		CameraInstructions: DefaultCameraInstructions(),
		IsExpanded:         true,
	}
	p.Shots = append(slices.Clone(p.Shots), s)
	return p, s
}

// AppendShots adds already built shots, renumbering their sequence order
// after the existing ones.
func (p Project) AppendShots(shots ...Shot) Project {
	out := slices.Clone(p.Shots)
	for _, s := range shots {
		s.SequenceOrder = len(out) + 1
		out = append(out, s)
	}
	p.Shots = out
	return p
}

// UpdateShot replaces the shot with the same id.
func (p Project) UpdateShot(s Shot) (Project, error) {
	i := slices.IndexFunc(p.Shots, func(x Shot) bool { return x.ID == s.ID })
	if i < 0 {
		return p, fmt.Errorf("shot %s: %w", s.ID, ErrNotFound)
	}
	p.Shots = slices.Clone(p.Shots)
	p.Shots[i] = s
	return p, nil
}

// DeleteShot removes a shot and renumbers the remaining ones.
func (p Project) DeleteShot(id string) (Project, error) {
	i := slices.IndexFunc(p.Shots, func(x Shot) bool { return x.ID == id })
	if i < 0 {
		return p, fmt.Errorf("shot %s: %w", id, ErrNotFound)
	}
	out := slices.Delete(slices.Clone(p.Shots), i, i+1)
	for j := range out {
		out[j].SequenceOrder = j + 1
	}
	p.Shots = out
	return p, nil
}

// UpsertActor adds or replaces an actor by id. A missing id is generated.
func (p Project) UpsertActor(a Actor) (Project, Actor, error) {
	if strings.TrimSpace(a.Name) == "" {
		return p, a, ErrEmptyName
	}
	if a.ID == "" {
		a.ID = NewID("act")
	}
	p.Actors = upsert(p.Actors, a, func(x Actor) string { return x.ID })
	return p, a, nil
}

// UpsertCostume adds or replaces a costume by id.
func (p Project) UpsertCostume(c Costume) (Project, Costume, error) {
	if strings.TrimSpace(c.Name) == "" {
		return p, c, ErrEmptyName
	}
	if c.ID == "" {
		c.ID = NewID("cos")
	}
	p.Costumes = upsert(p.Costumes, c, func(x Costume) string { return x.ID })
	return p, c, nil
}

// UpsertProp adds or replaces a prop by id.
func (p Project) UpsertProp(pr Prop) (Project, Prop, error) {
	if strings.TrimSpace(pr.Name) == "" {
		return p, pr, ErrEmptyName
	}
	if pr.ID == "" {
		pr.ID = NewID("prop")
	}
	p.Props = upsert(p.Props, pr, func(x Prop) string { return x.ID })
	return p, pr, nil
}

// UpsertScene adds or replaces a scene by id.
func (p Project) UpsertScene(s Scene) (Project, Scene, error) {
	if strings.TrimSpace(s.Name) == "" {
		return p, s, ErrEmptyName
	}
	if s.ID == "" {
		s.ID = NewID("scene")
	}
	p.Scenes = upsert(p.Scenes, s, func(x Scene) string { return x.ID })
	return p, s, nil
}

// UpsertCharacter adds or replaces a role. Both the actor and the costume
// must exist when the role is saved; they may dangle later.
func (p Project) UpsertCharacter(c Character) (Project, Character, error) {
	if strings.TrimSpace(c.Name) == "" {
		return p, c, ErrEmptyName
	}
	ix := NewIndex(&p)
	if _, ok := ix.Actor(c.ActorID); !ok {
		return p, c, fmt.Errorf("character %q: %w %q", c.Name, ErrUnknownActor, c.ActorID)
	}
	if _, ok := ix.Costume(c.CostumeID); !ok {
		return p, c, fmt.Errorf("character %q: %w %q", c.Name, ErrUnknownCostume, c.CostumeID)
	}
	if c.ID == "" {
		c.ID = NewID("char")
	}
	p.Characters = upsert(p.Characters, c, func(x Character) string { return x.ID })
	return p, c, nil
}

// DeleteEntity removes an actor, costume, prop, scene or character by id.
// References to it elsewhere are left as they are.
func (p Project) DeleteEntity(id string) (Project, error) {
	var hit [5]bool
	p.Actors, hit[0] = remove(p.Actors, id, func(x Actor) string { return x.ID })
	p.Costumes, hit[1] = remove(p.Costumes, id, func(x Costume) string { return x.ID })
	p.Props, hit[2] = remove(p.Props, id, func(x Prop) string { return x.ID })
	p.Scenes, hit[3] = remove(p.Scenes, id, func(x Scene) string { return x.ID })
	p.Characters, hit[4] = remove(p.Characters, id, func(x Character) string { return x.ID })
	if !slices.Contains(hit[:], true) {
		return p, fmt.Errorf("entity %s: %w", id, ErrNotFound)
	}
	return p, nil
}

func remove[T any](items []T, id string, key func(T) string) ([]T, bool) {
	i := slices.IndexFunc(items, func(x T) bool { return key(x) == id })
	if i < 0 {
		return items, false
	}
	return slices.Delete(slices.Clone(items), i, i+1), true
}

func upsert[T any](items []T, v T, id func(T) string) []T {
	out := slices.Clone(items)
	if i := slices.IndexFunc(out, func(x T) bool { return id(x) == id(v) }); i >= 0 {
		out[i] = v
		return out
	}
	return append(out, v)
}

// AddCameraInstruction appends an instruction to a shot.
func (s Shot) AddCameraInstruction(c CameraInstruction) Shot {
	if c.ID == "" {
		c.ID = NewID("cam")
	}
	if c.Timing == "" {
		c.Timing = TimingOptions[0]
	}
	s.CameraInstructions = append(slices.Clone(s.CameraInstructions), c)
	return s
}

// RemoveCameraInstruction drops the instruction with id, if present.
func (s Shot) RemoveCameraInstruction(id string) Shot {
	s.CameraInstructions = slices.DeleteFunc(slices.Clone(s.CameraInstructions), func(c CameraInstruction) bool { return c.ID == id })
	return s
}

// Retime changes the timing of one instruction.
func (s Shot) Retime(id, timing string) Shot {
	s.CameraInstructions = slices.Clone(s.CameraInstructions)
	for i := range s.CameraInstructions {
		if s.CameraInstructions[i].ID == id {
			s.CameraInstructions[i].Timing = timing
		}
	}
	return s
}
