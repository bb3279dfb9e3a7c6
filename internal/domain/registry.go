/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import "strings"

// Registry resolves entity ids. The prompt engine only sees entities through
// this interface so callers can pass a project index, a filtered view or a
// fake in tests.
type Registry interface {
	Character(id string) (Character, bool)
	Actor(id string) (Actor, bool)
	Costume(id string) (Costume, bool)
	Prop(id string) (Prop, bool)
	Scene(id string) (Scene, bool)

	// Ordered collections, used for tagging and implicit mention search.
	Characters() []Character
	Props() []Prop
	Scenes() []Scene
}

// Index is a read-only Registry over one project snapshot. When ids repeat,
// the first entity wins.
type Index struct {
	characters []Character
	props      []Prop
	scenes     []Scene

	charByID    map[string]Character
	actorByID   map[string]Actor
	costumeByID map[string]Costume
	propByID    map[string]Prop
	sceneByID   map[string]Scene
}

var _ Registry = (*Index)(nil)

// NewIndex builds an index over p. Later edits to p are not observed.
func NewIndex(p *Project) *Index {
	ix := &Index{
		characters:  append([]Character(nil), p.Characters...),
		props:       append([]Prop(nil), p.Props...),
		scenes:      append([]Scene(nil), p.Scenes...),
		charByID:    make(map[string]Character, len(p.Characters)),
		actorByID:   make(map[string]Actor, len(p.Actors)),
		costumeByID: make(map[string]Costume, len(p.Costumes)),
		propByID:    make(map[string]Prop, len(p.Props)),
		sceneByID:   make(map[string]Scene, len(p.Scenes)),
	}
	for _, c := range p.Characters {
		putFirst(ix.charByID, c.ID, c)
	}
	for _, a := range p.Actors {
		putFirst(ix.actorByID, a.ID, a)
	}
	for _, c := range p.Costumes {
		putFirst(ix.costumeByID, c.ID, c)
	}
	for _, pr := range p.Props {
		putFirst(ix.propByID, pr.ID, pr)
	}
	for _, s := range p.Scenes {
		putFirst(ix.sceneByID, s.ID, s)
	}
	return ix
}

func putFirst[T any](m map[string]T, id string, v T) {
	if id == "" {
		return
	}
	if _, ok := m[id]; !ok {
		m[id] = v
	}
}

func (ix *Index) Character(id string) (Character, bool) {
	c, ok := ix.charByID[id]
	return c, ok
}

func (ix *Index) Actor(id string) (Actor, bool) {
	a, ok := ix.actorByID[id]
	return a, ok
}

func (ix *Index) Costume(id string) (Costume, bool) {
	c, ok := ix.costumeByID[id]
	return c, ok
}

func (ix *Index) Prop(id string) (Prop, bool) {
	p, ok := ix.propByID[id]
	return p, ok
}

func (ix *Index) Scene(id string) (Scene, bool) {
	s, ok := ix.sceneByID[id]
	return s, ok
}

func (ix *Index) Characters() []Character { return ix.characters }
func (ix *Index) Props() []Prop           { return ix.props }
func (ix *Index) Scenes() []Scene         { return ix.scenes }

// CharacterByName finds a character by name, ignoring case and surrounding space.
func CharacterByName(chars []Character, name string) (Character, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Character{}, false
	}
	for _, c := range chars {
		if strings.EqualFold(strings.TrimSpace(c.Name), name) {
			return c, true
		}
	}
	return Character{}, false
}
