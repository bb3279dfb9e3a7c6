/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package tagging

import "cineprompt/internal/markup"

// IDSet is an insertion-ordered set of ids.
type IDSet struct {
	ids  []string
	seen map[string]struct{}
}

// Add inserts id and reports whether it was new. Empty ids are ignored.
func (s *IDSet) Add(id string) bool {
	if id == "" {
		return false
	}
	if s.seen == nil {
		s.seen = make(map[string]struct{})
	}
	if _, ok := s.seen[id]; ok {
		return false
	}
	s.seen[id] = struct{}{}
	s.ids = append(s.ids, id)
	return true
}

func (s *IDSet) Has(id string) bool {
	_, ok := s.seen[id]
	return ok
}

// IDs returns the ids in insertion order.
func (s *IDSet) IDs() []string { return append([]string(nil), s.ids...) }

func (s *IDSet) Len() int { return len(s.ids) }

// References groups referenced ids by kind.
type References struct {
	Characters IDSet
	Props      IDSet
	Scenes     IDSet
}

// Add records one reference.
func (r *References) Add(ref markup.Ref) {
	switch ref.Kind {
	case markup.KindCharacter:
		r.Characters.Add(ref.ID)
	case markup.KindProp:
		r.Props.Add(ref.ID)
	case markup.KindScene:
		r.Scenes.Add(ref.ID)
	}
}

// Merge appends o's ids after r's own.
func (r *References) Merge(o References) {
	for _, id := range o.Characters.ids {
		r.Characters.Add(id)
	}
	for _, id := range o.Props.ids {
		r.Props.Add(id)
	}
	for _, id := range o.Scenes.ids {
		r.Scenes.Add(id)
	}
}

// Empty reports whether no id of any kind was collected.
func (r *References) Empty() bool {
	return r.Characters.Len() == 0 && r.Props.Len() == 0 && r.Scenes.Len() == 0
}

// Scan collects the referenced ids of each text in turn, deduplicated in
// order of first appearance.
func Scan(texts ...markup.Text) References {
	var r References
	for _, t := range texts {
		for _, ref := range t.Refs() {
			r.Add(ref)
		}
	}
	return r
}

// ScanHTML scans editor markup. It never fails: malformed input yields
// whatever markers could be found.
func ScanHTML(s string) References { return Scan(markup.ParseHTML(s)) }
