/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package tagging

import (
	"sort"
	"strings"
	"unicode/utf8"

	"cineprompt/internal/domain"
	"cineprompt/internal/markup"
)

type candidate struct {
	kind markup.Kind
	id   string
	name string
}

// Tag marks every whole-word, case-sensitive occurrence of an entity name
// in the plain runs of t. Characters are tagged first, then scenes, then
// props; within a kind longer names go first, so "Dr. Jones" wins over
// "Jones". Text already inside a reference is never re-tagged, which makes
// Tag idempotent. Blank names are ignored.
func Tag(t markup.Text, chars []domain.Character, props []domain.Prop, scenes []domain.Scene) markup.Text {
	out := t.Clone().Normalize()

	groups := [3][]candidate{}
	for _, c := range chars {
		groups[0] = append(groups[0], candidate{markup.KindCharacter, c.ID, c.Name})
	}
	for _, s := range scenes {
		groups[1] = append(groups[1], candidate{markup.KindScene, s.ID, s.Name})
	}
	for _, p := range props {
		groups[2] = append(groups[2], candidate{markup.KindProp, p.ID, p.Name})
	}
	for _, g := range groups {
		sort.SliceStable(g, func(i, j int) bool {
			return utf8.RuneCountInString(g[i].name) > utf8.RuneCountInString(g[j].name)
		})
		for _, c := range g {
			if c.id == "" || strings.TrimSpace(c.name) == "" {
				continue
			}
			out = tagOne(out, c)
		}
	}
	return out
}

// TagRegistry tags t with every entity known to reg.
func TagRegistry(t markup.Text, reg domain.Registry) markup.Text {
	return Tag(t, reg.Characters(), reg.Props(), reg.Scenes())
}

// TagHTML is Tag for editor markup.
func TagHTML(s string, chars []domain.Character, props []domain.Prop, scenes []domain.Scene) string {
	return Tag(markup.ParseHTML(s), chars, props, scenes).HTML()
}

func tagOne(t markup.Text, c candidate) markup.Text {
	var out markup.Text
	for _, seg := range t {
		if seg.IsRef() {
			out = append(out, seg)
			continue
		}
		hits := findWord(seg.Text, c.name)
		if len(hits) == 0 {
			out = append(out, seg)
			continue
		}
		last := 0
		for _, h := range hits {
			if h[0] > last {
				out = append(out, markup.Segment{Text: seg.Text[last:h[0]]})
			}
			out = append(out, markup.Segment{Ref: &markup.Ref{Kind: c.kind, ID: c.id, Name: seg.Text[h[0]:h[1]]}})
			last = h[1]
		}
		if last < len(seg.Text) {
			out = append(out, markup.Segment{Text: seg.Text[last:]})
		}
	}
	return out
}

// TagShot tags both prompt fields of a shot.
func TagShot(s domain.Shot, reg domain.Registry) domain.Shot {
	s.InitialScenePrompt = TagRegistry(s.InitialScenePrompt, reg)
	s.ActionPrompt = TagRegistry(s.ActionPrompt, reg)
	return s
}
