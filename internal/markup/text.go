/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package markup holds annotated prompt text: an ordered run of plain text
// and entity references. HTML is only a serialization of this model (see
// html.go); nothing else in the module inspects markup strings.
package markup

import (
	"encoding/json"
	"strings"
)

// Kind identifies which entity collection a reference points into.
type Kind string

const (
	KindCharacter Kind = "character"
	KindProp      Kind = "prop"
	KindScene     Kind = "scene"
)

// Kinds lists the reference kinds in marker attribute order.
var Kinds = []Kind{KindCharacter, KindProp, KindScene}

// Ref is an inline entity reference. Name is the text shown in the editor
// at the time the reference was made; it is what remains when the entity
// no longer exists.
type Ref struct {
	Kind Kind   `json:"kind"`
	ID   string `json:"entityId"`
	Name string `json:"displayName"`
}

// Segment is either plain text (Ref == nil) or a single reference.
type Segment struct {
	Text string
	Ref  *Ref
}

// IsRef reports whether s is a reference token.
func (s Segment) IsRef() bool { return s.Ref != nil }

// Text is annotated text. The zero value is empty text.
type Text []Segment

// Plain wraps s as annotated text with no references.
func Plain(s string) Text {
	if s == "" {
		return nil
	}
	return Text{{Text: s}}
}

// Reference returns a one-token text.
func Reference(kind Kind, id, name string) Text {
	return Text{{Ref: &Ref{Kind: kind, ID: id, Name: name}}}
}

// Concat joins texts without copying the underlying segments' refs.
func Concat(parts ...Text) Text {
	var out Text
	for _, p := range parts {
		out = append(out, p...)
	}
	return out.Normalize()
}

// String returns the visible text: plain runs verbatim and references by
// their display name.
func (t Text) String() string {
	var b strings.Builder
	for _, s := range t {
		if s.Ref != nil {
			b.WriteString(s.Ref.Name)
		} else {
			b.WriteString(s.Text)
		}
	}
	return b.String()
}

// IsBlank reports whether t has no references and only whitespace.
func (t Text) IsBlank() bool {
	for _, s := range t {
		if s.Ref != nil || strings.TrimSpace(strings.ReplaceAll(s.Text, nbsp, " ")) != "" {
			return false
		}
	}
	return true
}

// Refs returns the references in order of appearance, duplicates included.
func (t Text) Refs() []Ref {
	var out []Ref
	for _, s := range t {
		if s.Ref != nil {
			out = append(out, *s.Ref)
		}
	}
	return out
}

// Normalize merges adjacent plain runs and drops empty ones.
func (t Text) Normalize() Text {
	var out Text
	for _, s := range t {
		if s.Ref == nil {
			if s.Text == "" {
				continue
			}
			if n := len(out); n > 0 && out[n-1].Ref == nil {
				out[n-1].Text += s.Text
				continue
			}
		}
		out = append(out, s)
	}
	return out
}

// Clone returns a deep copy so callers can mutate refs safely.
func (t Text) Clone() Text {
	if t == nil {
		return nil
	}
	out := make(Text, len(t))
	for i, s := range t {
		out[i] = s
		if s.Ref != nil {
			r := *s.Ref
			out[i].Ref = &r
		}
	}
	return out
}

// MarshalJSON encodes the text as its HTML serialization, which is the form
// project files have always stored.
func (t Text) MarshalJSON() ([]byte, error) { return json.Marshal(t.HTML()) }

// UnmarshalJSON parses an HTML string. Malformed markup never fails.
func (t *Text) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*t = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*t = ParseHTML(s)
	return nil
}
