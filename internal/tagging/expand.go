/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package tagging

import (
	"fmt"
	"strings"

	"cineprompt/internal/domain"
	"cineprompt/internal/markup"
)

const (
	unknownActor   = "Unknown Actor"
	unknownCostume = "Unknown Costume"
)

// Expand renders t as plain text with each reference replaced by its full
// description:
//
//	character  Name (Actor - desc, wearing Costume - desc)
//	prop       Name (desc)
//	scene      Name (desc)
//
// A missing actor or costume is written as "Unknown Actor" or "Unknown
// Costume"; a character with neither, or any reference whose entity is
// gone, falls back to the visible name. Non-breaking spaces become spaces
// and the result is trimmed.
func Expand(t markup.Text, reg domain.Registry) string {
	return render(t, func(r markup.Ref) string { return describe(r, reg) })
}

// ExpandConcise is the copy-to-clipboard variant: a character becomes
// "Actor (desc) wearing Costume (desc)" with no role name.
func ExpandConcise(t markup.Text, reg domain.Registry) string {
	return render(t, func(r markup.Ref) string { return describeConcise(r, reg) })
}

// ExpandHTML parses editor markup and expands it.
func ExpandHTML(s string, reg domain.Registry) string { return Expand(markup.ParseHTML(s), reg) }

func render(t markup.Text, ref func(markup.Ref) string) string {
	var b strings.Builder
	for _, seg := range t {
		if seg.Ref != nil {
			b.WriteString(ref(*seg.Ref))
			continue
		}
		b.WriteString(seg.Text)
	}
	return strings.TrimSpace(strings.ReplaceAll(b.String(), "\u00a0", " "))
}

func nameOr(name, fallback string) string {
	if strings.TrimSpace(name) == "" {
		return fallback
	}
	return name
}

func describe(r markup.Ref, reg domain.Registry) string {
	switch r.Kind {
	case markup.KindCharacter:
		c, ok := reg.Character(r.ID)
		if !ok {
			return r.Name
		}
		name := nameOr(c.Name, r.Name)
		a, okA := reg.Actor(c.ActorID)
		co, okC := reg.Costume(c.CostumeID)
		if !okA && !okC {
			return name
		}
		actor, costume := unknownActor, unknownCostume
		if okA {
			actor = a.Name + " - " + a.Description
		}
		if okC {
			costume = co.Name + " - " + co.Description
		}
		return fmt.Sprintf("%s (%s, wearing %s)", name, actor, costume)
	case markup.KindProp:
		if p, ok := reg.Prop(r.ID); ok {
			return fmt.Sprintf("%s (%s)", nameOr(p.Name, r.Name), p.Description)
		}
	case markup.KindScene:
		if s, ok := reg.Scene(r.ID); ok {
			return fmt.Sprintf("%s (%s)", nameOr(s.Name, r.Name), s.Description)
		}
	}
	return r.Name
}

func describeConcise(r markup.Ref, reg domain.Registry) string {
	if r.Kind != markup.KindCharacter {
		return describe(r, reg)
	}
	c, ok := reg.Character(r.ID)
	if !ok {
		return r.Name
	}
	a, okA := reg.Actor(c.ActorID)
	if !okA {
		return nameOr(c.Name, r.Name)
	}
	if co, okC := reg.Costume(c.CostumeID); okC {
		return fmt.Sprintf("%s (%s) wearing %s (%s)", a.Name, a.Description, co.Name, co.Description)
	}
	return fmt.Sprintf("%s (%s)", a.Name, a.Description)
}
