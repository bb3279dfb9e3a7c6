/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package tagging

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"cineprompt/internal/domain"
	"cineprompt/internal/markup"
)

func fixture() domain.Project {
	p := domain.New("t")
	p.Actors = []domain.Actor{{ID: "a1", Name: "John", Description: "tall man"}}
	p.Costumes = []domain.Costume{{ID: "co1", Name: "Suit", Description: "black suit"}}
	p.Characters = []domain.Character{
		{ID: "c1", Name: "Hero", ActorID: "a1", CostumeID: "co1"},
		{ID: "c2", Name: "Jones", ActorID: "gone", CostumeID: "co1"},
		{ID: "c3", Name: "Dr. Jones", ActorID: "gone", CostumeID: "gone"},
		{ID: "c4", Name: "   "},
	}
	p.Props = []domain.Prop{{ID: "p1", Name: "Sword", Description: "steel blade"}, {ID: "p2", Name: "Car", Description: "red coupe"}, {ID: "p3", Name: ""}}
	p.Scenes = []domain.Scene{{ID: "s1", Name: "Cave", Description: "a dark cave"}, {ID: "s2", Name: "Old Docks", Description: "rotting piers"}}
	return p
}

func ref(kind markup.Kind, id, name string) markup.Segment {
	return markup.Segment{Ref: &markup.Ref{Kind: kind, ID: id, Name: name}}
}

func txt(s string) markup.Segment { return markup.Segment{Text: s} }

func TestTagAllKinds(t *testing.T) {
	p := fixture()
	got := Tag(markup.Plain("Hero walks into Cave with Sword"), p.Characters, p.Props, p.Scenes)
	want := markup.Text{
		ref(markup.KindCharacter, "c1", "Hero"), txt(" walks into "),
		ref(markup.KindScene, "s1", "Cave"), txt(" with "),
		ref(markup.KindProp, "p1", "Sword"),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Tag mismatch (-want +got):\n%s", diff)
	}
}

func TestTagLongestNameFirst(t *testing.T) {
	p := fixture()
	got := Tag(markup.Plain("Dr. Jones meets Jones."), p.Characters, nil, nil)
	want := markup.Text{
		ref(markup.KindCharacter, "c3", "Dr. Jones"), txt(" meets "),
		ref(markup.KindCharacter, "c2", "Jones"), txt("."),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("longest first violated (-want +got):\n%s", diff)
	}
}

func TestTagIsIdempotent(t *testing.T) {
	p := fixture()
	once := Tag(markup.Plain("Hero and Hero at the Old Docks"), p.Characters, p.Props, p.Scenes)
	twice := Tag(once, p.Characters, p.Props, p.Scenes)
	if diff := cmp.Diff(once, twice); diff != "" {
		t.Fatalf("second pass changed text:\n%s", diff)
	}
	if n := len(once.Refs()); n != 3 {
		t.Fatalf("expected 3 refs, got %d", n)
	}
	// The same holds through the HTML boundary.
	h := TagHTML(once.HTML(), p.Characters, p.Props, p.Scenes)
	if diff := cmp.Diff(once, markup.ParseHTML(h)); diff != "" {
		t.Fatalf("html pass changed text:\n%s", diff)
	}
}

func TestTagWordBoundaryAndCase(t *testing.T) {
	p := fixture()
	for _, in := range []string{"Heroes gather", "the hero sleeps", "SwordFish", "Cavern", "a_Hero"} {
		if got := Tag(markup.Plain(in), p.Characters, p.Props, p.Scenes); len(got.Refs()) != 0 {
			t.Fatalf("%q should not be tagged: %+v", in, got.Refs())
		}
	}
	got := Tag(markup.Plain("(Hero), Hero's sword"), p.Characters, nil, nil)
	if len(got.Refs()) != 2 {
		t.Fatalf("punctuation is a boundary: %+v", got)
	}
}

func TestTagBlankNamesNeverMatch(t *testing.T) {
	p := fixture()
	got := Tag(markup.Plain("   spaces   and words"), p.Characters, p.Props, p.Scenes)
	if len(got.Refs()) != 0 {
		t.Fatalf("blank names matched: %+v", got.Refs())
	}
	if got.String() != "   spaces   and words" {
		t.Fatalf("text changed: %q", got.String())
	}
}

func TestScanOrderAndDedup(t *testing.T) {
	scene := markup.Text{ref(markup.KindScene, "s1", "Cave"), txt(" "), ref(markup.KindCharacter, "c2", "Jones")}
	action := markup.Text{ref(markup.KindCharacter, "c1", "Hero"), ref(markup.KindCharacter, "c2", "Jones"), ref(markup.KindProp, "p1", "Sword")}
	r := Scan(scene, action)
	if diff := cmp.Diff([]string{"c2", "c1"}, r.Characters.IDs()); diff != "" {
		t.Fatalf("characters:\n%s", diff)
	}
	if r.Props.IDs()[0] != "p1" || r.Scenes.IDs()[0] != "s1" {
		t.Fatalf("props/scenes: %v %v", r.Props.IDs(), r.Scenes.IDs())
	}
}

func TestScanHTMLTolerant(t *testing.T) {
	for _, in := range []string{"", "<<<>>>", "<span data-char-id=\"x\">", "</div></span>", "<span data-prop-id=>oops"} {
		_ = ScanHTML(in)
	}
	r := ScanHTML("<p><span data-prop-id=\"p1\">Sword</span><span data-prop-id=\"p1\">Sword</span>")
	if r.Props.Len() != 1 {
		t.Fatalf("expected dedup, got %v", r.Props.IDs())
	}
}

func TestImplicitMentions(t *testing.T) {
	p := fixture()
	ix := domain.NewIndex(&p)
	var explicit References
	explicit.Props.Add("p1")
	got := ImplicitMentions("A CAR drives past the old docks, sword drawn. Carpet.", explicit, ix)
	if diff := cmp.Diff([]string{"p2"}, got.Props.IDs()); diff != "" {
		t.Fatalf("props (explicit must be excluded):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"s2"}, got.Scenes.IDs()); diff != "" {
		t.Fatalf("scenes:\n%s", diff)
	}
	if got.Characters.Len() != 0 {
		t.Fatalf("characters are never implicit")
	}
	if r := ImplicitMentions("scarcity", References{}, ix); !r.Empty() {
		t.Fatalf("substring inside a word must not match: %v", r.Props.IDs())
	}
	if r := ImplicitMentions("   ", References{}, ix); !r.Empty() {
		t.Fatalf("blank text")
	}
}

func TestExpand(t *testing.T) {
	p := fixture()
	ix := domain.NewIndex(&p)
	in := markup.ParseHTML(markup.MarkerHTML(markup.Ref{Kind: markup.KindCharacter, ID: "c1", Name: "Hero"}) +
		" picks up the " + markup.MarkerHTML(markup.Ref{Kind: markup.KindProp, ID: "p1", Name: "Sword"}))
	want := "Hero (John - tall man, wearing Suit - black suit) picks up the Sword (steel blade)"
	if got := Expand(in, ix); got != want {
		t.Fatalf("Expand =\n%q\nwant\n%q", got, want)
	}
	if got := ExpandConcise(in, ix); got != "John (tall man) wearing Suit (black suit) picks up the Sword (steel blade)" {
		t.Fatalf("ExpandConcise = %q", got)
	}
}

func TestExpandFallbacks(t *testing.T) {
	p := fixture()
	ix := domain.NewIndex(&p)
	cases := []struct {
		in   markup.Text
		want string
	}{
		{markup.Text{ref(markup.KindCharacter, "c2", "Jones")}, "Jones (Unknown Actor, wearing Suit - black suit)"},
		{markup.Text{ref(markup.KindCharacter, "c3", "Dr. Jones")}, "Dr. Jones"},
		{markup.Text{ref(markup.KindCharacter, "deleted", "Ghost")}, "Ghost"},
		{markup.Text{ref(markup.KindProp, "deleted", "Lamp")}, "Lamp"},
		{markup.Text{ref(markup.KindScene, "s2", "Docks")}, "Old Docks (rotting piers)"},
		{markup.Plain("  no markers here  "), "no markers here"},
	}
	for _, c := range cases {
		if got := Expand(c.in, ix); got != c.want {
			t.Fatalf("Expand(%v) = %q want %q", c.in, got, c.want)
		}
	}
	if got := ExpandConcise(markup.Text{ref(markup.KindCharacter, "c2", "Jones")}, ix); got != "Jones" {
		t.Fatalf("concise without actor = %q", got)
	}
}

func TestExpandPlainTextUnchanged(t *testing.T) {
	p := fixture()
	ix := domain.NewIndex(&p)
	const s = "The rain falls on Hero's city."
	if got := ExpandHTML(s, ix); got != s {
		t.Fatalf("plain text changed: %q", got)
	}
}

func TestTagShot(t *testing.T) {
	p := fixture()
	ix := domain.NewIndex(&p)
	s := TagShot(domain.Shot{InitialScenePrompt: markup.Plain("Inside the Cave"), ActionPrompt: markup.Plain("Hero waits")}, ix)
	if len(s.InitialScenePrompt.Refs()) != 1 || len(s.ActionPrompt.Refs()) != 1 {
		t.Fatalf("TagShot: %+v", s)
	}
}
