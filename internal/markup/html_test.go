/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package markup

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRenderAndParseRoundTrip(t *testing.T) {
	in := Text{
		{Ref: &Ref{Kind: KindCharacter, ID: "c1", Name: "Hero"}},
		{Text: " picks up the "},
		{Ref: &Ref{Kind: KindProp, ID: "p1", Name: "Sword & Shield"}},
		{Text: "\nin the "},
		{Ref: &Ref{Kind: KindScene, ID: "s1", Name: "Cave"}},
	}
	h := in.HTML()
	if !strings.Contains(h, `<span data-char-id="c1" class="inline-flex items-center bg-indigo-500/20`) {
		t.Fatalf("character marker format changed: %s", h)
	}
	if !strings.Contains(h, `data-prop-id="p1"`) || !strings.Contains(h, "bg-emerald-500/20") {
		t.Fatalf("prop marker missing: %s", h)
	}
	if !strings.Contains(h, `data-scene-id="s1"`) || !strings.Contains(h, "text-orange-400") {
		t.Fatalf("scene marker missing: %s", h)
	}
	if got := ParseHTML(h); !cmp.Equal(got, in) {
		t.Fatalf("round trip mismatch:\n%s", cmp.Diff(in, got))
	}
}

func TestParseHTMLDropsRemoveAffordance(t *testing.T) {
	h := `<span data-char-id="c1" class="x">Hero<span class="tag-remove">×</span></span>&nbsp; draws`
	got := ParseHTML(h)
	want := Text{{Ref: &Ref{Kind: KindCharacter, ID: "c1", Name: "Hero"}}, {Text: " draws"}}
	if !cmp.Equal(got, want) {
		t.Fatalf("mismatch:\n%s", cmp.Diff(want, got))
	}
	if s := got.String(); s != "Hero draws" {
		t.Fatalf("String() = %q", s)
	}
}

func TestParseHTMLIsTolerant(t *testing.T) {
	cases := map[string]string{
		"plain":          "just text",
		"entities":       "a &amp; b",
		"unclosed":       "<b>bold <i>italic",
		"stray close":    "text</span></div>",
		"orphan remove":  `before<span class="tag-remove">×</span>after`,
		"blocks":         "<div>one</div><div>two</div>",
		"script ignored": "<script>alert(1)</script>ok",
	}
	want := map[string]string{
		"plain":          "just text",
		"entities":       "a & b",
		"unclosed":       "bold italic",
		"stray close":    "text",
		"orphan remove":  "beforeafter",
		"blocks":         "one\ntwo",
		"script ignored": "ok",
	}
	for name, in := range cases {
		got := ParseHTML(in)
		if len(got.Refs()) != 0 {
			t.Fatalf("%s: unexpected refs %v", name, got.Refs())
		}
		if got.String() != want[name] {
			t.Fatalf("%s: got %q want %q", name, got.String(), want[name])
		}
	}
}

func TestParseHTMLNestedMarker(t *testing.T) {
	got := ParseHTML(`<div><p>See <span data-scene-id=" s9 ">Docks</span></p></div>`)
	refs := got.Refs()
	if len(refs) != 1 || refs[0].ID != "s9" || refs[0].Kind != KindScene || refs[0].Name != "Docks" {
		t.Fatalf("refs = %+v", refs)
	}
}

func TestNormalizeAndBlank(t *testing.T) {
	got := Text{{Text: "a"}, {Text: ""}, {Text: "b"}, {Ref: &Ref{Kind: KindProp, ID: "p"}}, {Text: "c"}}.Normalize()
	if len(got) != 3 || got[0].Text != "ab" {
		t.Fatalf("normalize = %+v", got)
	}
	if !(Text{{Text: " \u00a0\n"}}).IsBlank() {
		t.Fatalf("whitespace text should be blank")
	}
	if Reference(KindProp, "p", "").IsBlank() {
		t.Fatalf("reference is never blank")
	}
}

func TestJSONUsesHTMLString(t *testing.T) {
	type doc struct {
		Prompt Text `json:"prompt"`
	}
	in := doc{Prompt: Concat(Plain("Enter "), Reference(KindCharacter, "c1", "Ann"))}
	b, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), `data-char-id=\"c1\"`) {
		t.Fatalf("expected html string, got %s", b)
	}
	var out doc
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatal(err)
	}
	if !cmp.Equal(out.Prompt, in.Prompt) {
		t.Fatalf("json round trip:\n%s", cmp.Diff(in.Prompt, out.Prompt))
	}
	if err := json.Unmarshal([]byte(`{"prompt":null}`), &out); err != nil || out.Prompt != nil {
		t.Fatalf("null should decode to empty text: %v %v", err, out.Prompt)
	}
}

func TestMIMETypes(t *testing.T) {
	for _, k := range Kinds {
		got, ok := KindForMIME(MIMEType(k))
		if !ok || got != k {
			t.Fatalf("mime round trip for %s", k)
		}
	}
	if MIMEType(KindCharacter) != "application/cineprompt-char" {
		t.Fatalf("character mime = %s", MIMEType(KindCharacter))
	}
}
