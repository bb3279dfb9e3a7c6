/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package markup

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const nbsp = "\u00a0"

type markerStyle struct {
	attr  string
	color string
	mime  string
}

var styles = map[Kind]markerStyle{
	KindCharacter: {attr: "data-char-id", color: "indigo", mime: "application/cineprompt-char"},
	KindProp:      {attr: "data-prop-id", color: "emerald", mime: "application/cineprompt-prop"},
	KindScene:     {attr: "data-scene-id", color: "orange", mime: "application/cineprompt-scene"},
}

// Attr returns the HTML attribute carrying the entity id for kind.
func Attr(kind Kind) string { return styles[kind].attr }

// MIMEType returns the drag-and-drop payload type used for kind.
func MIMEType(kind Kind) string { return styles[kind].mime }

// KindForMIME maps a drag payload type back to its kind.
func KindForMIME(mime string) (Kind, bool) {
	for k, s := range styles {
		if s.mime == mime {
			return k, true
		}
	}
	return "", false
}

// MarkerHTML renders one reference the way the prompt editor displays it,
// followed by the non-breaking spacer the editor inserts after a tag.
func MarkerHTML(r Ref) string {
	st, ok := styles[r.Kind]
	if !ok {
		return html.EscapeString(r.Name)
	}
	c := st.color
	var b strings.Builder
	b.WriteString(`<span `)
	b.WriteString(st.attr)
	b.WriteString(`="`)
	b.WriteString(html.EscapeString(r.ID))
	b.WriteString(`" class="inline-flex items-center bg-` + c + `-500/20 text-` + c + `-200 border border-` + c + `-500/30 rounded pl-1.5 pr-1 py-0.5 text-xs font-medium mx-1 select-none" contenteditable="false">`)
	b.WriteString(html.EscapeString(r.Name))
	b.WriteString(`<span class="tag-remove ml-1 cursor-pointer text-` + c + `-400 hover:text-white hover:bg-` + c + `-500/40 rounded-full w-3.5 h-3.5 flex items-center justify-center leading-none text-[10px]">×</span></span>&nbsp;`)
	return b.String()
}

// HTML serializes t for the prompt editor. Newlines become <br>.
func (t Text) HTML() string {
	var b strings.Builder
	for _, s := range t {
		if s.Ref != nil {
			b.WriteString(MarkerHTML(*s.Ref))
			continue
		}
		lines := strings.Split(s.Text, "\n")
		for i, ln := range lines {
			if i > 0 {
				b.WriteString("<br>")
			}
			b.WriteString(strings.ReplaceAll(html.EscapeString(ln), nbsp, "&nbsp;"))
		}
	}
	return b.String()
}

// ParseHTML reads editor markup into annotated text. It accepts any input:
// unknown elements collapse to their text, remove affordances are dropped,
// and markers nested in other markup are still found.
func ParseHTML(s string) Text {
	if !strings.ContainsAny(s, "<&") {
		return Plain(s)
	}
	ctx := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(s), ctx)
	if err != nil {
		return Plain(html.UnescapeString(s))
	}
	p := &fragmentParser{}
	for _, n := range nodes {
		p.walk(n)
	}
	return p.out.Normalize()
}

type fragmentParser struct {
	out         Text
	afterMarker bool
}

func (p *fragmentParser) text(s string) {
	if p.afterMarker {
		s = strings.TrimPrefix(s, nbsp)
		p.afterMarker = false
	}
	if s != "" {
		p.out = append(p.out, Segment{Text: s})
	}
}

func (p *fragmentParser) endsWithNewline() bool {
	for i := len(p.out) - 1; i >= 0; i-- {
		s := p.out[i]
		if s.Ref != nil {
			return false
		}
		if s.Text != "" {
			return strings.HasSuffix(s.Text, "\n")
		}
	}
	return true
}

func (p *fragmentParser) walk(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		p.text(n.Data)
		return
	case html.ElementNode:
		if hasClass(n, "tag-remove") {
			return
		}
		if ref, ok := markerOf(n); ok {
			p.out = append(p.out, Segment{Ref: &ref})
			p.afterMarker = true
			return
		}
		switch n.DataAtom {
		case atom.Br:
			p.text("\n")
			return
		case atom.Script, atom.Style, atom.Template:
			return
		}
		if isBlock(n.DataAtom) && !p.endsWithNewline() {
			p.text("\n")
		}
	case html.CommentNode, html.DoctypeNode:
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		p.walk(c)
	}
}

func markerOf(n *html.Node) (Ref, bool) {
	for _, k := range Kinds {
		attr := styles[k].attr
		for _, a := range n.Attr {
			if a.Key == attr && a.Namespace == "" {
				return Ref{Kind: k, ID: strings.TrimSpace(a.Val), Name: strings.TrimSpace(visibleText(n))}, true
			}
		}
	}
	return Ref{}, false
}

// visibleText is the text content of n without remove affordances.
func visibleText(n *html.Node) string {
	var b strings.Builder
	var rec func(*html.Node)
	rec = func(n *html.Node) {
		if n.Type == html.ElementNode && hasClass(n, "tag-remove") {
			return
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			rec(c)
		}
	}
	rec(n)
	return strings.ReplaceAll(b.String(), nbsp, " ")
}

func hasClass(n *html.Node, class string) bool {
	for _, a := range n.Attr {
		if a.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(a.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}

func isBlock(a atom.Atom) bool {
	switch a {
	case atom.Div, atom.P, atom.Li, atom.Ul, atom.Ol, atom.H1, atom.H2, atom.H3,
		atom.H4, atom.H5, atom.H6, atom.Blockquote, atom.Pre, atom.Section, atom.Article, atom.Tr:
		return true
	}
	return false
}
