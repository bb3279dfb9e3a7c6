/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package generate

import (
	"bytes"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// ErrNoJSON means no parseable JSON value could be found in a response.
var ErrNoJSON = errors.New("could not extract or parse JSON")

var reFence = regexp.MustCompile("(?i)```json\\s*|```")

// ExtractJSON finds the JSON value in a model response. It tries, in order:
// the whole text, the text with markdown fences removed, the first
// balanced {...} or [...] block (whichever starts first), and that block
// with raw newlines escaped.
func ExtractJSON(text string) (json.RawMessage, error) {
	if v := strings.TrimSpace(text); json.Valid([]byte(v)) && v != "" {
		return json.RawMessage(v), nil
	}
	clean := strings.TrimSpace(reFence.ReplaceAllString(text, ""))
	if json.Valid([]byte(clean)) && clean != "" {
		return json.RawMessage(clean), nil
	}

	obj, objAt := balanced(clean, '{', '}')
	arr, arrAt := balanced(clean, '[', ']')
	candidate := obj
	if arr != "" && (obj == "" || arrAt < objAt) {
		candidate = arr
	}
	if candidate == "" {
		return nil, ErrNoJSON
	}
	if json.Valid([]byte(candidate)) {
		return json.RawMessage(candidate), nil
	}
	if s := strings.ReplaceAll(candidate, "\n", "\\n"); json.Valid([]byte(s)) {
		return json.RawMessage(s), nil
	}
	return nil, ErrNoJSON
}

// balanced returns the first open...close block of s, skipping delimiters
// inside JSON strings, and its start offset.
func balanced(s string, open, close byte) (string, int) {
	start := strings.IndexByte(s, open)
	if start < 0 {
		return "", -1
	}
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == open:
			depth++
		case c == close:
			depth--
			if depth == 0 {
				return s[start : i+1], start
			}
		}
	}
	return "", -1
}

// shotList reduces a decoded response to a list of shot objects. Arrays
// pass through. An object with prompt text is a lone shot; otherwise its
// first array field is the list, and a titled object without one is a
// lone shot.
func shotList(raw json.RawMessage) []json.RawMessage {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}
	var list []json.RawMessage
	if raw[0] == '[' {
		if json.Unmarshal(raw, &list) == nil {
			return list
		}
		return nil
	}
	if raw[0] != '{' {
		return nil
	}
	var f shotFields
	if json.Unmarshal(raw, &f) != nil {
		return nil
	}
	if f.InitialScenePrompt != "" || f.ActionPrompt != "" {
		return []json.RawMessage{raw}
	}
	if arr, ok := firstArrayField(raw); ok {
		if json.Unmarshal(arr, &list) == nil {
			return list
		}
	}
	if f.Title != "" {
		return []json.RawMessage{raw}
	}
	return nil
}

// firstShot returns the object of a single-shot answer. A top-level array
// yields its first element; an object is the shot itself.
func firstShot(raw json.RawMessage) json.RawMessage {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		var list []json.RawMessage
		if json.Unmarshal(raw, &list) == nil && len(list) > 0 {
			return list[0]
		}
		return json.RawMessage(`{}`)
	}
	return raw
}

// shotFields are the text fields that mark an object as a shot.
type shotFields struct {
	Title              looseString `json:"title"`
	InitialScenePrompt looseString `json:"initialScenePrompt"`
	ActionPrompt       looseString `json:"actionPrompt"`
}

// firstArrayField walks an object's fields in document order.
func firstArrayField(obj json.RawMessage) (json.RawMessage, bool) {
	dec := json.NewDecoder(bytes.NewReader(obj))
	if t, err := dec.Token(); err != nil || t != json.Delim('{') {
		return nil, false
	}
	for dec.More() {
		if _, err := dec.Token(); err != nil {
			return nil, false
		}
		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return nil, false
		}
		if v = bytes.TrimSpace(v); len(v) > 0 && v[0] == '[' {
			return v, true
		}
	}
	return nil, false
}

// looseString accepts any JSON scalar; models sometimes emit numbers or
// booleans where text is expected.
type looseString string

func (s *looseString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*s = ""
	case len(b) > 0 && b[0] == '"':
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = looseString(v)
	case len(b) > 0 && (b[0] == '{' || b[0] == '['):
		*s = ""
	default:
		*s = looseString(b)
	}
	return nil
}

func (s looseString) String() string { return strings.TrimSpace(string(s)) }
