/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestDetectImage(t *testing.T) {
	jpeg := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0, 0x10, 'J', 'F', 'I', 'F', 0}
	webp := append([]byte("RIFF\x00\x00\x00\x00WEBPVP8 "), make([]byte, 8)...)
	cases := []struct {
		name      string
		data      []byte
		mime, ext string
	}{
		{"png", pngBytes(t), "image/png", "png"},
		{"jpeg", jpeg, "image/jpeg", "jpg"},
		{"webp", webp, "image/webp", "webp"},
		{"text", []byte("hello world"), octetStream, "bin"},
	}
	for _, tc := range cases {
		mime, ext := DetectImage(tc.data)
		if mime != tc.mime || ext != tc.ext {
			t.Fatalf("%s: got %s/%s want %s/%s", tc.name, mime, ext, tc.mime, tc.ext)
		}
	}
}

func TestBlobStorePutGetDelete(t *testing.T) {
	s := NewBlobStore(filepath.Join(t.TempDir(), ImagesDirName))
	if ids, err := s.IDs(); err != nil || len(ids) != 0 {
		t.Fatalf("empty store: %v %v", ids, err)
	}

	name, err := s.Put("a1", []byte("not an image"))
	if err != nil || name != "a1.bin" {
		t.Fatalf("Put bin: %q %v", name, err)
	}
	data := pngBytes(t)
	if name, err = s.Put("a1", data); err != nil || name != "a1.png" {
		t.Fatalf("Put png: %q %v", name, err)
	}
	if _, err := s.Put("sh1", data); err != nil {
		t.Fatalf("Put: %v", err)
	}

	b, err := s.Get("a1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if b.Ext != "png" || b.MIME != "image/png" || !bytes.Equal(b.Data, data) {
		t.Fatalf("blob = %s %s %d bytes", b.Ext, b.MIME, len(b.Data))
	}
	back, err := ParseDataURL(b.DataURL())
	if err != nil || !bytes.Equal(back, data) {
		t.Fatalf("data url round trip failed: %v", err)
	}

	ids, err := s.IDs()
	if err != nil {
		t.Fatalf("IDs: %v", err)
	}
	if diff := cmp.Diff([]string{"a1", "sh1"}, ids); diff != "" {
		t.Fatalf("ids (replaced bin must be gone):\n%s", diff)
	}

	if err := s.Delete("a1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get("a1"); !errors.Is(err, ErrBlobNotFound) {
		t.Fatalf("want ErrBlobNotFound, got %v", err)
	}
	if err := s.Delete("a1"); err != nil {
		t.Fatalf("deleting a missing blob: %v", err)
	}
	if _, err := s.Put("../escape", data); err == nil {
		t.Fatalf("path traversal accepted")
	}
}
