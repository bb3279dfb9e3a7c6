/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/h2non/filetype"
)

// ErrBlobNotFound is returned when no image is stored for an id.
var ErrBlobNotFound = errors.New("image not found")

const octetStream = "application/octet-stream"

// blobExts are the extensions a blob may be stored under.
var blobExts = map[string]string{
	"jpg":  "image/jpeg",
	"png":  "image/png",
	"webp": "image/webp",
	"bin":  octetStream,
}

// Blob is a stored reference image.
type Blob struct {
	ID   string
	Ext  string
	MIME string
	Data []byte
}

// DataURL renders the blob as a base64 data URL.
func (b Blob) DataURL() string {
	return "data:" + b.MIME + ";base64," + base64.StdEncoding.EncodeToString(b.Data)
}

// ParseDataURL decodes a base64 data URL into its payload.
func ParseDataURL(s string) ([]byte, error) {
	head, payload, ok := strings.Cut(s, ",")
	if !ok || !strings.HasPrefix(head, "data:") || !strings.HasSuffix(head, ";base64") {
		return nil, errors.New("not a base64 data URL")
	}
	return base64.StdEncoding.DecodeString(payload)
}

// DetectImage sniffs data and returns its MIME type and storage extension.
// Anything but JPEG, PNG or WebP is stored as bin.
func DetectImage(data []byte) (mime, ext string) {
	kind, err := filetype.Match(data)
	if err != nil || kind == filetype.Unknown {
		return octetStream, "bin"
	}
	switch kind.Extension {
	case "jpg", "png", "webp":
		return blobExts[kind.Extension], kind.Extension
	}
	return octetStream, "bin"
}

// BlobStore keeps one image per entity or shot id as images/<id>.<ext>.
type BlobStore struct {
	dir string
}

func NewBlobStore(dir string) *BlobStore { return &BlobStore{dir: dir} }

func (s *BlobStore) Dir() string { return s.dir }

func validBlobID(id string) error {
	if strings.TrimSpace(id) == "" || strings.ContainsAny(id, `/\:`) || strings.Contains(id, "..") {
		return fmt.Errorf("invalid image id %q", id)
	}
	return nil
}

// Put stores data for id, replacing any previous image, and returns the file name.
func (s *BlobStore) Put(id string, data []byte) (string, error) {
	if err := validBlobID(id); err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create images dir: %w", err)
	}
	_, ext := DetectImage(data)
	name := id + "." + ext
	if err := atomicWrite(filepath.Join(s.dir, name), data); err != nil {
		return "", err
	}
	for e := range blobExts {
		if e != ext {
			_ = os.Remove(filepath.Join(s.dir, id+"."+e))
		}
	}
	return name, nil
}

// Get loads the image stored for id.
func (s *BlobStore) Get(id string) (Blob, error) {
	if err := validBlobID(id); err != nil {
		return Blob{}, err
	}
	for _, ext := range []string{"png", "jpg", "webp", "bin"} {
		data, err := os.ReadFile(filepath.Join(s.dir, id+"."+ext))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return Blob{}, fmt.Errorf("read image %s: %w", id, err)
		}
		return Blob{ID: id, Ext: ext, MIME: blobExts[ext], Data: data}, nil
	}
	return Blob{}, fmt.Errorf("%w: %s", ErrBlobNotFound, id)
}

// Has reports whether an image exists for id.
func (s *BlobStore) Has(id string) bool {
	_, err := s.Get(id)
	return err == nil
}

// Delete removes the image for id. Missing images are not an error.
func (s *BlobStore) Delete(id string) error {
	if err := validBlobID(id); err != nil {
		return err
	}
	for ext := range blobExts {
		if err := os.Remove(filepath.Join(s.dir, id+"."+ext)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("delete image %s: %w", id, err)
		}
	}
	return nil
}

// IDs lists the ids that have an image, sorted.
func (s *BlobStore) IDs() ([]string, error) {
	ents, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read images dir: %w", err)
	}
	seen := map[string]bool{}
	out := []string{}
	for _, e := range ents {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		ext := strings.TrimPrefix(filepath.Ext(e.Name()), ".")
		if _, ok := blobExts[ext]; !ok {
			continue
		}
		id := strings.TrimSuffix(e.Name(), "."+ext)
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out, nil
}
