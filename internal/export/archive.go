/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"archive/zip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"cineprompt/internal/domain"
	applog "cineprompt/internal/log"
	"cineprompt/internal/storage"
)

// ErrMissingManifest is returned when an archive has no project.json.
var ErrMissingManifest = errors.New("invalid archive: project.json missing")

const (
	archiveManifest = "project.json"
	archiveImages   = "images/"
	blobReaders     = 4
)

var reNotArchiveSafe = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// ArchiveFileName keeps only letters, digits, "_" and "-" of the title,
// after whitespace runs became "_".
func ArchiveFileName(title string) string {
	if strings.TrimSpace(title) == "" {
		title = "project"
	}
	return reNotArchiveSafe.ReplaceAllString(reSpaces.ReplaceAllString(title, "_"), "") + ".zip"
}

// WriteArchive writes project.json plus images/<id>.<ext> for every entity
// and shot of p that has a stored image. Images are read concurrently; a
// nil store writes the manifest only.
func WriteArchive(ctx context.Context, w io.Writer, p domain.Project, blobs *storage.BlobStore) error {
	l := applog.WithOperation(applog.WithComponent("export"), "archive")
	data, err := ProjectJSON(p)
	if err != nil {
		return err
	}

	var ids []string
	if blobs != nil {
		ids = p.ImageOwnerIDs()
	}
	found := make([]*storage.Blob, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(blobReaders)
	for i, id := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			b, err := blobs.Get(id)
			if errors.Is(err, storage.ErrBlobNotFound) {
				return nil
			}
			if err != nil {
				l.Warn("skipping image", slog.String("id", id), slog.Any("err", err))
				return nil
			}
			found[i] = &b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	zw := zip.NewWriter(w)
	if err := addZipFile(zw, archiveManifest, data); err != nil {
		return fmt.Errorf("zip add manifest: %w", err)
	}
	for _, b := range found {
		if b == nil {
			continue
		}
		if err := addZipFile(zw, archiveImages+b.ID+"."+b.Ext, b.Data); err != nil {
			return fmt.Errorf("zip add image %s: %w", b.ID, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("close zip: %w", err)
	}
	return nil
}

// ExportArchive writes the project archive to outPath and returns the written path.
func ExportArchive(ctx context.Context, ph *storage.ProjectHandle, outPath string) (string, error) {
	if ph == nil {
		return "", fmt.Errorf("project handle is nil")
	}
	outPath = resolveOut(ph, outPath, ArchiveFileName(ph.Project.Title), ".zip")
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return "", fmt.Errorf("ensure out dir: %w", err)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return "", fmt.Errorf("create zip: %w", err)
	}
	if err := WriteArchive(ctx, f, ph.Project, ph.Blobs()); err != nil {
		_ = f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close zip: %w", err)
	}
	return outPath, nil
}

// ImportResult is a read archive. ImageErr aggregates images that could
// not be restored; the project itself is still usable.
type ImportResult struct {
	Project  domain.Project
	Images   []string
	ImageErr error
}

// ReadArchive validates and migrates project.json and restores every image
// into blobs, keyed by file name minus extension.
func ReadArchive(zr *zip.Reader, blobs *storage.BlobStore) (ImportResult, error) {
	var manifest *zip.File
	for _, f := range zr.File {
		if f.Name == archiveManifest {
			manifest = f
			break
		}
	}
	if manifest == nil {
		return ImportResult{}, ErrMissingManifest
	}
	data, err := readZipFile(manifest)
	if err != nil {
		return ImportResult{}, fmt.Errorf("read manifest: %w", err)
	}
	if err := storage.ValidateProjectJSON(data); err != nil {
		return ImportResult{}, err
	}
	var res ImportResult
	if err := json.Unmarshal(data, &res.Project); err != nil {
		return ImportResult{}, fmt.Errorf("decode manifest: %w", err)
	}

	res.Images = []string{}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !strings.HasPrefix(f.Name, archiveImages) {
			continue
		}
		id := imageID(f.Name)
		if id == "" {
			continue
		}
		b, err := readZipFile(f)
		if err == nil {
			_, err = blobs.Put(id, b)
		}
		if err != nil {
			res.ImageErr = multierr.Append(res.ImageErr, fmt.Errorf("restore %s: %w", f.Name, err))
			continue
		}
		res.Images = append(res.Images, id)
	}
	return res, nil
}

// ImportArchive reads the archive at zipPath into a new project directory at root.
func ImportArchive(zipPath, root string) (*storage.ProjectHandle, ImportResult, error) {
	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, ImportResult{}, fmt.Errorf("open archive: %w", err)
	}
	defer func() { _ = zr.Close() }()
	res, err := ReadArchive(&zr.Reader, storage.NewBlobStore(filepath.Join(root, storage.ImagesDirName)))
	if err != nil {
		return nil, ImportResult{}, err
	}
	ph, err := storage.InitProject(root, res.Project)
	if err != nil {
		return nil, res, err
	}
	res.Project = ph.Project
	if res.ImageErr != nil {
		applog.WithComponent("export").Warn("some images were not restored", slog.Any("err", res.ImageErr))
	}
	return ph, res, nil
}

func imageID(name string) string {
	base := path.Base(name)
	if i := strings.LastIndex(base, "."); i >= 0 {
		return base[:i]
	}
	return ""
}

func addZipFile(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	return io.ReadAll(rc)
}
