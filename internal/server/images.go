/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"cineprompt/internal/markup"
	"cineprompt/internal/storage"
)

var errNoImages = errors.New("image storage is not configured")

// maxImageBytes bounds an uploaded reference image.
const maxImageBytes = 16 << 20

type imageRequest struct {
	DataURL string `json:"dataUrl"`
}

// projectBlobs returns the image store of a project after checking that
// the project exists.
func (s *Server) projectBlobs(c *gin.Context) (*storage.BlobStore, []string, bool) {
	blobs := s.blobs(c.Param("id"))
	if blobs == nil {
		s.fail(c, errNoImages)
		return nil, nil, false
	}
	p, err := s.lib.Load(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return nil, nil, false
	}
	return blobs, p.ImageOwnerIDs(), true
}

func (s *Server) listImages(c *gin.Context) {
	blobs, _, ok := s.projectBlobs(c)
	if !ok {
		return
	}
	ids, err := blobs.IDs()
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ids)
}

// putImage accepts either a JSON body with a base64 data URL or the raw
// image bytes.
func (s *Server) putImage(c *gin.Context) {
	blobs, owners, ok := s.projectBlobs(c)
	if !ok {
		return
	}
	owner := c.Param("ownerId")
	if !slices.Contains(owners, owner) {
		s.fail(c, badRequest(errors.New("unknown image owner "+owner)))
		return
	}
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxImageBytes+1))
	if err != nil {
		s.fail(c, badRequest(err))
		return
	}
	if len(body) > maxImageBytes {
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image too large"})
		return
	}
	data := body
	if strings.HasPrefix(c.ContentType(), "application/json") {
		var req imageRequest
		if err := json.Unmarshal(body, &req); err != nil {
			s.fail(c, badRequest(err))
			return
		}
		if data, err = storage.ParseDataURL(req.DataURL); err != nil {
			s.fail(c, badRequest(err))
			return
		}
	}
	if len(data) == 0 {
		s.fail(c, badRequest(errors.New("empty image")))
		return
	}
	name, err := blobs.Put(owner, data)
	if err != nil {
		s.fail(c, err)
		return
	}
	mime, _ := storage.DetectImage(data)
	c.JSON(http.StatusCreated, gin.H{"id": owner, "file": name, "mime": mime})
}

// getImage returns the raw image, or a data URL with ?format=dataurl.
func (s *Server) getImage(c *gin.Context) {
	blobs, _, ok := s.projectBlobs(c)
	if !ok {
		return
	}
	b, err := blobs.Get(c.Param("ownerId"))
	if err != nil {
		s.fail(c, err)
		return
	}
	if c.Query("format") == "dataurl" {
		c.JSON(http.StatusOK, gin.H{"id": b.ID, "dataUrl": b.DataURL()})
		return
	}
	c.Data(http.StatusOK, b.MIME, b.Data)
}

func (s *Server) deleteImage(c *gin.Context) {
	blobs, _, ok := s.projectBlobs(c)
	if !ok {
		return
	}
	id := c.Param("ownerId")
	if !blobs.Has(id) {
		s.fail(c, storage.ErrBlobNotFound)
		return
	}
	if err := blobs.Delete(id); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type dropRequest struct {
	MIME string `json:"mime"`
	ID   string `json:"id"`
	Name string `json:"name"`
}

// dropMarkup turns a drag-and-drop payload into the editor marker for it.
func (s *Server) dropMarkup(c *gin.Context) {
	var req dropRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, badRequest(err))
		return
	}
	kind, ok := markup.KindForMIME(req.MIME)
	if !ok || strings.TrimSpace(req.ID) == "" {
		s.fail(c, badRequest(errors.New("unsupported drop payload "+req.MIME)))
		return
	}
	ref := markup.Ref{Kind: kind, ID: req.ID, Name: req.Name}
	c.JSON(http.StatusOK, gin.H{"kind": kind, "html": markup.MarkerHTML(ref)})
}

// markupKinds lists the reference kinds with their marker attribute and
// drag payload type.
func (s *Server) markupKinds(c *gin.Context) {
	out := make([]gin.H, 0, len(markup.Kinds))
	for _, k := range markup.Kinds {
		out = append(out, gin.H{"kind": k, "attr": markup.Attr(k), "mime": markup.MIMEType(k)})
	}
	c.JSON(http.StatusOK, out)
}
