/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package server

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"cineprompt/internal/assemble"
	"cineprompt/internal/domain"
	"cineprompt/internal/export"
	"cineprompt/internal/generate"
	"cineprompt/internal/markup"
	"cineprompt/internal/tagging"
)

var (
	errBadRequest  = errors.New("bad request")
	errNoGenerator = errors.New("generation is not configured")
)

func badRequest(err error) error { return fmt.Errorf("%w: %v", errBadRequest, err) }

func (s *Server) listProjects(c *gin.Context) {
	list, err := s.lib.List(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) saveProject(c *gin.Context) {
	var p domain.Project
	if err := c.ShouldBindJSON(&p); err != nil {
		s.fail(c, badRequest(err))
		return
	}
	if p.ID == "" {
		p.ID = domain.NewID("proj")
	}
	unlock := s.lock(p.ID)
	defer unlock()
	if prev, err := s.lib.Load(c.Request.Context(), p.ID); err == nil {
		_ = s.history.Record(prev)
	}
	saved, err := s.lib.Save(c.Request.Context(), p)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.hub.Publish(Event{Type: EventProjectUpdated, ProjectID: saved.ID, Project: &saved, TS: saved.LastModified})
	c.JSON(http.StatusOK, saved)
}

func (s *Server) loadProject(c *gin.Context) {
	p, err := s.lib.Load(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) deleteProject(c *gin.Context) {
	id := c.Param("id")
	if err := s.lib.Delete(c.Request.Context(), id); err != nil {
		s.fail(c, err)
		return
	}
	s.history.Forget(id)
	s.hub.Publish(Event{Type: EventProjectDeleted, ProjectID: id})
	c.Status(http.StatusNoContent)
}

type titleRequest struct {
	Title string `json:"title"`
}

func (s *Server) renameProject(c *gin.Context) {
	var req titleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, badRequest(err))
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		s.fail(c, badRequest(domain.ErrEmptyName))
		return
	}
	p, ok := s.edit(c, func(p domain.Project) (domain.Project, error) {
		p.Title = req.Title
		return p, nil
	})
	if ok {
		c.JSON(http.StatusOK, p)
	}
}

func (s *Server) addShot(c *gin.Context) {
	var added domain.Shot
	_, ok := s.edit(c, func(p domain.Project) (domain.Project, error) {
		var next domain.Project
		next, added = p.AddShot()
		return next, nil
	})
	if ok {
		c.JSON(http.StatusCreated, added)
	}
}

func (s *Server) updateShot(c *gin.Context) {
	var shot domain.Shot
	if err := c.ShouldBindJSON(&shot); err != nil {
		s.fail(c, badRequest(err))
		return
	}
	shot.ID = c.Param("shotId")
	_, ok := s.edit(c, func(p domain.Project) (domain.Project, error) {
		return p.UpdateShot(shot)
	})
	if ok {
		c.JSON(http.StatusOK, shot)
	}
}

func (s *Server) deleteShot(c *gin.Context) {
	_, ok := s.edit(c, func(p domain.Project) (domain.Project, error) {
		return p.DeleteShot(c.Param("shotId"))
	})
	if ok {
		c.Status(http.StatusNoContent)
	}
}

func (s *Server) autotagShot(c *gin.Context) {
	var tagged domain.Shot
	_, ok := s.edit(c, func(p domain.Project) (domain.Project, error) {
		shot, found := p.Shot(c.Param("shotId"))
		if !found {
			return p, fmt.Errorf("shot %s: %w", c.Param("shotId"), domain.ErrNotFound)
		}
		tagged = tagging.TagShot(shot, domain.NewIndex(&p))
		return p.UpdateShot(tagged)
	})
	if ok {
		c.JSON(http.StatusOK, tagged)
	}
}

// withShot loads the project and the addressed shot for read-only endpoints.
func (s *Server) withShot(c *gin.Context) (domain.Project, domain.Shot, bool) {
	p, err := s.lib.Load(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return domain.Project{}, domain.Shot{}, false
	}
	shot, found := p.Shot(c.Param("shotId"))
	if !found {
		s.fail(c, fmt.Errorf("shot %s: %w", c.Param("shotId"), domain.ErrNotFound))
		return domain.Project{}, domain.Shot{}, false
	}
	return p, shot, true
}

func (s *Server) shotPrompt(c *gin.Context) {
	p, shot, ok := s.withShot(c)
	if !ok {
		return
	}
	c.String(http.StatusOK, assemble.Prompt(shot, domain.NewIndex(&p)))
}

func (s *Server) shotDocument(c *gin.Context) {
	p, shot, ok := s.withShot(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, assemble.BuildDocument(shot, domain.NewIndex(&p)))
}

func (s *Server) undo(c *gin.Context) { s.step(c, s.history.Undo, "nothing to undo") }
func (s *Server) redo(c *gin.Context) { s.step(c, s.history.Redo, "nothing to redo") }

func (s *Server) step(c *gin.Context, op func(domain.Project) (domain.Project, bool, error), empty string) {
	id := c.Param("id")
	unlock := s.lock(id)
	defer unlock()
	cur, err := s.lib.Load(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	prev, ok, err := op(cur)
	if err != nil {
		s.fail(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusConflict, gin.H{"error": empty})
		return
	}
	saved, err := s.lib.Save(c.Request.Context(), prev)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.hub.Publish(Event{Type: EventProjectUpdated, ProjectID: saved.ID, Project: &saved, TS: saved.LastModified})
	c.JSON(http.StatusOK, saved)
}

func (s *Server) references(c *gin.Context) {
	p, err := s.lib.Load(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, assemble.ReferencePrompts(&p))
}

type shotRequest struct {
	Description string `json:"description"`
}

func (s *Server) generateShot(c *gin.Context) {
	if s.gen == nil {
		s.fail(c, errNoGenerator)
		return
	}
	var req shotRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Description) == "" {
		s.fail(c, badRequest(errors.New("description is required")))
		return
	}
	var shot domain.Shot
	_, ok := s.edit(c, func(p domain.Project) (domain.Project, error) {
		generated, _, err := s.gen.GenerateSingleShot(c.Request.Context(), req.Description, generate.CastOf(&p))
		if err != nil {
			return p, err
		}
		next := p.AppendShots(generated)
		shot = next.Shots[len(next.Shots)-1]
		return next, nil
	})
	if ok {
		c.JSON(http.StatusCreated, shot)
	}
}

func attachment(c *gin.Context, name string) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
}

func (s *Server) exportZip(c *gin.Context) {
	p, err := s.lib.Load(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	var buf bytes.Buffer
	if err := export.WriteArchive(c.Request.Context(), &buf, p, s.blobs(p.ID)); err != nil {
		s.fail(c, err)
		return
	}
	attachment(c, export.ArchiveFileName(p.Title))
	c.Data(http.StatusOK, "application/zip", buf.Bytes())
}

func (s *Server) exportJSON(c *gin.Context) {
	p, err := s.lib.Load(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	data, err := export.ProjectJSON(p)
	if err != nil {
		s.fail(c, err)
		return
	}
	attachment(c, export.JSONFileName(p.Title))
	c.Data(http.StatusOK, "application/json", data)
}

func (s *Server) exportPDF(c *gin.Context) {
	p, err := s.lib.Load(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	var buf bytes.Buffer
	if err := export.WritePDF(&buf, p, s.blobs(p.ID)); err != nil {
		s.fail(c, err)
		return
	}
	attachment(c, export.PDFFileName(p.Title))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

func (s *Server) events(c *gin.Context) {
	id := c.Param("id")
	if _, err := s.lib.Load(c.Request.Context(), id); err != nil {
		s.fail(c, err)
		return
	}
	s.hub.serve(c.Writer, c.Request, id)
}

// markupRequest carries a project snapshot and editor markup for the
// stateless transforms.
type markupRequest struct {
	Project domain.Project `json:"project"`
	Text    string         `json:"text"`
	Concise bool           `json:"concise"`
}

func (s *Server) tagMarkup(c *gin.Context) {
	var req markupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, badRequest(err))
		return
	}
	p := req.Project
	c.JSON(http.StatusOK, gin.H{"text": tagging.TagHTML(req.Text, p.Characters, p.Props, p.Scenes)})
}

func (s *Server) expandMarkup(c *gin.Context) {
	var req markupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, badRequest(err))
		return
	}
	ix := domain.NewIndex(&req.Project)
	t := markup.ParseHTML(req.Text)
	out := tagging.Expand(t, ix)
	if req.Concise {
		out = tagging.ExpandConcise(t, ix)
	}
	c.JSON(http.StatusOK, gin.H{"text": out})
}

// cameraVocabulary lists the camera categories with their suggested values.
func (s *Server) cameraVocabulary(c *gin.Context) {
	cats := make([]gin.H, 0, len(domain.Categories))
	for _, cat := range domain.Categories {
		cats = append(cats, gin.H{"category": cat, "values": domain.ValuesFor(cat)})
	}
	c.JSON(http.StatusOK, gin.H{"categories": cats, "timings": domain.TimingOptions})
}
