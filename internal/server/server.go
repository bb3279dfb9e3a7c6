/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package server exposes projects, shots, prompt assembly, generation and
// exports over HTTP, with project change events on a websocket.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"cineprompt/internal/domain"
	"cineprompt/internal/generate"
	applog "cineprompt/internal/log"
	"cineprompt/internal/storage"
	"cineprompt/internal/undo"
	"cineprompt/internal/version"
)

// Server wires the save library to HTTP handlers.
type Server struct {
	lib       storage.Library
	gen       *generate.Generator
	history   *undo.History
	hub       *Hub
	imagesDir string
	log       *slog.Logger

	locks sync.Map // project id -> *sync.Mutex
}

type Option func(*Server)

// WithGenerator enables the AI endpoints.
func WithGenerator(g *generate.Generator) Option { return func(s *Server) { s.gen = g } }

// WithImagesDir sets the root under which each project keeps its reference
// images as <dir>/<projectID>/<id>.<ext>.
func WithImagesDir(dir string) Option { return func(s *Server) { s.imagesDir = dir } }

// WithHistory replaces the default undo history.
func WithHistory(h *undo.History) Option { return func(s *Server) { s.history = h } }

func New(lib storage.Library, opts ...Option) *Server {
	l := applog.WithComponent("server")
	s := &Server{
		lib:     lib,
		history: undo.NewHistory(undo.Config{MaxDepth: 100, MinInterval: 500 * time.Millisecond}),
		hub:     NewHub(l),
		log:     l,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Hub returns the event hub; it must be running for events to flow.
func (s *Server) Hub() *Hub { return s.hub }

// Handler builds the gin router.
func (s *Server) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLog())

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/version", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"version": version.String()}) })

	api := r.Group("/api")
	api.GET("/camera", s.cameraVocabulary)
	api.POST("/markup/tag", s.tagMarkup)
	api.POST("/markup/expand", s.expandMarkup)
	api.POST("/markup/drop", s.dropMarkup)
	api.GET("/markup/kinds", s.markupKinds)

	projects := api.Group("/projects")
	projects.GET("", s.listProjects)
	projects.POST("", s.saveProject)

	p := projects.Group("/:id")
	p.GET("", s.loadProject)
	p.DELETE("", s.deleteProject)
	p.PUT("/title", s.renameProject)
	p.POST("/undo", s.undo)
	p.POST("/redo", s.redo)
	p.GET("/references", s.references)
	p.POST("/generate/shot", s.generateShot)
	p.GET("/export/zip", s.exportZip)
	p.GET("/export/json", s.exportJSON)
	p.GET("/export/pdf", s.exportPDF)
	p.GET("/events", s.events)
	p.GET("/images", s.listImages)
	p.GET("/images/:ownerId", s.getImage)
	p.PUT("/images/:ownerId", s.putImage)
	p.DELETE("/images/:ownerId", s.deleteImage)

	shots := p.Group("/shots")
	shots.POST("", s.addShot)
	shots.PUT("/:shotId", s.updateShot)
	shots.DELETE("/:shotId", s.deleteShot)
	shots.POST("/:shotId/autotag", s.autotagShot)
	shots.GET("/:shotId/prompt", s.shotPrompt)
	shots.GET("/:shotId/document", s.shotDocument)
	return r
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	hctx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	go s.hub.Run(hctx)

	srv := &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.log.Info("listening", slog.String("addr", addr))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	stopHub()
	return srv.Shutdown(sctx)
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("dur", time.Since(start)))
	}
}

func (s *Server) lock(projectID string) func() {
	m, _ := s.locks.LoadOrStore(projectID, &sync.Mutex{})
	mu := m.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (s *Server) blobs(projectID string) *storage.BlobStore {
	if s.imagesDir == "" {
		return nil
	}
	return storage.NewBlobStore(filepath.Join(s.imagesDir, projectID))
}

// edit loads a project, records it for undo, applies fn, saves the result
// and announces it to subscribers.
func (s *Server) edit(c *gin.Context, fn func(domain.Project) (domain.Project, error)) (domain.Project, bool) {
	id := c.Param("id")
	unlock := s.lock(id)
	defer unlock()
	p, err := s.lib.Load(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return domain.Project{}, false
	}
	next, err := fn(p)
	if err != nil {
		s.fail(c, err)
		return domain.Project{}, false
	}
	if err := s.history.Record(p); err != nil {
		s.log.Warn("undo snapshot failed", slog.String("project", id), slog.Any("err", err))
	}
	saved, err := s.lib.Save(c.Request.Context(), next)
	if err != nil {
		s.fail(c, err)
		return domain.Project{}, false
	}
	s.hub.Publish(Event{Type: EventProjectUpdated, ProjectID: saved.ID, Project: &saved, TS: saved.LastModified})
	return saved, true
}

// fail maps an error to a status code and a JSON body.
func (s *Server) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, domain.ErrNotFound),
		errors.Is(err, storage.ErrBlobNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrUnknownActor), errors.Is(err, domain.ErrUnknownCostume),
		errors.Is(err, domain.ErrEmptyName), errors.Is(err, errBadRequest):
		status = http.StatusBadRequest
	case errors.Is(err, errNoGenerator), errors.Is(err, generate.ErrNoAPIKey), errors.Is(err, errNoImages):
		status = http.StatusServiceUnavailable
	case errors.Is(err, generate.ErrNoJSON), errors.Is(err, generate.ErrEmptyResponse):
		status = http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}
	if status >= 500 {
		s.log.Error("request failed", slog.String("path", c.FullPath()), slog.Any("err", err))
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
