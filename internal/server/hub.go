/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"cineprompt/internal/domain"
)

// Event types pushed to websocket subscribers.
const (
	EventProjectUpdated = "project.updated"
	EventProjectDeleted = "project.deleted"
)

// Event is one change notification. Clients apply updates last-write-wins
// by LastModified.
type Event struct {
	Type      string          `json:"type"`
	ProjectID string          `json:"projectId"`
	Project   *domain.Project `json:"project,omitempty"`
	TS        int64           `json:"ts"`
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

type wsClient struct {
	conn      *websocket.Conn
	projectID string
	send      chan []byte
}

type outbound struct {
	projectID string
	data      []byte
}

// Hub fans project events out to the websocket clients subscribed to that project.
type Hub struct {
	register   chan *wsClient
	unregister chan *wsClient
	broadcast  chan outbound
	done       chan struct{}
	log        *slog.Logger

	mu      sync.RWMutex
	clients map[string]map[*wsClient]struct{}
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		broadcast:  make(chan outbound, 64),
		done:       make(chan struct{}),
		log:        log,
		clients:    map[string]map[*wsClient]struct{}{},
	}
}

// Run serves registrations and broadcasts until ctx is cancelled, then
// disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			if h.clients[c.projectID] == nil {
				h.clients[c.projectID] = map[*wsClient]struct{}{}
			}
			h.clients[c.projectID][c] = struct{}{}
			h.mu.Unlock()
		case c := <-h.unregister:
			h.remove(c)
		case m := <-h.broadcast:
			h.mu.RLock()
			var slow []*wsClient
			for c := range h.clients[m.projectID] {
				select {
				case c.send <- m.data:
				default:
					slow = append(slow, c)
				}
			}
			h.mu.RUnlock()
			for _, c := range slow {
				h.log.Warn("dropping slow websocket client", slog.String("project", c.projectID))
				h.remove(c)
			}
		case <-ctx.Done():
			h.mu.Lock()
			for _, set := range h.clients {
				for c := range set {
					close(c.send)
				}
			}
			h.clients = map[string]map[*wsClient]struct{}{}
			h.mu.Unlock()
			return
		}
	}
}

func (h *Hub) remove(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.clients[c.projectID]
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(h.clients, c.projectID)
	}
}

// Clients counts the subscribers of a project.
func (h *Hub) Clients(projectID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[projectID])
}

// Publish queues ev for the subscribers of its project. Events are
// dropped when the queue is full or the hub has stopped.
func (h *Hub) Publish(ev Event) {
	if ev.TS == 0 {
		ev.TS = time.Now().UnixMilli()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		h.log.Error("encode event", slog.Any("err", err))
		return
	}
	select {
	case h.broadcast <- outbound{projectID: ev.ProjectID, data: data}:
	case <-h.done:
	default:
		h.log.Warn("event queue full, dropping event", slog.String("project", ev.ProjectID))
	}
}

// serve upgrades the request and pumps events to the client until either
// side disconnects.
func (h *Hub) serve(w http.ResponseWriter, r *http.Request, projectID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", slog.Any("err", err))
		return
	}
	c := &wsClient{conn: conn, projectID: projectID, send: make(chan []byte, sendBuffer)}
	select {
	case h.register <- c:
	case <-h.done:
		_ = conn.Close()
		return
	}
	go c.writePump()
	c.readPump()
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// readPump discards client messages; it exists to process control frames
// and notice disconnects.
func (c *wsClient) readPump() {
	defer func() { _ = c.conn.Close() }()
	c.conn.SetReadLimit(4096)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
