// Copyright 2026 The ClassTrack Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package realtime owns the connected-session registry and re-evaluates
// category access per session whenever an attendance batch fans out. The
// transport (SSE, websocket, anything with a delivery callback) stays
// outside; it only registers sessions and consumes deliveries.
package realtime

import (
	"sync"

	"github.com/classtrack/classtrack/internal/identity"
)

// DeliverFunc pushes one payload to a session's transport. It must not
// block; transports buffer or drop on their side.
type DeliverFunc func(payload any)

// Session is one authenticated real-time connection. AttendanceVisible
// is evaluated once when the connection is established and not
// re-checked per event; category access, by contrast, is re-evaluated on
// every broadcast.
type Session struct {
	ID                string
	Principal         identity.Principal
	AttendanceVisible bool
	deliver           DeliverFunc
}

// NewSession creates a session around a delivery callback.
func NewSession(id string, principal identity.Principal, attendanceVisible bool, deliver DeliverFunc) *Session {
	return &Session{
		ID:                id,
		Principal:         principal,
		AttendanceVisible: attendanceVisible,
		deliver:           deliver,
	}
}

// Deliver pushes a payload to the session's transport.
func (s *Session) Deliver(payload any) {
	if s.deliver != nil {
		s.deliver(payload)
	}
}

// Hub is the concurrency-safe registry of connected sessions. It is an
// owned collection so it can be constructed and torn down in tests
// without a live transport.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewHub creates an empty session registry.
func NewHub() *Hub {
	return &Hub{sessions: make(map[string]*Session)}
}

// Register adds a session, replacing any previous session with the same id.
func (h *Hub) Register(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions[s.ID] = s
}

// Unregister removes a session by id.
func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sessions, id)
}

// Sessions returns a snapshot of the currently connected sessions.
func (h *Hub) Sessions() []*Session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		out = append(out, s)
	}
	return out
}

// Len returns the number of connected sessions.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}
