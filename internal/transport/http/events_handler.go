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

package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/classtrack/classtrack/internal/authz"
	"github.com/classtrack/classtrack/internal/id"
	"github.com/classtrack/classtrack/internal/observability/logger"
	"github.com/classtrack/classtrack/internal/realtime"
)

// sessionBuffer bounds pending deliveries per connection; a session that
// cannot drain loses the oldest events rather than blocking broadcasts.
const sessionBuffer = 16

// Events serves the SSE stream of attendance updates. The attendance
// tab permission is evaluated once here, at connection time; category
// access is re-evaluated per broadcast by the authorizer, so category
// revocations apply to the next event without reconnecting.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	principal, ok := GetPrincipal(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	attendanceVisible, err := h.permissionResolver.CanUseCached(
		r.Context(), GetPermissionCache(r.Context()),
		principal.ID, principal.Role, authz.PermTabAttendance,
	)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if !attendanceVisible {
		respondError(w, http.StatusForbidden, "permission denied")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	// The stream outlives the server's write timeout; reset the
	// deadline around each write instead.
	rc := http.NewResponseController(w)

	deliveries := make(chan any, sessionBuffer)
	session := realtime.NewSession(id.NewUUIDv7(), principal, attendanceVisible, func(payload any) {
		select {
		case deliveries <- payload:
		default:
			// Slow consumer: drop instead of blocking the broadcast.
		}
	})
	h.hub.Register(session)
	defer h.hub.Unregister(session.ID)

	slog.InfoContext(r.Context(), "event stream connected",
		logger.SessionID(session.ID),
		logger.UserID(principal.ID),
		logger.Role(principal.Role),
	)

	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			_ = rc.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case payload := <-deliveries:
			raw, err := json.Marshal(payload)
			if err != nil {
				continue
			}
			_ = rc.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", realtime.EventAttendance, raw); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
