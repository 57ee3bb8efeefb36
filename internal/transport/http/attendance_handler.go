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
	"errors"
	"net/http"

	"github.com/classtrack/classtrack/internal/attendance"
)

// UpdateAttendanceStatus persists a batch of status changes and fans it
// out to connected sessions.
func (h *Handler) UpdateAttendanceStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Updates []attendance.StatusUpdate `json:"updates"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Updates) == 0 {
		respondError(w, http.StatusBadRequest, "updates must not be empty")
		return
	}

	if err := h.attendanceService.UpdateStatuses(r.Context(), req.Updates); err != nil {
		if errors.Is(err, attendance.ErrInvalidStatus) || errors.Is(err, attendance.ErrRecordNotFound) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"updated": len(req.Updates),
	})
}
