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

	"github.com/go-chi/chi/v5"

	"github.com/classtrack/classtrack/internal/audit"
	"github.com/classtrack/classtrack/internal/catalog"
)

// ListCourseConfigs returns the names of the stored configuration sets.
func (h *Handler) ListCourseConfigs(w http.ResponseWriter, r *http.Request) {
	names, err := h.accessService.SetNames(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if names == nil {
		names = []string{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"configSets": names})
}

// GetCourseConfig returns a configuration set filtered to the caller's
// category visibility.
func (h *Handler) GetCourseConfig(w http.ResponseWriter, r *http.Request) {
	principal, ok := GetPrincipal(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	setName := chi.URLParam(r, "setName")

	set, err := h.accessService.FilteredConfig(r.Context(), principal.ID, principal.Role, setName)
	if err != nil {
		if errors.Is(err, catalog.ErrConfigSetNotFound) {
			respondError(w, http.StatusNotFound, "config set not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"name": set.Name,
		"data": set.Data,
	})
}

// PutCourseConfig merges the caller's partial payload into the stored
// set, restricted to the caller's allowed categories.
func (h *Handler) PutCourseConfig(w http.ResponseWriter, r *http.Request) {
	principal, ok := GetPrincipal(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	setName := chi.URLParam(r, "setName")

	var incoming catalog.Data
	if err := json.NewDecoder(r.Body).Decode(&incoming); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	merged, written, err := h.accessService.ApplyWrite(r.Context(), principal.ID, principal.Role, setName, incoming)
	if err != nil {
		if errors.Is(err, catalog.ErrConfigSetNotFound) {
			respondError(w, http.StatusNotFound, "config set not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if !written {
		// No category rules for this set: the caller cannot author any
		// part of it, and the stored payload is untouched.
		respondError(w, http.StatusForbidden, "no category access for this config set")
		return
	}

	h.auditLogger.Log(r.Context(), audit.Event{
		Type:     audit.TypeConfigSetWritten,
		ActorID:  principal.ID,
		Resource: "course_config_set",
		Metadata: map[string]any{
			audit.AttrConfigSet: setName,
		},
		IPAddress: getIPAddress(r),
	})

	respondJSON(w, http.StatusOK, map[string]any{
		"name": merged.Name,
		"data": merged.Data,
	})
}
