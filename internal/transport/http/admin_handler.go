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

	"github.com/classtrack/classtrack/internal/access"
	"github.com/classtrack/classtrack/internal/audit"
	"github.com/classtrack/classtrack/internal/authz"
	"github.com/classtrack/classtrack/internal/identity"
)

// requireTargetUser resolves the {userID} route param to an existing
// account, writing the error response itself when it cannot.
func (h *Handler) requireTargetUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := chi.URLParam(r, "userID")
	if _, err := h.identityService.GetUser(r.Context(), userID); err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			respondError(w, http.StatusNotFound, "user not found")
			return "", false
		}
		respondError(w, http.StatusInternalServerError, "internal server error")
		return "", false
	}
	return userID, true
}

// CreateUser provisions a staff account.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Name     string `json:"name"`
		Role     string `json:"role"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "username and password are required")
		return
	}
	if _, ok := authz.DefaultRoleGrants[req.Role]; !ok {
		respondError(w, http.StatusBadRequest, "unknown role")
		return
	}

	user, err := h.identityService.CreateUser(r.Context(), req.Username, req.Name, req.Role, req.Password)
	if err != nil {
		if errors.Is(err, identity.ErrUserAlreadyExists) {
			respondError(w, http.StatusConflict, "username already taken")
			return
		}
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{
		"id":       user.ID,
		"username": user.Username,
		"role":     user.Role,
	})
}

// ListUsers returns the active accounts for administrative target
// selection.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.identityService.ListUsers(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	out := make([]map[string]string, 0, len(users))
	for _, u := range users {
		out = append(out, map[string]string{
			"id":       u.ID,
			"username": u.Username,
			"name":     u.Name,
			"role":     u.Role,
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{"users": out})
}

// ListPermissionCatalog returns the global permission catalog for
// building override forms.
func (h *Handler) ListPermissionCatalog(w http.ResponseWriter, r *http.Request) {
	perms, err := h.permissionRepo.List(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	out := make([]map[string]any, 0, len(perms))
	for _, p := range perms {
		out = append(out, map[string]any{
			"key":         p.Key,
			"description": p.Description,
			"scopeType":   string(p.ScopeType),
			"locked":      authz.IsLockedKey(p.Key),
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{"permissions": out})
}

// SetPermissionOverride creates or replaces a per-user override. Locked
// keys are accepted and stored here; they are ignored at resolution
// time, which keeps the administrative history intact.
func (h *Handler) SetPermissionOverride(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireTargetUser(w, r)
	if !ok {
		return
	}

	var req struct {
		PermissionKey string `json:"permissionKey"`
		Effect        string `json:"effect"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PermissionKey == "" {
		respondError(w, http.StatusBadRequest, "permissionKey is required")
		return
	}
	effect, err := authz.ParseEffect(req.Effect)
	if err != nil {
		respondError(w, http.StatusBadRequest, "effect must be allow or deny")
		return
	}
	if _, err := h.permissionRepo.GetByKey(r.Context(), req.PermissionKey); err != nil {
		if errors.Is(err, authz.ErrPermissionNotFound) {
			respondError(w, http.StatusBadRequest, "unknown permission key")
			return
		}
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if err := h.overrideRepo.Upsert(r.Context(), authz.Override{
		UserID:        userID,
		PermissionKey: req.PermissionKey,
		Effect:        effect,
	}); err != nil {
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.auditAdmin(r, audit.TypeOverrideSet, map[string]any{
		audit.AttrTargetUserID:  userID,
		audit.AttrPermissionKey: req.PermissionKey,
		audit.AttrEffect:        string(effect),
	})
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// DeletePermissionOverride removes a per-user override.
func (h *Handler) DeletePermissionOverride(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	permissionKey := chi.URLParam(r, "permissionKey")

	if err := h.overrideRepo.Delete(r.Context(), userID, permissionKey); err != nil {
		if errors.Is(err, authz.ErrOverrideNotFound) {
			respondError(w, http.StatusNotFound, "override not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.auditAdmin(r, audit.TypeOverrideRemoved, map[string]any{
		audit.AttrTargetUserID:  userID,
		audit.AttrPermissionKey: permissionKey,
	})
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// SetCategoryRule creates or replaces a user's category rule for one
// configuration set.
func (h *Handler) SetCategoryRule(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireTargetUser(w, r)
	if !ok {
		return
	}

	var req struct {
		ConfigSet string `json:"configSet"`
		Category  string `json:"category"`
		Effect    string `json:"effect"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ConfigSet == "" || req.Category == "" {
		respondError(w, http.StatusBadRequest, "configSet and category are required")
		return
	}
	effect, err := authz.ParseEffect(req.Effect)
	if err != nil {
		respondError(w, http.StatusBadRequest, "effect must be allow or deny")
		return
	}

	if err := h.ruleRepo.Upsert(r.Context(), access.Rule{
		UserID:    userID,
		ConfigSet: req.ConfigSet,
		Category:  req.Category,
		Effect:    effect,
	}); err != nil {
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.auditAdmin(r, audit.TypeCategoryRuleSet, map[string]any{
		audit.AttrTargetUserID: userID,
		audit.AttrConfigSet:    req.ConfigSet,
		audit.AttrCategory:     req.Category,
		audit.AttrEffect:       string(effect),
	})
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// DeleteCategoryRule removes a user's category rule.
func (h *Handler) DeleteCategoryRule(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	configSet := r.URL.Query().Get("configSet")
	category := r.URL.Query().Get("category")
	if configSet == "" || category == "" {
		respondError(w, http.StatusBadRequest, "configSet and category are required")
		return
	}

	if err := h.ruleRepo.Delete(r.Context(), userID, configSet, category); err != nil {
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.auditAdmin(r, audit.TypeCategoryRuleRemove, map[string]any{
		audit.AttrTargetUserID: userID,
		audit.AttrConfigSet:    configSet,
		audit.AttrCategory:     category,
	})
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) auditAdmin(r *http.Request, eventType string, metadata map[string]any) {
	actorID := ""
	if principal, ok := GetPrincipal(r.Context()); ok {
		actorID = principal.ID
	}
	h.auditLogger.Log(r.Context(), audit.Event{
		Type:      eventType,
		ActorID:   actorID,
		Resource:  "authorization",
		Metadata:  metadata,
		IPAddress: getIPAddress(r),
		UserAgent: r.UserAgent(),
	})
}
