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
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/classtrack/classtrack/internal/access"
	"github.com/classtrack/classtrack/internal/attendance"
	"github.com/classtrack/classtrack/internal/audit"
	"github.com/classtrack/classtrack/internal/authz"
	"github.com/classtrack/classtrack/internal/identity"
	"github.com/classtrack/classtrack/internal/realtime"
)

// Handler holds HTTP handlers and dependencies
type Handler struct {
	identityService    *identity.Service
	permissionResolver *authz.Resolver
	permissionRepo     authz.PermissionRepository
	overrideRepo       authz.OverrideRepository
	ruleRepo           access.RuleRepository
	accessService      *access.Service
	attendanceService  *attendance.Service
	hub                *realtime.Hub
	auditLogger        audit.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(
	identityService *identity.Service,
	permissionResolver *authz.Resolver,
	permissionRepo authz.PermissionRepository,
	overrideRepo authz.OverrideRepository,
	ruleRepo access.RuleRepository,
	accessService *access.Service,
	attendanceService *attendance.Service,
	hub *realtime.Hub,
	auditLogger audit.Logger,
) *Handler {
	return &Handler{
		identityService:    identityService,
		permissionResolver: permissionResolver,
		permissionRepo:     permissionRepo,
		overrideRepo:       overrideRepo,
		ruleRepo:           ruleRepo,
		accessService:      accessService,
		attendanceService:  attendanceService,
		hub:                hub,
		auditLogger:        auditLogger,
	}
}

// Router builds the chi router with the full middleware stack.
func (h *Handler) Router(rateLimiter *RateLimiter, serviceName string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RateLimitMiddleware(rateLimiter))
	r.Use(func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, serviceName)
	})
	r.Use(LoggingMiddleware())
	r.Use(middleware.Recoverer)

	r.Get("/health", h.HealthCheck)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", h.Login)

		r.Group(func(r chi.Router) {
			r.Use(h.AuthMiddleware)

			r.Get("/auth/me", h.GetCurrentUser)
			r.Get("/permissions/me", h.GetMyPermissions)

			r.Get("/course-config", h.ListCourseConfigs)
			r.Route("/course-config/{setName}", func(r chi.Router) {
				r.Get("/", h.GetCourseConfig)
				r.With(h.RequirePermission(authz.PermButtonCourseConfigEdit)).
					Put("/", h.PutCourseConfig)
			})

			r.With(h.RequirePermission(authz.PermButtonAttendanceEdit)).
				Post("/attendance/status", h.UpdateAttendanceStatus)

			// The event stream applies its own connect-time permission
			// check; a plain 403 fits SSE clients better than a
			// middleware rejection mid-handshake.
			r.Get("/events", h.Events)

			r.With(h.RequirePermission(authz.PermButtonPermissionManage)).
				Get("/admin/permissions", h.ListPermissionCatalog)
			r.With(h.RequirePermission(authz.PermButtonPermissionManage)).
				Get("/admin/users", h.ListUsers)
			r.With(h.RequirePermission(authz.PermButtonPermissionManage)).
				Post("/admin/users", h.CreateUser)

			r.Route("/admin/users/{userID}", func(r chi.Router) {
				r.Use(h.RequirePermission(authz.PermButtonPermissionManage))
				r.Put("/permissions", h.SetPermissionOverride)
				r.Delete("/permissions/{permissionKey}", h.DeletePermissionOverride)
				r.Put("/category-access", h.SetCategoryRule)
				r.Delete("/category-access", h.DeleteCategoryRule)
			})
		})
	})

	return r
}

// HealthCheck responds to liveness probes.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Login verifies credentials and returns a bearer token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
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

	token, principal, err := h.identityService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			respondError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user": map[string]string{
			"id":       principal.ID,
			"username": principal.Username,
			"role":     principal.Role,
		},
	})
}

// GetCurrentUser echoes the authenticated principal.
func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	principal, ok := GetPrincipal(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"id":       principal.ID,
		"username": principal.Username,
		"role":     principal.Role,
	})
}

// GetMyPermissions returns the caller's effective permission keys.
func (h *Handler) GetMyPermissions(w http.ResponseWriter, r *http.Request) {
	principal, ok := GetPrincipal(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	set, err := h.permissionResolver.EffectivePermissionsCached(
		r.Context(), GetPermissionCache(r.Context()), principal.ID, principal.Role,
	)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	keys := set.Keys()
	sort.Strings(keys)
	respondJSON(w, http.StatusOK, map[string]any{"permissions": keys})
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

func getIPAddress(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
