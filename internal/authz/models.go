package authz

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Domain errors
var (
	ErrPermissionNotFound = errors.New("permission not found")
	ErrRoleNotFound       = errors.New("role not found")
	ErrOverrideNotFound   = errors.New("permission override not found")
	ErrInvalidEffect      = errors.New("invalid effect")
	ErrAccessDenied       = errors.New("access denied")
)

// Effect is the closed allow/deny decision attached to an override or
// category rule. Free-form effect strings are rejected at the boundary.
type Effect string

const (
	EffectAllow Effect = "allow"
	EffectDeny  Effect = "deny"
)

// ParseEffect validates a raw effect string from the API or database.
func ParseEffect(s string) (Effect, error) {
	switch Effect(s) {
	case EffectAllow, EffectDeny:
		return Effect(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidEffect, s)
}

// ScopeType distinguishes tab-level permissions from button-level ones.
type ScopeType string

const (
	ScopeTab    ScopeType = "tab"
	ScopeButton ScopeType = "button"
)

// Permission is one entry of the global permission catalog.
type Permission struct {
	Key         string
	Description string
	ScopeType   ScopeType
}

// Role is a named bundle of permission grants.
type Role struct {
	ID        string
	Name      string
	IsSystem  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Override is a per-user allow/deny decision for one permission key,
// layered on top of the user's role grants. At most one per (user, key).
type Override struct {
	UserID        string
	PermissionKey string
	Effect        Effect
	UpdatedAt     time.Time
}

// PermissionSet is the result of resolving role grants plus overrides.
// Deny wins over allow for the same key by construction.
type PermissionSet struct {
	Allow map[string]struct{}
	Deny  map[string]struct{}
}

// Has reports whether key is effectively granted.
func (s PermissionSet) Has(key string) bool {
	if key == "" {
		return false
	}
	if _, denied := s.Deny[key]; denied {
		return false
	}
	_, ok := s.Allow[key]
	return ok
}

// Keys returns the effectively granted permission keys.
func (s PermissionSet) Keys() []string {
	keys := make([]string, 0, len(s.Allow))
	for k := range s.Allow {
		if _, denied := s.Deny[k]; denied {
			continue
		}
		keys = append(keys, k)
	}
	return keys
}

// RoleRepository defines the role/grant lookup collaborator.
type RoleRepository interface {
	// GetByName retrieves a role by its name.
	GetByName(ctx context.Context, name string) (*Role, error)

	// ListGrants retrieves the permission keys granted to a role.
	// An unknown role yields ErrRoleNotFound.
	ListGrants(ctx context.Context, roleName string) ([]string, error)
}

// OverrideRepository defines the per-user override collaborator.
type OverrideRepository interface {
	// ListForUser retrieves all overrides recorded for a user.
	ListForUser(ctx context.Context, userID string) ([]Override, error)

	// Upsert creates or replaces the override for (userID, permissionKey).
	Upsert(ctx context.Context, o Override) error

	// Delete removes the override for (userID, permissionKey).
	Delete(ctx context.Context, userID, permissionKey string) error
}

// PermissionRepository exposes the global permission catalog.
type PermissionRepository interface {
	// List retrieves the full catalog.
	List(ctx context.Context) ([]Permission, error)

	// GetByKey retrieves one permission by key.
	GetByKey(ctx context.Context, key string) (*Permission, error)
}
