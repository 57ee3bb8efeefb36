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

package authz

import (
	"context"
	"errors"
	"fmt"
)

// Resolver computes effective permission sets from role grants plus
// per-user overrides. It holds no state of its own; every call reloads
// its inputs, so revocations take effect on the next evaluation.
type Resolver struct {
	roles     RoleRepository
	overrides OverrideRepository
}

// NewResolver creates a new permission resolver.
func NewResolver(roles RoleRepository, overrides OverrideRepository) *Resolver {
	return &Resolver{
		roles:     roles,
		overrides: overrides,
	}
}

// EffectivePermissions resolves the permission set for a user holding
// roleName. An unknown role or a user with no overrides resolves to the
// corresponding empty set; only storage failures are returned as errors.
func (r *Resolver) EffectivePermissions(ctx context.Context, userID, roleName string) (PermissionSet, error) {
	set := PermissionSet{
		Allow: make(map[string]struct{}),
		Deny:  make(map[string]struct{}),
	}

	grants, err := r.roles.ListGrants(ctx, roleName)
	if err != nil && !errors.Is(err, ErrRoleNotFound) {
		return PermissionSet{}, fmt.Errorf("failed to load role grants: %w", err)
	}
	// Grants are copied into a fresh set so override application never
	// mutates whatever slice the repository handed back.
	for _, key := range grants {
		set.Allow[key] = struct{}{}
	}

	rows, err := r.overrides.ListForUser(ctx, userID)
	if err != nil {
		return PermissionSet{}, fmt.Errorf("failed to load permission overrides: %w", err)
	}

	for _, o := range rows {
		if IsLockedKey(o.PermissionKey) {
			// Locked keys are role-only. The stored row stays in place
			// but has no effect on resolution.
			continue
		}
		switch o.Effect {
		case EffectDeny:
			delete(set.Allow, o.PermissionKey)
			set.Deny[o.PermissionKey] = struct{}{}
		case EffectAllow:
			set.Allow[o.PermissionKey] = struct{}{}
			delete(set.Deny, o.PermissionKey)
		}
	}

	return set, nil
}

// CanUse reports whether the user may exercise permissionKey. An empty
// key is always denied.
func (r *Resolver) CanUse(ctx context.Context, userID, roleName, permissionKey string) (bool, error) {
	if permissionKey == "" {
		return false, nil
	}
	set, err := r.EffectivePermissions(ctx, userID, roleName)
	if err != nil {
		return false, err
	}
	return set.Has(permissionKey), nil
}

// Cache memoizes permission sets for the duration of one request. It is
// created by the caller at request scope and passed explicitly; the
// resolver never caches across calls on its own.
type Cache struct {
	sets map[string]PermissionSet
}

// NewCache creates an empty request-scoped permission cache.
func NewCache() *Cache {
	return &Cache{sets: make(map[string]PermissionSet)}
}

// EffectivePermissionsCached resolves via the cache, loading at most once
// per (userID, roleName) pair for the cache's lifetime.
func (r *Resolver) EffectivePermissionsCached(ctx context.Context, c *Cache, userID, roleName string) (PermissionSet, error) {
	if c == nil {
		return r.EffectivePermissions(ctx, userID, roleName)
	}
	key := userID + "\x00" + roleName
	if set, ok := c.sets[key]; ok {
		return set, nil
	}
	set, err := r.EffectivePermissions(ctx, userID, roleName)
	if err != nil {
		return PermissionSet{}, err
	}
	c.sets[key] = set
	return set, nil
}

// CanUseCached is CanUse backed by a request-scoped cache.
func (r *Resolver) CanUseCached(ctx context.Context, c *Cache, userID, roleName, permissionKey string) (bool, error) {
	if permissionKey == "" {
		return false, nil
	}
	set, err := r.EffectivePermissionsCached(ctx, c, userID, roleName)
	if err != nil {
		return false, err
	}
	return set.Has(permissionKey), nil
}
