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

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/classtrack/classtrack/internal/authz"
)

// RoleRepository implements authz.RoleRepository
type RoleRepository struct {
	db *DB
}

// NewRoleRepository creates a new role repository
func NewRoleRepository(db *DB) *RoleRepository {
	return &RoleRepository{db: db}
}

// GetByName retrieves a role by its name
func (r *RoleRepository) GetByName(ctx context.Context, name string) (*authz.Role, error) {
	var role authz.Role
	err := r.db.pool.QueryRow(ctx, `
		SELECT id, name, is_system, created_at, updated_at
		FROM roles
		WHERE name = $1
	`, name).Scan(&role.ID, &role.Name, &role.IsSystem, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, authz.ErrRoleNotFound
		}
		return nil, fmt.Errorf("failed to get role: %w", err)
	}
	return &role, nil
}

// ListGrants retrieves the permission keys granted to a role
func (r *RoleRepository) ListGrants(ctx context.Context, roleName string) ([]string, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT rp.permission_key
		FROM role_permissions rp
		JOIN roles ro ON ro.id = rp.role_id
		WHERE ro.name = $1
		ORDER BY rp.permission_key
	`, roleName)
	if err != nil {
		return nil, fmt.Errorf("failed to list role grants: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan grant: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// PermissionRepository implements authz.PermissionRepository
type PermissionRepository struct {
	db *DB
}

// NewPermissionRepository creates a new permission catalog repository
func NewPermissionRepository(db *DB) *PermissionRepository {
	return &PermissionRepository{db: db}
}

// List retrieves the full permission catalog
func (r *PermissionRepository) List(ctx context.Context) ([]authz.Permission, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT key, description, scope_type
		FROM permissions
		ORDER BY key
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list permissions: %w", err)
	}
	defer rows.Close()

	var perms []authz.Permission
	for rows.Next() {
		var p authz.Permission
		if err := rows.Scan(&p.Key, &p.Description, &p.ScopeType); err != nil {
			return nil, fmt.Errorf("failed to scan permission: %w", err)
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

// GetByKey retrieves one permission by key
func (r *PermissionRepository) GetByKey(ctx context.Context, key string) (*authz.Permission, error) {
	var p authz.Permission
	err := r.db.pool.QueryRow(ctx, `
		SELECT key, description, scope_type
		FROM permissions
		WHERE key = $1
	`, key).Scan(&p.Key, &p.Description, &p.ScopeType)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, authz.ErrPermissionNotFound
		}
		return nil, fmt.Errorf("failed to get permission: %w", err)
	}
	return &p, nil
}

// OverrideRepository implements authz.OverrideRepository
type OverrideRepository struct {
	db *DB
}

// NewOverrideRepository creates a new override repository
func NewOverrideRepository(db *DB) *OverrideRepository {
	return &OverrideRepository{db: db}
}

// ListForUser retrieves all overrides recorded for a user
func (r *OverrideRepository) ListForUser(ctx context.Context, userID string) ([]authz.Override, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT user_id, permission_key, effect, updated_at
		FROM user_permission_overrides
		WHERE user_id = $1
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list overrides: %w", err)
	}
	defer rows.Close()

	var overrides []authz.Override
	for rows.Next() {
		var o authz.Override
		var effect string
		if err := rows.Scan(&o.UserID, &o.PermissionKey, &effect, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan override: %w", err)
		}
		o.Effect, err = authz.ParseEffect(effect)
		if err != nil {
			return nil, err
		}
		overrides = append(overrides, o)
	}
	return overrides, rows.Err()
}

// Upsert creates or replaces the override for (userID, permissionKey)
func (r *OverrideRepository) Upsert(ctx context.Context, o authz.Override) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO user_permission_overrides (user_id, permission_key, effect, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (user_id, permission_key)
		DO UPDATE SET effect = EXCLUDED.effect, updated_at = now()
	`, o.UserID, o.PermissionKey, string(o.Effect))
	if err != nil {
		return fmt.Errorf("failed to upsert override: %w", err)
	}
	return nil
}

// Delete removes the override for (userID, permissionKey)
func (r *OverrideRepository) Delete(ctx context.Context, userID, permissionKey string) error {
	tag, err := r.db.pool.Exec(ctx, `
		DELETE FROM user_permission_overrides
		WHERE user_id = $1 AND permission_key = $2
	`, userID, permissionKey)
	if err != nil {
		return fmt.Errorf("failed to delete override: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return authz.ErrOverrideNotFound
	}
	return nil
}
