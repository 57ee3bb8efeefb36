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

package authz_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classtrack/classtrack/internal/authz"
)

// mockRoleRepo implements authz.RoleRepository for testing
type mockRoleRepo struct {
	grants     map[string][]string
	grantCalls int
	err        error
}

func (m *mockRoleRepo) GetByName(ctx context.Context, name string) (*authz.Role, error) {
	if _, ok := m.grants[name]; !ok {
		return nil, authz.ErrRoleNotFound
	}
	return &authz.Role{ID: "role-" + name, Name: name}, nil
}

func (m *mockRoleRepo) ListGrants(ctx context.Context, roleName string) ([]string, error) {
	m.grantCalls++
	if m.err != nil {
		return nil, m.err
	}
	grants, ok := m.grants[roleName]
	if !ok {
		return nil, authz.ErrRoleNotFound
	}
	return grants, nil
}

// mockOverrideRepo implements authz.OverrideRepository for testing
type mockOverrideRepo struct {
	overrides map[string][]authz.Override
	err       error
}

func (m *mockOverrideRepo) ListForUser(ctx context.Context, userID string) ([]authz.Override, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.overrides[userID], nil
}

func (m *mockOverrideRepo) Upsert(ctx context.Context, o authz.Override) error {
	if m.overrides == nil {
		m.overrides = make(map[string][]authz.Override)
	}
	m.overrides[o.UserID] = append(m.overrides[o.UserID], o)
	return nil
}

func (m *mockOverrideRepo) Delete(ctx context.Context, userID, permissionKey string) error {
	return nil
}

func newResolver(grants map[string][]string, overrides map[string][]authz.Override) (*authz.Resolver, *mockRoleRepo) {
	roles := &mockRoleRepo{grants: grants}
	return authz.NewResolver(roles, &mockOverrideRepo{overrides: overrides}), roles
}

func TestEffectivePermissionsRoleGrantsOnly(t *testing.T) {
	r, _ := newResolver(map[string][]string{
		"teacher": {authz.PermTabAttendance, authz.PermTabCourses},
	}, nil)

	set, err := r.EffectivePermissions(context.Background(), "u1", "teacher")
	require.NoError(t, err)
	assert.True(t, set.Has(authz.PermTabAttendance))
	assert.True(t, set.Has(authz.PermTabCourses))
	assert.False(t, set.Has(authz.PermTabSettings))
	assert.Empty(t, set.Deny)
}

func TestEffectivePermissionsUnknownRoleIsEmpty(t *testing.T) {
	r, _ := newResolver(nil, nil)

	set, err := r.EffectivePermissions(context.Background(), "u1", "nobody")
	require.NoError(t, err)
	assert.Empty(t, set.Allow)
	assert.Empty(t, set.Deny)
}

func TestEffectivePermissionsOverrides(t *testing.T) {
	r, _ := newResolver(
		map[string][]string{"teacher": {authz.PermTabAttendance, authz.PermTabCourses}},
		map[string][]authz.Override{
			"u1": {
				{UserID: "u1", PermissionKey: authz.PermTabCourses, Effect: authz.EffectDeny},
				{UserID: "u1", PermissionKey: authz.PermTabNotices, Effect: authz.EffectAllow},
			},
		},
	)

	set, err := r.EffectivePermissions(context.Background(), "u1", "teacher")
	require.NoError(t, err)
	assert.True(t, set.Has(authz.PermTabAttendance))
	assert.False(t, set.Has(authz.PermTabCourses), "deny override removes role grant")
	assert.True(t, set.Has(authz.PermTabNotices), "allow override grants beyond role")
	assert.Contains(t, set.Deny, authz.PermTabCourses)
}

func TestLockedKeyOverridesAreInert(t *testing.T) {
	overrides := map[string][]authz.Override{
		// u1 tries to gain a locked key; u2's role grant of a locked
		// key is attacked with a deny override.
		"u1": {{UserID: "u1", PermissionKey: authz.PermTabSettings, Effect: authz.EffectAllow}},
		"u2": {{UserID: "u2", PermissionKey: authz.PermTabSettings, Effect: authz.EffectDeny}},
	}
	r, _ := newResolver(map[string][]string{
		"teacher": {authz.PermTabAttendance},
		"master":  {authz.PermTabSettings},
	}, overrides)

	set1, err := r.EffectivePermissions(context.Background(), "u1", "teacher")
	require.NoError(t, err)
	assert.False(t, set1.Has(authz.PermTabSettings), "allow override on locked key must not grant")

	set2, err := r.EffectivePermissions(context.Background(), "u2", "master")
	require.NoError(t, err)
	assert.True(t, set2.Has(authz.PermTabSettings), "deny override on locked key must not revoke role grant")
}

func TestDuplicateOverridesLastWins(t *testing.T) {
	r, _ := newResolver(
		map[string][]string{"teacher": {}},
		map[string][]authz.Override{
			"u1": {
				{UserID: "u1", PermissionKey: authz.PermTabNotices, Effect: authz.EffectDeny},
				{UserID: "u1", PermissionKey: authz.PermTabNotices, Effect: authz.EffectAllow},
			},
		},
	)

	set, err := r.EffectivePermissions(context.Background(), "u1", "teacher")
	require.NoError(t, err)
	assert.True(t, set.Has(authz.PermTabNotices))
	assert.NotContains(t, set.Deny, authz.PermTabNotices)
}

func TestCanUse(t *testing.T) {
	r, _ := newResolver(map[string][]string{
		"teacher": {authz.PermTabAttendance},
	}, nil)

	ok, err := r.CanUse(context.Background(), "u1", "teacher", authz.PermTabAttendance)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.CanUse(context.Background(), "u1", "teacher", authz.PermTabSettings)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = r.CanUse(context.Background(), "u1", "teacher", "")
	require.NoError(t, err)
	assert.False(t, ok, "empty permission key is always denied")
}

func TestStorageErrorsPropagate(t *testing.T) {
	boom := errors.New("connection refused")
	roles := &mockRoleRepo{err: boom}
	r := authz.NewResolver(roles, &mockOverrideRepo{})

	_, err := r.EffectivePermissions(context.Background(), "u1", "teacher")
	assert.ErrorIs(t, err, boom)
}

func TestCachedResolutionLoadsOnce(t *testing.T) {
	r, roles := newResolver(map[string][]string{
		"teacher": {authz.PermTabAttendance},
	}, nil)

	cache := authz.NewCache()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		ok, err := r.CanUseCached(ctx, cache, "u1", "teacher", authz.PermTabAttendance)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	assert.Equal(t, 1, roles.grantCalls)

	// A fresh cache reloads, picking up interim changes.
	ok, err := r.CanUseCached(ctx, authz.NewCache(), "u1", "teacher", authz.PermTabAttendance)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, roles.grantCalls)
}

func TestParseEffect(t *testing.T) {
	for raw, want := range map[string]authz.Effect{
		"allow": authz.EffectAllow,
		"deny":  authz.EffectDeny,
	} {
		got, err := authz.ParseEffect(raw)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := authz.ParseEffect("maybe")
	assert.ErrorIs(t, err, authz.ErrInvalidEffect)

	_, err = authz.ParseEffect("")
	assert.ErrorIs(t, err, authz.ErrInvalidEffect)
}

func TestOverrideUpdatedAtIsOpaqueToResolution(t *testing.T) {
	// Resolution order is list order, not timestamp order; timestamps
	// exist only for administration.
	r, _ := newResolver(
		map[string][]string{"staff": {}},
		map[string][]authz.Override{
			"u1": {
				{UserID: "u1", PermissionKey: authz.PermTabCalendar, Effect: authz.EffectAllow, UpdatedAt: time.Now()},
			},
		},
	)
	set, err := r.EffectivePermissions(context.Background(), "u1", "staff")
	require.NoError(t, err)
	assert.True(t, set.Has(authz.PermTabCalendar))
}
