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

package access_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classtrack/classtrack/internal/access"
	"github.com/classtrack/classtrack/internal/authz"
	"github.com/classtrack/classtrack/internal/catalog"
)

// mockRuleRepo implements access.RuleRepository for testing
type mockRuleRepo struct {
	rules []access.Rule
	err   error
}

func (m *mockRuleRepo) ListForUser(ctx context.Context, userID string) ([]access.Rule, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []access.Rule
	for _, r := range m.rules {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockRuleRepo) ListForUserInSets(ctx context.Context, userID string, setNames []string) ([]access.Rule, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []access.Rule
	for _, r := range m.rules {
		if r.UserID != userID {
			continue
		}
		for _, name := range setNames {
			if r.ConfigSet == name {
				out = append(out, r)
			}
		}
	}
	return out, nil
}

func (m *mockRuleRepo) Upsert(ctx context.Context, rule access.Rule) error { return nil }

func (m *mockRuleRepo) Delete(ctx context.Context, userID, configSet, category string) error {
	return nil
}

// mockConfigRepo implements catalog.Repository for testing
type mockConfigRepo struct {
	sets  map[string]*catalog.ConfigSet
	saves int
}

func (m *mockConfigRepo) Get(ctx context.Context, name string) (*catalog.ConfigSet, error) {
	set, ok := m.sets[name]
	if !ok {
		return nil, catalog.ErrConfigSetNotFound
	}
	return set, nil
}

func (m *mockConfigRepo) List(ctx context.Context) ([]string, error) {
	names := make([]string, 0, len(m.sets))
	for name := range m.sets {
		names = append(names, name)
	}
	return names, nil
}

func (m *mockConfigRepo) Save(ctx context.Context, set *catalog.ConfigSet) error {
	m.saves++
	m.sets[set.Name] = set
	return nil
}

func storedSet() *catalog.ConfigSet {
	return &catalog.ConfigSet{
		Name: "2026-fall",
		Data: catalog.Data{
			CourseTree: []catalog.Group{
				{Category: "Math", Items: []catalog.Item{{Value: "c-101", Label: "Algebra"}}},
				{Category: "English", Items: []catalog.Item{{Value: "c-301", Label: "Reading Club"}}},
			},
			CourseInfo: map[string]json.RawMessage{
				"c-101": json.RawMessage(`{"room":"201"}`),
				"c-301": json.RawMessage(`{"room":"105"}`),
			},
			RecordingAvailable: map[string]bool{"c-101": true, "c-301": true},
		},
	}
}

func newService(rules []access.Rule) (*access.Service, *mockConfigRepo) {
	configs := &mockConfigRepo{sets: map[string]*catalog.ConfigSet{"2026-fall": storedSet()}}
	return access.NewService(&mockRuleRepo{rules: rules}, configs), configs
}

func TestRecordFor(t *testing.T) {
	svc, _ := newService([]access.Rule{
		{UserID: "u1", ConfigSet: "2026-fall", Category: "Math", Effect: authz.EffectAllow},
	})

	rec, err := svc.RecordFor(context.Background(), "u1", authz.RoleTeacher, "2026-fall")
	require.NoError(t, err)
	assert.True(t, rec.HasRules)
	assert.True(t, rec.CategoryAllowed("Math"))
	assert.False(t, rec.CategoryAllowed("English"))

	// Master bypasses without touching the rule store.
	rec, err = svc.RecordFor(context.Background(), "u1", authz.RoleMaster, "2026-fall")
	require.NoError(t, err)
	assert.True(t, rec.Bypass)

	// A user with no rows gets the default-deny empty record.
	rec, err = svc.RecordFor(context.Background(), "u2", authz.RoleTeacher, "2026-fall")
	require.NoError(t, err)
	assert.False(t, rec.HasRules)
	assert.False(t, rec.CategoryAllowed("Math"))
}

func TestFilteredConfigScopesToAllowedCategories(t *testing.T) {
	svc, _ := newService([]access.Rule{
		{UserID: "u1", ConfigSet: "2026-fall", Category: "Math", Effect: authz.EffectAllow},
	})

	set, err := svc.FilteredConfig(context.Background(), "u1", authz.RoleTeacher, "2026-fall")
	require.NoError(t, err)

	require.Len(t, set.Data.CourseTree, 1)
	assert.Equal(t, "Math", set.Data.CourseTree[0].Category)
	assert.Contains(t, set.Data.CourseInfo, "c-101")
	assert.NotContains(t, set.Data.CourseInfo, "c-301")
	assert.NotContains(t, set.Data.RecordingAvailable, "c-301")
}

func TestFilteredConfigMasterSeesEverything(t *testing.T) {
	svc, _ := newService(nil)

	set, err := svc.FilteredConfig(context.Background(), "u1", authz.RoleMaster, "2026-fall")
	require.NoError(t, err)
	assert.Len(t, set.Data.CourseTree, 2)
	assert.Len(t, set.Data.CourseInfo, 2)
}

func TestFilteredConfigUnknownSet(t *testing.T) {
	svc, _ := newService(nil)

	_, err := svc.FilteredConfig(context.Background(), "u1", authz.RoleTeacher, "missing")
	assert.ErrorIs(t, err, catalog.ErrConfigSetNotFound)
}

func TestApplyWriteWithoutRulesWritesNothing(t *testing.T) {
	svc, configs := newService(nil)

	incoming := catalog.Data{
		CourseTree: []catalog.Group{{Category: "Math", Items: []catalog.Item{{Value: "c-999", Label: "Injected"}}}},
	}
	set, written, err := svc.ApplyWrite(context.Background(), "u1", authz.RoleTeacher, "2026-fall", incoming)
	require.NoError(t, err)
	assert.False(t, written)
	assert.Zero(t, configs.saves)
	assert.Len(t, set.Data.CourseTree, 2, "stored payload is returned untouched")
}

func TestApplyWriteMergesAllowedCategories(t *testing.T) {
	svc, configs := newService([]access.Rule{
		{UserID: "u1", ConfigSet: "2026-fall", Category: "Math", Effect: authz.EffectAllow},
	})

	incoming := catalog.Data{
		CourseTree: []catalog.Group{
			{Category: "Math", Items: []catalog.Item{
				{Value: "c-101", Label: "Algebra"},
				{Value: "c-102", Label: "Geometry"},
			}},
			// Not allowed for u1; must not displace the stored group.
			{Category: "English", Items: []catalog.Item{{Value: "c-666", Label: "Injected"}}},
		},
		CourseInfo: map[string]json.RawMessage{
			"c-102": json.RawMessage(`{"room":"202"}`),
			"c-666": json.RawMessage(`{"room":"evil"}`),
		},
	}

	set, written, err := svc.ApplyWrite(context.Background(), "u1", authz.RoleTeacher, "2026-fall", incoming)
	require.NoError(t, err)
	assert.True(t, written)
	assert.Equal(t, 1, configs.saves)

	require.Len(t, set.Data.CourseTree, 2)
	assert.Equal(t, "Math", set.Data.CourseTree[0].Category)
	assert.Len(t, set.Data.CourseTree[0].Items, 2, "allowed group taken from incoming")
	assert.Equal(t, "English", set.Data.CourseTree[1].Category)
	assert.Equal(t, "c-301", set.Data.CourseTree[1].Items[0].Value, "disallowed group preserved from storage")

	assert.Contains(t, set.Data.CourseInfo, "c-102")
	assert.NotContains(t, set.Data.CourseInfo, "c-666")
	assert.Contains(t, set.Data.CourseInfo, "c-301", "disallowed aux entries survive the write")
	assert.False(t, set.UpdatedAt.IsZero())

	// The merge is what got persisted.
	stored, err := configs.Get(context.Background(), "2026-fall")
	require.NoError(t, err)
	assert.Equal(t, set.Data, stored.Data)
}

func TestApplyWriteMasterReplacesWholePayload(t *testing.T) {
	svc, configs := newService(nil)

	incoming := catalog.Data{
		CourseTree: []catalog.Group{{Category: "Science", Items: []catalog.Item{{Value: "c-500", Label: "Physics"}}}},
	}
	set, written, err := svc.ApplyWrite(context.Background(), "u1", authz.RoleMaster, "2026-fall", incoming)
	require.NoError(t, err)
	assert.True(t, written)
	assert.Equal(t, 1, configs.saves)
	require.Len(t, set.Data.CourseTree, 1)
	assert.Equal(t, "Science", set.Data.CourseTree[0].Category)
}
