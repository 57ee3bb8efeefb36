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
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/classtrack/classtrack/internal/access"
	"github.com/classtrack/classtrack/internal/catalog"
)

func testTree() []catalog.Group {
	return []catalog.Group{
		{
			Category: "Math",
			Items: []catalog.Item{
				{Value: "c-101", Label: "Math"},
				{Value: "c-102", Label: "Algebra II"},
			},
		},
		{
			Category: "Math Advanced",
			Items: []catalog.Item{
				{Value: "c-201", Label: "Math Advanced"},
			},
		},
		{
			Category: "English",
			Items: []catalog.Item{
				{Value: "c-301", Label: "Reading Club"},
			},
		},
	}
}

func TestResolvePrecedence(t *testing.T) {
	ix := access.BuildTreeIndex(testTree())

	tests := []struct {
		name string
		ref  access.CourseRef
		want string
	}{
		{"exact id wins over label", access.CourseRef{ID: "c-301", Name: "Math"}, "English"},
		{"exact label", access.CourseRef{Name: "Algebra II"}, "Math"},
		{"longest prefix wins", access.CourseRef{Name: "Math Advanced B"}, "Math Advanced"},
		{"shorter prefix when no longer match", access.CourseRef{Name: "Math 101"}, "Math"},
		{"unknown id falls through to name", access.CourseRef{ID: "c-999", Name: "Reading Club"}, "English"},
		{"no match", access.CourseRef{Name: "Chemistry"}, ""},
		{"empty ref", access.CourseRef{}, ""},
		{"whitespace trimmed", access.CourseRef{Name: "  Algebra II  "}, "Math"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ix.Resolve(tt.ref))
		})
	}
}

func TestBuildTreeIndexSkipsMalformedEntries(t *testing.T) {
	ix := access.BuildTreeIndex([]catalog.Group{
		{Category: "", Items: []catalog.Item{{Value: "c-1", Label: "Orphan"}}},
		{Category: "Science", Items: []catalog.Item{
			{Value: "", Label: ""},
			{Value: "c-2", Label: "Physics"},
		}},
	})

	assert.Equal(t, "", ix.Resolve(access.CourseRef{ID: "c-1"}))
	assert.Equal(t, "", ix.Resolve(access.CourseRef{Name: "Orphan"}))
	assert.Equal(t, "Science", ix.Resolve(access.CourseRef{ID: "c-2"}))

	_, hasScience := ix.Categories()["Science"]
	assert.True(t, hasScience)
	assert.Len(t, ix.Categories(), 1)
}

func TestEmptyTreeFailsClosed(t *testing.T) {
	ix := access.BuildTreeIndex(nil)
	assert.Equal(t, "", ix.Resolve(access.CourseRef{ID: "c-101", Name: "Math"}))
}

func TestNilIndexResolvesEmpty(t *testing.T) {
	var ix *access.TreeIndex
	assert.Equal(t, "", ix.Resolve(access.CourseRef{ID: "c-101"}))
}
