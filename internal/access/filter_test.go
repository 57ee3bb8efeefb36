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
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classtrack/classtrack/internal/access"
	"github.com/classtrack/classtrack/internal/catalog"
)

func testData() catalog.Data {
	return catalog.Data{
		CourseTree: testTree(),
		CourseInfo: map[string]json.RawMessage{
			"c-101":    json.RawMessage(`{"teacher":"Kim"}`),
			"c-301":    json.RawMessage(`{"teacher":"Lee"}`),
			"orphaned": json.RawMessage(`{"teacher":"gone"}`),
		},
		TimeTable: map[string]json.RawMessage{
			"c-101":        json.RawMessage(`["mon","wed"]`),
			"Reading Club": json.RawMessage(`["fri"]`),
		},
		RecordingAvailable: map[string]bool{
			"c-101": true,
			"c-301": false,
		},
		Extra: map[string]json.RawMessage{
			"theme": json.RawMessage(`"dark"`),
		},
	}
}

func mathOnly() access.Record {
	return access.Record{HasRules: true, Allow: set("Math")}
}

func TestFilterForReadBypassReturnsUnchanged(t *testing.T) {
	data := testData()
	got := access.FilterForRead(data, access.BypassRecord())
	assert.Equal(t, data, got)
}

func TestFilterForReadNoRulesReturnsEmptyShape(t *testing.T) {
	got := access.FilterForRead(testData(), access.Record{})
	assert.Empty(t, got.CourseTree)
	assert.Empty(t, got.CourseInfo)
	assert.Empty(t, got.TimeTable)
	assert.Empty(t, got.RecordingAvailable)
}

func TestFilterForRead(t *testing.T) {
	got := access.FilterForRead(testData(), mathOnly())

	require.Len(t, got.CourseTree, 1)
	assert.Equal(t, "Math", got.CourseTree[0].Category)

	assert.Contains(t, got.CourseInfo, "c-101")
	assert.NotContains(t, got.CourseInfo, "c-301")
	assert.NotContains(t, got.CourseInfo, "orphaned")

	// timeTable keyed by id survives; label key of a filtered category
	// does not.
	assert.Contains(t, got.TimeTable, "c-101")
	assert.NotContains(t, got.TimeTable, "Reading Club")

	assert.Contains(t, got.RecordingAvailable, "c-101")
	assert.NotContains(t, got.RecordingAvailable, "c-301")
}

func TestFilterForReadKeepsLabelKeyedTimeTable(t *testing.T) {
	data := testData()
	data.TimeTable["Algebra II"] = json.RawMessage(`["sat"]`)

	got := access.FilterForRead(data, mathOnly())
	assert.Contains(t, got.TimeTable, "Algebra II")
}

func TestFilterForReadIdempotent(t *testing.T) {
	rec := mathOnly()
	once := access.FilterForRead(testData(), rec)
	twice := access.FilterForRead(once, rec)
	assert.Equal(t, once, twice)
}

func TestMergeForWriteNoRulesReturnsExisting(t *testing.T) {
	existing := testData()
	incoming := catalog.Data{CourseTree: []catalog.Group{{Category: "Math"}}}

	got := access.MergeForWrite(existing, incoming, access.Record{})
	assert.Equal(t, existing, got)
}

func TestMergeForWriteBypassAcceptsIncoming(t *testing.T) {
	incoming := catalog.Data{CourseTree: []catalog.Group{{Category: "New"}}}
	got := access.MergeForWrite(testData(), incoming, access.BypassRecord())
	assert.Equal(t, incoming, got)
}

func TestMergeForWrite(t *testing.T) {
	existing := testData()
	incoming := catalog.Data{
		CourseTree: []catalog.Group{
			{Category: "Math", Items: []catalog.Item{
				{Value: "c-101", Label: "Math"},
				{Value: "c-103", Label: "Geometry"},
			}},
			// Not allowed: must not leak into the merge.
			{Category: "English", Items: []catalog.Item{
				{Value: "c-399", Label: "Hijacked"},
			}},
		},
		CourseInfo: map[string]json.RawMessage{
			"c-101": json.RawMessage(`{"teacher":"Park"}`),
			"c-103": json.RawMessage(`{"teacher":"Choi"}`),
			"c-399": json.RawMessage(`{"teacher":"nope"}`),
		},
		Extra: map[string]json.RawMessage{
			"theme": json.RawMessage(`"light"`),
		},
	}

	got := access.MergeForWrite(existing, incoming, mathOnly())

	// Allowed groups from incoming first, preserved groups after.
	require.Len(t, got.CourseTree, 3)
	assert.Equal(t, "Math", got.CourseTree[0].Category)
	require.Len(t, got.CourseTree[0].Items, 2)
	assert.Equal(t, "Math Advanced", got.CourseTree[1].Category)
	assert.Equal(t, "English", got.CourseTree[2].Category)

	// Disallowed categories preserved verbatim from existing.
	assert.Equal(t, existing.CourseTree[2], got.CourseTree[2])

	assert.Equal(t, json.RawMessage(`{"teacher":"Park"}`), got.CourseInfo["c-101"])
	assert.Contains(t, got.CourseInfo, "c-103")
	assert.NotContains(t, got.CourseInfo, "c-399")
	// English info inherited from existing.
	assert.Equal(t, json.RawMessage(`{"teacher":"Lee"}`), got.CourseInfo["c-301"])

	// c-102 was deleted by the writer (allowed category, absent from
	// incoming): its stale aux entries must not come back.
	assert.NotContains(t, got.CourseInfo, "c-102")

	// Incoming shallow-overrides unknown top-level fields.
	assert.Equal(t, json.RawMessage(`"light"`), got.Extra["theme"])
}

func TestMergeForWritePreservesDisallowedAcrossPartitions(t *testing.T) {
	existing := testData()
	rec := access.Record{HasRules: true, Allow: set("Math", "Math Advanced")}

	// Empty incoming removes everything inside the allowed scope and
	// nothing outside it.
	got := access.MergeForWrite(existing, catalog.Data{}, rec)

	require.Len(t, got.CourseTree, 1)
	assert.Equal(t, "English", got.CourseTree[0].Category)
	assert.Contains(t, got.CourseInfo, "c-301")
	assert.NotContains(t, got.CourseInfo, "c-101")
	assert.Contains(t, got.TimeTable, "Reading Club")
	assert.NotContains(t, got.TimeTable, "c-101")
}
