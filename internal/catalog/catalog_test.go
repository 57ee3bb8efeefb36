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

package catalog_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classtrack/classtrack/internal/catalog"
)

func TestDataUnmarshalKeepsUnknownFields(t *testing.T) {
	raw := []byte(`{
		"courseTree": [
			{"category": "Math", "items": [{"value": "c-101", "label": "Algebra"}]}
		],
		"courseInfo": {"c-101": {"room": "201"}},
		"timeTable": {"Algebra": ["mon-09"]},
		"recordingAvailable": {"c-101": true},
		"theme": "dark",
		"uiLayout": {"sidebar": "collapsed"}
	}`)

	var d catalog.Data
	require.NoError(t, json.Unmarshal(raw, &d))

	require.Len(t, d.CourseTree, 1)
	assert.Equal(t, "Math", d.CourseTree[0].Category)
	assert.Equal(t, catalog.Item{Value: "c-101", Label: "Algebra"}, d.CourseTree[0].Items[0])
	assert.JSONEq(t, `{"room": "201"}`, string(d.CourseInfo["c-101"]))
	assert.JSONEq(t, `["mon-09"]`, string(d.TimeTable["Algebra"]))
	assert.True(t, d.RecordingAvailable["c-101"])

	require.Len(t, d.Extra, 2)
	assert.JSONEq(t, `"dark"`, string(d.Extra["theme"]))
	assert.JSONEq(t, `{"sidebar": "collapsed"}`, string(d.Extra["uiLayout"]))
}

func TestDataRoundTrip(t *testing.T) {
	raw := []byte(`{
		"courseTree": [{"category": "English", "items": [{"value": "c-301", "label": "Reading Club"}]}],
		"courseInfo": {"c-301": {"capacity": 12}},
		"timeTable": {},
		"recordingAvailable": {"c-301": false},
		"announcement": "Welcome back"
	}`)

	var d catalog.Data
	require.NoError(t, json.Unmarshal(raw, &d))

	out, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, string(raw), string(out))
}

func TestDataMarshalEmptyShape(t *testing.T) {
	// A zero payload still renders every known field so stored documents
	// keep a stable shape.
	out, err := json.Marshal(catalog.Data{})
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"courseTree": [],
		"courseInfo": {},
		"timeTable": {},
		"recordingAvailable": {}
	}`, string(out))
}

func TestDataMarshalKnownFieldsWinOverExtra(t *testing.T) {
	d := catalog.Data{
		CourseTree: []catalog.Group{{Category: "Math"}},
		Extra: map[string]json.RawMessage{
			"courseTree": json.RawMessage(`"stale"`),
			"theme":      json.RawMessage(`"light"`),
		},
	}

	out, err := json.Marshal(d)
	require.NoError(t, err)

	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.JSONEq(t, `[{"category": "Math", "items": null}]`, string(decoded["courseTree"]))
	assert.JSONEq(t, `"light"`, string(decoded["theme"]))
}

func TestDataUnmarshalRejectsMalformedKnownField(t *testing.T) {
	var d catalog.Data
	err := json.Unmarshal([]byte(`{"courseTree": "not-an-array"}`), &d)
	assert.Error(t, err)
}
