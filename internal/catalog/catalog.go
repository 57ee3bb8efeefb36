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

// Package catalog holds the course configuration-set payload model. A
// configuration set bundles the category taxonomy (course tree) with
// auxiliary per-course maps; category-scoped filtering over these
// payloads lives in the access package.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// Domain errors
var (
	ErrConfigSetNotFound = errors.New("course config set not found")
)

// Item is one course entry inside a category group. Value is the opaque
// course identifier, Label the display name.
type Item struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Group is one category of the course tree with its member courses.
type Group struct {
	Category string `json:"category"`
	Items    []Item `json:"items"`
}

// Data is the nested payload of one configuration set. CourseInfo and
// TimeTable values are opaque to this engine; TimeTable entries may be
// keyed by course id or by course label, legacy data uses both. Unknown
// top-level fields are preserved in Extra across a read-modify-write.
type Data struct {
	CourseTree         []Group
	CourseInfo         map[string]json.RawMessage
	TimeTable          map[string]json.RawMessage
	RecordingAvailable map[string]bool
	Extra              map[string]json.RawMessage
}

// ConfigSet is one named configuration set as stored.
type ConfigSet struct {
	Name      string
	Data      Data
	UpdatedAt time.Time
}

// Repository defines the configuration-set persistence collaborator.
type Repository interface {
	// Get retrieves a configuration set by name.
	Get(ctx context.Context, name string) (*ConfigSet, error)

	// List retrieves the names of all configuration sets.
	List(ctx context.Context) ([]string, error)

	// Save creates or replaces a configuration set.
	Save(ctx context.Context, set *ConfigSet) error
}

const (
	fieldCourseTree         = "courseTree"
	fieldCourseInfo         = "courseInfo"
	fieldTimeTable          = "timeTable"
	fieldRecordingAvailable = "recordingAvailable"
)

// UnmarshalJSON decodes the four known payload fields and keeps every
// other top-level field verbatim in Extra.
func (d *Data) UnmarshalJSON(raw []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return err
	}

	*d = Data{}
	for name, value := range fields {
		var err error
		switch name {
		case fieldCourseTree:
			err = json.Unmarshal(value, &d.CourseTree)
		case fieldCourseInfo:
			err = json.Unmarshal(value, &d.CourseInfo)
		case fieldTimeTable:
			err = json.Unmarshal(value, &d.TimeTable)
		case fieldRecordingAvailable:
			err = json.Unmarshal(value, &d.RecordingAvailable)
		default:
			if d.Extra == nil {
				d.Extra = make(map[string]json.RawMessage)
			}
			d.Extra[name] = value
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// MarshalJSON is the inverse of UnmarshalJSON. Known fields win over a
// stale Extra entry of the same name.
func (d Data) MarshalJSON() ([]byte, error) {
	fields := make(map[string]json.RawMessage, len(d.Extra)+4)
	for name, value := range d.Extra {
		fields[name] = value
	}

	tree := d.CourseTree
	if tree == nil {
		tree = []Group{}
	}
	var err error
	if fields[fieldCourseTree], err = json.Marshal(tree); err != nil {
		return nil, err
	}
	if fields[fieldCourseInfo], err = marshalMap(d.CourseInfo); err != nil {
		return nil, err
	}
	if fields[fieldTimeTable], err = marshalMap(d.TimeTable); err != nil {
		return nil, err
	}
	if fields[fieldRecordingAvailable], err = marshalMap(d.RecordingAvailable); err != nil {
		return nil, err
	}
	return json.Marshal(fields)
}

// marshalMap renders a nil map as {} so stored payloads keep a stable shape.
func marshalMap[V any](m map[string]V) (json.RawMessage, error) {
	if m == nil {
		m = map[string]V{}
	}
	return json.Marshal(m)
}
