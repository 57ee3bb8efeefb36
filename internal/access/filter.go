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

package access

import (
	"encoding/json"

	"github.com/classtrack/classtrack/internal/catalog"
)

// FilterForRead shapes a configuration-set payload to what the record's
// holder may see. Bypass returns the payload unchanged; a record with no
// rules returns an empty-shaped payload, a set without category rules is
// invisible rather than partially visible. Orphaned auxiliary entries
// whose key matches no surviving tree item simply disappear.
func FilterForRead(data catalog.Data, rec Record) catalog.Data {
	if rec.Bypass {
		return data
	}
	if !rec.HasRules {
		return emptyData()
	}

	allowed := rec.AllowedCategories()

	filtered := catalog.Data{
		CourseTree: make([]catalog.Group, 0, len(data.CourseTree)),
		Extra:      data.Extra,
	}
	ids := make(map[string]struct{})
	labels := make(map[string]struct{})
	for _, group := range data.CourseTree {
		if _, ok := allowed[group.Category]; !ok {
			continue
		}
		filtered.CourseTree = append(filtered.CourseTree, group)
		collectKeys(group, ids, labels)
	}

	filtered.CourseInfo = filterRaw(data.CourseInfo, ids, nil)
	// timeTable entries may be keyed by course id or by label.
	filtered.TimeTable = filterRaw(data.TimeTable, ids, labels)
	filtered.RecordingAvailable = filterBool(data.RecordingAvailable, ids)

	return filtered
}

// MergeForWrite reconciles a category-restricted editor's partial update
// against the full stored payload. Categories the writer may touch are
// taken from incoming; everything else is preserved verbatim from
// existing. A writer whose record carries no rules cannot author
// configuration content through this path, the existing payload is
// returned unchanged. Within the allowed scope this is last-writer-wins;
// there is no conflict detection between concurrent writers.
func MergeForWrite(existing, incoming catalog.Data, rec Record) catalog.Data {
	if rec.Bypass {
		return incoming
	}
	if !rec.HasRules {
		return existing
	}

	allowed := rec.AllowedCategories()

	merged := catalog.Data{}
	allowedIDs := make(map[string]struct{})
	allowedLabels := make(map[string]struct{})

	// Allowed groups come from incoming, in incoming's order.
	for _, group := range incoming.CourseTree {
		if _, ok := allowed[group.Category]; !ok {
			continue
		}
		merged.CourseTree = append(merged.CourseTree, group)
		collectKeys(group, allowedIDs, allowedLabels)
	}
	// Groups outside the writer's scope are preserved from existing and
	// appended after the writer's groups.
	for _, group := range existing.CourseTree {
		if _, ok := allowed[group.Category]; ok {
			// The allowed-key set spans both trees so a course the
			// writer deleted does not leak its stale auxiliary entries
			// back in from existing.
			collectKeys(group, allowedIDs, allowedLabels)
			continue
		}
		merged.CourseTree = append(merged.CourseTree, group)
	}

	merged.CourseInfo = mergeRaw(existing.CourseInfo, incoming.CourseInfo, allowedIDs, nil)
	merged.TimeTable = mergeRaw(existing.TimeTable, incoming.TimeTable, allowedIDs, allowedLabels)
	merged.RecordingAvailable = mergeBool(existing.RecordingAvailable, incoming.RecordingAvailable, allowedIDs)

	// Remaining top-level fields are shallow-overridden by incoming.
	if len(existing.Extra) > 0 || len(incoming.Extra) > 0 {
		merged.Extra = make(map[string]json.RawMessage, len(existing.Extra)+len(incoming.Extra))
		for name, value := range existing.Extra {
			merged.Extra[name] = value
		}
		for name, value := range incoming.Extra {
			merged.Extra[name] = value
		}
	}

	return merged
}

func emptyData() catalog.Data {
	return catalog.Data{
		CourseTree:         []catalog.Group{},
		CourseInfo:         map[string]json.RawMessage{},
		TimeTable:          map[string]json.RawMessage{},
		RecordingAvailable: map[string]bool{},
	}
}

func collectKeys(group catalog.Group, ids, labels map[string]struct{}) {
	for _, item := range group.Items {
		if item.Value != "" {
			ids[item.Value] = struct{}{}
		}
		if item.Label != "" && labels != nil {
			labels[item.Label] = struct{}{}
		}
	}
}

func keyAllowed(key string, ids, labels map[string]struct{}) bool {
	if _, ok := ids[key]; ok {
		return true
	}
	if labels != nil {
		if _, ok := labels[key]; ok {
			return true
		}
	}
	return false
}

func filterRaw(m map[string]json.RawMessage, ids, labels map[string]struct{}) map[string]json.RawMessage {
	out := make(map[string]json.RawMessage, len(m))
	for key, value := range m {
		if keyAllowed(key, ids, labels) {
			out[key] = value
		}
	}
	return out
}

func filterBool(m map[string]bool, ids map[string]struct{}) map[string]bool {
	out := make(map[string]bool, len(m))
	for key, value := range m {
		if _, ok := ids[key]; ok {
			out[key] = value
		}
	}
	return out
}

func mergeRaw(existing, incoming map[string]json.RawMessage, ids, labels map[string]struct{}) map[string]json.RawMessage {
	out := make(map[string]json.RawMessage, len(existing)+len(incoming))
	for key, value := range existing {
		if keyAllowed(key, ids, labels) {
			continue
		}
		out[key] = value
	}
	for key, value := range incoming {
		if keyAllowed(key, ids, labels) {
			out[key] = value
		}
	}
	return out
}

func mergeBool(existing, incoming map[string]bool, ids map[string]struct{}) map[string]bool {
	out := make(map[string]bool, len(existing)+len(incoming))
	for key, value := range existing {
		if _, ok := ids[key]; ok {
			continue
		}
		out[key] = value
	}
	for key, value := range incoming {
		if _, ok := ids[key]; ok {
			out[key] = value
		}
	}
	return out
}
