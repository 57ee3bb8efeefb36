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

// Package access maps courses to administrative categories and decides,
// per user and configuration set, which categories are visible. It also
// applies that visibility to configuration-set payloads on read and
// reconciles partial category-scoped writes on merge.
package access

import (
	"sort"
	"strings"

	"github.com/classtrack/classtrack/internal/catalog"
)

// CourseRef identifies a course by id, display name, or both.
type CourseRef struct {
	ID   string
	Name string
}

// TreeIndex is the lookup structure derived from one configuration set's
// course tree. It is rebuilt per request or per broadcast batch, never
// cached across them, since configuration sets can change between calls.
type TreeIndex struct {
	idToCategory    map[string]string
	labelToCategory map[string]string
	// labels sorted longest-first so the prefix fallback never lets a
	// shorter label shadow a longer one it is a prefix of.
	labelsByLength []string
	categories     map[string]struct{}
}

// BuildTreeIndex builds the index for one course tree. Groups without a
// category and items without an id or label are skipped; an empty tree
// yields an empty index, on which every resolution fails closed.
func BuildTreeIndex(tree []catalog.Group) *TreeIndex {
	ix := &TreeIndex{
		idToCategory:    make(map[string]string),
		labelToCategory: make(map[string]string),
		categories:      make(map[string]struct{}),
	}

	for _, group := range tree {
		category := strings.TrimSpace(group.Category)
		if category == "" {
			continue
		}
		ix.categories[category] = struct{}{}
		for _, item := range group.Items {
			id := strings.TrimSpace(item.Value)
			label := strings.TrimSpace(item.Label)
			if id == "" && label == "" {
				continue
			}
			if id != "" {
				ix.idToCategory[id] = category
			}
			if label != "" {
				if _, dup := ix.labelToCategory[label]; !dup {
					ix.labelsByLength = append(ix.labelsByLength, label)
				}
				ix.labelToCategory[label] = category
			}
		}
	}

	sort.SliceStable(ix.labelsByLength, func(i, j int) bool {
		return len(ix.labelsByLength[i]) > len(ix.labelsByLength[j])
	})

	return ix
}

// Categories returns the set of categories present in the indexed tree.
func (ix *TreeIndex) Categories() map[string]struct{} {
	if ix == nil {
		return nil
	}
	return ix.categories
}

// Resolve returns the category owning the referenced course, or "" when
// nothing matches. Precedence is exact id, then exact label, then the
// longest indexed label that is a prefix of the name; the prefix
// fallback covers legacy course names that append section or time
// markers to a canonical label.
func (ix *TreeIndex) Resolve(ref CourseRef) string {
	if ix == nil {
		return ""
	}

	if id := strings.TrimSpace(ref.ID); id != "" {
		if category, ok := ix.idToCategory[id]; ok {
			return category
		}
	}

	name := strings.TrimSpace(ref.Name)
	if name == "" {
		return ""
	}
	if category, ok := ix.labelToCategory[name]; ok {
		return category
	}
	for _, label := range ix.labelsByLength {
		if strings.HasPrefix(name, label) {
			return ix.labelToCategory[label]
		}
	}
	return ""
}
