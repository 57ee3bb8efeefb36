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
	"context"
	"strings"
	"time"

	"github.com/classtrack/classtrack/internal/authz"
)

// Rule is one stored user/category decision, composite-keyed by
// (user, configuration set, category).
type Rule struct {
	UserID    string
	ConfigSet string
	Category  string
	Effect    authz.Effect
	UpdatedAt time.Time
}

// RuleRepository defines the category-rule persistence collaborator.
type RuleRepository interface {
	// ListForUser retrieves all category rules recorded for a user.
	ListForUser(ctx context.Context, userID string) ([]Rule, error)

	// ListForUserInSets retrieves a user's rules restricted to the named
	// configuration sets.
	ListForUserInSets(ctx context.Context, userID string, setNames []string) ([]Rule, error)

	// Upsert creates or replaces the rule for (userID, configSet, category).
	Upsert(ctx context.Context, rule Rule) error

	// Delete removes the rule for (userID, configSet, category).
	Delete(ctx context.Context, userID, configSet, category string) error
}

// Record is the queryable access decision for one user and one
// configuration set. Bypass short-circuits every other field.
type Record struct {
	Allow    map[string]struct{}
	Deny     map[string]struct{}
	HasRules bool
	Bypass   bool
}

// BypassRecord is the record granted to the master role.
func BypassRecord() Record {
	return Record{Bypass: true}
}

// Bypassed reports whether a principal role skips category filtering
// entirely. This is the only bypass condition; it is role-derived, not
// permission-derived.
func Bypassed(role string) bool {
	return role == authz.RoleMaster
}

// CategoryAllowed decides visibility of one category under this record.
// Once any rule exists for a set, access is default-deny: an empty
// category, an empty allow set, or an unlisted category all deny, and
// deny entries win over allow entries.
func (r Record) CategoryAllowed(category string) bool {
	if r.Bypass {
		return true
	}
	if !r.HasRules || category == "" {
		return false
	}
	if _, denied := r.Deny[category]; denied {
		return false
	}
	if len(r.Allow) == 0 {
		return false
	}
	_, ok := r.Allow[category]
	return ok
}

// AllowedCategories returns the visible category set: nil under bypass
// (meaning all, unfiltered), empty when no rules or no allow entries,
// otherwise allow minus deny.
func (r Record) AllowedCategories() map[string]struct{} {
	if r.Bypass {
		return nil
	}
	allowed := make(map[string]struct{}, len(r.Allow))
	if !r.HasRules {
		return allowed
	}
	for category := range r.Allow {
		if _, denied := r.Deny[category]; denied {
			continue
		}
		allowed[category] = struct{}{}
	}
	return allowed
}

// BuildAccessMap groups rules by configuration-set name into record
// seeds. Rules with an empty set name or category key are discarded.
func BuildAccessMap(rules []Rule) map[string]*Record {
	m := make(map[string]*Record)
	for _, rule := range rules {
		setName := strings.TrimSpace(rule.ConfigSet)
		category := strings.TrimSpace(rule.Category)
		if setName == "" || category == "" {
			continue
		}
		rec, ok := m[setName]
		if !ok {
			rec = &Record{
				Allow: make(map[string]struct{}),
				Deny:  make(map[string]struct{}),
			}
			m[setName] = rec
		}
		rec.HasRules = true
		switch rule.Effect {
		case authz.EffectAllow:
			rec.Allow[category] = struct{}{}
		case authz.EffectDeny:
			rec.Deny[category] = struct{}{}
		}
	}
	return m
}

// AccessForSet looks up the record for one configuration set. Bypass
// wins regardless of the map; an absent set yields an empty record with
// no rules, since rules on other configuration sets are not inherited.
func AccessForSet(m map[string]*Record, setName string, bypass bool) Record {
	if bypass {
		return BypassRecord()
	}
	if rec, ok := m[setName]; ok && rec != nil {
		return *rec
	}
	return Record{
		Allow: make(map[string]struct{}),
		Deny:  make(map[string]struct{}),
	}
}
