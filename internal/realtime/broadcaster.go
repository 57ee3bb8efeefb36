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

package realtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/classtrack/classtrack/internal/access"
	"github.com/classtrack/classtrack/internal/attendance"
	"github.com/classtrack/classtrack/internal/catalog"
	"github.com/classtrack/classtrack/internal/observability/logger"
)

// EventAttendance labels attendance-status payloads on the wire.
const EventAttendance = "attendance"

// Envelope is the payload delivered to sessions.
type Envelope struct {
	Event   string                    `json:"event"`
	Updates []attendance.StatusUpdate `json:"updates"`
}

// Broadcaster re-applies category access per connected session to decide
// which updates of a batch each session may receive. Rules are reloaded
// on every batch, so a revocation takes effect on the next event without
// reconnecting.
type Broadcaster struct {
	hub     *Hub
	rules   access.RuleRepository
	configs catalog.Repository
}

// NewBroadcaster creates a broadcaster over the given session registry.
func NewBroadcaster(hub *Hub, rules access.RuleRepository, configs catalog.Repository) *Broadcaster {
	return &Broadcaster{
		hub:     hub,
		rules:   rules,
		configs: configs,
	}
}

// BroadcastStatusUpdates fans one attendance batch out to every
// connected session that may see it. Tree indexes are built once per
// touched configuration set and shared across sessions. Records whose
// set has no stored configuration or whose course resolves to no
// category pass through unfiltered; hiding pre-migration data would be
// worse than showing it.
func (b *Broadcaster) BroadcastStatusUpdates(ctx context.Context, records []attendance.Record, updates []attendance.StatusUpdate) error {
	if len(updates) == 0 || b.hub.Len() == 0 {
		return nil
	}

	byRegistration := make(map[string]attendance.Record, len(records))
	touched := make([]string, 0, 2)
	seen := make(map[string]struct{})
	for _, rec := range records {
		byRegistration[rec.RegistrationID] = rec
		if rec.ConfigSet == "" {
			continue
		}
		if _, dup := seen[rec.ConfigSet]; dup {
			continue
		}
		seen[rec.ConfigSet] = struct{}{}
		touched = append(touched, rec.ConfigSet)
	}

	indexes := make(map[string]*access.TreeIndex, len(touched))
	for _, name := range touched {
		set, err := b.configs.Get(ctx, name)
		if err != nil {
			if errors.Is(err, catalog.ErrConfigSetNotFound) {
				// Unknown or legacy set: no index, updates pass through.
				indexes[name] = nil
				continue
			}
			return fmt.Errorf("failed to load config set %q: %w", name, err)
		}
		indexes[name] = access.BuildTreeIndex(set.Data.CourseTree)
	}

	for _, session := range b.hub.Sessions() {
		if !session.AttendanceVisible {
			continue
		}

		bypass := access.Bypassed(session.Principal.Role)
		var accessMap map[string]*access.Record
		if !bypass {
			rules, err := b.rules.ListForUserInSets(ctx, session.Principal.ID, touched)
			if err != nil {
				return fmt.Errorf("failed to load category rules for session %s: %w", session.ID, err)
			}
			accessMap = access.BuildAccessMap(rules)
		}

		allowed := make([]attendance.StatusUpdate, 0, len(updates))
		for _, update := range updates {
			if b.updateVisible(update, byRegistration, indexes, accessMap, bypass) {
				allowed = append(allowed, update)
			}
		}
		if len(allowed) == 0 {
			continue
		}

		session.Deliver(Envelope{Event: EventAttendance, Updates: allowed})
		slog.DebugContext(ctx, "delivered attendance updates",
			logger.SessionID(session.ID),
			logger.UserID(session.Principal.ID),
			slog.Int("update_count", len(allowed)),
		)
	}

	return nil
}

func (b *Broadcaster) updateVisible(
	update attendance.StatusUpdate,
	byRegistration map[string]attendance.Record,
	indexes map[string]*access.TreeIndex,
	accessMap map[string]*access.Record,
	bypass bool,
) bool {
	if bypass {
		return true
	}
	rec, ok := byRegistration[update.RegistrationID]
	if !ok {
		// No backing record to scope by; pass through.
		return true
	}
	ix := indexes[rec.ConfigSet]
	if ix == nil {
		return true
	}
	category := ix.Resolve(access.CourseRef{ID: rec.CourseID, Name: rec.CourseName})
	if category == "" {
		return true
	}
	return access.AccessForSet(accessMap, rec.ConfigSet, false).CategoryAllowed(category)
}
