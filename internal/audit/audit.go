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

package audit

import (
	"context"
	"log/slog"
	"time"
)

// Event types
const (
	TypeLoginSuccess       = "login_success"
	TypeLoginFailed        = "login_failed"
	TypeUserCreated        = "user_created"
	TypeOverrideSet        = "permission_override_set"
	TypeOverrideRemoved    = "permission_override_removed"
	TypeCategoryRuleSet    = "category_rule_set"
	TypeCategoryRuleRemove = "category_rule_removed"
	TypeConfigSetWritten   = "config_set_written"
	TypeMasterBootstrap    = "master_bootstrap"
)

// Metadata attribute keys
const (
	AttrUsername      = "username"
	AttrRole          = "role"
	AttrPermissionKey = "permission_key"
	AttrEffect        = "effect"
	AttrConfigSet     = "config_set"
	AttrCategory      = "category"
	AttrTargetUserID  = "target_user_id"
)

// Actor identifiers for system-originated events
const (
	ActorSystemBootstrap = "system:bootstrap"
)

// Event represents an auditable action
type Event struct {
	Type      string
	ActorID   string
	Resource  string
	Metadata  map[string]any
	Timestamp time.Time
	IPAddress string
	UserAgent string
}

// Logger defines the interface for audit logging
type Logger interface {
	Log(ctx context.Context, event Event)
}

// SlogLogger implements Logger using slog
type SlogLogger struct{}

// NewSlogLogger creates a new audit logger
func NewSlogLogger() *SlogLogger {
	return &SlogLogger{}
}

// Log records an audit event
func (l *SlogLogger) Log(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	attrs := []any{
		slog.String("audit_type", event.Type),
		slog.String("actor_id", event.ActorID),
		slog.String("resource", event.Resource),
		slog.Time("timestamp", event.Timestamp),
	}
	if event.IPAddress != "" {
		attrs = append(attrs, slog.String("ip_address", event.IPAddress))
	}
	if event.UserAgent != "" {
		attrs = append(attrs, slog.String("user_agent", event.UserAgent))
	}
	for k, v := range event.Metadata {
		attrs = append(attrs, slog.Any(k, v))
	}

	slog.InfoContext(ctx, "audit_event", attrs...)
}
