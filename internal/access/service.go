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
	"fmt"
	"time"

	"github.com/classtrack/classtrack/internal/catalog"
)

// Service combines the rule and configuration-set collaborators into the
// read/write paths the transport layer calls. Every call reloads rules
// and payloads fresh; nothing is cached across requests.
type Service struct {
	rules   RuleRepository
	configs catalog.Repository
}

// NewService creates a new category access service.
func NewService(rules RuleRepository, configs catalog.Repository) *Service {
	return &Service{
		rules:   rules,
		configs: configs,
	}
}

// RecordFor resolves the access record for one user and configuration
// set. The master role bypasses rule loading entirely.
func (s *Service) RecordFor(ctx context.Context, userID, role, setName string) (Record, error) {
	if Bypassed(role) {
		return BypassRecord(), nil
	}
	rules, err := s.rules.ListForUserInSets(ctx, userID, []string{setName})
	if err != nil {
		return Record{}, fmt.Errorf("failed to load category rules: %w", err)
	}
	return AccessForSet(BuildAccessMap(rules), setName, false), nil
}

// SetNames lists the stored configuration set names. Names are not
// category-scoped; only payload contents are.
func (s *Service) SetNames(ctx context.Context) ([]string, error) {
	names, err := s.configs.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list config sets: %w", err)
	}
	return names, nil
}

// FilteredConfig loads a configuration set and shapes it to the caller's
// category visibility.
func (s *Service) FilteredConfig(ctx context.Context, userID, role, setName string) (*catalog.ConfigSet, error) {
	set, err := s.configs.Get(ctx, setName)
	if err != nil {
		return nil, err
	}
	rec, err := s.RecordFor(ctx, userID, role, setName)
	if err != nil {
		return nil, err
	}
	return &catalog.ConfigSet{
		Name:      set.Name,
		Data:      FilterForRead(set.Data, rec),
		UpdatedAt: set.UpdatedAt,
	}, nil
}

// ApplyWrite merges a caller's partial payload into the stored set and
// persists the result. It reports whether anything was written: a caller
// with no category rules cannot author configuration content, so the
// stored payload is left untouched and written=false is returned.
func (s *Service) ApplyWrite(ctx context.Context, userID, role, setName string, incoming catalog.Data) (*catalog.ConfigSet, bool, error) {
	existing, err := s.configs.Get(ctx, setName)
	if err != nil {
		return nil, false, err
	}
	rec, err := s.RecordFor(ctx, userID, role, setName)
	if err != nil {
		return nil, false, err
	}
	if !rec.Bypass && !rec.HasRules {
		return existing, false, nil
	}

	merged := &catalog.ConfigSet{
		Name:      setName,
		Data:      MergeForWrite(existing.Data, incoming, rec),
		UpdatedAt: time.Now(),
	}
	if err := s.configs.Save(ctx, merged); err != nil {
		return nil, false, fmt.Errorf("failed to save config set: %w", err)
	}
	return merged, true, nil
}
