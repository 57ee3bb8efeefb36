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

package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/classtrack/classtrack/internal/catalog"
)

// ConfigSetRepository implements catalog.Repository
type ConfigSetRepository struct {
	db *DB
}

// NewConfigSetRepository creates a new configuration set repository
func NewConfigSetRepository(db *DB) *ConfigSetRepository {
	return &ConfigSetRepository{db: db}
}

// Get retrieves a configuration set by name
func (r *ConfigSetRepository) Get(ctx context.Context, name string) (*catalog.ConfigSet, error) {
	var set catalog.ConfigSet
	var raw []byte
	err := r.db.pool.QueryRow(ctx, `
		SELECT name, data, updated_at
		FROM course_config_sets
		WHERE name = $1
	`, name).Scan(&set.Name, &raw, &set.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrConfigSetNotFound
		}
		return nil, fmt.Errorf("failed to get config set: %w", err)
	}
	if err := json.Unmarshal(raw, &set.Data); err != nil {
		return nil, fmt.Errorf("failed to decode config set %q: %w", name, err)
	}
	return &set, nil
}

// List retrieves the names of all configuration sets
func (r *ConfigSetRepository) List(ctx context.Context) ([]string, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT name FROM course_config_sets ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list config sets: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan config set name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Save creates or replaces a configuration set
func (r *ConfigSetRepository) Save(ctx context.Context, set *catalog.ConfigSet) error {
	raw, err := json.Marshal(set.Data)
	if err != nil {
		return fmt.Errorf("failed to encode config set %q: %w", set.Name, err)
	}
	_, err = r.db.pool.Exec(ctx, `
		INSERT INTO course_config_sets (name, data, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (name)
		DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at
	`, set.Name, raw, set.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save config set: %w", err)
	}
	return nil
}
