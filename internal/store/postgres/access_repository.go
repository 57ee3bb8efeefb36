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
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/classtrack/classtrack/internal/access"
	"github.com/classtrack/classtrack/internal/authz"
)

// RuleRepository implements access.RuleRepository
type RuleRepository struct {
	db *DB
}

// NewRuleRepository creates a new category rule repository
func NewRuleRepository(db *DB) *RuleRepository {
	return &RuleRepository{db: db}
}

// ListForUser retrieves all category rules recorded for a user
func (r *RuleRepository) ListForUser(ctx context.Context, userID string) ([]access.Rule, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT user_id, config_set, category, effect, updated_at
		FROM user_category_access
		WHERE user_id = $1
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list category rules: %w", err)
	}
	return scanRules(rows)
}

// ListForUserInSets retrieves a user's rules restricted to the named sets
func (r *RuleRepository) ListForUserInSets(ctx context.Context, userID string, setNames []string) ([]access.Rule, error) {
	if len(setNames) == 0 {
		return nil, nil
	}
	rows, err := r.db.pool.Query(ctx, `
		SELECT user_id, config_set, category, effect, updated_at
		FROM user_category_access
		WHERE user_id = $1 AND config_set = ANY($2)
	`, userID, setNames)
	if err != nil {
		return nil, fmt.Errorf("failed to list category rules: %w", err)
	}
	return scanRules(rows)
}

// Upsert creates or replaces the rule for (userID, configSet, category)
func (r *RuleRepository) Upsert(ctx context.Context, rule access.Rule) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO user_category_access (user_id, config_set, category, effect, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (user_id, config_set, category)
		DO UPDATE SET effect = EXCLUDED.effect, updated_at = now()
	`, rule.UserID, rule.ConfigSet, rule.Category, string(rule.Effect))
	if err != nil {
		return fmt.Errorf("failed to upsert category rule: %w", err)
	}
	return nil
}

// Delete removes the rule for (userID, configSet, category)
func (r *RuleRepository) Delete(ctx context.Context, userID, configSet, category string) error {
	_, err := r.db.pool.Exec(ctx, `
		DELETE FROM user_category_access
		WHERE user_id = $1 AND config_set = $2 AND category = $3
	`, userID, configSet, category)
	if err != nil {
		return fmt.Errorf("failed to delete category rule: %w", err)
	}
	return nil
}

func scanRules(rows pgx.Rows) ([]access.Rule, error) {
	defer rows.Close()

	var rules []access.Rule
	for rows.Next() {
		var rule access.Rule
		var effect string
		if err := rows.Scan(&rule.UserID, &rule.ConfigSet, &rule.Category, &effect, &rule.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category rule: %w", err)
		}
		parsed, err := authz.ParseEffect(effect)
		if err != nil {
			return nil, err
		}
		rule.Effect = parsed
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}
