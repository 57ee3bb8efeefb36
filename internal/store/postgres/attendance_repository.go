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

	"github.com/classtrack/classtrack/internal/attendance"
)

// AttendanceRepository implements attendance.Repository
type AttendanceRepository struct {
	db *DB
}

// NewAttendanceRepository creates a new attendance repository
func NewAttendanceRepository(db *DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// GetByIDs retrieves the records for the given registration ids
func (r *AttendanceRepository) GetByIDs(ctx context.Context, registrationIDs []string) ([]attendance.Record, error) {
	if len(registrationIDs) == 0 {
		return nil, nil
	}
	rows, err := r.db.pool.Query(ctx, `
		SELECT registration_id, student_name, course_id, course_name, config_set, status, updated_at
		FROM attendance_records
		WHERE registration_id = ANY($1)
	`, registrationIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get attendance records: %w", err)
	}
	defer rows.Close()

	var records []attendance.Record
	for rows.Next() {
		var rec attendance.Record
		if err := rows.Scan(
			&rec.RegistrationID, &rec.StudentName, &rec.CourseID,
			&rec.CourseName, &rec.ConfigSet, &rec.Status, &rec.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan attendance record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// UpdateStatuses applies a batch of status changes in one transaction
func (r *AttendanceRepository) UpdateStatuses(ctx context.Context, updates []attendance.StatusUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	tx, err := r.db.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, u := range updates {
		if _, err := tx.Exec(ctx, `
			UPDATE attendance_records
			SET status = $2, updated_at = now()
			WHERE registration_id = $1
		`, u.RegistrationID, u.Status); err != nil {
			return fmt.Errorf("failed to update attendance status: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit attendance updates: %w", err)
	}
	return nil
}
