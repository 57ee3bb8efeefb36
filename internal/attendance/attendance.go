package attendance

import (
	"context"
	"errors"
	"time"
)

// Domain errors
var (
	ErrRecordNotFound = errors.New("attendance record not found")
	ErrInvalidStatus  = errors.New("invalid attendance status")
)

// Attendance statuses
const (
	StatusPending   = "pending"
	StatusPresent   = "present"
	StatusLate      = "late"
	StatusAbsent    = "absent"
	StatusLeftEarly = "left_early"
)

var validStatuses = map[string]struct{}{
	StatusPending:   {},
	StatusPresent:   {},
	StatusLate:      {},
	StatusAbsent:    {},
	StatusLeftEarly: {},
}

// ValidStatus reports whether s is a known attendance status.
func ValidStatus(s string) bool {
	_, ok := validStatuses[s]
	return ok
}

// Record is the current attendance state of one registration. ConfigSet
// names the course configuration set the registered course belongs to;
// legacy registrations predating categorization may leave it empty.
type Record struct {
	RegistrationID string
	StudentName    string
	CourseID       string
	CourseName     string
	ConfigSet      string
	Status         string
	UpdatedAt      time.Time
}

// StatusUpdate is one attendance-status change in a batch.
type StatusUpdate struct {
	RegistrationID string `json:"registrationId"`
	Status         string `json:"status"`
}

// Repository defines the attendance persistence collaborator.
type Repository interface {
	// GetByIDs retrieves the records for the given registration ids.
	// Unknown ids are omitted from the result, not errors.
	GetByIDs(ctx context.Context, registrationIDs []string) ([]Record, error)

	// UpdateStatuses applies a batch of status changes.
	UpdateStatuses(ctx context.Context, updates []StatusUpdate) error
}

// Broadcaster fans a persisted batch out to connected sessions. The
// realtime package provides the implementation.
type Broadcaster interface {
	BroadcastStatusUpdates(ctx context.Context, records []Record, updates []StatusUpdate) error
}
