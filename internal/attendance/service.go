package attendance

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/classtrack/classtrack/internal/observability/logger"
)

// Service persists attendance status changes and forwards each batch to
// the broadcaster so connected sessions see it immediately.
type Service struct {
	repo        Repository
	broadcaster Broadcaster
}

// NewService creates a new attendance service.
func NewService(repo Repository, broadcaster Broadcaster) *Service {
	return &Service{
		repo:        repo,
		broadcaster: broadcaster,
	}
}

// UpdateStatuses validates and persists a batch of status changes, then
// broadcasts it. The batch is rejected whole on the first invalid status.
func (s *Service) UpdateStatuses(ctx context.Context, updates []StatusUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	for _, u := range updates {
		if u.RegistrationID == "" {
			return fmt.Errorf("%w: missing registration id", ErrRecordNotFound)
		}
		if !ValidStatus(u.Status) {
			return fmt.Errorf("%w: %q", ErrInvalidStatus, u.Status)
		}
	}

	if err := s.repo.UpdateStatuses(ctx, updates); err != nil {
		return fmt.Errorf("failed to update attendance statuses: %w", err)
	}

	ids := make([]string, 0, len(updates))
	for _, u := range updates {
		ids = append(ids, u.RegistrationID)
	}
	records, err := s.repo.GetByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to load attendance records: %w", err)
	}

	if err := s.broadcaster.BroadcastStatusUpdates(ctx, records, updates); err != nil {
		// The write already succeeded; a delivery failure must not roll
		// it back or fail the request.
		slog.ErrorContext(ctx, "attendance broadcast failed", logger.Error(err))
	}
	return nil
}
