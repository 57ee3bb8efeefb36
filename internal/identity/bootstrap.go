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

package identity

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/classtrack/classtrack/internal/audit"
	"github.com/classtrack/classtrack/internal/authz"
)

const (
	EnvBootstrapMasterUsername = "CT_BOOTSTRAP_MASTER_USERNAME"
	EnvBootstrapMasterPassword = "CT_BOOTSTRAP_MASTER_PASSWORD"
)

// BootstrapService seeds the initial master account.
type BootstrapService struct {
	identityService *Service
	auditLogger     audit.Logger
}

// NewBootstrapService creates a new bootstrap service
func NewBootstrapService(identityService *Service, auditLogger audit.Logger) *BootstrapService {
	return &BootstrapService{
		identityService: identityService,
		auditLogger:     auditLogger,
	}
}

// Bootstrap creates the master account named in the environment if it
// does not exist yet. Without the username variable this is a no-op.
func (s *BootstrapService) Bootstrap(ctx context.Context) error {
	username := os.Getenv(EnvBootstrapMasterUsername)
	password := os.Getenv(EnvBootstrapMasterPassword)

	if username == "" {
		return nil
	}
	if password == "" {
		return fmt.Errorf("%s is set but %s is empty", EnvBootstrapMasterUsername, EnvBootstrapMasterPassword)
	}

	existing, err := s.identityService.repo.GetByUsername(ctx, username)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return fmt.Errorf("failed to check for existing master account: %w", err)
	}
	if existing != nil {
		// Already bootstrapped, skip silently.
		return nil
	}

	user, err := s.identityService.CreateUser(ctx, username, username, authz.RoleMaster, password)
	if err != nil {
		return fmt.Errorf("failed to create master account: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeMasterBootstrap,
		ActorID:  audit.ActorSystemBootstrap,
		Resource: "user",
		Metadata: map[string]any{
			audit.AttrUsername:     username,
			audit.AttrTargetUserID: user.ID,
		},
	})

	fmt.Printf("Successfully bootstrapped master account: %s\n", username)
	return nil
}
