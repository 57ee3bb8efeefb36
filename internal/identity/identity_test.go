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

package identity_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classtrack/classtrack/internal/authz"
	"github.com/classtrack/classtrack/internal/identity"
)

// Test parameters are deliberately small; production values come from
// configuration.
func testHasher() *identity.PasswordHasher {
	return identity.NewPasswordHasher(8*1024, 1, 1, 16, 32)
}

func TestPasswordHashAndVerify(t *testing.T) {
	h := testHasher()

	encoded, err := h.Hash("correct horse battery staple")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(encoded, "$argon2id$v=19$"))

	ok, err := h.Verify("correct horse battery staple", encoded)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify("wrong password", encoded)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPasswordHashIsSalted(t *testing.T) {
	h := testHasher()

	a, err := h.Hash("same password")
	require.NoError(t, err)
	b, err := h.Hash("same password")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestVerifyUsesParametersFromHash(t *testing.T) {
	encoded, err := testHasher().Hash("secret")
	require.NoError(t, err)

	// A hasher configured differently still verifies old credentials.
	other := identity.NewPasswordHasher(16*1024, 2, 2, 16, 32)
	ok, err := other.Verify("secret", encoded)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifyRejectsMalformedHash(t *testing.T) {
	h := testHasher()

	for _, encoded := range []string{
		"",
		"not-a-hash",
		"$argon2i$v=19$m=8192,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=8192,t=1,p=1$!!!$aGFzaA",
	} {
		_, err := h.Verify("secret", encoded)
		assert.Error(t, err, "encoded=%q", encoded)
	}
}

func TestTokenIssueAndVerify(t *testing.T) {
	issuer := identity.NewTokenIssuer([]byte("test-secret"), "classtrack", time.Hour)
	principal := identity.Principal{ID: "u1", Username: "kim", Role: authz.RoleTeacher}

	raw, err := issuer.Issue(principal)
	require.NoError(t, err)

	got, err := issuer.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, principal, got)
}

func TestTokenVerifyRejectsWrongSecret(t *testing.T) {
	issuer := identity.NewTokenIssuer([]byte("test-secret"), "classtrack", time.Hour)
	raw, err := issuer.Issue(identity.Principal{ID: "u1", Role: authz.RoleStaff})
	require.NoError(t, err)

	other := identity.NewTokenIssuer([]byte("different-secret"), "classtrack", time.Hour)
	_, err = other.Verify(raw)
	assert.ErrorIs(t, err, identity.ErrInvalidToken)
}

func TestTokenVerifyRejectsWrongIssuer(t *testing.T) {
	issuer := identity.NewTokenIssuer([]byte("test-secret"), "someone-else", time.Hour)
	raw, err := issuer.Issue(identity.Principal{ID: "u1", Role: authz.RoleStaff})
	require.NoError(t, err)

	verifier := identity.NewTokenIssuer([]byte("test-secret"), "classtrack", time.Hour)
	_, err = verifier.Verify(raw)
	assert.ErrorIs(t, err, identity.ErrInvalidToken)
}

func TestTokenVerifyRejectsExpired(t *testing.T) {
	issuer := identity.NewTokenIssuer([]byte("test-secret"), "classtrack", -time.Minute)
	raw, err := issuer.Issue(identity.Principal{ID: "u1", Role: authz.RoleStaff})
	require.NoError(t, err)

	_, err = issuer.Verify(raw)
	assert.ErrorIs(t, err, identity.ErrInvalidToken)
}

func TestTokenVerifyRejectsGarbage(t *testing.T) {
	issuer := identity.NewTokenIssuer([]byte("test-secret"), "classtrack", time.Hour)
	_, err := issuer.Verify("not.a.token")
	assert.ErrorIs(t, err, identity.ErrInvalidToken)
}
