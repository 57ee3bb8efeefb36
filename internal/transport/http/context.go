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

package http

import (
	"context"

	"github.com/classtrack/classtrack/internal/authz"
	"github.com/classtrack/classtrack/internal/identity"
)

type contextKey string

const (
	principalKey contextKey = "principal"
	permCacheKey contextKey = "perm_cache"
)

// GetPrincipal retrieves the authenticated principal from context.
func GetPrincipal(ctx context.Context) (identity.Principal, bool) {
	p, ok := ctx.Value(principalKey).(identity.Principal)
	return p, ok
}

// GetPermissionCache retrieves the request-scoped permission cache from
// context. The cache is created once per request by the auth middleware
// so repeated permission checks within one request hit storage once.
func GetPermissionCache(ctx context.Context) *authz.Cache {
	if c, ok := ctx.Value(permCacheKey).(*authz.Cache); ok {
		return c
	}
	return nil
}

func withPrincipal(ctx context.Context, p identity.Principal) context.Context {
	ctx = context.WithValue(ctx, principalKey, p)
	return context.WithValue(ctx, permCacheKey, authz.NewCache())
}
