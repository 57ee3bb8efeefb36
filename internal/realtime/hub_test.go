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

package realtime_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/classtrack/classtrack/internal/authz"
	"github.com/classtrack/classtrack/internal/identity"
	"github.com/classtrack/classtrack/internal/realtime"
)

func TestHubRegisterUnregister(t *testing.T) {
	hub := realtime.NewHub()
	assert.Zero(t, hub.Len())

	s := realtime.NewSession("s1", identity.Principal{ID: "u1", Role: authz.RoleTeacher}, true, nil)
	hub.Register(s)
	assert.Equal(t, 1, hub.Len())

	// Re-registering the same id replaces, not duplicates.
	hub.Register(realtime.NewSession("s1", identity.Principal{ID: "u1", Role: authz.RoleTeacher}, false, nil))
	assert.Equal(t, 1, hub.Len())
	assert.False(t, hub.Sessions()[0].AttendanceVisible)

	hub.Unregister("s1")
	assert.Zero(t, hub.Len())

	// Unregistering an unknown id is harmless.
	hub.Unregister("s1")
	assert.Zero(t, hub.Len())
}

func TestHubConcurrentAccess(t *testing.T) {
	hub := realtime.NewHub()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			s := realtime.NewSession(id, identity.Principal{ID: id, Role: authz.RoleStaff}, true, nil)
			hub.Register(s)
			_ = hub.Sessions()
			hub.Unregister(id)
		}(string(rune('a' + i)))
	}
	wg.Wait()

	assert.Zero(t, hub.Len())
}

func TestSessionDeliverNilCallback(t *testing.T) {
	s := realtime.NewSession("s1", identity.Principal{ID: "u1"}, true, nil)
	assert.NotPanics(t, func() {
		s.Deliver(realtime.Envelope{Event: realtime.EventAttendance})
	})
}
