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

package authz

// -----------------------------------------------------------------------------
// Role Name Constants
// These are the canonical names for roles stored in the database.
// -----------------------------------------------------------------------------

const (
	// RoleMaster is the academy owner role. It bypasses category-access
	// filtering entirely; the bypass is derived from the role name alone
	// and is intentionally not configurable per user.
	RoleMaster = "master"

	// RoleTeacher is the default instructor role.
	RoleTeacher = "teacher"

	// RoleStaff is the front-desk staff role.
	RoleStaff = "staff"
)

// -----------------------------------------------------------------------------
// Permission Key Constants
// These match the keys seeded in 001_initial_schema.up.sql.
// -----------------------------------------------------------------------------

const (
	// Tab permissions gate whole sections of the application.
	PermTabAttendance = "tabs.attendance"
	PermTabCourses    = "tabs.courses"
	PermTabNotices    = "tabs.notices"
	PermTabCalendar   = "tabs.calendar"
	PermTabSettings   = "tabs.settings"

	// Button permissions gate individual actions within a tab.
	PermButtonAttendanceEdit   = "buttons.attendance.edit"
	PermButtonCourseConfigEdit = "buttons.course-config.edit"
	PermButtonNoticePublish    = "buttons.notice.publish"
	PermButtonPermissionManage = "buttons.permission.manage"
)

// lockedKeys are permission keys that can only be satisfied through role
// grants. Stored per-user overrides for these keys are accepted by the
// administrative API but ignored at resolution time, never deleted.
var lockedKeys = map[string]struct{}{
	PermTabSettings:            {},
	PermButtonPermissionManage: {},
}

// IsLockedKey reports whether per-user overrides are inert for key.
func IsLockedKey(key string) bool {
	_, ok := lockedKeys[key]
	return ok
}

// DefaultRoleGrants defines the permissions seeded per role. Used for
// seeding and validation, the database remains the source of truth.
var DefaultRoleGrants = map[string][]string{
	RoleMaster: {
		PermTabAttendance,
		PermTabCourses,
		PermTabNotices,
		PermTabCalendar,
		PermTabSettings,
		PermButtonAttendanceEdit,
		PermButtonCourseConfigEdit,
		PermButtonNoticePublish,
		PermButtonPermissionManage,
	},
	RoleTeacher: {
		PermTabAttendance,
		PermTabCourses,
		PermTabCalendar,
		PermButtonAttendanceEdit,
	},
	RoleStaff: {
		PermTabAttendance,
		PermTabNotices,
		PermTabCalendar,
		PermButtonNoticePublish,
	},
}
