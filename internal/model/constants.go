package model

// ── 角色 ──

const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

// ── 状态枚举 ──

const (
	EnrollmentActive  = "active"
	EnrollmentDropped = "dropped"

	AttendancePresent = "present"
	AttendanceAbsent  = "absent"

	LeavePending  = "pending"
	LeaveApproved = "approved"
	LeaveRejected = "rejected"

	ComplaintOpen     = "open"
	ComplaintResolved = "resolved"

	TimetableSourceManual = "manual"
	TimetableSourceICS    = "ics"
)
