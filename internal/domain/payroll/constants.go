package payroll

const (
	AttendancePresent = "present"
	AttendanceLate    = "late"
	AttendanceHalfDay = "half-day"
	AttendanceAbsent  = "absent"

	LeaveStatusApproved = "Approved"

	SalaryStatusPending = "pending"
	SalaryStatusPaid    = "paid"

	EngineProRata   = "prorata"
	EngineStatement = "statement"

	JobMonthStatements = "payroll_month_statements"

	JobStatusRunning = "running"
)

// halfDayWeight is how much a half-day counts toward statement attendance.
const halfDayWeight = 0.5
