package payroll

import (
	"math"
	"strings"
	"time"
)

// ResolvePeriod turns attendance and leave rows into day counts for an
// inclusive period.
//
// WorkingDays is a plain calendar-day count and is not clamped here.
// PresentDays counts every attendance row in range whatever its status.
// LeaveDays sums the stored Days of approved leaves whose start or end falls
// in range; it is informational and does not reduce PresentDays.
func ResolvePeriod(employeeID string, period PeriodSpec, attendance []AttendanceRecord, leaves []LeaveRequest) PeriodCounts {
	start := calendarDay(period.Start)
	end := calendarDay(period.End)

	counts := PeriodCounts{
		WorkingDays: int(math.Floor(end.Sub(start).Hours()/24)) + 1,
	}

	for _, row := range attendance {
		if !belongsTo(row.EmployeeID, employeeID) {
			continue
		}
		if inRange(calendarDay(row.Date), start, end) {
			counts.PresentDays++
		}
	}

	for _, leave := range leaves {
		if !belongsTo(leave.EmployeeID, employeeID) || !leaveApproved(leave.Status) {
			continue
		}
		if inRange(calendarDay(leave.FromDate), start, end) || inRange(calendarDay(leave.ToDate), start, end) {
			counts.LeaveDays += leave.Days
		}
	}

	return counts
}

func calendarDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func inRange(day, start, end time.Time) bool {
	return !day.Before(start) && !day.After(end)
}

// Rows without an employee id come from a per-employee read and always match.
func belongsTo(rowEmployeeID, employeeID string) bool {
	return rowEmployeeID == "" || employeeID == "" || rowEmployeeID == employeeID
}

func leaveApproved(status string) bool {
	status = strings.TrimSpace(status)
	return status == "" || strings.EqualFold(status, LeaveStatusApproved)
}
