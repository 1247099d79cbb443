package payroll

import (
	"testing"
	"time"
)

func statusRows(month time.Month, statuses map[string]int) []AttendanceRecord {
	var rows []AttendanceRecord
	d := 1
	for status, n := range statuses {
		for i := 0; i < n; i++ {
			rows = append(rows, AttendanceRecord{Date: day(2025, month, d), Status: status})
			d++
		}
	}
	return rows
}

func TestGenerateStatementWorkedExample(t *testing.T) {
	rows := statusRows(time.June, map[string]int{
		AttendancePresent: 20,
		AttendanceLate:    2,
		AttendanceHalfDay: 2,
	})
	result := GenerateStatement(StatementInput{
		EmployeeID:   "e1",
		Compensation: Compensation{BasicSalary: 30000},
		NetSalary:    29000,
		PayDate:      day(2025, 6, 28),
		Attendance:   rows,
	})

	if result.TotalDays != 30 {
		t.Fatalf("expected 30 days, got %d", result.TotalDays)
	}
	if result.DayRate != 1000 {
		t.Fatalf("expected day rate 1000, got %v", result.DayRate)
	}
	if result.EffectivePresent != 23 {
		t.Fatalf("expected effective present 23, got %v", result.EffectivePresent)
	}
	if result.LeaveCuts != 7000 {
		t.Fatalf("expected leave cuts 7000, got %v", result.LeaveCuts)
	}
	if result.AbsentDays != 6 {
		t.Fatalf("expected 6 absent days, got %d", result.AbsentDays)
	}
	if result.PayableSalary != 23000 {
		t.Fatalf("expected payable 23000, got %v", result.PayableSalary)
	}
	if result.NetSalary != 29000 {
		t.Fatalf("expected recorded net to pass through, got %v", result.NetSalary)
	}
}

func TestGenerateStatementFiltersMonthAndEmployee(t *testing.T) {
	rows := []AttendanceRecord{
		{EmployeeID: "e1", Date: day(2024, 2, 1), Status: AttendancePresent},
		{EmployeeID: "e1", Date: day(2025, 1, 31), Status: AttendancePresent},
		{EmployeeID: "e1", Date: day(2025, 2, 3), Status: AttendancePresent},
		{EmployeeID: "e2", Date: day(2025, 2, 4), Status: AttendancePresent},
		{EmployeeID: "e1", Date: day(2025, 2, 5), Status: AttendanceAbsent},
		{EmployeeID: "e1", Date: day(2025, 3, 1), Status: AttendanceLate},
	}
	result := GenerateStatement(StatementInput{
		EmployeeID:   "e1",
		Compensation: Compensation{BasicSalary: 28000, Allowances: 500, Deductions: 100},
		PayDate:      day(2025, 2, 27),
		Attendance:   rows,
	})
	if result.TotalDays != 28 {
		t.Fatalf("expected 28 days, got %d", result.TotalDays)
	}
	if result.PresentDays != 1 || result.LateDays != 0 || result.HalfDays != 0 {
		t.Fatalf("unexpected counts: %+v", result)
	}
	if result.AbsentDays != 27 {
		t.Fatalf("expected 27 absent days, got %d", result.AbsentDays)
	}
	if result.GrossEarnings != 28500 {
		t.Fatalf("expected gross 28500, got %v", result.GrossEarnings)
	}
	if result.TotalDeductions != 27*1000+100 {
		t.Fatalf("unexpected total deductions %v", result.TotalDeductions)
	}
}

func TestGenerateStatementNegativePayable(t *testing.T) {
	result := GenerateStatement(StatementInput{
		Compensation: Compensation{BasicSalary: 31000, Deductions: 5000},
		PayDate:      day(2025, 7, 15),
	})
	if result.PayableSalary != -5000 {
		t.Fatalf("expected raw payable -5000, got %v", result.PayableSalary)
	}
	if DisplayAmount(result.PayableSalary) != 0 {
		t.Fatal("expected display payable clamped to 0")
	}
}

func TestGenerateStatementAbsentNeverNegative(t *testing.T) {
	var rows []AttendanceRecord
	for i := 0; i < 35; i++ {
		rows = append(rows, AttendanceRecord{Date: day(2025, 4, 1+i%30), Status: AttendancePresent})
	}
	result := GenerateStatement(StatementInput{Compensation: Compensation{BasicSalary: 3000}, PayDate: day(2025, 4, 30), Attendance: rows})
	if result.AbsentDays != 0 {
		t.Fatalf("expected absent clamped to 0, got %d", result.AbsentDays)
	}
}

func TestDaysInMonth(t *testing.T) {
	if DaysInMonth(2024, time.February) != 29 || DaysInMonth(2025, time.February) != 28 || DaysInMonth(2025, time.December) != 31 {
		t.Fatal("unexpected days in month")
	}
}
