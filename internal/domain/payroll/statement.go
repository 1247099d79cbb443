package payroll

import "time"

// GenerateStatement builds the monthly payslip breakdown for the calendar
// month of in.PayDate. It is a separate algorithm from ComputeProRata: it
// always spans the whole month, weights half-days at 0.5 and derives absence
// by subtraction.
func GenerateStatement(in StatementInput) StatementResult {
	year, month, _ := in.PayDate.Date()
	daysInMonth := FloorDays(DaysInMonth(year, month))

	var present, late, halfDays int
	for _, row := range in.Attendance {
		if !belongsTo(row.EmployeeID, in.EmployeeID) {
			continue
		}
		rowYear, rowMonth, _ := row.Date.Date()
		if rowYear != year || rowMonth != month {
			continue
		}
		switch row.Status {
		case AttendancePresent:
			present++
		case AttendanceLate:
			late++
		case AttendanceHalfDay:
			halfDays++
		}
	}

	absent := daysInMonth - (present + late + halfDays)
	if absent < 0 {
		absent = 0
	}

	comp := in.Compensation
	effectivePresent := float64(present+late) + float64(halfDays)*halfDayWeight
	dayRate := comp.BasicSalary / float64(daysInMonth)
	leaveCuts := (float64(daysInMonth) - effectivePresent) * dayRate
	gross := comp.BasicSalary + comp.Allowances
	totalDeductions := leaveCuts + comp.Deductions

	return StatementResult{
		EmployeeID:       in.EmployeeID,
		PayDate:          in.PayDate,
		Month:            int(month),
		Year:             year,
		TotalDays:        daysInMonth,
		PresentDays:      present,
		AbsentDays:       absent,
		HalfDays:         halfDays,
		LateDays:         late,
		EffectivePresent: effectivePresent,
		DayRate:          dayRate,
		LeaveCuts:        leaveCuts,
		Basic:            comp.BasicSalary,
		Allowances:       comp.Allowances,
		Deductions:       comp.Deductions,
		GrossEarnings:    gross,
		TotalDeductions:  totalDeductions,
		NetSalary:        in.NetSalary,
		PayableSalary:    gross - totalDeductions,
	}
}

// DaysInMonth returns the calendar length of month in year.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
