package payroll

import "time"

type AttendanceRecord struct {
	EmployeeID string    `json:"employeeId,omitempty" yaml:"employeeId"`
	Date       time.Time `json:"date" yaml:"date"`
	Status     string    `json:"status" yaml:"status"`
}

type LeaveRequest struct {
	EmployeeID string    `json:"employeeId,omitempty" yaml:"employeeId"`
	FromDate   time.Time `json:"fromDate" yaml:"fromDate"`
	ToDate     time.Time `json:"toDate" yaml:"toDate"`
	Days       float64   `json:"days" yaml:"days"`
	Status     string    `json:"status,omitempty" yaml:"status"`
}

type Compensation struct {
	BasicSalary float64 `json:"basicSalary" yaml:"basicSalary"`
	Allowances  float64 `json:"allowances" yaml:"allowances"`
	Deductions  float64 `json:"deductions" yaml:"deductions"`
}

// PeriodSpec is an inclusive calendar-day range. Callers guarantee End >= Start.
type PeriodSpec struct {
	Start time.Time `json:"startDate" yaml:"startDate"`
	End   time.Time `json:"endDate" yaml:"endDate"`
}

type PeriodCounts struct {
	WorkingDays int     `json:"workingDays"`
	PresentDays int     `json:"presentDays"`
	LeaveDays   float64 `json:"leaveDays"`
}

type ProRataResult struct {
	WorkingDays   int     `json:"workingDays"`
	PresentDays   int     `json:"presentDays"`
	AdjustedBasic float64 `json:"adjustedBasic"`
	NetSalary     float64 `json:"netSalary"`
}

type StatementInput struct {
	EmployeeID   string
	Compensation Compensation
	NetSalary    float64
	PayDate      time.Time
	Attendance   []AttendanceRecord
}

type StatementResult struct {
	EmployeeID       string    `json:"employeeId,omitempty"`
	PayDate          time.Time `json:"payDate"`
	Month            int       `json:"month"`
	Year             int       `json:"year"`
	TotalDays        int       `json:"totalDays"`
	PresentDays      int       `json:"presentDays"`
	AbsentDays       int       `json:"absentDays"`
	HalfDays         int       `json:"halfDays"`
	LateDays         int       `json:"lateDays"`
	EffectivePresent float64   `json:"effectivePresent"`
	DayRate          float64   `json:"dayRate"`
	LeaveCuts        float64   `json:"leaveCuts"`
	Basic            float64   `json:"basic"`
	Allowances       float64   `json:"allowances"`
	Deductions       float64   `json:"deductions"`
	GrossEarnings    float64   `json:"grossEarnings"`
	TotalDeductions  float64   `json:"totalDeductions"`
	NetSalary        float64   `json:"netSalary"`
	PayableSalary    float64   `json:"payableSalary"`
}

// SalaryRecord is the persisted salary entry.
//
// WorkingDays, PresentDays and NetSalary are derived snapshots taken at
// DerivedAt. They are not live: later attendance corrections do not change
// them until an edit touches the date range.
type SalaryRecord struct {
	ID          string    `json:"id"`
	EmployeeID  string    `json:"employeeId"`
	BasicSalary float64   `json:"basicSalary"`
	Allowances  float64   `json:"allowances"`
	Deductions  float64   `json:"deductions"`
	PayDate     time.Time `json:"payDate"`
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate"`
	WorkingDays int       `json:"workingDays"`
	PresentDays int       `json:"presentDays"`
	NetSalary   float64   `json:"netSalary"`
	Status      string    `json:"status"`
	DerivedAt   time.Time `json:"derivedAt"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (r SalaryRecord) Compensation() Compensation {
	return Compensation{BasicSalary: r.BasicSalary, Allowances: r.Allowances, Deductions: r.Deductions}
}

type SalaryRecordInput struct {
	EmployeeID  string
	BasicSalary float64
	Allowances  float64
	Deductions  float64
	PayDate     time.Time
	StartDate   time.Time
	EndDate     time.Time

	// PresentDays nil takes the attendance count for the period. A non-nil
	// empty count means full attendance.
	PresentDays *DayCount
}

// SalaryRecordPatch holds edit-form changes; nil fields are untouched.
// A patch that moves the period with PresentDays nil re-derives present days
// from attendance.
type SalaryRecordPatch struct {
	BasicSalary *float64
	Allowances  *float64
	Deductions  *float64
	PayDate     *time.Time
	StartDate   *time.Time
	EndDate     *time.Time
	PresentDays *DayCount
}

func (p SalaryRecordPatch) TouchesPeriod() bool {
	return p.StartDate != nil || p.EndDate != nil
}

type SalaryRecordFilter struct {
	EmployeeID string
	Status     string
	PayMonth   time.Time
}
