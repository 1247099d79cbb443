package payroll

import "errors"

var (
	ErrSalaryRecordNotFound = errors.New("salary record not found")
	ErrEmployeeRequired     = errors.New("employee is required")
	ErrPayDateRequired      = errors.New("pay date is required")
	ErrPeriodRequired       = errors.New("please select start and end date")
	ErrInvalidPeriod        = errors.New("end date must be on or after start date")
	ErrAlreadyPaid          = errors.New("salary record is already paid")
	ErrInvalidPresentDays   = errors.New("present days must be between 0 and the working days of the period")
)
