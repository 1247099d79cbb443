package payroll

// ComputeProRata scales the basic salary by attendance for an explicit period
// and adds allowances less deductions. The result is not clamped; a negative
// net salary is stored as is.
func ComputeProRata(comp Compensation, workingDays int, presentDays DayCount) ProRataResult {
	workingDays = FloorDays(workingDays)
	present := ResolvePresentDays(presentDays, workingDays)

	adjustedBasic := (comp.BasicSalary / float64(workingDays)) * float64(present)
	return ProRataResult{
		WorkingDays:   workingDays,
		PresentDays:   present,
		AdjustedBasic: adjustedBasic,
		NetSalary:     adjustedBasic + comp.Allowances - comp.Deductions,
	}
}
