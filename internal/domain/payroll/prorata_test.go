package payroll

import (
	"math"
	"testing"
)

func TestComputeProRataFullAttendance(t *testing.T) {
	comp := Compensation{BasicSalary: 30000, Allowances: 2000}
	result := ComputeProRata(comp, 30, Days(30))
	if result.AdjustedBasic != 30000 {
		t.Fatalf("expected adjusted basic 30000, got %v", result.AdjustedBasic)
	}
	if result.NetSalary != 32000 {
		t.Fatalf("expected net 32000, got %v", result.NetSalary)
	}
}

func TestComputeProRataPartialAttendance(t *testing.T) {
	result := ComputeProRata(Compensation{BasicSalary: 30000}, 30, Days(25))
	if result.AdjustedBasic != 25000 || result.NetSalary != 25000 {
		t.Fatalf("expected 25000, got %+v", result)
	}
}

func TestComputeProRataEmptyVersusZero(t *testing.T) {
	comp := Compensation{BasicSalary: 22000, Allowances: 1000, Deductions: 500}

	empty := ComputeProRata(comp, 22, DayCount{})
	if empty.PresentDays != 22 || empty.NetSalary != 22500 {
		t.Fatalf("empty present days should mean full attendance, got %+v", empty)
	}

	zero := ComputeProRata(comp, 22, Days(0))
	if zero.PresentDays != 0 || zero.AdjustedBasic != 0 || zero.NetSalary != 500 {
		t.Fatalf("explicit zero should price no days, got %+v", zero)
	}
}

func TestComputeProRataDivisionSafety(t *testing.T) {
	for _, wd := range []int{0, -4} {
		result := ComputeProRata(Compensation{BasicSalary: 1000}, wd, Days(1))
		if result.WorkingDays != 1 {
			t.Fatalf("expected working days floored to 1, got %d", result.WorkingDays)
		}
		if math.IsNaN(result.NetSalary) || math.IsInf(result.NetSalary, 0) {
			t.Fatalf("expected finite net, got %v", result.NetSalary)
		}
		if result.NetSalary != 1000 {
			t.Fatalf("expected 1000, got %v", result.NetSalary)
		}
	}
}

func TestComputeProRataNegativeNetIsKept(t *testing.T) {
	result := ComputeProRata(Compensation{BasicSalary: 1000, Deductions: 1500}, 10, Days(10))
	if result.NetSalary != -500 {
		t.Fatalf("expected -500, got %v", result.NetSalary)
	}
}

func TestComputeProRataDeterministic(t *testing.T) {
	comp := Compensation{BasicSalary: 31337.77, Allowances: 410.1, Deductions: 99.9}
	first := ComputeProRata(comp, 31, Days(17))
	for i := 0; i < 10; i++ {
		if again := ComputeProRata(comp, 31, Days(17)); again != first {
			t.Fatalf("expected identical results, got %+v and %+v", first, again)
		}
	}
}
