package payroll

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// RenderStatementPDF writes a one-page payslip for record. Money values on the
// page go through DisplayAmount.
func RenderStatementPDF(w io.Writer, record SalaryRecord, st StatementResult) error {
	printer := message.NewPrinter(language.English)
	money := func(v float64) string {
		return printer.Sprintf("%.2f", DisplayAmount(v))
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Salary Statement")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Employee: %s", record.EmployeeID))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Pay date: %s", record.PayDate.Format("2006-01-02")))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Month: %04d-%02d (%d days)", st.Year, st.Month, st.TotalDays))
	pdf.Ln(10)

	row := func(label, value string) {
		pdf.CellFormat(80, 8, label, "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 8, value, "", 1, "R", false, 0, "")
	}

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Attendance")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 12)
	row("Present", fmt.Sprintf("%d", st.PresentDays))
	row("Late", fmt.Sprintf("%d", st.LateDays))
	row("Half days", fmt.Sprintf("%d", st.HalfDays))
	row("Absent", fmt.Sprintf("%d", st.AbsentDays))
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Earnings")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 12)
	row("Basic", money(st.Basic))
	row("Allowances", money(st.Allowances))
	row("Gross earnings", money(st.GrossEarnings))
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Deductions")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 12)
	row("Day rate", money(st.DayRate))
	row("Leave cuts", money(st.LeaveCuts))
	row("Other deductions", money(st.Deductions))
	row("Total deductions", money(st.TotalDeductions))
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	row("Payable salary", money(st.PayableSalary))
	pdf.SetFont("Helvetica", "", 10)
	row("Recorded net salary", money(st.NetSalary))

	return pdf.Output(w)
}
