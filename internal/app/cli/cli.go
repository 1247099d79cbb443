// Package cli implements payrollctl. Most commands are an offline front end
// to the payroll engines, reading compensation from flags and attendance from
// YAML fixtures. batch is the exception: it runs the month statement job
// against the configured database.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"bizdash/internal/domain/auth"
	"bizdash/internal/domain/payroll"
	"bizdash/internal/platform/config"
	"bizdash/internal/platform/db"
	"bizdash/internal/platform/jobs"
	"bizdash/internal/transport/http/shared"
)

// Fixture is the YAML shape shared by resolve and statement.
type Fixture struct {
	EmployeeID   string                     `yaml:"employeeId"`
	Compensation payroll.Compensation       `yaml:"compensation"`
	NetSalary    float64                    `yaml:"netSalary"`
	Attendance   []payroll.AttendanceRecord `yaml:"attendance"`
	Leaves       []payroll.LeaveRequest     `yaml:"leaves"`
}

func LoadFixture(path string) (Fixture, error) {
	var fx Fixture
	raw, err := os.ReadFile(path)
	if err != nil {
		return fx, fmt.Errorf("read fixture: %w", err)
	}
	if err := yaml.Unmarshal(raw, &fx); err != nil {
		return fx, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return fx, nil
}

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "payrollctl",
		Short:         "Offline payroll computations",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(proRataCmd(), resolveCmd(), statementCmd(), tokenCmd(), batchCmd())
	return cmd
}

func proRataCmd() *cobra.Command {
	var (
		basic, allowances, deductions string
		workingDays                   int
		presentDays                   string
	)
	cmd := &cobra.Command{
		Use:   "prorata",
		Short: "Compute a pro-rata net salary for an explicit period",
		RunE: func(cmd *cobra.Command, args []string) error {
			comp := payroll.Compensation{
				BasicSalary: payroll.CoerceAmount(basic),
				Allowances:  payroll.CoerceAmount(allowances),
				Deductions:  payroll.CoerceAmount(deductions),
			}
			result := payroll.ComputeProRata(comp, workingDays, payroll.ParseDayCount(presentDays))
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringVar(&basic, "basic", "", "basic salary")
	cmd.Flags().StringVar(&allowances, "allowances", "", "allowances")
	cmd.Flags().StringVar(&deductions, "deductions", "", "deductions")
	cmd.Flags().IntVar(&workingDays, "working-days", 0, "working days in the period")
	cmd.Flags().StringVar(&presentDays, "present-days", "", "present days; empty means full attendance")
	return cmd
}

func resolveCmd() *cobra.Command {
	var fixturePath, employeeID, start, end string
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Count working, present and leave days for a period",
		RunE: func(cmd *cobra.Command, args []string) error {
			fx, err := LoadFixture(fixturePath)
			if err != nil {
				return err
			}
			period, err := parsePeriod(start, end)
			if err != nil {
				return err
			}
			counts := payroll.ResolvePeriod(pick(employeeID, fx.EmployeeID), period, fx.Attendance, fx.Leaves)
			return writeJSON(cmd.OutOrStdout(), counts)
		},
	}
	cmd.Flags().StringVarP(&fixturePath, "fixture", "f", "", "YAML fixture with attendance and leaves")
	cmd.Flags().StringVar(&employeeID, "employee", "", "employee id; defaults to the fixture's")
	cmd.Flags().StringVar(&start, "start", "", "period start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "period end (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("fixture")
	return cmd
}

func statementCmd() *cobra.Command {
	var fixturePath, employeeID, payDate, pdfPath string
	cmd := &cobra.Command{
		Use:   "statement",
		Short: "Build the monthly statement for a pay date",
		RunE: func(cmd *cobra.Command, args []string) error {
			fx, err := LoadFixture(fixturePath)
			if err != nil {
				return err
			}
			date, err := shared.ParseDate(payDate)
			if err != nil || date.IsZero() {
				return fmt.Errorf("--pay-date must be a YYYY-MM-DD date")
			}
			employee := pick(employeeID, fx.EmployeeID)
			result := payroll.GenerateStatement(payroll.StatementInput{
				EmployeeID:   employee,
				Compensation: fx.Compensation,
				NetSalary:    fx.NetSalary,
				PayDate:      date,
				Attendance:   fx.Attendance,
			})
			if pdfPath != "" {
				if err := writePDF(pdfPath, employee, fx, result); err != nil {
					return err
				}
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringVarP(&fixturePath, "fixture", "f", "", "YAML fixture with compensation and attendance")
	cmd.Flags().StringVar(&employeeID, "employee", "", "employee id; defaults to the fixture's")
	cmd.Flags().StringVar(&payDate, "pay-date", "", "pay date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&pdfPath, "pdf", "", "also write the statement PDF to this path")
	_ = cmd.MarkFlagRequired("fixture")
	_ = cmd.MarkFlagRequired("pay-date")
	return cmd
}

func tokenCmd() *cobra.Command {
	var secret, userID, tenantID, role string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development bearer token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				secret = os.Getenv("JWT_SECRET")
			}
			if secret == "" {
				return fmt.Errorf("--secret or JWT_SECRET is required")
			}
			token, err := auth.GenerateToken(secret, auth.Claims{UserID: userID, TenantID: tenantID, RoleName: role}, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVar(&secret, "secret", "", "signing secret; defaults to JWT_SECRET")
	cmd.Flags().StringVar(&userID, "user", "dev-user", "user id claim")
	cmd.Flags().StringVar(&tenantID, "tenant", "", "tenant id claim")
	cmd.Flags().StringVar(&role, "role", auth.RoleHR, "role name claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 12*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("tenant")
	return cmd
}

func batchCmd() *cobra.Command {
	var tenantID, monthFlag, dir string
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Write a tenant's statement PDFs for one month and wait for the job",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(tenantID) == "" {
				return fmt.Errorf("--tenant must not be blank")
			}
			month, err := time.Parse("2006-01", monthFlag)
			if err != nil {
				return fmt.Errorf("--month must be YYYY-MM")
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if dir == "" {
				dir = filepath.Join(cfg.StatementDir, tenantID, month.Format("2006-01"))
			}

			ctx := cmd.Context()
			pool, err := db.Connect(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			store := payroll.NewStore(pool)
			svc := payroll.NewService(store, nil, nil)
			details, err := jobs.New(store, 1).RunNow(ctx, payroll.JobMonthStatements, tenantID, func(ctx context.Context) (any, error) {
				written, err := svc.GenerateMonthStatements(ctx, tenantID, month, dir)
				return map[string]any{"month": month.Format("2006-01"), "written": written, "dir": dir}, err
			})
			if err != nil {
				return fmt.Errorf("month statements: %w", err)
			}
			return writeJSON(cmd.OutOrStdout(), details)
		},
	}
	cmd.Flags().StringVar(&tenantID, "tenant", "", "tenant id")
	cmd.Flags().StringVar(&monthFlag, "month", "", "pay month (YYYY-MM)")
	cmd.Flags().StringVar(&dir, "dir", "", "output directory; defaults to STATEMENT_DIR/<tenant>/<month>")
	_ = cmd.MarkFlagRequired("tenant")
	_ = cmd.MarkFlagRequired("month")
	return cmd
}

func parsePeriod(start, end string) (payroll.PeriodSpec, error) {
	from, err := shared.ParseDate(start)
	if err != nil {
		return payroll.PeriodSpec{}, fmt.Errorf("--start: %w", err)
	}
	to, err := shared.ParseDate(end)
	if err != nil {
		return payroll.PeriodSpec{}, fmt.Errorf("--end: %w", err)
	}
	if from.IsZero() || to.IsZero() {
		return payroll.PeriodSpec{}, payroll.ErrPeriodRequired
	}
	if to.Before(from) {
		return payroll.PeriodSpec{}, payroll.ErrInvalidPeriod
	}
	return payroll.PeriodSpec{Start: from, End: to}, nil
}

func writePDF(path, employeeID string, fx Fixture, st payroll.StatementResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create pdf: %w", err)
	}
	record := payroll.SalaryRecord{
		EmployeeID:  employeeID,
		BasicSalary: fx.Compensation.BasicSalary,
		Allowances:  fx.Compensation.Allowances,
		Deductions:  fx.Compensation.Deductions,
		PayDate:     st.PayDate,
		NetSalary:   fx.NetSalary,
	}
	if err := payroll.RenderStatementPDF(f, record, st); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func pick(flag, fallback string) string {
	if flag != "" {
		return flag
	}
	return fallback
}
