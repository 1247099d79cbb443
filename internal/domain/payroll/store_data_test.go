package payroll

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"bizdash/internal/platform/db"
)

func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)
	if err := db.Migrate(ctx, pool, filepath.Join("..", "..", "..", "migrations")); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return pool
}

func TestStoreSalaryRecordLifecycle(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	store := NewStore(pool)
	tenantID := "tenant-" + uuid.NewString()
	employeeID := "emp-" + uuid.NewString()

	for i := 1; i <= 3; i++ {
		if _, err := pool.Exec(ctx, "INSERT INTO attendance_records (tenant_id, employee_id, date, status) VALUES ($1,$2,$3,$4)",
			tenantID, employeeID, day(2025, 3, i), AttendancePresent); err != nil {
			t.Fatalf("seed attendance: %v", err)
		}
	}
	if _, err := pool.Exec(ctx, "INSERT INTO leave_requests (tenant_id, employee_id, from_date, to_date, days, status) VALUES ($1,$2,$3,$4,$5,$6)",
		tenantID, employeeID, day(2025, 3, 10), day(2025, 3, 11), 2, LeaveStatusApproved); err != nil {
		t.Fatalf("seed leave: %v", err)
	}

	svc := NewService(store, nil, nil)
	counts, err := svc.ResolveAttendance(ctx, tenantID, employeeID, PeriodSpec{Start: day(2025, 3, 1), End: day(2025, 3, 31)})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if counts.PresentDays != 3 || counts.LeaveDays != 2 || counts.WorkingDays != 31 {
		t.Fatalf("unexpected counts: %+v", counts)
	}

	record, err := svc.CreateSalaryRecord(ctx, tenantID, SalaryRecordInput{
		EmployeeID:  employeeID,
		BasicSalary: 31000,
		PayDate:     day(2025, 3, 31),
		StartDate:   day(2025, 3, 1),
		EndDate:     day(2025, 3, 31),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := store.GetSalaryRecord(ctx, tenantID, record.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.PresentDays != 3 || got.NetSalary != 3000 || got.WorkingDays != 31 || got.Status != SalaryStatusPending {
		t.Fatalf("unexpected record: %+v", got)
	}

	records, total, err := svc.ListSalaryRecords(ctx, tenantID, SalaryRecordFilter{EmployeeID: employeeID, PayMonth: day(2025, 3, 1)}, 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 1 || len(records) != 1 {
		t.Fatalf("expected one record, got total=%d len=%d", total, len(records))
	}

	if _, err := svc.MarkPaid(ctx, tenantID, record.ID); err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	if _, err := svc.DeleteSalaryRecord(ctx, tenantID, record.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.GetSalaryRecord(ctx, tenantID, record.ID); !errors.Is(err, ErrSalaryRecordNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestStoreJobRuns(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	store := NewStore(pool)

	runID, err := store.CreateJobRun(ctx, "tenant-"+uuid.NewString(), JobMonthStatements)
	if err != nil {
		t.Fatalf("create run: %v", err)
	}
	if err := store.UpdateJobRun(ctx, runID, "completed", []byte(`{"written":2}`)); err != nil {
		t.Fatalf("update run: %v", err)
	}

	var status string
	var completed *time.Time
	if err := pool.QueryRow(ctx, "SELECT status, completed_at FROM job_runs WHERE id = $1", runID).Scan(&status, &completed); err != nil {
		t.Fatalf("read run: %v", err)
	}
	if status != "completed" || completed == nil {
		t.Fatalf("unexpected run: %s %v", status, completed)
	}
}
