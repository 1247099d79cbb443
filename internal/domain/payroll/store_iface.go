package payroll

import (
	"context"
	"time"
)

type StoreAPI interface {
	ListAttendance(ctx context.Context, tenantID, employeeID string) ([]AttendanceRecord, error)
	ListApprovedLeaves(ctx context.Context, tenantID, employeeID string) ([]LeaveRequest, error)
	CreateSalaryRecord(ctx context.Context, tenantID string, record SalaryRecord) (string, error)
	GetSalaryRecord(ctx context.Context, tenantID, id string) (SalaryRecord, error)
	UpdateSalaryRecord(ctx context.Context, tenantID string, record SalaryRecord) error
	DeleteSalaryRecord(ctx context.Context, tenantID, id string) error
	UpdateSalaryStatus(ctx context.Context, tenantID, id, status string) error
	CountSalaryRecords(ctx context.Context, tenantID string, filter SalaryRecordFilter) (int, error)
	ListSalaryRecords(ctx context.Context, tenantID string, filter SalaryRecordFilter, limit, offset int) ([]SalaryRecord, error)
	ListSalaryRecordsForMonth(ctx context.Context, tenantID string, month time.Time) ([]SalaryRecord, error)
	CreateJobRun(ctx context.Context, tenantID, jobType string) (string, error)
	UpdateJobRun(ctx context.Context, runID, status string, detailsJSON []byte) error
}

// StatementCache stores generated statements. Entries for an employee are
// dropped by Invalidate whenever their attendance or leave changes.
type StatementCache interface {
	// Get also returns the employee's cache version it read. Put stores under
	// key.Version, so a result computed across an Invalidate lands under a
	// version that is no longer read.
	Get(ctx context.Context, key StatementKey) (StatementResult, int64, bool, error)
	Put(ctx context.Context, key StatementKey, result StatementResult) error
	Invalidate(ctx context.Context, tenantID, employeeID string) error
}

type StatementKey struct {
	TenantID   string
	EmployeeID string
	RecordID   string
	Year       int
	Month      int
	Version    int64
}
