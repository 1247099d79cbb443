package payroll

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

const salaryRecordColumns = `
    id, employee_id, basic_salary, allowances, deductions,
    pay_date, start_date, end_date, working_days, present_days,
    net_salary, status, derived_at, created_at, updated_at`

func (s *Store) ListAttendance(ctx context.Context, tenantID, employeeID string) ([]AttendanceRecord, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT employee_id, date, status
    FROM attendance_records
    WHERE tenant_id = $1 AND employee_id = $2
    ORDER BY date
  `, tenantID, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AttendanceRecord
	for rows.Next() {
		var row AttendanceRecord
		if err := rows.Scan(&row.EmployeeID, &row.Date, &row.Status); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (s *Store) ListApprovedLeaves(ctx context.Context, tenantID, employeeID string) ([]LeaveRequest, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT employee_id, from_date, to_date, days, status
    FROM leave_requests
    WHERE tenant_id = $1 AND employee_id = $2 AND status = $3
    ORDER BY from_date
  `, tenantID, employeeID, LeaveStatusApproved)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LeaveRequest
	for rows.Next() {
		var leave LeaveRequest
		if err := rows.Scan(&leave.EmployeeID, &leave.FromDate, &leave.ToDate, &leave.Days, &leave.Status); err != nil {
			return nil, err
		}
		out = append(out, leave)
	}
	return out, rows.Err()
}

func (s *Store) CreateSalaryRecord(ctx context.Context, tenantID string, record SalaryRecord) (string, error) {
	var id string
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO salary_records (
      tenant_id, employee_id, basic_salary, allowances, deductions,
      pay_date, start_date, end_date, working_days, present_days,
      net_salary, status, derived_at
    )
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
    RETURNING id
  `, tenantID, record.EmployeeID, record.BasicSalary, record.Allowances, record.Deductions,
		record.PayDate, record.StartDate, record.EndDate, record.WorkingDays, record.PresentDays,
		record.NetSalary, record.Status, record.DerivedAt).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) GetSalaryRecord(ctx context.Context, tenantID, id string) (SalaryRecord, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT `+salaryRecordColumns+`
    FROM salary_records
    WHERE tenant_id = $1 AND id = $2
  `, tenantID, id)
	record, err := scanSalaryRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return SalaryRecord{}, ErrSalaryRecordNotFound
	}
	return record, err
}

func (s *Store) UpdateSalaryRecord(ctx context.Context, tenantID string, record SalaryRecord) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE salary_records
    SET basic_salary = $3, allowances = $4, deductions = $5,
        pay_date = $6, start_date = $7, end_date = $8,
        working_days = $9, present_days = $10, net_salary = $11,
        derived_at = $12, updated_at = now()
    WHERE tenant_id = $1 AND id = $2
  `, tenantID, record.ID, record.BasicSalary, record.Allowances, record.Deductions,
		record.PayDate, record.StartDate, record.EndDate,
		record.WorkingDays, record.PresentDays, record.NetSalary, record.DerivedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSalaryRecordNotFound
	}
	return nil
}

func (s *Store) DeleteSalaryRecord(ctx context.Context, tenantID, id string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM salary_records WHERE tenant_id = $1 AND id = $2", tenantID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSalaryRecordNotFound
	}
	return nil
}

func (s *Store) UpdateSalaryStatus(ctx context.Context, tenantID, id, status string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE salary_records SET status = $3, updated_at = now()
    WHERE tenant_id = $1 AND id = $2
  `, tenantID, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSalaryRecordNotFound
	}
	return nil
}

func (s *Store) CountSalaryRecords(ctx context.Context, tenantID string, filter SalaryRecordFilter) (int, error) {
	where, args := salaryRecordWhere(tenantID, filter)
	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM salary_records WHERE "+where, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) ListSalaryRecords(ctx context.Context, tenantID string, filter SalaryRecordFilter, limit, offset int) ([]SalaryRecord, error) {
	where, args := salaryRecordWhere(tenantID, filter)
	query := "SELECT " + salaryRecordColumns + " FROM salary_records WHERE " + where +
		" ORDER BY pay_date DESC, created_at DESC" +
		" LIMIT $" + strconv.Itoa(len(args)+1) + " OFFSET $" + strconv.Itoa(len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SalaryRecord
	for rows.Next() {
		record, err := scanSalaryRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

func (s *Store) ListSalaryRecordsForMonth(ctx context.Context, tenantID string, month time.Time) ([]SalaryRecord, error) {
	first := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	rows, err := s.DB.Query(ctx, `
    SELECT `+salaryRecordColumns+`
    FROM salary_records
    WHERE tenant_id = $1 AND pay_date >= $2 AND pay_date < $3
    ORDER BY employee_id
  `, tenantID, first, first.AddDate(0, 1, 0))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SalaryRecord
	for rows.Next() {
		record, err := scanSalaryRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

func (s *Store) CreateJobRun(ctx context.Context, tenantID, jobType string) (string, error) {
	var runID string
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO job_runs (tenant_id, job_type, status)
    VALUES ($1,$2,$3)
    RETURNING id
  `, tenantID, jobType, JobStatusRunning).Scan(&runID); err != nil {
		return "", err
	}
	return runID, nil
}

func (s *Store) UpdateJobRun(ctx context.Context, runID, status string, detailsJSON []byte) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE job_runs SET status = $1, details_json = $2, completed_at = now()
    WHERE id = $3
  `, status, detailsJSON, runID)
	return err
}

func scanSalaryRecord(row pgx.Row) (SalaryRecord, error) {
	var record SalaryRecord
	err := row.Scan(
		&record.ID, &record.EmployeeID, &record.BasicSalary, &record.Allowances, &record.Deductions,
		&record.PayDate, &record.StartDate, &record.EndDate, &record.WorkingDays, &record.PresentDays,
		&record.NetSalary, &record.Status, &record.DerivedAt, &record.CreatedAt, &record.UpdatedAt,
	)
	return record, err
}

func salaryRecordWhere(tenantID string, filter SalaryRecordFilter) (string, []any) {
	clauses := []string{"tenant_id = $1"}
	args := []any{tenantID}
	if filter.EmployeeID != "" {
		args = append(args, filter.EmployeeID)
		clauses = append(clauses, "employee_id = $"+strconv.Itoa(len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		clauses = append(clauses, "status = $"+strconv.Itoa(len(args)))
	}
	if !filter.PayMonth.IsZero() {
		first := time.Date(filter.PayMonth.Year(), filter.PayMonth.Month(), 1, 0, 0, 0, 0, time.UTC)
		args = append(args, first, first.AddDate(0, 1, 0))
		clauses = append(clauses, "pay_date >= $"+strconv.Itoa(len(args)-1)+" AND pay_date < $"+strconv.Itoa(len(args)))
	}
	return strings.Join(clauses, " AND "), args
}
