package payroll

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// Recorder receives one observation per engine invocation.
type Recorder interface {
	ObserveComputation(engine string, net float64)
}

type Service struct {
	store    StoreAPI
	cache    StatementCache
	recorder Recorder
	now      func() time.Time
}

func NewService(store StoreAPI, cache StatementCache, recorder Recorder) *Service {
	return &Service{store: store, cache: cache, recorder: recorder, now: time.Now}
}

// ResolveAttendance reads the employee's attendance and approved leaves and
// counts them over period.
func (s *Service) ResolveAttendance(ctx context.Context, tenantID, employeeID string, period PeriodSpec) (PeriodCounts, error) {
	if strings.TrimSpace(employeeID) == "" {
		return PeriodCounts{}, ErrEmployeeRequired
	}
	if err := validatePeriod(period); err != nil {
		return PeriodCounts{}, err
	}

	var attendance []AttendanceRecord
	var leaves []LeaveRequest
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := s.store.ListAttendance(gctx, tenantID, employeeID)
		if err != nil {
			return fmt.Errorf("list attendance: %w", err)
		}
		attendance = rows
		return nil
	})
	g.Go(func() error {
		rows, err := s.store.ListApprovedLeaves(gctx, tenantID, employeeID)
		if err != nil {
			return fmt.Errorf("list leaves: %w", err)
		}
		leaves = rows
		return nil
	})
	if err := g.Wait(); err != nil {
		return PeriodCounts{}, err
	}

	return ResolvePeriod(employeeID, period, attendance, leaves), nil
}

// PreviewProRata runs the pro-rata engine without persisting anything.
func (s *Service) PreviewProRata(comp Compensation, workingDays int, presentDays DayCount) ProRataResult {
	result := ComputeProRata(comp, workingDays, presentDays)
	s.observe(EngineProRata, result.NetSalary)
	return result
}

// CreateSalaryRecord resolves the period, prices it with the pro-rata engine
// and stores the derived fields as a frozen snapshot.
func (s *Service) CreateSalaryRecord(ctx context.Context, tenantID string, in SalaryRecordInput) (SalaryRecord, error) {
	if strings.TrimSpace(in.EmployeeID) == "" {
		return SalaryRecord{}, ErrEmployeeRequired
	}
	if in.PayDate.IsZero() {
		return SalaryRecord{}, ErrPayDateRequired
	}
	period := PeriodSpec{Start: in.StartDate, End: in.EndDate}
	counts, err := s.ResolveAttendance(ctx, tenantID, in.EmployeeID, period)
	if err != nil {
		return SalaryRecord{}, err
	}

	present := attendancePresent(counts)
	if in.PresentDays != nil {
		present = *in.PresentDays
	}
	if err := checkPresentDays(present, counts.WorkingDays); err != nil {
		return SalaryRecord{}, err
	}
	comp := Compensation{BasicSalary: in.BasicSalary, Allowances: in.Allowances, Deductions: in.Deductions}
	result := s.PreviewProRata(comp, counts.WorkingDays, present)

	record := SalaryRecord{
		EmployeeID:  in.EmployeeID,
		BasicSalary: comp.BasicSalary,
		Allowances:  comp.Allowances,
		Deductions:  comp.Deductions,
		PayDate:     calendarDay(in.PayDate),
		StartDate:   calendarDay(in.StartDate),
		EndDate:     calendarDay(in.EndDate),
		WorkingDays: result.WorkingDays,
		PresentDays: result.PresentDays,
		NetSalary:   result.NetSalary,
		Status:      SalaryStatusPending,
		DerivedAt:   s.now().UTC(),
	}
	id, err := s.store.CreateSalaryRecord(ctx, tenantID, record)
	if err != nil {
		return SalaryRecord{}, fmt.Errorf("create salary record: %w", err)
	}
	record.ID = id
	return record, nil
}

// UpdateSalaryRecord applies an edit. Working and present days are only
// re-derived from attendance when the patch touches the date range; the net
// salary is always recomputed from the resulting inputs.
func (s *Service) UpdateSalaryRecord(ctx context.Context, tenantID, id string, patch SalaryRecordPatch) (SalaryRecord, error) {
	record, err := s.store.GetSalaryRecord(ctx, tenantID, id)
	if err != nil {
		return SalaryRecord{}, err
	}
	if record.Status == SalaryStatusPaid {
		return SalaryRecord{}, ErrAlreadyPaid
	}

	if patch.BasicSalary != nil {
		record.BasicSalary = *patch.BasicSalary
	}
	if patch.Allowances != nil {
		record.Allowances = *patch.Allowances
	}
	if patch.Deductions != nil {
		record.Deductions = *patch.Deductions
	}
	if patch.PayDate != nil {
		record.PayDate = calendarDay(*patch.PayDate)
	}

	workingDays := record.WorkingDays
	present := Days(record.PresentDays)
	rederived := false
	if patch.TouchesPeriod() {
		if patch.StartDate != nil {
			record.StartDate = *patch.StartDate
		}
		if patch.EndDate != nil {
			record.EndDate = *patch.EndDate
		}
		counts, err := s.ResolveAttendance(ctx, tenantID, record.EmployeeID, PeriodSpec{Start: record.StartDate, End: record.EndDate})
		if err != nil {
			return SalaryRecord{}, err
		}
		record.StartDate = calendarDay(record.StartDate)
		record.EndDate = calendarDay(record.EndDate)
		workingDays = counts.WorkingDays
		present = attendancePresent(counts)
		rederived = true
	}
	if patch.PresentDays != nil {
		present = *patch.PresentDays
		rederived = true
	}
	if err := checkPresentDays(present, workingDays); err != nil {
		return SalaryRecord{}, err
	}

	result := s.PreviewProRata(record.Compensation(), workingDays, present)
	record.WorkingDays = result.WorkingDays
	record.PresentDays = result.PresentDays
	record.NetSalary = result.NetSalary
	if rederived {
		record.DerivedAt = s.now().UTC()
	}

	if err := s.store.UpdateSalaryRecord(ctx, tenantID, record); err != nil {
		return SalaryRecord{}, err
	}
	s.invalidate(ctx, tenantID, record.EmployeeID)
	return record, nil
}

func (s *Service) GetSalaryRecord(ctx context.Context, tenantID, id string) (SalaryRecord, error) {
	return s.store.GetSalaryRecord(ctx, tenantID, id)
}

func (s *Service) ListSalaryRecords(ctx context.Context, tenantID string, filter SalaryRecordFilter, limit, offset int) ([]SalaryRecord, int, error) {
	total, err := s.store.CountSalaryRecords(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	records, err := s.store.ListSalaryRecords(ctx, tenantID, filter, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

func (s *Service) DeleteSalaryRecord(ctx context.Context, tenantID, id string) (SalaryRecord, error) {
	record, err := s.store.GetSalaryRecord(ctx, tenantID, id)
	if err != nil {
		return SalaryRecord{}, err
	}
	if err := s.store.DeleteSalaryRecord(ctx, tenantID, id); err != nil {
		return SalaryRecord{}, err
	}
	s.invalidate(ctx, tenantID, record.EmployeeID)
	return record, nil
}

func (s *Service) MarkPaid(ctx context.Context, tenantID, id string) (SalaryRecord, error) {
	record, err := s.store.GetSalaryRecord(ctx, tenantID, id)
	if err != nil {
		return SalaryRecord{}, err
	}
	if record.Status == SalaryStatusPaid {
		return SalaryRecord{}, ErrAlreadyPaid
	}
	if err := s.store.UpdateSalaryStatus(ctx, tenantID, id, SalaryStatusPaid); err != nil {
		return SalaryRecord{}, err
	}
	record.Status = SalaryStatusPaid
	return record, nil
}

// Statement generates the monthly payslip breakdown for a stored record.
func (s *Service) Statement(ctx context.Context, tenantID, recordID string) (SalaryRecord, StatementResult, error) {
	record, err := s.store.GetSalaryRecord(ctx, tenantID, recordID)
	if err != nil {
		return SalaryRecord{}, StatementResult{}, err
	}
	result, err := s.statementFor(ctx, tenantID, record)
	if err != nil {
		return SalaryRecord{}, StatementResult{}, err
	}
	return record, result, nil
}

func (s *Service) StatementPDF(ctx context.Context, tenantID, recordID string, w io.Writer) error {
	record, result, err := s.Statement(ctx, tenantID, recordID)
	if err != nil {
		return err
	}
	return RenderStatementPDF(w, record, result)
}

// InvalidateAttendance drops cached statements after an attendance or leave change.
func (s *Service) InvalidateAttendance(ctx context.Context, tenantID, employeeID string) error {
	if strings.TrimSpace(employeeID) == "" {
		return ErrEmployeeRequired
	}
	if s.cache == nil {
		return nil
	}
	return s.cache.Invalidate(ctx, tenantID, employeeID)
}

// GenerateMonthStatements writes a statement PDF for every record paid in
// month into dir and returns how many were written.
func (s *Service) GenerateMonthStatements(ctx context.Context, tenantID string, month time.Time, dir string) (int, error) {
	records, err := s.store.ListSalaryRecordsForMonth(ctx, tenantID, month)
	if err != nil {
		return 0, fmt.Errorf("list month records: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, err
	}

	var written atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, record := range records {
		g.Go(func() error {
			result, err := s.statementFor(gctx, tenantID, record)
			if err != nil {
				return fmt.Errorf("statement %s: %w", record.ID, err)
			}
			file, err := os.Create(filepath.Join(dir, record.ID+".pdf"))
			if err != nil {
				return err
			}
			if err := RenderStatementPDF(file, record, result); err != nil {
				_ = file.Close()
				return fmt.Errorf("render %s: %w", record.ID, err)
			}
			if err := file.Close(); err != nil {
				return err
			}
			written.Add(1)
			return nil
		})
	}
	err = g.Wait()
	return int(written.Load()), err
}

func (s *Service) statementFor(ctx context.Context, tenantID string, record SalaryRecord) (StatementResult, error) {
	key := StatementKey{
		TenantID:   tenantID,
		EmployeeID: record.EmployeeID,
		RecordID:   record.ID,
		Year:       record.PayDate.Year(),
		Month:      int(record.PayDate.Month()),
	}
	cacheable := false
	if s.cache != nil {
		cached, version, ok, err := s.cache.Get(ctx, key)
		switch {
		case err != nil:
			slog.Warn("statement cache read failed", "recordId", record.ID, "err", err)
		case ok:
			return cached, nil
		default:
			key.Version = version
			cacheable = true
		}
	}

	attendance, err := s.store.ListAttendance(ctx, tenantID, record.EmployeeID)
	if err != nil {
		return StatementResult{}, fmt.Errorf("list attendance: %w", err)
	}
	result := GenerateStatement(StatementInput{
		EmployeeID:   record.EmployeeID,
		Compensation: record.Compensation(),
		NetSalary:    record.NetSalary,
		PayDate:      record.PayDate,
		Attendance:   attendance,
	})
	s.observe(EngineStatement, result.PayableSalary)

	if cacheable {
		if err := s.cache.Put(ctx, key, result); err != nil {
			slog.Warn("statement cache write failed", "recordId", record.ID, "err", err)
		}
	}
	return result, nil
}

func (s *Service) invalidate(ctx context.Context, tenantID, employeeID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, tenantID, employeeID); err != nil {
		slog.Warn("statement cache invalidate failed", "employeeId", employeeID, "err", err)
	}
}

func (s *Service) observe(engine string, net float64) {
	if s.recorder != nil {
		s.recorder.ObserveComputation(engine, net)
	}
}

// attendancePresent is the attendance count for a resolved period, capped at
// its working days since duplicate rows for one date are each counted.
func attendancePresent(counts PeriodCounts) DayCount {
	return Days(min(counts.PresentDays, FloorDays(counts.WorkingDays)))
}

func checkPresentDays(present DayCount, workingDays int) error {
	if present.Valid && (present.Days < 0 || present.Days > FloorDays(workingDays)) {
		return ErrInvalidPresentDays
	}
	return nil
}

func validatePeriod(period PeriodSpec) error {
	if period.Start.IsZero() || period.End.IsZero() {
		return ErrPeriodRequired
	}
	if calendarDay(period.End).Before(calendarDay(period.Start)) {
		return ErrInvalidPeriod
	}
	return nil
}
