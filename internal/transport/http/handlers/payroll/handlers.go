package payrollhandler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"bizdash/internal/domain/audit"
	"bizdash/internal/domain/auth"
	"bizdash/internal/domain/payroll"
	"bizdash/internal/platform/jobs"
	"bizdash/internal/requestctx"
	"bizdash/internal/transport/http/api"
	"bizdash/internal/transport/http/middleware"
	"bizdash/internal/transport/http/shared"
)

// Service is the slice of payroll.Service the handlers use.
type Service interface {
	ResolveAttendance(ctx context.Context, tenantID, employeeID string, period payroll.PeriodSpec) (payroll.PeriodCounts, error)
	PreviewProRata(comp payroll.Compensation, workingDays int, presentDays payroll.DayCount) payroll.ProRataResult
	CreateSalaryRecord(ctx context.Context, tenantID string, in payroll.SalaryRecordInput) (payroll.SalaryRecord, error)
	UpdateSalaryRecord(ctx context.Context, tenantID, id string, patch payroll.SalaryRecordPatch) (payroll.SalaryRecord, error)
	GetSalaryRecord(ctx context.Context, tenantID, id string) (payroll.SalaryRecord, error)
	ListSalaryRecords(ctx context.Context, tenantID string, filter payroll.SalaryRecordFilter, limit, offset int) ([]payroll.SalaryRecord, int, error)
	DeleteSalaryRecord(ctx context.Context, tenantID, id string) (payroll.SalaryRecord, error)
	MarkPaid(ctx context.Context, tenantID, id string) (payroll.SalaryRecord, error)
	Statement(ctx context.Context, tenantID, recordID string) (payroll.SalaryRecord, payroll.StatementResult, error)
	StatementPDF(ctx context.Context, tenantID, recordID string, w io.Writer) error
	InvalidateAttendance(ctx context.Context, tenantID, employeeID string) error
	GenerateMonthStatements(ctx context.Context, tenantID string, month time.Time, dir string) (int, error)
}

type Auditor interface {
	Record(ctx context.Context, tenantID, actorID, action, entityType, entityID, requestID, ip string, before, after any) error
	ListForEntity(ctx context.Context, tenantID, entityType, entityID string, limit int) ([]audit.Event, error)
}

type JobQueue interface {
	Enqueue(jobType, tenantID string, run jobs.Func) bool
}

type Handler struct {
	Service      Service
	Audit        Auditor
	Jobs         JobQueue
	Perms        middleware.PermissionStore
	StatementDir string
}

func NewHandler(svc Service, auditor Auditor, queue JobQueue, perms middleware.PermissionStore, statementDir string) *Handler {
	return &Handler{Service: svc, Audit: auditor, Jobs: queue, Perms: perms, StatementDir: statementDir}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	read := middleware.RequirePermission(auth.PermPayrollRead, h.Perms)
	write := middleware.RequirePermission(auth.PermPayrollWrite, h.Perms)
	run := middleware.RequirePermission(auth.PermPayrollRun, h.Perms)

	r.Route("/payroll", func(r chi.Router) {
		r.With(read).Post("/attendance/resolve", h.handleResolveAttendance)
		r.With(write).Post("/attendance/events", h.handleAttendanceEvent)
		r.Post("/prorata/preview", h.handlePreviewProRata)

		r.With(read).Get("/salary-records", h.handleListSalaryRecords)
		r.With(write).Post("/salary-records", h.handleCreateSalaryRecord)
		r.With(read).Get("/salary-records/{recordID}", h.handleGetSalaryRecord)
		r.With(write).Patch("/salary-records/{recordID}", h.handleUpdateSalaryRecord)
		r.With(write).Delete("/salary-records/{recordID}", h.handleDeleteSalaryRecord)
		r.With(write).Post("/salary-records/{recordID}/pay", h.handleMarkPaid)
		r.With(read).Get("/salary-records/{recordID}/statement", h.handleStatement)
		r.With(read).Get("/salary-records/{recordID}/statement.pdf", h.handleStatementPDF)
		r.With(read).Get("/salary-records/{recordID}/history", h.handleHistory)

		r.With(run).Post("/statements/batch", h.handleBatchStatements)
	})
}

type periodPayload struct {
	EmployeeID string `json:"employeeId" validate:"required"`
	StartDate  string `json:"startDate"`
	EndDate    string `json:"endDate"`
}

type attendanceEventPayload struct {
	EmployeeID string `json:"employeeId" validate:"required"`
}

type proRataPayload struct {
	BasicSalary payroll.Amount   `json:"basicSalary"`
	Allowances  payroll.Amount   `json:"allowances"`
	Deductions  payroll.Amount   `json:"deductions"`
	WorkingDays payroll.DayCount `json:"workingDays"`
	PresentDays payroll.DayCount `json:"presentDays"`
}

// An absent or null presentDays takes the attendance count for the period;
// "" asks for full attendance.
type salaryRecordPayload struct {
	EmployeeID  string            `json:"employeeId" validate:"required"`
	BasicSalary payroll.Amount    `json:"basicSalary"`
	Allowances  payroll.Amount    `json:"allowances"`
	Deductions  payroll.Amount    `json:"deductions"`
	PayDate     string            `json:"payDate" validate:"required"`
	StartDate   string            `json:"startDate"`
	EndDate     string            `json:"endDate"`
	PresentDays *payroll.DayCount `json:"presentDays"`
}

// A present-days value of "" in a patch means full attendance. An absent or
// null field keeps the stored count, or re-derives it when the period moves.
type salaryRecordPatchPayload struct {
	BasicSalary *payroll.Amount   `json:"basicSalary"`
	Allowances  *payroll.Amount   `json:"allowances"`
	Deductions  *payroll.Amount   `json:"deductions"`
	PayDate     *string           `json:"payDate"`
	StartDate   *string           `json:"startDate"`
	EndDate     *string           `json:"endDate"`
	PresentDays *payroll.DayCount `json:"presentDays"`
}

type batchPayload struct {
	Month string `json:"month" validate:"required"`
}

type displayAmounts struct {
	NetSalary float64 `json:"netSalary"`
}

type salaryRecordView struct {
	payroll.SalaryRecord
	Display displayAmounts `json:"display"`
}

type statementView struct {
	payroll.StatementResult
	Display displayAmounts `json:"display"`
}

func recordView(record payroll.SalaryRecord) salaryRecordView {
	return salaryRecordView{SalaryRecord: record, Display: displayAmounts{NetSalary: payroll.DisplayAmount(record.NetSalary)}}
}

func (h *Handler) handleResolveAttendance(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}
	var payload periodPayload
	if !decode(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	v.Struct(payload)
	start := optionalDate(v, "startDate", payload.StartDate)
	end := optionalDate(v, "endDate", payload.EndDate)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	counts, err := h.Service.ResolveAttendance(r.Context(), user.TenantID, payload.EmployeeID, payroll.PeriodSpec{Start: start, End: end})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.Success(w, counts, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleAttendanceEvent(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}
	var payload attendanceEventPayload
	if !decode(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	v.Struct(payload)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	if err := h.Service.InvalidateAttendance(r.Context(), user.TenantID, payload.EmployeeID); err != nil {
		h.fail(w, r, err)
		return
	}
	api.Accepted(w, map[string]string{"employeeId": payload.EmployeeID}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handlePreviewProRata(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.user(w, r); !ok {
		return
	}
	var payload proRataPayload
	if !decode(w, r, &payload) {
		return
	}
	comp := payroll.Compensation{
		BasicSalary: payload.BasicSalary.Float(),
		Allowances:  payload.Allowances.Float(),
		Deductions:  payload.Deductions.Float(),
	}
	result := h.Service.PreviewProRata(comp, payload.WorkingDays.Days, payload.PresentDays)
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListSalaryRecords(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()
	filter := payroll.SalaryRecordFilter{
		EmployeeID: query.Get("employeeId"),
		Status:     query.Get("status"),
	}
	v := shared.NewValidator()
	v.Enum("status", filter.Status, []string{payroll.SalaryStatusPending, payroll.SalaryStatusPaid}, "must be pending or paid")
	if raw := query.Get("month"); raw != "" {
		month, err := shared.ParseMonth(raw)
		if err != nil {
			v.Add("month", "must be in YYYY-MM format")
		}
		filter.PayMonth = month
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	page := shared.ParsePagination(r, 25, 100)
	records, total, err := h.Service.ListSalaryRecords(r.Context(), user.TenantID, filter, page.Limit, page.Offset)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	views := make([]salaryRecordView, 0, len(records))
	for _, record := range records {
		views = append(views, recordView(record))
	}
	api.Page(w, views, page.Meta(total), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateSalaryRecord(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}
	var payload salaryRecordPayload
	if !decode(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	v.Struct(payload)
	payDate := optionalDate(v, "payDate", payload.PayDate)
	start := optionalDate(v, "startDate", payload.StartDate)
	end := optionalDate(v, "endDate", payload.EndDate)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	record, err := h.Service.CreateSalaryRecord(r.Context(), user.TenantID, payroll.SalaryRecordInput{
		EmployeeID:  payload.EmployeeID,
		BasicSalary: payload.BasicSalary.Float(),
		Allowances:  payload.Allowances.Float(),
		Deductions:  payload.Deductions.Float(),
		PayDate:     payDate,
		StartDate:   start,
		EndDate:     end,
		PresentDays: payload.PresentDays,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.record(r, user, audit.ActionSalaryCreate, audit.EntitySalaryRecord, record.ID, nil, record)
	api.Created(w, recordView(record), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetSalaryRecord(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}
	record, err := h.Service.GetSalaryRecord(r.Context(), user.TenantID, chi.URLParam(r, "recordID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.Success(w, recordView(record), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateSalaryRecord(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}
	recordID := chi.URLParam(r, "recordID")
	var payload salaryRecordPatchPayload
	if !decode(w, r, &payload) {
		return
	}

	v := shared.NewValidator()
	patch := payroll.SalaryRecordPatch{PresentDays: payload.PresentDays}
	patch.BasicSalary = amountPtr(payload.BasicSalary)
	patch.Allowances = amountPtr(payload.Allowances)
	patch.Deductions = amountPtr(payload.Deductions)
	patch.PayDate = datePtr(v, "payDate", payload.PayDate)
	patch.StartDate = datePtr(v, "startDate", payload.StartDate)
	patch.EndDate = datePtr(v, "endDate", payload.EndDate)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	before, err := h.Service.GetSalaryRecord(r.Context(), user.TenantID, recordID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	record, err := h.Service.UpdateSalaryRecord(r.Context(), user.TenantID, recordID, patch)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.record(r, user, audit.ActionSalaryUpdate, audit.EntitySalaryRecord, record.ID, before, record)
	api.Success(w, recordView(record), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteSalaryRecord(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}
	record, err := h.Service.DeleteSalaryRecord(r.Context(), user.TenantID, chi.URLParam(r, "recordID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.record(r, user, audit.ActionSalaryDelete, audit.EntitySalaryRecord, record.ID, record, nil)
	api.Success(w, map[string]string{"id": record.ID}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleMarkPaid(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}
	record, err := h.Service.MarkPaid(r.Context(), user.TenantID, chi.URLParam(r, "recordID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.record(r, user, audit.ActionSalaryPay, audit.EntitySalaryRecord, record.ID, nil, map[string]string{"status": record.Status})
	api.Success(w, recordView(record), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleStatement(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}
	_, result, err := h.Service.Statement(r.Context(), user.TenantID, chi.URLParam(r, "recordID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.Success(w, statementView{
		StatementResult: result,
		Display:         displayAmounts{NetSalary: payroll.DisplayAmount(result.PayableSalary)},
	}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleStatementPDF(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}
	recordID := chi.URLParam(r, "recordID")
	var buf bytes.Buffer
	if err := h.Service.StatementPDF(r.Context(), user.TenantID, recordID, &buf); err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="statement-`+recordID+`.pdf"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}
	events, err := h.Audit.ListForEntity(r.Context(), user.TenantID, audit.EntitySalaryRecord, chi.URLParam(r, "recordID"), 50)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.Success(w, events, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleBatchStatements(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}
	var payload batchPayload
	if !decode(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	v.Struct(payload)
	month, err := shared.ParseMonth(payload.Month)
	if payload.Month != "" && err != nil {
		v.Add("month", "must be in YYYY-MM format")
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	tenantID := user.TenantID
	dir := filepath.Join(h.StatementDir, tenantID, month.Format("2006-01"))
	queued := h.Jobs.Enqueue(payroll.JobMonthStatements, tenantID, func(ctx context.Context) (any, error) {
		written, err := h.Service.GenerateMonthStatements(ctx, tenantID, month, dir)
		return map[string]any{"month": month.Format("2006-01"), "written": written, "dir": dir}, err
	})
	if !queued {
		api.Fail(w, http.StatusServiceUnavailable, "job_queue_full", "statement batch queue is full, retry later", middleware.GetRequestID(r.Context()))
		return
	}
	h.record(r, user, audit.ActionBatchEnqueue, audit.EntityJob, payroll.JobMonthStatements, nil, payload)
	api.Accepted(w, map[string]string{"month": month.Format("2006-01"), "status": "queued"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) user(w http.ResponseWriter, r *http.Request) (auth.UserContext, bool) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return auth.UserContext{}, false
	}
	return user, true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, payroll.ErrSalaryRecordNotFound):
		api.Fail(w, http.StatusNotFound, "salary_record_not_found", "salary record not found", requestID)
	case errors.Is(err, payroll.ErrAlreadyPaid):
		api.Fail(w, http.StatusConflict, "salary_record_paid", err.Error(), requestID)
	case errors.Is(err, payroll.ErrEmployeeRequired),
		errors.Is(err, payroll.ErrPayDateRequired),
		errors.Is(err, payroll.ErrPeriodRequired),
		errors.Is(err, payroll.ErrInvalidPeriod),
		errors.Is(err, payroll.ErrInvalidPresentDays):
		api.Fail(w, http.StatusBadRequest, "invalid_payload", err.Error(), requestID)
	default:
		requestctx.Logger(r.Context()).Error("payroll request failed", "path", r.URL.Path, "err", err)
		api.Fail(w, http.StatusInternalServerError, "payroll_failed", "payroll request failed", requestID)
	}
}

func (h *Handler) record(r *http.Request, user auth.UserContext, action, entityType, entityID string, before, after any) {
	if h.Audit == nil {
		return
	}
	if err := h.Audit.Record(r.Context(), user.TenantID, user.UserID, action, entityType, entityID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), before, after); err != nil {
		requestctx.Logger(r.Context()).Warn("audit write failed", "action", action, "err", err)
	}
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			api.Fail(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large", middleware.GetRequestID(r.Context()))
			return false
		}
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return false
	}
	return true
}

func optionalDate(v *shared.Validator, field, raw string) time.Time {
	parsed, err := shared.ParseDate(raw)
	if err != nil {
		v.Add(field, "must be a valid date in YYYY-MM-DD format")
		return time.Time{}
	}
	return parsed
}

func datePtr(v *shared.Validator, field string, raw *string) *time.Time {
	if raw == nil {
		return nil
	}
	if strings.TrimSpace(*raw) == "" {
		v.Add(field, "must not be empty")
		return nil
	}
	parsed := optionalDate(v, field, *raw)
	if parsed.IsZero() {
		return nil
	}
	return &parsed
}

func amountPtr(a *payroll.Amount) *float64 {
	if a == nil {
		return nil
	}
	value := a.Float()
	return &value
}
