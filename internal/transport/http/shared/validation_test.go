package shared

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type samplePayload struct {
	EmployeeID string `json:"employeeId" validate:"required"`
	Status     string `json:"status" validate:"omitempty,oneof=pending paid"`
	Limit      int    `json:"limit" validate:"gte=0"`
}

func TestValidatorStructUsesJSONNames(t *testing.T) {
	v := NewValidator()
	v.Struct(samplePayload{Status: "void", Limit: -1})

	issues := v.Issues()
	require.Len(t, issues, 3)
	assert.Equal(t, "employeeId", issues[0].Field)
	assert.Equal(t, "is required", issues[0].Reason)
	assert.Equal(t, "limit", issues[1].Field)
	assert.Equal(t, "status", issues[2].Field)
}

func TestValidatorDates(t *testing.T) {
	v := NewValidator()
	start, ok := v.Date("startDate", "2025-03-10")
	require.True(t, ok)
	end, ok := v.Date("endDate", "2025-03-01")
	require.True(t, ok)
	v.DateOrder("startDate", start, "endDate", end)
	_, ok = v.Date("payDate", "not-a-date")
	assert.False(t, ok)
	assert.Len(t, v.Issues(), 3)
}

func TestRejectWritesEnvelope(t *testing.T) {
	v := NewValidator()
	v.Required("employeeId", " ", "is required")

	rec := httptest.NewRecorder()
	require.True(t, v.Reject(rec, "req-1"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body struct {
		Error struct {
			Code    string `json:"code"`
			Details struct {
				Fields []ValidationIssue `json:"fields"`
			} `json:"details"`
		} `json:"error"`
		RequestID string `json:"requestId"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "validation_error", body.Error.Code)
	assert.Equal(t, "req-1", body.RequestID)
	require.Len(t, body.Error.Details.Fields, 1)
	assert.Equal(t, "employeeId", body.Error.Details.Fields[0].Field)
}

func TestParseMonthAndPagination(t *testing.T) {
	month, err := ParseMonth("2025-02")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), month)

	_, err = ParseMonth("2025-13")
	assert.Error(t, err)

	req := httptest.NewRequest(http.MethodGet, "/?limit=500&offset=-3", nil)
	page := ParsePagination(req, 25, 100)
	assert.Equal(t, 100, page.Limit)
	assert.Equal(t, 0, page.Offset)
}

func TestParsePagination(t *testing.T) {
	page := ParsePagination(httptest.NewRequest(http.MethodGet, "/?limit=500&offset=-3", nil), 25, 100)
	assert.Equal(t, Pagination{Limit: 100, Offset: 0}, page)

	page = ParsePagination(httptest.NewRequest(http.MethodGet, "/?limit=10&page=3", nil), 25, 100)
	assert.Equal(t, Pagination{Limit: 10, Offset: 20}, page)
	assert.Equal(t, 7, page.Meta(7).Total)

	page = ParsePagination(httptest.NewRequest(http.MethodGet, "/?offset=5&page=9", nil), 25, 100)
	assert.Equal(t, 5, page.Offset)
}
