package audit

import (
	"context"
	"encoding/json"
	"time"

	"bizdash/internal/platform/querier"
)

const (
	ActionSalaryCreate = "payroll.salary.create"
	ActionSalaryUpdate = "payroll.salary.update"
	ActionSalaryDelete = "payroll.salary.delete"
	ActionSalaryPay    = "payroll.salary.pay"
	ActionBatchEnqueue = "payroll.statements.batch"

	EntitySalaryRecord = "salary_record"
	EntityJob          = "job"
)

type Event struct {
	ID         string          `json:"id"`
	ActorID    string          `json:"actorId"`
	Action     string          `json:"action"`
	EntityType string          `json:"entityType"`
	EntityID   string          `json:"entityId"`
	RequestID  string          `json:"requestId"`
	IP         string          `json:"ip"`
	CreatedAt  time.Time       `json:"createdAt"`
	Before     json.RawMessage `json:"before,omitempty"`
	After      json.RawMessage `json:"after,omitempty"`
}

type Service struct {
	DB querier.Querier
}

func New(db querier.Querier) *Service {
	return &Service{DB: db}
}

// Record writes one audit row. before and after are stored as JSON when non-nil.
func (s *Service) Record(ctx context.Context, tenantID, actorID, action, entityType, entityID, requestID, ip string, before, after any) error {
	beforeJSON, err := marshalState(before)
	if err != nil {
		return err
	}
	afterJSON, err := marshalState(after)
	if err != nil {
		return err
	}

	_, err = s.DB.Exec(ctx, `
    INSERT INTO audit_events (tenant_id, actor_user_id, action, entity_type, entity_id, before_json, after_json, request_id, ip)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
  `, tenantID, actorID, action, entityType, entityID, beforeJSON, afterJSON, requestID, ip)
	return err
}

// ListForEntity returns the newest events for one entity first.
func (s *Service) ListForEntity(ctx context.Context, tenantID, entityType, entityID string, limit int) ([]Event, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, actor_user_id, action, entity_type, entity_id, request_id, ip, created_at, before_json, after_json
    FROM audit_events
    WHERE tenant_id = $1 AND entity_type = $2 AND entity_id = $3
    ORDER BY created_at DESC
    LIMIT $4
  `, tenantID, entityType, entityID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var evt Event
		if err := rows.Scan(&evt.ID, &evt.ActorID, &evt.Action, &evt.EntityType, &evt.EntityID, &evt.RequestID, &evt.IP, &evt.CreatedAt, &evt.Before, &evt.After); err != nil {
			return nil, err
		}
		out = append(out, evt)
	}
	return out, rows.Err()
}

func marshalState(state any) ([]byte, error) {
	if state == nil {
		return nil, nil
	}
	return json.Marshal(state)
}
