package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"bizdash/internal/domain/payroll"
)

const keyPrefix = "bizdash:payroll"

var _ payroll.StatementCache = (*StatementCache)(nil)

// StatementCache keeps generated statements in Redis. Each employee has a
// version counter that is part of every statement key; Invalidate bumps the
// counter so older entries are never read again and expire on their TTL.
type StatementCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewStatementCache(client redis.Cmdable, ttl time.Duration) *StatementCache {
	return &StatementCache{client: client, ttl: ttl}
}

// Get looks the statement up under the employee's current version and
// returns that version so a later Put can be pinned to it.
func (c *StatementCache) Get(ctx context.Context, key payroll.StatementKey) (payroll.StatementResult, int64, bool, error) {
	version, err := c.version(ctx, key.TenantID, key.EmployeeID)
	if err != nil {
		return payroll.StatementResult{}, 0, false, err
	}
	raw, err := c.client.Get(ctx, statementKey(key, version)).Bytes()
	if errors.Is(err, redis.Nil) {
		return payroll.StatementResult{}, version, false, nil
	}
	if err != nil {
		return payroll.StatementResult{}, version, false, err
	}
	var result payroll.StatementResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return payroll.StatementResult{}, version, false, fmt.Errorf("decode cached statement: %w", err)
	}
	return result, version, true, nil
}

// Put stores result under key.Version. If the employee was invalidated since
// that version was read, the entry is written but never served.
func (c *StatementCache) Put(ctx context.Context, key payroll.StatementKey, result payroll.StatementResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, statementKey(key, key.Version), payload, c.ttl).Err()
}

func (c *StatementCache) Invalidate(ctx context.Context, tenantID, employeeID string) error {
	return c.client.Incr(ctx, versionKey(tenantID, employeeID)).Err()
}

func (c *StatementCache) version(ctx context.Context, tenantID, employeeID string) (int64, error) {
	version, err := c.client.Get(ctx, versionKey(tenantID, employeeID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return version, err
}

func versionKey(tenantID, employeeID string) string {
	return keyPrefix + ":v:" + tenantID + ":" + employeeID
}

func statementKey(key payroll.StatementKey, version int64) string {
	return fmt.Sprintf("%s:stmt:%s:%s:%s:%s:%04d-%02d",
		keyPrefix, key.TenantID, key.EmployeeID, strconv.FormatInt(version, 10), key.RecordID, key.Year, key.Month)
}
