package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bizdash/internal/domain/payroll"
)

func newTestCache(t *testing.T) (*StatementCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStatementCache(client, time.Hour), mr
}

// miss reads key and returns it pinned to the version the cache reported.
func miss(t *testing.T, c *StatementCache, key payroll.StatementKey) payroll.StatementKey {
	t.Helper()
	_, version, ok, err := c.Get(context.Background(), key)
	require.NoError(t, err)
	require.False(t, ok)
	key.Version = version
	return key
}

func TestStatementCacheRoundTrip(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	key := miss(t, c, payroll.StatementKey{TenantID: "t1", EmployeeID: "e1", RecordID: "r1", Year: 2025, Month: 6})

	want := payroll.StatementResult{EmployeeID: "e1", Year: 2025, Month: 6, TotalDays: 30, PayableSalary: 23000, LeaveCuts: 7000}
	require.NoError(t, c.Put(ctx, key, want))

	got, _, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want.PayableSalary, got.PayableSalary)
	assert.Equal(t, want.LeaveCuts, got.LeaveCuts)
	assert.Equal(t, want.TotalDays, got.TotalDays)
}

func TestStatementCacheInvalidateIsPerEmployee(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	e1 := miss(t, c, payroll.StatementKey{TenantID: "t1", EmployeeID: "e1", RecordID: "r1", Year: 2025, Month: 6})
	e2 := miss(t, c, payroll.StatementKey{TenantID: "t1", EmployeeID: "e2", RecordID: "r2", Year: 2025, Month: 6})

	require.NoError(t, c.Put(ctx, e1, payroll.StatementResult{PayableSalary: 1}))
	require.NoError(t, c.Put(ctx, e2, payroll.StatementResult{PayableSalary: 2}))
	require.NoError(t, c.Invalidate(ctx, "t1", "e1"))

	e1 = miss(t, c, e1)
	assert.Equal(t, int64(1), e1.Version)

	got, _, ok, err := c.Get(ctx, e2)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, float64(2), got.PayableSalary)

	require.NoError(t, c.Put(ctx, e1, payroll.StatementResult{PayableSalary: 3}))
	got, _, ok, err = c.Get(ctx, e1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, float64(3), got.PayableSalary)
}

func TestStatementCachePutAfterInvalidateIsNotServed(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	key := miss(t, c, payroll.StatementKey{TenantID: "t1", EmployeeID: "e1", RecordID: "r1", Year: 2025, Month: 3})

	// attendance changes while the statement is being computed
	require.NoError(t, c.Invalidate(ctx, "t1", "e1"))
	require.NoError(t, c.Put(ctx, key, payroll.StatementResult{PresentDays: 10}))

	_, version, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok, "result computed before the invalidation must not be served")
	assert.Equal(t, int64(1), version)
}

func TestStatementCacheExpires(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	key := miss(t, c, payroll.StatementKey{TenantID: "t1", EmployeeID: "e1", RecordID: "r1", Year: 2025, Month: 1})

	require.NoError(t, c.Put(ctx, key, payroll.StatementResult{PayableSalary: 10}))
	mr.FastForward(2 * time.Hour)

	_, _, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewPingsServer(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	client, err := New(context.Background(), addr)
	require.NoError(t, err)
	_ = client.Close()

	mr.Close()
	_, err = New(context.Background(), addr)
	assert.Error(t, err)
}
