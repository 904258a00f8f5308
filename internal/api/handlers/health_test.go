package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
)

// fakeRow scans canned values, or returns err.
type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.values) {
		return fmt.Errorf("scan: want %d targets, got %d", len(r.values), len(dest))
	}
	for i, target := range dest {
		switch ptr := target.(type) {
		case *int:
			*ptr = r.values[i].(int)
		case *int64:
			*ptr = r.values[i].(int64)
		case *bool:
			*ptr = r.values[i].(bool)
		default:
			return fmt.Errorf("scan: unsupported target %T", target)
		}
	}
	return nil
}

type fakeHealthDB struct {
	ping       fakeRow
	migrations fakeRow
}

func (db fakeHealthDB) QueryRow(_ context.Context, sql string, _ ...any) pgx.Row {
	if strings.Contains(sql, "schema_migrations") {
		return db.migrations
	}
	return db.ping
}

func runHealth(t *testing.T, checker *HealthChecker) (*httptest.ResponseRecorder, HealthCheck) {
	t.Helper()
	rec := httptest.NewRecorder()
	checker.Health().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	return rec, decode[HealthCheck](t, rec)
}

func TestHealthAllPassing(t *testing.T) {
	checker := NewHealthChecker(fakeHealthDB{
		ping:       fakeRow{values: []any{1}},
		migrations: fakeRow{values: []any{int64(2), false}},
	}, "1.2.0", "abc123")

	rec, body := runHealth(t, checker)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.Equal(t, "healthy", body.Status)
	require.Equal(t, "1.2.0", body.Version)
	require.Equal(t, "pass", body.Checks["database"].Status)
	require.Contains(t, body.Checks["migrations"].Message, "version 2")
}

func TestHealthDirtyMigrationIsUnhealthy(t *testing.T) {
	checker := NewHealthChecker(fakeHealthDB{
		ping:       fakeRow{values: []any{1}},
		migrations: fakeRow{values: []any{int64(2), true}},
	}, "1.2.0", "abc123")

	rec, body := runHealth(t, checker)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Equal(t, "unhealthy", body.Status)
	require.Equal(t, "fail", body.Checks["migrations"].Status)
}

func TestHealthNoMigrationsIsDegraded(t *testing.T) {
	checker := NewHealthChecker(fakeHealthDB{
		ping:       fakeRow{values: []any{1}},
		migrations: fakeRow{err: pgx.ErrNoRows},
	}, "dev", "")

	rec, body := runHealth(t, checker)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "degraded", body.Status)
}

func TestHealthDatabaseDown(t *testing.T) {
	down := fakeRow{err: errors.New("dial tcp 127.0.0.1:5432: connect: connection refused")}
	checker := NewHealthChecker(fakeHealthDB{ping: down, migrations: down}, "dev", "")

	rec, body := runHealth(t, checker)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Equal(t, "Database connection refused", body.Checks["database"].Message)
}

func TestHealthWithoutDatabase(t *testing.T) {
	rec, body := runHealth(t, NewHealthChecker(nil, "dev", ""))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Equal(t, "unhealthy", body.Status)
}

func TestHealthDuringShutdown(t *testing.T) {
	checker := NewHealthChecker(nil, "dev", "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := httptest.NewRecorder()
	checker.Health().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil).WithContext(ctx))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.JSONEq(t, `{"status":"shutting_down"}`, rec.Body.String())
}
