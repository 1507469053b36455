package repository

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// recordingConnPool stands in for a live Postgres connection and captures
// every statement GORM executes, so tests can assert on the SQL itself.
type recordingConnPool struct {
	execs []recordedExec
}

type recordedExec struct {
	query string
	args  []any
}

func (p *recordingConnPool) PrepareContext(ctx context.Context, query string) (*sql.Stmt, error) {
	return nil, nil
}

func (p *recordingConnPool) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	p.execs = append(p.execs, recordedExec{query: query, args: args})
	return noopResult{}, nil
}

func (p *recordingConnPool) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return nil, sql.ErrNoRows
}

func (p *recordingConnPool) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return nil
}

type noopResult struct{}

func (noopResult) LastInsertId() (int64, error) { return 0, nil }
func (noopResult) RowsAffected() (int64, error) { return 1, nil }

func openRecordingPostgres(t *testing.T) (*gorm.DB, *recordingConnPool) {
	t.Helper()
	pool := &recordingConnPool{}
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: pool}), &gorm.Config{
		DisableAutomaticPing: true,
		Logger:               gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open postgres dialector: %v", err)
	}
	return db, pool
}

// Two concurrent creates for the same employee must serialize even when no
// overlapping rows exist yet, so the repository has to take a session-level
// lock before the conflict check, not just lock candidate rows.
func TestLockEmployeeCalendar_TakesAdvisoryLockOnPostgres(t *testing.T) {
	db, pool := openRecordingPostgres(t)
	repo := NewGormBookingRepository(db)

	tenantID := uuid.New()
	employeeID := uuid.New()
	if err := repo.LockEmployeeCalendar(context.Background(), tenantID, employeeID); err != nil {
		t.Fatalf("LockEmployeeCalendar: %v", err)
	}

	if len(pool.execs) != 1 {
		t.Fatalf("executed %d statements, want exactly the lock", len(pool.execs))
	}
	got := pool.execs[0]
	if !strings.Contains(got.query, "pg_advisory_xact_lock") {
		t.Fatalf("statement %q does not take a transaction-scoped advisory lock", got.query)
	}
	if len(got.args) != 1 {
		t.Fatalf("lock args = %v, want a single key", got.args)
	}
	key, ok := got.args[0].(string)
	if !ok {
		t.Fatalf("lock key %v is not a string", got.args[0])
	}
	if !strings.Contains(key, tenantID.String()) || !strings.Contains(key, employeeID.String()) {
		t.Fatalf("lock key %q must be scoped to the tenant and employee", key)
	}
}

func TestLockEmployeeCalendar_DistinctEmployeesGetDistinctKeys(t *testing.T) {
	db, pool := openRecordingPostgres(t)
	repo := NewGormBookingRepository(db)

	tenantID := uuid.New()
	ctx := context.Background()
	if err := repo.LockEmployeeCalendar(ctx, tenantID, uuid.New()); err != nil {
		t.Fatalf("first lock: %v", err)
	}
	if err := repo.LockEmployeeCalendar(ctx, tenantID, uuid.New()); err != nil {
		t.Fatalf("second lock: %v", err)
	}

	if len(pool.execs) != 2 {
		t.Fatalf("executed %d statements, want 2", len(pool.execs))
	}
	if pool.execs[0].args[0] == pool.execs[1].args[0] {
		t.Fatalf("different employees must not share the lock key %v", pool.execs[0].args[0])
	}
}

// On sqlite the database write lock already serializes writers, so the
// advisory lock is skipped entirely.
func TestLockEmployeeCalendar_NoopOnSqlite(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	repo := NewGormBookingRepository(db)
	if err := repo.LockEmployeeCalendar(context.Background(), uuid.New(), uuid.New()); err != nil {
		t.Fatalf("sqlite path must be a no-op: %v", err)
	}
}
