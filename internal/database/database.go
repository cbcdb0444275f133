package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"listingboard/internal/config"
	"listingboard/internal/logging"
	"listingboard/internal/metrics"
)

const maxLoggedQuery = 80

type MethodsDB interface {
	CloseDB() error
	RunMigrations(ctx context.Context, migrationFilePath string) error
	HealthCheck(ctx context.Context) error
}

var _ MethodsDB = (*DB)(nil)

// DB is the process-wide pool handle. It is created once at startup and passed
// to repositories explicitly.
type DB struct {
	db             *sqlx.DB
	acquireTimeout time.Duration
	slowQuery      time.Duration
}

type Options struct {
	AcquireTimeout time.Duration
	SlowQuery      time.Duration
}

// New wraps an existing sqlx handle. Tests use it with go-sqlmock.
func New(db *sqlx.DB, opts Options) *DB {
	if opts.AcquireTimeout <= 0 {
		opts.AcquireTimeout = 2 * time.Second
	}
	return &DB{db: db, acquireTimeout: opts.AcquireTimeout, slowQuery: opts.SlowQuery}
}

func ConnectDB(ctx context.Context, cfg *config.Config) (*DB, error) {
	logging.Info().
		Str("host", cfg.DB.DbHOST).
		Str("dbname", cfg.DB.DbNAME).
		Bool("url", cfg.DB.URL != "").
		Msg("connecting to database")

	db, err := sqlx.Open("postgres", cfg.DB.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.DB.PoolMax)
	db.SetMaxIdleConns(cfg.DB.PoolMaxIdle)
	db.SetConnMaxIdleTime(cfg.DB.IdleTimeout)
	db.SetConnMaxLifetime(cfg.DB.ConnMaxLifetime)

	dbStruct := New(db, Options{
		AcquireTimeout: cfg.DB.AcquireTimeout,
		SlowQuery:      cfg.DB.SlowQuery,
	})

	if err := dbStruct.HealthCheck(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logging.Info().
		Int("pool_max", cfg.DB.PoolMax).
		Dur("idle_timeout", cfg.DB.IdleTimeout).
		Dur("acquire_timeout", cfg.DB.AcquireTimeout).
		Msg("connected to PostgreSQL")

	return dbStruct, nil
}

func (db *DB) Sqlx() *sqlx.DB {
	return db.db
}

func (db *DB) CloseDB() error {
	logging.Info().Msg("closing database pool")
	return db.db.Close()
}

func (db *DB) HealthCheck(ctx context.Context) error {
	if db == nil || db.db == nil {
		return fmt.Errorf("database connection is not initialized")
	}

	ctx, cancel := context.WithTimeout(ctx, db.acquireTimeout)
	defer cancel()

	return db.db.PingContext(ctx)
}

// Conn checks a raw connection out of the pool for multi-statement work. The
// checkout is bounded by the acquire timeout; the caller must Close the conn.
func (db *DB) Conn(ctx context.Context) (*sqlx.Conn, error) {
	acquireCtx, cancel := context.WithTimeout(ctx, db.acquireTimeout)
	defer cancel()

	start := time.Now()
	conn, err := db.db.Connx(acquireCtx)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Dur("waited", time.Since(start)).Msg("failed to acquire connection")
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	return conn, nil
}

// Select runs a query returning many rows into dest.
func (db *DB) Select(ctx context.Context, dest any, query string, args ...any) error {
	return db.observe(ctx, query, func() (int64, error) {
		if err := db.db.SelectContext(ctx, dest, query, args...); err != nil {
			return 0, err
		}
		return -1, nil
	})
}

// Get runs a query returning exactly one row into dest.
func (db *DB) Get(ctx context.Context, dest any, query string, args ...any) error {
	return db.observe(ctx, query, func() (int64, error) {
		if err := db.db.GetContext(ctx, dest, query, args...); err != nil {
			return 0, err
		}
		return 1, nil
	})
}

// Exec runs a statement that returns no rows.
func (db *DB) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	var result sql.Result
	err := db.observe(ctx, query, func() (int64, error) {
		var err error
		result, err = db.db.ExecContext(ctx, query, args...)
		if err != nil {
			return 0, err
		}
		n, _ := result.RowsAffected()
		return n, nil
	})
	return result, err
}

func (db *DB) observe(ctx context.Context, query string, run func() (int64, error)) error {
	start := time.Now()
	rows, err := run()
	elapsed := time.Since(start)

	op := operation(query)
	metrics.RecordDBQuery(op, elapsed, err)
	metrics.RecordPoolStats(db.db.Stats())

	logger := logging.Ctx(ctx)
	text := TruncateQuery(query)

	switch {
	case err != nil && !errors.Is(err, sql.ErrNoRows):
		logger.Error().Err(err).Str("query", text).Dur("duration", elapsed).Msg("query failed")
	case db.slowQuery > 0 && elapsed >= db.slowQuery:
		logger.Warn().Str("query", text).Dur("duration", elapsed).Int64("rows", rows).Msg("slow query")
	default:
		logger.Debug().Str("query", text).Dur("duration", elapsed).Int64("rows", rows).Msg("executed query")
	}

	return err
}

func (db *DB) RunMigrations(ctx context.Context, migrationFilePath string) error {
	if _, err := os.Stat(migrationFilePath); os.IsNotExist(err) {
		return fmt.Errorf("migration file not found: %s", migrationFilePath)
	}

	migrationSQL, err := os.ReadFile(migrationFilePath)
	if err != nil {
		return fmt.Errorf("read migration file: %w", err)
	}

	logging.Info().Str("file", migrationFilePath).Msg("applying migrations")

	conn, err := db.Conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, string(migrationSQL)); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	logging.Info().Msg("migrations applied")
	return nil
}

// TruncateQuery collapses whitespace and shortens the statement for logging.
func TruncateQuery(query string) string {
	text := strings.Join(strings.Fields(query), " ")
	if utf8.RuneCountInString(text) <= maxLoggedQuery {
		return text
	}
	runes := []rune(text)
	return string(runes[:maxLoggedQuery]) + "..."
}

func operation(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return "unknown"
	}
	op := strings.ToLower(fields[0])
	switch op {
	case "select", "insert", "update", "delete", "with":
		return op
	default:
		return "other"
	}
}
