package db

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as database/sql driver
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // register the pure-Go "sqlite" driver
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"

	memoryPath = ":memory:"
)

func init() {
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// Options controls database pool and connectivity behavior.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
	BusyTimeout     time.Duration
}

var openDB = sql.Open

// DefaultServerOptions returns defaults for long-running server processes.
func DefaultServerOptions() Options {
	return Options{
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxIdleTime: 2 * time.Minute,
		ConnMaxLifetime: time.Hour,
		PingTimeout:     5 * time.Second,
		BusyTimeout:     10 * time.Second,
	}
}

// DefaultMigrateOptions returns defaults for short-lived CLI migrations.
func DefaultMigrateOptions() Options {
	return Options{
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		ConnMaxIdleTime: 2 * time.Minute,
		ConnMaxLifetime: time.Hour,
		PingTimeout:     5 * time.Second,
		BusyTimeout:     10 * time.Second,
	}
}

// OptionsFromEnv overrides defaults with DB_* env vars if present.
func OptionsFromEnv(defaults Options) Options {
	opts := defaults
	if v, ok := readEnvInt("DB_MAX_OPEN_CONNS"); ok {
		opts.MaxOpenConns = v
	}
	if v, ok := readEnvInt("DB_MAX_IDLE_CONNS"); ok {
		opts.MaxIdleConns = v
	}
	if v, ok := readEnvDuration("DB_CONN_MAX_LIFETIME"); ok {
		opts.ConnMaxLifetime = v
	}
	if v, ok := readEnvDuration("DB_CONN_MAX_IDLE_TIME"); ok {
		opts.ConnMaxIdleTime = v
	}
	if v, ok := readEnvDuration("DB_PING_TIMEOUT"); ok {
		opts.PingTimeout = v
	}
	if v, ok := readEnvDuration("DB_BUSY_TIMEOUT"); ok {
		opts.BusyTimeout = v
	}
	return opts
}

// Open connects to Postgres when databaseURL is set and to the SQLite file at
// sqlitePath otherwise.
func Open(ctx context.Context, databaseURL, sqlitePath string, opts Options) (*sqlx.DB, error) {
	if strings.TrimSpace(databaseURL) != "" {
		return Connect(ctx, databaseURL, opts)
	}
	return OpenSQLite(ctx, sqlitePath, opts)
}

// Connect opens a Postgres pool via pgx and verifies connectivity.
// The returned handle should be shared and re-used by callers.
func Connect(ctx context.Context, databaseURL string, opts Options) (*sqlx.DB, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	sqlDB, err := openDB(DriverPostgres, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	applyOptions(sqlDB, opts)

	if err := ping(ctx, sqlDB, opts.PingTimeout); err != nil {
		sqlDB.Close()
		return nil, err
	}
	logPoolStats(sqlDB, "db init")
	return sqlx.NewDb(sqlDB, DriverPostgres), nil
}

// OpenSQLite opens the embedded database file, creating its directory.
// WAL and busy_timeout let the HTTP handlers read while one request writes.
func OpenSQLite(ctx context.Context, path string, opts Options) (*sqlx.DB, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("sqlite path is empty")
	}

	busy := opts.BusyTimeout
	if busy <= 0 {
		busy = 10 * time.Second
	}
	pragmas := []string{
		"foreign_keys(1)",
		"busy_timeout(" + strconv.FormatInt(busy.Milliseconds(), 10) + ")",
	}

	dsn := path
	if path == memoryPath {
		// Every connection to :memory: is a separate database.
		opts.MaxOpenConns = 1
		opts.MaxIdleConns = 1
		opts.ConnMaxLifetime = 0
		opts.ConnMaxIdleTime = 0
	} else {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("sqlite mkdir: %w", err)
		}
		pragmas = append(pragmas, "journal_mode(WAL)", "synchronous(NORMAL)")
	}
	for i, p := range pragmas {
		sep := "&"
		if i == 0 {
			sep = "?"
		}
		dsn += sep + "_pragma=" + p
	}
	// Store timestamps in SQLite's own text format so they sort and compare.
	dsn += "&_time_format=sqlite"

	sqlDB, err := openDB(DriverSQLite, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	applyOptions(sqlDB, opts)
	if path == memoryPath {
		sqlDB.SetConnMaxLifetime(0)
		sqlDB.SetConnMaxIdleTime(0)
	}

	if err := ping(ctx, sqlDB, opts.PingTimeout); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return sqlx.NewDb(sqlDB, DriverSQLite), nil
}

// OpenMemory opens a private in-memory SQLite database.
func OpenMemory(ctx context.Context) (*sqlx.DB, error) {
	return OpenSQLite(ctx, memoryPath, DefaultMigrateOptions())
}

func ping(ctx context.Context, sqlDB *sql.DB, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}

func applyOptions(db *sql.DB, opts Options) {
	if opts.MaxOpenConns <= 0 {
		opts.MaxOpenConns = 10
	}
	if opts.MaxIdleConns <= 0 {
		opts.MaxIdleConns = 5
	}
	if opts.ConnMaxLifetime <= 0 {
		opts.ConnMaxLifetime = time.Hour
	}
	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(opts.MaxIdleConns)
	db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	if opts.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(opts.ConnMaxIdleTime)
	}
}

func logPoolStats(db *sql.DB, label string) {
	stats := db.Stats()
	log.Printf("%s: open=%d in_use=%d idle=%d wait=%d max_open=%d",
		label,
		stats.OpenConnections,
		stats.InUse,
		stats.Idle,
		stats.WaitCount,
		stats.MaxOpenConnections,
	)
}

func readEnvInt(key string) (int, bool) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return 0, false
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("db env %s invalid int: %v", key, err)
		return 0, false
	}
	return val, true
}

func readEnvDuration(key string) (time.Duration, bool) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return 0, false
	}
	val, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("db env %s invalid duration: %v", key, err)
		return 0, false
	}
	return val, true
}
