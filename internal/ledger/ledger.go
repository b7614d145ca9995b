// Package ledger persists RunRecord rows describing each invocation of
// the pipeline driver, through a GORM connection switched across
// sqlite, postgres, and mysql by configuration.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/sunbeam-telemetry/sunbeam/internal/config"
	"github.com/sunbeam-telemetry/sunbeam/internal/models"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Ledger wraps a GORM connection scoped to the run_records table.
type Ledger struct {
	db     *gorm.DB
	logger *slog.Logger
}

// Open establishes the ledger's database connection and migrates the
// run_records table. driver selects the dialector; sqlite DSNs are
// augmented with WAL-mode PRAGMAs applied to every pooled connection.
func Open(cfg config.LedgerConfig, log *slog.Logger) (*Ledger, error) {
	if log == nil {
		log = slog.Default()
	}

	dialector, err := getDialector(cfg)
	if err != nil {
		return nil, fmt.Errorf("ledger: getting dialector: %w", err)
	}

	gormLogger := newGormLogger(cfg.LogLevel, log)

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
	})
	if err != nil {
		return nil, fmt.Errorf("ledger: opening database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("ledger: getting underlying sql.DB: %w", err)
	}
	gormLogger.SetSQLDB(sqlDB)

	if cfg.Driver == "sqlite" {
		sqlDB.SetMaxOpenConns(6)
		sqlDB.SetMaxIdleConns(3)
	}

	if err := db.AutoMigrate(&models.RunRecord{}); err != nil {
		return nil, fmt.Errorf("ledger: migrating run_records: %w", err)
	}

	return &Ledger{db: db, logger: log}, nil
}

// getDialector returns the appropriate GORM dialector for the configured driver.
func getDialector(cfg config.LedgerConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "sqlite":
		dsn := cfg.DSN
		if dsn == "" {
			dsn = "sunbeam_ledger.db"
		}
		if !strings.Contains(dsn, "?") {
			dsn += "?"
		} else {
			dsn += "&"
		}
		dsn += "_pragma=busy_timeout(30000)" +
			"&_pragma=journal_mode(WAL)" +
			"&_pragma=synchronous(NORMAL)" +
			"&_pragma=foreign_keys(ON)"
		return sqlite.Open(dsn), nil
	case "postgres":
		return postgres.Open(cfg.DSN), nil
	case "mysql":
		return mysql.Open(cfg.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported ledger driver: %s", cfg.Driver)
	}
}

// Close closes the underlying connection.
func (l *Ledger) Close() error {
	sqlDB, err := l.db.DB()
	if err != nil {
		return fmt.Errorf("ledger: getting underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// StartRun inserts a new running RunRecord for pipelineTitle with the
// given list of stages about to execute.
func (l *Ledger) StartRun(ctx context.Context, pipelineTitle string, stages []string) (*models.RunRecord, error) {
	rec := &models.RunRecord{
		PipelineTitle:  pipelineTitle,
		StagesExecuted: strings.Join(stages, ","),
		StartedAt:      time.Now(),
		Status:         models.RunStatusRunning,
	}
	if err := l.db.WithContext(ctx).Create(rec).Error; err != nil {
		return nil, fmt.Errorf("ledger: starting run: %w", err)
	}
	return rec, nil
}

// FinishRun marks rec as completed, recording runErr if the run failed.
func (l *Ledger) FinishRun(ctx context.Context, rec *models.RunRecord, runErr error) error {
	now := time.Now()
	rec.CompletedAt = &now
	if runErr != nil {
		rec.Status = models.RunStatusFailed
		rec.LastError = runErr.Error()
	} else {
		rec.Status = models.RunStatusSucceeded
	}
	if err := l.db.WithContext(ctx).Save(rec).Error; err != nil {
		return fmt.Errorf("ledger: finishing run: %w", err)
	}
	return nil
}

// gormLogLevel maps string log levels to GORM logger levels.
func gormLogLevel(level string) logger.LogLevel {
	switch level {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

func newGormLogger(level string, log *slog.Logger) *slogGormLogger {
	return &slogGormLogger{logger: log, level: gormLogLevel(level)}
}

// slogGormLogger implements GORM's logger.Interface using slog.
type slogGormLogger struct {
	logger        *slog.Logger
	level         logger.LogLevel
	sqlDB         *sql.DB
	lastStatsLog  time.Time
	statsLogMutex sync.Mutex
}

func (l *slogGormLogger) SetSQLDB(db *sql.DB) {
	l.sqlDB = db
}

func (l *slogGormLogger) LogMode(level logger.LogLevel) logger.Interface {
	return &slogGormLogger{logger: l.logger, level: level, sqlDB: l.sqlDB, lastStatsLog: l.lastStatsLog}
}

func (l *slogGormLogger) logStatsOnError() {
	if l.sqlDB == nil {
		return
	}
	l.statsLogMutex.Lock()
	defer l.statsLogMutex.Unlock()
	if time.Since(l.lastStatsLog) < time.Minute {
		return
	}
	l.lastStatsLog = time.Now()

	stats := l.sqlDB.Stats()
	l.logger.Warn("ledger connection pool stats (on lock contention)",
		slog.Int("open_conns", stats.OpenConnections),
		slog.Int("in_use", stats.InUse),
		slog.Int64("wait_count", stats.WaitCount),
	)
}

func (l *slogGormLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= logger.Info {
		l.logger.InfoContext(ctx, fmt.Sprintf(msg, args...))
	}
}

func (l *slogGormLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= logger.Warn {
		l.logger.WarnContext(ctx, fmt.Sprintf(msg, args...))
	}
}

func (l *slogGormLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= logger.Error {
		l.logger.ErrorContext(ctx, fmt.Sprintf(msg, args...))
	}
}

const slowQueryThreshold = 1 * time.Second
const maxSQLLogLength = 200

func truncateSQL(sqlStr string) string {
	if len(sqlStr) <= maxSQLLogLength {
		return sqlStr
	}
	return sqlStr[:maxSQLLogLength] + "... (truncated)"
}

func (l *slogGormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.level <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	isError := err != nil
	isSlow := elapsed > slowQueryThreshold

	var willLog bool
	switch {
	case isError && l.level >= logger.Error:
		willLog = true
	case isSlow && l.level >= logger.Warn:
		willLog = l.logger.Enabled(ctx, slog.LevelWarn)
	case l.level >= logger.Info:
		willLog = l.logger.Enabled(ctx, slog.LevelDebug)
	}
	if !willLog {
		return
	}

	sqlStr, rows := fc()

	errStr := ""
	if err != nil {
		errStr = err.Error()
		if strings.Contains(errStr, "database is locked") {
			l.logStatsOnError()
		}
	}

	switch {
	case isError:
		l.logger.ErrorContext(ctx, "ledger database error",
			slog.String("sql", truncateSQL(sqlStr)),
			slog.Int64("rows", rows),
			slog.Duration("elapsed", elapsed),
			slog.String("error", errStr),
		)
	case isSlow:
		l.logger.WarnContext(ctx, "ledger slow query",
			slog.String("sql", truncateSQL(sqlStr)),
			slog.Int64("rows", rows),
			slog.Duration("elapsed", elapsed),
		)
	default:
		l.logger.DebugContext(ctx, "ledger query",
			slog.String("sql", truncateSQL(sqlStr)),
			slog.Int64("rows", rows),
			slog.Duration("elapsed", elapsed),
		)
	}
}
