package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Database wraps a *gorm.DB with the pool/lifecycle helpers the
// service's composition root needs.
type Database struct {
	*gorm.DB
	config DatabaseConfig
	logger *slog.Logger
}

// DatabaseConfig holds the database connection settings, populated
// from the service's configuration (see internal/config).
type DatabaseConfig struct {
	Type        string // "postgres" or "sqlite"
	DSN         string
	MaxConns    int
	MaxIdle     int
	MaxLifetime time.Duration
	MaxIdleTime time.Duration
	AutoMigrate bool
}

// NewDatabase opens a GORM connection and, if configured, migrates and
// indexes the article_embeddings table.
func NewDatabase(cfg DatabaseConfig, logger *slog.Logger) (*Database, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database DSN is required")
	}

	var dialector gorm.Dialector
	switch cfg.Type {
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}

	gormConfig := &gorm.Config{
		Logger: NewGormLogger(logger),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		PrepareStmt: true,
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database connection pool unavailable: %w", err)
	}

	if cfg.MaxConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxConns)
	}
	if cfg.MaxIdle > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdle)
	}
	sqlDB.SetConnMaxLifetime(cfg.MaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.MaxIdleTime)

	database := &Database{DB: db, config: cfg, logger: logger}

	if cfg.AutoMigrate {
		if err := database.Migrate(); err != nil {
			return nil, fmt.Errorf("database migration failed: %w", err)
		}
	}

	logger.Info("database connection established",
		slog.String("type", cfg.Type),
		slog.Int("max_conns", cfg.MaxConns),
		slog.Int("max_idle", cfg.MaxIdle))

	return database, nil
}

// Migrate creates the pgvector extension (Postgres only, a no-op
// elsewhere) and the article_embeddings table.
func (d *Database) Migrate() error {
	if d.config.Type == "postgres" {
		if err := d.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
			d.logger.Warn("failed to ensure pgvector extension, migration may fail", slog.String("error", err.Error()))
		}
	}

	if err := d.AutoMigrate(&ArticleEmbedding{}); err != nil {
		return fmt.Errorf("failed to migrate ArticleEmbedding: %w", err)
	}

	if err := d.createCustomIndexes(); err != nil {
		return fmt.Errorf("failed to create custom indexes: %w", err)
	}

	d.logger.Info("database migration completed")
	return nil
}

func (d *Database) createCustomIndexes() error {
	var indexes []string

	switch d.config.Type {
	case "postgres":
		indexes = []string{
			"CREATE INDEX IF NOT EXISTS idx_article_embeddings_vector ON article_embeddings USING ivfflat (vector vector_cosine_ops) WITH (lists = 100)",
			"CREATE INDEX IF NOT EXISTS idx_article_embeddings_cached_at ON article_embeddings (cached_at DESC)",
		}
	case "sqlite":
		indexes = []string{
			"CREATE INDEX IF NOT EXISTS idx_article_embeddings_cached_at ON article_embeddings (cached_at DESC)",
		}
	}

	for _, indexSQL := range indexes {
		if err := d.Exec(indexSQL).Error; err != nil {
			d.logger.Warn("failed to create index", slog.String("sql", indexSQL), slog.String("error", err.Error()))
		}
	}

	return nil
}

// Ping checks the database connection.
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the database connection.
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Transaction executes fn within a database transaction.
func (d *Database) Transaction(ctx context.Context, fn func(*gorm.DB) error) error {
	return d.WithContext(ctx).Transaction(fn)
}

// GormLogger adapts slog to the gorm logger.Interface.
type GormLogger struct {
	logger *slog.Logger
}

func NewGormLogger(logger *slog.Logger) logger.Interface {
	return &GormLogger{logger: logger}
}

func (l *GormLogger) LogMode(logger.LogLevel) logger.Interface {
	return l
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	l.logger.InfoContext(ctx, fmt.Sprintf(msg, data...))
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	l.logger.WarnContext(ctx, fmt.Sprintf(msg, data...))
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	l.logger.ErrorContext(ctx, fmt.Sprintf(msg, data...))
}

func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	elapsed := time.Since(begin)
	sql, rows := fc()

	args := []any{
		slog.Duration("elapsed", elapsed),
		slog.Int64("rows", rows),
		slog.String("sql", sql),
	}

	if err != nil {
		args = append(args, slog.String("error", err.Error()))
		l.logger.ErrorContext(ctx, "sql query failed", args...)
	} else {
		l.logger.DebugContext(ctx, "sql query executed", args...)
	}
}
