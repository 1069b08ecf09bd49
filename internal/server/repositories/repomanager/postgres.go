// Package repomanager provides the PostgreSQL RepositoryManager, wiring
// repository constructors and goose schema migrations together.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/workly/internal/dbx"
	"github.com/dmitrijs2005/workly/internal/server/migrations"
	"github.com/dmitrijs2005/workly/internal/server/repositories/contracts"
	"github.com/dmitrijs2005/workly/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/workly/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repositories. The
// refresh-token store may be replaced by an external one (Redis), which is
// then returned regardless of the DBTX passed in.
type PostgresRepositoryManager struct {
	refreshStore refreshtokens.Repository
}

// Option configures a PostgresRepositoryManager.
type Option func(*PostgresRepositoryManager)

// WithRefreshTokenStore routes RefreshTokens to store instead of PostgreSQL.
func WithRefreshTokenStore(store refreshtokens.Repository) Option {
	return func(m *PostgresRepositoryManager) {
		m.refreshStore = store
	}
}

func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) RefreshTokens(db dbx.DBTX) refreshtokens.Repository {
	if m.refreshStore != nil {
		return m.refreshStore
	}
	return refreshtokens.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Contracts(db dbx.DBTX) contracts.Repository {
	return contracts.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded migrations to db.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func NewPostgresRepositoryManager(opts ...Option) *PostgresRepositoryManager {
	m := &PostgresRepositoryManager{}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// OpenDB opens a pgx-backed *sql.DB and verifies the connection.
func OpenDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return db, nil
}
