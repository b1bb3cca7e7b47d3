package bundb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	handicapdb "github.com/fairway-collective/scorekeeper/app/modules/handicap/infrastructure/repositories"
	rounddb "github.com/fairway-collective/scorekeeper/app/modules/round/infrastructure/repositories"
	"github.com/fairway-collective/scorekeeper/config"
)

// DBService bundles the module repositories over one connection pool.
type DBService struct {
	RoundDB    *rounddb.RoundDBImpl
	HandicapDB *handicapdb.HandicapDBImpl
	db         *bun.DB
}

// GetDB returns the underlying database connection pool.
func (s *DBService) GetDB() *bun.DB {
	return s.db
}

// NewBunDBService initializes a DBService from the Postgres configuration.
func NewBunDBService(ctx context.Context, cfg config.PostgresConfig) (*DBService, error) {
	sqldb, err := pgConn(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db := bun.NewDB(sqldb, pgdialect.New())

	db.RegisterModel((*rounddb.Round)(nil))
	db.RegisterModel((*rounddb.ScoreEntry)(nil))
	db.RegisterModel((*rounddb.ScoreEditRecord)(nil))
	db.RegisterModel((*handicapdb.Differential)(nil))
	db.RegisterModel((*handicapdb.IndexSnapshot)(nil))

	return &DBService{
		RoundDB:    &rounddb.RoundDBImpl{DB: db},
		HandicapDB: &handicapdb.HandicapDBImpl{DB: db},
		db:         db,
	}, nil
}

func pgConn(ctx context.Context, dsn string) (*sql.DB, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	if err := sqldb.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return sqldb, nil
}
