package handicapmigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	handicapdb "github.com/fairway-collective/scorekeeper/app/modules/handicap/infrastructure/repositories"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating handicap tables...")

		if _, err := db.NewCreateTable().Model((*handicapdb.Differential)(nil)).IfNotExists().Exec(ctx); err != nil {
			return err
		}
		if _, err := db.NewCreateTable().Model((*handicapdb.IndexSnapshot)(nil)).IfNotExists().Exec(ctx); err != nil {
			return err
		}

		if _, err := db.NewCreateIndex().
			Model((*handicapdb.Differential)(nil)).
			Index("uq_differentials_player_round").
			Column("player_id", "round_id").
			Unique().
			IfNotExists().
			Exec(ctx); err != nil {
			return err
		}
		if _, err := db.NewCreateIndex().
			Model((*handicapdb.IndexSnapshot)(nil)).
			Index("idx_snapshots_player").
			Column("player_id").
			IfNotExists().
			Exec(ctx); err != nil {
			return err
		}

		fmt.Println("Handicap tables created successfully!")
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping handicap tables...")

		if _, err := db.NewDropTable().Model((*handicapdb.IndexSnapshot)(nil)).IfExists().Exec(ctx); err != nil {
			return err
		}
		if _, err := db.NewDropTable().Model((*handicapdb.Differential)(nil)).IfExists().Exec(ctx); err != nil {
			return err
		}

		fmt.Println("Handicap tables dropped successfully!")
		return nil
	})
}
