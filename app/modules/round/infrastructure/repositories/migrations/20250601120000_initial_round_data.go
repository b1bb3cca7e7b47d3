package roundmigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	rounddb "github.com/fairway-collective/scorekeeper/app/modules/round/infrastructure/repositories"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating round tables...")

		if _, err := db.NewCreateTable().Model((*rounddb.Round)(nil)).IfNotExists().Exec(ctx); err != nil {
			return err
		}
		if _, err := db.NewCreateTable().Model((*rounddb.ScoreEntry)(nil)).IfNotExists().Exec(ctx); err != nil {
			return err
		}
		if _, err := db.NewCreateTable().Model((*rounddb.ScoreEditRecord)(nil)).IfNotExists().Exec(ctx); err != nil {
			return err
		}

		if _, err := db.NewCreateIndex().
			Model((*rounddb.ScoreEntry)(nil)).
			Index("idx_score_entries_round").
			Column("round_id").
			IfNotExists().
			Exec(ctx); err != nil {
			return err
		}
		if _, err := db.NewCreateIndex().
			Model((*rounddb.ScoreEntry)(nil)).
			Index("uq_score_entries_cell").
			Column("round_id", "player_id", "hole_number").
			Unique().
			IfNotExists().
			Exec(ctx); err != nil {
			return err
		}
		if _, err := db.NewCreateIndex().
			Model((*rounddb.ScoreEditRecord)(nil)).
			Index("idx_score_edits_round").
			Column("round_id").
			IfNotExists().
			Exec(ctx); err != nil {
			return err
		}

		fmt.Println("Round tables created successfully!")
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping round tables...")

		if _, err := db.NewDropTable().Model((*rounddb.ScoreEditRecord)(nil)).IfExists().Exec(ctx); err != nil {
			return err
		}
		if _, err := db.NewDropTable().Model((*rounddb.ScoreEntry)(nil)).IfExists().Exec(ctx); err != nil {
			return err
		}
		if _, err := db.NewDropTable().Model((*rounddb.Round)(nil)).IfExists().Exec(ctx); err != nil {
			return err
		}

		fmt.Println("Round tables dropped successfully!")
		return nil
	})
}
