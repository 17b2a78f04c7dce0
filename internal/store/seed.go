package store

import (
	"context"
	"errors"

	"DevHabit/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

var ErrAlreadySeeded = errors.New("user already has data")

// Seed inserts demo tags, habits and their links in one transaction.
// Users that already own a tag are left untouched.
func (s *Store) Seed(ctx context.Context, userID string, tags []model.Tag, habits []model.Habit, habitTags []model.HabitTag) error {
	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		n, err := count(ctx, tx, psql.Select("COUNT(*)").From(table("tags")).
			Where(squirrel.Eq{"user_id": userID}), "count user tags")
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrAlreadySeeded
		}

		if len(tags) > 0 {
			ins := psql.Insert(table("tags")).Columns("id", "user_id", "name", "description", "created_at_utc")
			for _, t := range tags {
				ins = ins.Values(t.ID, userID, t.Name, t.Description, t.CreatedAtUTC)
			}
			if _, err := exec(ctx, tx, ins, "seed tags"); err != nil {
				return err
			}
		}

		txStore := &Store{db: tx, sorts: s.sorts}
		for _, h := range habits {
			h.UserID = userID
			if err := txStore.CreateHabit(ctx, h); err != nil {
				return err
			}
		}

		if len(habitTags) > 0 {
			ins := psql.Insert(table("habit_tags")).Columns("habit_id", "tag_id", "created_at_utc")
			for _, ht := range habitTags {
				ins = ins.Values(ht.HabitID, ht.TagID, ht.CreatedAtUTC)
			}
			if _, err := exec(ctx, tx, ins, "seed habit tags"); err != nil {
				return err
			}
		}
		return nil
	})
}
