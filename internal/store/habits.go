package store

import (
	"context"
	"fmt"
	"time"

	"DevHabit/internal/model"
	"DevHabit/internal/sorting"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

// HabitQuery filters a habit listing. UserID is mandatory.
type HabitQuery struct {
	UserID string
	Search string
	Type   *model.HabitType
	Status *model.HabitStatus
	Page
}

var habitColumns = []string{
	"h.id", "h.user_id", "h.name", "h.description", "h.type",
	"h.frequency_times_per_period", "h.frequency_type",
	"h.target_value", "h.target_unit",
	"h.status", "h.is_archived", "h.end_date",
	"h.milestone_target", "h.milestone_current",
	"h.created_at_utc", "h.updated_at_utc", "h.last_completed_at_utc",
}

// habitSortColumns resolves sort property paths to columns.
var habitSortColumns = map[string]string{
	"Id":                       "h.id",
	"Name":                     "h.name",
	"Type":                     "h.type",
	"Description":              "h.description",
	"Status":                   "h.status",
	"IsArchived":               "h.is_archived",
	"EndDate":                  "h.end_date",
	"CreatedAtUtc":             "h.created_at_utc",
	"UpdatedAtUtc":             "h.updated_at_utc",
	"LastCompletedAt":          "h.last_completed_at_utc",
	"Frequency.TimesPerPeriod": "h.frequency_times_per_period",
	"Frequency.Type":           "h.frequency_type",
	"Target.Value":             "h.target_value",
	"Target.Unit":              "h.target_unit",
}

func habitFilter(q HabitQuery) squirrel.And {
	where := squirrel.And{squirrel.Eq{"h.user_id": q.UserID}}
	if q.Search != "" {
		p := searchPattern(q.Search)
		where = append(where, squirrel.Or{
			squirrel.ILike{"h.name": p},
			squirrel.ILike{"h.description": p},
		})
	}
	if q.Type != nil {
		where = append(where, squirrel.Eq{"h.type": int(*q.Type)})
	}
	if q.Status != nil {
		where = append(where, squirrel.Eq{"h.status": int(*q.Status)})
	}
	return where
}

func buildHabitListQuery(q HabitQuery, mappings []sorting.Mapping) (squirrel.SelectBuilder, error) {
	sb := psql.Select(habitColumns...).
		From(table("habits") + " h").
		Where(habitFilter(q))
	sb, err := sorting.ApplySort(sb, q.Sort, mappings, model.DefaultSortPath, habitSortColumns)
	if err != nil {
		return sb, err
	}
	return sb.Limit(q.limit()).Offset(q.offset()), nil
}

func buildHabitCountQuery(q HabitQuery) squirrel.SelectBuilder {
	return psql.Select("COUNT(*)").
		From(table("habits") + " h").
		Where(habitFilter(q))
}

// ListHabits returns one page of the caller's habits and the total match count.
func (s *Store) ListHabits(ctx context.Context, q HabitQuery) ([]model.Habit, int64, error) {
	mappings, err := sorting.GetMappings[model.HabitDTO, model.Habit](s.sorts)
	if err != nil {
		return nil, 0, err
	}
	sb, err := buildHabitListQuery(q, mappings)
	if err != nil {
		return nil, 0, err
	}
	sql, args, err := sb.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build habit list: %w", err)
	}
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query habits: %w", err)
	}
	habits, err := pgx.CollectRows(rows, scanHabit)
	if err != nil {
		return nil, 0, fmt.Errorf("scan habits: %w", err)
	}

	total, err := count(ctx, s.db, buildHabitCountQuery(q), "count habits")
	if err != nil {
		return nil, 0, err
	}
	return habits, total, nil
}

// GetHabit is owner-scoped: a habit of another user is ErrNotFound.
func (s *Store) GetHabit(ctx context.Context, userID, id string, withTags bool) (model.Habit, error) {
	sql, args, err := psql.Select(habitColumns...).
		From(table("habits") + " h").
		Where(squirrel.Eq{"h.id": id, "h.user_id": userID}).
		ToSql()
	if err != nil {
		return model.Habit{}, fmt.Errorf("build habit get: %w", err)
	}
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return model.Habit{}, fmt.Errorf("query habit: %w", err)
	}
	h, err := pgx.CollectExactlyOneRow(rows, scanHabit)
	if err != nil {
		return model.Habit{}, notFoundIfNoRows(err)
	}
	if withTags {
		if h.Tags, err = s.habitTagNames(ctx, h.ID); err != nil {
			return model.Habit{}, err
		}
	}
	return h, nil
}

func (s *Store) habitTagNames(ctx context.Context, habitID string) ([]string, error) {
	sql, args, err := psql.Select("t.name").
		From(table("habit_tags") + " ht").
		Join(table("tags") + " t ON t.id = ht.tag_id").
		Where(squirrel.Eq{"ht.habit_id": habitID}).
		OrderBy("t.name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build habit tags: %w", err)
	}
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query habit tags: %w", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan habit tags: %w", err)
	}
	return names, nil
}

func habitValues(h model.Habit) map[string]any {
	var msTarget, msCurrent *int
	if h.Milestone != nil {
		msTarget, msCurrent = &h.Milestone.Target, &h.Milestone.Current
	}
	return map[string]any{
		"name":                       h.Name,
		"description":                h.Description,
		"type":                       int(h.Type),
		"frequency_times_per_period": h.Frequency.TimesPerPeriod,
		"frequency_type":             int(h.Frequency.Type),
		"target_value":               h.Target.Value,
		"target_unit":                h.Target.Unit,
		"status":                     int(h.Status),
		"is_archived":                h.IsArchived,
		"end_date":                   h.EndDate,
		"milestone_target":           msTarget,
		"milestone_current":          msCurrent,
		"updated_at_utc":             h.UpdatedAtUTC,
		"last_completed_at_utc":      h.LastCompletedAt,
	}
}

func (s *Store) CreateHabit(ctx context.Context, h model.Habit) error {
	values := habitValues(h)
	values["id"] = h.ID
	values["user_id"] = h.UserID
	values["created_at_utc"] = h.CreatedAtUTC
	_, err := exec(ctx, s.db, psql.Insert(table("habits")).SetMap(values), "insert habit")
	return err
}

func (s *Store) UpdateHabit(ctx context.Context, h model.Habit) error {
	tag, err := exec(ctx, s.db,
		psql.Update(table("habits")).
			SetMap(habitValues(h)).
			Where(squirrel.Eq{"id": h.ID, "user_id": h.UserID}),
		"update habit")
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeleteHabit(ctx context.Context, userID, id string) error {
	tag, err := exec(ctx, s.db,
		psql.Delete(table("habits")).Where(squirrel.Eq{"id": id, "user_id": userID}),
		"delete habit")
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ReplaceHabitTags makes the habit's tag set equal to tagIDs.
// It reports false when the set was already equal.
func (s *Store) ReplaceHabitTags(ctx context.Context, userID, habitID string, tagIDs []string) (bool, error) {
	changed := false
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx,
			"SELECT EXISTS (SELECT 1 FROM "+table("habits")+" WHERE id = $1 AND user_id = $2)",
			habitID, userID).Scan(&exists); err != nil {
			return fmt.Errorf("check habit: %w", err)
		}
		if !exists {
			return ErrNotFound
		}

		sql, args, err := psql.Select("tag_id").From(table("habit_tags")).
			Where(squirrel.Eq{"habit_id": habitID}).ToSql()
		if err != nil {
			return err
		}
		rows, err := tx.Query(ctx, sql, args...)
		if err != nil {
			return fmt.Errorf("query habit tags: %w", err)
		}
		current, err := pgx.CollectRows(rows, pgx.RowTo[string])
		if err != nil {
			return fmt.Errorf("scan habit tags: %w", err)
		}
		toAdd, toRemove := diffSets(current, tagIDs)
		if len(toAdd) == 0 && len(toRemove) == 0 {
			return nil
		}

		if len(tagIDs) > 0 {
			n, err := count(ctx, tx, psql.Select("COUNT(*)").From(table("tags")).
				Where(squirrel.Eq{"id": tagIDs, "user_id": userID}), "count tags")
			if err != nil {
				return err
			}
			if n != int64(len(tagIDs)) {
				return ErrUnknownTag
			}
		}

		if len(toRemove) > 0 {
			if _, err := exec(ctx, tx, psql.Delete(table("habit_tags")).
				Where(squirrel.Eq{"habit_id": habitID, "tag_id": toRemove}), "remove habit tags"); err != nil {
				return err
			}
		}
		if len(toAdd) > 0 {
			now := time.Now().UTC()
			ins := psql.Insert(table("habit_tags")).Columns("habit_id", "tag_id", "created_at_utc")
			for _, id := range toAdd {
				ins = ins.Values(habitID, id, now)
			}
			if _, err := exec(ctx, tx, ins, "add habit tags"); err != nil {
				if isForeignKeyViolation(err) {
					return ErrUnknownTag
				}
				return err
			}
		}
		changed = true
		return nil
	})
	return changed, err
}

func (s *Store) DeleteHabitTag(ctx context.Context, userID, habitID, tagID string) error {
	tag, err := exec(ctx, s.db,
		psql.Delete(table("habit_tags")+" ht").
			Where(squirrel.Eq{"ht.habit_id": habitID, "ht.tag_id": tagID}).
			Where("EXISTS (SELECT 1 FROM "+table("habits")+" h WHERE h.id = ht.habit_id AND h.user_id = ?)", userID),
		"delete habit tag")
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// diffSets returns ids present only in want (add) and only in have (remove).
func diffSets(have, want []string) (add, remove []string) {
	haveSet := make(map[string]struct{}, len(have))
	for _, id := range have {
		haveSet[id] = struct{}{}
	}
	wantSet := make(map[string]struct{}, len(want))
	for _, id := range want {
		wantSet[id] = struct{}{}
		if _, ok := haveSet[id]; !ok {
			add = append(add, id)
		}
	}
	for _, id := range have {
		if _, ok := wantSet[id]; !ok {
			remove = append(remove, id)
		}
	}
	return add, remove
}

func scanHabit(row pgx.CollectableRow) (model.Habit, error) {
	var (
		h                   model.Habit
		typ, freqType, stat int
		msTarget, msCurrent *int
	)
	err := row.Scan(
		&h.ID, &h.UserID, &h.Name, &h.Description, &typ,
		&h.Frequency.TimesPerPeriod, &freqType,
		&h.Target.Value, &h.Target.Unit,
		&stat, &h.IsArchived, &h.EndDate,
		&msTarget, &msCurrent,
		&h.CreatedAtUTC, &h.UpdatedAtUTC, &h.LastCompletedAt,
	)
	if err != nil {
		return model.Habit{}, err
	}
	h.Type = model.HabitType(typ)
	h.Frequency.Type = model.FrequencyType(freqType)
	h.Status = model.HabitStatus(stat)
	if msTarget != nil {
		h.Milestone = &model.Milestone{Target: *msTarget}
		if msCurrent != nil {
			h.Milestone.Current = *msCurrent
		}
	}
	return h, nil
}
