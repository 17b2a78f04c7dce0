package store

import (
	"context"
	"fmt"

	"DevHabit/internal/model"
	"DevHabit/internal/sorting"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

type TagQuery struct {
	UserID string
	Search string
	Page
}

var tagColumns = []string{"t.id", "t.user_id", "t.name", "t.description", "t.created_at_utc", "t.updated_at_utc"}

var tagSortColumns = map[string]string{
	"Id":           "t.id",
	"Name":         "t.name",
	"Description":  "t.description",
	"CreatedAtUtc": "t.created_at_utc",
	"UpdatedAtUtc": "t.updated_at_utc",
}

func tagFilter(q TagQuery) squirrel.And {
	where := squirrel.And{squirrel.Eq{"t.user_id": q.UserID}}
	if q.Search != "" {
		p := searchPattern(q.Search)
		where = append(where, squirrel.Or{
			squirrel.ILike{"t.name": p},
			squirrel.ILike{"t.description": p},
		})
	}
	return where
}

func buildTagListQuery(q TagQuery, mappings []sorting.Mapping) (squirrel.SelectBuilder, error) {
	sb := psql.Select(tagColumns...).From(table("tags") + " t").Where(tagFilter(q))
	sb, err := sorting.ApplySort(sb, q.Sort, mappings, model.DefaultSortPath, tagSortColumns)
	if err != nil {
		return sb, err
	}
	return sb.Limit(q.limit()).Offset(q.offset()), nil
}

func (s *Store) ListTags(ctx context.Context, q TagQuery) ([]model.Tag, int64, error) {
	mappings, err := sorting.GetMappings[model.TagDTO, model.Tag](s.sorts)
	if err != nil {
		return nil, 0, err
	}
	sb, err := buildTagListQuery(q, mappings)
	if err != nil {
		return nil, 0, err
	}
	sql, args, err := sb.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build tag list: %w", err)
	}
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query tags: %w", err)
	}
	tags, err := pgx.CollectRows(rows, scanTag)
	if err != nil {
		return nil, 0, fmt.Errorf("scan tags: %w", err)
	}
	total, err := count(ctx, s.db, psql.Select("COUNT(*)").From(table("tags")+" t").Where(tagFilter(q)), "count tags")
	if err != nil {
		return nil, 0, err
	}
	return tags, total, nil
}

func (s *Store) GetTag(ctx context.Context, userID, id string) (model.Tag, error) {
	sql, args, err := psql.Select(tagColumns...).From(table("tags") + " t").
		Where(squirrel.Eq{"t.id": id, "t.user_id": userID}).ToSql()
	if err != nil {
		return model.Tag{}, fmt.Errorf("build tag get: %w", err)
	}
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return model.Tag{}, fmt.Errorf("query tag: %w", err)
	}
	t, err := pgx.CollectExactlyOneRow(rows, scanTag)
	if err != nil {
		return model.Tag{}, notFoundIfNoRows(err)
	}
	return t, nil
}

// CreateTag fails with ErrDuplicate when the user already has a tag with that name.
func (s *Store) CreateTag(ctx context.Context, t model.Tag) error {
	_, err := exec(ctx, s.db, psql.Insert(table("tags")).
		Columns("id", "user_id", "name", "description", "created_at_utc").
		Values(t.ID, t.UserID, t.Name, t.Description, t.CreatedAtUTC), "insert tag")
	return err
}

func (s *Store) UpdateTag(ctx context.Context, t model.Tag) error {
	tag, err := exec(ctx, s.db, psql.Update(table("tags")).
		Set("name", t.Name).
		Set("description", t.Description).
		Set("updated_at_utc", t.UpdatedAtUTC).
		Where(squirrel.Eq{"id": t.ID, "user_id": t.UserID}), "update tag")
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeleteTag(ctx context.Context, userID, id string) error {
	tag, err := exec(ctx, s.db, psql.Delete(table("tags")).
		Where(squirrel.Eq{"id": id, "user_id": userID}), "delete tag")
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanTag(row pgx.CollectableRow) (model.Tag, error) {
	var t model.Tag
	err := row.Scan(&t.ID, &t.UserID, &t.Name, &t.Description, &t.CreatedAtUTC, &t.UpdatedAtUTC)
	return t, err
}
