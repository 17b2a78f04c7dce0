package store

import (
	"context"
	"fmt"

	"DevHabit/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

// Register creates the identity and its user in one transaction.
// A taken email is ErrDuplicate.
func (s *Store) Register(ctx context.Context, identity model.Identity, user model.User) error {
	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		if _, err := exec(ctx, tx, psql.Insert(table("identity_users")).
			Columns("id", "email", "normalized_email", "password_hash").
			Values(identity.ID, identity.Email, normalizeEmail(identity.Email), identity.PasswordHash),
			"insert identity"); err != nil {
			return err
		}
		_, err := exec(ctx, tx, psql.Insert(table("users")).
			Columns("id", "email", "name", "identity_id", "created_at_utc").
			Values(user.ID, user.Email, user.Name, user.IdentityID, user.CreatedAtUTC),
			"insert user")
		return err
	})
}

func (s *Store) GetIdentityByEmail(ctx context.Context, email string) (model.Identity, error) {
	sql, args, err := psql.Select("id", "email", "password_hash").From(table("identity_users")).
		Where(squirrel.Eq{"normalized_email": normalizeEmail(email)}).ToSql()
	if err != nil {
		return model.Identity{}, fmt.Errorf("build identity get: %w", err)
	}
	var id model.Identity
	if err := s.db.QueryRow(ctx, sql, args...).Scan(&id.ID, &id.Email, &id.PasswordHash); err != nil {
		return model.Identity{}, notFoundIfNoRows(err)
	}
	return id, nil
}

func (s *Store) GetIdentity(ctx context.Context, id string) (model.Identity, error) {
	sql, args, err := psql.Select("id", "email", "password_hash").From(table("identity_users")).
		Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return model.Identity{}, fmt.Errorf("build identity get: %w", err)
	}
	var identity model.Identity
	if err := s.db.QueryRow(ctx, sql, args...).Scan(&identity.ID, &identity.Email, &identity.PasswordHash); err != nil {
		return model.Identity{}, notFoundIfNoRows(err)
	}
	return identity, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (model.User, error) {
	sql, args, err := psql.Select("id", "email", "name", "identity_id", "created_at_utc", "updated_at_utc").
		From(table("users")).Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return model.User{}, fmt.Errorf("build user get: %w", err)
	}
	var u model.User
	if err := s.db.QueryRow(ctx, sql, args...).Scan(&u.ID, &u.Email, &u.Name, &u.IdentityID, &u.CreatedAtUTC, &u.UpdatedAtUTC); err != nil {
		return model.User{}, notFoundIfNoRows(err)
	}
	return u, nil
}

// UserIDByIdentity resolves a token subject to the internal user id.
func (s *Store) UserIDByIdentity(ctx context.Context, identityID string) (string, error) {
	sql, args, err := psql.Select("id").From(table("users")).
		Where(squirrel.Eq{"identity_id": identityID}).ToSql()
	if err != nil {
		return "", fmt.Errorf("build user lookup: %w", err)
	}
	var id string
	if err := s.db.QueryRow(ctx, sql, args...).Scan(&id); err != nil {
		return "", notFoundIfNoRows(err)
	}
	return id, nil
}

func (s *Store) CreateRefreshToken(ctx context.Context, t model.RefreshToken) error {
	_, err := exec(ctx, s.db, psql.Insert(table("refresh_tokens")).
		Columns("id", "identity_id", "token", "expires_at_utc").
		Values(t.ID, t.IdentityID, t.Token, t.ExpiresAtUTC), "insert refresh token")
	return err
}

// ConsumeRefreshToken deletes the token and returns it; each refresh token is single use.
func (s *Store) ConsumeRefreshToken(ctx context.Context, token string) (model.RefreshToken, error) {
	sql, args, err := psql.Delete(table("refresh_tokens")).
		Where(squirrel.Eq{"token": token}).
		Suffix("RETURNING id, identity_id, token, expires_at_utc").ToSql()
	if err != nil {
		return model.RefreshToken{}, fmt.Errorf("build refresh token consume: %w", err)
	}
	var t model.RefreshToken
	if err := s.db.QueryRow(ctx, sql, args...).Scan(&t.ID, &t.IdentityID, &t.Token, &t.ExpiresAtUTC); err != nil {
		return model.RefreshToken{}, notFoundIfNoRows(err)
	}
	return t, nil
}

// UpsertGitHubToken keeps at most one token per user.
func (s *Store) UpsertGitHubToken(ctx context.Context, t model.GitHubAccessToken) error {
	_, err := exec(ctx, s.db, psql.Insert(table("github_access_tokens")).
		Columns("id", "user_id", "token", "expires_at_utc", "created_at_utc").
		Values(t.ID, t.UserID, t.Token, t.ExpiresAtUTC, t.CreatedAtUTC).
		Suffix("ON CONFLICT (user_id) DO UPDATE SET token = EXCLUDED.token, expires_at_utc = EXCLUDED.expires_at_utc"),
		"upsert github token")
	return err
}

// GitHubToken returns the user's token unless it is missing or expired.
func (s *Store) GitHubToken(ctx context.Context, userID string) (string, error) {
	sql, args, err := psql.Select("token").From(table("github_access_tokens")).
		Where(squirrel.Eq{"user_id": userID}).
		Where("expires_at_utc > now()").ToSql()
	if err != nil {
		return "", fmt.Errorf("build github token get: %w", err)
	}
	var token string
	if err := s.db.QueryRow(ctx, sql, args...).Scan(&token); err != nil {
		return "", notFoundIfNoRows(err)
	}
	return token, nil
}

func (s *Store) DeleteGitHubToken(ctx context.Context, userID string) error {
	tag, err := exec(ctx, s.db, psql.Delete(table("github_access_tokens")).
		Where(squirrel.Eq{"user_id": userID}), "delete github token")
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
