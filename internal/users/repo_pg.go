package users

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

type PGRepo struct {
	DB *sql.DB
}

const selectColumns = `id, email, full_name, picture_url, password_hash, provider, confirmed_at, created_at, updated_at`

func (r *PGRepo) Create(ctx context.Context, user User) (User, error) {
	const query = `
INSERT INTO users (id, email, full_name, picture_url, password_hash, provider, confirmed_at, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
RETURNING created_at, updated_at`
	err := r.DB.QueryRowContext(ctx, query,
		user.ID,
		user.Email,
		user.FullName,
		user.PictureURL,
		user.PasswordHash,
		user.Provider,
		nullableTime(user.ConfirmedAt),
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return User{}, ErrDuplicate
		}
		return User{}, err
	}
	return user, nil
}

func (r *PGRepo) Upsert(ctx context.Context, user User) error {
	const query = `
INSERT INTO users (id, email, full_name, picture_url, provider, confirmed_at, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, now(), now())
ON CONFLICT (id) DO UPDATE SET
  email = EXCLUDED.email,
  full_name = EXCLUDED.full_name,
  picture_url = EXCLUDED.picture_url,
  confirmed_at = COALESCE(users.confirmed_at, EXCLUDED.confirmed_at),
  updated_at = now()`
	_, err := r.DB.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.FullName,
		user.PictureURL,
		user.Provider,
		nullableTime(user.ConfirmedAt),
	)
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, userID string) (User, error) {
	query := `SELECT ` + selectColumns + ` FROM users WHERE id = $1 LIMIT 1`
	return scanUser(r.DB.QueryRowContext(ctx, query, userID))
}

func (r *PGRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	query := `SELECT ` + selectColumns + ` FROM users WHERE lower(email) = lower($1) LIMIT 1`
	return scanUser(r.DB.QueryRowContext(ctx, query, email))
}

func (r *PGRepo) MarkConfirmed(ctx context.Context, userID string, at time.Time) error {
	const query = `UPDATE users SET confirmed_at = COALESCE(confirmed_at, $2), updated_at = now() WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query, userID, at.UTC())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanUser(row *sql.Row) (User, error) {
	var user User
	var confirmedAt sql.NullTime
	var updatedAt sql.NullTime
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.FullName,
		&user.PictureURL,
		&user.PasswordHash,
		&user.Provider,
		&confirmedAt,
		&user.CreatedAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	if confirmedAt.Valid {
		t := confirmedAt.Time
		user.ConfirmedAt = &t
	}
	if updatedAt.Valid {
		user.UpdatedAt = updatedAt.Time
	} else {
		user.UpdatedAt = time.Now().UTC()
	}
	return user, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == uniqueViolation
	}
	return false
}
