package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// userRepo implements UserRepository.
type userRepo struct {
	pool *pgxpool.Pool
}

const userColumns = `id, email, name, password_hash, oidc_subject, role, is_active, created_at, last_login_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.OIDCSubject, &u.Role, &u.IsActive, &u.CreatedAt, &u.LastLoginAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

func (r *userRepo) Create(ctx context.Context, user User) (*User, error) {
	defer observeDB(ctx, "db.users.create")()
	const q = `INSERT INTO users (id, email, name, password_hash, oidc_subject, role, is_active)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + userColumns
	return scanUser(r.pool.QueryRow(ctx, q, user.ID, user.Email, user.Name, user.PasswordHash, user.OIDCSubject, user.Role, user.IsActive))
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*User, error) {
	defer observeDB(ctx, "db.users.get_by_id")()
	const q = `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	return scanUser(r.pool.QueryRow(ctx, q, id))
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*User, error) {
	defer observeDB(ctx, "db.users.get_by_email")()
	const q = `SELECT ` + userColumns + ` FROM users WHERE lower(email)=lower($1)`
	return scanUser(r.pool.QueryRow(ctx, q, email))
}

func (r *userRepo) GetByOIDCSubject(ctx context.Context, subject string) (*User, error) {
	defer observeDB(ctx, "db.users.get_by_oidc_subject")()
	const q = `SELECT ` + userColumns + ` FROM users WHERE oidc_subject=$1`
	return scanUser(r.pool.QueryRow(ctx, q, subject))
}

func (r *userRepo) List(ctx context.Context) ([]User, error) {
	defer observeDB(ctx, "db.users.list")()
	const q = `SELECT ` + userColumns + ` FROM users ORDER BY created_at`
	return r.queryUsers(ctx, q)
}

func (r *userRepo) ListActive(ctx context.Context) ([]User, error) {
	defer observeDB(ctx, "db.users.list_active")()
	const q = `SELECT ` + userColumns + ` FROM users WHERE is_active ORDER BY created_at`
	return r.queryUsers(ctx, q)
}

func (r *userRepo) queryUsers(ctx context.Context, q string) ([]User, error) {
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (r *userRepo) Update(ctx context.Context, user User) error {
	defer observeDB(ctx, "db.users.update")()
	const q = `UPDATE users SET email=$2, name=$3, password_hash=$4, role=$5, is_active=$6 WHERE id=$1`
	tag, err := r.pool.Exec(ctx, q, user.ID, user.Email, user.Name, user.PasswordHash, user.Role, user.IsActive)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepo) TouchLastLogin(ctx context.Context, id string) error {
	defer observeDB(ctx, "db.users.touch_last_login")()
	const q = `UPDATE users SET last_login_at=NOW() WHERE id=$1`
	_, err := r.pool.Exec(ctx, q, id)
	return err
}

func (r *userRepo) Delete(ctx context.Context, id string) error {
	defer observeDB(ctx, "db.users.delete")()
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// sessionRepo implements SessionRepository.
type sessionRepo struct {
	pool *pgxpool.Pool
}

const sessionColumns = `id, user_id, user_agent, ip_address, created_at, expires_at, last_seen_at`

func scanSession(row pgx.Row) (*Session, error) {
	var s Session
	err := row.Scan(&s.ID, &s.UserID, &s.UserAgent, &s.IPAddress, &s.CreatedAt, &s.ExpiresAt, &s.LastSeenAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}
	return &s, nil
}

func (r *sessionRepo) Create(ctx context.Context, session Session) error {
	defer observeDB(ctx, "db.sessions.create")()
	const q = `INSERT INTO sessions (id, user_id, user_agent, ip_address, expires_at)
VALUES ($1, $2, $3, $4, $5)`
	_, err := r.pool.Exec(ctx, q, session.ID, session.UserID, session.UserAgent, session.IPAddress, session.ExpiresAt)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (r *sessionRepo) GetByID(ctx context.Context, id string) (*Session, error) {
	defer observeDB(ctx, "db.sessions.get_by_id")()
	const q = `SELECT ` + sessionColumns + ` FROM sessions WHERE id=$1`
	return scanSession(r.pool.QueryRow(ctx, q, id))
}

func (r *sessionRepo) ListByUser(ctx context.Context, userID string) ([]Session, error) {
	defer observeDB(ctx, "db.sessions.list_by_user")()
	const q = `SELECT ` + sessionColumns + ` FROM sessions WHERE user_id=$1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

func (r *sessionRepo) TouchLastSeen(ctx context.Context, id string) error {
	defer observeDB(ctx, "db.sessions.touch_last_seen")()
	_, err := r.pool.Exec(ctx, `UPDATE sessions SET last_seen_at=NOW() WHERE id=$1`, id)
	return err
}

func (r *sessionRepo) Delete(ctx context.Context, id string) error {
	defer observeDB(ctx, "db.sessions.delete")()
	tag, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *sessionRepo) DeleteExpired(ctx context.Context) error {
	defer observeDB(ctx, "db.sessions.delete_expired")()
	_, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at < NOW()`)
	return err
}

// googleTokenRepo implements GoogleTokenRepository.
type googleTokenRepo struct {
	pool *pgxpool.Pool
}

func (r *googleTokenRepo) Upsert(ctx context.Context, token GoogleToken) error {
	defer observeDB(ctx, "db.google_tokens.upsert")()
	const q = `INSERT INTO google_tokens (user_id, access_token, refresh_token, expires_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id) DO UPDATE SET
    access_token=EXCLUDED.access_token,
    refresh_token=COALESCE(EXCLUDED.refresh_token, google_tokens.refresh_token),
    expires_at=EXCLUDED.expires_at,
    updated_at=NOW()`
	_, err := r.pool.Exec(ctx, q, token.UserID, token.AccessToken, token.RefreshToken, token.ExpiresAt)
	if err != nil {
		return fmt.Errorf("upsert google token: %w", err)
	}
	return nil
}

func (r *googleTokenRepo) GetByUser(ctx context.Context, userID string) (*GoogleToken, error) {
	defer observeDB(ctx, "db.google_tokens.get_by_user")()
	const q = `SELECT user_id, access_token, refresh_token, expires_at, created_at, updated_at
FROM google_tokens WHERE user_id=$1`
	var t GoogleToken
	err := r.pool.QueryRow(ctx, q, userID).Scan(&t.UserID, &t.AccessToken, &t.RefreshToken, &t.ExpiresAt, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get google token: %w", err)
	}
	return &t, nil
}

func (r *googleTokenRepo) UpdateAccess(ctx context.Context, userID, accessToken string, expiresAt *time.Time) error {
	defer observeDB(ctx, "db.google_tokens.update_access")()
	const q = `UPDATE google_tokens SET access_token=$2, expires_at=$3, updated_at=NOW() WHERE user_id=$1`
	tag, err := r.pool.Exec(ctx, q, userID, accessToken, expiresAt)
	if err != nil {
		return fmt.Errorf("update google token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *googleTokenRepo) Delete(ctx context.Context, userID string) error {
	defer observeDB(ctx, "db.google_tokens.delete")()
	_, err := r.pool.Exec(ctx, `DELETE FROM google_tokens WHERE user_id=$1`, userID)
	return err
}
