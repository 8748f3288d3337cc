package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tanzimsiamm/fiwippo-backend/internal/domain"
)

// Compile-time interface assertions.
var (
	_ OrgRepository  = (*PostgresOrgRepo)(nil)
	_ UserRepository = (*PostgresUserRepo)(nil)
)

const orgColumns = `id, slug, name, created_at, updated_at`

// PostgresOrgRepo implements OrgRepository using pgx.
type PostgresOrgRepo struct {
	db *pgxpool.Pool
}

func NewPostgresOrgRepo(pool *pgxpool.Pool) *PostgresOrgRepo {
	return &PostgresOrgRepo{db: pool}
}

func (r *PostgresOrgRepo) GetOrg(ctx context.Context, orgID int64) (domain.Org, error) {
	row := r.db.QueryRow(ctx, `SELECT `+orgColumns+` FROM organizations WHERE id = $1`, orgID)
	org, err := scanOrg(row)
	if err != nil {
		return domain.Org{}, fmt.Errorf("get org: %w", mapPostgresError(err))
	}
	return org, nil
}

func (r *PostgresOrgRepo) GetOrgBySlug(ctx context.Context, slug string) (domain.Org, error) {
	row := r.db.QueryRow(ctx, `SELECT `+orgColumns+` FROM organizations WHERE slug = $1`, slug)
	org, err := scanOrg(row)
	if err != nil {
		return domain.Org{}, fmt.Errorf("get org by slug: %w", mapPostgresError(err))
	}
	return org, nil
}

func (r *PostgresOrgRepo) CreateOrg(ctx context.Context, org domain.Org) (domain.Org, error) {
	row := r.db.QueryRow(ctx, `
INSERT INTO organizations (id, slug, name)
VALUES ($1, $2, $3)
RETURNING `+orgColumns, org.ID, org.Slug, org.Name)
	created, err := scanOrg(row)
	if err != nil {
		return domain.Org{}, fmt.Errorf("create org: %w", mapPostgresError(err))
	}
	return created, nil
}

func scanOrg(row pgx.Row) (domain.Org, error) {
	var org domain.Org
	err := row.Scan(&org.ID, &org.Slug, &org.Name, &org.CreatedAt, &org.UpdatedAt)
	return org, err
}

const userColumns = `id, organization_id, email, name, password_hash, role, provider, is_email_verified,
    verification_code, verification_code_expiry, password_reset_code, password_reset_expiry,
    refresh_token_hash, location, version, created_at, updated_at`

// PostgresUserRepo implements UserRepository using pgx.
type PostgresUserRepo struct {
	db *pgxpool.Pool
}

func NewPostgresUserRepo(pool *pgxpool.Pool) *PostgresUserRepo {
	return &PostgresUserRepo{db: pool}
}

func (r *PostgresUserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, strings.ToLower(email))
	user, err := scanUser(row)
	if err != nil {
		return domain.User{}, fmt.Errorf("get user by email: %w", mapPostgresError(err))
	}
	return user, nil
}

func (r *PostgresUserRepo) GetByID(ctx context.Context, userID int64) (domain.User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID)
	user, err := scanUser(row)
	if err != nil {
		return domain.User{}, fmt.Errorf("get user: %w", mapPostgresError(err))
	}
	return user, nil
}

func (r *PostgresUserRepo) Create(ctx context.Context, user domain.User) (domain.User, error) {
	vCode, vExpiry := splitCode(user.Verification)
	rCode, rExpiry := splitCode(user.PasswordReset)

	row := r.db.QueryRow(ctx, `
INSERT INTO users (
    id, organization_id, email, name, password_hash, role, provider, is_email_verified,
    verification_code, verification_code_expiry, password_reset_code, password_reset_expiry,
    refresh_token_hash, location, version
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, 1)
RETURNING `+userColumns,
		user.ID,
		user.OrgID,
		strings.ToLower(user.Email),
		nullString(user.Name),
		nullString(user.PasswordHash),
		user.Role,
		nullString(user.Provider),
		user.EmailVerified,
		vCode, vExpiry,
		rCode, rExpiry,
		nullString(user.RefreshTokenHash),
		user.Location,
	)

	inserted, err := scanUser(row)
	if err != nil {
		return domain.User{}, fmt.Errorf("create user: %w", mapPostgresError(err))
	}
	return inserted, nil
}

// Update locks the row, applies the patch and bumps the version in one transaction.
func (r *PostgresUserRepo) Update(ctx context.Context, userID int64, patch domain.UserPatch) (domain.User, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.User{}, fmt.Errorf("update user: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	current, err := scanUser(tx.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, userID))
	if err != nil {
		return domain.User{}, fmt.Errorf("update user: %w", mapPostgresError(err))
	}
	if patch.ExpectedVersion != 0 && current.Version != patch.ExpectedVersion {
		return domain.User{}, fmt.Errorf("update user %d: %w", userID, ErrVersionConflict)
	}

	next := patch.Apply(current)
	vCode, vExpiry := splitCode(next.Verification)
	rCode, rExpiry := splitCode(next.PasswordReset)

	updated, err := scanUser(tx.QueryRow(ctx, `
UPDATE users SET
    name = $2,
    password_hash = $3,
    is_email_verified = $4,
    verification_code = $5,
    verification_code_expiry = $6,
    password_reset_code = $7,
    password_reset_expiry = $8,
    refresh_token_hash = $9,
    location = $10,
    version = version + 1,
    updated_at = NOW()
WHERE id = $1
RETURNING `+userColumns,
		userID,
		nullString(next.Name),
		nullString(next.PasswordHash),
		next.EmailVerified,
		vCode, vExpiry,
		rCode, rExpiry,
		nullString(next.RefreshTokenHash),
		next.Location,
	))
	if err != nil {
		return domain.User{}, fmt.Errorf("update user: %w", mapPostgresError(err))
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.User{}, fmt.Errorf("update user: commit: %w", mapPostgresError(err))
	}
	return updated, nil
}

func scanUser(row pgx.Row) (domain.User, error) {
	var (
		u                     domain.User
		name, hash, provider  *string
		vCode, rCode, refresh *string
		vExpiry, rExpiry      *time.Time
	)
	if err := row.Scan(
		&u.ID,
		&u.OrgID,
		&u.Email,
		&name,
		&hash,
		&u.Role,
		&provider,
		&u.EmailVerified,
		&vCode,
		&vExpiry,
		&rCode,
		&rExpiry,
		&refresh,
		&u.Location,
		&u.Version,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		return domain.User{}, err
	}

	u.Name = deref(name)
	u.PasswordHash = deref(hash)
	u.Provider = deref(provider)
	u.RefreshTokenHash = deref(refresh)
	u.Verification = joinCode(vCode, vExpiry)
	u.PasswordReset = joinCode(rCode, rExpiry)
	return u, nil
}

func splitCode(c *domain.OneTimeCode) (*string, *time.Time) {
	if c == nil {
		return nil, nil
	}
	code, expiry := c.Code, c.ExpiresAt
	return &code, &expiry
}

func joinCode(code *string, expiry *time.Time) *domain.OneTimeCode {
	if code == nil || expiry == nil {
		return nil
	}
	return &domain.OneTimeCode{Code: *code, ExpiresAt: *expiry}
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
