//go:build integration

package service_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tanzimsiamm/fiwippo-backend/internal/jwt"
	"github.com/tanzimsiamm/fiwippo-backend/internal/org"
	"github.com/tanzimsiamm/fiwippo-backend/internal/otp"
	"github.com/tanzimsiamm/fiwippo-backend/internal/password"
	"github.com/tanzimsiamm/fiwippo-backend/internal/repository"
	"github.com/tanzimsiamm/fiwippo-backend/internal/service"
)

func setupDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL must be set for integration tests")
	}

	ctx := context.Background()
	pool, err := repository.NewPool(ctx, repository.PoolConfig{DatabaseURL: dbURL, MaxConns: 4})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, repository.Migrate(ctx, pool, zap.NewNop()))
	return pool
}

func seedBaseOrg(t *testing.T, db *pgxpool.Pool) string {
	t.Helper()
	slug := "it-" + time.Now().Format("150405.000000")

	_, err := db.Exec(context.Background(), `
		INSERT INTO organizations (id, slug, name)
		VALUES ($1, $2, $3)
	`, time.Now().UnixNano(), slug, "Integration Org")
	require.NoError(t, err)
	return slug
}

func newRealAuthService(t *testing.T, db *pgxpool.Pool, notifier service.Notifier) *service.AuthService {
	t.Helper()

	issuer, err := jwt.NewIssuer(jwt.Config{
		AccessSecret:  []byte("access-secret-0123456789abcdef0123456789"),
		RefreshSecret: []byte("refresh-secret-0123456789abcdef012345678"),
		AccessTTL:     time.Hour,
		RefreshTTL:    24 * time.Hour,
	})
	require.NoError(t, err)

	node, err := snowflake.NewNode(2)
	require.NoError(t, err)

	users := repository.NewPostgresUserRepo(db)
	return service.NewAuthService(service.Dependencies{
		Users:     users,
		Orgs:      org.NewResolver(repository.NewPostgresOrgRepo(db)),
		Hasher:    password.NewHasher(password.Params{Time: 1, Memory: 1024, Threads: 1}),
		Tokens:    issuer,
		Codes:     otp.NewGenerator(),
		Notifier:  notifier,
		Providers: &stubProviders{},
		IDs:       node,
	}, zap.NewExample())
}

func TestAuthService_SignUpVerifyLogin_Integration(t *testing.T) {
	db := setupDB(t)
	slug := seedBaseOrg(t, db)
	notifier := newRecordingNotifier()
	svc := newRealAuthService(t, db, notifier)

	ctx := context.Background()
	email := "owner+" + slug + "@example.com"

	signup, err := svc.SignUp(ctx, service.SignUpRequest{
		OrgSlug: slug, Email: email, Password: "secret123", ConfirmPassword: "secret123", TermsAccepted: true,
	})
	require.NoError(t, err)

	_, err = svc.Login(ctx, service.LoginRequest{Email: email, Password: "secret123"})
	assert.ErrorIs(t, err, service.ErrEmailNotVerified)

	_, err = svc.VerifyEmail(ctx, service.VerifyEmailRequest{Email: email, Code: notifier.verificationCode(email)})
	require.NoError(t, err)

	res, err := svc.Login(ctx, service.LoginRequest{Email: email, Password: "secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "Bearer", res.TokenType)
	assert.Greater(t, res.ExpiresIn, int64(0))
	assert.Equal(t, signup.UserID, res.User.ID)
	assert.True(t, res.User.IsEmailVerified)

	// Refresh hash stored, codes cleared.
	var (
		refreshHash *string
		code        *string
		version     int64
	)
	err = db.QueryRow(ctx, `
		SELECT refresh_token_hash, verification_code, version FROM users WHERE id = $1
	`, signup.UserID).Scan(&refreshHash, &code, &version)
	require.NoError(t, err)
	require.NotNil(t, refreshHash)
	assert.NotEmpty(t, *refreshHash)
	assert.Nil(t, code)
	assert.Equal(t, int64(3), version)

	refreshed, err := svc.Refresh(ctx, service.RefreshRequest{RefreshToken: res.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, res.RefreshToken, refreshed.RefreshToken)
}
