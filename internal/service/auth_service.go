package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/tanzimsiamm/fiwippo-backend/internal/adapter/oauth"
	"github.com/tanzimsiamm/fiwippo-backend/internal/domain"
	"github.com/tanzimsiamm/fiwippo-backend/internal/jwt"
	"github.com/tanzimsiamm/fiwippo-backend/internal/org"
	"github.com/tanzimsiamm/fiwippo-backend/internal/repository"
)

// CodeTTL is the lifetime of verification and password reset codes.
const CodeTTL = 15 * time.Minute

const defaultNotifyTimeout = 5 * time.Second

// Hasher hashes and verifies passwords and refresh tokens.
type Hasher interface {
	Hash(secret string) (string, error)
	Verify(secret, hash string) (bool, error)
}

// TokenIssuer signs and verifies token pairs.
type TokenIssuer interface {
	IssuePair(p jwt.Payload) (jwt.TokenPair, error)
	Verify(token string, kind jwt.Kind) (jwt.Payload, error)
}

// CodeGenerator produces one-time codes.
type CodeGenerator interface {
	Generate() (string, error)
}

// OrgResolver resolves an org slug.
type OrgResolver interface {
	ResolveBySlug(ctx context.Context, slug string) (domain.Org, error)
}

// Notifier delivers one-time codes. Failures never fail an operation.
type Notifier interface {
	SendVerificationCode(ctx context.Context, email, code string) error
	SendPasswordResetCode(ctx context.Context, email, code string) error
}

// Dependencies are the collaborators of AuthService.
type Dependencies struct {
	Users     repository.UserRepository
	Orgs      OrgResolver
	Hasher    Hasher
	Tokens    TokenIssuer
	Codes     CodeGenerator
	Notifier  Notifier
	Providers oauth.TokenVerifier
	IDs       *snowflake.Node
}

// Option customises an AuthService.
type Option func(*AuthService)

// WithClock overrides the time source used for code expiry.
func WithClock(now func() time.Time) Option {
	return func(s *AuthService) { s.now = now }
}

// WithNotifyTimeout bounds each notifier call.
func WithNotifyTimeout(d time.Duration) Option {
	return func(s *AuthService) {
		if d > 0 {
			s.notifyTimeout = d
		}
	}
}

// AuthService implements the account lifecycle: signup, email verification,
// password and social login, password reset and token refresh.
// It holds no per-request state and is safe for concurrent use.
type AuthService struct {
	users         repository.UserRepository
	orgs          OrgResolver
	hasher        Hasher
	tokens        TokenIssuer
	codes         CodeGenerator
	notifier      Notifier
	providers     oauth.TokenVerifier
	ids           *snowflake.Node
	logger        *zap.Logger
	tracer        trace.Tracer
	now           func() time.Time
	notifyTimeout time.Duration

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService wires dependencies.
func NewAuthService(deps Dependencies, logger *zap.Logger, opts ...Option) *AuthService {
	s := &AuthService{
		users:         deps.Users,
		orgs:          deps.Orgs,
		hasher:        deps.Hasher,
		tokens:        deps.Tokens,
		codes:         deps.Codes,
		notifier:      deps.Notifier,
		providers:     deps.Providers,
		ids:           deps.IDs,
		logger:        logger,
		tracer:        otel.Tracer("github.com/tanzimsiamm/fiwippo-backend/internal/service"),
		now:           time.Now,
		notifyTimeout: defaultNotifyTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SignUp creates an unverified password account and sends its verification code.
func (s *AuthService) SignUp(ctx context.Context, req SignUpRequest) (SignUpResult, error) {
	ctx, span := s.startSpan(ctx, "AuthService.SignUp")
	defer span.End()

	email := normalizeEmail(req.Email)
	switch {
	case email == "":
		return SignUpResult{}, ErrInvalidRequest.withMessage("Please provide a valid email")
	case req.Password == "":
		return SignUpResult{}, ErrInvalidRequest.withMessage("Password is required")
	case req.Password != req.ConfirmPassword:
		return SignUpResult{}, ErrPasswordMismatch
	case !req.TermsAccepted:
		return SignUpResult{}, ErrInvalidRequest.withMessage("You must accept the terms and conditions")
	}

	tenant, err := s.resolveOrg(ctx, req.OrgSlug)
	if err != nil {
		return SignUpResult{}, fail(span, err)
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return SignUpResult{}, ErrEmailConflict
	} else if !errors.Is(err, repository.ErrNotFound) {
		return SignUpResult{}, fail(span, fmt.Errorf("check existing user: %w", err))
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return SignUpResult{}, fail(span, fmt.Errorf("hash password: %w", err))
	}
	code, err := s.codes.Generate()
	if err != nil {
		return SignUpResult{}, fail(span, fmt.Errorf("generate verification code: %w", err))
	}

	user, err := s.users.Create(ctx, domain.User{
		ID:           s.ids.Generate().Int64(),
		OrgID:        tenant.ID,
		Email:        email,
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: hash,
		Role:         domain.DefaultRole,
		Verification: &domain.OneTimeCode{Code: code, ExpiresAt: s.now().Add(CodeTTL)},
	})
	if err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return SignUpResult{}, ErrEmailConflict
		}
		return SignUpResult{}, fail(span, fmt.Errorf("create user: %w", err))
	}

	s.notify(ctx, "verification", user.Email, code, s.notifier.SendVerificationCode)
	s.audit("signup.success", "org_id", tenant.ID, "user_id", user.ID)

	return SignUpResult{
		UserID:  user.ID,
		Email:   user.Email,
		Message: "Verification code sent to your email",
	}, nil
}

// VerifyEmail consumes a verification code, marks the email verified and starts a session.
func (s *AuthService) VerifyEmail(ctx context.Context, req VerifyEmailRequest) (AuthResult, error) {
	ctx, span := s.startSpan(ctx, "AuthService.VerifyEmail")
	defer span.End()

	user, err := s.userByEmail(ctx, req.Email)
	if err != nil {
		return AuthResult{}, fail(span, err)
	}
	if user.EmailVerified {
		return AuthResult{}, ErrAlreadyVerified
	}
	if err := checkCode(user.Verification, req.Code, s.now(), ErrCodeExpired, ErrInvalidCode); err != nil {
		return AuthResult{}, err
	}

	verified := true
	result, err := s.startSession(ctx, user, domain.UserPatch{
		EmailVerified:     &verified,
		ClearVerification: true,
	})
	if err != nil {
		return AuthResult{}, fail(span, err)
	}

	s.audit("email.verified", "org_id", user.OrgID, "user_id", user.ID)
	return result, nil
}

// Login authenticates a verified password account.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (AuthResult, error) {
	ctx, span := s.startSpan(ctx, "AuthService.Login")
	defer span.End()

	user, err := s.users.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.burnHash(req.Password)
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, fail(span, fmt.Errorf("load user: %w", err))
	}

	var hash string
	switch acct := user.Account().(type) {
	case domain.PasswordAccount:
		hash = acct.Hash
	case domain.SocialAccount:
		s.burnHash(req.Password)
		return AuthResult{}, ErrInvalidCredentials
	}

	if !user.EmailVerified {
		return AuthResult{}, ErrEmailNotVerified
	}

	ok, err := s.hasher.Verify(req.Password, hash)
	if err != nil {
		s.log().Warn("stored password hash unreadable", zap.Int64("user_id", user.ID), zap.Error(err))
	}
	if !ok {
		return AuthResult{}, ErrInvalidCredentials
	}

	result, err := s.startSession(ctx, user, domain.UserPatch{})
	if err != nil {
		return AuthResult{}, fail(span, err)
	}

	s.audit("password.login.success", "org_id", user.OrgID, "user_id", user.ID)
	return result, nil
}

// SocialLogin authenticates with a provider ID token, creating a verified account on first use.
func (s *AuthService) SocialLogin(ctx context.Context, req SocialLoginRequest) (AuthResult, error) {
	ctx, span := s.startSpan(ctx, "AuthService.SocialLogin")
	defer span.End()

	provider := strings.ToLower(strings.TrimSpace(req.Provider))
	span.SetAttributes(attribute.String("auth.provider", provider))

	tenant, err := s.resolveOrg(ctx, req.OrgSlug)
	if err != nil {
		return AuthResult{}, fail(span, err)
	}

	identity, err := s.providers.Verify(ctx, provider, req.Token)
	if err != nil {
		s.log().Info("provider token rejected", zap.String("provider", provider), zap.Error(err))
		if errors.Is(err, oauth.ErrUnsupportedProvider) {
			return AuthResult{}, ErrUnsupportedProvider.withMessage("Unsupported social login provider")
		}
		return AuthResult{}, ErrInvalidProviderToken
	}

	email := normalizeEmail(identity.Email)
	user, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrNotFound):
		user, err = s.createSocialUser(ctx, tenant, provider, email, identity.Name)
		if err != nil {
			return AuthResult{}, fail(span, err)
		}
	default:
		return AuthResult{}, fail(span, fmt.Errorf("load user: %w", err))
	}

	result, err := s.startSession(ctx, user, domain.UserPatch{})
	if err != nil {
		return AuthResult{}, fail(span, err)
	}

	s.audit("social.login.success", "org_id", user.OrgID, "user_id", user.ID, "provider", provider)
	return result, nil
}

func (s *AuthService) createSocialUser(ctx context.Context, tenant domain.Org, provider, email, name string) (domain.User, error) {
	user, err := s.users.Create(ctx, domain.User{
		ID:            s.ids.Generate().Int64(),
		OrgID:         tenant.ID,
		Email:         email,
		Name:          name,
		Role:          domain.DefaultRole,
		Provider:      provider,
		EmailVerified: true,
	})
	if err == nil {
		s.audit("social.signup.success", "org_id", tenant.ID, "user_id", user.ID, "provider", provider)
		return user, nil
	}
	if !errors.Is(err, repository.ErrEmailTaken) {
		return domain.User{}, fmt.Errorf("create social user: %w", err)
	}

	// A concurrent first login created the row; use it.
	user, err = s.users.GetByEmail(ctx, email)
	if err != nil {
		return domain.User{}, fmt.Errorf("reload social user: %w", err)
	}
	return user, nil
}

// SetLocation records the user's location.
func (s *AuthService) SetLocation(ctx context.Context, req SetLocationRequest) (UserView, error) {
	ctx, span := s.startSpan(ctx, "AuthService.SetLocation")
	defer span.End()

	location := strings.TrimSpace(req.Location)
	if location == "" {
		return UserView{}, ErrInvalidRequest.withMessage("Location is required")
	}

	user, err := s.userByID(ctx, req.UserID)
	if err != nil {
		return UserView{}, fail(span, err)
	}

	updated, err := s.update(ctx, user, domain.UserPatch{Location: &location})
	if err != nil {
		return UserView{}, fail(span, err)
	}

	s.audit("location.updated", "org_id", updated.OrgID, "user_id", updated.ID)
	return newUserView(updated), nil
}

// ForgotPassword stores a reset code on a password account and sends it.
func (s *AuthService) ForgotPassword(ctx context.Context, req ForgotPasswordRequest) (MessageResult, error) {
	ctx, span := s.startSpan(ctx, "AuthService.ForgotPassword")
	defer span.End()

	user, err := s.userByEmail(ctx, req.Email)
	if err != nil {
		return MessageResult{}, fail(span, err)
	}
	if user.IsProviderBound() {
		return MessageResult{}, ErrUnsupportedProvider
	}

	code, err := s.codes.Generate()
	if err != nil {
		return MessageResult{}, fail(span, fmt.Errorf("generate reset code: %w", err))
	}

	updated, err := s.update(ctx, user, domain.UserPatch{
		PasswordReset: &domain.OneTimeCode{Code: code, ExpiresAt: s.now().Add(CodeTTL)},
	})
	if err != nil {
		return MessageResult{}, fail(span, err)
	}

	s.notify(ctx, "password reset", updated.Email, code, s.notifier.SendPasswordResetCode)
	s.audit("password.reset.requested", "org_id", updated.OrgID, "user_id", updated.ID)
	return MessageResult{Message: "Password reset code sent to your email"}, nil
}

// VerifyResetOTP checks a reset code without consuming it.
func (s *AuthService) VerifyResetOTP(ctx context.Context, req VerifyResetOTPRequest) (ResetCodeCheck, error) {
	ctx, span := s.startSpan(ctx, "AuthService.VerifyResetOTP")
	defer span.End()

	user, err := s.userByEmail(ctx, req.Email)
	if err != nil {
		return ResetCodeCheck{}, fail(span, err)
	}
	if err := checkCode(user.PasswordReset, req.Code, s.now(), errResetCodeExpired, errInvalidResetCode); err != nil {
		return ResetCodeCheck{}, err
	}
	return ResetCodeCheck{IsValid: true}, nil
}

// ResetPassword replaces the password using a valid reset code. It also marks the email verified.
func (s *AuthService) ResetPassword(ctx context.Context, req ResetPasswordRequest) (MessageResult, error) {
	ctx, span := s.startSpan(ctx, "AuthService.ResetPassword")
	defer span.End()

	if req.NewPassword != req.ConfirmPassword {
		return MessageResult{}, ErrPasswordMismatch
	}
	if req.NewPassword == "" {
		return MessageResult{}, ErrInvalidRequest.withMessage("Password is required")
	}

	user, err := s.userByEmail(ctx, req.Email)
	if err != nil {
		return MessageResult{}, fail(span, err)
	}
	if err := checkCode(user.PasswordReset, req.Code, s.now(), errResetCodeExpired, errInvalidResetCode); err != nil {
		return MessageResult{}, err
	}

	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return MessageResult{}, fail(span, fmt.Errorf("hash password: %w", err))
	}

	verified := true
	updated, err := s.update(ctx, user, domain.UserPatch{
		PasswordHash:       &hash,
		ClearPasswordReset: true,
		EmailVerified:      &verified,
	})
	if err != nil {
		return MessageResult{}, fail(span, err)
	}

	s.audit("password.reset.success", "org_id", updated.OrgID, "user_id", updated.ID)
	return MessageResult{Message: "Password reset successfully"}, nil
}

// Refresh exchanges the user's current refresh token for a new pair. The old token stops working.
func (s *AuthService) Refresh(ctx context.Context, req RefreshRequest) (AuthResult, error) {
	ctx, span := s.startSpan(ctx, "AuthService.Refresh")
	defer span.End()

	payload, err := s.verifyToken(req.RefreshToken, jwt.KindRefresh)
	if err != nil {
		return AuthResult{}, err
	}

	user, err := s.users.GetByID(ctx, payload.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return AuthResult{}, ErrInvalidToken
		}
		return AuthResult{}, fail(span, fmt.Errorf("load user: %w", err))
	}
	if user.RefreshTokenHash == "" {
		return AuthResult{}, ErrInvalidToken
	}
	ok, err := s.hasher.Verify(req.RefreshToken, user.RefreshTokenHash)
	if err != nil || !ok {
		return AuthResult{}, ErrInvalidToken
	}

	result, err := s.startSession(ctx, user, domain.UserPatch{})
	if err != nil {
		return AuthResult{}, fail(span, err)
	}

	s.audit("refresh_token.success", "org_id", user.OrgID, "user_id", user.ID)
	return result, nil
}

// Authenticate verifies an access token.
func (s *AuthService) Authenticate(token string) (jwt.Payload, error) {
	return s.verifyToken(token, jwt.KindAccess)
}

// Me returns the projection of the given user.
func (s *AuthService) Me(ctx context.Context, userID int64) (UserView, error) {
	ctx, span := s.startSpan(ctx, "AuthService.Me")
	defer span.End()

	user, err := s.userByID(ctx, userID)
	if err != nil {
		return UserView{}, fail(span, err)
	}
	return newUserView(user), nil
}

func (s *AuthService) verifyToken(token string, kind jwt.Kind) (jwt.Payload, error) {
	if strings.TrimSpace(token) == "" {
		return jwt.Payload{}, ErrInvalidToken
	}
	payload, err := s.tokens.Verify(token, kind)
	switch {
	case err == nil:
		return payload, nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return jwt.Payload{}, ErrTokenExpired
	default:
		return jwt.Payload{}, ErrInvalidToken
	}
}

// startSession issues a token pair and stores the refresh hash together with patch in one update.
func (s *AuthService) startSession(ctx context.Context, user domain.User, patch domain.UserPatch) (AuthResult, error) {
	pair, err := s.tokens.IssuePair(jwt.Payload{
		UserID:         user.ID,
		Email:          user.Email,
		OrganizationID: user.OrgID,
		Role:           user.Role,
	})
	if err != nil {
		return AuthResult{}, fmt.Errorf("issue tokens: %w", err)
	}

	refreshHash, err := s.hasher.Hash(pair.RefreshToken)
	if err != nil {
		return AuthResult{}, fmt.Errorf("hash refresh token: %w", err)
	}
	patch.RefreshTokenHash = &refreshHash

	updated, err := s.update(ctx, user, patch)
	if err != nil {
		return AuthResult{}, err
	}

	expiresIn := int64(pair.AccessExpiresAt.Sub(s.now()).Seconds())
	if expiresIn < 0 {
		expiresIn = 0
	}
	return AuthResult{
		Token:        pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    expiresIn,
		User:         newUserView(updated),
	}, nil
}

// update applies patch conditionally on the version user was read at.
func (s *AuthService) update(ctx context.Context, user domain.User, patch domain.UserPatch) (domain.User, error) {
	patch.ExpectedVersion = user.Version
	updated, err := s.users.Update(ctx, user.ID, patch)
	switch {
	case err == nil:
		return updated, nil
	case errors.Is(err, repository.ErrVersionConflict):
		s.log().Info("concurrent user update rejected", zap.Int64("user_id", user.ID))
		return domain.User{}, ErrConflict
	case errors.Is(err, repository.ErrNotFound):
		return domain.User{}, ErrUserNotFound
	default:
		return domain.User{}, fmt.Errorf("update user: %w", err)
	}
}

func (s *AuthService) resolveOrg(ctx context.Context, slug string) (domain.Org, error) {
	tenant, err := s.orgs.ResolveBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, org.ErrNotFound) {
			return domain.Org{}, ErrOrgNotFound
		}
		return domain.Org{}, fmt.Errorf("resolve org: %w", err)
	}
	return tenant, nil
}

func (s *AuthService) userByEmail(ctx context.Context, email string) (domain.User, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

func (s *AuthService) userByID(ctx context.Context, userID int64) (domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

// notify delivers a code under its own timeout. The request context's cancellation is ignored
// so a client disconnect does not drop the message.
func (s *AuthService) notify(ctx context.Context, purpose, email, code string, send func(context.Context, string, string) error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.notifyTimeout)
	defer cancel()

	if err := send(ctx, email, code); err != nil {
		s.log().Warn("notification failed", zap.String("purpose", purpose), zap.String("email", email), zap.Error(err))
	}
}

// burnHash spends one hash verification so unknown emails cost the same as wrong passwords.
func (s *AuthService) burnHash(secret string) {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash("dummy-password-for-timing")
		if err == nil {
			s.dummyHash = hash
		}
	})
	if s.dummyHash != "" {
		_, _ = s.hasher.Verify(secret, s.dummyHash)
	}
}

// checkCode applies the shared pending-code rules: absent or past expiry is expired, otherwise
// the code must match exactly.
func checkCode(pending *domain.OneTimeCode, code string, now time.Time, expired, invalid *Error) error {
	if pending == nil || pending.Code == "" || pending.Expired(now) {
		return expired
	}
	if subtle.ConstantTimeCompare([]byte(pending.Code), []byte(code)) != 1 {
		return invalid
	}
	return nil
}

func newUserView(u domain.User) UserView {
	return UserView{
		ID:              u.ID,
		Email:           u.Email,
		Name:            u.Name,
		Role:            u.Role,
		IsEmailVerified: u.EmailVerified,
		OrganizationID:  u.OrgID,
		Provider:        u.Provider,
		Location:        u.Location,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func fail(span trace.Span, err error) error {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		span.SetAttributes(attribute.String("auth.error_kind", string(svcErr.Kind)))
		return err
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func (s *AuthService) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if s == nil || s.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return s.tracer.Start(ctx, name)
}

func (s *AuthService) audit(event string, attrs ...any) {
	logger := s.log()
	fields := make([]zap.Field, 0, len(attrs)/2+2)
	fields = append(fields, zap.String("event", event), zap.Time("timestamp", s.now().UTC()))
	for i := 0; i+1 < len(attrs); i += 2 {
		key, ok := attrs[i].(string)
		if !ok {
			continue
		}
		fields = append(fields, zap.Any(key, attrs[i+1]))
	}
	logger.Info("audit", fields...)
}

func (s *AuthService) log() *zap.Logger {
	if s.logger != nil {
		return s.logger
	}
	return zap.L()
}
