package service

// SignUpRequest registers a password account in an org.
type SignUpRequest struct {
	OrgSlug         string
	Email           string
	Password        string
	ConfirmPassword string
	Name            string
	TermsAccepted   bool
}

// SignUpResult never carries the code or the password hash.
type SignUpResult struct {
	UserID  int64  `json:"userId,string"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

type VerifyEmailRequest struct {
	Email string
	Code  string
}

type LoginRequest struct {
	Email    string
	Password string
}

type SocialLoginRequest struct {
	OrgSlug  string
	Provider string
	Token    string
}

type SetLocationRequest struct {
	UserID   int64
	Location string
}

type ForgotPasswordRequest struct {
	Email string
}

type VerifyResetOTPRequest struct {
	Email string
	Code  string
}

type ResetPasswordRequest struct {
	Email           string
	Code            string
	NewPassword     string
	ConfirmPassword string
}

type RefreshRequest struct {
	RefreshToken string
}

// UserView is the user projection returned to clients.
type UserView struct {
	ID              int64   `json:"id,string"`
	Email           string  `json:"email"`
	Name            string  `json:"name,omitempty"`
	Role            string  `json:"role"`
	IsEmailVerified bool    `json:"isEmailVerified"`
	OrganizationID  int64   `json:"organizationId,string"`
	Provider        string  `json:"provider,omitempty"`
	Location        *string `json:"location,omitempty"`
}

// AuthResult bundles a token pair with the authenticated user.
type AuthResult struct {
	Token        string   `json:"token"`
	RefreshToken string   `json:"refreshToken"`
	TokenType    string   `json:"tokenType"`
	ExpiresIn    int64    `json:"expiresIn"`
	User         UserView `json:"user"`
}

// MessageResult is returned by operations whose only output is a confirmation.
type MessageResult struct {
	Message string `json:"message"`
}

// ResetCodeCheck is the outcome of a successful reset code probe.
type ResetCodeCheck struct {
	IsValid bool `json:"isValid"`
}
