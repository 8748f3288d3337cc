package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tanzimsiamm/fiwippo-backend/internal/http/middleware"
	"github.com/tanzimsiamm/fiwippo-backend/internal/service"
)

// AuthHandler exposes the account lifecycle over JSON.
type AuthHandler struct {
	Auth   *service.AuthService
	logger *zap.Logger
}

// NewAuthHandler creates the handler set.
func NewAuthHandler(auth *service.AuthService, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{Auth: auth, logger: logger.Named("http")}
}

type signUpRequest struct {
	OrgSlug         string `json:"orgSlug" binding:"required"`
	Name            string `json:"name"`
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required,min=6,max=32"`
	ConfirmPassword string `json:"confirmPassword" binding:"required,eqfield=Password"`
	TermsAccepted   bool   `json:"termsAccepted" binding:"required"`
}

// SignUp registers a password account.
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req signUpRequest
	if err := bind(c, &req); err != nil {
		respondError(c, h.logger, err)
		return
	}

	result, err := h.Auth.SignUp(c.Request.Context(), service.SignUpRequest{
		OrgSlug:         req.OrgSlug,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		Name:            req.Name,
		TermsAccepted:   req.TermsAccepted,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusCreated, result.Message, result)
}

type emailCodeRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required,len=6"`
}

// VerifyEmail consumes the verification code and starts a session.
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var req emailCodeRequest
	if err := bind(c, &req); err != nil {
		respondError(c, h.logger, err)
		return
	}

	result, err := h.Auth.VerifyEmail(c.Request.Context(), service.VerifyEmailRequest{Email: req.Email, Code: req.Code})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Email verified successfully", result)
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := bind(c, &req); err != nil {
		respondError(c, h.logger, err)
		return
	}

	result, err := h.Auth.Login(c.Request.Context(), service.LoginRequest{Email: req.Email, Password: req.Password})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Login successful", result)
}

type socialLoginRequest struct {
	OrgSlug  string `json:"orgSlug" binding:"required"`
	Provider string `json:"provider" binding:"required,oneof=google apple"`
	Token    string `json:"token" binding:"required"`
}

// SocialLogin exchanges a Google or Apple ID token for a session.
func (h *AuthHandler) SocialLogin(c *gin.Context) {
	var req socialLoginRequest
	if err := bind(c, &req); err != nil {
		respondError(c, h.logger, err)
		return
	}

	result, err := h.Auth.SocialLogin(c.Request.Context(), service.SocialLoginRequest{
		OrgSlug:  req.OrgSlug,
		Provider: req.Provider,
		Token:    req.Token,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Social login successful", result)
}

type setLocationRequest struct {
	Location string `json:"location" binding:"required"`
}

// SetLocation stores the caller's location. Requires middleware.Auth.
func (h *AuthHandler) SetLocation(c *gin.Context) {
	payload, ok := middleware.GetPayload(c)
	if !ok {
		respondError(c, h.logger, service.ErrInvalidToken)
		return
	}

	var req setLocationRequest
	if err := bind(c, &req); err != nil {
		respondError(c, h.logger, err)
		return
	}

	result, err := h.Auth.SetLocation(c.Request.Context(), service.SetLocationRequest{
		UserID:   payload.UserID,
		Location: req.Location,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Location set successfully", result)
}

type forgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := bind(c, &req); err != nil {
		respondError(c, h.logger, err)
		return
	}

	result, err := h.Auth.ForgotPassword(c.Request.Context(), service.ForgotPasswordRequest{Email: req.Email})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, result.Message, result)
}

func (h *AuthHandler) VerifyResetOTP(c *gin.Context) {
	var req emailCodeRequest
	if err := bind(c, &req); err != nil {
		respondError(c, h.logger, err)
		return
	}

	result, err := h.Auth.VerifyResetOTP(c.Request.Context(), service.VerifyResetOTPRequest{Email: req.Email, Code: req.Code})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Reset code is valid", result)
}

type resetPasswordRequest struct {
	Email           string `json:"email" binding:"required,email"`
	Code            string `json:"code" binding:"required,len=6"`
	NewPassword     string `json:"newPassword" binding:"required,min=6,max=32"`
	ConfirmPassword string `json:"confirmPassword" binding:"required,eqfield=NewPassword"`
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := bind(c, &req); err != nil {
		respondError(c, h.logger, err)
		return
	}

	result, err := h.Auth.ResetPassword(c.Request.Context(), service.ResetPasswordRequest{
		Email:           req.Email,
		Code:            req.Code,
		NewPassword:     req.NewPassword,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, result.Message, result)
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// RefreshToken rotates the session's token pair.
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req refreshRequest
	if err := bind(c, &req); err != nil {
		respondError(c, h.logger, err)
		return
	}

	result, err := h.Auth.Refresh(c.Request.Context(), service.RefreshRequest{RefreshToken: req.RefreshToken})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Token refreshed successfully", result)
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(c *gin.Context) {
	payload, ok := middleware.GetPayload(c)
	if !ok {
		respondError(c, h.logger, service.ErrInvalidToken)
		return
	}

	result, err := h.Auth.Me(c.Request.Context(), payload.UserID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "User retrieved successfully", result)
}

// Health reports liveness as plain text.
func Health(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}
