package handler

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/songzhibin97/academia/internal/portal/auth"
	"github.com/songzhibin97/academia/internal/portal/middleware"
	"github.com/songzhibin97/academia/internal/portal/service"
	"github.com/songzhibin97/academia/internal/ratelimit"
	"github.com/songzhibin97/academia/pkg/log"
	"github.com/songzhibin97/academia/pkg/portal"
)

// AuthHandler handles registration, login and the current-principal echo.
type AuthHandler struct {
	accounts      *service.Accounts
	authenticator *auth.Authenticator
	hasher        *auth.PasswordHasher
	jwtManager    *auth.JWTManager
	throttle      *ratelimit.LoginThrottle // nil disables throttling
	errors        *middleware.ErrorResponder
	onLoginFailed func()
	logger        log.Logger
}

// AuthOption configures an AuthHandler.
type AuthOption func(*AuthHandler)

// WithThrottle limits failed logins per identifier.
func WithThrottle(throttle *ratelimit.LoginThrottle) AuthOption {
	return func(h *AuthHandler) { h.throttle = throttle }
}

// WithLoginFailureHook is called once per rejected login.
func WithLoginFailureHook(fn func()) AuthOption {
	return func(h *AuthHandler) { h.onLoginFailed = fn }
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(
	accounts *service.Accounts,
	hasher *auth.PasswordHasher,
	jwtManager *auth.JWTManager,
	errs *middleware.ErrorResponder,
	opts ...AuthOption,
) *AuthHandler {
	h := &AuthHandler{
		accounts:      accounts,
		authenticator: auth.NewAuthenticator(auth.NewPrincipalLoader(accounts), hasher),
		hasher:        hasher,
		jwtManager:    jwtManager,
		errors:        errs,
		onLoginFailed: func() {},
		logger:        log.Component("auth"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRequest represents an account registration request
type RegisterRequest struct {
	Name     string      `json:"name"`
	Username string      `json:"username"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     portal.Role `json:"role"`
}

func (r *RegisterRequest) validate() error {
	switch {
	case strings.TrimSpace(r.Username) == "":
		return errors.New("username is required")
	case strings.TrimSpace(r.Email) == "":
		return errors.New("email is required")
	case !strings.Contains(r.Email, "@"):
		return errors.New("invalid email format")
	case len(r.Password) < 6:
		return errors.New("password must be at least 6 characters long")
	case !r.Role.Valid():
		return fmt.Errorf("invalid role: %q", r.Role)
	}
	return nil
}

// LoginRequest represents a login request; the identifier is a username or an email.
type LoginRequest struct {
	UsernameOrEmail string `json:"username_or_email"`
	Password        string `json:"password"`
}

// LoginResponse represents a successful login
type LoginResponse struct {
	Token     string          `json:"token"`
	TokenType string          `json:"token_type"`
	ExpiresAt time.Time       `json:"expires_at"`
	Account   *portal.Account `json:"account"`
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := req.validate(); err != nil {
		middleware.Abort(c, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := h.hasher.HashPassword(req.Password)
	if err != nil {
		h.logger.WithContext(c.Request.Context()).Error("Failed to hash password", log.Error(err))
		middleware.Abort(c, http.StatusInternalServerError, "Failed to process password")
		return
	}

	account, err := h.accounts.Register(c.Request.Context(), &portal.Account{
		Name:     req.Name,
		Username: req.Username,
		Email:    req.Email,
		Password: hash,
		Role:     req.Role,
	})
	if err != nil {
		h.errors.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, account)
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.UsernameOrEmail == "" || req.Password == "" {
		middleware.Abort(c, http.StatusBadRequest, "username_or_email and password are required")
		return
	}

	ctx := c.Request.Context()
	logger := h.logger.WithContext(ctx)

	if h.throttle != nil {
		allowed, retryAfter, err := h.throttle.Allow(ctx, req.UsernameOrEmail)
		if err != nil {
			logger.Error("Login throttle unavailable", log.Error(err))
		} else if !allowed {
			logger.Warn("Login throttled", log.SecurityFields(req.UsernameOrEmail, "password", "")...)
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
			middleware.Abort(c, http.StatusTooManyRequests, "Too many failed login attempts, try again later")
			return
		}
	}

	principal, err := h.authenticator.Authenticate(ctx, req.UsernameOrEmail, req.Password)
	if errors.Is(err, auth.ErrBadCredentials) {
		h.onLoginFailed()
		if h.throttle != nil {
			if _, err := h.throttle.Failure(ctx, req.UsernameOrEmail); err != nil {
				logger.Error("Failed to record login failure", log.Error(err))
			}
		}
		logger.Warn("Login rejected", log.SecurityFields(req.UsernameOrEmail, "password", "")...)
		middleware.Abort(c, http.StatusUnauthorized, "Bad credentials")
		return
	}
	if err != nil {
		h.errors.Respond(c, err)
		return
	}

	if h.throttle != nil {
		if err := h.throttle.Success(ctx, req.UsernameOrEmail); err != nil {
			logger.Error("Failed to reset login failures", log.Error(err))
		}
	}

	account, err := h.accounts.Get(ctx, principal.AccountID)
	if err != nil {
		h.errors.Respond(c, err)
		return
	}

	token, expiresAt, err := h.jwtManager.GenerateToken(account.ID, account.Username, account.Email, string(account.Role))
	if err != nil {
		logger.Error("Failed to generate token", log.Error(err))
		middleware.Abort(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	logger.Info("Login succeeded", log.SecurityFields(account.Email, "password", string(account.Role))...)
	c.JSON(http.StatusOK, LoginResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresAt: expiresAt,
		Account:   account,
	})
}

// Me handles GET /api/auth/me and echoes the authenticated caller.
func (h *AuthHandler) Me(c *gin.Context) {
	user, ok := auth.GetUserFromContext(c.Request.Context())
	if !ok {
		middleware.Abort(c, http.StatusUnauthorized, "Authentication required")
		return
	}
	c.JSON(http.StatusAccepted, user)
}
