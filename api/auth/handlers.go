package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/killallgit/sermon-api/api/types"
	"github.com/killallgit/sermon-api/internal/models"
	"github.com/killallgit/sermon-api/internal/services/auth"
	"github.com/killallgit/sermon-api/internal/services/users"
	apperrors "github.com/killallgit/sermon-api/pkg/errors"
)

// Handler manages auth endpoints
type Handler struct {
	tokens *auth.Service
	users  users.Service
}

// NewHandler creates a new auth handler
func NewHandler(tokens *auth.Service, userService users.Service) *Handler {
	return &Handler{
		tokens: tokens,
		users:  userService,
	}
}

// SignupRequest is the body of POST /api/v1/auth/signup
type SignupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginRequest is the body of POST /api/v1/auth/login
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UserResponse is the public view of an account
type UserResponse struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// TokenResponse is returned by a successful login
type TokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        UserResponse `json:"user"`
}

func toUserResponse(u *models.User) UserResponse {
	return UserResponse{ID: u.ID, Email: u.Email, Name: u.Name, CreatedAt: u.CreatedAt}
}

// Signup creates a password account
// @Summary Create an account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body SignupRequest true "New account"
// @Success 201 {object} UserResponse
// @Failure 400 {object} types.ErrorResponse
// @Failure 409 {object} types.ErrorResponse
// @Router /api/v1/auth/signup [post]
func (h *Handler) Signup(c *gin.Context) {
	var req SignupRequest
	if !types.BindJSONOrError(c, &req) {
		return
	}

	user, err := h.users.Register(c.Request.Context(), req.Email, req.Name, req.Password)
	switch {
	case errors.Is(err, users.ErrEmailTaken):
		types.SendAppError(c, apperrors.AlreadyExists("user", req.Email))
		return
	case errors.Is(err, users.ErrWeakPassword):
		types.SendAppError(c, apperrors.ValidationError("password", err.Error()))
		return
	case err != nil:
		slog.Error("signup failed", "error", err)
		types.SendInternalError(c, "Failed to create account")
		return
	}

	types.SendCreated(c, toUserResponse(user))
}

// Login exchanges credentials for a bearer token
// @Summary Log in
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Credentials"
// @Success 200 {object} TokenResponse
// @Failure 401 {object} types.ErrorResponse
// @Router /api/v1/auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if !types.BindJSONOrError(c, &req) {
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, users.ErrInvalidCredentials) {
			types.SendUnauthorized(c, "Invalid email or password")
			return
		}
		slog.Error("login failed", "error", err)
		types.SendInternalError(c, "Failed to log in")
		return
	}

	token, expiresAt, err := h.tokens.Issue(user.ID, user.Email)
	if err != nil {
		slog.Error("issuing token failed", "user_id", user.ID, "error", err)
		types.SendInternalError(c, "Failed to log in")
		return
	}

	types.SendSuccess(c, TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresAt:   expiresAt,
		User:        toUserResponse(user),
	})
}

// Me returns the authenticated account
// @Summary Get current user
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} UserResponse
// @Failure 401 {object} types.ErrorResponse
// @Router /api/v1/me [get]
func (h *Handler) Me(c *gin.Context) {
	user, ok := c.Get("user")
	if !ok {
		types.SendUnauthorized(c, "Unauthorized")
		return
	}
	types.SendSuccess(c, toUserResponse(user.(*models.User)))
}

// AuthMiddleware requires a valid bearer token for an active user and stores
// the user and its id in the context
func (h *Handler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "Authorization header required")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abortUnauthorized(c, "Invalid authorization header format")
			return
		}

		claims, err := h.tokens.Validate(strings.TrimSpace(parts[1]))
		if err != nil {
			slog.Debug("rejected token", "error", err)
			abortUnauthorized(c, "Invalid or expired token")
			return
		}

		userID, err := claims.UserID()
		if err != nil {
			abortUnauthorized(c, "Invalid or expired token")
			return
		}

		user, err := h.users.Get(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, users.ErrUserNotFound) {
				abortUnauthorized(c, "User not found")
				return
			}
			slog.Error("loading user for token failed", "user_id", userID, "error", err)
			types.SendInternalError(c, "Failed to authenticate")
			c.Abort()
			return
		}

		c.Set("claims", claims)
		c.Set("user", user)
		c.Set(types.ContextUserID, user.ID)

		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	c.Header("WWW-Authenticate", `Bearer realm="sermon-api"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, types.ErrorResponse{
		Status:  types.StatusError,
		Message: message,
		Error:   string(apperrors.ErrCodeUnauthorized),
	})
}
