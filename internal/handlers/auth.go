package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/dineatlas/dineatlas/backend/internal/config"
	"github.com/dineatlas/dineatlas/backend/internal/middleware"
	"github.com/dineatlas/dineatlas/backend/internal/models"
	"github.com/dineatlas/dineatlas/backend/internal/services"
	"github.com/dineatlas/dineatlas/backend/internal/utils"
	"github.com/dineatlas/dineatlas/backend/pkg/response"
)

type AuthHandler struct {
	db          *gorm.DB
	authService *services.AuthService
	userService *services.UserService
	cfg         *config.Config
}

func NewAuthHandler(db *gorm.DB, authService *services.AuthService, userService *services.UserService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		db:          db,
		authService: authService,
		userService: userService,
		cfg:         cfg,
	}
}

type loginRequest struct {
	Email        string `json:"email" binding:"required,email"`
	Password     string `json:"password" binding:"required"`
	CaptchaToken string `json:"captcha_token"`
}

type tokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         *models.User `json:"user,omitempty"`
}

// Session cookies are http-only and SameSite=Strict; the strict attribute is
// what keeps cross-site requests from riding the cookie on state-changing
// endpoints.
func (h *AuthHandler) setSessionCookies(c *gin.Context, pair *services.TokenPair) {
	secure := h.cfg.Server.Mode == "release"
	accessMaxAge := h.cfg.JWT.AccessTTLMinutes * 60
	refreshMaxAge := h.cfg.JWT.RefreshTTLMinutes * 60

	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie("access_token", pair.AccessToken, accessMaxAge, "/", "", secure, true)
	c.SetCookie("refresh_token", pair.RefreshToken, refreshMaxAge, "/api/auth", "", secure, true)
}

func (h *AuthHandler) clearSessionCookies(c *gin.Context) {
	secure := h.cfg.Server.Mode == "release"
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie("access_token", "", -1, "/", "", secure, true)
	c.SetCookie("refresh_token", "", -1, "/api/auth", "", secure, true)
}

// Login handles user login
// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	input := services.LoginInput{
		Email:        req.Email,
		Password:     req.Password,
		CaptchaToken: req.CaptchaToken,
	}
	pair, user, err := h.authService.Login(c.Request.Context(), input, c.ClientIP())
	if err != nil {
		if errors.Is(err, services.ErrChallengeRequired) {
			c.JSON(429, response.Response{
				Code:    429,
				Message: "verification challenge required",
				Data:    gin.H{"challenge_required": true},
			})
			return
		}
		if errors.Is(err, services.ErrInvalidCredentials) {
			response.Unauthorized(c, "invalid email or password")
			return
		}
		response.ServerError(c, "login failed")
		return
	}

	h.setSessionCookies(c, pair)
	response.Success(c, tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User:         user,
	})
}

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=128"`
	Name     string `json:"name" binding:"required,max=100"`
}

// Register handles diner self-registration
// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	user, err := h.authService.Register(c.Request.Context(), services.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		if errors.Is(err, services.ErrEmailTaken) {
			response.Error(c, response.NewConflict("email already registered"))
			return
		}
		response.ServerError(c, "registration failed")
		return
	}

	response.Created(c, user)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh rotates the refresh token and issues a new token pair
// POST /api/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	_ = c.ShouldBindJSON(&req)

	token := req.RefreshToken
	if token == "" {
		if cookie, err := c.Cookie("refresh_token"); err == nil {
			token = cookie
		}
	}
	if token == "" {
		response.Unauthorized(c, "refresh token required")
		return
	}

	pair, err := h.authService.Refresh(c.Request.Context(), token)
	if err != nil {
		h.clearSessionCookies(c)
		switch {
		case errors.Is(err, services.ErrSessionRevoked):
			response.Unauthorized(c, "session revoked, please log in again")
		case errors.Is(err, utils.ErrTokenExpired):
			response.Unauthorized(c, "refresh token expired, please log in again")
		default:
			response.Unauthorized(c, "invalid refresh token")
		}
		return
	}

	h.setSessionCookies(c, pair)
	response.Success(c, tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// Logout revokes the current session
// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	userID := middleware.GetUserID(c)
	sessionID := middleware.GetSessionID(c)

	if err := h.authService.Logout(c.Request.Context(), userID, sessionID); err != nil {
		response.ServerError(c, "logout failed")
		return
	}

	h.clearSessionCookies(c)
	response.Success(c, gin.H{"message": "logged out successfully"})
}

// GetCurrentUser returns the current logged-in user
// GET /api/auth/me
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	user, err := h.userService.GetByID(middleware.GetUserID(c))
	if err != nil {
		response.NotFound(c, "user not found")
		return
	}
	response.Success(c, user)
}

type reauthRequest struct {
	Password string `json:"password" binding:"required"`
}

// Reauth re-verifies the user's password and opens the step-up window
// POST /api/auth/reauth
func (h *AuthHandler) Reauth(c *gin.Context) {
	var req reauthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	userID := middleware.GetUserID(c)
	if err := h.authService.Reauth(c.Request.Context(), userID, req.Password); err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			response.Unauthorized(c, "password verification failed")
			return
		}
		response.ServerError(c, "verification unavailable, try again later")
		return
	}

	response.Success(c, gin.H{"message": "password verified"})
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=128"`
}

// ChangePassword updates the password and invalidates all outstanding tokens
// POST /api/auth/change-password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	userID := middleware.GetUserID(c)
	err := h.authService.ChangePassword(c.Request.Context(), userID, req.OldPassword, req.NewPassword)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			response.Unauthorized(c, "current password is incorrect")
			return
		}
		response.ServerError(c, "password change failed")
		return
	}

	// Every session for this account is now invalid, including this one.
	h.clearSessionCookies(c)
	response.Success(c, gin.H{"message": "password changed, please log in again"})
}

type updateProfileRequest struct {
	Name string `json:"name" binding:"required,max=100"`
}

// UpdateProfile changes the current user's display name
// PUT /api/auth/me
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	user, err := h.userService.UpdateProfile(middleware.GetUserID(c), req.Name)
	if err != nil {
		response.ServerError(c, "profile update failed")
		return
	}
	response.Success(c, user)
}
