package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/dineatlas/dineatlas/backend/internal/models"
	"github.com/dineatlas/dineatlas/backend/internal/utils"
	"github.com/dineatlas/dineatlas/backend/pkg/logger"
)

var (
	// ErrInvalidCredentials covers every login failure mode the client is
	// allowed to distinguish: wrong password, unknown email and disabled
	// account all collapse into it.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrChallengeRequired means the caller must solve a human-verification
	// challenge before another attempt is accepted.
	ErrChallengeRequired = errors.New("verification challenge required")

	// ErrEmailTaken is returned by Register for an address already in use.
	ErrEmailTaken = errors.New("email already registered")
)

// dummyHash is verified against on unknown-email logins so the response time
// does not reveal whether the address exists. Generated once at init from a
// throwaway password.
var dummyHash string

func init() {
	h, err := utils.HashPassword("dineatlas-timing-pad")
	if err != nil {
		panic(err)
	}
	dummyHash = h
}

// CaptchaVerifier validates a human-verification challenge token against the
// configured provider.
type CaptchaVerifier interface {
	Verify(ctx context.Context, token string) bool
}

// tokenPresenceVerifier accepts any non-empty token. It stands in until a
// provider is wired through SetCaptchaVerifier.
// TODO: replace the default with the configured captcha provider once
// credentials are settled.
type tokenPresenceVerifier struct{}

func (tokenPresenceVerifier) Verify(_ context.Context, token string) bool {
	return token != ""
}

// AuthService implements the credential lifecycle: register, login with
// brute-force tracking, token refresh, logout, step-up reauthentication and
// password change.
type AuthService struct {
	db       *gorm.DB
	sessions *SessionService
	attempts *LoginAttemptTracker
	gate     *ReauthGate
	captcha  CaptchaVerifier
}

func NewAuthService(db *gorm.DB, sessions *SessionService, attempts *LoginAttemptTracker, gate *ReauthGate) *AuthService {
	return &AuthService{
		db:       db,
		sessions: sessions,
		attempts: attempts,
		gate:     gate,
		captcha:  tokenPresenceVerifier{},
	}
}

// SetCaptchaVerifier swaps in a real challenge provider.
func (s *AuthService) SetCaptchaVerifier(v CaptchaVerifier) {
	s.captcha = v
}

// LoginInput carries a login form. CaptchaToken is consulted only once the
// failure threshold for the identifier has been reached.
type LoginInput struct {
	Email        string
	Password     string
	CaptchaToken string
}

// Login verifies credentials and starts a session. The attempt identifier
// (typically the client IP) keys the brute-force tracker; failures past the
// threshold demand a challenge token before the password is even checked.
func (s *AuthService) Login(ctx context.Context, input LoginInput, identifier string) (*TokenPair, *models.User, error) {
	email := models.NormalizeEmail(input.Email)

	if s.attempts.ShouldChallenge(identifier) && !s.captcha.Verify(ctx, input.CaptchaToken) {
		logger.Security().
			Str("identifier", identifier).
			Str("reason", "CHALLENGE_REQUIRED").
			Msg("login blocked pending verification challenge")
		return nil, nil, ErrChallengeRequired
	}

	var user models.User
	err := s.db.Where("email = ?", email).First(&user).Error
	if err != nil {
		// Burn a hash verification anyway so unknown emails take as long as
		// wrong passwords.
		utils.CheckPassword(input.Password, dummyHash)
		s.recordFailure(identifier, email)
		return nil, nil, ErrInvalidCredentials
	}

	if !utils.CheckPassword(input.Password, user.Password) {
		s.recordFailure(identifier, email)
		return nil, nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		s.recordFailure(identifier, email)
		return nil, nil, ErrInvalidCredentials
	}

	s.attempts.ResetFailures(identifier)

	pair, err := s.sessions.StartSession(ctx, &user)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now()
	if err := s.db.Model(&user).Update("last_login", now).Error; err != nil {
		logger.Warn().Err(err).Uint("user_id", user.ID).Msg("failed to record last login")
	}
	user.LastLogin = &now

	logger.Info().Uint("user_id", user.ID).Str("session_id", pair.SessionID).Msg("user logged in")
	return pair, &user, nil
}

func (s *AuthService) recordFailure(identifier, email string) {
	s.attempts.RecordFailure(identifier)
	logger.Security().
		Str("identifier", identifier).
		Str("email", email).
		Str("reason", "LOGIN_FAILED").
		Msg("failed login attempt")
}

// RegisterInput carries a self-service registration form. Role is fixed to
// diner; owner and admin accounts are provisioned through the admin surface.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	email := models.NormalizeEmail(input.Email)

	var count int64
	if err := s.db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrEmailTaken
	}

	hash, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Email:    email,
		Password: hash,
		Name:     input.Name,
		Role:     models.RoleDiner,
		IsActive: true,
	}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, err
	}

	logger.Info().Uint("user_id", user.ID).Msg("user registered")
	return &user, nil
}

// Refresh rotates the presented refresh token through the session service.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	return s.sessions.Refresh(ctx, refreshToken)
}

// Logout revokes the session and clears the user's activity and reauth
// records. Errors on the cleanup half are logged, not surfaced; the session
// is already dead at that point.
func (s *AuthService) Logout(ctx context.Context, userID uint, sessionID string) error {
	if err := s.sessions.RevokeSession(ctx, sessionID); err != nil {
		return err
	}
	if err := s.sessions.activity.Clear(ctx, userID); err != nil {
		logger.Warn().Err(err).Uint("user_id", userID).Msg("failed to clear activity record")
	}
	if err := s.gate.Clear(ctx, userID); err != nil {
		logger.Warn().Err(err).Uint("user_id", userID).Msg("failed to clear reauth record")
	}
	logger.Info().Uint("user_id", userID).Str("session_id", sessionID).Msg("user logged out")
	return nil
}

// Reauth re-verifies the user's password mid-session and opens the step-up
// window for sensitive operations.
func (s *AuthService) Reauth(ctx context.Context, userID uint, password string) error {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return ErrInvalidCredentials
	}
	if !utils.CheckPassword(password, user.Password) {
		logger.Security().
			Uint("user_id", userID).
			Str("reason", "REAUTH_FAILED").
			Msg("failed password re-verification")
		return ErrInvalidCredentials
	}
	return s.gate.RecordReauth(ctx, userID)
}

// ChangePassword verifies the current password, stores the new hash and
// bumps the token version so every outstanding token for the account dies.
// The caller's own session dies with them; the client is expected to log in
// again.
func (s *AuthService) ChangePassword(ctx context.Context, userID uint, oldPassword, newPassword string) error {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return ErrInvalidCredentials
	}
	if !utils.CheckPassword(oldPassword, user.Password) {
		logger.Security().
			Uint("user_id", userID).
			Str("reason", "PASSWORD_CHANGE_DENIED").
			Msg("password change with wrong current password")
		return ErrInvalidCredentials
	}

	hash, err := utils.HashPassword(newPassword)
	if err != nil {
		return err
	}

	err = s.db.Model(&user).Updates(map[string]interface{}{
		"password":      hash,
		"token_version": gorm.Expr("token_version + ?", 1),
	}).Error
	if err != nil {
		return err
	}

	logger.Security().
		Uint("user_id", userID).
		Str("reason", "PASSWORD_CHANGED").
		Msg("password changed, all tokens invalidated")
	return nil
}

// EnsureAdmin creates the default admin account on first boot. The password
// must be rotated through the normal change-password flow afterwards.
func (s *AuthService) EnsureAdmin(email, password string) error {
	email = models.NormalizeEmail(email)

	var count int64
	if err := s.db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return err
	}

	admin := models.User{
		Email:    email,
		Password: hash,
		Name:     "Administrator",
		Role:     models.RoleAdmin,
		IsActive: true,
	}
	if err := s.db.Create(&admin).Error; err != nil {
		return err
	}

	logger.Info().Str("email", email).Msg("default admin account created")
	return nil
}
