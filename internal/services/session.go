package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dineatlas/dineatlas/backend/internal/models"
	"github.com/dineatlas/dineatlas/backend/internal/utils"
	"github.com/dineatlas/dineatlas/backend/pkg/logger"
)

// SessionStatus is the outcome of verifying a request's session.
type SessionStatus int

const (
	SessionValid SessionStatus = iota
	SessionNoToken
	SessionInvalidToken
	SessionIdleExpired
	SessionStoreError
)

func (s SessionStatus) String() string {
	switch s {
	case SessionValid:
		return "VALID"
	case SessionNoToken:
		return "NO_TOKEN"
	case SessionInvalidToken:
		return "INVALID_TOKEN"
	case SessionIdleExpired:
		return "IDLE_EXPIRED"
	case SessionStoreError:
		return "STORE_ERROR"
	}
	return "UNKNOWN"
}

// ErrSessionRevoked is returned by Refresh when the presented refresh token
// belongs to a session that is, or has just been, revoked.
var ErrSessionRevoked = errors.New("session revoked")

// TokenPair is what a successful login or refresh hands back to the client.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	SessionID    string
}

// SessionService owns the server-side half of the session lifecycle: it
// mints token pairs, verifies access tokens against revocation, account
// state and the idle timeout, and rotates refresh tokens with reuse
// detection. Per-session state lives in the KV store under two keys:
//
//	session:<sid>  →  "<jti>|<tokenVersion>"   current refresh token ID and
//	                                           the user's version at mint time
//	revoked:<sid>  →  "1"                      revocation blacklist entry
//
// The session state and blacklist go through the failover store so logins
// keep working during a Redis outage; the tradeoff is per-instance state
// until the primary recovers.
type SessionService struct {
	db         *gorm.DB
	activity   *SessionActivityStore
	kv         KVStore
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewSessionService(db *gorm.DB, activity *SessionActivityStore, kv KVStore, accessTTL, refreshTTL time.Duration) *SessionService {
	return &SessionService{
		db:         db,
		activity:   activity,
		kv:         kv,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

func sessionKey(sid string) string { return "session:" + sid }
func revokedKey(sid string) string { return "revoked:" + sid }

func sessionStateValue(jti string, tokenVersion uint) string {
	return jti + "|" + strconv.FormatUint(uint64(tokenVersion), 10)
}

func parseSessionState(value string) (jti string, tokenVersion uint, ok bool) {
	jti, versionPart, found := strings.Cut(value, "|")
	if !found || jti == "" {
		return "", 0, false
	}
	v, err := strconv.ParseUint(versionPart, 10, 32)
	if err != nil {
		return "", 0, false
	}
	return jti, uint(v), true
}

// StartSession mints a fresh session for an authenticated user: new session
// ID, new token pair, session state recorded, activity touched.
func (s *SessionService) StartSession(ctx context.Context, user *models.User) (*TokenPair, error) {
	sid := uuid.NewString()
	jti := uuid.NewString()

	accessToken, err := utils.GenerateAccessToken(user.ID, user.Role, user.Name, user.TokenVersion, sid, s.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("mint access token: %w", err)
	}
	refreshToken, err := utils.GenerateRefreshToken(user.ID, sid, jti, s.refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("mint refresh token: %w", err)
	}

	if err := s.kv.Set(ctx, sessionKey(sid), sessionStateValue(jti, user.TokenVersion), s.refreshTTL); err != nil {
		return nil, fmt.Errorf("record session state: %w", err)
	}
	if err := s.activity.Touch(ctx, user.ID); err != nil {
		logger.Warn().Err(err).Uint("user_id", user.ID).Msg("failed to record initial activity")
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken, SessionID: sid}, nil
}

// Verify checks an access token end to end: signature and expiry, session
// revocation, account state, token version, then the idle timeout. On a
// valid session it refreshes the activity record as a side effect. The
// returned claims are non-nil only for SessionValid.
func (s *SessionService) Verify(ctx context.Context, tokenString string) (*utils.Claims, SessionStatus) {
	if tokenString == "" {
		return nil, SessionNoToken
	}

	claims, err := utils.ParseToken(tokenString, utils.TokenAccess)
	if err != nil {
		logger.Debug().Err(err).Msg("access token rejected")
		return nil, SessionInvalidToken
	}

	revoked, err := s.isRevoked(ctx, claims.SessionID)
	if err != nil {
		logger.Error().Err(err).Str("session_id", claims.SessionID).Msg("revocation check unavailable")
		return nil, SessionStoreError
	}
	if revoked {
		logger.Security().
			Uint("user_id", claims.UserID).
			Str("session_id", claims.SessionID).
			Str("reason", "REVOKED_SESSION").
			Msg("access token for revoked session")
		return nil, SessionInvalidToken
	}

	var user models.User
	if err := s.db.First(&user, claims.UserID).Error; err != nil {
		logger.Debug().Err(err).Uint("user_id", claims.UserID).Msg("token user not found")
		return nil, SessionInvalidToken
	}
	if user.TokenVersion != claims.TokenVersion {
		logger.Security().
			Uint("user_id", claims.UserID).
			Str("session_id", claims.SessionID).
			Str("reason", "STALE_TOKEN_VERSION").
			Msg("access token minted before credential change")
		return nil, SessionInvalidToken
	}
	if !user.IsActive {
		logger.Security().
			Uint("user_id", claims.UserID).
			Str("reason", "ACCOUNT_DISABLED").
			Msg("access token for disabled account")
		return nil, SessionInvalidToken
	}

	expired, err := s.activity.IsIdleExpired(ctx, claims.UserID)
	if err != nil {
		return nil, SessionStoreError
	}
	if expired {
		return nil, SessionIdleExpired
	}

	if err := s.activity.Touch(ctx, claims.UserID); err != nil {
		logger.Warn().Err(err).Uint("user_id", claims.UserID).Msg("failed to refresh activity record")
	}
	return claims, SessionValid
}

// Refresh rotates a refresh token: the presented token must carry the
// session's current token ID, after which a brand-new pair is issued and the
// old refresh token is dead. Presenting a superseded token ID is treated as
// theft and revokes the whole session. A token version recorded at mint time
// that no longer matches the user's current version also revokes the
// session, so password changes cut refresh chains too.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := utils.ParseToken(refreshToken, utils.TokenRefresh)
	if err != nil {
		return nil, err
	}
	sid := claims.SessionID

	revoked, err := s.isRevoked(ctx, sid)
	if err != nil {
		return nil, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return nil, ErrSessionRevoked
	}

	state, err := s.kv.Get(ctx, sessionKey(sid))
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return nil, ErrSessionRevoked
		}
		return nil, fmt.Errorf("read session state: %w", err)
	}
	currentJTI, mintedVersion, ok := parseSessionState(state)
	if !ok {
		return nil, ErrSessionRevoked
	}

	if claims.ID != currentJTI {
		logger.Security().
			Uint("user_id", claims.UserID).
			Str("session_id", sid).
			Str("reason", "REFRESH_REUSE").
			Msg("superseded refresh token presented, revoking session")
		if err := s.RevokeSession(ctx, sid); err != nil {
			logger.Error().Err(err).Str("session_id", sid).Msg("failed to revoke session after refresh reuse")
		}
		return nil, ErrSessionRevoked
	}

	var user models.User
	if err := s.db.First(&user, claims.UserID).Error; err != nil {
		return nil, ErrSessionRevoked
	}
	if !user.IsActive || user.TokenVersion != mintedVersion {
		if err := s.RevokeSession(ctx, sid); err != nil {
			logger.Error().Err(err).Str("session_id", sid).Msg("failed to revoke stale session")
		}
		return nil, ErrSessionRevoked
	}

	newJTI := uuid.NewString()
	accessToken, err := utils.GenerateAccessToken(user.ID, user.Role, user.Name, user.TokenVersion, sid, s.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("mint access token: %w", err)
	}
	newRefresh, err := utils.GenerateRefreshToken(user.ID, sid, newJTI, s.refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("mint refresh token: %w", err)
	}
	if err := s.kv.Set(ctx, sessionKey(sid), sessionStateValue(newJTI, user.TokenVersion), s.refreshTTL); err != nil {
		return nil, fmt.Errorf("rotate session state: %w", err)
	}

	if err := s.activity.Touch(ctx, user.ID); err != nil {
		logger.Warn().Err(err).Uint("user_id", user.ID).Msg("failed to refresh activity record")
	}
	return &TokenPair{AccessToken: accessToken, RefreshToken: newRefresh, SessionID: sid}, nil
}

// RevokeSession blacklists a session and drops its state. The blacklist
// entry outlives the longest-lived token that could name the session.
func (s *SessionService) RevokeSession(ctx context.Context, sid string) error {
	if err := s.kv.Set(ctx, revokedKey(sid), "1", s.refreshTTL); err != nil {
		return fmt.Errorf("blacklist session: %w", err)
	}
	if err := s.kv.Del(ctx, sessionKey(sid)); err != nil {
		logger.Warn().Err(err).Str("session_id", sid).Msg("failed to drop session state")
	}
	return nil
}

// isRevoked reports whether the session is on the blacklist. A store error
// is surfaced rather than read as "not revoked"; callers deny on it.
func (s *SessionService) isRevoked(ctx context.Context, sid string) (bool, error) {
	_, err := s.kv.Get(ctx, revokedKey(sid))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ErrKeyNotFound) {
		return false, nil
	}
	return false, err
}
