package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/dineatlas/dineatlas/backend/internal/models"
	"github.com/dineatlas/dineatlas/backend/internal/services"
	"github.com/dineatlas/dineatlas/backend/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
	utils.SetJWTSecret("middleware-test-secret-0123456789")
}

type middlewareEnv struct {
	user     *models.User
	sessions *services.SessionService
	pair     *services.TokenPair
}

func newMiddlewareEnv(t *testing.T) *middlewareEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}

	user := &models.User{Email: "diner@example.com", Name: "Diner", Role: models.RoleDiner, TokenVersion: 1, IsActive: true}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create test user: %v", err)
	}

	activity := services.NewSessionActivityStore(services.NewMemoryKV(), 15*time.Minute)
	sessions := services.NewSessionService(db, activity, services.NewMemoryKV(), 15*time.Minute, time.Hour)

	pair, err := sessions.StartSession(context.Background(), user)
	if err != nil {
		t.Fatalf("StartSession() error = %v", err)
	}
	return &middlewareEnv{user: user, sessions: sessions, pair: pair}
}

func sessionRouter(sessions *services.SessionService) *gin.Engine {
	r := gin.New()
	r.GET("/me", SessionRequired(sessions), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id":    GetUserID(c),
			"username":   GetUsername(c),
			"role":       GetRole(c),
			"session_id": GetSessionID(c),
		})
	})
	return r
}

func TestSessionRequired_NoToken(t *testing.T) {
	env := newMiddlewareEnv(t)
	r := sessionRouter(env.sessions)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, expected 401", w.Code)
	}
	if !strings.Contains(w.Body.String(), "authentication required") {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestSessionRequired_BearerToken(t *testing.T) {
	env := newMiddlewareEnv(t)
	r := sessionRouter(env.sessions)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+env.pair.AccessToken)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	body := w.Body.String()
	if !strings.Contains(body, fmt.Sprintf(`"user_id":%d`, env.user.ID)) {
		t.Errorf("body = %s, expected the user ID in context", body)
	}
	if !strings.Contains(body, `"role":"diner"`) {
		t.Errorf("body = %s, expected the role in context", body)
	}
}

func TestSessionRequired_CookieToken(t *testing.T) {
	env := newMiddlewareEnv(t)
	r := sessionRouter(env.sessions)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: env.pair.AccessToken})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestSessionRequired_MalformedHeader(t *testing.T) {
	env := newMiddlewareEnv(t)
	r := sessionRouter(env.sessions)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Token "+env.pair.AccessToken)
	r.ServeHTTP(w, req)

	// A non-Bearer scheme is treated as no token at all.
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, expected 401", w.Code)
	}
}

func TestSessionRequired_InvalidToken(t *testing.T) {
	env := newMiddlewareEnv(t)
	r := sessionRouter(env.sessions)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, expected 401", w.Code)
	}
	if !strings.Contains(w.Body.String(), "invalid or expired session") {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestSessionRequired_RevokedSession(t *testing.T) {
	env := newMiddlewareEnv(t)
	r := sessionRouter(env.sessions)

	if err := env.sessions.RevokeSession(context.Background(), env.pair.SessionID); err != nil {
		t.Fatalf("RevokeSession() error = %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+env.pair.AccessToken)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, expected 401 for a revoked session", w.Code)
	}
}

func roleRouter(sessions *services.SessionService, mw gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.GET("/guarded", SessionRequired(sessions), mw, func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestRoleRequired(t *testing.T) {
	env := newMiddlewareEnv(t)

	// The diner passes a diner/owner gate.
	r := roleRouter(env.sessions, RoleRequired("diner", "owner"))
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	req.Header.Set("Authorization", "Bearer "+env.pair.AccessToken)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d for an allowed role, expected 200", w.Code)
	}

	// The same diner is refused by the admin gate.
	r = roleRouter(env.sessions, AdminRequired())
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/guarded", nil)
	req.Header.Set("Authorization", "Bearer "+env.pair.AccessToken)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d for a refused role, expected 403", w.Code)
	}
}
