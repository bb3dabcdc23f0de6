package httpkit

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"homni_backend/platform/apperr"
	"homni_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type jwtConfig struct{ secret string }

func (c jwtConfig) GetJWTAccessSecret() string { return c.secret }

func init() {
	gin.SetMode(gin.TestMode)
}

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func newAdminRouter(cfg jwtConfig) *gin.Engine {
	r := gin.New()
	r.GET("/admin", AuthRequired(cfg), RequireRole(RoleAdmin), func(c *gin.Context) {
		OK(c, gin.H{"user": GetIdentity(c).UserID().String()})
	})
	return r
}

func TestAuthRequiredRejectsMissingToken(t *testing.T) {
	r := newAdminRouter(jwtConfig{secret: "s"})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthRequiredRejectsRefreshToken(t *testing.T) {
	cfg := jwtConfig{secret: "s"}
	token := signToken(t, cfg.secret, jwt.MapClaims{
		"sub":  uuid.NewString(),
		"type": "refresh",
		"exp":  time.Now().Add(time.Minute).Unix(),
	})

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	newAdminRouter(cfg).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRequireRoleForbidsNonAdmin(t *testing.T) {
	cfg := jwtConfig{secret: "s"}
	token := signToken(t, cfg.secret, jwt.MapClaims{
		"sub":   uuid.NewString(),
		"type":  "access",
		"roles": []string{"company"},
		"exp":   time.Now().Add(time.Minute).Unix(),
	})

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	newAdminRouter(cfg).ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestRequireRoleAllowsAdmin(t *testing.T) {
	cfg := jwtConfig{secret: "s"}
	userID := uuid.New()
	token := signToken(t, cfg.secret, jwt.MapClaims{
		"sub":   userID.String(),
		"type":  "access",
		"roles": []string{"admin"},
		"exp":   time.Now().Add(time.Minute).Unix(),
	})

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	newAdminRouter(cfg).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRateLimitBlocksAfterBurst(t *testing.T) {
	limiter := NewPerMinuteRateLimiter(1, 2, logger.Discard())
	r := gin.New()
	r.POST("/leads", limiter.RateLimit(), func(c *gin.Context) { c.Status(http.StatusCreated) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/leads", nil))
		codes = append(codes, rec.Code)
	}

	if codes[0] != http.StatusCreated || codes[1] != http.StatusCreated || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected status sequence %v", codes)
	}
}

func TestHandleErrorMapsKinds(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
		msg  string
	}{
		{"conflict", apperr.Conflict("already submitted"), http.StatusConflict, "already submitted"},
		{"internal hides cause", apperr.Wrap(apperr.KindInternal, "could not create request", errors.New("pq: boom")), http.StatusInternalServerError, "could not create request"},
		{"untyped", errors.New("raw driver error"), http.StatusInternalServerError, genericInternalMessage},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			if !HandleError(c, tc.err) {
				t.Fatal("expected error to be handled")
			}
			if rec.Code != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, rec.Code)
			}
			if want := `{"error":"` + tc.msg + `"}`; rec.Body.String() != want {
				t.Fatalf("expected body %s, got %s", want, rec.Body.String())
			}
		})
	}
}
