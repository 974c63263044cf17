package middlewares

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bitbucket.org/mmdatafocus/dealersync_backend/utils"
	"github.com/gin-gonic/gin"
)

func authTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AuthMiddleware())
	r.GET("/whoami", func(c *gin.Context) {
		username, ok := utils.GetUsernameFromContext(c.Request.Context())
		if !ok || username == "" {
			c.JSON(http.StatusOK, gin.H{"username": ""})
			return
		}
		userId, _ := utils.GetUserIdFromContext(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"username": username, "userId": userId})
	})
	return r
}

func TestAuthMiddlewareAcceptsLoginJwt(t *testing.T) {
	token, err := utils.JwtGenerate(7, "ops.kim", "O")
	if err != nil {
		t.Fatalf("generate jwt: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	authTestRouter().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	body := w.Body.String()
	for _, want := range []string{`"username":"ops.kim"`, `"userId":7`} {
		if !strings.Contains(body, want) {
			t.Fatalf("bearer claims must land in the request context, got %s", body)
		}
	}
}

func TestAuthMiddlewareRejectsForgedBearer(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	authTestRouter().ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a forged bearer, got %d", w.Code)
	}
}

func TestAuthMiddlewarePassesThroughWithoutHeader(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	authTestRouter().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("anonymous requests continue to the guard, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"username":""`) {
		t.Fatalf("no header must not invent an identity: %s", w.Body.String())
	}
}

func TestAuthMiddlewareKeepsExistingSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Request = c.Request.WithContext(utils.SetUsernameInContext(c.Request.Context(), "session.user"))
		c.Next()
	})
	r.Use(AuthMiddleware())
	r.GET("/whoami", func(c *gin.Context) {
		username, _ := utils.GetUsernameFromContext(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"username": username})
	})

	// A stray Authorization header must not evict an established session.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"username":"session.user"`) {
		t.Fatalf("session identity lost: %s", w.Body.String())
	}
}

func TestRequireSessionRejectsAnonymous(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequireSession())
	r.GET("/guarded", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/guarded", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestRequireSessionRejectsUnresolvableAccount(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Request = c.Request.WithContext(utils.SetUsernameInContext(c.Request.Context(), "ghost"))
		c.Next()
	})
	r.Use(RequireSession())
	r.GET("/guarded", func(c *gin.Context) { c.Status(http.StatusOK) })

	// No store is connected, so the account cannot be resolved; a session
	// naming an unknown user must not pass the guard.
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/guarded", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}
