package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus-events/models"
	"campus-events/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestAuthenticateMissingToken(t *testing.T) {
	r := gin.New()
	r.GET("/p", Authenticate("secret"), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/p", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthenticateBadToken(t *testing.T) {
	r := gin.New()
	r.GET("/p", Authenticate("secret"), func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthenticateWrongSecret(t *testing.T) {
	token, err := utils.GenerateToken(7, models.RoleStudent, "other-secret")
	require.NoError(t, err)

	r := gin.New()
	r.GET("/p", Authenticate("secret"), func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthenticateSetsIdentity(t *testing.T) {
	token, err := utils.GenerateToken(7, models.RoleStudent, "secret")
	require.NoError(t, err)

	r := gin.New()
	r.GET("/p", Authenticate("secret"), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"userId": c.GetInt64("userId"),
			"role":   c.GetString("userRole"),
		})
	})

	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"userId":7`)
	assert.Contains(t, w.Body.String(), `"role":"student"`)
}

func TestRequireAdmin(t *testing.T) {
	r := gin.New()
	r.GET("/a", func(c *gin.Context) { c.Set("userRole", models.RoleStudent) }, RequireAdmin(), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/b", func(c *gin.Context) { c.Set("userRole", models.RoleAdmin) }, RequireAdmin(), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/a", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/b", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestResponseCacheMissThenHit(t *testing.T) {
	rdb := testRedis(t)

	calls := 0
	r := gin.New()
	r.Use(ResponseCache(rdb, time.Minute))
	r.GET("/events", func(c *gin.Context) {
		calls++
		c.JSON(http.StatusOK, gin.H{"calls": calls})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	assert.Contains(t, w.Body.String(), `"calls":1`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))
	assert.Contains(t, w.Body.String(), `"calls":1`)
	assert.Equal(t, 1, calls)
}

func TestResponseCacheSkipsNonCacheablePaths(t *testing.T) {
	rdb := testRedis(t)

	r := gin.New()
	r.Use(ResponseCache(rdb, time.Minute))
	r.GET("/auth/profile", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/profile", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("X-Cache"))
	}
}

func TestResponseCacheSkipsErrors(t *testing.T) {
	rdb := testRedis(t)

	calls := 0
	r := gin.New()
	r.Use(ResponseCache(rdb, time.Minute))
	r.GET("/events/:id", func(c *gin.Context) {
		calls++
		c.JSON(http.StatusNotFound, gin.H{"message": "event not found"})
	})

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events/nope", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	}
	assert.Equal(t, 2, calls)
}

func TestQuotaExceeded(t *testing.T) {
	rdb := testRedis(t)

	r := gin.New()
	r.Use(Quota(rdb, QuotaRule{
		Limit:  3,
		Window: time.Hour,
		KeyFn:  func(*gin.Context) string { return "quota:test" },
	}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestQuotaFailsOpenWithoutRedis(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})

	r := gin.New()
	r.Use(Quota(rdb, QuotaRule{
		Limit:  1,
		Window: time.Hour,
		KeyFn:  func(*gin.Context) string { return "quota:test" },
	}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRateLimiterBurst(t *testing.T) {
	rl := NewRateLimiter(LimiterConfig{RPS: 0.1, Burst: 2, IdleTTL: time.Minute})

	r := gin.New()
	r.Use(rl.Middleware(func(*gin.Context) string { return "k" }))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
}

func TestRateLimiterKeysAreIndependent(t *testing.T) {
	rl := NewRateLimiter(LimiterConfig{RPS: 0.1, Burst: 1, IdleTTL: time.Minute})

	r := gin.New()
	r.Use(rl.Middleware(func(c *gin.Context) string { return c.Query("k") }))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x?k=a", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x?k=a", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x?k=b", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCacheKeyNamespaces(t *testing.T) {
	r := gin.New()
	keys := map[string]string{}
	record := func(name string) gin.HandlerFunc {
		return func(c *gin.Context) {
			keys[name] = CacheKeyFrom(c)
			c.Status(http.StatusOK)
		}
	}
	r.GET("/events", record("list"))
	r.GET("/events/:id", record("item"))
	r.GET("/events/:id/feedback", record("feedback"))
	r.GET("/events/grouped/:year", record("grouped"))
	r.GET("/events/month/:year/:month", record("month"))

	for _, path := range []string{"/events", "/events/abc", "/events/abc/feedback", "/events/grouped/2026", "/events/month/2026/3"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Contains(t, keys["list"], "cache:events:list:")
	assert.Contains(t, keys["item"], "cache:events:item:")
	assert.Contains(t, keys["feedback"], "cache:events:feedback:")
	assert.Contains(t, keys["grouped"], "cache:events:grouped:")
	assert.Contains(t, keys["month"], "cache:events:month:")
}
