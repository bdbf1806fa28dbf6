package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/rsip-gallery/internal/pkg/apperror"
	"github.com/ignatzorin/rsip-gallery/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func perform(r http.Handler, method, path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestAdminAuth(t *testing.T) {
	tokens := service.NewTokenVerifier("test-secret")
	r := gin.New()
	r.GET("/admin", AdminAuth(tokens, "admin"), func(c *gin.Context) {
		c.String(http.StatusOK, AdminSubject(c))
	})

	adminToken, err := tokens.Issue("moderator-7", "admin", time.Hour)
	require.NoError(t, err)
	viewerToken, err := tokens.Issue("viewer-1", "viewer", time.Hour)
	require.NoError(t, err)
	foreignToken, err := service.NewTokenVerifier("other").Issue("moderator-7", "admin", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"foreign signature", "Bearer " + foreignToken, http.StatusUnauthorized},
		{"wrong role", "Bearer " + viewerToken, http.StatusForbidden},
		{"admin", "Bearer " + adminToken, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			if tt.header != "" {
				h.Set("Authorization", tt.header)
			}
			w := perform(r, http.MethodGet, "/admin", h)
			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, "moderator-7", w.Body.String())
			}
		})
	}
}

func TestErrorHandler(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/missing", func(c *gin.Context) { _ = c.Error(apperror.ErrItemNotFound) })
	r.GET("/store", func(c *gin.Context) {
		_ = c.Error(apperror.Wrap(errors.New("dial tcp: refused"), apperror.ErrCodeStoreFailure, "хранилище недоступно"))
	})
	r.GET("/boom", func(c *gin.Context) { _ = c.Error(errors.New("pq: relation does not exist")) })

	w := perform(r, http.MethodGet, "/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", decodeError(t, w).Code)

	w = perform(r, http.MethodGet, "/store", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "хранилище недоступно", decodeError(t, w).Error)

	w = perform(r, http.MethodGet, "/boom", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "relation")
}

func TestUUIDValidator(t *testing.T) {
	r := gin.New()
	r.GET("/items/:id", UUIDValidator("id"), func(c *gin.Context) {
		c.String(http.StatusOK, PathID(c).String())
	})

	id := uuid.New()
	w := perform(r, http.MethodGet, "/items/"+id.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, id.String(), w.Body.String())

	w = perform(r, http.MethodGet, "/items/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeError(t, w).Code)
}

func TestRateLimitMiddleware(t *testing.T) {
	r := gin.New()
	r.POST("/reports", RateLimitMiddleware(2, time.Minute), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	assert.Equal(t, http.StatusCreated, perform(r, http.MethodPost, "/reports", nil).Code)
	assert.Equal(t, http.StatusCreated, perform(r, http.MethodPost, "/reports", nil).Code)

	w := perform(r, http.MethodPost, "/reports", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
}

func TestCORSMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddleware([]string{"https://gallery.example.com"}))
	r.GET("/api/gallery", func(c *gin.Context) { c.Status(http.StatusOK) })

	h := http.Header{}
	h.Set("Origin", "https://gallery.example.com")
	w := perform(r, http.MethodGet, "/api/gallery", h)
	assert.Equal(t, "https://gallery.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	h.Set("Origin", "https://evil.example.com")
	w = perform(r, http.MethodGet, "/api/gallery", h)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	w = perform(r, http.MethodOptions, "/api/gallery", h)
	assert.Equal(t, http.StatusNoContent, w.Code)
}
