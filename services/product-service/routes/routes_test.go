package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeetKhetani2003/Groovy-Frozen-Server/services/common/auth"
	"github.com/MeetKhetani2003/Groovy-Frozen-Server/services/product-service/controllers"
)

func newRouter(t *testing.T) (*gin.Engine, *auth.TokenValidator) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	v := controllers.NewRequestValidator()
	tv := auth.NewTokenValidator("test-secret")
	RegisterRoutes(r, controllers.NewProductController(nil, nil, v), controllers.NewBulkImportHandler(nil, nil, v), tv, false)
	return r, tv
}

func TestMutationsRequireToken(t *testing.T) {
	r, _ := newRouter(t)
	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/api/v1/products"},
		{http.MethodPut, "/api/v1/products/abc"},
		{http.MethodDelete, "/api/v1/products/abc"},
		{http.MethodPatch, "/api/v1/products/abc/stock"},
		{http.MethodPost, "/api/v1/products/bulk"},
		{http.MethodPost, "/api/v1/products/bulk/validate"},
	} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, tc.method+" "+tc.path)
	}
}

func TestMutationsRequireAdminRole(t *testing.T) {
	r, tv := newRouter(t)
	token, err := tv.Sign(auth.Identity{UserID: "u1", Role: "user"}, time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/products/abc", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGatewayHeaderIgnoredWhenUntrusted(t *testing.T) {
	r, _ := newRouter(t)
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/products/abc", nil)
	req.Header.Set("X-User-ID", "u1")
	req.Header.Set("X-User-Role", "admin")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
