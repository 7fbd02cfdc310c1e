package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salones-cra/booking-api/internal/utils"
)

const testSecret = "test-secret"

func echoRequest(t *testing.T, token string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func okHandler(c echo.Context) error { return c.String(http.StatusOK, "ok") }

func TestJWTAuth(t *testing.T) {
	access, err := utils.NewAccessToken(testSecret, 5, "TEACHER", 10)
	require.NoError(t, err)

	c, rec := echoRequest(t, access.Token)
	err = JWTAuth(testSecret)(okHandler)(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "TEACHER", c.Get("role"))

	// Missing token is rejected.
	c, rec = echoRequest(t, "")
	err = JWTAuth(testSecret)(okHandler)(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Token signed with another secret is rejected.
	forged, err := utils.NewAccessToken("other-secret", 5, "ADMIN", 10)
	require.NoError(t, err)
	c, rec = echoRequest(t, forged.Token)
	err = JWTAuth(testSecret)(okHandler)(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTOptional(t *testing.T) {
	// Anonymous requests pass through without identity.
	c, rec := echoRequest(t, "")
	err := JWTOptional(testSecret)(okHandler)(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, c.Get("user_id"))

	// A valid token still populates the context.
	access, err := utils.NewAccessToken(testSecret, 5, "ADMIN", 10)
	require.NoError(t, err)
	c, rec = echoRequest(t, access.Token)
	err = JWTOptional(testSecret)(okHandler)(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ADMIN", c.Get("role"))
}

func TestRequireRole(t *testing.T) {
	c, rec := echoRequest(t, "")
	c.Set("role", "TEACHER")
	err := RequireRole("ADMIN")(okHandler)(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	c, rec = echoRequest(t, "")
	c.Set("role", "ADMIN")
	err = RequireRole("ADMIN", "TEACHER")(okHandler)(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	// No role at all (anonymous) is forbidden too.
	c, rec = echoRequest(t, "")
	err = RequireRole("ADMIN")(okHandler)(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
