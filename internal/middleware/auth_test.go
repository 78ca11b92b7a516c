package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func protected(t *testing.T) echo.HandlerFunc {
	t.Helper()
	return AuthMiddleware(func(c echo.Context) error {
		id, err := GetAccountID(c)
		require.NoError(t, err)
		return c.String(http.StatusOK, id.String())
	})
}

func TestAuthMiddlewareBearerHeader(t *testing.T) {
	accountID := uuid.New()
	token, err := GenerateJWT(accountID)
	require.NoError(t, err)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	err = protected(t)(e.NewContext(req, rec))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, accountID.String(), rec.Body.String())
}

func TestAuthMiddlewareCookie(t *testing.T) {
	accountID := uuid.New()
	token, err := GenerateJWT(accountID)
	require.NoError(t, err)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: token})
	rec := httptest.NewRecorder()

	err = protected(t)(e.NewContext(req, rec))
	require.NoError(t, err)
	assert.Equal(t, accountID.String(), rec.Body.String())
}

func TestAuthMiddlewareRejections(t *testing.T) {
	tests := []struct {
		name  string
		setup func(req *http.Request)
	}{
		{"no credentials", func(*http.Request) {}},
		{"malformed header", func(req *http.Request) {
			req.Header.Set("Authorization", "Token abc")
		}},
		{"garbage token", func(req *http.Request) {
			req.Header.Set("Authorization", "Bearer not-a-jwt")
		}},
	}

	e := echo.New()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tc.setup(req)
			rec := httptest.NewRecorder()

			err := protected(t)(e.NewContext(req, rec))
			var httpErr *echo.HTTPError
			require.ErrorAs(t, err, &httpErr)
			assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
		})
	}
}

func TestGetAccountIDWithoutAuth(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	_, err := GetAccountID(c)
	assert.Error(t, err)
}
