package echoServer

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/VetalSh/library/model"
	jwtutil "github.com/VetalSh/library/util/jwt"
)

const testSecret = "middleware-test-secret"

func newAuthedEcho(t *testing.T) *echo.Echo {
	t.Helper()
	e := echo.New()
	g := e.Group("/v1", JWTAuth(testSecret)...)
	g.GET("/whoami", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{
			"user_id": c.Get("user_id").(int64),
			"role":    string(c.Get("role").(model.Role)),
		})
	})
	g.GET("/admin", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, RequireRole(model.RoleAdmin))
	return e
}

func doGet(e *echo.Echo, path, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set(echo.HeaderAuthorization, authHeader)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuthAcceptsIssuedToken(t *testing.T) {
	e := newAuthedEcho(t)

	token, err := jwtutil.Issue(testSecret, 42, string(model.RoleLibrarian), 1)
	require.NoError(t, err)

	rec := doGet(e, "/v1/whoami", "Bearer "+token)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"user_id":42`)
	require.Contains(t, rec.Body.String(), `"role":"LIBRARIAN"`)
}

func TestJWTAuthRejectsMissingToken(t *testing.T) {
	rec := doGet(newAuthedEcho(t), "/v1/whoami", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthRejectsForgedToken(t *testing.T) {
	token, err := jwtutil.Issue("some-other-secret", 42, string(model.RoleUser), 1)
	require.NoError(t, err)

	rec := doGet(newAuthedEcho(t), "/v1/whoami", "Bearer "+token)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole(t *testing.T) {
	e := newAuthedEcho(t)

	admin, err := jwtutil.Issue(testSecret, 1, string(model.RoleAdmin), 1)
	require.NoError(t, err)
	user, err := jwtutil.Issue(testSecret, 2, string(model.RoleUser), 1)
	require.NoError(t, err)

	require.Equal(t, http.StatusOK, doGet(e, "/v1/admin", "Bearer "+admin).Code)
	require.Equal(t, http.StatusForbidden, doGet(e, "/v1/admin", "Bearer "+user).Code)
}
