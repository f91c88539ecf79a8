package csrf

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(cfg Config) *echo.Echo {
	e := echo.New()
	e.Use(Middleware(cfg))
	ok := func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }
	e.GET("/form", ok)
	e.POST("/cart", ok)
	e.POST("/webhook", ok)
	return e
}

func issueToken(t *testing.T, e *echo.Echo) string {
	t.Helper()
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/form", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)

	token := rec.Header().Get("X-CSRF-Token")
	require.NotEmpty(t, token)
	var cookie string
	for _, c := range rec.Result().Cookies() {
		if c.Name == "XSRF-TOKEN" {
			cookie = c.Value
		}
	}
	require.Equal(t, token, cookie)
	return token
}

func post(e *echo.Echo, path, cookie, header, origin string) int {
	req := httptest.NewRequest(http.MethodPost, path, nil)
	req.Host = "shop.test"
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: "XSRF-TOKEN", Value: cookie})
	}
	if header != "" {
		req.Header.Set("X-CSRF-Token", header)
	}
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec.Code
}

func TestMiddleware(t *testing.T) {
	e := newServer(Config{EnforceSameOrigin: true, SkipPaths: []string{"/webhook"}})
	token := issueToken(t, e)

	tests := []struct {
		name   string
		path   string
		cookie string
		header string
		origin string
		want   int
	}{
		{name: "matching token", path: "/cart", cookie: token, header: token, origin: "http://shop.test", want: http.StatusNoContent},
		{name: "missing header", path: "/cart", cookie: token, origin: "http://shop.test", want: http.StatusForbidden},
		{name: "mismatched header", path: "/cart", cookie: token, header: token + "x", origin: "http://shop.test", want: http.StatusForbidden},
		{name: "foreign origin", path: "/cart", cookie: token, header: token, origin: "http://evil.test", want: http.StatusForbidden},
		{name: "no origin", path: "/cart", cookie: token, header: token, want: http.StatusForbidden},
		{name: "skipped path", path: "/webhook", want: http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, post(e, tt.path, tt.cookie, tt.header, tt.origin))
		})
	}
}

func TestMiddleware_OriginCheckDisabled(t *testing.T) {
	e := newServer(Config{})
	token := issueToken(t, e)

	assert.Equal(t, http.StatusNoContent, post(e, "/cart", token, token, ""))
}

func TestSecureCompare(t *testing.T) {
	assert.True(t, secureCompare("abc", "abc"))
	assert.False(t, secureCompare("abc", "abd"))
	assert.False(t, secureCompare("", ""))
	assert.False(t, secureCompare("abc", "ab"))
}
