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
	ok := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	e.GET("/form", ok)
	e.POST("/submit", ok)
	e.POST("/api/user/login", ok)
	return e
}

func fetchToken(t *testing.T, e *echo.Echo) string {
	t.Helper()
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/form", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	tok := rec.Header().Get("X-CSRF-Token")
	require.NotEmpty(t, tok)
	return tok
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	e := newServer(Config{SkipPaths: []string{"/api/user/login"}, EnforceSameOrigin: true})
	tok := fetchToken(t, e)

	tests := []struct {
		name   string
		path   string
		cookie string
		header string
		origin string
		bearer bool
		want   int
	}{
		{name: "valid", path: "/submit", cookie: tok, header: tok, origin: "http://example.com", want: http.StatusOK},
		{name: "missing header", path: "/submit", cookie: tok, origin: "http://example.com", want: http.StatusForbidden},
		{name: "mismatch", path: "/submit", cookie: tok, header: tok + "x", origin: "http://example.com", want: http.StatusForbidden},
		{name: "cross origin", path: "/submit", cookie: tok, header: tok, origin: "http://evil.com", want: http.StatusForbidden},
		{name: "no origin", path: "/submit", cookie: tok, header: tok, want: http.StatusForbidden},
		{name: "skipped path", path: "/api/user/login", want: http.StatusOK},
		{name: "bearer request", path: "/submit", bearer: true, want: http.StatusOK},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodPost, tt.path, nil)
			req.Host = "example.com"
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "XSRF-TOKEN", Value: tt.cookie})
			}
			if tt.header != "" {
				req.Header.Set("X-CSRF-Token", tt.header)
			}
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if tt.bearer {
				req.Header.Set(echo.HeaderAuthorization, "Bearer abc")
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
