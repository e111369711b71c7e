package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"

	"warbler/internal/config"
	"warbler/internal/database"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestServer(t *testing.T) (*Server, *fiber.App) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	cfg := &config.Config{
		Port:          "0",
		SessionSecret: "test-secret",
		Env:           "test",
	}

	s := NewServerWithDeps(cfg, db, nil)
	app := s.NewApp("../../views")
	return s, app
}

// testClient drives the app through app.Test with a cookie jar, the way a
// browser would: cookies persist across requests within one client.
type testClient struct {
	t       *testing.T
	app     *fiber.App
	cookies map[string]string
}

func newTestClient(t *testing.T, app *fiber.App) *testClient {
	return &testClient{t: t, app: app, cookies: map[string]string{}}
}

func (tc *testClient) do(req *http.Request) *http.Response {
	tc.t.Helper()
	for name, value := range tc.cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}

	resp, err := tc.app.Test(req)
	require.NoError(tc.t, err)

	for _, c := range resp.Cookies() {
		if c.Value == "" || c.MaxAge < 0 {
			delete(tc.cookies, c.Name)
			continue
		}
		tc.cookies[c.Name] = c.Value
	}
	return resp
}

func (tc *testClient) get(path string) *http.Response {
	tc.t.Helper()
	return tc.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (tc *testClient) postForm(path string, form url.Values) *http.Response {
	tc.t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	return tc.do(req)
}

var csrfMetaRe = regexp.MustCompile(`name="csrf-token" content="([^"]+)"`)

// csrfToken fetches a page and extracts the anti-forgery token from the
// layout's meta tag.
func (tc *testClient) csrfToken(path string) string {
	tc.t.Helper()
	body := tc.getBody(path)
	match := csrfMetaRe.FindStringSubmatch(body)
	require.NotNil(tc.t, match, "no csrf token on %s", path)
	require.NotEmpty(tc.t, match[1])
	return match[1]
}

func (tc *testClient) getBody(path string) string {
	tc.t.Helper()
	resp := tc.get(path)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(tc.t, http.StatusOK, resp.StatusCode)
	b, err := io.ReadAll(resp.Body)
	require.NoError(tc.t, err)
	return string(b)
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func (tc *testClient) signup(username, email, password string) *http.Response {
	tc.t.Helper()
	token := tc.csrfToken("/signup")
	return tc.postForm("/signup", url.Values{
		"csrf_token": {token},
		"username":   {username},
		"email":      {email},
		"password":   {password},
	})
}

func (tc *testClient) login(username, password string) *http.Response {
	tc.t.Helper()
	token := tc.csrfToken("/login")
	return tc.postForm("/login", url.Values{
		"csrf_token": {token},
		"username":   {username},
		"password":   {password},
	})
}

// post performs a token-only POST (logout, deletes, follow/like toggles).
func (tc *testClient) post(path string, extra url.Values) *http.Response {
	tc.t.Helper()
	token := tc.csrfToken("/")
	form := url.Values{"csrf_token": {token}}
	for key, vals := range extra {
		form[key] = vals
	}
	return tc.postForm(path, form)
}
