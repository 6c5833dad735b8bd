package router

import (
	"bytes"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"video-coords/server/internal/component"
	"video-coords/server/internal/config"
	"video-coords/server/internal/emitter"
	"video-coords/server/internal/geometry"
	"video-coords/server/internal/ledger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	csrfMeta    = regexp.MustCompile(`name="csrf-token" content="([^"]+)"`)
	pausedGuard = regexp.MustCompile(`if \(video\.paused\) \{\s*ev\.preventDefault\(\);\s*ev\.stopPropagation\(\);`)
)

func newServer(t *testing.T, limit uint) (*httptest.Server, *http.Client) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	config.Set(&config.Config{
		Server: config.ServerConfig{
			SessionSecret: "test-secret",
			AssetsDir:     "../../assets",
			RateLimit:     config.RateLimitConfig{Window: time.Minute, Limit: limit},
		},
	})

	log := zap.NewNop()
	hub := emitter.NewHub(log)
	registry := component.NewRegistry(log, ledger.NewMemoryStore(), hub, func() component.Settings {
		return component.Settings{Mode: geometry.ModeStretch, RequirePaused: true}
	})

	srv := httptest.NewServer(Setup(log, registry, hub))
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return srv, &http.Client{Jar: jar}
}

func loadPlayer(t *testing.T, srv *httptest.Server, client *http.Client) string {
	t.Helper()
	resp, err := client.Get(srv.URL + "/player?key=clip")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Contains(t, resp.Header.Get("Content-Security-Policy"), "'nonce-")
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `data-key="clip"`)

	m := csrfMeta.FindSubmatch(body)
	require.NotNil(t, m, "page carries the CSRF token")
	return string(m[1])
}

func mount(t *testing.T, srv *httptest.Server, client *http.Client, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/components/clip", bytes.NewBufferString(`{"src":"https://example.com/clip.mp4"}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(csrfTokenHeaderKey, token)
	}
	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	return resp
}

func TestMutatingRequestsNeedCSRFToken(t *testing.T) {
	srv, client := newServer(t, 100)
	token := loadPlayer(t, srv, client)

	assert.Equal(t, http.StatusForbidden, mount(t, srv, client, "").StatusCode)
	assert.Equal(t, http.StatusForbidden, mount(t, srv, client, "wrong").StatusCode)
	assert.Equal(t, http.StatusOK, mount(t, srv, client, token).StatusCode)
}

func TestViewersAreIsolated(t *testing.T) {
	srv, alice := newServer(t, 100)
	token := loadPlayer(t, srv, alice)
	require.Equal(t, http.StatusOK, mount(t, srv, alice, token).StatusCode)

	resp, err := alice.Get(srv.URL + "/components/clip/clicks")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	bob := &http.Client{Jar: jar}
	resp, err = bob.Get(srv.URL + "/components/clip/clicks")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "another session has its own components")
}

func TestMountIsRateLimited(t *testing.T) {
	srv, client := newServer(t, 2)
	token := loadPlayer(t, srv, client)

	assert.Equal(t, http.StatusOK, mount(t, srv, client, token).StatusCode)
	assert.Equal(t, http.StatusOK, mount(t, srv, client, token).StatusCode)
	assert.Equal(t, http.StatusTooManyRequests, mount(t, srv, client, token).StatusCode)
}

func TestRootRedirectsToPlayer(t *testing.T) {
	srv, client := newServer(t, 100)
	client.CheckRedirect = func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }

	resp, err := client.Get(srv.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/player", resp.Header.Get("Location"))
}

func TestPlayerSuppressesNativeToggleOnPausedClick(t *testing.T) {
	srv, client := newServer(t, 100)

	resp, err := client.Get(srv.URL + "/assets/js/player.js")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	script := string(body)

	guard := pausedGuard.FindStringIndex(script)
	require.NotNil(t, guard, "click handler must cancel the default action while paused")
	report := strings.Index(script, "const report")
	require.NotEqual(t, -1, report)
	assert.Less(t, guard[0], report, "default action must be cancelled before the report is built")
}
