package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-crm/internal/deals"
	dealshttp "github.com/odyssey-erp/odyssey-crm/internal/deals/http"
	"github.com/odyssey-erp/odyssey-crm/internal/deals/svg"
	"github.com/odyssey-erp/odyssey-crm/internal/deals/ui"
	"github.com/odyssey-erp/odyssey-crm/internal/observability"
	"github.com/odyssey-erp/odyssey-crm/internal/shared"
	"github.com/odyssey-erp/odyssey-crm/internal/view"
)

type emptyService struct{}

func (emptyService) Load(ctx context.Context, filter deals.ListFilter) ([]deals.DealStage, error) {
	return nil, nil
}

func newTestRouter(t *testing.T) (http.Handler, *shared.SessionManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	templates, err := view.NewEngine()
	require.NoError(t, err)
	sessions := shared.NewSessionManager(client, "sid", "session-secret", time.Hour, false)
	csrf := shared.NewCSRFManager("secret")
	nav := shared.NewNavigator(map[string]string{ui.PipelineResource: "/deals"})
	handler := dealshttp.NewHandler(logger, emptyService{}, templates, ui.RendererFunc(svg.Area), nav, nil, csrf, time.UTC)

	router := NewRouter(RouterParams{
		Logger:         logger,
		Config:         &Config{AppEnv: "test", AppRequestTimeout: time.Second},
		SessionManager: sessions,
		CSRFManager:    csrf,
		DealsHandler:   handler,
		Metrics:        observability.NewMetrics(),
	})
	return router, sessions
}

func TestRouterHealthAndStatic(t *testing.T) {
	router, _ := newTestRouter(t)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/static/css/app.css", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "public, max-age=3600", rr.Header().Get("Cache-Control"))

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, "/dashboard", rr.Header().Get("Location"))
}

func TestRouterRangeRequiresCSRF(t *testing.T) {
	router, _ := newTestRouter(t)

	form := url.Values{"start": {"01/01/2023"}, "end": {"31/01/2023"}}
	req := httptest.NewRequest(http.MethodPost, "/dashboard/deals-chart/range", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestRouterDashboardSessionFlow(t *testing.T) {
	router, _ := newTestRouter(t)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("X-Frame-Options"))
	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)

	body := rr.Body.String()
	marker := `name="csrf_token" value="`
	idx := strings.Index(body, marker)
	require.True(t, idx >= 0, "csrf field missing")
	token := body[idx+len(marker):]
	token = token[:strings.Index(token, `"`)]

	form := url.Values{"start": {"01/01/2023"}, "end": {"31/01/2023"}, "csrf_token": {token}}
	req := httptest.NewRequest(http.MethodPost, "/dashboard/deals-chart/range", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(cookies[0])
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusSeeOther, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/dashboard/deals-chart.json", nil)
	req.AddCookie(cookies[0])
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"start":"01/01/2023"`)
	assert.Contains(t, rr.Body.String(), `"points":[]`)
}
