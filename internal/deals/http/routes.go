package dealshttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/odyssey-erp/odyssey-crm/internal/shared"
)

// MountRoutes registers the dashboard and deals chart endpoints onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(10, time.Minute,
		httprate.WithKeyFuncs(rateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}),
	)

	r.Get(dashboardPath, h.handleDashboard)
	r.Get(cardPath, h.handleCard)
	r.Get(chartPath, h.handleChart)
	r.Get(jsonPath, h.handleJSON)
	r.Post(rangePath, h.handleRange)
	r.Group(func(gr chi.Router) {
		gr.Use(limiter)
		gr.Get(csvPath, h.handleCSV)
		gr.Get(pdfPath, h.handlePDF)
	})
}

func rateLimitKey(r *http.Request) (string, error) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil && !sess.IsNew() {
		return "session:" + sess.ID, nil
	}
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}
