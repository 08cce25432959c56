package dealshttp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/odyssey-crm/internal/deals"
	"github.com/odyssey-erp/odyssey-crm/internal/deals/export"
	"github.com/odyssey-erp/odyssey-crm/internal/deals/ui"
	"github.com/odyssey-erp/odyssey-crm/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-crm/internal/shared"
	"github.com/odyssey-erp/odyssey-crm/internal/view"
)

const (
	defaultRequestTimeout = 5 * time.Second

	sessionRangeStart = "deals.range.start"
	sessionRangeEnd   = "deals.range.end"

	cardTitle = "Deals"

	dashboardPath = "/dashboard"
	cardPath      = "/dashboard/deals-chart"
	chartPath     = "/dashboard/deals-chart/chart"
	jsonPath      = "/dashboard/deals-chart.json"
	rangePath     = "/dashboard/deals-chart/range"
	csvPath       = "/dashboard/deals-chart/export.csv"
	pdfPath       = "/dashboard/deals-chart/export.pdf"
)

// fetchErrorMessage is logged whenever the widget fails and renders nothing.
const fetchErrorMessage = "Error fetching deals chart data"

// DealsService loads the stage aggregates behind the chart.
type DealsService interface {
	Load(ctx context.Context, filter deals.ListFilter) ([]deals.DealStage, error)
}

// PDFService renders the deals card to PDF bytes.
type PDFService interface {
	RenderCard(ctx context.Context, payload export.CardPayload) ([]byte, error)
}

// WidgetRecorder counts widget loads by resulting state.
type WidgetRecorder interface {
	RecordWidget(state string)
}

// Handler serves the deals chart widget and its exports.
type Handler struct {
	logger    *slog.Logger
	service   DealsService
	templates *view.Engine
	renderer  ui.AreaRenderer
	navigator ui.Navigator
	pdf       PDFService
	csrf      *shared.CSRFManager
	validate  *validator.Validate
	loc       *time.Location
	timeout   time.Duration
	metrics   WidgetRecorder
	csvPool   sync.Pool
}

// NewHandler constructs the deals chart HTTP handler.
func NewHandler(logger *slog.Logger, service DealsService, templates *view.Engine, renderer ui.AreaRenderer, navigator ui.Navigator, pdf PDFService, csrf *shared.CSRFManager, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	h := &Handler{
		logger:    logger,
		service:   service,
		templates: templates,
		renderer:  renderer,
		navigator: navigator,
		pdf:       pdf,
		csrf:      csrf,
		validate:  validator.New(),
		loc:       loc,
		timeout:   defaultRequestTimeout,
	}
	h.csvPool.New = func() interface{} { return new(bytes.Buffer) }
	return h
}

// WithTimeout bounds the data fetch of each request.
func (h *Handler) WithTimeout(d time.Duration) {
	if d > 0 {
		h.timeout = d
	}
}

// WithMetrics records the outcome of every widget load.
func (h *Handler) WithMetrics(m WidgetRecorder) {
	h.metrics = m
}

// rangeForm carries the DD/MM/YYYY inputs of the range picker.
type rangeForm struct {
	Start string `json:"start" validate:"omitempty,datetime=02/01/2006"`
	End   string `json:"end" validate:"omitempty,datetime=02/01/2006"`
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	_, form, err := h.resolveRange(r)
	if err != nil {
		h.handleFilterError(w, err)
		return
	}
	sess := shared.SessionFromContext(r.Context())
	vm := h.cardViewModel(r, form, deals.LoadStateLoading)

	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	data := view.TemplateData{
		Title:       "Dashboard",
		CSRFToken:   vm.Range.CSRFToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        vm,
	}
	if err := h.templates.Render(w, "pages/dashboard.html", data); err != nil {
		h.handleServerError(w, "render dashboard", err)
	}
}

func (h *Handler) handleCard(w http.ResponseWriter, r *http.Request) {
	rng, form, err := h.resolveRange(r)
	if err != nil {
		h.handleFilterError(w, err)
		return
	}
	widget := h.loadWidget(r.Context(), rng)
	if widget.State() != deals.LoadStateReady {
		w.WriteHeader(http.StatusOK)
		return
	}
	chart, err := h.renderChart(widget)
	if err != nil {
		h.logError(fetchErrorMessage, err)
		w.WriteHeader(http.StatusOK)
		return
	}
	vm := h.cardViewModel(r, form, deals.LoadStateReady)
	vm.Chart = chart
	points, _ := widget.Points()
	vm.Empty = len(points) == 0

	data := view.TemplateData{CSRFToken: vm.Range.CSRFToken, CurrentPath: r.URL.Path, Data: vm}
	if err := h.templates.Render(w, "partials/deals_chart.html", data); err != nil {
		h.handleServerError(w, "render deals card", err)
	}
}

func (h *Handler) handleChart(w http.ResponseWriter, r *http.Request) {
	rng, _, err := h.resolveRange(r)
	if err != nil {
		h.handleFilterError(w, err)
		return
	}
	widget := h.loadWidget(r.Context(), rng)
	if widget.State() != deals.LoadStateReady {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	chart, err := h.renderChart(widget)
	if err != nil {
		h.logError(fetchErrorMessage, err)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if _, err := w.Write([]byte(chart)); err != nil {
		h.logError("stream chart", err)
	}
}

type chartResponse struct {
	State  string             `json:"state"`
	Range  rangeForm          `json:"range"`
	Points []deals.ChartPoint `json:"points"`
	Config ui.ChartConfig     `json:"config"`
}

func (h *Handler) handleJSON(w http.ResponseWriter, r *http.Request) {
	rng, form, err := h.resolveRange(r)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}
	widget := h.loadWidget(r.Context(), rng)
	points, err := widget.Points()
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrUnavailable, err))
		return
	}
	if points == nil {
		points = []deals.ChartPoint{}
	}
	httpx.JSON(w, http.StatusOK, chartResponse{
		State:  widget.State().String(),
		Range:  form,
		Points: points,
		Config: ui.NewChartConfig(points),
	})
}

func (h *Handler) handleRange(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.handleFilterError(w, validationError{field: "form"})
		return
	}
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		h.handleServerError(w, "update range", errors.New("session missing"))
		return
	}
	if r.PostForm.Get("clear") != "" {
		sess.Delete(sessionRangeStart)
		sess.Delete(sessionRangeEnd)
		sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Date range cleared"})
		http.Redirect(w, r, dashboardPath, http.StatusSeeOther)
		return
	}

	form := rangeForm{
		Start: strings.TrimSpace(r.PostForm.Get("start")),
		End:   strings.TrimSpace(r.PostForm.Get("end")),
	}
	if _, err := h.parseRange(form); err != nil {
		h.handleFilterError(w, err)
		return
	}
	setOrDelete(sess, sessionRangeStart, form.Start)
	setOrDelete(sess, sessionRangeEnd, form.End)
	sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Date range updated"})
	http.Redirect(w, r, dashboardPath, http.StatusSeeOther)
}

func (h *Handler) handleCSV(w http.ResponseWriter, r *http.Request) {
	rng, _, err := h.resolveRange(r)
	if err != nil {
		h.handleFilterError(w, err)
		return
	}
	widget := h.loadWidget(r.Context(), rng)
	points, err := widget.Points()
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		return
	}

	buf := h.csvPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer func() {
		buf.Reset()
		h.csvPool.Put(buf)
	}()
	if err := export.WriteChartPointsCSV(buf, points); err != nil {
		h.handleServerError(w, "write deals csv", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=\"deals-chart.csv\"")
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logError("stream csv", err)
	}
}

func (h *Handler) handlePDF(w http.ResponseWriter, r *http.Request) {
	if h.pdf == nil {
		h.handleServerError(w, "pdf exporter", errors.New("pdf exporter not configured"))
		return
	}
	rng, form, err := h.resolveRange(r)
	if err != nil {
		h.handleFilterError(w, err)
		return
	}
	widget := h.loadWidget(r.Context(), rng)
	points, err := widget.Points()
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		return
	}
	chart, err := h.renderChart(widget)
	if err != nil {
		h.handleServerError(w, "render chart", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 4*h.timeout)
	defer cancel()
	pdfBytes, err := h.pdf.RenderCard(ctx, export.CardPayload{
		Title:  cardTitle,
		Range:  describeRange(form),
		Chart:  chart,
		Points: points,
	})
	if err != nil {
		h.handleServerError(w, "render pdf", err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=\"deals-chart.pdf\"")
	if _, err := w.Write(pdfBytes); err != nil {
		h.logError("stream pdf", err)
	}
}

// loadWidget fetches the aggregates into a fresh widget scoped to rng. Failures are
// logged here; callers only look at the widget state.
func (h *Handler) loadWidget(ctx context.Context, rng deals.DateRange) *deals.Widget {
	widget := deals.NewWidget(h.loc)
	widget.SetDateRange(rng)

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	stages, err := h.service.Load(ctx, deals.DefaultListFilter())
	widget.SetResult(stages, err)
	if err := widget.Err(); err != nil {
		h.logError(fetchErrorMessage, err)
	}
	if h.metrics != nil {
		h.metrics.RecordWidget(widget.State().String())
	}
	return widget
}

func (h *Handler) renderChart(widget *deals.Widget) (template.HTML, error) {
	if h.renderer == nil {
		return "", errors.New("area renderer missing")
	}
	points, err := widget.Points()
	if err != nil {
		return "", err
	}
	return ui.Render(h.renderer, ui.NewChartConfig(points))
}

func (h *Handler) cardViewModel(r *http.Request, form rangeForm, state deals.LoadState) ui.CardViewModel {
	token := ""
	if h.csrf != nil {
		if sess := shared.SessionFromContext(r.Context()); sess != nil {
			if t, err := h.csrf.EnsureToken(r.Context(), sess); err == nil {
				token = t
			}
		}
	}
	pipeline := ""
	if h.navigator != nil {
		route, err := h.navigator.List(ui.PipelineResource)
		if err != nil {
			h.logError("resolve pipeline route", err)
		} else {
			pipeline = route
		}
	}
	query := rangeQuery(form)
	return ui.CardViewModel{
		State:       state,
		Title:       cardTitle,
		ChartURL:    chartPath + query,
		PipelineURL: pipeline,
		ExportCSV:   csvPath + query,
		ExportPDF:   pdfPath + query,
		Range: ui.DateRangeInput{
			Start:     form.Start,
			End:       form.End,
			Format:    deals.DateRangeDisplayFormat,
			Action:    rangePath,
			CSRFToken: token,
		},
	}
}

// resolveRange reads the range from the start/end query parameters, falling back to
// the values stored in the session.
func (h *Handler) resolveRange(r *http.Request) (deals.DateRange, rangeForm, error) {
	q := r.URL.Query()
	var form rangeForm
	if q.Has("start") || q.Has("end") {
		form = rangeForm{Start: strings.TrimSpace(q.Get("start")), End: strings.TrimSpace(q.Get("end"))}
	} else if sess := shared.SessionFromContext(r.Context()); sess != nil {
		form = rangeForm{Start: sess.Get(sessionRangeStart), End: sess.Get(sessionRangeEnd)}
	}
	rng, err := h.parseRange(form)
	if err != nil {
		return deals.DateRange{}, rangeForm{}, err
	}
	return rng, form, nil
}

func (h *Handler) parseRange(form rangeForm) (deals.DateRange, error) {
	if err := h.validate.Struct(form); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return deals.DateRange{}, validationError{field: strings.ToLower(fieldErrs[0].Field())}
		}
		return deals.DateRange{}, err
	}
	rng, err := deals.ParseDateRange(form.Start, form.End, h.loc)
	if err != nil {
		return deals.DateRange{}, validationError{field: "range"}
	}
	if rng.Complete() && rng.End.Before(*rng.Start) {
		return deals.DateRange{}, validationError{field: "end"}
	}
	return rng, nil
}

func rangeQuery(form rangeForm) string {
	if form.Start == "" && form.End == "" {
		return ""
	}
	values := url.Values{}
	values.Set("start", form.Start)
	values.Set("end", form.End)
	return "?" + values.Encode()
}

func describeRange(form rangeForm) string {
	if form.Start == "" || form.End == "" {
		return "All time"
	}
	return form.Start + " - " + form.End
}

func setOrDelete(sess *shared.Session, key, value string) {
	if value == "" {
		sess.Delete(key)
		return
	}
	sess.Set(key, value)
}

func (h *Handler) handleFilterError(w http.ResponseWriter, err error) {
	var vErr validationError
	if errors.As(err, &vErr) {
		http.Error(w, "Invalid date range", http.StatusBadRequest)
		return
	}
	h.handleServerError(w, "parse range", err)
}

func (h *Handler) handleServerError(w http.ResponseWriter, context string, err error) {
	h.logError(context, err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func (h *Handler) logError(context string, err error) {
	if h.logger != nil {
		h.logger.Error(context, slog.Any("error", err))
	}
}

type validationError struct {
	field string
}

func (v validationError) Error() string {
	return fmt.Sprintf("invalid %s", v.field)
}
