package ui

import (
	"html/template"

	"github.com/odyssey-erp/odyssey-crm/internal/deals"
	"github.com/odyssey-erp/odyssey-crm/internal/deals/svg"
)

// Chart dimensions and styling.
const (
	ChartHeight    = 325
	ChartWidth     = svg.DefaultWidth
	YAxisTickCount = 4
	LegendOffsetY  = -6

	ColorWon  = "#52C41A"
	ColorLost = "#F5222D"
	FillWon   = "l(270) 0:#ffffff 0.5:#b7eb8f 1:#52c41a"
	FillLost  = "l(270) 0:#ffffff 0.5:#f3b7c2 1:#ff4d4f"
)

// PipelineResource is the listing view the card action navigates to.
const PipelineResource = "deals"

// Tooltip is the hover content of one chart point.
type Tooltip struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ChartConfig describes the deals area chart independent of the renderer.
type ChartConfig struct {
	Data           []deals.ChartPoint `json:"data"`
	XField         string             `json:"xField"`
	YField         string             `json:"yField"`
	SeriesField    string             `json:"seriesField"`
	IsStack        bool               `json:"isStack"`
	Animation      bool               `json:"animation"`
	Smooth         bool               `json:"smooth"`
	StartOnZero    bool               `json:"startOnZero"`
	LegendOffsetY  int                `json:"legendOffsetY"`
	YAxisTickCount int                `json:"yAxisTickCount"`
	Height         int                `json:"height"`
}

// NewChartConfig returns the deals chart configuration over points.
func NewChartConfig(points []deals.ChartPoint) ChartConfig {
	return ChartConfig{
		Data:           points,
		XField:         "timeText",
		YField:         "value",
		SeriesField:    "state",
		IsStack:        false,
		Animation:      true,
		Smooth:         true,
		StartOnZero:    false,
		LegendOffsetY:  LegendOffsetY,
		YAxisTickCount: YAxisTickCount,
		Height:         ChartHeight,
	}
}

// YAxisLabel formats a y-axis tick.
func (c ChartConfig) YAxisLabel(v float64) string {
	return deals.FormatThousands(v)
}

// Tooltip builds the hover content for a point.
func (c ChartConfig) Tooltip(p deals.ChartPoint) Tooltip {
	return Tooltip{Name: p.State, Value: deals.FormatThousands(p.Value)}
}

// AreaStyle returns the fill of a series.
func (c ChartConfig) AreaStyle(state string) string {
	switch state {
	case deals.StateWon:
		return FillWon
	case deals.StateLost:
		return FillLost
	}
	return ""
}

// Color returns the line colour of a series.
func (c ChartConfig) Color(state string) string {
	switch state {
	case deals.StateWon:
		return ColorWon
	case deals.StateLost:
		return ColorLost
	}
	return ""
}

// Series groups the data by state in first-appearance order and returns the shared
// category axis in time order.
func (c ChartConfig) Series() ([]svg.AreaSeries, []string) {
	var (
		order      []string
		byState    = make(map[string]*svg.AreaSeries)
		categories []string
		seen       = make(map[string]struct{})
	)
	for _, p := range c.Data {
		if _, ok := seen[p.TimeText]; !ok {
			seen[p.TimeText] = struct{}{}
			categories = append(categories, p.TimeText)
		}
		s, ok := byState[p.State]
		if !ok {
			s = &svg.AreaSeries{Name: p.State, Stroke: c.Color(p.State), Fill: c.AreaStyle(p.State)}
			byState[p.State] = s
			order = append(order, p.State)
		}
		tip := c.Tooltip(p)
		s.Points = append(s.Points, svg.AreaPoint{
			Category: p.TimeText,
			Value:    p.Value,
			Tooltip:  tip.Name + ": " + tip.Value,
		})
	}
	series := make([]svg.AreaSeries, 0, len(order))
	for _, state := range order {
		series = append(series, *byState[state])
	}
	return series, categories
}

// Opts converts the configuration into renderer options.
func (c ChartConfig) Opts() svg.AreaOpts {
	_, categories := c.Series()
	return svg.AreaOpts{
		Title:         "Deals",
		Description:   "Won and lost deal value by month",
		Categories:    categories,
		TickCount:     c.YAxisTickCount,
		Smooth:        c.Smooth,
		StartOnZero:   c.StartOnZero,
		LegendOffsetY: float64(c.LegendOffsetY),
		TickFormatter: c.YAxisLabel,
	}
}

// AreaRenderer abstracts SVG area chart rendering for the widget.
type AreaRenderer interface {
	Area(width, height int, series []svg.AreaSeries, opts svg.AreaOpts) (template.HTML, error)
}

// RendererFunc adapts a function to AreaRenderer.
type RendererFunc func(width, height int, series []svg.AreaSeries, opts svg.AreaOpts) (template.HTML, error)

// Area implements AreaRenderer.
func (f RendererFunc) Area(width, height int, series []svg.AreaSeries, opts svg.AreaOpts) (template.HTML, error) {
	return f(width, height, series, opts)
}

// Render draws the chart with renderer at the configured height.
func Render(renderer AreaRenderer, cfg ChartConfig) (template.HTML, error) {
	series, _ := cfg.Series()
	return renderer.Area(ChartWidth, cfg.Height, series, cfg.Opts())
}

// Navigator resolves a resource name to the route of its listing view.
type Navigator interface {
	List(resource string) (string, error)
}

// DateRangeInput is the view model of the date-range form.
type DateRangeInput struct {
	Start     string
	End       string
	Format    string
	Action    string
	CSRFToken string
}

// CardViewModel combines everything the deals card template renders.
type CardViewModel struct {
	State       deals.LoadState
	Title       string
	Chart       template.HTML
	ChartURL    string
	PipelineURL string
	ExportCSV   string
	ExportPDF   string
	Range       DateRangeInput
	Empty       bool
}

// Loading reports whether the chart slot is still to be filled.
func (vm CardViewModel) Loading() bool {
	return vm.State == deals.LoadStateLoading
}
