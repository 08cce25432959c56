package svg

import (
	"fmt"
	"html/template"
	"math"
	"strconv"
	"strings"
)

const maxAxisLabels = 12

type coord struct {
	x, y float64
}

// Area renders an SVG area chart with one filled line per series. Series are drawn
// independently (not stacked) against a shared categorical x-axis.
func Area(width, height int, series []AreaSeries, opts AreaOpts) (template.HTML, error) {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	padding := opts.Padding
	if padding <= 0 {
		padding = DefaultPadding
	}
	tickCount := opts.TickCount
	if tickCount <= 0 {
		tickCount = DefaultTicks
	}
	format := opts.TickFormatter
	if format == nil {
		format = formatTick
	}
	axisColor := fallback(opts.AxisColor, "#8c8c8c")
	gridColor := fallback(opts.GridColor, "#e8e8e8")

	chartWidth := float64(width) - 2*padding
	chartHeight := float64(height) - 2*padding
	if chartWidth <= 0 || chartHeight <= 0 {
		return "", fmt.Errorf("svg: viewport too small")
	}

	categories := opts.Categories
	if len(categories) == 0 {
		categories = collectCategories(series)
	}
	index := make(map[string]int, len(categories))
	for i, category := range categories {
		if _, ok := index[category]; !ok {
			index[category] = i
		}
	}
	values := make([]float64, 0)
	for _, s := range series {
		for _, p := range s.Points {
			if _, ok := index[p.Category]; !ok {
				return "", fmt.Errorf("svg: category %q missing from axis", p.Category)
			}
			values = append(values, p.Value)
		}
	}

	titleID := makeID(opts.Title, "area-title")
	descID := makeID(opts.Title, "area-desc")

	var b strings.Builder
	b.WriteString(fmt.Sprintf("<svg xmlns=\"http://www.w3.org/2000/svg\" viewBox=\"0 0 %d %d\" role=\"img\" aria-labelledby=\"%s %s\">", width, height, titleID, descID))
	b.WriteString(fmt.Sprintf("<title id=\"%s\">%s</title>", titleID, template.HTMLEscapeString(fallback(opts.Title, "Area chart"))))
	b.WriteString(fmt.Sprintf("<desc id=\"%s\">%s</desc>", descID, template.HTMLEscapeString(fallback(opts.Description, "Trend data"))))

	base := padding + chartHeight
	if len(values) == 0 {
		writeAxes(&b, padding, chartWidth, chartHeight, axisColor)
		b.WriteString(fmt.Sprintf("<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"12\" text-anchor=\"middle\">%s</text>", padding+chartWidth/2, padding+chartHeight/2, axisColor, template.HTMLEscapeString(fallback(opts.EmptyText, "No data"))))
		b.WriteString("</svg>")
		return template.HTML(b.String()), nil
	}

	minVal, maxVal := bounds(values)
	if opts.StartOnZero {
		if minVal > 0 {
			minVal = 0
		}
		if maxVal < 0 {
			maxVal = 0
		}
	}
	ticks := niceTicks(minVal, maxVal, tickCount)
	lo, hi := ticks[0], ticks[len(ticks)-1]
	scale := chartHeight / (hi - lo)

	xFor := func(i int) float64 {
		if len(categories) == 1 {
			return padding + chartWidth/2
		}
		return padding + float64(i)*chartWidth/float64(len(categories)-1)
	}
	yFor := func(v float64) float64 {
		return padding + chartHeight - (v-lo)*scale
	}

	fills := make([]string, len(series))
	b.WriteString("<defs>")
	for i, s := range series {
		fills[i] = fallback(s.Fill, fallback(s.Stroke, "#1890ff"))
		g, ok := parseLinearGradient(s.Fill)
		if !ok {
			continue
		}
		id := makeID(opts.Title+"-"+s.Name, fmt.Sprintf("fill-%d", i))
		b.WriteString(fmt.Sprintf("<linearGradient id=\"%s\" x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\">", id, g.x1, g.y1, g.x2, g.y2))
		for _, stop := range g.stops {
			b.WriteString(fmt.Sprintf("<stop offset=\"%.2f\" stop-color=\"%s\"></stop>", stop.offset, template.HTMLEscapeString(stop.color)))
		}
		b.WriteString("</linearGradient>")
		fills[i] = "url(#" + id + ")"
	}
	b.WriteString("</defs>")

	for _, tick := range ticks {
		y := yFor(tick)
		b.WriteString(fmt.Sprintf("<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke=\"%s\" stroke-width=\"0.5\" stroke-dasharray=\"2,4\" aria-hidden=\"true\"></line>", padding, y, padding+chartWidth, y, gridColor))
		b.WriteString(fmt.Sprintf("<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" text-anchor=\"end\">%s</text>", padding-6, y+4, axisColor, template.HTMLEscapeString(format(tick))))
	}
	writeAxes(&b, padding, chartWidth, chartHeight, axisColor)

	for i, s := range series {
		if len(s.Points) == 0 {
			continue
		}
		stroke := fallback(s.Stroke, "#1890ff")
		pts := make([]coord, 0, len(s.Points))
		for _, p := range s.Points {
			pts = append(pts, coord{x: xFor(index[p.Category]), y: yFor(p.Value)})
		}
		line := linePath(pts, opts.Smooth)
		area := fmt.Sprintf("%s L%.2f %.2f L%.2f %.2f Z", line, pts[len(pts)-1].x, base, pts[0].x, base)
		b.WriteString(fmt.Sprintf("<g class=\"series\" data-series=\"%s\">", template.HTMLEscapeString(s.Name)))
		b.WriteString(fmt.Sprintf("<path d=\"%s\" fill=\"%s\" fill-opacity=\"0.85\" stroke=\"none\" aria-hidden=\"true\"></path>", area, template.HTMLEscapeString(fills[i])))
		b.WriteString(fmt.Sprintf("<path d=\"%s\" fill=\"none\" stroke=\"%s\" stroke-width=\"2\" stroke-linejoin=\"round\" stroke-linecap=\"round\"></path>", line, template.HTMLEscapeString(stroke)))
		for j, p := range s.Points {
			tooltip := p.Tooltip
			if tooltip == "" {
				tooltip = s.Name + ": " + format(p.Value)
			}
			b.WriteString(fmt.Sprintf("<circle cx=\"%.2f\" cy=\"%.2f\" r=\"3\" fill=\"%s\"><title>%s</title></circle>", pts[j].x, pts[j].y, template.HTMLEscapeString(stroke), template.HTMLEscapeString(tooltip)))
		}
		b.WriteString("</g>")
	}

	stride := 1
	if len(categories) > maxAxisLabels {
		stride = int(math.Ceil(float64(len(categories)) / maxAxisLabels))
	}
	for i, category := range categories {
		if i%stride != 0 {
			continue
		}
		b.WriteString(fmt.Sprintf("<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" text-anchor=\"middle\">%s</text>", xFor(i), base+14, axisColor, template.HTMLEscapeString(category)))
	}

	legendY := padding/2 + 4 + opts.LegendOffsetY
	if legendY < 10 {
		legendY = 10
	}
	legendX := padding
	for _, s := range series {
		if s.Name == "" || len(s.Points) == 0 {
			continue
		}
		stroke := fallback(s.Stroke, "#1890ff")
		b.WriteString(fmt.Sprintf("<circle cx=\"%.2f\" cy=\"%.2f\" r=\"4\" fill=\"%s\"></circle>", legendX+4, legendY-4, template.HTMLEscapeString(stroke)))
		b.WriteString(fmt.Sprintf("<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"11\" text-anchor=\"start\">%s</text>", legendX+12, legendY, axisColor, template.HTMLEscapeString(s.Name)))
		legendX += 70
	}

	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}

func writeAxes(b *strings.Builder, padding, chartWidth, chartHeight float64, axisColor string) {
	b.WriteString(fmt.Sprintf("<g stroke=\"%s\" aria-label=\"Axes\">", axisColor))
	b.WriteString(fmt.Sprintf("<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke-width=\"1\"></line>", padding, padding, padding, padding+chartHeight))
	b.WriteString(fmt.Sprintf("<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke-width=\"1\"></line>", padding, padding+chartHeight, padding+chartWidth, padding+chartHeight))
	b.WriteString("</g>")
}

func collectCategories(series []AreaSeries) []string {
	seen := make(map[string]struct{})
	var categories []string
	for _, s := range series {
		for _, p := range s.Points {
			if _, ok := seen[p.Category]; ok {
				continue
			}
			seen[p.Category] = struct{}{}
			categories = append(categories, p.Category)
		}
	}
	return categories
}

// linePath builds the stroke path; smooth paths use Catmull-Rom segments converted
// to cubic Béziers.
func linePath(pts []coord, smooth bool) string {
	var path strings.Builder
	path.WriteString(fmt.Sprintf("M%.2f %.2f", pts[0].x, pts[0].y))
	if !smooth || len(pts) < 3 {
		for _, p := range pts[1:] {
			path.WriteString(fmt.Sprintf(" L%.2f %.2f", p.x, p.y))
		}
		return path.String()
	}
	for i := 0; i < len(pts)-1; i++ {
		p0 := pts[max(i-1, 0)]
		p1 := pts[i]
		p2 := pts[i+1]
		p3 := pts[min(i+2, len(pts)-1)]
		c1 := coord{x: p1.x + (p2.x-p0.x)/6, y: p1.y + (p2.y-p0.y)/6}
		c2 := coord{x: p2.x - (p3.x-p1.x)/6, y: p2.y - (p3.y-p1.y)/6}
		path.WriteString(fmt.Sprintf(" C%.2f %.2f %.2f %.2f %.2f %.2f", c1.x, c1.y, c2.x, c2.y, p2.x, p2.y))
	}
	return path.String()
}

type gradientStop struct {
	offset float64
	color  string
}

type gradient struct {
	x1, y1, x2, y2 float64
	stops          []gradientStop
}

// parseLinearGradient reads "l(angle) offset:colour ..." where the angle is measured
// clockwise from the positive x-axis, so 270 runs bottom to top.
func parseLinearGradient(spec string) (gradient, bool) {
	spec = strings.TrimSpace(spec)
	if !strings.HasPrefix(spec, "l(") {
		return gradient{}, false
	}
	end := strings.Index(spec, ")")
	if end < 0 {
		return gradient{}, false
	}
	angle, err := strconv.ParseFloat(strings.TrimSpace(spec[2:end]), 64)
	if err != nil {
		return gradient{}, false
	}
	rad := angle * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)
	g := gradient{x1: 0.5 - cos/2, y1: 0.5 - sin/2, x2: 0.5 + cos/2, y2: 0.5 + sin/2}
	for _, field := range strings.Fields(spec[end+1:]) {
		offset, color, ok := strings.Cut(field, ":")
		if !ok {
			return gradient{}, false
		}
		o, err := strconv.ParseFloat(offset, 64)
		if err != nil {
			return gradient{}, false
		}
		g.stops = append(g.stops, gradientStop{offset: o, color: color})
	}
	if len(g.stops) == 0 {
		return gradient{}, false
	}
	return g, true
}

// niceTicks spreads roughly count ticks over [minVal, maxVal] on 1/2/5 steps.
func niceTicks(minVal, maxVal float64, count int) []float64 {
	if count < 2 {
		count = 2
	}
	if almostEqual(minVal, maxVal) {
		if almostEqual(minVal, 0) {
			maxVal = 1
		} else {
			delta := math.Abs(minVal) / 2
			minVal -= delta
			maxVal += delta
		}
	}
	step := niceStep((maxVal - minVal) / float64(count-1))
	lo := math.Floor(minVal/step) * step
	hi := math.Ceil(maxVal/step) * step
	n := int(math.Round((hi - lo) / step))
	if n < 1 {
		n = 1
	}
	decimals := math.Max(0, -math.Floor(math.Log10(step)))
	pow := math.Pow(10, decimals)
	ticks := make([]float64, 0, n+1)
	for i := 0; i <= n; i++ {
		ticks = append(ticks, math.Round((lo+float64(i)*step)*pow)/pow)
	}
	return ticks
}

func niceStep(raw float64) float64 {
	exp := math.Floor(math.Log10(raw))
	frac := raw / math.Pow(10, exp)
	var nice float64
	switch {
	case frac <= 1:
		nice = 1
	case frac <= 2:
		nice = 2
	case frac <= 5:
		nice = 5
	default:
		nice = 10
	}
	return nice * math.Pow(10, exp)
}

func fallback(value, defaultValue string) string {
	if strings.TrimSpace(value) == "" {
		return defaultValue
	}
	return value
}

func bounds(series []float64) (float64, float64) {
	minVal := series[0]
	maxVal := series[0]
	for _, v := range series[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	return minVal, maxVal
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func makeID(base, suffix string) string {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		if r == '-' || r == '_' {
			return r
		}
		return '-'
	}, strings.ToLower(strings.TrimSpace(base)))
	cleaned = strings.Trim(cleaned, "-")
	if cleaned == "" {
		cleaned = "chart"
	}
	return fmt.Sprintf("%s-%s", cleaned, suffix)
}

func formatTick(v float64) string {
	abs := math.Abs(v)
	switch {
	case abs >= 1_000_000:
		return fmt.Sprintf("%.1fM", v/1_000_000)
	case abs >= 1_000:
		return fmt.Sprintf("%.1fk", v/1_000)
	default:
		if almostEqual(v, math.Round(v)) {
			return fmt.Sprintf("%.0f", v)
		}
		return fmt.Sprintf("%.2f", v)
	}
}
