package svg

import (
	"strings"
	"testing"
)

func TestAreaProducesSVG(t *testing.T) {
	html, err := Area(720, 325, []AreaSeries{
		{
			Name:   "Won",
			Stroke: "#52C41A",
			Fill:   "l(270) 0:#ffffff 0.5:#b7eb8f 1:#52c41a",
			Points: []AreaPoint{{Category: "Jan 2023", Value: 10000}, {Category: "Feb 2023", Value: 5000}, {Category: "Mar 2023", Value: 7000}},
		},
		{
			Name:   "Lost",
			Stroke: "#F5222D",
			Fill:   "l(270) 0:#ffffff 0.5:#f3b7c2 1:#ff4d4f",
			Points: []AreaPoint{{Category: "Jan 2023", Value: 2000, Tooltip: "Lost: $2k"}},
		},
	}, AreaOpts{Title: "Deals", Smooth: true, TickFormatter: func(v float64) string { return "v" + formatTick(v) }})
	if err != nil {
		t.Fatalf("area renderer error: %v", err)
	}
	output := string(html)
	if !strings.HasPrefix(output, "<svg") {
		t.Fatalf("expected svg output, got %s", output)
	}
	if strings.Count(output, "<linearGradient") != 2 {
		t.Fatalf("expected one gradient per series")
	}
	if !strings.Contains(output, "x1=\"0.50\" y1=\"1.00\" x2=\"0.50\" y2=\"0.00\"") {
		t.Fatalf("expected bottom-to-top gradient: %s", output)
	}
	if !strings.Contains(output, " C") {
		t.Fatalf("expected smoothed curve segments")
	}
	if !strings.Contains(output, "<title>Lost: $2k</title>") {
		t.Fatalf("expected tooltip title")
	}
	if !strings.Contains(output, ">v10.0k<") {
		t.Fatalf("expected custom tick formatter output: %s", output)
	}
	if strings.Count(output, ">Jan 2023<") != 1 {
		t.Fatalf("expected shared category label once")
	}
}

func TestAreaEmptySeries(t *testing.T) {
	html, err := Area(0, 0, nil, AreaOpts{EmptyText: "Nothing yet"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(html), "Nothing yet") {
		t.Fatalf("expected empty text")
	}
}

func TestAreaRejectsUnknownCategory(t *testing.T) {
	_, err := Area(400, 200, []AreaSeries{{Name: "Won", Points: []AreaPoint{{Category: "Jan", Value: 1}}}}, AreaOpts{Categories: []string{"Feb"}})
	if err == nil {
		t.Fatalf("expected error for category outside axis")
	}
}

func TestNiceTicks(t *testing.T) {
	ticks := niceTicks(2000, 10000, 4)
	if ticks[0] > 2000 || ticks[len(ticks)-1] < 10000 {
		t.Fatalf("ticks %v do not cover range", ticks)
	}
	ticks = niceTicks(0.1, 0.7, 4)
	for _, tick := range ticks {
		if s := formatTick(tick); strings.Contains(s, "000000") {
			t.Fatalf("tick %v not rounded", tick)
		}
	}
	ticks = niceTicks(5, 5, 4)
	if len(ticks) < 2 {
		t.Fatalf("expected expanded ticks, got %v", ticks)
	}
}

func TestParseLinearGradient(t *testing.T) {
	if _, ok := parseLinearGradient("#52C41A"); ok {
		t.Fatalf("plain colour should not parse as gradient")
	}
	g, ok := parseLinearGradient("l(0) 0:#fff 1:#000")
	if !ok || len(g.stops) != 2 {
		t.Fatalf("expected two stops")
	}
	if g.x1 != 0 || g.x2 != 1 {
		t.Fatalf("expected left to right gradient, got %+v", g)
	}
}
