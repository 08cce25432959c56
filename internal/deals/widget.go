package deals

import "time"

// LoadState tracks where the widget is in its fetch lifecycle.
type LoadState int

const (
	// LoadStateLoading means no fetch result has arrived yet.
	LoadStateLoading LoadState = iota
	// LoadStateReady means the fetch succeeded and points can be derived.
	LoadStateReady
	// LoadStateFailed means the fetch failed; the widget renders nothing.
	LoadStateFailed
)

func (s LoadState) String() string {
	switch s {
	case LoadStateReady:
		return "ready"
	case LoadStateFailed:
		return "failed"
	default:
		return "loading"
	}
}

// Widget holds the fetch result and the selected date range of one deals chart and
// derives the chart points from them. Points are recomputed only after SetResult or a
// SetDateRange that changes the range.
type Widget struct {
	loc    *time.Location
	state  LoadState
	stages []DealStage
	err    error
	rng    DateRange

	dirty  bool
	points []ChartPoint
	derr   error
}

// NewWidget creates a widget in the loading state.
func NewWidget(loc *time.Location) *Widget {
	if loc == nil {
		loc = time.UTC
	}
	return &Widget{loc: loc, dirty: true}
}

// SetResult records the outcome of the list query.
func (w *Widget) SetResult(stages []DealStage, err error) {
	w.stages = stages
	w.err = err
	if err != nil {
		w.state = LoadStateFailed
	} else {
		w.state = LoadStateReady
	}
	w.dirty = true
}

// SetDateRange replaces the filter state.
func (w *Widget) SetDateRange(r DateRange) {
	if w.rng.Equal(r) {
		return
	}
	w.rng = r
	w.dirty = true
}

// DateRange returns the current filter state.
func (w *Widget) DateRange() DateRange {
	return w.rng
}

// State reports the load state. A transform failure is reported as failed.
func (w *Widget) State() LoadState {
	if w.state == LoadStateReady {
		if _, err := w.Points(); err != nil {
			return LoadStateFailed
		}
	}
	return w.state
}

// Err returns the fetch or transform error, if any.
func (w *Widget) Err() error {
	if w.err != nil {
		return w.err
	}
	if w.state == LoadStateReady {
		_, err := w.Points()
		return err
	}
	return nil
}

// Points returns the filtered, time-ascending chart points.
func (w *Widget) Points() ([]ChartPoint, error) {
	if w.state != LoadStateReady {
		return nil, w.err
	}
	if !w.dirty {
		return w.points, w.derr
	}
	points, err := BuildChartPoints(w.stages, w.loc)
	if err == nil {
		points = FilterByRange(points, w.rng)
	}
	w.points, w.derr, w.dirty = points, err, false
	return w.points, w.derr
}
