package deals

import (
	"errors"
	"time"
)

// Stage titles recognised by the deals chart.
const (
	StageWon  = "WON"
	StageLost = "LOST"
)

// Series labels shown on the chart.
const (
	StateWon  = "Won"
	StateLost = "Lost"
)

// ResourceDealStages is the list resource queried for the chart.
const ResourceDealStages = "dealStages"

// ErrMalformedRow reports an aggregate row that cannot be placed on the time axis.
var ErrMalformedRow = errors.New("deals: malformed aggregate row")

// AggregateGroupBy identifies the month bucket of an aggregate row.
type AggregateGroupBy struct {
	CloseDateYear  int `json:"closeDateYear"`
	CloseDateMonth int `json:"closeDateMonth"`
}

// AggregateSum carries the summed deal value of a bucket.
type AggregateSum struct {
	Value float64 `json:"value"`
}

// DealAggregateRow is one pre-summed (stage, month) bucket. Both parts are optional
// on the wire.
type DealAggregateRow struct {
	GroupBy *AggregateGroupBy `json:"groupBy,omitempty"`
	Sum     *AggregateSum     `json:"sum,omitempty"`
}

// DealStage is a stage node returned by the list query.
type DealStage struct {
	ID             string             `json:"id"`
	Title          string             `json:"title"`
	DealsAggregate []DealAggregateRow `json:"dealsAggregate"`
}

// ChartPoint is the normalised unit consumed by the chart renderer.
type ChartPoint struct {
	TimeUnix int64   `json:"timeUnix"`
	TimeText string  `json:"timeText"`
	Value    float64 `json:"value"`
	State    string  `json:"state"`
}

// DateRange holds the optional start and end of the chart filter.
type DateRange struct {
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`
}

// Complete reports whether both endpoints are set.
func (r DateRange) Complete() bool {
	return r.Start != nil && r.End != nil
}

// Equal compares two ranges by their instants.
func (r DateRange) Equal(other DateRange) bool {
	return sameInstant(r.Start, other.Start) && sameInstant(r.End, other.End)
}

func sameInstant(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

// ListFilter scopes the list query to a set of stage titles.
type ListFilter struct {
	Resource string
	Titles   []string
}

// DefaultListFilter returns the WON/LOST filter used by the dashboard.
func DefaultListFilter() ListFilter {
	return ListFilter{Resource: ResourceDealStages, Titles: []string{StageWon, StageLost}}
}
