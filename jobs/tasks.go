package jobs

import (
	"encoding/json"
	"strings"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/odyssey-crm/internal/deals"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskDealsChartWarmup pre-populates the deals chart cache.
	TaskDealsChartWarmup = "deals:chart_warmup"
)

// DealsWarmupPayload selects what the warmup job loads. An empty StageSets warms the
// dashboard's WON/LOST set.
type DealsWarmupPayload struct {
	Refresh   bool       `json:"refresh"`
	StageSets [][]string `json:"stage_sets,omitempty"`
}

// NewDealsWarmupTask constructs the warmup task.
func NewDealsWarmupTask(payload DealsWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDealsChartWarmup, data), nil
}

// Filters expands the payload into list filters, dropping blank titles and empty sets.
func (p DealsWarmupPayload) Filters() []deals.ListFilter {
	if len(p.StageSets) == 0 {
		return []deals.ListFilter{deals.DefaultListFilter()}
	}
	filters := make([]deals.ListFilter, 0, len(p.StageSets))
	for _, set := range p.StageSets {
		titles := make([]string, 0, len(set))
		for _, title := range set {
			title = strings.ToUpper(strings.TrimSpace(title))
			if title != "" {
				titles = append(titles, title)
			}
		}
		if len(titles) == 0 {
			continue
		}
		filters = append(filters, deals.ListFilter{Resource: deals.ResourceDealStages, Titles: titles})
	}
	return filters
}
