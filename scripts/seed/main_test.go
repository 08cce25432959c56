package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-crm/internal/deals"
)

func TestGenerateDealsIsDeterministic(t *testing.T) {
	now := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	first := generateDeals(now, 3, 4, 7)
	second := generateDeals(now, 3, 4, 7)
	require.Len(t, first, 12)
	assert.Equal(t, first, second)

	earliest := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	latest := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	for _, row := range first {
		assert.Contains(t, []string{deals.StageWon, deals.StageLost}, row.Stage)
		assert.False(t, row.CloseDate.Before(earliest), row.CloseDate)
		assert.False(t, row.CloseDate.After(latest), row.CloseDate)
		assert.Greater(t, row.Value, 0.0)
	}
}
