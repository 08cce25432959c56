package deals

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraphQLSourceListDealStages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))

		var req struct {
			OperationName string         `json:"operationName"`
			Query         string         `json:"query"`
			Variables     map[string]any `json:"variables"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, DashboardDealsChartOperation, req.OperationName)
		assert.Equal(t, DashboardDealsChartQuery, req.Query)
		filter := req.Variables["filter"].(map[string]any)
		title := filter["title"].(map[string]any)
		assert.Equal(t, []any{StageWon, StageLost}, title["in"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"dealStages":{"totalCount":2,"nodes":[
			{"id":"1","title":"WON","dealsAggregate":[{"groupBy":{"closeDateMonth":1,"closeDateYear":2023},"sum":{"value":10000}}]},
			{"id":"2","title":"LOST","dealsAggregate":[{"groupBy":{"closeDateMonth":1,"closeDateYear":2023},"sum":null}]}
		]}}}`))
	}))
	defer srv.Close()

	source := NewGraphQLSource(srv.URL, "secret")
	stages, err := source.ListDealStages(context.Background(), DefaultListFilter(), DashboardDealsChartQuery)
	require.NoError(t, err)
	require.Len(t, stages, 2)
	assert.Equal(t, StageWon, stages[0].Title)
	require.NotNil(t, stages[0].DealsAggregate[0].Sum)
	assert.Equal(t, 10000.0, stages[0].DealsAggregate[0].Sum.Value)
	assert.Nil(t, stages[1].DealsAggregate[0].Sum)
}

func TestGraphQLSourceErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":null,"errors":[{"message":"Forbidden resource"}]}`))
	}))
	defer srv.Close()

	_, err := NewGraphQLSource(srv.URL, "").ListDealStages(context.Background(), DefaultListFilter(), DashboardDealsChartQuery)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Forbidden resource")
}

func TestGraphQLSourceStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewGraphQLSource(srv.URL, "").ListDealStages(context.Background(), DefaultListFilter(), DashboardDealsChartQuery)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")

	_, err = NewGraphQLSource("", "").ListDealStages(context.Background(), DefaultListFilter(), DashboardDealsChartQuery)
	assert.Error(t, err)
}

func TestGraphQLSourceMissingResource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"pipelineStages":{"nodes":[]}}}`))
	}))
	defer srv.Close()

	_, err := NewGraphQLSource(srv.URL, "").ListDealStages(context.Background(), DefaultListFilter(), DashboardDealsChartQuery)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing dealStages")
}
