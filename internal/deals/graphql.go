package deals

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	graphql "github.com/hasura/go-graphql-client"
)

// GraphQLSource runs the list query against a nestjs-query style GraphQL API.
type GraphQLSource struct {
	endpoint string
	client   *graphql.Client
}

// NewGraphQLSource constructs a GraphQL source with a bounded HTTP client. A non-empty
// token is sent as a bearer credential.
func NewGraphQLSource(endpoint, token string) *GraphQLSource {
	endpoint = strings.TrimSpace(endpoint)
	client := graphql.NewClient(endpoint, &http.Client{Timeout: 15 * time.Second}).
		WithRequestModifier(func(r *http.Request) {
			r.Header.Set("Accept", "application/json")
			r.Header.Set("X-Request-ID", uuid.NewString())
			if token != "" {
				r.Header.Set("Authorization", "Bearer "+token)
			}
		})
	return &GraphQLSource{endpoint: endpoint, client: client}
}

type stageConnection struct {
	Nodes      []DealStage `json:"nodes"`
	TotalCount int         `json:"totalCount"`
}

// ListDealStages runs query with a `title in [...]` filter and decodes the nodes.
func (g *GraphQLSource) ListDealStages(ctx context.Context, filter ListFilter, query string) ([]DealStage, error) {
	if g == nil || g.client == nil {
		return nil, errors.New("graphql source not initialised")
	}
	if g.endpoint == "" {
		return nil, errors.New("graphql endpoint required")
	}
	resource := filter.Resource
	if resource == "" {
		resource = ResourceDealStages
	}

	variables := map[string]any{
		"filter": map[string]any{
			"title": map[string]any{"in": filter.Titles},
		},
	}
	raw, err := g.client.ExecRaw(ctx, query, variables, graphql.OperationName(DashboardDealsChartOperation))
	if err != nil {
		return nil, fmt.Errorf("graphql %s: %w", DashboardDealsChartOperation, err)
	}

	var data map[string]json.RawMessage
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode graphql data: %w", err)
	}
	node, ok := data[resource]
	if !ok || string(node) == "null" {
		return nil, fmt.Errorf("graphql response missing %s", resource)
	}
	var conn stageConnection
	if err := json.Unmarshal(node, &conn); err != nil {
		return nil, fmt.Errorf("decode %s: %w", resource, err)
	}
	return conn.Nodes, nil
}
