package main

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-crm/internal/app"
	"github.com/odyssey-erp/odyssey-crm/internal/deals"
	_ "github.com/odyssey-erp/odyssey-crm/testing"
)

func TestMainSkipsInTestMode(t *testing.T) {
	require.True(t, app.InTestMode())
	main()
}

func TestNewDealsSourceDefaultsToGraphQL(t *testing.T) {
	cfg := &app.Config{DealsSource: app.SourceGraphQL, DealsGraphQLURL: "http://crm.local/graphql"}
	source, closeFn, err := newDealsSource(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	defer closeFn()
	_, ok := source.(*deals.GraphQLSource)
	assert.True(t, ok)
}
