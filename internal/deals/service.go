package deals

import (
	"context"
	"errors"
	"fmt"
)

// Source executes the list query against a data layer.
type Source interface {
	ListDealStages(ctx context.Context, filter ListFilter, query string) ([]DealStage, error)
}

// Service coordinates list query execution with the cache layer.
type Service struct {
	source Source
	cache  *Cache
}

// NewService wires a Source with a Cache helper. cache may be nil.
func NewService(source Source, cache *Cache) *Service {
	return &Service{source: source, cache: cache}
}

// Load returns the deal stages matching filter, consulting the cache first.
func (s *Service) Load(ctx context.Context, filter ListFilter) ([]DealStage, error) {
	if s == nil || s.source == nil {
		return nil, errors.New("deals: source not configured")
	}
	if filter.Resource == "" {
		filter.Resource = ResourceDealStages
	}
	if len(filter.Titles) == 0 {
		filter.Titles = DefaultListFilter().Titles
	}

	loader := func(ctx context.Context) (interface{}, error) {
		stages, err := s.source.ListDealStages(ctx, filter, DashboardDealsChartQuery)
		if err != nil {
			return nil, fmt.Errorf("deals: list %s: %w", filter.Resource, err)
		}
		if stages == nil {
			stages = []DealStage{}
		}
		return stages, nil
	}

	if s.cache == nil {
		value, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		return value.([]DealStage), nil
	}

	key, err := s.cache.BuildKey(ctx, keyList(filter))
	if err != nil {
		return nil, err
	}
	var stages []DealStage
	if err := s.cache.FetchJSON(ctx, key, &stages, loader); err != nil {
		return nil, err
	}
	return stages, nil
}

// Invalidate drops every cached list result.
func (s *Service) Invalidate(ctx context.Context) error {
	if s == nil || s.cache == nil {
		return nil
	}
	_, err := s.cache.Bump(ctx)
	return err
}
