package forum

import (
	"context"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	domain "github.com/benvon/codemate/internal/forum"
	"github.com/benvon/codemate/internal/models"
	"github.com/benvon/codemate/internal/telemetry"
)

// GlobalSearch matches query against one content class, or all of them when
// typ is empty. Classes are queried concurrently and merged in fixed class
// order. Any class failing fails the search.
func (s *Service) GlobalSearch(ctx context.Context, query, typ string) (results []models.SearchResult, err error) {
	ctx, span := telemetry.StartSpan(ctx, "forum.global_search", attribute.String("type", typ))
	defer func() { telemetry.EndSpan(span, err) }()

	types, err := domain.PlanSearch(typ)
	if err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.SearchResult{}, nil
	}

	var mu sync.Mutex
	byType := make(map[domain.SearchType][]models.SearchResult, len(types))

	g, gctx := errgroup.WithContext(ctx)
	for _, t := range types {
		g.Go(func() error {
			hits, err := s.stores.Search.Search(gctx, t, query, domain.SearchLimit)
			if err != nil {
				return err
			}
			normalized := domain.NormalizeHits(t, query, hits)
			mu.Lock()
			byType[t] = normalized
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	results = domain.MergeResults(byType)
	span.SetAttributes(attribute.Int("result_count", len(results)))
	return results, nil
}
