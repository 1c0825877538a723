package analytics

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/angelmondragon/gearhub-backend/internal/analytics/query"
	"github.com/angelmondragon/gearhub-backend/internal/analytics/types"
	"github.com/angelmondragon/gearhub-backend/pkg/logger"
)

// Service provides sales reports based on order facts.
type Service interface {
	// Query returns sales KPIs for the provided window.
	Query(ctx context.Context, req types.SalesQueryRequest) (*types.SalesQueryResponse, error)
}

type reportCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	CacheKey(scope, id string) string
}

type ServiceParams struct {
	Sales query.SalesService
	// Cache is optional. Reports are read through it for CacheTTL.
	Cache    reportCache
	CacheTTL time.Duration
	Logger   *logger.Logger
}

type service struct {
	sales query.SalesService
	cache reportCache
	ttl   time.Duration
	logg  *logger.Logger
}

func NewService(p ServiceParams) (Service, error) {
	if p.Sales == nil {
		return nil, errors.New("sales query service required")
	}
	s := &service{sales: p.Sales, cache: p.Cache, ttl: p.CacheTTL, logg: p.Logger}
	if s.logg == nil {
		s.logg = logger.Nop()
	}
	if s.ttl <= 0 {
		s.cache = nil
	}
	return s, nil
}

// Query serves a cached report when one exists. Cache failures only cost a
// warning: BigQuery stays the source of truth.
func (s *service) Query(ctx context.Context, req types.SalesQueryRequest) (*types.SalesQueryResponse, error) {
	if s.cache == nil {
		return s.sales.Query(ctx, req)
	}
	if err := query.ValidateRequest(req); err != nil {
		return nil, err
	}

	key := s.cache.CacheKey("sales_report", reportID(req))
	if raw, err := s.cache.Get(ctx, key); err == nil {
		var cached types.SalesQueryResponse
		if json.Unmarshal([]byte(raw), &cached) == nil {
			return &cached, nil
		}
	}

	resp, err := s.sales.Query(ctx, req)
	if err != nil {
		return nil, err
	}
	if body, err := json.Marshal(resp); err == nil {
		if err := s.cache.Set(ctx, key, string(body), s.ttl); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "sales report not cached")
		}
	}
	return resp, nil
}

func reportID(req types.SalesQueryRequest) string {
	sum := sha256.Sum256([]byte(req.Start.UTC().Format(time.RFC3339) + "|" + req.End.UTC().Format(time.RFC3339)))
	return hex.EncodeToString(sum[:12])
}
