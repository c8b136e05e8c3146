package caching

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"laiaconnect/internal/models"

	"github.com/redis/go-redis/v9"
)

// CacheService caches derived analytics. The scoring core itself never
// caches; this sits at the reporting boundary where staleness is acceptable.
type CacheService interface {
	GetPortfolioReport(ctx context.Context, key string) (*models.PortfolioReport, error)
	SetPortfolioReport(ctx context.Context, key string, report *models.PortfolioReport, ttl time.Duration) error
	InvalidatePortfolio(ctx context.Context) error
}

type redisCacheService struct {
	client *redis.Client
}

// NewRedisCacheService connects a redis-backed cache. A failed ping is
// logged, not fatal: the aggregator degrades to computing every report.
func NewRedisCacheService(addr, password string, db int) CacheService {
	parsedAddr := addr
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		if hostPort := strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://"); hostPort != addr {
			parsedAddr = hostPort
		}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		log.Printf("WARN: Redis ping failed on initialization: %v (address: %s)", err, parsedAddr)
	}

	return &redisCacheService{client: client}
}

func portfolioKey(key string) string {
	return "analytics:portfolio:" + key
}

func (s *redisCacheService) GetPortfolioReport(ctx context.Context, key string) (*models.PortfolioReport, error) {
	data, err := s.client.Get(ctx, portfolioKey(key)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	report := &models.PortfolioReport{}
	if err := json.Unmarshal(data, report); err != nil {
		return nil, err
	}
	return report, nil
}

func (s *redisCacheService) SetPortfolioReport(ctx context.Context, key string, report *models.PortfolioReport, ttl time.Duration) error {
	data, err := json.Marshal(report)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, portfolioKey(key), data, ttl).Err()
}

func (s *redisCacheService) InvalidatePortfolio(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, portfolioKey("*"), 100).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}
