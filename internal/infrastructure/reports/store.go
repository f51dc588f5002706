package reports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	domain "refdatasync/internal/domain/entity/refdata"
)

const keyPrefix = "refdata:report:"

var keySeparators = strings.NewReplacer(" ", "", "-", "", "_", "")

var ErrReportNotFound = errors.New("report not found")

type kv interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// Store keeps the latest run report per exchange in Redis.
type Store struct {
	client kv
	ttl    time.Duration
}

func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

// Key folds case and drops separators, matching exchange name lookup, so
// "Binance Futures" and "binance-futures" share one report.
func Key(exchange string) string {
	return keyPrefix + keySeparators.Replace(strings.ToLower(strings.TrimSpace(exchange)))
}

func (s *Store) SaveReport(ctx context.Context, report *domain.Report) error {
	if report == nil {
		return errors.New("report is nil")
	}
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := s.client.Set(ctx, Key(report.Exchange), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}

func (s *Store) LatestReport(ctx context.Context, exchange string) (*domain.Report, error) {
	payload, err := s.client.Get(ctx, Key(exchange)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("load report: %w", err)
	}
	var report domain.Report
	if err := json.Unmarshal(payload, &report); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return &report, nil
}
