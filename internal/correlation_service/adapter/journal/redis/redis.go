package redis

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/langowen/corra/internal/entities"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const Channel = "correlation_computed"

type Storage struct {
	rdb redis.UniversalClient
}

func NewStorage(client redis.UniversalClient) *Storage {
	return &Storage{
		rdb: client,
	}
}

func InitStorage(ctx context.Context, options *redis.Options) (*Storage, error) {
	const op = "journal.redis.InitStorage"

	redisClient := redis.NewClient(options)

	if _, err := redisClient.Ping(ctx).Result(); err != nil {
		_ = redisClient.Close()
		return nil, errors.Wrap(err, op)
	}

	return NewStorage(redisClient), nil
}

type message struct {
	StartDate string `json:"startdate"`
	EndDate   string `json:"enddate"`
	entities.CorrelationView
}

func (s *Storage) PublishAnalysis(ctx context.Context, dr entities.DateRange, res *entities.CorrelationResult) error {
	const op = "journal.redis.PublishAnalysis"

	payload, err := json.Marshal(message{
		StartDate:       dr.StartDate,
		EndDate:         dr.EndDate,
		CorrelationView: res.View(),
	})
	if err != nil {
		return errors.Wrap(err, op)
	}

	receivers, err := s.rdb.Publish(ctx, Channel, payload).Result()
	if err != nil {
		return errors.Wrap(err, op)
	}

	slog.Debug("Published analysis", "channel", Channel, "receivers", receivers)

	return nil
}

func (s *Storage) Close() error {
	return s.rdb.Close()
}
