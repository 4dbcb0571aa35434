package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/clinicore/patient-registry/internal/repository"
)

type sequenceRepository struct {
	client *redis.Client
}

// NewSequenceRepository returns a Redis-backed sequence. INCR is atomic
// server-side, which gives the same no-duplicates guarantee as the
// Postgres counter when multiple API instances share one Redis.
func NewSequenceRepository(url string) (repository.SequenceRepository, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &sequenceRepository{client: client}, nil
}

func (r *sequenceRepository) Next(ctx context.Context, name string) (int64, error) {
	value, err := r.client.Incr(ctx, "seq:"+name).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to advance sequence %q: %w", name, err)
	}
	return value, nil
}
