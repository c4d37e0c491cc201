package integration

import (
	"context"
	"time"

	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

type Env struct {
	PG       *tcpostgres.PostgresContainer
	Kafka    *tckafka.KafkaContainer
	Redis    *tcredis.RedisContainer
	PGURL    string
	Brokers  []string
	RedisURL string
}

// SetupPostgres brings up only the store; enough for the repository-level
// lifecycle properties.
func SetupPostgres(ctx context.Context) (*Env, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	pgC, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("storefront"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		return nil, err
	}
	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = pgC.Terminate(ctx)
		return nil, err
	}
	return &Env{PG: pgC, PGURL: pgURL}, nil
}

// SetupRedis brings up only redis, for the idempotency store.
func SetupRedis(ctx context.Context) (*Env, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	redisC, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		return nil, err
	}
	url, err := redisC.ConnectionString(ctx)
	if err != nil {
		_ = redisC.Terminate(ctx)
		return nil, err
	}
	return &Env{Redis: redisC, RedisURL: url}, nil
}

// Setup brings up the full environment: postgres, kafka and redis.
func Setup(ctx context.Context) (*Env, error) {
	env, err := SetupPostgres(ctx)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	kafkaC, err := tckafka.Run(ctx,
		"confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("test-cluster"),
	)
	if err != nil {
		_ = env.Terminate(ctx)
		return nil, err
	}
	env.Kafka = kafkaC
	env.Brokers, err = kafkaC.Brokers(ctx)
	if err != nil {
		_ = env.Terminate(ctx)
		return nil, err
	}

	redisC, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		_ = env.Terminate(ctx)
		return nil, err
	}
	env.Redis = redisC
	env.RedisURL, err = redisC.ConnectionString(ctx)
	if err != nil {
		_ = env.Terminate(ctx)
		return nil, err
	}
	return env, nil
}

func (e *Env) Terminate(ctx context.Context) error {
	var firstErr error
	if e.Redis != nil {
		if err := e.Redis.Terminate(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if e.Kafka != nil {
		if err := e.Kafka.Terminate(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if e.PG != nil {
		if err := e.PG.Terminate(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
