// Package integration spins up the real collaborators (postgres order
// store, kafka change feed, redis dedup) for end-to-end runs of the
// dashboard service. Requires a local docker daemon.
package integration

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/doceeser/orders-dashboard/pkg/tracing"
)

const ordersSchema = `
CREATE TABLE IF NOT EXISTS orders (
    id         TEXT PRIMARY KEY,
    status     TEXT NOT NULL DEFAULT 'novo',
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    total      NUMERIC(10,2),
    customer   JSONB,
    items      JSONB
);`

type Env struct {
	PG        *postgres.PostgresContainer
	Kafka     *tckafka.KafkaContainer
	Redis     *tcredis.RedisContainer
	PGURL     string
	KAddr     []string
	RedisAddr string
	Cancel    context.CancelFunc
}

func Setup(ctx context.Context) (*Env, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)

	pgC, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("dashboard"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
	)
	if err != nil {
		cancel()
		return nil, err
	}

	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		cancel()
		return nil, err
	}

	kafkaC, err := tckafka.Run(ctx,
		"confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("dashboard-test"),
	)
	if err != nil {
		cancel()
		return nil, err
	}

	brokers, err := kafkaC.Brokers(ctx)
	if err != nil {
		cancel()
		return nil, err
	}

	redisC, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		cancel()
		return nil, err
	}
	redisAddr, err := redisC.Endpoint(ctx, "")
	if err != nil {
		cancel()
		return nil, err
	}

	return &Env{
		PG:        pgC,
		Kafka:     kafkaC,
		Redis:     redisC,
		PGURL:     pgURL,
		KAddr:     brokers,
		RedisAddr: redisAddr,
		Cancel:    cancel,
	}, nil
}

// Schema returns the order-table DDL applied before each run.
func Schema() string { return ordersSchema }

// PublishChange writes a synthetic change event the way the store-side
// publisher does, trace headers included.
func (e *Env) PublishChange(ctx context.Context, topic, kind string, record any) error {
	payload, err := json.Marshal(map[string]any{"kind": kind, "record": record})
	if err != nil {
		return err
	}

	w := &kafka.Writer{
		Addr:         kafka.TCP(e.KAddr...),
		Topic:        topic,
		RequiredAcks: kafka.RequireAll,
	}
	defer w.Close()

	msg := kafka.Message{Value: payload}
	msg.Headers = tracing.InjectKafkaHeaders(ctx, msg.Headers)
	return w.WriteMessages(ctx, msg)
}

func (e *Env) Teardown(ctx context.Context) {
	e.Cancel()
	_ = e.Redis.Terminate(ctx)
	_ = e.Kafka.Terminate(ctx)
	_ = e.PG.Terminate(ctx)
}
