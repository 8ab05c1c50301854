package kafka

import (
	"context"
	"log/slog"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/doceeser/orders-dashboard/internal/alerts"
	"github.com/doceeser/orders-dashboard/internal/dashboard/application"
	"github.com/doceeser/orders-dashboard/internal/orders/domain"
	"github.com/doceeser/orders-dashboard/pkg/idempotency"
	"github.com/doceeser/orders-dashboard/pkg/tracing"
)

// Consumer is the change-stream listener: one reader on the order
// change topic, every event kind. An insert runs the alert pipeline;
// every event, decodable or not, triggers a full reconciliation, so
// authoritative state always comes from the refetch, never from the
// event body.
type Consumer struct {
	log    *slog.Logger
	reader *kafka.Reader
	ctrl   *application.Controller
	alerts *alerts.Dispatcher
	idem   *idempotency.Store
	tracer trace.Tracer
}

func NewConsumer(log *slog.Logger, brokers []string, topic, group string, ctrl *application.Controller, al *alerts.Dispatcher, idem *idempotency.Store) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: group,
	})
	return &Consumer{
		log:    log,
		reader: r,
		ctrl:   ctrl,
		alerts: al,
		idem:   idem,
		tracer: otel.Tracer("dashboard-consumer"),
	}
}

func (c *Consumer) Run(ctx context.Context) error {
	defer c.reader.Close()
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			return err
		}

		key := c.idem.Key(msg.Topic, msg.Partition, msg.Offset)
		seen, err := c.idem.Seen(ctx, key)
		if err != nil {
			c.log.Error("idempotency check failed", "err", err)
			continue
		}
		if seen {
			c.log.Info("duplicate change event skipped", "key", key)
			_ = c.reader.CommitMessages(ctx, msg)
			continue
		}

		msgCtx := tracing.ExtractKafkaHeaders(ctx, msg.Headers)
		c.handleEvent(msgCtx, msg.Value)
		_ = c.reader.CommitMessages(ctx, msg)
	}
}

func (c *Consumer) handleEvent(ctx context.Context, value []byte) {
	ctx, span := c.tracer.Start(ctx, "HandleOrderChange")
	defer span.End()

	ev, err := domain.DecodeChange(value)
	if err != nil {
		// still reconcile: the refetch repairs whatever the event
		// failed to tell us
		c.log.Warn("undecodable change event", "err", err)
	}

	if ev.Kind == domain.ChangeInsert && ev.Order != nil {
		c.alerts.OnInsert(ctx, *ev.Order)
	}

	if err := c.ctrl.Reconcile(ctx); err != nil {
		c.log.Error("reconcile after change event failed", "kind", ev.Kind, "err", err)
	}
}
