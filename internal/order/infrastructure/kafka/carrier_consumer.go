package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/rvashisth/storefront-coordinator/internal/order/application"
	"github.com/rvashisth/storefront-coordinator/internal/order/domain"
	"github.com/rvashisth/storefront-coordinator/pkg/idempotency"
	"github.com/rvashisth/storefront-coordinator/pkg/tracing"
)

// CarrierConsumer applies shipped/delivered confirmations published by the
// carrier integration. Deliveries are at-least-once, so messages are deduped
// before the transition runs.
type CarrierConsumer struct {
	log    *slog.Logger
	reader *kafka.Reader
	svc    *application.Service
	idem   *idempotency.Store
	tracer trace.Tracer
}

func NewCarrierConsumer(log *slog.Logger, brokers []string, topic, group string, svc *application.Service, idem *idempotency.Store) *CarrierConsumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: group,
	})
	return &CarrierConsumer{
		log:    log,
		reader: r,
		svc:    svc,
		idem:   idem,
		tracer: otel.Tracer("carrier-consumer"),
	}
}

type carrierUpdate struct {
	OrderID        string `json:"order_id"`
	Event          string `json:"event"`
	TrackingNumber string `json:"tracking_number"`
}

func (c *CarrierConsumer) Run(ctx context.Context) error {
	defer c.reader.Close()
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			return err
		}
		key := c.idem.MessageKey(msg.Topic, msg.Partition, msg.Offset)
		seen, err := c.idem.Seen(ctx, key)
		if err != nil {
			c.log.Error("idempotency check failed", "err", err)
			continue
		}
		if seen {
			c.log.Info("duplicate carrier update skipped", "key", key)
			_ = c.reader.CommitMessages(ctx, msg)
			continue
		}

		msgCtx := tracing.ExtractKafkaHeaders(ctx, msg.Headers)
		msgCtx, span := c.tracer.Start(msgCtx, "ConsumeCarrierUpdate")

		var ev carrierUpdate
		if err := json.Unmarshal(msg.Value, &ev); err != nil {
			c.log.Error("carrier update unmarshal failed", "err", err)
			span.End()
			_ = c.reader.CommitMessages(ctx, msg)
			continue
		}

		var to domain.Status
		switch ev.Event {
		case "shipped":
			to = domain.StatusShipped
		case "delivered":
			to = domain.StatusDelivered
		default:
			c.log.Warn("unknown carrier event", "event", ev.Event, "order_id", ev.OrderID)
			span.End()
			_ = c.reader.CommitMessages(ctx, msg)
			continue
		}

		if _, err := c.svc.TransitionStatus(msgCtx, ev.OrderID, to, ev.TrackingNumber); err != nil {
			var invalid *domain.InvalidTransitionError
			if errors.As(err, &invalid) {
				// Stale or replayed update; the persisted state already moved on.
				c.log.Warn("carrier update ignored", "order_id", ev.OrderID, "err", err)
			} else {
				c.log.Error("carrier transition failed", "order_id", ev.OrderID, "err", err)
			}
		}
		span.End()
		_ = c.reader.CommitMessages(ctx, msg)
	}
}
