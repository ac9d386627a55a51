package proposals

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	syncworker "github.com/mvidalgarcia/golfviajes-backend/internal/sync"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/enums"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/logger"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/outbox"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/outbox/idempotency"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/outbox/payloads"
)

const consumerName = "proposals-worker"

// syncRunner is the slice of the sync worker the consumer dispatches to.
type syncRunner interface {
	Sync(ctx context.Context, versionID uuid.UUID, trigger string) error
}

// Consumer watches proposal domain events and feeds sync requests to the
// worker. The worker records its own failures; the consumer acks once the
// worker returns, and nacks only on infrastructure faults so redelivery can
// retry them.
type Consumer struct {
	worker       syncRunner
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	logg         *logger.Logger
}

// NewConsumer builds the proposals event consumer.
func NewConsumer(worker syncRunner, subscription *pubsub.Subscriber, manager *idempotency.Manager, logg *logger.Logger) (*Consumer, error) {
	if worker == nil {
		return nil, fmt.Errorf("sync worker required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("proposals subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		worker:       worker,
		subscription: subscription,
		idempotency:  manager,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := msg.Attributes["event_type"]
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	})

	if eventType != string(enums.EventSyncRequested) {
		c.logg.Info(logCtx, "skipping event, not a sync request")
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, consumerName, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	var payload payloads.SyncRequestedEvent
	if err := json.Unmarshal(envelope.Data, &payload); err != nil {
		c.logg.Error(logCtx, "failed to parse sync request payload", err)
		_ = c.idempotency.Delete(ctx, consumerName, eventID)
		return processResult{nack: true}
	}
	if payload.VersionID == uuid.Nil {
		c.logg.Error(logCtx, "sync request has no version id", nil)
		return processResult{ack: true}
	}

	logCtx = c.logg.WithFields(logCtx, map[string]any{
		"proposal_id": payload.ProposalID.String(),
		"version_id":  payload.VersionID.String(),
		"retry":       payload.Retry,
	})

	trigger := syncworker.TriggerEvent
	if payload.Retry {
		trigger = syncworker.TriggerRetry
	}
	if err := c.worker.Sync(ctx, payload.VersionID, trigger); err != nil {
		c.logg.Error(logCtx, "sync dispatch failed", err)
		_ = c.idempotency.Delete(ctx, consumerName, eventID)
		return processResult{nack: true}
	}

	c.logg.Info(logCtx, "sync request dispatched")
	return processResult{ack: true}
}
