package service

import (
	"context"
	"encoding/json"
	"time"

	"rag-notes-be/internal/constant"
	"rag-notes-be/internal/dto"
	"rag-notes-be/internal/pkg/logger"
	"rag-notes-be/pkg/metrics"
	"rag-notes-be/pkg/vectorindex"

	"github.com/ThreeDotsLabs/watermill/message"
)

// IConsumerService drains the vector cleanup topic.
type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	subscriber  message.Subscriber
	republisher IPublisherService
	topicName   string
	index       vectorindex.Index
	metrics     *metrics.Metrics
	logger      logger.ILogger
	backoff     time.Duration
}

func NewConsumerService(
	subscriber message.Subscriber,
	republisher IPublisherService,
	topicName string,
	index vectorindex.Index,
	m *metrics.Metrics,
	log logger.ILogger,
	backoff time.Duration,
) IConsumerService {
	if backoff <= 0 {
		backoff = 2 * time.Second
	}
	return &consumerService{
		subscriber:  subscriber,
		republisher: republisher,
		topicName:   topicName,
		index:       index,
		metrics:     m,
		logger:      log,
		backoff:     backoff,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

// processMessage always acks. Retries are new messages with Attempt+1,
// scheduled with linear backoff so one stuck id never blocks the topic.
func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	defer msg.Ack()

	var payload dto.PublishVectorCleanupMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("CLEANUP", "Failed to unmarshal cleanup message", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	_, err := cs.index.DeleteByIds(ctx, payload.VectorIds)
	if err == nil {
		cs.metrics.VectorCleanups.WithLabelValues("deleted").Inc()
		cs.logger.Info("CLEANUP", "Orphan vectors deleted", map[string]interface{}{
			"note_id": payload.NoteId,
			"attempt": payload.Attempt,
		})
		return
	}

	if payload.Attempt >= constant.VectorCleanupMaxAttempts {
		cs.metrics.VectorCleanups.WithLabelValues("abandoned").Inc()
		cs.logger.Error("CLEANUP", "Giving up on orphan vectors; the reconcile sweep will pick them up", map[string]interface{}{
			"note_id":    payload.NoteId,
			"vector_ids": payload.VectorIds,
			"error":      err.Error(),
		})
		return
	}

	cs.metrics.VectorCleanups.WithLabelValues("retried").Inc()
	payload.Attempt++
	next, _ := json.Marshal(payload)
	delay := cs.backoff * time.Duration(payload.Attempt-1)

	cs.logger.Warn("CLEANUP", "Vector delete failed, retrying", map[string]interface{}{
		"note_id": payload.NoteId,
		"attempt": payload.Attempt,
		"delay":   delay.String(),
		"error":   err.Error(),
	})

	time.AfterFunc(delay, func() {
		if ctx.Err() != nil {
			return
		}
		if err := cs.republisher.Publish(ctx, next); err != nil {
			cs.logger.Error("CLEANUP", "Failed to requeue cleanup", map[string]interface{}{
				"note_id": payload.NoteId,
				"error":   err.Error(),
			})
		}
	})
}
