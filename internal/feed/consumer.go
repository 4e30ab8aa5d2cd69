package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/simvault/orderdesk/internal/metrics"
	"github.com/simvault/orderdesk/internal/model"
	"github.com/simvault/orderdesk/internal/normalize"
	"github.com/simvault/orderdesk/internal/store"
)

// Consumer reads feed envelopes off Kafka and applies them to the working
// set in delivery order. The rest of the system never sees the transport:
// only model.FeedEvent crosses the boundary, and only validated records
// leave Apply.
type Consumer struct {
	reader     *kafka.Reader
	normalizer *normalize.Normalizer
	set        *store.WorkingSet
	logger     *zap.Logger
}

func NewConsumer(brokers []string, topic, groupID string, normalizer *normalize.Normalizer, set *store.WorkingSet, logger *zap.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        groupID,
		Topic:          topic,
		MinBytes:       10e3,
		MaxBytes:       10e6,
		CommitInterval: time.Second,
		MaxWait:        3 * time.Second,
	})
	return &Consumer{
		reader:     reader,
		normalizer: normalizer,
		set:        set,
		logger:     logger,
	}
}

// Run consumes until ctx is cancelled. Events for a given record are applied
// strictly in delivery order; nothing is reordered locally.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Info("feed consumer started")
	for {
		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("feed consumer stopping")
				return nil
			}
			c.logger.Error("failed to read feed message", zap.Error(err))
			time.Sleep(5 * time.Second)
			continue
		}

		var event model.FeedEvent
		if err := json.Unmarshal(m.Value, &event); err != nil {
			c.logger.Warn("skipping malformed feed envelope",
				zap.Int64("offset", m.Offset), zap.Error(err))
			continue
		}
		if err := c.Apply(event); err != nil {
			c.logger.Warn("skipping feed event", zap.String("order_id", event.ID), zap.Error(err))
		}
	}
}

// Apply normalizes one feed event and applies it to the working set. It is
// exported so alternative transports can feed the same pipeline.
func (c *Consumer) Apply(event model.FeedEvent) error {
	metrics.FeedEventsTotal.WithLabelValues(string(event.Type)).Inc()

	switch event.Type {
	case model.FeedAdded, model.FeedModified:
		var doc normalize.RawDocument
		if err := json.Unmarshal(event.Doc, &doc); err != nil {
			return fmt.Errorf("malformed document: %w", err)
		}
		if doc.ID == "" {
			doc.ID = event.ID
		}
		rec, err := c.normalizer.Normalize(doc)
		if err != nil {
			return err
		}
		c.set.Upsert(rec)
		return nil
	case model.FeedRemoved:
		c.set.Remove(event.ID)
		return nil
	}
	return fmt.Errorf("unknown feed event type %q", event.Type)
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
