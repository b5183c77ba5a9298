// Package queue carries webhook processing jobs over Kafka with at-least-once
// delivery: offsets are committed only after the handler returns.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/punchamoorthee/paywebhooks/internal/interfaces"
)

// Job is the message body of a processing request.
type Job struct {
	JobID      string    `json:"job_id"`
	WebhookID  int64     `json:"webhook_id"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

func NewJob(webhookID int64) Job {
	return Job{
		JobID:      uuid.NewString(),
		WebhookID:  webhookID,
		EnqueuedAt: time.Now().UTC(),
	}
}

// Message keys jobs by webhook id so redeliveries of one webhook share a partition.
func (j Job) Message() (kafka.Message, error) {
	data, err := json.Marshal(j)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to marshal job: %w", err)
	}
	return kafka.Message{
		Key:   []byte(strconv.FormatInt(j.WebhookID, 10)),
		Value: data,
	}, nil
}

func DecodeJob(m kafka.Message) (Job, error) {
	var j Job
	if err := json.Unmarshal(m.Value, &j); err != nil {
		return Job{}, fmt.Errorf("failed to decode job: %w", err)
	}
	if j.WebhookID <= 0 {
		return Job{}, fmt.Errorf("job %q has no webhook id", j.JobID)
	}
	return j, nil
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer enqueues jobs. Writes are synchronous and wait for all in-sync
// replicas, so a nil error means the job is durable.
type Producer struct {
	writer messageWriter
	logger *zap.Logger
}

var _ interfaces.JobQueue = (*Producer)(nil)

func NewProducer(brokers []string, topic string, logger *zap.Logger) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			MaxAttempts:  3,
			BatchTimeout: 10 * time.Millisecond,
			Compression:  kafka.Snappy,
			Logger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
				logger.Sugar().Debugf(msg, args...)
			}),
			ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
				logger.Sugar().Errorf(msg, args...)
			}),
		},
		logger: logger,
	}
}

func (p *Producer) Enqueue(ctx context.Context, webhookID int64) error {
	job := NewJob(webhookID)
	msg, err := job.Message()
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to enqueue webhook %d: %w", webhookID, err)
	}
	p.logger.Debug("webhook enqueued", zap.Int64("webhook_id", webhookID), zap.String("job_id", job.JobID))
	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}

// Handler processes one job. A returned error is logged; the offset is
// committed either way because retrying is the queue operator's decision.
type Handler func(ctx context.Context, job Job) error

const commitTimeout = 5 * time.Second

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Consumer struct {
	reader messageReader
	logger *zap.Logger
}

func NewConsumer(brokers []string, topic, groupID string, logger *zap.Logger) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  brokers,
			Topic:    topic,
			GroupID:  groupID,
			MinBytes: 1,
			MaxBytes: 10e6,
		}),
		logger: logger,
	}
}

// Run fetches and handles messages until ctx is cancelled. A crash between
// handling and commit redelivers the job, which the claim step absorbs.
func (c *Consumer) Run(ctx context.Context, handle Handler) error {
	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("kafka fetch failed: %w", err)
		}

		job, err := DecodeJob(m)
		if err != nil {
			c.logger.Error("dropping malformed job",
				zap.Int("partition", m.Partition), zap.Int64("offset", m.Offset), zap.Error(err))
		} else if err := handle(ctx, job); err != nil {
			c.logger.Error("job handler failed",
				zap.Int64("webhook_id", job.WebhookID), zap.String("job_id", job.JobID), zap.Error(err))
		}

		// A job handled during shutdown is still acknowledged.
		commitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), commitTimeout)
		err = c.reader.CommitMessages(commitCtx, m)
		cancel()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("kafka commit failed: %w", err)
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
