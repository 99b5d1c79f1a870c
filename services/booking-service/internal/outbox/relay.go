package outbox

import (
	"context"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/md-rashed-zaman/turnos/libs/db"
	"github.com/md-rashed-zaman/turnos/libs/kafkax"
	otelx "github.com/md-rashed-zaman/turnos/libs/otel"
)

// MessageWriter is the subset of *kafka.Writer the relay needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type RelayConfig struct {
	PollEvery time.Duration
	BatchSize int
}

// Relay moves committed outbox rows to Kafka. Delivery is at least once:
// a crash between the write and the commit republishes the batch.
type Relay struct {
	db        db.DB
	repo      *Repository
	writer    MessageWriter
	logger    *slog.Logger
	pollEvery time.Duration
	batchSize int
}

func NewRelay(conn db.DB, repo *Repository, writer MessageWriter, logger *slog.Logger, cfg RelayConfig) *Relay {
	if cfg.PollEvery <= 0 {
		cfg.PollEvery = 2 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	return &Relay{
		db:        conn,
		repo:      repo,
		writer:    writer,
		logger:    logger,
		pollEvery: cfg.PollEvery,
		batchSize: cfg.BatchSize,
	}
}

func (r *Relay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.pollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := r.PublishBatch(ctx)
			if err != nil {
				r.logger.Error("outbox publish failed", "err", err)
				continue
			}
			if n > 0 {
				r.logger.Debug("outbox batch published", "count", n)
			}
		}
	}
}

// PublishBatch publishes one batch and returns how many rows it marked.
func (r *Relay) PublishBatch(ctx context.Context) (int, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	fail := func(err error) (int, error) {
		_ = tx.Rollback(ctx)
		return 0, err
	}

	records, err := r.repo.FetchUnpublished(ctx, tx, r.batchSize)
	if err != nil {
		return fail(err)
	}
	if len(records) == 0 {
		return 0, tx.Commit(ctx)
	}

	msgs := make([]kafka.Message, 0, len(records))
	ids := make([]int64, 0, len(records))
	for _, rcd := range records {
		msgCtx := otelx.ContextWithTraceContext(ctx, rcd.Traceparent, rcd.Tracestate)
		msg := kafkax.NewEventMessage(kafkax.EventMeta{EventID: rcd.EventID, EventType: rcd.EventType}, rcd.AggregateID, rcd.Payload)
		msg.Headers = kafkax.InjectTraceHeaders(msgCtx, msg.Headers)
		msgs = append(msgs, msg)
		ids = append(ids, rcd.ID)
	}
	if err := r.writer.WriteMessages(ctx, msgs...); err != nil {
		return fail(err)
	}
	if err := r.repo.MarkPublished(ctx, tx, ids); err != nil {
		return fail(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return len(ids), nil
}
