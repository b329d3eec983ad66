package workers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/benvon/codemate/internal/apperror"
	"github.com/benvon/codemate/internal/models"
	"github.com/benvon/codemate/internal/queue"
	"github.com/benvon/codemate/internal/services/ai"
)

// TagStore is the tag storage the worker needs.
type TagStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tag, error)
	SetDescription(ctx context.Context, id uuid.UUID, description string) error
	PruneEmpty(ctx context.Context) (int64, error)
}

// Describer writes tag descriptions.
type Describer interface {
	DescribeTag(ctx context.Context, tag string) (string, error)
}

// TagWorker processes tag_description and tag_prune jobs.
type TagWorker struct {
	tags      TagStore
	describer Describer
	jobs      queue.Publisher
	log       *zap.Logger
}

// NewTagWorker creates a tag worker. jobs is used to re-enqueue retries and
// jobs that arrive before their NotBefore time.
func NewTagWorker(tags TagStore, describer Describer, jobs queue.Publisher, log *zap.Logger) *TagWorker {
	return &TagWorker{tags: tags, describer: describer, jobs: jobs, log: log}
}

// Run processes messages until ctx is cancelled or msgs closes. Failures are
// logged; each message is acked or nacked before the next one is read.
func (w *TagWorker) Run(ctx context.Context, msgs <-chan *queue.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				w.log.Info("message_channel_closed")
				return
			}
			if err := w.ProcessJob(ctx, msg); err != nil {
				w.log.Error("job_processing_failed",
					zap.Error(err),
					zap.String("job_id", msg.GetJob().ID.String()),
					zap.String("job_type", string(msg.GetJob().Type)),
				)
			}
		}
	}
}

// ProcessJob runs one delivery and settles it.
func (w *TagWorker) ProcessJob(ctx context.Context, msg queue.Delivery) error {
	job := msg.GetJob()

	if job.IsExpired() {
		w.log.Info("job_expired", zap.String("job_id", job.ID.String()))
		return msg.Ack()
	}
	if !job.ShouldProcess() {
		// Too early: put it back with its schedule intact.
		if err := w.jobs.Enqueue(ctx, job); err != nil {
			_ = msg.Nack(true)
			return fmt.Errorf("failed to defer job: %w", err)
		}
		return msg.Ack()
	}

	var err error
	switch job.Type {
	case queue.JobTypeTagDescription:
		err = w.describeTag(ctx, job)
	case queue.JobTypeTagPrune:
		err = w.pruneTags(ctx)
	default:
		err = permanent(fmt.Errorf("unknown job type: %s", job.Type))
	}
	if err != nil {
		return w.handleJobError(ctx, msg, job, err)
	}

	if ackErr := msg.Ack(); ackErr != nil {
		return fmt.Errorf("failed to ack job: %w", ackErr)
	}
	return nil
}

func (w *TagWorker) describeTag(ctx context.Context, job *queue.Job) error {
	if job.TagID == nil {
		return permanent(errors.New("tag_id is required for tag description job"))
	}

	tag, err := w.tags.GetByID(ctx, *job.TagID)
	if errors.Is(err, apperror.ErrNotFound) {
		w.log.Info("tag_description_skipped_tag_gone", zap.String("tag_id", job.TagID.String()))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get tag: %w", err)
	}
	if tag.Description != nil && strings.TrimSpace(*tag.Description) != "" {
		return nil
	}

	description, err := w.describer.DescribeTag(ctx, tag.Name)
	if err != nil {
		return fmt.Errorf("failed to describe tag: %w", err)
	}
	if err := w.tags.SetDescription(ctx, tag.ID, description); err != nil {
		return fmt.Errorf("failed to store tag description: %w", err)
	}

	w.log.Info("tag_described",
		zap.String("tag_id", tag.ID.String()),
		zap.String("tag", tag.Name),
		zap.Int("retry_count", job.RetryCount),
	)
	return nil
}

func (w *TagWorker) pruneTags(ctx context.Context) error {
	n, err := w.tags.PruneEmpty(ctx)
	if err != nil {
		return fmt.Errorf("failed to prune tags: %w", err)
	}
	w.log.Info("tags_pruned", zap.Int64("count", n))
	return nil
}

// handleJobError re-enqueues retryable failures with a backoff and sends
// the rest to the dead letter queue.
func (w *TagWorker) handleJobError(ctx context.Context, msg queue.Delivery, job *queue.Job, err error) error {
	if !isRetryable(err) || !job.CanRetry() {
		w.log.Warn("job_dead_lettered",
			zap.Error(err),
			zap.String("job_id", job.ID.String()),
			zap.Int("retry_count", job.RetryCount),
		)
		if nackErr := msg.Nack(false); nackErr != nil {
			return fmt.Errorf("failed to nack job: %w", nackErr)
		}
		return err
	}

	delay := ai.GetRetryDelay(err, job.RetryCount)
	if enqueueErr := w.jobs.Enqueue(ctx, job.Retry(delay)); enqueueErr != nil {
		w.log.Error("job_retry_enqueue_failed", zap.Error(enqueueErr), zap.String("job_id", job.ID.String()))
		_ = msg.Nack(false)
		return err
	}

	w.log.Info("job_retry_scheduled",
		zap.String("job_id", job.ID.String()),
		zap.Int("retry_count", job.RetryCount+1),
		zap.Duration("delay", delay),
		zap.Bool("quota", ai.IsQuotaError(err)),
	)
	if ackErr := msg.Ack(); ackErr != nil {
		return fmt.Errorf("failed to ack retried job: %w", ackErr)
	}
	return err
}

type permanentError struct{ err error }

func (e permanentError) Error() string { return e.err.Error() }
func (e permanentError) Unwrap() error { return e.err }

// permanent marks a failure that no retry can fix.
func permanent(err error) error { return permanentError{err: err} }

func isRetryable(err error) bool {
	var p permanentError
	if errors.As(err, &p) || errors.Is(err, apperror.ErrInvalidInput) || errors.Is(err, apperror.ErrForbidden) {
		return false
	}
	return ai.IsRetryable(err)
}
