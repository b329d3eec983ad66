package queue

import (
	"context"
	"time"
)

// Delivery is one consumed job awaiting acknowledgement.
type Delivery interface {
	Ack() error
	Nack(requeue bool) error
	GetJob() *Job
}

// Publisher enqueues jobs. Request handling code depends on this alone.
type Publisher interface {
	Enqueue(ctx context.Context, job *Job) error
}

// JobQueue is the interface for job queues
type JobQueue interface {
	Publisher

	// Consume delivers messages until ctx is cancelled. Each message must be
	// acknowledged by the caller. The message channel closes on shutdown or
	// when the broker connection drops.
	Consume(ctx context.Context, prefetchCount int) (<-chan *Message, <-chan error, error)

	Close() error
	HealthCheck(ctx context.Context) error
}

// DLQPurger removes dead letters older than retention and returns how many
// it dropped.
type DLQPurger interface {
	PurgeOlderThan(ctx context.Context, retention time.Duration) (int, error)
}
