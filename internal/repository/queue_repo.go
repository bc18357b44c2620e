package repository

import "context"

// QueueRepository defines the interface for a FIFO queue of schools to ingest.
type QueueRepository interface {
	// Push adds a school id to the end of the queue.
	Push(ctx context.Context, schoolID int64) error
	// Pop removes and returns the id at the front of the queue. ok is false
	// when the queue is empty.
	Pop(ctx context.Context) (schoolID int64, ok bool, err error)
	// Size returns the current number of items in the queue.
	Size(ctx context.Context) (int64, error)
}
