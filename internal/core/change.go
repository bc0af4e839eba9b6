package core

import (
	"context"
	"time"
)

type ChangeKind string

const (
	CategoryCreated    ChangeKind = "category.created"
	CategoryUpdated    ChangeKind = "category.updated"
	CategoryDeleted    ChangeKind = "category.deleted"
	TransactionCreated ChangeKind = "transaction.created"
	TransactionUpdated ChangeKind = "transaction.updated"
	TransactionDeleted ChangeKind = "transaction.deleted"
)

// Change describes a committed write. TransactionID is zero for category changes.
type Change struct {
	Kind          ChangeKind `json:"kind"`
	Owner         UserID     `json:"owner"`
	CategoryID    int64      `json:"category_id"`
	TransactionID int64      `json:"transaction_id,omitempty"`
	At            time.Time  `json:"at"`
}

// ChangeSink receives committed changes. Implementations must not block the caller for long.
type ChangeSink interface {
	Notify(ctx context.Context, c Change) error
}

// ChangeSinks fans a change out to every sink and returns the first error.
type ChangeSinks []ChangeSink

func (s ChangeSinks) Notify(ctx context.Context, c Change) error {
	var first error
	for _, sink := range s {
		if sink == nil {
			continue
		}
		if err := sink.Notify(ctx, c); err != nil && first == nil {
			first = err
		}
	}
	return first
}
