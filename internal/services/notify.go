package services

import (
	"context"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

// publisher hands changes to the sink after a successful write. Sink failures
// are logged and never surface to the caller.
type publisher struct {
	sink   core.ChangeSink
	clock  core.Clock
	logger *log.Logger
}

func (p publisher) publish(ctx context.Context, c core.Change) {
	if p.sink == nil {
		return
	}
	c.At = p.clock.Now()
	if err := p.sink.Notify(ctx, c); err != nil {
		p.logger.ErrorContext(ctx, "Failed to publish change",
			log.FieldChangeKind, c.Kind,
			log.FieldCategoryID, c.CategoryID,
			log.FieldTransactionID, c.TransactionID,
			log.FieldError, err)
	}
}
