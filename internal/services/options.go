package services

import (
	"fintrack/internal/core"
	"fintrack/internal/log"
)

// Option customizes a service.
type Option func(*publisher)

// WithClock replaces the system clock used for stamping dates and changes.
func WithClock(c core.Clock) Option {
	return func(p *publisher) { p.clock = c }
}

func WithLogger(l *log.Logger) Option {
	return func(p *publisher) { p.logger = l }
}

func newPublisher(sink core.ChangeSink, component string, opts []Option) publisher {
	p := publisher{
		sink:   sink,
		clock:  core.SystemClock{},
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(&p)
	}
	p.logger = p.logger.WithComponent(component)
	return p
}
