// internal/app/escalation_config.go
package app

import (
	"errors"
	"fmt"
	"time"
)

const (
	DefaultLookaheadWindow   = 30 * time.Minute
	DefaultImminentThreshold = 10 * time.Minute
	DefaultStoreTimeout      = 10 * time.Second
	DefaultWorkers           = 4
	DefaultBatchSize         = 500
	DefaultSinkRetries       = 2
	DefaultSinkRetryBackoff  = 250 * time.Millisecond
	DefaultOrphanGracePeriod = time.Hour
)

// EscalationConfig is the immutable configuration of the escalation engine.
// It is passed by value at construction and never read from global state.
type EscalationConfig struct {
	LookaheadWindow   time.Duration
	ImminentThreshold time.Duration
	StoreTimeout      time.Duration // Applied to every store, sink and template call
	Workers           int           // Items processed in parallel within one cycle
	BatchSize         int           // Max candidates per cycle, <= 0 means unlimited
	SinkRetries       int           // Extra attempts on ErrSinkUnavailable
	SinkRetryBackoff  time.Duration
	OrphanGracePeriod time.Duration
	Location          *time.Location // Time zone used to render deadlines
}

// DefaultEscalationConfig returns the configuration used when nothing is overridden.
func DefaultEscalationConfig() EscalationConfig {
	return EscalationConfig{
		LookaheadWindow:   DefaultLookaheadWindow,
		ImminentThreshold: DefaultImminentThreshold,
		StoreTimeout:      DefaultStoreTimeout,
		Workers:           DefaultWorkers,
		BatchSize:         DefaultBatchSize,
		SinkRetries:       DefaultSinkRetries,
		SinkRetryBackoff:  DefaultSinkRetryBackoff,
		OrphanGracePeriod: DefaultOrphanGracePeriod,
		Location:          time.UTC,
	}
}

// Validate checks the invariants the engine relies on.
func (c EscalationConfig) Validate() error {
	var errs []error
	if c.LookaheadWindow <= 0 {
		errs = append(errs, fmt.Errorf("lookahead window must be positive, got %s", c.LookaheadWindow))
	}
	if c.ImminentThreshold <= 0 {
		errs = append(errs, fmt.Errorf("imminent threshold must be positive, got %s", c.ImminentThreshold))
	}
	if c.ImminentThreshold >= c.LookaheadWindow {
		errs = append(errs, fmt.Errorf("imminent threshold (%s) must be shorter than lookahead window (%s)", c.ImminentThreshold, c.LookaheadWindow))
	}
	if c.StoreTimeout <= 0 {
		errs = append(errs, fmt.Errorf("store timeout must be positive, got %s", c.StoreTimeout))
	}
	if c.Workers <= 0 {
		errs = append(errs, fmt.Errorf("workers must be positive, got %d", c.Workers))
	}
	if c.SinkRetries < 0 {
		errs = append(errs, fmt.Errorf("sink retries must not be negative, got %d", c.SinkRetries))
	}
	if c.SinkRetries > 0 && c.SinkRetryBackoff <= 0 {
		errs = append(errs, fmt.Errorf("sink retry backoff must be positive, got %s", c.SinkRetryBackoff))
	}
	if c.OrphanGracePeriod <= 0 {
		errs = append(errs, fmt.Errorf("orphan grace period must be positive, got %s", c.OrphanGracePeriod))
	}
	return errors.Join(errs...)
}

func (c EscalationConfig) location() *time.Location {
	if c.Location == nil {
		return time.UTC
	}
	return c.Location
}
