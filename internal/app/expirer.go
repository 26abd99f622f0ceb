package app

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"github.com/tutorlane/marketplace/internal/apperr"
)

// QuoteExpiryService is the slice of QuoteService the sweeper needs.
type QuoteExpiryService interface {
	ExpireStaleQuotes(ctx context.Context, now time.Time) (int, error)
}

// Expirer periodically force-expires quotes whose requested lesson start
// time has passed while they were still waiting for the student.
type Expirer struct {
	quotes   QuoteExpiryService
	interval time.Duration
	logger   *zap.Logger
	stopChan chan struct{}
}

func NewExpirer(quotes QuoteExpiryService, interval time.Duration, logger *zap.Logger) *Expirer {
	return &Expirer{
		quotes:   quotes,
		interval: interval,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Start launches the sweep loop. The first sweep runs immediately.
func (e *Expirer) Start(ctx context.Context) {
	e.logger.Info("Starting quote expiry sweeper", zap.Duration("interval", e.interval))
	go e.run(ctx)
}

// Stop stops the sweep loop.
func (e *Expirer) Stop() {
	e.logger.Info("Stopping quote expiry sweeper")
	close(e.stopChan)
}

func (e *Expirer) run(ctx context.Context) {
	e.sweep(ctx)

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			e.sweep(ctx)
		case <-e.stopChan:
			e.logger.Info("Quote expiry sweeper stopped")
			return
		case <-ctx.Done():
			e.logger.Info("Quote expiry sweeper cancelled")
			return
		}
	}
}

// sweep expires stale quotes, retrying when a sweep loses a row to a
// concurrent accept. The services never retry on their own; the retry
// decision belongs here, at the caller.
func (e *Expirer) sweep(ctx context.Context) {
	backoff := retry.WithMaxRetries(3, retry.NewExponential(time.Second))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		n, err := e.quotes.ExpireStaleQuotes(ctx, time.Now())
		if err != nil {
			if apperr.Retryable(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		if n > 0 {
			e.logger.Info("Expiry sweep completed", zap.Int("expired", n))
		}
		return nil
	})
	if err != nil {
		e.logger.Error("Expiry sweep failed", zap.Error(err))
	}
}
