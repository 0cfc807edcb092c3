package alert

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"newswatch/internal/news"
	"newswatch/internal/storage"
	logx "newswatch/pkg/logx"
)

// Sender delivers one digest message. Implementations must not retry; the
// notifier's pending-queue semantics are the retry path.
type Sender interface {
	SendText(ctx context.Context, text string) error
}

// DeliveryError wraps a failed batch delivery. The batch stays pending and
// is re-evaluated whole on the next cycle.
type DeliveryError struct {
	Size int
	Err  error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver batch of %d: %v", e.Size, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// Config tunes the notifier.
type Config struct {
	MinWeight  int
	Keywords   []string
	BatchSize  int
	MinSendGap time.Duration // minimum wall-clock gap between deliveries
}

// Notifier is the admission filter plus batch delivery loop.
//
// The rate limiter is owned by the instance: one send permit per MinSendGap,
// no burst. Sharing a delivery cadence across multiple notifier processes
// would require externalizing it, which is out of scope.
type Notifier struct {
	cfg     Config
	policy  Policy
	store   storage.Store
	sender  Sender
	limiter *rate.Limiter
	log     logx.Logger
	now     func() time.Time
}

func NewNotifier(cfg Config, store storage.Store, sender Sender, log logx.Logger) *Notifier {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 5
	}
	if cfg.MinSendGap <= 0 {
		cfg.MinSendGap = 3200 * time.Millisecond
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Notifier{
		cfg:     cfg,
		policy:  NewPolicy(cfg.MinWeight, cfg.Keywords),
		store:   store,
		sender:  sender,
		limiter: rate.NewLimiter(rate.Every(cfg.MinSendGap), 1),
		log:     log,
		now:     time.Now,
	}
}

// Cycle evaluates every pending record once.
//
// Admitted records accumulate into batches of cfg.BatchSize, flushed as they
// fill plus one final partial flush. A failed flush leaves its records
// unalerted so the next cycle picks them up again; later batches in the same
// cycle are still attempted. Non-admitted records are marked alerted
// immediately — they can never qualify later because weight is fixed at
// enqueue time and the policy is fixed for the run.
func (n *Notifier) Cycle(ctx context.Context) error {
	pending, err := n.store.FetchPending(ctx)
	if err != nil {
		return fmt.Errorf("fetch pending: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	var batch []news.QueueRecord
	for _, rec := range pending {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !n.policy.Admit(rec) {
			if err := n.store.MarkAlerted(ctx, rec.ID, n.now().UTC()); err != nil {
				return fmt.Errorf("mark excluded: %w", err)
			}
			n.log.Debug("article excluded", logx.String("id", rec.ID), logx.Int("weight", rec.Weight))
			continue
		}
		batch = append(batch, rec)
		if len(batch) >= n.cfg.BatchSize {
			if err := n.flush(ctx, batch); err != nil {
				n.log.Warn("batch flush failed; records stay pending",
					logx.Int("size", len(batch)), logx.Err(err))
			}
			batch = nil
		}
	}
	if len(batch) > 0 {
		if err := n.flush(ctx, batch); err != nil {
			n.log.Warn("final batch flush failed; records stay pending",
				logx.Int("size", len(batch)), logx.Err(err))
		}
	}
	return nil
}

// flush delivers one batch and commits alert state only on confirmed
// delivery.
func (n *Notifier) flush(ctx context.Context, batch []news.QueueRecord) error {
	if err := n.limiter.Wait(ctx); err != nil {
		return err
	}

	digest := n.policy.FormatDigest(batch)
	if err := n.sender.SendText(ctx, digest); err != nil {
		return &DeliveryError{Size: len(batch), Err: err}
	}

	alertedAt := n.now().UTC()
	for _, rec := range batch {
		if err := n.store.MarkAlerted(ctx, rec.ID, alertedAt); err != nil {
			// Delivery succeeded but bookkeeping failed: the row stays
			// pending and the article may be delivered again. Surface it
			// loudly; this is the one place at-most-once can be violated.
			n.log.Error("mark alerted failed after delivery",
				logx.String("id", rec.ID), logx.Err(err))
			return fmt.Errorf("mark alerted: %w", err)
		}
	}
	n.log.Info("batch alerted", logx.Int("size", len(batch)))
	return nil
}
