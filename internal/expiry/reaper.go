package expiry

import (
	"context"
	"log/slog"
	"time"

	"socialconnect/internal/featureflags"
	"socialconnect/internal/models"
	"socialconnect/internal/observability"
)

const (
	DefaultInterval = time.Hour
	DefaultGrace    = 7 * 24 * time.Hour
	defaultBatch    = 500
)

// StoryStore is the slice of the story repository the reaper needs.
type StoryStore interface {
	ListCreatedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Story, error)
	DeleteByIDs(ctx context.Context, ids []uint) (int64, error)
}

// BlobDeleter releases story images.
type BlobDeleter interface {
	Delete(ctx context.Context, ref string) error
}

// Reaper physically deletes stories older than the visibility window plus a
// grace period, along with their blobs.
type Reaper struct {
	stories  StoryStore
	blobs    BlobDeleter
	flags    *featureflags.Manager
	logger   *slog.Logger
	interval time.Duration
	grace    time.Duration
	batch    int
	now      func() time.Time
}

// ReaperOption customizes a Reaper.
type ReaperOption func(*Reaper)

func WithInterval(d time.Duration) ReaperOption {
	return func(r *Reaper) {
		if d > 0 {
			r.interval = d
		}
	}
}

func WithGrace(d time.Duration) ReaperOption {
	return func(r *Reaper) {
		if d >= 0 {
			r.grace = d
		}
	}
}

func WithClock(now func() time.Time) ReaperOption {
	return func(r *Reaper) { r.now = now }
}

func WithBatchSize(n int) ReaperOption {
	return func(r *Reaper) {
		if n > 0 {
			r.batch = n
		}
	}
}

func WithFlags(m *featureflags.Manager) ReaperOption {
	return func(r *Reaper) { r.flags = m }
}

// NewReaper builds a reaper. Without WithFlags it always runs.
func NewReaper(stories StoryStore, blobs BlobDeleter, logger *slog.Logger, opts ...ReaperOption) *Reaper {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Reaper{
		stories:  stories,
		blobs:    blobs,
		logger:   logger,
		interval: DefaultInterval,
		grace:    DefaultGrace,
		batch:    defaultBatch,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Cutoff is the newest creation time eligible for physical deletion at now.
func (r *Reaper) Cutoff(now time.Time) time.Time {
	return now.Add(-(models.StoryTTL + r.grace))
}

func (r *Reaper) enabled() bool {
	return r.flags.EnabledOrDefault(featureflags.StoryReaper, 0, true)
}

// Run sweeps every interval until ctx is cancelled.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("Story reaper started",
		slog.Duration("interval", r.interval),
		slog.Duration("grace", r.grace),
	)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Story reaper stopped")
			return
		case <-ticker.C:
			if _, err := r.Sweep(ctx); err != nil {
				r.logger.Error("Story reaper sweep failed", slog.String("error", err.Error()))
			}
		}
	}
}

// Sweep deletes one pass of expired stories and returns how many rows went.
// Blob failures are logged; the row is still removed since a blob delete is
// idempotent and may be retried by hand.
func (r *Reaper) Sweep(ctx context.Context) (int64, error) {
	if !r.enabled() {
		return 0, nil
	}

	cutoff := r.Cutoff(r.now())
	var total int64
	for {
		stories, err := r.stories.ListCreatedBefore(ctx, cutoff, r.batch)
		if err != nil {
			return total, err
		}
		if len(stories) == 0 {
			break
		}

		ids := make([]uint, 0, len(stories))
		for _, s := range stories {
			ids = append(ids, s.ID)
		}
		n, err := r.stories.DeleteByIDs(ctx, ids)
		if err != nil {
			return total, err
		}
		total += n
		observability.StoriesReaped.Add(float64(n))

		for _, s := range stories {
			if err := r.blobs.Delete(ctx, s.Image); err != nil {
				r.logger.WarnContext(ctx, "Failed to delete story blob",
					slog.Uint64("story_id", uint64(s.ID)),
					slog.String("ref", s.Image),
					slog.String("error", err.Error()),
				)
			}
		}

		if len(stories) < r.batch {
			break
		}
	}

	if total > 0 {
		r.logger.InfoContext(ctx, "Reaped expired stories", slog.Int64("count", total))
	}
	return total, nil
}
