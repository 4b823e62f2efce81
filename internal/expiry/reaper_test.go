package expiry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"socialconnect/internal/featureflags"
	"socialconnect/internal/models"
	"socialconnect/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStories struct {
	mu      sync.Mutex
	stories []models.Story
	listErr error
}

func (m *memStories) ListCreatedBefore(_ context.Context, cutoff time.Time, limit int) ([]models.Story, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []models.Story
	for _, s := range m.stories {
		if !s.CreatedAt.After(cutoff) {
			out = append(out, s)
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (m *memStories) DeleteByIDs(_ context.Context, ids []uint) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	drop := make(map[uint]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := m.stories[:0]
	var n int64
	for _, s := range m.stories {
		if drop[s.ID] {
			n++
			continue
		}
		kept = append(kept, s)
	}
	m.stories = kept
	return n, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestReaper_Sweep(t *testing.T) {
	now := time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC)
	store := &memStories{stories: []models.Story{
		{ID: 1, Image: "old-1.png", CreatedAt: now.Add(-9 * 24 * time.Hour)},
		{ID: 2, Image: "old-2.png", CreatedAt: now.Add(-8*24*time.Hour - time.Second)},
		{ID: 3, Image: "expired-in-grace.png", CreatedAt: now.Add(-2 * 24 * time.Hour)},
		{ID: 4, Image: "live.png", CreatedAt: now.Add(-time.Hour)},
	}}
	blobs := testutil.NewBlobStoreStub()

	r := NewReaper(store, blobs, quietLogger(), WithClock(func() time.Time { return now }), WithBatchSize(1))
	n, err := r.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.ElementsMatch(t, []string{"old-1.png", "old-2.png"}, blobs.Deleted)
	require.Len(t, store.stories, 2)
	assert.Equal(t, uint(3), store.stories[0].ID)
}

func TestReaper_CutoffUsesGrace(t *testing.T) {
	now := time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC)
	r := NewReaper(&memStories{}, testutil.NewBlobStoreStub(), quietLogger(), WithGrace(0))
	assert.Equal(t, now.Add(-24*time.Hour), r.Cutoff(now))

	r = NewReaper(&memStories{}, testutil.NewBlobStoreStub(), quietLogger())
	assert.Equal(t, now.Add(-8*24*time.Hour), r.Cutoff(now))
}

func TestReaper_DisabledByFlag(t *testing.T) {
	now := time.Now().UTC()
	store := &memStories{stories: []models.Story{{ID: 1, CreatedAt: now.Add(-30 * 24 * time.Hour)}}}

	r := NewReaper(store, testutil.NewBlobStoreStub(), quietLogger(),
		WithFlags(featureflags.NewManager("story_reaper=off")))
	n, err := r.Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Len(t, store.stories, 1)
}

func TestReaper_BlobFailureStillRemovesRow(t *testing.T) {
	now := time.Now().UTC()
	store := &memStories{stories: []models.Story{{ID: 1, Image: "x.png", CreatedAt: now.Add(-30 * 24 * time.Hour)}}}
	blobs := testutil.NewBlobStoreStub()
	blobs.DelErr = errors.New("disk gone")

	n, err := NewReaper(store, blobs, quietLogger()).Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Empty(t, store.stories)
}

func TestReaper_ListError(t *testing.T) {
	store := &memStories{listErr: errors.New("db down")}
	_, err := NewReaper(store, testutil.NewBlobStoreStub(), quietLogger()).Sweep(context.Background())
	assert.Error(t, err)
}

func TestReaper_RunStopsOnCancel(t *testing.T) {
	now := time.Now().UTC()
	store := &memStories{stories: []models.Story{{ID: 1, Image: "x.png", CreatedAt: now.Add(-30 * 24 * time.Hour)}}}
	r := NewReaper(store, testutil.NewBlobStoreStub(), quietLogger(), WithInterval(5*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return len(store.stories) == 0
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reaper did not stop after cancel")
	}
}
