package liveness

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/spacesedan/openmod/internal/cache"
	"github.com/spacesedan/openmod/internal/models"
	"github.com/spacesedan/openmod/internal/reddit"
	"github.com/spacesedan/openmod/internal/store"
	"github.com/spacesedan/openmod/internal/temporal"
)

type stubScheduler struct {
	jobs []func()
}

func (s *stubScheduler) Cron(spec string, job func()) error { return nil }
func (s *stubScheduler) RunAt(t time.Time, job func())      { s.jobs = append(s.jobs, job) }

func TestSweep_MixedBatch(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()
	m := new(reddit.MockClient)
	entityCache := cache.New(kv, m)
	sched := &stubScheduler{}

	// one user still exists, one has vanished
	m.On("UserByID", mock.Anything, "t2_alive").
		Return(&reddit.User{ID: "t2_alive", Username: "alive"}, nil)
	m.On("UserByID", mock.Anything, "t2_gone").Return(nil, nil)

	_, err := entityCache.PutUser(ctx, models.BasicUserData{ID: "t2_alive", Username: "alive"})
	require.NoError(t, err)
	_, err = entityCache.PutUser(ctx, models.BasicUserData{ID: "t2_gone", Username: "gone"})
	require.NoError(t, err)

	// the vanished user has tracked content in the cache
	_, err = entityCache.PutComment(ctx, &reddit.Comment{ID: "t1_x", AuthorID: "t2_gone", Body: "x"})
	require.NoError(t, err)
	require.NoError(t, entityCache.Track(ctx, "t2_gone", "t1_x", 100))

	sweeper := NewSweeper(kv, m, entityCache, sched)
	require.NoError(t, sweeper.OnCheckSignsOfLife(ctx))

	// the living user is rescheduled into the future
	due, err := kv.ZRangeByScore(ctx, store.KeySignsOfLife, float64(temporal.Now()))
	require.NoError(t, err)
	assert.Empty(t, due)

	all, err := kv.ZRangeByScore(ctx, store.KeySignsOfLife, float64(temporal.Future(2*RecheckInterval)))
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "t2_alive", all[0].Member)

	// the vanished user's content, tracking set, and cached entity are gone
	fields, err := kv.HGetAll(ctx, store.KeyCachedThing("t1_x"))
	require.NoError(t, err)
	assert.Empty(t, fields)
	fields, err = kv.HGetAll(ctx, store.KeyCachedThing("t2_gone"))
	require.NoError(t, err)
	assert.Empty(t, fields)
	count, err := kv.ZCard(ctx, store.KeyTrackingSet("t2_gone"))
	require.NoError(t, err)
	assert.Zero(t, count)

	// the batch fit in one sweep, no continuation needed
	assert.Empty(t, sched.jobs)
}

func TestSweep_ContinuesWhenBacklogExceedsBatch(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()
	m := new(reddit.MockClient)
	m.On("UserByID", mock.Anything, mock.Anything).
		Return(&reddit.User{ID: "t2_x", Username: "x"}, nil)
	sched := &stubScheduler{}

	for i := 0; i < SweepBatchSize+1; i++ {
		require.NoError(t, kv.ZAdd(ctx, store.KeySignsOfLife, store.ZMember{
			Member: "t2_user" + string(rune('a'+i%26)) + string(rune('a'+i/26)),
			Score:  float64(i),
		}))
	}

	sweeper := NewSweeper(kv, m, cache.New(kv, m), sched)
	require.NoError(t, sweeper.OnCheckSignsOfLife(ctx))

	assert.Len(t, sched.jobs, 1)
}

func TestSweep_NothingDue(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()
	m := new(reddit.MockClient)
	sched := &stubScheduler{}

	require.NoError(t, kv.ZAdd(ctx, store.KeySignsOfLife, store.ZMember{
		Member: "t2_later",
		Score:  float64(temporal.Future(time.Hour)),
	}))

	sweeper := NewSweeper(kv, m, cache.New(kv, m), sched)
	require.NoError(t, sweeper.OnCheckSignsOfLife(ctx))

	m.AssertNotCalled(t, "UserByID", mock.Anything, mock.Anything)
}
