package pipeline

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/spacesedan/openmod/internal/cache"
	"github.com/spacesedan/openmod/internal/dedup"
	"github.com/spacesedan/openmod/internal/models"
	"github.com/spacesedan/openmod/internal/reddit"
	"github.com/spacesedan/openmod/internal/store"
	"github.com/spacesedan/openmod/internal/temporal"
)

func newTestPipeline(kv *store.MemoryStore, client reddit.Client) *Pipeline {
	return New(kv, client, cache.New(kv, client), dedup.NewLedger(kv))
}

func ingestMessage(t *testing.T, kv store.Store, msg models.Message) {
	t.Helper()
	raw, err := json.Marshal(msg)
	require.NoError(t, err)
	require.NoError(t, kv.ZAdd(context.Background(), store.KeyEvents, store.ZMember{
		Member: string(raw),
		Score:  float64(msg.TS),
	}))
}

func TestProcessQueue_CachesChangedComment(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()
	m := new(reddit.MockClient)
	m.On("CommentByID", mock.Anything, "t1_a").
		Return(&reddit.Comment{
			ID:         "t1_a",
			AuthorID:   "t2_u",
			AuthorName: "writer",
			Body:       "hello",
			Permalink:  "/r/source/comments/x/y/t1_a",
			CreatedAt:  100,
		}, nil)
	m.On("UserByUsername", mock.Anything, "writer").
		Return(&reddit.User{ID: "t2_u", Username: "writer"}, nil)

	p := newTestPipeline(kv, m)
	ingestMessage(t, kv, models.Message{
		Type: models.MessageCommentChanged, V: 2, TID: "t1_a", SID: "t5_src",
		TS: temporal.Now() - 1000,
	})
	require.NoError(t, p.OnProcessQueue(ctx))

	// drained
	count, err := kv.ZCard(ctx, store.KeyEvents)
	require.NoError(t, err)
	assert.Zero(t, count)

	// comment and author cached, content tracked against the author
	fields, err := kv.HGetAll(ctx, store.KeyCachedThing("t1_a"))
	require.NoError(t, err)
	assert.Equal(t, "hello", fields["body"])
	fields, err = kv.HGetAll(ctx, store.KeyCachedThing("t2_u"))
	require.NoError(t, err)
	assert.Equal(t, "writer", fields["username"])
	tracked, err := kv.ZCard(ctx, store.KeyTrackingSet("t2_u"))
	require.NoError(t, err)
	assert.EqualValues(t, 1, tracked)
}

func TestProcessQueue_GoneContentIsSkipped(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()
	m := new(reddit.MockClient)
	m.On("PostByID", mock.Anything, "t3_gone").Return(nil, nil)

	p := newTestPipeline(kv, m)
	ingestMessage(t, kv, models.Message{
		Type: models.MessagePostChanged, V: 2, TID: "t3_gone", SID: "t5_src",
		TS: temporal.Now() - 1000,
	})
	require.NoError(t, p.OnProcessQueue(ctx))

	count, err := kv.ZCard(ctx, store.KeyEvents)
	require.NoError(t, err)
	assert.Zero(t, count)
	fields, err := kv.HGetAll(ctx, store.KeyCachedThing("t3_gone"))
	require.NoError(t, err)
	assert.Empty(t, fields)
}

func TestProcessQueue_LeavesFutureMessages(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()
	p := newTestPipeline(kv, new(reddit.MockClient))

	ingestMessage(t, kv, models.Message{
		Type: models.MessageCommentChanged, V: 2, TID: "t1_later", SID: "t5_src",
		TS: temporal.Now() + 60_000,
	})
	require.NoError(t, p.OnProcessQueue(ctx))

	count, err := kv.ZCard(ctx, store.KeyEvents)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestHandleThingDelete_EvictsOnce(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()
	m := new(reddit.MockClient)
	p := newTestPipeline(kv, m)

	_, err := p.cache.PutComment(ctx, &reddit.Comment{ID: "t1_a", AuthorID: "t2_u", Body: "x"})
	require.NoError(t, err)

	msg := models.Message{Type: models.MessageCommentDelete, V: 2, TID: "t1_a", SID: "t5_src", TS: 1000}
	require.NoError(t, p.handleThingDelete(ctx, msg))

	fields, err := kv.HGetAll(ctx, store.KeyCachedThing("t1_a"))
	require.NoError(t, err)
	assert.Empty(t, fields)

	// the redelivered deletion is absorbed by the marker
	require.NoError(t, p.handleThingDelete(ctx, msg))
}

func TestHandleSettingsUpdated_StoresSnapshot(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()
	p := newTestPipeline(kv, new(reddit.MockClient))

	snapshot := models.DefaultSettings()
	snapshot.TargetSubreddit = "archive"
	snapshot.UseMentions = false
	require.NoError(t, p.handleSettingsUpdated(ctx, models.Message{
		Type: models.MessageSettingsUpdated, V: 3, SID: "t5_src", Settings: &snapshot,
	}))

	got := p.reportingSettings(ctx, "t5_src")
	assert.Equal(t, "archive", got.TargetSubreddit)
	assert.False(t, got.UseMentions)

	// a community that never sent a snapshot falls back to defaults
	got = p.reportingSettings(ctx, "t5_other")
	assert.True(t, got.UseMentions)
	assert.False(t, got.IncludeFullLog)
}

func TestHandleSettingsUpdated_RejectsEmptySnapshot(t *testing.T) {
	p := newTestPipeline(store.NewMemoryStore(), new(reddit.MockClient))
	err := p.handleSettingsUpdated(context.Background(), models.Message{
		Type: models.MessageSettingsUpdated, V: 3, SID: "t5_src",
	})
	assert.Error(t, err)
}

func TestDispatch_UnknownTypeIsDropped(t *testing.T) {
	p := newTestPipeline(store.NewMemoryStore(), new(reddit.MockClient))
	require.NoError(t, p.dispatch(context.Background(), `{"type":"holographicMessage","v":9}`))
	require.NoError(t, p.dispatch(context.Background(), `not json at all`))
}
