package capture

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacesedan/openmod/internal/dedup"
	"github.com/spacesedan/openmod/internal/models"
	"github.com/spacesedan/openmod/internal/reddit"
	"github.com/spacesedan/openmod/internal/store"
)

// stubScheduler records one-shot jobs so tests can fire them on demand.
type stubScheduler struct {
	jobs []func()
}

func (s *stubScheduler) Cron(spec string, job func()) error { return nil }
func (s *stubScheduler) RunAt(t time.Time, job func())      { s.jobs = append(s.jobs, job) }

func clientSettings() models.AppSettings {
	s := models.DefaultSettings()
	s.TargetSubreddit = "archive"
	return s
}

func newTestCapture(kv *store.MemoryStore, client reddit.Client, settings models.AppSettings) (*Capture, *stubScheduler) {
	sched := &stubScheduler{}
	c := New(kv, dedup.NewLedger(kv), client, sched, func(ctx context.Context) models.AppSettings {
		return settings
	})
	return c, sched
}

func queuedMessages(t *testing.T, kv store.Store) []models.Message {
	t.Helper()
	members, err := kv.ZRangeByScore(context.Background(), store.KeyTransmissionQueue, float64(1<<60))
	require.NoError(t, err)

	out := make([]models.Message, 0, len(members))
	for _, m := range members {
		var msg models.Message
		require.NoError(t, json.Unmarshal([]byte(m.Member), &msg))
		out = append(out, msg)
	}
	return out
}

func commentEvent(ts int64) models.CommentEvent {
	return models.CommentEvent{
		Comment:   &models.CommentRef{ID: "t1_a", CreatedAt: 100, LastModifiedAt: ts},
		Author:    &models.EntityRef{ID: "t2_u", Name: "writer"},
		Subreddit: &models.EntityRef{ID: "t5_src", Name: "source"},
	}
}

func TestOnCommentChanged_QueuesSubmission(t *testing.T) {
	kv := store.NewMemoryStore()
	c, _ := newTestCapture(kv, new(reddit.MockClient), clientSettings())

	c.OnCommentChanged(context.Background(), commentEvent(0))

	queued := queuedMessages(t, kv)
	require.Len(t, queued, 1)
	assert.Equal(t, models.MessageCommentChanged, queued[0].Type)
	assert.Equal(t, "t1_a", queued[0].TID)
	assert.Equal(t, "t5_src", queued[0].SID)
	assert.EqualValues(t, 100, queued[0].TS)
	assert.Equal(t, models.ProtocolVersion, queued[0].V)
}

func TestOnCommentChanged_SuppressesResubmission(t *testing.T) {
	kv := store.NewMemoryStore()
	c, _ := newTestCapture(kv, new(reddit.MockClient), clientSettings())

	c.OnCommentChanged(context.Background(), commentEvent(0))

	// redelivered submission with a different timestamp would be a new
	// queue member, so the dedup marker is what must stop it
	c.OnCommentChanged(context.Background(), commentEvent(150))
	assert.Len(t, queuedMessages(t, kv), 1)

	// an edit of the same comment always goes through
	edit := commentEvent(200)
	previous := "old body"
	edit.PreviousBody = &previous
	c.OnCommentChanged(context.Background(), edit)

	queued := queuedMessages(t, kv)
	require.Len(t, queued, 2)
	assert.EqualValues(t, 200, queued[1].TS)
}

func TestOnPostChanged_QueuesWithUpdateTime(t *testing.T) {
	kv := store.NewMemoryStore()
	c, _ := newTestCapture(kv, new(reddit.MockClient), clientSettings())

	c.OnPostChanged(context.Background(), models.PostEvent{
		Post:      &models.PostRef{ID: "t3_p", CreatedAt: 100, UpdatedAt: 300},
		Author:    &models.EntityRef{ID: "t2_u", Name: "writer"},
		Subreddit: &models.EntityRef{ID: "t5_src", Name: "source"},
	})

	queued := queuedMessages(t, kv)
	require.Len(t, queued, 1)
	assert.Equal(t, models.MessagePostChanged, queued[0].Type)
	assert.EqualValues(t, 300, queued[0].TS)
}

func TestOnThingDeleted_CreatorDeletionQueues(t *testing.T) {
	kv := store.NewMemoryStore()
	c, _ := newTestCapture(kv, new(reddit.MockClient), clientSettings())

	c.OnThingDeleted(context.Background(), models.DeleteEvent{
		CommentID: "t1_a",
		Source:    models.DeletionSourceUser,
		Subreddit: &models.EntityRef{ID: "t5_src", Name: "source"},
		DeletedAt: 500,
	})

	queued := queuedMessages(t, kv)
	require.Len(t, queued, 1)
	assert.Equal(t, models.MessageCommentDelete, queued[0].Type)
	assert.Equal(t, "t1_a", queued[0].TID)
	assert.EqualValues(t, 500, queued[0].TS)
}

func TestOnThingDeleted_ModeratorRemovalIgnored(t *testing.T) {
	kv := store.NewMemoryStore()
	c, _ := newTestCapture(kv, new(reddit.MockClient), clientSettings())

	c.OnThingDeleted(context.Background(), models.DeleteEvent{
		PostID:    "t3_p",
		Source:    2,
		Subreddit: &models.EntityRef{ID: "t5_src", Name: "source"},
		DeletedAt: 500,
	})

	assert.Empty(t, queuedMessages(t, kv))
}

func TestCaptureInactiveWithoutDestination(t *testing.T) {
	kv := store.NewMemoryStore()
	c, sched := newTestCapture(kv, new(reddit.MockClient), models.DefaultSettings())

	c.OnCommentChanged(context.Background(), commentEvent(0))
	c.OnThingDeleted(context.Background(), models.DeleteEvent{
		CommentID: "t1_a",
		Source:    models.DeletionSourceUser,
		Subreddit: &models.EntityRef{ID: "t5_src"},
	})
	c.OnModAction(context.Background(), models.ModActionEvent{
		Action:     "removelink",
		Moderator:  &models.EntityRef{Name: "alice"},
		TargetUser: &models.EntityRef{Name: "writer"},
		Subreddit:  &models.EntityRef{ID: "t5_src", Name: "source"},
	})

	assert.Empty(t, queuedMessages(t, kv))
	assert.Empty(t, sched.jobs)
}
