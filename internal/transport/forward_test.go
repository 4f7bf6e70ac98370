package transport

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/spacesedan/openmod/internal/models"
	"github.com/spacesedan/openmod/internal/reddit"
	"github.com/spacesedan/openmod/internal/store"
)

func clientSettings() models.AppSettings {
	s := models.DefaultSettings()
	s.TargetSubreddit = "archive"
	return s
}

func settingsSource(s models.AppSettings) SettingsSource {
	return func(ctx context.Context) models.AppSettings { return s }
}

func queueMessage(t *testing.T, kv store.Store, msg models.Message) {
	t.Helper()
	raw, err := json.Marshal(msg)
	require.NoError(t, err)
	require.NoError(t, kv.ZAdd(context.Background(), store.KeyTransmissionQueue, store.ZMember{
		Member: string(raw),
		Score:  float64(msg.TS),
	}))
}

func TestForwardThenIngestRoundTrip(t *testing.T) {
	ctx := context.Background()

	// client side: two queued messages
	clientStore := store.NewMemoryStore()
	queueMessage(t, clientStore, models.Message{
		Type: models.MessageCommentChanged, V: 2, TID: "t1_a", SID: "t5_src", TS: 2000,
	})
	queueMessage(t, clientStore, models.Message{
		Type: models.MessagePostChanged, V: 2, TID: "t3_b", SID: "t5_src", TS: 1000,
	})

	var shipped string
	clientReddit := new(reddit.MockClient)
	clientReddit.On("WikiPage", mock.Anything, "archive", WP_VERSION).
		Return(&reddit.WikiPage{Content: "2.0.0"}, nil)
	clientReddit.On("UpdateWikiPage", mock.Anything, "archive", WP_OPEN_MOD_EVENTS, mock.Anything).
		Run(func(args mock.Arguments) { shipped = args.String(3) }).
		Return(nil)

	forwarder := NewForwarder(clientStore, clientReddit, settingsSource(clientSettings()), "2.0.0", "t5_src")
	require.NoError(t, forwarder.OnForwardEvents(ctx))

	remaining, err := clientStore.ZCard(ctx, store.KeyTransmissionQueue)
	require.NoError(t, err)
	assert.Zero(t, remaining)
	require.NotEmpty(t, shipped)
	assert.NotEqual(t, byte('{'), shipped[0])

	// server side: the wiki revision notification unpacks the same batch
	serverStore := store.NewMemoryStore()
	serverReddit := new(reddit.MockClient)
	serverReddit.On("WikiPage", mock.Anything, "archive", WP_OPEN_MOD_EVENTS).
		Return(&reddit.WikiPage{Content: shipped, RevisionID: "rev-1", RevisionAuthor: "openmod-app"}, nil)

	ingestor := NewIngestor(serverStore, serverReddit, "openmod-app")
	revision := models.ModActionEvent{
		Action:    "wikirevise",
		Subreddit: &models.EntityRef{ID: "t5_dst", Name: "archive"},
	}
	require.NoError(t, ingestor.OnWikiRevision(ctx, revision))

	queued, err := serverStore.ZRangeByScore(ctx, store.KeyEvents, float64(1<<60))
	require.NoError(t, err)
	require.Len(t, queued, 3)

	// the settings snapshot rides first at priority zero
	var first models.Message
	require.NoError(t, json.Unmarshal([]byte(queued[0].Member), &first))
	assert.Equal(t, models.MessageSettingsUpdated, first.Type)
	assert.Equal(t, models.SettingsProtocolVersion, first.V)
	assert.Equal(t, "t5_src", first.SID)
	require.NotNil(t, first.Settings)
	assert.Equal(t, "archive", first.Settings.TargetSubreddit)

	var second models.Message
	require.NoError(t, json.Unmarshal([]byte(queued[1].Member), &second))
	assert.Equal(t, models.MessagePostChanged, second.Type)

	// re-delivery of the same revision must not double-queue
	require.NoError(t, ingestor.OnWikiRevision(ctx, revision))
	count, err := serverStore.ZCard(ctx, store.KeyEvents)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)
}

func TestForwardPausesWithoutFeatureParity(t *testing.T) {
	ctx := context.Background()

	kv := store.NewMemoryStore()
	queueMessage(t, kv, models.Message{
		Type: models.MessageCommentChanged, V: 2, TID: "t1_a", SID: "t5_src", TS: 1000,
	})

	m := new(reddit.MockClient)
	// the destination has not published a version document yet
	m.On("WikiPage", mock.Anything, "archive", WP_VERSION).Return(nil, nil)

	forwarder := NewForwarder(kv, m, settingsSource(clientSettings()), "2.0.0", "t5_src")
	require.NoError(t, forwarder.OnForwardEvents(ctx))

	// nothing drained, nothing written
	count, err := kv.ZCard(ctx, store.KeyTransmissionQueue)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
	_, found, err := kv.Get(ctx, store.KeyLastKnownSettings)
	require.NoError(t, err)
	assert.False(t, found)
	m.AssertNotCalled(t, "UpdateWikiPage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestForwardIdleWithoutDestination(t *testing.T) {
	kv := store.NewMemoryStore()
	m := new(reddit.MockClient)

	forwarder := NewForwarder(kv, m, settingsSource(models.DefaultSettings()), "2.0.0", "t5_src")
	require.NoError(t, forwarder.OnForwardEvents(context.Background()))

	m.AssertNotCalled(t, "WikiPage", mock.Anything, mock.Anything, mock.Anything)
}

func TestForwardSkipsUnchangedSettings(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()

	settings := clientSettings()
	hash, err := settings.Hash()
	require.NoError(t, err)
	require.NoError(t, kv.Set(ctx, store.KeyLastKnownSettings, hash))

	m := new(reddit.MockClient)
	m.On("WikiPage", mock.Anything, "archive", WP_VERSION).
		Return(&reddit.WikiPage{Content: "2.0.0"}, nil)

	forwarder := NewForwarder(kv, m, settingsSource(settings), "2.0.0", "t5_src")
	require.NoError(t, forwarder.OnForwardEvents(ctx))

	// empty queue and unchanged settings mean nothing to ship
	m.AssertNotCalled(t, "UpdateWikiPage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestIngestRejectsForeignAuthors(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()

	m := new(reddit.MockClient)
	m.On("WikiPage", mock.Anything, "archive", WP_OPEN_MOD_EVENTS).
		Return(&reddit.WikiPage{Content: `{"type":"commentChanged","v":2,"ts":1}`, RevisionID: "rev-9", RevisionAuthor: "mallory"}, nil)

	ingestor := NewIngestor(kv, m, "openmod-app")
	err := ingestor.OnWikiRevision(ctx, models.ModActionEvent{
		Action:    "wikirevise",
		Subreddit: &models.EntityRef{Name: "archive"},
	})
	require.NoError(t, err)

	count, err := kv.ZCard(ctx, store.KeyEvents)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestIngestIgnoresOtherActions(t *testing.T) {
	kv := store.NewMemoryStore()
	m := new(reddit.MockClient)

	ingestor := NewIngestor(kv, m, "openmod-app")
	err := ingestor.OnWikiRevision(context.Background(), models.ModActionEvent{
		Action:    "banuser",
		Subreddit: &models.EntityRef{Name: "archive"},
	})
	require.NoError(t, err)
	m.AssertNotCalled(t, "WikiPage", mock.Anything, mock.Anything, mock.Anything)
}
