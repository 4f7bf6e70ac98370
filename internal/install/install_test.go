package install

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/spacesedan/openmod/internal/reddit"
	"github.com/spacesedan/openmod/internal/store"
	"github.com/spacesedan/openmod/internal/transport"
)

func TestRun_PublishesAndProvisions(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()

	// a stale sentinel from an interrupted drain
	require.NoError(t, kv.Set(ctx, store.KeyProcessing, "1"))

	m := new(reddit.MockClient)
	m.On("CurrentSubredditName", mock.Anything).Return("archive", nil)
	m.On("UpdateWikiPage", mock.Anything, "archive", transport.WP_VERSION, "2.0.0").Return(nil)
	m.On("UpdateWikiPage", mock.Anything, "archive", transport.WP_SIGNING_KEY, mock.Anything).Return(nil).Once()
	m.On("UpdateWikiPage", mock.Anything, "archive", transport.WP_EXCHANGE_KEY, mock.Anything).Return(nil).Once()

	installer := New(kv, m, "2.0.0")
	require.NoError(t, installer.Run(ctx))

	_, found, err := kv.Get(ctx, store.KeyProcessing)
	require.NoError(t, err)
	assert.False(t, found)

	signing, found, err := kv.Get(ctx, store.KeySigningPrivate)
	require.NoError(t, err)
	require.True(t, found)
	exchange, found, err := kv.Get(ctx, store.KeyExchangePrivate)
	require.NoError(t, err)
	require.True(t, found)

	// a second run keeps the existing keys; the Once() expectations above
	// fail if the key documents are republished
	require.NoError(t, installer.Run(ctx))
	signingAgain, _, err := kv.Get(ctx, store.KeySigningPrivate)
	require.NoError(t, err)
	assert.Equal(t, signing, signingAgain)
	exchangeAgain, _, err := kv.Get(ctx, store.KeyExchangePrivate)
	require.NoError(t, err)
	assert.Equal(t, exchange, exchangeAgain)
	m.AssertExpectations(t)
}

func TestRun_FailsWithoutHomeSubreddit(t *testing.T) {
	m := new(reddit.MockClient)
	m.On("CurrentSubredditName", mock.Anything).Return("", nil)

	installer := New(store.NewMemoryStore(), m, "2.0.0")
	assert.Error(t, installer.Run(context.Background()))
}
