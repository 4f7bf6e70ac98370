package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_TTLSemantics(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	now := time.Now()
	s.SetClock(func() time.Time { return now })

	require.NoError(t, s.SetEx(ctx, "k", "v", time.Minute))
	_, found, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)

	now = now.Add(2 * time.Minute)
	_, found, err = s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)

	// a plain Set clears any previous expiry
	require.NoError(t, s.SetEx(ctx, "k2", "v", time.Minute))
	require.NoError(t, s.Set(ctx, "k2", "v2"))
	now = now.Add(time.Hour)
	v, found, err := s.Get(ctx, "k2")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v2", v)
}

func TestMemoryStore_ZRangeByScoreOrdering(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.ZAdd(ctx, "z",
		ZMember{Member: "late", Score: 300},
		ZMember{Member: "early", Score: 100},
		ZMember{Member: "mid", Score: 200},
		ZMember{Member: "beyond", Score: 900},
	))

	got, err := s.ZRangeByScore(ctx, "z", 300)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "early", got[0].Member)
	assert.Equal(t, "mid", got[1].Member)
	assert.Equal(t, "late", got[2].Member)

	require.NoError(t, s.ZRem(ctx, "z", "early", "beyond"))
	count, err := s.ZCard(ctx, "z")
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}

func TestMemoryStore_HashIsolation(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.HSetAll(ctx, "h", map[string]string{"a": "1"}))
	require.NoError(t, s.HSetAll(ctx, "h", map[string]string{"b": "2"}))

	fields, err := s.HGetAll(ctx, "h")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, fields)

	// mutating the returned map must not leak into the store
	fields["a"] = "mutated"
	fresh, err := s.HGetAll(ctx, "h")
	require.NoError(t, err)
	assert.Equal(t, "1", fresh["a"])

	missing, err := s.HGetAll(ctx, "nope")
	require.NoError(t, err)
	assert.Empty(t, missing)
}
