// Package dedup implements the duplicate ledger: a TTL'd set of previously
// seen event identifiers used by every ingress point of the pipeline.
package dedup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/spacesedan/openmod/internal/store"
	"github.com/spacesedan/openmod/internal/temporal"
)

// MarkerTTL bounds how long an event identifier is remembered.
const MarkerTTL = 14 * 24 * time.Hour

type Ledger struct {
	store store.Store
}

func NewLedger(s store.Store) *Ledger {
	return &Ledger{store: s}
}

// IsDuplicate reports whether id has been seen within the TTL window. The
// first observation records the id and returns false; later observations
// refresh the TTL without touching the recorded first-seen timestamp.
func (l *Ledger) IsDuplicate(ctx context.Context, id string) (bool, error) {
	key := store.KeyEventMarker(id)

	_, seen, err := l.store.Get(ctx, key)
	if err != nil {
		return false, err
	}

	if !seen {
		firstSeen := strconv.FormatInt(temporal.Now(), 10)
		if err := l.store.SetEx(ctx, key, firstSeen, MarkerTTL); err != nil {
			return false, err
		}
		return false, nil
	}

	if err := l.store.Expire(ctx, key, MarkerTTL); err != nil {
		return true, err
	}
	slog.Debug("[Ledger] Event is a duplicate, refreshed its expiry",
		slog.String("id", id))
	return true, nil
}

// Fingerprint derives a deterministic identifier for events that carry no
// stable id of their own, such as moderation actions.
func Fingerprint(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
