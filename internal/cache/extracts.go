package cache

import (
	"context"
	"encoding/json"

	"github.com/spacesedan/openmod/internal/models"
	"github.com/spacesedan/openmod/internal/store"
	"github.com/spacesedan/openmod/internal/temporal"
)

// RecordModAction maps a moderated thing to the public post documenting it.
func (c *Cache) RecordModAction(ctx context.Context, thingID, postID string) error {
	return c.store.ZAdd(ctx, store.KeyModActions(thingID), store.ZMember{
		Member: postID,
		Score:  float64(temporal.Now()),
	})
}

// PutExtract retains the originating message of a public post, keyed by the
// post id, for potential reconstruction.
func (c *Cache) PutExtract(ctx context.Context, postID string, msg models.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return c.store.Set(ctx, store.KeyExtract(postID), string(data))
}
