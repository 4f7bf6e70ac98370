// Package install runs the bootstrap performed on startup and upgrades:
// clearing stale sentinels, publishing this build's version document, and
// provisioning the instance's key material.
package install

import (
	"context"
	"crypto/ecdh"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"

	"github.com/spacesedan/openmod/internal/reddit"
	"github.com/spacesedan/openmod/internal/store"
	"github.com/spacesedan/openmod/internal/transport"
)

type Installer struct {
	store  store.Store
	reddit reddit.Client

	// version is published to the local version document so peers can gate
	// on feature parity before forwarding.
	version string
}

func New(s store.Store, r reddit.Client, version string) *Installer {
	return &Installer{store: s, reddit: r, version: version}
}

// Run executes the bootstrap. It is idempotent; keys are only generated
// when none exist yet.
func (i *Installer) Run(ctx context.Context) error {
	// a drain interrupted by the previous shutdown may have left the
	// sentinel behind
	if err := i.store.Del(ctx, store.KeyProcessing); err != nil {
		return err
	}

	subreddit, err := i.reddit.CurrentSubredditName(ctx)
	if err != nil || subreddit == "" {
		return fmt.Errorf("[Install] i couldn't work out where i am - is reddit down?")
	}

	if err := i.reddit.UpdateWikiPage(ctx, subreddit, transport.WP_VERSION, i.version); err != nil {
		return fmt.Errorf("[Install] failed to publish version document: %w", err)
	}
	slog.Info("[Install] Published version document",
		slog.String("version", i.version))

	if err := i.provisionSigningKey(ctx, subreddit); err != nil {
		return err
	}
	if err := i.provisionExchangeKey(ctx, subreddit); err != nil {
		return err
	}

	slog.Info("[Install] Bootstrap complete")
	return nil
}

// provisionSigningKey generates an Ed25519 keypair on first run, keeping
// the private half in the store and publishing the public half for peers.
func (i *Installer) provisionSigningKey(ctx context.Context, subreddit string) error {
	_, found, err := i.store.Get(ctx, store.KeySigningPrivate)
	if err != nil {
		return err
	}
	if found {
		return nil
	}

	public, private, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return fmt.Errorf("[Install] failed to generate signing key: %w", err)
	}

	if err := i.store.Set(ctx, store.KeySigningPrivate, base64.StdEncoding.EncodeToString(private)); err != nil {
		return err
	}
	if err := i.reddit.UpdateWikiPage(ctx, subreddit, transport.WP_SIGNING_KEY, base64.StdEncoding.EncodeToString(public)); err != nil {
		return fmt.Errorf("[Install] failed to publish signing key: %w", err)
	}

	slog.Info("[Install] Provisioned signing key")
	return nil
}

// provisionExchangeKey does the same for the X25519 key agreement pair.
func (i *Installer) provisionExchangeKey(ctx context.Context, subreddit string) error {
	_, found, err := i.store.Get(ctx, store.KeyExchangePrivate)
	if err != nil {
		return err
	}
	if found {
		return nil
	}

	private, err := ecdh.X25519().GenerateKey(rand.Reader)
	if err != nil {
		return fmt.Errorf("[Install] failed to generate exchange key: %w", err)
	}

	if err := i.store.Set(ctx, store.KeyExchangePrivate, base64.StdEncoding.EncodeToString(private.Bytes())); err != nil {
		return err
	}
	if err := i.reddit.UpdateWikiPage(ctx, subreddit, transport.WP_EXCHANGE_KEY, base64.StdEncoding.EncodeToString(private.PublicKey().Bytes())); err != nil {
		return fmt.Errorf("[Install] failed to publish exchange key: %w", err)
	}

	slog.Info("[Install] Provisioned exchange key")
	return nil
}
