package store

// Key namespaces. Everything an instance knows lives in the shared store;
// nothing of consequence is held in memory between invocations.

const (
	// KeyTransmissionQueue is the client-side mailbox of outgoing messages,
	// scored by event timestamp.
	KeyTransmissionQueue = "events-for-processing"

	// KeyEvents is the server-side ingestion queue, scored by each
	// message's own timestamp.
	KeyEvents = "events"

	// KeyProcessing is the best-effort drain sentinel, cleared on install.
	KeyProcessing = "processing"

	// KeySignsOfLife is the liveness set of observed users, scored by the
	// time of their next check.
	KeySignsOfLife = "signs-of-life"

	// KeyQueueLastRevision remembers the last wiki revision ingested.
	KeyQueueLastRevision = "queue-last-revision"

	// KeyLastKnownSettings holds the hash of the settings snapshot most
	// recently forwarded.
	KeyLastKnownSettings = "last-known-settings"

	// KeySigningPrivate and KeyExchangePrivate hold generated key material,
	// provisioned at install time.
	KeySigningPrivate  = "keys:signing"
	KeyExchangePrivate = "keys:exchange"
)

// KeyEventMarker namespaces duplicate markers.
func KeyEventMarker(id string) string { return "event:" + id }

// DeleteMarker namespaces deletion events within the duplicate ledger, so
// that an id can legitimately appear in both a creation and a deletion
// event.
func DeleteMarker(thingID string) string { return "delete:" + thingID }

// KeyCachedThing holds the cached entity for a thing id.
func KeyCachedThing(thingID string) string { return "cache:" + thingID }

// KeyTrackingSet is the per-author sorted set of content ids, scored by
// creation time.
func KeyTrackingSet(userID string) string { return "user:" + userID }

// KeyModActions maps a moderated thing to the public posts documenting it.
func KeyModActions(thingID string) string { return "mod-actions:" + thingID }

// KeyExtract stores the originating message of a public post.
func KeyExtract(postID string) string { return "extract:" + postID }

// KeyDelayedModAction stages a raw mod action notification awaiting
// enrichment.
func KeyDelayedModAction(fingerprint string) string { return "delayed-mod-action:" + fingerprint }

// KeySettings holds the settings snapshot of one reporting community.
func KeySettings(subredditID string) string { return "settings:" + subredditID }
