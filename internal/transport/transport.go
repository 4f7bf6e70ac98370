// Package transport moves batches of protocol messages between two
// isolated instances over a shared wiki page. The client serializes,
// compresses, and overwrites the destination's events document; the server
// picks up the revision notification, authenticates it, and re-queues the
// messages for processing.
package transport

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Wiki documents shared between peers.
const (
	WP_OPEN_MOD_EVENTS = "open-mod/v2/events"
	WP_VERSION         = "open-mod/v2/version"
	WP_SIGNING_KEY     = "open-mod/v2/keys/signing"
	WP_EXCHANGE_KEY    = "open-mod/v2/keys/exchange"
)

// compress gzips the payload and encodes it for storage in a text
// document.
func compress(payload string) (string, error) {
	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return "", err
	}
	if _, err := w.Write([]byte(payload)); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func decompress(content string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(content)
	if err != nil {
		return "", fmt.Errorf("[Transport] payload is not valid base64: %w", err)
	}

	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("[Transport] payload is not valid gzip: %w", err)
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// versionAtLeast reports whether got is the same version as want or newer.
// Versions are dotted integer strings; anything unparseable fails the
// check.
func versionAtLeast(got, want string) bool {
	gotParts := strings.Split(strings.TrimSpace(got), ".")
	wantParts := strings.Split(strings.TrimSpace(want), ".")

	for i := 0; i < len(wantParts); i++ {
		w, err := strconv.Atoi(wantParts[i])
		if err != nil {
			return false
		}

		g := 0
		if i < len(gotParts) {
			var err error
			g, err = strconv.Atoi(gotParts[i])
			if err != nil {
				return false
			}
		}

		if g > w {
			return true
		}
		if g < w {
			return false
		}
	}
	return true
}
