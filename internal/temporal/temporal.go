// Package temporal holds the epoch-millisecond conveniences used across the
// pipeline; all protocol timestamps and queue scores are in this unit.
package temporal

import "time"

func Now() int64 { return time.Now().UnixMilli() }

func ToTime(ms int64) time.Time { return time.UnixMilli(ms).UTC() }

func Future(d time.Duration) int64 { return time.Now().Add(d).UnixMilli() }
