// Package hash provides keyed digests for values that must be looked up without
// being stored in the clear.
//
// Verification tokens are never used as storage keys directly. Their HMAC-SHA256
// fingerprint keys the consumed-token set and the latest-token pointer in the
// cache, so a cache dump reveals nothing that can be replayed.
package hash
