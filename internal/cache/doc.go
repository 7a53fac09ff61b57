// Package cache stores completed reviews on disk so that resubmitting the
// same code to the same model does not cost another upstream call.
//
// Entries are keyed by a SHA-256 digest of provider, model, language and the
// redacted prompt, and expire after a TTL. Writes go to a temporary file that
// is renamed into place, so concurrent readers never observe a partial entry.
//
// The default directory is $XDG_CACHE_HOME/critic (or the OS equivalent).
package cache
