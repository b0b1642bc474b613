// Package artifact stores generated reports until they are downloaded or
// expire.
//
// FileStore keeps report bytes on disk and indexes them in SQLite.
// RedisStore keeps them in Redis under a key TTL. Both hand out opaque
// UUID references; a missing, malformed, or expired reference yields
// ErrNotFound.
package artifact
