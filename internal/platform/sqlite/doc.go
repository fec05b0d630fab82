// Package sqlite persists opaque state snapshots, one JSON blob per
// bucket, in a single SQLite file. The memory backend uses it to survive
// restarts.
package sqlite
