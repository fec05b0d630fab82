// Package postgres stores library records in a single PostgreSQL table of
// jsonb payloads keyed by (tag, id). The schema ships as embedded goose
// migrations; see Migrate.
package postgres
