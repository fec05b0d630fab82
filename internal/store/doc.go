// Package store defines the keyed-table contract that backs every
// repository. Implementations live under internal/platform: an in-memory
// table, a postgres table, and a redis keyspace. All of them report
// expected failures through outcome.Outcome rather than bare errors.
package store
