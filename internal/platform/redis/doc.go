// Package redis stores library records as JSON strings under
// "<prefix>:<tag>:<uuid>" keys.
package redis
