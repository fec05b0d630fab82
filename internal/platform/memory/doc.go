// Package memory implements store.Store over a mutex-guarded map. It is the
// default backend and the one the other backends are tested against.
package memory
