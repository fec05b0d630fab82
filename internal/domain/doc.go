// Package domain contains the library's business records and the typed
// identifiers that key them. Records are immutable values: every business
// operation returns a new record inside an outcome.Outcome and leaves the
// receiver untouched.
package domain
