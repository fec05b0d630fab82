package domain

import (
	"maps"
	"time"
)

// AuditEntry records one business operation applied to a record.
type AuditEntry struct {
	At        int64             `json:"at"`
	Operation string            `json:"operation"`
	Details   map[string]string `json:"details,omitempty"`
}

// Time returns the entry timestamp in UTC.
func (e AuditEntry) Time() time.Time {
	return time.UnixMilli(e.At).UTC()
}

// AuditLog is an append-only sequence of entries. Entries sharing a
// timestamp are all kept, in the order they were appended.
type AuditLog []AuditEntry

// Append returns a new log with one more entry. The receiver's backing
// array is never written to.
func (l AuditLog) Append(now time.Time, operation string, details map[string]string) AuditLog {
	return append(l.Clone(), AuditEntry{
		At:        now.UnixMilli(),
		Operation: operation,
		Details:   maps.Clone(details),
	})
}

// Clone deep-copies the log, including each entry's details map.
func (l AuditLog) Clone() AuditLog {
	if l == nil {
		return nil
	}
	out := make(AuditLog, len(l))
	for i, e := range l {
		out[i] = AuditEntry{At: e.At, Operation: e.Operation, Details: maps.Clone(e.Details)}
	}
	return out
}

// Last returns the most recent entry.
func (l AuditLog) Last() (AuditEntry, bool) {
	if len(l) == 0 {
		return AuditEntry{}, false
	}
	return l[len(l)-1], true
}
