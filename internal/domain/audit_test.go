package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditLogAppendDoesNotShareStorage(t *testing.T) {
	t.Parallel()

	var base AuditLog
	base = base.Append(epoch, "first", map[string]string{"k": "v"})

	a := base.Append(epoch, "second", nil)
	b := base.Append(epoch, "third", nil)

	require.Len(t, a, 2)
	require.Len(t, b, 2)
	assert.Equal(t, "second", a[1].Operation)
	assert.Equal(t, "third", b[1].Operation)

	a[0].Details["k"] = "changed"
	assert.Equal(t, "v", base[0].Details["k"])
	assert.Equal(t, "v", b[0].Details["k"])
}

func TestAuditLogKeepsSameTimestampEntries(t *testing.T) {
	t.Parallel()

	log := AuditLog(nil).Append(epoch, "a", nil).Append(epoch, "b", nil)

	require.Len(t, log, 2)
	assert.Equal(t, log[0].At, log[1].At)
	assert.Equal(t, epoch, log[0].Time())

	last, ok := log.Last()
	require.True(t, ok)
	assert.Equal(t, "b", last.Operation)

	_, ok = AuditLog(nil).Last()
	assert.False(t, ok)
}
