package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setMemoryEnv(t *testing.T, snapshotPath string) {
	t.Helper()
	t.Setenv("LIBRARIAN_STORE_BACKEND", "memory")
	t.Setenv("LIBRARIAN_STORE_SNAPSHOT_PATH", snapshotPath)
	t.Setenv("LIBRARIAN_LOGGING_LEVEL", "error")
}

func TestRunDemo(t *testing.T) {
	setMemoryEnv(t, "")
	var stdout, stderr bytes.Buffer

	err := run(context.Background(), []string{"demo"}, &stdout, &stderr)

	require.NoError(t, err, stderr.String())
	assert.Contains(t, stdout.String(), "ok    transfer Dune from Ada to Grace")
	assert.Contains(t, stdout.String(), "ok    move Solaris to East Branch")
	assert.Contains(t, stdout.String(), "Dune is with UUID2:Role.User@")
	assert.NotContains(t, stdout.String(), "FAIL")
}

func TestDemoStateIsSnapshotted(t *testing.T) {
	setMemoryEnv(t, filepath.Join(t.TempDir(), "librarian.db"))
	ctx := context.Background()
	var stdout, stderr bytes.Buffer

	require.NoError(t, run(ctx, []string{"demo"}, &stdout, &stderr), stderr.String())

	stdout.Reset()
	require.NoError(t, run(ctx, []string{"dump"}, &stdout, &stderr), stderr.String())
	assert.Contains(t, stdout.String(), "Main Branch")
	assert.Contains(t, stdout.String(), "Grace Hopper")
}

func TestRunHealth(t *testing.T) {
	setMemoryEnv(t, filepath.Join(t.TempDir(), "librarian.db"))
	var stdout, stderr bytes.Buffer

	require.NoError(t, run(context.Background(), []string{"health"}, &stdout, &stderr), stderr.String())
	assert.Equal(t, "ok memory\n", stdout.String())
}

func TestRunUsageErrors(t *testing.T) {
	setMemoryEnv(t, "")

	tests := []struct {
		name string
		args []string
	}{
		{"no command", nil},
		{"unknown command", []string{"shelve"}},
		{"unknown flag", []string{"-verbose", "demo"}},
		{"migrate without command", []string{"migrate"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			err := run(context.Background(), tt.args, &stdout, &stderr)
			assert.ErrorIs(t, err, errUsage)
		})
	}
}

func TestMigrateNeedsDatabaseURL(t *testing.T) {
	setMemoryEnv(t, "")
	t.Setenv("LIBRARIAN_DATABASE_URL", "")
	var stdout, stderr bytes.Buffer

	err := run(context.Background(), []string{"migrate", "up"}, &stdout, &stderr)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.url")
}
