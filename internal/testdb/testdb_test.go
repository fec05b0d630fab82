//go:build integration

package testdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDatabaseURLOrder(t *testing.T) {
	t.Setenv(EnvDatabaseURL, "")
	t.Setenv(EnvLibrarianTestDBURL, "postgres://test")
	t.Setenv(EnvLibrarianDatabaseURL, "postgres://app")

	assert.Equal(t, "postgres://test", DatabaseURL())

	t.Setenv(EnvDatabaseURL, "postgres://first")
	assert.Equal(t, "postgres://first", DatabaseURL())
}

func TestMaskDatabaseURL(t *testing.T) {
	assert.Equal(t, "postgres://lib:xxxxx@db:5432/library", MaskDatabaseURL("postgres://lib:secret@db:5432/library"))
	assert.Equal(t, "postgres://db/library", MaskDatabaseURL("postgres://db/library"))
}
