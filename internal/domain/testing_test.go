package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestAccount(t *testing.T) AccountInfo {
	t.Helper()
	a, err := NewAccountInfo(RandomID[AccountRole](), "Ada Lovelace")
	require.NoError(t, err)
	return a
}

func newTestLibrary(t *testing.T) LibraryInfo {
	t.Helper()
	l, err := NewLibraryInfo(RandomID[LibraryRole](), "Branch 1")
	require.NoError(t, err)
	return l
}
