package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "pos.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSetGetDelete(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	got, err := s.Get(ctx, "allOrders")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, s.Set(ctx, "allOrders", []byte(`[]`), 0))
	require.NoError(t, s.Set(ctx, "allOrders", []byte(`[{"orderNumber":"ORD1"}]`), 0))

	got, err = s.Get(ctx, "allOrders")
	require.NoError(t, err)
	assert.Equal(t, `[{"orderNumber":"ORD1"}]`, string(got))

	require.NoError(t, s.Set(ctx, "currentOrder", []byte(`{}`), 0))
	require.NoError(t, s.Delete(ctx, "allOrders", "currentOrder"))

	got, err = s.Get(ctx, "allOrders")
	require.NoError(t, err)
	assert.Nil(t, got)
	require.NoError(t, s.Ping(ctx))
}

func TestExpiry(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	now := time.Date(2024, 12, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	require.NoError(t, s.Set(ctx, "pos:cart:1", []byte(`[]`), time.Minute))
	got, err := s.Get(ctx, "pos:cart:1")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(got))

	now = now.Add(time.Hour)
	got, err = s.Get(ctx, "pos:cart:1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pos.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "allOrders", []byte(`[1]`), 0))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Get(ctx, "allOrders")
	require.NoError(t, err)
	assert.Equal(t, "[1]", string(got))
}
