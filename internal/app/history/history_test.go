package history

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatterbox/internal/app/db"
)

func TestMemoryArchive(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	empty, err := m.Recent(ctx, 10)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	for _, id := range []string{"1", "2", "3", "2"} {
		require.NoError(t, m.Append(ctx, Record{ID: id, Kind: KindMessage, Username: "Alice", Body: id}))
	}

	all, err := m.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)

	last, err := m.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, last, 2)
	assert.Equal(t, "2", last[0].ID)
	assert.Equal(t, "3", last[1].ID)
}

func TestNop(t *testing.T) {
	var a Archive = Nop{}

	require.NoError(t, a.Append(context.Background(), Record{ID: "x"}))
	records, err := a.Recent(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestPostgresArchive(t *testing.T) {
	dsn := os.Getenv("CHATTERBOX_TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("CHATTERBOX_TEST_DATABASE_DSN not set")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	a := NewPostgresArchive(pool, "http://test-"+uuid.NewString())

	now := time.Now().UTC().Truncate(time.Millisecond)
	first := Record{ID: uuid.NewString(), Kind: KindMessage, Username: "Alice", Body: "hi", At: now}
	second := Record{ID: uuid.NewString(), Kind: KindFile, Username: "Bob", FileName: "a.txt", At: now.Add(time.Second)}

	require.NoError(t, a.Append(ctx, first))
	require.NoError(t, a.Append(ctx, second))
	require.NoError(t, a.Append(ctx, first))

	records, err := a.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, first.ID, records[0].ID)
	assert.Equal(t, KindFile, records[1].Kind)
	assert.Equal(t, "a.txt", records[1].FileName)
}
