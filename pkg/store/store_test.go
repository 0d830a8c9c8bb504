package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	rec := Record{
		TesterID:    "t0",
		Credentials: Credentials{Product: "Chimera", Host: "10.0.0.5", Port: 22611, Password: "secret"},
		AddedAt:     time.Unix(1000, 0).UTC(),
	}
	require.NoError(t, s.Save(rec))

	loaded, ok, err := s.Load("t0")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, rec.TesterID, loaded.TesterID)
	assert.Equal(t, rec.Credentials, loaded.Credentials)
}

func TestStore_LoadMissingReturnsFalse(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	_, ok, err := s.Load("nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_ListOrdersNewestFirst(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Save(Record{TesterID: "t0", AddedAt: time.Unix(1000, 0).UTC()}))
	require.NoError(t, s.Save(Record{TesterID: "t1", AddedAt: time.Unix(2000, 0).UTC()}))

	records, err := s.List()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "t1", records[0].TesterID)
	assert.Equal(t, "t0", records[1].TesterID)
}

func TestStore_DeleteRemovesRecord(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, s.Save(Record{TesterID: "t0", AddedAt: time.Unix(1000, 0).UTC()}))

	require.NoError(t, s.Delete("t0"))

	_, ok, err := s.Load("t0")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_DeleteMissingIsNotAnError(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	assert.NoError(t, s.Delete("never-existed"))
}

func TestStore_TouchUpdatesLastSeen(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, s.Save(Record{TesterID: "t0", AddedAt: time.Unix(1000, 0).UTC()}))

	now := time.Unix(5000, 0).UTC()
	require.NoError(t, s.Touch("t0", now))

	loaded, ok, err := s.Load("t0")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, now, loaded.LastSeenAt)
}

func TestStore_TouchMissingIsNoOp(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	assert.NoError(t, s.Touch("nope", time.Now()))
}
