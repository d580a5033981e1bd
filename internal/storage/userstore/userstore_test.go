package userstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := New(Config{Dir: t.TempDir()})
	require.NoError(t, err)
	return store
}

func TestStore_SaveLoad(t *testing.T) {
	store := newTestStore(t)

	rec := &UserRecord{
		Name:           "alice",
		Email:          "alice@example.com",
		HashedPassword: JoinCredential("somesalt", "somehash"),
		Color:          3,
	}
	require.NoError(t, store.Save(rec))
	require.NotEmpty(t, rec.ID, "save must assign an id")

	loaded, err := store.Load(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec, loaded)
}

func TestStore_SaveValidation(t *testing.T) {
	store := newTestStore(t)

	tests := []struct {
		name     string
		rec      *UserRecord
		expected error
	}{
		{name: "Nil record", rec: nil, expected: ErrNilRecord},
		{name: "Empty name", rec: &UserRecord{Email: "x@example.com"}, expected: ErrEmptyName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, store.Save(tt.rec), tt.expected)
		})
	}
}

func TestStore_LoadUnknownID(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Load("no-such-id")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestStore_ListAll(t *testing.T) {
	store := newTestStore(t)

	a := &UserRecord{Name: "alice", Email: "alice@example.com"}
	b := &UserRecord{Name: "bob", Email: "bob@example.com"}
	require.NoError(t, store.Save(a))
	require.NoError(t, store.Save(b))

	// foreign files are skipped
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), "notes.txt"), []byte("x"), 0o644))

	records, err := store.ListAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, a, records[a.ID])
	assert.Equal(t, b, records[b.ID])
}

func TestStore_FindByEmail(t *testing.T) {
	store := newTestStore(t)

	rec := &UserRecord{Name: "alice", Email: "alice@example.com"}
	require.NoError(t, store.Save(rec))

	found, err := store.FindByEmail("alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, rec.ID, found.ID)

	_, err = store.FindByEmail("nobody@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestStore_Delete(t *testing.T) {
	store := newTestStore(t)

	rec := &UserRecord{Name: "alice", Email: "alice@example.com"}
	require.NoError(t, store.Save(rec))

	require.NoError(t, store.Delete(rec.ID))
	_, err := store.Load(rec.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)

	// deleting again is not an error
	assert.NoError(t, store.Delete(rec.ID))
}

func TestSplitCredential(t *testing.T) {
	tests := []struct {
		name   string
		stored string
		salt   string
		hash   string
		ok     bool
	}{
		{name: "Well formed", stored: JoinCredential("salt", "hash"), salt: "salt", hash: "hash", ok: true},
		{name: "No separator", stored: "salthash", salt: "salthash", hash: "", ok: false},
		{name: "Empty", stored: "", salt: "", hash: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			salt, hash, ok := SplitCredential(tt.stored)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.salt, salt)
			assert.Equal(t, tt.hash, hash)
		})
	}
}
