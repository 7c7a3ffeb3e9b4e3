package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestYAMLLocalStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wordday", "local.yml")

	store := NewYAMLLocalStore(path)
	_, ok, err := store.Get(KeyAttempts)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(KeyAttempts, []byte("7")))
	require.NoError(t, store.Set(KeyDay, []byte(`{"day":2,"datetime":1741518000000}`)))

	// A fresh store reads what the first one wrote.
	reopened := NewYAMLLocalStore(path)
	got, ok, err := reopened.Get(KeyAttempts)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("7"), got)

	all, err := reopened.All()
	require.NoError(t, err)
	assert.Equal(t, map[string][]byte{
		KeyAttempts: []byte("7"),
		KeyDay:      []byte(`{"day":2,"datetime":1741518000000}`),
	}, all)
}

func TestYAMLLocalStore_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "local.yml")
	require.NoError(t, os.WriteFile(path, []byte("- not\n- a map\n"), 0o644))

	store := NewYAMLLocalStore(path)
	_, _, err := store.Get(KeyDay)
	assert.Error(t, err)
}

func TestMemoryLocalStore(t *testing.T) {
	store := NewMemoryLocalStore()

	value := []byte("3")
	require.NoError(t, store.Set(KeyAttempts, value))
	value[0] = '9'

	got, ok, err := store.Get(KeyAttempts)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("3"), got)

	_, ok, err = store.Get(KeyHistory)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDecodeDay(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantDay    int
		wantMillis int64
		wantNil    bool
		wantErr    bool
	}{
		{name: "idle day", raw: `{"day":1,"datetime":null}`, wantDay: 1, wantNil: true},
		{name: "active day", raw: `{"day":4,"datetime":1741518000000}`, wantDay: 4, wantMillis: 1741518000000},
		{name: "day below one", raw: `{"day":0,"datetime":null}`, wantErr: true},
		{name: "negative datetime", raw: `{"day":2,"datetime":-5}`, wantErr: true},
		{name: "not an object", raw: `"three"`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			day, datetime, err := decodeDay([]byte(tt.raw))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantDay, day)
			if tt.wantNil {
				assert.Nil(t, datetime)
				return
			}
			require.NotNil(t, datetime)
			assert.Equal(t, tt.wantMillis, datetime.UnixMilli())
		})
	}
}
