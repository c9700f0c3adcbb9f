package cache

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/property-distress-service/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestFileStore(t *testing.T) (*FileStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cache", "resolutions.json")
	s, err := NewFileStore(path, discardLogger())
	require.NoError(t, err)
	return s, path
}

func TestFileStore_PersistsAcrossInstances(t *testing.T) {
	s, path := newTestFileStore(t)
	ctx := context.Background()

	want := found("abc")
	want.Record.Valuation = &domain.Valuation{Value: 410000}
	require.NoError(t, s.Put(ctx, want))
	require.NoError(t, s.Put(ctx, notFound("def")))

	reopened, err := NewFileStore(path, discardLogger())
	require.NoError(t, err)

	got, ok := mustGet(t, reopened, "abc")
	require.True(t, ok)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("entry mismatch (-want +got):\n%s", diff)
	}

	got, ok = mustGet(t, reopened, "def")
	require.True(t, ok)
	assert.True(t, got.NotFound())
	assert.True(t, got.CreatedAt.Equal(createdAt))
}

func TestFileStore_OnDiskFormat(t *testing.T) {
	s, path := newTestFileStore(t)
	require.NoError(t, s.Put(context.Background(), notFound("def")))

	b, err := os.ReadFile(path)
	require.NoError(t, err)

	var raw map[string]map[string]any
	require.NoError(t, json.Unmarshal(b, &raw))
	require.Contains(t, raw, "def")
	assert.Nil(t, raw["def"]["record"])
	assert.Equal(t, true, raw["def"]["not_found"])
	assert.Contains(t, raw["def"], "created_at")
}

func TestFileStore_CorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resolutions.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	s, err := NewFileStore(path, discardLogger())
	require.NoError(t, err)
	assert.Zero(t, s.Len())

	require.NoError(t, s.Put(context.Background(), found("a")))
	_, ok := mustGet(t, s, "a")
	assert.True(t, ok)
}

func TestFileStore_CorruptEntryIsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resolutions.json")
	content := `{"bad": {"record": null, "not_found": false}, "worse": "string"}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	s, err := NewFileStore(path, discardLogger())
	require.NoError(t, err)

	for _, key := range []string{"bad", "worse"} {
		_, ok, err := s.Get(context.Background(), key)
		require.Error(t, err, key)
		assert.False(t, ok)
	}
}

func TestFileStore_Clear(t *testing.T) {
	s, path := newTestFileStore(t)
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, found("a")))

	require.NoError(t, s.Clear(ctx))
	assert.Zero(t, s.Len())
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// Clearing twice is fine.
	require.NoError(t, s.Clear(ctx))
}

func TestFileStore_CheckReadiness(t *testing.T) {
	s, path := newTestFileStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	assert.NoError(t, s.CheckReadiness(context.Background()))
}

func TestDecodeEntry(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
		missing bool
	}{
		{"found", `{"record":{"found":true,"source":"attom"},"not_found":false,"created_at":"2025-06-01T12:00:00Z"}`, false, false},
		{"not found", `{"record":null,"not_found":true,"created_at":"2025-06-01T12:00:00Z"}`, false, true},
		{"flag contradicts record", `{"record":{"found":true},"not_found":true}`, true, false},
		{"truncated", `{"record":`, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := decodeEntry("k", []byte(tt.raw))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "k", e.Key)
			assert.Equal(t, tt.missing, e.NotFound())
		})
	}
}
