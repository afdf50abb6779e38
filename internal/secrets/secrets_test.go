package secrets

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countingAccess(calls *int, payload string) AccessFunc {
	return func(_ context.Context, name string) ([]byte, error) {
		*calls++
		return []byte(payload + "@" + name), nil
	}
}

func TestSecretName(t *testing.T) {
	m := NewManagerWithAccess("proj", nil)
	assert.Equal(t, "projects/proj/secrets/sa-key/versions/latest", m.SecretName("sa-key"))
	assert.Equal(t, "projects/other/secrets/k/versions/3", m.SecretName("projects/other/secrets/k/versions/3"))
	assert.Equal(t, "projects/other/secrets/k/versions/latest", m.SecretName("projects/other/secrets/k"))
}

func TestManagerCache(t *testing.T) {
	var calls int
	m := NewManagerWithAccess("proj", countingAccess(&calls, "key"))
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	ctx := context.Background()

	first, err := m.Get(ctx, "sa")
	require.NoError(t, err)
	_, err = m.Get(ctx, "sa")
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "key@projects/proj/secrets/sa/versions/latest", string(first))

	now = now.Add(DefaultTTL + time.Second)
	_, err = m.Get(ctx, "sa")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	m.ClearCache()
	_, err = m.Get(ctx, "sa")
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestManagerError(t *testing.T) {
	m := NewManagerWithAccess("proj", func(context.Context, string) ([]byte, error) {
		return nil, errors.New("permission denied")
	})
	_, err := m.Get(context.Background(), "sa")
	assert.ErrorContains(t, err, "permission denied")
}

func TestLoaderOrder(t *testing.T) {
	ctx := context.Background()
	log, _ := test.NewNullLogger()
	path := filepath.Join(t.TempDir(), "sa.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"type":"file"}`), 0o600))

	var calls int
	manager := NewManagerWithAccess("proj", countingAccess(&calls, "secret"))

	l := &Loader{Sources: Sources{JSON: ` {"type":"inline"} `, File: path, Secret: "sa"}, Manager: manager, Log: log}
	data, err := l.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{"type":"inline"}`, string(data))

	l.Sources.JSON = ""
	data, err = l.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{"type":"file"}`, string(data))

	l.Sources.File = ""
	data, err = l.Load(ctx)
	require.NoError(t, err)
	assert.Contains(t, string(data), "secret@")
	assert.Equal(t, 1, calls)
}

func TestLoaderMissing(t *testing.T) {
	l := &Loader{}
	_, err := l.Load(context.Background())
	assert.ErrorIs(t, err, ErrMissingCredentials)

	l = &Loader{Sources: Sources{Secret: "sa"}}
	_, err = l.Load(context.Background())
	assert.ErrorIs(t, err, ErrMissingCredentials)

	l = &Loader{Sources: Sources{File: filepath.Join(t.TempDir(), "missing.json")}}
	_, err = l.Load(context.Background())
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrMissingCredentials)
}
