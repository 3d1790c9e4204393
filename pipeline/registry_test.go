package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracelay/workspaced/errors"
)

type nopDestroyer struct{ name string }

func (d *nopDestroyer) DeleteWorkspace(ctx context.Context, req DeleteRequest) error { return nil }

func TestRegistry_DestroyerForScheme(t *testing.T) {
	r := NewRegistry()
	pg := &nopDestroyer{name: "pg"}
	mongo := &nopDestroyer{name: "mongo"}
	r.RegisterDestroyer("postgresql", pg)
	r.RegisterDestroyer("mongodb", mongo)

	d, err := r.DestroyerFor("postgresql://db.internal:5432/workspaces")
	require.NoError(t, err)
	assert.Same(t, pg, d)

	d, err = r.DestroyerFor("mongodb://db.internal:27017")
	require.NoError(t, err)
	assert.Same(t, mongo, d)

	// mongodb+srv selects the mongodb adapter
	d, err = r.DestroyerFor("mongodb+srv://cluster0.example.net")
	require.NoError(t, err)
	assert.Same(t, mongo, d)
}

func TestRegistry_NoAdapter(t *testing.T) {
	r := NewRegistry()

	_, err := r.DestroyerFor("mysql://db.internal:3306")
	assert.True(t, errors.IsNoAdapter(err))

	_, err = r.StorageFor(context.Background(), "s3://bucket", "backups")
	assert.True(t, errors.IsNoAdapter(err))

	_, err = r.DestroyerFor("not a url at all\x00")
	assert.Error(t, err)
}

func TestRegistry_CloseRunsAllClosers(t *testing.T) {
	r := NewRegistry()
	var order []string
	r.AddCloser(func(ctx context.Context) error {
		order = append(order, "first")
		return errors.New("first failed")
	})
	r.AddCloser(func(ctx context.Context) error {
		order = append(order, "second")
		return nil
	})

	err := r.Close(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "first failed")
	assert.Equal(t, []string{"first", "second"}, order)

	// closers run once
	require.NoError(t, r.Close(context.Background()))
}

func TestFileStorageFactory(t *testing.T) {
	dir := t.TempDir()
	factory := FileStorageFactory()

	adapter, err := factory(context.Background(), "file://"+dir, "backups")
	require.NoError(t, err)
	defer adapter.Close(context.Background())

	assert.Equal(t, "backups", adapter.Bucket())
	assert.Equal(t, "file://"+dir, adapter.URL())

	fs, ok := adapter.(*fsAdapter)
	require.True(t, ok)
	assert.DirExists(t, fs.Root())
}
