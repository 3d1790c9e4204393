package pipeline

import (
	"context"
	"net/url"
	"os"
	"path/filepath"

	"github.com/tracelay/workspaced/errors"
)

// fsAdapter is the file:// storage adapter: backups land in a bucket-named
// directory under the URL path. Used for development and on-prem deployments
// where backup storage is a mounted volume.
type fsAdapter struct {
	rawURL string
	root   string
	bucket string
}

// FileStorageFactory returns the factory for file:// storage URLs.
func FileStorageFactory() StorageFactory {
	return func(ctx context.Context, rawURL, bucket string) (StorageAdapter, error) {
		u, err := url.Parse(rawURL)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid storage URL %q", rawURL)
		}
		root := filepath.Join(u.Path, bucket)
		if err := os.MkdirAll(root, 0o755); err != nil {
			return nil, errors.Wrapf(err, "failed to prepare storage directory %s", root)
		}
		return &fsAdapter{rawURL: rawURL, root: root, bucket: bucket}, nil
	}
}

func (a *fsAdapter) URL() string { return a.rawURL }

func (a *fsAdapter) Bucket() string { return a.bucket }

// Root returns the directory backups are written under.
func (a *fsAdapter) Root() string { return a.root }

func (a *fsAdapter) Close(ctx context.Context) error { return nil }
