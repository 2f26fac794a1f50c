package archive

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/dkhalov/genflow/internal/task"
	"github.com/dkhalov/genflow/internal/tracker"
)

// Dir archives artifacts on the local filesystem. Useful for
// development and for deployments without object storage.
type Dir struct {
	root       string
	httpClient *http.Client
}

// NewDir creates a directory archive rooted at root. The directory is
// created if it doesn't exist. If root is empty a subdirectory of the
// system temp directory is used.
func NewDir(root string) (*Dir, error) {
	if root == "" {
		root = filepath.Join(os.TempDir(), "genflow-archive")
	}

	if err := os.MkdirAll(root, 0750); err != nil {
		return nil, fmt.Errorf("create archive directory: %w", err)
	}

	return &Dir{
		root:       root,
		httpClient: &http.Client{Timeout: 5 * time.Minute},
	}, nil
}

// Root returns the archive's base directory.
func (d *Dir) Root() string {
	return d.root
}

// Store copies the artifact under the archive root and returns the
// file's absolute path.
func (d *Dir) Store(ctx context.Context, t *task.Task, a tracker.Artifact) (string, error) {
	body, err := openArtifact(ctx, d.httpClient, a)
	if err != nil {
		return "", err
	}
	defer func() { _ = body.Close() }()

	dst := filepath.Join(d.root, filepath.FromSlash(objectKey(t, time.Now())))
	if err := os.MkdirAll(filepath.Dir(dst), 0750); err != nil {
		return "", fmt.Errorf("create archive subdirectory: %w", err)
	}

	f, err := os.Create(dst) // #nosec G304 - dst is derived from internal task state
	if err != nil {
		return "", fmt.Errorf("create archive file: %w", err)
	}

	if _, err := io.Copy(f, body); err != nil {
		_ = f.Close()
		_ = os.Remove(dst)
		return "", fmt.Errorf("write archive file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(dst)
		return "", fmt.Errorf("close archive file: %w", err)
	}

	return dst, nil
}

// openFile opens a local artifact file for reading.
func openFile(path string) (io.ReadCloser, error) {
	f, err := os.Open(path) // #nosec G304 - path is produced by the post-processing step
	if err != nil {
		return nil, fmt.Errorf("open artifact: %w", err)
	}
	return f, nil
}

var _ tracker.Archive = (*Dir)(nil)
