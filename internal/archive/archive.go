// Package archive keeps durable copies of delivered artifacts. A store
// failure never blocks delivery; the caller logs it and moves on.
package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dkhalov/genflow/internal/task"
	"github.com/dkhalov/genflow/internal/tracker"
)

// ErrNoArtifactSource is returned when the artifact has neither a local
// path nor a URL to read from.
var ErrNoArtifactSource = errors.New("archive: artifact has no source")

// objectKey builds the storage key for an archived artifact, grouping
// by provider kind and day.
func objectKey(t *task.Task, at time.Time) string {
	return fmt.Sprintf("%s/%s/%s.mp4", t.Kind, at.UTC().Format("2006-01-02"), t.ID)
}

// openArtifact returns a reader over the artifact's content, preferring
// the local file over a re-download.
func openArtifact(ctx context.Context, client *http.Client, a tracker.Artifact) (io.ReadCloser, error) {
	if a.Path != "" {
		return openFile(a.Path)
	}
	if a.URL == "" {
		return nil, ErrNoArtifactSource
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("create artifact request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch artifact: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("fetch artifact: status %d", resp.StatusCode)
	}

	return resp.Body, nil
}
