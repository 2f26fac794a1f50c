// Package media renders caption tracks into finished videos using the
// ffmpeg CLI.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/dkhalov/genflow/internal/captions"
	"github.com/dkhalov/genflow/internal/tracker"
)

// Static errors for media operations.
var (
	// ErrEmptyResultURL is returned when no source video URL is provided.
	ErrEmptyResultURL = errors.New("media: empty result url")
	// ErrEmptyTrack is returned when the caption track has no segments.
	ErrEmptyTrack = errors.New("media: caption track has no segments")
	// ErrDownloadFailed is returned when the source video cannot be fetched.
	ErrDownloadFailed = errors.New("media: video download failed")
)

// Burner burns a caption track into a video by downloading the source,
// writing the track as an ASS file, and re-encoding with ffmpeg's ass
// filter. The returned artifact points at a local temporary file the
// caller is expected to clean up.
type Burner struct {
	ffmpegPath string
	tempDir    string
	httpClient *http.Client
}

// BurnerOption configures a Burner.
type BurnerOption func(*Burner)

// WithFFmpegPath sets the ffmpeg binary path. Defaults to "ffmpeg"
// (found via PATH).
func WithFFmpegPath(path string) BurnerOption {
	return func(b *Burner) {
		if path != "" {
			b.ffmpegPath = path
		}
	}
}

// WithTempDir sets the directory for intermediate and output files.
// Defaults to the system temp directory.
func WithTempDir(dir string) BurnerOption {
	return func(b *Burner) {
		if dir != "" {
			b.tempDir = dir
		}
	}
}

// WithHTTPClient sets the client used to download source videos.
func WithHTTPClient(client *http.Client) BurnerOption {
	return func(b *Burner) {
		if client != nil {
			b.httpClient = client
		}
	}
}

// NewBurner creates a Burner with the given options.
func NewBurner(opts ...BurnerOption) *Burner {
	b := &Burner{
		ffmpegPath: "ffmpeg",
		tempDir:    os.TempDir(),
		httpClient: &http.Client{Timeout: 5 * time.Minute},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Apply downloads the video at resultURL, burns the caption track into
// it, and returns the burned file. Intermediate files are removed; only
// the output survives.
func (b *Burner) Apply(ctx context.Context, resultURL string, track *captions.Track) (tracker.Artifact, error) {
	if resultURL == "" {
		return tracker.Artifact{}, ErrEmptyResultURL
	}
	if track == nil || len(track.Segments) == 0 {
		return tracker.Artifact{}, ErrEmptyTrack
	}

	srcPath, err := b.download(ctx, resultURL)
	if err != nil {
		return tracker.Artifact{}, err
	}
	defer func() { _ = os.Remove(srcPath) }()

	assPath, err := b.writeSubtitles(track)
	if err != nil {
		return tracker.Artifact{}, err
	}
	defer func() { _ = os.Remove(assPath) }()

	outPath := filepath.Join(b.tempDir, fmt.Sprintf("captioned-%d.mp4", time.Now().UnixNano()))
	if err := b.burn(ctx, srcPath, assPath, outPath); err != nil {
		_ = os.Remove(outPath)
		return tracker.Artifact{}, err
	}

	return tracker.Artifact{Path: outPath}, nil
}

// download fetches the source video into a temporary file.
func (b *Burner) download(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create download request: %w", err)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDownloadFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrDownloadFailed, resp.StatusCode)
	}

	f, err := os.CreateTemp(b.tempDir, "source-*.mp4")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}

	if _, err := io.Copy(f, resp.Body); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("%w: %w", ErrDownloadFailed, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("close temp file: %w", err)
	}

	return f.Name(), nil
}

// writeSubtitles renders the track as an ASS file on disk.
func (b *Burner) writeSubtitles(track *captions.Track) (string, error) {
	f, err := os.CreateTemp(b.tempDir, "captions-*.ass")
	if err != nil {
		return "", fmt.Errorf("create subtitle file: %w", err)
	}

	if _, err := f.WriteString(track.ASS()); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("write subtitle file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("close subtitle file: %w", err)
	}

	return f.Name(), nil
}

// burn re-encodes the video with the ASS track rendered on top. Audio
// is copied untouched.
func (b *Burner) burn(ctx context.Context, srcPath, assPath, outPath string) error {
	filter := fmt.Sprintf("ass='%s'", escapeFilterPath(assPath))

	args := []string{
		"-y",          // Overwrite output file without asking
		"-i", srcPath, // Input video
		"-vf", filter, // Subtitle render filter
		"-c:v", "libx264", // Video codec
		"-preset", "fast", // Encoding speed preset
		"-crf", "23", // Quality (lower = better, 23 is default)
		"-c:a", "copy", // Keep the original audio stream
		outPath,
	}

	return b.runFFmpeg(ctx, args)
}

// escapeFilterPath escapes a path for use inside an ffmpeg filter
// argument. Backslashes, colons, and single quotes are significant in
// filter syntax.
func escapeFilterPath(path string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		`:`, `\:`,
		`'`, `\'`,
	)
	return r.Replace(path)
}

// runFFmpeg executes ffmpeg with the given arguments and returns an
// error containing stderr output if the command fails.
func (b *Burner) runFFmpeg(ctx context.Context, args []string) error {
	// #nosec G204 - ffmpegPath is set by the application, not user input
	cmd := exec.CommandContext(ctx, b.ffmpegPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("ffmpeg cancelled: %w", ctx.Err())
		}
		return &FFmpegError{
			Args:   args,
			Stderr: stderr.String(),
			Err:    err,
		}
	}

	return nil
}

// FFmpegError represents an error from running ffmpeg, including the
// stderr output.
type FFmpegError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *FFmpegError) Error() string {
	return fmt.Sprintf("ffmpeg error: %v\nargs: %v\nstderr: %s", e.Err, e.Args, e.Stderr)
}

func (e *FFmpegError) Unwrap() error {
	return e.Err
}

var _ tracker.PostProcessor = (*Burner)(nil)
