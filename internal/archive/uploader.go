package archive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
)

// ErrNotFound is returned when a requested object does not exist.
var ErrNotFound = errors.New("archive: object not found")

// Putter stores one object. *Client implements it.
type Putter interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
}

// Artifact is one rendered report file.
type Artifact struct {
	Name        string // file name within the run folder, e.g. "report.md"
	ContentType string
	Data        []byte
}

// Recorder observes upload outcomes. *observability.Metrics implements it.
type Recorder interface {
	RecordArchiveUpload(err error)
}

// Uploader writes artifacts under <prefix>/<run id>/<name>.
type Uploader struct {
	putter   Putter
	prefix   string
	logger   *slog.Logger
	recorder Recorder
}

// NewUploader creates an Uploader. A nil logger uses slog.Default().
func NewUploader(putter Putter, prefix string, logger *slog.Logger) *Uploader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Uploader{
		putter: putter,
		prefix: strings.Trim(prefix, "/"),
		logger: logger.With(slog.String("component", "archive")),
	}
}

// WithRecorder attaches an upload outcome recorder.
func (u *Uploader) WithRecorder(r Recorder) *Uploader {
	u.recorder = r
	return u
}

// Key returns the object key of an artifact of runID.
func (u *Uploader) Key(runID, name string) string {
	if u.prefix == "" {
		return path.Join(runID, name)
	}
	return path.Join(u.prefix, runID, name)
}

// UploadRun uploads every artifact of a run in order and returns the keys
// written. It stops at the first failure.
func (u *Uploader) UploadRun(ctx context.Context, runID string, artifacts []Artifact) ([]string, error) {
	if runID == "" {
		return nil, fmt.Errorf("archive: run id is required")
	}

	keys := make([]string, 0, len(artifacts))
	for _, a := range artifacts {
		if a.Name == "" {
			return keys, fmt.Errorf("archive: artifact without name in run %s", runID)
		}
		key := u.Key(runID, a.Name)
		contentType := a.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		err := u.putter.Put(ctx, key, a.Data, contentType)
		if u.recorder != nil {
			u.recorder.RecordArchiveUpload(err)
		}
		if err != nil {
			return keys, fmt.Errorf("upload %s: %w", a.Name, err)
		}

		u.logger.Info("artifact uploaded",
			slog.String("key", key),
			slog.Int("bytes", len(a.Data)),
		)
		keys = append(keys, key)
	}
	return keys, nil
}
