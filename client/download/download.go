package download

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/adamwoolhether/asynchttp/body"
)

// Handler writes a response body to a file. Its callbacks mirror the
// client's Handler interface, with a true return meaning abort.
type Handler struct {
	destPath string
	logger   *slog.Logger
	opts     options

	mu            sync.Mutex
	file          *os.File
	writer        io.Writer
	contentLength int64
	written       int64
	err           error
}

// NewHandler prepares a download to destPath. The temp file is only
// created once the response status arrives.
func NewHandler(destPath string, logger *slog.Logger, optFns ...Option) (*Handler, error) {
	if destPath == "" {
		return nil, errors.New("destPath must not be empty")
	}

	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying option: %w", err)
		}
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		destPath: destPath,
		logger:   logger,
		opts:     opts,
	}, nil
}

// Skip reports whether the destination already exists and WithSkipExisting
// was given, in which case the request need not be sent.
func (h *Handler) Skip() bool {
	if !h.opts.skipExisting {
		return false
	}

	if _, err := os.Stat(h.destPath); err == nil {
		h.logger.Info("skipping existing file", "path", h.destPath)
		return true
	}

	return false
}

// OnStatus creates the temp file.
func (h *Handler) OnStatus(resp *http.Response) (abort bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	file, err := os.CreateTemp(filepath.Dir(h.destPath), ".asynchttp-dl-*")
	if err != nil {
		h.err = fmt.Errorf("creating temp file: %w", err)
		return true
	}

	h.file = file
	h.contentLength = resp.ContentLength

	var writer io.Writer = file
	if h.opts.checksum != nil {
		writer = io.MultiWriter(writer, h.opts.checksum)
	}

	if h.opts.progress {
		writer = &progressWriter{
			w:         writer,
			logger:    h.logger,
			total:     resp.ContentLength,
			interval:  h.opts.progressInterval,
			startTime: time.Now(),
		}
	}
	h.writer = writer

	return false
}

// OnBodyPart appends the part to the temp file without copying it.
func (h *Handler) OnBodyPart(p *body.Part) (abort bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	n, err := p.WriteTo(h.writer)
	h.written += n
	if err != nil {
		h.err = fmt.Errorf("copying file body: %w", err)
		return true
	}

	return false
}

// OnCompleted verifies the file and moves it into place.
func (h *Handler) OnCompleted() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.complete(); err != nil {
		h.cleanup()
		return err
	}

	return nil
}

// OnError removes the temp file.
func (h *Handler) OnError(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.logger.Debug("download failed", "path", h.destPath, "error", err)
	h.cleanup()
}

func (h *Handler) complete() error {
	if h.err != nil {
		return h.err
	}
	if h.file == nil {
		return &Error{Err: ErrDownloadAborted, Detail: "no response body received"}
	}

	if h.contentLength >= 0 && h.written != h.contentLength {
		return &Error{
			Err:    ErrContentLengthMismatch,
			Detail: fmt.Sprintf("expected %d bytes, got %d", h.contentLength, h.written),
		}
	}

	if err := h.opts.checksum.Verify(); err != nil {
		return err
	}

	if err := h.file.Sync(); err != nil {
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := h.file.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(h.file.Name(), h.destPath); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}

	h.file = nil

	return nil
}

func (h *Handler) cleanup() {
	if h.file == nil {
		return
	}

	if err := h.file.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		h.logger.Error("closing temp file", "error", err)
	}
	if err := os.Remove(h.file.Name()); err != nil {
		h.logger.Error("failed to remove temp file", "error", err)
	}
	h.file = nil
}
