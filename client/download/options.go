package download

import (
	"errors"
	"hash"
	"time"
)

// defaultProgressInterval is how often WithProgress logs.
const defaultProgressInterval = time.Second

// Option configures a [Handler].
type Option func(*options) error

type options struct {
	checksum         *checksumVerifier
	progress         bool
	progressInterval time.Duration
	skipExisting     bool
}

// WithChecksum enables checksum validation of the downloaded file.
// h is a hash.Hash instance (e.g. sha256.New()), and expected is the
// hex-encoded expected checksum string.
func WithChecksum(h hash.Hash, expected string) Option {
	return func(opts *options) error {
		if h == nil {
			return errors.New("hash must not be nil")
		}

		if expected == "" {
			return errors.New("expected checksum must not be empty")
		}

		opts.checksum = &checksumVerifier{hash: h, expected: expected}
		return nil
	}
}

// WithProgress enables periodic progress logging through the handler's
// logger. An interval of zero logs once per second.
func WithProgress(interval time.Duration) Option {
	return func(opts *options) error {
		if interval < 0 {
			return errors.New("progress interval must not be negative")
		}
		if interval == 0 {
			interval = defaultProgressInterval
		}

		opts.progress = true
		opts.progressInterval = interval
		return nil
	}
}

// WithSkipExisting causes the download to be skipped when the
// destination file already exists.
func WithSkipExisting() Option {
	return func(opts *options) error {
		opts.skipExisting = true
		return nil
	}
}
