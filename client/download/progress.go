package download

import (
	"fmt"
	"io"
	"log/slog"
	"time"
)

// progressWriter logs progress at most once per interval while parts
// are written, and once more when the expected length is reached.
type progressWriter struct {
	w           io.Writer
	logger      *slog.Logger
	interval    time.Duration
	transferred int64
	parts       int
	total       int64
	startTime   time.Time
	lastLog     time.Time
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	n, err := pw.w.Write(p)
	pw.transferred += int64(n)
	pw.parts++

	if time.Since(pw.lastLog) >= pw.interval {
		pw.lastLog = time.Now()
		pw.log("downloading")
	}

	if pw.total >= 0 && pw.transferred == pw.total {
		pw.log("download complete")
	}

	return n, err
}

func (pw *progressWriter) log(msg string) {
	elapsed := time.Since(pw.startTime)
	attrs := []any{
		"elapsed", elapsed.Round(time.Millisecond),
		"transferred", pw.transferred,
		"parts", pw.parts,
		"mbps", fmt.Sprintf("%.2f", float64(pw.transferred)/elapsed.Seconds()/(1024*1024)),
	}
	if pw.total > 0 {
		attrs = append(attrs,
			"progress", fmt.Sprintf("%.1f%%", float64(pw.transferred)/float64(pw.total)*100),
			"total", pw.total,
		)
	}
	pw.logger.Info(msg, attrs...)
}
