// File: internal/reporting/reporter.go
package reporting

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/assessment-export/api/schemas"
	"github.com/xkilldash9x/assessment-export/internal/observability"
)

// Reporter defines the interface for writing a report to an output.
type Reporter interface {
	// Write hands over the report. Reporters keep only the last one written.
	Write(report *schemas.Report) error
	// Close renders the report and closes any underlying resources.
	Close() error
}

// encodeFunc renders a complete report document.
type encodeFunc func(w io.Writer, report *schemas.Report) error

// nopWriteCloser wraps an io.Writer and provides a no-op Close method.
type nopWriteCloser struct {
	io.Writer
}

func (nwc *nopWriteCloser) Close() error {
	return nil
}

// New creates a new reporter based on the specified format and output path.
// An empty path or "stdout" writes to standard output.
func New(format, outputPath string) (Reporter, error) {
	var encode encodeFunc
	switch strings.ToLower(format) {
	case "csv":
		encode = encodeDelimited(',')
	case "tsv":
		encode = encodeDelimited('\t')
	case "json":
		encode = encodeJSON
	case "xml":
		encode = encodeXML
	case "xlsx":
		encode = encodeXLSX
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}

	var writer io.WriteCloser
	if outputPath == "" || outputPath == "stdout" {
		writer = &nopWriteCloser{os.Stdout}
	} else {
		f, err := os.Create(outputPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create output file %s: %w", outputPath, err)
		}
		writer = f
	}
	return newDocumentReporter(writer, strings.ToLower(format), encode), nil
}

// documentReporter buffers the report and renders it on Close.
// It is safe for concurrent use.
type documentReporter struct {
	mu     sync.Mutex
	writer io.WriteCloser
	format string
	encode encodeFunc
	report *schemas.Report
	closed bool
	logger *zap.Logger
}

func newDocumentReporter(w io.WriteCloser, format string, encode encodeFunc) *documentReporter {
	return &documentReporter{
		writer: w,
		format: format,
		encode: encode,
		logger: observability.GetLogger().Named("reporter"),
	}
}

func (r *documentReporter) Write(report *schemas.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return fmt.Errorf("reporter is closed")
	}
	if report == nil {
		return fmt.Errorf("nil report")
	}
	r.report = report
	return nil
}

func (r *documentReporter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	start := time.Now()

	var encodeErr error
	if r.report != nil {
		encodeErr = r.encode(r.writer, r.report)
	}
	// Always attempt to close the writer, regardless of encoding success.
	closeErr := r.writer.Close()

	if encodeErr != nil {
		return fmt.Errorf("failed to encode %s output: %w", r.format, encodeErr)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close output writer: %w", closeErr)
	}
	if r.report != nil {
		r.logger.Debug("Wrote report",
			zap.String("format", r.format),
			zap.Int("rows", len(r.report.Rows)),
			zap.Duration("duration", time.Since(start)),
		)
	}
	return nil
}
