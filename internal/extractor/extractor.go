// Package extractor writes the TCP payloads of a capture to one blob file per packet.
package extractor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/spf13/afero"

	"zvtdump/internal/analysis"
	"zvtdump/internal/capture"
	"zvtdump/internal/hexpayload"
	"zvtdump/internal/models"
)

// DefaultOutputDir is used when no output directory is configured.
const DefaultOutputDir = "zvt_packets"

// BlobExt is the extension of every written payload file.
const BlobExt = ".blob"

// WriteErrorPolicy decides what happens when a blob cannot be written.
type WriteErrorPolicy int

const (
	// AbortOnWriteError stops the run at the first failed write.
	AbortOnWriteError WriteErrorPolicy = iota
	// ContinueOnWriteError logs the failure and moves on to the next record.
	ContinueOnWriteError
)

// EmptyPayloadPolicy decides what happens to a payload field that is present
// but holds zero bytes.
type EmptyPayloadPolicy int

const (
	// WriteEmptyPayload writes a zero byte blob.
	WriteEmptyPayload EmptyPayloadPolicy = iota
	// SkipEmptyPayload treats it like a missing payload.
	SkipEmptyPayload
)

// Config controls an Extractor.
type Config struct {
	OutputDir    string
	OnWriteError WriteErrorPolicy
	OnEmpty      EmptyPayloadPolicy
	// FlowLimit caps the number of flows in the returned summary.
	// Defaults to 10 if unset or <= 0.
	FlowLimit int
}

// Extractor performs a single pass over a capture source. Counters are
// reset at the start of every Run or Drain.
type Extractor struct {
	fs     afero.Fs
	config Config
	logger *slog.Logger
	stats  *analysis.CaptureStats
}

// New creates an Extractor writing into fs. A nil logger discards output.
func New(fs afero.Fs, cfg Config, logger *slog.Logger) *Extractor {
	if cfg.OutputDir == "" {
		cfg.OutputDir = DefaultOutputDir
	}
	if cfg.FlowLimit <= 0 {
		cfg.FlowLimit = 10
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Extractor{
		fs:     fs,
		config: cfg,
		logger: logger,
		stats:  analysis.NewCaptureStats(),
	}
}

// EnsureOutputDirectory creates path and any missing parents. It is a no-op
// when the directory already exists.
func EnsureOutputDirectory(fs afero.Fs, path string) error {
	if err := fs.MkdirAll(path, 0o755); err != nil {
		return &DirectoryCreateError{Path: path, Err: err}
	}
	info, err := fs.Stat(path)
	if err != nil {
		return &DirectoryCreateError{Path: path, Err: err}
	}
	if !info.IsDir() {
		return &DirectoryCreateError{Path: path, Err: errors.New("not a directory")}
	}
	return nil
}

// BlobName derives the file name of a record: <timestamp>_<src>_<dst>.blob.
func BlobName(rec models.CaptureRecord) string {
	return rec.Timestamp + "_" + rec.SrcIP + "_" + rec.DstIP + BlobExt
}

// BlobPath joins dir and BlobName(rec).
func BlobPath(dir string, rec models.CaptureRecord) string {
	return filepath.Join(dir, BlobName(rec))
}

// Run creates the output directory, opens inputPath restricted to ZVT traffic
// and drains it. Capture open failures are returned as *capture.OpenError.
func (e *Extractor) Run(ctx context.Context, open capture.Opener, inputPath string) (analysis.Summary, error) {
	e.stats = analysis.NewCaptureStats()

	if err := EnsureOutputDirectory(e.fs, e.config.OutputDir); err != nil {
		return e.summary(), err
	}

	src, err := open(ctx, inputPath, capture.ZVTFilter)
	if err != nil {
		var oe *capture.OpenError
		if !errors.As(err, &oe) {
			err = &capture.OpenError{Path: inputPath, Err: err}
		}
		return e.summary(), err
	}
	defer src.Close()

	e.logger.Info("extracting payloads",
		"input", inputPath,
		"filter", capture.ZVTFilter.DisplayFilter(),
		"output_dir", e.config.OutputDir)

	if err := e.drain(ctx, src, inputPath); err != nil {
		return e.summary(), err
	}
	return e.summary(), nil
}

// Drain consumes src in order and writes one blob per record with a payload.
// The output directory must already exist. Read failures carry no path.
func (e *Extractor) Drain(ctx context.Context, src capture.Source) (analysis.Summary, error) {
	e.stats = analysis.NewCaptureStats()
	err := e.drain(ctx, src, "")
	return e.summary(), err
}

func (e *Extractor) drain(ctx context.Context, src capture.Source, inputPath string) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		rec, err := src.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			var oe *capture.OpenError
			if !errors.As(err, &oe) {
				err = &capture.OpenError{Path: inputPath, Err: err}
			}
			return err
		}
		e.stats.RecordSeen()

		if err := e.handle(rec); err != nil {
			return err
		}
	}
}

// handle processes one record. Only fatal errors are returned.
func (e *Extractor) handle(rec models.CaptureRecord) error {
	if !rec.HasPayload {
		e.stats.RecordSkipped(false)
		return nil
	}

	data, err := hexpayload.Decode(rec.Payload)
	if err != nil {
		decodeErr := &PayloadDecodeError{Record: rec, Err: err}
		e.stats.RecordDecodeError()
		e.logger.Warn("skipping undecodable payload",
			"timestamp", rec.Timestamp,
			"src", rec.SrcIP,
			"dst", rec.DstIP,
			"error", decodeErr)
		return nil
	}

	if len(data) == 0 && e.config.OnEmpty == SkipEmptyPayload {
		e.stats.RecordSkipped(true)
		return nil
	}

	path := BlobPath(e.config.OutputDir, rec)
	if err := afero.WriteFile(e.fs, path, data, 0o644); err != nil {
		writeErr := &OutputWriteError{Path: path, Err: err}
		e.stats.RecordWriteError()
		if e.config.OnWriteError == AbortOnWriteError {
			return writeErr
		}
		e.logger.Error("failed to write blob", "path", path, "error", err)
		return nil
	}

	e.stats.RecordBlob(rec, len(data))
	e.logger.Debug("wrote blob", "path", path, "bytes", len(data))
	return nil
}

func (e *Extractor) summary() analysis.Summary {
	return e.stats.Summary(e.config.FlowLimit)
}
