package extractor

import (
	"fmt"

	"zvtdump/internal/models"
)

// DirectoryCreateError reports an output directory that could not be created.
type DirectoryCreateError struct {
	Path string
	Err  error
}

func (e *DirectoryCreateError) Error() string {
	return fmt.Sprintf("create output directory %s: %v", e.Path, e.Err)
}

func (e *DirectoryCreateError) Unwrap() error { return e.Err }

// PayloadDecodeError reports a payload that is not valid hex. It is recoverable.
type PayloadDecodeError struct {
	Record models.CaptureRecord
	Err    error
}

func (e *PayloadDecodeError) Error() string {
	return fmt.Sprintf("decode payload of %s %s -> %s: %v",
		e.Record.Timestamp, e.Record.SrcIP, e.Record.DstIP, e.Err)
}

func (e *PayloadDecodeError) Unwrap() error { return e.Err }

// OutputWriteError reports a blob that could not be written.
type OutputWriteError struct {
	Path string
	Err  error
}

func (e *OutputWriteError) Error() string {
	return fmt.Sprintf("write blob %s: %v", e.Path, e.Err)
}

func (e *OutputWriteError) Unwrap() error { return e.Err }
