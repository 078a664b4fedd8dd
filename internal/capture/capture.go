// Package capture defines the contract between capture file readers and the
// payload extractor.
package capture

import (
	"context"
	"fmt"
	"time"

	"zvtdump/internal/models"
)

// ZVTPort is the TCP port ZVT terminals listen on.
const ZVTPort = 22000

// Source is a lazy, finite, forward-only sequence of capture records.
// Next returns io.EOF once the capture is exhausted. A Source cannot be rewound.
type Source interface {
	Next() (models.CaptureRecord, error)
	Close() error
}

// Opener opens a capture file and returns the records matching filter.
type Opener func(ctx context.Context, path string, filter Filter) (Source, error)

// Filter restricts a capture to TCP traffic on a single port.
type Filter struct {
	Port int
}

// ZVTFilter selects TCP traffic on port 22000.
var ZVTFilter = Filter{Port: ZVTPort}

// DisplayFilter renders the filter in Wireshark display filter syntax.
func (f Filter) DisplayFilter() string {
	return fmt.Sprintf("tcp.port==%d", f.Port)
}

// BPF renders the filter as a libpcap filter expression.
func (f Filter) BPF() string {
	return fmt.Sprintf("tcp port %d", f.Port)
}

// Match reports whether a TCP segment with the given ports passes the filter.
func (f Filter) Match(srcPort, dstPort int) bool {
	return srcPort == f.Port || dstPort == f.Port
}

// FormatEpoch renders t as epoch seconds with nine fractional digits, the way
// tshark prints frame.time_epoch.
func FormatEpoch(t time.Time) string {
	return fmt.Sprintf("%d.%09d", t.Unix(), t.Nanosecond())
}

// OpenError reports a capture file that could not be opened or read.
type OpenError struct {
	Path string
	Err  error
}

func (e *OpenError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("read capture: %v", e.Err)
	}
	return fmt.Sprintf("open capture %s: %v", e.Path, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }
