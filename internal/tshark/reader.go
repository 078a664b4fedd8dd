// Package tshark reads capture files by streaming tshark's EK JSON output.
package tshark

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"zvtdump/internal/capture"
	"zvtdump/internal/models"
)

// DefaultBinary is the tshark executable looked up in PATH.
const DefaultBinary = "tshark"

// maxLine bounds a single EK line. A full 64 KiB TCP payload is roughly
// 192 KiB of colon hex.
const maxLine = 4 * 1024 * 1024

// Reader yields capture records parsed from tshark EK lines.
type Reader struct {
	path    string
	scanner *bufio.Scanner
	cmd     *exec.Cmd
	stderr  *bytes.Buffer
	done    bool
}

// Opener returns a capture.Opener that runs the given tshark binary.
func Opener(binary string) capture.Opener {
	return func(ctx context.Context, path string, filter capture.Filter) (capture.Source, error) {
		return Open(ctx, binary, path, filter)
	}
}

// Open starts tshark on the capture file at path and returns a Reader over
// the packets matching filter.
func Open(ctx context.Context, binary, path string, filter capture.Filter) (*Reader, error) {
	if binary == "" {
		binary = DefaultBinary
	}
	if _, err := os.Stat(path); err != nil {
		return nil, &capture.OpenError{Path: path, Err: err}
	}

	// -r: read from file
	// -n: disable name resolution
	// -Y: display filter
	// -T ek: output in Elasticsearch JSON format
	args := []string{"-r", path, "-n", "-Y", filter.DisplayFilter(), "-T", "ek"}
	for _, f := range fields {
		args = append(args, "-e", f)
	}

	cmd := exec.CommandContext(ctx, binary, args...)
	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &capture.OpenError{Path: path, Err: fmt.Errorf("stdout pipe: %w", err)}
	}
	if err := cmd.Start(); err != nil {
		return nil, &capture.OpenError{Path: path, Err: fmt.Errorf("start %s: %w", binary, err)}
	}

	r := NewReader(stdout)
	r.path = path
	r.cmd = cmd
	r.stderr = stderr
	return r, nil
}

// NewReader parses EK lines from r without running tshark.
func NewReader(r io.Reader) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLine)
	return &Reader{scanner: scanner}
}

// Next returns the next record, or io.EOF when the output is exhausted.
// A tshark failure is reported as *capture.OpenError once stdout is drained.
func (r *Reader) Next() (models.CaptureRecord, error) {
	if r.done {
		return models.CaptureRecord{}, io.EOF
	}

	for r.scanner.Scan() {
		line := r.scanner.Text()

		if strings.TrimSpace(line) == "" {
			continue
		}

		// -T ek emits an index line before each packet; packet lines carry "layers".
		if !strings.Contains(line, "\"layers\"") {
			continue
		}

		var ekPkt EkPacket
		if err := json.Unmarshal([]byte(line), &ekPkt); err != nil {
			r.done = true
			r.kill()
			return models.CaptureRecord{}, &capture.OpenError{Path: r.path, Err: fmt.Errorf("parsing tshark output: %w", err)}
		}

		if rec, ok := convertToRecord(ekPkt); ok {
			return rec, nil
		}
	}

	r.done = true
	if err := r.scanner.Err(); err != nil {
		r.kill()
		return models.CaptureRecord{}, &capture.OpenError{Path: r.path, Err: err}
	}
	if r.cmd != nil {
		if err := r.cmd.Wait(); err != nil {
			r.cmd = nil
			return models.CaptureRecord{}, &capture.OpenError{Path: r.path, Err: r.exitError(err)}
		}
		r.cmd = nil
	}
	return models.CaptureRecord{}, io.EOF
}

// Close stops tshark if it is still running.
func (r *Reader) Close() error {
	r.done = true
	r.kill()
	return nil
}

func (r *Reader) kill() {
	if r.cmd == nil {
		return
	}
	if r.cmd.Process != nil {
		_ = r.cmd.Process.Kill()
	}
	_ = r.cmd.Wait()
	r.cmd = nil
}

func (r *Reader) exitError(err error) error {
	msg := strings.TrimSpace(r.stderr.String())
	if msg == "" {
		return err
	}
	return fmt.Errorf("%w: %s", err, msg)
}

func convertToRecord(ek EkPacket) (models.CaptureRecord, bool) {
	src := first(ek.Layers.IPSrc)
	dst := first(ek.Layers.IPDst)
	if src == "" && dst == "" {
		src = first(ek.Layers.IPv6Src)
		dst = first(ek.Layers.IPv6Dst)
	}
	// We need at least IP info
	if src == "" && dst == "" {
		return models.CaptureRecord{}, false
	}

	rec := models.CaptureRecord{
		Timestamp: first(ek.Layers.FrameTimeEpoch),
		SrcIP:     src,
		DstIP:     dst,
	}
	if rec.Timestamp == "" {
		rec.Timestamp = ek.Timestamp
	}

	rec.SrcPort, _ = strconv.Atoi(first(ek.Layers.TCPSrcPort))
	rec.DstPort, _ = strconv.Atoi(first(ek.Layers.TCPDstPort))

	if ek.Layers.TCPPayload != nil {
		rec.HasPayload = true
		rec.Payload = first(ek.Layers.TCPPayload)
	}

	return rec, true
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
