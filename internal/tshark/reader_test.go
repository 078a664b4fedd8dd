package tshark

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"zvtdump/internal/capture"
)

const ekOutput = `{"index":{"_index":"packets-2023-11-14","_type":"doc"}}
{"timestamp":"1700000000123","layers":{"frame_time_epoch":["1700000000.123456000"],"ip_src":["10.0.0.1"],"ip_dst":["10.0.0.2"],"tcp_srcport":["51000"],"tcp_dstport":["22000"],"tcp_payload":["de:ad"]}}
{"index":{"_index":"packets-2023-11-14","_type":"doc"}}
{"timestamp":"1700000000200","layers":{"frame_time_epoch":["1700000000.200000000"],"ip_src":["10.0.0.2"],"ip_dst":["10.0.0.1"],"tcp_srcport":["22000"],"tcp_dstport":["51000"]}}

{"timestamp":"1700000000300","layers":{"frame_time_epoch":["1700000000.300000000"],"ipv6_src":["fe80::1"],"ipv6_dst":["fe80::2"],"tcp_srcport":["22000"],"tcp_dstport":["51000"],"tcp_payload":["be:ef"]}}
{"timestamp":"1700000000400","layers":{"frame_time_epoch":["1700000000.400000000"]}}
`

func TestReaderParsesEkLines(t *testing.T) {
	r := NewReader(strings.NewReader(ekOutput))

	rec, err := r.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if rec.Timestamp != "1700000000.123456000" {
		t.Errorf("Timestamp = %q", rec.Timestamp)
	}
	if rec.SrcIP != "10.0.0.1" || rec.DstIP != "10.0.0.2" {
		t.Errorf("addresses = %s -> %s", rec.SrcIP, rec.DstIP)
	}
	if rec.SrcPort != 51000 || rec.DstPort != 22000 {
		t.Errorf("ports = %d -> %d", rec.SrcPort, rec.DstPort)
	}
	if !rec.HasPayload || rec.Payload != "de:ad" {
		t.Errorf("payload = %q (present %v)", rec.Payload, rec.HasPayload)
	}

	rec, err = r.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if rec.HasPayload {
		t.Error("record without tcp_payload should have no payload")
	}

	rec, err = r.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if rec.SrcIP != "fe80::1" || rec.DstIP != "fe80::2" {
		t.Errorf("IPv6 addresses = %s -> %s", rec.SrcIP, rec.DstIP)
	}
	if rec.Payload != "be:ef" {
		t.Errorf("payload = %q", rec.Payload)
	}

	// The last line has no addresses and is dropped.
	if _, err := r.Next(); err != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}
	if _, err := r.Next(); err != io.EOF {
		t.Fatalf("expected io.EOF after exhaustion, got %v", err)
	}
}

func TestReaderMalformedLineIsFatal(t *testing.T) {
	input := `{"layers":{"frame_time_epoch":["1.0"],"ip_src":["a"],"ip_dst":["b"],"tcp_payload":["01"]}}
this line is not json but mentions "layers"
{"layers":{"frame_time_epoch":["2.0"],"ip_src":["a"],"ip_dst":["b"],"tcp_payload":["02"]}}
`
	r := NewReader(strings.NewReader(input))
	if _, err := r.Next(); err != nil {
		t.Fatalf("Next failed: %v", err)
	}

	_, err := r.Next()
	var oe *capture.OpenError
	if !errors.As(err, &oe) {
		t.Fatalf("expected *capture.OpenError, got %v", err)
	}
	if !strings.Contains(err.Error(), "parsing tshark output") {
		t.Errorf("unexpected error text: %v", err)
	}

	// The reader does not resume after a parse failure.
	if _, err := r.Next(); err != io.EOF {
		t.Fatalf("expected io.EOF after failure, got %v", err)
	}
}

func TestReaderTruncatedLineIsFatal(t *testing.T) {
	line := `{"layers":{"frame_time_epoch":["1.0"],"ip_src":["10.0.0.1"],"tcp_payload":["de:`
	_, err := NewReader(strings.NewReader(line)).Next()
	var oe *capture.OpenError
	if !errors.As(err, &oe) {
		t.Fatalf("expected *capture.OpenError, got %v", err)
	}
}

func TestReaderAcceptsNumericValues(t *testing.T) {
	line := `{"layers":{"frame_time_epoch":[1700000000.123456],"ip_src":["10.0.0.1"],"ip_dst":["10.0.0.2"],"tcp_srcport":[51000],"tcp_dstport":[22000],"tcp_payload":["de:ad"]}}`
	rec, err := NewReader(strings.NewReader(line)).Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if rec.SrcPort != 51000 || rec.DstPort != 22000 {
		t.Errorf("ports = %d -> %d", rec.SrcPort, rec.DstPort)
	}
	if rec.Timestamp != "1700000000.123456" {
		t.Errorf("Timestamp = %q, want the literal text", rec.Timestamp)
	}
	if !rec.HasPayload || rec.Payload != "de:ad" {
		t.Errorf("payload = %q (present %v)", rec.Payload, rec.HasPayload)
	}
}

func TestReaderNullPayloadIsAbsent(t *testing.T) {
	line := `{"layers":{"frame_time_epoch":["1.0"],"ip_src":["a"],"ip_dst":["b"],"tcp_payload":null}}`
	rec, err := NewReader(strings.NewReader(line)).Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if rec.HasPayload {
		t.Error("null tcp_payload should count as absent")
	}
}

func TestReaderEmptyPayloadIsPresent(t *testing.T) {
	line := `{"layers":{"frame_time_epoch":["1.0"],"ip_src":["a"],"ip_dst":["b"],"tcp_payload":[]}}`
	rec, err := NewReader(strings.NewReader(line)).Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if !rec.HasPayload || rec.Payload != "" {
		t.Errorf("expected present empty payload, got %q (present %v)", rec.Payload, rec.HasPayload)
	}
}

func TestOpenMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.pcap")
	_, err := Open(context.Background(), DefaultBinary, path, capture.ZVTFilter)
	var oe *capture.OpenError
	if !errors.As(err, &oe) {
		t.Fatalf("expected *capture.OpenError, got %v", err)
	}
	if oe.Path != path {
		t.Errorf("OpenError.Path = %q", oe.Path)
	}
}

func TestOpenMissingBinary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.pcap")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Open(context.Background(), filepath.Join(t.TempDir(), "no-such-tshark"), path, capture.ZVTFilter)
	var oe *capture.OpenError
	if !errors.As(err, &oe) {
		t.Fatalf("expected *capture.OpenError, got %v", err)
	}
}
