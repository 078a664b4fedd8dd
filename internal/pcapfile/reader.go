// Package pcapfile reads pcap and pcapng capture files in process with gopacket.
package pcapfile

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"zvtdump/internal/capture"
	"zvtdump/internal/hexpayload"
	"zvtdump/internal/models"
)

// pcapng files start with a section header block.
const ngMagic = 0x0A0D0D0A

// Reader yields the TCP packets of a capture that pass a port filter.
type Reader struct {
	source *gopacket.PacketSource
	filter capture.Filter
	closer io.Closer
}

// Open is a capture.Opener reading the file at path with pcapgo.
func Open(ctx context.Context, path string, filter capture.Filter) (capture.Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &capture.OpenError{Path: path, Err: err}
	}
	r, err := NewReader(f, filter)
	if err != nil {
		f.Close()
		return nil, &capture.OpenError{Path: path, Err: err}
	}
	r.closer = f
	return r, nil
}

// NewReader detects the capture format of r and returns a Reader over it.
func NewReader(r io.Reader, filter capture.Filter) (*Reader, error) {
	input := bufio.NewReader(r)
	magic, err := input.Peek(4)
	if err != nil {
		return nil, fmt.Errorf("reading file header: %w", err)
	}

	if binary.BigEndian.Uint32(magic) == ngMagic {
		ng, err := pcapgo.NewNgReader(input, pcapgo.DefaultNgReaderOptions)
		if err != nil {
			return nil, err
		}
		return NewPacketReader(ng, ng.LinkType(), filter, nil), nil
	}

	pr, err := pcapgo.NewReader(input)
	if err != nil {
		return nil, err
	}
	return NewPacketReader(pr, pr.LinkType(), filter, nil), nil
}

// NewPacketReader wraps any packet data source. closer, if non-nil, is closed
// by Close.
func NewPacketReader(src gopacket.PacketDataSource, decoder gopacket.Decoder, filter capture.Filter, closer io.Closer) *Reader {
	source := gopacket.NewPacketSource(src, decoder)
	source.DecodeOptions = gopacket.DecodeOptions{Lazy: true, NoCopy: true}
	return &Reader{source: source, filter: filter, closer: closer}
}

// Next returns the next matching record, or io.EOF at the end of the file.
func (r *Reader) Next() (models.CaptureRecord, error) {
	for {
		packet, err := r.source.NextPacket()
		if err != nil {
			return models.CaptureRecord{}, err
		}
		if rec, ok := convertToRecord(packet, r.filter); ok {
			return rec, nil
		}
	}
}

// Close releases the underlying file.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	err := r.closer.Close()
	r.closer = nil
	return err
}

func convertToRecord(packet gopacket.Packet, filter capture.Filter) (models.CaptureRecord, bool) {
	network := packet.NetworkLayer()
	if network == nil {
		return models.CaptureRecord{}, false
	}
	tcpLayer := packet.Layer(layers.LayerTypeTCP)
	if tcpLayer == nil {
		return models.CaptureRecord{}, false
	}
	tcp := tcpLayer.(*layers.TCP)
	if !filter.Match(int(tcp.SrcPort), int(tcp.DstPort)) {
		return models.CaptureRecord{}, false
	}

	src, dst := network.NetworkFlow().Endpoints()
	rec := models.CaptureRecord{
		Timestamp: capture.FormatEpoch(packet.Metadata().Timestamp),
		SrcIP:     src.String(),
		DstIP:     dst.String(),
		SrcPort:   int(tcp.SrcPort),
		DstPort:   int(tcp.DstPort),
	}

	// tshark omits tcp.payload for empty segments; match that.
	if len(tcp.Payload) > 0 {
		rec.HasPayload = true
		rec.Payload = hexpayload.Encode(tcp.Payload)
	}
	return rec, true
}
