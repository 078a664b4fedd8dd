//go:build libpcap

// Package libpcap opens capture files through libpcap, applying the port
// filter as a BPF program.
package libpcap

import (
	"context"

	"github.com/google/gopacket/pcap"

	"zvtdump/internal/capture"
	"zvtdump/internal/pcapfile"
)

type handleCloser struct {
	handle *pcap.Handle
}

func (c handleCloser) Close() error {
	c.handle.Close()
	return nil
}

// Open is a capture.Opener backed by pcap.OpenOffline.
func Open(ctx context.Context, path string, filter capture.Filter) (capture.Source, error) {
	handle, err := pcap.OpenOffline(path)
	if err != nil {
		return nil, &capture.OpenError{Path: path, Err: err}
	}
	if err := handle.SetBPFFilter(filter.BPF()); err != nil {
		handle.Close()
		return nil, &capture.OpenError{Path: path, Err: err}
	}
	return pcapfile.NewPacketReader(handle, handle.LinkType(), filter, handleCloser{handle}), nil
}
