//go:build !libpcap

package main

import (
	"context"
	"errors"

	"zvtdump/internal/capture"
)

var errNoLibpcap = errors.New("built without libpcap support (rebuild with -tags libpcap)")

func libpcapOpen(ctx context.Context, path string, filter capture.Filter) (capture.Source, error) {
	return nil, &capture.OpenError{Path: path, Err: errNoLibpcap}
}
