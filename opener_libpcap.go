//go:build libpcap

package main

import "zvtdump/internal/pcapfile/libpcap"

var libpcapOpen = libpcap.Open
