// Package analysis accumulates statistics over one extraction pass.
package analysis

import (
	"sort"

	"zvtdump/internal/models"
)

// FlowStat holds totals for one direction of one endpoint pair.
type FlowStat struct {
	Src     string
	Dst     string
	Service string
	Blobs   int
	Bytes   int64
}

// Summary is a snapshot of the counters collected during a run.
type Summary struct {
	Records          int64
	Blobs            int64
	Bytes            int64
	SkippedNoPayload int64
	SkippedEmpty     int64
	DecodeErrors     int64
	WriteErrors      int64
	TopFlows         []FlowStat
}

type flowKey struct {
	src, dst string
}

// CaptureStats tracks what happened to each record of a capture.
// It is not safe for concurrent use; the extractor is single threaded.
type CaptureStats struct {
	records          int64
	blobs            int64
	bytes            int64
	skippedNoPayload int64
	skippedEmpty     int64
	decodeErrors     int64
	writeErrors      int64
	flows            map[flowKey]*FlowStat
}

// NewCaptureStats creates a new CaptureStats instance.
func NewCaptureStats() *CaptureStats {
	return &CaptureStats{
		flows: make(map[flowKey]*FlowStat),
	}
}

// RecordSeen counts a record produced by the capture reader.
func (s *CaptureStats) RecordSeen() {
	s.records++
}

// RecordSkipped counts a record that produced no blob by design.
// empty distinguishes a present but empty payload from a missing one.
func (s *CaptureStats) RecordSkipped(empty bool) {
	if empty {
		s.skippedEmpty++
		return
	}
	s.skippedNoPayload++
}

// RecordDecodeError counts a payload that could not be decoded.
func (s *CaptureStats) RecordDecodeError() {
	s.decodeErrors++
}

// RecordWriteError counts a blob that could not be written.
func (s *CaptureStats) RecordWriteError() {
	s.writeErrors++
}

// RecordBlob counts a written blob of n bytes against its flow.
func (s *CaptureStats) RecordBlob(rec models.CaptureRecord, n int) {
	s.blobs++
	s.bytes += int64(n)

	key := flowKey{src: rec.SrcIP, dst: rec.DstIP}
	flow, ok := s.flows[key]
	if !ok {
		flow = &FlowStat{Src: rec.SrcIP, Dst: rec.DstIP}
		s.flows[key] = flow
	}
	if flow.Service == "" {
		flow.Service = flowService(rec.SrcPort, rec.DstPort)
	}
	flow.Blobs++
	flow.Bytes += int64(n)
}

// TopFlows returns the top N flows by bytes written.
func (s *CaptureStats) TopFlows(limit int) []FlowStat {
	// Convert map to slice
	stats := make([]FlowStat, 0, len(s.flows))
	for _, flow := range s.flows {
		stats = append(stats, *flow)
	}

	// Sort descending by bytes, then by endpoints for stable output
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Bytes != stats[j].Bytes {
			return stats[i].Bytes > stats[j].Bytes
		}
		if stats[i].Src != stats[j].Src {
			return stats[i].Src < stats[j].Src
		}
		return stats[i].Dst < stats[j].Dst
	})

	// Limit results
	if limit >= 0 && len(stats) > limit {
		return stats[:limit]
	}
	return stats
}

// Summary returns the current counters with the top flowLimit flows.
func (s *CaptureStats) Summary(flowLimit int) Summary {
	return Summary{
		Records:          s.records,
		Blobs:            s.blobs,
		Bytes:            s.bytes,
		SkippedNoPayload: s.skippedNoPayload,
		SkippedEmpty:     s.skippedEmpty,
		DecodeErrors:     s.decodeErrors,
		WriteErrors:      s.writeErrors,
		TopFlows:         s.TopFlows(flowLimit),
	}
}
