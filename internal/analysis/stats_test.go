package analysis

import (
	"testing"

	"zvtdump/internal/models"
)

func TestCaptureStatsSummary(t *testing.T) {
	stats := NewCaptureStats()

	ecr := models.CaptureRecord{SrcIP: "10.0.0.1", DstIP: "10.0.0.2", SrcPort: 51000, DstPort: 22000}
	pt := models.CaptureRecord{SrcIP: "10.0.0.2", DstIP: "10.0.0.1", SrcPort: 22000, DstPort: 51000}

	for i := 0; i < 5; i++ {
		stats.RecordSeen()
	}
	stats.RecordBlob(ecr, 10)
	stats.RecordBlob(ecr, 5)
	stats.RecordBlob(pt, 40)
	stats.RecordSkipped(false)
	stats.RecordDecodeError()

	s := stats.Summary(10)
	if s.Records != 5 || s.Blobs != 3 || s.Bytes != 55 {
		t.Errorf("unexpected totals: %+v", s)
	}
	if s.SkippedNoPayload != 1 || s.SkippedEmpty != 0 || s.DecodeErrors != 1 || s.WriteErrors != 0 {
		t.Errorf("unexpected skip counters: %+v", s)
	}
	if len(s.TopFlows) != 2 {
		t.Fatalf("expected 2 flows, got %d", len(s.TopFlows))
	}
	if s.TopFlows[0].Src != "10.0.0.2" || s.TopFlows[0].Bytes != 40 {
		t.Errorf("largest flow first, got %+v", s.TopFlows[0])
	}
	if s.TopFlows[1].Blobs != 2 || s.TopFlows[1].Service != "ZVT" {
		t.Errorf("unexpected second flow: %+v", s.TopFlows[1])
	}
	if s.TopFlows[0].Service != "ZVT" {
		t.Errorf("service should come from the well known source port, got %q", s.TopFlows[0].Service)
	}
}

func TestTopFlowsLimit(t *testing.T) {
	stats := NewCaptureStats()
	stats.RecordBlob(models.CaptureRecord{SrcIP: "a", DstIP: "b"}, 1)
	stats.RecordBlob(models.CaptureRecord{SrcIP: "c", DstIP: "d"}, 1)
	stats.RecordBlob(models.CaptureRecord{SrcIP: "e", DstIP: "f"}, 3)

	top := stats.TopFlows(2)
	if len(top) != 2 {
		t.Fatalf("expected 2 flows, got %d", len(top))
	}
	if top[0].Src != "e" || top[1].Src != "a" {
		t.Errorf("unexpected order: %+v", top)
	}
}

func TestGetServiceName(t *testing.T) {
	if got := GetServiceName(22000); got != "ZVT" {
		t.Errorf("GetServiceName(22000) = %q", got)
	}
	if got := GetServiceName(51000); got != "51000" {
		t.Errorf("GetServiceName(51000) = %q", got)
	}
}

func TestFlowService(t *testing.T) {
	cases := []struct {
		src, dst int
		want     string
	}{
		{51000, 22000, "ZVT"},
		{22000, 51000, "ZVT"},
		{51000, 443, "HTTPS"},
		{51000, 52000, "52000"},
		{0, 0, ""},
	}
	for _, c := range cases {
		if got := flowService(c.src, c.dst); got != c.want {
			t.Errorf("flowService(%d, %d) = %q, want %q", c.src, c.dst, got, c.want)
		}
	}
}
