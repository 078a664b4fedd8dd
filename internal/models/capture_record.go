package models

// CaptureRecord holds the fields of one decoded packet that the extractor needs.
type CaptureRecord struct {
	// Timestamp is the capture time in epoch seconds, kept exactly as the
	// reader rendered it. It is never parsed or rounded.
	Timestamp string
	SrcIP     string
	DstIP     string
	SrcPort   int
	DstPort   int

	// Payload is the TCP payload as colon separated hex octets ("de:ad:be:ef").
	// HasPayload is false when the packet carried no payload field at all,
	// which is different from a present but empty payload.
	Payload    string
	HasPayload bool
}
