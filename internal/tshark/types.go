package tshark

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// EkPacket represents the top-level structure of a Tshark -T ek output line.
type EkPacket struct {
	Timestamp string   `json:"timestamp"`
	Layers    EkLayers `json:"layers"`
}

// EkLayers holds the fields requested with -e.
// When using -e flags with -T ek, tshark flattens the structure and replaces dots with underscores.
type EkLayers struct {
	FrameTimeEpoch ekValues `json:"frame_time_epoch,omitempty"`
	IPSrc          ekValues `json:"ip_src,omitempty"`
	IPDst          ekValues `json:"ip_dst,omitempty"`
	IPv6Src        ekValues `json:"ipv6_src,omitempty"`
	IPv6Dst        ekValues `json:"ipv6_dst,omitempty"`
	TCPSrcPort     ekValues `json:"tcp_srcport,omitempty"`
	TCPDstPort     ekValues `json:"tcp_dstport,omitempty"`

	// Absent (nil) when the segment carried no payload.
	TCPPayload ekValues `json:"tcp_payload,omitempty"`
}

// fields lists the -e arguments matching EkLayers.
var fields = []string{
	"frame.time_epoch",
	"ip.src", "ip.dst",
	"ipv6.src", "ipv6.dst",
	"tcp.srcport", "tcp.dstport",
	"tcp.payload",
}

// ekValues holds one -e field. Depending on the tshark version and field type
// the values arrive as JSON strings, numbers or booleans.
type ekValues []string

func (v *ekValues) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(ekValues, 0, len(raw))
	for _, item := range raw {
		item = bytes.TrimSpace(item)
		if len(item) > 0 && item[0] == '"' {
			var s string
			if err := json.Unmarshal(item, &s); err != nil {
				return err
			}
			out = append(out, s)
			continue
		}
		switch {
		case bytes.Equal(item, []byte("true")), bytes.Equal(item, []byte("false")):
		case len(item) > 0 && (item[0] == '-' || (item[0] >= '0' && item[0] <= '9')):
		default:
			return fmt.Errorf("unexpected ek value %s", item)
		}
		out = append(out, string(item))
	}
	*v = out
	return nil
}
