// Package hexpayload converts between raw payload bytes and the colon separated
// hex text that tshark uses for byte fields.
package hexpayload

import (
	"encoding/hex"
	"strings"
)

var separators = strings.NewReplacer(":", "", " ", "", "\t", "", "\n", "", "\r", "")

// Decode parses colon separated hex octets ("de:ad:be:ef") into bytes.
// Plain hex without separators is accepted as well. An empty string decodes
// to an empty, non-nil slice.
func Decode(text string) ([]byte, error) {
	b, err := hex.DecodeString(separators.Replace(text))
	if err != nil {
		return nil, err
	}
	if b == nil {
		b = []byte{}
	}
	return b, nil
}

// Encode renders b as lower case colon separated hex octets.
func Encode(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	plain := hex.EncodeToString(b)
	out := make([]byte, 0, len(b)*3-1)
	for i := 0; i < len(plain); i += 2 {
		if i > 0 {
			out = append(out, ':')
		}
		out = append(out, plain[i], plain[i+1])
	}
	return string(out)
}
