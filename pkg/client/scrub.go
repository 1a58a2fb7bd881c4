package client

import "bytes"

// Merit responses occasionally contain null bytes, both raw and as the JSON
// escape sequence. They break downstream JSON decoding and must be removed
// before the payload leaves the client.
var (
	rawNull     = []byte{0x00}
	escapedNull = []byte(`\u0000`)
)

// scrubNullBytes removes raw and escaped null bytes from a response body.
func scrubNullBytes(data []byte) []byte {
	if !bytes.Contains(data, rawNull) && !bytes.Contains(data, escapedNull) {
		return data
	}
	data = bytes.ReplaceAll(data, rawNull, nil)
	return bytes.ReplaceAll(data, escapedNull, nil)
}
