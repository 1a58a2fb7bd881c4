package client

import (
	"bytes"
	"testing"
)

func TestScrubNullBytes(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want []byte
	}{
		{
			name: "clean body untouched",
			in:   []byte(`[{"a":1}]`),
			want: []byte(`[{"a":1}]`),
		},
		{
			name: "raw null bytes removed",
			in:   []byte("ab\x00cd\x00"),
			want: []byte("abcd"),
		},
		{
			name: "escaped nulls removed",
			in:   []byte(`{"note":"x\u0000y"}`),
			want: []byte(`{"note":"xy"}`),
		},
		{
			name: "mixed",
			in:   []byte("\x00{\"a\":\"b\\u0000c\"}"),
			want: []byte(`{"a":"bc"}`),
		},
		{
			name: "empty body",
			in:   []byte{},
			want: []byte{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := scrubNullBytes(tt.in); !bytes.Equal(got, tt.want) {
				t.Errorf("scrubNullBytes() = %q, want %q", got, tt.want)
			}
		})
	}
}
