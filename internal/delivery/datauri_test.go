package delivery

import (
	"bytes"
	"strings"
	"testing"
)

func TestDataURI_RoundTrip(t *testing.T) {
	payload := []byte{0x00, 0x01, 0xFF, 0xFE, 0x7F, 0x80}
	uri := EncodeDataURI("audio/mpeg", payload)

	if !strings.HasPrefix(uri, "data:audio/mpeg;base64,") {
		t.Fatalf("unexpected prefix: %s", uri)
	}

	mimeType, data, err := DecodeDataURI(uri)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if mimeType != "audio/mpeg" {
		t.Errorf("mime type: got %q, want %q", mimeType, "audio/mpeg")
	}
	if !bytes.Equal(data, payload) {
		t.Errorf("payload mismatch: got %v, want %v", data, payload)
	}
}

func TestDecodeDataURI_Invalid(t *testing.T) {
	cases := []struct {
		name string
		uri  string
	}{
		{"not a data uri", "https://example.com/a.mp3"},
		{"missing payload", "data:audio/mpeg;base64"},
		{"not base64 encoded", "data:audio/mpeg,rawbytes"},
		{"bad base64", "data:audio/mpeg;base64,!!!"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, _, err := DecodeDataURI(c.uri); err == nil {
				t.Errorf("expected error for %q", c.uri)
			}
		})
	}
}
