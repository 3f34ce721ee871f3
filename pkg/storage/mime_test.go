package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDetectMIME(t *testing.T) {
	t.Parallel()

	require.Equal(t, MIMEPDF, DetectMIME([]byte("%PDF-1.7\n...")))
	require.Equal(t, "text/plain", DetectMIME([]byte("hello world")))
	require.Equal(t, MIMEOctetStream, DetectMIME([]byte{0x00, 0x01, 0x02, 0xff}))
}

func TestMatchesMIME(t *testing.T) {
	t.Parallel()

	tests := []struct {
		mime    string
		pattern string
		want    bool
	}{
		{mime: "application/pdf", pattern: "application/pdf", want: true},
		{mime: "Application/PDF; charset=binary", pattern: "application/pdf", want: true},
		{mime: "application/pdf", pattern: "application/*", want: true},
		{mime: "image/png", pattern: "*/*", want: true},
		{mime: "image/png", pattern: "application/pdf", want: false},
		{mime: "applicationx/pdf", pattern: "application/*", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.mime+"~"+tt.pattern, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, matchesMIME(tt.mime, tt.pattern))
		})
	}
}
