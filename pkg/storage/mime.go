package storage

import (
	"bytes"
	"net/http"
	"strings"
)

// MIME type constants.
const (
	MIMEPDF            = "application/pdf"
	MIMEOctetStream    = "application/octet-stream"
	mimeDetectionBytes = 512 // http.DetectContentType requires up to 512 bytes
)

// pdfMagic is the signature every PDF file starts with.
var pdfMagic = []byte("%PDF-")

// DetectMIME detects the MIME type of data from its magic bytes.
func DetectMIME(data []byte) string {
	if bytes.HasPrefix(data, pdfMagic) {
		return MIMEPDF
	}
	if len(data) > mimeDetectionBytes {
		data = data[:mimeDetectionBytes]
	}
	return normalizeMIME(http.DetectContentType(data))
}

// normalizeMIME strips parameters and lowercases a MIME type.
func normalizeMIME(mimeType string) string {
	if idx := strings.Index(mimeType, ";"); idx != -1 {
		mimeType = mimeType[:idx]
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}

// matchesMIME reports whether mimeType matches pattern.
// Patterns may end in "/*" to match a whole family.
func matchesMIME(mimeType, pattern string) bool {
	mimeType = normalizeMIME(mimeType)
	pattern = normalizeMIME(pattern)
	if pattern == "*/*" || pattern == mimeType {
		return true
	}
	if family, ok := strings.CutSuffix(pattern, "/*"); ok {
		return strings.HasPrefix(mimeType, family+"/")
	}
	return false
}
