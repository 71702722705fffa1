// File: pkg/prefilter/binary.go
package prefilter

import "bytes"

// sniffLen is how much of a file's head is inspected for binary content.
const sniffLen = 512

// IsBinaryContent reports whether data looks binary: a NUL byte in the head, or
// more than 30% non-printable bytes.
func IsBinaryContent(data []byte) bool {
	head := data
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}
	if len(head) == 0 {
		return false // Empty files are considered text
	}
	if bytes.IndexByte(head, 0) >= 0 {
		return true
	}

	nonPrintable := 0
	for _, b := range head {
		if !isPrintable(b) {
			nonPrintable++
		}
	}
	return float64(nonPrintable)/float64(len(head)) > 0.3
}

// isPrintable treats ASCII printables, common whitespace and UTF-8 continuation bytes as text.
func isPrintable(b byte) bool {
	return (b >= 32 && b <= 126) || b == '\n' || b == '\r' || b == '\t' || b >= 0x80
}
