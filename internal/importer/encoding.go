package importer

import (
	"bytes"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// EncodingDetector decides how raw statement bytes are decoded. The default
// heuristic can be swapped for a stricter detector or an explicit user
// override without touching row parsing.
type EncodingDetector interface {
	Detect(raw []byte) encoding.Encoding
}

// cp1251HeaderFingerprint is "Дата", the first word of the export's localized
// header row, encoded in Windows-1251.
var cp1251HeaderFingerprint = []byte{0xc4, 0xe0, 0xf2, 0xe0}

const (
	// detectWindow is how many leading bytes the byte-range heuristic scans.
	detectWindow = 500
	// legacyByteMin..legacyByteMax is the range that is control characters in
	// Unicode but printable punctuation in the legacy code page.
	legacyByteMin = 0x80
	legacyByteMax = 0x9f
	// legacyByteThreshold is the count above which the input is presumed to
	// be legacy-encoded.
	legacyByteThreshold = 4
)

// HeuristicDetector picks Windows-1251 when the raw bytes carry the known
// bank-header fingerprint or enough bytes from the 0x80-0x9F range near the
// start, and UTF-8 otherwise. This is a guess, not a guarantee: a wrong pick
// surfaces as garbled descriptions, never as an error.
type HeuristicDetector struct{}

// Detect implements EncodingDetector.
func (HeuristicDetector) Detect(raw []byte) encoding.Encoding {
	if bytes.Contains(raw, cp1251HeaderFingerprint) {
		return charmap.Windows1251
	}

	window := raw
	if len(window) > detectWindow {
		window = window[:detectWindow]
	}
	n := 0
	for _, b := range window {
		if b >= legacyByteMin && b <= legacyByteMax {
			n++
		}
	}
	if n >= legacyByteThreshold {
		return charmap.Windows1251
	}

	return unicode.UTF8
}

// FixedDetector always reports the same encoding. It backs an explicit user
// override of the heuristic.
type FixedDetector struct {
	Encoding encoding.Encoding
}

// Detect implements EncodingDetector.
func (d FixedDetector) Detect([]byte) encoding.Encoding {
	return d.Encoding
}

var (
	_ EncodingDetector = HeuristicDetector{}
	_ EncodingDetector = FixedDetector{}
)
