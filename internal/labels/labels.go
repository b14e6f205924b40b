// Package labels encodes DON and stream identifiers into the stable label
// strings the fleet-management layer attaches to jobs and nodes.
package labels

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const streamLabelPrefix = "stream-id-"

var (
	// ErrMalformedLabel is returned when a label does not match the expected
	// grammar.
	ErrMalformedLabel = errors.New("malformed label")
	// ErrOutOfRange is returned when a label's identifier does not fit in 32
	// bits.
	ErrOutOfRange = errors.New("label identifier out of range")
)

// EncodeDonLabel formats "don-<id>-<name>" with the DON name normalized to
// [a-zA-Z0-9_]. The encoding is lossy: names differing only in punctuation or
// spacing produce the same label.
func EncodeDonLabel(donID uint32, donName string) string {
	return fmt.Sprintf("don-%d-%s", donID, normalizeDonName(donName))
}

// normalizeDonName collapses each run of characters outside [a-zA-Z0-9] into a
// single underscore and drops leading and trailing runs entirely.
func normalizeDonName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	pending := false
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			if pending && b.Len() > 0 {
				b.WriteByte('_')
			}
			pending = false
			b.WriteRune(r)
		default:
			pending = true
		}
	}
	return b.String()
}

// EncodeStreamLabel formats "stream-id-<id>". Invertible via
// DecodeStreamLabel.
func EncodeStreamLabel(streamID uint32) string {
	return streamLabelPrefix + strconv.FormatUint(uint64(streamID), 10)
}

// DecodeStreamLabel recovers the stream identifier from a label produced by
// EncodeStreamLabel.
func DecodeStreamLabel(label string) (uint32, error) {
	digits, ok := strings.CutPrefix(label, streamLabelPrefix)
	if !ok || digits == "" {
		return 0, fmt.Errorf("%w: %q", ErrMalformedLabel, label)
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("%w: %q", ErrMalformedLabel, label)
		}
	}
	id, err := strconv.ParseUint(digits, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrOutOfRange, label)
	}
	return uint32(id), nil
}
