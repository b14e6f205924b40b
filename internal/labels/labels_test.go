package labels_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"don-provisioner/internal/labels"
)

func TestEncodeStreamLabel(t *testing.T) {
	assert.Equal(t, "stream-id-0", labels.EncodeStreamLabel(0))
	assert.Equal(t, "stream-id-42", labels.EncodeStreamLabel(42))
	assert.Equal(t, "stream-id-4294967295", labels.EncodeStreamLabel(math.MaxUint32))
}

func TestDecodeStreamLabelRoundTrip(t *testing.T) {
	for _, id := range []uint32{0, 1, 7, 42, 99999, math.MaxUint32} {
		decoded, err := labels.DecodeStreamLabel(labels.EncodeStreamLabel(id))
		require.NoError(t, err)
		assert.Equal(t, id, decoded)
	}
}

func TestDecodeStreamLabelMalformed(t *testing.T) {
	for _, label := range []string{
		"",
		"not-a-label",
		"stream-id-",
		"stream-id-12x",
		"stream-id--1",
		"stream-id- 42",
		"stream-id-42 ",
		"don-7-my_don",
		"xstream-id-42",
	} {
		_, err := labels.DecodeStreamLabel(label)
		assert.ErrorIs(t, err, labels.ErrMalformedLabel, "label %q", label)
		assert.Contains(t, err.Error(), label)
	}
}

func TestDecodeStreamLabelOutOfRange(t *testing.T) {
	for _, label := range []string{
		"stream-id-99999999999999",
		"stream-id-4294967296",
	} {
		_, err := labels.DecodeStreamLabel(label)
		assert.ErrorIs(t, err, labels.ErrOutOfRange, "label %q", label)
	}

	// MaxUint32 itself still decodes.
	id, err := labels.DecodeStreamLabel("stream-id-4294967295")
	require.NoError(t, err)
	assert.Equal(t, uint32(math.MaxUint32), id)
}

func TestEncodeDonLabel(t *testing.T) {
	assert.Equal(t, "don-1-mainnet", labels.EncodeDonLabel(1, "mainnet"))
	assert.Equal(t, "don-12-staging_eu_west_1", labels.EncodeDonLabel(12, "staging (eu-west-1)"))
}

func TestEncodeDonLabelIsLossy(t *testing.T) {
	// Names differing only in punctuation and spacing collapse to one label.
	a := labels.EncodeDonLabel(7, "My DON!!")
	b := labels.EncodeDonLabel(7, "My_DON")
	assert.Equal(t, a, b)
	assert.Equal(t, "don-7-My_DON", a)
}
