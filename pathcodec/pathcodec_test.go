package pathcodec

import (
	"testing"

	"github.com/optimalbrew/rskj/bitpath"
	"github.com/stretchr/testify/require"
)

func TestRoundTripShortRange(t *testing.T) {
	for length := 1; length <= 32; length++ {
		key := make([]byte, bitpath.EncodedLen(length))
		for i := range key {
			key[i] = byte(i + 1)
		}
		p := bitpath.FromKey(key).Slice(0, length)
		enc := Encode(nil, p)
		require.Equal(t, byte(length-1), enc[0])
		require.Equal(t, EncodedLen(length), len(enc))

		got, n, err := Decode(enc, true)
		require.NoError(t, err)
		require.Equal(t, len(enc), n)
		require.True(t, p.Equal(got))
	}
}

func TestRoundTripMediumRange(t *testing.T) {
	for _, length := range []int{160, 161, 200, 382} {
		key := make([]byte, bitpath.EncodedLen(length))
		p := bitpath.FromKey(key).Slice(0, length)
		enc := Encode(nil, p)
		require.Equal(t, byte(length-128), enc[0])

		got, n, err := Decode(enc, true)
		require.NoError(t, err)
		require.Equal(t, len(enc), n)
		require.True(t, p.Equal(got))
	}
}

func TestRoundTripEscapedRange(t *testing.T) {
	for _, length := range []int{33, 159, 383, 1000} {
		key := make([]byte, bitpath.EncodedLen(length))
		p := bitpath.FromKey(key).Slice(0, length)
		enc := Encode(nil, p)
		require.Equal(t, byte(255), enc[0])

		got, n, err := Decode(enc, true)
		require.NoError(t, err)
		require.Equal(t, len(enc), n)
		require.True(t, p.Equal(got))
	}
}

func TestAbsentWhenNotPresent(t *testing.T) {
	got, n, err := Decode([]byte{0xAA, 0xBB}, false)
	require.NoError(t, err)
	require.Equal(t, 0, n)
	require.True(t, got.IsEmpty())
}

func TestDecodeTruncated(t *testing.T) {
	_, _, err := Decode(nil, true)
	require.Error(t, err)

	// tag says length=32 (1 byte tag value 31) but body is missing.
	_, _, err = Decode([]byte{31}, true)
	require.Error(t, err)
}
