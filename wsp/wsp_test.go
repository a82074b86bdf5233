package wsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUintvarRoundTrip(t *testing.T) {
	cases := []uint64{0, 1, 127, 128, 16383, 16384, 2097151, 1 << 34}
	for _, v := range cases {
		w := NewWriter()
		w.WriteUintvar(v)
		r := NewReader(w.Bytes())
		got, err := r.ReadUintvar()
		require.NoError(t, err)
		assert.Equal(t, v, got)
		assert.True(t, r.Done())
	}
}

func TestShortIntegerRoundTrip(t *testing.T) {
	for v := byte(0); v <= ShortIntegerMax; v++ {
		w := NewWriter()
		require.NoError(t, w.WriteShortInteger(v))
		r := NewReader(w.Bytes())
		got, err := r.ReadShortInteger()
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}

func TestShortIntegerRejectsOutOfRange(t *testing.T) {
	w := NewWriter()
	assert.Error(t, w.WriteShortInteger(0x80))
}

func TestLongIntegerRoundTrip(t *testing.T) {
	cases := []uint64{0, 1, 255, 65535, 1 << 40}
	for _, v := range cases {
		w := NewWriter()
		require.NoError(t, w.WriteLongInteger(v))
		r := NewReader(w.Bytes())
		got, err := r.ReadLongInteger()
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}

func TestValueLengthShortAndLongForm(t *testing.T) {
	for _, n := range []uint64{0, 30, 31, 127, 1000} {
		w := NewWriter()
		w.WriteValueLength(n)
		r := NewReader(w.Bytes())
		got, err := r.ReadValueLength()
		require.NoError(t, err)
		assert.Equal(t, n, got)
	}
}

func TestTextStringEscapesHighBitFirstByte(t *testing.T) {
	w := NewWriter()
	s := string([]byte{0x81, 'x'})
	w.WriteTextString(s)
	assert.Equal(t, byte(QUOTE), w.Bytes()[0])

	r := NewReader(w.Bytes())
	got, err := r.ReadTextString()
	require.NoError(t, err)
	assert.Equal(t, s, got)
}

func TestTextStringRoundTripPlainASCII(t *testing.T) {
	w := NewWriter()
	w.WriteTextString("hello")
	r := NewReader(w.Bytes())
	got, err := r.ReadTextString()
	require.NoError(t, err)
	assert.Equal(t, "hello", got)
}

func TestQuotedStringRoundTrip(t *testing.T) {
	w := NewWriter()
	w.WriteQuotedString("<abc@example.com>")
	r := NewReader(w.Bytes())
	got, err := r.ReadQuotedString()
	require.NoError(t, err)
	assert.Equal(t, "<abc@example.com>", got)
}

func TestDateValueRoundTrip(t *testing.T) {
	w := NewWriter()
	require.NoError(t, w.WriteDateValue(1700000000))
	r := NewReader(w.Bytes())
	got, err := r.ReadDateValue()
	require.NoError(t, err)
	assert.EqualValues(t, 1700000000, got)
}

func TestVersionPacking(t *testing.T) {
	v := Version(1, 3)
	assert.Equal(t, byte(1), VersionMajor(v))
	assert.Equal(t, byte(3), VersionMinor(v))
}

func TestReaderTruncated(t *testing.T) {
	r := NewReader([]byte{0x81})
	_, err := r.ReadUintvar()
	assert.ErrorIs(t, err, ErrTruncated)
}
