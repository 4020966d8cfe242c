package directory_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/velocityboy/rt11fs/directory"
)

func TestDecodeDate__KnownValue(t *testing.T) {
	// 1983-06-14: age 0, year bits 11, month 6, day 14
	word := uint16(6<<10 | 14<<5 | 11)

	decoded, ok := directory.DecodeDate(word)
	assert.True(t, ok)
	assert.Equal(t, 1983, decoded.Year())
	assert.Equal(t, time.June, decoded.Month())
	assert.Equal(t, 14, decoded.Day())
}

func TestDecodeDate__AgeExtendsTheEpoch(t *testing.T) {
	// age 1 pushes the base year to 2004
	word := uint16(1<<14 | 1<<10 | 1<<5 | 2)

	decoded, ok := directory.DecodeDate(word)
	assert.True(t, ok)
	assert.Equal(t, 2006, decoded.Year())
}

func TestDecodeDate__InvalidDatesAreZero(t *testing.T) {
	// an unstamped entry
	decoded, ok := directory.DecodeDate(0)
	assert.False(t, ok)
	assert.True(t, decoded.IsZero())

	// month 13
	_, ok = directory.DecodeDate(13<<10 | 1<<5 | 1)
	assert.False(t, ok)

	// June 31st
	_, ok = directory.DecodeDate(6<<10 | 31<<5 | 1)
	assert.False(t, ok)

	// Feb 29 in a non-leap year (1973)
	_, ok = directory.DecodeDate(2<<10 | 29<<5 | 1)
	assert.False(t, ok)
}

func TestDecodeDate__LeapDay(t *testing.T) {
	// Feb 29 1976 is real
	decoded, ok := directory.DecodeDate(2<<10 | 29<<5 | 4)
	assert.True(t, ok)
	assert.Equal(t, 29, decoded.Day())
}

func TestEncodeDate__RoundTrip(t *testing.T) {
	for _, date := range []time.Time{
		time.Date(1972, 1, 1, 0, 0, 0, 0, time.Local),
		time.Date(1983, 6, 14, 0, 0, 0, 0, time.Local),
		time.Date(2024, 12, 31, 0, 0, 0, 0, time.Local),
	} {
		word, ok := directory.EncodeDate(date)
		assert.True(t, ok)

		decoded, ok := directory.DecodeDate(word)
		assert.True(t, ok)
		assert.True(t, date.Equal(decoded), "%s decoded as %s", date, decoded)
	}
}

func TestEncodeDate__OutOfRange(t *testing.T) {
	_, ok := directory.EncodeDate(time.Date(1971, 1, 1, 0, 0, 0, 0, time.Local))
	assert.False(t, ok)

	_, ok = directory.EncodeDate(time.Date(2100, 1, 1, 0, 0, 0, 0, time.Local))
	assert.False(t, ok)
}
