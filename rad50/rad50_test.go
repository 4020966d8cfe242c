package rad50_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/velocityboy/rt11fs/rad50"
)

func TestToRad50__KnownValues(t *testing.T) {
	// "ABC" = 1*1600 + 2*40 + 3
	word, ok := rad50.ToRad50("ABC")
	assert.True(t, ok)
	assert.Equal(t, uint16(1683), word)

	word, ok = rad50.ToRad50("   ")
	assert.True(t, ok)
	assert.Equal(t, uint16(0), word)
}

func TestToRad50__RejectsBadInput(t *testing.T) {
	_, ok := rad50.ToRad50("abc") // lowercase is not encodable
	assert.False(t, ok)

	_, ok = rad50.ToRad50("AB")
	assert.False(t, ok)

	_, ok = rad50.ToRad50("A_C")
	assert.False(t, ok)
}

// Encoding and decoding must be inverses over the whole word space that
// decodes to valid characters.
func TestRad50__RoundTrip(t *testing.T) {
	for _, group := range []string{"SWA", "P  ", "SYS", "A$.", "%99", "   "} {
		word, ok := rad50.ToRad50(group)
		assert.True(t, ok, "%q should encode", group)
		assert.Equal(t, group, rad50.FromRad50(word))
	}
}

func TestParseFilename(t *testing.T) {
	name, ok := rad50.ParseFilename("SWAP.SYS")
	assert.True(t, ok)

	w0, _ := rad50.ToRad50("SWA")
	w1, _ := rad50.ToRad50("P  ")
	w2, _ := rad50.ToRad50("SYS")
	assert.Equal(t, rad50.Name{w0, w1, w2}, name)

	// extension is optional
	_, ok = rad50.ParseFilename("HELLO")
	assert.True(t, ok)

	_, ok = rad50.ParseFilename("A.B")
	assert.True(t, ok)
}

func TestParseFilename__RejectsBadNames(t *testing.T) {
	cases := []string{
		"",
		"TOOLONGNAME.SYS",
		"FILE.LONG",
		"lower.sys",
		"BAD_CH.AR",
	}

	for _, name := range cases {
		_, ok := rad50.ParseFilename(name)
		assert.False(t, ok, "%q should not parse", name)
	}
}

func TestFormatFilename(t *testing.T) {
	name, _ := rad50.ParseFilename("SWAP.SYS")
	assert.Equal(t, "SWAP.SYS", rad50.FormatFilename(name))

	name, _ = rad50.ParseFilename("A")
	assert.Equal(t, "A.", rad50.FormatFilename(name))
}
