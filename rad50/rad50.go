// Package rad50 implements the DEC Radix-50 character packing used by RT-11
// filenames: three characters of a 40-symbol alphabet packed into one 16-bit
// word.
package rad50

import (
	"strings"
)

const charset = " ABCDEFGHIJKLMNOPQRSTUVWXYZ$.%0123456789"

// base is 0o50, hence the name Radix-50.
const base = 40

// NameWords is the number of packed words in an RT-11 filename: two words of
// basename plus one word of extension.
const NameWords = 3

// Name is a filename in its on-disk form.
type Name [NameWords]uint16

// FromRad50 unpacks one word into its three characters.
func FromRad50(word uint16) string {
	c0 := charset[(int(word)/(base*base))%base]
	c1 := charset[(int(word)/base)%base]
	c2 := charset[int(word)%base]

	return string([]byte{c0, c1, c2})
}

// ToRad50 packs a three character group. It reports failure if the group is
// not exactly three characters or contains a character outside the Radix-50
// alphabet. Lowercase letters are not in the alphabet and do not pack.
func ToRad50(group string) (uint16, bool) {
	if len(group) != 3 {
		return 0, false
	}

	result := 0
	for i := 0; i < len(group); i++ {
		index := strings.IndexByte(charset, group[i])
		if index < 0 {
			return 0, false
		}
		result = result*base + index
	}

	return uint16(result), true
}

// ParseFilename converts a printable filename into its packed form.
//
// The name must have from 1 to 6 Radix-50 characters, optionally suffixed
// with a dot and an extension of 0 to 3 Radix-50 characters. Both parts are
// space padded on disk.
func ParseFilename(name string) (Name, bool) {
	var packed Name

	base6 := name
	ext := ""

	if n := strings.IndexByte(name, '.'); n >= 0 {
		base6 = name[:n]
		ext = name[n+1:]
	}

	if len(base6) == 0 || len(base6) > 6 || len(ext) > 3 {
		return packed, false
	}

	base6 = (base6 + "      ")[:6]
	ext = (ext + "   ")[:3]

	var ok bool
	if packed[0], ok = ToRad50(base6[0:3]); !ok {
		return packed, false
	}
	if packed[1], ok = ToRad50(base6[3:6]); !ok {
		return packed, false
	}
	if packed[2], ok = ToRad50(ext); !ok {
		return packed, false
	}

	return packed, true
}

// FormatFilename renders a packed name as "BASENAME.EXT" with padding
// trimmed. A name with a blank extension still carries the dot separator,
// matching what the directory listing has always shown.
func FormatFilename(name Name) string {
	printable := FromRad50(name[0]) + FromRad50(name[1])
	printable = strings.TrimRight(printable, " ")
	printable += "."
	printable += FromRad50(name[2])
	return strings.TrimRight(printable, " ")
}
