package directory

import (
	"time"
)

// The creation date is packed into one word: bits 0-4 are the year since the
// epoch, bits 5-9 the day, bits 10-13 the month, and bits 14-15 an "age"
// counting 32-year spans past 1972.

const dateEpochYear = 1972

var daysPerMonth = [13]int{0, 31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// DecodeDate unpacks a creation date word. Words that do not describe a real
// calendar date (including the all-zero word of entries that were never
// stamped) decode to the zero time and ok=false.
func DecodeDate(word uint16) (time.Time, bool) {
	age := int(word>>14) & 0o3
	month := int(word>>10) & 0o17
	day := int(word>>5) & 0o37
	year := dateEpochYear + age*32 + int(word&0o37)

	if month < 1 || month > 12 {
		return time.Time{}, false
	}

	maxDay := daysPerMonth[month]
	if month == 2 && isLeapYear(year) {
		maxDay = 29
	}
	if day < 1 || day > maxDay {
		return time.Time{}, false
	}

	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.Local), true
}

// EncodeDate packs a timestamp into the on-disk form. Years before the epoch
// or past the last representable age span cannot be encoded; ok=false and
// callers store a zero word.
func EncodeDate(t time.Time) (uint16, bool) {
	year := t.Year() - dateEpochYear
	if year < 0 || year >= 4*32 {
		return 0, false
	}

	age := year / 32
	word := uint16(age&0o3)<<14 |
		uint16(int(t.Month())&0o17)<<10 |
		uint16(t.Day()&0o37)<<5 |
		uint16(year%32)

	return word, true
}

func isLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}
