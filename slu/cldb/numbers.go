package cldb

import (
	"fmt"
	"strconv"
)

var ones = []string{
	"zero", "one", "two", "three", "four", "five", "six", "seven", "eight",
	"nine", "ten", "eleven", "twelve", "thirteen", "fourteen", "fifteen",
	"sixteen", "seventeen", "eighteen", "nineteen",
}

var tens = []string{
	"", "", "twenty", "thirty", "forty", "fifty",
}

// SpellNumber renders 0..59 as its spoken English form. Out-of-range
// numbers come back as digits.
func SpellNumber(n int) string {
	if n < 0 || n > 59 {
		return strconv.Itoa(n)
	}
	if n < 20 {
		return ones[n]
	}
	t, o := n/10, n%10
	if o == 0 {
		return tens[t]
	}
	return tens[t] + " " + ones[o]
}

var ordinalIrregular = map[int]string{
	1: "first", 2: "second", 3: "third", 5: "fifth", 8: "eighth",
	9: "ninth", 12: "twelfth",
}

// SpellOrdinal renders 1..59 as its spoken ordinal form ("first",
// "twenty third").
func SpellOrdinal(n int) string {
	if s, ok := ordinalIrregular[n]; ok {
		return s
	}
	if n >= 20 && n%10 != 0 {
		if s, ok := ordinalIrregular[n%10]; ok {
			return tens[n/10] + " " + s
		}
		return tens[n/10] + " " + ones[n%10] + "th"
	}
	base := SpellNumber(n)
	switch {
	case len(base) > 0 && base[len(base)-1] == 'y':
		return base[:len(base)-1] + "ieth"
	case len(base) > 0 && base[len(base)-1] == 'e':
		return base + "th"
	default:
		return base + "th"
	}
}

// AddNumberForms populates the NUMBER category with spelled and digit
// forms for 0..59.
func (db *Database) AddNumberForms() {
	for n := 0; n <= 59; n++ {
		value := strconv.Itoa(n)
		db.AddForm("number", value, SpellNumber(n))
		db.AddForm("number", value, value)
	}
}

// AddTimeForms populates the TIME category with H:MM values and their
// spoken forms for a 12-hour clock.
func (db *Database) AddTimeForms() {
	for h := 1; h <= 12; h++ {
		for _, m := range []int{0, 15, 30, 45} {
			value := fmt.Sprintf("%d:%02d", h, m)
			switch m {
			case 0:
				db.AddForm("time", value, SpellNumber(h)+" o'clock")
				db.AddForm("time", value, SpellNumber(h))
			case 15:
				db.AddForm("time", value, "quarter past "+SpellNumber(h))
			case 30:
				db.AddForm("time", value, "half past "+SpellNumber(h))
			case 45:
				db.AddForm("time", value, "quarter to "+SpellNumber(h%12+1))
			}
			db.AddForm("time", value, fmt.Sprintf("%d %02d", h, m))
		}
	}
}
