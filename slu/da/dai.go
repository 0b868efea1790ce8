// Package da models dialogue acts: act-type/slot/value triples, sets of
// them, and their probabilistic containers the SLU emits.
package da

import (
	"strings"

	"github.com/golangast/transitslu/sluerr"
)

// Item is a dialogue act item: a (dialogue-act-type, slot, value) triple.
// Slot and value may be empty. Equality and ordering follow the canonical
// String form.
type Item struct {
	DAType string
	Name   string
	Value  string

	// origValue remembers the concrete value while Value temporarily holds
	// a category label (or a normalized form), so the swap can be undone.
	origValue   string
	origIsLabel bool

	// unnormValues collects the unnormalized surface values merged into
	// this item by DialogueAct.Sort.
	unnormValues []string
}

// NewItem builds a dialogue act item.
func NewItem(daType, name, value string) *Item {
	return &Item{DAType: daType, Name: name, Value: value}
}

// NewNull returns the sentinel null() item.
func NewNull() *Item {
	return NewItem("null", "", "")
}

// IsNull reports whether the item is the sentinel null().
func (it *Item) IsNull() bool {
	return it.DAType == "null" && it.Name == "" && it.Value == ""
}

// String renders the canonical textual form: dat, dat(slot),
// dat(slot=value) or dat(slot="value with spaces"). A category-label
// value keeps its original surface as CATEGORY:surface, so parse and
// render round-trip.
func (it *Item) String() string {
	var b strings.Builder
	b.WriteString(it.DAType)
	if it.Name == "" && it.Value == "" {
		b.WriteString("()")
		return b.String()
	}
	b.WriteByte('(')
	b.WriteString(it.Name)
	if it.Value != "" {
		b.WriteByte('=')
		val := it.Value
		if it.origIsLabel && it.origValue != "" {
			val = it.Value + ":" + it.origValue
		}
		if strings.ContainsAny(val, " =()&") {
			b.WriteByte('"')
			b.WriteString(val)
			b.WriteByte('"')
		} else {
			b.WriteString(val)
		}
	}
	b.WriteByte(')')
	return b.String()
}

// Equal reports canonical-form equality.
func (it *Item) Equal(other *Item) bool {
	return it.DAType == other.DAType && it.Name == other.Name && it.Value == other.Value
}

// Clone returns a deep copy.
func (it *Item) Clone() *Item {
	c := *it
	c.unnormValues = append([]string(nil), it.unnormValues...)
	return &c
}

// HasValue reports whether the item carries a slot value.
func (it *Item) HasValue() bool {
	return it.Value != ""
}

// ValueToCategoryLabel swaps the concrete value for a category label,
// remembering the original so CategoryLabelToValue can restore it.
func (it *Item) ValueToCategoryLabel(label string) {
	if it.origIsLabel {
		return
	}
	it.origValue = it.Value
	it.origIsLabel = true
	it.Value = label
}

// CategoryLabelToValue restores the concrete value remembered by
// ValueToCategoryLabel.
func (it *Item) CategoryLabelToValue() {
	if !it.origIsLabel {
		return
	}
	it.Value = it.origValue
	it.origValue = ""
	it.origIsLabel = false
}

// SetConcreteValue overwrites a category-label value with a concrete one,
// dropping the swap bookkeeping.
func (it *Item) SetConcreteValue(value string) {
	it.Value = value
	it.origValue = ""
	it.origIsLabel = false
}

// CategoryLabel returns the category label currently standing in for the
// value, or "" when the value is concrete.
func (it *Item) CategoryLabel() string {
	if it.origIsLabel {
		return it.Value
	}
	return ""
}

// OrigValue returns the concrete value remembered across a category-label
// swap.
func (it *Item) OrigValue() string {
	if it.origIsLabel {
		return it.origValue
	}
	return it.Value
}

// UnnormValues returns the unnormalized surface values unioned into this
// item.
func (it *Item) UnnormValues() []string {
	return append([]string(nil), it.unnormValues...)
}

func (it *Item) addUnnormValues(values []string) {
	for _, v := range values {
		seen := false
		for _, have := range it.unnormValues {
			if have == v {
				seen = true
				break
			}
		}
		if !seen {
			it.unnormValues = append(it.unnormValues, v)
		}
	}
}

// ParseItem parses the textual DAI form. Quoted values are dequoted; a
// category-label-tagged value "CATEGORY:surface" keeps both sides.
func ParseItem(text string) (*Item, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, sluerr.DAIParsef("empty dialogue act item")
	}
	open := strings.IndexByte(text, '(')
	if open < 0 {
		if strings.ContainsAny(text, ")=&") {
			return nil, sluerr.DAIParsef("malformed dialogue act item: %q", text)
		}
		return NewItem(text, "", ""), nil
	}
	if !strings.HasSuffix(text, ")") {
		return nil, sluerr.DAIParsef("dialogue act item lacks closing parenthesis: %q", text)
	}
	daType := text[:open]
	if daType == "" {
		return nil, sluerr.DAIParsef("dialogue act item lacks an act type: %q", text)
	}
	inner := text[open+1 : len(text)-1]
	if inner == "" {
		return NewItem(daType, "", ""), nil
	}
	name, value, hasValue := strings.Cut(inner, "=")
	name = strings.TrimSpace(name)
	if !hasValue {
		return NewItem(daType, name, ""), nil
	}
	value = strings.TrimSpace(value)
	if len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"' {
		value = value[1 : len(value)-1]
	}
	it := NewItem(daType, name, value)
	if cat, orig, tagged := strings.Cut(value, ":"); tagged && isCategoryName(cat) {
		// CATEGORY:originalsurface form
		it.Value = cat
		it.origValue = orig
		it.origIsLabel = true
	}
	return it, nil
}

// isCategoryName reports whether s looks like a category label: upper-case
// letters and underscores only.
func isCategoryName(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < 'A' || r > 'Z') && r != '_' {
			return false
		}
	}
	return true
}

// CompareItems orders items by their canonical string form.
func CompareItems(a, b *Item) int {
	return strings.Compare(a.String(), b.String())
}
