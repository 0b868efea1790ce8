package da

import (
	"sort"
	"strings"
)

// DA is a set-like sorted sequence of dialogue act items representing one
// turn's meaning.
type DA struct {
	items []*Item
}

// NewDA builds a dialogue act from items.
func NewDA(items ...*Item) *DA {
	d := &DA{}
	for _, it := range items {
		d.Append(it)
	}
	return d
}

// Parse parses the textual dialogue act form, DAIs joined by '&'.
func Parse(text string) (*DA, error) {
	d := &DA{}
	for _, part := range strings.Split(text, "&") {
		it, err := ParseItem(part)
		if err != nil {
			return nil, err
		}
		d.Append(it)
	}
	return d, nil
}

// Append adds an item without sorting.
func (d *DA) Append(it *Item) {
	d.items = append(d.items, it)
}

// Items returns the item slice; callers must not mutate it.
func (d *DA) Items() []*Item {
	return d.items
}

// Len returns the number of items.
func (d *DA) Len() int {
	return len(d.items)
}

// String joins the canonical item forms with '&'.
func (d *DA) String() string {
	parts := make([]string, len(d.items))
	for i, it := range d.items {
		parts[i] = it.String()
	}
	return strings.Join(parts, "&")
}

// Equal reports whether both acts render to the same canonical form.
func (d *DA) Equal(other *DA) bool {
	return d.String() == other.String()
}

// HasDAT reports whether any item carries the dialogue act type.
func (d *DA) HasDAT(daType string) bool {
	for _, it := range d.items {
		if it.DAType == daType {
			return true
		}
	}
	return false
}

// Contains reports whether an equal item is present.
func (d *DA) Contains(item *Item) bool {
	for _, it := range d.items {
		if it.Equal(item) {
			return true
		}
	}
	return false
}

// Sort orders the items canonically and merges duplicates, unioning their
// unnormalized value sets. Sorting twice is a no-op.
func (d *DA) Sort() {
	sort.SliceStable(d.items, func(i, j int) bool {
		return CompareItems(d.items[i], d.items[j]) < 0
	})
	merged := make([]*Item, 0, len(d.items))
	for _, it := range d.items {
		found := false
		for _, m := range merged {
			if m.Equal(it) {
				m.addUnnormValues(it.unnormValues)
				found = true
				break
			}
		}
		if !found {
			merged = append(merged, it)
		}
	}
	d.items = merged
}

// Clone returns a deep copy.
func (d *DA) Clone() *DA {
	c := &DA{items: make([]*Item, len(d.items))}
	for i, it := range d.items {
		c.items[i] = it.Clone()
	}
	return c
}
