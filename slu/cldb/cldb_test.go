package cldb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
database:
  city:
    "New York":
      - "new york"
      - "new york city"
    "Baltimore":
      - "baltimore"
  street:
    "5 Ave":
      - "fifth avenue"
`

func TestParse(t *testing.T) {
	db, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, []string{"city", "street"}, db.Categories())
	assert.Equal(t, 3, db.MaxFormLen())

	entries := db.Lookup([]string{"fifth", "avenue"})
	require.Len(t, entries, 1)
	assert.Equal(t, "5 Ave", entries[0].Value)
	assert.Equal(t, "street", entries[0].Category)

	assert.Empty(t, db.Lookup([]string{"boston"}))
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not yaml", ":\n  - ["},
		{"missing database key", "cities:\n  x: [y]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.raw))
			assert.Error(t, err)
		})
	}
}

func TestFormValCatsLongestFirst(t *testing.T) {
	db, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	fvcs := db.FormValCats()
	require.NotEmpty(t, fvcs)
	for i := 1; i < len(fvcs); i++ {
		assert.GreaterOrEqual(t, len(fvcs[i-1].Form), len(fvcs[i].Form))
	}
}

func TestSpellNumber(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, "zero"}, {7, "seven"}, {13, "thirteen"}, {20, "twenty"},
		{21, "twenty one"}, {45, "forty five"}, {59, "fifty nine"},
		{60, "60"}, {-1, "-1"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SpellNumber(tt.n), "n=%d", tt.n)
	}
}

func TestSpellOrdinal(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{1, "first"}, {2, "second"}, {3, "third"}, {4, "fourth"},
		{5, "fifth"}, {12, "twelfth"}, {20, "twentieth"},
		{21, "twenty first"}, {34, "thirty fourth"}, {42, "forty second"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SpellOrdinal(tt.n), "n=%d", tt.n)
	}
}

func TestAddNumberAndTimeForms(t *testing.T) {
	db := NewEmpty()
	db.AddNumberForms()
	db.AddTimeForms()
	db.BuildIndices()

	entries := db.Lookup([]string{"ten"})
	require.NotEmpty(t, entries)
	assert.Equal(t, "number", entries[0].Category)
	assert.Equal(t, "10", entries[0].Value)

	entries = db.Lookup([]string{"ten", "o'clock"})
	require.Len(t, entries, 1)
	assert.Equal(t, "time", entries[0].Category)
	assert.Equal(t, "10:00", entries[0].Value)

	entries = db.Lookup([]string{"quarter", "to", "ten"})
	require.Len(t, entries, 1)
	assert.Equal(t, "9:45", entries[0].Value)

	entries = db.Lookup([]string{"half", "past", "seven"})
	require.Len(t, entries, 1)
	assert.Equal(t, "7:30", entries[0].Value)
}
