package da

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseItem(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		dat   string
		slot  string
		value string
	}{
		{"bare act", "hello", "hello", "", ""},
		{"empty parens", "null()", "null", "", ""},
		{"slot only", "request(departure_time)", "request", "departure_time", ""},
		{"slot and value", "inform(to_city=Baltimore)", "inform", "to_city", "Baltimore"},
		{"quoted value", `inform(from_city="New York")`, "inform", "from_city", "New York"},
		{"time value with colon", "inform(time=10:00)", "inform", "time", "10:00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it, err := ParseItem(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.dat, it.DAType)
			assert.Equal(t, tt.slot, it.Name)
			assert.Equal(t, tt.value, it.Value)
		})
	}
}

func TestParseItemCategoryTagged(t *testing.T) {
	it, err := ParseItem("inform(to_city=CITY:baltimore)")
	require.NoError(t, err)
	assert.Equal(t, "CITY", it.Value)
	assert.Equal(t, "CITY", it.CategoryLabel())
	assert.Equal(t, "baltimore", it.OrigValue())
}

func TestItemStringKeepsCategoryTag(t *testing.T) {
	it, err := ParseItem("inform(to_city=CITY:baltimore)")
	require.NoError(t, err)
	assert.Equal(t, "inform(to_city=CITY:baltimore)", it.String())

	it, err = ParseItem(`inform(from_city="CITY:new york")`)
	require.NoError(t, err)
	assert.Equal(t, `inform(from_city="CITY:new york")`, it.String())

	it.CategoryLabelToValue()
	assert.Equal(t, `inform(from_city="new york")`, it.String())

	it = NewItem("inform", "to_city", "baltimore")
	it.ValueToCategoryLabel("CITY")
	assert.Equal(t, "inform(to_city=CITY:baltimore)", it.String())
}

func TestParseItemErrors(t *testing.T) {
	for _, text := range []string{"", "inform(to_city=x", "(=)", "bad=act"} {
		_, err := ParseItem(text)
		assert.Error(t, err, "input %q", text)
	}
}

func TestItemStringQuoting(t *testing.T) {
	it := NewItem("inform", "from_stop", "Penn Station")
	assert.Equal(t, `inform(from_stop="Penn Station")`, it.String())

	round, err := ParseItem(it.String())
	require.NoError(t, err)
	assert.True(t, it.Equal(round))
}

func TestDAParseRenderRoundTrip(t *testing.T) {
	text := `inform(task=find_connection)&inform(from_city="New York")&inform(to_city=Baltimore)`
	d, err := Parse(text)
	require.NoError(t, err)
	require.Equal(t, 3, d.Len())
	assert.Equal(t, text, d.String())
}

func TestDASortIdempotent(t *testing.T) {
	d, err := Parse("inform(b=2)&inform(a=1)&inform(b=2)")
	require.NoError(t, err)
	d.Sort()
	once := d.String()
	assert.Equal(t, "inform(a=1)&inform(b=2)", once)
	d.Sort()
	assert.Equal(t, once, d.String())
}

func TestCategoryLabelSwap(t *testing.T) {
	it := NewItem("inform", "to_city", "baltimore")
	it.ValueToCategoryLabel("CITY")
	assert.Equal(t, "CITY", it.Value)
	assert.Equal(t, "baltimore", it.OrigValue())

	// a second swap must not lose the original
	it.ValueToCategoryLabel("STOP")
	assert.Equal(t, "CITY", it.Value)

	it.CategoryLabelToValue()
	assert.Equal(t, "baltimore", it.Value)
	assert.Empty(t, it.CategoryLabel())
}

func TestSetConcreteValue(t *testing.T) {
	it := NewItem("inform", "to_city", "CITY")
	it.ValueToCategoryLabel("CITY")
	it.SetConcreteValue("Boston")
	assert.Equal(t, "Boston", it.Value)
	assert.Equal(t, "Boston", it.OrigValue())
}

func TestDAContains(t *testing.T) {
	d, err := Parse("inform(to_city=Boston)&request(duration)")
	require.NoError(t, err)
	assert.True(t, d.Contains(NewItem("request", "duration", "")))
	assert.False(t, d.Contains(NewItem("request", "num_transfers", "")))
	assert.True(t, d.HasDAT("inform"))
	assert.False(t, d.HasDAT("bye"))
}
