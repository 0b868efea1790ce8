package abstraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/golangast/transitslu/slu/cldb"
	"github.com/golangast/transitslu/slu/utterance"
)

func testDB(t *testing.T) *cldb.Database {
	t.Helper()
	db := cldb.NewEmpty()
	db.AddForm("city", "New York", "new york")
	db.AddForm("city", "New York", "new york city")
	db.AddForm("city", "Baltimore", "baltimore")
	db.AddForm("stop", "New York", "new york")
	db.AddForm("task", "find_connection", "i want to go")
	db.BuildIndices()
	return db
}

func TestUtteranceLongestMatch(t *testing.T) {
	e := NewEngine(testDB(t), ModeTypeValue)
	au, triples := e.Utterance(utterance.New("i want to go to new york city"))

	assert.Equal(t, "TASK=find_connection to CITY=New York", au.String())
	require.Len(t, triples, 2)
	assert.Equal(t, []string{"i", "want", "to", "go"}, triples[0].Form)
	assert.Equal(t, "find_connection", triples[0].Value)
	assert.Equal(t, "task", triples[0].Category)
	// the three-word form beats the two-word form
	assert.Equal(t, []string{"new", "york", "city"}, triples[1].Form)
	assert.Equal(t, "New York", triples[1].Value)
}

func TestUtteranceNoMatchStaysConcrete(t *testing.T) {
	e := NewEngine(testDB(t), ModeTypeValue)
	au, triples := e.Utterance(utterance.New("hello there"))
	assert.Equal(t, "hello there", au.String())
	assert.Empty(t, triples)
}

func TestUtteranceLabelOnlyMode(t *testing.T) {
	e := NewEngine(testDB(t), ModeLabelOnly)
	au, _ := e.Utterance(utterance.New("to baltimore"))
	assert.Equal(t, "to CL_CITY", au.String())
}

func TestUtteranceAllReturnsEveryReading(t *testing.T) {
	e := NewEngine(testDB(t), ModeTypeValue)
	_, all := e.UtteranceAll(utterance.New("from new york"))

	// "new york" is both a city and a stop
	require.Len(t, all, 2)
	cats := []string{all[0].Category, all[1].Category}
	assert.Contains(t, cats, "city")
	assert.Contains(t, cats, "stop")
}

func TestAbstractedTypeVals(t *testing.T) {
	e := NewEngine(testDB(t), ModeTypeValue)
	au, _ := e.Utterance(utterance.New("from baltimore to new york"))

	tvs := au.TypeVals()
	require.Len(t, tvs, 2)
	assert.Equal(t, "CITY", tvs[0].Type)
	assert.Equal(t, "Baltimore", tvs[0].Value)
	assert.Equal(t, 1, tvs[0].Index)
	assert.Equal(t, "New York", tvs[1].Value)
	assert.Equal(t, 3, tvs[1].Index)
}

func TestConfNetAbstraction(t *testing.T) {
	e := NewEngine(testDB(t), ModeTypeValue)
	cn := utterance.NewConfusionNetwork()
	cn.AddSlot([]utterance.Alternative{{Prob: 1.0, Word: "to"}})
	cn.AddSlot([]utterance.Alternative{{Prob: 0.9, Word: "new"}})
	cn.AddSlot([]utterance.Alternative{{Prob: 0.8, Word: "york"}})

	triples := e.ConfNet(cn)
	require.NotEmpty(t, triples)
	assert.Equal(t, "New York", triples[0].Value)
	assert.NotEmpty(t, cn.Links())
	assert.NotEmpty(t, cn.AbstractedIdxs())
}
