package handcrafted

// Curated trigger phrase lists for the rule blocks. Each list is ordered;
// earlier phrases take precedence where only one may fire.

var fromPhrases = [][]string{
	{"out", "of"},
	{"leaving", "from"},
	{"departing", "from"},
	{"leave", "from"},
	{"depart", "from"},
	{"starting", "from"},
	{"starting", "at"},
	{"start", "at"},
	{"from"},
}

var toPhrases = [][]string{
	{"arriving", "at"},
	{"arrive", "at"},
	{"arrive", "in"},
	{"going", "to"},
	{"heading", "to"},
	{"get", "to"},
	{"bound", "for"},
	{"into"},
	{"to"},
	{"towards"},
	{"for"},
}

var viaPhrases = [][]string{
	{"transfer", "at"},
	{"transferring", "at"},
	{"change", "at"},
	{"changing", "at"},
	{"via"},
	{"through"},
}

var inPhrases = [][]string{
	{"located", "in"},
	{"somewhere", "in"},
	{"in"},
	{"at"},
	{"near"},
	{"around"},
}

// confirmPhrases turn an inform into a confirm when they precede the
// waypoint ("does it go from ...").
var confirmPhrases = [][]string{
	{"does", "it", "go"},
	{"does", "it", "leave"},
	{"does", "that", "go"},
	{"is", "it"},
	{"is", "that"},
	{"do", "you", "go"},
	{"are", "we", "going"},
}

// denyPhrases turn an inform into a deny.
var denyPhrases = [][]string{
	{"not"},
	{"do", "not"},
	{"no"},
}

// denyFilters are negative-negative phrases that must not trigger a deny.
var denyFilters = [][]string{
	{"not", "at", "all"},
	{"no", "problem"},
	{"why", "not"},
}

// departureCues and arrivalCues disambiguate time mentions.
var departureCues = [][]string{
	{"leave"}, {"leaves"}, {"leaving"}, {"depart"}, {"departs"},
	{"departing"}, {"departure"}, {"go"}, {"goes"}, {"set", "off"},
}

var arrivalCues = [][]string{
	{"arrive"}, {"arrives"}, {"arriving"}, {"arrival"},
	{"get", "there"}, {"be", "there"},
}

// metaAct pairs a dialogue act with its positive and negative trigger
// phrase lists over the concrete utterance.
type metaAct struct {
	da       string
	positive [][]string
	negative [][]string
}

var metaActs = []metaAct{
	{da: "hello()", positive: [][]string{
		{"hello"}, {"hi"}, {"hey"}, {"good", "morning"}, {"good", "evening"},
	}},
	{da: "bye()", positive: [][]string{
		{"goodbye"}, {"bye"}, {"see", "you"}, {"that", "is", "all"},
	}},
	{da: "affirm()", positive: [][]string{
		{"yes"}, {"yeah"}, {"yep"}, {"sure"}, {"correct"}, {"of", "course"},
		{"exactly"},
	}, negative: [][]string{
		{"yeah", "but"},
	}},
	{da: "negate()", positive: [][]string{
		{"no"}, {"nope"},
	}, negative: [][]string{
		{"no", "problem"},
	}},
	{da: "thankyou()", positive: [][]string{
		{"thank", "you"}, {"thanks"},
	}},
	{da: "help()", positive: [][]string{
		{"help"}, {"what", "can", "i", "do"}, {"what", "are", "my", "options"},
	}},
	{da: "apology()", positive: [][]string{
		{"sorry"}, {"i", "apologize"}, {"excuse", "me"},
	}},
	{da: "restart()", positive: [][]string{
		{"start", "over"}, {"restart"}, {"start", "again"}, {"new", "connection"},
	}},
	{da: "reqalts()", positive: [][]string{
		{"another", "connection"}, {"another", "option"}, {"next", "connection"},
		{"different", "connection"}, {"anything", "else"},
	}},
	{da: "repeat()", positive: [][]string{
		{"repeat"}, {"pardon"}, {"say", "that", "again"}, {"say", "it", "again"},
		{"what", "did", "you", "say"},
	}},
	{da: "ack()", positive: [][]string{
		{"ok"}, {"okay"}, {"alright"}, {"i", "see"},
	}},
}

// alternativePhrases map utterance phrases to the alternative slot value.
var alternativePhrases = []struct {
	phrase []string
	value  string
}{
	{[]string{"again"}, "last"},
	{[]string{"last", "one"}, "last"},
	{[]string{"the", "next", "one"}, "next"},
	{[]string{"next", "one"}, "next"},
	{[]string{"the", "previous", "one"}, "prev"},
	{[]string{"previous", "one"}, "prev"},
	{[]string{"the", "first", "one"}, "1"},
	{[]string{"the", "second", "one"}, "2"},
	{[]string{"the", "third", "one"}, "3"},
	{[]string{"the", "fourth", "one"}, "4"},
}

// alternativeFilters suppress the alternative block; "say that again" is a
// repeat request, not an alternative request.
var alternativeFilters = [][]string{
	{"say", "that", "again"},
	{"say", "it", "again"},
	{"start", "again"},
}

// requestRules map trigger phrases over the concrete utterance to
// requested slots.
var requestRules = []struct {
	phrase []string
	slot   string
	needs  [][]string // any of these must also occur, empty means none
}{
	{phrase: []string{"what", "time"}, slot: "departure_time", needs: departureCues},
	{phrase: []string{"when"}, slot: "departure_time", needs: departureCues},
	{phrase: []string{"what", "time"}, slot: "arrival_time", needs: arrivalCues},
	{phrase: []string{"when"}, slot: "arrival_time", needs: arrivalCues},
	{phrase: []string{"how", "long"}, slot: "duration"},
	{phrase: []string{"how", "many", "transfers"}, slot: "num_transfers"},
}

// amPmPhrases map phrases to the ampm slot value.
var amPmPhrases = []struct {
	phrase []string
	value  string
}{
	{[]string{"in", "the", "morning"}, "am"},
	{[]string{"in", "the", "afternoon"}, "pm"},
	{[]string{"in", "the", "evening"}, "pm"},
	{[]string{"at", "night"}, "pm"},
	{[]string{"am"}, "am"},
	{[]string{"pm"}, "pm"},
}
