// Package cldb holds the category-label database: the mapping from surface
// forms to (value, category) pairs that drives abstraction.
package cldb

import (
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/golangast/transitslu/sluerr"
)

// FormValCat ties one tokenized surface form to the value and category it
// abstracts to.
type FormValCat struct {
	Form     []string
	Value    string
	Category string
}

// Database is the loaded category-label database. It is read-only after
// Load and safe to share across parsers.
type Database struct {
	// data is category -> value -> tokenized surface forms.
	data map[string]map[string][][]string

	// formValCats lists every (form, value, category) tuple ordered by
	// descending form length, so longest forms are always tried first.
	formValCats []FormValCat

	// form2valCat indexes the tuples by the joined surface form.
	form2valCat map[string][]FormValCat

	// forms is the plain sorted list of joined surface forms.
	forms []string

	maxFormLen int
}

type databaseFile struct {
	Database map[string]map[string][]string `yaml:"database"`
}

// Load reads the declarative YAML database from path. The file must expose
// a top-level `database` mapping category -> value -> surface form list;
// anything else raises a configuration error.
func Load(path string) (*Database, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, sluerr.Wrap(err, "cannot read category-label database")
	}
	return Parse(raw)
}

// Parse builds a database from raw YAML.
func Parse(raw []byte) (*Database, error) {
	var f databaseFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, sluerr.Configurationf("category-label database is not valid YAML: %v", err)
	}
	if f.Database == nil {
		return nil, sluerr.Configurationf("category-label database lacks the top-level 'database' mapping")
	}
	db := &Database{data: map[string]map[string][][]string{}}
	for category, values := range f.Database {
		db.data[category] = map[string][][]string{}
		for value, forms := range values {
			for _, form := range forms {
				db.AddForm(category, value, form)
			}
		}
	}
	db.buildIndices()
	return db, nil
}

// NewEmpty creates an empty database, useful for programmatic population.
func NewEmpty() *Database {
	return &Database{data: map[string]map[string][][]string{}}
}

// AddForm registers one surface form for a (category, value) pair. The
// form is whitespace-tokenized. BuildIndices must run before lookups.
func (db *Database) AddForm(category, value, form string) {
	tokens := strings.Fields(strings.ToLower(form))
	if len(tokens) == 0 {
		return
	}
	if db.data[category] == nil {
		db.data[category] = map[string][][]string{}
	}
	db.data[category][value] = append(db.data[category][value], tokens)
}

// BuildIndices recomputes the derived lookup structures.
func (db *Database) BuildIndices() {
	db.buildIndices()
}

func (db *Database) buildIndices() {
	db.formValCats = db.formValCats[:0]
	db.form2valCat = map[string][]FormValCat{}
	seenForms := map[string]bool{}
	db.forms = db.forms[:0]
	db.maxFormLen = 0

	// deterministic iteration order: category, then value, then form
	categories := make([]string, 0, len(db.data))
	for c := range db.data {
		categories = append(categories, c)
	}
	sort.Strings(categories)
	for _, category := range categories {
		values := make([]string, 0, len(db.data[category]))
		for v := range db.data[category] {
			values = append(values, v)
		}
		sort.Strings(values)
		for _, value := range values {
			for _, form := range db.data[category][value] {
				fvc := FormValCat{Form: form, Value: value, Category: category}
				db.formValCats = append(db.formValCats, fvc)
				key := strings.Join(form, " ")
				db.form2valCat[key] = append(db.form2valCat[key], fvc)
				if !seenForms[key] {
					seenForms[key] = true
					db.forms = append(db.forms, key)
				}
				if len(form) > db.maxFormLen {
					db.maxFormLen = len(form)
				}
			}
		}
	}
	sort.SliceStable(db.formValCats, func(i, j int) bool {
		return len(db.formValCats[i].Form) > len(db.formValCats[j].Form)
	})
	sort.Strings(db.forms)
}

// FormValCats returns every tuple ordered by descending form length.
func (db *Database) FormValCats() []FormValCat {
	return db.formValCats
}

// Lookup returns the (value, category) entries registered for the exact
// tokenized surface form, in the database iteration order. The first entry
// wins when several categories share the form.
func (db *Database) Lookup(form []string) []FormValCat {
	return db.form2valCat[strings.Join(form, " ")]
}

// Forms returns the plain sorted list of joined surface forms.
func (db *Database) Forms() []string {
	return db.forms
}

// MaxFormLen returns the longest surface form length in tokens.
func (db *Database) MaxFormLen() int {
	return db.maxFormLen
}

// Categories returns the sorted category names.
func (db *Database) Categories() []string {
	out := make([]string, 0, len(db.data))
	for c := range db.data {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// FormsFor returns the tokenized surface forms of one (category, value)
// pair.
func (db *Database) FormsFor(category, value string) [][]string {
	return db.data[category][value]
}
