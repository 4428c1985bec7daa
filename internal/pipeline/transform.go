package pipeline

import (
	"strings"

	"csv-import/internal/model"

	"github.com/pkg/errors"
)

// ErrMissingSection is returned by Transform when the mapping lacks a section
// needed to build a document.
var ErrMissingSection = errors.New("field mapping section missing")

// Transform builds the document for one tokenized row. ordinal is the 1-based
// data line number and only appears in errors. Quotes are stripped from row in
// place.
func Transform(row []string, m *model.FieldMapping, ordinal int64) (model.Document, error) {
	if err := checkSections(m); err != nil {
		return model.Document{}, errors.Wrapf(err, "line %d", ordinal)
	}

	for i := range row {
		row[i] = StripQuotes(row[i])
	}

	doc := model.Document{Fields: make([]model.Field, 0, len(m.Fields))}
	for _, f := range m.Fields {
		var v string
		if inRange(f.Column, row) {
			v = row[f.Column]
		}
		doc.Fields = append(doc.Fields, model.Field{Name: f.Name, Value: v})
	}
	doc.Contacts.Phones = collectContacts(row, m.Phones)
	doc.Contacts.Emails = collectContacts(row, m.Emails)
	return doc, nil
}

func checkSections(m *model.FieldMapping) error {
	switch {
	case m == nil || !m.HasFields:
		return errors.Wrap(ErrMissingSection, sectionFields)
	case !m.HasContacts:
		return errors.Wrap(ErrMissingSection, sectionContacts)
	case !m.HasPhones:
		return errors.Wrap(ErrMissingSection, sectionContacts+"."+sectionPhones)
	case !m.HasEmails:
		return errors.Wrap(ErrMissingSection, sectionContacts+"."+sectionEmails)
	}
	return nil
}

// collectContacts returns the usable values at cols, densely packed in column
// list order. Blank cells and the " " and "-" placeholders are dropped.
func collectContacts(row []string, cols []int) []string {
	out := make([]string, 0, len(cols))
	for _, c := range cols {
		if !inRange(c, row) {
			continue
		}
		if v := row[c]; isContactValue(v) {
			out = append(out, v)
		}
	}
	return out
}

func isContactValue(v string) bool {
	return strings.TrimSpace(v) != "" && v != " " && v != "-"
}

func inRange(i int, row []string) bool {
	return i >= 0 && i < len(row)
}
