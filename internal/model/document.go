package model

import "go.mongodb.org/mongo-driver/bson"

// Keys of the nested contacts sub-document as stored in the collection.
const (
	ContactsKey = "contatos"
	PhonesKey   = "telefones"
	EmailsKey   = "emails"
)

// Field is one flat string field of a Document.
type Field struct {
	Name  string
	Value string
}

// Contacts holds the dense contact arrays of a Document.
type Contacts struct {
	Phones []string
	Emails []string
}

// Document is the record inserted for one source row.
type Document struct {
	Fields   []Field
	Contacts Contacts
}

// Get returns the value of the named flat field.
func (d Document) Get(name string) (string, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// D renders the document in field order, contacts last. Empty contact lists
// are rendered as empty arrays, never null.
func (d Document) D() bson.D {
	out := make(bson.D, 0, len(d.Fields)+1)
	for _, f := range d.Fields {
		out = append(out, bson.E{Key: f.Name, Value: f.Value})
	}
	out = append(out, bson.E{Key: ContactsKey, Value: bson.D{
		{Key: PhonesKey, Value: stringArray(d.Contacts.Phones)},
		{Key: EmailsKey, Value: stringArray(d.Contacts.Emails)},
	}})
	return out
}

// MarshalBSON implements bson.Marshaler.
func (d Document) MarshalBSON() ([]byte, error) {
	return bson.Marshal(d.D())
}

func stringArray(values []string) bson.A {
	a := make(bson.A, 0, len(values))
	for _, v := range values {
		a = append(a, v)
	}
	return a
}
