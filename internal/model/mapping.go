package model

// FlatField maps one output field to a 0-based source column.
type FlatField struct {
	Name   string `json:"name" yaml:"name"`
	Column int    `json:"column" yaml:"column"`
}

// FieldMapping is the parsed field-mapping description. Column indices are
// already 0-based. The Has* flags record which sections were present so that a
// partially described mapping fails per row instead of at load time.
type FieldMapping struct {
	Fields []FlatField
	Phones []int
	Emails []int

	HasFields   bool
	HasContacts bool
	HasPhones   bool
	HasEmails   bool
}
