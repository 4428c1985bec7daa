package pipeline

import (
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"csv-import/internal/model"

	"github.com/pkg/errors"
	"github.com/tailscale/hujson"
	"gopkg.in/yaml.v3"
)

// Section names of the field-mapping description.
const (
	sectionFields   = "fields"
	sectionContacts = "contatos"
	sectionPhones   = "telefones"
	sectionEmails   = "emails"
)

// ErrMalformedMapping is returned when a mapping description cannot be parsed.
var ErrMalformedMapping = errors.New("malformed field mapping")

// MappingFormat selects the encoding of a mapping description.
type MappingFormat string

const (
	FormatJSON MappingFormat = "json" // JSON with comments and trailing commas allowed
	FormatYAML MappingFormat = "yaml"
)

// FormatForPath picks the format from the file extension. Anything that is
// not .yaml or .yml is treated as JSON.
func FormatForPath(path string) MappingFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// LoadMapping reads and parses the mapping description at path.
func LoadMapping(path string) (*model.FieldMapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading field mapping %s", path)
	}
	m, err := ParseMapping(data, FormatForPath(path))
	if err != nil {
		return nil, errors.Wrapf(err, "loading field mapping %s", path)
	}
	return m, nil
}

// ParseMapping parses a mapping description. Source indices are 1-based and
// are converted to 0-based. Missing sections are recorded on the result, not
// reported as errors.
func ParseMapping(data []byte, format MappingFormat) (*model.FieldMapping, error) {
	var root node
	switch format {
	case FormatYAML:
		var doc yaml.Node
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, malformedf("%v", err)
		}
		if len(doc.Content) == 0 {
			return nil, malformedf("empty document")
		}
		root = yamlNode{doc.Content[0]}
	case FormatJSON:
		v, err := hujson.Parse(data)
		if err != nil {
			return nil, malformedf("%v", err)
		}
		root = jsonNode{v.Value}
	default:
		return nil, errors.Errorf("unknown mapping format %q", format)
	}

	if _, ok := root.members(); !ok {
		return nil, malformedf("top level is not an object")
	}

	m := &model.FieldMapping{}
	if fields, ok := root.member(sectionFields); ok {
		members, ok := fields.members()
		if !ok {
			return nil, malformedf("%q is not an object", sectionFields)
		}
		m.HasFields = true
		m.Fields = make([]model.FlatField, 0, len(members))
		for _, mem := range members {
			col, err := columnIndex(mem.value)
			if err != nil {
				return nil, errors.Wrapf(err, "%s.%s", sectionFields, mem.name)
			}
			m.Fields = append(m.Fields, model.FlatField{Name: mem.name, Column: col})
		}
	}

	contacts, ok := root.member(sectionContacts)
	if !ok {
		return m, nil
	}
	if _, ok := contacts.members(); !ok {
		return nil, malformedf("%q is not an object", sectionContacts)
	}
	m.HasContacts = true

	var err error
	if m.Phones, m.HasPhones, err = indexList(contacts, sectionPhones); err != nil {
		return nil, err
	}
	if m.Emails, m.HasEmails, err = indexList(contacts, sectionEmails); err != nil {
		return nil, err
	}
	return m, nil
}

func indexList(contacts node, name string) ([]int, bool, error) {
	list, ok := contacts.member(name)
	if !ok {
		return nil, false, nil
	}
	elems, ok := list.elements()
	if !ok {
		return nil, false, malformedf("%s.%s is not an array", sectionContacts, name)
	}
	out := make([]int, 0, len(elems))
	for i, e := range elems {
		col, err := columnIndex(e)
		if err != nil {
			return nil, false, errors.Wrapf(err, "%s.%s[%d]", sectionContacts, name, i)
		}
		out = append(out, col)
	}
	return out, true, nil
}

// columnIndex converts a 1-based index node into a 0-based column. Numeric
// strings and integral floats such as 2.0 are accepted. Zero and negative
// indices become negative columns, which the transformer treats as out of
// range.
func columnIndex(n node) (int, error) {
	s, ok := n.scalar()
	if !ok {
		return 0, malformedf("index is not a scalar")
	}
	s = strings.TrimSpace(s)
	if i, err := strconv.Atoi(s); err == nil {
		return i - 1, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, malformedf("index %q is not an integer", s)
	}
	return int(f) - 1, nil
}

func malformedf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrMalformedMapping, format, args...)
}

// node is the ordered view of a parsed description shared by both encodings.
type node interface {
	members() ([]member, bool)
	member(name string) (node, bool)
	elements() ([]node, bool)
	scalar() (string, bool)
}

type member struct {
	name  string
	value node
}

func lookup(n node, name string) (node, bool) {
	members, ok := n.members()
	if !ok {
		return nil, false
	}
	for _, m := range members {
		if m.name == name {
			return m.value, true
		}
	}
	return nil, false
}

type jsonNode struct {
	v hujson.ValueTrimmed
}

func (n jsonNode) members() ([]member, bool) {
	obj, ok := n.v.(*hujson.Object)
	if !ok {
		return nil, false
	}
	out := make([]member, 0, len(obj.Members))
	for _, m := range obj.Members {
		name, _ := m.Name.Value.(hujson.Literal)
		out = append(out, member{name: name.String(), value: jsonNode{m.Value.Value}})
	}
	return out, true
}

func (n jsonNode) member(name string) (node, bool) { return lookup(n, name) }

func (n jsonNode) elements() ([]node, bool) {
	arr, ok := n.v.(*hujson.Array)
	if !ok {
		return nil, false
	}
	out := make([]node, 0, len(arr.Elements))
	for _, e := range arr.Elements {
		out = append(out, jsonNode{e.Value})
	}
	return out, true
}

func (n jsonNode) scalar() (string, bool) {
	lit, ok := n.v.(hujson.Literal)
	if !ok {
		return "", false
	}
	switch lit.Kind() {
	case '0':
		return string(lit), true
	case '"':
		return lit.String(), true
	}
	return "", false
}

type yamlNode struct {
	n *yaml.Node
}

func (n yamlNode) members() ([]member, bool) {
	if n.n.Kind != yaml.MappingNode {
		return nil, false
	}
	out := make([]member, 0, len(n.n.Content)/2)
	for i := 0; i+1 < len(n.n.Content); i += 2 {
		out = append(out, member{name: n.n.Content[i].Value, value: yamlNode{n.n.Content[i+1]}})
	}
	return out, true
}

func (n yamlNode) member(name string) (node, bool) { return lookup(n, name) }

func (n yamlNode) elements() ([]node, bool) {
	if n.n.Kind != yaml.SequenceNode {
		return nil, false
	}
	out := make([]node, 0, len(n.n.Content))
	for _, c := range n.n.Content {
		out = append(out, yamlNode{c})
	}
	return out, true
}

func (n yamlNode) scalar() (string, bool) {
	if n.n.Kind != yaml.ScalarNode {
		return "", false
	}
	return n.n.Value, true
}
