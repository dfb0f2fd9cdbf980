package model

// Canonical metadata field names, independent of any source format's
// native naming. Drivers map native identifiers onto these through the
// fieldmap package; anything unmapped passes through under its native
// name as a custom field.
const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldCreator     = "creator"
	FieldKeywords    = "keywords"
	FieldComments    = "comments"
	FieldModifier    = "modifier"
	FieldRelation    = "relation"
	FieldCreated     = "created"
	FieldModified    = "modified"
	FieldPublisher   = "publisher"
	FieldSource      = "source"
	FieldContentType = "content-type"
)

// Metadata is an ordered multimap from field name to one or more string
// values. Field order follows first insertion; value order per field
// follows addition order. Add never overwrites: repeated additions (for
// example repeated custom properties) are all retained.
type Metadata struct {
	order  []string
	values map[string][]string
}

// NewMetadata returns an empty record.
func NewMetadata() *Metadata {
	return &Metadata{values: make(map[string][]string)}
}

// Add appends a value under field, retaining any existing values. Empty
// values are ignored so drivers can add unconditionally.
func (m *Metadata) Add(field, value string) {
	if field == "" || value == "" {
		return
	}
	if _, seen := m.values[field]; !seen {
		m.order = append(m.order, field)
	}
	m.values[field] = append(m.values[field], value)
}

// Set replaces all values under field with the single given value.
// An empty value removes nothing and adds nothing.
func (m *Metadata) Set(field, value string) {
	if field == "" || value == "" {
		return
	}
	if _, seen := m.values[field]; !seen {
		m.order = append(m.order, field)
	}
	m.values[field] = []string{value}
}

// Get returns the first value for field, or "".
func (m *Metadata) Get(field string) string {
	vals := m.values[field]
	if len(vals) == 0 {
		return ""
	}
	return vals[0]
}

// Values returns all values for field in addition order.
func (m *Metadata) Values(field string) []string {
	return append([]string(nil), m.values[field]...)
}

// Fields returns the field names in first-insertion order.
func (m *Metadata) Fields() []string {
	return append([]string(nil), m.order...)
}

// Len returns the number of distinct fields.
func (m *Metadata) Len() int { return len(m.order) }
