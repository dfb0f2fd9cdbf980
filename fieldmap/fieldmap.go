// Package fieldmap maps format-native field identifiers (numeric indices,
// tag names) onto the canonical metadata schema in the model package.
//
// Layouts are static per (family, version) lookup tables, loaded once and
// read-only thereafter. Mapping never fails: an identifier with no entry
// degrades to a custom passthrough field instead of being dropped.
package fieldmap

import (
	"fmt"

	"github.com/structext/structext/format"
	"github.com/structext/structext/model"
)

// Mapper resolves native field identifiers for one format version.
type Mapper struct {
	family  format.Family
	version string
	// indexed maps native numeric identifiers to canonical names; an
	// empty string marks an index the format defines but the schema
	// deliberately ignores.
	indexed map[int]string
	// named maps native field names to canonical names.
	named map[string]string
	// customPrefix prefixes passthrough fields built from numeric
	// identifiers, e.g. "pid" -> "pid-17".
	customPrefix string
}

// ForDescriptor returns the mapper for a resolved format descriptor.
// Families without native metadata identifiers get an empty mapper whose
// every lookup passes through.
func ForDescriptor(d format.Descriptor) *Mapper {
	key := layoutKey{d.Family, d.Version}
	if layout, ok := layouts[key]; ok {
		return layout
	}
	// Version-independent layouts register under an empty version.
	if layout, ok := layouts[layoutKey{d.Family, ""}]; ok {
		return layout
	}
	return &Mapper{family: d.Family, version: d.Version, customPrefix: "field"}
}

// ByIndex maps a native numeric identifier to a canonical field name.
// Unknown indices come back as "<prefix>-<n>" custom fields with ok set
// to false; indices the layout marks as ignored come back empty with ok
// true, meaning the caller should drop the value knowingly.
func (m *Mapper) ByIndex(idx int) (name string, ok bool) {
	if name, found := m.indexed[idx]; found {
		return name, true
	}
	return fmt.Sprintf("%s-%d", m.customPrefix, idx), false
}

// ByName maps a native field name to a canonical field name. Unknown
// names pass through unchanged with ok set to false.
func (m *Mapper) ByName(native string) (name string, ok bool) {
	if name, found := m.named[native]; found {
		return name, true
	}
	return native, false
}

// Apply maps a native numeric identifier and adds the value to md under
// the resolved name, retaining multiple values per field. Ignored indices
// add nothing.
func (m *Mapper) Apply(md *model.Metadata, idx int, value string) {
	name, _ := m.ByIndex(idx)
	if name == "" {
		return
	}
	md.Add(name, value)
}

type layoutKey struct {
	family  format.Family
	version string
}
