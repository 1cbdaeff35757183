package rewrite

import "sort"

// Key addresses one feature of one package.
type Key struct {
	Package string
	Feature string
}

func (k Key) String() string { return k.Package + "/" + k.Feature }

// EditMap accumulates proposed edits. Rule engines write to it while the
// graph stays untouched; it is applied once every engine has run.
type EditMap struct {
	adds    map[Key][]string
	created map[Key]bool
}

// NewEditMap returns an empty edit map.
func NewEditMap() *EditMap {
	return &EditMap{adds: make(map[Key][]string), created: make(map[Key]bool)}
}

// EnsureFeature records that pkg must declare feature, possibly empty.
func (m *EditMap) EnsureFeature(pkg, feature string) {
	k := Key{pkg, feature}
	m.created[k] = true
	if _, ok := m.adds[k]; !ok {
		m.adds[k] = nil
	}
}

// Add records an activation entry to insert into pkg/feature. Repeated
// entries are recorded once.
func (m *EditMap) Add(pkg, feature, entry string) {
	k := Key{pkg, feature}
	for _, e := range m.adds[k] {
		if e == entry {
			return
		}
	}
	m.adds[k] = append(m.adds[k], entry)
}

// Entries returns the entries recorded for k in insertion order.
func (m *EditMap) Entries(k Key) []string { return m.adds[k] }

// Creates reports whether k was recorded through EnsureFeature.
func (m *EditMap) Creates(k Key) bool { return m.created[k] }

// Keys returns every edited key sorted by package, then feature.
func (m *EditMap) Keys() []Key {
	keys := make([]Key, 0, len(m.adds))
	for k := range m.adds {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Package != keys[j].Package {
			return keys[i].Package < keys[j].Package
		}
		return keys[i].Feature < keys[j].Feature
	})
	return keys
}

// Len returns the number of edited keys.
func (m *EditMap) Len() int { return len(m.adds) }
