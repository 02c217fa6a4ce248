package ir

import "reflect"

// Metadata is an open, typed side table attached to declarations. Values are
// keyed by their dynamic type; Set returns a new table and never mutates the
// receiver.
type Metadata struct {
	items map[reflect.Type]any
}

// Len returns the number of entries.
func (m Metadata) Len() int {
	return len(m.items)
}

// MetadataGet fetches the entry of type T.
func MetadataGet[T any](m Metadata) (T, bool) {
	var zero T
	if m.items == nil {
		return zero, false
	}
	v, ok := m.items[reflect.TypeFor[T]()]
	if !ok {
		return zero, false
	}
	return v.(T), true
}

// MetadataSet returns a copy of m with value stored under its type.
func MetadataSet[T any](m Metadata, value T) Metadata {
	items := make(map[reflect.Type]any, len(m.items)+1)
	for k, v := range m.items {
		items[k] = v
	}
	items[reflect.TypeFor[T]()] = value
	return Metadata{items: items}
}

// MetadataDelete returns a copy of m without the entry of type T.
func MetadataDelete[T any](m Metadata) Metadata {
	key := reflect.TypeFor[T]()
	if _, ok := m.items[key]; !ok {
		return m
	}
	items := make(map[reflect.Type]any, len(m.items))
	for k, v := range m.items {
		if k != key {
			items[k] = v
		}
	}
	return Metadata{items: items}
}

// OutputFileName tells the emitter which file a root declaration goes to.
// The value is a slash separated path without extension.
type OutputFileName struct {
	Path string
}
