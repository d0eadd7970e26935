package store

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Snapshot is an immutable copy of a document as read from the store.
type Snapshot struct {
	Path string
	data []byte
}

func newSnapshot(path string, data []byte) *Snapshot {
	return &Snapshot{Path: path, data: data}
}

// ID returns the document id (last path segment).
func (s *Snapshot) ID() string {
	return DocumentID(s.Path)
}

// Group returns the collection group the document belongs to.
func (s *Snapshot) Group() string {
	return CollectionGroup(s.Path)
}

// Data returns the raw JSON of the document.
func (s *Snapshot) Data() []byte {
	return s.data
}

// DataTo decodes the document into dest.
func (s *Snapshot) DataTo(dest any) error {
	if err := json.Unmarshal(s.data, dest); err != nil {
		return fmt.Errorf("decode %s: %w", s.Path, err)
	}
	return nil
}

// Field returns the value at a dotted field path, decoded as generic JSON.
func (s *Snapshot) Field(field string) (any, bool) {
	fields, err := decodeFields(s.data)
	if err != nil {
		return nil, false
	}
	return lookupField(fields, field)
}

func decodeFields(data []byte) (map[string]any, error) {
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

// lookupField walks a dotted path ("parent.clubId") through nested objects.
func lookupField(fields map[string]any, field string) (any, bool) {
	current := any(fields)
	for _, part := range strings.Split(field, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// setField assigns a value at a dotted path, creating intermediate objects.
func setField(fields map[string]any, field string, value any) {
	parts := strings.Split(field, ".")
	m := fields
	for _, part := range parts[:len(parts)-1] {
		next, ok := m[part].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[part] = next
		}
		m = next
	}
	m[parts[len(parts)-1]] = value
}

// normalize converts a Go value into its generic JSON form so it can be compared
// with decoded document fields (numbers become float64, structs become maps).
func normalize(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// encodeIndexValue returns the index key form of a scalar JSON value.
// Objects and arrays are not indexable.
func encodeIndexValue(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "z", true
	case string:
		return "s" + val, true
	case bool:
		if val {
			return "b1", true
		}
		return "b0", true
	case float64:
		return "n" + strconv.FormatFloat(val, 'g', -1, 64), true
	default:
		return "", false
	}
}

// Filter is an equality constraint on a dotted document field.
// A nil Value matches documents where the field is null or absent.
type Filter struct {
	Field string
	Value any
}

// Eq returns an equality filter.
func Eq(field string, value any) Filter {
	return Filter{Field: field, Value: value}
}

func normalizeFilters(filters []Filter) ([]Filter, error) {
	out := make([]Filter, len(filters))
	for i, f := range filters {
		if f.Field == "" {
			return nil, ErrInvalidInput.WithMessage("filter field is empty")
		}
		v, err := normalize(f.Value)
		if err != nil {
			return nil, ErrInvalidInput.WithCause(fmt.Errorf("filter %s: %w", f.Field, err))
		}
		out[i] = Filter{Field: f.Field, Value: v}
	}
	return out, nil
}

func matchesAll(fields map[string]any, filters []Filter) bool {
	for _, f := range filters {
		got, ok := lookupField(fields, f.Field)
		if f.Value == nil {
			if ok && got != nil {
				return false
			}
			continue
		}
		if !ok || !reflect.DeepEqual(got, f.Value) {
			return false
		}
	}
	return true
}
