package graphql

import "encoding/json"

// Optional is an input value with an explicit distinction between "field not
// set" (omitted from the wire) and "field set to null" (sent as JSON null).
//
// The zero Optional is unset and reports IsZero, so input structs tag
// Optional fields with `json:",omitzero"` and the field disappears from the
// marshalled variables entirely:
//
//	type IssueUpdate struct {
//		Title    graphql.Optional[string] `json:"title,omitzero"`
//		DueDate  graphql.Optional[string] `json:"dueDate,omitzero"`
//	}
//
//	update := IssueUpdate{
//		Title:   graphql.Some("Renamed"),        // sent
//		DueDate: graphql.Null[string](),         // sent as null (clears the field)
//	}                                            // all other fields omitted
type Optional[T any] struct {
	value T
	set   bool
	null  bool
}

// Some returns an Optional carrying v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, set: true}
}

// Null returns an Optional that marshals as JSON null, for inputs where null
// means "clear this field" rather than "leave unchanged".
func Null[T any]() Optional[T] {
	return Optional[T]{set: true, null: true}
}

// IsZero reports whether the Optional is unset, which makes `omitzero` drop
// the field during marshalling.
func (o Optional[T]) IsZero() bool { return !o.set }

// IsNull reports whether the Optional marshals as JSON null.
func (o Optional[T]) IsNull() bool { return o.set && o.null }

// Value returns the carried value and whether one is present (set and
// non-null).
func (o Optional[T]) Value() (T, bool) {
	if !o.set || o.null {
		var zero T
		return zero, false
	}
	return o.value, true
}

// MarshalJSON implements json.Marshaler.
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if o.null {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}

// UnmarshalJSON implements json.Unmarshaler. A present field becomes set;
// JSON null becomes a set-null Optional.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.set = true
	if string(data) == "null" {
		o.null = true
		var zero T
		o.value = zero
		return nil
	}
	o.null = false
	return json.Unmarshal(data, &o.value)
}
