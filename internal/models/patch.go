package models

import (
	"bytes"
	"encoding/json"
)

// Patch is a three-state update field: unset (leave the stored value alone),
// cleared (set the stored value to nothing), or set to a value.
//
// The zero value is unset, so a patch struct only needs to mention the fields
// it changes.
type Patch[T any] struct {
	present bool
	null    bool
	value   T
}

// Set returns a patch that assigns v.
func Set[T any](v T) Patch[T] {
	return Patch[T]{present: true, value: v}
}

// Clear returns a patch that removes the stored value.
func Clear[T any]() Patch[T] {
	return Patch[T]{present: true, null: true}
}

// IsSet reports whether the patch mentions the field at all.
func (p Patch[T]) IsSet() bool {
	return p.present
}

// IsClear reports whether the patch removes the stored value.
func (p Patch[T]) IsClear() bool {
	return p.present && p.null
}

// Value returns the assigned value. ok is false for unset and cleared patches.
func (p Patch[T]) Value() (v T, ok bool) {
	if !p.present || p.null {
		return v, false
	}
	return p.value, true
}

// Apply returns the result of applying the patch to current.
func (p Patch[T]) Apply(current *T) *T {
	switch {
	case !p.present:
		return current
	case p.null:
		return nil
	default:
		v := p.value
		return &v
	}
}

// UnmarshalJSON maps a JSON null to Clear and any other value to Set.
// A field missing from the document never reaches this method and stays unset.
func (p *Patch[T]) UnmarshalJSON(data []byte) error {
	p.present = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		p.null = true
		var zero T
		p.value = zero
		return nil
	}
	p.null = false
	return json.Unmarshal(data, &p.value)
}

// MarshalJSON renders unset and cleared patches as null.
func (p Patch[T]) MarshalJSON() ([]byte, error) {
	if !p.present || p.null {
		return []byte("null"), nil
	}
	return json.Marshal(p.value)
}
