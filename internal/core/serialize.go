package core

import (
	"encoding/json"
	"maps"

	"github.com/fxamacker/cbor/v2"

	"github.com/coregx/wee/internal/util"
)

// ToMap returns a copy of the attributes. Relations are not included.
func (m *Model) ToMap() map[string]any {
	if m.attributes == nil {
		return map[string]any{}
	}
	return maps.Clone(m.attributes)
}

// MarshalJSON encodes the attributes as a JSON object.
func (m *Model) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.ToMap())
}

// cborMode sorts map keys canonically so equal records encode identically.
var cborMode, _ = cbor.CanonicalEncOptions().EncMode()

// MarshalCBOR encodes the attributes as a CBOR map.
func (m *Model) MarshalCBOR() ([]byte, error) {
	return cborMode.Marshal(m.ToMap())
}

// Scan copies the attributes into the db-tagged fields of dest, a pointer
// to a struct.
func (m *Model) Scan(dest any) error {
	return util.MapToStruct(m.attributes, dest)
}
