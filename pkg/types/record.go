package types

import (
	"encoding/json"
	"fmt"
	"math"
)

// ValueType tags the wire-basic representation carried by a PropertyRecord.
type ValueType string

// Wire-basic value types.
const (
	ValueNull      ValueType = "null"
	ValueBoolean   ValueType = "boolean"
	ValueInteger   ValueType = "integer"
	ValueLong      ValueType = "long"
	ValueDouble    ValueType = "double"
	ValueString    ValueType = "string"
	ValueReference ValueType = "reference"
)

// validValueTypes is the set of recognized value type tags.
var validValueTypes = map[ValueType]bool{
	ValueNull:      true,
	ValueBoolean:   true,
	ValueInteger:   true,
	ValueLong:      true,
	ValueDouble:    true,
	ValueString:    true,
	ValueReference: true,
}

// IsValid reports whether vt is a recognized value type tag.
func (vt ValueType) IsValid() bool {
	return validValueTypes[vt]
}

// ObjectRecord announces one object and its position among the siblings of
// the same type under its parent. ParentID is empty for a root.
type ObjectRecord struct {
	ID       string `json:"id"`
	TypeName string `json:"type"`
	ParentID string `json:"parent_id,omitempty"`
	Index    int    `json:"index"`
}

// PropertyRecord assigns a wire-basic value to one property of the object
// identified by OwnerID.
type PropertyRecord struct {
	OwnerID   string    `json:"owner_id"`
	Name      string    `json:"name"`
	Value     any       `json:"value"`
	ValueType ValueType `json:"value_type"`
}

// propertyRecordJSON mirrors PropertyRecord with a deferred value so the
// value can be decoded according to its tag.
type propertyRecordJSON struct {
	OwnerID   string          `json:"owner_id"`
	Name      string          `json:"name"`
	Value     json.RawMessage `json:"value"`
	ValueType ValueType       `json:"value_type"`
}

// UnmarshalJSON decodes a property record and normalises its value to the
// Go type matching ValueType: int for integer, int64 for long, float64 for
// double, string for string and reference, bool for boolean.
func (r *PropertyRecord) UnmarshalJSON(data []byte) error {
	var raw propertyRecordJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	value, err := DecodeValue(raw.ValueType, raw.Value)
	if err != nil {
		return fmt.Errorf("property %s.%s: %w", raw.OwnerID, raw.Name, err)
	}
	*r = PropertyRecord{
		OwnerID:   raw.OwnerID,
		Name:      raw.Name,
		Value:     value,
		ValueType: raw.ValueType,
	}
	return nil
}

// DecodeValue decodes a JSON value into the Go type for vt.
// An empty or null message decodes to nil regardless of vt.
func DecodeValue(vt ValueType, msg json.RawMessage) (any, error) {
	if len(msg) == 0 || string(msg) == "null" {
		return nil, nil
	}
	switch vt {
	case ValueNull:
		return nil, nil
	case ValueBoolean:
		var b bool
		err := json.Unmarshal(msg, &b)
		return b, err
	case ValueInteger:
		var n int64
		if err := json.Unmarshal(msg, &n); err != nil {
			return nil, err
		}
		if n > math.MaxInt32 || n < math.MinInt32 {
			return nil, fmt.Errorf("%w: %d overflows integer", ErrConversion, n)
		}
		return int(n), nil
	case ValueLong:
		var n int64
		err := json.Unmarshal(msg, &n)
		return n, err
	case ValueDouble:
		var f float64
		err := json.Unmarshal(msg, &f)
		return f, err
	case ValueString, ValueReference:
		var s string
		err := json.Unmarshal(msg, &s)
		return s, err
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidValueType, vt)
	}
}
