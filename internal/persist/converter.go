package persist

import (
	"encoding"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"time"

	"github.com/mesh-intelligence/spsync/pkg/types"
)

// Kind identifies the rich Go type a property holds.
type Kind uint8

// Property kinds.
const (
	KindString Kind = iota + 1
	KindBool
	KindInt
	KindInt64
	KindFloat
	KindTime
	KindReference
	KindText
)

var kindNames = map[Kind]string{
	KindString:    "string",
	KindBool:      "bool",
	KindInt:       "int",
	KindInt64:     "int64",
	KindFloat:     "float64",
	KindTime:      "time",
	KindReference: "reference",
	KindText:      "text",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Type describes the rich type of a property. KindText covers enums and
// composite values that marshal to a single string; Parse turns that string
// back into the rich value.
type Type struct {
	Kind  Kind
	Parse func(string) (any, error)
}

// Rich types for property descriptors.
var (
	String    = Type{Kind: KindString}
	Bool      = Type{Kind: KindBool}
	Int       = Type{Kind: KindInt}
	Int64     = Type{Kind: KindInt64}
	Float     = Type{Kind: KindFloat}
	Time      = Type{Kind: KindTime}
	Reference = Type{Kind: KindReference}
)

// Text returns a KindText type parsed with parse. The rich value must
// implement encoding.TextMarshaler so it can be converted back.
func Text(parse func(string) (any, error)) Type {
	return Type{Kind: KindText, Parse: parse}
}

// Resolver looks up an already constructed object by id.
type Resolver interface {
	Resolve(id string) (types.Object, bool)
}

// ResolverFunc adapts a function to a Resolver.
type ResolverFunc func(id string) (types.Object, bool)

// Resolve calls f.
func (f ResolverFunc) Resolve(id string) (types.Object, bool) { return f(id) }

// Converter translates between wire-basic values and rich domain values.
// It holds no state and is safe for concurrent use.
//
// Basic forms: nil, bool, int, int64, float64 and string. Ints are limited
// to the 32-bit range on both sides. Objects travel as their UUID, times as
// Unix milliseconds with anything finer dropped, text values as their
// marshaled text.
type Converter struct{}

// ToBasic converts a rich value to its wire-basic form and value type tag.
func (Converter) ToBasic(v any) (any, types.ValueType, error) {
	switch x := v.(type) {
	case nil:
		return nil, types.ValueNull, nil
	case string:
		return x, types.ValueString, nil
	case bool:
		return x, types.ValueBoolean, nil
	case int:
		if x > math.MaxInt32 || x < math.MinInt32 {
			return nil, "", fmt.Errorf("%w: %d overflows int", types.ErrConversion, x)
		}
		return x, types.ValueInteger, nil
	case int32:
		return int(x), types.ValueInteger, nil
	case int64:
		return x, types.ValueLong, nil
	case float64:
		return x, types.ValueDouble, nil
	case float32:
		return float64(x), types.ValueDouble, nil
	case time.Time:
		if x.IsZero() {
			return nil, types.ValueNull, nil
		}
		return x.UnixMilli(), types.ValueLong, nil
	case types.Object:
		if isNilObject(x) {
			return nil, types.ValueNull, nil
		}
		return x.UUID(), types.ValueReference, nil
	case encoding.TextMarshaler:
		b, err := x.MarshalText()
		if err != nil {
			return nil, "", fmt.Errorf("%w: marshal %T: %v", types.ErrConversion, v, err)
		}
		return string(b), types.ValueString, nil
	default:
		return nil, "", fmt.Errorf("%w: unsupported rich type %T", types.ErrConversion, v)
	}
}

// ToRich converts a wire-basic value into the rich value described by t.
// Reference values are resolved through refs. A nil basic value converts to
// the zero value of the kind.
func (c Converter) ToRich(v any, t Type, refs Resolver) (any, error) {
	switch t.Kind {
	case KindString:
		if v == nil {
			return "", nil
		}
		s, ok := v.(string)
		if !ok {
			return nil, mismatch(v, t.Kind)
		}
		return s, nil
	case KindBool:
		switch x := v.(type) {
		case nil:
			return false, nil
		case bool:
			return x, nil
		case string:
			b, err := strconv.ParseBool(x)
			if err != nil {
				return nil, mismatch(v, t.Kind)
			}
			return b, nil
		}
		return nil, mismatch(v, t.Kind)
	case KindInt:
		n, err := toInt64(v)
		if err != nil {
			return nil, err
		}
		if n > math.MaxInt32 || n < math.MinInt32 {
			return nil, fmt.Errorf("%w: %d overflows int", types.ErrConversion, n)
		}
		return int(n), nil
	case KindInt64:
		return toInt64(v)
	case KindFloat:
		return toFloat64(v)
	case KindTime:
		if v == nil {
			return time.Time{}, nil
		}
		ms, err := toInt64(v)
		if err != nil {
			return nil, err
		}
		return time.UnixMilli(ms).UTC(), nil
	case KindReference:
		if v == nil {
			return nil, nil
		}
		id, ok := v.(string)
		if !ok {
			return nil, mismatch(v, t.Kind)
		}
		if refs == nil {
			return nil, fmt.Errorf("%w: no resolver for reference %q", types.ErrConversion, id)
		}
		obj, found := refs.Resolve(id)
		if !found {
			return nil, fmt.Errorf("%w: unresolved reference %q", types.ErrConversion, id)
		}
		return obj, nil
	case KindText:
		if t.Parse == nil {
			return nil, fmt.Errorf("%w: text type without parser", types.ErrConversion)
		}
		var s string
		switch x := v.(type) {
		case nil:
		case string:
			s = x
		default:
			return nil, mismatch(v, t.Kind)
		}
		rich, err := t.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", types.ErrConversion, err)
		}
		return rich, nil
	default:
		return nil, fmt.Errorf("%w: unknown kind %s", types.ErrConversion, t.Kind)
	}
}

func mismatch(v any, k Kind) error {
	return fmt.Errorf("%w: %T is not representable as %s", types.ErrConversion, v, k)
}

func toInt64(v any) (int64, error) {
	switch x := v.(type) {
	case nil:
		return 0, nil
	case int:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int64:
		return x, nil
	case float64:
		if x != math.Trunc(x) || x > math.MaxInt64 || x < math.MinInt64 {
			return 0, fmt.Errorf("%w: %v is not integral", types.ErrConversion, x)
		}
		return int64(x), nil
	case json.Number:
		n, err := x.Int64()
		if err != nil {
			return 0, fmt.Errorf("%w: %v", types.ErrConversion, err)
		}
		return n, nil
	case string:
		n, err := strconv.ParseInt(x, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not an integer", types.ErrConversion, x)
		}
		return n, nil
	}
	return 0, fmt.Errorf("%w: %T is not an integer", types.ErrConversion, v)
}

func toFloat64(v any) (float64, error) {
	switch x := v.(type) {
	case nil:
		return 0, nil
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %v", types.ErrConversion, err)
		}
		return f, nil
	case string:
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not a number", types.ErrConversion, x)
		}
		return f, nil
	}
	return 0, fmt.Errorf("%w: %T is not a number", types.ErrConversion, v)
}

// isNilObject reports whether obj is nil or an interface holding a nil
// pointer.
func isNilObject(obj types.Object) bool {
	if obj == nil {
		return true
	}
	rv := reflect.ValueOf(obj)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}
