package sqlobject

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnknownEnum is returned when text does not name a member of an
// enumeration.
var ErrUnknownEnum = errors.New("unknown enumeration value")

// FieldType classifies how a column's values are presented.
type FieldType int

// Field types.
const (
	FieldNumber FieldType = iota + 1
	FieldName
	FieldMoney
	FieldBoolean
	FieldRadio
	FieldCheckbox
	FieldPercent
	FieldDate
	FieldAlphanumCode
	FieldRowID
)

var fieldTypeNames = []string{
	FieldNumber:       "NUMBER",
	FieldName:         "NAME",
	FieldMoney:        "MONEY",
	FieldBoolean:      "BOOLEAN",
	FieldRadio:        "RADIO",
	FieldCheckbox:     "CHECKBOX",
	FieldPercent:      "PERCENT",
	FieldDate:         "DATE",
	FieldAlphanumCode: "ALPHANUM_CODE",
	FieldRowID:        "ROWID",
}

// Valid reports whether f is a known field type.
func (f FieldType) Valid() bool {
	return f >= FieldNumber && f <= FieldRowID
}

func (f FieldType) String() string {
	if f.Valid() {
		return fieldTypeNames[f]
	}
	return "FieldType(" + strconv.Itoa(int(f)) + ")"
}

// MarshalText implements encoding.TextMarshaler.
func (f FieldType) MarshalText() ([]byte, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("%w: field type %d", ErrUnknownEnum, int(f))
	}
	return []byte(fieldTypeNames[f]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *FieldType) UnmarshalText(text []byte) error {
	v, err := ParseFieldType(string(text))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// ParseFieldType parses a field type name, ignoring case. The numeric
// codes 1 to 10 are accepted as well.
func ParseFieldType(s string) (FieldType, error) {
	s = strings.TrimSpace(s)
	for i, name := range fieldTypeNames {
		if name != "" && strings.EqualFold(name, s) {
			return FieldType(i), nil
		}
	}
	if n, err := strconv.Atoi(s); err == nil && FieldType(n).Valid() {
		return FieldType(n), nil
	}
	return 0, fmt.Errorf("%w: field type %q", ErrUnknownEnum, s)
}

// Rule is the action a relationship takes on update or delete of the
// referenced key.
type Rule int

// Relationship rules. The zero value is NoAction.
const (
	RuleNoAction Rule = iota
	RuleCascade
	RuleRestrict
	RuleSetNull
	RuleSetDefault
)

var ruleNames = []string{
	RuleNoAction:   "NO_ACTION",
	RuleCascade:    "CASCADE",
	RuleRestrict:   "RESTRICT",
	RuleSetNull:    "SET_NULL",
	RuleSetDefault: "SET_DEFAULT",
}

// Valid reports whether r is a known rule.
func (r Rule) Valid() bool {
	return r >= RuleNoAction && r <= RuleSetDefault
}

func (r Rule) String() string {
	if r.Valid() {
		return ruleNames[r]
	}
	return "Rule(" + strconv.Itoa(int(r)) + ")"
}

// MarshalText implements encoding.TextMarshaler.
func (r Rule) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("%w: rule %d", ErrUnknownEnum, int(r))
	}
	return []byte(ruleNames[r]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Rule) UnmarshalText(text []byte) error {
	v, err := ParseRule(string(text))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// ParseRule parses a rule name. Case is ignored and spaces may stand in
// for underscores, so "set null" parses as SET_NULL. An empty string is
// NO_ACTION.
func ParseRule(s string) (Rule, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "_")
	if s == "" {
		return RuleNoAction, nil
	}
	for i, name := range ruleNames {
		if strings.EqualFold(name, s) {
			return Rule(i), nil
		}
	}
	return 0, fmt.Errorf("%w: rule %q", ErrUnknownEnum, s)
}
