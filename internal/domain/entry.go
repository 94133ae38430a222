package domain

import (
	"math"
	"strings"
	"unicode"
)

// Field names as they appear in tabular headers and serialized specs.
const (
	FieldDevice      = "device"
	FieldName        = "name"
	FieldAddress     = "address"
	FieldDType       = "dtype"
	FieldScale       = "scale"
	FieldOffset      = "offset"
	FieldUnit        = "unit"
	FieldRW          = "rw"
	FieldFunction    = "function"
	FieldByteOrder   = "byte_order"
	FieldWordOrder   = "word_order"
	FieldDescription = "description"
	FieldMeta        = "meta"
)

// RequiredFields is also the order in which missing columns are reported.
var RequiredFields = []string{
	FieldDevice,
	FieldName,
	FieldAddress,
	FieldDType,
	FieldScale,
	FieldOffset,
}

var OptionalFields = []string{
	FieldUnit,
	FieldRW,
	FieldFunction,
	FieldByteOrder,
	FieldWordOrder,
	FieldDescription,
}

const (
	DefaultScale  = 1.0
	DefaultOffset = 0.0
)

// MapEntry is one register mapping. Field order is the serialized key order.
type MapEntry struct {
	Device      string         `json:"device"      yaml:"device"      db:"device"`
	Name        string         `json:"name"        yaml:"name"        db:"name"`
	Address     int            `json:"address"     yaml:"address"     db:"address"`
	DType       DType          `json:"dtype"       yaml:"dtype"       db:"dtype"`
	Scale       float64        `json:"scale"       yaml:"scale"       db:"scale"`
	Offset      float64        `json:"offset"      yaml:"offset"      db:"offset"`
	Unit        *string        `json:"unit"        yaml:"unit"        db:"unit"`
	RW          Access         `json:"rw"          yaml:"rw"          db:"rw"`
	Function    Function       `json:"function"    yaml:"function"    db:"function"`
	ByteOrder   ByteOrder      `json:"byte_order"  yaml:"byte_order"  db:"byte_order"`
	WordOrder   WordOrder      `json:"word_order"  yaml:"word_order"  db:"word_order"`
	Description *string        `json:"description" yaml:"description" db:"description"`
	Meta        map[string]any `json:"meta"        yaml:"meta"        db:"meta"`
}

// NewEntry builds an entry from raw field values, applying defaults and the
// word order rule before validating. The first violation is returned as a
// *ValidationError. A nil value counts as absent.
func NewEntry(fields map[string]any) (MapEntry, error) {
	e := MapEntry{
		Scale:     DefaultScale,
		Offset:    DefaultOffset,
		RW:        AccessRead,
		Function:  FunctionHolding,
		ByteOrder: ByteOrderBig,
		WordOrder: WordOrderNormal,
		Meta:      map[string]any{},
	}

	var err error

	if e.Device, err = stringField(fields, FieldDevice); err != nil {
		return MapEntry{}, err
	}
	if e.Name, err = stringField(fields, FieldName); err != nil {
		return MapEntry{}, err
	}

	if v, ok := present(fields, FieldAddress); ok {
		if e.Address, ok = toInt(v); !ok {
			return MapEntry{}, invalid(FieldAddress, v, "not an integer")
		}
	}

	dtype, err := stringField(fields, FieldDType)
	if err != nil {
		return MapEntry{}, err
	}
	e.DType = DType(dtype)

	if v, ok := present(fields, FieldScale); ok {
		if e.Scale, ok = toFloat(v); !ok {
			return MapEntry{}, invalid(FieldScale, v, "not a number")
		}
	}
	if v, ok := present(fields, FieldOffset); ok {
		if e.Offset, ok = toFloat(v); !ok {
			return MapEntry{}, invalid(FieldOffset, v, "not a number")
		}
	}

	if e.Unit, err = optionalStringField(fields, FieldUnit); err != nil {
		return MapEntry{}, err
	}

	if s, err := optionalStringField(fields, FieldRW); err != nil {
		return MapEntry{}, err
	} else if s != nil {
		e.RW = Access(*s)
	}
	if s, err := optionalStringField(fields, FieldFunction); err != nil {
		return MapEntry{}, err
	} else if s != nil {
		e.Function = Function(*s)
	}
	if s, err := optionalStringField(fields, FieldByteOrder); err != nil {
		return MapEntry{}, err
	} else if s != nil {
		e.ByteOrder = ByteOrder(*s)
	}

	// Reversed dtypes ignore whatever was supplied, even garbage.
	if e.DType.Reversed() {
		e.WordOrder = WordOrderSwapped
	} else if s, err := optionalStringField(fields, FieldWordOrder); err != nil {
		return MapEntry{}, err
	} else if s != nil {
		e.WordOrder = WordOrder(*s)
	}

	if e.Description, err = optionalStringField(fields, FieldDescription); err != nil {
		return MapEntry{}, err
	}

	if v, ok := present(fields, FieldMeta); ok {
		if e.Meta, err = metaField(v); err != nil {
			return MapEntry{}, err
		}
	}

	if err := e.Validate(); err != nil {
		return MapEntry{}, err
	}

	return e, nil
}

// Validate checks every field constraint in declaration order.
func (e MapEntry) Validate() error {
	if e.Device == "" {
		return invalid(FieldDevice, e.Device, "must not be empty")
	}
	if e.Name == "" {
		return invalid(FieldName, e.Name, "must not be empty")
	}
	if e.Address < 0 {
		return invalid(FieldAddress, e.Address, "must be >= 0")
	}
	if !e.DType.Valid() {
		return invalid(FieldDType, string(e.DType), "must be one of INT16, UINT16, INT32, UINT32, INT32R, FLOAT32, FLOAT32R")
	}
	if math.IsNaN(e.Scale) || math.IsInf(e.Scale, 0) {
		return invalid(FieldScale, e.Scale, "must be a finite number")
	}
	if math.IsNaN(e.Offset) || math.IsInf(e.Offset, 0) {
		return invalid(FieldOffset, e.Offset, "must be a finite number")
	}
	if !e.RW.Valid() {
		return invalid(FieldRW, string(e.RW), "must be one of R, W, RW")
	}
	if !e.Function.Valid() {
		return invalid(FieldFunction, string(e.Function), "must be one of HR, IR")
	}
	if !e.ByteOrder.Valid() {
		return invalid(FieldByteOrder, string(e.ByteOrder), "must be one of big, little")
	}
	if !e.WordOrder.Valid() {
		return invalid(FieldWordOrder, string(e.WordOrder), "must be one of normal, swapped")
	}
	if e.DType.Reversed() && e.WordOrder != WordOrderSwapped {
		return invalid(FieldWordOrder, string(e.WordOrder), "must be swapped for "+string(e.DType))
	}
	return nil
}

// Symbol is the upper-case C identifier for the entry, DEVICE_NAME.
func (e MapEntry) Symbol() string {
	s := sanitizeIdent(e.Device) + "_" + sanitizeIdent(e.Name)
	if s[0] >= '0' && s[0] <= '9' {
		s = "_" + s
	}
	return strings.ToUpper(s)
}

func sanitizeIdent(s string) string {
	return strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return r
		}
		return '_'
	}, s)
}

func invalid(field string, value any, reason string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}

func present(fields map[string]any, field string) (any, bool) {
	v, ok := fields[field]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

func stringField(fields map[string]any, field string) (string, error) {
	v, ok := present(fields, field)
	if !ok {
		return "", invalid(field, nil, "field required")
	}
	s, ok := toString(v)
	if !ok {
		return "", invalid(field, v, "not a string")
	}
	return s, nil
}

func optionalStringField(fields map[string]any, field string) (*string, error) {
	v, ok := present(fields, field)
	if !ok {
		return nil, nil
	}
	s, ok := toString(v)
	if !ok {
		return nil, invalid(field, v, "not a string")
	}
	return &s, nil
}

func metaField(v any) (map[string]any, error) {
	raw, ok := v.(map[string]any)
	if !ok {
		return nil, invalid(FieldMeta, v, "not a mapping")
	}

	meta := make(map[string]any, len(raw))
	for key, value := range raw {
		scalar, ok := toScalar(value)
		if !ok {
			return nil, invalid(FieldMeta+"."+key, value, "not a scalar")
		}
		meta[key] = scalar
	}
	return meta, nil
}
