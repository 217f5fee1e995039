package schema

import "strings"

// Kind is the element type of a field.
type Kind uint8

const (
	Invalid Kind = iota
	Bool
	Int8
	Uint8
	Int16
	Uint16
	Int32
	Uint32
	Int64
	Uint64
	Float32
	Float64
	Byte   // opaque bytes
	Char   // text
	Object // nested schema
)

var kindNames = [...]string{
	Invalid: "invalid",
	Bool:    "bool",
	Int8:    "int8",
	Uint8:   "uint8",
	Int16:   "int16",
	Uint16:  "uint16",
	Int32:   "int32",
	Uint32:  "uint32",
	Int64:   "int64",
	Uint64:  "uint64",
	Float32: "float32",
	Float64: "float64",
	Byte:    "byte",
	Char:    "char",
	Object:  "object",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "invalid"
}

// Size returns the element width of a scalar kind, 0 for Object and Invalid.
func (k Kind) Size() int {
	switch k {
	case Bool, Int8, Uint8, Byte, Char:
		return 1
	case Int16, Uint16:
		return 2
	case Int32, Uint32, Float32:
		return 4
	case Int64, Uint64, Float64:
		return 8
	default:
		return 0
	}
}

// Scalar reports whether k is a fixed-width element kind.
func (k Kind) Scalar() bool { return k.Size() > 0 }

// ParseKind maps a kind name to a scalar Kind. Object kinds are resolved by
// schema name instead.
func ParseKind(s string) (Kind, bool) {
	switch strings.ToLower(s) {
	case "string":
		return Char, true
	case "object", "invalid":
		return Invalid, false
	}
	for k, name := range kindNames {
		if name == strings.ToLower(s) {
			return Kind(k), true
		}
	}
	return Invalid, false
}
