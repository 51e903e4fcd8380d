package resp

import (
	"strconv"
	"strings"
)

// Kind identifies the variant held by a Value. The numeric value of each
// kind is its type tag on the wire.
type Kind byte

const (
	Null         Kind = '_'
	SimpleString Kind = '+'
	BulkString   Kind = '$'
	Array        Kind = '*'
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "Null"
	case SimpleString:
		return "SimpleString"
	case BulkString:
		return "BulkString"
	case Array:
		return "Array"
	default:
		return "Unknown"
	}
}

// Value is a decoded request value or a reply awaiting encoding.
//
// Str holds the payload of BulkString and SimpleString values, Elems the
// elements of an Array. Both are nil for Null.
type Value struct {
	Kind  Kind
	Str   []byte
	Elems []Value
}

var nullValue = Value{Kind: Null}

// NullValue returns the Null value.
func NullValue() Value {
	return nullValue
}

// BulkStringValue wraps b without copying it.
func BulkStringValue(b []byte) Value {
	return Value{Kind: BulkString, Str: b}
}

// ArrayValue builds an Array from elems.
func ArrayValue(elems ...Value) Value {
	return Value{Kind: Array, Elems: elems}
}

// StringValue builds a single-line scalar reply.
func StringValue(s string) Value {
	return Value{Kind: SimpleString, Str: []byte(s)}
}

// SimpleStringValue builds a single-line scalar reply from b without copying it.
func SimpleStringValue(b []byte) Value {
	return Value{Kind: SimpleString, Str: b}
}

func (v Value) IsNull() bool {
	return v.Kind == Null
}

// IsScalar reports whether v carries a single string payload.
func (v Value) IsScalar() bool {
	return v.Kind == BulkString || v.Kind == SimpleString
}

// IsAggregate reports whether v is a sequence of values.
func (v Value) IsAggregate() bool {
	return v.Kind == Array
}

// Equal reports whether v and o have the same kind and structure.
// A nil and an empty payload compare equal.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case BulkString, SimpleString:
		return string(v.Str) == string(o.Str)
	case Array:
		if len(v.Elems) != len(o.Elems) {
			return false
		}
		for i := range v.Elems {
			if !v.Elems[i].Equal(o.Elems[i]) {
				return false
			}
		}
	}
	return true
}

// String renders v for logs and test failures, not for the wire.
func (v Value) String() string {
	switch v.Kind {
	case Null:
		return "(nil)"
	case BulkString, SimpleString:
		return strconv.Quote(string(v.Str))
	case Array:
		parts := make([]string, len(v.Elems))
		for i, e := range v.Elems {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, " ") + "]"
	default:
		return "(unknown)"
	}
}
