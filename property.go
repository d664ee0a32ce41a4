/*
Package typedtable – wire attribute values.

A Property is the tagged union stored per attribute: exactly one of eight
variants, either holding a value or holding "no value".
*/
package typedtable

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// WireType names one variant of the Property union.
type WireType uint8

const (
	wireInvalid WireType = iota
	WireString
	WireBinary
	WireBoolean
	WireDateTimeOffset
	WireDouble
	WireGuid
	WireInt32
	WireInt64
)

var wireTypeNames = [...]string{
	wireInvalid:        "Invalid",
	WireString:         "String",
	WireBinary:         "Binary",
	WireBoolean:        "Boolean",
	WireDateTimeOffset: "DateTimeOffset",
	WireDouble:         "Double",
	WireGuid:           "Guid",
	WireInt32:          "Int32",
	WireInt64:          "Int64",
}

func (w WireType) String() string {
	if int(w) < len(wireTypeNames) {
		return wireTypeNames[w]
	}
	return fmt.Sprintf("WireType(%d)", uint8(w))
}

// Valid reports whether w is one of the eight variants.
func (w WireType) Valid() bool { return w > wireInvalid && w <= WireInt64 }

// DateTimeOffset is a timestamp that keeps its UTC offset on the wire.
// Fields of this type round-trip instant and offset unchanged, unlike
// time.Time fields which are treated as zone-less wall clocks.
type DateTimeOffset struct {
	time.Time
}

// Property is a single wire attribute value. The zero Property is invalid.
type Property struct {
	typ   WireType
	valid bool

	str string
	bin []byte
	b   bool
	t   time.Time
	f   float64
	g   uuid.UUID
	i   int64
}

// NewNullProperty returns a property of variant w holding no value.
func NewNullProperty(w WireType) Property { return Property{typ: w} }

// NewStringProperty returns a String property holding v.
func NewStringProperty(v string) Property { return Property{typ: WireString, valid: true, str: v} }

// NewBinaryProperty wraps v without copying. A nil slice holds no value.
func NewBinaryProperty(v []byte) Property {
	return Property{typ: WireBinary, valid: v != nil, bin: v}
}

// NewBooleanProperty returns a Boolean property holding v.
func NewBooleanProperty(v bool) Property { return Property{typ: WireBoolean, valid: true, b: v} }

// NewDateTimeOffsetProperty returns a DateTimeOffset property holding v
// with its offset.
func NewDateTimeOffsetProperty(v time.Time) Property {
	return Property{typ: WireDateTimeOffset, valid: true, t: v}
}

// NewDoubleProperty returns a Double property holding v.
func NewDoubleProperty(v float64) Property { return Property{typ: WireDouble, valid: true, f: v} }

// NewGuidProperty returns a Guid property holding v.
func NewGuidProperty(v uuid.UUID) Property { return Property{typ: WireGuid, valid: true, g: v} }

// NewInt32Property returns an Int32 property holding v.
func NewInt32Property(v int32) Property { return Property{typ: WireInt32, valid: true, i: int64(v)} }

// NewInt64Property returns an Int64 property holding v.
func NewInt64Property(v int64) Property { return Property{typ: WireInt64, valid: true, i: v} }

// Type returns the variant.
func (p Property) Type() WireType { return p.typ }

// IsNull reports whether the property holds no value.
func (p Property) IsNull() bool { return !p.valid }

func (p Property) has(w WireType) bool { return p.valid && p.typ == w }

// StringValue returns the held string if p is a String with a value.
func (p Property) StringValue() (string, bool) { return p.str, p.has(WireString) }

// BinaryValue returns nil unless the property is a Binary holding a value.
func (p Property) BinaryValue() []byte {
	if !p.has(WireBinary) {
		return nil
	}
	return p.bin
}

// BooleanValue returns the held bool if p is a Boolean with a value.
func (p Property) BooleanValue() (bool, bool) { return p.b, p.has(WireBoolean) }

// DateTimeOffsetValue returns the held time if p is a DateTimeOffset with a
// value.
func (p Property) DateTimeOffsetValue() (time.Time, bool) {
	return p.t, p.has(WireDateTimeOffset)
}

// DoubleValue returns the held float64 if p is a Double with a value.
func (p Property) DoubleValue() (float64, bool) { return p.f, p.has(WireDouble) }

// GuidValue returns the held UUID if p is a Guid with a value.
func (p Property) GuidValue() (uuid.UUID, bool) { return p.g, p.has(WireGuid) }

// Int32Value returns the held int32 if p is an Int32 with a value.
func (p Property) Int32Value() (int32, bool) { return int32(p.i), p.has(WireInt32) }

// Int64Value returns the held int64 if p is an Int64 with a value.
func (p Property) Int64Value() (int64, bool) { return p.i, p.has(WireInt64) }

// Value returns the held value boxed, or nil for no value.
func (p Property) Value() any {
	if !p.valid {
		return nil
	}
	switch p.typ {
	case WireString:
		return p.str
	case WireBinary:
		return p.bin
	case WireBoolean:
		return p.b
	case WireDateTimeOffset:
		return p.t
	case WireDouble:
		return p.f
	case WireGuid:
		return p.g
	case WireInt32:
		return int32(p.i)
	case WireInt64:
		return p.i
	}
	return nil
}

// Equal compares variant, validity and value. Binary values compare
// bytewise and timestamps compare by instant and offset.
func (p Property) Equal(o Property) bool {
	if p.typ != o.typ || p.valid != o.valid {
		return false
	}
	if !p.valid {
		return true
	}
	switch p.typ {
	case WireBinary:
		return string(p.bin) == string(o.bin)
	case WireDateTimeOffset:
		_, po := p.t.Zone()
		_, oo := o.t.Zone()
		return p.t.Equal(o.t) && po == oo
	}
	return p.Value() == o.Value()
}

func (p Property) String() string {
	if !p.valid {
		return p.typ.String() + "(null)"
	}
	switch p.typ {
	case WireBinary:
		return fmt.Sprintf("Binary(%d bytes)", len(p.bin))
	case WireDateTimeOffset:
		return "DateTimeOffset(" + p.t.Format(time.RFC3339Nano) + ")"
	}
	return fmt.Sprintf("%s(%v)", p.typ, p.Value())
}
