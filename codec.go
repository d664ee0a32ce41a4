/*
Package typedtable – field codecs.

A fieldCodec packs and unpacks the value stored at a field address. The codec
is chosen once from a FieldDescriptor; its functions only load, store and
construct.

Enum fields are read and written through their underlying integer storage.
A defined integer type has the same size and layout as its underlying type,
so the enum-to-integral conversion and its reverse are plain loads and
stores of the integral value.
*/
package typedtable

import (
	"time"
	"unsafe"

	"github.com/google/uuid"
)

type fieldCodec struct {
	pack   func(p unsafe.Pointer) Property
	unpack func(p unsafe.Pointer, v Property) error
}

// codecFor selects the codec for d. loc is the offset zone-less timestamps
// are written in.
func codecFor(d FieldDescriptor, loc *time.Location) fieldCodec {
	switch d.store {
	case storeString:
		return build(d, NewStringProperty, func(v Property) string { s, _ := v.StringValue(); return s })
	case storeBytes:
		return bytesCodec(d.Nullable)
	case storeBool:
		return build(d, NewBooleanProperty, func(v Property) bool { b, _ := v.BooleanValue(); return b })
	case storeFloat64:
		return build(d, NewDoubleProperty, func(v Property) float64 { f, _ := v.DoubleValue(); return f })
	case storeUUID:
		return build(d, NewGuidProperty, func(v Property) uuid.UUID { g, _ := v.GuidValue(); return g })
	case storeInt32:
		return build(d, NewInt32Property, func(v Property) int32 { i, _ := v.Int32Value(); return i })
	case storeInt64:
		return build(d, NewInt64Property, func(v Property) int64 { i, _ := v.Int64Value(); return i })
	case storeInt:
		return build(d,
			func(i int) Property { return NewInt64Property(int64(i)) },
			func(v Property) int { i, _ := v.Int64Value(); return int(i) })
	case storeTime:
		pack, read := zoneless(loc)
		if d.Nullable {
			return nullable(WireDateTimeOffset, pack, read, true)
		}
		return direct(WireDateTimeOffset, pack, read)
	case storeOffset:
		return build(d,
			func(o DateTimeOffset) Property { return NewDateTimeOffsetProperty(o.Time) },
			func(v Property) DateTimeOffset { t, _ := v.DateTimeOffsetValue(); return DateTimeOffset{t} })
	}
	panic("typedtable: no codec for " + d.String())
}

func build[S any](d FieldDescriptor, wrap func(S) Property, read func(Property) S) fieldCodec {
	if d.Nullable {
		return nullable(d.WireType, wrap, read, false)
	}
	return direct(d.WireType, wrap, read)
}

// direct handles a field stored as S. A property without a value stores the
// zero S.
func direct[S any](w WireType, wrap func(S) Property, read func(Property) S) fieldCodec {
	return fieldCodec{
		pack: func(p unsafe.Pointer) Property {
			return wrap(*(*S)(p))
		},
		unpack: func(p unsafe.Pointer, v Property) error {
			if v.typ != w {
				return mismatch(w, v)
			}
			*(*S)(p) = read(v)
			return nil
		},
	}
}

// nullable handles a field stored as *S. A nil pointer packs as no value.
// When fill is set, no value unpacks to a pointer to read's result instead
// of nil.
func nullable[S any](w WireType, wrap func(S) Property, read func(Property) S, fill bool) fieldCodec {
	return fieldCodec{
		pack: func(p unsafe.Pointer) Property {
			ptr := *(**S)(p)
			if ptr == nil {
				return NewNullProperty(w)
			}
			return wrap(*ptr)
		},
		unpack: func(p unsafe.Pointer, v Property) error {
			if v.typ != w {
				return mismatch(w, v)
			}
			if !v.valid && !fill {
				*(**S)(p) = nil
				return nil
			}
			x := read(v)
			*(**S)(p) = &x
			return nil
		},
	}
}

// bytesCodec reads the slice header directly, so a nil slice is already the
// "no value" form and pointer-to-slice fields unwrap once more.
func bytesCodec(isPtr bool) fieldCodec {
	if isPtr {
		return nullable(WireBinary, NewBinaryProperty, Property.BinaryValue, false)
	}
	return direct(WireBinary, NewBinaryProperty, Property.BinaryValue)
}

// zoneless returns the pack and read halves for time.Time fields. The wall
// clock is kept; the zone is replaced by loc on write and by UTC on read.
func zoneless(loc *time.Location) (func(time.Time) Property, func(Property) time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	pack := func(t time.Time) Property {
		return NewDateTimeOffsetProperty(time.Date(t.Year(), t.Month(), t.Day(),
			t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc))
	}
	read := func(v Property) time.Time {
		t, ok := v.DateTimeOffsetValue()
		if !ok {
			return time.Time{}
		}
		return time.Date(t.Year(), t.Month(), t.Day(),
			t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
	}
	return pack, read
}

func mismatch(want WireType, got Property) error {
	return NewError("Cannot read "+got.typ.String()+" property as "+want.String(),
		WithCode(CodeTypeMismatch),
		WithContext(map[string]any{"want": want.String(), "got": got.typ.String()}))
}
