/*
Package typedtable – field type resolution.

resolveFieldType maps a declared Go type onto one wire variant. The steps run
in a fixed order: unwrap pointer (nullable), unwrap enum to its integral kind,
then map by identity or kind.
*/
package typedtable

import (
	"reflect"
	"time"

	"github.com/google/uuid"
)

var (
	timeType   = reflect.TypeOf(time.Time{})
	offsetType = reflect.TypeOf(DateTimeOffset{})
	uuidType   = reflect.TypeOf(uuid.UUID{})
)

// storage is the in-memory representation the codec reads and writes. Enums
// share the storage of their underlying kind.
type storage uint8

const (
	storeString storage = iota + 1
	storeBytes
	storeBool
	storeFloat64
	storeUUID
	storeInt32
	storeInt64
	storeInt
	storeTime
	storeOffset
)

// FieldDescriptor is the resolved mapping of one field onto a wire variant.
type FieldDescriptor struct {
	// Name is the storage attribute name.
	Name string
	// DeclaredType is the field's Go type as written.
	DeclaredType reflect.Type
	WireType     WireType

	// Nullable is set for pointer fields.
	Nullable bool
	// Enum is set for defined integer types; EnumType is the type after
	// pointer unwrapping.
	Enum     bool
	EnumType reflect.Type
	// Zoneless is set for time.Time fields, which map to DateTimeOffset by
	// wall clock.
	Zoneless bool

	store storage
}

func (d FieldDescriptor) String() string {
	s := d.Name + ":" + d.DeclaredType.String() + "->" + d.WireType.String()
	if d.Nullable {
		s += " nullable"
	}
	if d.Enum {
		s += " enum(" + d.EnumType.String() + ")"
	}
	return s
}

// resolveFieldType runs the normalization pipeline for declared. It never
// looks at a value.
func resolveFieldType(name string, declared reflect.Type) (FieldDescriptor, error) {
	d := FieldDescriptor{Name: name, DeclaredType: declared}
	if declared == nil {
		return d, unsupportedType(name, "<nil>", "")
	}

	t := declared
	if t.Kind() == reflect.Pointer {
		d.Nullable = true
		t = t.Elem()
		if t.Kind() == reflect.Pointer {
			return d, unsupportedType(name, declared, "pointer to pointer")
		}
	}

	if isEnum(t) {
		d.Enum = true
		d.EnumType = t
	}

	switch t {
	case timeType:
		d.WireType, d.store, d.Zoneless = WireDateTimeOffset, storeTime, true
		return d, nil
	case offsetType:
		d.WireType, d.store = WireDateTimeOffset, storeOffset
		return d, nil
	case uuidType:
		d.WireType, d.store = WireGuid, storeUUID
		return d, nil
	}

	switch t.Kind() {
	case reflect.String:
		d.WireType, d.store = WireString, storeString
	case reflect.Bool:
		d.WireType, d.store = WireBoolean, storeBool
	case reflect.Float64:
		d.WireType, d.store = WireDouble, storeFloat64
	case reflect.Int32:
		d.WireType, d.store = WireInt32, storeInt32
	case reflect.Int64:
		d.WireType, d.store = WireInt64, storeInt64
	case reflect.Int:
		d.WireType, d.store = WireInt64, storeInt
	case reflect.Slice:
		if t.Elem().Kind() != reflect.Uint8 {
			return d, unsupportedType(name, declared, "")
		}
		d.WireType, d.store = WireBinary, storeBytes
	default:
		if d.Enum {
			return d, unsupportedType(name, declared, "enum backed by "+t.Kind().String())
		}
		return d, unsupportedType(name, declared, "")
	}
	return d, nil
}

// isEnum reports whether t is a defined type over an integer kind.
func isEnum(t reflect.Type) bool {
	if t.PkgPath() == "" || t.Name() == "" {
		return false
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}
