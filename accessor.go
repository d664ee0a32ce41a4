/*
Package typedtable – value accessor synthesis.

An Accessor is the pre-built pack/unpack pair for one field of entity type T.
Resolution and codec selection run once when the accessor is created; Extract
and Apply then work on the field address without inspecting types.
*/
package typedtable

import (
	"reflect"
	"time"
	"unsafe"
)

// AccessorOption configures synthesis.
type AccessorOption func(*accessorConfig)

type accessorConfig struct {
	location *time.Location
}

// WithLocation sets the offset time.Time fields are written with. The
// default is UTC.
func WithLocation(loc *time.Location) AccessorOption {
	return func(c *accessorConfig) { c.location = loc }
}

// Accessor converts one field of T to and from a Property. It holds no
// per-instance state and is safe for concurrent use on distinct instances.
type Accessor[T any] struct {
	desc   FieldDescriptor
	codec  fieldCodec
	locate func(*T) unsafe.Pointer
}

// NewFieldAccessor synthesizes an accessor for the field addressed by
// field. The same function serves as getter and settable location:
//
//	acc, err := typedtable.NewFieldAccessor("age", func(u *User) *int32 { return &u.Age })
//
// field must return a non-nil address inside the instance it is given;
// Extract and Apply dereference it without checking. It fails with
// ErrUnsupportedFieldType when F has no wire variant.
func NewFieldAccessor[T, F any](name string, field func(*T) *F, opts ...AccessorOption) (*Accessor[T], error) {
	if field == nil {
		return nil, missingArgument("field")
	}
	if name == "" {
		return nil, argumentError("Missing field name")
	}
	locate := func(inst *T) unsafe.Pointer { return unsafe.Pointer(field(inst)) }
	return synthesize(name, reflect.TypeFor[F](), locate, opts)
}

// newStructAccessor synthesizes an accessor for a struct field at offset
// bytes from the start of T.
func newStructAccessor[T any](name string, typ reflect.Type, offset uintptr, opts []AccessorOption) (*Accessor[T], error) {
	locate := func(inst *T) unsafe.Pointer { return unsafe.Add(unsafe.Pointer(inst), offset) }
	return synthesize(name, typ, locate, opts)
}

func synthesize[T any](name string, typ reflect.Type, locate func(*T) unsafe.Pointer, opts []AccessorOption) (*Accessor[T], error) {
	var cfg accessorConfig
	for _, o := range opts {
		o(&cfg)
	}
	desc, err := resolveFieldType(name, typ)
	if err != nil {
		return nil, err
	}
	return &Accessor[T]{
		desc:   desc,
		codec:  codecFor(desc, cfg.location),
		locate: locate,
	}, nil
}

// Name returns the storage attribute name.
func (a *Accessor[T]) Name() string { return a.desc.Name }

// WireType returns the resolved variant.
func (a *Accessor[T]) WireType() WireType { return a.desc.WireType }

// Descriptor returns the resolved field metadata.
func (a *Accessor[T]) Descriptor() FieldDescriptor { return a.desc }

// Extract packs the field's current value.
func (a *Accessor[T]) Extract(inst *T) Property {
	return a.codec.pack(a.locate(inst))
}

// Apply unpacks v into the field. It fails only when v is not of the
// accessor's wire variant.
func (a *Accessor[T]) Apply(inst *T, v Property) error {
	if err := a.codec.unpack(a.locate(inst), v); err != nil {
		if e, ok := err.(*Error); ok {
			e.Message = "Field \"" + a.desc.Name + "\": " + e.Message
			if e.Context == nil {
				e.Context = map[string]any{}
			}
			e.Context["field"] = a.desc.Name
		}
		return err
	}
	return nil
}
