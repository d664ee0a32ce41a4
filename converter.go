/*
Package typedtable – entity converters.

An EntityConverter holds one Accessor per exported field of a struct type and
converts whole entities to and from attribute maps. Fields are configured
with the `table` struct tag:

	type Country struct {
		Continent string `table:",hash"`
		Name      string `table:",range"`
		Area      float64
		Founded   *time.Time `table:"founded"`
		Internal  string     `table:"-"`
	}

Embedded structs contribute their promoted fields, except embedded
timestamps (time.Time, *time.Time, DateTimeOffset), which are stored as one
attribute named after the type.
*/
package typedtable

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DefaultTagName is the struct tag read when ConverterParams.TagName is empty.
const DefaultTagName = "table"

// ConverterParams configures an EntityConverter.
type ConverterParams struct {
	TagName  string
	Location *time.Location // offset for time.Time fields; nil → UTC
	Logger   Logger         // nil → default (info+error only)
	Verbose  bool           // true → also log trace/data
}

// KeySchema names the key attributes of an entity type. Range is empty for
// hash-only tables.
type KeySchema struct {
	Hash  string
	Range string
}

// EntityConverter converts entities of struct type T. It is immutable after
// construction.
type EntityConverter[T any] struct {
	entity    reflect.Type
	accessors []*Accessor[T]
	byName    map[string]*Accessor[T]
	hash      *Accessor[T]
	rng       *Accessor[T]
	log       Logger
}

// NewEntityConverter synthesizes accessors for every exported field of T.
// Any field without a wire representation fails the whole registration.
func NewEntityConverter[T any](params ConverterParams) (*EntityConverter[T], error) {
	t := reflect.TypeFor[T]()
	if t.Kind() != reflect.Struct {
		return nil, argumentError("Entity type " + t.String() + " is not a struct")
	}
	tag := params.TagName
	if tag == "" {
		tag = DefaultTagName
	}
	opts := []AccessorOption{WithLocation(params.Location)}

	c := &EntityConverter[T]{
		entity: t,
		byName: map[string]*Accessor[T]{},
		log:    pickLogger(params.Logger, params.Verbose),
	}

	// index paths of embedded fields stored whole
	var whole [][]int
	for _, sf := range reflect.VisibleFields(t) {
		if !sf.IsExported() || within(sf.Index, whole) {
			continue
		}
		raw, tagged := sf.Tag.Lookup(tag)
		if sf.Anonymous && !tagged && isStructOrPtr(sf.Type) && !storedWhole(sf.Type) {
			// promoted fields are visited on their own
			continue
		}
		name, role, err := parseTag(sf.Name, raw)
		if err != nil {
			return nil, err
		}
		if name == "-" {
			continue
		}
		if _, dup := c.byName[name]; dup {
			return nil, argumentError(fmt.Sprintf("Duplicate attribute %q in %s", name, t))
		}
		offset, err := fieldOffset(t, sf)
		if err != nil {
			return nil, err
		}
		acc, err := newStructAccessor[T](name, sf.Type, offset, opts)
		if err != nil {
			c.log.Error("Cannot register entity field", map[string]any{
				"entity": t.String(), "field": sf.Name, "type": sf.Type.String(),
			})
			return nil, err
		}
		if err := c.setKey(role, acc); err != nil {
			return nil, err
		}
		c.accessors = append(c.accessors, acc)
		c.byName[name] = acc
		if sf.Anonymous {
			whole = append(whole, sf.Index)
		}
		c.log.Trace("Synthesized accessor", map[string]any{
			"entity": t.String(), "field": sf.Name, "attribute": name,
			"wire": acc.WireType().String(), "role": role,
		})
	}

	if c.rng != nil && c.hash == nil {
		return nil, argumentError("Entity " + t.String() + " declares a range key without a hash key")
	}
	return c, nil
}

// parseTag splits `name,role`. An empty name falls back to the Go field name.
func parseTag(field, raw string) (name, role string, err error) {
	name, opts, _ := strings.Cut(raw, ",")
	if name == "" {
		name = field
	}
	for _, o := range strings.Split(opts, ",") {
		switch o {
		case "":
		case "hash", "range":
			if role != "" {
				return "", "", argumentError(fmt.Sprintf("Field %q has more than one key role", field))
			}
			role = o
		default:
			return "", "", argumentError(fmt.Sprintf("Unknown tag option %q on field %q", o, field))
		}
	}
	return name, role, nil
}

// fieldOffset sums offsets along the embedding path of sf. Fields promoted
// through an embedded pointer do not live inside T and are rejected.
func fieldOffset(t reflect.Type, sf reflect.StructField) (uintptr, error) {
	var off uintptr
	cur := t
	for i, idx := range sf.Index {
		f := cur.Field(idx)
		off += f.Offset
		if i == len(sf.Index)-1 {
			break
		}
		if f.Type.Kind() != reflect.Struct {
			return 0, unsupportedType(sf.Name, sf.Type, "promoted through embedded "+f.Type.String())
		}
		cur = f.Type
	}
	return off, nil
}

func isStructOrPtr(t reflect.Type) bool {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct
}

// storedWhole reports whether an embedded struct type has a wire variant of
// its own, as time.Time and DateTimeOffset do.
func storedWhole(t reflect.Type) bool {
	_, err := resolveFieldType("", t)
	return err == nil
}

// within reports whether index lies below one of the paths in prefixes.
func within(index []int, prefixes [][]int) bool {
	for _, p := range prefixes {
		if len(index) > len(p) && slices.Equal(index[:len(p)], p) {
			return true
		}
	}
	return false
}

func (c *EntityConverter[T]) setKey(role string, acc *Accessor[T]) error {
	if role == "" {
		return nil
	}
	d := acc.Descriptor()
	if d.Nullable {
		return argumentError(fmt.Sprintf("Key attribute %q cannot be a pointer", d.Name))
	}
	if d.WireType == WireBoolean {
		return argumentError(fmt.Sprintf("Key attribute %q cannot be Boolean", d.Name))
	}
	slot := &c.hash
	if role == "range" {
		slot = &c.rng
	}
	if *slot != nil {
		return argumentError(fmt.Sprintf("Entity %s declares more than one %s key", c.entity, role))
	}
	*slot = acc
	return nil
}

var converters sync.Map // reflect.Type → converterEntry

type converterEntry struct {
	conv any
	err  error
}

// ConverterFor returns the shared default converter for T, building it on
// first use. A registration failure is cached as well.
func ConverterFor[T any]() (*EntityConverter[T], error) {
	t := reflect.TypeFor[T]()
	if e, ok := converters.Load(t); ok {
		entry := e.(converterEntry)
		if entry.err != nil {
			return nil, entry.err
		}
		return entry.conv.(*EntityConverter[T]), nil
	}
	conv, err := NewEntityConverter[T](ConverterParams{})
	e, _ := converters.LoadOrStore(t, converterEntry{conv: conv, err: err})
	entry := e.(converterEntry)
	if entry.err != nil {
		return nil, entry.err
	}
	return entry.conv.(*EntityConverter[T]), nil
}

// Accessors returns the field accessors in declaration order.
func (c *EntityConverter[T]) Accessors() []*Accessor[T] {
	out := make([]*Accessor[T], len(c.accessors))
	copy(out, c.accessors)
	return out
}

// Accessor looks up the accessor for an attribute name.
func (c *EntityConverter[T]) Accessor(name string) (*Accessor[T], bool) {
	a, ok := c.byName[name]
	return a, ok
}

// KeySchema returns the key attribute names.
func (c *EntityConverter[T]) KeySchema() KeySchema {
	var ks KeySchema
	if c.hash != nil {
		ks.Hash = c.hash.Name()
	}
	if c.rng != nil {
		ks.Range = c.rng.Name()
	}
	return ks
}

// ToProperties packs every field of inst.
func (c *EntityConverter[T]) ToProperties(inst *T) map[string]Property {
	props := make(map[string]Property, len(c.accessors))
	for _, a := range c.accessors {
		props[a.Name()] = a.Extract(inst)
	}
	return props
}

// ApplyProperties unpacks props into inst. Attributes without a field are
// ignored; fields without an attribute are left untouched.
func (c *EntityConverter[T]) ApplyProperties(inst *T, props map[string]Property) error {
	for _, a := range c.accessors {
		v, ok := props[a.Name()]
		if !ok {
			continue
		}
		if err := a.Apply(inst, v); err != nil {
			return err
		}
	}
	return nil
}

// FromProperties builds a new entity from props.
func (c *EntityConverter[T]) FromProperties(props map[string]Property) (*T, error) {
	inst := new(T)
	if err := c.ApplyProperties(inst, props); err != nil {
		return nil, err
	}
	return inst, nil
}

// Marshal encodes inst as a DynamoDB item.
func (c *EntityConverter[T]) Marshal(inst *T) (map[string]types.AttributeValue, error) {
	item := make(map[string]types.AttributeValue, len(c.accessors))
	for _, a := range c.accessors {
		av, err := EncodeProperty(a.Extract(inst))
		if err != nil {
			return nil, err
		}
		item[a.Name()] = av
	}
	return item, nil
}

// Unmarshal decodes a DynamoDB item into a new entity.
func (c *EntityConverter[T]) Unmarshal(item map[string]types.AttributeValue) (*T, error) {
	inst := new(T)
	for _, a := range c.accessors {
		av, ok := item[a.Name()]
		if !ok {
			continue
		}
		v, err := DecodeProperty(av, a.WireType())
		if err != nil {
			if e, ok := err.(*Error); ok {
				e.Message = "Attribute \"" + a.Name() + "\": " + e.Message
			}
			return nil, err
		}
		if err := a.Apply(inst, v); err != nil {
			return nil, err
		}
	}
	return inst, nil
}

// Key encodes the key attributes of inst.
func (c *EntityConverter[T]) Key(inst *T) (map[string]types.AttributeValue, error) {
	if c.hash == nil {
		return nil, argumentError("Entity " + c.entity.String() + " has no hash key")
	}
	key := make(map[string]types.AttributeValue, 2)
	for _, a := range []*Accessor[T]{c.hash, c.rng} {
		if a == nil {
			continue
		}
		av, err := EncodeProperty(a.Extract(inst))
		if err != nil {
			return nil, err
		}
		key[a.Name()] = av
	}
	return key, nil
}
