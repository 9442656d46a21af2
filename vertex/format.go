// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vertex

import (
	"fmt"
	"reflect"
)

// AttributeType identifies the scalar or vector type of one named
// attribute within a vertex element.
type AttributeType int

// Supported attribute types.
const (
	Float32 AttributeType = iota
	Float32Vec2
	Float32Vec3
	Float32Vec4
	Int32
	Int32Vec2
	Int32Vec3
	Int32Vec4
	Uint32
	Uint32Vec2
	Uint32Vec3
	Uint32Vec4
)

var attributeSizes = [...]int{
	Float32:     4,
	Float32Vec2: 8,
	Float32Vec3: 12,
	Float32Vec4: 16,
	Int32:       4,
	Int32Vec2:   8,
	Int32Vec3:   12,
	Int32Vec4:   16,
	Uint32:      4,
	Uint32Vec2:  8,
	Uint32Vec3:  12,
	Uint32Vec4:  16,
}

var attributeNames = [...]string{
	Float32:     "f32",
	Float32Vec2: "f32vec2",
	Float32Vec3: "f32vec3",
	Float32Vec4: "f32vec4",
	Int32:       "i32",
	Int32Vec2:   "i32vec2",
	Int32Vec3:   "i32vec3",
	Int32Vec4:   "i32vec4",
	Uint32:      "u32",
	Uint32Vec2:  "u32vec2",
	Uint32Vec3:  "u32vec3",
	Uint32Vec4:  "u32vec4",
}

// Size returns the number of bytes the attribute occupies.
func (t AttributeType) Size() int {
	return attributeSizes[t]
}

func (t AttributeType) String() string {
	if int(t) < len(attributeNames) {
		return attributeNames[t]
	}
	return "unknown"
}

// Attribute is one named sub-field of a vertex element.
type Attribute struct {
	Name   string
	Offset int
	Type   AttributeType
}

// Format is the ordered attribute-binding layout of a vertex element.
type Format []Attribute

// Span returns the total addressed byte span of the layout, which
// must not exceed the element stride of the buffer it binds to.
func (f Format) Span() int {
	var span int
	for _, a := range f {
		if end := a.Offset + a.Type.Size(); end > span {
			span = end
		}
	}
	return span
}

// ByName returns the attribute with the given name.
func (f Format) ByName(name string) (Attribute, bool) {
	for _, a := range f {
		if a.Name == name {
			return a, true
		}
	}
	return Attribute{}, false
}

// Vertex is implemented by element types that can describe their own
// attribute-binding layout. Most implementations just return
// MustDerive on the zero value.
type Vertex interface {
	VertexFormat() Format
}

// Derive builds a Format from the exported fields of a struct value.
// Scalars of float32/int32/uint32 and fixed arrays of them up to four
// components are supported, which covers the mgl32 vector types.
// Attribute names are the field names; offsets come from the struct
// layout itself, so the derived span always fits the element stride.
func Derive(v any) (Format, error) {
	t := reflect.TypeOf(v)
	if t == nil || t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("vertex: cannot derive format from %T, need a struct", v)
	}
	var format Format
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.PkgPath != "" {
			continue // unexported
		}
		at, err := attributeTypeOf(field.Type)
		if err != nil {
			return nil, fmt.Errorf("vertex: field %s: %s", field.Name, err)
		}
		format = append(format, Attribute{
			Name:   field.Name,
			Offset: int(field.Offset),
			Type:   at,
		})
	}
	if len(format) == 0 {
		return nil, fmt.Errorf("vertex: %T has no usable exported fields", v)
	}
	return format, nil
}

// MustDerive is Derive that panics on failure, for use inside
// VertexFormat implementations on types known to be derivable.
func MustDerive(v any) Format {
	f, err := Derive(v)
	if err != nil {
		panic(err)
	}
	return f
}

func attributeTypeOf(t reflect.Type) (AttributeType, error) {
	components := 1
	if t.Kind() == reflect.Array {
		components = t.Len()
		t = t.Elem()
	}
	if components < 1 || components > 4 {
		return 0, fmt.Errorf("unsupported component count %d", components)
	}
	var base AttributeType
	switch t.Kind() {
	case reflect.Float32:
		base = Float32
	case reflect.Int32:
		base = Int32
	case reflect.Uint32:
		base = Uint32
	default:
		return 0, fmt.Errorf("unsupported scalar kind %s", t.Kind())
	}
	return base + AttributeType(components-1), nil
}
