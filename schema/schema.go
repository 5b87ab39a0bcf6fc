// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package schema models the postcard schema tree used to derive wire keys.
//
// Go has no derive macro, so every Endpoint/Topic payload type supplies its
// Schema explicitly (typically a small hand-written method). Encode produces
// a canonical byte sequence: identical type definitions must produce
// byte-for-byte identical output across independent implementations, since
// the sequence directly feeds key derivation.
package schema

import "encoding/binary"

// Kind identifies a node in the schema tree.
type Kind uint8

const (
	KindBool Kind = iota + 1
	KindI8
	KindI16
	KindI32
	KindI64
	KindI128
	KindU8
	KindU16
	KindU32
	KindU64
	KindU128
	KindF32
	KindF64
	KindChar
	KindString
	KindByteArray
	KindOption
	KindUnit
	KindUnitStruct
	KindNewtypeStruct
	KindSeq
	KindTuple
	KindTupleStruct
	KindMap
	KindStruct
	KindEnum
)

// Field is a named field of a Struct or a positional element of a Tuple.
type Field struct {
	Name string // empty for tuple elements
	Type Schema
}

// VariantKind mirrors the shape an enum variant's payload takes.
type VariantKind uint8

const (
	VariantUnit VariantKind = iota + 1
	VariantNewtype
	VariantTuple
	VariantStruct
)

// Variant is one arm of an Enum, in declared source order.
type Variant struct {
	Name   string
	Index  uint32
	Kind   VariantKind
	Fields []Field // payload fields per VariantKind (empty for VariantUnit)
}

// Schema is a node in the canonical schema tree.
//
// Not every field applies to every Kind:
//   - Name: struct/enum/unit-struct/newtype-struct name
//   - Fields: struct fields, tuple elements, or a newtype/tuple-struct's
//     wrapped type(s)
//   - Elem: Option's inner type, or a Seq's element type (an Array is a
//     Seq that also sets Count)
//   - Key/Value: Map's key/value types
//   - Variants: Enum's variants, in declared order
type Schema struct {
	Kind     Kind
	Name     string
	Fields   []Field
	Elem     *Schema
	Count    uint32 // fixed array length, 0 when not an array
	Key      *Schema
	Value    *Schema
	Variants []Variant
}

// Primitive constructors. Each returns a fresh, fully-formed Schema.

func Bool() Schema       { return Schema{Kind: KindBool} }
func I8() Schema         { return Schema{Kind: KindI8} }
func I16() Schema        { return Schema{Kind: KindI16} }
func I32() Schema        { return Schema{Kind: KindI32} }
func I64() Schema        { return Schema{Kind: KindI64} }
func I128() Schema       { return Schema{Kind: KindI128} }
func U8() Schema         { return Schema{Kind: KindU8} }
func U16() Schema        { return Schema{Kind: KindU16} }
func U32() Schema        { return Schema{Kind: KindU32} }
func U64() Schema        { return Schema{Kind: KindU64} }
func U128() Schema       { return Schema{Kind: KindU128} }
func F32() Schema        { return Schema{Kind: KindF32} }
func F64() Schema        { return Schema{Kind: KindF64} }
func Char() Schema       { return Schema{Kind: KindChar} }
func String() Schema     { return Schema{Kind: KindString} }
func ByteArray() Schema  { return Schema{Kind: KindByteArray} }
func Unit() Schema       { return Schema{Kind: KindUnit} }

// Option describes Rust's Option<T> / Go's "value or absent" slot.
func Option(elem Schema) Schema {
	return Schema{Kind: KindOption, Elem: &elem}
}

// Seq describes a variable-length sequence of elem.
func Seq(elem Schema) Schema {
	return Schema{Kind: KindSeq, Elem: &elem}
}

// Array describes a fixed-length [N]T array.
func Array(elem Schema, count uint32) Schema {
	return Schema{Kind: KindSeq, Elem: &elem, Count: count}
}

// Map describes a key/value map.
func Map(key, value Schema) Schema {
	return Schema{Kind: KindMap, Key: &key, Value: &value}
}

// Tuple describes an unnamed, fixed-arity product of the given element types.
func Tuple(elems ...Schema) Schema {
	fields := make([]Field, len(elems))
	for i, e := range elems {
		fields[i] = Field{Type: e}
	}
	return Schema{Kind: KindTuple, Fields: fields}
}

// UnitStruct describes a zero-field named struct, e.g. `struct Foo;`.
func UnitStruct(name string) Schema {
	return Schema{Kind: KindUnitStruct, Name: name}
}

// NewtypeStruct describes a single-field named wrapper, e.g. `struct Foo(Bar)`.
func NewtypeStruct(name string, inner Schema) Schema {
	return Schema{Kind: KindNewtypeStruct, Name: name, Fields: []Field{{Type: inner}}}
}

// TupleStruct describes a named, multi-field, unnamed-field struct.
func TupleStruct(name string, elems ...Schema) Schema {
	fields := make([]Field, len(elems))
	for i, e := range elems {
		fields[i] = Field{Type: e}
	}
	return Schema{Kind: KindTupleStruct, Name: name, Fields: fields}
}

// Struct describes a named struct with named fields, in declared source order.
func Struct(name string, fields ...Field) Schema {
	return Schema{Kind: KindStruct, Name: name, Fields: fields}
}

// Enum describes a named enum with variants in declared source order.
func Enum(name string, variants ...Variant) Schema {
	return Schema{Kind: KindEnum, Name: name, Variants: variants}
}

// Encode produces the canonical byte sequence for s. Two Schema values built
// from identical type definitions, independently, in any process, MUST
// Encode to identical bytes.
func (s Schema) Encode() []byte {
	var buf []byte
	buf = s.appendTo(buf)
	return buf
}

func appendUvarint(buf []byte, v uint64) []byte {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	return append(buf, tmp[:n]...)
}

func appendString(buf []byte, s string) []byte {
	buf = appendUvarint(buf, uint64(len(s)))
	return append(buf, s...)
}

func (s Schema) appendTo(buf []byte) []byte {
	buf = append(buf, byte(s.Kind))
	switch s.Kind {
	case KindUnitStruct:
		buf = appendString(buf, s.Name)
	case KindNewtypeStruct:
		buf = appendString(buf, s.Name)
		buf = s.Fields[0].Type.appendTo(buf)
	case KindTupleStruct:
		buf = appendString(buf, s.Name)
		buf = appendUvarint(buf, uint64(len(s.Fields)))
		for _, f := range s.Fields {
			buf = f.Type.appendTo(buf)
		}
	case KindTuple:
		buf = appendUvarint(buf, uint64(len(s.Fields)))
		for _, f := range s.Fields {
			buf = f.Type.appendTo(buf)
		}
	case KindStruct:
		buf = appendString(buf, s.Name)
		buf = appendUvarint(buf, uint64(len(s.Fields)))
		for _, f := range s.Fields {
			buf = appendString(buf, f.Name)
			buf = f.Type.appendTo(buf)
		}
	case KindEnum:
		buf = appendString(buf, s.Name)
		buf = appendUvarint(buf, uint64(len(s.Variants)))
		for _, v := range s.Variants {
			buf = appendString(buf, v.Name)
			buf = appendUvarint(buf, uint64(v.Index))
			buf = append(buf, byte(v.Kind))
			switch v.Kind {
			case VariantUnit:
				// no payload
			case VariantNewtype:
				buf = v.Fields[0].Type.appendTo(buf)
			case VariantTuple:
				buf = appendUvarint(buf, uint64(len(v.Fields)))
				for _, f := range v.Fields {
					buf = f.Type.appendTo(buf)
				}
			case VariantStruct:
				buf = appendUvarint(buf, uint64(len(v.Fields)))
				for _, f := range v.Fields {
					buf = appendString(buf, f.Name)
					buf = f.Type.appendTo(buf)
				}
			}
		}
	case KindOption:
		buf = s.Elem.appendTo(buf)
	case KindSeq:
		buf = appendUvarint(buf, uint64(s.Count))
		buf = s.Elem.appendTo(buf)
	case KindMap:
		buf = s.Key.appendTo(buf)
		buf = s.Value.appendTo(buf)
	default:
		// primitives and KindUnit/KindByteArray/KindChar carry no extra payload
	}
	return buf
}
