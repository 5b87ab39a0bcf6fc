// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package postcard

import (
	"encoding/binary"
	"errors"
	"math"
)

// ErrTruncated reports a decode that ran out of input bytes.
var ErrTruncated = errors.New("postcard: truncated input")

// Encoder accumulates a postcard-encoded payload.
type Encoder struct {
	buf []byte
}

// NewEncoder returns an Encoder with an empty buffer.
func NewEncoder() *Encoder { return &Encoder{} }

// Bytes returns the accumulated encoded payload.
func (e *Encoder) Bytes() []byte { return e.buf }

func (e *Encoder) Bool(v bool) {
	if v {
		e.buf = append(e.buf, 1)
	} else {
		e.buf = append(e.buf, 0)
	}
}

func (e *Encoder) U8(v uint8)   { e.buf = append(e.buf, v) }
func (e *Encoder) I8(v int8)    { e.buf = append(e.buf, byte(v)) }
func (e *Encoder) U16(v uint16) { e.buf, _ = PutUvarint(e.buf, uint64(v)) }
func (e *Encoder) U32(v uint32) { e.buf, _ = PutUvarint(e.buf, uint64(v)) }
func (e *Encoder) U64(v uint64) { e.buf, _ = PutUvarint(e.buf, v) }
func (e *Encoder) I16(v int16)  { e.buf, _ = PutVarint(e.buf, int64(v)) }
func (e *Encoder) I32(v int32)  { e.buf, _ = PutVarint(e.buf, int64(v)) }
func (e *Encoder) I64(v int64)  { e.buf, _ = PutVarint(e.buf, v) }

func (e *Encoder) F32(v float32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], math.Float32bits(v))
	e.buf = append(e.buf, tmp[:]...)
}

func (e *Encoder) F64(v float64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], math.Float64bits(v))
	e.buf = append(e.buf, tmp[:]...)
}

func (e *Encoder) String(s string) {
	e.buf, _ = PutUvarint(e.buf, uint64(len(s)))
	e.buf = append(e.buf, s...)
}

func (e *Encoder) ByteSlice(b []byte) {
	e.buf, _ = PutUvarint(e.buf, uint64(len(b)))
	e.buf = append(e.buf, b...)
}

// OptionNone writes the postcard "absent" discriminant for an Option<T>.
func (e *Encoder) OptionNone() { e.buf = append(e.buf, 0) }

// OptionSome writes the postcard "present" discriminant; the caller
// encodes the wrapped value immediately afterward.
func (e *Encoder) OptionSome() { e.buf = append(e.buf, 1) }

// SeqLen writes a sequence length prefix; the caller encodes that many
// elements immediately afterward.
func (e *Encoder) SeqLen(n int) { e.buf, _ = PutUvarint(e.buf, uint64(n)) }

// Decoder reads a postcard-encoded payload front-to-back.
type Decoder struct {
	buf []byte
	off int
}

// NewDecoder wraps buf for sequential decoding.
func NewDecoder(buf []byte) *Decoder { return &Decoder{buf: buf} }

// Remaining returns the number of unconsumed bytes.
func (d *Decoder) Remaining() int { return len(d.buf) - d.off }

func (d *Decoder) take(n int) ([]byte, error) {
	if d.off+n > len(d.buf) {
		return nil, ErrTruncated
	}
	out := d.buf[d.off : d.off+n]
	d.off += n
	return out, nil
}

func (d *Decoder) Bool() (bool, error) {
	b, err := d.take(1)
	if err != nil {
		return false, err
	}
	return b[0] != 0, nil
}

func (d *Decoder) U8() (uint8, error) {
	b, err := d.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (d *Decoder) I8() (int8, error) {
	b, err := d.take(1)
	if err != nil {
		return 0, err
	}
	return int8(b[0]), nil
}

func (d *Decoder) U16() (uint16, error) {
	v, n, err := Uvarint(d.buf[d.off:], maxVarintBytesU64)
	if err != nil {
		return 0, err
	}
	d.off += n
	return uint16(v), nil
}

func (d *Decoder) U32() (uint32, error) {
	v, n, err := Uvarint(d.buf[d.off:], maxVarintBytesU64)
	if err != nil {
		return 0, err
	}
	d.off += n
	return uint32(v), nil
}

func (d *Decoder) U64() (uint64, error) {
	v, n, err := Uvarint(d.buf[d.off:], maxVarintBytesU64)
	if err != nil {
		return 0, err
	}
	d.off += n
	return v, nil
}

func (d *Decoder) I16() (int16, error) {
	v, n, err := Varint(d.buf[d.off:])
	if err != nil {
		return 0, err
	}
	d.off += n
	return int16(v), nil
}

func (d *Decoder) I32() (int32, error) {
	v, n, err := Varint(d.buf[d.off:])
	if err != nil {
		return 0, err
	}
	d.off += n
	return int32(v), nil
}

func (d *Decoder) I64() (int64, error) {
	v, n, err := Varint(d.buf[d.off:])
	if err != nil {
		return 0, err
	}
	d.off += n
	return v, nil
}

func (d *Decoder) F32() (float32, error) {
	b, err := d.take(4)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(b)), nil
}

func (d *Decoder) F64() (float64, error) {
	b, err := d.take(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b)), nil
}

func (d *Decoder) String() (string, error) {
	n, err := d.U32()
	if err != nil {
		return "", err
	}
	b, err := d.take(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (d *Decoder) Bytes(n int) ([]byte, error) {
	return d.take(n)
}

// BytesVec reads a length-prefixed byte sequence.
func (d *Decoder) BytesVec() ([]byte, error) {
	n, err := d.U32()
	if err != nil {
		return nil, err
	}
	b, err := d.take(int(n))
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

// OptionIsSome reads the Option discriminant byte.
func (d *Decoder) OptionIsSome() (bool, error) {
	b, err := d.take(1)
	if err != nil {
		return false, err
	}
	switch b[0] {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, errors.New("postcard: invalid option discriminant")
	}
}

// SeqLen reads a sequence length prefix.
func (d *Decoder) SeqLen() (int, error) {
	n, err := d.U32()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
