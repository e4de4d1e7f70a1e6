package sdk

import (
	"bytes"
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
)

// ErrInvalidEncoding is returned by Reader for short or structurally broken input.
var ErrInvalidEncoding = errors.New("invalid encoding")

// Writer is a thin borsh writer. Writes go to a bytes.Buffer and cannot fail,
// so the methods have no error return.
type Writer struct {
	buf bytes.Buffer
	enc *bin.Encoder
}

func NewWriter() *Writer {
	w := &Writer{}
	w.enc = bin.NewBorshEncoder(&w.buf)
	return w
}

func (w *Writer) Bytes() []byte { return w.buf.Bytes() }

func (w *Writer) Uint8(v uint8) { _ = w.enc.WriteUint8(v) }

func (w *Writer) Bool(v bool) {
	if v {
		w.Uint8(1)
	} else {
		w.Uint8(0)
	}
}

func (w *Writer) Uint16(v uint16) { _ = w.enc.WriteUint16(v, bin.LE) }
func (w *Writer) Uint32(v uint32) { _ = w.enc.WriteUint32(v, bin.LE) }
func (w *Writer) Uint64(v uint64) { _ = w.enc.WriteUint64(v, bin.LE) }
func (w *Writer) Int64(v int64)   { _ = w.enc.WriteInt64(v, bin.LE) }

// ByteSlice writes a u32 length prefix followed by the raw bytes.
func (w *Writer) ByteSlice(b []byte) {
	w.Uint32(uint32(len(b)))
	if len(b) > 0 {
		_ = w.enc.WriteBytes(b, false)
	}
}

func (w *Writer) Str(s string) { w.ByteSlice([]byte(s)) }

func (w *Writer) Address(a Address) { _ = w.enc.WriteBytes(a[:], false) }

func (w *Writer) OptionAddress(a *Address) {
	if a == nil {
		w.Uint8(0)
		return
	}
	w.Uint8(1)
	w.Address(*a)
}

func (w *Writer) OptionUint64(v *uint64) {
	if v == nil {
		w.Uint8(0)
		return
	}
	w.Uint8(1)
	w.Uint64(*v)
}

func (w *Writer) OptionInt64(v *int64) {
	if v == nil {
		w.Uint8(0)
		return
	}
	w.Uint8(1)
	w.Int64(*v)
}

// Reader wraps the borsh decoder with a sticky error: after the first failure every
// read returns the zero value and Err reports what went wrong.
type Reader struct {
	dec *bin.Decoder
	err error
}

func NewReader(data []byte) *Reader {
	return &Reader{dec: bin.NewBorshDecoder(data)}
}

func (r *Reader) Err() error { return r.err }

// Remaining is what is left after the fields read so far. Trailing bytes are allowed.
func (r *Reader) Remaining() int {
	if r.err != nil {
		return 0
	}
	return r.dec.Remaining()
}

func (r *Reader) fail(what string, err error) {
	if r.err == nil {
		r.err = fmt.Errorf("%w: %s: %v", ErrInvalidEncoding, what, err)
	}
}

func (r *Reader) need(what string, n int) bool {
	if r.err != nil {
		return false
	}
	if r.dec.Remaining() < n {
		r.fail(what, fmt.Errorf("need %d bytes, have %d", n, r.dec.Remaining()))
		return false
	}
	return true
}

func (r *Reader) Uint8() uint8 {
	if !r.need("u8", 1) {
		return 0
	}
	v, err := r.dec.ReadUint8()
	if err != nil {
		r.fail("u8", err)
	}
	return v
}

func (r *Reader) Bool() bool {
	v := r.Uint8()
	if v > 1 {
		r.fail("bool", fmt.Errorf("value %d", v))
		return false
	}
	return v == 1
}

func (r *Reader) Uint16() uint16 {
	if !r.need("u16", 2) {
		return 0
	}
	v, err := r.dec.ReadUint16(bin.LE)
	if err != nil {
		r.fail("u16", err)
	}
	return v
}

func (r *Reader) Uint32() uint32 {
	if !r.need("u32", 4) {
		return 0
	}
	v, err := r.dec.ReadUint32(bin.LE)
	if err != nil {
		r.fail("u32", err)
	}
	return v
}

func (r *Reader) Uint64() uint64 {
	if !r.need("u64", 8) {
		return 0
	}
	v, err := r.dec.ReadUint64(bin.LE)
	if err != nil {
		r.fail("u64", err)
	}
	return v
}

func (r *Reader) Int64() int64 {
	if !r.need("i64", 8) {
		return 0
	}
	v, err := r.dec.ReadInt64(bin.LE)
	if err != nil {
		r.fail("i64", err)
	}
	return v
}

func (r *Reader) ByteSlice() []byte {
	n := r.Uint32()
	if !r.need("bytes", int(n)) {
		return nil
	}
	if n == 0 {
		return []byte{}
	}
	b, err := r.dec.ReadNBytes(int(n))
	if err != nil {
		r.fail("bytes", err)
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

func (r *Reader) Str() string { return string(r.ByteSlice()) }

func (r *Reader) Address() Address {
	if !r.need("address", 32) {
		return ZeroAddress
	}
	b, err := r.dec.ReadNBytes(32)
	if err != nil {
		r.fail("address", err)
		return ZeroAddress
	}
	var a Address
	copy(a[:], b)
	return a
}

func (r *Reader) option(what string) bool {
	switch tag := r.Uint8(); tag {
	case 0:
		return false
	case 1:
		return true
	default:
		r.fail(what, fmt.Errorf("option tag %d", tag))
		return false
	}
}

func (r *Reader) OptionAddress() *Address {
	if !r.option("option<address>") {
		return nil
	}
	a := r.Address()
	if r.err != nil {
		return nil
	}
	return &a
}

func (r *Reader) OptionUint64() *uint64 {
	if !r.option("option<u64>") {
		return nil
	}
	v := r.Uint64()
	if r.err != nil {
		return nil
	}
	return &v
}

func (r *Reader) OptionInt64() *int64 {
	if !r.option("option<i64>") {
		return nil
	}
	v := r.Int64()
	if r.err != nil {
		return nil
	}
	return &v
}

// Len reads a u32 element count and rejects counts the remaining input cannot hold.
func (r *Reader) Len(minElemSize int) int {
	n := int(r.Uint32())
	if r.err != nil {
		return 0
	}
	if minElemSize > 0 && n > r.dec.Remaining()/minElemSize {
		r.fail("vec", fmt.Errorf("length %d exceeds input", n))
		return 0
	}
	return n
}

// Reject marks the input invalid, for enum tags the caller does not know.
func (r *Reader) Reject(what string, tag uint8) {
	r.fail(what, fmt.Errorf("unknown tag %d", tag))
}
