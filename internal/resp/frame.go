// Package resp implements the RESP (REdis Serialization Protocol) wire
// format: a tagged frame model plus an incremental decoder and a total
// encoder. Frames are immutable after construction.
package resp

import "fmt"

// Kind tags the variant a Frame carries.
type Kind uint8

const (
	KindSimpleString Kind = iota
	KindError
	KindInteger
	KindBulkString
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindSimpleString:
		return "SimpleString"
	case KindError:
		return "Error"
	case KindInteger:
		return "Integer"
	case KindBulkString:
		return "BulkString"
	case KindArray:
		return "Array"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Frame is one RESP value. Only one of the payload fields is meaningful,
// selected by Kind:
//
//	KindSimpleString, KindError -> str
//	KindInteger                 -> num
//	KindBulkString              -> bulk, bulkNull
//	KindArray                   -> elems, arrNull
//
// Frame is built exclusively through the constructors below so that the
// invariants in the data model (no CR/LF in simple strings/errors, null vs.
// empty distinguished for bulk strings and arrays) always hold.
type Frame struct {
	kind     Kind
	str      string
	num      int64
	bulk     []byte
	bulkNull bool
	elems    []Frame
	arrNull  bool
}

// NewSimpleString builds a SimpleString frame. s must not contain '\r' or
// '\n'; this is enforced by the decoder on the wire, and by the caller for
// frames built programmatically (the command layer never feeds it a value
// it read from user data into a SimpleString).
func NewSimpleString(s string) Frame {
	return Frame{kind: KindSimpleString, str: s}
}

// NewError builds an Error frame. Same no-CR/LF invariant as SimpleString.
func NewError(s string) Frame {
	return Frame{kind: KindError, str: s}
}

// NewInteger builds an Integer frame.
func NewInteger(i int64) Frame {
	return Frame{kind: KindInteger, num: i}
}

// NewBulkString builds a non-null BulkString frame from b. b is not copied;
// callers that retain b after this call must treat it as immutable.
func NewBulkString(b []byte) Frame {
	return Frame{kind: KindBulkString, bulk: b}
}

// NewNullBulkString builds the distinguished null bulk string ($-1\r\n).
// It is distinct from a zero-length bulk string.
func NewNullBulkString() Frame {
	return Frame{kind: KindBulkString, bulkNull: true}
}

// NewArray builds a non-null Array frame from elems. elems is not copied.
func NewArray(elems []Frame) Frame {
	if elems == nil {
		elems = []Frame{}
	}
	return Frame{kind: KindArray, elems: elems}
}

// NewNullArray builds the distinguished null array (*-1\r\n). It is
// distinct from a zero-length array.
func NewNullArray() Frame {
	return Frame{kind: KindArray, arrNull: true}
}

// Kind reports the frame's variant.
func (f Frame) Kind() Kind { return f.kind }

// Str returns the payload of a SimpleString or Error frame.
func (f Frame) Str() string { return f.str }

// Int returns the payload of an Integer frame.
func (f Frame) Int() int64 { return f.num }

// Bulk returns the payload bytes of a BulkString frame. When IsNullBulk is
// true the byte slice is nil; use IsNullBulk to tell null from empty.
func (f Frame) Bulk() []byte { return f.bulk }

// IsNullBulk reports whether a BulkString frame is the distinguished null
// bulk string.
func (f Frame) IsNullBulk() bool { return f.kind == KindBulkString && f.bulkNull }

// Elems returns the element frames of an Array frame. When IsNullArray is
// true this is nil.
func (f Frame) Elems() []Frame { return f.elems }

// IsNullArray reports whether an Array frame is the distinguished null
// array.
func (f Frame) IsNullArray() bool { return f.kind == KindArray && f.arrNull }

// Equal reports whether two frames are structurally identical, including
// the null/non-null distinction for bulk strings and arrays. It is used by
// the codec round-trip tests.
func (f Frame) Equal(other Frame) bool {
	if f.kind != other.kind {
		return false
	}
	switch f.kind {
	case KindSimpleString, KindError:
		return f.str == other.str
	case KindInteger:
		return f.num == other.num
	case KindBulkString:
		if f.bulkNull != other.bulkNull {
			return false
		}
		if f.bulkNull {
			return true
		}
		return string(f.bulk) == string(other.bulk)
	case KindArray:
		if f.arrNull != other.arrNull {
			return false
		}
		if f.arrNull {
			return true
		}
		if len(f.elems) != len(other.elems) {
			return false
		}
		for i := range f.elems {
			if !f.elems[i].Equal(other.elems[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
