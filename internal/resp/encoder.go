package resp

import (
	"strconv"
)

// Encode appends the RESP wire representation of f to dst and returns the
// extended slice. Encoding is total: every Frame built through the
// constructors in frame.go produces valid RESP. Like Decode, Encode is
// non-recursive: arrays are walked with an explicit stack rather than by
// calling Encode on each child.
func Encode(dst []byte, f Frame) []byte {
	type pending struct {
		frame     Frame
		nextChild int
	}

	dst = appendHeader(dst, f)
	if f.Kind() != KindArray || f.IsNullArray() {
		return dst
	}

	stack := []*pending{{frame: f}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		elems := top.frame.Elems()
		if top.nextChild >= len(elems) {
			stack = stack[:len(stack)-1]
			continue
		}
		child := elems[top.nextChild]
		top.nextChild++

		dst = appendHeader(dst, child)
		if child.Kind() == KindArray && !child.IsNullArray() {
			stack = append(stack, &pending{frame: child})
		}
	}
	return dst
}

// appendHeader writes the marker, any length/value line, and — for scalar
// types — the payload for a single frame. For Array frames it writes only
// "*<n>\r\n" (or the null-array line); children are handled by the
// caller's explicit stack.
func appendHeader(dst []byte, f Frame) []byte {
	switch f.Kind() {
	case KindSimpleString:
		dst = append(dst, '+')
		dst = append(dst, f.Str()...)
		return append(dst, '\r', '\n')
	case KindError:
		dst = append(dst, '-')
		dst = append(dst, f.Str()...)
		return append(dst, '\r', '\n')
	case KindInteger:
		dst = append(dst, ':')
		dst = strconv.AppendInt(dst, f.Int(), 10)
		return append(dst, '\r', '\n')
	case KindBulkString:
		if f.IsNullBulk() {
			return append(dst, '$', '-', '1', '\r', '\n')
		}
		dst = append(dst, '$')
		dst = strconv.AppendInt(dst, int64(len(f.Bulk())), 10)
		dst = append(dst, '\r', '\n')
		dst = append(dst, f.Bulk()...)
		return append(dst, '\r', '\n')
	case KindArray:
		if f.IsNullArray() {
			return append(dst, '*', '-', '1', '\r', '\n')
		}
		dst = append(dst, '*')
		dst = strconv.AppendInt(dst, int64(len(f.Elems())), 10)
		return append(dst, '\r', '\n')
	default:
		return dst
	}
}

// EncodeBytes is a convenience wrapper returning a freshly allocated
// buffer holding the RESP encoding of f.
func EncodeBytes(f Frame) []byte {
	return Encode(nil, f)
}
