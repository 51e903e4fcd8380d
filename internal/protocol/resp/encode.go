package resp

import (
	"bytes"
	"fmt"
	"strconv"
)

const nullBulk = "$-1\r\n"

// Encode encodes a reply value. See AppendValue.
func Encode(v Value) []byte {
	return AppendValue(nil, v)
}

// AppendValue appends the wire form of the reply v to dst.
//
// Null encodes as the null bulk string and SimpleString as a status line.
// A SimpleString payload containing CR or LF cannot be carried by a status
// line and is sent as a bulk string instead.
//
// Only replies are encodable. Passing a BulkString or Array panics.
func AppendValue(dst []byte, v Value) []byte {
	switch v.Kind {
	case Null:
		return append(dst, nullBulk...)
	case SimpleString:
		if bytes.ContainsAny(v.Str, "\r\n") {
			return appendBulk(dst, v.Str)
		}
		dst = append(dst, byte(SimpleString))
		dst = append(dst, v.Str...)
		return append(dst, '\r', '\n')
	default:
		panic(fmt.Sprintf("resp: %s is not a reply value", v.Kind))
	}
}

// EncodeCommand encodes args as a request frame: an array of bulk strings.
func EncodeCommand(args ...[]byte) []byte {
	size := 16
	for _, a := range args {
		size += len(a) + 16
	}

	dst := make([]byte, 0, size)
	dst = append(dst, byte(Array))
	dst = strconv.AppendInt(dst, int64(len(args)), 10)
	dst = append(dst, '\r', '\n')
	for _, a := range args {
		dst = appendBulk(dst, a)
	}
	return dst
}

func appendBulk(dst, b []byte) []byte {
	dst = append(dst, byte(BulkString))
	dst = strconv.AppendInt(dst, int64(len(b)), 10)
	dst = append(dst, '\r', '\n')
	dst = append(dst, b...)
	return append(dst, '\r', '\n')
}
