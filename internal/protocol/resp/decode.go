package resp

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
)

// Protocol limits. A declared length above a limit fails before anything is
// allocated for it.
const (
	// DefaultMaxArrayLen limits the number of elements in one array.
	DefaultMaxArrayLen = 1024

	// DefaultMaxBulkLen limits the payload of one bulk string (512KB).
	DefaultMaxBulkLen = 512 * 1024

	// MaxDepth limits array nesting.
	MaxDepth = 32

	// maxLengthLine is the longest length line accepted, excluding CRLF.
	maxLengthLine = 32
)

var (
	// ErrIncomplete means the buffer holds a valid prefix of a frame.
	// It is not a failure: retry once more bytes are buffered.
	ErrIncomplete = errors.New("resp: incomplete frame")

	ErrUnsupportedOrEmpty = errors.New("resp: unsupported type tag or empty buffer")
	ErrMalformedLength    = errors.New("resp: malformed length")
	ErrMalformedFrame     = errors.New("resp: malformed frame")
	ErrLimitExceeded      = errors.New("resp: limit exceeded")
)

// IsMalformed reports whether err permanently invalidates the stream.
func IsMalformed(err error) bool {
	return err != nil && !errors.Is(err, ErrIncomplete)
}

// Decoder decodes frames subject to size limits. The zero value uses the
// default limits. A Decoder holds no state between calls.
type Decoder struct {
	MaxBulkLen  int
	MaxArrayLen int
}

var defaultDecoder Decoder

// Decode decodes one frame from the front of buf with the default limits.
func Decode(buf []byte) (Value, []byte, error) {
	return defaultDecoder.Decode(buf)
}

// Decode decodes one frame from the front of buf and returns it with the
// unconsumed remainder. buf is never modified; the returned value and
// remainder alias it.
//
// On error the remainder is nil and no partial value is returned.
func (d Decoder) Decode(buf []byte) (Value, []byte, error) {
	v, rest, err := d.decode(buf, 0)
	if err != nil {
		return nullValue, nil, err
	}
	return v, rest, nil
}

func (d Decoder) decode(buf []byte, depth int) (Value, []byte, error) {
	if len(buf) == 0 {
		return nullValue, nil, ErrUnsupportedOrEmpty
	}

	switch Kind(buf[0]) {
	case BulkString:
		return d.decodeBulk(buf[1:])
	case Array:
		if depth >= MaxDepth {
			return nullValue, nil, fmt.Errorf("%w: nesting deeper than %d", ErrLimitExceeded, MaxDepth)
		}
		return d.decodeArray(buf[1:], depth)
	default:
		return nullValue, nil, fmt.Errorf("%w: tag %q", ErrUnsupportedOrEmpty, buf[0])
	}
}

func (d Decoder) decodeBulk(buf []byte) (Value, []byte, error) {
	n, rest, err := readLength(buf)
	if err != nil {
		return nullValue, nil, err
	}
	if n == -1 {
		return nullValue, rest, nil
	}

	if limit := d.maxBulkLen(); n > limit {
		return nullValue, nil, fmt.Errorf("%w: bulk length %d exceeds limit %d", ErrLimitExceeded, n, limit)
	}
	if len(rest) < n+2 {
		return nullValue, nil, ErrIncomplete
	}
	if rest[n] != '\r' || rest[n+1] != '\n' {
		return nullValue, nil, fmt.Errorf("%w: bulk string not terminated by CRLF", ErrMalformedFrame)
	}

	return BulkStringValue(rest[:n:n]), rest[n+2:], nil
}

func (d Decoder) decodeArray(buf []byte, depth int) (Value, []byte, error) {
	n, rest, err := readLength(buf)
	if err != nil {
		return nullValue, nil, err
	}
	if n == -1 {
		return nullValue, rest, nil
	}

	if limit := d.maxArrayLen(); n > limit {
		return nullValue, nil, fmt.Errorf("%w: array length %d exceeds limit %d", ErrLimitExceeded, n, limit)
	}

	elems := make([]Value, 0, n)
	for i := 0; i < n; i++ {
		if len(rest) == 0 {
			// The element has not arrived yet.
			return nullValue, nil, ErrIncomplete
		}

		var elem Value
		elem, rest, err = d.decode(rest, depth+1)
		if err != nil {
			return nullValue, nil, err
		}
		elems = append(elems, elem)
	}

	return ArrayValue(elems...), rest, nil
}

// readLength reads the decimal length line at the front of buf.
// Lengths below -1 are malformed; -1 denotes a null value.
func readLength(buf []byte) (int, []byte, error) {
	line, rest, err := readLine(buf)
	if err != nil {
		return 0, nil, err
	}

	n, err := strconv.Atoi(string(line))
	if err != nil || n < -1 {
		return 0, nil, fmt.Errorf("%w: %q", ErrMalformedLength, line)
	}
	return n, rest, nil
}

// readLine returns the bytes before the first CR and the remainder after
// the CRLF that follows it.
func readLine(buf []byte) ([]byte, []byte, error) {
	i := bytes.IndexByte(buf, '\r')
	if i < 0 {
		if len(buf) > maxLengthLine {
			return nil, nil, fmt.Errorf("%w: no CRLF within %d bytes", ErrMalformedLength, maxLengthLine)
		}
		return nil, nil, ErrIncomplete
	}
	if i+1 >= len(buf) {
		return nil, nil, ErrIncomplete
	}
	if buf[i+1] != '\n' {
		return nil, nil, fmt.Errorf("%w: CR not followed by LF", ErrMalformedFrame)
	}
	return buf[:i], buf[i+2:], nil
}

func (d Decoder) maxBulkLen() int {
	if d.MaxBulkLen > 0 {
		return d.MaxBulkLen
	}
	return DefaultMaxBulkLen
}

func (d Decoder) maxArrayLen() int {
	if d.MaxArrayLen > 0 {
		return d.MaxArrayLen
	}
	return DefaultMaxArrayLen
}
