package connection

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Reply kinds, named by their RESP type byte.
const (
	KindStatus  = '+'
	KindError   = '-'
	KindInteger = ':'
	KindBulk    = '$'
	KindArray   = '*'
)

// ErrBadReply is returned for a reply the client cannot parse.
var ErrBadReply = errors.New("connection: malformed reply")

// maxReplyLen bounds bulk and array lengths accepted from a server.
const maxReplyLen = 512 * 1024 * 1024

// Reply is one server reply.
type Reply struct {
	Kind  byte
	Str   string
	Int   int64
	Nil   bool
	Elems []Reply
}

// ReadReply reads one reply from r.
func ReadReply(r *bufio.Reader) (Reply, error) {
	line, err := readLine(r)
	if err != nil {
		return Reply{}, err
	}
	if len(line) == 0 {
		return Reply{}, fmt.Errorf("%w: empty line", ErrBadReply)
	}

	kind, body := line[0], line[1:]
	switch kind {
	case KindStatus, KindError:
		return Reply{Kind: kind, Str: body}, nil
	case KindInteger:
		n, err := strconv.ParseInt(body, 10, 64)
		if err != nil {
			return Reply{}, fmt.Errorf("%w: integer %q", ErrBadReply, body)
		}
		return Reply{Kind: kind, Int: n}, nil
	case KindBulk:
		n, err := parseLen(body)
		if err != nil {
			return Reply{}, err
		}
		if n < 0 {
			return Reply{Kind: kind, Nil: true}, nil
		}
		buf := make([]byte, n+2)
		if _, err := io.ReadFull(r, buf); err != nil {
			return Reply{}, err
		}
		if buf[n] != '\r' || buf[n+1] != '\n' {
			return Reply{}, fmt.Errorf("%w: bulk not terminated by CRLF", ErrBadReply)
		}
		return Reply{Kind: kind, Str: string(buf[:n])}, nil
	case KindArray:
		n, err := parseLen(body)
		if err != nil {
			return Reply{}, err
		}
		if n < 0 {
			return Reply{Kind: kind, Nil: true}, nil
		}
		elems := make([]Reply, 0, min(n, 1024))
		for i := 0; i < n; i++ {
			e, err := ReadReply(r)
			if err != nil {
				return Reply{}, err
			}
			elems = append(elems, e)
		}
		return Reply{Kind: kind, Elems: elems}, nil
	default:
		return Reply{}, fmt.Errorf("%w: unknown type %q", ErrBadReply, kind)
	}
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return "", err
	}
	if !strings.HasSuffix(line, "\r\n") {
		return "", fmt.Errorf("%w: line not terminated by CRLF", ErrBadReply)
	}
	return line[:len(line)-2], nil
}

func parseLen(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < -1 || n > maxReplyLen {
		return 0, fmt.Errorf("%w: length %q", ErrBadReply, s)
	}
	return n, nil
}

// Format renders the reply the way redis-cli does.
func (r Reply) Format() string {
	var b strings.Builder
	r.format(&b, "")
	return b.String()
}

func (r Reply) format(b *strings.Builder, indent string) {
	switch {
	case r.Nil:
		b.WriteString("(nil)")
	case r.Kind == KindStatus:
		b.WriteString(r.Str)
	case r.Kind == KindError:
		b.WriteString("(error) " + r.Str)
	case r.Kind == KindInteger:
		b.WriteString("(integer) " + strconv.FormatInt(r.Int, 10))
	case r.Kind == KindBulk:
		b.WriteString(strconv.Quote(r.Str))
	case r.Kind == KindArray:
		if len(r.Elems) == 0 {
			b.WriteString("(empty array)")
			return
		}
		for i, e := range r.Elems {
			if i > 0 {
				b.WriteString("\n" + indent)
			}
			prefix := strconv.Itoa(i+1) + ") "
			b.WriteString(prefix)
			e.format(b, indent+strings.Repeat(" ", len(prefix)))
		}
	}
}
