package resp

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func bulk(s string) Value {
	return BulkStringValue([]byte(s))
}

func TestDecode_BulkString(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Value
		rest     string
	}{
		{
			name:     "BulkString",
			input:    "$11\r\nHello World\r\n",
			expected: bulk("Hello World"),
		},
		{
			name:     "Empty BulkString",
			input:    "$0\r\n\r\n",
			expected: bulk(""),
		},
		{
			name:     "Null BulkString",
			input:    "$-1\r\n",
			expected: NullValue(),
		},
		{
			name:     "Binary payload with CRLF inside",
			input:    "$4\r\na\r\nb\r\n",
			expected: bulk("a\r\nb"),
		},
		{
			name:     "Trailing bytes are returned as remainder",
			input:    "$3\r\nfoo\r\n$3\r\nbar\r\n",
			expected: bulk("foo"),
			rest:     "$3\r\nbar\r\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, rest, err := Decode([]byte(tt.input))
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if !tt.expected.Equal(value) {
				t.Errorf("Decode() = %s, want %s", value, tt.expected)
			}
			if string(rest) != tt.rest {
				t.Errorf("rest = %q, want %q", rest, tt.rest)
			}
		})
	}
}

func TestDecode_Array(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Value
	}{
		{
			name:     "Array Sample",
			input:    "*2\r\n$4\r\nECHO\r\n$3\r\nhey\r\n",
			expected: ArrayValue(bulk("ECHO"), bulk("hey")),
		},
		{
			name:  "SET with PX",
			input: "*5\r\n$3\r\nSET\r\n$3\r\nfoo\r\n$3\r\nbar\r\n$2\r\npx\r\n$3\r\n100\r\n",
			expected: ArrayValue(
				bulk("SET"), bulk("foo"), bulk("bar"), bulk("px"), bulk("100"),
			),
		},
		{
			name:     "Empty Array",
			input:    "*0\r\n",
			expected: ArrayValue(),
		},
		{
			name:     "Null Array",
			input:    "*-1\r\n",
			expected: NullValue(),
		},
		{
			name:  "Nested Array",
			input: "*2\r\n*2\r\n$3\r\n0-2\r\n$8\r\nhumidity\r\n*1\r\n$-1\r\n",
			expected: ArrayValue(
				ArrayValue(bulk("0-2"), bulk("humidity")),
				ArrayValue(NullValue()),
			),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, rest, err := Decode([]byte(tt.input))
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if !tt.expected.Equal(value) {
				t.Errorf("Decode() = %s, want %s", value, tt.expected)
			}
			if len(rest) != 0 {
				t.Errorf("rest = %q, want empty", rest)
			}
			if value.IsAggregate() && len(value.Elems) != len(tt.expected.Elems) {
				t.Errorf("len(Elems) = %d, want %d", len(value.Elems), len(tt.expected.Elems))
			}
		})
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		err   error
	}{
		{"Empty buffer", "", ErrUnsupportedOrEmpty},
		{"Simple string tag", "+OK\r\n", ErrUnsupportedOrEmpty},
		{"Inline command", "PING\r\n", ErrUnsupportedOrEmpty},
		{"Integer tag", ":1\r\n", ErrUnsupportedOrEmpty},
		{"Unsupported element", "*1\r\n:1\r\n", ErrUnsupportedOrEmpty},
		{"Invalid bulk length", "$ABC\r\nHello\r\n", ErrMalformedLength},
		{"Negative bulk length", "$-2\r\n", ErrMalformedLength},
		{"Empty bulk length", "$\r\n", ErrMalformedLength},
		{"Invalid array length", "*x\r\n", ErrMalformedLength},
		{"Overlong length line", "$" + strings.Repeat("1", 40), ErrMalformedLength},
		{"Bulk longer than declared", "$5\r\nHelloExtraData\r\n", ErrMalformedFrame},
		{"CR without LF", "$5\rxHello\r\n", ErrMalformedFrame},
		{"Bulk over limit", "$999999999\r\n", ErrLimitExceeded},
		{"Array over limit", "*5000\r\n", ErrLimitExceeded},
		{"Nesting over limit", strings.Repeat("*1\r\n", MaxDepth+1), ErrLimitExceeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, rest, err := Decode([]byte(tt.input))
			if !errors.Is(err, tt.err) {
				t.Fatalf("Decode() error = %v, want %v", err, tt.err)
			}
			if !IsMalformed(err) {
				t.Errorf("IsMalformed(%v) = false, want true", err)
			}
			if !value.IsNull() {
				t.Errorf("value = %s, want Null", value)
			}
			if rest != nil {
				t.Errorf("rest = %q, want nil", rest)
			}
		})
	}
}

func TestDecode_Incomplete(t *testing.T) {
	inputs := []string{
		"$",
		"$3",
		"$3\r",
		"$3\r\nfo",
		"$3\r\nfoo",
		"$3\r\nfoo\r",
		"*",
		"*2\r\n",
		"*2\r\n$3\r\nfoo\r\n",
		"*2\r\n$3\r\nfoo\r\n$3\r\nba",
		"*1\r\n*1\r\n",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			_, rest, err := Decode([]byte(input))
			if !errors.Is(err, ErrIncomplete) {
				t.Fatalf("Decode() error = %v, want ErrIncomplete", err)
			}
			if IsMalformed(err) {
				t.Error("ErrIncomplete should not be malformed")
			}
			if rest != nil {
				t.Errorf("rest = %q, want nil", rest)
			}
		})
	}
}

func TestDecode_ByteAtATime(t *testing.T) {
	frames := []string{
		"*1\r\n$4\r\nPING\r\n",
		"*2\r\n$4\r\necho\r\n$11\r\nhello world\r\n",
		"*5\r\n$3\r\nSET\r\n$1\r\nk\r\n$1\r\nv\r\n$2\r\nPX\r\n$2\r\n10\r\n",
		"*2\r\n*1\r\n$-1\r\n$0\r\n\r\n",
		"$-1\r\n",
	}

	for _, frame := range frames {
		t.Run(frame, func(t *testing.T) {
			want, _, err := Decode([]byte(frame))
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}

			for i := 1; i < len(frame); i++ {
				if _, _, err := Decode([]byte(frame[:i])); !errors.Is(err, ErrIncomplete) {
					t.Fatalf("prefix of %d bytes: error = %v, want ErrIncomplete", i, err)
				}
			}

			got, rest, err := Decode([]byte(frame))
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if !want.Equal(got) {
				t.Errorf("Decode() = %s, want %s", got, want)
			}
			if len(rest) != 0 {
				t.Errorf("rest = %q, want empty", rest)
			}
		})
	}
}

func TestDecode_DoesNotMutateInput(t *testing.T) {
	input := []byte("*2\r\n$3\r\nGET\r\n$3\r\nkey\r\n")
	original := append([]byte(nil), input...)

	if _, _, err := Decode(input); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if !bytes.Equal(original, input) {
		t.Errorf("input = %q, want %q", input, original)
	}
}

func TestDecode_MultipleFrames(t *testing.T) {
	buf := []byte("*1\r\n$4\r\nPING\r\n*2\r\n$3\r\nGET\r\n$1\r\nk\r\n*1\r\n$4")

	var decoded []Value
	for len(buf) > 0 {
		v, rest, err := Decode(buf)
		if err != nil {
			if !errors.Is(err, ErrIncomplete) {
				t.Fatalf("Decode() error = %v, want ErrIncomplete", err)
			}
			break
		}
		decoded = append(decoded, v)
		buf = rest
	}

	if len(decoded) != 2 {
		t.Fatalf("decoded %d frames, want 2", len(decoded))
	}
	if want := ArrayValue(bulk("PING")); !want.Equal(decoded[0]) {
		t.Errorf("frame 0 = %s, want %s", decoded[0], want)
	}
	if want := ArrayValue(bulk("GET"), bulk("k")); !want.Equal(decoded[1]) {
		t.Errorf("frame 1 = %s, want %s", decoded[1], want)
	}
	if string(buf) != "*1\r\n$4" {
		t.Errorf("remaining = %q, want %q", buf, "*1\r\n$4")
	}
}

func TestDecoder_CustomLimits(t *testing.T) {
	d := Decoder{MaxBulkLen: 4, MaxArrayLen: 1}

	if _, _, err := d.Decode([]byte("$5\r\nhello\r\n")); !errors.Is(err, ErrLimitExceeded) {
		t.Errorf("bulk over limit: error = %v, want ErrLimitExceeded", err)
	}
	if _, _, err := d.Decode([]byte("*2\r\n$1\r\na\r\n$1\r\nb\r\n")); !errors.Is(err, ErrLimitExceeded) {
		t.Errorf("array over limit: error = %v, want ErrLimitExceeded", err)
	}

	v, _, err := d.Decode([]byte("*1\r\n$4\r\nPING\r\n"))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if want := ArrayValue(bulk("PING")); !want.Equal(v) {
		t.Errorf("Decode() = %s, want %s", v, want)
	}
}

func TestDecode_RoundTripCommand(t *testing.T) {
	args := [][]byte{[]byte("SET"), []byte("key"), []byte("multi\r\nline"), []byte("")}

	v, rest, err := Decode(EncodeCommand(args...))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(rest) != 0 {
		t.Errorf("rest = %q, want empty", rest)
	}
	if len(v.Elems) != len(args) {
		t.Fatalf("len(Elems) = %d, want %d", len(v.Elems), len(args))
	}
	for i, a := range args {
		if v.Elems[i].Kind != BulkString {
			t.Errorf("Elems[%d].Kind = %s, want BulkString", i, v.Elems[i].Kind)
		}
		if !bytes.Equal(v.Elems[i].Str, a) {
			t.Errorf("Elems[%d] = %q, want %q", i, v.Elems[i].Str, a)
		}
	}
}
