package resp

import "testing"

func TestEncode(t *testing.T) {
	tests := []struct {
		name     string
		value    Value
		expected string
	}{
		{"Null", NullValue(), "$-1\r\n"},
		{"Liveness", StringValue("PONG"), "+PONG\r\n"},
		{"Acknowledgement", StringValue("OK"), "+OK\r\n"},
		{"Empty", StringValue(""), "+\r\n"},
		{"Echoed payload", SimpleStringValue([]byte("hello world")), "+hello world\r\n"},
		{"Payload with CRLF", SimpleStringValue([]byte("a\r\nb")), "$4\r\na\r\nb\r\n"},
		{"Payload with bare LF", SimpleStringValue([]byte("a\nb")), "$3\r\na\nb\r\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := string(Encode(tt.value)); got != tt.expected {
				t.Errorf("Encode(%s) = %q, want %q", tt.value, got, tt.expected)
			}
		})
	}
}

func TestAppendValue_Appends(t *testing.T) {
	dst := []byte("+OK\r\n")

	dst = AppendValue(dst, NullValue())

	if string(dst) != "+OK\r\n$-1\r\n" {
		t.Errorf("AppendValue() = %q, want %q", dst, "+OK\r\n$-1\r\n")
	}
}

func TestEncode_RejectsRequestValues(t *testing.T) {
	for _, v := range []Value{bulk("x"), ArrayValue(bulk("x"))} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("Encode(%s) should panic", v)
				}
			}()
			Encode(v)
		}()
	}
}

func TestEncodeCommand(t *testing.T) {
	if got := string(EncodeCommand([]byte("ECHO"), []byte("hey"))); got != "*2\r\n$4\r\nECHO\r\n$3\r\nhey\r\n" {
		t.Errorf("EncodeCommand(ECHO, hey) = %q", got)
	}
	if got := string(EncodeCommand()); got != "*0\r\n" {
		t.Errorf("EncodeCommand() = %q, want %q", got, "*0\r\n")
	}
}
