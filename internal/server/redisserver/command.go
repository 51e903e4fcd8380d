package redisserver

import (
	"math"
	"strconv"
	"strings"

	"github.com/yndnr/respkv/internal/protocol/resp"
	"github.com/yndnr/respkv/internal/storage/memory"
)

// Command names.
const (
	cmdPing = "PING"
	cmdEcho = "ECHO"
	cmdSet  = "SET"
	cmdGet  = "GET"

	// labelOther groups unknown commands in metrics.
	labelOther = "other"
)

var (
	replyPong  = resp.StringValue("PONG")
	replyOK    = resp.StringValue("OK")
	replyEmpty = resp.StringValue("")
	replyNull  = resp.NullValue()
)

// Dispatcher executes commands against the store. It is safe for
// concurrent use; all shared state lives in the store.
type Dispatcher struct {
	store *memory.Store
	clock memory.Clock
}

// NewDispatcher creates a dispatcher. A nil clock uses the system clock.
func NewDispatcher(store *memory.Store, clock memory.Clock) *Dispatcher {
	if clock == nil {
		clock = memory.SystemClock{}
	}
	return &Dispatcher{store: store, clock: clock}
}

// Execute runs one decoded request frame and returns the normalized command
// label together with the reply.
//
// A frame is normally an Array whose first element names the command. A
// bare BulkString is a command without arguments. Anything else, including
// an empty Array, gets the liveness reply.
func (d *Dispatcher) Execute(frame resp.Value) (string, resp.Value) {
	switch frame.Kind {
	case resp.Array:
		if len(frame.Elems) == 0 || frame.Elems[0].Kind != resp.BulkString {
			return labelOther, replyPong
		}
		name := normalizeCommandName(frame.Elems[0].Str)
		return commandLabel(name), d.run(name, frame.Elems[1:])
	case resp.BulkString:
		name := normalizeCommandName(frame.Str)
		return commandLabel(name), d.run(name, nil)
	default:
		return labelOther, replyPong
	}
}

// Dispatch runs the named command. Name matching is case-insensitive and
// unknown names get the liveness reply. Bad arguments never fail the
// connection; they resolve to the command's failure reply.
func (d *Dispatcher) Dispatch(name []byte, args []resp.Value) resp.Value {
	return d.run(normalizeCommandName(name), args)
}

func (d *Dispatcher) run(name string, args []resp.Value) resp.Value {
	switch name {
	case cmdEcho:
		return d.echo(args)
	case cmdSet:
		return d.set(args)
	case cmdGet:
		return d.get(args)
	default:
		return replyPong
	}
}

func (d *Dispatcher) echo(args []resp.Value) resp.Value {
	if len(args) != 1 || args[0].Kind != resp.BulkString {
		return replyEmpty
	}
	return resp.SimpleStringValue(args[0].Str)
}

// set handles SET key value [PX milliseconds].
func (d *Dispatcher) set(args []resp.Value) resp.Value {
	if len(args) != 2 && len(args) != 4 {
		return replyNull
	}
	if !allBulk(args) {
		return replyNull
	}

	expiresAt := memory.NoExpiry
	if len(args) == 4 {
		if !strings.EqualFold(string(args[2].Str), "PX") {
			return replyNull
		}
		ms, err := strconv.ParseInt(string(args[3].Str), 10, 64)
		if err != nil {
			return replyNull
		}
		if ms > 0 {
			expiresAt = addMs(d.clock.NowMs(), ms)
		}
	}

	d.store.Set(string(args[0].Str), args[1].Str, expiresAt)
	return replyOK
}

func (d *Dispatcher) get(args []resp.Value) resp.Value {
	if len(args) != 1 || args[0].Kind != resp.BulkString {
		return replyEmpty
	}

	entry, ok := d.store.Get(string(args[0].Str))
	if !ok || entry.ExpiredAt(d.clock.NowMs()) {
		return replyNull
	}
	return resp.SimpleStringValue(entry.Value)
}

func allBulk(args []resp.Value) bool {
	for _, a := range args {
		if a.Kind != resp.BulkString {
			return false
		}
	}
	return true
}

// addMs returns now+ms, saturating instead of wrapping.
func addMs(now, ms int64) int64 {
	if ms > math.MaxInt64-now {
		return math.MaxInt64
	}
	return now + ms
}

func normalizeCommandName(name []byte) string {
	return strings.ToUpper(string(name))
}

func commandLabel(name string) string {
	switch name {
	case cmdPing, cmdEcho, cmdSet, cmdGet:
		return name
	default:
		return labelOther
	}
}
