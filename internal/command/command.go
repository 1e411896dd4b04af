// Package command is the frame-to-operation translator specified in §4.6:
// it receives a decoded frame representing one client request, validates
// it, invokes exactly one store operation, and shapes exactly one reply
// frame. It is the only component that knows about both resp.Frame and
// store.Store.
package command

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/manh119/respd/internal/resp"
	"github.com/manh119/respd/internal/store"
)

// Dispatcher holds the one piece of state the command layer needs: the
// store it translates requests onto.
type Dispatcher struct {
	store *store.Store
	log   hclog.Logger
}

// New returns a Dispatcher bound to s. log may be nil, in which case
// command-layer diagnostics are discarded.
func New(s *store.Store, log hclog.Logger) *Dispatcher {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Dispatcher{store: s, log: log}
}

// Execute validates request (expected to be the Array-of-BulkString frame
// the decoder produced for one client message) and returns exactly one
// reply frame. It never returns an error: every failure mode specified in
// §7 as a "Command error" is represented as an Error reply frame, and the
// connection stays open.
func (d *Dispatcher) Execute(request resp.Frame) resp.Frame {
	args, err := toBulkArgs(request)
	if err != nil {
		d.log.Debug("rejecting malformed request", "reason", err)
		return resp.NewError(err.Error())
	}
	if len(args) == 0 {
		return resp.NewError("ERR empty command")
	}

	name := strings.ToUpper(string(args[0]))
	rest := args[1:]

	switch name {
	case "PING":
		return ping(rest)
	case "GET":
		return d.get(rest)
	case "SET":
		return d.set(rest)
	case "DEL":
		return d.del(rest)
	default:
		return resp.NewError(fmt.Sprintf("ERR unknown command %q", name))
	}
}

// toBulkArgs validates that f is a non-null Array whose elements are all
// non-null BulkStrings, per §4.6(i), and extracts the raw argument bytes.
func toBulkArgs(f resp.Frame) ([][]byte, error) {
	if f.Kind() != resp.KindArray || f.IsNullArray() {
		return nil, fmt.Errorf("ERR a client request must be a RESP array of bulk strings")
	}
	elems := f.Elems()
	args := make([][]byte, len(elems))
	for i, e := range elems {
		if e.Kind() != resp.KindBulkString || e.IsNullBulk() {
			return nil, fmt.Errorf("ERR a client request's arguments must be bulk strings")
		}
		args[i] = e.Bulk()
	}
	return args, nil
}

func ping(args [][]byte) resp.Frame {
	switch len(args) {
	case 0:
		return resp.NewSimpleString("PONG")
	case 1:
		return resp.NewBulkString(args[0])
	default:
		return resp.NewError("ERR wrong number of arguments for 'ping' command")
	}
}

func (d *Dispatcher) get(args [][]byte) resp.Frame {
	if len(args) != 1 {
		return resp.NewError("ERR wrong number of arguments for 'get' command")
	}
	value, ok := d.store.Get(args[0])
	if !ok {
		return resp.NewNullBulkString()
	}
	return resp.NewBulkString(value)
}

// ttlKeywords maps the accepted case-insensitive SET option keyword to the
// unit it scales the numeric argument by. This is the resolution of Open
// Question (a): the reference codebase's own SET parser only recognized
// PX; this implementation accepts both, as required by §4.6's command
// table.
var ttlKeywords = map[string]time.Duration{
	"EX": time.Second,
	"PX": time.Millisecond,
}

func (d *Dispatcher) set(args [][]byte) resp.Frame {
	if len(args) != 2 && len(args) != 4 {
		return resp.NewError("ERR wrong number of arguments for 'set' command")
	}
	key, value := args[0], args[1]
	if len(args) == 2 {
		d.store.Set(key, value, 0, false)
		return resp.NewSimpleString("OK")
	}

	unit, ok := ttlKeywords[strings.ToUpper(string(args[2]))]
	if !ok {
		return resp.NewError(fmt.Sprintf("ERR syntax error near %q", args[2]))
	}
	n, err := strconv.ParseInt(string(args[3]), 10, 64)
	if err != nil || n < 0 {
		return resp.NewError("ERR value is not an integer or out of range")
	}

	d.store.Set(key, value, time.Duration(n)*unit, true)
	return resp.NewSimpleString("OK")
}

func (d *Dispatcher) del(args [][]byte) resp.Frame {
	if len(args) == 0 {
		return resp.NewError("ERR wrong number of arguments for 'del' command")
	}
	removed := d.store.Del(args...)
	return resp.NewInteger(int64(removed))
}
