// Command respcli is a small interactive RESP client (§10.5), generalized
// from the reference codebase's newline-text client/main.go to speak real
// RESP frames through this module's own codec instead of ad hoc
// plain-text lines. It exists to manually exercise a running respd and is
// not part of the core.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/manh119/respd/internal/resp"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:6379", "address of the respd server")
	flag.Parse()

	conn, err := net.Dial("tcp", *addr)
	if err != nil {
		fmt.Fprintln(os.Stderr, "respcli: connect:", err)
		os.Exit(1)
	}
	defer conn.Close()

	fmt.Printf("connected to %s. Type a command (PING, GET key, SET key value, DEL key...), Ctrl-D to quit.\n", *addr)

	reader := bufio.NewReader(conn)
	pending := make([]byte, 0, 4096)
	scanner := bufio.NewScanner(os.Stdin)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if _, err := conn.Write(resp.EncodeBytes(inlineToFrame(line))); err != nil {
			fmt.Fprintln(os.Stderr, "respcli: write:", err)
			return
		}

		reply, err := readOneFrame(reader, &pending)
		if err != nil {
			fmt.Fprintln(os.Stderr, "respcli: read:", err)
			return
		}
		fmt.Println(render(reply))
	}
}

// inlineToFrame turns one line of whitespace-separated words into the
// Array-of-BulkString frame the command layer expects, the same
// convention redis-cli uses to turn a typed-in line into a RESP request.
func inlineToFrame(line string) resp.Frame {
	words := strings.Fields(line)
	elems := make([]resp.Frame, len(words))
	for i, w := range words {
		elems[i] = resp.NewBulkString([]byte(w))
	}
	return resp.NewArray(elems)
}

func readOneFrame(r *bufio.Reader, pending *[]byte) (resp.Frame, error) {
	for {
		frame, consumed, err := resp.Decode(*pending)
		if err == nil {
			*pending = (*pending)[consumed:]
			return frame, nil
		}
		if err != resp.ErrNeedMore {
			return resp.Frame{}, err
		}
		chunk := make([]byte, 4096)
		n, rerr := r.Read(chunk)
		if n > 0 {
			*pending = append(*pending, chunk[:n]...)
			continue
		}
		if rerr != nil {
			return resp.Frame{}, rerr
		}
	}
}

func render(f resp.Frame) string {
	switch f.Kind() {
	case resp.KindSimpleString:
		return f.Str()
	case resp.KindError:
		return "(error) " + f.Str()
	case resp.KindInteger:
		return fmt.Sprintf("(integer) %d", f.Int())
	case resp.KindBulkString:
		if f.IsNullBulk() {
			return "(nil)"
		}
		return fmt.Sprintf("%q", string(f.Bulk()))
	case resp.KindArray:
		if f.IsNullArray() {
			return "(nil)"
		}
		parts := make([]string, len(f.Elems()))
		for i, e := range f.Elems() {
			parts[i] = render(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return "(unknown frame)"
	}
}
