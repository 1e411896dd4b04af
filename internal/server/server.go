// Package server is the connection driver described in §10.1: it accepts
// TCP connections, enforces a maximum concurrent-connection count with a
// counting semaphore, and drives one decode/dispatch/encode loop per
// connection. In the server process it is the only caller of the resp
// decoder/encoder and of Dispatcher.Execute; the core itself never touches
// a net.Conn.
package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/semaphore"

	"github.com/manh119/respd/internal/command"
	"github.com/manh119/respd/internal/resp"
)

// Options configures a Server.
type Options struct {
	// BufferSize sizes both the read side's bufio.Reader and the cap on
	// how many unconsumed bytes a connection may accumulate while a
	// frame is incomplete (§8 scenario 6: a frame that can never
	// complete must not be buffered forever).
	BufferSize int
	// ConnLimit is the maximum number of connections served at once.
	ConnLimit int
	Logger    hclog.Logger
}

// Server is the accept loop plus admission control of §10.1/§5.
type Server struct {
	listener   net.Listener
	dispatcher *command.Dispatcher
	bufferSize int
	sem        *semaphore.Weighted
	log        hclog.Logger
	wg         sync.WaitGroup
}

// New wires a listener and a command dispatcher into a Server. The caller
// owns listener's lifecycle up to the point Serve is called; Serve closes
// it when ctx is cancelled.
func New(listener net.Listener, dispatcher *command.Dispatcher, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	bufSize := opts.BufferSize
	if bufSize <= 0 {
		bufSize = 8192
	}
	limit := opts.ConnLimit
	if limit <= 0 {
		limit = 10000
	}
	return &Server{
		listener:   listener,
		dispatcher: dispatcher,
		bufferSize: bufSize,
		sem:        semaphore.NewWeighted(int64(limit)),
		log:        logger.Named("server"),
	}
}

// Serve runs the accept loop until ctx is cancelled or the listener
// reports an error other than a timeout. It returns once every in-flight
// connection has finished, so a caller can rely on Serve's return to mean
// "fully stopped" for graceful shutdown.
func (s *Server) Serve(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			s.listener.Close()
		case <-done:
		}
	}()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				s.wg.Wait()
				return nil
			default:
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				s.log.Warn("accept timeout", "error", err)
				continue
			}
			s.wg.Wait()
			return err
		}

		if err := s.sem.Acquire(ctx, 1); err != nil {
			conn.Close()
			s.wg.Wait()
			return nil
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.sem.Release(1)
			s.handleConn(conn)
		}()
	}
}

// handleConn drives one connection's request/reply loop until EOF, a
// fatal I/O error, or a protocol error, per §7's error taxonomy.
func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()
	addr := conn.RemoteAddr()
	s.log.Debug("connection accepted", "remote", addr)

	reader := bufio.NewReaderSize(conn, s.bufferSize)
	pending := make([]byte, 0, s.bufferSize)
	writeBuf := make([]byte, 0, s.bufferSize)

	for {
		frame, err := s.readFrame(reader, &pending)
		if err != nil {
			s.logDisconnect(addr, err)
			return
		}

		reply := s.dispatcher.Execute(frame)
		writeBuf = resp.Encode(writeBuf[:0], reply)
		if _, err := conn.Write(writeBuf); err != nil {
			s.log.Warn("connection write error", "remote", addr, "error", err)
			return
		}
	}
}

func (s *Server) logDisconnect(addr net.Addr, err error) {
	var protoErr *resp.ProtocolError
	switch {
	case errors.Is(err, io.EOF):
		s.log.Debug("connection closed by peer", "remote", addr)
	case errors.As(err, &protoErr):
		s.log.Debug("protocol error, dropping connection", "remote", addr, "error", err)
	default:
		s.log.Warn("connection read error", "remote", addr, "error", err)
	}
}

// readFrame accumulates bytes from r into pending until resp.Decode
// produces a complete frame, a protocol error occurs, or pending grows
// past s.bufferSize without ever completing — the bound that keeps a
// frame whose declared length can never be satisfied from being buffered
// forever (§8 scenario 6).
func (s *Server) readFrame(r *bufio.Reader, pending *[]byte) (resp.Frame, error) {
	for {
		frame, consumed, err := resp.Decode(*pending)
		if err == nil {
			*pending = (*pending)[consumed:]
			return frame, nil
		}
		if err != resp.ErrNeedMore {
			return resp.Frame{}, err
		}
		if len(*pending) >= s.bufferSize {
			return resp.Frame{}, fmt.Errorf("request exceeds configured buffer size of %d bytes", s.bufferSize)
		}

		chunk := make([]byte, s.bufferSize)
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
