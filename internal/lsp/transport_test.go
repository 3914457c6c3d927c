package lsp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"testing"
	"time"
)

// fakeServer speaks the framed protocol over in-process pipes. Tests
// drive it explicitly: readRequest pulls the next client message,
// respond and notify push messages back.
type fakeServer struct {
	in   *bufio.Reader
	out  *io.PipeWriter
	stop func()
}

// newFakeServer returns a started transport wired to a fake server.
func newFakeServer(t *testing.T) (*Transport, *fakeServer) {
	t.Helper()

	clientReader, serverWriter := io.Pipe()
	serverReader, clientWriter := io.Pipe()

	transport := NewTransport(clientReader, clientWriter, nil)
	ctx, cancel := context.WithCancel(context.Background())
	transport.Start(ctx)

	srv := &fakeServer{
		in:  bufio.NewReader(serverReader),
		out: serverWriter,
	}
	srv.stop = func() {
		cancel()
		transport.Close()
		serverWriter.Close()
		serverReader.Close()
	}
	t.Cleanup(srv.stop)

	return transport, srv
}

func (s *fakeServer) readRequest(t *testing.T) Request {
	t.Helper()

	var contentLength int
	for {
		line, err := s.in.ReadString('\n')
		if err != nil {
			t.Fatalf("read header: %v", err)
		}
		line = strings.TrimSpace(line)
		if line == "" {
			break
		}
		if strings.HasPrefix(strings.ToLower(line), "content-length:") {
			parts := strings.SplitN(line, ":", 2)
			contentLength, _ = strconv.Atoi(strings.TrimSpace(parts[1]))
		}
	}

	body := make([]byte, contentLength)
	if _, err := io.ReadFull(s.in, body); err != nil {
		t.Fatalf("read body: %v", err)
	}

	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		t.Fatalf("unmarshal request: %v", err)
	}
	return req
}

func (s *fakeServer) write(t *testing.T, msg any) {
	t.Helper()

	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	header := fmt.Sprintf("Content-Length: %d\r\n\r\n", len(data))
	if _, err := io.WriteString(s.out, header+string(data)); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func (s *fakeServer) respond(t *testing.T, id int64, result any) {
	t.Helper()

	raw, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("marshal result: %v", err)
	}
	s.write(t, Response{JSONRPC: "2.0", ID: id, Result: raw})
}

func TestTransportCall(t *testing.T) {
	transport, srv := newFakeServer(t)

	go func() {
		req := srv.readRequest(t)
		if req.Method != "test/echo" {
			t.Errorf("method = %q, want test/echo", req.Method)
		}
		srv.respond(t, req.ID, map[string]string{"answer": "pong"})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	result, err := transport.Call(ctx, "test/echo", map[string]string{"q": "ping"})
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}

	var got map[string]string
	if err := json.Unmarshal(result, &got); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if got["answer"] != "pong" {
		t.Errorf("answer = %q, want pong", got["answer"])
	}
}

func TestTransportCallServerError(t *testing.T) {
	transport, srv := newFakeServer(t)

	go func() {
		req := srv.readRequest(t)
		srv.write(t, Response{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error:   &RPCError{Code: CodeMethodNotFound, Message: "unknown method"},
		})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := transport.Call(ctx, "test/missing", nil)
	rpcErr, ok := err.(*RPCError)
	if !ok {
		t.Fatalf("error = %T (%v), want *RPCError", err, err)
	}
	if rpcErr.Code != CodeMethodNotFound {
		t.Errorf("code = %d, want %d", rpcErr.Code, CodeMethodNotFound)
	}
}

func TestTransportCallContextCancelled(t *testing.T) {
	transport, srv := newFakeServer(t)

	// Drain the request without ever responding.
	go io.Copy(io.Discard, srv.in)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := transport.Call(ctx, "test/slow", nil)
	if err != context.DeadlineExceeded {
		t.Errorf("error = %v, want context.DeadlineExceeded", err)
	}
}

func TestTransportNotify(t *testing.T) {
	transport, srv := newFakeServer(t)

	done := make(chan Request, 1)
	go func() {
		done <- srv.readRequest(t)
	}()

	if err := transport.Notify(context.Background(), "test/event", map[string]int{"n": 7}); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}

	select {
	case req := <-done:
		if req.Method != "test/event" {
			t.Errorf("method = %q, want test/event", req.Method)
		}
		if req.ID != 0 {
			t.Errorf("notification carried id %d", req.ID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server never received notification")
	}
}

func TestTransportServerNotificationDispatch(t *testing.T) {
	transport, srv := newFakeServer(t)

	got := make(chan string, 1)
	transport.OnNotification("window/logMessage", func(method string, params json.RawMessage) {
		var p struct {
			Message string `json:"message"`
		}
		json.Unmarshal(params, &p)
		got <- p.Message
	})

	srv.write(t, notification{
		JSONRPC: "2.0",
		Method:  "window/logMessage",
		Params:  json.RawMessage(`{"type":3,"message":"ready"}`),
	})

	select {
	case msg := <-got:
		if msg != "ready" {
			t.Errorf("message = %q, want ready", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("handler never invoked")
	}
}

func TestTransportCallAfterClose(t *testing.T) {
	transport, _ := newFakeServer(t)

	if err := transport.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !transport.IsClosed() {
		t.Error("IsClosed() = false after Close")
	}

	_, err := transport.Call(context.Background(), "test/echo", nil)
	if err != ErrShutdown {
		t.Errorf("Call after close: error = %v, want ErrShutdown", err)
	}
	if err := transport.Notify(context.Background(), "test/event", nil); err != ErrShutdown {
		t.Errorf("Notify after close: error = %v, want ErrShutdown", err)
	}
}

func TestTransportIgnoresGarbage(t *testing.T) {
	transport, srv := newFakeServer(t)

	// Valid framing with an invalid JSON body must not kill the loop.
	body := "{not json"
	header := fmt.Sprintf("Content-Length: %d\r\n\r\n", len(body))
	if _, err := io.WriteString(srv.out, header+body); err != nil {
		t.Fatalf("write garbage: %v", err)
	}

	go func() {
		req := srv.readRequest(t)
		srv.respond(t, req.ID, "ok")
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	result, err := transport.Call(ctx, "test/after-garbage", nil)
	if err != nil {
		t.Fatalf("Call() after garbage error = %v", err)
	}
	var got string
	if err := json.Unmarshal(result, &got); err != nil || got != "ok" {
		t.Errorf("result = %s, want \"ok\"", result)
	}
}
