package testutil

import (
	"context"
	"path"
	"sync"
	"testing"

	"github.com/mohitkumar/busframe/capture"
	"github.com/mohitkumar/busframe/driver"
	"github.com/mohitkumar/busframe/segment"
	"github.com/mohitkumar/busframe/session"
	"github.com/mohitkumar/busframe/transport"
	"go.uber.org/zap/zaptest"
)

// TestServerComponents contains the pieces behind a test bridge.
type TestServerComponents struct {
	Bus     *driver.LoopbackBus
	Capture *capture.Log
	Bridge  *session.Bridge
	BaseDir string
}

// TestServer is a bridge served over the TCP transport on a loopback port.
type TestServer struct {
	*TestServerComponents
	Listener *transport.Listener
	Addr     string
	conn     *transport.Conn
	connMu   sync.Mutex
	tr       *transport.Transport
	cancel   context.CancelFunc
	served   chan error
	stopOnce sync.Once
}

// Cleanup stops the server and closes all resources associated with it.
// It is safe to call more than once.
func (ts *TestServer) Cleanup() {
	ts.connMu.Lock()
	if ts.conn != nil {
		_ = ts.conn.Close()
		ts.conn = nil
	}
	ts.connMu.Unlock()

	ts.stopOnce.Do(func() {
		ts.cancel()
		<-ts.served
		_ = ts.Bus.Close()
		_ = ts.Capture.Close()
	})
}

// GetConn returns a transport connection to the test server, reusing the connection if available.
func (ts *TestServer) GetConn() (*transport.Conn, error) {
	ts.connMu.Lock()
	defer ts.connMu.Unlock()

	if ts.conn != nil {
		return ts.conn, nil
	}

	conn, err := ts.tr.Connect(ts.Addr)
	if err != nil {
		return nil, err
	}
	ts.conn = conn
	return ts.conn, nil
}

// SetupTestServerComponents opens a capture under a temp dir and builds a
// bridge over a fresh loopback bus.
func SetupTestServerComponents(t testing.TB, baseDirSuffix string, config segment.Config, echo bool) *TestServerComponents {
	t.Helper()

	baseDir := path.Join(t.TempDir(), baseDirSuffix)
	logger := zaptest.NewLogger(t)
	l, err := capture.Open(baseDir, config, logger)
	if err != nil {
		t.Fatalf("capture.Open: %v", err)
	}
	bus := driver.NewLoopbackBus()
	return &TestServerComponents{
		Bus:     bus,
		Capture: l,
		Bridge:  session.NewBridge(bus, l, echo, logger),
		BaseDir: baseDir,
	}
}

// StartTestServer serves comps.Bridge on 127.0.0.1 and registers Cleanup.
func StartTestServer(t testing.TB, comps *TestServerComponents) *TestServer {
	t.Helper()

	tr := transport.NewTransport(transport.WithLogger(zaptest.NewLogger(t)))
	ln, err := tr.Listen("127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() {
		served <- tr.Serve(ctx, ln, comps.Bridge.Handle)
	}()

	ts := &TestServer{
		TestServerComponents: comps,
		Listener:             ln,
		Addr:                 ln.Addr().String(),
		tr:                   tr,
		cancel:               cancel,
		served:               served,
	}
	t.Cleanup(ts.Cleanup)
	return ts
}

// SetupTestServer is SetupTestServerComponents followed by StartTestServer.
func SetupTestServer(t testing.TB, echo bool) *TestServer {
	t.Helper()
	return StartTestServer(t, SetupTestServerComponents(t, "capture", segment.Config{}, echo))
}
