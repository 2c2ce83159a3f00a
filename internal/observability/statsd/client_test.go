package statsd

import (
	"net"
	"strings"
	"testing"
	"time"
)

// fakeConn records every write so tests can assert on the wire format.
type fakeConn struct {
	net.Conn
	lines []string
}

func (f *fakeConn) Write(b []byte) (int, error) {
	f.lines = append(f.lines, string(b))
	return len(b), nil
}

func (f *fakeConn) Close() error { return nil }

func newRecordingClient(prefix string, globalTags map[string]string) (*Client, *fakeConn) {
	conn := &fakeConn{}
	client := &Client{
		enabled:    true,
		prefix:     prefix,
		globalTags: cloneTags(globalTags),
		conn:       conn,
	}
	return client, conn
}

func TestFormatTags(t *testing.T) {
	t.Parallel()

	global := map[string]string{
		"env":       "prod",
		" service ": " pipeline ",
	}
	local := map[string]string{
		"result": " success ",
		"":       "ignored",
		"env":    "stage",
	}

	got := formatTags(global, local)
	want := "|#env:stage,result:success,service:pipeline"

	if got != want {
		t.Fatalf("formatTags mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestFormatTagsEmpty(t *testing.T) {
	t.Parallel()

	if got := formatTags(nil, nil); got != "" {
		t.Fatalf("formatTags(nil, nil) = %q, want empty string", got)
	}
}

func TestCloneTagsReturnsCopy(t *testing.T) {
	t.Parallel()

	original := map[string]string{"env": "prod"}

	cloned := cloneTags(original)
	if cloned == nil {
		t.Fatal("cloneTags returned nil map")
	}

	cloned["env"] = "stage"
	if original["env"] != "prod" {
		t.Fatal("cloneTags did not copy values")
	}
}

func TestMetricName(t *testing.T) {
	t.Parallel()

	client := &Client{prefix: "deskmetrics"}
	tests := map[string]string{
		" pipeline.run ": "deskmetrics.pipeline.run",
		"retention/pass": "deskmetrics.retention_pass",
		"multi space":    "deskmetrics.multi_space",
		"..dotted..":     "deskmetrics.dotted",
	}
	for input, want := range tests {
		if got := client.metricName(input); got != want {
			t.Fatalf("metricName(%q) = %q, want %q", input, got, want)
		}
	}

	bare := &Client{}
	if got := bare.metricName("pipeline.run"); got != "pipeline.run" {
		t.Fatalf("metricName without prefix = %q", got)
	}
}

func TestCountWireFormat(t *testing.T) {
	t.Parallel()

	client, conn := newRecordingClient("deskmetrics", map[string]string{"env": "test"})
	client.Count("pipeline.run", 1, map[string]string{"result": "success"})

	if len(conn.lines) != 1 {
		t.Fatalf("expected 1 write, got %d", len(conn.lines))
	}
	want := "deskmetrics.pipeline.run:1|c|#env:test,result:success"
	if conn.lines[0] != want {
		t.Fatalf("count line = %q, want %q", conn.lines[0], want)
	}
}

func TestTimingEmitsMilliseconds(t *testing.T) {
	t.Parallel()

	client, conn := newRecordingClient("deskmetrics", nil)
	client.Timing("pipeline.duration", 1500*time.Millisecond, nil)

	if len(conn.lines) != 1 {
		t.Fatalf("expected 1 write, got %d", len(conn.lines))
	}
	if !strings.HasPrefix(conn.lines[0], "deskmetrics.pipeline.duration:1500|ms") {
		t.Fatalf("timing line = %q", conn.lines[0])
	}
}

func TestClientCloseIdempotent(t *testing.T) {
	t.Parallel()

	clientConn, peerConn := net.Pipe()
	defer peerConn.Close()

	client := &Client{enabled: true, conn: clientConn}

	if err := client.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("Close (second call) error: %v", err)
	}

	// Writes after Close are dropped, not panics.
	client.Count("pipeline.run", 1, nil)

	var nilClient *Client
	nilClient.Count("pipeline.run", 1, nil)
	if err := nilClient.Close(); err != nil {
		t.Fatalf("nil client Close error: %v", err)
	}
}

func TestNewClientDisabledWithoutAddress(t *testing.T) {
	t.Parallel()

	client, err := NewClient(Config{Enabled: true, Address: "   "})
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	if client.enabled {
		t.Fatal("client should be disabled with blank address")
	}

	// Emitting on a disabled client is a no-op.
	client.Gauge("pipeline.backlog", 2, nil)
}
