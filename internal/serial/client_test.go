package serial

import (
	"errors"
	"strings"
	"testing"
	"time"
)

// fakePort scripts a device: every written command appends its canned
// response bytes to the read buffer.
type fakePort struct {
	responses map[string]string // command line (without \n) -> response bytes
	reads     strings.Builder
	pending   []byte
	writes    []string
	closed    bool
	writeErr  error
}

func newFakePort(responses map[string]string) *fakePort {
	return &fakePort{responses: responses}
}

func (f *fakePort) Write(p []byte) (int, error) {
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	cmd := strings.TrimSuffix(string(p), "\n")
	f.writes = append(f.writes, string(p))
	f.pending = append(f.pending, []byte(f.responses[cmd])...)
	return len(p), nil
}

func (f *fakePort) Read(p []byte) (int, error) {
	if len(f.pending) == 0 {
		// Simulates an expired read timeout: zero bytes, no error.
		return 0, nil
	}
	n := copy(p, f.pending)
	f.pending = f.pending[n:]
	return n, nil
}

func (f *fakePort) Close() error {
	f.closed = true
	return nil
}

func (f *fakePort) SetReadTimeout(time.Duration) error { return nil }

func newTestClient(port devicePort, openErr error) *Client {
	c := NewClient(0)
	c.open = func(device string, baud int) (devicePort, error) {
		if openErr != nil {
			return nil, openErr
		}
		return port, nil
	}
	return c
}

func TestConfigureSendsCommandsInOrder(t *testing.T) {
	port := newFakePort(map[string]string{
		"signal_id:7":          "ACK\nid=7\n",
		"signal_name:Sensor-A": "ACK\nname=Sensor-A\n",
	})
	c := newTestClient(port, nil)

	var lines []string
	err := c.Configure("/dev/ttyUSB0", "7", "Sensor-A", func(s string) {
		lines = append(lines, s)
	})
	if err != nil {
		t.Fatalf("Configure: %v", err)
	}

	if len(port.writes) != 2 {
		t.Fatalf("expected 2 writes, got %v", port.writes)
	}
	if port.writes[0] != "signal_id:7\n" {
		t.Fatalf("expected signal_id first, got %q", port.writes[0])
	}
	if port.writes[1] != "signal_name:Sensor-A\n" {
		t.Fatalf("expected signal_name second, got %q", port.writes[1])
	}
	if !port.closed {
		t.Fatal("expected port to be closed")
	}

	// Two sent lines plus two response lines per command.
	want := []string{
		"Sending: signal_id:7",
		"Response: ACK",
		"Response: id=7",
		"Sending: signal_name:Sensor-A",
		"Response: ACK",
		"Response: name=Sensor-A",
	}
	if len(lines) != len(want) {
		t.Fatalf("expected %d output lines, got %v", len(want), lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("output[%d] = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestConfigureResponseTimeoutIsProtocolError(t *testing.T) {
	// Device answers the first command with a single line, then nothing.
	port := newFakePort(map[string]string{
		"signal_id:7": "ACK\n",
	})
	c := newTestClient(port, nil)

	err := c.Configure("/dev/ttyUSB0", "7", "Sensor-A", func(string) {})

	var perr *ProtocolError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ProtocolError, got %v", err)
	}
	if perr.Field != "signal_id" {
		t.Fatalf("expected signal_id field, got %q", perr.Field)
	}
	if !port.closed {
		t.Fatal("port must be released on protocol failure")
	}
}

func TestConfigureOpenFailureIsTransportError(t *testing.T) {
	c := newTestClient(nil, errors.New("device busy"))

	err := c.Configure("/dev/ttyUSB0", "7", "Sensor-A", func(string) {})

	var terr *TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if terr.Op != "open" {
		t.Fatalf("expected open op, got %q", terr.Op)
	}
}

func TestConfigureWriteFailureReleasesPort(t *testing.T) {
	port := newFakePort(nil)
	port.writeErr = errors.New("unplugged")
	c := newTestClient(port, nil)

	err := c.Configure("/dev/ttyUSB0", "7", "Sensor-A", func(string) {})

	var terr *TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if !port.closed {
		t.Fatal("port must be released on write failure")
	}
}

func TestConfigureRejectsLongID(t *testing.T) {
	opened := false
	c := NewClient(0)
	c.open = func(string, int) (devicePort, error) {
		opened = true
		return nil, nil
	}

	err := c.Configure("/dev/ttyUSB0", "1234", "Sensor-A", func(string) {})
	if err == nil {
		t.Fatal("expected error for 4-character id")
	}
	if opened {
		t.Fatal("id validation must happen before the port is opened")
	}
}

func TestConfigureTrimsResponseWhitespace(t *testing.T) {
	port := newFakePort(map[string]string{
		"signal_id:7":   "  OK \r\n ok \n",
		"signal_name:N": "OK\nok\n",
	})
	c := newTestClient(port, nil)

	var lines []string
	if err := c.Configure("/dev/ttyUSB0", "7", "N", func(s string) {
		lines = append(lines, s)
	}); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if lines[1] != "Response: OK" || lines[2] != "Response: ok" {
		t.Fatalf("expected trimmed responses, got %v", lines)
	}
}
