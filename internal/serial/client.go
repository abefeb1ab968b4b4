package serial

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.bug.st/serial"
)

const (
	// DefaultBaud is the device console rate for configuration.
	DefaultBaud = 115200

	// DefaultReadTimeout bounds each response-line read.
	DefaultReadTimeout = 2 * time.Second

	// MaxSignalIDLen is the device-side limit on the signal ID field.
	MaxSignalIDLen = 3
)

// TransportError reports a failed open, write, or read on the serial link.
type TransportError struct {
	Op     string
	Device string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("serial %s %s: %v", e.Op, e.Device, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError reports a missing device response: the device is defined
// to answer every accepted command with exactly two lines, so a timeout
// means the exchange is broken.
type ProtocolError struct {
	Device string
	Field  string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("no response from %s after %s command", e.Device, e.Field)
}

// devicePort is the subset of serial.Port the client needs.
type devicePort interface {
	io.ReadWriteCloser
	SetReadTimeout(time.Duration) error
}

// Client speaks the line-oriented configuration protocol used to assign a
// device its signal name and numeric ID. Each session owns the port
// exclusively and releases it on every exit path.
type Client struct {
	Baud    int
	Timeout time.Duration

	open func(device string, baud int) (devicePort, error)
}

// NewClient returns a client with the given baud rate (DefaultBaud when
// zero) and the default read timeout.
func NewClient(baud int) *Client {
	if baud == 0 {
		baud = DefaultBaud
	}
	return &Client{
		Baud:    baud,
		Timeout: DefaultReadTimeout,
		open:    openDevicePort,
	}
}

func openDevicePort(device string, baud int) (devicePort, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	return serial.Open(device, mode)
}

// Configure sends the signal ID and then the signal name, consuming two
// response lines per command. Sent commands and device responses are
// forwarded to output as informational text; response content is opaque to
// this client. The id length is also enforced by the session controller
// before any device interaction; the check here is a final guard.
func (c *Client) Configure(device, id, name string, output func(string)) error {
	if len(id) > MaxSignalIDLen {
		return fmt.Errorf("signal id %q exceeds %d characters", id, MaxSignalIDLen)
	}

	port, err := c.open(device, c.Baud)
	if err != nil {
		return &TransportError{Op: "open", Device: device, Err: err}
	}
	defer port.Close()

	if err := port.SetReadTimeout(c.Timeout); err != nil {
		return &TransportError{Op: "configure", Device: device, Err: err}
	}

	requests := []struct {
		field, value string
	}{
		{"signal_id", id},
		{"signal_name", name},
	}
	for _, req := range requests {
		if err := c.exchange(port, device, req.field, req.value, output); err != nil {
			return err
		}
	}
	return nil
}

// exchange writes one field:value command and consumes the two response
// lines the device emits for every accepted command.
func (c *Client) exchange(port devicePort, device, field, value string, output func(string)) error {
	cmd := field + ":" + value + "\n"
	output("Sending: " + strings.TrimSpace(cmd))

	if _, err := port.Write([]byte(cmd)); err != nil {
		return &TransportError{Op: "write", Device: device, Err: err}
	}

	for i := 0; i < 2; i++ {
		line, err := readLine(port)
		if errors.Is(err, errReadTimeout) {
			return &ProtocolError{Device: device, Field: field}
		}
		if err != nil {
			return &TransportError{Op: "read", Device: device, Err: err}
		}
		output("Response: " + line)
	}
	return nil
}

// errReadTimeout marks a read that expired before a newline arrived.
var errReadTimeout = errors.New("read timed out")

// readLine accumulates bytes until a newline. go.bug.st's Read returns
// zero bytes once the configured read timeout expires.
func readLine(port devicePort) (string, error) {
	var line []byte
	buf := make([]byte, 1)
	for {
		n, err := port.Read(buf)
		if err != nil {
			return "", err
		}
		if n == 0 {
			return "", errReadTimeout
		}
		if buf[0] == '\n' {
			return strings.TrimSpace(string(line)), nil
		}
		line = append(line, buf[0])
	}
}
