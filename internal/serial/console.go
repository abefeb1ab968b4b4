package serial

import "sync"

// Console attaches to a device's serial output so a user can watch it boot
// after flashing or configuration. It owns the port for the duration of
// the connection, like a configuration session does. The console only
// reads; writing to a provisioned device goes through Client.
type Console struct {
	mu     sync.Mutex
	port   devicePort
	device string
	baud   int
	open   bool
	data   chan string
	done   chan struct{}
	dial   func(device string, baud int) (devicePort, error)
}

// NewConsole creates a disconnected console.
func NewConsole() *Console {
	return &Console{dial: openDevicePort}
}

// Connect opens the device at the given baud rate and starts forwarding
// its output. An existing connection is closed first. Each connection gets
// its own data channel; the pump closes it on exit so readers of a stale
// channel unblock instead of waiting on output that will never come.
func (c *Console) Connect(device string, baud int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.open {
		c.closeLocked()
	}
	if baud == 0 {
		baud = DefaultBaud
	}

	port, err := c.dial(device, baud)
	if err != nil {
		return &TransportError{Op: "open", Device: device, Err: err}
	}

	c.port = port
	c.device = device
	c.baud = baud
	c.open = true
	c.data = make(chan string, 64)
	c.done = make(chan struct{})

	go c.pump(port, c.data, c.done)
	return nil
}

// Disconnect releases the port. Safe to call when not connected.
func (c *Console) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

func (c *Console) closeLocked() {
	if !c.open {
		return
	}
	c.open = false
	c.port.Close()
	close(c.done)
}

// Data returns the current connection's output channel. It is closed when
// the connection ends; nil before the first Connect.
func (c *Console) Data() <-chan string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.data
}

// Connected reports whether a port is currently held.
func (c *Console) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

// Device returns the connected device path, empty when disconnected.
func (c *Console) Device() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.open {
		return ""
	}
	return c.device
}

// pump owns the data channel: it is the only sender and closes it on exit,
// so a close can never race a send.
func (c *Console) pump(port devicePort, data chan string, done chan struct{}) {
	defer close(data)

	buf := make([]byte, 1024)
	for {
		select {
		case <-done:
			return
		default:
		}

		n, err := port.Read(buf)
		if err != nil {
			return
		}
		if n > 0 {
			select {
			case data <- string(buf[:n]):
			default:
				// Viewer is behind; drop rather than stall the port.
			}
		}
	}
}
