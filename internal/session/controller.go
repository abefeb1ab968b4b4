package session

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/buckleypaul/sigflash/internal/config"
	"github.com/buckleypaul/sigflash/internal/esptool"
	"github.com/buckleypaul/sigflash/internal/firmware"
	"github.com/buckleypaul/sigflash/internal/serial"
	"github.com/buckleypaul/sigflash/internal/store"
)

// ValidationError rejects an action before any device interaction.
type ValidationError struct {
	Reason  string
	Missing []firmware.Role
}

func (e *ValidationError) Error() string { return e.Reason }

// VersionsChangedMsg carries a fresh firmware version listing.
type VersionsChangedMsg struct {
	Versions []firmware.Version
}

// configClient is the provisioning protocol surface the controller needs.
type configClient interface {
	Configure(device, id, name string, output func(string)) error
}

// Controller owns the current port/version selection and sequences flash
// and configure operations. All methods are called from the control
// context (the bubbletea update loop); operation goroutines communicate
// back exclusively through the Sender.
type Controller struct {
	cfg    *config.Config
	root   string
	runner esptool.Runner
	client configClient
	sender esptool.Sender
	st     *store.Store

	port     *serial.Port
	version  *firmware.Version
	files    firmware.FileSet
	job      *esptool.Job
	jobStart time.Time

	// Pending configure fields, recorded to history when the job ends.
	pendingID   string
	pendingName string
}

// New wires a controller. The sender is typically *tea.Program; the store
// may be nil when history is not wanted. Selections are persisted to the
// config under root so they survive restarts.
func New(cfg *config.Config, root string, runner esptool.Runner, client configClient, sender esptool.Sender, st *store.Store) *Controller {
	return &Controller{
		cfg:    cfg,
		root:   root,
		runner: runner,
		client: client,
		sender: sender,
		st:     st,
	}
}

// SetSender installs the message sink. The sender is usually the
// running *tea.Program, which cannot exist before the model (and thus
// the controller) is built; call this before the first operation.
func (c *Controller) SetSender(s esptool.Sender) {
	c.sender = s
}

// SelectPort records the port subsequent operations target and persists it
// so the same device is picked up again on the next start.
func (c *Controller) SelectPort(p serial.Port) {
	port := p
	c.port = &port
	c.cfg.SerialPort = p.Device
	config.Save(*c.cfg, c.root, false)
}

// Port returns the current selection.
func (c *Controller) Port() (serial.Port, bool) {
	if c.port == nil {
		return serial.Port{}, false
	}
	return *c.port, true
}

// SelectVersion records the version and resolves its file set. The
// resolution fully replaces any prior one. The choice is persisted as the
// last used version.
func (c *Controller) SelectVersion(v firmware.Version) firmware.FileSet {
	version := v
	c.version = &version
	c.files = firmware.ResolveFiles(v.Dir)
	c.cfg.LastVersion = v.Name
	config.Save(*c.cfg, c.root, false)
	return c.files
}

// Version returns the current selection.
func (c *Controller) Version() (firmware.Version, bool) {
	if c.version == nil {
		return firmware.Version{}, false
	}
	return *c.version, true
}

// Files returns the file set resolved for the selected version.
func (c *Controller) Files() firmware.FileSet {
	return c.files
}

// ReconcilePorts keeps the port selection if it survived a snapshot
// change, otherwise clears it; a reset device may re-enumerate under a
// new identity. When nothing is selected, the configured device is
// selected as soon as it appears in a snapshot.
func (c *Controller) ReconcilePorts(ports []serial.Port) {
	if c.port == nil {
		if c.cfg.SerialPort == "" {
			return
		}
		for _, p := range ports {
			if p.Device == c.cfg.SerialPort {
				c.SelectPort(p)
				return
			}
		}
		return
	}
	for _, p := range ports {
		if p == *c.port {
			return
		}
	}
	c.port = nil
}

// ReconcileVersions keeps the version selection if still listed,
// re-resolving its files since the directory may have changed on disk.
// When nothing is selected, the last used version is selected as soon as
// it appears in a listing.
func (c *Controller) ReconcileVersions(versions []firmware.Version) {
	if c.version == nil {
		if c.cfg.LastVersion == "" {
			return
		}
		for _, v := range versions {
			if v.Name == c.cfg.LastVersion {
				c.SelectVersion(v)
				return
			}
		}
		return
	}
	for _, v := range versions {
		if v.Name == c.version.Name {
			c.SelectVersion(v)
			return
		}
	}
	c.version = nil
	c.files = nil
}

// Busy reports whether an operation is in flight.
func (c *Controller) Busy() bool {
	return c.job != nil && c.job.Running()
}

// ActiveJob exposes the in-flight job, nil when idle.
func (c *Controller) ActiveJob() *esptool.Job {
	return c.job
}

// RequestStop asks the active job to stop. The request never interrupts
// an in-flight write; it only prevents follow-up work.
func (c *Controller) RequestStop() {
	if c.job != nil {
		c.job.RequestStop()
	}
}

// StartFlash validates the selection and launches the firmware write.
// Output and completion arrive as esptool.OutputMsg / esptool.FinishedMsg
// through the sender.
func (c *Controller) StartFlash() (*esptool.Job, error) {
	if c.Busy() {
		return nil, &ValidationError{Reason: "an operation is already running"}
	}
	if c.port == nil {
		return nil, &ValidationError{Reason: "no serial port selected"}
	}
	if c.version == nil {
		return nil, &ValidationError{Reason: "no firmware version selected"}
	}
	if missing := c.files.Missing(); len(missing) > 0 {
		return nil, &ValidationError{
			Reason: fmt.Sprintf("version %s is missing firmware roles: %s",
				c.version.Name, firmware.RoleNames(missing)),
			Missing: missing,
		}
	}

	job := esptool.NewJob(esptool.ModeWrite, c.port.Device)
	if err := job.Start(); err != nil {
		return nil, err
	}
	c.job = job
	c.jobStart = time.Now()

	args := esptool.WriteFlashArgs(c.port.Device, c.files)
	go c.runner.Stream(c.sender, args...)
	return job, nil
}

// StartConfigure validates inputs and launches the provisioning sequence:
// the serial configuration exchange, then the read-only chip-id query that
// verifies the device still responds. The chip-id exit status is the
// signaled result; a serial failure short-circuits with a synthetic
// failed completion.
func (c *Controller) StartConfigure(name, id string) (*esptool.Job, error) {
	if c.Busy() {
		return nil, &ValidationError{Reason: "an operation is already running"}
	}
	if c.port == nil {
		return nil, &ValidationError{Reason: "no serial port selected"}
	}
	if len(id) > serial.MaxSignalIDLen {
		return nil, &ValidationError{
			Reason: fmt.Sprintf("signal ID must be at most %d characters", serial.MaxSignalIDLen),
		}
	}

	job := esptool.NewJob(esptool.ModeChipID, c.port.Device)
	if err := job.Start(); err != nil {
		return nil, err
	}
	c.job = job
	c.jobStart = time.Now()
	c.pendingID = id
	c.pendingName = name

	device := c.port.Device
	go func() {
		start := time.Now()
		err := c.client.Configure(device, id, name, func(line string) {
			c.sender.Send(esptool.OutputMsg{Line: line})
		})
		if err != nil {
			c.sender.Send(esptool.OutputMsg{Line: "Configuration failed: " + err.Error()})
			c.sender.Send(esptool.FinishedMsg{ExitCode: 1, Duration: time.Since(start), Err: err})
			return
		}
		// Port is released; verify the device answers after reset.
		c.runner.Stream(c.sender, esptool.ChipIDArgs(device)...)
	}()
	return job, nil
}

// FinishJob consumes a completion message: the job reaches its terminal
// state, history is recorded, and both the port and version snapshots are
// refreshed since a reset device or changed directory may differ now.
func (c *Controller) FinishJob(msg esptool.FinishedMsg) tea.Cmd {
	if c.job == nil {
		return nil
	}
	job := c.job
	c.job = nil

	if err := job.Finish(msg.ExitCode); err != nil {
		return nil
	}
	c.record(job, msg)

	return tea.Batch(c.RefreshPorts(), c.RefreshVersions())
}

func (c *Controller) record(job *esptool.Job, msg esptool.FinishedMsg) {
	if c.st == nil {
		return
	}
	success := msg.ExitCode == 0
	switch job.Mode {
	case esptool.ModeWrite:
		version := ""
		if c.version != nil {
			version = c.version.Name
		}
		c.st.AddFlash(store.FlashRecord{
			Port:      job.Port,
			Version:   version,
			Timestamp: c.jobStart,
			Success:   success,
			Duration:  msg.Duration.String(),
		})
	case esptool.ModeChipID:
		c.st.AddConfigure(store.ConfigureRecord{
			Port:       job.Port,
			SignalID:   c.pendingID,
			SignalName: c.pendingName,
			Timestamp:  c.jobStart,
			Success:    success,
			Duration:   msg.Duration.String(),
		})
	}
}

// RefreshVersions lists the firmware root again.
func (c *Controller) RefreshVersions() tea.Cmd {
	root := c.cfg.FirmwareRoot
	return func() tea.Msg {
		return VersionsChangedMsg{Versions: firmware.ListVersions(root)}
	}
}

// RefreshPorts enumerates ports immediately, outside the polling cadence.
func (c *Controller) RefreshPorts() tea.Cmd {
	return func() tea.Msg {
		ports, err := serial.ListPorts()
		if err != nil {
			ports = nil
		}
		return serial.PortsChangedMsg{Ports: ports}
	}
}
