package serial

import (
	"fmt"

	"go.bug.st/serial/enumerator"
)

// Port is an operating-system-visible serial endpoint. Identity is the
// device path; the description is whatever the OS reports for the USB
// product, kept so a user can tell two adapters apart.
type Port struct {
	Device      string
	Description string
}

// Label renders the port the way it is shown in selection lists.
func (p Port) Label() string {
	if p.Description == "" {
		return p.Device
	}
	return fmt.Sprintf("%s - %s", p.Device, p.Description)
}

// ListPorts returns the currently connected serial ports.
func ListPorts() ([]Port, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, err
	}

	var ports []Port
	for _, d := range details {
		desc := d.Product
		if desc == "" && d.IsUSB {
			desc = fmt.Sprintf("USB %s:%s", d.VID, d.PID)
		}
		ports = append(ports, Port{
			Device:      d.Name,
			Description: desc,
		})
	}
	return ports, nil
}

// SamePorts reports whether two snapshots describe the same set of ports,
// compared by device and description, ignoring enumeration order.
func SamePorts(a, b []Port) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[Port]int, len(a))
	for _, p := range a {
		seen[p]++
	}
	for _, p := range b {
		if seen[p] == 0 {
			return false
		}
		seen[p]--
	}
	return true
}
