package serial

import "testing"

func TestPortLabel(t *testing.T) {
	p := Port{Device: "/dev/ttyUSB0", Description: "CP2102 USB to UART"}
	if got := p.Label(); got != "/dev/ttyUSB0 - CP2102 USB to UART" {
		t.Fatalf("unexpected label %q", got)
	}

	bare := Port{Device: "COM3"}
	if got := bare.Label(); got != "COM3" {
		t.Fatalf("unexpected label %q", got)
	}
}
