package pages

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/buckleypaul/sigflash/internal/config"
	"github.com/buckleypaul/sigflash/internal/esptool"
	"github.com/buckleypaul/sigflash/internal/firmware"
	"github.com/buckleypaul/sigflash/internal/session"
)

type fakeSender struct {
	mu   sync.Mutex
	msgs []tea.Msg
}

func (f *fakeSender) Send(m tea.Msg) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, m)
}

type fakeRunner struct {
	mu       sync.Mutex
	calls    [][]string
	exitCode int
	started  chan struct{}
}

func newFakeRunner(exitCode int) *fakeRunner {
	return &fakeRunner{exitCode: exitCode, started: make(chan struct{}, 8)}
}

func (f *fakeRunner) Stream(s esptool.Sender, args ...string) {
	f.mu.Lock()
	f.calls = append(f.calls, append([]string(nil), args...))
	f.mu.Unlock()
	f.started <- struct{}{}
	s.Send(esptool.FinishedMsg{ExitCode: f.exitCode, Duration: time.Second})
}

func (f *fakeRunner) lastCall(t *testing.T) []string {
	t.Helper()
	select {
	case <-f.started:
	case <-time.After(2 * time.Second):
		t.Fatal("runner was never invoked")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

type fakeClient struct {
	err   error
	mu    sync.Mutex
	calls []struct{ device, id, name string }
}

func (f *fakeClient) Configure(device, id, name string, output func(string)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, struct{ device, id, name string }{device, id, name})
	return f.err
}

func newTestController(t *testing.T, exitCode int) (*session.Controller, *fakeRunner, *fakeClient) {
	t.Helper()
	cfg := config.Defaults()
	cfg.FirmwareRoot = t.TempDir()
	runner := newFakeRunner(exitCode)
	client := &fakeClient{}
	ctrl := session.New(&cfg, t.TempDir(), runner, client, &fakeSender{}, nil)
	return ctrl, runner, client
}

func completeVersion(t *testing.T) firmware.Version {
	t.Helper()
	dir := t.TempDir()
	for _, name := range []string{"bootloader.bin", "partition-table.bin", "boot_app0.bin", "firmware.bin"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte{0xE9}, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return firmware.Version{Name: "v1.0.0", Dir: dir}
}

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}
